package common

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		decimals int
		want     string
		wantErr  bool
	}{
		{name: "whole", value: "1", decimals: 18, want: "1000000000000000000"},
		{name: "fraction", value: "1.5", decimals: 18, want: "1500000000000000000"},
		{name: "small fraction", value: "0.000000001", decimals: 18, want: "1000000000"},
		{name: "token decimals", value: "12.34", decimals: 6, want: "12340000"},
		{name: "zero", value: "0", decimals: 18, want: "0"},
		{name: "trailing zeros", value: "1.500", decimals: 6, want: "1500000"},
		{name: "too many decimals", value: "0.1234567", decimals: 6, wantErr: true},
		{name: "not a number", value: "abc", decimals: 18, wantErr: true},
		{name: "empty", value: "", decimals: 18, wantErr: true},
		{name: "negative", value: "-1", decimals: 18, want: "-1000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnits(tt.value, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		decimals int
		want     string
	}{
		{name: "whole", value: "1000000000000000000", decimals: 18, want: "1"},
		{name: "fraction", value: "1500000000000000000", decimals: 18, want: "1.5"},
		{name: "sub one", value: "1000000000", decimals: 18, want: "0.000000001"},
		{name: "token", value: "12340000", decimals: 6, want: "12.34"},
		{name: "zero", value: "0", decimals: 18, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := new(big.Int).SetString(tt.value, 10)
			require.True(t, ok)
			require.Equal(t, tt.want, FormatUnits(v, tt.decimals))
		})
	}
}

func TestUnitsRoundTrip(t *testing.T) {
	for _, s := range []string{"0.5", "1", "123.456789", "0.000001"} {
		v, err := ParseUnits(s, 18)
		require.NoError(t, err)
		require.Equal(t, s, FormatUnits(v, 18))
	}
}

func TestIsHexAddress(t *testing.T) {
	require.True(t, IsHexAddress("0x52908400098527886E0F7030069857D2E4169EE7"))
	require.True(t, IsHexAddress("0xde709f2102306220921060314715629080e2fb77"))
	require.False(t, IsHexAddress("52908400098527886E0F7030069857D2E4169EE7"))
	require.False(t, IsHexAddress("0x5290840009852788"))
	require.False(t, IsHexAddress("0xZZ908400098527886E0F7030069857D2E4169EE7"))
	require.False(t, IsHexAddress(""))
}

func TestSameAddress(t *testing.T) {
	require.True(t, SameAddress(
		"0x52908400098527886E0F7030069857D2E4169EE7",
		"0x52908400098527886e0f7030069857d2e4169ee7",
	))
	require.False(t, SameAddress(
		"0x52908400098527886E0F7030069857D2E4169EE7",
		"0xde709f2102306220921060314715629080e2fb77",
	))
}

func TestHexBytesRoundTrip(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	h := BytesToHex(b)
	require.Equal(t, "0xdeadbeef", h)
	got, err := HexToBytes(h)
	require.NoError(t, err)
	require.Equal(t, b, got)

	_, err = HexToBytes("0xzz")
	require.Error(t, err)
}
