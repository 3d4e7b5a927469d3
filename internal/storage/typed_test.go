package storage

import (
	"context"
	"testing"

	"ewt/internal/model"

	"github.com/stretchr/testify/require"
)

func TestMasterSeedRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	require.NoError(t, m.Unlock(ctx, []byte("test password")))

	// Absent seed reads as empty, not as an error.
	seed, err := m.MasterSeed(ctx)
	require.NoError(t, err)
	require.Empty(t, seed)

	require.NoError(t, m.SaveMasterSeed(ctx, "legal winner thank year wave"))
	seed, err = m.MasterSeed(ctx)
	require.NoError(t, err)
	require.Equal(t, "legal winner thank year wave", seed)
}

func TestWalletVaultRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)
	require.NoError(t, m.Unlock(ctx, []byte("test password")))

	vault, err := m.Wallets(ctx)
	require.NoError(t, err)
	require.Nil(t, vault)

	in := &model.WalletVault{
		Accounts: []model.Account{
			{DerivationIndex: 0, DisplayName: "Account 1", Address: "0x52908400098527886E0F7030069857D2E4169EE7"},
		},
		ActiveIndex: 0,
	}
	require.NoError(t, m.SaveWallets(ctx, in))

	out, err := m.Wallets(ctx)
	require.NoError(t, err)
	require.Len(t, out.Accounts, 1)
	require.Equal(t, "Account 1", out.Accounts[0].DisplayName)
}

func TestNetworksDegradeToDefault(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	// Absent registry reads as nil so the caller falls back to builtins.
	require.Nil(t, m.Networks(ctx))

	// A corrupt record does the same instead of failing.
	require.NoError(t, m.store.Set(ctx, KeyNetworks, []byte("{not json")))
	require.Nil(t, m.Networks(ctx))

	in := []model.NetworkConfig{{ID: "custom_31337", DisplayName: "Devnet", ChainID: 31337}}
	require.NoError(t, m.SaveNetworks(ctx, in))
	m.ClearCache()
	require.Equal(t, in, m.Networks(ctx))
}

func TestActiveNetworkIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	require.Empty(t, m.ActiveNetworkID(ctx))
	require.NoError(t, m.SaveActiveNetworkID(ctx, "polygon"))
	require.Equal(t, "polygon", m.ActiveNetworkID(ctx))
}

func TestTransactionHistoryKeyedPerNetworkAndAddress(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	txs := []model.Transaction{{Hash: "0xabc", NetworkID: "ethereum"}}
	require.NoError(t, m.SaveTransactionHistory(ctx, "ethereum", "0xAbCd", txs))

	// Address lookup is case-insensitive; network id is not shared.
	require.Len(t, m.TransactionHistory(ctx, "ethereum", "0xABCD"), 1)
	require.Nil(t, m.TransactionHistory(ctx, "polygon", "0xAbCd"))

	require.NoError(t, m.DeleteTransactionHistory(ctx, "ethereum", "0xAbCd"))
	require.Nil(t, m.TransactionHistory(ctx, "ethereum", "0xAbCd"))
}

func TestTokensRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	require.Nil(t, m.Tokens(ctx, "ethereum"))

	in := []model.Token{{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6}}
	require.NoError(t, m.SaveTokens(ctx, "ethereum", in))
	require.Equal(t, in, m.Tokens(ctx, "ethereum"))
	require.Nil(t, m.Tokens(ctx, "polygon"))
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, nil)

	require.Empty(t, m.Settings(ctx))

	require.NoError(t, m.SaveSettings(ctx, map[string]string{"theme": "dark"}))
	require.Equal(t, map[string]string{"theme": "dark"}, m.Settings(ctx))
}
