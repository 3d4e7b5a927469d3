package txmgr

import (
	"fmt"
	"math/big"

	"ewt/internal/common"
	"ewt/internal/model"
)

// transferSelector is the 4-byte selector of transfer(address,uint256).
var transferSelector = common.Keccak256([]byte("transfer(address,uint256)"))[:4]

// transferCallData encodes a standard fungible-token transfer call:
// selector, then the recipient and amount left-padded to 32 bytes each.
func transferCallData(to string, amount *big.Int) ([]byte, error) {
	toBytes, err := common.HexToBytes(to)
	if err != nil || len(toBytes) != 20 {
		return nil, model.ErrInvalidRecipient
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, model.ErrInvalidAmount
	}

	data := make([]byte, 4+32+32)
	copy(data[:4], transferSelector)
	copy(data[4+12:4+32], toBytes)
	amount.FillBytes(data[4+32 : 4+64])
	return data, nil
}

// bumpFee multiplies a fee field by multiplier, rounding up so every
// replacement's fee is at least the prior fee times the multiplier.
func bumpFee(v *big.Int, multiplier float64) *big.Int {
	if v == nil {
		return nil
	}
	scale := big.NewInt(int64(multiplier*1000 + 0.5))
	out := new(big.Int).Mul(v, scale)
	out.Add(out, big.NewInt(999))
	return out.Div(out, big.NewInt(1000))
}

// explorerLink is a convenience for logs and facade responses.
func explorerLink(prefix, hash string) string {
	if prefix == "" {
		return ""
	}
	return fmt.Sprintf("%s%s", prefix, hash)
}
