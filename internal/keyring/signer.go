package keyring

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"ewt/internal/common"
	"ewt/internal/model"
)

// Signer is the signing capability for one account. It holds no key
// material; every signature re-resolves the key through the manager, so
// signing becomes unavailable the moment the wallet locks.
type Signer struct {
	m       *Manager
	index   int
	address string
}

// Address returns the account address this signer signs for.
func (s *Signer) Address() string {
	return s.address
}

// signingPayload is the canonical unsigned-transaction encoding that gets
// hashed and signed. The chain client treats the signed bytes as opaque.
type signingPayload struct {
	ChainID              uint64   `json:"chainId"`
	Nonce                uint64   `json:"nonce"`
	To                   string   `json:"to"`
	Value                *big.Int `json:"value"`
	InputData            string   `json:"inputData,omitempty"`
	FeeModel             string   `json:"feeModel"`
	GasLimit             uint64   `json:"gasLimit"`
	GasPrice             *big.Int `json:"gasPrice,omitempty"`
	MaxFeePerGas         *big.Int `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"maxPriorityFeePerGas,omitempty"`
}

// signedEnvelope is the raw-transaction form submitted to the connection.
type signedEnvelope struct {
	Payload   signingPayload `json:"payload"`
	From      string         `json:"from"`
	Signature string         `json:"signature"` // 65-byte compact recoverable
}

// SignTransaction signs tx for the given chain and returns the raw signed
// bytes to submit. Fails with ErrLocked once the wallet is locked.
func (s *Signer) SignTransaction(tx *model.Transaction, chainID uint64) ([]byte, error) {
	priv, err := s.m.privateKeyFor(s.index)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	payload := signingPayload{
		ChainID:              chainID,
		Nonce:                tx.Nonce,
		To:                   tx.To,
		Value:                tx.Value,
		InputData:            tx.InputData,
		FeeModel:             string(tx.FeeModel),
		GasLimit:             tx.GasLimit,
		GasPrice:             tx.GasPrice,
		MaxFeePerGas:         tx.MaxFeePerGas,
		MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	digest := common.Keccak256(encoded)
	sig, err := ecdsa.SignCompact(priv, digest, false)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	raw, err := json.Marshal(signedEnvelope{
		Payload:   payload,
		From:      s.address,
		Signature: common.BytesToHex(sig),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed transaction: %w", err)
	}
	return raw, nil
}
