package model

import (
	"math/big"
	"time"
)

// FeeModel selects the transaction pricing scheme.
type FeeModel string

const (
	FeeModelLegacy   FeeModel = "legacy"       // single gas price
	FeeModelPriority FeeModel = "priority-fee" // separate base/priority fee fields
)

// TxStatus is the lifecycle state of a tracked transaction.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
	TxStatusReplaced  TxStatus = "replaced"
)

// Transaction is one tracked record. Created on submit, mutated only by the
// monitoring routine or by an explicit replacement, never deleted: superseded
// records are retained with status "replaced" for audit.
type Transaction struct {
	Hash      string   `json:"hash"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Value     *big.Int `json:"value"`
	InputData string   `json:"inputData,omitempty"` // 0x-hex call data
	Nonce     uint64   `json:"nonce"`

	FeeModel             FeeModel `json:"feeModel"`
	GasLimit             uint64   `json:"gasLimit"`
	GasPrice             *big.Int `json:"gasPrice,omitempty"`
	MaxFeePerGas         *big.Int `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"maxPriorityFeePerGas,omitempty"`

	Status      TxStatus   `json:"status"`
	BlockNumber uint64     `json:"blockNumber,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Replacement linking (speed-up / cancel)
	ReplacedByHash string `json:"replacedByHash,omitempty"`
	OriginalHash   string `json:"originalHash,omitempty"`

	NetworkID string `json:"networkId"`
}

// TxParams are the caller-supplied inputs to send. Zero GasLimit means
// estimate; nil Nonce means next available.
type TxParams struct {
	To        string   `json:"to"`
	Value     *big.Int `json:"value"`
	InputData string   `json:"inputData,omitempty"`
	GasLimit  uint64   `json:"gasLimit,omitempty"`
	Nonce     *uint64  `json:"nonce,omitempty"`

	// Explicit fee overrides; nil means use the estimate.
	GasPrice             *big.Int `json:"gasPrice,omitempty"`
	MaxFeePerGas         *big.Int `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"maxPriorityFeePerGas,omitempty"`
}

// FeeEstimate is the result of estimateFee.
type FeeEstimate struct {
	FeeModel             FeeModel `json:"feeModel"`
	GasLimit             uint64   `json:"gasLimit"`
	GasPrice             *big.Int `json:"gasPrice,omitempty"`
	MaxFeePerGas         *big.Int `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"maxPriorityFeePerGas,omitempty"`
}

// HistoryFilter narrows getHistory results.
type HistoryFilter struct {
	Status *TxStatus `json:"status,omitempty"`
	From   *string   `json:"from,omitempty"`
	To     *string   `json:"to,omitempty"`
}
