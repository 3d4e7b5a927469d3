// Package chain defines the connection-handle capability consumed by the
// wallet engine. Implementations own the wire protocol; the engine treats
// them as opaque.
package chain

import (
	"context"
	"math/big"
	"time"
)

// ChainInfo is the endpoint's view of itself.
type ChainInfo struct {
	ChainID     uint64
	BlockHeight uint64
	Syncing     bool
}

// Block is the subset of block data the engine consumes.
type Block struct {
	Number  uint64
	Time    time.Time
	BaseFee *big.Int // nil on chains without a base fee
}

// FeeSuggestion are current fee levels for both pricing models.
type FeeSuggestion struct {
	GasPrice             *big.Int
	BaseFee              *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Receipt is a confirmation receipt. Status 1 means success, 0 means the
// transaction was included but reverted.
type Receipt struct {
	TxHash      string
	Status      uint64
	BlockNumber uint64
}

// TxInfo describes an on-chain (or mempool) transaction. BlockNumber is nil
// while the transaction is still pending.
type TxInfo struct {
	Hash        string
	From        string
	To          string
	Value       *big.Int
	Nonce       uint64
	BlockNumber *uint64
}

// CallMsg is a gas-estimation or read-only call skeleton.
type CallMsg struct {
	From  string
	To    string
	Value *big.Int
	Data  []byte
}

// Client is the active connection handle for one endpoint. All methods are
// blocking and honor ctx cancellation.
type Client interface {
	GetChainInfo(ctx context.Context) (*ChainInfo, error)
	GetBlock(ctx context.Context, tag string) (*Block, error)
	EstimateGas(ctx context.Context, call CallMsg) (uint64, error)
	GetFeeLevels(ctx context.Context) (*FeeSuggestion, error)
	SendRawTransaction(ctx context.Context, raw []byte) (string, error)
	GetTransactionReceipt(ctx context.Context, hash string) (*Receipt, error)
	GetTransaction(ctx context.Context, hash string) (*TxInfo, error)
	GetTokenBalance(ctx context.Context, token, owner string) (*big.Int, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	PendingNonce(ctx context.Context, address string) (uint64, error)
	Close()
}

// Dialer builds a Client for an endpoint. The network manager holds one and
// uses it whenever the active network changes.
type Dialer func(endpointURL string, chainID uint64) (Client, error)
