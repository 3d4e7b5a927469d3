package model

import (
	"math/big"
	"time"
)

// NetworkConfig describes one chain endpoint in the registry.
type NetworkConfig struct {
	ID                   string    `json:"id"`
	DisplayName          string    `json:"displayName"`
	EndpointURL          string    `json:"endpointUrl"`
	ChainID              uint64    `json:"chainId"`
	NativeSymbol         string    `json:"nativeSymbol"`
	ExplorerURLPrefix    string    `json:"explorerUrlPrefix,omitempty"`
	IsTestnet            bool      `json:"isTestnet"`
	IsCustom             bool      `json:"isCustom"`
	SupportsPriorityFees bool      `json:"supportsPriorityFees"`
	AddedAt              time.Time `json:"addedAt"`
}

// NetworkStatus is the tagged result of a status probe. Probing is expected
// to fail transiently, so failures are reported here, never as an error.
type NetworkStatus struct {
	NetworkID   string    `json:"networkId"`
	OK          bool      `json:"ok"`
	Error       string    `json:"error,omitempty"`
	LatencyMS   int64     `json:"latencyMs"`
	BlockHeight uint64    `json:"blockHeight"`
	BlockTime   time.Time `json:"blockTime"`
	GasPrice    *big.Int  `json:"gasPrice,omitempty"`
	BaseFee     *big.Int  `json:"baseFee,omitempty"`
	Syncing     bool      `json:"syncing"`
	CheckedAt   time.Time `json:"checkedAt"`
}

// NetworkChange is the payload of a networkChanged event.
type NetworkChange struct {
	PreviousID string        `json:"previousId"`
	NewID      string        `json:"newId"`
	Config     NetworkConfig `json:"config"`
}
