package model

import "time"

// WalletState is the lifecycle state of the key manager.
type WalletState string

const (
	WalletUninitialized WalletState = "uninitialized"
	WalletLocked        WalletState = "locked"
	WalletUnlocked      WalletState = "unlocked"
)

// ImportedAccountIndex marks accounts imported by raw private key,
// which are not part of the seed-derived sequence.
const ImportedAccountIndex = -1

// Account is public account metadata. Private key material never lives
// here; signing goes through the keyring's Signer capability.
type Account struct {
	Address         string    `json:"address"`
	PublicKey       string    `json:"publicKey"` // hex, uncompressed
	DerivationIndex int       `json:"derivationIndex"`
	DisplayName     string    `json:"displayName"`
	Imported        bool      `json:"imported,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
