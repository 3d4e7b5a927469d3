package model

// WalletVault is the decrypted form of the "wallets" secret record: every
// account's public metadata plus the raw keys of imported accounts. The
// seed-derived keys are not stored here; they re-derive from the master seed.
type WalletVault struct {
	Accounts     []Account         `json:"accounts"`
	ActiveIndex  int               `json:"activeIndex"`
	ImportedKeys map[string]string `json:"importedKeys,omitempty"` // address -> hex private key
}
