// Package keyring implements the Key/Wallet Manager: the lock-state machine
// and the set of accounts derivable from one seed.
package keyring

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"

	"ewt/internal/common"
	"ewt/internal/events"
	"ewt/internal/model"
	"ewt/internal/storage"
)

const (
	mnemonicEntropyBits = 128 // 12 words
	minPasswordLen      = 8
)

// Manager owns the lock state and the account set. State machine:
// Uninitialized → Locked ⇄ Unlocked, with Reset returning to Uninitialized
// from any state.
type Manager struct {
	mu    sync.Mutex
	store *storage.Manager
	bus   *events.Bus
	log   *zap.Logger

	state       model.WalletState
	accounts    []model.Account // public metadata, survives lock
	activeIndex int

	// Secret material, present only while unlocked.
	seed         []byte
	importedKeys map[string]string // address -> hex private key
}

// NewManager creates a keyring over the given storage.
func NewManager(store *storage.Manager, bus *events.Bus, log *zap.Logger) *Manager {
	return &Manager{
		store: store,
		bus:   bus,
		log:   log,
		state: model.WalletUninitialized,
	}
}

// Initialize detects whether a wallet exists on disk and settles the
// starting state (Uninitialized or Locked).
func (m *Manager) Initialize(ctx context.Context) error {
	exists, err := m.store.Has(ctx, storage.KeyWallets)
	if err != nil {
		return fmt.Errorf("failed to probe wallet record: %w", err)
	}

	m.mu.Lock()
	if exists {
		m.state = model.WalletLocked
	} else {
		m.state = model.WalletUninitialized
	}
	m.mu.Unlock()
	return nil
}

// State returns the current lock state.
func (m *Manager) State() model.WalletState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CreateWallet generates a fresh seed, derives account #0 and persists the
// encrypted secrets. Returns the new account and the seed phrase, which is
// shown to the user exactly once.
func (m *Manager) CreateWallet(ctx context.Context, password []byte, name string) (*model.Account, string, error) {
	if err := checkPasswordPolicy(password); err != nil {
		return nil, "", err
	}

	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	account, err := m.initialize(ctx, password, mnemonic, name)
	if err != nil {
		return nil, "", err
	}
	return account, mnemonic, nil
}

// ImportWallet restores a wallet from an existing seed phrase. The phrase
// must be 12, 15 or 24 words from the standard wordlist with a valid
// checksum.
func (m *Manager) ImportWallet(ctx context.Context, password []byte, mnemonic, name string) (*model.Account, error) {
	if err := checkPasswordPolicy(password); err != nil {
		return nil, err
	}
	mnemonic = strings.TrimSpace(mnemonic)
	if !validMnemonic(mnemonic) {
		return nil, model.ErrInvalidSeed
	}
	return m.initialize(ctx, password, mnemonic, name)
}

// initialize is the shared tail of CreateWallet and ImportWallet.
func (m *Manager) initialize(ctx context.Context, password []byte, mnemonic, name string) (*model.Account, error) {
	m.mu.Lock()
	if m.state != model.WalletUninitialized {
		m.mu.Unlock()
		return nil, model.ErrWalletExists
	}
	m.mu.Unlock()

	if err := m.store.Unlock(ctx, password); err != nil {
		return nil, err
	}

	seed := seedFromMnemonic(mnemonic)
	priv, err := deriveKey(seed, 0)
	if err != nil {
		clear(seed)
		return nil, err
	}
	address, publicKey := addressFromKey(priv)
	priv.Zero()

	if name == "" {
		name = "Account 1"
	}
	account := model.Account{
		Address:         address,
		PublicKey:       publicKey,
		DerivationIndex: 0,
		DisplayName:     name,
		CreatedAt:       time.Now().UTC(),
	}

	m.mu.Lock()
	m.seed = seed
	m.accounts = []model.Account{account}
	m.activeIndex = 0
	m.importedKeys = map[string]string{}
	m.state = model.WalletUnlocked
	m.mu.Unlock()

	if err := m.store.SaveMasterSeed(ctx, mnemonic); err != nil {
		return nil, err
	}
	if err := m.persistVault(ctx); err != nil {
		return nil, err
	}

	m.log.Info("wallet initialized", zap.String("address", address))
	m.bus.Publish(model.Event{Type: model.EventInitialized, Payload: account})
	return &account, nil
}

// Unlock re-derives the session key from password, decrypts the persisted
// secrets and repopulates the in-memory accounts. A wrong password surfaces
// as ErrSecretDecryption.
func (m *Manager) Unlock(ctx context.Context, password []byte) error {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()

	switch state {
	case model.WalletUninitialized:
		return model.ErrUninitialized
	case model.WalletUnlocked:
		return nil
	}

	if err := m.store.Unlock(ctx, password); err != nil {
		return err
	}

	vault, err := m.store.Wallets(ctx)
	if err != nil {
		m.store.Lock()
		return err
	}
	if vault == nil {
		m.store.Lock()
		return model.ErrUninitialized
	}

	mnemonic, err := m.store.MasterSeed(ctx)
	if err != nil {
		m.store.Lock()
		return err
	}

	var seed []byte
	if mnemonic != "" {
		seed = seedFromMnemonic(mnemonic)
	}

	m.mu.Lock()
	m.seed = seed
	m.accounts = vault.Accounts
	m.activeIndex = vault.ActiveIndex
	m.importedKeys = vault.ImportedKeys
	if m.importedKeys == nil {
		m.importedKeys = map[string]string{}
	}
	m.state = model.WalletUnlocked
	m.mu.Unlock()

	m.log.Info("wallet unlocked", zap.Int("accounts", len(vault.Accounts)))
	return nil
}

// Lock synchronously wipes the in-memory seed and imported key material.
// Account display metadata stays readable; signing becomes unavailable.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != model.WalletUnlocked {
		return
	}

	clear(m.seed)
	m.seed = nil
	m.importedKeys = nil
	m.state = model.WalletLocked
	m.store.Lock()

	m.log.Info("wallet locked")
}

// Reset purges all secrets and persisted state and returns to Uninitialized.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.store.ClearAll(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	clear(m.seed)
	m.seed = nil
	m.importedKeys = nil
	m.accounts = nil
	m.activeIndex = 0
	m.state = model.WalletUninitialized
	m.mu.Unlock()

	m.log.Info("wallet reset")
	return nil
}

// AddDerivedAccount derives the account at the next unused derivation index.
func (m *Manager) AddDerivedAccount(ctx context.Context, name string) (*model.Account, error) {
	m.mu.Lock()
	if m.state != model.WalletUnlocked {
		m.mu.Unlock()
		return nil, model.ErrLocked
	}
	if m.seed == nil {
		m.mu.Unlock()
		return nil, model.ErrNoSeed
	}

	// Derivation indexes are unique and monotonically assigned.
	next := 0
	for _, a := range m.accounts {
		if !a.Imported && a.DerivationIndex >= next {
			next = a.DerivationIndex + 1
		}
	}
	seed := m.seed
	m.mu.Unlock()

	priv, err := deriveKey(seed, uint32(next))
	if err != nil {
		return nil, err
	}
	address, publicKey := addressFromKey(priv)
	priv.Zero()

	if name == "" {
		name = fmt.Sprintf("Account %d", next+1)
	}
	account := model.Account{
		Address:         address,
		PublicKey:       publicKey,
		DerivationIndex: next,
		DisplayName:     name,
		CreatedAt:       time.Now().UTC(),
	}

	m.mu.Lock()
	m.accounts = append(m.accounts, account)
	m.mu.Unlock()

	if err := m.persistVault(ctx); err != nil {
		return nil, err
	}
	return &account, nil
}

// ImportPrivateKey adds a non-derived account from a raw private key. The
// account is not tied to the seed and keeps its key in the encrypted vault.
func (m *Manager) ImportPrivateKey(ctx context.Context, privateKeyHex, name string) (*model.Account, error) {
	m.mu.Lock()
	if m.state != model.WalletUnlocked {
		m.mu.Unlock()
		return nil, model.ErrLocked
	}
	m.mu.Unlock()

	keyBytes, err := common.HexToBytes(strings.TrimSpace(privateKeyHex))
	if err != nil || len(keyBytes) != 32 {
		return nil, model.ErrInvalidPrivateKey
	}
	defer clear(keyBytes)

	priv, _ := btcec.PrivKeyFromBytes(keyBytes)
	address, publicKey := addressFromKey(priv)
	priv.Zero()

	if name == "" {
		name = "Imported"
	}
	account := model.Account{
		Address:         address,
		PublicKey:       publicKey,
		DerivationIndex: model.ImportedAccountIndex,
		DisplayName:     name,
		Imported:        true,
		CreatedAt:       time.Now().UTC(),
	}

	m.mu.Lock()
	for _, a := range m.accounts {
		if common.SameAddress(a.Address, address) {
			m.mu.Unlock()
			return nil, model.ErrAccountExists
		}
	}
	m.accounts = append(m.accounts, account)
	m.importedKeys[strings.ToLower(address)] = hex.EncodeToString(keyBytes)
	m.mu.Unlock()

	if err := m.persistVault(ctx); err != nil {
		return nil, err
	}
	return &account, nil
}

// SwitchActiveAccount selects the account at the given position.
func (m *Manager) SwitchActiveAccount(ctx context.Context, index int) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.accounts) {
		m.mu.Unlock()
		return model.ErrUnknownAccount
	}
	m.activeIndex = index
	unlocked := m.state == model.WalletUnlocked
	m.mu.Unlock()

	// The selection persists only while the vault is writable.
	if unlocked {
		return m.persistVault(ctx)
	}
	return nil
}

// ExportPrivateKey re-validates the password and returns the hex private key
// of the account at the given position.
func (m *Manager) ExportPrivateKey(ctx context.Context, index int, password []byte) (string, error) {
	m.mu.Lock()
	if m.state != model.WalletUnlocked {
		m.mu.Unlock()
		return "", model.ErrLocked
	}
	m.mu.Unlock()

	if err := m.store.VerifyPassword(ctx, password); err != nil {
		return "", err
	}

	priv, err := m.privateKeyFor(index)
	if err != nil {
		return "", err
	}
	keyHex := hex.EncodeToString(priv.Serialize())
	priv.Zero()
	return keyHex, nil
}

// Signer returns the signing capability for the account at the given
// position.
func (m *Manager) Signer(index int) (*Signer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != model.WalletUnlocked {
		return nil, model.ErrLocked
	}
	if index < 0 || index >= len(m.accounts) {
		return nil, model.ErrUnknownAccount
	}
	return &Signer{m: m, index: index, address: m.accounts[index].Address}, nil
}

// ActiveSigner returns the signer for the currently selected account.
func (m *Manager) ActiveSigner() (*Signer, error) {
	m.mu.Lock()
	index := m.activeIndex
	m.mu.Unlock()
	return m.Signer(index)
}

// Accounts returns a copy of the account metadata. Readable in any state.
func (m *Manager) Accounts() []model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Account, len(m.accounts))
	copy(out, m.accounts)
	return out
}

// ActiveIndex returns the selected account position.
func (m *Manager) ActiveIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeIndex
}

// privateKeyFor resolves the private key of the account at the given
// position. The caller must Zero the returned key.
func (m *Manager) privateKeyFor(index int) (*btcec.PrivateKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != model.WalletUnlocked {
		return nil, model.ErrLocked
	}
	if index < 0 || index >= len(m.accounts) {
		return nil, model.ErrUnknownAccount
	}

	account := m.accounts[index]
	if account.Imported {
		keyHex, ok := m.importedKeys[strings.ToLower(account.Address)]
		if !ok {
			return nil, model.ErrUnknownAccount
		}
		keyBytes, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, model.ErrInvalidPrivateKey
		}
		defer clear(keyBytes)
		priv, _ := btcec.PrivKeyFromBytes(keyBytes)
		return priv, nil
	}

	return deriveKey(m.seed, uint32(account.DerivationIndex))
}

// persistVault writes the encrypted wallets record from in-memory state.
func (m *Manager) persistVault(ctx context.Context) error {
	m.mu.Lock()
	vault := &model.WalletVault{
		Accounts:     append([]model.Account(nil), m.accounts...),
		ActiveIndex:  m.activeIndex,
		ImportedKeys: map[string]string{},
	}
	for k, v := range m.importedKeys {
		vault.ImportedKeys[k] = v
	}
	m.mu.Unlock()

	return m.store.SaveWallets(ctx, vault)
}

// checkPasswordPolicy enforces the minimum password policy: at least 8
// characters with at least one letter and one digit.
func checkPasswordPolicy(password []byte) error {
	if len(password) < minPasswordLen {
		return model.ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range string(password) {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return model.ErrWeakPassword
	}
	return nil
}
