package keyring

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"ewt/internal/crypto"
	"ewt/internal/events"
	"ewt/internal/model"
	"ewt/internal/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// A valid 12-word phrase from the standard wordlist, used only in tests.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var testParams = crypto.Params{N: 1 << 4, R: 8, P: 1}

func newTestKeyring(t *testing.T) (*Manager, *events.Bus) {
	t.Helper()

	store, err := storage.OpenBolt(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := events.NewBus()
	storeMgr := storage.NewManager(store, nil, testParams, zap.NewNop())
	return NewManager(storeMgr, bus, zap.NewNop()), bus
}

func TestCreateWallet(t *testing.T) {
	ctx := context.Background()
	m, bus := newTestKeyring(t)

	var published []model.EventType
	bus.Subscribe(func(e model.Event) { published = append(published, e.Type) })

	account, mnemonic, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)

	require.Equal(t, model.WalletUnlocked, m.State())
	require.Equal(t, 0, account.DerivationIndex)
	require.Equal(t, "Account 1", account.DisplayName)
	require.Len(t, account.Address, 42)
	require.True(t, strings.HasPrefix(account.Address, "0x"))
	require.Len(t, strings.Fields(mnemonic), 12)
	require.Equal(t, []model.EventType{model.EventInitialized}, published)
}

func TestCreateWalletWeakPassword(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	for _, password := range []string{"short1", "alllowercase", "12345678"} {
		_, _, err := m.CreateWallet(ctx, []byte(password), "")
		require.ErrorIs(t, err, model.ErrWeakPassword, "password %q", password)
	}
	require.Equal(t, model.WalletUninitialized, m.State())
}

func TestCreateWalletTwice(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)

	_, _, err = m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.ErrorIs(t, err, model.ErrWalletExists)
}

func TestImportWalletInvalidMnemonic(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	tests := []string{
		"",
		"only three words",
		// 12 words but wrong checksum.
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
		"notaword " + strings.TrimPrefix(testMnemonic, "abandon "),
	}
	for _, mnemonic := range tests {
		_, err := m.ImportWallet(ctx, []byte("Sw0rdfish!23"), mnemonic, "")
		require.ErrorIs(t, err, model.ErrInvalidSeed)
	}
}

func TestLockUnlockRestoresAccounts(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, err := m.ImportWallet(ctx, []byte("Sw0rdfish!23"), testMnemonic, "")
	require.NoError(t, err)

	savings, err := m.AddDerivedAccount(ctx, "Savings")
	require.NoError(t, err)
	require.Equal(t, 1, savings.DerivationIndex)
	require.Equal(t, "Savings", savings.DisplayName)

	before := m.Accounts()
	require.Len(t, before, 2)

	m.Lock()
	require.Equal(t, model.WalletLocked, m.State())

	// Metadata stays readable while locked; signing does not.
	require.Len(t, m.Accounts(), 2)
	_, err = m.ActiveSigner()
	require.ErrorIs(t, err, model.ErrLocked)
	_, err = m.AddDerivedAccount(ctx, "")
	require.ErrorIs(t, err, model.ErrLocked)

	require.NoError(t, m.Unlock(ctx, []byte("Sw0rdfish!23")))
	require.Equal(t, model.WalletUnlocked, m.State())

	after := m.Accounts()
	require.Len(t, after, 2)
	require.Equal(t, before[0].Address, after[0].Address)
	require.Equal(t, before[1].Address, after[1].Address)
}

func TestUnlockWrongPassword(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)
	m.Lock()

	err = m.Unlock(ctx, []byte("not the password"))
	require.ErrorIs(t, err, model.ErrSecretDecryption)
	require.Equal(t, model.WalletLocked, m.State())
}

func TestUnlockUninitialized(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	require.ErrorIs(t, m.Unlock(ctx, []byte("anything")), model.ErrUninitialized)
}

func TestDerivationIsDeterministic(t *testing.T) {
	ctx := context.Background()

	m1, _ := newTestKeyring(t)
	_, err := m1.ImportWallet(ctx, []byte("Sw0rdfish!23"), testMnemonic, "")
	require.NoError(t, err)
	a1, err := m1.AddDerivedAccount(ctx, "")
	require.NoError(t, err)

	m2, _ := newTestKeyring(t)
	_, err = m2.ImportWallet(ctx, []byte("Different1pass"), testMnemonic, "")
	require.NoError(t, err)
	a2, err := m2.AddDerivedAccount(ctx, "")
	require.NoError(t, err)

	// Same phrase, same path, same addresses, independent of the password.
	require.Equal(t, m1.Accounts()[0].Address, m2.Accounts()[0].Address)
	require.Equal(t, a1.Address, a2.Address)
	require.NotEqual(t, a1.Address, m1.Accounts()[0].Address)
}

func TestAddDerivedAccountDefaults(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)

	second, err := m.AddDerivedAccount(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "Account 2", second.DisplayName)
	require.Equal(t, 1, second.DerivationIndex)
}

func TestImportPrivateKey(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)

	keyHex := "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	account, err := m.ImportPrivateKey(ctx, keyHex, "Cold")
	require.NoError(t, err)
	require.True(t, account.Imported)
	require.Equal(t, model.ImportedAccountIndex, account.DerivationIndex)
	require.Equal(t, "Cold", account.DisplayName)

	// Same key again collides on the address.
	_, err = m.ImportPrivateKey(ctx, keyHex, "Again")
	require.ErrorIs(t, err, model.ErrAccountExists)

	// Malformed keys are rejected before touching state.
	_, err = m.ImportPrivateKey(ctx, "0xdeadbeef", "")
	require.ErrorIs(t, err, model.ErrInvalidPrivateKey)
}

func TestSwitchActiveAccount(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)
	_, err = m.AddDerivedAccount(ctx, "")
	require.NoError(t, err)

	require.NoError(t, m.SwitchActiveAccount(ctx, 1))
	require.Equal(t, 1, m.ActiveIndex())

	require.ErrorIs(t, m.SwitchActiveAccount(ctx, 5), model.ErrUnknownAccount)
	require.ErrorIs(t, m.SwitchActiveAccount(ctx, -1), model.ErrUnknownAccount)
}

func TestExportPrivateKey(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	keyHex := "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)
	_, err = m.ImportPrivateKey(ctx, keyHex, "")
	require.NoError(t, err)

	got, err := m.ExportPrivateKey(ctx, 1, []byte("Sw0rdfish!23"))
	require.NoError(t, err)
	require.Equal(t, keyHex, got)

	_, err = m.ExportPrivateKey(ctx, 1, []byte("wrong password"))
	require.ErrorIs(t, err, model.ErrSecretDecryption)

	m.Lock()
	_, err = m.ExportPrivateKey(ctx, 1, []byte("Sw0rdfish!23"))
	require.ErrorIs(t, err, model.ErrLocked)
}

func TestResetReturnsToUninitialized(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx))
	require.Equal(t, model.WalletUninitialized, m.State())
	require.Empty(t, m.Accounts())

	// A fresh wallet can be created after a reset.
	_, _, err = m.CreateWallet(ctx, []byte("Another1pass"), "")
	require.NoError(t, err)
}

func TestSignerInvalidatedByLock(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)

	signer, err := m.ActiveSigner()
	require.NoError(t, err)

	tx := &model.Transaction{
		Hash:  "0xabc",
		From:  signer.Address(),
		To:    signer.Address(),
		Nonce: 0,
	}
	_, err = signer.SignTransaction(tx, 1)
	require.NoError(t, err)

	// A signer handed out before a lock must stop working after it.
	m.Lock()
	_, err = signer.SignTransaction(tx, 1)
	require.ErrorIs(t, err, model.ErrLocked)
}

func TestSignTransactionEnvelope(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, err := m.ImportWallet(ctx, []byte("Sw0rdfish!23"), testMnemonic, "")
	require.NoError(t, err)

	signer, err := m.ActiveSigner()
	require.NoError(t, err)

	tx := &model.Transaction{
		From:  signer.Address(),
		To:    "0x52908400098527886E0F7030069857D2E4169EE7",
		Nonce: 7,
	}
	raw, err := signer.SignTransaction(tx, 1)
	require.NoError(t, err)

	var envelope struct {
		From      string `json:"from"`
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Equal(t, signer.Address(), envelope.From)
	require.NotEmpty(t, envelope.Signature)
}

func TestInitializeDetectsExistingWallet(t *testing.T) {
	ctx := context.Background()

	store, err := storage.OpenBolt(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	storeMgr := storage.NewManager(store, nil, testParams, zap.NewNop())

	m := NewManager(storeMgr, events.NewBus(), zap.NewNop())
	require.NoError(t, m.Initialize(ctx))
	require.Equal(t, model.WalletUninitialized, m.State())

	_, _, err = m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)

	// A second engine over the same store starts Locked, not Uninitialized.
	m2 := NewManager(storeMgr, events.NewBus(), zap.NewNop())
	require.NoError(t, m2.Initialize(ctx))
	require.Equal(t, model.WalletLocked, m2.State())
}

func TestAddressQRWorksLocked(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestKeyring(t)

	_, _, err := m.CreateWallet(ctx, []byte("Sw0rdfish!23"), "")
	require.NoError(t, err)
	m.Lock()

	png, err := m.AddressQR(0)
	require.NoError(t, err)
	require.NotEmpty(t, png)

	_, err = m.AddressQR(9)
	require.ErrorIs(t, err, model.ErrUnknownAccount)
}
