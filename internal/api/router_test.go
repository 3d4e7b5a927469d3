package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"ewt/internal/chain"
	"ewt/internal/crypto"
	"ewt/internal/events"
	"ewt/internal/keyring"
	"ewt/internal/model"
	"ewt/internal/netmgr"
	"ewt/internal/storage"
	"ewt/internal/txmgr"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubClient is a minimal healthy connection handle.
type stubClient struct{}

func (stubClient) GetChainInfo(context.Context) (*chain.ChainInfo, error) {
	return &chain.ChainInfo{ChainID: 1, BlockHeight: 100}, nil
}

func (stubClient) GetBlock(context.Context, string) (*chain.Block, error) {
	return &chain.Block{Number: 100, Time: time.Now()}, nil
}

func (stubClient) EstimateGas(context.Context, chain.CallMsg) (uint64, error) { return 21000, nil }

func (stubClient) GetFeeLevels(context.Context) (*chain.FeeSuggestion, error) {
	return &chain.FeeSuggestion{
		GasPrice:             big.NewInt(1000),
		MaxFeePerGas:         big.NewInt(2000),
		MaxPriorityFeePerGas: big.NewInt(100),
	}, nil
}

func (stubClient) SendRawTransaction(context.Context, []byte) (string, error) { return "0xhash", nil }

func (stubClient) GetTransactionReceipt(context.Context, string) (*chain.Receipt, error) {
	return nil, nil
}

func (stubClient) GetTransaction(context.Context, string) (*chain.TxInfo, error) { return nil, nil }

func (stubClient) GetTokenBalance(context.Context, string, string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (stubClient) GetBalance(context.Context, string) (*big.Int, error) {
	return big.NewInt(1e18), nil
}

func (stubClient) PendingNonce(context.Context, string) (uint64, error) { return 0, nil }

func (stubClient) Close() {}

func newTestServer(t *testing.T) (*httptest.Server, *storage.Manager) {
	t.Helper()
	ctx := context.Background()

	store, err := storage.OpenBolt(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	storeMgr := storage.NewManager(store, nil, crypto.Params{N: 1 << 4, R: 8, P: 1}, zap.NewNop())
	bus := events.NewBus()
	keys := keyring.NewManager(storeMgr, bus, zap.NewNop())
	networks := netmgr.NewManager(storeMgr, bus, func(string, uint64) (chain.Client, error) {
		return stubClient{}, nil
	}, zap.NewNop())
	require.NoError(t, keys.Initialize(ctx))
	require.NoError(t, networks.Initialize(ctx, "ethereum"))
	t.Cleanup(networks.Close)

	txs := txmgr.NewManager(networks, storeMgr, bus, clock.NewDefaultClock(), txmgr.Config{}, zap.NewNop())

	srv := httptest.NewServer(SetupRouter(keys, networks, txs, storeMgr))
	t.Cleanup(srv.Close)
	return srv, storeMgr
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestWalletLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	// Create.
	resp := postJSON(t, srv.URL+"/wallet/create", model.CreateWalletRequest{Password: "Sw0rdfish!23"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created model.CreateWalletResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.SeedPhrase)
	require.NotEmpty(t, created.Account.Address)

	// Accounts.
	var accounts model.AccountsResponse
	resp = getJSON(t, srv.URL+"/wallet/accounts", &accounts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, accounts.Accounts, 1)
	require.Equal(t, 0, accounts.ActiveIndex)

	// Derive a second account.
	resp = postJSON(t, srv.URL+"/wallet/derive", model.DeriveAccountRequest{Name: "Savings"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Lock, then a locked derive conflicts.
	resp = postJSON(t, srv.URL+"/wallet/lock", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = postJSON(t, srv.URL+"/wallet/derive", model.DeriveAccountRequest{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Wrong password is forbidden, right one unlocks.
	resp = postJSON(t, srv.URL+"/wallet/unlock", model.UnlockRequest{Password: "wrong password"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = postJSON(t, srv.URL+"/wallet/unlock", model.UnlockRequest{Password: "Sw0rdfish!23"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnlockRestoresPersistedHistory(t *testing.T) {
	srv, store := newTestServer(t)

	resp := postJSON(t, srv.URL+"/wallet/create", model.CreateWalletRequest{Password: "Sw0rdfish!23"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created model.CreateWalletResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	// History persisted in an earlier run would sit in storage while the
	// engine's in-memory records start empty.
	persisted := []model.Transaction{{
		Hash:      "0xold",
		From:      created.Account.Address,
		To:        "0x52908400098527886E0F7030069857D2E4169EE7",
		Status:    model.TxStatusConfirmed,
		NetworkID: "ethereum",
	}}
	require.NoError(t, store.SaveTransactionHistory(context.Background(), "ethereum", created.Account.Address, persisted))

	var history []model.Transaction
	getJSON(t, srv.URL+"/tx/history", &history)
	require.Empty(t, history)

	resp = postJSON(t, srv.URL+"/wallet/lock", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = postJSON(t, srv.URL+"/wallet/unlock", model.UnlockRequest{Password: "Sw0rdfish!23"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getJSON(t, srv.URL+"/tx/history", &history)
	require.Len(t, history, 1)
	require.Equal(t, "0xold", history[0].Hash)
}

func TestWeakPasswordOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/wallet/create", model.CreateWalletRequest{Password: "short"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "validation", body.Code)
}

func TestNetworkEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	var networks []model.NetworkConfig
	resp := getJSON(t, srv.URL+"/network/list", &networks)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, networks)

	var status model.NetworkStatus
	resp = getJSON(t, srv.URL+"/network/status?id=ethereum", &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, status.OK)

	resp = postJSON(t, srv.URL+"/network/switch", model.NetworkIDRequest{ID: "nope"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/wallet/create")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSendRequiresWallet(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/tx/send", model.SendRequest{
		To:    "0x52908400098527886E0F7030069857D2E4169EE7",
		Value: "0.1",
	})
	// No wallet yet: the active-signer lookup conflicts.
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}
