package handler

import (
	"errors"
	"net/http"
	"strconv"

	"ewt/internal/common"
	"ewt/internal/keyring"
	"ewt/internal/model"
	"ewt/internal/netmgr"
	"ewt/internal/txmgr"
)

// WalletHandler exposes the Key/Wallet Manager over HTTP.
type WalletHandler struct {
	keys     *keyring.Manager
	networks *netmgr.Manager
	txs      *txmgr.Manager
}

// NewWalletHandler creates the wallet facade handler.
func NewWalletHandler(keys *keyring.Manager, networks *netmgr.Manager, txs *txmgr.Manager) *WalletHandler {
	return &WalletHandler{keys: keys, networks: networks, txs: txs}
}

// Create handles POST /wallet/create
// @Summary      Create a new wallet
// @Description  Generates a fresh seed, derives account #0 and returns the seed phrase (shown once)
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body  model.CreateWalletRequest  true  "password and optional account name"
// @Success      200  {object}  model.CreateWalletResponse
// @Router       /wallet/create [post]
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateWalletRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	account, mnemonic, err := h.keys.CreateWallet(r.Context(), password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.CreateWalletResponse{Account: *account, SeedPhrase: mnemonic})
}

// Import handles POST /wallet/import
// @Summary      Import a wallet from a seed phrase
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        body  body  model.ImportWalletRequest  true  "password and 12/15/24-word seed phrase"
// @Success      200  {object}  model.Account
// @Router       /wallet/import [post]
func (h *WalletHandler) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ImportWalletRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	account, err := h.keys.ImportWallet(r.Context(), password, req.SeedPhrase, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ImportKey handles POST /wallet/import-key
// @Summary      Import an account from a raw private key
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.Account
// @Router       /wallet/import-key [post]
func (h *WalletHandler) ImportKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ImportKeyRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	account, err := h.keys.ImportPrivateKey(r.Context(), req.PrivateKey, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Unlock handles POST /wallet/unlock
// @Summary      Unlock the wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.AccountsResponse
// @Router       /wallet/unlock [post]
func (h *WalletHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.UnlockRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	if err := h.keys.Unlock(r.Context(), password); err != nil {
		writeError(w, err)
		return
	}

	// Account metadata only becomes readable here, so this is the first
	// chance after a restart to restore persisted history.
	if accounts := h.keys.Accounts(); len(accounts) > 0 {
		if active, err := h.networks.Active(); err == nil {
			h.txs.Hydrate(r.Context(), active.ID, accounts[h.keys.ActiveIndex()].Address)
		}
	}
	h.Accounts(w, r)
}

// Lock handles POST /wallet/lock
// @Summary      Lock the wallet, wiping in-memory key material
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.AccountsResponse
// @Router       /wallet/lock [post]
func (h *WalletHandler) Lock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}
	h.keys.Lock()
	h.Accounts(w, r)
}

// Reset handles POST /wallet/reset
// @Summary      Full reset: purge all secrets and persisted state
// @Tags         wallet
// @Produce      json
// @Success      200
// @Router       /wallet/reset [post]
func (h *WalletHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}
	if err := h.keys.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

// Accounts handles GET /wallet/accounts (also reused as the unlock/lock
// response body).
// @Summary      List accounts and lock state
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.AccountsResponse
// @Router       /wallet/accounts [get]
func (h *WalletHandler) Accounts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.AccountsResponse{
		State:       h.keys.State(),
		ActiveIndex: h.keys.ActiveIndex(),
		Accounts:    h.keys.Accounts(),
	})
}

// Derive handles POST /wallet/derive
// @Summary      Derive the account at the next unused index
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.Account
// @Router       /wallet/derive [post]
func (h *WalletHandler) Derive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.DeriveAccountRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	account, err := h.keys.AddDerivedAccount(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Switch handles POST /wallet/switch
// @Summary      Select the active account
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.AccountsResponse
// @Router       /wallet/switch [post]
func (h *WalletHandler) Switch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SwitchAccountRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.keys.SwitchActiveAccount(r.Context(), req.Index); err != nil {
		writeError(w, err)
		return
	}
	h.Accounts(w, r)
}

// Export handles POST /wallet/export
// @Summary      Export an account's private key (re-validates the password)
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.ExportKeyResponse
// @Router       /wallet/export [post]
func (h *WalletHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ExportKeyRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	keyHex, err := h.keys.ExportPrivateKey(r.Context(), req.Index, password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ExportKeyResponse{PrivateKey: keyHex})
}

// QR handles GET /wallet/qr?index=N
// @Summary      Receive-address QR code (PNG)
// @Tags         wallet
// @Produce      png
// @Param        index  query  int  false  "account position (default 0)"
// @Success      200
// @Router       /wallet/qr [get]
func (h *WalletHandler) QR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	index := 0
	if v := r.URL.Query().Get("index"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid index"})
			return
		}
		index = parsed
	}

	png, err := h.keys.AddressQR(index)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Balance handles GET /wallet/balance?index=N
// @Summary      Native balance of an account on the active network
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.BalanceResponse
// @Router       /wallet/balance [get]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	index := h.keys.ActiveIndex()
	if v := r.URL.Query().Get("index"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid index"})
			return
		}
		index = parsed
	}

	accounts := h.keys.Accounts()
	if index < 0 || index >= len(accounts) {
		writeError(w, model.ErrUnknownAccount)
		return
	}
	address := accounts[index].Address

	client, err := h.networks.ActiveClient()
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := h.networks.Active()
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := client.GetBalance(r.Context(), address)
	if err != nil {
		writeError(w, errors.New("failed to fetch balance: "+err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, model.BalanceResponse{
		Address: address,
		Balance: common.FormatUnits(balance, common.NativeDecimals),
		Symbol:  cfg.NativeSymbol,
	})
}
