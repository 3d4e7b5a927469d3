package handler

import (
	"context"
	"net/http"
	"strconv"

	"ewt/internal/common"
	"ewt/internal/keyring"
	"ewt/internal/model"
	"ewt/internal/netmgr"
	"ewt/internal/txmgr"
)

// TransactionHandler exposes the Transaction Manager over HTTP.
type TransactionHandler struct {
	txs      *txmgr.Manager
	keys     *keyring.Manager
	networks *netmgr.Manager
}

// NewTransactionHandler creates the transaction facade handler.
func NewTransactionHandler(txs *txmgr.Manager, keys *keyring.Manager, networks *netmgr.Manager) *TransactionHandler {
	return &TransactionHandler{txs: txs, keys: keys, networks: networks}
}

// Estimate handles POST /tx/estimate
// @Summary      Estimate gas and fee levels for a transfer
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.FeeEstimate
// @Router       /tx/estimate [post]
func (h *TransactionHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SendRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	params, err := h.toParams(&req)
	if err != nil {
		writeError(w, err)
		return
	}

	signer, err := h.keys.ActiveSigner()
	if err != nil {
		writeError(w, err)
		return
	}

	estimate, err := h.txs.EstimateFee(r.Context(), *params, signer.Address())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

// Send handles POST /tx/send
// @Summary      Sign and submit a native transfer
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        body  body  model.SendRequest  true  "recipient, decimal value, optional gas/nonce overrides"
// @Success      200  {object}  model.SubmitResponse
// @Router       /tx/send [post]
func (h *TransactionHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SendRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	params, err := h.toParams(&req)
	if err != nil {
		writeError(w, err)
		return
	}

	signer, err := h.keys.ActiveSigner()
	if err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.txs.Send(r.Context(), *params, signer)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSubmit(w, tx)
}

// TokenTransfer handles POST /tx/token
// @Summary      Sign and submit a fungible-token transfer
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.SubmitResponse
// @Router       /tx/token [post]
func (h *TransactionHandler) TokenTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.TokenTransferRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	amount, err := common.ParseUnits(req.Amount, req.Decimals)
	if err != nil {
		writeError(w, model.ErrInvalidAmount)
		return
	}

	signer, err := h.keys.ActiveSigner()
	if err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.txs.SendTokenTransfer(r.Context(), req.Token, req.To, amount, req.Decimals, signer)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSubmit(w, tx)
}

// SpeedUp handles POST /tx/speedup
// @Summary      Resubmit a pending transaction with bumped fees
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.SubmitResponse
// @Router       /tx/speedup [post]
func (h *TransactionHandler) SpeedUp(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, h.txs.SpeedUp)
}

// Cancel handles POST /tx/cancel
// @Summary      Replace a pending transaction with a zero-value self-transfer
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.SubmitResponse
// @Router       /tx/cancel [post]
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.replace(w, r, h.txs.Cancel)
}

type replaceFunc func(ctx context.Context, hash string, signer txmgr.Signer, multiplier float64) (*model.Transaction, error)

func (h *TransactionHandler) replace(w http.ResponseWriter, r *http.Request, op replaceFunc) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ReplaceRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	signer, err := h.keys.ActiveSigner()
	if err != nil {
		writeError(w, err)
		return
	}

	tx, err := op(r.Context(), req.Hash, signer, req.Multiplier)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSubmit(w, tx)
}

// Pending handles GET /tx/pending
// @Summary      List transactions awaiting confirmation
// @Tags         transactions
// @Produce      json
// @Success      200  {array}  model.Transaction
// @Router       /tx/pending [get]
func (h *TransactionHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.txs.GetPending())
}

// History handles GET /tx/history?limit=&offset=&status=
// @Summary      Paged transaction history, newest first
// @Tags         transactions
// @Produce      json
// @Success      200  {array}  model.Transaction
// @Router       /tx/history [get]
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	var filter model.HistoryFilter
	if v := q.Get("status"); v != "" {
		status := model.TxStatus(v)
		filter.Status = &status
	}
	if v := q.Get("from"); v != "" {
		filter.From = &v
	}
	if v := q.Get("to"); v != "" {
		filter.To = &v
	}

	writeJSON(w, http.StatusOK, h.txs.GetHistory(&filter, limit, offset))
}

// Status handles GET /tx/status?hash=...
// @Summary      Local record merged with a fresh on-chain lookup
// @Tags         transactions
// @Produce      json
// @Success      200  {object}  model.Transaction
// @Router       /tx/status [get]
func (h *TransactionHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	tx, err := h.txs.GetStatus(r.Context(), r.URL.Query().Get("hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// Clear handles POST /tx/clear
// @Summary      Drop terminal history records
// @Tags         transactions
// @Produce      json
// @Success      200
// @Router       /tx/clear [post]
func (h *TransactionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}
	h.txs.ClearHistory(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// toParams converts a SendRequest into manager params.
func (h *TransactionHandler) toParams(req *model.SendRequest) (*model.TxParams, error) {
	value, err := common.ParseUnits(req.Value, common.NativeDecimals)
	if err != nil {
		return nil, model.ErrInvalidAmount
	}
	return &model.TxParams{
		To:        req.To,
		Value:     value,
		InputData: req.Data,
		GasLimit:  req.GasLimit,
		Nonce:     req.Nonce,
	}, nil
}

// writeSubmit responds with the record plus an explorer link when the
// active network has one.
func (h *TransactionHandler) writeSubmit(w http.ResponseWriter, tx *model.Transaction) {
	resp := model.SubmitResponse{Transaction: tx}
	if cfg, err := h.networks.Active(); err == nil && cfg.ExplorerURLPrefix != "" {
		resp.ExplorerURL = cfg.ExplorerURLPrefix + tx.Hash
	}
	writeJSON(w, http.StatusOK, resp)
}
