package handler

import (
	"net/http"

	"ewt/internal/model"
	"ewt/internal/netmgr"
	"ewt/internal/storage"
)

// NetworkHandler exposes the Network Manager over HTTP.
type NetworkHandler struct {
	networks *netmgr.Manager
	store    *storage.Manager
}

// NewNetworkHandler creates the network facade handler.
func NewNetworkHandler(networks *netmgr.Manager, store *storage.Manager) *NetworkHandler {
	return &NetworkHandler{networks: networks, store: store}
}

// List handles GET /network/list and POST /network/list (add custom).
// @Summary      List networks / add a custom network
// @Tags         networks
// @Accept       json
// @Produce      json
// @Success      200  {array}  model.NetworkConfig
// @Router       /network/list [get]
func (h *NetworkHandler) List(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.networks.Networks())
	case http.MethodPost:
		var cfg model.NetworkConfig
		if err := decode(r, &cfg); err != nil {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
			return
		}
		added, err := h.networks.AddCustomNetwork(r.Context(), cfg)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, added)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Remove handles POST /network/remove
// @Summary      Remove a custom network
// @Tags         networks
// @Accept       json
// @Produce      json
// @Success      200
// @Router       /network/remove [post]
func (h *NetworkHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.NetworkIDRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.networks.RemoveCustomNetwork(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// Switch handles POST /network/switch
// @Summary      Switch the active network
// @Tags         networks
// @Accept       json
// @Produce      json
// @Success      200  {object}  model.NetworkConfig
// @Router       /network/switch [post]
func (h *NetworkHandler) Switch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.NetworkIDRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.networks.SwitchNetwork(r.Context(), req.ID); err != nil {
		writeError(w, err)
		return
	}

	active, err := h.networks.Active()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, active)
}

// Status handles GET /network/status?id=...
// @Summary      Probe a network's health (active network when id is omitted)
// @Tags         networks
// @Produce      json
// @Success      200  {object}  model.NetworkStatus
// @Router       /network/status [get]
func (h *NetworkHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	// CheckStatus never fails; probe errors ride inside the record.
	writeJSON(w, http.StatusOK, h.networks.CheckStatus(r.Context(), r.URL.Query().Get("id")))
}

// Tokens handles GET /network/tokens?id=... and POST /network/tokens.
// @Summary      List / add tracked tokens for a network
// @Tags         networks
// @Accept       json
// @Produce      json
// @Success      200  {array}  model.Token
// @Router       /network/tokens [get]
func (h *NetworkHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	activeID := func() string {
		if active, err := h.networks.Active(); err == nil {
			return active.ID
		}
		return ""
	}

	switch r.Method {
	case http.MethodGet:
		id := r.URL.Query().Get("id")
		if id == "" {
			id = activeID()
		}
		writeJSON(w, http.StatusOK, h.store.Tokens(r.Context(), id))
	case http.MethodPost:
		var req model.AddTokenRequest
		if err := decode(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
			return
		}
		id := req.NetworkID
		if id == "" {
			id = activeID()
		}
		tokens := append(h.store.Tokens(r.Context(), id), req.Token)
		if err := h.store.SaveTokens(r.Context(), id, tokens); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tokens)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// CacheStats handles GET /storage/stats
// @Summary      Diagnostic snapshot of the storage cache
// @Tags         storage
// @Produce      json
// @Success      200  {object}  storage.CacheStats
// @Router       /storage/stats [get]
func (h *NetworkHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.store.GetCacheStats())
}
