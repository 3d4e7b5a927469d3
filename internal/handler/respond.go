package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"ewt/internal/model"
)

// writeJSON writes a JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps an engine error onto an HTTP status and a stable code.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"

	switch {
	case errors.Is(err, model.ErrWeakPassword),
		errors.Is(err, model.ErrInvalidSeed),
		errors.Is(err, model.ErrInvalidPrivateKey),
		errors.Is(err, model.ErrInvalidRecipient),
		errors.Is(err, model.ErrInvalidAmount),
		errors.Is(err, model.ErrInvalidNetworkConfig):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, model.ErrSecretDecryption),
		errors.Is(err, model.ErrUnauthorizedReplacement):
		status, code = http.StatusForbidden, "unauthorized"
	case errors.Is(err, model.ErrUnknownNetwork),
		errors.Is(err, model.ErrUnknownAccount),
		errors.Is(err, model.ErrUnknownTransaction):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrLocked),
		errors.Is(err, model.ErrWrongNetwork),
		errors.Is(err, model.ErrNoSeed),
		errors.Is(err, model.ErrUninitialized),
		errors.Is(err, model.ErrWalletExists),
		errors.Is(err, model.ErrAccountExists),
		errors.Is(err, model.ErrBuiltInNetwork),
		errors.Is(err, model.ErrActiveNetwork),
		errors.Is(err, model.ErrDuplicateChainID),
		errors.Is(err, model.ErrAlreadyConfirmed),
		errors.Is(err, model.ErrInsufficientTokenBalance),
		errors.Is(err, model.ErrNoConnection):
		status, code = http.StatusConflict, "conflict"
	}

	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

// decode parses a JSON request body into dst.
func decode(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
