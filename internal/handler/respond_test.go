package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ewt/internal/model"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrWeakPassword, http.StatusBadRequest, "validation"},
		{model.ErrInvalidSeed, http.StatusBadRequest, "validation"},
		{model.ErrInvalidRecipient, http.StatusBadRequest, "validation"},
		{model.ErrSecretDecryption, http.StatusForbidden, "unauthorized"},
		{model.ErrUnauthorizedReplacement, http.StatusForbidden, "unauthorized"},
		{model.ErrUnknownNetwork, http.StatusNotFound, "not_found"},
		{model.ErrUnknownTransaction, http.StatusNotFound, "not_found"},
		{model.ErrLocked, http.StatusConflict, "conflict"},
		{model.ErrAlreadyConfirmed, http.StatusConflict, "conflict"},
		{model.ErrDuplicateChainID, http.StatusConflict, "conflict"},
		{fmt.Errorf("something else"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			require.Equal(t, tt.status, rec.Code)

			var body model.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.code, body.Code)
			require.Equal(t, tt.err.Error(), body.Error)
		})
	}
}

func TestWriteErrorUnwrapsCauses(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("have 1, need 2: %w", model.ErrInsufficientTokenBalance))
	require.Equal(t, http.StatusConflict, rec.Code)
}
