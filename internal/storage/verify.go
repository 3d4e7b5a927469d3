package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"ewt/internal/crypto"
	"ewt/internal/model"
)

// VerifyPassword re-derives a candidate session key from password and checks
// it against a stored secret record. Used by operations that must re-confirm
// the password (e.g. private-key export) without re-binding the session.
func (m *Manager) VerifyPassword(ctx context.Context, password []byte) error {
	salt, err := m.store.Get(ctx, KeyVaultSalt)
	if err != nil {
		return fmt.Errorf("failed to load vault salt: %w", err)
	}
	if salt == nil {
		return model.ErrUninitialized
	}

	candidate, err := crypto.NewCipher(password, salt, m.params)
	if err != nil {
		return err
	}

	// Any encrypted record works as a check; wallets always exists once a
	// wallet has been created.
	stored, err := m.store.Get(ctx, KeyWallets)
	if err != nil {
		return err
	}
	if stored == nil {
		return model.ErrUninitialized
	}

	var blob crypto.SealedBlob
	if err := json.Unmarshal(stored, &blob); err != nil {
		return fmt.Errorf("malformed sealed blob at %q: %w", KeyWallets, err)
	}

	plaintext, err := candidate.Open(&blob)
	if err != nil {
		return err
	}
	clear(plaintext)
	return nil
}
