package crypto

import (
	"encoding/base64"
	"fmt"

	"ewt/internal/model"
)

// Open decrypts a sealed blob. A GCM authentication failure means the
// session key is wrong (bad password) or the blob is corrupt; it surfaces
// uniformly as model.ErrSecretDecryption, never as garbage plaintext.
func (c *Cipher) Open(blob *SealedBlob) ([]byte, error) {
	nonce, err := base64.StdEncoding.DecodeString(blob.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(blob.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	// GCM panics on a wrong-length nonce; a truncated blob is corruption,
	// not a crash.
	if len(nonce) != c.aead.NonceSize() {
		return nil, model.ErrSecretDecryption
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, model.ErrSecretDecryption
	}

	return plaintext, nil
}
