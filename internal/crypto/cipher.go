package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the local vault
	// Security is prioritized over performance
	//
	// N=2^18 (~256MB RAM, 0.5-2s) - optimal balance:
	//   - Maximum security while remaining usable on commodity hardware
	//   - Brute-force attacks remain extremely expensive
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// Params are the scrypt cost parameters for key derivation. Tests use a
// cheaper setting; production always uses DefaultParams.
type Params struct {
	N int
	R int
	P int
}

// DefaultParams is the production scrypt cost.
var DefaultParams = Params{N: 1 << 18, R: 8, P: 1}

// SealedBlob is the stored form of one encrypted record.
type SealedBlob struct {
	Nonce      string `json:"nonce"`      // base64
	CipherText string `json:"cipherText"` // base64
}

// Cipher is a session cipher bound to a password-derived key. One Cipher is
// created per unlock and discarded on lock.
type Cipher struct {
	aead cipher.AEAD
}

// GenerateSalt returns a fresh random vault salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// NewCipher derives the session key from password and salt and binds an
// AES-256-GCM cipher to it.
// password must be []byte for security (caller should zero it after use)
func NewCipher(password, salt []byte, params Params) (*Cipher, error) {
	key, err := scrypt.Key(password, salt, params.N, params.R, params.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}
