package keyring

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"ewt/internal/model"
)

const qrPixelSize = 256

// AddressQR renders the address of the account at the given position as a
// PNG QR code for receiving funds. Works in any lock state, since account
// addresses are public metadata.
func (m *Manager) AddressQR(index int) ([]byte, error) {
	m.mu.Lock()
	if index < 0 || index >= len(m.accounts) {
		m.mu.Unlock()
		return nil, fmt.Errorf("account %d: %w", index, model.ErrUnknownAccount)
	}
	address := m.accounts[index].Address
	m.mu.Unlock()

	png, err := qrcode.Encode(address, qrcode.Medium, qrPixelSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
