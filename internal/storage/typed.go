package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ewt/internal/model"
)

// Typed helpers over SetSecure/GetSecure, one pair per logical record. Each
// read follows the cache → primary-store → legacy-store → default chain.
// Secret records propagate errors; non-secret reads degrade to defaults.

func txHistoryKey(networkID, address string) string {
	return fmt.Sprintf("txHistory:%s:%s", networkID, strings.ToLower(address))
}

func tokensKey(networkID string) string {
	return "tokens:" + networkID
}

// SaveMasterSeed stores the seed phrase encrypted under the session key.
func (m *Manager) SaveMasterSeed(ctx context.Context, mnemonic string) error {
	return m.SetSecure(ctx, KeyMasterSeed, []byte(mnemonic), true)
}

// MasterSeed returns the decrypted seed phrase, or "" when none is stored.
func (m *Manager) MasterSeed(ctx context.Context) (string, error) {
	v, err := m.GetSecure(ctx, KeyMasterSeed, true)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SaveWallets stores the wallet vault encrypted under the session key.
func (m *Manager) SaveWallets(ctx context.Context, vault *model.WalletVault) error {
	data, err := json.Marshal(vault)
	if err != nil {
		return fmt.Errorf("failed to marshal wallets: %w", err)
	}
	defer clear(data) // contains imported keys
	return m.SetSecure(ctx, KeyWallets, data, true)
}

// Wallets returns the decrypted wallet vault, or nil when none is stored.
func (m *Manager) Wallets(ctx context.Context) (*model.WalletVault, error) {
	data, err := m.GetSecure(ctx, KeyWallets, true)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var vault model.WalletVault
	if err := json.Unmarshal(data, &vault); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallets: %w", err)
	}
	return &vault, nil
}

// SaveNetworks persists the network registry (plain).
func (m *Manager) SaveNetworks(ctx context.Context, networks []model.NetworkConfig) error {
	data, err := json.Marshal(networks)
	if err != nil {
		return fmt.Errorf("failed to marshal networks: %w", err)
	}
	return m.SetSecure(ctx, KeyNetworks, data, false)
}

// Networks returns the persisted registry, or nil when none is stored.
// Read failures degrade to the default rather than failing.
func (m *Manager) Networks(ctx context.Context) []model.NetworkConfig {
	data, err := m.GetSecure(ctx, KeyNetworks, false)
	if err != nil {
		m.log.Warn("failed to read networks, using defaults", zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var networks []model.NetworkConfig
	if err := json.Unmarshal(data, &networks); err != nil {
		m.log.Warn("corrupt networks record, using defaults", zap.Error(err))
		return nil
	}
	return networks
}

// SaveActiveNetworkID persists the selected network id (plain).
func (m *Manager) SaveActiveNetworkID(ctx context.Context, id string) error {
	return m.SetSecure(ctx, KeyActiveNetwork, []byte(id), false)
}

// ActiveNetworkID returns the persisted selection, or "" when absent.
func (m *Manager) ActiveNetworkID(ctx context.Context) string {
	v, err := m.GetSecure(ctx, KeyActiveNetwork, false)
	if err != nil {
		m.log.Warn("failed to read active network", zap.Error(err))
		return ""
	}
	return string(v)
}

// SaveTransactionHistory persists one address's history on one network (plain).
func (m *Manager) SaveTransactionHistory(ctx context.Context, networkID, address string, txs []model.Transaction) error {
	data, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return m.SetSecure(ctx, txHistoryKey(networkID, address), data, false)
}

// TransactionHistory returns the persisted history, or nil when absent.
func (m *Manager) TransactionHistory(ctx context.Context, networkID, address string) []model.Transaction {
	data, err := m.GetSecure(ctx, txHistoryKey(networkID, address), false)
	if err != nil {
		m.log.Warn("failed to read history", zap.String("network", networkID), zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var txs []model.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		m.log.Warn("corrupt history record", zap.String("network", networkID), zap.Error(err))
		return nil
	}
	return txs
}

// DeleteTransactionHistory removes one address's history on one network.
func (m *Manager) DeleteTransactionHistory(ctx context.Context, networkID, address string) error {
	return m.Delete(ctx, txHistoryKey(networkID, address))
}

// SaveTokens persists the tracked token list for one network (plain).
func (m *Manager) SaveTokens(ctx context.Context, networkID string, tokens []model.Token) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	return m.SetSecure(ctx, tokensKey(networkID), data, false)
}

// Tokens returns the tracked token list, or nil when absent.
func (m *Manager) Tokens(ctx context.Context, networkID string) []model.Token {
	data, err := m.GetSecure(ctx, tokensKey(networkID), false)
	if err != nil {
		m.log.Warn("failed to read tokens", zap.String("network", networkID), zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var tokens []model.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		m.log.Warn("corrupt tokens record", zap.String("network", networkID), zap.Error(err))
		return nil
	}
	return tokens
}

// SaveSettings persists engine settings (plain).
func (m *Manager) SaveSettings(ctx context.Context, settings map[string]string) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return m.SetSecure(ctx, KeySettings, data, false)
}

// Settings returns the persisted settings, or an empty map.
func (m *Manager) Settings(ctx context.Context) map[string]string {
	data, err := m.GetSecure(ctx, KeySettings, false)
	if err != nil {
		m.log.Warn("failed to read settings", zap.Error(err))
		return map[string]string{}
	}
	if data == nil {
		return map[string]string{}
	}

	settings := map[string]string{}
	if err := json.Unmarshal(data, &settings); err != nil {
		m.log.Warn("corrupt settings record", zap.Error(err))
		return map[string]string{}
	}
	return settings
}
