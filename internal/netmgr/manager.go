// Package netmgr implements the Network Manager: the registry of chain
// endpoints and the single active connection handle.
package netmgr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
	"go.uber.org/zap"

	"ewt/internal/chain"
	"ewt/internal/events"
	"ewt/internal/model"
	"ewt/internal/storage"
)

const probeTimeout = 10 * time.Second

// Manager owns the network registry and the active connection handle.
type Manager struct {
	mu       sync.Mutex
	store    *storage.Manager
	bus      *events.Bus
	log      *zap.Logger
	dial     chain.Dialer
	registry []model.NetworkConfig
	activeID string
	active   chain.Client // nil when the last dial failed

	// newTicker is swapped for a Force ticker in tests.
	newTicker  func(time.Duration) ticker.Ticker
	monitor    ticker.Ticker
	quit       chan struct{}
	wg         sync.WaitGroup
	lastStatus *model.NetworkStatus
}

// NewManager creates a Network Manager that dials endpoints with dial.
func NewManager(store *storage.Manager, bus *events.Bus, dial chain.Dialer, log *zap.Logger) *Manager {
	return &Manager{
		store: store,
		bus:   bus,
		log:   log,
		dial:  dial,
		newTicker: func(interval time.Duration) ticker.Ticker {
			return ticker.New(interval)
		},
	}
}

// Initialize loads or defaults the registry and establishes the active
// connection. Connection failures are logged, not fatal: the registry stays
// browsable either way.
func (m *Manager) Initialize(ctx context.Context, activeID string) error {
	registry := builtinNetworks()
	for _, cfg := range m.store.Networks(ctx) {
		if cfg.IsCustom {
			registry = append(registry, cfg)
		}
	}

	if activeID == "" {
		activeID = m.store.ActiveNetworkID(ctx)
	}
	if activeID == "" {
		activeID = registry[0].ID
	}

	var activeCfg *model.NetworkConfig
	for i := range registry {
		if registry[i].ID == activeID {
			activeCfg = &registry[i]
			break
		}
	}
	if activeCfg == nil {
		// The stored selection no longer resolves; fall back to the first
		// built-in so the active id always points at an existing entry.
		m.log.Warn("stored active network not in registry", zap.String("id", activeID))
		activeCfg = &registry[0]
		activeID = activeCfg.ID
	}

	client, err := m.dial(activeCfg.EndpointURL, activeCfg.ChainID)
	if err != nil {
		m.log.Warn("failed to connect to active network",
			zap.String("id", activeID), zap.Error(err))
		client = nil
	}

	m.mu.Lock()
	m.registry = registry
	m.activeID = activeID
	m.active = client
	m.mu.Unlock()

	if err := m.store.SaveActiveNetworkID(ctx, activeID); err != nil {
		return err
	}
	return nil
}

// Networks returns a copy of the registry.
func (m *Manager) Networks() []model.NetworkConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.NetworkConfig, len(m.registry))
	copy(out, m.registry)
	return out
}

// Active returns the active network config.
func (m *Manager) Active() (model.NetworkConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cfg := range m.registry {
		if cfg.ID == m.activeID {
			return cfg, nil
		}
	}
	return model.NetworkConfig{}, model.ErrUnknownNetwork
}

// ActiveClient returns the active connection handle.
func (m *Manager) ActiveClient() (chain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, model.ErrNoConnection
	}
	return m.active, nil
}

// SwitchNetwork replaces the active connection handle and emits a
// networkChanged notification.
func (m *Manager) SwitchNetwork(ctx context.Context, id string) error {
	m.mu.Lock()
	previousID := m.activeID
	var cfg *model.NetworkConfig
	for i := range m.registry {
		if m.registry[i].ID == id {
			cfg = &m.registry[i]
			break
		}
	}
	m.mu.Unlock()

	if cfg == nil {
		return model.ErrUnknownNetwork
	}
	if id == previousID {
		return nil
	}

	client, err := m.dial(cfg.EndpointURL, cfg.ChainID)
	if err != nil {
		m.log.Warn("failed to connect while switching network",
			zap.String("id", id), zap.Error(err))
		client = nil
	}

	m.mu.Lock()
	old := m.active
	m.activeID = id
	m.active = client
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}

	if err := m.store.SaveActiveNetworkID(ctx, id); err != nil {
		return err
	}

	m.log.Info("network switched", zap.String("from", previousID), zap.String("to", id))
	m.bus.Publish(model.Event{
		Type: model.EventNetworkChanged,
		Payload: model.NetworkChange{
			PreviousID: previousID,
			NewID:      id,
			Config:     *cfg,
		},
	})
	return nil
}

// AddCustomNetwork validates and registers a user-supplied endpoint. The
// entry gets a derived id of the form custom_<chainId>.
func (m *Manager) AddCustomNetwork(ctx context.Context, cfg model.NetworkConfig) (*model.NetworkConfig, error) {
	if cfg.DisplayName == "" || cfg.EndpointURL == "" || cfg.ChainID == 0 || cfg.NativeSymbol == "" {
		return nil, model.ErrInvalidNetworkConfig
	}

	cfg.ID = fmt.Sprintf("custom_%d", cfg.ChainID)
	cfg.IsCustom = true
	cfg.AddedAt = time.Now().UTC()

	m.mu.Lock()
	for _, existing := range m.registry {
		if existing.ChainID == cfg.ChainID {
			m.mu.Unlock()
			return nil, model.ErrDuplicateChainID
		}
	}
	m.registry = append(m.registry, cfg)
	m.mu.Unlock()

	if err := m.persistCustom(ctx); err != nil {
		return nil, err
	}

	m.log.Info("custom network added", zap.String("id", cfg.ID), zap.Uint64("chainId", cfg.ChainID))
	return &cfg, nil
}

// RemoveCustomNetwork deletes a custom entry. Built-in entries and the
// currently selected network are protected.
func (m *Manager) RemoveCustomNetwork(ctx context.Context, id string) error {
	m.mu.Lock()
	idx := -1
	for i, cfg := range m.registry {
		if cfg.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return model.ErrUnknownNetwork
	}
	if !m.registry[idx].IsCustom {
		m.mu.Unlock()
		return model.ErrBuiltInNetwork
	}
	if id == m.activeID {
		m.mu.Unlock()
		return model.ErrActiveNetwork
	}
	m.registry = append(m.registry[:idx], m.registry[idx+1:]...)
	m.mu.Unlock()

	return m.persistCustom(ctx)
}

// persistCustom writes the custom registry entries to storage.
func (m *Manager) persistCustom(ctx context.Context) error {
	m.mu.Lock()
	var custom []model.NetworkConfig
	for _, cfg := range m.registry {
		if cfg.IsCustom {
			custom = append(custom, cfg)
		}
	}
	m.mu.Unlock()
	return m.store.SaveNetworks(ctx, custom)
}

// CheckStatus probes a network's latency, head block, fee levels and sync
// flag. It never fails: probe errors come back inside the status record.
func (m *Manager) CheckStatus(ctx context.Context, id string) *model.NetworkStatus {
	m.mu.Lock()
	if id == "" {
		id = m.activeID
	}
	var cfg *model.NetworkConfig
	for i := range m.registry {
		if m.registry[i].ID == id {
			cfg = &m.registry[i]
			break
		}
	}
	client := m.active
	activeID := m.activeID
	m.mu.Unlock()

	status := &model.NetworkStatus{NetworkID: id, CheckedAt: time.Now().UTC()}
	if cfg == nil {
		status.Error = model.ErrUnknownNetwork.Error()
		return status
	}

	// Non-active networks get a throwaway connection for the probe.
	if id != activeID || client == nil {
		dialed, err := m.dial(cfg.EndpointURL, cfg.ChainID)
		if err != nil {
			status.Error = err.Error()
			return status
		}
		defer dialed.Close()
		client = dialed
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	info, err := client.GetChainInfo(ctx)
	status.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.BlockHeight = info.BlockHeight
	status.Syncing = info.Syncing

	blk, err := client.GetBlock(ctx, "latest")
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.BlockTime = blk.Time
	status.BaseFee = blk.BaseFee

	// Fee levels are best-effort; a missing quote does not fail the probe.
	if fees, err := client.GetFeeLevels(ctx); err == nil {
		status.GasPrice = fees.GasPrice
	} else {
		m.log.Debug("fee probe failed", zap.String("id", id), zap.Error(err))
	}

	status.OK = true
	return status
}

// StartMonitoring begins periodic status polling of the active network.
// Restarting always clears any prior timer first, so there is never more
// than one polling loop.
func (m *Manager) StartMonitoring(interval time.Duration) {
	m.StopMonitoring()

	m.mu.Lock()
	m.monitor = m.newTicker(interval)
	m.quit = make(chan struct{})
	t, quit := m.monitor, m.quit
	m.mu.Unlock()

	t.Resume()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-t.Ticks():
				status := m.CheckStatus(context.Background(), "")
				m.mu.Lock()
				m.lastStatus = status
				m.mu.Unlock()

				if !status.OK {
					m.log.Warn("network probe failed",
						zap.String("id", status.NetworkID), zap.String("error", status.Error))
					m.bus.Publish(model.Event{Type: model.EventError, Payload: status})
				}
			case <-quit:
				return
			}
		}
	}()
}

// StopMonitoring cancels the polling loop. Safe to call when idle.
func (m *Manager) StopMonitoring() {
	m.mu.Lock()
	t, quit := m.monitor, m.quit
	m.monitor, m.quit = nil, nil
	m.mu.Unlock()

	if quit != nil {
		close(quit)
	}
	m.wg.Wait()
	if t != nil {
		t.Stop()
	}
}

// LastStatus returns the most recent monitoring probe, if any.
func (m *Manager) LastStatus() *model.NetworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastStatus
}

// Close stops monitoring and releases the active connection.
func (m *Manager) Close() {
	m.StopMonitoring()

	m.mu.Lock()
	active := m.active
	m.active = nil
	m.mu.Unlock()

	if active != nil {
		active.Close()
	}
}
