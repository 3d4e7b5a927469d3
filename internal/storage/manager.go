package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ewt/internal/crypto"
	"ewt/internal/model"
)

// Well-known storage keys.
const (
	KeyVaultSalt     = "vaultSalt"
	KeyMasterSeed    = "masterSeed"
	KeyWallets       = "wallets"
	KeyNetworks      = "networks"
	KeyActiveNetwork = "activeNetwork"
	KeySettings      = "settings"
)

// CacheStats is a diagnostic snapshot of the in-memory cache.
type CacheStats struct {
	Size        int      `json:"size"`
	Keys        []string `json:"keys"`
	ApproxBytes int      `json:"approxBytes"`
}

// Manager is the Storage Manager: encrypted/plain key-value persistence with
// an in-memory plaintext cache and a legacy-store fallback. Reads walk an
// ordered provider chain (cache, primary store, legacy store) and migrate
// values forward on hit.
type Manager struct {
	mu     sync.RWMutex
	store  Store
	legacy *LegacyStore // nil when no legacy file exists
	cache  map[string][]byte
	cipher *crypto.Cipher
	params crypto.Params
	log    *zap.Logger
}

// NewManager creates a locked Storage Manager over the given stores.
func NewManager(store Store, legacy *LegacyStore, params crypto.Params, log *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		legacy: legacy,
		cache:  map[string][]byte{},
		params: params,
		log:    log,
	}
}

// Unlock binds the session encryption key derived from password and eagerly
// preloads the non-secret cache. The vault salt is created on first use.
// password must be []byte for security (caller should zero it after use)
func (m *Manager) Unlock(ctx context.Context, password []byte) error {
	salt, err := m.store.Get(ctx, KeyVaultSalt)
	if err != nil {
		return fmt.Errorf("failed to load vault salt: %w", err)
	}
	if salt == nil {
		salt, err = crypto.GenerateSalt()
		if err != nil {
			return err
		}
		if err := m.store.Set(ctx, KeyVaultSalt, salt); err != nil {
			return fmt.Errorf("failed to persist vault salt: %w", err)
		}
	}

	cipher, err := crypto.NewCipher(password, salt, m.params)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cipher = cipher
	m.mu.Unlock()

	m.preloadCache(ctx)
	return nil
}

// Lock discards the session key and evicts secret plaintext from the cache.
// Non-secret cached values stay readable.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cipher = nil
	for _, key := range []string{KeyMasterSeed, KeyWallets} {
		if v, ok := m.cache[key]; ok {
			clear(v)
			delete(m.cache, key)
		}
	}
}

// Unlocked reports whether a session key is bound.
func (m *Manager) Unlocked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cipher != nil
}

// preloadCache eagerly loads networks, settings and the active-network id.
func (m *Manager) preloadCache(ctx context.Context) {
	for _, key := range []string{KeyNetworks, KeySettings, KeyActiveNetwork} {
		if _, err := m.GetSecure(ctx, key, false); err != nil {
			m.log.Warn("cache preload failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// SetSecure writes a value through to the durable store. When encrypt is
// true the stored form is sealed with the session key; the plaintext is kept
// in the cache either way (the cache is never stored encrypted).
func (m *Manager) SetSecure(ctx context.Context, key string, value []byte, encrypt bool) error {
	stored := value
	if encrypt {
		m.mu.RLock()
		cipher := m.cipher
		m.mu.RUnlock()
		if cipher == nil {
			return model.ErrLocked
		}

		blob, err := cipher.Seal(value)
		if err != nil {
			return err
		}
		stored, err = json.Marshal(blob)
		if err != nil {
			return fmt.Errorf("failed to marshal sealed blob: %w", err)
		}
	}

	if err := m.store.Set(ctx, key, stored); err != nil {
		return err
	}

	m.mu.Lock()
	m.cache[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

// readProvider is one tier of the ordered read chain.
type readProvider struct {
	name string
	read func(ctx context.Context, key string) ([]byte, bool, error)
	// migrate runs on a hit so the value moves forward to faster tiers.
	migrate func(ctx context.Context, key string, value []byte) error
}

func (m *Manager) readChain() []readProvider {
	providers := []readProvider{
		{
			name: "cache",
			read: func(_ context.Context, key string) ([]byte, bool, error) {
				m.mu.RLock()
				defer m.mu.RUnlock()
				v, ok := m.cache[key]
				if !ok {
					return nil, false, nil
				}
				return append([]byte(nil), v...), true, nil
			},
			migrate: func(context.Context, string, []byte) error { return nil },
		},
		{
			name: "store",
			read: func(ctx context.Context, key string) ([]byte, bool, error) {
				v, err := m.store.Get(ctx, key)
				if err != nil {
					return nil, false, err
				}
				return v, v != nil, nil
			},
			migrate: func(context.Context, string, []byte) error { return nil },
		},
	}

	if m.legacy != nil {
		providers = append(providers, readProvider{
			name: "legacy",
			read: func(_ context.Context, key string) ([]byte, bool, error) {
				v, ok := m.legacy.Get(key)
				return v, ok, nil
			},
			migrate: func(ctx context.Context, key string, value []byte) error {
				return m.store.Set(ctx, key, value)
			},
		})
	}

	return providers
}

// GetSecure reads a value through the provider chain: cache, then primary
// store, then legacy store. Legacy hits migrate forward; every hit populates
// the cache. When decrypt is true the stored form is a sealed blob and the
// plaintext is returned; a bad session key surfaces as ErrSecretDecryption.
// Returns (nil, nil) when the key is absent everywhere.
func (m *Manager) GetSecure(ctx context.Context, key string, decrypt bool) ([]byte, error) {
	for i, p := range m.readChain() {
		stored, ok, err := p.read(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		// Cache hits are already plaintext.
		value := stored
		if decrypt && p.name != "cache" {
			m.mu.RLock()
			cipher := m.cipher
			m.mu.RUnlock()
			if cipher == nil {
				return nil, model.ErrLocked
			}

			var blob crypto.SealedBlob
			if err := json.Unmarshal(stored, &blob); err != nil {
				return nil, fmt.Errorf("malformed sealed blob at %q: %w", key, err)
			}
			value, err = cipher.Open(&blob)
			if err != nil {
				return nil, err
			}
		}

		if err := p.migrate(ctx, key, stored); err != nil {
			m.log.Warn("forward migration failed",
				zap.String("key", key), zap.String("tier", p.name), zap.Error(err))
		}
		if i > 0 {
			m.mu.Lock()
			m.cache[key] = append([]byte(nil), value...)
			m.mu.Unlock()
		}
		return value, nil
	}

	return nil, nil
}

// Has reports whether a key exists in the durable store, without touching
// the cache. Used to detect initialization state before any unlock.
func (m *Manager) Has(ctx context.Context, key string) (bool, error) {
	v, err := m.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// Delete removes a key from the durable store and the cache.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if err := m.store.Delete(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.cache, key)
	m.mu.Unlock()
	return nil
}

// ClearCache drops every cached value.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = map[string][]byte{}
}

// ClearAll purges the durable store and the cache, and drops the session
// key. Used by full reset.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.cache = map[string][]byte{}
	m.cipher = nil
	m.mu.Unlock()
	return nil
}

// GetCacheStats returns a diagnostic snapshot of the cache.
func (m *Manager) GetCacheStats() CacheStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := CacheStats{Size: len(m.cache), Keys: make([]string, 0, len(m.cache))}
	for k, v := range m.cache {
		stats.Keys = append(stats.Keys, k)
		stats.ApproxBytes += len(k) + len(v)
	}
	return stats
}

// Close releases the underlying primary store.
func (m *Manager) Close() error {
	return m.store.Close()
}
