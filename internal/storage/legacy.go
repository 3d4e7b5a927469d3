package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// LegacyStore is the old single-file JSON store. It is a migration source
// only: loaded once at startup, consulted when a key is missing from the
// primary store, never written to.
type LegacyStore struct {
	mu      sync.Mutex
	records map[string]json.RawMessage
}

// OpenLegacy loads the legacy file. A missing file yields an empty store,
// since most installs never had one.
func OpenLegacy(path string) (*LegacyStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LegacyStore{records: map[string]json.RawMessage{}}, nil
		}
		return nil, fmt.Errorf("failed to read legacy store: %w", err)
	}

	records := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse legacy store: %w", err)
		}
	}
	return &LegacyStore{records: records}, nil
}

// Get returns the legacy value for key, if any. The value is dropped from
// the in-memory snapshot on hit so each record migrates forward exactly once.
func (l *LegacyStore) Get(key string) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.records[key]
	if !ok {
		return nil, false
	}
	delete(l.records, key)
	return v, true
}

// Len reports how many records have not yet migrated.
func (l *LegacyStore) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
