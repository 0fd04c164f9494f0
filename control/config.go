// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe snapshot store for the effective server configuration.

package control

import (
	"sync"
)

// ConfigStore is a key/value map with atomic snapshot reads and a version
// bumped on every update.
type ConfigStore struct {
	mu      sync.RWMutex
	config  map[string]any
	version uint64
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]any),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// SetConfig merges new values.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	cs.version++
}

// Version returns the number of applied updates.
func (cs *ConfigStore) Version() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.version
}
