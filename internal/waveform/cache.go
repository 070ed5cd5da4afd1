// SPDX-License-Identifier: MIT
package waveform

import (
	"errors"
	"sync"

	applog "waveviz/internal/log"
)

var (
	// ErrCacheWrite marks durable-tier write failures (quota,
	// serialization). Recovered locally, never fatal.
	ErrCacheWrite = errors.New("waveform: durable cache write failed")

	// ErrCacheRead marks durable-tier read failures (corrupt entry).
	ErrCacheRead = errors.New("waveform: durable cache read failed")
)

// KeyValueStore is the durable cache collaborator. Implementations
// must tolerate concurrent calls for different keys.
type KeyValueStore interface {
	Save(key string, env Envelope) error
	Load(key string) (Envelope, bool, error)
}

// Cache is the two-tier envelope store: a process-lifetime in-memory
// map in front of an optional durable KeyValueStore. Durable-tier
// failures degrade to memory-only operation for the session.
type Cache struct {
	mu      sync.RWMutex
	memory  map[string]Envelope
	durable KeyValueStore // nil for memory-only operation
}

// NewCache creates a Cache over an optional durable tier.
func NewCache(durable KeyValueStore) *Cache {
	return &Cache{
		memory:  make(map[string]Envelope),
		durable: durable,
	}
}

// Get checks the memory tier, then the durable tier (promoting a hit
// into memory), else reports absent. Durable read failures are logged
// and reported as a miss — a corrupt entry just triggers recomputation.
func (c *Cache) Get(key string) (Envelope, bool) {
	c.mu.RLock()
	env, ok := c.memory[key]
	c.mu.RUnlock()
	if ok {
		return env, true
	}

	if c.durable == nil {
		return nil, false
	}
	env, ok, err := c.durable.Load(key)
	if err != nil {
		applog.Warnf("WaveformCache: %v (key %s): %v", ErrCacheRead, key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	c.memory[key] = env
	c.mu.Unlock()
	applog.Debugf("WaveformCache: promoted %s from durable tier (%d points)", key, len(env))
	return env, true
}

// Put writes both tiers. The memory tier stores a private copy so the
// cached envelope stays immutable; a durable-tier failure is logged
// but the save still succeeds for the session.
func (c *Cache) Put(key string, env Envelope) {
	stored := make(Envelope, len(env))
	copy(stored, env)

	c.mu.Lock()
	c.memory[key] = stored
	c.mu.Unlock()

	if c.durable == nil {
		return
	}
	if err := c.durable.Save(key, stored); err != nil {
		applog.Warnf("WaveformCache: %v (key %s): %v", ErrCacheWrite, key, err)
	}
}

// Len reports the number of envelopes in the memory tier.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}
