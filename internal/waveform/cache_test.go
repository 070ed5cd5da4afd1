// SPDX-License-Identifier: MIT
package waveform

import (
	"errors"
	"testing"
)

// failingStore simulates a durable tier hitting quota/corruption.
type failingStore struct {
	saveErr error
	loadErr error
}

func (f *failingStore) Save(key string, env Envelope) error { return f.saveErr }
func (f *failingStore) Load(key string) (Envelope, bool, error) {
	return nil, false, f.loadErr
}

// mapStore is a trivial in-memory KeyValueStore stand-in.
type mapStore struct {
	entries map[string]Envelope
	saves   int
}

func newMapStore() *mapStore { return &mapStore{entries: make(map[string]Envelope)} }

func (m *mapStore) Save(key string, env Envelope) error {
	m.entries[key] = env
	m.saves++
	return nil
}

func (m *mapStore) Load(key string) (Envelope, bool, error) {
	env, ok := m.entries[key]
	return env, ok, nil
}

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(newMapStore())
	env := Envelope{0, 0.25, 0.5, 0.75, 1}
	key := CacheKey("track-9")

	c.Put(key, env)
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("put envelope not found")
	}
	if len(got) != len(env) {
		t.Fatalf("got %d points, want %d", len(got), len(env))
	}
	for i := range env {
		if got[i] != env[i] {
			t.Fatalf("point %d = %v, want %v", i, got[i], env[i])
		}
	}
}

func TestCacheUnknownKeyIsAbsent(t *testing.T) {
	c := NewCache(newMapStore())
	if _, ok := c.Get("no-such-key"); ok {
		t.Error("unknown key reported present")
	}
}

func TestCachePutIsolatesCallerSlice(t *testing.T) {
	c := NewCache(nil)
	env := Envelope{0.5, 0.5}
	c.Put("k", env)
	env[0] = 99

	got, _ := c.Get("k")
	if got[0] != 0.5 {
		t.Error("cached envelope mutated through the caller's slice")
	}
}

func TestCacheDurableWriteFailureDegrades(t *testing.T) {
	c := NewCache(&failingStore{saveErr: errors.New("quota exceeded")})
	c.Put("k", Envelope{1})

	// The save must still be visible for the session via tier 1.
	if _, ok := c.Get("k"); !ok {
		t.Error("envelope lost after durable write failure")
	}
}

func TestCacheDurableReadFailureIsMiss(t *testing.T) {
	c := NewCache(&failingStore{loadErr: errors.New("corrupt entry")})
	if _, ok := c.Get("k"); ok {
		t.Error("durable read failure reported as a hit")
	}
}

func TestCachePromotesDurableHit(t *testing.T) {
	store := newMapStore()
	store.entries["k"] = Envelope{0.1, 0.2}

	c := NewCache(store)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("durable hit not returned")
	}
	if c.Len() != 1 {
		t.Error("durable hit not promoted into the memory tier")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	env := Envelope{0, 0.5, 1}
	if err := store.Save("wf-abc", env); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Load("wf-abc")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	for i := range env {
		if got[i] != env[i] {
			t.Fatalf("point %d = %v, want %v", i, got[i], env[i])
		}
	}

	if _, ok, err := store.Load("missing"); ok || err != nil {
		t.Errorf("missing key: ok=%v err=%v, want absent without error", ok, err)
	}
}
