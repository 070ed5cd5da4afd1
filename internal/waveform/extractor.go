// SPDX-License-Identifier: MIT

// Package waveform implements the offline waveform-extraction pipeline:
// downsampling a whole decoded track into a fixed-length peak envelope,
// cached in memory and persisted through a durable store collaborator.
package waveform

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	applog "waveviz/internal/log"
)

// DefaultTargetPoints is the envelope resolution used when the caller
// does not override it.
const DefaultTargetPoints = 1000

var (
	// ErrInvalidTargetPoints rejects non-positive envelope resolutions.
	ErrInvalidTargetPoints = errors.New("waveform: target point count must be positive")

	// ErrExtractionInFlight reports that an extraction for the same
	// track is already running; the re-invocation did nothing.
	ErrExtractionInFlight = errors.New("waveform: extraction already in flight for this track")
)

// Envelope is a fixed-length peak envelope: ordered scalars in [0, 1],
// immutable after creation.
type Envelope []float64

// CacheKey derives a deterministic cache key from a track's audio URL
// or ID. The same input always yields the same key.
func CacheKey(trackIdentifier string) string {
	h := fnv.New64a()
	h.Write([]byte(trackIdentifier))
	return fmt.Sprintf("wf-%016x", h.Sum64())
}

// Extract downsamples decoded channel samples into a targetPoints-long
// peak envelope. Each output point is the maximum absolute sample in
// its block (peak, not RMS, so transients stay visible); the final
// block clamps to the signal's end and blocks past it stay zero. The
// envelope is normalized by its global maximum; an all-silence input
// yields all zeros rather than NaN.
func Extract(samples []float64, targetPoints int) (Envelope, error) {
	if targetPoints <= 0 {
		return nil, ErrInvalidTargetPoints
	}

	blockSize := len(samples) / targetPoints
	if blockSize < 1 {
		blockSize = 1
	}

	envelope := make(Envelope, targetPoints)
	globalMax := 0.0
	for i := range targetPoints {
		start := i * blockSize
		end := start + blockSize
		if end > len(samples) {
			end = len(samples)
		}

		peak := 0.0
		for j := start; j < end; j++ {
			if a := math.Abs(samples[j]); a > peak {
				peak = a
			}
		}
		envelope[i] = peak
		if peak > globalMax {
			globalMax = peak
		}
	}

	if globalMax > 0 {
		for i := range envelope {
			envelope[i] /= globalMax
		}
	}
	return envelope, nil
}

// DecodeFunc supplies the decoded mono samples for a track. It may be
// slow (fetch + codec) and should honor ctx cancellation.
type DecodeFunc func(ctx context.Context) ([]float64, error)

// Manager coordinates extractions: at most one in flight per track,
// cache consultation first, synthetic fallback on decode failure, and
// a context guard so results are never applied after teardown.
type Manager struct {
	cache        *Cache
	targetPoints int

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewManager creates a Manager writing through cache. targetPoints <= 0
// selects DefaultTargetPoints.
func NewManager(cache *Cache, targetPoints int) *Manager {
	if targetPoints <= 0 {
		targetPoints = DefaultTargetPoints
	}
	return &Manager{
		cache:        cache,
		targetPoints: targetPoints,
		inFlight:     make(map[string]struct{}),
	}
}

// Ensure returns the peak envelope for a track, extracting it if
// needed. Cached envelopes return immediately. A concurrent call for a
// track already being extracted is a no-op returning
// ErrExtractionInFlight. On decode failure the synthetic fallback
// envelope is returned alongside the wrapped error, so the caller
// always has something plausible to render.
func (m *Manager) Ensure(ctx context.Context, trackIdentifier string, decodeFn DecodeFunc) (Envelope, error) {
	key := CacheKey(trackIdentifier)

	if env, ok := m.cache.Get(key); ok {
		return env, nil
	}

	m.mu.Lock()
	if _, busy := m.inFlight[key]; busy {
		m.mu.Unlock()
		return nil, ErrExtractionInFlight
	}
	m.inFlight[key] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inFlight, key)
		m.mu.Unlock()
	}()

	samples, err := decodeFn(ctx)
	if err != nil {
		applog.Warnf("Waveform: decode failed for %q, using synthetic envelope: %v", trackIdentifier, err)
		return Synthetic(trackIdentifier, m.targetPoints), err
	}

	// Teardown guard: a result arriving after cancellation is dropped,
	// never applied to the cache.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	env, err := Extract(samples, m.targetPoints)
	if err != nil {
		return nil, err
	}
	m.cache.Put(key, env)
	return env, nil
}
