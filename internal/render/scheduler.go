// SPDX-License-Identifier: MIT
package render

import (
	"sync"
	"time"

	applog "waveviz/internal/log"
)

// Frame is one per-tick callback registered with the Scheduler.
// Implementations pull a fresh buffer, draw, and return without
// blocking; the loop invokes all members back-to-back in one tick.
type Frame interface {
	Frame(now time.Time)
}

// DefaultRefreshRate is the frame rate of the shared loop when the
// config does not override it.
const DefaultRefreshRate = 60.0

// Scheduler multiplexes per-frame callbacks from all active renderers
// onto a single ticker-driven loop. The loop runs if and only if the
// registration set is non-empty: the first Register starts it, and it
// cancels itself within one tick of the set draining. Registration is
// idempotent — the set is keyed on the Frame interface value, so
// registering the same renderer twice yields one invocation per tick.
type Scheduler struct {
	interval time.Duration

	mu       sync.Mutex
	members  map[Frame]struct{}
	running  bool
	lastTick time.Time
}

// NewScheduler creates a Scheduler ticking at refreshRate frames per
// second. Out-of-range rates fall back to DefaultRefreshRate.
func NewScheduler(refreshRate float64) *Scheduler {
	if refreshRate <= 0 || refreshRate > 240 {
		refreshRate = DefaultRefreshRate
	}
	return &Scheduler{
		interval: time.Duration(float64(time.Second) / refreshRate),
		members:  make(map[Frame]struct{}),
	}
}

// Register adds f to the active set, starting the loop if the set was
// empty. Registering an already-registered Frame is a no-op.
func (s *Scheduler) Register(f Frame) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[f] = struct{}{}
	if !s.running {
		s.running = true
		go s.loop()
		applog.Debugf("Scheduler: loop started (%d member(s), interval %s)", len(s.members), s.interval)
	}
}

// Unregister removes f from the active set. Removing an absent Frame is
// a no-op. Removal takes effect from the next tick; when the set drains
// the loop cancels its next iteration rather than idling.
func (s *Scheduler) Unregister(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, f)
}

// Active reports whether the loop goroutine is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastFrameTime returns the wall-clock timestamp recorded after the
// most recently completed pass, or the zero time before the first.
func (s *Scheduler) LastFrameTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTick
}

// Close empties the registration set; the loop exits on its next tick.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.members)
	return nil
}

// loop is the single shared frame loop. At most one instance exists:
// it is spawned only by Register observing running == false, and it
// alone resets running on exit, both under the mutex.
func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Callbacks run outside the lock so a member can Unregister (or
	// Register a peer) from inside its own Frame without deadlocking.
	var batch []Frame

	for now := range ticker.C {
		s.mu.Lock()
		if len(s.members) == 0 {
			s.running = false
			s.mu.Unlock()
			applog.Debugf("Scheduler: loop stopped (no members)")
			return
		}
		batch = batch[:0]
		for f := range s.members {
			batch = append(batch, f)
		}
		s.mu.Unlock()

		for _, f := range batch {
			f.Frame(now)
		}

		s.mu.Lock()
		s.lastTick = time.Now()
		s.mu.Unlock()
	}
}
