// SPDX-License-Identifier: MIT

// Package lifecycle coordinates the audio pipeline's run state:
// gesture-gated initialization and visibility-driven suspend/resume.
// Only this package mutates the pipeline's running state; renderers
// share it read-only.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	applog "waveviz/internal/log"
)

// State is the coordinator's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Initializing
	Ready
	Suspended
	Errored
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Suspended:
		return "suspended"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// InitTrigger describes what prompted initialization. Autoplay-policy
// compliance: only a user action or already-ready media may start the
// pipeline.
type InitTrigger int

const (
	TriggerAuto InitTrigger = iota
	TriggerUserAction
	TriggerMediaReady
)

var (
	// ErrInitRejected is returned when initialization is attempted
	// without a qualifying trigger, or after an unrecovered failure.
	ErrInitRejected = errors.New("lifecycle: initialization rejected")
)

// ResumeThreshold is the wall-clock gap since the last interaction
// after which a visibility resume is attempted.
const ResumeThreshold = 10 * time.Second

// Pipeline is the stateful audio-pipeline resource the coordinator
// owns the run state of.
type Pipeline interface {
	Start() error
	Suspend() error
	Resume() error
}

// VisibilitySource emits document/tab visibility transitions. The host
// wires its events to the coordinator; no polling.
type VisibilitySource interface {
	Subscribe(fn func(visible bool))
}

// AlwaysVisible is a VisibilitySource stand-in for hosts without a
// visibility signal; it never emits a transition.
type AlwaysVisible struct{}

func (AlwaysVisible) Subscribe(func(visible bool)) {}

// Coordinator manages pipeline initialization and the Ready/Suspended
// transitions. Failures surface as a degraded state, never a panic:
// visualization is an enhancement layer, not a prerequisite for audio.
type Coordinator struct {
	pipeline Pipeline
	now      func() time.Time
	cooldown *Cooldown

	mu                   sync.Mutex
	state                State
	playing              bool
	wasPlayingWhenHidden bool
	lastInteraction      time.Time
}

// NewCoordinator creates a Coordinator over pipeline using the real
// clock. Resume failures back off through a Cooldown so a broken host
// is not hammered on every visibility flip.
func NewCoordinator(pipeline Pipeline) *Coordinator {
	return &Coordinator{
		pipeline: pipeline,
		now:      time.Now,
		cooldown: NewCooldown(30*time.Second, 3),
	}
}

// WithClock replaces the wall clock, for tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	c.cooldown.now = now
	return c
}

// Bind subscribes the coordinator to a visibility source.
func (c *Coordinator) Bind(vis VisibilitySource) {
	vis.Subscribe(c.HandleVisibility)
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Initialize starts the pipeline. Only a user action or ready media
// qualifies; an automatic trigger is rejected. Errored is sticky until
// Reset. Calling again once Ready is a no-op.
func (c *Coordinator) Initialize(trigger InitTrigger) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Errored:
		return fmt.Errorf("%w: previous initialization failed", ErrInitRejected)
	case Ready, Suspended, Initializing:
		return nil
	}
	if trigger == TriggerAuto {
		return fmt.Errorf("%w: requires a user action or ready media", ErrInitRejected)
	}

	c.state = Initializing
	if err := c.pipeline.Start(); err != nil {
		c.state = Errored
		applog.Errorf("Lifecycle: pipeline start failed, visualizer unavailable: %v", err)
		return fmt.Errorf("lifecycle: pipeline start: %w", err)
	}

	c.state = Ready
	c.lastInteraction = c.now()
	applog.Infof("Lifecycle: pipeline ready (trigger %d)", trigger)
	return nil
}

// Reset is the external recovery path out of Errored.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Uninitialized
	c.cooldown.Reset()
}

// NoteInteraction records a user interaction timestamp; it gates the
// visibility-resume threshold.
func (c *Coordinator) NoteInteraction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastInteraction = c.now()
}

// SetPlaying records whether playback is active. Read back by the
// resume policy when the tab is hidden.
func (c *Coordinator) SetPlaying(playing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = playing
}

// Playing reports the locally tracked playback flag.
func (c *Coordinator) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// HandleVisibility applies a visibility transition. Hidden suspends a
// Ready pipeline, remembering whether playback was active. Visible
// returns to Ready; if playback had been active and at least
// ResumeThreshold has passed since the last interaction, a resume is
// attempted — a resume failure demotes the playing flag and backs off,
// it never propagates.
func (c *Coordinator) HandleVisibility(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !visible {
		if c.state != Ready {
			return
		}
		c.wasPlayingWhenHidden = c.playing
		if err := c.pipeline.Suspend(); err != nil {
			applog.Warnf("Lifecycle: suspend failed: %v", err)
		}
		c.state = Suspended
		applog.Debugf("Lifecycle: suspended (was playing: %v)", c.wasPlayingWhenHidden)
		return
	}

	if c.state != Suspended {
		return
	}
	c.state = Ready

	if !c.wasPlayingWhenHidden {
		return
	}
	if c.now().Sub(c.lastInteraction) < ResumeThreshold {
		return
	}
	if c.cooldown.InCooldown() {
		applog.Debugf("Lifecycle: resume skipped, in cooldown")
		return
	}

	if err := c.pipeline.Resume(); err != nil {
		c.playing = false
		c.cooldown.RecordFailure()
		applog.Warnf("Lifecycle: resume failed, playback flag demoted: %v", err)
		return
	}
	c.playing = true
	applog.Debugf("Lifecycle: resumed after visibility return")
}
