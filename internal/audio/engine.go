// SPDX-License-Identifier: MIT
/*
Package audio implements the live capture engine:
- Lock-free audio capture using PortAudio
- Amplitude gate with branchless implementation
- Mono mixdown feeding the spectral analyzer
- WAV recording with atomic state management

Thread Safety:
- Uses atomic operations for recording state
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	gosample "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"waveviz/internal/analysis"
	"waveviz/internal/config"
	"waveviz/internal/lifecycle"
	applog "waveviz/internal/log"
)

type Engine struct {
	cfg      *config.Config
	analyzer *analysis.Analyzer

	// Audio input handling.
	inputBuffer  []int32
	monoInput    []int32 // Mono mixdown buffer for analysis
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Amplitude gate for signal conditioning.
	gateEnabled   bool
	gateThreshold int32 // Absolute amplitude threshold (0-2147483647)

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *gosample.IntBuffer // Reusable buffer for format conversion
}

// The engine is the stateful pipeline the lifecycle coordinator owns.
var _ lifecycle.Pipeline = (*Engine)(nil)

func NewEngine(cfg *config.Config, analyzer *analysis.Analyzer) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	inputSize := cfg.Audio.FramesPerBuffer * cfg.Audio.Channels

	engine := &Engine{
		cfg:         cfg,
		analyzer:    analyzer,
		inputBuffer: make([]int32, inputSize),
		monoInput:   make([]int32, cfg.Audio.FramesPerBuffer),
		inputDevice: inputDevice,
		gateEnabled: cfg.Audio.GateThreshold > 0,
	}
	engine.SetGateThreshold(cfg.Audio.GateThreshold)

	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

// Start opens the input stream and begins capture. First callback after this
// marks the start of the hot path.
func (e *Engine) Start() error {
	if e.inputStream != nil {
		return nil
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.Audio.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: e.cfg.Audio.FramesPerBuffer,
		SampleRate:      e.cfg.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("audio: open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("audio: start input stream: %w", err)
	}

	applog.Infof("Engine: capture started (%s, %.0f Hz, %d frames)",
		e.inputDevice.Name, e.cfg.Audio.SampleRate, e.cfg.Audio.FramesPerBuffer)
	return nil
}

// Suspend halts capture without releasing the stream, so a later Resume is
// cheap.
func (e *Engine) Suspend() error {
	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return fmt.Errorf("audio: suspend input stream: %w", err)
	}
	applog.Debugf("Engine: capture suspended")
	return nil
}

// Resume restarts a suspended stream.
func (e *Engine) Resume() error {
	if e.inputStream == nil {
		return fmt.Errorf("audio: resume without an open stream")
	}
	if err := e.inputStream.Start(); err != nil {
		return fmt.Errorf("audio: resume input stream: %w", err)
	}
	applog.Debugf("Engine: capture resumed")
	return nil
}

// StopInputStream stops and releases the input stream.
func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}
		if err := e.inputStream.Close(); err != nil {
			return err
		}
		e.inputStream = nil
	}
	return nil
}

// processInputStream is the capture callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer)

	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		for i, sample := range e.inputBuffer {
			e.sampleBuf.Data[i] = int(sample)
		}
		e.sampleBuf.Data = e.sampleBuf.Data[:len(e.inputBuffer)]

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			applog.Errorf("Engine: error writing to WAV file: %v", err)
		}
	}
}

// processBuffer gates the block and feeds the analyzer a mono mixdown.
// Performance Critical (Hot Path):
// - No allocations
// - Branchless gate implementation
func (e *Engine) processBuffer(buffer []int32) {
	shouldAnalyze := true
	if e.gateEnabled {
		var maxAmplitude int32
		for i := range buffer {
			sample := buffer[i]
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask
			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		shouldAnalyze = maxAmplitude > e.gateThreshold
	}

	if !shouldAnalyze || e.analyzer == nil {
		return
	}

	if e.cfg.Audio.Channels == 1 {
		e.analyzer.Process(buffer)
		return
	}
	mixMono(e.monoInput, buffer, e.cfg.Audio.Channels)
	e.analyzer.Process(e.monoInput)
}

// mixMono averages interleaved frames from src into dst, one value per frame.
// Frames missing from src leave dst zeroed. No allocations.
func mixMono(dst, src []int32, channels int) {
	for i := range dst {
		base := i * channels
		if base+channels > len(src) {
			dst[i] = 0
			continue
		}
		var sum int64
		for ch := range channels {
			sum += int64(src[base+ch])
		}
		dst[i] = int32(sum / int64(channels))
	}
}

func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	e.gateThreshold = int32(threshold * float64(math.MaxInt32))
}

// GetGateThreshold returns the current gate threshold as a float64 in 0.0-1.0.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold) / float64(math.MaxInt32)
}
