// SPDX-License-Identifier: MIT

// Package analysis adapts a live capture stream into synchronous
// snapshot pulls of the current time-domain and frequency-domain
// buffers. The Analyzer owns the sample buffers exclusively; renderers
// copy out a snapshot each frame and never hold one across frames.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"

	applog "waveviz/internal/log"
	"waveviz/pkg/bitint"
)

// ErrUnavailable is returned by the snapshot pulls before the first
// capture block has been processed. Callers treat it as "nothing to
// show yet", not a failure.
var ErrUnavailable = errors.New("analysis: no audio data acquired yet")

// Byte quantization range for frequency magnitudes, in decibels.
// Magnitudes map linearly from [MinDecibels, MaxDecibels] onto [0, 255].
const (
	MinDecibels = -100.0
	MaxDecibels = -30.0
)

// workspace holds pre-allocated buffers for the FFT hot path.
type workspace struct {
	input      []float64    // windowed input samples
	fftOutput  []complex128 // FFT complex output
	timeDomain []float64    // latest samples normalized to [-1, 1]
	freqDomain []float64    // latest magnitudes quantized to [0, 255]
	window     []float64    // window function coefficients
	windowSum  float64      // sum of coefficients, for amplitude scaling
}

// Analyzer performs FFT analysis on capture blocks and exposes the
// results as snapshot pulls. Process runs on the capture callback;
// the *Into accessors run on the frame loop. A RWMutex keeps the two
// sides consistent without allocating per frame.
type Analyzer struct {
	fftSize    int
	sampleRate float64
	fftObj     *fourier.FFT

	mu        sync.RWMutex
	workspace workspace
	frames    atomic.Uint64 // processed block count, 0 = nothing acquired
}

// New creates an Analyzer with pre-allocated buffers. fftSize must be a
// power of 2; BinCount() output values are produced per block.
func New(fftSize int, sampleRate float64, windowType WindowFunc) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("analysis: fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("analysis: sample rate must be positive, got %f", sampleRate)
	}

	windowCoeffs := make([]float64, fftSize)
	applyWindow(windowCoeffs, windowType)
	var windowSum float64
	for _, w := range windowCoeffs {
		windowSum += w
	}

	binCount := fftSize/2 + 1
	applog.Infof("Analysis: Initializing Analyzer (Size: %d, SampleRate: %.1f Hz, Window: %v)",
		fftSize, sampleRate, windowType)

	return &Analyzer{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fftObj:     fourier.NewFFT(fftSize),
		workspace: workspace{
			input:      make([]float64, fftSize),
			fftOutput:  make([]complex128, binCount),
			timeDomain: make([]float64, fftSize),
			freqDomain: make([]float64, binCount),
			window:     windowCoeffs,
			windowSum:  windowSum,
		},
	}, nil
}

// Process ingests one capture block: normalizes to [-1, 1], applies the
// window, runs the FFT and quantizes magnitudes to the byte range.
// Zero-pads if the block is shorter than the FFT size. No allocations.
func (a *Analyzer) Process(inputBuffer []int32) {
	const normFactor = 1.0 / float64(math.MaxInt32)

	a.mu.Lock()
	inputLen := len(inputBuffer)
	for i := range a.fftSize {
		if i < inputLen {
			sample := float64(inputBuffer[i]) * normFactor
			a.workspace.timeDomain[i] = sample
			a.workspace.input[i] = sample * a.workspace.window[i]
		} else {
			a.workspace.timeDomain[i] = 0
			a.workspace.input[i] = 0
		}
	}

	a.fftObj.Coefficients(a.workspace.fftOutput, a.workspace.input)

	// Amplitude of a real sinusoid is 2|X|/sum(window); DC and Nyquist
	// bins carry no mirror, so they skip the factor of 2.
	for i, c := range a.workspace.fftOutput {
		amplitude := cmplx.Abs(c) / a.workspace.windowSum
		if i != 0 && i != len(a.workspace.fftOutput)-1 {
			amplitude *= 2
		}
		a.workspace.freqDomain[i] = quantizeByte(amplitude)
	}
	a.mu.Unlock()

	a.frames.Add(1)
}

// quantizeByte maps a linear amplitude onto [0, 255] through the
// [MinDecibels, MaxDecibels] window.
func quantizeByte(amplitude float64) float64 {
	if amplitude <= 0 {
		return 0
	}
	db := 20 * math.Log10(amplitude)
	v := (db - MinDecibels) / (MaxDecibels - MinDecibels) * 255
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// TimeDomainInto copies the latest time-domain snapshot into dst.
// dst must have length FFTSize(). Returns ErrUnavailable before the
// first processed block. Allocation-free.
func (a *Analyzer) TimeDomainInto(dst []float64) error {
	if a.frames.Load() == 0 {
		return ErrUnavailable
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(dst) != len(a.workspace.timeDomain) {
		return fmt.Errorf("analysis: destination length %d, want %d", len(dst), len(a.workspace.timeDomain))
	}
	copy(dst, a.workspace.timeDomain)
	return nil
}

// FrequencyDomainInto copies the latest byte-quantized magnitude
// snapshot into dst. dst must have length BinCount(). Returns
// ErrUnavailable before the first processed block. Allocation-free.
func (a *Analyzer) FrequencyDomainInto(dst []float64) error {
	if a.frames.Load() == 0 {
		return ErrUnavailable
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(dst) != len(a.workspace.freqDomain) {
		return fmt.Errorf("analysis: destination length %d, want %d", len(dst), len(a.workspace.freqDomain))
	}
	copy(dst, a.workspace.freqDomain)
	return nil
}

// FFTSize returns the configured FFT size. Immutable after creation.
func (a *Analyzer) FFTSize() int { return a.fftSize }

// BinCount returns the frequency buffer length (fftSize/2 + 1).
func (a *Analyzer) BinCount() int { return a.fftSize/2 + 1 }

// SampleRate returns the configured sample rate in Hz.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// FrequencyForBin returns the center frequency (Hz) for a bin index,
// or 0 for an out-of-range index.
func (a *Analyzer) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex > a.fftSize/2 {
		return 0
	}
	return float64(binIndex) * (a.sampleRate / float64(a.fftSize))
}
