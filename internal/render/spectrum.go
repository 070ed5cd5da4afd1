// SPDX-License-Identifier: MIT
package render

import (
	"image/color"
	"time"

	"waveviz/internal/dsp"
	applog "waveviz/internal/log"
)

// resolutionKey identifies the acquisition/banding tuple a BandSet was
// computed for. The BandSet is reused until the tuple changes.
type resolutionKey struct {
	bufferLength int
	bandCount    int
	sampleRate   float64
	maxFrequency float64
}

// SpectrumBars renders smoothed logarithmic band values as vertical
// bars with peak caps that rise instantly and fall exponentially.
type SpectrumBars struct {
	source  SignalSource
	surface Surface

	BandCount    int
	MaxFrequency float64
	Smoothing    float64 // one-pole EMA factor in [0, 1)
	CapFallSpeed float64 // geometric cap decay per frame, in (0, 1)
	BarSpacing   int

	Background color.RGBA
	Bar        color.RGBA
	Cap        color.RGBA

	bandKey  resolutionKey
	bands    dsp.BandSet
	smoothed []float64
	caps     []float64
	freq     []float64
}

// NewSpectrumBars creates a bar-graph renderer with the given band count.
func NewSpectrumBars(source SignalSource, surface Surface, bandCount int) *SpectrumBars {
	if bandCount < 1 {
		bandCount = 1
	}
	return &SpectrumBars{
		source:       source,
		surface:      surface,
		BandCount:    bandCount,
		MaxFrequency: 16000,
		Smoothing:    0.7,
		CapFallSpeed: 0.94,
		BarSpacing:   1,
		Background:   color.RGBA{R: 10, G: 10, B: 16, A: 255},
		Bar:          color.RGBA{R: 98, G: 114, B: 250, A: 255},
		Cap:          color.RGBA{R: 248, G: 248, B: 242, A: 255},
		freq:         make([]float64, source.BinCount()),
	}
}

// Attach registers the renderer with the shared frame loop.
func (sb *SpectrumBars) Attach(s *Scheduler) { s.Register(sb) }

// Detach removes it; takes effect from the next tick.
func (sb *SpectrumBars) Detach(s *Scheduler) { s.Unregister(sb) }

// ensureBands recomputes the BandSet only when the resolution tuple
// changed; per-frame recomputation would defeat the banding cache.
func (sb *SpectrumBars) ensureBands() bool {
	key := resolutionKey{
		bufferLength: sb.source.BinCount(),
		bandCount:    sb.BandCount,
		sampleRate:   sb.source.SampleRate(),
		maxFrequency: sb.MaxFrequency,
	}
	if sb.bands != nil && key == sb.bandKey {
		return true
	}

	bands, err := dsp.ComputeBands(key.bufferLength, key.bandCount, key.sampleRate, key.maxFrequency)
	if err != nil {
		applog.Errorf("SpectrumBars: band layout rejected: %v", err)
		return false
	}
	sb.bands = bands
	sb.bandKey = key
	sb.smoothed = make([]float64, key.bandCount)
	sb.caps = make([]float64, key.bandCount)
	applog.Debugf("SpectrumBars: computed %d bands for buffer %d @ %.0f Hz",
		key.bandCount, key.bufferLength, key.sampleRate)
	return true
}

// Frame pulls the frequency snapshot, updates smoothing and cap
// physics, and redraws all bars. Skips silently when no data exists.
func (sb *SpectrumBars) Frame(now time.Time) {
	if len(sb.freq) != sb.source.BinCount() {
		sb.freq = make([]float64, sb.source.BinCount())
	}
	if err := sb.source.FrequencyDomainInto(sb.freq); err != nil {
		return
	}
	if !sb.ensureBands() {
		return
	}

	dsp.UpdateBands(sb.freq, sb.bands, sb.smoothed, sb.Smoothing)

	width, height := sb.surface.Bounds()
	sb.surface.Clear(sb.Background)

	// Bar width floors at 1px even in degenerate layouts.
	barWidth := width/sb.BandCount - sb.BarSpacing
	if barWidth < 1 {
		barWidth = 1
	}
	slot := width / sb.BandCount
	if slot < 1 {
		slot = 1
	}

	for i := range sb.bands {
		barHeight := sb.smoothed[i] / 255 * float64(height) * 0.8

		// Instant rise, exponential fall.
		decayed := sb.caps[i] * sb.CapFallSpeed
		if barHeight > decayed {
			sb.caps[i] = barHeight
		} else {
			sb.caps[i] = decayed
		}

		x := i * slot
		h := int(barHeight)
		if h > 0 {
			sb.surface.FillRect(x, height-h, barWidth, h, sb.Bar)
		}
		capY := height - int(sb.caps[i]) - 2
		sb.surface.FillRect(x, capY, barWidth, 2, sb.Cap)
	}
}

// CapValues exposes the current peak-cap array for inspection.
func (sb *SpectrumBars) CapValues() []float64 { return sb.caps }
