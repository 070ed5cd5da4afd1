// SPDX-License-Identifier: MIT
package render

import (
	"time"
)

// Spectrogram renders a left-scrolling heatmap: one new column per
// frame on the right edge, existing image shifted left by exactly one
// pixel column. It owns an off-screen scroll canvas sized to the
// visible surface; time resolution is one column per frame, so a
// dropped frame skips a column rather than stretching one.
type Spectrogram struct {
	source  SignalSource
	surface Surface

	scroll *Raster
	freq   []float64
}

// NewSpectrogram creates a spectrogram drawing to surface from source.
func NewSpectrogram(source SignalSource, surface Surface) *Spectrogram {
	width, height := surface.Bounds()
	return &Spectrogram{
		source:  source,
		surface: surface,
		scroll:  NewRaster(width, height),
		freq:    make([]float64, source.BinCount()),
	}
}

// Attach registers the renderer with the shared frame loop.
func (sg *Spectrogram) Attach(s *Scheduler) { s.Register(sg) }

// Detach removes it; takes effect from the next tick.
func (sg *Spectrogram) Detach(s *Scheduler) { s.Unregister(sg) }

// Frame shifts the scroll canvas one column left, draws the newest
// frequency snapshot as the rightmost column (low bins at the bottom),
// then blits the canvas onto the visible surface.
func (sg *Spectrogram) Frame(now time.Time) {
	if len(sg.freq) != sg.source.BinCount() {
		sg.freq = make([]float64, sg.source.BinCount())
	}
	if err := sg.source.FrequencyDomainInto(sg.freq); err != nil {
		return
	}
	if len(sg.freq) == 0 {
		return
	}

	width, height := sg.surface.Bounds()
	if sw, sh := sg.scroll.Bounds(); sw != width || sh != height {
		sg.scroll = NewRaster(width, height)
	}

	sg.scroll.ShiftLeft(1)

	sliceHeight := height / len(sg.freq)
	if sliceHeight < 1 {
		sliceHeight = 1
	}
	x := width - 1
	for bin, value := range sg.freq {
		y := height - (bin+1)*sliceHeight
		if y+sliceHeight <= 0 {
			break
		}
		sg.scroll.FillRect(x, y, 1, sliceHeight, RampColor(value))
	}

	sg.surface.Blit(sg.scroll.Image(), 0, 0)
}

// Scroll exposes the off-screen canvas for inspection.
func (sg *Spectrogram) Scroll() *Raster { return sg.scroll }
