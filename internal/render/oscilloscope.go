// SPDX-License-Identifier: MIT
package render

import (
	"image/color"
	"time"
)

// OscMode selects the oscilloscope trace style.
type OscMode int

const (
	OscLine OscMode = iota
	OscDots
	OscBars
)

// Point caps per trace mode. The stride is chosen so no more than this
// many points are drawn regardless of the input length.
const (
	oscLinePoints = 300
	oscDotsPoints = 100
	oscBarsPoints = 75
)

const fillAlpha = 0.25

// Oscilloscope renders the time-domain buffer as a line, dot or bar
// trace. It owns a reusable sample buffer sized to the acquisition
// resolution and never holds a source snapshot across frames.
type Oscilloscope struct {
	source  SignalSource
	surface Surface

	Mode        OscMode
	Sensitivity float64 // vertical gain, 1.0 = 40% of height at full scale
	InvertY     bool
	Fill        bool // under-curve fill, line mode only

	Background color.RGBA
	Trace      color.RGBA

	samples []float64
}

// NewOscilloscope creates an oscilloscope drawing to surface from source.
func NewOscilloscope(source SignalSource, surface Surface) *Oscilloscope {
	return &Oscilloscope{
		source:      source,
		surface:     surface,
		Mode:        OscLine,
		Sensitivity: 1.0,
		Background:  color.RGBA{R: 10, G: 10, B: 16, A: 255},
		Trace:       color.RGBA{R: 80, G: 250, B: 123, A: 255},
		samples:     make([]float64, source.FFTSize()),
	}
}

// Attach registers the oscilloscope with the shared frame loop.
func (o *Oscilloscope) Attach(s *Scheduler) { s.Register(o) }

// Detach removes it; takes effect from the next tick.
func (o *Oscilloscope) Detach(s *Scheduler) { s.Unregister(o) }

// Frame pulls the current time-domain snapshot and draws one trace.
// An unavailable or empty buffer skips the frame — nothing to show yet.
func (o *Oscilloscope) Frame(now time.Time) {
	if len(o.samples) != o.source.FFTSize() {
		o.samples = make([]float64, o.source.FFTSize())
	}
	if err := o.source.TimeDomainInto(o.samples); err != nil {
		return
	}
	if len(o.samples) == 0 {
		return
	}

	width, height := o.surface.Bounds()
	o.surface.Clear(o.Background)

	target := oscLinePoints
	switch o.Mode {
	case OscDots:
		target = oscDotsPoints
	case OscBars:
		target = oscBarsPoints
	}
	stride := DecimationStride(len(o.samples), target, 1)

	switch o.Mode {
	case OscDots:
		o.drawDots(width, height, stride)
	case OscBars:
		o.drawBars(width, height, stride)
	default:
		o.drawLine(width, height, stride)
	}
}

// sampleY maps an amplitude in [-1, 1] to a pixel row:
// y = height/2 - sign*value*height*0.4*sensitivity.
func (o *Oscilloscope) sampleY(value float64, height int) int {
	sign := 1.0
	if o.InvertY {
		sign = -1.0
	}
	return height/2 - int(sign*value*float64(height)*0.4*o.Sensitivity)
}

func (o *Oscilloscope) sampleX(index, width int) int {
	denom := len(o.samples) - 1
	if denom < 1 {
		denom = 1
	}
	return index * (width - 1) / denom
}

func (o *Oscilloscope) drawLine(width, height, stride int) {
	// Fill pass first, alpha-blended per call so full opacity is
	// restored for the stroke pass by construction.
	if o.Fill {
		base := height / 2
		for i := 0; i < len(o.samples); i += stride {
			x := o.sampleX(i, width)
			y := o.sampleY(o.samples[i], height)
			top, bottom := y, base
			if top > bottom {
				top, bottom = bottom, top
			}
			o.surface.FillRectAlpha(x, top, 1, bottom-top+1, o.Trace, fillAlpha)
		}
	}

	prevX, prevY := -1, 0
	for i := 0; i < len(o.samples); i += stride {
		x := o.sampleX(i, width)
		y := o.sampleY(o.samples[i], height)
		if prevX >= 0 {
			o.surface.StrokeLine(prevX, prevY, x, y, o.Trace)
		}
		prevX, prevY = x, y
	}
}

func (o *Oscilloscope) drawDots(width, height, stride int) {
	for i := 0; i < len(o.samples); i += stride {
		x := o.sampleX(i, width)
		y := o.sampleY(o.samples[i], height)
		o.surface.FillRect(x-1, y-1, 2, 2, o.Trace)
	}
}

func (o *Oscilloscope) drawBars(width, height, stride int) {
	points := (len(o.samples) + stride - 1) / stride
	barWidth := width / points
	if barWidth < 1 {
		barWidth = 1
	}
	base := height / 2
	for i := 0; i < len(o.samples); i += stride {
		x := o.sampleX(i, width)
		y := o.sampleY(o.samples[i], height)
		top, bottom := y, base
		if top > bottom {
			top, bottom = bottom, top
		}
		o.surface.FillRect(x, top, barWidth, bottom-top+1, o.Trace)
	}
}
