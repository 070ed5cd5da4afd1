// SPDX-License-Identifier: MIT

// Package render contains the shared frame scheduler, the drawing
// surface boundary and the three visual renderers (oscilloscope,
// spectrum bars, scrolling spectrogram).
package render

import (
	"image"
	"image/color"
)

// Surface is the drawing collaborator boundary: 2D raster semantics
// with alpha blending over a fixed pixel buffer. The in-repo Raster
// implements it; hosts with a real canvas supply their own.
type Surface interface {
	// Bounds returns the surface dimensions in pixels.
	Bounds() (width, height int)

	// Clear fills the whole surface with c.
	Clear(c color.RGBA)

	// FillRect fills the rectangle at (x, y) with the given size,
	// clipped to the surface.
	FillRect(x, y, w, h int, c color.RGBA)

	// FillRectAlpha fills a rectangle blended at the given opacity.
	// Opacity applies to this call only; it never persists.
	FillRectAlpha(x, y, w, h int, c color.RGBA, alpha float64)

	// StrokeLine draws a 1px line between the two points.
	StrokeLine(x0, y0, x1, y1 int, c color.RGBA)

	// ShiftLeft moves the existing image left by cols pixel columns,
	// copy-composited without blending. Vacated columns are zeroed.
	ShiftLeft(cols int)

	// Blit copies src onto the surface with its top-left at (x, y).
	Blit(src *image.RGBA, x, y int)
}

// SignalSource is the acquisition boundary renderers pull from each
// frame. Pulls are synchronous snapshots; implementations must not
// allocate per call. analysis.Analyzer satisfies it.
type SignalSource interface {
	TimeDomainInto(dst []float64) error
	FrequencyDomainInto(dst []float64) error
	FFTSize() int
	BinCount() int
	SampleRate() float64
}
