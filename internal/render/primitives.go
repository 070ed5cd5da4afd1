// SPDX-License-Identifier: MIT
package render

import "image/color"

// DecimationStride returns the sample stride that caps the number of
// drawn points at targetCount regardless of input length:
// max(minStride, floor(length/targetCount)).
func DecimationStride(length, targetCount, minStride int) int {
	if minStride < 1 {
		minStride = 1
	}
	if targetCount < 1 {
		return minStride
	}
	stride := length / targetCount
	if stride < minStride {
		stride = minStride
	}
	return stride
}

// rampStop is one anchor of the spectrogram color ramp.
type rampStop struct {
	at float64 // position in [0, 1]
	c  color.RGBA
}

// Fixed 6-stop rainbow ramp over byte values 0-255:
// navy -> blue -> cyan -> green -> yellow -> red.
var spectrogramRamp = []rampStop{
	{0.0, color.RGBA{R: 0, G: 0, B: 64, A: 255}},
	{0.2, color.RGBA{R: 0, G: 0, B: 255, A: 255}},
	{0.4, color.RGBA{R: 0, G: 255, B: 255, A: 255}},
	{0.6, color.RGBA{R: 0, G: 255, B: 0, A: 255}},
	{0.8, color.RGBA{R: 255, G: 255, B: 0, A: 255}},
	{1.0, color.RGBA{R: 255, G: 0, B: 0, A: 255}},
}

// RampColor maps a byte-quantized magnitude (0-255) onto the rainbow
// ramp, interpolating linearly between adjacent stops.
func RampColor(value float64) color.RGBA {
	t := value / 255
	if t <= 0 {
		return spectrogramRamp[0].c
	}
	if t >= 1 {
		return spectrogramRamp[len(spectrogramRamp)-1].c
	}
	for i := 1; i < len(spectrogramRamp); i++ {
		if t <= spectrogramRamp[i].at {
			lo, hi := spectrogramRamp[i-1], spectrogramRamp[i]
			f := (t - lo.at) / (hi.at - lo.at)
			return lerpRGBA(lo.c, hi.c, f)
		}
	}
	return spectrogramRamp[len(spectrogramRamp)-1].c
}

func lerpRGBA(a, b color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*f),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*f),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*f),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*f),
	}
}
