// SPDX-License-Identifier: MIT

// Package dsp implements logarithmic frequency banding over a
// frequency-domain buffer, with one-pole temporal smoothing.
//
// A BandSet is computed once per resolution (buffer length, band count,
// sample rate, max frequency) and reused across frames; recomputing it
// per frame is a bug, not a style choice.
package dsp

import (
	"errors"
	"math"
)

// minBandFrequency anchors the low edge of the log scale. Bins below
// 20 Hz carry no useful visual information.
const minBandFrequency = 20.0

var (
	ErrInvalidBufferLength = errors.New("dsp: buffer length must be positive")
	ErrInvalidBandCount    = errors.New("dsp: band count must be positive")
	ErrInvalidSampleRate   = errors.New("dsp: sample rate must be positive")
	ErrInvalidMaxFrequency = errors.New("dsp: max frequency must exceed 20 Hz")
)

// Band is a contiguous [StartBin, EndBin] index range into a
// frequency-domain buffer. Both bounds are inclusive: a band whose start
// equals its end still covers that one bin.
type Band struct {
	StartBin int
	EndBin   int
}

// BandSet is an ordered sequence of Bands, low frequencies first.
type BandSet []Band

// ComputeBands builds bandCount bands whose edges are log-spaced from
// 20 Hz to maxFrequency, approximating perceptual pitch spacing. Edge i
// sits at exp(ln20 + (ln(maxFrequency)-ln20) * i/bandCount); each edge
// converts to a bin via floor(freq/nyquist * bufferLength), clamped to
// [0, floor(maxFrequency/nyquist * bufferLength)].
func ComputeBands(bufferLength, bandCount int, sampleRate, maxFrequency float64) (BandSet, error) {
	if bufferLength <= 0 {
		return nil, ErrInvalidBufferLength
	}
	if bandCount <= 0 {
		return nil, ErrInvalidBandCount
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if maxFrequency <= minBandFrequency {
		return nil, ErrInvalidMaxFrequency
	}

	nyquist := sampleRate / 2
	maxBin := int(maxFrequency / nyquist * float64(bufferLength))
	if maxBin > bufferLength-1 {
		maxBin = bufferLength - 1
	}

	logMin := math.Log(minBandFrequency)
	logMax := math.Log(maxFrequency)

	binForEdge := func(i int) int {
		freq := math.Exp(logMin + (logMax-logMin)*float64(i)/float64(bandCount))
		bin := int(freq / nyquist * float64(bufferLength))
		if bin < 0 {
			bin = 0
		}
		if bin > maxBin {
			bin = maxBin
		}
		return bin
	}

	bands := make(BandSet, bandCount)
	for i := range bandCount {
		start := binForEdge(i)
		end := binForEdge(i + 1)
		if end < start {
			end = start
		}
		bands[i] = Band{StartBin: start, EndBin: end}
	}
	return bands, nil
}

// UpdateBands folds a fresh frequency buffer into the smoothed band values.
// For each band the mean of frequencyBuffer[StartBin..EndBin] (inclusive,
// 0 for an empty range) is blended as
//
//	smoothed[i] = smoothingFactor*smoothed[i] + (1-smoothingFactor)*average
//
// a one-pole exponential moving average; smoothingFactor in [0,1), closer
// to 1 means slower response. Deterministic for identical inputs and prior
// state, and allocation-free.
func UpdateBands(frequencyBuffer []float64, bands BandSet, smoothed []float64, smoothingFactor float64) {
	n := len(bands)
	if n > len(smoothed) {
		n = len(smoothed)
	}
	for i := 0; i < n; i++ {
		average := bandAverage(frequencyBuffer, bands[i])
		smoothed[i] = smoothingFactor*smoothed[i] + (1-smoothingFactor)*average
	}
}

func bandAverage(buffer []float64, band Band) float64 {
	start := band.StartBin
	end := band.EndBin
	if start < 0 {
		start = 0
	}
	if end > len(buffer)-1 {
		end = len(buffer) - 1
	}
	if start > end {
		return 0
	}

	var sum float64
	for bin := start; bin <= end; bin++ {
		sum += buffer[bin]
	}
	return sum / float64(end-start+1)
}
