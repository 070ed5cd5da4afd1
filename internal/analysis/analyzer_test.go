// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"

	"waveviz/pkg/sig"
)

const (
	testFFTSize    = 1024
	testSampleRate = 44100.0
)

func TestUnavailableBeforeFirstBlock(t *testing.T) {
	analyzer, err := New(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}

	if err := analyzer.TimeDomainInto(make([]float64, testFFTSize)); !errors.Is(err, ErrUnavailable) {
		t.Errorf("TimeDomainInto before Process: got %v, want ErrUnavailable", err)
	}
	if err := analyzer.FrequencyDomainInto(make([]float64, analyzer.BinCount())); !errors.Is(err, ErrUnavailable) {
		t.Errorf("FrequencyDomainInto before Process: got %v, want ErrUnavailable", err)
	}
}

func TestSinePeakBin(t *testing.T) {
	analyzer, err := New(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}

	const frequency = 440.0
	analyzer.Process(sig.SineWaveInt32(testFFTSize, testSampleRate, frequency))

	freq := make([]float64, analyzer.BinCount())
	if err := analyzer.FrequencyDomainInto(freq); err != nil {
		t.Fatal(err)
	}

	peakBin := sig.FindPeakBin(freq, 1, len(freq)-1)
	wantBin := int(math.Floor(frequency / testSampleRate * testFFTSize))
	if peakBin < wantBin-1 || peakBin > wantBin+1 {
		t.Errorf("peak at bin %d (%.1f Hz), want near bin %d",
			peakBin, analyzer.FrequencyForBin(peakBin), wantBin)
	}
	for _, v := range freq {
		if v < 0 || v > 255 {
			t.Fatalf("frequency value %v outside byte range", v)
		}
	}
}

func TestTimeDomainRange(t *testing.T) {
	analyzer, err := New(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}
	analyzer.Process(sig.ComplexWaveInt32(testFFTSize, testSampleRate))

	samples := make([]float64, testFFTSize)
	if err := analyzer.TimeDomainInto(samples); err != nil {
		t.Fatal(err)
	}
	for i, s := range samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d = %v outside [-1, 1]", i, s)
		}
	}
}

func TestShortBlockZeroPads(t *testing.T) {
	analyzer, err := New(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}
	analyzer.Process(make([]int32, testFFTSize/4))

	samples := make([]float64, testFFTSize)
	if err := analyzer.TimeDomainInto(samples); err != nil {
		t.Fatal(err)
	}
	for i := testFFTSize / 4; i < testFFTSize; i++ {
		if samples[i] != 0 {
			t.Fatalf("sample %d = %v, want zero padding", i, samples[i])
		}
	}
}

func TestHotPathZeroAllocs(t *testing.T) {
	analyzer, err := New(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}
	inputBuffer := sig.ComplexWaveInt32(testFFTSize, testSampleRate)
	timeDst := make([]float64, testFFTSize)
	freqDst := make([]float64, analyzer.BinCount())

	// Warm-up call so first-use allocations don't count.
	analyzer.Process(inputBuffer)

	allocs := testing.AllocsPerRun(100, func() {
		analyzer.Process(inputBuffer)
		_ = analyzer.TimeDomainInto(timeDst)
		_ = analyzer.FrequencyDomainInto(freqDst)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in acquisition hot path, got %.1f", allocs)
	}
}

func TestNewRejectsBadArgs(t *testing.T) {
	if _, err := New(1000, testSampleRate, Hann); err == nil {
		t.Error("non-power-of-2 size accepted")
	}
	if _, err := New(testFFTSize, 0, Hann); err == nil {
		t.Error("zero sample rate accepted")
	}
}

func TestParseWindowFunc(t *testing.T) {
	if w, err := ParseWindowFunc("Hamming"); err != nil || w != Hamming {
		t.Errorf("ParseWindowFunc(Hamming) = %v, %v", w, err)
	}
	if w, err := ParseWindowFunc("nope"); err == nil || w != Hann {
		t.Errorf("unknown window: got %v, %v, want Hann + error", w, err)
	}
}

func BenchmarkProcess(b *testing.B) {
	analyzer, err := New(testFFTSize, testSampleRate, Hann)
	if err != nil {
		b.Fatal(err)
	}
	inputBuffer := make([]int32, testFFTSize)
	for i := range inputBuffer {
		tm := float64(i) / testSampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		inputBuffer[i] = int32(signal * math.MaxInt32 * 0.9)
	}

	b.ReportAllocs()
	for b.Loop() {
		analyzer.Process(inputBuffer)
	}
}
