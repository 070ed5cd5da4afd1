// SPDX-License-Identifier: MIT
package render

import (
	"errors"
	"image/color"
	"math"
	"testing"
	"time"
)

// stubSource is a canned SignalSource for renderer tests.
type stubSource struct {
	time       []float64
	freq       []float64
	sampleRate float64
	err        error
}

func (s *stubSource) TimeDomainInto(dst []float64) error {
	if s.err != nil {
		return s.err
	}
	copy(dst, s.time)
	return nil
}

func (s *stubSource) FrequencyDomainInto(dst []float64) error {
	if s.err != nil {
		return s.err
	}
	copy(dst, s.freq)
	return nil
}

func (s *stubSource) FFTSize() int  { return len(s.time) }
func (s *stubSource) BinCount() int { return len(s.freq) }
func (s *stubSource) SampleRate() float64 {
	if s.sampleRate == 0 {
		return 44100
	}
	return s.sampleRate
}

func constSlice(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestDecimationStride(t *testing.T) {
	cases := []struct {
		length, target, min, want int
	}{
		{1024, 300, 1, 3},
		{300, 300, 1, 1},
		{100, 300, 1, 1},
		{2048, 75, 1, 27},
		{2048, 100, 4, 20},
		{100, 1000, 2, 2},
	}
	for _, c := range cases {
		if got := DecimationStride(c.length, c.target, c.min); got != c.want {
			t.Errorf("DecimationStride(%d, %d, %d) = %d, want %d",
				c.length, c.target, c.min, got, c.want)
		}
	}
}

func TestOscilloscopeSkipsUnavailableBuffer(t *testing.T) {
	src := &stubSource{
		time: make([]float64, 512),
		freq: make([]float64, 257),
		err:  errors.New("no audio pipeline yet"),
	}
	surface := NewRaster(64, 48)
	marker := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	surface.Clear(marker)

	osc := NewOscilloscope(src, surface)
	osc.Frame(time.Now()) // must not draw, must not panic

	if got := surface.Image().RGBAAt(10, 10); got != marker {
		t.Errorf("surface touched on unavailable buffer: %v", got)
	}
}

func TestOscilloscopeDrawsTrace(t *testing.T) {
	src := &stubSource{
		time: constSlice(512, 0.5),
		freq: make([]float64, 257),
	}
	surface := NewRaster(100, 100)
	osc := NewOscilloscope(src, surface)
	osc.Frame(time.Now())

	// y = 50 - 0.5*100*0.4 = 30 for every sample.
	found := false
	for x := 0; x < 100; x++ {
		if surface.Image().RGBAAt(x, 30) == osc.Trace {
			found = true
			break
		}
	}
	if !found {
		t.Error("trace row empty at the expected amplitude")
	}
}

func TestOscilloscopeInvertY(t *testing.T) {
	src := &stubSource{time: constSlice(512, 0.5), freq: make([]float64, 257)}
	surface := NewRaster(100, 100)
	osc := NewOscilloscope(src, surface)
	osc.InvertY = true
	osc.Frame(time.Now())

	// Inverted: y = 50 + 20 = 70.
	found := false
	for x := 0; x < 100; x++ {
		if surface.Image().RGBAAt(x, 70) == osc.Trace {
			found = true
			break
		}
	}
	if !found {
		t.Error("inverted trace not found below the midline")
	}
}

func TestSpectrumCapFallPhysics(t *testing.T) {
	src := &stubSource{
		time: make([]float64, 512),
		freq: constSlice(257, 255),
	}
	surface := NewRaster(128, 100)
	sb := NewSpectrumBars(src, surface, 16)
	sb.Smoothing = 0 // track the input instantly
	sb.CapFallSpeed = 0.9

	sb.Frame(time.Now())
	peak := sb.CapValues()[0]
	if want := 0.8 * 100; math.Abs(peak-want) > 1e-9 {
		t.Fatalf("initial cap = %v, want %v", peak, want)
	}

	// Constant zero input afterward: cap[n] = P * fall^n.
	for i := range src.freq {
		src.freq[i] = 0
	}
	for n := 1; n <= 10; n++ {
		sb.Frame(time.Now())
		want := peak * math.Pow(0.9, float64(n))
		if got := sb.CapValues()[0]; math.Abs(got-want) > 1e-9 {
			t.Fatalf("cap after %d zero frames = %v, want %v", n, got, want)
		}
	}
}

func TestSpectrumCapNeverRisesWithoutSignal(t *testing.T) {
	src := &stubSource{time: make([]float64, 512), freq: constSlice(257, 200)}
	surface := NewRaster(128, 100)
	sb := NewSpectrumBars(src, surface, 8)
	sb.Smoothing = 0

	sb.Frame(time.Now())
	prev := sb.CapValues()[0]
	for i := range src.freq {
		src.freq[i] = 0
	}
	for range 20 {
		sb.Frame(time.Now())
		cur := sb.CapValues()[0]
		if cur > prev {
			t.Fatalf("cap rose from %v to %v on zero input", prev, cur)
		}
		prev = cur
	}
}

func TestSpectrumBandSetReuse(t *testing.T) {
	src := &stubSource{time: make([]float64, 512), freq: constSlice(257, 100)}
	sb := NewSpectrumBars(src, NewRaster(128, 100), 16)

	sb.Frame(time.Now())
	first := &sb.bands[0]
	sb.Frame(time.Now())
	if first != &sb.bands[0] {
		t.Error("BandSet recomputed without a resolution change")
	}

	sb.MaxFrequency = 8000
	sb.Frame(time.Now())
	if first == &sb.bands[0] {
		t.Error("BandSet not recomputed after resolution change")
	}
}

func TestSpectrogramScrollsLeft(t *testing.T) {
	src := &stubSource{time: make([]float64, 512), freq: constSlice(8, 255)}
	surface := NewRaster(64, 64)
	sg := NewSpectrogram(src, surface)

	sg.Frame(time.Now()) // red column at x=63

	for i := range src.freq {
		src.freq[i] = 0
	}
	sg.Frame(time.Now()) // red shifts to x=62, navy at x=63

	img := sg.Scroll().Image()
	red := RampColor(255)
	navy := RampColor(0)
	if got := img.RGBAAt(62, 60); got != red {
		t.Errorf("shifted column at x=62: got %v, want %v", got, red)
	}
	if got := img.RGBAAt(63, 60); got != navy {
		t.Errorf("new column at x=63: got %v, want %v", got, navy)
	}
}

func TestSpectrogramLowBinsAtBottom(t *testing.T) {
	// Only bin 0 is hot; it must land at the bottom of the column.
	freq := make([]float64, 8)
	freq[0] = 255
	src := &stubSource{time: make([]float64, 512), freq: freq}
	sg := NewSpectrogram(src, NewRaster(64, 64))

	sg.Frame(time.Now())

	img := sg.Scroll().Image()
	red := RampColor(255)
	if got := img.RGBAAt(63, 60); got != red { // slice height 8, bin 0 at y 56..63
		t.Errorf("bottom slice: got %v, want %v", got, red)
	}
	if got := img.RGBAAt(63, 4); got == red {
		t.Error("top slice colored as if high bins were at the bottom")
	}
}

func TestSpectrogramSkipsWithoutData(t *testing.T) {
	src := &stubSource{
		time: make([]float64, 512),
		freq: make([]float64, 8),
		err:  errors.New("nothing yet"),
	}
	sg := NewSpectrogram(src, NewRaster(32, 32))
	sg.Frame(time.Now())

	if got := sg.Scroll().Image().RGBAAt(31, 31); (got != color.RGBA{}) {
		t.Errorf("scroll canvas touched without data: %v", got)
	}
}

func TestRampColorEndpoints(t *testing.T) {
	if got := RampColor(-5); got != (color.RGBA{R: 0, G: 0, B: 64, A: 255}) {
		t.Errorf("below-range ramp: %v", got)
	}
	if got := RampColor(300); got != (color.RGBA{R: 255, G: 0, B: 0, A: 255}) {
		t.Errorf("above-range ramp: %v", got)
	}
	mid := RampColor(127.5)
	if mid.G != 255 {
		t.Errorf("midpoint should sit between cyan and green, got %v", mid)
	}
}

func TestRasterShiftLeft(t *testing.T) {
	r := NewRaster(4, 2)
	c := color.RGBA{R: 200, G: 10, B: 10, A: 255}
	r.FillRect(3, 0, 1, 2, c)

	r.ShiftLeft(1)
	if got := r.Image().RGBAAt(2, 0); got != c {
		t.Errorf("pixel not shifted: %v", got)
	}
	if got := r.Image().RGBAAt(3, 0); (got != color.RGBA{}) {
		t.Errorf("vacated column not zeroed: %v", got)
	}

	r.ShiftLeft(10) // beyond width clears everything
	if got := r.Image().RGBAAt(0, 0); (got != color.RGBA{}) {
		t.Errorf("over-shift did not clear: %v", got)
	}
}

func TestRasterFillRectClips(t *testing.T) {
	r := NewRaster(8, 8)
	r.FillRect(-4, -4, 100, 100, color.RGBA{R: 9, A: 255}) // must not panic
	if got := r.Image().RGBAAt(7, 7); got.R != 9 {
		t.Errorf("clipped fill missed in-bounds pixel: %v", got)
	}
}
