// SPDX-License-Identifier: MIT
package transport

import (
	"testing"
	"time"

	"waveviz/internal/analysis"
	"waveviz/pkg/sig"
)

// stubSource serves a canned frequency snapshot.
type stubSource struct {
	freq       []float64
	sampleRate float64
	err        error
}

func (s *stubSource) FrequencyDomainInto(dst []float64) error {
	if s.err != nil {
		return s.err
	}
	copy(dst, s.freq)
	return nil
}

func (s *stubSource) BinCount() int       { return len(s.freq) }
func (s *stubSource) SampleRate() float64 { return s.sampleRate }

func waitForFrames(t *testing.T, mock *sig.MockTransport, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mock.Count() >= want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, got %d", want, mock.Count())
}

func TestBandPublisherPublishesFrames(t *testing.T) {
	source := &stubSource{freq: make([]float64, 513), sampleRate: 44100}
	for i := range source.freq {
		source.freq[i] = float64(i % 256)
	}
	mock := &sig.MockTransport{}

	pub, err := NewBandPublisher(source, []Transport{mock}, 5*time.Millisecond, 16, 16000, 0)
	if err != nil {
		t.Fatal(err)
	}

	pub.Start()
	waitForFrames(t, mock, 3)
	if err := pub.Stop(); err != nil {
		t.Fatal(err)
	}

	sent := mock.Sent()
	first, ok := sent[0].(*BandFrame)
	if !ok {
		t.Fatalf("published %T, want *BandFrame", sent[0])
	}
	if len(first.Values) != 16 {
		t.Errorf("frame has %d bands, want 16", len(first.Values))
	}

	second := sent[1].(*BandFrame)
	if second.Sequence != first.Sequence+1 {
		t.Errorf("sequence not monotonic: %d then %d", first.Sequence, second.Sequence)
	}
	// Frames must not alias the publisher's internal buffer.
	if &first.Values[0] == &second.Values[0] {
		t.Error("consecutive frames share a values buffer")
	}
}

func TestBandPublisherSkipsWithoutData(t *testing.T) {
	source := &stubSource{freq: make([]float64, 513), sampleRate: 44100, err: analysis.ErrUnavailable}
	mock := &sig.MockTransport{}

	pub, err := NewBandPublisher(source, []Transport{mock}, 5*time.Millisecond, 16, 16000, 0)
	if err != nil {
		t.Fatal(err)
	}

	pub.Start()
	time.Sleep(30 * time.Millisecond)
	if err := pub.Stop(); err != nil {
		t.Fatal(err)
	}

	if mock.Count() != 0 {
		t.Errorf("published %d frames from an unavailable source", mock.Count())
	}
}

func TestBandPublisherStopIsIdempotent(t *testing.T) {
	source := &stubSource{freq: make([]float64, 513), sampleRate: 44100}
	pub, err := NewBandPublisher(source, []Transport{&sig.MockTransport{}}, 5*time.Millisecond, 8, 16000, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	pub.Start()
	if err := pub.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Stop(); err != nil {
		t.Fatal(err)
	}
	// A second Start/Stop cycle must work after a full stop.
	pub.Start()
	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestBandPublisherRejectsBadArguments(t *testing.T) {
	source := &stubSource{freq: make([]float64, 513), sampleRate: 44100}
	if _, err := NewBandPublisher(nil, []Transport{&sig.MockTransport{}}, time.Millisecond, 8, 16000, 0); err == nil {
		t.Error("nil source accepted")
	}
	if _, err := NewBandPublisher(source, nil, time.Millisecond, 8, 16000, 0); err == nil {
		t.Error("empty transport list accepted")
	}
	if _, err := NewBandPublisher(source, []Transport{&sig.MockTransport{}}, time.Millisecond, 0, 16000, 0); err == nil {
		t.Error("zero band count accepted")
	}
}
