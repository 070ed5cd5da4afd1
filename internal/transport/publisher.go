// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	"waveviz/internal/dsp"
	applog "waveviz/internal/log"
)

// BandPublisher periodically snapshots the frequency domain, folds it into
// smoothed bands and fans the resulting BandFrame out to every configured
// transport. It runs in a separate goroutine managed by Start and Stop.
type BandPublisher struct {
	source     SpectralSource
	transports []Transport
	interval   time.Duration
	smoothing  float64

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32

	// Pre-allocated buffers for the per-tick path.
	freqBuffer []float64
	bands      dsp.BandSet
	smoothed   []float64
}

// NewBandPublisher creates a publisher folding the source's spectrum into
// bandCount bands up to maxFrequency. An interval <= 0 defaults to 33ms
// (~30Hz).
func NewBandPublisher(source SpectralSource, transports []Transport, interval time.Duration, bandCount int, maxFrequency, smoothing float64) (*BandPublisher, error) {
	if source == nil {
		return nil, fmt.Errorf("BandPublisher: spectral source cannot be nil")
	}
	if len(transports) == 0 {
		return nil, fmt.Errorf("BandPublisher: at least one transport is required")
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("BandPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	bands, err := dsp.ComputeBands(source.BinCount(), bandCount, source.SampleRate(), maxFrequency)
	if err != nil {
		return nil, fmt.Errorf("BandPublisher: %w", err)
	}

	applog.Infof("BandPublisher: Initializing (Interval: %s, Bands: %d)", interval, bandCount)

	return &BandPublisher{
		source:     source,
		transports: transports,
		interval:   interval,
		smoothing:  smoothing,
		freqBuffer: make([]float64, source.BinCount()),
		bands:      bands,
		smoothed:   make([]float64, bandCount),
	}, nil
}

// Start begins periodic publishing. Safe to call multiple times; subsequent
// calls are no-ops while running.
func (p *BandPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("BandPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture locals so the goroutine never races Start/Stop on the fields.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("BandPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishFrame()
			case <-doneChan:
				applog.Debugf("BandPublisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it. Safe to
// call multiple times.
func (p *BandPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("BandPublisher: Publisher goroutine finished.")
	return nil
}

// publishFrame snapshots the spectrum, folds it into bands and fans the frame
// out. A source without data yet simply skips the tick.
func (p *BandPublisher) publishFrame() {
	if err := p.source.FrequencyDomainInto(p.freqBuffer); err != nil {
		applog.Debugf("BandPublisher: no frame available: %v", err)
		return
	}

	dsp.UpdateBands(p.freqBuffer, p.bands, p.smoothed, p.smoothing)

	p.sequenceNum++
	frame := &BandFrame{
		Sequence:  p.sequenceNum,
		Timestamp: time.Now().UnixNano(),
		// Transports may queue the frame, so hand each its own copy of
		// the values rather than the reused smoothing buffer.
		Values: append([]float64(nil), p.smoothed...),
	}

	for _, t := range p.transports {
		if err := t.Send(frame); err != nil {
			applog.Warnf("BandPublisher: transport send failed: %v", err)
		}
	}
}

// Close implements io.Closer; it stops the publisher goroutine.
func (p *BandPublisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*BandPublisher)(nil)
