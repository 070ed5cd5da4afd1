// SPDX-License-Identifier: MIT

// Package transport publishes banded analysis frames to external consumers.
package transport

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// BandFrame is one published snapshot of the smoothed band values.
type BandFrame struct {
	Sequence  uint32    `json:"seq"`
	Timestamp int64     `json:"ts"` // Nanoseconds since epoch.
	Values    []float64 `json:"bands"`
}

// SpectralSource provides frequency-domain snapshots for publishing.
// Implemented by the analyzer.
type SpectralSource interface {
	FrequencyDomainInto(dst []float64) error
	BinCount() int
	SampleRate() float64
}
