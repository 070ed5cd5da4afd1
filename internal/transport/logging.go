// SPDX-License-Identifier: MIT
package transport

import (
	applog "waveviz/internal/log"
)

// LoggingTransport implements the Transport interface by logging frames, for
// wiring checks without a network consumer.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data at debug level.
func (lt *LoggingTransport) Send(data any) error {
	if frame, ok := data.(*BandFrame); ok {
		applog.Debugf("LoggingTransport: frame %d (%d bands)", frame.Sequence, len(frame.Values))
		return nil
	}
	applog.Debugf("LoggingTransport: received %T", data)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
