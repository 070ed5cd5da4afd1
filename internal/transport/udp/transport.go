// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"waveviz/internal/transport"
)

/*
UDP Packet Structure (BigEndian)

+---------------------------------------------------------------------------+
| Field           | Data Type      | Size (Bytes) | Description             |
|-----------------|----------------|--------------|-------------------------|
| Sequence Number | uint32         | 4            | Monotonically increasing|
| Timestamp       | int64          | 8            | Nanoseconds since epoch |
| Band Count      | uint16         | 2            | Number of floats (N)    |
| Band Values     | []float32      | N * 4        | Smoothed band values    |
+---------------------------------------------------------------------------+
*/

// Transport packs band frames into the binary packet layout above and sends
// them through a Sender. It implements transport.Transport.
type Transport struct {
	sender *Sender

	mu           sync.Mutex // Serializes access to the reusable buffers.
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewTransport creates a UDP transport targeting targetAddress.
func NewTransport(targetAddress string) (*Transport, error) {
	sender, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Transport{
		sender:       sender,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send packs a *transport.BandFrame and transmits it. Other payload types are
// rejected.
func (t *Transport) Send(data any) error {
	frame, ok := data.(*transport.BandFrame)
	if !ok {
		return fmt.Errorf("udp: unsupported payload type %T", data)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if cap(t.f32Buffer) < len(frame.Values) {
		t.f32Buffer = make([]float32, len(frame.Values))
	}
	t.f32Buffer = t.f32Buffer[:len(frame.Values)]
	for i, v := range frame.Values {
		t.f32Buffer[i] = float32(v)
	}

	t.packetBuffer.Reset()

	err := binary.Write(t.packetBuffer, binary.BigEndian, frame.Sequence)
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, frame.Timestamp)
	}
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, uint16(len(t.f32Buffer)))
	}
	if err == nil {
		err = binary.Write(t.packetBuffer, binary.BigEndian, t.f32Buffer)
	}
	if err != nil {
		return fmt.Errorf("udp: error packing band frame: %w", err)
	}

	return t.sender.Send(t.packetBuffer.Bytes())
}

// Close closes the underlying sender.
func (t *Transport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*Transport)(nil)
