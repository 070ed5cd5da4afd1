// SPDX-License-Identifier: MIT

// Package decode turns an encoded audio file into mono float64 samples
// in [-1, 1] plus a sample rate. It is the decode collaborator consumed
// by the waveform extractor; everything downstream sees decoded sample
// buffers only.
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/go-audio/wav"

	applog "waveviz/internal/log"
)

// ErrDecodeFailed wraps every fetch/codec failure so callers can match
// the whole class with errors.Is and fall back to a synthetic envelope.
var ErrDecodeFailed = errors.New("decode: failed to decode audio source")

// ErrUnsupportedFormat is returned for file extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("decode: unsupported audio format")

// Decoded holds the result of a one-shot file decode.
type Decoded struct {
	Samples    []float64 // mono, [-1, 1]
	SampleRate int
}

// File decodes an audio file by extension: .wav, .mp3, .ogg.
// Multi-channel sources are mixed down to mono by averaging.
func File(path string) (*Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	case ".ogg", ".oga":
		return decodeVorbis(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func decodeWAV(f *os.File) (*Decoded, error) {
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: empty wav data", ErrDecodeFailed)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := 1.0
	if dec.BitDepth > 0 {
		scale = 1.0 / float64(int64(1)<<(dec.BitDepth-1))
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += float64(buf.Data[i*channels+ch]) * scale
		}
		samples[i] = clampUnit(sum / float64(channels))
	}

	applog.Debugf("Decode: WAV %d frames @ %d Hz (%d ch)", frames, buf.Format.SampleRate, channels)
	return &Decoded{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

func decodeMP3(r io.Reader) (*Decoded, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	// go-mp3 always outputs 16-bit little-endian stereo PCM.
	const frameBytes = 4
	var samples []float64
	buf := make([]byte, 8192)
	for {
		n, err := dec.Read(buf)
		for i := 0; i+frameBytes <= n; i += frameBytes {
			left := int16(binary.LittleEndian.Uint16(buf[i:]))
			right := int16(binary.LittleEndian.Uint16(buf[i+2:]))
			samples = append(samples, (float64(left)+float64(right))/(2*32768.0))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
	}

	applog.Debugf("Decode: MP3 %d frames @ %d Hz", len(samples), dec.SampleRate())
	return &Decoded{Samples: samples, SampleRate: dec.SampleRate()}, nil
}

func decodeVorbis(r io.Reader) (*Decoded, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	channels := format.Channels
	if channels < 1 {
		channels = 1
	}
	frames := len(data) / channels
	samples := make([]float64, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += float64(data[i*channels+ch])
		}
		samples[i] = clampUnit(sum / float64(channels))
	}

	applog.Debugf("Decode: Vorbis %d frames @ %d Hz (%d ch)", frames, format.SampleRate, channels)
	return &Decoded{Samples: samples, SampleRate: format.SampleRate}, nil
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
