// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"waveviz/pkg/bitint"
)

// MinDeviceID selects the system default input device.
const MinDeviceID = -1

// Config is the main application configuration, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	Command   string          `yaml:"command,omitempty"` // One-off command instead of the visualizer (e.g. "list").
	Audio     AudioConfig     `yaml:"audio"`             // Capture settings.
	Visual    VisualConfig    `yaml:"visual"`            // Rendering and banding settings.
	Waveform  WaveformConfig  `yaml:"waveform"`          // Peak-envelope extraction settings.
	Recording RecordingConfig `yaml:"recording"`         // Input recording settings.
	Transport TransportConfig `yaml:"transport"`         // Band-frame publishing settings.
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per capture block; also the FFT size.
	Channels        int     `yaml:"channels"`          // Input channels to capture (1 mono, 2 stereo).
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low-latency setting.
	Window          string  `yaml:"window"`            // Window function for spectral analysis.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Peak amplitude [0,1] below which analysis is skipped.
}

// VisualConfig holds banding and renderer settings.
type VisualConfig struct {
	Bands        int     `yaml:"bands"`          // Number of log-spaced frequency bands.
	Smoothing    float64 `yaml:"smoothing"`      // Band smoothing factor [0,1); higher is smoother.
	CapFallSpeed float64 `yaml:"cap_fall_speed"` // Per-frame peak-cap decay multiplier (0,1].
	MaxFrequency float64 `yaml:"max_frequency"`  // Upper edge of the banded range in Hz.
	RefreshRate  float64 `yaml:"refresh_rate"`   // Frame loop rate in Hz.
	Sensitivity  float64 `yaml:"sensitivity"`    // Oscilloscope vertical gain.
}

// WaveformConfig holds peak-envelope extraction settings.
type WaveformConfig struct {
	TargetPoints int    `yaml:"target_points"` // Envelope resolution.
	CacheDir     string `yaml:"cache_dir"`     // Durable envelope cache directory; empty disables tier 2.
}

// RecordingConfig holds input recording settings.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record the input stream to WAV.
	OutputFile string `yaml:"output_file"` // Target file; empty picks a timestamped name.
}

// TransportConfig holds band-frame publishing settings.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"` // Serve band frames over WebSocket.
	WebSocketAddr    string        `yaml:"websocket_addr"`    // WebSocket listen address (e.g. ":8080").
	UDPEnabled       bool          `yaml:"udp_enabled"`       // Send binary band frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // UDP target (e.g. "127.0.0.1:9090").
	SendInterval     time.Duration `yaml:"send_interval"`     // Interval between published frames.
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			SampleRate:      44100,
			FramesPerBuffer: 1024,
			Channels:        2,
			LowLatency:      false,
			Window:          "Hann",
			GateThreshold:   0.001,
		},
		Visual: VisualConfig{
			Bands:        20,
			Smoothing:    0.7,
			CapFallSpeed: 0.94,
			MaxFrequency: 16000,
			RefreshRate:  60,
			Sensitivity:  1.0,
		},
		Waveform: WaveformConfig{
			TargetPoints: 1000,
			CacheDir:     "./waveforms",
		},
		Recording: RecordingConfig{
			Enabled:    false,
			OutputFile: "",
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			SendInterval:     33 * time.Millisecond,
		},
	}
}

// LoadConfig loads configuration from a YAML file at path. If path is empty it
// searches default locations; if no file is found the built-in defaults are
// used. Environment overrides apply after the file, then the result is
// validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"waveviz.yaml", "config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %v", c.Audio.SampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) {
		return fmt.Errorf("audio.frames_per_buffer must be a power of two, got %d", c.Audio.FramesPerBuffer)
	}
	if c.Audio.Channels < 1 {
		return fmt.Errorf("audio.channels must be at least 1, got %d", c.Audio.Channels)
	}
	if c.Visual.Bands < 1 {
		return fmt.Errorf("visual.bands must be at least 1, got %d", c.Visual.Bands)
	}
	if c.Visual.Smoothing < 0 || c.Visual.Smoothing >= 1 {
		return fmt.Errorf("visual.smoothing must be in [0, 1), got %v", c.Visual.Smoothing)
	}
	if c.Visual.CapFallSpeed <= 0 || c.Visual.CapFallSpeed > 1 {
		return fmt.Errorf("visual.cap_fall_speed must be in (0, 1], got %v", c.Visual.CapFallSpeed)
	}
	if c.Visual.MaxFrequency <= 20 {
		return fmt.Errorf("visual.max_frequency must exceed 20 Hz, got %v", c.Visual.MaxFrequency)
	}
	if nyquist := c.Audio.SampleRate / 2; c.Visual.MaxFrequency > nyquist {
		return fmt.Errorf("visual.max_frequency %v exceeds the Nyquist limit %v", c.Visual.MaxFrequency, nyquist)
	}
	if c.Waveform.TargetPoints < 1 {
		return fmt.Errorf("waveform.target_points must be at least 1, got %d", c.Waveform.TargetPoints)
	}
	if c.Transport.UDPEnabled && c.Transport.UDPTargetAddress == "" {
		return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
	}
	if (c.Transport.UDPEnabled || c.Transport.WebSocketEnabled) && c.Transport.SendInterval <= 0 {
		return fmt.Errorf("transport.send_interval must be positive when publishing is enabled")
	}
	return nil
}

// applyEnvOverrides applies WAVEVIZ_* environment variables on top of the
// loaded configuration.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("WAVEVIZ_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("WAVEVIZ_CACHE_DIR"); ok {
		c.Waveform.CacheDir = val
	}
	if val, ok := os.LookupEnv("WAVEVIZ_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WebSocketEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("WAVEVIZ_WS_ADDR"); ok {
		c.Transport.WebSocketAddr = val
	}
	if val, ok := os.LookupEnv("WAVEVIZ_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("WAVEVIZ_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("WAVEVIZ_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.SendInterval = dur
		}
	}
}
