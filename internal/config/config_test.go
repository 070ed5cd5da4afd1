// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Audio.FramesPerBuffer != 1024 {
		t.Errorf("default frames_per_buffer = %d, want 1024", cfg.Audio.FramesPerBuffer)
	}
	if cfg.Visual.Bands != 20 {
		t.Errorf("default bands = %d, want 20", cfg.Visual.Bands)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
audio:
  frames_per_buffer: 2048
visual:
  bands: 32
  smoothing: 0.5
transport:
  udp_enabled: true
  udp_target_address: "10.0.0.1:9999"
  send_interval: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
	if cfg.Audio.FramesPerBuffer != 2048 {
		t.Errorf("frames_per_buffer = %d, want 2048", cfg.Audio.FramesPerBuffer)
	}
	if cfg.Visual.Bands != 32 || cfg.Visual.Smoothing != 0.5 {
		t.Errorf("visual = %+v, want bands 32 smoothing 0.5", cfg.Visual)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.1:9999" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
	if cfg.Transport.SendInterval != 50*time.Millisecond {
		t.Errorf("send_interval = %v, want 50ms", cfg.Transport.SendInterval)
	}
	// Untouched sections keep their defaults.
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("sample_rate = %v, want default 44100", cfg.Audio.SampleRate)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("WAVEVIZ_UDP_ENABLED", "true")
	t.Setenv("WAVEVIZ_UDP_TARGET_ADDRESS", "192.168.1.5:7777")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Transport.UDPEnabled {
		t.Error("env override for udp_enabled not applied")
	}
	if cfg.Transport.UDPTargetAddress != "192.168.1.5:7777" {
		t.Errorf("udp_target_address = %q", cfg.Transport.UDPTargetAddress)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"non power-of-two buffer", func(c *Config) { c.Audio.FramesPerBuffer = 1000 }},
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"zero bands", func(c *Config) { c.Visual.Bands = 0 }},
		{"smoothing of one", func(c *Config) { c.Visual.Smoothing = 1.0 }},
		{"cap fall above one", func(c *Config) { c.Visual.CapFallSpeed = 1.5 }},
		{"max frequency above nyquist", func(c *Config) { c.Visual.MaxFrequency = 40000 }},
		{"udp without target", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = ""
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
