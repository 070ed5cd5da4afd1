// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"waveviz/cmd"
	"waveviz/internal/analysis"
	"waveviz/internal/audio"
	"waveviz/internal/config"
	"waveviz/internal/decode"
	"waveviz/internal/lifecycle"
	applog "waveviz/internal/log"
	"waveviz/internal/render"
	"waveviz/internal/transport"
	"waveviz/internal/transport/udp"
	"waveviz/internal/tui"
	"waveviz/internal/waveform"
	"waveviz/pkg/build"
)

// main is the entry point. The program flow is divided into three phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the capture engine through the lifecycle coordinator
//   - Attach renderers to the frame scheduler
//   - Start band publishing and recording if enabled
//   - Run the terminal spectrum view
//
// 3. Shutdown Phase (Cold Path):
//   - Stop recording if active
//   - Drain the scheduler and close resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	// One thread for the audio callback, one for UI and I/O.
	runtime.GOMAXPROCS(2)

	inv, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if inv.Config == nil {
		// Help or version output already handled.
		return
	}
	cfg := inv.Config

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	switch cfg.Command {
	case "list":
		if err := runList(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	case "extract":
		if err := runExtract(cfg, inv.ExtractPath); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	if !inv.TUIMode {
		return
	}

	if err := runVisualizer(cfg); err != nil {
		applog.Fatalf("%v", err)
	}
}

func runList() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.ListDevices()
}

// runExtract decodes an audio file, extracts its peak envelope and stores it
// in the waveform cache. Decode failure degrades to a synthetic envelope and
// still exits cleanly: envelope extraction never blocks anything.
func runExtract(cfg *config.Config, path string) error {
	var store waveform.KeyValueStore
	if cfg.Waveform.CacheDir != "" {
		fileStore, err := waveform.NewFileStore(cfg.Waveform.CacheDir)
		if err != nil {
			applog.Warnf("Extract: cache directory unavailable, memory tier only: %v", err)
		} else {
			store = fileStore
		}
	}

	manager := waveform.NewManager(waveform.NewCache(store), cfg.Waveform.TargetPoints)
	envelope, err := manager.Ensure(context.Background(), path, func(ctx context.Context) ([]float64, error) {
		decoded, err := decode.File(path)
		if err != nil {
			return nil, err
		}
		return decoded.Samples, nil
	})
	if err != nil {
		applog.Warnf("Extract: decode failed, synthetic envelope substituted: %v", err)
	}

	peak := 0.0
	for _, v := range envelope {
		if v > peak {
			peak = v
		}
	}
	fmt.Printf("Envelope for %s\n", path)
	fmt.Printf("  Key:    %s\n", waveform.CacheKey(path))
	fmt.Printf("  Points: %d\n", len(envelope))
	fmt.Printf("  Peak:   %.3f\n", peak)
	return nil
}

func runVisualizer(cfg *config.Config) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	windowType, err := analysis.ParseWindowFunc(cfg.Audio.Window)
	if err != nil {
		return err
	}
	analyzer, err := analysis.New(cfg.Audio.FramesPerBuffer, cfg.Audio.SampleRate, windowType)
	if err != nil {
		return err
	}

	engine, err := audio.NewEngine(cfg, analyzer)
	if err != nil {
		return err
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	coordinator := lifecycle.NewCoordinator(engine)
	coordinator.Bind(lifecycle.AlwaysVisible{})
	if err := coordinator.Initialize(lifecycle.TriggerUserAction); err != nil {
		return err
	}
	coordinator.SetPlaying(true)
	defer engine.Close()

	if cfg.Recording.Enabled {
		if err := engine.StartRecording(cfg.Recording.OutputFile); err != nil {
			return err
		}
	}

	scheduler := render.NewScheduler(cfg.Visual.RefreshRate)
	defer scheduler.Close()

	scope := render.NewOscilloscope(analyzer, render.NewRaster(640, 200))
	scope.Sensitivity = cfg.Visual.Sensitivity
	bars := render.NewSpectrumBars(analyzer, render.NewRaster(640, 200), cfg.Visual.Bands)
	bars.MaxFrequency = cfg.Visual.MaxFrequency
	bars.Smoothing = cfg.Visual.Smoothing
	bars.CapFallSpeed = cfg.Visual.CapFallSpeed
	spectrogram := render.NewSpectrogram(analyzer, render.NewRaster(640, 200))

	scope.Attach(scheduler)
	bars.Attach(scheduler)
	spectrogram.Attach(scheduler)
	defer scope.Detach(scheduler)
	defer bars.Detach(scheduler)
	defer spectrogram.Detach(scheduler)

	var transports []transport.Transport
	if cfg.Transport.WebSocketEnabled {
		transports = append(transports, transport.NewWebSocketTransport(cfg.Transport.WebSocketAddr))
	}
	if cfg.Transport.UDPEnabled {
		udpTransport, err := udp.NewTransport(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		transports = append(transports, udpTransport)
	}
	if len(transports) > 0 {
		publisher, err := transport.NewBandPublisher(analyzer, transports,
			cfg.Transport.SendInterval, cfg.Visual.Bands, cfg.Visual.MaxFrequency, cfg.Visual.Smoothing)
		if err != nil {
			return err
		}
		publisher.Start()
		defer func() {
			publisher.Stop()
			for _, t := range transports {
				if err := t.Close(); err != nil {
					applog.Warnf("Shutdown: transport close: %v", err)
				}
			}
		}()
	}

	// Blocks until the user quits the spectrum view.
	err = tui.Run(analyzer, tui.Options{
		Bands:        cfg.Visual.Bands,
		MaxFrequency: cfg.Visual.MaxFrequency,
		Smoothing:    cfg.Visual.Smoothing,
		CapFallSpeed: cfg.Visual.CapFallSpeed,
		RefreshRate:  cfg.Visual.RefreshRate,
	})

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if cfg.Recording.Enabled {
		if stopErr := engine.StopRecording(); stopErr != nil {
			applog.Errorf("Shutdown: error stopping recording: %v", stopErr)
		} else {
			fmt.Fprintf(os.Stderr, "\nRecording saved to: %s\n", cfg.Recording.OutputFile)
		}
	}

	return err
}
