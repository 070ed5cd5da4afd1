// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"waveviz/internal/config"
	"waveviz/pkg/build"
)

// Invocation is the parsed result of the command line: the merged
// configuration plus which mode to run in.
type Invocation struct {
	Config      *config.Config
	TUIMode     bool
	ExtractPath string
}

// ParseArgs parses the command line, loads the configuration file and applies
// any explicitly set flags on top of it.
func ParseArgs() (*Invocation, error) {
	buildInfo := build.GetBuildFlags()
	inv := &Invocation{}

	var (
		configPath      string
		deviceID        int
		channels        int
		sampleRate      float64
		framesPerBuffer int
		lowLatency      bool
		bands           int
		smoothing       float64
		record          bool
		outputFile      string
		verbose         bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time audio visualization and waveform analysis",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("device") {
				cfg.Audio.InputDevice = deviceID
			}
			if flags.Changed("channels") {
				cfg.Audio.Channels = channels
			}
			if flags.Changed("sample-rate") {
				cfg.Audio.SampleRate = sampleRate
			}
			if flags.Changed("frames-per-buffer") {
				cfg.Audio.FramesPerBuffer = framesPerBuffer
			}
			if flags.Changed("low-latency") {
				cfg.Audio.LowLatency = lowLatency
			}
			if flags.Changed("bands") {
				cfg.Visual.Bands = bands
			}
			if flags.Changed("smoothing") {
				cfg.Visual.Smoothing = smoothing
			}
			if flags.Changed("record") {
				cfg.Recording.Enabled = record
			}
			if flags.Changed("output") {
				cfg.Recording.OutputFile = outputFile
			}
			if verbose {
				cfg.LogLevel = "debug"
			}
			if cfg.Recording.Enabled && cfg.Recording.OutputFile == "" {
				cfg.Recording.OutputFile = "recording-" +
					time.Now().UTC().Format("02-01-2006-150405") + ".wav"
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			inv.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inv.TUIMode = true
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			inv.Config.Command = "list"
		},
	}
	rootCmd.AddCommand(listCmd)

	extractCmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract the peak envelope of an audio file into the waveform cache",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			inv.Config.Command = "extract"
			inv.ExtractPath = args[0]
		},
	}
	rootCmd.AddCommand(extractCmd)

	// Audio Device Configuration
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML configuration file")
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", config.MinDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&channels, "channels", "c", 2,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", 44100,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&framesPerBuffer, "frames-per-buffer", "b", 1024,
		"The number of frames per buffer (affects latency and FFT resolution)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")

	// Visualization Configuration
	rootCmd.PersistentFlags().IntVar(&bands, "bands", 20,
		"Number of log-spaced frequency bands")
	rootCmd.PersistentFlags().Float64Var(&smoothing, "smoothing", 0.7,
		"Band smoothing factor in [0, 1)")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", false,
		"Record audio from the specified input device")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return inv, nil
}
