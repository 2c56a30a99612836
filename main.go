package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/cwsl/camsync/barcode"
)

const Version = "v1.0.0"

func usage() {
	fmt.Fprintf(os.Stderr, `camsync %s - temporal barcode sync for multi-camera recordings

Usage:
  camsync generate -n CYCLES -o FILE [--seed S] [-c config.yaml]
  camsync decode [-c config.yaml] [--fs HZ] [--workers N] [-o DIR] [FILE...]
  camsync frames --result R.json --frames META.csv [--time-column C] [-o OUT.csv]
  camsync version

Run "camsync COMMAND --help" for command options.
`, Version)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "frames":
		err = runFrames(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("camsync %s\n", Version)
		return
	case "help", "--help", "-h":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "camsync: %v\n", err)
		os.Exit(1)
	}
}

// loadConfigOrDefault loads path, or returns defaults when no path was given
func loadConfigOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// runGenerate writes a synthetic barcode fixture
func runGenerate(args []string) error {
	fs := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	cycles := fs.IntP("cycles", "n", 10, "Number of barcode cycles to generate")
	output := fs.StringP("output", "o", "", "Output CSV file (.gz or .zst to compress)")
	seed := fs.Uint64("seed", 0, "Random seed for reproducible codes (0 = random)")
	configFile := fs.StringP("config", "c", "", "Configuration file (protocol section is used)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *output == "" {
		return fmt.Errorf("generate: --output is required")
	}
	if *cycles < 0 {
		return fmt.Errorf("generate: --cycles must not be negative")
	}

	config, err := loadConfigOrDefault(*configFile)
	if err != nil {
		return err
	}
	if err := config.Protocol.Params.Validate(); err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	var rng *rand.Rand
	if *seed != 0 {
		rng = rand.New(rand.NewPCG(*seed, *seed))
	}
	enc := barcode.NewEncoder(config.Protocol.Params, rng)
	sig := enc.Generate(*cycles)

	w, path, err := createOutput(*output, compressionForPath(*output))
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := barcode.WriteFixture(w, sig); err != nil {
		w.Close()
		return fmt.Errorf("generate: failed to write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("generate: failed to close %s: %w", path, err)
	}

	fmt.Printf("Wrote %d cycle(s), %d samples to %s\n", *cycles, len(sig.Samples), path)
	for i, code := range sig.Codes {
		fmt.Printf("  cycle %d: start %.3fs code %d\n", i, enc.CycleStartTime(i), code)
	}
	return nil
}

// runDecode decodes the configured channels and any files named on the command line
func runDecode(args []string) error {
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "Configuration file")
	rate := fs.Float64("fs", 0, "Known uniform sample rate in Hz (0 = estimate)")
	workers := fs.IntP("workers", "j", 0, "Channels decoded in parallel (overrides config)")
	outputDir := fs.StringP("output", "o", "", "Output directory (overrides config)")
	compression := fs.String("compression", "", "Output compression: none, gzip, zstd (overrides config)")
	timeColumn := fs.String("time-column", "time", "Timestamp column for files given as arguments")
	stateColumn := fs.String("state-column", "state", "State column for files given as arguments")
	timeScale := fs.Float64("time-scale", 1, "Multiplier to seconds for files given as arguments (0.001 for fixtures)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	config, err := loadConfigOrDefault(*configFile)
	if err != nil {
		return err
	}

	if fs.Changed("fs") {
		config.Protocol.SampleRate = *rate
	}
	if *workers > 0 {
		config.Decode.Workers = *workers
	}
	if *outputDir != "" {
		config.Decode.OutputDir = *outputDir
	}
	if *compression != "" {
		config.Decode.Compression = Compression(*compression)
	}
	if *logLevel != "" {
		config.Logging.Level = *logLevel
	}
	config.Channels = append(config.Channels, channelsFromFiles(fs.Args(), ChannelConfig{
		TimeColumn:  *timeColumn,
		StateColumn: *stateColumn,
		TimeScale:   *timeScale,
	})...)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(config.Channels) == 0 {
		return fmt.Errorf("no channels to decode (add channels to the config or name files)")
	}

	logger, err := newLogger(config.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := NewDecodeMetrics()

	var publisher resultPublisher
	var mqttPublisher *MQTTPublisher
	if config.MQTT.Enabled {
		mqttPublisher, err = NewMQTTPublisher(&config.MQTT, logger)
		if err != nil {
			logger.Errorw("MQTT publishing disabled", "error", err)
		} else {
			publisher = mqttPublisher
			defer mqttPublisher.Disconnect()
		}
	}

	runner, err := NewDecodeRunner(config, logger, metrics, publisher)
	if err != nil {
		return err
	}

	outcomes, runErr := runner.Run(ctx, config.Channels)

	if err := writeSummary(os.Stdout, runner.RunID(), outcomes); err != nil {
		logger.Errorw("failed to print summary", "error", err)
	}

	if config.Prometheus.Enabled && config.Prometheus.Pushgateway.Enabled {
		if err := metrics.PushToGateway(config.Prometheus.Pushgateway, runner.RunID()); err != nil {
			logger.Errorw("Pushgateway push failed", "error", err)
		} else {
			logger.Infow("metrics pushed", "url", config.Prometheus.Pushgateway.URL, "job", config.Prometheus.Pushgateway.Job)
		}
	}
	if publisher != nil {
		mqttPublisher.PublishMetrics(runner.RunID(), metrics.Gatherer())
	}

	if runErr != nil {
		return runErr
	}
	failed := 0
	for _, o := range outcomes {
		if o.Status != statusOK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d channel(s) failed", failed, len(outcomes))
	}
	return nil
}

// runFrames maps decoded codes onto a camera's frame timestamps
func runFrames(args []string) error {
	fs := pflag.NewFlagSet("frames", pflag.ContinueOnError)
	resultPath := fs.String("result", "", "Result file written by decode (<channel>.result.json)")
	framesPath := fs.String("frames", "", "Camera frame metadata CSV")
	timeColumn := fs.String("time-column", "time", "Frame timestamp column")
	timeScale := fs.Float64("time-scale", 1, "Multiplier converting frame timestamps to seconds")
	output := fs.StringP("output", "o", "", "Output CSV (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *resultPath == "" || *framesPath == "" {
		return fmt.Errorf("frames: --result and --frames are required")
	}
	if *timeScale <= 0 {
		return fmt.Errorf("frames: --time-scale must be positive")
	}

	mapped, err := mapFrameFiles(*resultPath, *framesPath, *timeColumn, *timeScale)
	if err != nil {
		return fmt.Errorf("frames: %w", err)
	}

	if *output == "" {
		return writeFramesCSV(os.Stdout, mapped)
	}
	path, err := writeCSVFile(*output, compressionForPath(*output), func(w io.Writer) error {
		return writeFramesCSV(w, mapped)
	})
	if err != nil {
		return fmt.Errorf("frames: %w", err)
	}
	fmt.Printf("Mapped %d code(s) to frames in %s\n", len(mapped), path)
	return nil
}
