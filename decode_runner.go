package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cwsl/camsync/barcode"
)

const (
	statusOK         = "ok"
	statusInputError = "input_error"
	statusIOError    = "io_error"
)

// resultPublisher receives each successful channel result
type resultPublisher interface {
	PublishResult(runID, channel string, res *barcode.Result)
}

// ChannelOutcome is what happened to one channel in a run
type ChannelOutcome struct {
	Channel    string
	Source     string
	Status     string
	Result     *barcode.Result // nil unless Status is ok
	Err        error
	CodesPath  string
	ResultPath string
	Elapsed    time.Duration
}

// DecodeRunner decodes a batch of channels with a bounded worker pool
type DecodeRunner struct {
	config    *Config
	decoder   *barcode.Decoder
	logger    *zap.SugaredLogger
	metrics   *DecodeMetrics
	publisher resultPublisher
	runID     string
}

// NewDecodeRunner prepares a run; metrics and publisher may be nil
func NewDecodeRunner(config *Config, logger *zap.SugaredLogger, metrics *DecodeMetrics, publisher resultPublisher) (*DecodeRunner, error) {
	decoder, err := barcode.NewDecoder(config.Protocol.Params)
	if err != nil {
		return nil, fmt.Errorf("invalid protocol: %w", err)
	}
	return &DecodeRunner{
		config:    config,
		decoder:   decoder,
		logger:    logger,
		metrics:   metrics,
		publisher: publisher,
		runID:     uuid.NewString(),
	}, nil
}

// RunID identifies this run in output files, metrics and MQTT messages
func (r *DecodeRunner) RunID() string {
	return r.runID
}

// Run decodes every channel. A channel that fails is reported in its outcome
// and does not stop the others; only cancellation of ctx aborts the run.
func (r *DecodeRunner) Run(ctx context.Context, channels []ChannelConfig) ([]ChannelOutcome, error) {
	if err := os.MkdirAll(r.config.Decode.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	r.logger.Infow("decode run started",
		"run_id", r.runID,
		"channels", len(channels),
		"workers", r.config.Decode.Workers,
		"protocol", r.decoder.Params().String())

	outcomes := make([]ChannelOutcome, len(channels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Decode.Workers)

	for i, ch := range channels {
		outcomes[i] = ChannelOutcome{Channel: ch.Name, Source: ch.Path}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.decodeChannel(ch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, fmt.Errorf("decode run interrupted: %w", err)
	}
	return outcomes, nil
}

// decodeChannel reads, decodes and writes one channel
func (r *DecodeRunner) decodeChannel(ch ChannelConfig) ChannelOutcome {
	start := time.Now()
	outcome := ChannelOutcome{Channel: ch.Name, Source: ch.Path}
	log := r.logger.With("run_id", r.runID, "channel", ch.Name)

	res, err := r.readAndDecode(ch)
	outcome.Elapsed = time.Since(start)
	if err != nil {
		outcome.Err = err
		outcome.Status = statusIOError
		if errors.Is(err, barcode.ErrInput) {
			outcome.Status = statusInputError
		}
		r.metrics.RecordFailure(ch.Name, outcome.Status)
		log.Errorw("channel failed", "status", outcome.Status, "error", err)
		return outcome
	}

	for _, d := range res.Diagnostics {
		log.Warnw("decode diagnostic",
			"kind", d.Kind.String(),
			"reason", d.Reason,
			"start_time", d.StartTime,
			"end_time", d.EndTime)
	}

	compression := r.config.Decode.Compression
	base := filepath.Join(r.config.Decode.OutputDir, ch.Name)

	outcome.CodesPath, err = writeCSVFile(base+".codes.csv", compression, func(w io.Writer) error {
		return writeCodesCSV(w, res.Codes)
	})
	if err == nil {
		outcome.ResultPath, err = writeResultFile(base+".result.json", compression, newResultFile(r.runID, ch.Name, ch.Path, res))
	}
	if err != nil {
		outcome.Err = err
		outcome.Status = statusIOError
		r.metrics.RecordFailure(ch.Name, outcome.Status)
		log.Errorw("failed to write outputs", "error", err)
		return outcome
	}

	outcome.Status = statusOK
	outcome.Result = res
	r.metrics.RecordResult(ch.Name, res, outcome.Elapsed)
	if r.publisher != nil {
		r.publisher.PublishResult(r.runID, ch.Name, res)
	}

	log.Infow("channel decoded",
		"codes", len(res.Codes),
		"diagnostics", len(res.Diagnostics),
		"matches", res.Matches,
		"sample_rate", res.SampleRate,
		"elapsed", outcome.Elapsed)
	return outcome
}

func (r *DecodeRunner) readAndDecode(ch ChannelConfig) (*barcode.Result, error) {
	f, err := openInput(ch.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer f.Close()

	samples, err := barcode.ReadChannel(f, barcode.ChannelFormat{
		TimeColumn:  ch.TimeColumn,
		StateColumn: ch.StateColumn,
		TimeScale:   ch.TimeScale,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ch.Path, err)
	}

	res, err := r.decoder.Decode(samples, r.config.EffectiveSampleRate(ch))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ch.Path, err)
	}
	return res, nil
}

// channelName derives a channel name from a file path: cam1.csv.gz -> cam1
func channelName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".zstd"} {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// channelsFromFiles builds channel configs for files named on the command line
func channelsFromFiles(paths []string, template ChannelConfig) []ChannelConfig {
	channels := make([]ChannelConfig, 0, len(paths))
	for _, p := range paths {
		ch := template
		ch.Name = channelName(p)
		ch.Path = p
		channels = append(channels, ch)
	}
	return channels
}
