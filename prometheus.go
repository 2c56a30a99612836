package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/cwsl/camsync/barcode"
)

// DecodeMetrics holds the Prometheus collectors for a decode run
type DecodeMetrics struct {
	registry *prometheus.Registry

	// Per-channel outcome metrics (all with 'channel' label)
	channelsDecoded *prometheus.CounterVec   // Channels processed, by status (ok, input_error, io_error)
	codesDecoded    *prometheus.CounterVec   // Successfully decoded cycles
	diagnostics     *prometheus.CounterVec   // Diagnostics, by kind
	markerMatches   *prometheus.GaugeVec     // Raw template matches in the last decode
	sampleRate      *prometheus.GaugeVec     // Grid rate the channel was decoded at
	decodeDuration  *prometheus.HistogramVec // Wall time of read + decode per channel
	lastDecodeTime  *prometheus.GaugeVec     // Unix timestamp of the last completed decode

	// Pushgateway metrics
	pushgatewayPushesTotal   prometheus.Counter
	pushgatewayFailuresTotal prometheus.Counter
}

// NewDecodeMetrics creates the metric collectors on a private registry
func NewDecodeMetrics() *DecodeMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &DecodeMetrics{
		registry: registry,
		channelsDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camsync_channels_decoded_total",
				Help: "Channels processed by status",
			},
			[]string{"channel", "status"},
		),
		codesDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camsync_codes_decoded_total",
				Help: "Barcode cycles decoded",
			},
			[]string{"channel"},
		),
		diagnostics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camsync_diagnostics_total",
				Help: "Skipped intervals reported by the decoder, by kind",
			},
			[]string{"channel", "kind"},
		),
		markerMatches: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "camsync_marker_matches",
				Help: "Raw frame marker template matches in the last decode",
			},
			[]string{"channel"},
		),
		sampleRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "camsync_sample_rate_hz",
				Help: "Sample rate the channel was decoded at",
			},
			[]string{"channel"},
		),
		decodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "camsync_decode_duration_seconds",
				Help:    "Time spent reading and decoding a channel",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"channel"},
		),
		lastDecodeTime: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "camsync_last_decode_timestamp_seconds",
				Help: "Unix timestamp of the last completed decode",
			},
			[]string{"channel"},
		),
		pushgatewayPushesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "camsync_pushgateway_pushes_total",
				Help: "Total number of push attempts to Pushgateway",
			},
		),
		pushgatewayFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "camsync_pushgateway_failures_total",
				Help: "Total number of failed pushes to Pushgateway",
			},
		),
	}
}

// Gatherer exposes the registry for pushing and MQTT snapshots
func (dm *DecodeMetrics) Gatherer() prometheus.Gatherer {
	if dm == nil {
		return prometheus.NewRegistry()
	}
	return dm.registry
}

// RecordResult records a successful channel decode
func (dm *DecodeMetrics) RecordResult(channel string, res *barcode.Result, elapsed time.Duration) {
	if dm == nil {
		return
	}
	dm.channelsDecoded.WithLabelValues(channel, "ok").Inc()
	dm.codesDecoded.WithLabelValues(channel).Add(float64(len(res.Codes)))
	for _, kind := range []barcode.DiagnosticKind{barcode.UnpairedMarker, barcode.MalformedInterval, barcode.CycleGap} {
		dm.diagnostics.WithLabelValues(channel, kind.String()).Add(float64(res.CountDiagnostics(kind)))
	}
	dm.markerMatches.WithLabelValues(channel).Set(float64(res.Matches))
	dm.sampleRate.WithLabelValues(channel).Set(res.SampleRate)
	dm.decodeDuration.WithLabelValues(channel).Observe(elapsed.Seconds())
	dm.lastDecodeTime.WithLabelValues(channel).Set(float64(time.Now().Unix()))
}

// RecordFailure records a channel that could not be decoded
func (dm *DecodeMetrics) RecordFailure(channel, status string) {
	if dm == nil {
		return
	}
	dm.channelsDecoded.WithLabelValues(channel, status).Inc()
}

// PushToGateway pushes the run's metrics, grouped by run ID
func (dm *DecodeMetrics) PushToGateway(config PushgatewayConfig, runID string) error {
	if dm == nil {
		return fmt.Errorf("prometheus metrics not initialized")
	}

	dm.pushgatewayPushesTotal.Inc()

	pusher := push.New(config.URL, config.Job).
		Gatherer(dm.registry).
		Grouping("run_id", runID)

	if config.Username != "" {
		pusher = pusher.BasicAuth(config.Username, config.Password)
	}
	if config.Instance != "" {
		pusher = pusher.Grouping("instance", config.Instance)
	}

	if err := pusher.Push(); err != nil {
		dm.pushgatewayFailuresTotal.Inc()
		return fmt.Errorf("failed to push to %s: %w", config.URL, err)
	}
	return nil
}
