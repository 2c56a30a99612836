package main

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/cwsl/camsync/barcode"
)

// MQTTPublisher publishes decode results and metric snapshots
type MQTTPublisher struct {
	client mqtt.Client
	config *MQTTConfig
	logger *zap.SugaredLogger
}

// ResultPayload is the per-channel result message
type ResultPayload struct {
	RunID       string                `json:"run_id"`
	Channel     string                `json:"channel"`
	Timestamp   int64                 `json:"timestamp"`
	Codes       []barcode.DecodedCode `json:"codes"`
	Diagnostics []barcode.Diagnostic  `json:"diagnostics"`
	Values      []uint32              `json:"values"`
}

// MetricPayload represents a metric message for MQTT
type MetricPayload struct {
	RunID     string             `json:"run_id"`
	Timestamp int64              `json:"timestamp"`
	Metrics   map[string]float64 `json:"metrics"`
}

// generateClientID creates a random client ID for MQTT connection
func generateClientID() string {
	return "camsync_" + uuid.NewString()[:8]
}

// loadTLSConfig loads TLS configuration from files
func loadTLSConfig(tlsConfig MQTTTLSConfig) (*tls.Config, error) {
	if !tlsConfig.Enabled {
		return nil, nil
	}

	config := &tls.Config{}

	// Load CA certificate if provided
	if tlsConfig.CACert != "" {
		caCert, err := os.ReadFile(tlsConfig.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		config.RootCAs = caCertPool
	}

	// Load client certificate and key if provided
	if tlsConfig.ClientCert != "" && tlsConfig.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(tlsConfig.ClientCert, tlsConfig.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		config.Certificates = []tls.Certificate{cert}
	}

	return config, nil
}

// NewMQTTPublisher connects to the configured broker
func NewMQTTPublisher(config *MQTTConfig, logger *zap.SugaredLogger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(generateClientID())

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	if config.TLS.Enabled {
		tlsConfig, err := loadTLSConfig(config.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS config: %w", err)
		}
		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warnw("MQTT connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.Infow("MQTT connected", "broker", config.Broker)

	return &MQTTPublisher{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// resultTopic returns the topic a channel's results are published on
func resultTopic(prefix, channel string) string {
	return fmt.Sprintf("%s/%s/result", prefix, channel)
}

// buildResultPayload converts a decode result into an MQTT message
func buildResultPayload(runID, channel string, res *barcode.Result, now time.Time) ResultPayload {
	payload := ResultPayload{
		RunID:       runID,
		Channel:     channel,
		Timestamp:   now.Unix(),
		Codes:       res.Codes,
		Diagnostics: res.Diagnostics,
		Values:      res.Values(),
	}
	if payload.Codes == nil {
		payload.Codes = []barcode.DecodedCode{}
	}
	if payload.Diagnostics == nil {
		payload.Diagnostics = []barcode.Diagnostic{}
	}
	return payload
}

// buildMetricPayload flattens gathered metrics into name{labels} -> value
func buildMetricPayload(runID string, gatherer prometheus.Gatherer, now time.Time) (MetricPayload, error) {
	metricFamilies, err := gatherer.Gather()
	if err != nil {
		return MetricPayload{}, fmt.Errorf("failed to gather metrics: %w", err)
	}

	payload := MetricPayload{
		RunID:     runID,
		Timestamp: now.Unix(),
		Metrics:   make(map[string]float64),
	}
	for _, mf := range metricFamilies {
		for _, m := range mf.GetMetric() {
			value, ok := extractMetricValue(m)
			if !ok {
				continue
			}
			payload.Metrics[metricKey(mf.GetName(), m)] = value
		}
	}
	return payload, nil
}

// metricKey renders a metric name with its labels, e.g. camsync_codes_decoded_total{channel=cam1}
func metricKey(name string, m *dto.Metric) string {
	labels := m.GetLabel()
	if len(labels) == 0 {
		return name
	}
	key := name + "{"
	for i, lp := range labels {
		if i > 0 {
			key += ","
		}
		key += lp.GetName() + "=" + lp.GetValue()
	}
	return key + "}"
}

// extractMetricValue extracts the numeric value from a Prometheus metric
func extractMetricValue(m *dto.Metric) (float64, bool) {
	if m.GetGauge() != nil {
		return m.GetGauge().GetValue(), true
	}
	if m.GetCounter() != nil {
		return m.GetCounter().GetValue(), true
	}
	if m.GetHistogram() != nil {
		return m.GetHistogram().GetSampleSum(), true
	}
	if m.GetSummary() != nil {
		return m.GetSummary().GetSampleSum(), true
	}
	return 0, false
}

// PublishResult publishes one channel's decode result
func (mp *MQTTPublisher) PublishResult(runID, channel string, res *barcode.Result) {
	mp.publish(resultTopic(mp.config.TopicPrefix, channel), buildResultPayload(runID, channel, res, time.Now()))
}

// PublishMetrics publishes a snapshot of the run's metrics
func (mp *MQTTPublisher) PublishMetrics(runID string, gatherer prometheus.Gatherer) {
	payload, err := buildMetricPayload(runID, gatherer, time.Now())
	if err != nil {
		mp.logger.Errorw("MQTT metrics snapshot failed", "error", err)
		return
	}
	if len(payload.Metrics) == 0 {
		return
	}
	mp.publish(mp.config.TopicPrefix+"/metrics", payload)
}

// publish sends a payload to an MQTT topic
func (mp *MQTTPublisher) publish(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		mp.logger.Errorw("MQTT marshal failed", "topic", topic, "error", err)
		return
	}

	token := mp.client.Publish(topic, mp.config.QoS, false, data)
	if token.Wait() && token.Error() != nil {
		mp.logger.Errorw("MQTT publish failed", "topic", topic, "error", token.Error())
	}
}

// Disconnect gracefully disconnects from the MQTT broker
func (mp *MQTTPublisher) Disconnect() {
	if mp.client != nil && mp.client.IsConnected() {
		mp.client.Disconnect(250)
		mp.logger.Info("MQTT disconnected")
	}
}
