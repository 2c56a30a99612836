package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/yaml.v3"

	"github.com/cwsl/camsync/barcode"
)

// Config represents the application configuration
type Config struct {
	Protocol   ProtocolConfig   `yaml:"protocol"`
	Channels   []ChannelConfig  `yaml:"channels"`
	Decode     DecodeConfig     `yaml:"decode"`
	Logging    LoggingConfig    `yaml:"logging"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
}

// ProtocolConfig contains the barcode timing shared by all channels
type ProtocolConfig struct {
	barcode.Params `yaml:",inline"`
	SampleRate     float64 `yaml:"sample_rate"` // Known uniform rate in Hz (0 = estimate per channel)
}

// ChannelConfig describes one recorded channel to decode
type ChannelConfig struct {
	Name        string  `yaml:"name"`         // Label used in output file names, metrics and MQTT topics
	Path        string  `yaml:"path"`         // CSV file (optionally .gz or .zst)
	TimeColumn  string  `yaml:"time_column"`  // Timestamp column (default: time)
	StateColumn string  `yaml:"state_column"` // Barcode line column (default: state)
	TimeScale   float64 `yaml:"time_scale"`   // Multiplier to seconds (default: 1, use 0.001 for milliseconds)
	SampleRate  float64 `yaml:"sample_rate"`  // Per-channel override of protocol.sample_rate
}

// DecodeConfig contains batch decode settings
type DecodeConfig struct {
	Workers     int         `yaml:"workers"`     // Channels decoded in parallel (default: logical CPUs)
	OutputDir   string      `yaml:"output_dir"`  // Where codes and results are written (default: current directory)
	Compression Compression `yaml:"compression"` // none, gzip or zstd for written files (default: none)
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: info)
}

// PrometheusConfig contains metrics settings
type PrometheusConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Pushgateway PushgatewayConfig `yaml:"pushgateway"`
}

// PushgatewayConfig contains Prometheus Pushgateway settings.
// Batch runs are short lived, so metrics are pushed once at the end of a run.
type PushgatewayConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`      // Pushgateway URL (default: http://localhost:9091)
	Job      string `yaml:"job"`      // Job label (default: camsync)
	Instance string `yaml:"instance"` // Instance grouping label (optional)
	Username string `yaml:"username"` // Basic auth username (optional)
	Password string `yaml:"password"` // Basic auth password (optional)
}

// MQTTConfig contains MQTT publishing settings
type MQTTConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Broker      string        `yaml:"broker"`       // MQTT broker URL (e.g., tcp://localhost:1883)
	Username    string        `yaml:"username"`     // Optional username
	Password    string        `yaml:"password"`     // Optional password
	TopicPrefix string        `yaml:"topic_prefix"` // Topic prefix (default: camsync)
	QoS         byte          `yaml:"qos"`          // Quality of service 0, 1 or 2 (default: 1)
	TLS         MQTTTLSConfig `yaml:"tls"`
}

// MQTTTLSConfig contains TLS settings for MQTT
type MQTTTLSConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Enable/disable TLS
	CACert     string `yaml:"ca_cert"`     // Path to CA certificate file
	ClientCert string `yaml:"client_cert"` // Path to client certificate file (optional)
	ClientKey  string `yaml:"client_key"`  // Path to client key file (optional)
}

// DefaultConfig returns the configuration used when no config file is given
func DefaultConfig() *Config {
	config := &Config{
		Protocol: ProtocolConfig{Params: barcode.DefaultParams()},
	}
	config.applyDefaults()
	return config
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from protocol defaults so a file only needs to name what differs
	config := Config{
		Protocol: ProtocolConfig{Params: barcode.DefaultParams()},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// defaultWorkers returns the logical CPU count, or 4 when it cannot be read
func defaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 4
	}
	return n
}

// applyDefaults fills in unset optional values
func (c *Config) applyDefaults() {
	if c.Decode.Workers == 0 {
		c.Decode.Workers = defaultWorkers()
	}
	if c.Decode.OutputDir == "" {
		c.Decode.OutputDir = "."
	}
	if c.Decode.Compression == "" {
		c.Decode.Compression = CompressionNone
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Prometheus.Pushgateway.URL == "" {
		c.Prometheus.Pushgateway.URL = "http://localhost:9091"
	}
	if c.Prometheus.Pushgateway.Job == "" {
		c.Prometheus.Pushgateway.Job = "camsync"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "camsync"
	}
	if c.MQTT.QoS == 0 {
		c.MQTT.QoS = 1
	}
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.TimeColumn == "" {
			ch.TimeColumn = "time"
		}
		if ch.StateColumn == "" {
			ch.StateColumn = "state"
		}
		if ch.TimeScale == 0 {
			ch.TimeScale = 1
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Protocol.Params.Validate(); err != nil {
		return fmt.Errorf("protocol: %w", err)
	}
	if c.Protocol.SampleRate < 0 {
		return fmt.Errorf("protocol.sample_rate must not be negative")
	}
	if c.Decode.Workers < 1 {
		return fmt.Errorf("decode.workers must be at least 1")
	}
	if _, err := ParseCompression(string(c.Decode.Compression)); err != nil {
		return fmt.Errorf("decode.compression: %w", err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}

	seen := make(map[string]bool)
	for i, ch := range c.Channels {
		if ch.Name == "" {
			return fmt.Errorf("channels[%d].name is required", i)
		}
		if seen[ch.Name] {
			return fmt.Errorf("channels[%d].name %q is not unique", i, ch.Name)
		}
		seen[ch.Name] = true
		if ch.Path == "" {
			return fmt.Errorf("channels[%d].path is required", i)
		}
		if ch.TimeScale <= 0 {
			return fmt.Errorf("channels[%d].time_scale must be positive", i)
		}
		if ch.SampleRate < 0 {
			return fmt.Errorf("channels[%d].sample_rate must not be negative", i)
		}
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}
	return nil
}

// EffectiveSampleRate returns the rate to decode a channel with (0 = estimate)
func (c *Config) EffectiveSampleRate(ch ChannelConfig) float64 {
	if ch.SampleRate > 0 {
		return ch.SampleRate
	}
	return c.Protocol.SampleRate
}
