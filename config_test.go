package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwsl/camsync/barcode"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, barcode.DefaultParams(), config.Protocol.Params)
	assert.Equal(t, defaultWorkers(), config.Decode.Workers)
	assert.Equal(t, ".", config.Decode.OutputDir)
	assert.Equal(t, CompressionNone, config.Decode.Compression)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "camsync", config.MQTT.TopicPrefix)
	assert.Equal(t, byte(1), config.MQTT.QoS)
	assert.NoError(t, config.Validate())
}

func TestDefaultWorkersFollowsCPUCount(t *testing.T) {
	workers := defaultWorkers()
	assert.GreaterOrEqual(t, workers, 1)

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		assert.Equal(t, n, workers)
	} else {
		assert.Equal(t, 4, workers)
	}

	// An explicit setting is kept
	config := &Config{Decode: DecodeConfig{Workers: 2}}
	config.applyDefaults()
	assert.Equal(t, 2, config.Decode.Workers)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
protocol:
  code_bits: 16
  sample_rate: 1000
channels:
  - name: cam1
    path: /data/cam1.csv.gz
    time_scale: 0.001
  - name: cam2
    path: /data/cam2.csv
    time_column: timestamp
    sample_rate: 240
decode:
  workers: 2
  compression: zstd
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	// Fields absent from the file keep their protocol defaults
	assert.Equal(t, 16, config.Protocol.CodeBits)
	assert.Equal(t, barcode.DefaultInterCodeIntervalMs, config.Protocol.InterCodeIntervalMs)
	assert.Equal(t, 1000.0, config.Protocol.SampleRate)

	require.Len(t, config.Channels, 2)
	assert.Equal(t, "time", config.Channels[0].TimeColumn)
	assert.Equal(t, "state", config.Channels[0].StateColumn)
	assert.Equal(t, 0.001, config.Channels[0].TimeScale)
	assert.Equal(t, "timestamp", config.Channels[1].TimeColumn)
	assert.Equal(t, 1.0, config.Channels[1].TimeScale)

	assert.Equal(t, 1000.0, config.EffectiveSampleRate(config.Channels[0]))
	assert.Equal(t, 240.0, config.EffectiveSampleRate(config.Channels[1]))

	assert.Equal(t, 2, config.Decode.Workers)
	assert.Equal(t, CompressionZstd, config.Decode.Compression)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("protocol: [unclosed"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{
			name:   "invalid protocol",
			modify: func(c *Config) { c.Protocol.CodeBits = 0 },
			want:   "protocol",
		},
		{
			name:   "negative sample rate",
			modify: func(c *Config) { c.Protocol.SampleRate = -1 },
			want:   "protocol.sample_rate",
		},
		{
			name:   "no workers",
			modify: func(c *Config) { c.Decode.Workers = 0 },
			want:   "decode.workers",
		},
		{
			name:   "unknown compression",
			modify: func(c *Config) { c.Decode.Compression = "lz4" },
			want:   "decode.compression",
		},
		{
			name:   "unknown log level",
			modify: func(c *Config) { c.Logging.Level = "verbose" },
			want:   "logging.level",
		},
		{
			name:   "channel without name",
			modify: func(c *Config) { c.Channels = []ChannelConfig{{Path: "a.csv", TimeScale: 1}} },
			want:   "channels[0].name",
		},
		{
			name: "duplicate channel",
			modify: func(c *Config) {
				c.Channels = []ChannelConfig{
					{Name: "cam", Path: "a.csv", TimeScale: 1},
					{Name: "cam", Path: "b.csv", TimeScale: 1},
				}
			},
			want: "not unique",
		},
		{
			name:   "channel without path",
			modify: func(c *Config) { c.Channels = []ChannelConfig{{Name: "cam", TimeScale: 1}} },
			want:   "channels[0].path",
		},
		{
			name:   "zero time scale",
			modify: func(c *Config) { c.Channels = []ChannelConfig{{Name: "cam", Path: "a.csv"}} },
			want:   "time_scale",
		},
		{
			name:   "mqtt without broker",
			modify: func(c *Config) { c.MQTT.Enabled = true },
			want:   "mqtt.broker",
		},
		{
			name:   "mqtt qos",
			modify: func(c *Config) { c.MQTT.QoS = 3 },
			want:   "mqtt.qos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
