package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
	}

	for level, want := range tests {
		t.Run(level, func(t *testing.T) {
			logger, err := newLogger(level)
			require.NoError(t, err)
			assert.True(t, logger.Desugar().Core().Enabled(want))
			if want > zapcore.DebugLevel {
				assert.False(t, logger.Desugar().Core().Enabled(want-1))
			}
		})
	}
}
