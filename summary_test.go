package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSummary(t *testing.T) {
	outcomes := []ChannelOutcome{
		{Channel: "cam1", Status: statusOK, Result: sampleResult()},
		{Channel: "cam2", Status: statusInputError, Err: errors.New("bad")},
		{Channel: "cam3"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, "run-9", outcomes))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)

	assert.Equal(t, "Run run-9", strings.TrimSpace(lines[0]))
	assert.Equal(t, []string{"CHANNEL", "STATUS", "RATE", "(Hz)", "MATCHES", "CODES", "UNPAIRED", "MALFORMED", "GAPS"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"cam1", "ok", "1,000.0", "7", "1", "1", "0", "0"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"cam2", "input_error", "-", "-", "-", "-", "-", "-"}, strings.Fields(lines[3]))
	assert.Equal(t, "skipped", strings.Fields(lines[4])[1])
	assert.Equal(t, "3 channel(s), 2 failed, 1 code(s) decoded, 1 diagnostic(s)", lines[5])
}
