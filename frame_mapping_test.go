package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwsl/camsync/barcode"
)

func TestReadFrameTimes(t *testing.T) {
	input := "frame,timestamp_ms\n0,0\n1,33.3\n2,66.7\n"
	times, err := readFrameTimes(strings.NewReader(input), "timestamp_ms", 0.001)
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.InDelta(t, 0.0667, times[2], 1e-12)
}

func TestReadFrameTimesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "empty"},
		{name: "missing column", input: "frame\n0\n", want: `column "time"`},
		{name: "bad value", input: "time\n0\nx\n", want: "row 3"},
		{name: "unordered", input: "time\n0.2\n0.1\n", want: "ascending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readFrameTimes(strings.NewReader(tt.input), "time", 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMapFrameFiles(t *testing.T) {
	dir := t.TempDir()

	res := &barcode.Result{Codes: []barcode.DecodedCode{
		{SequenceIndex: 0, StartTime: 3.921, EndTime: 5.001, Value: 11},
		{SequenceIndex: 1, StartTime: 8.921, EndTime: 10.001, Value: 12},
	}}
	resultPath, err := writeResultFile(filepath.Join(dir, "cam.result.json"), CompressionNone, newResultFile("run", "cam", "cam.csv", res))
	require.NoError(t, err)

	// 10 fps camera for 9 seconds; the second code starts after the last frame
	var frames bytes.Buffer
	frames.WriteString("index,time\n")
	for i := 0; i < 90; i++ {
		fmt.Fprintf(&frames, "%d,%.1f\n", i, float64(i)/10)
	}
	framesPath := filepath.Join(dir, "frames.csv")
	require.NoError(t, os.WriteFile(framesPath, frames.Bytes(), 0o644))

	mapped, err := mapFrameFiles(resultPath, framesPath, "time", 1)
	require.NoError(t, err)
	assert.Equal(t, []barcode.FrameCode{{SequenceIndex: 0, FrameIndex: 40, Value: 11}}, mapped)

	var out bytes.Buffer
	require.NoError(t, writeFramesCSV(&out, mapped))
	assert.Equal(t, "sequence_index,frame_index,value\n0,40,11\n", out.String())
}
