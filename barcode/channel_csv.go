package barcode

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
)

// ChannelFormat describes where the timestamp and state live in a delimited channel file
type ChannelFormat struct {
	TimeColumn  string  // Header name of the timestamp column (default "time")
	StateColumn string  // Header name of the state column (default "state")
	TimeScale   float64 // Multiplier converting the time column to seconds (default 1)
}

// FixtureFormat reads files written by WriteFixture (milliseconds)
func FixtureFormat() ChannelFormat {
	return ChannelFormat{TimeColumn: "time", StateColumn: "state", TimeScale: 0.001}
}

func (f ChannelFormat) withDefaults() ChannelFormat {
	if f.TimeColumn == "" {
		f.TimeColumn = "time"
	}
	if f.StateColumn == "" {
		f.StateColumn = "state"
	}
	if f.TimeScale == 0 {
		f.TimeScale = 1
	}
	return f
}

// ReadChannel parses a channel table with a header row.
// Timestamps are returned in seconds; ordering is checked by the decoder, not here.
func ReadChannel(r io.Reader, format ChannelFormat) ([]DigitalSample, error) {
	format = format.withDefaults()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, inputErrorf("read channel", "missing header row")
	}
	if err != nil {
		return nil, inputErrorf("read channel", "failed to read header: %v", err)
	}

	timeIdx, stateIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case format.TimeColumn:
			timeIdx = i
		case format.StateColumn:
			stateIdx = i
		}
	}
	if timeIdx < 0 {
		return nil, inputErrorf("read channel", "column %q not found in header", format.TimeColumn)
	}
	if stateIdx < 0 {
		return nil, inputErrorf("read channel", "column %q not found in header", format.StateColumn)
	}

	var samples []DigitalSample
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, inputErrorf("read channel", "row %d: %v", row, err)
		}

		t, err := strconv.ParseFloat(strings.TrimSpace(record[timeIdx]), 64)
		if err != nil {
			return nil, inputErrorf("read channel", "row %d: invalid time %q", row, record[timeIdx])
		}

		state, err := parseState(record[stateIdx])
		if err != nil {
			return nil, inputErrorf("read channel", "row %d: %v", row, err)
		}

		samples = append(samples, DigitalSample{Time: t * format.TimeScale, State: state})
	}

	return samples, nil
}

// parseState accepts 0/1 written as integers or floats ("1", "1.0")
func parseState(s string) (uint8, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New("invalid state " + strconv.Quote(s))
	}
	switch v {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	default:
		return 0, errors.New("state must be 0 or 1, got " + strconv.Quote(s))
	}
}
