package barcode

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadChannel(t *testing.T) {
	input := "frame,timestamp,line\n0,10.000,0\n1,10.004,1\n2,10.008,1.0\n"
	samples, err := ReadChannel(strings.NewReader(input), ChannelFormat{TimeColumn: "timestamp", StateColumn: "line"})
	require.NoError(t, err)

	assert.Equal(t, []DigitalSample{
		{Time: 10.000, State: 0},
		{Time: 10.004, State: 1},
		{Time: 10.008, State: 1},
	}, samples)
}

func TestReadChannelErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format ChannelFormat
		want   string
	}{
		{name: "empty file", input: "", want: "missing header"},
		{name: "missing time column", input: "t,state\n1,0\n", want: `column "time"`},
		{name: "missing state column", input: "time,s\n1,0\n", want: `column "state"`},
		{name: "bad time", input: "time,state\n1,0\nabc,1\n", want: "row 3"},
		{name: "bad state", input: "time,state\n1,2\n", want: "state must be 0 or 1"},
		{name: "short row", input: "time,state\n1\n", want: "row 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadChannel(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteFixture(t *testing.T) {
	sig := seededEncoder(4).Generate(10)

	var buf bytes.Buffer
	require.NoError(t, WriteFixture(&buf, sig))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 1+10*DefaultInterCodeIntervalMs)
	assert.Equal(t, FixtureHeader, rows[0])
	assert.Equal(t, []string{"1", "0", "0", "0", "0", "0"}, rows[1])

	// 120 Hz frame counter: millisecond 10 is in frame int(9 / 8.333) = 1
	assert.Equal(t, "10", rows[10][0])
	assert.Equal(t, "1", rows[10][1])
	assert.Equal(t, "50000", rows[len(rows)-1][0])
}

func TestFixtureDecodes(t *testing.T) {
	sig := seededEncoder(12).Generate(4)

	var buf bytes.Buffer
	require.NoError(t, WriteFixture(&buf, sig))

	samples, err := ReadChannel(&buf, FixtureFormat())
	require.NoError(t, err)
	require.Len(t, samples, len(sig.Samples))

	res, err := mustDecoder(t).Decode(samples, 1000)
	require.NoError(t, err)
	assert.Equal(t, sig.Codes, res.Values())
}
