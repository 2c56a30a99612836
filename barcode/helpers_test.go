package barcode

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func seededEncoder(seed uint64) *Encoder {
	return NewEncoder(DefaultParams(), rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func mustDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder(DefaultParams())
	require.NoError(t, err)
	return d
}

// millisChannel stamps 1 ms states starting at t = 0
func millisChannel(states []uint8) []DigitalSample {
	samples := make([]DigitalSample, len(states))
	for i, s := range states {
		samples[i] = DigitalSample{Time: float64(i) / 1000.0, State: s}
	}
	return samples
}

func appendIdle(states []uint8, ms int) []uint8 {
	for i := 0; i < ms; i++ {
		states = append(states, 0)
	}
	return states
}

// twoMarkers builds a 1 kHz channel holding two markers with gapMs of idle between
// the end of the first and the onset of the second
func twoMarkers(gapMs int) []DigitalSample {
	p := DefaultParams()
	var states []uint8
	states = appendIdle(states, 700)
	states = appendMarker(states, p)
	states = appendIdle(states, gapMs)
	states = appendMarker(states, p)
	states = appendIdle(states, 700)
	return millisChannel(states)
}

// resampleAt333 samples the 1 ms states of sig at 333 Hz on a clock starting at 0.
// The recording keeps running (idle) for padMs after the last cycle.
func resampleAt333(sig Signal, padMs int) []DigitalSample {
	total := len(sig.Samples) + padMs
	var samples []DigitalSample
	for k := 0; ; k++ {
		ms := k * 1000 / 333
		if ms >= total {
			break
		}
		var state uint8
		if ms < len(sig.Samples) {
			state = sig.Samples[ms].State
		}
		samples = append(samples, DigitalSample{Time: float64(k) / 333.0, State: state})
	}
	return samples
}
