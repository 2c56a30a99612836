package barcode

import (
	"math/rand/v2"
)

/*
 * Barcode Encoder
 * Lays out coded cycles back-to-back on a 1 ms grid, the same train the
 * trigger firmware drives onto the camera and logger inputs.
 */

// EncoderStartMs is the millisecond of the first sample (logger convention: time starts at 1)
const EncoderStartMs = 1

// Signal is an encoded pulse train together with the payloads it carries
type Signal struct {
	Samples []DigitalSample // One sample per millisecond
	Codes   []uint32        // Payload of each cycle, in emission order
}

// Encoder generates barcode pulse trains
type Encoder struct {
	params Params
	rng    *rand.Rand
}

// NewEncoder creates an encoder drawing payloads from rng.
// A nil rng uses a randomly seeded source.
func NewEncoder(params Params, rng *rand.Rand) *Encoder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Encoder{params: params, rng: rng}
}

// Generate encodes numCycles freshly drawn codes.
// The result always holds numCycles * InterCodeIntervalMs samples.
func (e *Encoder) Generate(numCycles int) Signal {
	if numCycles <= 0 {
		return Signal{}
	}

	p := e.params
	states := make([]uint8, 0, numCycles*p.InterCodeIntervalMs)
	codes := make([]uint32, 0, numCycles)

	for i := 0; i < numCycles; i++ {
		code := e.rng.Uint32() & p.codeMask()
		codes = append(codes, code)

		// Idle gap
		for j := 0; j < p.IdleMs(); j++ {
			states = append(states, 0)
		}

		states = appendMarker(states, p)

		// Payload, most significant bit first
		for bit := p.CodeBits - 1; bit >= 0; bit-- {
			state := uint8((code >> uint(bit)) & 1)
			for j := 0; j < p.BitDurationMs; j++ {
				states = append(states, state)
			}
		}

		states = appendMarker(states, p)
	}

	samples := make([]DigitalSample, len(states))
	for i, s := range states {
		samples[i] = DigitalSample{
			Time:  float64(EncoderStartMs+i) / 1000.0,
			State: s,
		}
	}

	return Signal{Samples: samples, Codes: codes}
}

// CycleStartTime returns when the start marker of cycle i begins, in seconds
func (e *Encoder) CycleStartTime(i int) float64 {
	p := e.params
	return float64(EncoderStartMs+i*p.InterCodeIntervalMs+p.IdleMs()) / 1000.0
}

// appendMarker appends one framing marker: 1,0,1,0, each FrameUnitMs long
func appendMarker(states []uint8, p Params) []uint8 {
	state := uint8(1)
	for seg := 0; seg < MarkerSegments; seg++ {
		for j := 0; j < p.FrameUnitMs; j++ {
			states = append(states, state)
		}
		state = 1 - state
	}
	return states
}
