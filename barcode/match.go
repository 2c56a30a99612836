package barcode

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

/*
 * Marker Detection
 * The framing marker is located by sliding a +/-1 template over the +/-1
 * mapped channel. Only offsets where the whole template lies inside the
 * channel are evaluated, so a marker cut by either end never matches.
 * A match requires bit-exact agreement over the window.
 */

// MarkerTemplate returns the 1,0,1,0 marker shape sampled at fs
func MarkerTemplate(params Params, fs float64) []uint8 {
	segment := int(math.Round(float64(params.FrameUnitMs) / 1000.0 * fs))
	if segment < 1 {
		return nil
	}

	template := make([]uint8, 0, MarkerSegments*segment)
	state := uint8(1)
	for seg := 0; seg < MarkerSegments; seg++ {
		for i := 0; i < segment; i++ {
			template = append(template, state)
		}
		state = 1 - state
	}
	return template
}

// bipolar maps 0/1 values to -1/+1
func bipolar(values []uint8) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v != 0 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}

// MatchTemplate returns every offset where template occurs exactly in values
func MatchTemplate(values, template []uint8) []int {
	m := len(template)
	if m == 0 || len(values) < m {
		return nil
	}

	signal := bipolar(values)
	kernel := bipolar(template)
	energy := floats.Dot(kernel, kernel)

	var matches []int
	for offset := 0; offset+m <= len(signal); offset++ {
		if floats.Dot(signal[offset:offset+m], kernel) == energy {
			matches = append(matches, offset)
		}
	}
	return matches
}

// Onsets collapses runs of matches closer than minSpacing samples into the
// earliest offset of each run. matches must be ascending.
func Onsets(matches []int, minSpacing float64) []int {
	if len(matches) == 0 {
		return nil
	}

	onsets := []int{matches[0]}
	last := matches[0]
	for _, m := range matches[1:] {
		if float64(m-last) >= minSpacing {
			onsets = append(onsets, m)
		}
		last = m
	}
	return onsets
}
