package barcode

import (
	"math"
)

// markerPair is a start marker onset and its matching end marker onset
type markerPair struct {
	start int
	end   int
}

// pairer pairs markers purely by spacing: start and end markers are identical,
// so a marker opens a cycle only if another marker follows it exactly one
// payload later (measured from the end of the first marker to the onset of the second)
type pairer struct {
	templateLen int
	payload     float64 // Expected payload length in samples
	tolerance   float64 // Strict bound on |gap - payload| in samples
}

func newPairer(params Params, fs float64, templateLen int) pairer {
	return pairer{
		templateLen: templateLen,
		payload:     float64(params.PayloadMs()) * fs / 1000.0,
		tolerance:   params.PairingToleranceSamples,
	}
}

// matches reports whether markers at onsets a and b frame one payload
func (p pairer) matches(a, b int) bool {
	gap := float64(b - a - p.templateLen)
	return math.Abs(gap-p.payload) < p.tolerance
}

// pair walks onsets in order. Markers that cannot open or close a cycle are
// returned as unpaired: leading end markers, trailing start markers, strays.
func (p pairer) pair(onsets []int) (pairs []markerPair, unpaired []int) {
	i := 0
	for i < len(onsets) {
		if i+1 < len(onsets) && p.matches(onsets[i], onsets[i+1]) {
			pairs = append(pairs, markerPair{start: onsets[i], end: onsets[i+1]})
			i += 2
			continue
		}
		unpaired = append(unpaired, onsets[i])
		i++
	}
	return pairs, unpaired
}
