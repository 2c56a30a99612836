package barcode

import (
	"fmt"
	"sort"
)

/*
 * Barcode Decoder
 * Batch decode of one recorded channel:
 * 1. resolve the sample rate (estimate + resample, or trust the caller)
 * 2. locate framing markers by exact template matching
 * 3. collapse duplicate matches into marker onsets
 * 4. pair markers by payload spacing
 * 5. read the payload bits between each pair
 *
 * Per-cycle problems become diagnostics; only structural input errors fail the call.
 */

// gapFactor is how far apart (in inter-code intervals) two decoded codes may start
// before the missing cycles between them are reported
const gapFactor = 1.5

// Decoder recovers codes from barcode channels. It holds no mutable state and
// may be shared by concurrent decodes.
type Decoder struct {
	params Params
}

// NewDecoder validates params and creates a decoder
func NewDecoder(params Params) (*Decoder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{params: params}, nil
}

// Params returns the protocol parameters the decoder was built with
func (d *Decoder) Params() Params {
	return d.params
}

// Decode recovers the codes carried by samples.
// If fs <= 0 the rate is estimated and the channel resampled; otherwise the
// channel is taken as already uniform at fs.
func (d *Decoder) Decode(samples []DigitalSample, fs float64) (*Result, error) {
	if len(samples) == 0 {
		return &Result{}, nil
	}

	var (
		channel *UniformChannel
		err     error
	)
	if fs <= 0 {
		rate, err := EstimateRate(samples)
		if err != nil {
			return nil, err
		}
		channel, err = Resample(samples, rate)
		if err != nil {
			return nil, err
		}
	} else {
		channel, err = asUniform(samples, fs)
		if err != nil {
			return nil, err
		}
	}

	return d.DecodeUniform(channel)
}

// DecodeUniform runs marker detection, pairing and bit extraction on a uniform channel
func (d *Decoder) DecodeUniform(channel *UniformChannel) (*Result, error) {
	p := d.params
	result := &Result{SampleRate: channel.Rate}

	template := MarkerTemplate(p, channel.Rate)
	if len(template) == 0 {
		return nil, inputErrorf("decode", "sample rate %.3f Hz is too low to resolve a %d ms marker segment",
			channel.Rate, p.FrameUnitMs)
	}
	templateLen := len(template)

	matches := MatchTemplate(channel.Values, template)
	result.Matches = len(matches)
	if len(matches) == 0 {
		return result, nil
	}

	onsets := Onsets(matches, p.MinMarkerSpacingS*channel.Rate)
	pairs, unpaired := newPairer(p, channel.Rate, templateLen).pair(onsets)

	roles := make(map[int]MarkerRole, len(onsets))
	for _, pr := range pairs {
		roles[pr.start] = RoleStart
		roles[pr.end] = RoleEnd
	}
	for _, onset := range onsets {
		result.Markers = append(result.Markers, FrameMarker{
			Index: onset,
			Time:  channel.TimeAt(onset),
			Role:  roles[onset],
		})
	}

	var diagnostics []Diagnostic
	for _, onset := range unpaired {
		diagnostics = append(diagnostics, Diagnostic{
			Kind:      UnpairedMarker,
			Reason:    "no partner marker one payload away",
			StartTime: channel.TimeAt(onset),
			EndTime:   channel.TimeAt(onset + templateLen),
		})
	}

	for _, pr := range pairs {
		startTime := channel.TimeAt(pr.start)
		endTime := channel.TimeAt(pr.end + templateLen)

		value, err := extractBits(channel.Values, pr.start+templateLen, pr.end, p.CodeBits)
		if err != nil {
			diagnostics = append(diagnostics, Diagnostic{
				Kind:      MalformedInterval,
				Reason:    err.Error(),
				StartTime: startTime,
				EndTime:   endTime,
			})
			continue
		}

		result.Codes = append(result.Codes, DecodedCode{
			SequenceIndex: len(result.Codes),
			StartTime:     startTime,
			EndTime:       endTime,
			Value:         value,
		})
	}

	diagnostics = append(diagnostics, d.cycleGaps(result.Codes, diagnostics)...)
	sort.SliceStable(diagnostics, func(i, j int) bool {
		return diagnostics[i].StartTime < diagnostics[j].StartTime
	})
	result.Diagnostics = diagnostics

	return result, nil
}

// cycleGaps reports stretches between decoded codes where whole cycles went missing.
// Cycles already reported as malformed are not counted again.
func (d *Decoder) cycleGaps(codes []DecodedCode, reported []Diagnostic) []Diagnostic {
	interval := float64(d.params.InterCodeIntervalMs) / 1000.0
	var gaps []Diagnostic
	for i := 1; i < len(codes); i++ {
		prev, cur := codes[i-1], codes[i]
		spacing := cur.StartTime - prev.StartTime
		if spacing <= gapFactor*interval {
			continue
		}
		missing := int(spacing/interval+0.5) - 1
		for _, r := range reported {
			if r.Kind == MalformedInterval && r.StartTime > prev.StartTime && r.StartTime < cur.StartTime {
				missing--
			}
		}
		if missing <= 0 {
			continue
		}
		gaps = append(gaps, Diagnostic{
			Kind:      CycleGap,
			Reason:    fmt.Sprintf("about %d cycle(s) missing between codes %d and %d", missing, prev.SequenceIndex, cur.SequenceIndex),
			StartTime: prev.EndTime,
			EndTime:   cur.StartTime,
		})
	}
	return gaps
}
