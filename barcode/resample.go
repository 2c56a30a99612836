package barcode

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

/*
 * Rate Resolution
 * Channels from cameras and loggers are stamped by their own clocks and are
 * rarely exactly periodic. They are mapped onto a regular grid before matching.
 */

// gridEpsilon (in samples) absorbs the rounding left in the estimated rate
// when counting grid points over long channels
const gridEpsilon = 1e-3

// rateTolerance is the allowed relative mismatch between a caller supplied
// rate and the channel's actual mean spacing
const rateTolerance = 0.01

// validateChannel checks the structural invariants of a raw channel
func validateChannel(samples []DigitalSample) error {
	if len(samples) < 2 {
		return inputErrorf("decode", "need at least 2 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if s.State > 1 {
			return inputErrorf("decode", "sample %d: state must be 0 or 1, got %d", i, s.State)
		}
		if math.IsNaN(s.Time) || math.IsInf(s.Time, 0) {
			return inputErrorf("decode", "sample %d: invalid timestamp %v", i, s.Time)
		}
		if i > 0 && s.Time <= samples[i-1].Time {
			return inputErrorf("decode", "timestamps not strictly increasing at sample %d (%.6f after %.6f)",
				i, s.Time, samples[i-1].Time)
		}
	}
	return nil
}

// meanInterval returns the mean spacing between consecutive timestamps
func meanInterval(samples []DigitalSample) float64 {
	diffs := make([]float64, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		diffs[i-1] = samples[i].Time - samples[i-1].Time
	}
	return stat.Mean(diffs, nil)
}

// EstimateRate returns the reciprocal of the mean inter-sample interval
func EstimateRate(samples []DigitalSample) (float64, error) {
	if err := validateChannel(samples); err != nil {
		return 0, err
	}
	return 1.0 / meanInterval(samples), nil
}

// Resample maps samples onto a grid of rate fs starting at the first timestamp.
// Values are linearly interpolated and thresholded at 0.5. The grid is closed:
// it includes the last timestamp whenever that falls on a grid point.
func Resample(samples []DigitalSample, fs float64) (*UniformChannel, error) {
	if err := validateChannel(samples); err != nil {
		return nil, err
	}
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return nil, inputErrorf("resample", "invalid sample rate %v", fs)
	}

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.Time
		ys[i] = float64(s.State)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, inputErrorf("resample", "%v", err)
	}

	start := xs[0]
	span := xs[len(xs)-1] - start
	n := int(math.Floor(span*fs+gridEpsilon)) + 1

	values := make([]uint8, n)
	for i := range values {
		if pl.Predict(start+float64(i)/fs) >= 0.5 {
			values[i] = 1
		}
	}

	return &UniformChannel{Start: start, Rate: fs, Values: values}, nil
}

// asUniform wraps a channel the caller asserts is already sampled at fs
func asUniform(samples []DigitalSample, fs float64) (*UniformChannel, error) {
	if err := validateChannel(samples); err != nil {
		return nil, err
	}
	if fs <= 0 || math.IsNaN(fs) || math.IsInf(fs, 0) {
		return nil, inputErrorf("decode", "invalid sample rate %v", fs)
	}

	ratio := meanInterval(samples) * fs
	if math.Abs(ratio-1) > rateTolerance {
		return nil, inputErrorf("decode", "sample rate %.3f Hz does not match channel spacing (estimated %.3f Hz)",
			fs, 1.0/meanInterval(samples))
	}

	values := make([]uint8, len(samples))
	for i, s := range samples {
		values[i] = s.State
	}
	return &UniformChannel{Start: samples[0].Time, Rate: fs, Values: values}, nil
}
