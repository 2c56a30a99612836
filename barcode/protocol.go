package barcode

import (
	"fmt"
)

/*
 * Temporal Barcode Protocol Parameters
 *
 * One coded cycle on the trigger line:
 * - idle gap (state 0) filling the rest of the inter-code interval
 * - start marker: 4 x frame unit toggling 1,0,1,0
 * - payload: CodeBits bits, each held BitDurationMs, most significant bit first
 * - end marker: same shape as the start marker
 */

// Protocol defaults
const (
	DefaultInterCodeIntervalMs     = 5000 // start of one cycle to start of the next
	DefaultBitDurationMs           = 30   // time each payload bit is held
	DefaultCodeBits                = 32   // payload width
	DefaultFrameUnitMs             = 15   // one toggle inside a marker
	DefaultMinMarkerSpacingS       = 0.5  // matches closer than this collapse to one marker
	DefaultPairingToleranceSamples = 1.0  // start/end spacing must be strictly within this

	// MarkerSegments is the number of toggles in a framing marker
	MarkerSegments = 4
)

// Params holds the protocol timing shared by the encoder and the decoder.
// It is a plain value: copy it freely, never mutate a shared instance.
type Params struct {
	InterCodeIntervalMs     int     `yaml:"inter_code_interval_ms" json:"inter_code_interval_ms"`
	BitDurationMs           int     `yaml:"bit_duration_ms" json:"bit_duration_ms"`
	CodeBits                int     `yaml:"code_bits" json:"code_bits"`
	FrameUnitMs             int     `yaml:"frame_unit_ms" json:"frame_unit_ms"`
	MinMarkerSpacingS       float64 `yaml:"min_marker_spacing_s" json:"min_marker_spacing_s"`
	PairingToleranceSamples float64 `yaml:"pairing_tolerance_samples" json:"pairing_tolerance_samples"`
}

// DefaultParams returns the protocol parameters used by the trigger firmware
func DefaultParams() Params {
	return Params{
		InterCodeIntervalMs:     DefaultInterCodeIntervalMs,
		BitDurationMs:           DefaultBitDurationMs,
		CodeBits:                DefaultCodeBits,
		FrameUnitMs:             DefaultFrameUnitMs,
		MinMarkerSpacingS:       DefaultMinMarkerSpacingS,
		PairingToleranceSamples: DefaultPairingToleranceSamples,
	}
}

// FrameMarkerMs returns the total duration of one framing marker
func (p Params) FrameMarkerMs() int {
	return MarkerSegments * p.FrameUnitMs
}

// PayloadMs returns the duration of the payload between the two markers
func (p Params) PayloadMs() int {
	return p.BitDurationMs * p.CodeBits
}

// CycleActiveMs returns the framed part of a cycle (markers + payload, no idle gap)
func (p Params) CycleActiveMs() int {
	return 2*p.FrameMarkerMs() + p.PayloadMs()
}

// IdleMs returns the idle gap that precedes the start marker of every cycle
func (p Params) IdleMs() int {
	return p.InterCodeIntervalMs - p.CycleActiveMs()
}

// codeMask returns the mask selecting the low CodeBits bits of a code value
func (p Params) codeMask() uint32 {
	if p.CodeBits >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << p.CodeBits) - 1
}

// Validate checks that the parameters describe a layout that fits in one cycle
func (p Params) Validate() error {
	if p.InterCodeIntervalMs <= 0 {
		return inputErrorf("params", "inter_code_interval_ms must be positive, got %d", p.InterCodeIntervalMs)
	}
	if p.BitDurationMs <= 0 {
		return inputErrorf("params", "bit_duration_ms must be positive, got %d", p.BitDurationMs)
	}
	if p.CodeBits < 1 || p.CodeBits > 32 {
		return inputErrorf("params", "code_bits must be between 1 and 32, got %d", p.CodeBits)
	}
	if p.FrameUnitMs <= 0 {
		return inputErrorf("params", "frame_unit_ms must be positive, got %d", p.FrameUnitMs)
	}
	if p.IdleMs() < 0 {
		return inputErrorf("params", "inter_code_interval_ms %d is shorter than the framed cycle (%d ms)",
			p.InterCodeIntervalMs, p.CycleActiveMs())
	}
	if p.MinMarkerSpacingS < 0 {
		return inputErrorf("params", "min_marker_spacing_s must not be negative, got %g", p.MinMarkerSpacingS)
	}
	// Start and end markers of one cycle must survive deduplication as two onsets
	if p.MinMarkerSpacingS*1000 >= float64(p.FrameMarkerMs()+p.PayloadMs()) {
		return inputErrorf("params", "min_marker_spacing_s %g would merge start and end markers (%d ms apart)",
			p.MinMarkerSpacingS, p.FrameMarkerMs()+p.PayloadMs())
	}
	if p.PairingToleranceSamples <= 0 {
		return inputErrorf("params", "pairing_tolerance_samples must be positive, got %g", p.PairingToleranceSamples)
	}
	return nil
}

// String returns a compact description used in logs
func (p Params) String() string {
	return fmt.Sprintf("interval=%dms bit=%dms bits=%d unit=%dms spacing=%.3fs",
		p.InterCodeIntervalMs, p.BitDurationMs, p.CodeBits, p.FrameUnitMs, p.MinMarkerSpacingS)
}
