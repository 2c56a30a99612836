package barcode

import (
	"sort"
)

// frameTimeEpsilon absorbs rounding between the decode grid and frame timestamps
const frameTimeEpsilon = 1e-6

// FrameCode ties a decoded code to the first video frame recorded at or after its start
type FrameCode struct {
	SequenceIndex int    `json:"sequence_index"`
	FrameIndex    int    `json:"frame_index"`
	Value         uint32 `json:"value"`
}

// MapFrames maps each decoded code to a frame index. frameTimes are the frame
// timestamps (seconds, ascending) on the same clock the channel was decoded on.
// Codes that start after the last frame are dropped.
func MapFrames(codes []DecodedCode, frameTimes []float64) []FrameCode {
	mapped := make([]FrameCode, 0, len(codes))
	for _, c := range codes {
		idx := sort.SearchFloat64s(frameTimes, c.StartTime-frameTimeEpsilon)
		if idx >= len(frameTimes) {
			continue
		}
		mapped = append(mapped, FrameCode{
			SequenceIndex: c.SequenceIndex,
			FrameIndex:    idx,
			Value:         c.Value,
		})
	}
	return mapped
}
