package barcode

// DigitalSample is one observation of the trigger line
type DigitalSample struct {
	Time  float64 // Seconds, strictly increasing within a channel
	State uint8   // 0 or 1
}

// UniformChannel is a channel on a regular grid starting at Start
type UniformChannel struct {
	Start  float64 // Time of Values[0] in seconds
	Rate   float64 // Samples per second
	Values []uint8 // 0 or 1
}

// Len returns the number of samples on the grid
func (u *UniformChannel) Len() int {
	return len(u.Values)
}

// TimeAt returns the timestamp of grid sample i
func (u *UniformChannel) TimeAt(i int) float64 {
	return u.Start + float64(i)/u.Rate
}

// MarkerRole tells whether a marker opens or closes a cycle
type MarkerRole int

const (
	RoleUnknown MarkerRole = iota // Not paired (start and end markers look identical)
	RoleStart
	RoleEnd
)

// String returns the role name
func (r MarkerRole) String() string {
	switch r {
	case RoleStart:
		return "start"
	case RoleEnd:
		return "end"
	default:
		return "unknown"
	}
}

// FrameMarker is one detected occurrence of the framing template
type FrameMarker struct {
	Index int     // Onset sample index on the uniform grid
	Time  float64 // Onset time in seconds
	Role  MarkerRole
}

// DecodedCode is one successfully decoded cycle
type DecodedCode struct {
	SequenceIndex int     `json:"sequence_index"` // Dense over successful decodes, in time order
	StartTime     float64 `json:"start_time"`     // Onset of the start marker
	EndTime       float64 `json:"end_time"`       // End of the end marker
	Value         uint32  `json:"value"`
}

// DiagnosticKind classifies a per-cycle problem
type DiagnosticKind int

const (
	UnpairedMarker    DiagnosticKind = iota // Marker with no partner at the payload spacing
	MalformedInterval                       // Paired markers whose interior could not be read
	CycleGap                                // Missing cycle(s) between two decoded codes
)

// String returns the diagnostic kind as used in logs and output files
func (k DiagnosticKind) String() string {
	switch k {
	case UnpairedMarker:
		return "unpaired_marker"
	case MalformedInterval:
		return "malformed_interval"
	case CycleGap:
		return "cycle_gap"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *DiagnosticKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unpaired_marker":
		*k = UnpairedMarker
	case "malformed_interval":
		*k = MalformedInterval
	case "cycle_gap":
		*k = CycleGap
	default:
		return inputErrorf("diagnostic", "unknown diagnostic kind %q", string(text))
	}
	return nil
}

// Diagnostic reports one skipped interval of the channel
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	Reason    string         `json:"reason"`
	StartTime float64        `json:"start_time"`
	EndTime   float64        `json:"end_time"`
}

// Result is everything a decode produced: usable codes and the problems found
type Result struct {
	Codes       []DecodedCode
	Diagnostics []Diagnostic
	Markers     []FrameMarker // Deduplicated markers with roles assigned by pairing
	SampleRate  float64       // Rate of the uniform grid the decode ran on
	Matches     int           // Raw template matches before deduplication
}

// Values returns the decoded code values in order
func (r *Result) Values() []uint32 {
	values := make([]uint32, len(r.Codes))
	for i, c := range r.Codes {
		values[i] = c.Value
	}
	return values
}

// CountDiagnostics returns how many diagnostics of the given kind were reported
func (r *Result) CountDiagnostics(kind DiagnosticKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
