package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-version"

	"github.com/cwsl/camsync/barcode"
)

const (
	// ResultFormatVersion is written into every result file
	ResultFormatVersion = "1.1"
	// resultFormatConstraint lists the result file versions this build can read
	resultFormatConstraint = ">= 1.0, < 2.0"
)

var resultFormatVersions = version.MustConstraints(version.NewConstraint(resultFormatConstraint))

// ResultFile is the JSON document written per decoded channel
type ResultFile struct {
	FormatVersion string                `json:"format_version"`
	RunID         string                `json:"run_id"`
	Channel       string                `json:"channel"`
	Source        string                `json:"source"`
	SampleRate    float64               `json:"sample_rate"`
	Matches       int                   `json:"matches"`
	Markers       []MarkerRecord        `json:"markers"`
	Codes         []barcode.DecodedCode `json:"codes"`
	Diagnostics   []barcode.Diagnostic  `json:"diagnostics"`
}

// MarkerRecord is a detected frame marker as stored in result files
type MarkerRecord struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
	Role  string  `json:"role"`
}

// newResultFile captures a decode result for writing
func newResultFile(runID, channel, source string, res *barcode.Result) *ResultFile {
	rf := &ResultFile{
		FormatVersion: ResultFormatVersion,
		RunID:         runID,
		Channel:       channel,
		Source:        source,
		SampleRate:    res.SampleRate,
		Matches:       res.Matches,
		Markers:       make([]MarkerRecord, 0, len(res.Markers)),
		Codes:         res.Codes,
		Diagnostics:   res.Diagnostics,
	}
	for _, m := range res.Markers {
		rf.Markers = append(rf.Markers, MarkerRecord{Index: m.Index, Time: m.Time, Role: m.Role.String()})
	}
	// Write empty arrays rather than null so consumers can iterate unconditionally
	if rf.Codes == nil {
		rf.Codes = []barcode.DecodedCode{}
	}
	if rf.Diagnostics == nil {
		rf.Diagnostics = []barcode.Diagnostic{}
	}
	return rf
}

// checkFormatVersion rejects result files written by an incompatible release
func checkFormatVersion(v string) error {
	if v == "" {
		return fmt.Errorf("result file has no format_version")
	}
	parsed, err := version.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid format_version %q: %w", v, err)
	}
	if !resultFormatVersions.Check(parsed) {
		return fmt.Errorf("unsupported format_version %s (supported: %s)", v, resultFormatConstraint)
	}
	return nil
}

// encodeResultFile writes rf as indented JSON
func encodeResultFile(w io.Writer, rf *ResultFile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rf)
}

// decodeResultFile reads a result file and checks its format version
func decodeResultFile(r io.Reader) (*ResultFile, error) {
	var rf ResultFile
	if err := json.NewDecoder(r).Decode(&rf); err != nil {
		return nil, fmt.Errorf("failed to parse result file: %w", err)
	}
	if err := checkFormatVersion(rf.FormatVersion); err != nil {
		return nil, err
	}
	return &rf, nil
}

// writeResultFile writes rf to path using the configured compression
func writeResultFile(path string, c Compression, rf *ResultFile) (string, error) {
	w, finalPath, err := createOutput(path, c)
	if err != nil {
		return "", fmt.Errorf("failed to create result file: %w", err)
	}
	if err := encodeResultFile(w, rf); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write %s: %w", finalPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", finalPath, err)
	}
	return finalPath, nil
}

// readResultFile loads a result file, decompressing by extension
func readResultFile(path string) (*ResultFile, error) {
	r, err := openInput(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	defer r.Close()

	rf, err := decodeResultFile(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rf, nil
}
