package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cwsl/camsync/barcode"
)

var (
	codesCSVHeader  = []string{"sequence_index", "start_time", "end_time", "value"}
	framesCSVHeader = []string{"sequence_index", "frame_index", "value"}
)

// writeCodesCSV writes decoded codes, one row per code
func writeCodesCSV(w io.Writer, codes []barcode.DecodedCode) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(codesCSVHeader); err != nil {
		return err
	}
	for _, c := range codes {
		record := []string{
			strconv.Itoa(c.SequenceIndex),
			fmt.Sprintf("%.6f", c.StartTime),
			fmt.Sprintf("%.6f", c.EndTime),
			strconv.FormatUint(uint64(c.Value), 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeFramesCSV writes the frame index to code mapping
func writeFramesCSV(w io.Writer, frames []barcode.FrameCode) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(framesCSVHeader); err != nil {
		return err
	}
	for _, f := range frames {
		record := []string{
			strconv.Itoa(f.SequenceIndex),
			strconv.Itoa(f.FrameIndex),
			strconv.FormatUint(uint64(f.Value), 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeCSVFile creates path and fills it with write
func writeCSVFile(path string, c Compression, write func(io.Writer) error) (string, error) {
	w, finalPath, err := createOutput(path, c)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(w); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write %s: %w", finalPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", finalPath, err)
	}
	return finalPath, nil
}
