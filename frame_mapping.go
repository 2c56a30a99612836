package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cwsl/camsync/barcode"
)

// readFrameTimes reads the frame timestamp column of a camera metadata table,
// returning seconds in file order.
func readFrameTimes(r io.Reader, timeColumn string, timeScale float64) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("frame table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read frame table header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == timeColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found in frame table", timeColumn)
	}

	var times []float64
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame table row %d: %w", row, err)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("frame table row %d: invalid time %q", row, record[col])
		}
		times = append(times, t*timeScale)
	}

	if !sort.Float64sAreSorted(times) {
		return nil, fmt.Errorf("frame timestamps are not in ascending order")
	}
	return times, nil
}

// mapFrameFiles maps the codes of a result file onto a camera's frame table
func mapFrameFiles(resultPath, framesPath, timeColumn string, timeScale float64) ([]barcode.FrameCode, error) {
	rf, err := readResultFile(resultPath)
	if err != nil {
		return nil, err
	}

	f, err := openInput(framesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame table: %w", err)
	}
	defer f.Close()

	frameTimes, err := readFrameTimes(f, timeColumn, timeScale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", framesPath, err)
	}
	return barcode.MapFrames(rf.Codes, frameTimes), nil
}
