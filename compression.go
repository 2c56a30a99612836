package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression selects how written files are compressed
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a compression name from config or flags
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(name)); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none, gzip or zstd)", name)
	}
}

// Extension returns the file suffix appended to compressed outputs
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// compressionForPath infers compression from a file name
func compressionForPath(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// stackedReader closes the decompressor before the underlying file
type stackedReader struct {
	io.Reader
	closers []func() error
}

func (r *stackedReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openInput opens a file, transparently decompressing .gz and .zst
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := wrapReader(f, compressionForPath(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func wrapReader(f io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &stackedReader{Reader: gz, closers: []func() error{gz.Close, f.Close}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		closeDecoder := func() error {
			zr.Close()
			return nil
		}
		return &stackedReader{Reader: zr, closers: []func() error{closeDecoder, f.Close}}, nil
	default:
		return f, nil
	}
}

// stackedWriter flushes the compressor before closing the file
type stackedWriter struct {
	io.Writer
	closers []func() error
}

func (w *stackedWriter) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// createOutput creates path with the compression's extension appended and
// returns the writer together with the final file name.
func createOutput(path string, c Compression) (io.WriteCloser, string, error) {
	if c != CompressionNone && !strings.HasSuffix(path, c.Extension()) {
		path += c.Extension()
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, "", err
	}

	switch c {
	case CompressionGzip:
		gz := gzip.NewWriter(f)
		return &stackedWriter{Writer: gz, closers: []func() error{gz.Close, f.Close}}, path, nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return &stackedWriter{Writer: zw, closers: []func() error{zw.Close, f.Close}}, path, nil
	default:
		return f, path, nil
	}
}
