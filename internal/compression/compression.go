// Package compression selects and applies stream framing for data files
package compression

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Algorithm defines compression types
type Algorithm uint8

const (
	None   Algorithm = 0
	Snappy Algorithm = 1
)

// SnappyExt marks snappy-framed files
const SnappyExt = ".sz"

// String returns the algorithm name
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// FromPath picks the algorithm implied by a file extension
func FromPath(path string) Algorithm {
	if strings.EqualFold(filepath.Ext(path), SnappyExt) {
		return Snappy
	}
	return None
}

// NewReader wraps r so that reads return decompressed bytes
func NewReader(r io.Reader, algo Algorithm) (io.Reader, error) {
	switch algo {
	case None:
		return r, nil
	case Snappy:
		return newSnappyReader(r), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %d", algo)
	}
}

// NewWriter wraps w so that written bytes are compressed. Close flushes the
// compressor but does not close w.
func NewWriter(w io.Writer, algo Algorithm) (io.WriteCloser, error) {
	switch algo {
	case None:
		return nopWriteCloser{w}, nil
	case Snappy:
		return newSnappyWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %d", algo)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// file pairs a decoded stream with the file underneath it
type file struct {
	io.Reader
	f *os.File
}

func (r *file) Close() error {
	return r.f.Close()
}

// Open opens path for reading, decompressing according to its extension
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(bufio.NewReaderSize(f, 64*1024), FromPath(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &file{Reader: r, f: f}, nil
}

// outFile flushes the compressor and buffer before closing the file
type outFile struct {
	io.WriteCloser
	buf *bufio.Writer
	f   *os.File
}

func (w *outFile) Close() error {
	err := w.WriteCloser.Close()
	if ferr := w.buf.Flush(); err == nil {
		err = ferr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Create creates path, and any missing parent directories, for writing.
// Data is compressed according to the extension.
func Create(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriterSize(f, 64*1024)
	w, err := NewWriter(buf, FromPath(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &outFile{WriteCloser: w, buf: buf, f: f}, nil
}
