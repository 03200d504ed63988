package compression

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// snappyReader reports framing errors with the algorithm name
type snappyReader struct {
	r *snappy.Reader
}

func newSnappyReader(r io.Reader) io.Reader {
	return &snappyReader{r: snappy.NewReader(r)}
}

func (s *snappyReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("snappy decompress failed: %w", err)
	}
	return n, err
}

func newSnappyWriter(w io.Writer) io.WriteCloser {
	return snappy.NewBufferedWriter(w)
}
