package compressor

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

type gzipAlgorithm struct{}

func (gzipAlgorithm) newWriter(w io.Writer) (io.WriteCloser, error) {
	gzipWriter, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	return gzipWriter, nil
}

func (gzipAlgorithm) newReader(r io.Reader) (io.ReadCloser, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return gzipReader, nil
}
