package compressor

import (
	"io"

	"github.com/andybalholm/brotli"
)

type brotliAlgorithm struct{}

func (brotliAlgorithm) newWriter(w io.Writer) (io.WriteCloser, error) {
	return brotli.NewWriterLevel(w, brotli.BestCompression), nil
}

func (brotliAlgorithm) newReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}
