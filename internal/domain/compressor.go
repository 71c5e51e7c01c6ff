package domain

import (
	"fmt"
	"strings"
)

// Compression is the closed set of archive codecs.
type Compression int

const (
	Gzip Compression = iota + 1
	Brotli
)

func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gzip":
		return Gzip, nil
	case "brotli":
		return Brotli, nil
	default:
		return 0, fmt.Errorf("unsupported compression method %q (want gzip or brotli)", s)
	}
}

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Brotli:
		return "brotli"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// Extension is the suffix appended to a compressed file, dot included.
func (c Compression) Extension() string {
	switch c {
	case Gzip:
		return ".gz"
	case Brotli:
		return ".br"
	default:
		return ""
	}
}

type Compressor interface {
	Compress(sourcePath, destPath string, method Compression) (int64, error)
	Decompress(sourcePath, destPath string, method Compression) error
}
