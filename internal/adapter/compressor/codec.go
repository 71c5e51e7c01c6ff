package compressor

import (
	"fmt"
	"io"
	"os"

	"github.com/semmidev/mongobak/internal/domain"
)

type algorithm interface {
	newWriter(w io.Writer) (io.WriteCloser, error)
	newReader(r io.Reader) (io.ReadCloser, error)
}

func algorithmFor(method domain.Compression) (algorithm, error) {
	switch method {
	case domain.Gzip:
		return gzipAlgorithm{}, nil
	case domain.Brotli:
		return brotliAlgorithm{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression method: %s", method)
	}
}

// Codec is a stateless file compressor for the supported methods.
type Codec struct{}

func New() *Codec {
	return &Codec{}
}

// Compress writes sourcePath compressed with method to destPath and returns
// the size of destPath in bytes.
func (c *Codec) Compress(sourcePath, destPath string, method domain.Compression) (int64, error) {
	algo, err := algorithmFor(method)
	if err != nil {
		return 0, err
	}

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create dest file: %w", err)
	}
	defer destFile.Close()

	writer, err := algo.newWriter(destFile)
	if err != nil {
		return 0, err
	}

	if _, err := io.Copy(writer, sourceFile); err != nil {
		writer.Close()
		return 0, fmt.Errorf("failed to compress: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to flush %s stream: %w", method, err)
	}
	if err := destFile.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync dest file: %w", err)
	}

	info, err := destFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat dest file: %w", err)
	}
	return info.Size(), nil
}

func (c *Codec) Decompress(sourcePath, destPath string, method domain.Compression) error {
	algo, err := algorithmFor(method)
	if err != nil {
		return err
	}

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	reader, err := algo.newReader(sourceFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, reader); err != nil {
		return fmt.Errorf("failed to decompress: %w", err)
	}

	return nil
}
