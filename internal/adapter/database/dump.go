package database

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/semmidev/mongobak/internal/domain"
	"github.com/semmidev/mongobak/internal/infrastructure/logger"
)

// MongoDumper exports a database with mongodump and packages the output
// into a single compressed tar archive.
type MongoDumper struct {
	tool       string
	method     domain.Compression
	compressor domain.Compressor
	executor   ProcessExecutor
	namer      func(prefix string) string
	logger     *logger.Logger
}

func NewMongoDumper(
	tool string,
	method domain.Compression,
	compressor domain.Compressor,
	namer func(prefix string) string,
	log *logger.Logger,
) *MongoDumper {
	if tool == "" {
		tool = "mongodump"
	}
	if namer == nil {
		namer = func(prefix string) string {
			return prefix + "_" + time.Now().Format("20060102_150405")
		}
	}
	return &MongoDumper{
		tool:       tool,
		method:     method,
		compressor: compressor,
		executor:   OSExecutor{},
		namer:      namer,
		logger:     log,
	}
}

// WithExecutor replaces the process executor used to run the dump tool.
func (d *MongoDumper) WithExecutor(executor ProcessExecutor) *MongoDumper {
	d.executor = executor
	return d
}

// Dump runs the dump tool into a fresh folder under outputDir and returns the
// stats of the resulting archive. The raw folder and the intermediate tar are
// removed on every path; the archive is left for the caller.
func (d *MongoDumper) Dump(ctx context.Context, session domain.Session, outputDir string) (*domain.DumpStats, error) {
	folderName := d.namer(session.DatabaseName())
	folderPath := filepath.Join(outputDir, folderName)
	tarPath := folderPath + ".tar"
	archivePath := tarPath + d.method.Extension()

	if err := os.MkdirAll(folderPath, 0755); err != nil {
		return nil, domain.NewError(domain.KindArtifactIO, "dump", "failed to create dump folder", err)
	}
	defer d.remove(folderPath)
	defer d.remove(tarPath)

	d.logger.Infof("Running %s for database %s into %s", d.tool, session.DatabaseName(), folderPath)
	result, err := d.executor.Run(ctx, d.tool,
		fmt.Sprintf("--uri=%s", session.URI()),
		fmt.Sprintf("--db=%s", session.DatabaseName()),
		fmt.Sprintf("--out=%s", folderPath),
	)
	if err != nil {
		return nil, domain.NewError(domain.KindExternalTool, "dump",
			fmt.Sprintf("%s could not be run: %v", d.tool, err), err)
	}
	if result.ExitCode != 0 {
		stderr := strings.TrimSpace(string(result.Stderr))
		d.logger.Errorw("Dump tool failed", "tool", d.tool, "exit_code", result.ExitCode, "stderr", stderr)
		return nil, &domain.Error{
			Kind:    domain.KindExternalTool,
			Op:      "dump",
			Message: fmt.Sprintf("%s failed (exit status %d): %s", d.tool, result.ExitCode, stderr),
			Code:    fmt.Sprintf("%d", result.ExitCode),
		}
	}

	collections, err := countCollections(folderPath)
	if err != nil {
		return nil, domain.NewError(domain.KindArtifactIO, "dump", "failed to inspect dump output", err)
	}

	originalSize, err := writeTar(folderPath, tarPath, folderName)
	if err != nil {
		return nil, domain.NewError(domain.KindArtifactIO, "dump", "failed to package dump", err)
	}

	compressedSize, err := d.compressor.Compress(tarPath, archivePath, d.method)
	if err != nil {
		d.remove(archivePath)
		return nil, domain.NewError(domain.KindArtifactIO, "dump",
			fmt.Sprintf("failed to compress archive with %s", d.method), err)
	}

	for _, p := range []string{tarPath, folderPath} {
		if err := os.RemoveAll(p); err != nil {
			d.remove(archivePath)
			return nil, domain.NewError(domain.KindArtifactIO, "dump", "failed to remove intermediate dump files", err)
		}
	}

	d.logger.Infow("Database dumped and compressed",
		"archive", archivePath,
		"collections", collections,
		"original_bytes", originalSize,
		"compressed_bytes", compressedSize,
		"method", d.method.String(),
	)

	return &domain.DumpStats{
		Collections:    collections,
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Method:         d.method,
		ArchivePath:    archivePath,
	}, nil
}

func (d *MongoDumper) remove(path string) {
	if err := os.RemoveAll(path); err != nil {
		d.logger.Warnf("Failed to remove %s: %v", path, err)
	}
}

// countCollections counts the .bson files mongodump wrote, one per collection.
func countCollections(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".bson") {
			count++
		}
		return nil
	})
	return count, err
}

// writeTar archives srcDir under arcName into tarPath and returns the tar size.
func writeTar(srcDir, tarPath, arcName string) (int64, error) {
	out, err := os.Create(tarPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create tar file: %w", err)
	}
	defer out.Close()

	tw := tar.NewWriter(out)

	err = filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(filepath.Join(arcName, rel))
		if info.IsDir() {
			header.Name += "/"
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to write tar entries: %w", err)
	}
	if err := tw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize tar: %w", err)
	}

	info, err := out.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat tar file: %w", err)
	}
	return info.Size(), nil
}
