package domain

import (
	"context"
	"time"
)

// DumpStats describes one packaged database dump.
type DumpStats struct {
	Collections    int
	OriginalSize   int64
	CompressedSize int64
	Method         Compression
	ArchivePath    string
}

// BackupStats is the human readable summary of a finished run.
type BackupStats struct {
	Collections       int    `json:"collections"`
	OriginalSize      string `json:"original_size"`
	CompressedSize    string `json:"compressed_size"`
	CompressionRatio  string `json:"compression_ratio"`
	CompressionMethod string `json:"compression_method"`
}

type BackupResult struct {
	Success   bool          `json:"success"`
	URL       string        `json:"url"`
	Stats     BackupStats   `json:"stats"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// ProgressSink receives status messages in emission order. A delivery
// error is fatal to the step that emitted it.
type ProgressSink interface {
	Progress(ctx context.Context, message string) error
}

type nopSink struct{}

func (nopSink) Progress(context.Context, string) error { return nil }

// NopSink discards every message.
var NopSink ProgressSink = nopSink{}
