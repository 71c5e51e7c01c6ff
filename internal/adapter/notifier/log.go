package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/semmidev/mongobak/internal/domain"
	"github.com/semmidev/mongobak/internal/infrastructure/logger"
)

// Log writes progress messages to the application log.
type Log struct {
	logger *logger.Logger
}

func NewLog(log *logger.Logger) *Log {
	return &Log{logger: log}
}

func (l *Log) Progress(_ context.Context, message string) error {
	if strings.HasPrefix(message, "❌") {
		l.logger.Errorw("Backup progress", "message", message)
	} else {
		l.logger.Infow("Backup progress", "message", message)
	}
	return nil
}

type multi []domain.ProgressSink

// Multi delivers each message to every sink in order and stops at the first
// delivery error.
func Multi(sinks ...domain.ProgressSink) domain.ProgressSink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return domain.NopSink
	}
	return out
}

func (m multi) Progress(ctx context.Context, message string) error {
	for _, s := range m {
		if err := s.Progress(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

// Summary renders a finished run the way it is announced to the channel.
func Summary(result *domain.BackupResult) string {
	s := result.Stats
	var b strings.Builder
	b.WriteString("✅ Backup Complete\n\n")
	fmt.Fprintf(&b, "Collections: %d\n", s.Collections)
	fmt.Fprintf(&b, "Original Size: %s\n", s.OriginalSize)
	fmt.Fprintf(&b, "Compressed Size: %s\n", s.CompressedSize)
	fmt.Fprintf(&b, "Compression: %s (%s)\n", s.CompressionRatio, s.CompressionMethod)
	fmt.Fprintf(&b, "Duration: %s\n", result.Duration.Round(time.Second))
	fmt.Fprintf(&b, "Download: %s", result.URL)
	return b.String()
}
