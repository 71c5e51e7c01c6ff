package usecase

import (
	"context"

	"github.com/semmidev/mongobak/internal/adapter/compressor"
	"github.com/semmidev/mongobak/internal/domain"
)

// Inspect reports database size against an optional storage quota.
type Inspect struct {
	connector domain.Connector
	maxSize   int64
	logger    Logger
}

// NewInspect creates the use case. A maxSize of zero disables the quota.
func NewInspect(connector domain.Connector, maxSize int64, logger Logger) *Inspect {
	return &Inspect{connector: connector, maxSize: maxSize, logger: logger}
}

func (uc *Inspect) Execute(ctx context.Context) (*domain.DatabaseReport, error) {
	defer uc.connector.Disconnect()

	session, err := uc.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := session.Stats(ctx)
	if err != nil {
		return nil, err
	}

	total := stats.DataSize + stats.IndexSize
	report := &domain.DatabaseReport{
		Database:  session.DatabaseName(),
		Stats:     stats,
		TotalSize: compressor.FormatSize(total),
	}
	if uc.maxSize > 0 {
		report.MaxSize = compressor.FormatSize(uc.maxSize)
		report.UsagePercent = float64(total) / float64(uc.maxSize) * 100
		if report.UsagePercent >= 90 {
			uc.logger.Warnf("Database %s is at %.1f%% of its %s quota", report.Database, report.UsagePercent, report.MaxSize)
		}
	}

	uc.logger.Infof("Database %s: %d collections, %d documents, %s",
		report.Database, stats.Collections, stats.Objects, report.TotalSize)
	return report, nil
}
