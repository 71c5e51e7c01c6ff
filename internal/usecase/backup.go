package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/semmidev/mongobak/internal/adapter/compressor"
	"github.com/semmidev/mongobak/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// Backup runs one full backup: connect, dump, upload, clean up.
type Backup struct {
	connector domain.Connector
	dumper    domain.Dumper
	store     domain.ObjectStore
	artifacts domain.ArtifactStore
	logger    Logger
	now       func() time.Time
}

func NewBackup(
	connector domain.Connector,
	dumper domain.Dumper,
	store domain.ObjectStore,
	artifacts domain.ArtifactStore,
	logger Logger,
) *Backup {
	return &Backup{
		connector: connector,
		dumper:    dumper,
		store:     store,
		artifacts: artifacts,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute runs the pipeline and reports each step to sink, which may be nil.
// The connection is released before Execute returns. On failure one error
// message is emitted and the step's error is returned as is.
func (uc *Backup) Execute(ctx context.Context, sink domain.ProgressSink) (*domain.BackupResult, error) {
	if sink == nil {
		sink = domain.NopSink
	}

	result, err := uc.run(ctx, sink)
	if err != nil {
		uc.logger.Errorf("Backup failed: %v", err)
		if serr := sink.Progress(ctx, fmt.Sprintf("❌ Backup failed: %v", err)); serr != nil {
			uc.logger.Warnf("Failed to report backup failure: %v", serr)
		}
		return nil, err
	}
	return result, nil
}

func (uc *Backup) run(ctx context.Context, sink domain.ProgressSink) (*domain.BackupResult, error) {
	defer uc.connector.Disconnect()

	start := uc.now()
	emit := func(message string) error {
		return sink.Progress(ctx, message)
	}

	if err := emit("🔄 Starting backup process..."); err != nil {
		return nil, err
	}
	uc.logger.Infof("Starting backup process")

	if err := emit("🔄 Connecting to MongoDB..."); err != nil {
		return nil, err
	}
	session, err := uc.connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := emit("✅ Connected to MongoDB"); err != nil {
		return nil, err
	}
	uc.logger.Infof("Connected to MongoDB database %s", session.DatabaseName())

	if err := emit("🔄 Dumping MongoDB database..."); err != nil {
		return nil, err
	}
	dump, err := uc.dumper.Dump(ctx, session, uc.artifacts.Dir())
	if err != nil {
		return nil, err
	}

	archiveRemoved := false
	defer func() {
		if archiveRemoved {
			return
		}
		if err := uc.artifacts.Delete(dump.ArchivePath); err != nil {
			uc.logger.Errorf("Failed to remove archive %s: %v", dump.ArchivePath, err)
		}
	}()

	original := compressor.FormatSize(dump.OriginalSize)
	compressed := compressor.FormatSize(dump.CompressedSize)
	if err := emit(fmt.Sprintf("✅ Database dumped (%s uncompressed, %s compressed)", original, compressed)); err != nil {
		return nil, err
	}
	uc.logger.Infof("Database dumped: %d collections, %s -> %s", dump.Collections, original, compressed)

	if err := emit("🔄 Uploading to AWS S3..."); err != nil {
		return nil, err
	}
	url, err := uc.store.Upload(ctx, dump.ArchivePath, "")
	if err != nil {
		return nil, err
	}
	if err := emit("✅ Uploaded to S3"); err != nil {
		return nil, err
	}
	uc.logger.Infof("Uploaded to S3: %s", url)

	if err := emit("🔄 Cleaning up local files..."); err != nil {
		return nil, err
	}
	if err := uc.artifacts.Delete(dump.ArchivePath); err != nil {
		return nil, err
	}
	archiveRemoved = true
	if err := emit("✅ Local files cleaned up"); err != nil {
		return nil, err
	}

	result := &domain.BackupResult{
		Success:   true,
		URL:       url,
		Stats:     Summarize(dump),
		StartedAt: start,
		Duration:  uc.now().Sub(start),
	}
	uc.logger.Infof("Backup completed in %s: %d collections, %s",
		result.Duration.Round(time.Second), dump.Collections, url)

	return result, nil
}

// Summarize turns raw dump stats into the reported summary. The ratio is the
// share of bytes saved, or N/A when either size is unknown.
func Summarize(dump *domain.DumpStats) domain.BackupStats {
	ratio := "N/A"
	if dump.OriginalSize > 0 && dump.CompressedSize > 0 {
		ratio = fmt.Sprintf("%.1f%%", (1-float64(dump.CompressedSize)/float64(dump.OriginalSize))*100)
	}

	method := "N/A"
	if dump.Method != 0 {
		method = strings.ToUpper(dump.Method.String())
	}

	return domain.BackupStats{
		Collections:       dump.Collections,
		OriginalSize:      compressor.FormatSize(dump.OriginalSize),
		CompressedSize:    compressor.FormatSize(dump.CompressedSize),
		CompressionRatio:  ratio,
		CompressionMethod: method,
	}
}

// TestConnections probes the database and the object store independently.
// A failing or panicking probe only marks its own entry false.
func (uc *Backup) TestConnections(ctx context.Context) map[string]bool {
	return map[string]bool{
		"mongodb": uc.probe("mongodb", func() bool {
			defer uc.connector.Disconnect()
			session, err := uc.connector.Connect(ctx)
			if err != nil {
				uc.logger.Errorf("MongoDB connection test failed: %v", err)
				return false
			}
			if err := session.Ping(ctx); err != nil {
				uc.logger.Errorf("MongoDB ping failed: %v", err)
				return false
			}
			return true
		}),
		"s3": uc.probe("s3", func() bool {
			return uc.store.TestConnection(ctx)
		}),
	}
}

func (uc *Backup) probe(name string, check func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Errorf("Connection test for %s panicked: %v", name, r)
			ok = false
		}
	}()

	ok = check()
	uc.logger.Infof("Connection test %s: %t", name, ok)
	return ok
}
