package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/semmidev/mongobak/internal/domain"
)

// archivePattern matches the archives the dumper leaves in the work dir.
const archivePattern = "*.tar.*"

var timestampPattern = regexp.MustCompile(`(\d{8})_(\d{6})`)

type Cleanup struct {
	artifacts     domain.ArtifactStore
	store         domain.ObjectStore
	prefix        string
	keepLocal     int
	retentionDays int
	logger        Logger
	now           func() time.Time
}

func NewCleanup(
	artifacts domain.ArtifactStore,
	store domain.ObjectStore,
	prefix string,
	keepLocal int,
	retentionDays int,
	logger Logger,
) *Cleanup {
	return &Cleanup{
		artifacts:     artifacts,
		store:         store,
		prefix:        prefix,
		keepLocal:     keepLocal,
		retentionDays: retentionDays,
		logger:        logger,
		now:           time.Now,
	}
}

// Execute prunes leftover local archives and, when a retention period is
// set, deletes remote backups older than it. Both run even if one fails.
func (uc *Cleanup) Execute(ctx context.Context) error {
	uc.logger.Infof("Starting cleanup, keep local: %d, retention: %d days", uc.keepLocal, uc.retentionDays)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := uc.cleanupLocal(); err != nil {
			uc.logger.Errorf("Local cleanup failed: %v", err)
			record(err)
		}
	}()

	if uc.retentionDays > 0 && uc.store != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cutoff := uc.now().AddDate(0, 0, -uc.retentionDays)
			if err := uc.cleanupRemote(ctx, cutoff); err != nil {
				uc.logger.Errorf("Remote cleanup failed: %v", err)
				record(err)
			}
		}()
	}

	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	uc.logger.Infof("Cleanup completed")
	return nil
}

// cleanupLocal always spares the newest archive, which may belong to a
// backup that is still compressing or uploading.
func (uc *Cleanup) cleanupLocal() error {
	keep := max(uc.keepLocal, 1)
	deleted, err := uc.artifacts.Prune(archivePattern, keep)
	if err != nil {
		return fmt.Errorf("prune local archives: %w", err)
	}
	uc.logger.Infof("Deleted %d old local archive(s)", deleted)
	return nil
}

func (uc *Cleanup) cleanupRemote(ctx context.Context, cutoff time.Time) error {
	objects, err := uc.store.List(ctx, uc.prefix)
	if err != nil {
		return fmt.Errorf("list remote backups: %w", err)
	}

	deleted := 0
	for _, obj := range objects {
		modified := obj.LastModified
		if modified.IsZero() {
			modified, err = extractTimestamp(obj.Key)
			if err != nil {
				uc.logger.Warnf("Could not determine age of %s: %v", obj.Key, err)
				continue
			}
		}
		if !modified.Before(cutoff) {
			continue
		}

		uc.logger.Infof("Deleting old backup from S3: %s", obj.Key)
		if err := uc.store.Delete(ctx, obj.Key); err != nil {
			uc.logger.Errorf("Failed to delete %s: %v", obj.Key, err)
			continue
		}
		deleted++
	}

	uc.logger.Infof("Deleted %d old backup(s) from S3", deleted)
	return nil
}

// extractTimestamp reads the YYYYMMDD_HHMMSS stamp embedded in archive names.
func extractTimestamp(name string) (time.Time, error) {
	matches := timestampPattern.FindStringSubmatch(name)
	if len(matches) < 3 {
		return time.Time{}, fmt.Errorf("invalid filename format: no timestamp found")
	}
	return time.Parse("20060102_150405", matches[1]+"_"+matches[2])
}
