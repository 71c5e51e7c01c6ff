package app

import (
	"context"
	"fmt"

	"github.com/semmidev/mongobak/internal/adapter/compressor"
	"github.com/semmidev/mongobak/internal/adapter/database"
	"github.com/semmidev/mongobak/internal/adapter/notifier"
	"github.com/semmidev/mongobak/internal/adapter/storage"
	"github.com/semmidev/mongobak/internal/config"
	"github.com/semmidev/mongobak/internal/domain"
	"github.com/semmidev/mongobak/internal/infrastructure/logger"
	"github.com/semmidev/mongobak/internal/infrastructure/scheduler"
	"github.com/semmidev/mongobak/internal/usecase"
)

const cleanupSchedule = "0 0 3 * * *"

type App struct {
	config    *config.Config
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	artifacts *storage.LocalStorage
	sink      domain.ProgressSink
	backupUC  *usecase.Backup
	cleanupUC *usecase.Cleanup
	inspectUC *usecase.Inspect
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)

	method, err := domain.ParseCompression(cfg.Backup.Compression)
	if err != nil {
		return nil, err
	}

	maxSize, err := compressor.ParseSize(cfg.Mongo.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("mongo.max_size: %w", err)
	}

	artifacts, err := storage.NewLocal(cfg.Backup.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	s3Store, err := storage.NewS3(&cfg.Storage, log.Named("s3"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3: %w", err)
	}
	log.Infof("✓ AWS S3 upload enabled (bucket: %s, region: %s)", cfg.Storage.Bucket, cfg.Storage.Region)

	connector := database.NewMongo(&cfg.Mongo, log.Named("mongo"))
	dumper := database.NewMongoDumper(
		cfg.Mongo.DumpTool,
		method,
		compressor.New(),
		artifacts.GenerateName,
		log.Named("dump"),
	)

	return &App{
		config:    cfg,
		logger:    log,
		scheduler: scheduler.New(log.Named("scheduler")),
		artifacts: artifacts,
		sink:      initializeSink(cfg, log),
		backupUC:  usecase.NewBackup(connector, dumper, s3Store, artifacts, log),
		cleanupUC: usecase.NewCleanup(
			artifacts,
			s3Store,
			cfg.Storage.Prefix,
			cfg.Backup.KeepLocal,
			cfg.Backup.RetentionDays,
			log,
		),
		inspectUC: usecase.NewInspect(connector, maxSize, log),
	}, nil
}

// initializeSink always logs progress and adds Telegram when configured.
// A Telegram setup failure is logged and the run falls back to the log.
func initializeSink(cfg *config.Config, log *logger.Logger) domain.ProgressSink {
	logSink := notifier.NewLog(log.Named("progress"))
	if !cfg.Notify.Telegram.Enabled {
		return logSink
	}

	tg, err := notifier.NewTelegram(&cfg.Notify.Telegram, log.Named("telegram"))
	if err != nil {
		log.Errorf("Failed to initialize Telegram: %v", err)
		return logSink
	}
	log.Infof("✓ Telegram notifications enabled")
	return notifier.Multi(logSink, tg)
}

// Run schedules the nightly backup and the daily cleanup and blocks until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.config.Backup.Nightly {
		a.logger.Infof("Scheduling nightly backup: %s", a.config.Backup.Schedule)
		if err := a.scheduler.AddJob("backup", a.config.Backup.Schedule, func(ctx context.Context) error {
			_, err := a.RunOnce(ctx)
			return err
		}); err != nil {
			return fmt.Errorf("failed to schedule backup: %w", err)
		}
	} else {
		a.logger.Warnf("Nightly backups are disabled")
	}

	a.logger.Infof("Scheduling cleanup: %s", cleanupSchedule)
	if err := a.scheduler.AddJob("cleanup", cleanupSchedule, a.cleanupUC.Execute); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	a.scheduler.Start()
	a.logger.Infof("Scheduler started, next run at %s", a.scheduler.Next().Format("2006-01-02 15:04:05"))

	<-ctx.Done()
	return nil
}

// RunOnce performs one backup and announces the summary on success.
func (a *App) RunOnce(ctx context.Context) (*domain.BackupResult, error) {
	a.logDiskUsage()

	result, err := a.backupUC.Execute(ctx, a.sink)
	if err != nil {
		return nil, err
	}

	if err := a.sink.Progress(ctx, notifier.Summary(result)); err != nil {
		a.logger.Warnf("Failed to send backup summary: %v", err)
	}
	return result, nil
}

func (a *App) Check(ctx context.Context) map[string]bool {
	return a.backupUC.TestConnections(ctx)
}

func (a *App) Stats(ctx context.Context) (*domain.DatabaseReport, error) {
	return a.inspectUC.Execute(ctx)
}

func (a *App) logDiskUsage() {
	usage, err := a.artifacts.DiskUsage()
	if err != nil {
		a.logger.Warnf("Could not read disk usage: %v", err)
		return
	}
	a.logger.Infof("Work directory %s: %s free of %s",
		a.artifacts.Dir(),
		compressor.FormatSize(int64(usage.Free)),
		compressor.FormatSize(int64(usage.Total)))
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	a.scheduler.Stop()
	a.logger.Close()
}
