package domain

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
)

type cron interface {
	AddFunc(spec string, cmd func()) error
	Start()
	Stop()
}

type JanitorConfig struct {
	DownloadsDir string
	Schedule     string

	// Archives never downloaded are reaped after MaxAge, zero keeps them forever
	MaxAge time.Duration
}

// ArchiveJanitor removes archives from the downloads area once they are due:
// served archives after their deletion delay, and optionally archives
// nobody came for.
type ArchiveJanitor struct {
	logger logrus.FieldLogger
	config JanitorConfig

	repo ArchiveRepository
	cron cron

	sweeping sync.Mutex
}

func NewArchiveJanitor(logger logrus.FieldLogger, config JanitorConfig, repo ArchiveRepository, cron cron) *ArchiveJanitor {
	return &ArchiveJanitor{
		logger: logger,
		config: config,
		repo:   repo,
		cron:   cron,
	}
}

func (j *ArchiveJanitor) Run() error {
	err := j.cron.AddFunc(j.config.Schedule, func() {
		j.Sweep(context.Background(), time.Now())
	})
	if err != nil {
		return err
	}

	j.logger.WithField("spec", j.config.Schedule).Debug("Starting archive janitor")
	j.cron.Start()

	return nil
}

func (j *ArchiveJanitor) Stop() {
	j.cron.Stop()
}

func (j *ArchiveJanitor) Sweep(ctx context.Context, now time.Time) {
	// a slow sweep must not pile up with the next tick
	if !j.sweeping.TryLock() {
		return
	}
	defer j.sweeping.Unlock()

	due, err := j.repo.FindDueForDeletion(ctx, now)
	if err != nil {
		j.logger.WithError(err).Error("Unable to query archives due for deletion")
	}

	if j.config.MaxAge > 0 {
		stale, err := j.repo.FindNotDownloadedBefore(ctx, now.Add(-j.config.MaxAge))
		if err != nil {
			j.logger.WithError(err).Error("Unable to query stale archives")
		}

		if len(stale) > 0 {
			j.logger.WithField("total_stale_archives", len(stale)).Info("Reaping archives that were never downloaded")
		}

		due = append(due, stale...)
	}

	for _, archive := range due {
		j.remove(ctx, archive, now)
	}
}

func (j *ArchiveJanitor) remove(ctx context.Context, archive Archive, now time.Time) {
	ctx = appcontext.WithArchive(appcontext.WithDatabase(ctx, archive.Database), archive.FileName)
	logger := appcontext.LoggerFromContext(j.logger, ctx)

	err := os.Remove(filepath.Join(j.config.DownloadsDir, archive.FileName))
	if err != nil && !os.IsNotExist(err) {
		logger.WithError(err).Warn("Unable to delete archive")
		return
	}

	err = j.repo.MarkDeleted(ctx, archive.Id, now)
	if err != nil {
		logger.WithError(err).Error("Unable to mark archive deleted")
		return
	}

	logger.Debug("Archive deleted")
}
