package domainfx

import (
	"context"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/yurykabanov/backup-server/pkg/domain"
)

const (
	ConfigJanitorSchedule = "janitor.schedule"
	ConfigArchiveMaxAge   = "archive.max_age"
)

func NewCron() *cron.Cron {
	return cron.New()
}

func JanitorConfigProvider(v *viper.Viper) domain.JanitorConfig {
	return domain.JanitorConfig{
		DownloadsDir: v.GetString(ConfigDownloadsDirectory),
		Schedule:     v.GetString(ConfigJanitorSchedule),
		MaxAge:       v.GetDuration(ConfigArchiveMaxAge),
	}
}

func ArchiveJanitor(
	logger *logrus.Logger,
	config domain.JanitorConfig,
	repository domain.ArchiveRepository,
	cron *cron.Cron,
) *domain.ArchiveJanitor {
	return domain.NewArchiveJanitor(logger, config, repository, cron)
}

func RunArchiveJanitor(lc fx.Lifecycle, janitor *domain.ArchiveJanitor) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return janitor.Run()
		},
		OnStop: func(ctx context.Context) error {
			janitor.Stop()
			return nil
		},
	})
}
