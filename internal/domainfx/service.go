package domainfx

import (
	"context"

	docker "github.com/docker/docker/client"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/yurykabanov/backup-server/pkg/archive"
	"github.com/yurykabanov/backup-server/pkg/command"
	"github.com/yurykabanov/backup-server/pkg/domain"
	"github.com/yurykabanov/backup-server/pkg/staging"
	"github.com/yurykabanov/backup-server/pkg/upload"
)

const (
	ConfigMongoContainer     = "mongo.container"
	ConfigMongoShell         = "mongo.shell"
	ConfigScriptPath         = "script.path"
	ConfigScriptDir          = "script.dir"
	ConfigScriptTimeout      = "script.timeout"
	ConfigDataDirectory      = "storage.data_dir"
	ConfigDownloadsDirectory = "storage.downloads_dir"
	ConfigUploadsDirectory   = "storage.uploads_dir"
	ConfigUploadMaxFormValue = "upload.max_form_value"
	ConfigDownloadDelay      = "download.delete_delay"
)

type Runners struct {
	fx.Out

	Script command.Runner `name:"script"`
	Shell  command.Runner `name:"shell"`
}

// CommandRunners provides the local runner for the backup script and the
// container runner for the database shell.
func CommandRunners(logger *logrus.Logger, v *viper.Viper, client *docker.Client) Runners {
	return Runners{
		Script: command.NewLocal(logger),
		Shell:  command.NewContainer(logger, client, v.GetString(ConfigMongoContainer)),
	}
}

func StagingStore(lc fx.Lifecycle, v *viper.Viper) (*staging.Store, domain.StagingStore) {
	store := staging.New(v.GetString(ConfigDataDirectory))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.EnsureRoot()
		},
	})

	return store, store
}

func ArchiveBuilder() domain.ArchiveBuilder {
	return archive.New()
}

func UploadIntake(logger *logrus.Logger, store *staging.Store) domain.UploadIntake {
	return upload.NewIntake(logger, store)
}

func Spooler(v *viper.Viper) *upload.Spooler {
	return upload.NewSpooler(v.GetString(ConfigUploadsDirectory), v.GetInt64(ConfigUploadMaxFormValue))
}

func ServiceConfigProvider(v *viper.Viper) domain.ServiceConfig {
	return domain.ServiceConfig{
		ScriptPath:    v.GetString(ConfigScriptPath),
		ScriptDir:     v.GetString(ConfigScriptDir),
		ScriptTimeout: v.GetDuration(ConfigScriptTimeout),
		MongoShell:    v.GetString(ConfigMongoShell),
		DownloadsDir:  v.GetString(ConfigDownloadsDirectory),
		DeleteDelay:   v.GetDuration(ConfigDownloadDelay),
	}
}

type BackupServiceParams struct {
	fx.In

	Logger   *logrus.Logger
	Config   domain.ServiceConfig
	Script   command.Runner `name:"script"`
	Shell    command.Runner `name:"shell"`
	Staging  domain.StagingStore
	Archiver domain.ArchiveBuilder
	Intake   domain.UploadIntake
	Repo     domain.ArchiveRepository
}

func BackupService(p BackupServiceParams) *domain.BackupService {
	return domain.NewBackupService(p.Logger, p.Config, p.Script, p.Shell, p.Staging, p.Archiver, p.Intake, p.Repo)
}
