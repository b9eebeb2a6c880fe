package domainfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(CommandRunners),
	fx.Provide(StagingStore),
	fx.Provide(ArchiveBuilder),
	fx.Provide(UploadIntake),
	fx.Provide(Spooler),
	fx.Provide(ServiceConfigProvider),
	fx.Provide(BackupService),

	fx.Provide(NewCron),
	fx.Provide(JanitorConfigProvider),
	fx.Provide(ArchiveJanitor),
	fx.Invoke(RunArchiveJanitor),
)
