package main

import (
	"time"

	"go.uber.org/fx"

	"github.com/yurykabanov/backup-server/internal/configfx"
	"github.com/yurykabanov/backup-server/internal/dockerfx"
	"github.com/yurykabanov/backup-server/internal/domainfx"
	"github.com/yurykabanov/backup-server/internal/httpfx"
	"github.com/yurykabanov/backup-server/internal/loggerfx"
	"github.com/yurykabanov/backup-server/internal/sqlfx"
)

func main() {
	logger := loggerfx.Logger()

	app := fx.New(
		fx.StartTimeout(15*time.Second),
		fx.StopTimeout(15*time.Second),

		fx.Logger(logger),

		loggerfx.Module,
		configfx.Module,
		sqlfx.Module,
		dockerfx.Module,
		domainfx.Module,
		httpfx.Module,
	)

	app.Run()
}
