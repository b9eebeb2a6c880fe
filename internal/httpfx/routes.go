package httpfx

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/domain"
	"github.com/yurykabanov/backup-server/pkg/http/handler"
	"github.com/yurykabanov/backup-server/pkg/upload"
)

type Handlers struct {
	Databases *handler.DatabasesHandler
	Dump      *handler.DumpHandler
	Download  *handler.DownloadHandler
	Restore   *handler.RestoreHandler
	Health    *handler.HealthHandler
}

func NewHandlers(logger *logrus.Logger, service *domain.BackupService, spooler *upload.Spooler) *Handlers {
	return &Handlers{
		Databases: handler.NewDatabasesHandler(logger, service),
		Dump:      handler.NewDumpHandler(logger, service),
		Download:  handler.NewDownloadHandler(logger, service),
		Restore:   handler.NewRestoreHandler(logger, spooler, service),
		Health:    handler.NewHealthHandler(logger),
	}
}

func RegisterRoutes(router *mux.Router, config *HttpServerConfig, h *Handlers) {
	router.Handle("/databases", h.Databases).Methods(http.MethodGet)
	router.Handle("/dump", h.Dump).Methods(http.MethodPost)
	router.Handle("/download/{filename}", h.Download).Methods(http.MethodGet)
	router.Handle("/restore", h.Restore).Methods(http.MethodPost)
	router.Handle("/health", h.Health).Methods(http.MethodGet)

	// Must stay last, it matches everything
	if config.StaticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(config.StaticDir)))
	}
}
