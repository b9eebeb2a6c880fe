package handler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
	"github.com/yurykabanov/backup-server/pkg/domain"
	"github.com/yurykabanov/backup-server/pkg/upload"
)

type Restorer interface {
	Restore(ctx context.Context, database string, files []domain.UploadedFile, overrides map[string][]string) (string, error)
}

type RestoreHandler struct {
	logger  logrus.FieldLogger
	spooler *upload.Spooler
	service Restorer
}

func NewRestoreHandler(logger logrus.FieldLogger, spooler *upload.Spooler, service Restorer) *RestoreHandler {
	return &RestoreHandler{
		logger:  logger,
		spooler: spooler,
		service: service,
	}
}

type restoreResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *RestoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	form := &upload.Form{}

	// a request that is not multipart carries neither database nor files
	if mr, err := r.MultipartReader(); err == nil {
		form, err = h.spooler.Spool(mr)
		if err != nil {
			writeFailure(w, logger, "Failed to restore database", err)
			return
		}
	}

	database := form.Value("database")

	message, err := h.service.Restore(r.Context(), database, form.Files, form.Values)
	if err != nil {
		writeFailure(w, appcontext.LoggerFromContext(h.logger, appcontext.WithDatabase(r.Context(), database)), "Failed to restore database", err)
		return
	}

	writeJSON(w, logger, http.StatusOK, restoreResponse{Success: true, Message: message})
}
