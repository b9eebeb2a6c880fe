package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
	"github.com/yurykabanov/backup-server/pkg/domain"
)

const maxDumpRequestBytes = 64 << 10

type Backuper interface {
	Backup(ctx context.Context, database string) (domain.BackupResult, error)
}

type DumpHandler struct {
	logger  logrus.FieldLogger
	service Backuper
}

func NewDumpHandler(logger logrus.FieldLogger, service Backuper) *DumpHandler {
	return &DumpHandler{
		logger:  logger,
		service: service,
	}
}

type dumpRequest struct {
	Database string `json:"database"`
}

type dumpResponse struct {
	Success bool `json:"success"`
	domain.BackupResult
}

func (h *DumpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	// an unreadable body is the same as a body without a database
	var req dumpRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDumpRequestBytes)).Decode(&req); err != nil {
		logger.WithError(err).Debug("Unable to decode dump request")
	}

	result, err := h.service.Backup(r.Context(), req.Database)
	if err != nil {
		writeFailure(w, appcontext.LoggerFromContext(h.logger, appcontext.WithDatabase(r.Context(), req.Database)), "Failed to backup database", err)
		return
	}

	writeJSON(w, logger, http.StatusOK, dumpResponse{Success: true, BackupResult: result})
}
