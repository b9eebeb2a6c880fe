package handler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
)

type DatabaseLister interface {
	ListDatabases(context.Context) ([]string, error)
}

type DatabasesHandler struct {
	logger  logrus.FieldLogger
	service DatabaseLister
}

func NewDatabasesHandler(logger logrus.FieldLogger, service DatabaseLister) *DatabasesHandler {
	return &DatabasesHandler{
		logger:  logger,
		service: service,
	}
}

type databasesResponse struct {
	Success   bool     `json:"success"`
	Databases []string `json:"databases"`
}

func (h *DatabasesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	databases, err := h.service.ListDatabases(r.Context())
	if err != nil {
		writeFailure(w, logger, "Failed to list databases", err)
		return
	}

	writeJSON(w, logger, http.StatusOK, databasesResponse{Success: true, Databases: databases})
}
