package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

type HealthHandler struct {
	logger logrus.FieldLogger
}

func NewHealthHandler(logger logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{logger: logger}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "MongoDB Backup Server is running",
	})
}
