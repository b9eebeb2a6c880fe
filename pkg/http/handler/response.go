package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/command"
	"github.com/yurykabanov/backup-server/pkg/domain"
)

type failureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger logrus.FieldLogger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	err := enc.Encode(v)
	if err != nil {
		logger.WithError(err).Error("Unable to encode response")
	}
}

// writeFailure maps err onto a status code. Validation failures are
// reported by their reason, everything else by message plus diagnostics.
func writeFailure(w http.ResponseWriter, logger logrus.FieldLogger, message string, err error) {
	var validationErr *domain.ValidationError
	var execErr *command.ExecutionError

	switch {
	case errors.As(err, &validationErr):
		logger.WithError(err).Warn("Rejected invalid request")
		writeJSON(w, logger, http.StatusBadRequest, failureResponse{Message: validationErr.Reason})

	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, logger, http.StatusNotFound, failureResponse{Message: "File not found"})

	case errors.As(err, &execErr):
		logger.WithError(err).WithField("exit_code", execErr.ExitCode).Error(message)
		writeJSON(w, logger, http.StatusInternalServerError, failureResponse{Message: message, Error: execErr.Diagnostic()})

	default:
		logger.WithError(err).Error(message)
		writeJSON(w, logger, http.StatusInternalServerError, failureResponse{Message: message, Error: err.Error()})
	}
}
