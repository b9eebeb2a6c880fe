package handler

import (
	"context"
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
)

type ArchiveOpener interface {
	OpenArchive(ctx context.Context, fileName string) (*os.File, error)
	ScheduleDeletion(ctx context.Context, fileName string) error
}

type DownloadHandler struct {
	logger  logrus.FieldLogger
	service ArchiveOpener
}

func NewDownloadHandler(logger logrus.FieldLogger, service ArchiveOpener) *DownloadHandler {
	return &DownloadHandler{
		logger:  logger,
		service: service,
	}
}

func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["filename"]

	ctx := appcontext.WithArchive(r.Context(), fileName)
	logger := appcontext.LoggerFromContext(h.logger, ctx)

	f, err := h.service.OpenArchive(ctx, fileName)
	if err != nil {
		writeFailure(w, logger, "Failed to download file", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeFailure(w, logger, "Failed to download file", err)
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	http.ServeContent(w, r, fileName, info.ModTime(), f)

	// whatever the outcome of the transfer, the archive is done with
	if err := r.Context().Err(); err != nil {
		logger.WithError(err).Warn("Download was interrupted")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err = h.service.ScheduleDeletion(ctx, fileName)
	if err != nil {
		logger.WithError(err).Error("Unable to schedule archive deletion")
	}
}
