package appcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextId int

const (
	databaseKeyId contextId = iota
	archiveKeyId
	requestIdKeyId
)

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKeyId, requestId)
}

func WithDatabase(ctx context.Context, database string) context.Context {
	return context.WithValue(ctx, databaseKeyId, database)
}

func WithArchive(ctx context.Context, fileName string) context.Context {
	return context.WithValue(ctx, archiveKeyId, fileName)
}

func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestId, _ := ctx.Value(requestIdKeyId).(string)
	return requestId
}

func LoggerFromContext(logger logrus.FieldLogger, ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	result := logger

	if ctxDatabase, ok := ctx.Value(databaseKeyId).(string); ok && ctxDatabase != "" {
		result = result.WithField("database", ctxDatabase)
	}

	if ctxArchive, ok := ctx.Value(archiveKeyId).(string); ok && ctxArchive != "" {
		result = result.WithField("archive", ctxArchive)
	}

	if ctxRequestId, ok := ctx.Value(requestIdKeyId).(string); ok && ctxRequestId != "" {
		result = result.WithField("request_id", ctxRequestId)
	}

	return result
}
