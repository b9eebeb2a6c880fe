package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/yurykabanov/backup-server/pkg/appcontext"
)

const RequestIdHeader = "X-Request-Id"

func WithRequestId(next http.Handler, nextRequestId func() string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get(RequestIdHeader)

		if requestId == "" {
			requestId = nextRequestId()
		}

		ctx := appcontext.WithRequestId(r.Context(), requestId)

		w.Header().Set(RequestIdHeader, requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func DefaultRequestIdProvider() string {
	return uuid.New().String()
}
