package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/djmitche/mapper/pkg/domain/model"
)

// LoggingMiddleware returns a middleware that logs HTTP requests
func LoggingMiddleware(ctx context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := ctxlog.From(ctx)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware requires a matching bearer token on every request.
func AuthMiddleware(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				handleError(w, r, goerr.New("invalid or missing auth token",
					goerr.T(model.ErrTagUnauthorized)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusOf maps a tagged domain error to its HTTP status code.
func statusOf(err error) int {
	switch {
	case goerr.HasTag(err, model.ErrTagNotFound):
		return http.StatusNotFound
	case goerr.HasTag(err, model.ErrTagBadRequest):
		return http.StatusBadRequest
	case goerr.HasTag(err, model.ErrTagConflict):
		return http.StatusConflict
	case goerr.HasTag(err, model.ErrTagUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// handleError logs err, reports unexpected failures to Sentry, and writes
// the mapped status code.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := ctxlog.From(r.Context())

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "path", r.URL.Path)
		sentry.CaptureException(err)
	} else {
		logger.Warn("Request rejected", "error", err, "status", status, "path", r.URL.Path)
	}

	writeError(w, err, status)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	}); err != nil {
		// Can't get context here, so use background context
		ctxlog.From(context.Background()).Error("Failed to encode error response", "error", err)
	}
}

// writeJSON writes a JSON success response
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}
