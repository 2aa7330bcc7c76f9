package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs each request when it finishes. Archive handlers abort
// with a panic, so the log line is written from a defer and the panic is
// passed on untouched.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		completed := false

		defer func() {
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
				"duration", time.Since(start),
				"aborted", !completed,
			)
		}()

		next.ServeHTTP(w, r)
		completed = true
	})
}
