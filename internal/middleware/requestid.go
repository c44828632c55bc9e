package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"docregistry/internal/httputil"
)

// RequestID tags every request with a unique id, echoes it in the response
// headers and logs the request once it completes.
func RequestID(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			start := time.Now()
			next.ServeHTTP(w, httputil.WithRequestID(r, id))

			logger.Debug("request handled",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
