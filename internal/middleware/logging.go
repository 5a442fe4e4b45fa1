package middleware

import (
	"net/http"
	"time"

	"github.com/ibrahim-dwellir/haproxy-collector/pkg/logger"
)

// Logging provides structured request logging for the status endpoints
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			entry := log.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"status_code": wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})

			if wrapped.statusCode >= 500 {
				entry.Error("Request completed with error")
			} else if wrapped.statusCode >= 400 {
				entry.Warn("Request completed with warning")
			} else {
				entry.Info("Request completed")
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
