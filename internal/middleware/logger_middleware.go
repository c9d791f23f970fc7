package middleware

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
)

func LoggerMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			device := GetDeviceID(r)
			if device == "" {
				device = "unknown"
			}

			level := slog.LevelInfo
			if m.Code >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.Log(r.Context(), level, "handled",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", m.Code,
				"duration", m.Duration,
				"bytes", m.Written,
				"device", device,
				"request_id", GetRequestID(r),
			)
		})
	}
}
