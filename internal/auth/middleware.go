package auth

import (
	stdErrors "errors"
	"net/http"
	"time"

	loggerpkg "CarrierDesk/pkg/logger"
)

// MiddlewareConfig configures the authentication middleware.
type MiddlewareConfig struct {
	// AuditEvent names the request in audit log entries. Defaults to the
	// request path.
	AuditEvent string
}

// Middleware returns an HTTP middleware enforcing API key auth and writing an
// audit trail of every request.
func (s *Service) Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s == nil || s.mode == ModeDisabled {
				next.ServeHTTP(w, r)
				return
			}
			if err := s.Authenticate(r.Header.Get("Authorization")); err != nil {
				status := http.StatusUnauthorized
				if stdErrors.Is(err, ErrInvalidKey) {
					status = http.StatusForbidden
				}
				http.Error(w, http.StatusText(status), status)
				logger := s.audit
				if logger == nil {
					logger = loggerpkg.Audit()
				}
				logger.Warn("access_denied",
					"path", r.URL.Path,
					"method", r.Method,
					"status", status,
					"error", err.Error(),
				)
				return
			}

			start := time.Now()
			aw := &auditWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(aw, r)
			event := cfg.AuditEvent
			if event == "" {
				event = r.URL.Path
			}
			logger := s.audit
			if logger == nil {
				logger = loggerpkg.Audit()
			}
			logger.Info("api_request",
				"event", event,
				"method", r.Method,
				"path", r.URL.Path,
				"status", aw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// auditWriter captures the response status for the audit entry.
type auditWriter struct {
	http.ResponseWriter
	status int
}

func (w *auditWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
