package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"budgetbuddy/internal/core"
)

// ContextKey type for context keys
type ContextKey string

// RequestIDKey is the context key for the per-request trace id.
const RequestIDKey ContextKey = "request_id"

// withRequestLog adds security headers and structured request logging.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// requireAuth is the single authorization gate in front of every
// protected endpoint: it extracts the bearer token, validates it, and
// resolves the user through whichever backend is currently live. Any
// failure along the way short-circuits with 401 before the handler
// runs.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, core.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "

		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, prefix) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, ok := s.tokens.Validate(strings.TrimSpace(authz[len(prefix):]))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		// Lookup failures of any kind (deleted user, unknown id,
		// backend error) are unauthorized, never a 500.
		user, err := s.store.UserByID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next(w, r, user)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// extractClientIP resolves the caller address, preferring proxy headers.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
