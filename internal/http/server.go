// Package http exposes the JSON API: registration and login, activity CRUD,
// balances, dashboard reports, category metadata and CSV export.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"fincontrol/internal/auth"
	"fincontrol/internal/core"
	applog "fincontrol/internal/log"
	"fincontrol/internal/services"
)

// Server wraps the standard http.Server with the service layer and the
// security middleware state.
type Server struct {
	httpServer *http.Server

	users      *services.UserService
	activities *services.ActivityService
	dashboard  *services.DashboardService
	export     *services.ExportService
	tokens     *auth.TokenService
	catalog    core.Catalog

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	reqLog       *applog.StructuredLogger
	shutdownOnce sync.Once
}

// NewServer builds the server and registers every route.
func NewServer(
	addr string,
	users *services.UserService,
	activities *services.ActivityService,
	dashboard *services.DashboardService,
	export *services.ExportService,
	tokens *auth.TokenService,
	catalog core.Catalog,
	rateLimitPerMinute int,
) *Server {
	httpLogger := applog.New(applog.Config{Component: applog.ComponentHTTP})

	s := &Server{
		users:       users,
		activities:  activities,
		dashboard:   dashboard,
		export:      export,
		tokens:      tokens,
		catalog:     catalog,
		rateLimiter: newRateLimiter(rateLimitPerMinute),
		metrics:     &securityMetrics{},
		reqLog:      applog.NewStructuredLogger(httpLogger),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.withSecurityHeaders(s.handleHealth))
	mux.HandleFunc("GET /readyz", s.withSecurityHeaders(s.handleReady))

	mux.HandleFunc("POST /api/auth/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withSecurityHeaders(s.handleLogin))

	mux.HandleFunc("GET /api/me", s.withSecurityHeaders(s.requireAuth(s.handleMe)))
	mux.HandleFunc("GET /api/categories", s.withSecurityHeaders(s.handleListCategories))

	mux.HandleFunc("POST /api/activities", s.withSecurityHeaders(s.requireAuth(s.handleCreateActivity)))
	mux.HandleFunc("GET /api/activities", s.withSecurityHeaders(s.requireAuth(s.handleListActivities)))
	mux.HandleFunc("GET /api/activities/{id}", s.withSecurityHeaders(s.requireAuth(s.handleGetActivity)))
	mux.HandleFunc("PUT /api/activities/{id}", s.withSecurityHeaders(s.requireAuth(s.handleUpdateActivity)))
	mux.HandleFunc("DELETE /api/activities/{id}", s.withSecurityHeaders(s.requireAuth(s.handleDeleteActivity)))

	mux.HandleFunc("GET /api/balance", s.withSecurityHeaders(s.requireAuth(s.handleBalance)))
	mux.HandleFunc("GET /api/balance/categories", s.withSecurityHeaders(s.requireAuth(s.handleBalanceByCategory)))

	mux.HandleFunc("GET /api/dashboard", s.withSecurityHeaders(s.requireAuth(s.handleDashboard)))
	mux.HandleFunc("GET /api/dashboard/categories/{category}", s.withSecurityHeaders(s.requireAuth(s.handleCategorySummary)))

	mux.HandleFunc("GET /api/export/csv", s.withSecurityHeaders(s.requireAuth(s.handleExportCSV)))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      applog.Middleware(httpLogger)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	slog.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

// Handler exposes the routed handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// withSecurityHeaders is the outer middleware on every route: client IP
// extraction, request IDs, rate limiting on mutating methods, security
// headers and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		if detectSuspiciousRequest(r, s.metrics) {
			slog.Warn("Suspicious request detected",
				"request_id", requestID,
				"client_ip", clientIP,
				"method", r.Method,
				"path", r.URL.Path)
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.Warn("Rate limit exceeded",
				"request_id", requestID,
				"client_ip", clientIP,
				"path", r.URL.Path)
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Request-ID", requestID)

		s.reqLog.LogHTTPStart(r.Context(), r, clientIP, requestID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(wrapped, r)

		s.reqLog.LogHTTPEnd(r.Context(), r, wrapped.statusCode,
			time.Since(start).Milliseconds(), clientIP, requestID)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type contextKey string

const userIDKey contextKey = "user_id"

// requireAuth validates the bearer token and stores the user ID in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ready")
}
