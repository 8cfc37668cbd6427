// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/auditor"
	"github.com/jeranaias/auditlogic/internal/config"
	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/storage"
	"github.com/jeranaias/auditlogic/internal/util"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the loopback listen address.
	DefaultAddr = "127.0.0.1:8787"

	// DefaultMaxBodyBytes caps POST bodies when the config leaves it unset.
	DefaultMaxBodyBytes = 64 * 1024

	// Version is the API version reported by /health.
	Version = "1.0.0"
)

// Error codes carried in the JSON error envelope.
const (
	codeInvalidRequest    = "invalid_request"
	codeBodyTooLarge      = "body_too_large"
	codeCredentialMissing = "credential_missing"
	codeAuditInFlight     = "audit_in_flight"
	codeUpstream          = "upstream_error"
	codeNotFound          = "not_found"
	codeStorage           = "storage_error"
	codeUnauthorized      = "unauthorized"
	codeRateLimited       = "rate_limited"
	codeInternal          = "internal_error"
)

// ============================================================================
// SERVER STATS
// ============================================================================

// Stats tracks audit counters since start.
type Stats struct {
	AuditsRequested int64     `json:"audits_requested"`
	AuditsCompleted int64     `json:"audits_completed"`
	AuditsFailed    int64     `json:"audits_failed"`
	AuditsRejected  int64     `json:"audits_rejected"`
	StartTime       time.Time `json:"start_time"`
}

type serverStats struct {
	requested atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
	start     time.Time
}

func (s *serverStats) snapshot() Stats {
	return Stats{
		AuditsRequested: s.requested.Load(),
		AuditsCompleted: s.completed.Load(),
		AuditsFailed:    s.failed.Load(),
		AuditsRejected:  s.rejected.Load(),
		StartTime:       s.start,
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Server exposes the audit controller and history store over HTTP.
type Server struct {
	addr    string
	maxBody int64
	mux     *http.ServeMux
	ctrl    *controller.Controller
	store   storage.HistoryStore
	logger  *zap.Logger
	limiter *RateLimiter
	auth    *AuthConfig
	cors    *CORSConfig
	stats   *serverStats

	mu     sync.Mutex
	server *http.Server
}

// New creates a server. The controller must already be initialised.
func New(cfg config.ServerConfig, ctrl *controller.Controller, store storage.HistoryStore) *Server {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	s := &Server{
		addr:    addr,
		maxBody: maxBody,
		mux:     http.NewServeMux(),
		ctrl:    ctrl,
		store:   store,
		logger:  zap.NewNop(),
		limiter: NewRateLimiter(cfg.RateLimit, cfg.Burst),
		auth:    &AuthConfig{BearerToken: cfg.Token},
		cors:    DefaultCORSConfig(),
		stats:   &serverStats{start: time.Now()},
	}
	s.setupRoutes()
	return s
}

// WithLogger sets the logger.
func (s *Server) WithLogger(logger *zap.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithAuth replaces the authentication configuration.
func (s *Server) WithAuth(auth *AuthConfig) *Server {
	s.auth = auth
	return s
}

// WithCORS replaces the CORS configuration.
func (s *Server) WithCORS(cors *CORSConfig) *Server {
	if cors != nil {
		s.cors = cors
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /api/audits", s.handleCreateAudit)
	s.mux.HandleFunc("GET /api/audits", s.handleListAudits)
	s.mux.HandleFunc("GET /api/audits/{id}", s.handleGetAudit)
	s.mux.HandleFunc("DELETE /api/audits", s.handleClearAudits)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
		CORSMiddleware(s.cors),
		RateLimitMiddleware(s.limiter, s.logger),
		AuthMiddleware(s.auth, s.logger),
	)(s.mux)
}

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// CreateAuditRequest is the POST /api/audits body.
type CreateAuditRequest struct {
	Statement string `json:"statement"`
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	State         string `json:"state"`
	Credential    bool   `json:"credential"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ============================================================================
// AUDIT HANDLERS
// ============================================================================

// handleCreateAudit handles POST /api/audits.
func (s *Server) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	s.stats.requested.Add(1)

	// SECURITY: bound the body before decoding.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req CreateAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.stats.rejected.Add(1)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "Request body is too large.")
			return
		}
		s.logger.Debug("invalid audit request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Request body must be JSON with a statement field.")
		return
	}

	if strings.TrimSpace(req.Statement) == "" {
		s.stats.rejected.Add(1)
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Statement must not be empty.")
		return
	}

	if !s.ctrl.RecheckCredential() {
		s.stats.rejected.Add(1)
		writeError(w, http.StatusUnauthorized, codeCredentialMissing, auditor.MsgCredentialMissing)
		return
	}

	session, err := s.ctrl.SubmitSession(r.Context(), req.Statement)
	if err != nil {
		s.writeAuditError(w, err)
		return
	}

	s.stats.completed.Add(1)
	s.logger.Info("audit completed",
		zap.String("id", session.ID),
		zap.String("risk", string(session.Result.RiskAssessment.Level)),
		zap.String("preview", util.TruncateRunes(session.Preview(), 40)),
	)
	writeJSON(w, http.StatusCreated, session)
}

// writeAuditError maps controller and auditor failures onto status codes.
func (s *Server) writeAuditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, controller.ErrNotReady):
		s.stats.rejected.Add(1)
		writeError(w, http.StatusConflict, codeAuditInFlight, "Another audit is already running.")

	case errors.Is(err, auditor.ErrCredentialMissing):
		s.stats.failed.Add(1)
		writeError(w, http.StatusUnauthorized, codeCredentialMissing, auditor.UserMessage(err))

	case errors.Is(err, controller.ErrSaveFailed):
		s.stats.failed.Add(1)
		s.logger.Error("audit could not be saved", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeStorage, "The audit finished but could not be saved.")

	default:
		s.stats.failed.Add(1)
		s.logger.Warn("audit failed", zap.Stringer("kind", auditor.KindOf(err)), zap.Error(err))
		writeError(w, http.StatusBadGateway, codeUpstream, auditor.UserMessage(err))
	}
}

// handleListAudits handles GET /api/audits.
func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.GetAllAudits(r.Context())
	if err != nil {
		s.logger.Error("failed to list audits", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeStorage, "Could not load saved audits.")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// handleGetAudit handles GET /api/audits/{id}.
func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.store.GetAudit(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "No audit with that id.")
			return
		}
		s.logger.Error("failed to load audit", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeStorage, "Could not load the audit.")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleClearAudits handles DELETE /api/audits.
func (s *Server) handleClearAudits(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.ClearHistory(r.Context()); err != nil {
		s.logger.Error("failed to clear audits", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeStorage, "Could not clear saved audits.")
		return
	}
	s.logger.Info("audit history cleared")
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// HEALTH AND STATS
// ============================================================================

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.ctrl.Snapshot()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       Version,
		State:         snap.State.String(),
		Credential:    snap.CredentialAvailable,
		UptimeSeconds: int64(time.Since(s.stats.start).Seconds()),
	})
}

// handleStats handles GET /stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.snapshot())
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Audits can take minutes; the write deadline covers the whole call.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("server start", zap.String("addr", ln.Addr().String()), zap.String("version", Version))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Info("server shutdown")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{
		Message: message,
		Type:    code,
		Code:    status,
	}})
}
