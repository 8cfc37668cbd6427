// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/auditor"
	"github.com/jeranaias/auditlogic/internal/config"
	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/model"
	"github.com/jeranaias/auditlogic/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// TEST HELPERS
// =============================================================================

type fakeAuditor struct {
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeAuditor) AuditStatement(ctx context.Context, statement string) (*model.AuditResult, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.AuditResult{
		DetectedBiases:    []string{"Confirmation bias"},
		Evidence:          "\"every customer we asked loved it\"",
		ReasoningFlaws:    []string{"Asked only friendly customers"},
		WeakAssumptions:   []string{"Stated intent predicts purchase"},
		CounterHypotheses: []string{"Politeness, not demand"},
		KillCriteria:      []string{"Fewer than 10 pre-orders in 30 days"},
		RiskAssessment:    model.RiskAssessment{Level: model.RiskModerate, Summary: "Demand evidence is self-selected."},
	}, nil
}

type fakeCreds struct {
	available atomic.Bool
}

func (f *fakeCreds) Available() bool                              { return f.available.Load() }
func (f *fakeCreds) HasSelectedCredential() bool                  { return f.available.Load() }
func (f *fakeCreds) OpenCredentialSelector(context.Context) error { return nil }

type fixture struct {
	srv   *Server
	aud   *fakeAuditor
	creds *fakeCreds
	store *storage.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	aud := &fakeAuditor{}
	creds := &fakeCreds{}
	creds.available.Store(true)
	store := storage.NewMemoryStore()

	ctrl := controller.New(aud, store, creds)
	require.NoError(t, ctrl.Init(context.Background()))

	cfg := config.ServerConfig{RateLimit: 1000, Burst: 1000, MaxBodyBytes: 4096}
	srv := New(cfg, ctrl, store).WithLogger(zap.NewNop())
	return &fixture{srv: srv, aud: aud, creds: creds, store: store}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

// =============================================================================
// POST /api/audits
// =============================================================================

func TestCreateAudit_Success(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/audits", `{"statement":"Everyone loves it."}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session model.AuditSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Everyone loves it.", session.FounderStatement)
	assert.Equal(t, model.RiskModerate, session.Result.RiskAssessment.Level)

	stored, err := f.store.GetAudit(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Timestamp, stored.Timestamp)

	assert.Equal(t, int64(1), f.srv.stats.snapshot().AuditsCompleted)
}

func TestCreateAudit_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		typ  string
	}{
		{"blank statement", `{"statement":"   \n"}`, http.StatusBadRequest, codeInvalidRequest},
		{"missing statement", `{}`, http.StatusBadRequest, codeInvalidRequest},
		{"not json", `statement=hi`, http.StatusBadRequest, codeInvalidRequest},
		{"too large", `{"statement":"` + strings.Repeat("a", 5000) + `"}`, http.StatusRequestEntityTooLarge, codeBodyTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(http.MethodPost, "/api/audits", tc.body)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.typ, decodeError(t, rec).Type)

			all, err := f.store.GetAllAudits(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestCreateAudit_NoCredential(t *testing.T) {
	f := newFixture(t)
	f.creds.available.Store(false)

	rec := f.do(http.MethodPost, "/api/audits", `{"statement":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, codeCredentialMissing, decodeError(t, rec).Type)

	// The key reappearing releases the controller without a restart
	f.creds.available.Store(true)
	rec = f.do(http.MethodPost, "/api/audits", `{"statement":"x"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateAudit_AuditorFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		typ  string
		msg  string
	}{
		{
			name: "credential rejected",
			err:  &auditor.Error{Kind: auditor.KindCredentialMissing, Message: auditor.MsgCredentialMissing},
			code: http.StatusUnauthorized,
			typ:  codeCredentialMissing,
			msg:  auditor.MsgCredentialMissing,
		},
		{
			name: "empty response",
			err:  &auditor.Error{Kind: auditor.KindEmptyResponse, Message: auditor.MsgEmptyResponse},
			code: http.StatusBadGateway,
			typ:  codeUpstream,
			msg:  auditor.MsgEmptyResponse,
		},
		{
			name: "malformed response",
			err:  &auditor.Error{Kind: auditor.KindMalformedResponse, Message: auditor.MsgMalformedResponse},
			code: http.StatusBadGateway,
			typ:  codeUpstream,
			msg:  auditor.MsgMalformedResponse,
		},
		{
			name: "transport",
			err:  errors.New("connection reset"),
			code: http.StatusBadGateway,
			typ:  codeUpstream,
			msg:  auditor.MsgTransportFailure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.aud.err = tc.err

			rec := f.do(http.MethodPost, "/api/audits", `{"statement":"x"}`)
			assert.Equal(t, tc.code, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, tc.typ, detail.Type)
			assert.Equal(t, tc.msg, detail.Message)
		})
	}
}

func TestCreateAudit_SaveFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailSave = errors.New("disk full")

	rec := f.do(http.MethodPost, "/api/audits", `{"statement":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, codeStorage, decodeError(t, rec).Type)
}

func TestCreateAudit_ClientGoneStillSaves(t *testing.T) {
	f := newFixture(t)
	f.aud.started = make(chan struct{})
	f.aud.release = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/audits", strings.NewReader(`{"statement":"Ship it"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.srv.Handler().ServeHTTP(httptest.NewRecorder(), req)
	}()

	<-f.aud.started
	cancel()
	close(f.aud.release)
	<-done

	saved, err := f.store.GetAllAudits(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Ship it", saved[0].FounderStatement)
}

func TestCreateAudit_ConflictWhileInFlight(t *testing.T) {
	f := newFixture(t)
	f.aud.started = make(chan struct{})
	f.aud.release = make(chan struct{})

	first := make(chan int, 1)
	go func() {
		first <- f.do(http.MethodPost, "/api/audits", `{"statement":"first"}`).Code
	}()
	<-f.aud.started

	rec := f.do(http.MethodPost, "/api/audits", `{"statement":"second"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeAuditInFlight, decodeError(t, rec).Type)

	close(f.aud.release)
	assert.Equal(t, http.StatusCreated, <-first)
}

// =============================================================================
// HISTORY ENDPOINTS
// =============================================================================

func TestListGetAndClear(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/audits", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, stmt := range []string{"one", "two"} {
		require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/audits", `{"statement":"`+stmt+`"}`).Code)
	}

	rec = f.do(http.MethodGet, "/api/audits", "")
	var sessions []model.AuditSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Timestamp >= sessions[1].Timestamp)

	rec = f.do(http.MethodGet, "/api/audits/"+sessions[1].ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var one model.AuditSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, sessions[1].ID, one.ID)

	rec = f.do(http.MethodGet, "/api/audits/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodDelete, "/api/audits", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/api/audits", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPut, "/api/audits", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// =============================================================================
// HEALTH AND STATS
// =============================================================================

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "Idle", health.State)
	assert.True(t, health.Credential)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/api/audits", `{"statement":""}`)
	f.do(http.MethodPost, "/api/audits", `{"statement":"ok"}`)

	rec := f.do(http.MethodGet, "/stats", "")
	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.AuditsRequested)
	assert.Equal(t, int64(1), stats.AuditsRejected)
	assert.Equal(t, int64(1), stats.AuditsCompleted)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestSecurityHeaders(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)
	f.srv.WithAuth(&AuthConfig{BearerToken: "s3cret"})

	rec := f.do(http.MethodGet, "/api/audits", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/audits", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	ok := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code, "health stays open")
}

func TestAuthConfig_IPAllowlist(t *testing.T) {
	cfg := &AuthConfig{AllowedIPs: []string{"10.0.0.0/8", "192.0.2.1", "not-an-ip"}}
	logger := zap.NewNop()

	assert.True(t, cfg.isIPAllowed("10.1.2.3", logger))
	assert.True(t, cfg.isIPAllowed("192.0.2.1", logger))
	assert.False(t, cfg.isIPAllowed("192.0.2.2", logger))
	assert.False(t, cfg.isIPAllowed("garbage", logger))
}

func TestValidateBearerToken(t *testing.T) {
	assert.True(t, ValidateBearerToken("abc", "abc"))
	assert.False(t, ValidateBearerToken("abd", "abc"))
	assert.False(t, ValidateBearerToken("", ""))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst exhausted")
	assert.True(t, rl.Allow("b"), "buckets are per client")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled")
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < sweepThreshold; i++ {
		rl.Allow(net.IPv4(10, 0, byte(i>>8), byte(i)).String())
	}
	require.Equal(t, sweepThreshold, rl.Clients())

	now = now.Add(clientIdleTTL + time.Second)
	rl.Allow("192.0.2.10")
	assert.Equal(t, 1, rl.Clients())
}

func TestRateLimitMiddleware(t *testing.T) {
	f := newFixture(t)
	f.srv.limiter = NewRateLimiter(0.001, 1)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "").Code)
	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/audits", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.5:4000", "", "203.0.113.5"},
		{"untrusted proxy ignored", "203.0.113.5:4000", "198.51.100.1", "203.0.113.5"},
		{"trusted proxy honoured", "127.0.0.1:4000", "198.51.100.1, 10.0.0.1", "198.51.100.1"},
		{"invalid forwarded value", "127.0.0.1:4000", "nonsense", "127.0.0.1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			assert.Equal(t, tc.want, GetClientIP(req))
		})
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestServeAndShutdown(t *testing.T) {
	f := newFixture(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- f.srv.Serve(ln) }()

	client := &http.Client{Timeout: 5 * time.Second}
	defer client.CloseIdleConnections()

	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.srv.Shutdown(ctx))
	assert.NoError(t, <-served)
}
