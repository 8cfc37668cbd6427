// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes audits and saved history over a local HTTP API.
//
// # Endpoints
//
//   - POST   /api/audits      - Audit {"statement": "..."}; 201 with the session
//   - GET    /api/audits      - Saved sessions, newest first
//   - GET    /api/audits/{id} - One saved session
//   - DELETE /api/audits      - Clear saved sessions
//   - GET    /health          - Liveness, controller state and key presence
//   - GET    /stats           - Audit counters since start
//
// POST answers 400 for blank or malformed bodies, 401 when no API key is
// available or the provider rejects it, 409 while another audit is running
// and 502 for empty, malformed or failed provider responses.
//
// # Middleware
//
//   - Panic recovery and structured request logging (zap)
//   - Per-IP token bucket rate limiting (golang.org/x/time/rate)
//   - Optional bearer token and IP allowlist
//   - CORS for local development origins
//   - Security headers; request bodies are size-capped
//
// # Usage
//
//	srv := server.New(cfg.Server, ctrl, store).WithLogger(logger)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
