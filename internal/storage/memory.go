// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/jeranaias/auditlogic/internal/model"
)

// MemoryStore is a process-local store. Nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]model.AuditSession

	// FailSave, when set, is returned by SaveAudit. Tests use it to
	// exercise persistence failures.
	FailSave error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]model.AuditSession)}
}

// SaveAudit stores a copy of the session.
func (s *MemoryStore) SaveAudit(ctx context.Context, session model.AuditSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSave != nil {
		return s.FailSave
	}
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("%s: %w", session.ID, ErrDuplicateID)
	}
	session.Result = session.Result.Clone()
	s.sessions[session.ID] = session
	return nil
}

// GetAllAudits returns copies of every session, newest first.
func (s *MemoryStore) GetAllAudits(ctx context.Context) ([]model.AuditSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]model.AuditSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		session.Result = session.Result.Clone()
		sessions = append(sessions, session)
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

// GetAudit returns a copy of one session.
func (s *MemoryStore) GetAudit(ctx context.Context, id string) (model.AuditSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return model.AuditSession{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	session.Result = session.Result.Clone()
	return session, nil
}

// ClearAllAudits drops every session.
func (s *MemoryStore) ClearAllAudits(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]model.AuditSession)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
