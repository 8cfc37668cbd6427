// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/model"
	"github.com/jeranaias/auditlogic/internal/util"
)

// FileStore keeps one JSON document per session in a directory.
// It suits users who want their history greppable and diffable.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewFileStore creates a store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, errors.New("storage directory cannot be empty")
	}
	if err := ensureDir(baseDir); err != nil {
		return nil, err
	}
	return &FileStore{baseDir: baseDir, logger: zap.NewNop()}, nil
}

// WithLogger sets the logger used to report skipped documents.
func (s *FileStore) WithLogger(logger *zap.Logger) *FileStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SaveAudit writes the session to <id>.json without replacing existing files.
func (s *FileStore) SaveAudit(ctx context.Context, session model.AuditSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.filePath(session.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal audit: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// RELIABILITY: exclusive create so a duplicate id never clobbers history
	if err := util.WriteFileExclusive(path, data, 0600, 0700); err != nil {
		if errors.Is(err, util.ErrFileExists) {
			return fmt.Errorf("%s: %w", session.ID, ErrDuplicateID)
		}
		return fmt.Errorf("failed to save audit: %w", err)
	}
	return nil
}

// GetAllAudits reads every document in the directory, newest first.
// Unreadable documents are logged and skipped rather than failing the
// whole listing.
func (s *FileStore) GetAllAudits(ctx context.Context) ([]model.AuditSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.AuditSession{}, nil
		}
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	sessions := make([]model.AuditSession, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		session, err := readSession(path)
		if err != nil {
			s.logger.Warn("skipping unreadable audit document", zap.String("path", path), zap.Error(err))
			continue
		}
		sessions = append(sessions, session)
	}

	sortNewestFirst(sessions)
	return sessions, nil
}

// GetAudit loads a single document.
func (s *FileStore) GetAudit(ctx context.Context, id string) (model.AuditSession, error) {
	path, err := s.filePath(id)
	if err != nil {
		return model.AuditSession{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := readSession(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.AuditSession{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return model.AuditSession{}, err
	}
	return session, nil
}

// ClearAllAudits removes every document.
func (s *FileStore) ClearAllAudits(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read storage directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

// filePath returns the document path for an id.
// SECURITY: ids are rejected if they could escape the base directory.
func (s *FileStore) filePath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid audit id %q", id)
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

func readSession(path string) (model.AuditSession, error) {
	var session model.AuditSession
	data, err := os.ReadFile(path)
	if err != nil {
		return session, err
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return session, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return session, nil
}
