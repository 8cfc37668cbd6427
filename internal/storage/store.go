// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/model"
	"github.com/jeranaias/auditlogic/internal/util"
)

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore persists audit sessions. Sessions are only ever inserted,
// read and cleared as a whole; there is no update path.
type HistoryStore interface {
	// SaveAudit inserts a session. It returns ErrDuplicateID if a session
	// with the same id already exists; existing rows are never overwritten.
	SaveAudit(ctx context.Context, session model.AuditSession) error

	// GetAllAudits returns every session newest first. An empty store
	// yields an empty, non-nil slice. The json backend logs and skips
	// documents it cannot parse.
	GetAllAudits(ctx context.Context) ([]model.AuditSession, error)

	// GetAudit returns a single session or ErrNotFound.
	GetAudit(ctx context.Context, id string) (model.AuditSession, error)

	// ClearAllAudits removes every session.
	ClearAllAudits(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrDuplicateID is returned when saving a session whose id is taken.
	ErrDuplicateID = &StoreError{Message: "audit id already exists"}

	// ErrNotFound is returned when a session id does not exist.
	ErrNotFound = &StoreError{Message: "audit not found"}
)

// StoreError represents a history store error.
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// Is allows errors.Is to match wrapped store errors by message.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// OPEN
// =============================================================================

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMemory = "memory"
)

// Options selects and locates a history backend.
type Options struct {
	// Backend is one of BackendSQLite, BackendJSON or BackendMemory.
	Backend string

	// Path is the database file (sqlite) or directory (json).
	Path string

	// Logger receives warnings from the json backend. Nil discards them.
	Logger *zap.Logger
}

// Open returns the backend named by opts. An empty backend means sqlite.
func Open(opts Options) (HistoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendSQLite:
		return NewSQLiteStore(opts.Path)
	case BackendJSON:
		store, err := NewFileStore(opts.Path)
		if err != nil {
			return nil, err
		}
		return store.WithLogger(opts.Logger), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

// DefaultPath returns the default location for a backend under baseDir.
func DefaultPath(baseDir, backend string) string {
	if backend == BackendJSON {
		return filepath.Join(baseDir, "audits")
	}
	return filepath.Join(baseDir, "audits.db")
}

// =============================================================================
// HELPERS
// =============================================================================

// sortNewestFirst orders sessions by timestamp descending, id ascending.
func sortNewestFirst(sessions []model.AuditSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].NewerThan(sessions[j])
	})
}

// ensureDir creates the directory for a store with owner-only permissions.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// FormatHistoryList renders sessions as a plain-text table for the CLI.
func FormatHistoryList(sessions []model.AuditSession) string {
	if len(sessions) == 0 {
		return "No saved audits found on this device."
	}

	var sb strings.Builder
	sb.WriteString("Audits:\n")
	sb.WriteString("-------------------------------------------------------------------------------\n")
	sb.WriteString(util.PadRight("ID", 10) + " " + util.PadRight("Created", 17) + " " + util.PadRight("Risk", 14) + " Statement\n")
	sb.WriteString("-------------------------------------------------------------------------------\n")

	for _, s := range sessions {
		idStr := s.ID
		if len(idStr) > 8 {
			idStr = idStr[:8]
		}
		created := s.CreatedAt().Format("2006-01-02 15:04")
		risk := s.Result.RiskAssessment.Level.Badge()

		sb.WriteString(util.PadRight(idStr, 10) + " " +
			util.PadRight(created, 17) + " " +
			util.PadRight(risk, 14) + " " +
			util.TruncateWidth(util.SingleLine(s.FounderStatement), 34) + "\n")
	}
	return sb.String()
}
