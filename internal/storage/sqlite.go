// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jeranaias/auditlogic/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Schema is applied on every open; all statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS audits (
	id                TEXT PRIMARY KEY,
	timestamp         INTEGER NOT NULL,
	founder_statement TEXT NOT NULL,
	result            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audits_timestamp ON audits(timestamp);
`

// SQLiteStore keeps sessions in a single SQLite table. The result is stored
// as a JSON document alongside the indexed columns.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	if path != ":memory:" {
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// SaveAudit inserts a session, refusing to overwrite an existing id.
func (s *SQLiteStore) SaveAudit(ctx context.Context, session model.AuditSession) error {
	if session.ID == "" {
		return errors.New("audit id cannot be empty")
	}

	result, err := json.Marshal(session.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal audit result: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO audits (id, timestamp, founder_statement, result)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		session.ID, session.Timestamp, session.FounderStatement, string(result))
	if err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save audit: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", session.ID, ErrDuplicateID)
	}
	return nil
}

// GetAllAudits returns every session, newest first.
func (s *SQLiteStore) GetAllAudits(ctx context.Context) ([]model.AuditSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, founder_statement, result
		 FROM audits
		 ORDER BY timestamp DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.AuditSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audits: %w", err)
	}
	return sessions, nil
}

// GetAudit returns a single session by id.
func (s *SQLiteStore) GetAudit(ctx context.Context, id string) (model.AuditSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, founder_statement, result FROM audits WHERE id = ?`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AuditSession{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return session, err
}

// ClearAllAudits deletes every row.
func (s *SQLiteStore) ClearAllAudits(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM audits"); err != nil {
		return fmt.Errorf("failed to clear audits: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (model.AuditSession, error) {
	var (
		session model.AuditSession
		result  string
	)
	if err := row.Scan(&session.ID, &session.Timestamp, &session.FounderStatement, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session, err
		}
		return session, fmt.Errorf("failed to scan audit: %w", err)
	}
	if err := json.Unmarshal([]byte(result), &session.Result); err != nil {
		return session, fmt.Errorf("failed to decode audit %s: %w", session.ID, err)
	}
	return session, nil
}
