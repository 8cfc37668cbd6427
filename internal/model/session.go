// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// AUDIT SESSION
// =============================================================================

// AuditSession is one persisted audit. Sessions are created once, after a
// successful audit, and never mutated afterwards.
type AuditSession struct {
	// ID is a random UUID assigned at creation.
	ID string `json:"id" yaml:"id"`

	// Timestamp is Unix milliseconds at creation and the only sort key.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`

	// FounderStatement is the submitted text, stored verbatim.
	FounderStatement string `json:"founderStatement" yaml:"founderStatement"`

	// Result is owned by the session.
	Result AuditResult `json:"result" yaml:"result"`
}

// NewAuditSession wraps a result into a new session with a fresh id.
func NewAuditSession(statement string, result AuditResult, at time.Time) AuditSession {
	return AuditSession{
		ID:               uuid.NewString(),
		Timestamp:        at.UnixMilli(),
		FounderStatement: statement,
		Result:           result.Clone(),
	}
}

// CreatedAt converts the millisecond timestamp back into a time.Time.
func (s AuditSession) CreatedAt() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Preview returns the statement flattened onto one line, for list rows.
func (s AuditSession) Preview() string {
	preview := strings.ReplaceAll(s.FounderStatement, "\r", "")
	preview = strings.ReplaceAll(preview, "\n", " ")
	return strings.TrimSpace(preview)
}

// NewerThan reports whether s sorts before other in newest-first order.
// Equal timestamps fall back to id so the order is total.
func (s AuditSession) NewerThan(other AuditSession) bool {
	if s.Timestamp != other.Timestamp {
		return s.Timestamp > other.Timestamp
	}
	return s.ID < other.ID
}
