// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for audits and audit sessions.
//
// This package defines the core domain types used throughout the application
// for representing a cognitive bias audit and its persisted session record.
//
// # Key Types
//
//   - AuditResult: The structured critique returned by the auditor
//   - RiskAssessment: Risk level plus a one-sentence summary
//   - RiskLevel: Low, Moderate, High or Extreme (unknown values pass through)
//   - AuditSession: One persisted audit (input, output and metadata)
//
// # Usage
//
// Wrap a fresh result into a session:
//
//	session := model.NewAuditSession(statement, *result, time.Now())
//	fmt.Printf("%s  %s risk\n", session.CreatedAt().Format(time.DateOnly), session.Result.RiskAssessment.Level)
//
// JSON field names follow the camelCase shape produced by the auditor so a
// stored session round-trips through exports and the HTTP API unchanged.
package model
