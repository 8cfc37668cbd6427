// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the auditlogic application.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth: Display-width truncation (go-runewidth)
//   - SingleLine: Collapse multi-line text for list rows
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - WriteFileExclusive: Crash-safe create that never overwrites
//
// # Usage
//
//	// Fit a statement preview into a fixed column
//	row := util.TruncateWidth(util.SingleLine(statement), 60)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
