// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders audit sessions as shareable reports.
//
// Every human-readable format reproduces the same report layout: a title,
// the risk badge, the audit verdict and six numbered sections (detected
// biases, evidence, reasoning flaws, weak assumptions, counter-hypotheses
// and kill criteria).
//
// # Key Types
//
//   - Exporter: Common interface implemented by every format
//   - Format: Export format name (md, json, yaml, html)
//   - Options: Output directory, metadata and theme settings
//
// # Supported Formats
//
//   - Markdown: Human-readable report with YAML front matter
//   - JSON: The full session in API shape
//   - YAML: The full session, same field names as JSON
//   - HTML: Standalone page styled after the in-app report
//
// Terminal output is rendered from the Markdown body with glamour; see
// RenderTerminal.
//
// # Usage
//
// Export a stored session:
//
//	opts := export.DefaultOptions()
//	opts.OutputDir = "./reports"
//	path, err := export.ExportSession(&session, "html", opts)
//
// Render a result in the terminal:
//
//	out, err := export.RenderTerminal(session.Result, 100, "auto")
package export
