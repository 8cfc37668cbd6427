// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/auditlogic/internal/model"
)

// =============================================================================
// FORMAT SELECTION
// =============================================================================

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats in the order shown in help text.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatYAML, FormatHTML}

// ParseFormat accepts a format name or one of its common aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", name)
	}
}

// New returns the exporter for a format.
func New(format Format, opts *Options) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	case FormatYAML:
		return NewYAMLExporter(opts), nil
	case FormatHTML:
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportSession resolves the format name and writes the session to a file.
// This is a convenience function that combines format lookup and export.
func ExportSession(session *model.AuditSession, format string, opts *Options) (string, error) {
	if session == nil {
		return "", fmt.Errorf("session is nil")
	}

	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	exporter, err := New(f, opts)
	if err != nil {
		return "", err
	}
	return ExportToFile(session, exporter, opts)
}
