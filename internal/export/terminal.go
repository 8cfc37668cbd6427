// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/auditlogic/internal/model"
)

// =============================================================================
// TERMINAL RENDERING
// =============================================================================

// DefaultWrapWidth is used when the caller does not know the terminal width.
const DefaultWrapWidth = 80

// RenderTerminal renders a result as styled terminal text with glamour.
// style is "auto", "dark", "light" or "notty"; anything else means "auto".
func RenderTerminal(r model.AuditResult, width int, style string) (string, error) {
	md := fmt.Sprintf("# %s\n\n**%s**\n\n%s", ReportTitle, r.RiskAssessment.Level.Badge(), ReportBody(r))
	return RenderMarkdown(md, width, style)
}

// RenderMarkdown renders arbitrary Markdown with the same renderer settings.
// The TUI uses it for the report body under its own coloured badge.
func RenderMarkdown(md string, width int, style string) (string, error) {
	if width <= 0 {
		width = DefaultWrapWidth
	}

	renderer, err := glamour.NewTermRenderer(
		styleOption(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}

// RenderTerminalPlain renders without glamour, for when styling fails or the
// output is not a terminal.
func RenderTerminalPlain(r model.AuditResult) string {
	return fmt.Sprintf("%s\n%s\n\n%s", ReportTitle, r.RiskAssessment.Level.Badge(), ReportBody(r))
}

func styleOption(style string) glamour.TermRendererOption {
	switch strings.ToLower(style) {
	case "dark", "light", "notty":
		return glamour.WithStandardStyle(strings.ToLower(style))
	default:
		return glamour.WithAutoStyle()
	}
}
