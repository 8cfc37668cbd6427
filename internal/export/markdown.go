// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/auditlogic/internal/model"
)

// Section titles shared by every human-readable rendering of a report.
const (
	ReportTitle            = "Logic Audit Report"
	VerdictLabel           = "Audit Verdict:"
	SectionBiases          = "1. Detected Cognitive Biases"
	SectionEvidence        = "2. Evidence From Statement"
	SectionReasoningFlaws  = "3. Reasoning Flaws"
	SectionWeakAssumptions = "4. Missing or Weak Assumptions"
	SectionCounter         = "5. Counter-Hypotheses"
	SectionKillCriteria    = "6. Kill Criteria"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports sessions to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a session to Markdown format.
func (e *MarkdownExporter) Export(session *model.AuditSession) ([]byte, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}

	var sb strings.Builder
	created := session.CreatedAt()

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("id: %s\n", escapeYAML(session.ID)))
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(session.Preview())))
		sb.WriteString(fmt.Sprintf("risk: %s\n", escapeYAML(session.Result.RiskAssessment.Level.String())))
		sb.WriteString(fmt.Sprintf("date: %s\n", created.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", e.options.now().Format(time.RFC3339)))
		sb.WriteString("generator: auditlogic\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", ReportTitle))
	sb.WriteString(fmt.Sprintf("**%s**\n\n", escapeMarkdown(session.Result.RiskAssessment.Level.Badge())))

	if e.options.IncludeMetadata {
		sb.WriteString("## Founder Statement\n\n")
		sb.WriteString(quoteBlock(session.FounderStatement))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("- **Audited**: %s\n", formatTimestamp(created)))
		sb.WriteString(fmt.Sprintf("- **Session**: `%s`\n\n", session.ID))
		sb.WriteString("---\n\n")
	}

	sb.WriteString(ReportBody(session.Result))

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from AuditLogic on %s*\n",
		e.options.now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// REPORT BODY
// =============================================================================

// ReportBody renders the verdict and the six numbered sections as Markdown.
// The terminal renderer and the Markdown exporter both build on it.
func ReportBody(r model.AuditResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("> **%s** \"%s\"\n\n", VerdictLabel, singleParagraph(r.RiskAssessment.Summary)))

	sb.WriteString(fmt.Sprintf("## %s\n\n", SectionBiases))
	writeBullets(&sb, r.DetectedBiases)

	sb.WriteString(fmt.Sprintf("## %s\n\n", SectionEvidence))
	if strings.TrimSpace(r.Evidence) == "" {
		sb.WriteString("_None cited._\n\n")
	} else {
		sb.WriteString(strings.TrimSpace(r.Evidence))
		sb.WriteString("\n\n")
	}

	sb.WriteString(fmt.Sprintf("## %s\n\n", SectionReasoningFlaws))
	writeBullets(&sb, r.ReasoningFlaws)

	sb.WriteString(fmt.Sprintf("## %s\n\n", SectionWeakAssumptions))
	if len(r.WeakAssumptions) == 0 {
		sb.WriteString("_None identified._\n\n")
	} else {
		for i, a := range r.WeakAssumptions {
			sb.WriteString(fmt.Sprintf("- `[%d]` %s\n", i+1, singleParagraph(a)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("## %s\n\n", SectionCounter))
	if len(r.CounterHypotheses) == 0 {
		sb.WriteString("_None identified._\n\n")
	} else {
		for _, h := range r.CounterHypotheses {
			sb.WriteString(fmt.Sprintf("> *\"%s\"*\n\n", singleParagraph(h)))
		}
	}

	sb.WriteString(fmt.Sprintf("## %s\n\n", SectionKillCriteria))
	writeBullets(&sb, r.KillCriteria)

	return sb.String()
}

func writeBullets(sb *strings.Builder, items []string) {
	if len(items) == 0 {
		sb.WriteString("_None identified._\n\n")
		return
	}
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(singleParagraph(item))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// singleParagraph collapses line breaks so model text cannot escape a list
// item or block quote.
func singleParagraph(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func quoteBlock(s string) string {
	lines := strings.Split(strings.ReplaceAll(strings.TrimRight(s, "\r\n "), "\r", ""), "\n")
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString("> ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
