// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/auditlogic/internal/model"
)

var fixedNow = time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC)

func testSession() *model.AuditSession {
	return &model.AuditSession{
		ID:               "5b1d0c8e-7a43-4d2a-9a57-0f7f6f3c2e11",
		Timestamp:        fixedNow.Add(-time.Hour).UnixMilli(),
		FounderStatement: "Everyone needs this.\nWe just have to launch.",
		Result: model.AuditResult{
			DetectedBiases:    []string{"False consensus effect", "Optimism bias"},
			Evidence:          "\"Everyone needs this\"",
			ReasoningFlaws:    []string{"Universal demand asserted without data"},
			WeakAssumptions:   []string{"Launch equals adoption", "No switching costs"},
			CounterHypotheses: []string{"Only a niche has the problem"},
			KillCriteria:      []string{"Under 5% conversion from waitlist"},
			RiskAssessment: model.RiskAssessment{
				Level:   model.RiskExtreme,
				Summary: "Demand is asserted, not observed.",
			},
		},
	}
}

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownExporter_ReportLayout(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions("")).Export(testSession())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"), "front matter first")
	assert.Contains(t, md, "generator: auditlogic")
	assert.Contains(t, md, "risk: Extreme")
	assert.Contains(t, md, "# Logic Audit Report")
	assert.Contains(t, md, "**Extreme Risk**")
	assert.Contains(t, md, "> **Audit Verdict:** \"Demand is asserted, not observed.\"")
	assert.Contains(t, md, "> Everyone needs this.\n> We just have to launch.\n")
	assert.Contains(t, md, "- `[2]` No switching costs")
	assert.Contains(t, md, "*Exported from AuditLogic on May 4, 2025 at 10:30 AM*")

	// Sections appear in order
	last := -1
	for _, title := range []string{SectionBiases, SectionEvidence, SectionReasoningFlaws, SectionWeakAssumptions, SectionCounter, SectionKillCriteria} {
		idx := strings.Index(md, "## "+title)
		require.NotEqual(t, -1, idx, "missing section %q", title)
		assert.Greater(t, idx, last, "section %q out of order", title)
		last = idx
	}
}

func TestMarkdownExporter_WithoutMetadata(t *testing.T) {
	opts := testOptions("")
	opts.IncludeMetadata = false

	out, err := NewMarkdownExporter(opts).Export(testSession())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# Logic Audit Report"))
	assert.NotContains(t, md, "Founder Statement")
}

func TestReportBody_EmptyListsAndUnknownLevel(t *testing.T) {
	r := model.AuditResult{
		DetectedBiases:    []string{},
		ReasoningFlaws:    []string{},
		WeakAssumptions:   []string{},
		CounterHypotheses: []string{},
		KillCriteria:      []string{},
		RiskAssessment:    model.RiskAssessment{Level: "Negligible", Summary: "Sound."},
	}

	body := ReportBody(r)
	assert.Equal(t, 6, strings.Count(body, "_None"), "every empty section gets a placeholder")

	out := RenderTerminalPlain(r)
	assert.Contains(t, out, "Negligible Risk")
}

func TestReportBody_MultilineItemsStayInList(t *testing.T) {
	r := testSession().Result
	r.KillCriteria = []string{"first line\n## injected heading"}

	body := ReportBody(r)
	assert.NotContains(t, body, "\n## injected heading")
	assert.Contains(t, body, "- first line ## injected heading")
}

// =============================================================================
// HTML
// =============================================================================

func TestHTMLExporter_ReportLayout(t *testing.T) {
	out, err := NewHTMLExporter(testOptions("")).Export(testSession())
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, "<body class=\"light-theme\">")
	assert.Contains(t, page, "<span class=\"badge risk-extreme\">Extreme Risk</span>")
	assert.Contains(t, page, "<strong>Audit Verdict:</strong>")
	assert.Contains(t, page, "<span class=\"index\">[1]</span> Launch equals adoption")
	assert.Contains(t, page, "Everyone needs this.<br>We just have to launch.")
	assert.NotContains(t, page, "<script")
}

func TestRiskClass(t *testing.T) {
	tests := map[model.RiskLevel]string{
		model.RiskExtreme:  "risk-extreme",
		model.RiskHigh:     "risk-high",
		model.RiskModerate: "risk-moderate",
		model.RiskLow:      "risk-neutral",
		"Unheard of":       "risk-neutral",
	}
	for level, want := range tests {
		assert.Equal(t, want, riskClass(level), "level %q", level)
	}
}

func TestHTMLExporter_DarkTheme(t *testing.T) {
	opts := testOptions("")
	opts.Theme = "dark"

	out, err := NewHTMLExporter(opts).Export(testSession())
	require.NoError(t, err)
	assert.Contains(t, string(out), "<body class=\"dark-theme\">")
}

// =============================================================================
// STRUCTURED FORMATS
// =============================================================================

func TestJSONExporter_RoundTrip(t *testing.T) {
	session := testSession()
	out, err := NewJSONExporter(nil).Export(session)
	require.NoError(t, err)

	assert.Contains(t, string(out), `"founderStatement"`)
	assert.Contains(t, string(out), `"riskAssessment"`)

	var decoded model.AuditSession
	require.NoError(t, json.Unmarshal(out, &decoded))
	if diff := cmp.Diff(*session, decoded); diff != "" {
		t.Errorf("JSON round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLExporter_RoundTrip(t *testing.T) {
	session := testSession()
	out, err := NewYAMLExporter(nil).Export(session)
	require.NoError(t, err)

	assert.Contains(t, string(out), "detectedBiases:")
	assert.Contains(t, string(out), "killCriteria:")

	var decoded model.AuditSession
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	if diff := cmp.Diff(*session, decoded); diff != "" {
		t.Errorf("YAML round trip mismatch (-want +got):\n%s", diff)
	}
}

// =============================================================================
// FILES AND FORMATS
// =============================================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{" html ", FormatHTML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportSession_WritesEveryFormat(t *testing.T) {
	dir := t.TempDir()
	session := testSession()

	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			path, err := ExportSession(session, string(f), testOptions(dir))
			require.NoError(t, err)

			assert.Equal(t, dir, filepath.Dir(path))
			base := filepath.Base(path)
			assert.True(t, strings.HasPrefix(base, "audit_Everyone_needs_this."), base)
			assert.Contains(t, base, "_5b1d0c8e.")

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}
}

func TestExportSession_Errors(t *testing.T) {
	_, err := ExportSession(nil, "md", nil)
	assert.Error(t, err)

	_, err = ExportSession(testSession(), "docx", testOptions(t.TempDir()))
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestExportToFile_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")

	path, err := ExportToFile(testSession(), NewJSONExporter(nil), testOptions(dir))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestMimeTypesAndExtensions(t *testing.T) {
	tests := []struct {
		exporter Exporter
		ext      string
		mime     string
	}{
		{NewMarkdownExporter(nil), ".md", "text/markdown"},
		{NewJSONExporter(nil), ".json", "application/json"},
		{NewYAMLExporter(nil), ".yaml", "application/yaml"},
		{NewHTMLExporter(nil), ".html", "text/html"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ext, tt.exporter.FileExtension())
		assert.Equal(t, tt.mime, tt.exporter.MimeType())
	}
}

// =============================================================================
// TERMINAL
// =============================================================================

func TestRenderTerminal(t *testing.T) {
	out, err := RenderTerminal(testSession().Result, 60, "notty")
	require.NoError(t, err)

	assert.Contains(t, out, ReportTitle)
	assert.Contains(t, out, "Extreme Risk")
	assert.Contains(t, out, "Kill Criteria")
	assert.Contains(t, out, "Optimism bias")
}
