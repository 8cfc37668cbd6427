// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/export"
	"github.com/jeranaias/auditlogic/internal/ui/styles"
	"github.com/jeranaias/auditlogic/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading AuditLogic..."
	}

	sections := []string{m.renderHeader()}

	if banner := m.renderBanner(); banner != "" {
		sections = append(sections, banner)
	}

	if m.snap.View == controller.ViewHistory {
		sections = append(sections, m.renderHistory())
	} else if m.snap.State == controller.StateResultShown && m.snap.Current != nil {
		sections = append(sections, m.renderResult())
	} else {
		sections = append(sections, m.renderForm())
	}

	sections = append(sections, m.renderStatusBar())
	return m.theme.Container.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderHeader draws the brand and the view switcher. The brand is dropped
// in compact mode and on narrow terminals.
func (m Model) renderHeader() string {
	brand := ""
	if !m.compact && m.theme.GetLayoutMode() != styles.LayoutNarrow {
		brand = m.theme.HeaderBrand.Render("[A] AuditLogic")
	}

	auditTab, historyTab := m.theme.Tab, m.theme.Tab
	if m.snap.View == controller.ViewHistory {
		historyTab = m.theme.TabActive
	} else {
		auditTab = m.theme.TabActive
	}
	tabs := auditTab.Render("Auditor") + " " +
		historyTab.Render(fmt.Sprintf("History (%d)", len(m.snap.History)))

	keyState := m.theme.KeyPresent.Render("key: ok")
	if !m.snap.CredentialAvailable {
		keyState = m.theme.KeyMissing.Render("key: missing")
	}

	gap := m.theme.ContentWidth() - lipgloss.Width(brand) - lipgloss.Width(tabs) - lipgloss.Width(keyState) - 4
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Render(brand + strings.Repeat(" ", gap) + tabs + "  " + keyState)
}

func (m Model) renderBanner() string {
	if m.snap.Error == "" {
		return ""
	}
	width := m.theme.ContentWidth()
	if m.snap.CredentialError {
		return m.theme.CredentialBanner.Width(width - 2).Render(m.snap.Error + "  (Ctrl+K to select a key)")
	}
	return m.theme.ErrorBanner.Width(width - 2).Render(m.snap.Error)
}

// renderForm draws the statement input and the submit button.
func (m Model) renderForm() string {
	var b strings.Builder

	if !m.compact {
		b.WriteString(m.theme.FormTitle.Render("Audit your logic."))
		b.WriteString("\n")
		b.WriteString(m.theme.FormHint.Render("Submit your strategy. We expose the blind spots."))
		b.WriteString("\n\n")
	}
	b.WriteString(m.theme.InputContainer.Render(m.input.View()))
	b.WriteString("\n")

	var button string
	switch {
	case m.snap.State == controller.StateAuditing:
		button = m.spinner.View() + " " + m.theme.ButtonDisabled.Render(LabelAuditing)
	case m.snap.CanSubmit(m.input.Value()):
		button = m.theme.Button.Render(LabelSubmit)
	default:
		button = m.theme.ButtonDisabled.Render(LabelSubmit)
	}

	tagline := ""
	if m.theme.GetLayoutMode() != styles.LayoutNarrow {
		tagline = m.theme.FormHint.Render(strings.ToUpper(LabelTagline))
	}
	gap := m.theme.ContentWidth() - lipgloss.Width(tagline) - lipgloss.Width(button)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(tagline + strings.Repeat(" ", gap) + button)
	return b.String()
}

// renderResult draws the report title, the coloured badge and the scrolled
// report body.
func (m Model) renderResult() string {
	cur := m.snap.Current
	title := m.theme.ReportTitle.Render(export.ReportTitle)
	badge := m.theme.RenderRiskBadge(cur.Result.RiskAssessment.Level)
	meta := m.theme.HistoryDate.Render(cur.CreatedAt().Format("2006-01-02 15:04"))

	return lipgloss.JoinVertical(lipgloss.Left,
		title+"  "+badge+"  "+meta,
		m.report.View(),
	)
}

// renderHistory draws one row per saved session: date, risk badge and a
// one-line preview.
func (m Model) renderHistory() string {
	var b strings.Builder
	b.WriteString(m.theme.FormTitle.Render("Audit Records"))
	b.WriteString("\n")

	if len(m.snap.History) == 0 {
		b.WriteString(m.theme.HistoryEmpty.Render(LabelEmptyList))
		return b.String()
	}

	width := m.theme.ContentWidth()
	visible := m.height - 8
	if visible < 3 {
		visible = 3
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}

	for i := start; i < len(m.snap.History) && i < start+visible; i++ {
		s := m.snap.History[i]
		date := m.theme.HistoryDate.Render(s.CreatedAt().Format("2006-01-02"))
		badge := m.theme.RenderRiskBadge(s.Result.RiskAssessment.Level)
		room := width - lipgloss.Width(date) - lipgloss.Width(badge) - 6
		preview := m.theme.HistoryPreview.Render(util.TruncateWidth(util.SingleLine(s.FounderStatement), room))

		row := date + "  " + badge + "  " + preview
		if i == m.cursor {
			b.WriteString(m.theme.HistoryItemSelected.Render(row))
		} else {
			b.WriteString(m.theme.HistoryItem.Render(row))
		}
		b.WriteString("\n")
	}

	if m.confirmClear {
		b.WriteString(m.theme.ErrorBanner.Render(fmt.Sprintf("Delete all %d saved audits? (y/N)", len(m.snap.History))))
	}
	return b.String()
}

func (m Model) renderStatusBar() string {
	bindings := m.keys.shortHelp(
		m.snap.View == controller.ViewHistory,
		m.snap.State == controller.StateResultShown,
	)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, renderBinding(m, b))
	}
	return m.theme.StatusBar.Width(m.theme.ContentWidth()).Render(strings.Join(parts, "  "))
}

func renderBinding(m Model, b key.Binding) string {
	h := b.Help()
	return m.theme.ShortcutKey.Render(h.Key) + " " + m.theme.ShortcutDesc.Render(h.Desc)
}
