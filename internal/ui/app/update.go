// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/export"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.resize()
		m.reportFor = ""
		m.syncReport()
		m.ready = true
		return m, nil

	case initDoneMsg:
		if msg.err != nil {
			m.logger.Warn("initialisation failed", zap.Error(msg.err))
		}
		m.refresh()
		return m, nil

	case auditDoneMsg:
		if err := m.ctrl.Finish(m.ctx, msg.text, msg.result, msg.err); err != nil {
			m.logger.Debug("audit finished with error", zap.Error(err))
		}
		m.refresh()
		if m.snap.State == controller.StateResultShown {
			m.input.Reset()
			m.input.Blur()
		}
		return m, nil

	case keySelectedMsg:
		if msg.err != nil {
			m.logger.Info("key selection did not complete", zap.Error(msg.err))
		}
		m.refresh()
		return m, nil

	case CredentialChangedMsg:
		m.ctrl.RecheckCredential()
		m.refresh()
		return m, nil

	case historyClearedMsg:
		m.cursor = 0
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.snap.State != controller.StateAuditing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Forward anything else (cursor blink) to the focused textarea.
	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.confirmClear {
		m.confirmClear = false
		if key.Matches(msg, m.keys.Confirm) {
			return m, clearHistoryCmd(m.ctx, m.ctrl)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.SwitchView):
		if m.snap.View == controller.ViewHistory {
			m.ctrl.ShowForm()
		} else {
			m.ctrl.ShowHistory()
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.SelectKey):
		if m.snap.State == controller.StateAuditing {
			return m, nil
		}
		return m, selectKeyCmd(m.ctx, m.ctrl)

	case key.Matches(msg, m.keys.Dismiss):
		m.ctrl.DismissError()
		m.refresh()
		return m, nil
	}

	if m.snap.View == controller.ViewHistory {
		return m.handleHistoryKey(msg)
	}

	switch m.snap.State {
	case controller.StateAuditing:
		return m, nil

	case controller.StateResultShown:
		if key.Matches(msg, m.keys.NewAudit) {
			if m.ctrl.NewAudit() {
				m.input.Reset()
				m.input.Focus()
				m.reportFor = ""
			}
			m.refresh()
			return m, nil
		}
		var cmd tea.Cmd
		m.report, cmd = m.report.Update(msg)
		return m, cmd

	default:
		if key.Matches(msg, m.keys.Submit) {
			return m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.snap.History)

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if n == 0 {
			return m, nil
		}
		if err := m.ctrl.SelectSession(m.snap.History[m.cursor].ID); err != nil {
			m.logger.Debug("select session refused", zap.Error(err))
		}
		m.input.Blur()
		m.refresh()
	case key.Matches(msg, m.keys.ClearHistory):
		if n > 0 && m.snap.State != controller.StateAuditing {
			m.confirmClear = true
		}
	}
	return m, nil
}

// submit starts an audit if the controller accepts it.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if !m.ctrl.Begin(text) {
		m.refresh()
		return m, nil
	}
	m.input.Blur()
	m.refresh()
	return m, tea.Batch(auditCmd(m.ctx, m.auditor, text), m.spinner.Tick)
}

// refresh pulls a new snapshot and keeps derived view state consistent.
func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	if m.cursor >= len(m.snap.History) {
		m.cursor = len(m.snap.History) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.syncReport()
}

// syncReport renders the current session into the viewport once per session.
func (m *Model) syncReport() {
	cur := m.snap.Current
	if cur == nil {
		m.reportFor = ""
		return
	}
	if cur.ID == m.reportFor {
		return
	}

	width := m.reportWidth()
	body, err := export.RenderMarkdown(export.ReportBody(cur.Result), width, m.theme.GlamourStyle())
	if err != nil {
		m.logger.Warn("report render failed", zap.Error(err))
		body = export.ReportBody(cur.Result)
	}

	m.report.SetContent(m.theme.Statement.Width(width).Render(cur.FounderStatement) + "\n" + body)
	m.report.GotoTop()
	m.reportFor = cur.ID
}

func (m *Model) reportWidth() int {
	width := m.theme.ContentWidth()
	if m.wordWrap > 0 && m.wordWrap < width {
		width = m.wordWrap
	}
	return width
}

// resize lays out components for the current window size. Header, tabs,
// banner and status bar take a fixed number of rows.
func (m *Model) resize() {
	width := m.theme.ContentWidth()
	m.input.SetWidth(width - 2)

	reportHeight := m.height - 9
	if reportHeight < 5 {
		reportHeight = 5
	}
	m.report.Width = width
	m.report.Height = reportHeight
}
