// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// CredentialChangedMsg tells the model to recheck credential availability.
// The credentials file watcher sends it through tea.Program.Send.
type CredentialChangedMsg struct{}

// initDoneMsg carries the result of controller initialisation.
type initDoneMsg struct {
	err error
}

// auditDoneMsg carries the outcome of an audit request.
type auditDoneMsg struct {
	text   string
	result *model.AuditResult
	err    error
}

// keySelectedMsg is sent after the key selection prompt returns.
type keySelectedMsg struct {
	err error
}

// historyClearedMsg is sent after ClearHistory returns.
type historyClearedMsg struct {
	err error
}

// =============================================================================
// COMMANDS
// =============================================================================

// initCmd loads history and checks the credential.
func initCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return initDoneMsg{err: ctrl.Init(ctx)}
	}
}

// auditCmd runs the request off the update loop. Begin has already moved
// the controller to Auditing.
func auditCmd(ctx context.Context, a controller.Auditor, text string) tea.Cmd {
	return func() tea.Msg {
		result, err := a.AuditStatement(ctx, text)
		return auditDoneMsg{text: text, result: result, err: err}
	}
}

func clearHistoryCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return historyClearedMsg{err: ctrl.ClearHistory(ctx)}
	}
}

// selectKeyCmd suspends the TUI and runs the no-echo key prompt on the
// real terminal.
func selectKeyCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return tea.Exec(&keySelectExec{ctx: ctx, ctrl: ctrl}, func(err error) tea.Msg {
		return keySelectedMsg{err: err}
	})
}

// keySelectExec adapts OpenCredentialSelector to tea.ExecCommand. The
// prompter reads the process stdin directly, so the stream setters are
// accepted and ignored.
type keySelectExec struct {
	ctx  context.Context
	ctrl *controller.Controller
}

func (e *keySelectExec) Run() error {
	return e.ctrl.OpenCredentialSelector(e.ctx)
}

func (e *keySelectExec) SetStdin(io.Reader)  {}
func (e *keySelectExec) SetStdout(io.Writer) {}
func (e *keySelectExec) SetStderr(io.Writer) {}
