// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app provides the Bubble Tea interface for AuditLogic.
//
// The model is a thin view over controller.Controller: every key press is
// translated into a controller call and the screen is redrawn from the
// resulting Snapshot. The audit request itself runs in a tea.Cmd between
// Controller.Begin and Controller.Finish, so the spinner keeps turning while
// the model thinks.
//
// # Screens
//
//   - Auditor: statement textarea with the "Analyze Thesis" button, or the
//     rendered report once a result is shown
//   - History (n): saved audits, newest first, with date, risk badge and a
//     one-line preview
//
// # Key Selection
//
// Ctrl+K suspends the interface with tea.Exec and runs the no-echo key
// prompt on the real terminal. A key written from another terminal is
// picked up through CredentialChangedMsg, which the caller sends from the
// credentials file watcher.
//
// # Usage
//
//	err := app.Run(app.Options{
//	    Controller: ctrl,
//	    Auditor:    service,
//	    Theme:      cfg.UI.Theme,
//	}, func(p *tea.Program) {
//	    go resolver.Watch(ctx, func() { p.Send(app.CredentialChangedMsg{}) })
//	})
package app
