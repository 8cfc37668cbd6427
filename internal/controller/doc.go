// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller holds the application state machine shared by the TUI,
// the CLI and the HTTP API.
//
// # States
//
//	Idle --submit--> Auditing --ok--> ResultShown --NewAudit--> Idle
//	                 Auditing --credential failure--> CredentialMissing
//	                 Auditing --other failure--> Idle (input kept)
//	CredentialMissing --key selected--> Idle
//
// The view axis (AuditForm, History) is independent of the state.
//
// # Usage
//
// The TUI splits a submit into Begin and Finish so the network call runs in
// a tea.Cmd:
//
//	if ctrl.Begin(text) {
//	    return func() tea.Msg {
//	        result, err := svc.AuditStatement(ctx, text)
//	        return auditDoneMsg{text, result, err}
//	    }
//	}
//
// Synchronous callers use Submit.
package controller
