// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the audit interface.
type KeyMap struct {
	Submit       key.Binding
	NewAudit     key.Binding
	SwitchView   key.Binding
	SelectKey    key.Binding
	Dismiss      key.Binding
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Open         key.Binding
	ClearHistory key.Binding
	Confirm      key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "analyze"),
		),
		NewAudit: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new audit"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "auditor/history"),
		),
		SelectKey: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "select API key"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "dismiss"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "page down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear history"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirm"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// shortHelp returns the bindings shown in the status bar for a screen.
func (k KeyMap) shortHelp(history, result bool) []key.Binding {
	switch {
	case history:
		return []key.Binding{k.Open, k.SwitchView, k.ClearHistory, k.Quit}
	case result:
		return []key.Binding{k.NewAudit, k.PageDown, k.SwitchView, k.Quit}
	default:
		return []key.Binding{k.Submit, k.SwitchView, k.SelectKey, k.Quit}
	}
}
