// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/ui/styles"
)

// Labels shown by the audit form.
const (
	LabelSubmit    = "Analyze Thesis"
	LabelAuditing  = "Auditing Logic..."
	LabelTagline   = "Precision Logic Engine v1.0"
	LabelEmptyList = "No saved audits found on this device."
	placeholder    = "Enter your market thesis or strategy here..."
)

// Options configures the TUI.
type Options struct {
	// Controller owns all audit state. Required.
	Controller *controller.Controller

	// Auditor performs the request inside a tea.Cmd. Required.
	Auditor controller.Auditor

	// Context bounds every request. Defaults to context.Background.
	Context context.Context

	// Theme is "auto", "dark" or "light".
	Theme string

	// WordWrap caps the report width; 0 uses the terminal width.
	WordWrap int

	// Compact hides the brand and the form heading.
	Compact bool

	Logger *zap.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the whole application.
type Model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	auditor controller.Auditor
	logger  *zap.Logger

	// Styling
	theme    *styles.Theme
	wordWrap int
	compact  bool

	// Dimensions
	width  int
	height int

	// UI Components
	input   textarea.Model
	spinner spinner.Model
	report  viewport.Model

	keys KeyMap

	// snap is refreshed from the controller after every state change.
	snap controller.Snapshot

	// History list
	cursor       int
	confirmClear bool

	// reportFor is the session id currently rendered into the viewport.
	reportFor string

	ready bool
}

// New creates the model. Call Run or hand it to tea.NewProgram.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	theme := styles.NewTheme(opts.Theme)

	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(8)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.LineSpinner.Frames,
		FPS:    styles.LineSpinner.Duration(),
	}
	sp.Style = theme.Spinner

	return Model{
		ctx:      ctx,
		ctrl:     opts.Controller,
		auditor:  opts.Auditor,
		logger:   logger,
		theme:    theme,
		wordWrap: opts.WordWrap,
		compact:  opts.Compact,
		input:    ta,
		spinner:  sp,
		report:   viewport.New(80, 20),
		keys:     DefaultKeyMap(),
		snap:     opts.Controller.Snapshot(),
	}
}

// Init loads history and starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(initCmd(m.ctx, m.ctrl), textarea.Blink)
}

// Snapshot exposes the last rendered controller snapshot.
func (m Model) Snapshot() controller.Snapshot {
	return m.snap
}

// Run starts a full-screen program and blocks until it exits. onStart is
// called with the program before it runs so callers can wire Send.
func Run(opts Options, onStart func(*tea.Program)) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	if onStart != nil {
		onStart(p)
	}
	_, err := p.Run()
	return err
}
