// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// shell.go - Line-mode audit loop.
//
// Command: shell
// Short:   Audit statements one line at a time
//
// Each line is audited and saved. Lines starting with a colon are shell
// commands:
//   :history            List saved audits
//   :show <id>          Show a saved audit
//   :key                Show API key status
//   :help               Show this help
//   :quit               Leave (also exit, quit, Ctrl+C, Ctrl+D)
//
// USABILITY: arrow keys recall earlier statements; history is kept in
// ~/.auditlogic/shell_history. Ctrl+C during an audit cancels that audit
// only.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/config"
	"github.com/jeranaias/auditlogic/internal/storage"
)

const (
	shellPrompt      = "audit> "
	shellHistoryFile = "shell_history"
)

// errShellQuit ends the loop without an error.
var errShellQuit = errors.New("quit")

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one statement per call.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// linerReader provides line editing and persistent history on a terminal.
type linerReader struct {
	line        *liner.State
	historyFile string
	logger      *zap.Logger
}

func newLinerReader(historyFile string, logger *zap.Logger) *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &linerReader{line: line, historyFile: historyFile, logger: logger}
	if f, err := os.Open(historyFile); err == nil {
		if _, err := line.ReadHistory(f); err != nil {
			logger.Debug("failed to read shell history", zap.Error(err))
		}
		f.Close()
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *linerReader) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err == nil {
			if _, err := r.line.WriteHistory(f); err != nil {
				r.logger.Debug("failed to write shell history", zap.Error(err))
			}
			f.Close()
		}
	}
	return r.line.Close()
}

// plainReader reads lines from a pipe or test input.
type plainReader struct {
	in  *bufio.Reader
	out io.Writer
}

func (r *plainReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *plainReader) Close() error { return nil }

// =============================================================================
// COMMAND
// =============================================================================

func (a *App) shellCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Audit statements one line at a time",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.services(cmd.Context())
			if err != nil {
				return err
			}

			reader := a.newLineReader()
			defer reader.Close()

			fmt.Fprintln(a.Out, TitleStyle.Render("AuditLogic shell"))
			fmt.Fprintf(a.Out, "%s\n", DimStyle.Render(fmt.Sprintf("%d saved audits. Type a statement to audit it, :help for commands.", len(ctrl.Snapshot().History))))
			if !ctrl.RecheckCredential() {
				fmt.Fprintln(a.Out, WarningStyle.Render("No API key selected. Run `auditlogic key set` in another terminal; it is picked up immediately."))
			}

			for {
				input, err := reader.ReadLine(shellPrompt)
				if err != nil {
					// Ctrl+C at the prompt, Ctrl+D or end of piped input
					if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
						a.logger.Debug("shell input ended", zap.Error(err))
					}
					fmt.Fprintln(a.Out)
					return nil
				}

				err = a.shellLine(cmd.Context(), strings.TrimSpace(input), plain)
				if errors.Is(err, errShellQuit) {
					return nil
				}
				if err != nil {
					DisplayError(a.Err, err, false)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print reports without styling")
	return cmd
}

// newLineReader uses liner on a terminal and plain line reads otherwise.
func (a *App) newLineReader() lineReader {
	if isTerminal(a.In) && isTerminal(a.Out) {
		dir, err := config.ConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		return newLinerReader(filepath.Join(dir, shellHistoryFile), a.logger)
	}
	return &plainReader{in: bufio.NewReader(a.In), out: a.Out}
}

// shellLine handles one line of input.
func (a *App) shellLine(ctx context.Context, input string, plain bool) error {
	switch {
	case input == "":
		return nil
	case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
		return errShellQuit
	case strings.HasPrefix(input, ":"):
		return a.shellCommandLine(ctx, input)
	}

	// Ctrl+C cancels this audit, not the shell
	auditCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(a.Out, DimStyle.Render("Auditing Logic..."))
	session, err := a.submitAudit(auditCtx, input)
	if err != nil {
		if auditCtx.Err() != nil && ctx.Err() == nil {
			fmt.Fprintln(a.Out, WarningStyle.Render("Audit cancelled."))
			return nil
		}
		return err
	}
	return a.printSession(a.Out, session, plain)
}

// shellCommandLine runs a colon command.
func (a *App) shellCommandLine(ctx context.Context, input string) error {
	fields := strings.Fields(strings.TrimPrefix(input, ":"))
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "q", "quit", "exit":
		return errShellQuit
	case "h", "help":
		fmt.Fprintln(a.Out, `Commands:
  :history      List saved audits
  :show <id>    Show a saved audit
  :key          Show API key status
  :quit         Leave the shell`)
		return nil
	case "history":
		sessions, err := a.listSessions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(a.Out, storage.FormatHistoryList(sessions))
		if len(sessions) == 0 {
			fmt.Fprintln(a.Out)
		}
		return nil
	case "show":
		if len(fields) != 2 {
			return &UsageError{Field: "arguments", Reason: "expected one id", Example: ":show 3f2a9c1e"}
		}
		session, err := a.findSession(ctx, fields[1])
		if err != nil {
			return err
		}
		return a.printSession(a.Out, session, false)
	case "key":
		st := a.keyStatus()
		fmt.Fprintf(a.Out, "%s%s (%s)\n", RenderLabel("API key"), st.Source, st.Key)
		return nil
	default:
		return &UsageError{Field: "command", Value: fields[0], Reason: "unknown shell command", Example: ":help"}
	}
}
