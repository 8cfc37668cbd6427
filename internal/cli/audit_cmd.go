// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - One-shot audit of a founder statement.
//
// Command: audit [statement...]
// Short:   Audit a statement and save the result
//
// The statement is taken from the arguments, or read from stdin when there
// are none. The result is saved to history exactly as the interactive
// interface would save it.
//
// Examples:
//   auditlogic audit "Everyone will pay for this because I would"
//   pbcopy | auditlogic audit
//   auditlogic audit --json < thesis.txt
//   auditlogic audit --plain "..." > report.txt
//
// Flags:
//   --json     Print the saved session as JSON
//   --plain    Print the report without styling

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/auditor"
	"github.com/jeranaias/auditlogic/internal/export"
	"github.com/jeranaias/auditlogic/internal/model"
	"github.com/jeranaias/auditlogic/internal/util"
)

// MaxStatementBytes caps a statement read from stdin.
const MaxStatementBytes = 64 * 1024

func (a *App) auditCommand() *cobra.Command {
	var (
		jsonMode bool
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "audit [statement...]",
		Short: "Audit a statement and save the result",
		Long: `Send a thesis or strategy statement for a cognitive bias audit.

With no arguments the statement is read from stdin until EOF.`,
		Example: `  auditlogic audit "Our TAM is every business on earth"
  auditlogic audit --json < thesis.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			statement, err := a.readStatement(args)
			if err != nil {
				return err
			}

			session, err := a.submitAudit(cmd.Context(), statement)
			if err != nil {
				return err
			}

			if jsonMode {
				return writeJSON(a.Out, "audit", session)
			}
			return a.printSession(a.Out, session, plain)
		},
	}

	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the saved session as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print the report without styling")
	return cmd
}

// readStatement joins args, or reads stdin when there are none.
func (a *App) readStatement(args []string) (string, error) {
	if len(args) > 0 {
		statement := strings.TrimSpace(strings.Join(args, " "))
		if statement == "" {
			return "", &UsageError{Field: "statement", Reason: "statement is blank", Example: `auditlogic audit "..."`}
		}
		return statement, nil
	}

	if isTerminal(a.In) {
		fmt.Fprintln(a.Err, DimStyle.Render("Enter your market thesis or strategy, then press Ctrl+D:"))
	}

	data, err := io.ReadAll(io.LimitReader(a.In, MaxStatementBytes+1))
	if err != nil {
		return "", fmt.Errorf("read statement: %w", err)
	}
	if len(data) > MaxStatementBytes {
		return "", &UsageError{Field: "statement", Reason: fmt.Sprintf("longer than %d bytes", MaxStatementBytes)}
	}

	statement := strings.TrimSpace(string(data))
	if statement == "" {
		return "", &UsageError{Field: "statement", Reason: "no statement given on the command line or stdin", Example: `auditlogic audit "..."`}
	}
	return statement, nil
}

// submitAudit runs one audit through the controller so the same state rules
// and persistence apply as in the interactive interface.
func (a *App) submitAudit(ctx context.Context, statement string) (model.AuditSession, error) {
	ctrl, err := a.services(ctx)
	if err != nil {
		return model.AuditSession{}, err
	}

	// No request is made without a key
	if !ctrl.RecheckCredential() {
		return model.AuditSession{}, auditor.ErrCredentialMissing
	}

	session, err := ctrl.SubmitSession(ctx, statement)
	if err != nil {
		var ae *auditor.Error
		if errors.As(err, &ae) {
			a.logger.Warn("audit failed", zap.Stringer("kind", ae.Kind), zap.Error(ae.Err))
		}
		return model.AuditSession{}, err
	}
	return session, nil
}

// =============================================================================
// REPORT OUTPUT
// =============================================================================

// printSession prints a short header followed by the rendered report.
func (a *App) printSession(w io.Writer, s model.AuditSession, plain bool) error {
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Audit"), ValueStyle.Render(s.ID))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Created"), ValueStyle.Render(s.CreatedAt().Format("2006-01-02 15:04")))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Risk"), RenderRisk(s.Result.RiskAssessment.Level))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Statement"),
		DimStyle.Render(util.TruncateWidth(util.SingleLine(s.FounderStatement), terminalWidth(w)-20)))
	fmt.Fprintln(w, RenderSeparator(reportWidth(w, a.cfg.UI.WordWrap)))

	if plain {
		fmt.Fprintln(w, export.RenderTerminalPlain(s.Result))
		return nil
	}

	out, err := export.RenderTerminal(s.Result, reportWidth(w, a.cfg.UI.WordWrap), glamourStyle(w, a.cfg.UI.Theme))
	if err != nil {
		a.logger.Debug("styled report failed, printing plain", zap.Error(err))
		out = export.RenderTerminalPlain(s.Result) + "\n"
	}
	fmt.Fprint(w, out)
	return nil
}
