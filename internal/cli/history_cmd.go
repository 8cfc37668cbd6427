// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Saved audit commands.
//
// Command: history [subcommand]
// Short:   List, show and clear saved audits
//
// Subcommands:
//   list (default)      List saved audits, newest first
//   show <id>           Show one audit (a unique id prefix is enough)
//   clear               Delete every saved audit (asks first)
//
// Examples:
//   auditlogic history
//   auditlogic history show 3f2a9c1e
//   auditlogic history clear --yes
//   auditlogic history list --json

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/auditlogic/internal/model"
	"github.com/jeranaias/auditlogic/internal/storage"
)

// minIDPrefix is the shortest id prefix accepted in place of a full id.
const minIDPrefix = 4

func (a *App) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"sessions"},
		Short:   "List, show and clear saved audits",
		Args:    usageArgs(cobra.NoArgs),
	}

	list := a.historyListCommand()
	cmd.RunE = list.RunE
	cmd.Flags().AddFlagSet(list.Flags())

	cmd.AddCommand(list, a.historyShowCommand(), a.historyClearCommand())
	return cmd
}

func (a *App) historyListCommand() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved audits, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.listSessions(cmd.Context())
			if err != nil {
				return err
			}
			if jsonMode {
				return writeJSON(a.Out, "history list", sessions)
			}
			fmt.Fprint(a.Out, storage.FormatHistoryList(sessions))
			if len(sessions) == 0 {
				fmt.Fprintln(a.Out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print sessions as JSON")
	return cmd
}

func (a *App) historyShowCommand() *cobra.Command {
	var (
		jsonMode bool
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one saved audit",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.findSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonMode {
				return writeJSON(a.Out, "history show", session)
			}
			return a.printSession(a.Out, session, plain)
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the session as JSON")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print the report without styling")
	return cmd
}

func (a *App) historyClearCommand() *cobra.Command {
	var (
		jsonMode bool
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved audit",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.services(cmd.Context())
			if err != nil {
				return err
			}

			count := len(ctrl.Snapshot().History)
			if count == 0 && !jsonMode {
				fmt.Fprintln(a.Out, "No saved audits found on this device.")
				return nil
			}

			ok, err := RequireConfirmation(a.In, a.Err,
				fmt.Sprintf("delete all %d saved audits", count),
				ConfirmationOptions{Yes: yes, JSONMode: jsonMode})
			if err != nil {
				return &UsageError{Field: "confirmation", Reason: err.Error(), Example: "auditlogic history clear --yes"}
			}
			if !ok {
				fmt.Fprintln(a.Out, "Cancelled.")
				return nil
			}

			if err := ctrl.ClearHistory(cmd.Context()); err != nil {
				return &CommandError{Command: "history", Action: "clear", Reason: "could not clear saved audits", Err: err}
			}

			if jsonMode {
				return writeJSON(a.Out, "history clear", map[string]int{"deleted": count})
			}
			fmt.Fprintf(a.Out, "%s Deleted %d saved audits.\n", RenderStatus("ok"), count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// =============================================================================
// LOOKUP
// =============================================================================

// listSessions returns saved audits newest first.
func (a *App) listSessions(ctx context.Context) ([]model.AuditSession, error) {
	if _, err := a.services(ctx); err != nil {
		return nil, err
	}
	sessions, err := a.store.GetAllAudits(ctx)
	if err != nil {
		return nil, &CommandError{Command: "history", Action: "list", Reason: "could not read saved audits", Err: err}
	}
	return sessions, nil
}

// findSession resolves a full id or a unique id prefix.
func (a *App) findSession(ctx context.Context, id string) (model.AuditSession, error) {
	id = strings.TrimSpace(id)
	if _, err := a.services(ctx); err != nil {
		return model.AuditSession{}, err
	}

	session, err := a.store.GetAudit(ctx, id)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return model.AuditSession{}, err
	}
	if len(id) < minIDPrefix {
		return model.AuditSession{}, &NotFoundError{Resource: "audit", ID: id}
	}

	sessions, err := a.store.GetAllAudits(ctx)
	if err != nil {
		return model.AuditSession{}, err
	}

	var matches []model.AuditSession
	for _, s := range sessions {
		if strings.HasPrefix(s.ID, id) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return model.AuditSession{}, &NotFoundError{Resource: "audit", ID: id}
	case 1:
		return matches[0], nil
	default:
		return model.AuditSession{}, &UsageError{
			Field:  "id",
			Value:  id,
			Reason: fmt.Sprintf("prefix matches %d audits", len(matches)),
		}
	}
}
