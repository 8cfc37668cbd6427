// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// key_cmd.go - Gemini API key selection.
//
// Command: key [subcommand]
// Short:   Select, inspect or clear the Gemini API key
//
// Subcommands:
//   status (default)    Show which source supplies the key
//   set                 Select a key (typed without echo)
//   clear               Forget the selected key
//
// The selected key is stored in ~/.auditlogic/credentials (0600) and takes
// precedence over AUDITLOGIC_API_KEY, GEMINI_API_KEY, API_KEY, a .env file
// in the working directory and cloud.api_key in the config file. A running
// interface picks up a new selection without restarting.
//
// Examples:
//   auditlogic key set
//   echo "$KEY" | auditlogic key set --stdin
//   auditlogic key status --json
//   auditlogic key clear --yes

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/auditlogic/internal/credential"
)

// KeyStatus is the --json payload of key status.
type KeyStatus struct {
	Available   bool   `json:"available"`
	Source      string `json:"source"`
	Name        string `json:"name,omitempty"`
	Key         string `json:"key"`
	Credentials string `json:"credentials_file"`
}

func (a *App) keyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Select, inspect or clear the Gemini API key",
		Args:  usageArgs(cobra.NoArgs),
	}

	status := a.keyStatusCommand()
	cmd.RunE = status.RunE
	cmd.Flags().AddFlagSet(status.Flags())

	cmd.AddCommand(status, a.keySetCommand(), a.keyClearCommand())
	return cmd
}

func (a *App) keyStatusCommand() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which source supplies the API key",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.keyStatus()
			if jsonMode {
				return writeJSON(a.Out, "key status", st)
			}

			fmt.Fprintln(a.Out, TitleStyle.Render("API Key"))
			if st.Available {
				fmt.Fprintf(a.Out, "%s%s %s\n", RenderLabel("Status"), RenderStatus("ok"), ValueStyle.Render("available"))
			} else {
				fmt.Fprintf(a.Out, "%s%s %s\n", RenderLabel("Status"), RenderStatus("fail"), ValueStyle.Render("missing"))
			}
			fmt.Fprintf(a.Out, "%s%s\n", RenderLabel("Source"), ValueStyle.Render(st.Source))
			if st.Name != "" {
				fmt.Fprintf(a.Out, "%s%s\n", RenderLabel("From"), ValueStyle.Render(st.Name))
			}
			fmt.Fprintf(a.Out, "%s%s\n", RenderLabel("Key"), DimStyle.Render(st.Key))
			if !st.Available {
				fmt.Fprintln(a.Out, DimStyle.Render("Run `auditlogic key set` or export GEMINI_API_KEY."))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print status as JSON")
	return cmd
}

func (a *App) keySetCommand() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Select an API key",
		Long: `Select the Gemini API key used for audits.

The key is typed without echo. Use --stdin to read it from a pipe instead.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if fromStdin {
				err = a.selectKeyFromReader(a.In)
			} else {
				if a.Prompter == nil {
					if ttyErr := requireTTY(a.In, "read an API key (use --stdin)"); ttyErr != nil {
						return ttyErr
					}
				}
				err = a.resolver.OpenCredentialSelector(cmd.Context())
			}
			if errors.Is(err, credential.ErrEmptyKey) {
				return &UsageError{Field: "key", Reason: err.Error()}
			}
			if err != nil {
				return &CommandError{Command: "key", Action: "set", Reason: "could not store the key", Err: err}
			}

			src := a.resolver.Resolve()
			fmt.Fprintf(a.Out, "%s API key selected %s\n", RenderStatus("ok"), DimStyle.Render(src.Masked()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read the key from stdin")
	return cmd
}

func (a *App) keyClearCommand() *cobra.Command {
	var (
		yes      bool
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the selected API key",
		Long: `Remove the selected key. Keys from the environment, a .env file or the
config file are not affected.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.resolver.HasSelectedCredential() {
				if jsonMode {
					return writeJSON(a.Out, "key clear", a.keyStatus())
				}
				fmt.Fprintln(a.Out, "No API key is selected.")
				return nil
			}

			ok, err := RequireConfirmation(a.In, a.Err, "forget the selected API key",
				ConfirmationOptions{Yes: yes, JSONMode: jsonMode})
			if err != nil {
				return &UsageError{Field: "confirmation", Reason: err.Error(), Example: "auditlogic key clear --yes"}
			}
			if !ok {
				fmt.Fprintln(a.Out, "Cancelled.")
				return nil
			}

			if err := a.resolver.Clear(); err != nil {
				return &CommandError{Command: "key", Action: "clear", Reason: "could not remove the key", Err: err}
			}

			st := a.keyStatus()
			if jsonMode {
				return writeJSON(a.Out, "key clear", st)
			}
			fmt.Fprintf(a.Out, "%s Selected API key removed.\n", RenderStatus("ok"))
			if st.Available {
				fmt.Fprintf(a.Out, "%s\n", DimStyle.Render("A key is still available from "+st.Source+": "+st.Name))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the result as JSON")
	return cmd
}

// keyStatus describes the active key without exposing it.
func (a *App) keyStatus() KeyStatus {
	src := a.resolver.Resolve()
	return KeyStatus{
		Available:   src.Available(),
		Source:      src.Kind.String(),
		Name:        src.Name,
		Key:         src.Masked(),
		Credentials: a.resolver.Path(),
	}
}

// selectKeyFromReader stores the first line of r as the selected key.
func (a *App) selectKeyFromReader(r io.Reader) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read key: %w", err)
	}
	return a.resolver.Select(line)
}
