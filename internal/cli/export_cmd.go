// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - Export a saved audit to a file.
//
// Command: export <id>
// Short:   Export a saved audit as Markdown, JSON, YAML or HTML
//
// Examples:
//   auditlogic export 3f2a9c1e
//   auditlogic export 3f2a9c1e --format html --out ~/reports --open
//   auditlogic export 3f2a9c1e --format json --stdout | jq .result
//
// Flags:
//   --format, -f   md (default), json, yaml or html
//   --out, -o      Output directory (default: current directory)
//   --stdout       Write to stdout instead of a file
//   --open         Open the file afterwards
//   --theme        HTML theme: light (default) or dark

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/auditlogic/internal/export"
)

func (a *App) exportCommand() *cobra.Command {
	var (
		format   string
		outDir   string
		toStdout bool
		open     bool
		theme    string
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a saved audit as Markdown, JSON, YAML or HTML",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return &UsageError{Field: "format", Value: format, Reason: "must be one of " + formatNames(), Example: "auditlogic export <id> --format html"}
			}

			session, err := a.findSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			opts := export.DefaultOptions()
			opts.OutputDir = outDir
			opts.OpenAfterExport = open
			if theme != "" {
				opts.Theme = theme
			}

			if toStdout {
				exporter, err := export.New(f, opts)
				if err != nil {
					return err
				}
				content, err := exporter.Export(&session)
				if err != nil {
					return &CommandError{Command: "export", Action: string(f), Reason: "export failed", Err: err}
				}
				_, err = a.Out.Write(content)
				return err
			}

			path, err := export.ExportSession(&session, string(f), opts)
			if err != nil {
				return &CommandError{Command: "export", Action: string(f), Reason: "export failed", Err: err}
			}

			if jsonMode {
				return writeJSON(a.Out, "export", map[string]string{"id": session.ID, "format": string(f), "path": path})
			}
			fmt.Fprintf(a.Out, "%s Exported %s to %s\n", RenderStatus("ok"), session.ID, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatMarkdown), "Output format: "+formatNames())
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Write to stdout instead of a file")
	cmd.Flags().BoolVar(&open, "open", false, "Open the exported file")
	cmd.Flags().StringVar(&theme, "theme", "", "HTML theme: light or dark")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the result as JSON")
	return cmd
}

func formatNames() string {
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
