// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command implementation for auditlogic.
//
// Command: doctor
// Short:   Run health checks
// Aliases: diag
//
// Health Checks Performed:
//   1. Config Valid       - The config file loads and validates
//   2. API Key            - A Gemini key is available from some source
//   3. History Store      - The configured store opens and reads
//   4. Config Dir         - The config directory is writable
//
// Examples:
//   auditlogic doctor
//   auditlogic doctor --json
//
// Exit Codes:
//   0   No check failed (warnings allowed)
//   1   One or more checks failed

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/auditlogic/internal/config"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the lower-case status used in JSON output.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"-"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`

	// StatusText mirrors Status for JSON output.
	StatusText string `json:"status"`
}

// Render returns a formatted line for the check.
func (c *HealthCheck) Render() string {
	var symbol string
	switch c.Status {
	case CheckPass:
		symbol = RenderStatus("ok")
	case CheckWarn:
		symbol = RenderStatus("warn")
	default:
		symbol = RenderStatus("fail")
	}
	result := fmt.Sprintf("%s %s", symbol, ValueStyle.Render(c.Name+": "+c.Message))
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + DimStyle.Render("     -> "+c.Fix)
	}
	return result
}

// DoctorSummary counts check results.
type DoctorSummary struct {
	Passed  int  `json:"passed"`
	Warned  int  `json:"warned"`
	Failed  int  `json:"failed"`
	Healthy bool `json:"healthy"`
}

// DoctorData is the --json payload of doctor.
type DoctorData struct {
	Checks  []*HealthCheck `json:"checks"`
	Summary DoctorSummary  `json:"summary"`
}

// =============================================================================
// COMMAND
// =============================================================================

func (a *App) doctorCommand() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag"},
		Short:   "Run health checks",
		Args:    usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepareLenient()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := a.runAllChecks(cmd.Context())

			var summary DoctorSummary
			for _, c := range checks {
				c.StatusText = c.Status.String()
				switch c.Status {
				case CheckPass:
					summary.Passed++
				case CheckWarn:
					summary.Warned++
				default:
					summary.Failed++
				}
			}
			summary.Healthy = summary.Failed == 0

			if jsonMode {
				resp := NewJSONResponse("doctor", DoctorData{Checks: checks, Summary: summary})
				if !summary.Healthy {
					msg := fmt.Sprintf("%d health check(s) failed", summary.Failed)
					resp.Success = false
					resp.Error = &msg
				}
				if err := resp.Write(a.Out); err != nil {
					return err
				}
				if !summary.Healthy {
					return errDoctorFailedQuiet
				}
				return nil
			}

			fmt.Fprintln(a.Out, TitleStyle.Render("AuditLogic Doctor"))
			fmt.Fprintln(a.Out, RenderSeparator(41))
			for _, c := range checks {
				fmt.Fprintln(a.Out, c.Render())
			}
			fmt.Fprintln(a.Out, RenderSeparator(41))

			parts := []string{fmt.Sprintf("%d passed", summary.Passed)}
			if summary.Warned > 0 {
				parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d warning", summary.Warned)))
			}
			if summary.Failed > 0 {
				parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", summary.Failed)))
			}
			fmt.Fprintln(a.Out, DimStyle.Render(strings.Join(parts, ", ")))

			if !summary.Healthy {
				return &CommandError{Command: "doctor", Action: "check", Reason: fmt.Sprintf("%d health check(s) failed", summary.Failed)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print results as JSON")
	return cmd
}

// errDoctorFailedQuiet sets the exit code after the JSON report already
// described the failure.
var errDoctorFailedQuiet = &silentError{msg: "health checks failed"}

// silentError is returned when output was already written.
type silentError struct{ msg string }

func (e *silentError) Error() string { return e.msg }

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

// runAllChecks runs all health checks in display order.
func (a *App) runAllChecks(ctx context.Context) []*HealthCheck {
	checks := []*HealthCheck{a.checkConfigValid(), a.checkAPIKey()}
	// A broken config would point the store check at defaults
	if a.configErr == nil {
		checks = append(checks, a.checkHistoryStore(ctx))
	}
	return append(checks, checkConfigDirWritable())
}

func (a *App) checkConfigValid() *HealthCheck {
	check := &HealthCheck{Name: "Config"}

	path, err := a.configFile()
	if err != nil {
		check.Status = CheckWarn
		check.Message = "could not determine config path"
		return check
	}

	if a.configErr != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("invalid: %v", a.configErr)
		check.Fix = "Run: auditlogic config init --force"
		return check
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		check.Status = CheckPass
		check.Message = "valid (using defaults)"
		return check
	}

	check.Status = CheckPass
	check.Message = "valid (" + path + ")"
	return check
}

func (a *App) checkAPIKey() *HealthCheck {
	check := &HealthCheck{Name: "API key"}

	src := a.resolver.Resolve()
	if !src.Available() {
		check.Status = CheckFail
		check.Message = "no key selected and none in the environment"
		check.Fix = "Run: auditlogic key set (or export GEMINI_API_KEY)"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("%s (%s)", src.Kind, src.Name)
	return check
}

func (a *App) checkHistoryStore(ctx context.Context) *HealthCheck {
	check := &HealthCheck{Name: "History store"}

	sessions, err := a.listSessions(ctx)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "Check storage.backend and storage.path, or run with --ephemeral"
		return check
	}

	backend := a.cfg.Storage.Backend
	if a.ephemeral {
		backend = "memory"
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("%s, %d saved audits", backend, len(sessions))
	if backend == "memory" {
		check.Status = CheckWarn
		check.Message += "; audits are lost on exit"
	}
	return check
}

func checkConfigDirWritable() *HealthCheck {
	check := &HealthCheck{Name: "Config dir"}

	dir, err := config.ConfigDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		return check
	}
	if err := config.EnsureConfigDir(); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("could not create %s: %v", dir, err)
		check.Fix = "Create manually: mkdir -p " + dir
		return check
	}

	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("%s is not writable: %v", dir, err)
		check.Fix = "Check permissions: chmod 700 " + dir
		return check
	}
	os.Remove(testFile)

	check.Status = CheckPass
	check.Message = dir + " writable"
	return check
}
