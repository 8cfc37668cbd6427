// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for auditlogic commands.
//
// Commands always return errors; Execute prints them once and maps them to
// an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/auditlogic/internal/auditor"
	"github.com/jeranaias/auditlogic/internal/config"
	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates an invalid or unreadable config file
	ExitConfigError = 3
	// ExitAuthError indicates a missing or rejected API key
	ExitAuthError = 4
	// ExitUpstreamError indicates the model call failed or returned garbage
	ExitUpstreamError = 5
	// ExitNotFoundError indicates a saved audit was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a command failure with context.
type CommandError struct {
	Command string // Command that failed (e.g., "history", "export")
	Action  string // Action being performed (e.g., "show", "clear")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError represents invalid arguments or flags.
type UsageError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a missing saved audit.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError wraps a config load or validation failure.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// GetExitCode maps an error to an exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr    *UsageError
		notFoundErr *NotFoundError
		configErr   *ConfigError
		validateErr config.ValidateErrors
		ttyErr      *TTYRequiredError
	)

	switch {
	case errors.As(err, &usageErr), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.As(err, &configErr), errors.As(err, &validateErr):
		return ExitConfigError
	case errors.As(err, &notFoundErr), errors.Is(err, storage.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, auditor.ErrCredentialMissing):
		return ExitAuthError
	case errors.Is(err, auditor.ErrEmptyResponse),
		errors.Is(err, auditor.ErrMalformedResponse),
		errors.Is(err, auditor.ErrTransportFailure):
		return ExitUpstreamError
	case errors.Is(err, controller.ErrNotReady):
		return ExitUsageError
	}
	return ExitGeneralError
}

// DisplayError prints err for a human, or as a JSON envelope in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse("", err).Write(w)
		return
	}

	msg := err.Error()
	var ae *auditor.Error
	if errors.As(err, &ae) {
		// Show the user-facing message; the cause is in the log
		msg = ae.Message
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), msg)

	if errors.Is(err, auditor.ErrCredentialMissing) {
		fmt.Fprintln(w, DimStyle.Render("Run `auditlogic key set` or export GEMINI_API_KEY."))
	}
}
