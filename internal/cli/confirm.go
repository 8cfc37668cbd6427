// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.
//
// One pattern for every destructive action:
//  1. --yes skips the prompt
//  2. --json requires --yes (no prompts in JSON mode)
//  3. a non-terminal stdin requires --yes
//  4. otherwise ask and accept only y/yes

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// Yes indicates --yes was passed
	Yes bool
	// JSONMode indicates --json was passed
	JSONMode bool
}

// errConfirmationRequired is returned when a prompt is impossible.
var errConfirmationRequired = errors.New("confirmation required: pass --yes")

// RequireConfirmation asks before a destructive action. It returns false
// without error when the user declines.
func RequireConfirmation(in io.Reader, out io.Writer, action string, opts ConfirmationOptions) (bool, error) {
	if opts.Yes {
		return true, nil
	}
	if opts.JSONMode {
		return false, fmt.Errorf("%w (JSON mode never prompts)", errConfirmationRequired)
	}
	if !isTerminal(in) {
		return false, fmt.Errorf("%w (stdin is not a terminal)", errConfirmationRequired)
	}
	return promptYesNo(in, out, action)
}

// promptYesNo prints the question and reads one line.
func promptYesNo(in io.Reader, out io.Writer, action string) (bool, error) {
	fmt.Fprintf(out, "Are you sure you want to %s? [y/N]: ", action)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
