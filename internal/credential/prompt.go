// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for an API key.
type Prompter interface {
	PromptKey(ctx context.Context) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (string, error)

// PromptKey calls f.
func (f PrompterFunc) PromptKey(ctx context.Context) (string, error) {
	return f(ctx)
}

// TerminalPrompter reads a key from a terminal without echoing it. When In
// is not a terminal it falls back to reading one line.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// PromptKey prints instructions and reads the key.
func (p *TerminalPrompter) PromptKey(ctx context.Context) (string, error) {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	out := p.Out
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprintln(out, "Paste your Gemini API key (https://aistudio.google.com/apikey).")
	fmt.Fprint(out, "API key: ")

	var key string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		// SECURITY: no echo while the key is typed
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		key = string(b)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		key = line
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	return key, nil
}
