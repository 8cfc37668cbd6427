// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/util"
)

// EnvVars are consulted in order when no key has been selected.
var EnvVars = []string{"AUDITLOGIC_API_KEY", "GEMINI_API_KEY", "API_KEY"}

// ErrNoPrompter is returned by OpenCredentialSelector when the resolver has
// no way to ask the user for a key.
var ErrNoPrompter = errors.New("no credential prompter configured")

// ErrEmptyKey is returned when an empty key is selected.
var ErrEmptyKey = errors.New("API key cannot be empty")

// =============================================================================
// SOURCE
// =============================================================================

// SourceKind identifies where the active key came from.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceSelected
	SourceEnvironment
	SourceDotEnv
	SourceConfig
)

// String returns a short label for the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceSelected:
		return "selected"
	case SourceEnvironment:
		return "environment"
	case SourceDotEnv:
		return "dotenv"
	case SourceConfig:
		return "config"
	default:
		return "none"
	}
}

// Source describes the active key without exposing it.
type Source struct {
	Kind SourceKind

	// Name is the env var, file path or config key that supplied the key.
	Name string

	key string
}

// Available reports whether a key was found.
func (s Source) Available() bool {
	return s.Kind != SourceNone
}

// Masked returns a redacted description of the key.
// SECURITY: Never show any part of the key, use fingerprint instead
func (s Source) Masked() string {
	if s.key == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(s.key), Fingerprint(s.key))
}

// Fingerprint returns the first 8 hex chars of the key's SHA-256.
func Fingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// RESOLVER
// =============================================================================

// Options configures a Resolver.
type Options struct {
	// CredentialsPath is the file holding the interactively selected key.
	CredentialsPath string

	// DotEnvPath is an optional .env file read without modifying the process
	// environment. Missing files are ignored.
	DotEnvPath string

	// ConfigKey is the key from the config file, lowest precedence.
	ConfigKey string

	// Prompter asks the user for a key. Optional.
	Prompter Prompter

	// Getenv overrides os.Getenv for tests.
	Getenv func(string) string
}

// Resolver finds the API key on every request. Precedence: selected key
// (credentials file), environment variables, .env file, config file.
type Resolver struct {
	path      string
	dotEnv    string
	configKey string
	getenv    func(string) string
	logger    *zap.Logger

	mu       sync.Mutex
	prompter Prompter
}

// NewResolver creates a resolver.
func NewResolver(opts Options) *Resolver {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Resolver{
		path:      opts.CredentialsPath,
		dotEnv:    opts.DotEnvPath,
		configKey: strings.TrimSpace(opts.ConfigKey),
		getenv:    getenv,
		prompter:  opts.Prompter,
		logger:    zap.NewNop(),
	}
}

// WithLogger sets the logger.
func (r *Resolver) WithLogger(logger *zap.Logger) *Resolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// WithPrompter replaces the prompter used by OpenCredentialSelector.
func (r *Resolver) WithPrompter(p Prompter) *Resolver {
	r.mu.Lock()
	r.prompter = p
	r.mu.Unlock()
	return r
}

// Path returns the credentials file location.
func (r *Resolver) Path() string {
	return r.path
}

// HasSelectedCredential reports whether a key has been selected
// interactively and stored in the credentials file.
func (r *Resolver) HasSelectedCredential() bool {
	return r.selectedKey() != ""
}

// Available reports whether any source provides a key.
func (r *Resolver) Available() bool {
	return r.Resolve().Available()
}

// APIKey returns the current key, or "" when none is available.
func (r *Resolver) APIKey(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.Resolve().key, nil
}

// Resolve walks the sources in precedence order.
func (r *Resolver) Resolve() Source {
	if key := r.selectedKey(); key != "" {
		return Source{Kind: SourceSelected, Name: r.path, key: key}
	}

	for _, name := range EnvVars {
		if key := strings.TrimSpace(r.getenv(name)); key != "" {
			return Source{Kind: SourceEnvironment, Name: name, key: key}
		}
	}

	if r.dotEnv != "" {
		if vars, err := godotenv.Read(r.dotEnv); err == nil {
			for _, name := range EnvVars {
				if key := strings.TrimSpace(vars[name]); key != "" {
					return Source{Kind: SourceDotEnv, Name: r.dotEnv + ":" + name, key: key}
				}
			}
		} else if !os.IsNotExist(err) {
			r.logger.Warn("failed to read .env file", zap.String("path", r.dotEnv), zap.Error(err))
		}
	}

	if r.configKey != "" {
		return Source{Kind: SourceConfig, Name: "cloud.api_key", key: r.configKey}
	}

	return Source{}
}

// OpenCredentialSelector asks the configured prompter for a key and stores it.
func (r *Resolver) OpenCredentialSelector(ctx context.Context) error {
	r.mu.Lock()
	p := r.prompter
	r.mu.Unlock()

	if p == nil {
		return ErrNoPrompter
	}
	return r.SelectWith(ctx, p)
}

// SelectWith asks p for a key and stores it.
func (r *Resolver) SelectWith(ctx context.Context, p Prompter) error {
	key, err := p.PromptKey(ctx)
	if err != nil {
		return err
	}
	return r.Select(key)
}

// Select stores key as the selected credential.
func (r *Resolver) Select(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if r.path == "" {
		return errors.New("credentials path not configured")
	}

	// SECURITY: owner-only permissions on the key file
	if err := util.AtomicWriteFileWithDir(r.path, []byte(key+"\n"), 0600, 0700); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	r.logger.Info("API key selected", zap.String("fingerprint", Fingerprint(key)))
	return nil
}

// Clear removes the selected credential. Environment keys are unaffected.
func (r *Resolver) Clear() error {
	if r.path == "" {
		return nil
	}
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

func (r *Resolver) selectedKey() string {
	if r.path == "" {
		return ""
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
