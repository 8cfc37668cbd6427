// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func newTestResolver(t *testing.T, env map[string]string, configKey string) *Resolver {
	t.Helper()
	dir := t.TempDir()
	return NewResolver(Options{
		CredentialsPath: filepath.Join(dir, "credentials"),
		DotEnvPath:      filepath.Join(dir, ".env"),
		ConfigKey:       configKey,
		Getenv:          envMap(env),
	})
}

// =============================================================================
// PRECEDENCE TESTS
// =============================================================================

func TestResolver_NoSource(t *testing.T) {
	r := newTestResolver(t, nil, "")

	assert.False(t, r.HasSelectedCredential())
	assert.False(t, r.Available())

	key, err := r.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", key)
	assert.Equal(t, SourceNone, r.Resolve().Kind)
}

func TestResolver_SelectedOverridesEnvironment(t *testing.T) {
	r := newTestResolver(t, map[string]string{"GEMINI_API_KEY": "env-key"}, "cfg-key")

	key, _ := r.APIKey(context.Background())
	assert.Equal(t, "env-key", key)

	require.NoError(t, r.Select("  picked-key \n"))
	assert.True(t, r.HasSelectedCredential())

	key, _ = r.APIKey(context.Background())
	assert.Equal(t, "picked-key", key)
	assert.Equal(t, SourceSelected, r.Resolve().Kind)
}

func TestResolver_EnvironmentOrder(t *testing.T) {
	r := newTestResolver(t, map[string]string{
		"API_KEY":            "generic",
		"GEMINI_API_KEY":     "gemini",
		"AUDITLOGIC_API_KEY": "  ",
	}, "")

	src := r.Resolve()
	assert.Equal(t, SourceEnvironment, src.Kind)
	assert.Equal(t, "GEMINI_API_KEY", src.Name)
}

func TestResolver_DotEnvAndConfigFallback(t *testing.T) {
	r := newTestResolver(t, nil, "cfg-key")

	src := r.Resolve()
	assert.Equal(t, SourceConfig, src.Kind)

	require.NoError(t, os.WriteFile(r.dotEnv, []byte("API_KEY=dot-key\n"), 0600))
	src = r.Resolve()
	assert.Equal(t, SourceDotEnv, src.Kind)
	key, _ := r.APIKey(context.Background())
	assert.Equal(t, "dot-key", key)

	// .env never modifies the process environment
	assert.NotEqual(t, "dot-key", os.Getenv("API_KEY"))
}

func TestResolver_KeyReadFreshEachCall(t *testing.T) {
	r := newTestResolver(t, nil, "")
	require.NoError(t, r.Select("one"))

	k1, _ := r.APIKey(context.Background())
	require.NoError(t, r.Select("two"))
	k2, _ := r.APIKey(context.Background())

	assert.Equal(t, "one", k1)
	assert.Equal(t, "two", k2)
}

func TestResolver_Clear(t *testing.T) {
	r := newTestResolver(t, map[string]string{"API_KEY": "env"}, "")
	require.NoError(t, r.Select("picked"))
	require.NoError(t, r.Clear())

	assert.False(t, r.HasSelectedCredential())
	key, _ := r.APIKey(context.Background())
	assert.Equal(t, "env", key)

	// Clearing twice is fine
	assert.NoError(t, r.Clear())
}

func TestResolver_SelectRejectsEmpty(t *testing.T) {
	r := newTestResolver(t, nil, "")
	assert.ErrorIs(t, r.Select("   "), ErrEmptyKey)
}

func TestResolver_CredentialsFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions")
	}
	r := newTestResolver(t, nil, "")
	require.NoError(t, r.Select("secret"))

	info, err := os.Stat(r.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestResolver_CanceledContext(t *testing.T) {
	r := newTestResolver(t, map[string]string{"API_KEY": "k"}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.APIKey(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// SELECTOR TESTS
// =============================================================================

func TestResolver_OpenCredentialSelector(t *testing.T) {
	r := newTestResolver(t, nil, "")

	assert.ErrorIs(t, r.OpenCredentialSelector(context.Background()), ErrNoPrompter)

	r.WithPrompter(PrompterFunc(func(context.Context) (string, error) { return "typed", nil }))
	require.NoError(t, r.OpenCredentialSelector(context.Background()))
	assert.True(t, r.HasSelectedCredential())

	cancelled := errors.New("user aborted")
	r.WithPrompter(PrompterFunc(func(context.Context) (string, error) { return "", cancelled }))
	assert.ErrorIs(t, r.OpenCredentialSelector(context.Background()), cancelled)
}

func TestTerminalPrompter_NonTerminalInput(t *testing.T) {
	var out strings.Builder
	p := &TerminalPrompter{In: strings.NewReader("  AIza-test \n"), Out: &out}

	key, err := p.PromptKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AIza-test", key)
	assert.Contains(t, out.String(), "API key:")
	assert.NotContains(t, out.String(), "AIza-test")
}

func TestTerminalPrompter_EmptyInput(t *testing.T) {
	p := &TerminalPrompter{In: strings.NewReader("\n"), Out: &strings.Builder{}}
	_, err := p.PromptKey(context.Background())
	assert.ErrorIs(t, err, ErrEmptyKey)
}

// =============================================================================
// MASKING / WATCH TESTS
// =============================================================================

func TestSource_Masked(t *testing.T) {
	r := newTestResolver(t, map[string]string{"API_KEY": "AIzaSyExample"}, "")
	masked := r.Resolve().Masked()

	assert.NotContains(t, masked, "AIza")
	assert.Contains(t, masked, "length=13")
	assert.Contains(t, masked, Fingerprint("AIzaSyExample"))
	assert.Equal(t, "[not set]", Source{}.Masked())
	assert.Len(t, Fingerprint("x"), 8)
}

func TestResolver_WatchSeesSelection(t *testing.T) {
	r := newTestResolver(t, nil, "")
	ctx, cancel := context.WithCancel(context.Background())

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, func() { changed <- struct{}{} })
	}()

	// Give the watcher time to register before writing.
	require.Eventually(t, func() bool {
		_ = r.Select("from-other-terminal")
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
