// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/auditlogic/internal/auditor"
	"github.com/jeranaias/auditlogic/internal/config"
	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/credential"
	"github.com/jeranaias/auditlogic/internal/model"
	"github.com/jeranaias/auditlogic/internal/storage"
)

// =============================================================================
// FIXTURE
// =============================================================================

var fixedNow = time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)

type fakeAuditor struct {
	mu         sync.Mutex
	err        error
	statements []string
}

func (f *fakeAuditor) AuditStatement(ctx context.Context, statement string) (*model.AuditResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, statement)
	if f.err != nil {
		return nil, f.err
	}
	return &model.AuditResult{
		DetectedBiases:    []string{"Planning fallacy"},
		Evidence:          "\"we'll ship in two weeks\"",
		ReasoningFlaws:    []string{"Best-case schedule treated as expected"},
		WeakAssumptions:   []string{"No integration surprises"},
		CounterHypotheses: []string{"Scope is larger than estimated"},
		KillCriteria:      []string{"Missed second milestone"},
		RiskAssessment:    model.RiskAssessment{Level: model.RiskModerate, Summary: "Optimism bias in scheduling."},
	}, nil
}

func (f *fakeAuditor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statements)
}

type cliFixture struct {
	t        *testing.T
	home     string
	store    *storage.MemoryStore
	aud      *fakeAuditor
	env      map[string]string
	prompter credential.Prompter
}

func newCLIFixture(t *testing.T, withKey bool) *cliFixture {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)

	env := map[string]string{}
	if withKey {
		env["GEMINI_API_KEY"] = "test-key-from-env"
	}
	return &cliFixture{
		t:     t,
		home:  home,
		store: storage.NewMemoryStore(),
		aud:   &fakeAuditor{},
		env:   env,
	}
}

func (f *cliFixture) run(stdin string, args ...string) (string, string, int) {
	f.t.Helper()
	var out, errOut bytes.Buffer
	app := &App{
		In:       strings.NewReader(stdin),
		Out:      &out,
		Err:      &errOut,
		Store:    f.store,
		Auditor:  f.aud,
		Prompter: f.prompter,
		Getenv:   func(k string) string { return f.env[k] },
		Now:      func() time.Time { return fixedNow },
	}
	code := app.Run(context.Background(), args)
	return out.String(), errOut.String(), code
}

func (f *cliFixture) sessions() []model.AuditSession {
	f.t.Helper()
	sessions, err := f.store.GetAllAudits(context.Background())
	require.NoError(f.t, err)
	return sessions
}

func (f *cliFixture) seed(id, statement string, ts int64) {
	f.t.Helper()
	require.NoError(f.t, f.store.SaveAudit(context.Background(), model.AuditSession{
		ID:               id,
		Timestamp:        ts,
		FounderStatement: statement,
		Result: model.AuditResult{
			DetectedBiases:    []string{"Survivorship bias"},
			ReasoningFlaws:    []string{},
			WeakAssumptions:   []string{},
			CounterHypotheses: []string{},
			KillCriteria:      []string{},
			RiskAssessment:    model.RiskAssessment{Level: model.RiskHigh, Summary: "Shaky."},
		},
	}))
}

// envelope decodes a JSONResponse with a typed payload.
type envelope[T any] struct {
	Success bool    `json:"success"`
	Data    T       `json:"data"`
	Error   *string `json:"error"`
	Command string  `json:"command"`
}

func decode[T any](t *testing.T, s string) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal([]byte(s), &env), "output: %s", s)
	return env
}

// =============================================================================
// AUDIT
// =============================================================================

func TestAudit_ArgsArePersistedAndPrinted(t *testing.T) {
	f := newCLIFixture(t, true)

	out, _, code := f.run("", "audit", "--plain", "We", "will", "win", "the", "market")
	require.Equal(t, ExitSuccess, code)

	assert.Contains(t, out, "MODERATE RISK")
	assert.Contains(t, out, "Planning fallacy")
	assert.Contains(t, out, "Optimism bias in scheduling.")

	sessions := f.sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, "We will win the market", sessions[0].FounderStatement)
	assert.Equal(t, fixedNow.UnixMilli(), sessions[0].Timestamp)
	assert.Contains(t, out, sessions[0].ID)
}

func TestAudit_StyledReportRendersWithoutTerminal(t *testing.T) {
	f := newCLIFixture(t, true)

	out, _, code := f.run("", "audit", "Everyone needs this")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Planning fallacy")
}

func TestAudit_ReadsStdinAsJSON(t *testing.T) {
	f := newCLIFixture(t, true)

	out, _, code := f.run("  thesis from stdin\n", "audit", "--json")
	require.Equal(t, ExitSuccess, code)

	env := decode[model.AuditSession](t, out)
	assert.True(t, env.Success)
	assert.Equal(t, "audit", env.Command)
	assert.Equal(t, "thesis from stdin", env.Data.FounderStatement)
	assert.Equal(t, model.RiskModerate, env.Data.Result.RiskAssessment.Level)
	assert.Equal(t, []string{"thesis from stdin"}, f.aud.statements)
}

func TestAudit_BlankStatementIsUsageError(t *testing.T) {
	f := newCLIFixture(t, true)

	_, errOut, code := f.run("   \n", "audit")
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, errOut, "no statement")
	assert.Zero(t, f.aud.Calls())
}

func TestAudit_TooLongStatementIsRejected(t *testing.T) {
	f := newCLIFixture(t, true)

	_, _, code := f.run(strings.Repeat("x", MaxStatementBytes+1), "audit")
	assert.Equal(t, ExitUsageError, code)
	assert.Zero(t, f.aud.Calls())
}

func TestAudit_NoCredentialMakesNoCall(t *testing.T) {
	f := newCLIFixture(t, false)

	_, errOut, code := f.run("", "audit", "An idea")
	assert.Equal(t, ExitAuthError, code)
	assert.Contains(t, errOut, auditor.MsgCredentialMissing)
	assert.Contains(t, errOut, "auditlogic key set")
	assert.Zero(t, f.aud.Calls())
	assert.Empty(t, f.sessions())
}

func TestAudit_FailuresMapToExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"empty", auditor.ErrEmptyResponse, ExitUpstreamError, auditor.MsgEmptyResponse},
		{"malformed", auditor.ErrMalformedResponse, ExitUpstreamError, auditor.MsgMalformedResponse},
		{"transport", &auditor.Error{Kind: auditor.KindTransportFailure, Message: auditor.MsgTransportFailure, Err: errors.New("dial tcp: refused")}, ExitUpstreamError, auditor.MsgTransportFailure},
		{"rejected key", auditor.ErrCredentialMissing, ExitAuthError, auditor.MsgCredentialMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCLIFixture(t, true)
			f.aud.err = tt.err

			_, errOut, code := f.run("", "audit", "An idea")
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, errOut, tt.wantMsg)
			assert.NotContains(t, errOut, "dial tcp")
			assert.Empty(t, f.sessions())
		})
	}
}

func TestAudit_JSONModeErrorEnvelope(t *testing.T) {
	f := newCLIFixture(t, true)
	f.aud.err = auditor.ErrMalformedResponse

	_, errOut, code := f.run("", "audit", "--json", "An idea")
	assert.Equal(t, ExitUpstreamError, code)

	env := decode[any](t, errOut)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Contains(t, *env.Error, auditor.MsgMalformedResponse)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_ListShowClear(t *testing.T) {
	f := newCLIFixture(t, true)
	f.seed("11111111-aaaa-4000-8000-000000000001", "Older thesis", 1000)
	f.seed("22222222-bbbb-4000-8000-000000000002", "Newer thesis", 2000)

	out, _, code := f.run("", "history")
	require.Equal(t, ExitSuccess, code)
	assert.Less(t, strings.Index(out, "22222222"), strings.Index(out, "11111111"), "newest first")

	out, _, code = f.run("", "history", "list", "--json")
	require.Equal(t, ExitSuccess, code)
	list := decode[[]model.AuditSession](t, out)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "Newer thesis", list.Data[0].FounderStatement)

	out, _, code = f.run("", "history", "show", "2222", "--plain")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Newer thesis")
	assert.Contains(t, out, "Survivorship bias")

	_, errOut, code := f.run("", "history", "clear")
	assert.Equal(t, ExitUsageError, code, "no prompt without a terminal")
	assert.Contains(t, errOut, "--yes")
	assert.Len(t, f.sessions(), 2)

	out, _, code = f.run("", "history", "clear", "--yes")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Deleted 2 saved audits")
	assert.Empty(t, f.sessions())
}

func TestHistory_EmptyList(t *testing.T) {
	f := newCLIFixture(t, true)

	out, _, code := f.run("", "history", "list")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No saved audits found on this device.")

	out, _, code = f.run("", "history", "clear")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No saved audits found on this device.")
}

func TestHistory_ShowErrors(t *testing.T) {
	f := newCLIFixture(t, true)
	f.seed("abcd1111-0000-4000-8000-000000000001", "One", 1000)
	f.seed("abcd2222-0000-4000-8000-000000000002", "Two", 2000)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown id", []string{"history", "show", "ffffffff"}, ExitNotFoundError},
		{"short prefix", []string{"history", "show", "ab"}, ExitNotFoundError},
		{"ambiguous prefix", []string{"history", "show", "abcd"}, ExitUsageError},
		{"missing id", []string{"history", "show"}, ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := f.run("", tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExport_WritesFile(t *testing.T) {
	f := newCLIFixture(t, true)
	f.seed("33333333-cccc-4000-8000-000000000003", "Export me", 3000)
	dir := t.TempDir()

	out, _, code := f.run("", "export", "3333", "--format", "json", "--out", dir, "--json")
	require.Equal(t, ExitSuccess, code)

	env := decode[map[string]string](t, out)
	path := env.Data["path"]
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "json", env.Data["format"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Export me")
}

func TestExport_Stdout(t *testing.T) {
	f := newCLIFixture(t, true)
	f.seed("44444444-dddd-4000-8000-000000000004", "Yaml me", 4000)

	out, _, code := f.run("", "export", "44444444-dddd-4000-8000-000000000004", "-f", "yaml", "--stdout")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Yaml me")
	assert.Contains(t, out, "riskAssessment")
}

func TestExport_Errors(t *testing.T) {
	f := newCLIFixture(t, true)
	f.seed("55555555-eeee-4000-8000-000000000005", "x", 5000)

	_, errOut, code := f.run("", "export", "5555", "--format", "pdf")
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, errOut, "md, json, yaml, html")

	_, _, code = f.run("", "export", "99999999")
	assert.Equal(t, ExitNotFoundError, code)
}

// =============================================================================
// KEY
// =============================================================================

func TestKey_SetStatusClear(t *testing.T) {
	f := newCLIFixture(t, false)

	out, _, code := f.run("", "key", "status", "--json")
	require.Equal(t, ExitSuccess, code)
	st := decode[KeyStatus](t, out)
	assert.False(t, st.Data.Available)
	assert.Equal(t, "none", st.Data.Source)

	_, _, code = f.run("super-secret-key\n", "key", "set", "--stdin")
	require.Equal(t, ExitSuccess, code)

	info, err := os.Stat(filepath.Join(f.home, "credentials"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out, _, code = f.run("", "key", "--json")
	require.Equal(t, ExitSuccess, code)
	assert.NotContains(t, out, "super-secret-key")
	st = decode[KeyStatus](t, out)
	assert.True(t, st.Data.Available)
	assert.Equal(t, "selected", st.Data.Source)

	// The selected key now unblocks audits
	_, _, code = f.run("", "audit", "An idea")
	assert.Equal(t, ExitSuccess, code)

	_, _, code = f.run("", "key", "clear", "--yes")
	require.Equal(t, ExitSuccess, code)
	_, err = os.Stat(filepath.Join(f.home, "credentials"))
	assert.True(t, os.IsNotExist(err))
}

func TestKey_SetErrors(t *testing.T) {
	f := newCLIFixture(t, false)

	_, _, code := f.run("\n", "key", "set", "--stdin")
	assert.Equal(t, ExitUsageError, code, "empty key")

	_, errOut, code := f.run("", "key", "set")
	assert.Equal(t, ExitUsageError, code, "no terminal and no --stdin")
	assert.Contains(t, errOut, "not a terminal")
}

func TestKey_SetUsesPrompter(t *testing.T) {
	f := newCLIFixture(t, false)
	f.prompter = credential.PrompterFunc(func(ctx context.Context) (string, error) {
		return "prompted-key", nil
	})

	out, _, code := f.run("", "key", "set")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "API key selected")
	assert.Contains(t, out, credential.Fingerprint("prompted-key"))
}

func TestKey_ClearShowsRemainingSource(t *testing.T) {
	f := newCLIFixture(t, true)

	_, _, code := f.run("selected\n", "key", "set", "--stdin")
	require.Equal(t, ExitSuccess, code)

	out, _, code := f.run("", "key", "clear", "--yes")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "environment")
	assert.Contains(t, out, "GEMINI_API_KEY")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_InitSetGet(t *testing.T) {
	f := newCLIFixture(t, true)

	_, _, code := f.run("", "config", "init")
	require.Equal(t, ExitSuccess, code)
	_, err := os.Stat(filepath.Join(f.home, "config.toml"))
	require.NoError(t, err)

	_, _, code = f.run("", "config", "init")
	assert.Equal(t, ExitUsageError, code, "refuses to overwrite")

	_, _, code = f.run("", "config", "set", "cloud.model", "gemini-2.5-pro")
	require.Equal(t, ExitSuccess, code)

	out, _, code := f.run("", "config", "get", "cloud.model")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "gemini-2.5-pro\n", out)

	_, _, code = f.run("", "config", "set", "cloud.api_key", "file-secret")
	require.Equal(t, ExitSuccess, code)

	out, _, code = f.run("", "config", "show", "--json")
	require.Equal(t, ExitSuccess, code)
	assert.NotContains(t, out, "file-secret")
	show := decode[map[string]any](t, out)
	assert.Equal(t, "gemini-2.5-pro", show.Data["cloud.model"])
	assert.Equal(t, "sha256:"+credential.Fingerprint("file-secret")+"...", show.Data["cloud.api_key"])
}

func TestConfig_SetErrors(t *testing.T) {
	f := newCLIFixture(t, true)

	_, _, code := f.run("", "config", "set", "cloud.nope", "x")
	assert.Equal(t, ExitUsageError, code)

	_, _, code = f.run("", "config", "set", "storage.backend", "postgres")
	assert.Equal(t, ExitConfigError, code)

	_, err := os.Stat(filepath.Join(f.home, "config.toml"))
	assert.True(t, os.IsNotExist(err), "invalid values are not written")
}

func TestConfig_BrokenFile(t *testing.T) {
	f := newCLIFixture(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(f.home, "config.toml"), []byte("[cloud\nmodel = "), 0600))

	_, errOut, code := f.run("", "history")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, errOut, "config.toml")

	out, _, code := f.run("", "config", "path")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, filepath.Join(f.home, "config.toml")+"\n", out)

	out, _, code = f.run("", "doctor", "--json")
	assert.Equal(t, ExitGeneralError, code)
	env := decode[DoctorData](t, out)
	assert.False(t, env.Success)
	assert.False(t, env.Data.Summary.Healthy)
	assert.Equal(t, "fail", env.Data.Checks[0].StatusText)

	_, _, code = f.run("", "config", "init", "--force")
	require.Equal(t, ExitSuccess, code)
	_, _, code = f.run("", "history")
	assert.Equal(t, ExitSuccess, code)
}

func TestConfig_ExplicitPath(t *testing.T) {
	f := newCLIFixture(t, true)
	path := filepath.Join(t.TempDir(), "custom.toml")

	_, _, code := f.run("", "--config", path, "config", "init")
	require.Equal(t, ExitSuccess, code)
	_, _, code = f.run("", "--config", path, "config", "set", "ui.theme", "dark")
	require.Equal(t, ExitSuccess, code)

	out, _, code := f.run("", "--config", path, "config", "get", "ui.theme")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "dark\n", out)

	_, _, code = f.run("", "--config", filepath.Join(t.TempDir(), "missing.toml"), "history")
	assert.Equal(t, ExitConfigError, code)
}

// =============================================================================
// DOCTOR, SHELL, VERSION
// =============================================================================

func TestDoctor_Healthy(t *testing.T) {
	f := newCLIFixture(t, true)
	f.seed("66666666-ffff-4000-8000-000000000006", "x", 6000)

	out, _, code := f.run("", "doctor")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "1 saved audits")
	assert.Contains(t, out, "4 passed")
}

func TestDoctor_MissingKeyFails(t *testing.T) {
	f := newCLIFixture(t, false)

	out, errOut, code := f.run("", "doctor")
	assert.Equal(t, ExitGeneralError, code)
	assert.Contains(t, out, "auditlogic key set")
	assert.Contains(t, errOut, "1 health check(s) failed")
}

func TestShell_PipedInput(t *testing.T) {
	f := newCLIFixture(t, true)

	input := strings.Join([]string{
		"First idea",
		"",
		":history",
		":bogus",
		"Second idea",
		"quit",
		"Never audited",
	}, "\n") + "\n"

	out, errOut, code := f.run(input, "shell", "--plain")
	require.Equal(t, ExitSuccess, code)

	assert.Equal(t, []string{"First idea", "Second idea"}, f.aud.statements)
	assert.Len(t, f.sessions(), 2)
	assert.Contains(t, out, "Audits:")
	assert.Contains(t, errOut, "unknown shell command")
}

func TestShell_ContinuesAfterFailure(t *testing.T) {
	f := newCLIFixture(t, true)
	f.aud.err = auditor.ErrEmptyResponse

	out, errOut, code := f.run("One\nTwo\n", "shell", "--plain")
	require.Equal(t, ExitSuccess, code, "EOF ends the shell cleanly")
	assert.Equal(t, 2, f.aud.Calls())
	assert.Equal(t, 2, strings.Count(errOut, auditor.MsgEmptyResponse))
	assert.Contains(t, out, shellPrompt)
}

func TestVersion(t *testing.T) {
	f := newCLIFixture(t, false)

	out, _, code := f.run("", "version", "--json")
	require.Equal(t, ExitSuccess, code)
	env := decode[VersionInfo](t, out)
	assert.Equal(t, Version, env.Data.Version)
	assert.NotEmpty(t, env.Data.GoVersion)
}

// =============================================================================
// ROOT AND ERRORS
// =============================================================================

func TestRoot_UsageErrors(t *testing.T) {
	f := newCLIFixture(t, true)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"bogus"}},
		{"unknown flag", []string{"history", "--nope"}},
		{"interactive without terminal", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, code := f.run("", tt.args...)
			assert.Equal(t, ExitUsageError, code)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"usage", &UsageError{Field: "x"}, ExitUsageError},
		{"tty", &TTYRequiredError{}, ExitUsageError},
		{"not ready", controller.ErrNotReady, ExitUsageError},
		{"config", &ConfigError{Err: errors.New("bad")}, ExitConfigError},
		{"validation", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "a", Message: "b"}}), ExitConfigError},
		{"not found", &NotFoundError{Resource: "audit", ID: "x"}, ExitNotFoundError},
		{"store not found", fmt.Errorf("get: %w", storage.ErrNotFound), ExitNotFoundError},
		{"timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), ExitTimeoutError},
		{"credential", auditor.ErrCredentialMissing, ExitAuthError},
		{"upstream", auditor.ErrTransportFailure, ExitUpstreamError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestRequireConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		opts    ConfirmationOptions
		wantOK  bool
		wantErr bool
	}{
		{"yes flag", ConfirmationOptions{Yes: true}, true, false},
		{"yes flag in json mode", ConfirmationOptions{Yes: true, JSONMode: true}, true, false},
		{"json mode never prompts", ConfirmationOptions{JSONMode: true}, false, true},
		{"no terminal", ConfirmationOptions{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := RequireConfirmation(strings.NewReader("y\n"), &bytes.Buffer{}, "do it", tt.opts)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr {
				assert.ErrorIs(t, err, errConfirmationRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPromptYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			var out bytes.Buffer
			ok, err := promptYesNo(strings.NewReader(tt.input), &out, "delete everything")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "delete everything? [y/N]")
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, &auditor.Error{Kind: auditor.KindTransportFailure, Message: "friendly", Err: errors.New("raw cause")}, false)
	assert.Contains(t, buf.String(), "friendly")
	assert.NotContains(t, buf.String(), "raw cause")

	buf.Reset()
	DisplayError(&buf, errors.New("boom"), true)
	env := decode[any](t, buf.String())
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "boom", *env.Error)
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback("127.0.0.1:8787"))
	assert.True(t, isLoopback("localhost:80"))
	assert.True(t, isLoopback("[::1]:9000"))
	assert.False(t, isLoopback("0.0.0.0:8787"))
	assert.False(t, isLoopback(":8787"))
	assert.False(t, isLoopback("nonsense"))
}
