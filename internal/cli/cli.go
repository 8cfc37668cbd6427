// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command and shared wiring for auditlogic.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/auditor"
	"github.com/jeranaias/auditlogic/internal/config"
	"github.com/jeranaias/auditlogic/internal/controller"
	"github.com/jeranaias/auditlogic/internal/credential"
	"github.com/jeranaias/auditlogic/internal/gemini"
	"github.com/jeranaias/auditlogic/internal/logging"
	"github.com/jeranaias/auditlogic/internal/storage"
	"github.com/jeranaias/auditlogic/internal/ui/app"
)

// =============================================================================
// VERSION INFO
// =============================================================================

// Version information (set from main at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// dotEnvFile is read from the working directory as a credential fallback.
const dotEnvFile = ".env"

// =============================================================================
// APP
// =============================================================================

// App holds the streams, global flags and lazily built services shared by
// every command. The exported fields are seams for tests; nil means "build
// from config".
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	Store    storage.HistoryStore
	Auditor  controller.Auditor
	Prompter credential.Prompter
	Getenv   func(string) string
	Now      func() time.Time

	// Global flags
	configPath string
	verbose    bool
	ephemeral  bool

	cfg       *config.Config
	configErr error
	logger    *zap.Logger
	resolver  *credential.Resolver
	store     storage.HistoryStore
	auditor   controller.Auditor
	ctrl      *controller.Controller
}

// NewApp returns an App bound to the process streams.
func NewApp() *App {
	return &App{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	return NewApp().Run(context.Background(), args)
}

// Run executes args against a fresh command tree, prints any error once and
// maps it to an exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	root := a.RootCommand()
	root.SetArgs(args)
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return ExitSuccess
	}

	var silent *silentError
	if errors.As(err, &silent) {
		return GetExitCode(err)
	}

	jsonMode := false
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil {
			jsonMode = f.Value.String() == "true"
		}
	}
	DisplayError(a.Err, err, jsonMode)
	return GetExitCode(err)
}

// RootCommand builds the command tree.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "auditlogic",
		Short: "AuditLogic - cognitive bias audits for founder statements",
		Long: `AuditLogic sends a founder's thesis or strategy statement to Gemini and
returns a structured audit of the reasoning: risk level, detected biases,
blind spots, counter-arguments, pre-mortem and verdict. Audits are saved
locally.

Run without arguments to start the interactive interface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare(modeFor(cmd))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Field: "flag", Reason: err.Error(), Example: cmd.UseLine()}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: ~/.auditlogic/config.toml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&a.ephemeral, "ephemeral", false, "Keep audits in memory only")

	root.AddCommand(
		a.auditCommand(),
		a.historyCommand(),
		a.exportCommand(),
		a.keyCommand(),
		a.shellCommand(),
		a.serveCommand(),
		a.configCommand(),
		a.doctorCommand(),
		a.versionCommand(),
	)
	return root
}

// usageArgs turns a positional argument validation failure into a
// UsageError so it exits with ExitUsageError.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{Field: "arguments", Reason: err.Error(), Example: cmd.UseLine()}
		}
		return nil
	}
}

// =============================================================================
// WIRING
// =============================================================================

// runMode decides where logs go.
type runMode int

const (
	// modeCommand logs warnings and errors to stderr
	modeCommand runMode = iota
	// modeTUI logs to the log file; stderr would corrupt the screen
	modeTUI
	// modeServe logs at the configured level to stderr
	modeServe
)

func modeFor(cmd *cobra.Command) runMode {
	switch {
	case cmd.Root() == cmd:
		return modeTUI
	case cmd.Name() == "serve":
		return modeServe
	default:
		return modeCommand
	}
}

// prepare loads the config and builds the logger and credential resolver.
// The store and auditor are opened on first use.
func (a *App) prepare(mode runMode) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	return a.wire(cfg, mode)
}

// prepareLenient is prepare for commands that must still work when the
// config file is broken (config, doctor). The load error is kept in
// configErr and defaults are used.
func (a *App) prepareLenient() error {
	cfg, err := a.loadConfig()
	if err != nil {
		a.configErr = err
		cfg = config.Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
	}
	return a.wire(cfg, modeCommand)
}

// wire builds the logger and credential resolver for cfg.
func (a *App) wire(cfg *config.Config, mode runMode) error {
	a.cfg = cfg

	var err error
	logOpts := logging.Options{Level: cfg.Logging.Level, Verbose: a.verbose}
	switch mode {
	case modeTUI:
		if logOpts.File, err = cfg.LogPath(); err != nil {
			return &ConfigError{Err: err}
		}
	case modeCommand:
		// USABILITY: one-shot commands print results, not info logs
		if logOpts.Level == "debug" || logOpts.Level == "info" {
			logOpts.Level = "warn"
		}
	}
	if a.logger, err = logging.New(logOpts); err != nil {
		return &ConfigError{Err: err}
	}

	credsPath, err := config.CredentialsPath()
	if err != nil {
		return &ConfigError{Err: err}
	}
	prompter := a.Prompter
	if prompter == nil {
		prompter = &credential.TerminalPrompter{In: a.In, Out: a.Err}
	}
	a.resolver = credential.NewResolver(credential.Options{
		CredentialsPath: credsPath,
		DotEnvPath:      dotEnvFile,
		ConfigKey:       cfg.Cloud.APIKey,
		Prompter:        prompter,
		Getenv:          a.Getenv,
	}).WithLogger(a.logger.Named("credential"))
	return nil
}

// configFile is the file config commands read and write.
func (a *App) configFile() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPathTOML()
}

// loadConfig reads --config or the default locations. A broken default
// file is an error rather than a silent fallback to defaults.
func (a *App) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		cfg, err := config.LoadFromPath(a.configPath)
		if err != nil {
			return nil, &ConfigError{Path: a.configPath, Err: err}
		}
		return cfg, nil
	}

	cfg, err := config.Load()
	if err != nil {
		path, _ := config.ConfigPathTOML()
		return nil, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// services builds the controller once and initialises it.
func (a *App) services(ctx context.Context) (*controller.Controller, error) {
	if a.ctrl != nil {
		return a.ctrl, nil
	}
	ctrl, err := a.buildController()
	if err != nil {
		return nil, err
	}
	if err := ctrl.Init(ctx); err != nil {
		return nil, err
	}
	a.ctrl = ctrl
	return ctrl, nil
}

// buildController opens the store and wires the auditor into a new,
// uninitialised controller. The TUI initialises it from its own loop.
func (a *App) buildController() (*controller.Controller, error) {

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.store = store

	a.auditor = a.Auditor
	if a.auditor == nil {
		a.auditor = auditor.NewService(a.resolver, gemini.Factory(gemini.Options{
			Model:   a.cfg.Cloud.Model,
			Timeout: a.cfg.Cloud.Timeout(),
		})).WithLogger(a.logger.Named("auditor"))
	}

	ctrl := controller.New(a.auditor, a.store, a.resolver).WithLogger(a.logger.Named("controller"))
	if a.Now != nil {
		ctrl = ctrl.WithClock(a.Now)
	}
	return ctrl, nil
}

// openStore honours --ephemeral and the injected store.
func (a *App) openStore() (storage.HistoryStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	if a.ephemeral {
		return storage.NewMemoryStore(), nil
	}

	path, err := a.cfg.StoragePath()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	store, err := storage.Open(storage.Options{
		Backend: a.cfg.Storage.Backend,
		Path:    path,
		Logger:  a.logger.Named("storage"),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s history store: %w", a.cfg.Storage.Backend, err)
	}
	a.logger.Debug("history store opened",
		zap.String("backend", a.cfg.Storage.Backend),
		zap.String("path", path))
	return store, nil
}

// close releases the store (unless injected) and flushes the logger.
func (a *App) close() {
	if a.store != nil && a.Store == nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("failed to close history store", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// =============================================================================
// INTERACTIVE MODE
// =============================================================================

// runTUI starts the full-screen interface and forwards credential file
// changes to it.
func (a *App) runTUI(ctx context.Context) error {
	if err := requireTTY(a.In, "start the interactive interface"); err != nil {
		return err
	}
	if !isTerminal(a.Out) {
		return &TTYRequiredError{Operation: "start the interactive interface (stdout is redirected)"}
	}

	// Model.Init loads history and checks the key in the background
	ctrl, err := a.buildController()
	if err != nil {
		return err
	}
	a.ctrl = ctrl

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := app.Options{
		Controller: ctrl,
		Auditor:    a.auditor,
		Context:    ctx,
		Theme:      a.cfg.UI.Theme,
		WordWrap:   a.cfg.UI.WordWrap,
		Compact:    a.cfg.UI.CompactMode,
		Logger:     a.logger.Named("ui"),
	}

	return app.Run(opts, func(p *tea.Program) {
		go func() {
			err := a.resolver.Watch(ctx, func() {
				p.Send(app.CredentialChangedMsg{})
			})
			if err != nil {
				a.logger.Warn("credential watcher stopped", zap.Error(err))
			}
		}()
	})
}
