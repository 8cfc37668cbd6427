// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation for auditlogic.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init                Write a default config file
//   get <key>           Print one value
//   set <key> <value>   Change one value in the config file
//
// Examples:
//   auditlogic config
//   auditlogic config show --json
//   auditlogic config set cloud.model gemini-2.5-pro
//   auditlogic config set storage.backend json
//   auditlogic config get server.addr
//   auditlogic config init --force
//
// The config commands still run when the config file is broken so it can
// be inspected and repaired.

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/auditlogic/internal/config"
	"github.com/jeranaias/auditlogic/internal/credential"
)

// secretKeys are masked by show and get.
var secretKeys = map[string]bool{
	"cloud.api_key": true,
	"server.token":  true,
}

func (a *App) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Args:  usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepareLenient()
		},
	}

	show := a.configShowCommand()
	cmd.RunE = show.RunE
	cmd.Flags().AddFlagSet(show.Flags())

	cmd.AddCommand(
		show,
		a.configPathCommand(),
		a.configInitCommand(),
		a.configGetCommand(),
		a.configSetCommand(),
	)
	return cmd
}

func (a *App) configShowCommand() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.configValues()
			if err != nil {
				return err
			}
			if jsonMode {
				return writeJSON(a.Out, "config show", values)
			}

			if a.configErr != nil {
				fmt.Fprintf(a.Err, "%s %v (showing defaults)\n", WarningStyle.Render("Warning:"), a.configErr)
			}

			fmt.Fprintln(a.Out, TitleStyle.Render("AuditLogic Configuration"))
			fmt.Fprintln(a.Out, RenderSeparator(41))

			section := ""
			for _, key := range config.GetAllKeys() {
				sec, name, _ := strings.Cut(key, ".")
				if sec != section {
					if section != "" {
						fmt.Fprintln(a.Out)
					}
					fmt.Fprintln(a.Out, TitleStyle.Render("["+sec+"]"))
					section = sec
				}
				fmt.Fprintf(a.Out, "  %s%s\n", RenderLabel(name+":"), ValueStyle.Render(fmt.Sprint(values[key])))
			}

			fmt.Fprintln(a.Out, RenderSeparator(41))
			path, _ := a.configFile()
			fmt.Fprintf(a.Out, "Config file: %s\n", DimStyle.Render(path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print configuration as JSON")
	return cmd
}

func (a *App) configPathCommand() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFile()
			if err != nil {
				return &ConfigError{Err: err}
			}
			_, statErr := os.Stat(path)
			exists := statErr == nil

			if jsonMode {
				return writeJSON(a.Out, "config path", map[string]interface{}{"path": path, "exists": exists})
			}
			fmt.Fprintln(a.Out, path)
			if !exists {
				fmt.Fprintln(a.Err, DimStyle.Render("(not created yet; run `auditlogic config init`)"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the path as JSON")
	return cmd
}

func (a *App) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFile()
			if err != nil {
				return &ConfigError{Err: err}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return &UsageError{Field: "config", Value: path, Reason: "file already exists", Example: "auditlogic config init --force"}
			}

			if err := saveConfigFile(config.Default(), path); err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			fmt.Fprintf(a.Out, "%s Wrote %s\n", RenderStatus("ok"), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func (a *App) configGetCommand() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(args[0])
			value, err := a.cfg.Get(key)
			if err != nil {
				return &UsageError{Field: "key", Value: args[0], Reason: err.Error(), Example: "auditlogic config get cloud.model"}
			}
			value = maskIfSecret(key, value)

			if jsonMode {
				return writeJSON(a.Out, "config get", map[string]interface{}{"key": key, "value": value})
			}
			fmt.Fprintln(a.Out, value)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the value as JSON")
	return cmd
}

func (a *App) configSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one value in the config file",
		Long: `Change one value in the config file.

Only the file is changed; AUDITLOGIC_* environment overrides still apply
when the configuration is loaded.

Keys:
  ` + strings.Join(config.GetAllKeys(), "\n  "),
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := strings.ToLower(args[0]), args[1]

			path, err := a.configFile()
			if err != nil {
				return &ConfigError{Err: err}
			}

			// Read the file alone so environment overrides are not persisted
			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if err := loadConfigFile(cfg, path); err != nil {
					return &ConfigError{Path: path, Err: err}
				}
			}

			if err := cfg.Set(key, value); err != nil {
				return &UsageError{Field: "key", Value: args[0], Reason: err.Error(), Example: "auditlogic config set cloud.model gemini-2.5-pro"}
			}
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			if err := saveConfigFile(cfg, path); err != nil {
				return &ConfigError{Path: path, Err: err}
			}

			fmt.Fprintf(a.Out, "%s %s = %v\n", RenderStatus("ok"), key, maskIfSecret(key, value))
			return nil
		},
	}
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

// configValues flattens the effective configuration with secrets masked.
func (a *App) configValues() (map[string]interface{}, error) {
	values := make(map[string]interface{})
	for _, key := range config.GetAllKeys() {
		v, err := a.cfg.Get(key)
		if err != nil {
			return nil, err
		}
		values[key] = maskIfSecret(key, v)
	}
	return values, nil
}

// maskIfSecret replaces secret values with a fingerprint.
// SECURITY: never print any part of a key or token.
func maskIfSecret(key string, value interface{}) interface{} {
	if !secretKeys[key] {
		return value
	}
	s, _ := value.(string)
	if s == "" {
		return "(not set)"
	}
	return "sha256:" + credential.Fingerprint(s) + "..."
}

func loadConfigFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.LoadJSON(cfg, path)
	}
	return config.LoadTOML(cfg, path)
}

func saveConfigFile(cfg *config.Config, path string) error {
	var err error
	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("cannot write %s: permission denied", path)
	}
	return err
}
