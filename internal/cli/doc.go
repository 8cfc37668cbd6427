// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the auditlogic command line.
//
// The root command starts the interactive interface. Subcommands run the
// same controller, store and auditor without a full-screen UI, so audits
// made from the shell, a pipe or the HTTP API land in the same history.
//
// # Key Types
//
//   - App: streams, global flags and lazily built services for one run
//   - JSONResponse: envelope printed by every --json command
//   - UsageError, NotFoundError, ConfigError, CommandError: typed failures
//     mapped to exit codes by GetExitCode
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute(os.Args[1:]))
//	}
//
// # Commands Overview
//
//   - (none): interactive interface
//   - audit [statement...]: one-shot audit, stdin when no args
//   - history list|show|clear: saved audits
//   - export <id>: Markdown, JSON, YAML or HTML file
//   - key status|set|clear: Gemini API key selection
//   - shell: line-mode audit loop
//   - serve: local HTTP API
//   - config show|path|init|get|set: configuration
//   - doctor: health checks
//   - version: build information
//
// # Exit Codes
//
//	0  success
//	1  general failure
//	2  usage (bad arguments, no terminal for a prompt, audit refused)
//	3  config file invalid
//	4  API key missing or rejected
//	5  model call failed or returned an unusable analysis
//	7  saved audit not found
//	8  timeout
package cli
