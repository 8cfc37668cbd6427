// AuditLogic - cognitive bias audits for founder statements.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/jeranaias/auditlogic/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

// run converts a panic into a general error exit so the terminal is not
// left without a message.
func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "auditlogic: internal error: %v\n%s", r, debug.Stack())
			code = cli.ExitGeneralError
		}
	}()
	return cli.Execute(os.Args[1:])
}
