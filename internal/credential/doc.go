// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credential resolves the Gemini API key.
//
// The key is looked up on every audit, never cached, so a key selected while
// the program runs takes effect on the next request.
//
// # Precedence
//
//  1. Selected key: ~/.auditlogic/credentials (written by "auditlogic key set"
//     or the TUI key prompt, mode 0600)
//  2. Environment: AUDITLOGIC_API_KEY, GEMINI_API_KEY, API_KEY
//  3. .env file in the working directory (same variable names)
//  4. cloud.api_key in the config file
//
// # Key Types
//
//   - Resolver: Implements auditor.CredentialSource
//   - Prompter: Interactive key entry (TerminalPrompter reads without echo)
//   - Source: Where the active key came from, with a redacted description
//
// Resolver.Watch reports changes to the credentials file so a TUI waiting for
// a key can recover when one is selected from another terminal.
package credential
