// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auditor sends a founder statement to a language model and returns
// a structured cognitive bias audit.
//
// The prompt and output schema are fixed. The model is asked for a JSON
// document with seven required fields; the response is parsed into a
// candidate, checked field by field and only then converted into a
// model.AuditResult. A result is all-or-nothing.
//
// # Key Types
//
//   - Service: Runs one audit per call; holds no per-call state
//   - Generator: The generation capability (see package gemini)
//   - CredentialSource: Supplies the API key on every call
//   - Error: Every failure, classified by ErrorKind
//
// # Error Kinds
//
//   - KindCredentialMissing: No key, or the provider rejected it
//   - KindEmptyResponse: The model returned no text
//   - KindMalformedResponse: The text was not a valid audit
//   - KindTransportFailure: Network, provider or cancellation
//
// # Usage
//
//	svc := auditor.NewService(resolver, gemini.Factory(opts)).WithLogger(logger)
//	result, err := svc.AuditStatement(ctx, statement)
//	if errors.Is(err, auditor.ErrCredentialMissing) {
//	    // prompt for a key
//	}
package auditor
