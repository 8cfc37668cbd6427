// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements the auditor's generation capability with the
// Google Gen AI SDK.
//
// A new client is built for every audit so the most recently selected key is
// always the one used. Provider errors that mean the key is unusable are
// wrapped with auditor.ErrCredentialRejected; the auditor maps them to
// KindCredentialMissing.
//
// # Usage
//
//	svc := auditor.NewService(resolver, gemini.Factory(gemini.Options{
//	    Model:   cfg.Cloud.Model,
//	    Timeout: cfg.Cloud.Timeout(),
//	}))
package gemini
