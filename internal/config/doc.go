// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration management for auditlogic.
//
// Configuration is loaded from ~/.auditlogic/config.toml (or config.json),
// with environment variable overrides and built-in defaults. Set
// AUDITLOGIC_HOME to relocate the whole directory.
//
// # Key Types
//
//   - Config: Root configuration structure
//   - CloudConfig: Gemini model, fallback key and timeout
//   - StorageConfig: History backend and location
//   - ServerConfig: Local HTTP API address and limits
//   - UIConfig, LoggingConfig: Presentation and log settings
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    // cfg still holds defaults
//	}
//
// Access values with dot notation:
//
//	model, _ := cfg.Get("cloud.model")
//	cfg.Set("storage.backend", "json")
//
// Save configuration:
//
//	config.Save(cfg)
package config
