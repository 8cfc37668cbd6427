// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides persistence for audit sessions.
//
// Sessions are immutable once written. The store supports insert, read-all
// (newest first), read-one and clear-all; there is no update or per-item
// delete.
//
// # Backends
//
//   - SQLiteStore: Default. One table in ~/.auditlogic/audits.db
//   - FileStore: One JSON document per session under a directory
//   - MemoryStore: Process-local, used by tests and --ephemeral
//
// # Key Types
//
//   - HistoryStore: The interface every backend implements
//   - Options: Backend name plus path, consumed by Open
//   - StoreError: Error type behind ErrDuplicateID and ErrNotFound
//
// # Usage
//
//	store, err := storage.Open(storage.Options{Backend: "sqlite", Path: dbPath})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	if err := store.SaveAudit(ctx, session); errors.Is(err, storage.ErrDuplicateID) {
//	    // id collision; the existing row is untouched
//	}
//
//	sessions, err := store.GetAllAudits(ctx)
//	fmt.Print(storage.FormatHistoryList(sessions))
package storage
