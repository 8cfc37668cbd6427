// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFileExists is returned by WriteFileExclusive when the target exists.
var ErrFileExists = errors.New("file already exists")

// RELIABILITY: Atomic write with fsync prevents data loss on crash
//
// AtomicWriteFile writes data to a file atomically:
// 1. Write to a temporary file in the same directory
// 2. Sync the data to disk using fsync
// 3. Atomically rename the temp file to the target path
//
// On crash, either the old file or the new complete file exists.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWriteFileWithDir(path, data, perm, 0700)
}

// AtomicWriteFileWithDir is like AtomicWriteFile but also sets the
// permissions for the parent directory if it needs to be created.
func AtomicWriteFileWithDir(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	absPath, tempPath, err := writeTemp(path, data, filePerm, dirPerm)
	if err != nil {
		return err
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// WriteFileExclusive writes data durably but refuses to replace an existing
// file. The content is staged in a temp file and linked into place, so a
// concurrent reader never observes a partial document.
func WriteFileExclusive(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	absPath, tempPath, err := writeTemp(path, data, filePerm, dirPerm)
	if err != nil {
		return err
	}
	defer os.Remove(tempPath)

	// os.Link fails with EEXIST instead of overwriting.
	if err := os.Link(tempPath, absPath); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", filepath.Base(absPath), ErrFileExists)
		}
		return fmt.Errorf("failed to link temp file: %w", err)
	}
	return nil
}

// writeTemp stages data in a synced temp file next to path and returns the
// absolute target path and the temp file path.
func writeTemp(path string, data []byte, filePerm, dirPerm os.FileMode) (string, string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", "", fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return "", "", fmt.Errorf("failed to write data: %w", err)
	}

	// RELIABILITY: Sync to disk before the file becomes visible
	if err := f.Sync(); err != nil {
		return "", "", fmt.Errorf("failed to sync data to disk: %w", err)
	}

	// Close before rename - required on Windows
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, filePerm); err != nil {
		os.Remove(tempPath)
		return "", "", fmt.Errorf("failed to set file permissions: %w", err)
	}

	success = true
	return absPath, tempPath, nil
}
