// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile writes files so a crash or power loss during the
// write never leaves a reader observing a partially-written file: the
// new content lands on disk under a temporary name, is synced, then
// swapped into place with a single rename.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write creates or replaces dst with data. It writes to dst+".tmp" in
// the same directory, fsyncs before close so the rename cannot outrun
// the data reaching disk, then renames over dst. On any failure the
// ".tmp" file is left in place for inspection rather than cleaned up;
// the next successful Write to the same dst reuses the same name and
// overwrites it.
func Write(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomicfile: creating directory %s: %w", dir, err)
	}

	tmpPath := dst + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("atomicfile: opening %s: %w", tmpPath, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("atomicfile: writing %s: %w", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("atomicfile: syncing %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("atomicfile: closing %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("atomicfile: renaming %s to %s: %w", tmpPath, dst, err)
	}
	return nil
}

// AppendLine opens path for append, creating it if necessary, writes
// line followed by a newline, and syncs before close. Unlike Write,
// this is not a rename-based swap: index.jsonl is grown incrementally
// rather than replaced wholesale, so durability here means the bytes
// already appended survive a crash, not that the whole file is atomic.
func AppendLine(path string, line []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("atomicfile: creating directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("atomicfile: opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("atomicfile: appending to %s: %w", path, err)
	}
	return f.Sync()
}
