// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package blobindex owns the on-disk blob directory, the append-only
// index log, and the latest pointer for ingested MRD acquisitions. It
// assigns monotonic sequence numbers and exposes ingest, latest, and
// since-query operations over a crash-consistent layout.
package blobindex

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	humanize "github.com/dustin/go-humanize"
	"github.com/eetuna/cwru-data-marshal/internal/apierr"
	"github.com/eetuna/cwru-data-marshal/internal/atomicfile"
	"github.com/eetuna/cwru-data-marshal/internal/clock"
	"github.com/zeebo/blake3"
)

const blobType = "acq"

// BlobIndex serializes ingest so the seq bump, index append, and
// latest-pointer replace happen as one atomic region, matching the
// source's single fetch_add-then-append critical section.
type BlobIndex struct {
	mu      sync.Mutex
	dataDir string
	mrdDir  string
	clk     clock.Clock
	log     *slog.Logger
	nextSeq uint64
}

// NewBlobIndex ensures <data_dir>/mrd exists and recovers the
// sequence counter from the last line of index.jsonl if one is
// present, so a restart after a crash does not reissue an already-
// handed-out seq. A missing or empty index starts the counter at 1.
func NewBlobIndex(dataDir string, clk clock.Clock, log *slog.Logger) (*BlobIndex, error) {
	mrdDir := filepath.Join(dataDir, "mrd")
	if err := os.MkdirAll(mrdDir, 0o755); err != nil {
		return nil, fmt.Errorf("blobindex: creating %s: %w", mrdDir, err)
	}

	bi := &BlobIndex{
		dataDir: dataDir,
		mrdDir:  mrdDir,
		clk:     clk,
		log:     log,
		nextSeq: 1,
	}

	last, err := readLastEntry(filepath.Join(mrdDir, "index.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("blobindex: recovering sequence: %w", err)
	}
	if last != nil {
		bi.nextSeq = last.Seq + 1
	}
	return bi, nil
}

func readLastEntry(path string) (*IndexEntry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var last *IndexEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry IndexEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // malformed line; tolerate and keep scanning
		}
		e := entry
		last = &e
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return last, nil
}

// Ingest writes data to a new blob file, appends its IndexEntry to
// index.jsonl, and atomically replaces latest.json, all under the
// same lock so the seq order matches file order. An empty body is
// rejected before any filesystem work happens.
func (bi *BlobIndex) Ingest(data []byte) (IndexEntry, error) {
	if len(data) == 0 {
		return IndexEntry{}, apierr.New(apierr.BadRequest, "empty body", nil)
	}

	bi.mu.Lock()
	defer bi.mu.Unlock()

	ts := bi.clk.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	seq := bi.nextSeq
	bi.nextSeq++

	name := fmt.Sprintf("%s_%06d.mrd", ts, seq)
	path := filepath.Join(bi.mrdDir, name)

	if err := atomicfile.Write(path, data); err != nil {
		return IndexEntry{}, apierr.New(apierr.Internal, "ingest failed", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return IndexEntry{}, apierr.New(apierr.Internal, "ingest failed", err)
	}

	sum := blake3.Sum256(data)
	entry := IndexEntry{
		Path:      path,
		TS:        ts,
		SizeBytes: info.Size(),
		Type:      blobType,
		Seq:       seq,
		Hash:      fmt.Sprintf("%x", sum),
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return IndexEntry{}, apierr.New(apierr.Internal, "ingest failed", err)
	}

	if err := atomicfile.AppendLine(filepath.Join(bi.mrdDir, "index.jsonl"), line); err != nil {
		return IndexEntry{}, apierr.New(apierr.Internal, "ingest failed", err)
	}
	if err := atomicfile.Write(filepath.Join(bi.mrdDir, "latest.json"), line); err != nil {
		return IndexEntry{}, apierr.New(apierr.Internal, "ingest failed", err)
	}

	bi.mirrorLegacy(line)

	bi.log.Debug("ingest complete", "seq", seq, "size", humanize.Bytes(uint64(info.Size())), "path", path)

	return entry, nil
}

// mirrorLegacy writes the same index line and latest pointer one
// level up, at <data_dir>/, for the legacy dumpbox-style consumer
// documented alongside the authoritative <data_dir>/mrd/ location.
// Failure here is logged and swallowed: it is a compatibility
// courtesy, not part of the ingest contract.
func (bi *BlobIndex) mirrorLegacy(line []byte) {
	if err := atomicfile.AppendLine(filepath.Join(bi.dataDir, "index.jsonl"), line); err != nil {
		bi.log.Warn("legacy index mirror failed", "err", err)
	}
	if err := atomicfile.Write(filepath.Join(bi.dataDir, "latest.json"), line); err != nil {
		bi.log.Warn("legacy latest mirror failed", "err", err)
	}
}

// Latest returns the raw bytes of latest.json, or apierr.NoContent if
// the pointer is absent or empty. The bytes are not re-validated as
// JSON; they were produced by Ingest, in this process or an earlier
// one using the same data directory.
func (bi *BlobIndex) Latest() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(bi.mrdDir, "latest.json"))
	if os.IsNotExist(err) {
		return nil, apierr.New(apierr.NoContent, "no content", nil)
	}
	if err != nil {
		return nil, apierr.New(apierr.Internal, "reading latest", err)
	}
	if len(data) == 0 {
		return nil, apierr.New(apierr.NoContent, "no content", nil)
	}
	return data, nil
}

// Since streams index.jsonl top to bottom, skipping malformed lines,
// and returns entries whose ts sorts strictly after the query ts.
// RFC 3339 millisecond timestamps make lexicographic and temporal
// order coincide, so this is a plain string comparison. limit <= 0
// means unbounded.
func (bi *BlobIndex) Since(ts string, limit int) ([]IndexEntry, error) {
	f, err := os.Open(filepath.Join(bi.mrdDir, "index.jsonl"))
	if os.IsNotExist(err) {
		return []IndexEntry{}, nil
	}
	if err != nil {
		return nil, apierr.New(apierr.Internal, "reading index", err)
	}
	defer f.Close()

	out := []IndexEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry IndexEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.TS <= ts {
			continue
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apierr.New(apierr.Internal, "reading index", err)
	}
	return out, nil
}
