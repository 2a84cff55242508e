/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package storage provides the persistence layer for NeuralVault.

Storage Engine Overview:
========================

The storage package composes three parts into the document storage
engine: an append-only log file, an in-memory position index, and the
binary record codec.

Architecture:
=============

	┌─────────────────────────────────────────────────────┐
	│                    Vault Facade                     │
	└─────────────────────────────────────────────────────┘
	                         │
	                         ▼
	┌─────────────────────────────────────────────────────┐
	│                      Engine                         │
	│  (Append, Read, MarkDeleted, ScanCollection,        │
	│   ScanAll, RebuildIndex, Stats)                     │
	└─────────────────────────────────────────────────────┘
	            │                          │
	            ▼                          ▼
	┌──────────────────────┐   ┌─────────────────────────┐
	│    PositionIndex     │   │       AppendLog         │
	│  id -> (offset,len)  │   │  records on disk        │
	│  (in-memory only)    │   │  (append-only file)     │
	└──────────────────────┘   └─────────────────────────┘

Write Model:
============

Append is the only write primitive. Both document creation and update
funnel through it: every update produces a brand-new trailing record,
and only the index's current entry per identifier is "live". The one
exception is soft delete, which flips a record's tombstone byte in
place - the index rebuild depends on tombstones being discoverable by
a plain sequential scan.

Startup/Recovery:
=================

The index is never persisted. On startup RebuildIndex walks the whole
log in physical order and records, for every live record, its
identifier and position; a later record for the same identifier wins,
mirroring normal append behavior. Startup cost is therefore
proportional to log size, garbage included.

Thread Safety:
==============

The log handle and the index are guarded by separate reader/writer
locks (see log.go and index.go). All Engine methods are safe for
concurrent use. Two concurrent appends for the same identifier race at
the index upsert and the last writer's position wins; the loser's
record becomes unreachable garbage in the log.
*/
package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"nvault/internal/document"
	"nvault/internal/logging"
)

// DataFileName is the name of the single log file inside a database
// directory.
const DataFileName = "data.nvdb"

// ErrNotFound is returned when a requested identifier has no live
// record: it is absent from the index, or its record is tombstoned.
// This is a sentinel error that callers can check using errors.Is().
var ErrNotFound = errors.New("document not found")

// Stats reports storage-level statistics.
type Stats struct {
	// DocumentCount is the current index size - the number of live
	// positions, not the total records ever written.
	DocumentCount int

	// FileSizeBytes is the log's current length, including all
	// historical and garbage bytes.
	FileSizeBytes int64
}

// Engine is the document storage engine. It owns the log file handle
// and the position index exclusively; neither is ever handed out.
type Engine struct {
	log    *AppendLog
	index  *PositionIndex
	logger *logging.Logger
}

// NewEngine opens (or creates) the database directory's log file and
// rebuilds the position index from it.
func NewEngine(dir string) (*Engine, error) {
	log, err := OpenLog(filepath.Join(dir, DataFileName))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		log:    log,
		index:  NewPositionIndex(),
		logger: logging.NewLogger("storage.engine"),
	}

	if err := e.RebuildIndex(); err != nil {
		log.Close()
		return nil, err
	}

	e.logger.Info("Storage engine opened",
		"path", log.Path(), "documents", e.index.Len(), "bytes", log.Size())
	return e, nil
}

// Append encodes the document, writes it as a new live record at the
// end of the log, and upserts the position index under the document's
// identifier. The write is durable when Append returns.
func (e *Engine) Append(doc *document.Document) (Position, error) {
	payload := document.Encode(doc)

	pos, err := e.log.Append(payload)
	if err != nil {
		return Position{}, err
	}

	e.index.Put(doc.ID, pos)
	return pos, nil
}

// Read returns the live document for an identifier.
//
// Fails with ErrNotFound if the identifier is not indexed or its
// record is tombstoned, and with ErrCorruptedRecord (wrapped) if the
// record fails its checksum.
func (e *Engine) Read(id string) (*document.Document, error) {
	pos, ok := e.index.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.readAt(id, pos)
}

// readAt point-reads and decodes the record at pos. Tombstoned records
// decode structurally but are reported as not found - a caller asking
// for live data never receives one.
func (e *Engine) readAt(id string, pos Position) (*document.Document, error) {
	payload, tombstone, err := e.log.ReadRecord(pos)
	if err != nil {
		return nil, err
	}

	if tombstone == TombstoneDeleted {
		return nil, fmt.Errorf("%w: %s (deleted)", ErrNotFound, id)
	}

	doc, err := document.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record at offset %d: %w", pos.Offset, err)
	}
	return doc, nil
}

// MarkDeleted soft-deletes the record for an identifier by flipping
// its tombstone byte in place. The identifier stays in the index,
// pointing at the now-tombstoned record, so a subsequent Read reports
// not found without an index deletion step.
func (e *Engine) MarkDeleted(id string) error {
	pos, ok := e.index.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.log.SetTombstone(pos, TombstoneDeleted)
}

// ScanCollection returns every live document in a collection.
//
// The scan snapshots the index, then point-reads each entry. Corrupted
// or tombstoned entries are silently skipped: one bad record must not
// abort a collection-wide read.
func (e *Engine) ScanCollection(name string) ([]*document.Document, error) {
	snapshot := e.index.Snapshot()

	docs := make([]*document.Document, 0)
	for id, pos := range snapshot {
		doc, err := e.readAt(id, pos)
		if err != nil {
			continue
		}
		if doc.Collection == name && !doc.Deleted {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// ScanAll decodes every record in the log in physical order and
// returns the live ones (tombstone 0). Corrupted and undecodable
// records are dropped silently; a partial trailing record is treated
// as end-of-data.
func (e *Engine) ScanAll() ([]*document.Document, error) {
	docs := make([]*document.Document, 0)

	err := e.log.Scan(func(pos Position, payload []byte, tombstone byte) error {
		if tombstone != TombstoneLive {
			return nil
		}
		doc, err := document.Decode(payload)
		if err != nil {
			e.logger.Warn("Skipping undecodable record", "offset", pos.Offset, "error", err)
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// RebuildIndex reconstructs the position index by walking the physical
// log. For every record whose tombstone is 0 it records the document's
// identifier and position; when an identifier has multiple records the
// latest physical occurrence wins.
//
// Positions come strictly from the physical walk: a tombstoned or
// corrupted record still occupies its bytes in the log, so the walk
// skips over it without losing alignment of later offsets.
func (e *Engine) RebuildIndex() error {
	entries := make(map[string]Position)

	err := e.log.Scan(func(pos Position, payload []byte, tombstone byte) error {
		if tombstone != TombstoneLive {
			return nil
		}
		doc, err := document.Decode(payload)
		if err != nil {
			e.logger.Warn("Skipping undecodable record during index rebuild",
				"offset", pos.Offset, "error", err)
			return nil
		}
		entries[doc.ID] = pos
		return nil
	})
	if err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}

	e.index.Replace(entries)
	return nil
}

// Stats returns the current document count and log size.
func (e *Engine) Stats() Stats {
	return Stats{
		DocumentCount: e.index.Len(),
		FileSizeBytes: e.log.Size(),
	}
}

// Close releases the log file handle. No other methods may be called
// after Close.
func (e *Engine) Close() error {
	return e.log.Close()
}
