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
Package vault implements the NeuralVault database facade.

The Vault is a thin orchestrator over the storage engine and the query
evaluator: it generates identifiers, routes reads through collection
scans into the evaluator, and funnels every write - creation and update
alike - through the engine's append primitive. It owns no state of its
own beyond delegation.

Write Semantics:
================

	create       -> fresh id, append new record
	update       -> read, mutate in-memory copy, append new record
	delete       -> flip existing record's tombstone in place

Updates never touch old records: each one appends a brand-new trailing
record, and the superseded bytes stay in the log as garbage. Deletes
are soft - the document's bytes remain, hidden behind the tombstone.
*/
package vault

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"

	"nvault/internal/config"
	"nvault/internal/document"
	verrors "nvault/internal/errors"
	"nvault/internal/logging"
	"nvault/internal/metrics"
	"nvault/internal/query"
	"nvault/internal/storage"
)

// Stats reports database-wide statistics.
type Stats struct {
	TotalDocuments   int      `json:"total_documents"`
	TotalCollections int      `json:"total_collections"`
	StorageSizeBytes int64    `json:"storage_size_bytes"`
	Collections      []string `json:"collections"`
}

// Vault is a NeuralVault database instance. All methods are safe for
// concurrent use; consistency guarantees are per-document (see the
// storage package for the write model).
type Vault struct {
	config      *config.Config
	engine      *storage.Engine
	evaluator   *query.Evaluator
	logger      *logging.Logger
	metrics     *metrics.Metrics
	initialized bool
}

// Open creates or opens the database under cfg.DataDir and rebuilds
// the position index from the log.
//
// Fails with an already-exists error if the data directory path is
// occupied by something that is not a directory.
func Open(cfg *config.Config) (*Vault, error) {
	if err := cfg.Validate(); err != nil {
		return nil, verrors.InvalidConfiguration(err.Error())
	}

	if info, err := os.Stat(cfg.DataDir); err == nil && !info.IsDir() {
		return nil, verrors.AlreadyExists(cfg.DataDir).
			WithDetail("path exists and is not a directory")
	}

	engine, err := storage.NewEngine(cfg.DataDir)
	if err != nil {
		return nil, wrapStorage("open", err)
	}

	v := &Vault{
		config:      cfg,
		engine:      engine,
		evaluator:   query.NewEvaluator(),
		logger:      logging.NewLogger("vault"),
		metrics:     metrics.Global(),
		initialized: true,
	}
	v.logger.Info("Vault opened", "data_dir", cfg.DataDir)
	return v, nil
}

// Create stores a new document in a collection and returns its freshly
// generated identifier. Identifiers are UUIDv4 strings: effectively
// collision-free, assigned exactly once, never reused.
func (v *Vault) Create(collection string, data map[string]document.Value) (string, error) {
	if err := v.ensureInitialized(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	doc := document.New(id, collection, data)

	pos, err := v.engine.Append(doc)
	if err != nil {
		v.metrics.RecordFailure()
		return "", wrapStorage("create", err)
	}

	v.metrics.RecordCreate(int(pos.Length))
	v.logger.Debug("Document created", "id", id, "collection", collection)
	return id, nil
}

// Find returns the documents matching q, ordered and paginated by the
// evaluator.
func (v *Vault) Find(q *query.Query) ([]*document.Document, error) {
	if err := v.ensureInitialized(); err != nil {
		return nil, err
	}

	docs, err := v.engine.ScanCollection(q.Collection)
	if err != nil {
		v.metrics.RecordFailure()
		return nil, wrapStorage("find", err)
	}

	results, err := v.evaluator.Filter(docs, q)
	if err != nil {
		v.metrics.RecordFailure()
		return nil, err
	}

	v.metrics.RecordFind()
	return results, nil
}

// FindByID returns a single live document by identifier.
func (v *Vault) FindByID(id string) (*document.Document, error) {
	if err := v.ensureInitialized(); err != nil {
		return nil, err
	}

	doc, err := v.engine.Read(id)
	if err != nil {
		return nil, wrapDocument(id, err)
	}

	v.metrics.RecordFind()
	return doc, nil
}

// Update applies the update operations to every document matching q
// and returns how many were updated. Each updated document becomes a
// new trailing record; the old records are never touched.
func (v *Vault) Update(q *query.Query, ops []query.UpdateOp) (int, error) {
	if err := v.ensureInitialized(); err != nil {
		return 0, err
	}

	docs, err := v.Find(q)
	if err != nil {
		return 0, err
	}

	for _, doc := range docs {
		applyOps(doc, ops)
		pos, err := v.engine.Append(doc)
		if err != nil {
			v.metrics.RecordFailure()
			return 0, wrapStorage("update", err)
		}
		v.metrics.RecordUpdate(int(pos.Length))
	}

	v.logger.Debug("Documents updated", "collection", q.Collection, "count", len(docs))
	return len(docs), nil
}

// UpdateByID applies the update operations to a single document.
func (v *Vault) UpdateByID(id string, ops []query.UpdateOp) error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}

	doc, err := v.engine.Read(id)
	if err != nil {
		return wrapDocument(id, err)
	}

	applyOps(doc, ops)
	pos, err := v.engine.Append(doc)
	if err != nil {
		v.metrics.RecordFailure()
		return wrapStorage("update", err)
	}

	v.metrics.RecordUpdate(int(pos.Length))
	return nil
}

// Kill soft-deletes every document matching q and returns how many
// were deleted.
func (v *Vault) Kill(q *query.Query) (int, error) {
	if err := v.ensureInitialized(); err != nil {
		return 0, err
	}

	docs, err := v.Find(q)
	if err != nil {
		return 0, err
	}

	for _, doc := range docs {
		if err := v.engine.MarkDeleted(doc.ID); err != nil {
			v.metrics.RecordFailure()
			return 0, wrapDocument(doc.ID, err)
		}
		v.metrics.RecordDelete()
	}

	v.logger.Debug("Documents deleted", "collection", q.Collection, "count", len(docs))
	return len(docs), nil
}

// KillByID soft-deletes a single document by identifier.
func (v *Vault) KillByID(id string) error {
	if err := v.ensureInitialized(); err != nil {
		return err
	}

	if err := v.engine.MarkDeleted(id); err != nil {
		return wrapDocument(id, err)
	}

	v.metrics.RecordDelete()
	return nil
}

// Count returns the number of live documents in a collection.
func (v *Vault) Count(collection string) (int, error) {
	if err := v.ensureInitialized(); err != nil {
		return 0, err
	}

	docs, err := v.engine.ScanCollection(collection)
	if err != nil {
		return 0, wrapStorage("count", err)
	}

	v.metrics.RecordFind()
	return len(docs), nil
}

// Collections returns the sorted, distinct collection names observed
// across a full log scan. A collection whose only documents are
// soft-deleted or corrupted does not appear: those records are dropped
// by the scan before names are collected.
func (v *Vault) Collections() ([]string, error) {
	if err := v.ensureInitialized(); err != nil {
		return nil, err
	}

	docs, err := v.engine.ScanAll()
	if err != nil {
		return nil, wrapStorage("collections", err)
	}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, doc := range docs {
		if _, ok := seen[doc.Collection]; !ok {
			seen[doc.Collection] = struct{}{}
			names = append(names, doc.Collection)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Stats returns database statistics: live document count, collection
// count and names, and the log size including garbage bytes.
func (v *Vault) Stats() (*Stats, error) {
	if err := v.ensureInitialized(); err != nil {
		return nil, err
	}

	collections, err := v.Collections()
	if err != nil {
		return nil, err
	}

	engineStats := v.engine.Stats()
	return &Stats{
		TotalDocuments:   engineStats.DocumentCount,
		TotalCollections: len(collections),
		StorageSizeBytes: engineStats.FileSizeBytes,
		Collections:      collections,
	}, nil
}

// Metrics returns a snapshot of the operation counters.
func (v *Vault) Metrics() metrics.Snapshot {
	return v.metrics.Snapshot()
}

// Config returns the configuration the vault was opened with.
func (v *Vault) Config() *config.Config {
	return v.config
}

// Close releases the underlying storage. The vault must not be used
// after Close.
func (v *Vault) Close() error {
	if !v.initialized {
		return nil
	}
	v.initialized = false
	return v.engine.Close()
}

// ensureInitialized guards every operation against use before Open or
// after Close.
func (v *Vault) ensureInitialized() error {
	if v == nil || !v.initialized {
		return verrors.NotInitialized()
	}
	return nil
}

// applyOps applies flat set-or-insert updates to an in-memory copy,
// bumping the modification timestamp.
func applyOps(doc *document.Document, ops []query.UpdateOp) {
	for _, op := range ops {
		doc.Set(op.Field, op.Value)
	}
}

// wrapDocument maps storage errors from identifier-addressed reads into
// the structured taxonomy.
func wrapDocument(id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return verrors.DocumentNotFound(id).WithCause(err)
	case errors.Is(err, storage.ErrCorruptedRecord):
		return verrors.CorruptedRecord(err.Error()).WithCause(err)
	default:
		return verrors.NewStorageError(fmt.Sprintf("read failed for %s", id)).WithCause(err)
	}
}

// wrapStorage maps storage-level failures into the structured taxonomy.
func wrapStorage(op string, err error) error {
	if errors.Is(err, storage.ErrCorruptedRecord) {
		return verrors.CorruptedRecord(err.Error()).WithCause(err)
	}
	return verrors.IOFault(op, err)
}
