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

package storage

import "sync"

// PositionIndex maps each document identifier to the position of its
// most recent record in the log. It is the only means of locating a
// live record without a full scan.
//
// The index is guarded by its own reader/writer lock, independent of
// the log's lock. It holds no document data - just positions - and is
// rebuilt from the log on startup, so it is never persisted.
//
// Thread Safety: all methods are safe for concurrent use. Snapshot
// returns a copy, so callers never hold the lock while doing I/O.
type PositionIndex struct {
	mu      sync.RWMutex
	entries map[string]Position
}

// NewPositionIndex creates an empty index.
func NewPositionIndex() *PositionIndex {
	return &PositionIndex{entries: make(map[string]Position)}
}

// Get returns the position for an identifier and whether it exists.
func (idx *PositionIndex) Get(id string) (Position, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	pos, ok := idx.entries[id]
	return pos, ok
}

// Put inserts or replaces the position for an identifier. A new append
// for an existing identifier overwrites its entry; the superseded
// record's bytes remain in the log as unreachable garbage.
func (idx *PositionIndex) Put(id string, pos Position) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[id] = pos
}

// Remove deletes the entry for an identifier. Removing a missing
// identifier is not an error.
func (idx *PositionIndex) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, id)
}

// Len returns the number of indexed identifiers. This is the live
// position count, not the total number of records ever written.
func (idx *PositionIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Snapshot returns a copy of the current entries. Iterating a snapshot
// lets scans read from the log without holding the index lock.
func (idx *PositionIndex) Snapshot() map[string]Position {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string]Position, len(idx.entries))
	for id, pos := range idx.entries {
		out[id] = pos
	}
	return out
}

// Replace atomically swaps in a freshly built entry set. Used by index
// rebuild so readers never observe a half-built index.
func (idx *PositionIndex) Replace(entries map[string]Position) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = entries
}
