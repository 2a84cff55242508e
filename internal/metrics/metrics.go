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
Package metrics provides operation counters for NeuralVault.

METRIC CATEGORIES:
==================
- Operations: creates, finds, updates, deletes, counts (by kind)
- Failures: operations that returned an error
- Storage: bytes appended to the log since startup

Counters are plain atomics with no collection overhead; they are read
as a point-in-time Snapshot by the shell's stats command.
*/
package metrics

import "sync/atomic"

// Metrics holds all NeuralVault operation counters.
type Metrics struct {
	// Operation counters
	Creates atomic.Uint64
	Finds   atomic.Uint64
	Updates atomic.Uint64
	Deletes atomic.Uint64
	Failed  atomic.Uint64

	// Storage counters
	BytesAppended atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Creates       uint64 `json:"creates"`
	Finds         uint64 `json:"finds"`
	Updates       uint64 `json:"updates"`
	Deletes       uint64 `json:"deletes"`
	Failed        uint64 `json:"failed"`
	BytesAppended uint64 `json:"bytes_appended"`
}

// global is the process-wide metrics instance.
var global Metrics

// Global returns the process-wide metrics instance.
func Global() *Metrics {
	return &global
}

// RecordCreate counts one document creation.
func (m *Metrics) RecordCreate(bytes int) {
	m.Creates.Add(1)
	m.BytesAppended.Add(uint64(bytes))
}

// RecordFind counts one find or count operation.
func (m *Metrics) RecordFind() {
	m.Finds.Add(1)
}

// RecordUpdate counts one document update.
func (m *Metrics) RecordUpdate(bytes int) {
	m.Updates.Add(1)
	m.BytesAppended.Add(uint64(bytes))
}

// RecordDelete counts one soft delete.
func (m *Metrics) RecordDelete() {
	m.Deletes.Add(1)
}

// RecordFailure counts one failed operation.
func (m *Metrics) RecordFailure() {
	m.Failed.Add(1)
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Creates:       m.Creates.Load(),
		Finds:         m.Finds.Load(),
		Updates:       m.Updates.Load(),
		Deletes:       m.Deletes.Load(),
		Failed:        m.Failed.Load(),
		BytesAppended: m.BytesAppended.Load(),
	}
}

// Reset zeroes all counters. Intended for tests.
func (m *Metrics) Reset() {
	m.Creates.Store(0)
	m.Finds.Store(0)
	m.Updates.Store(0)
	m.Deletes.Store(0)
	m.Failed.Store(0)
	m.BytesAppended.Store(0)
}
