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

import (
	"encoding/binary"
	"hash/fnv"
)

// Record layout constants. Every append to the log writes one record:
//
//	┌─────────────┬───────────────┬──────────────────┬───────────────┐
//	│ Length (4B) │ Checksum (8B) │ Payload (var)    │ Tombstone (1B)│
//	└─────────────┴───────────────┴──────────────────┴───────────────┘
//
//	- Length: payload byte count, little-endian uint32 (payload only,
//	  excluding the header, checksum and tombstone)
//	- Checksum: 64-bit FNV-1a over the payload bytes, little-endian
//	- Payload: encoded document bytes (see internal/document codec)
//	- Tombstone: liveness marker, 0 = live, 1 = deleted
//
// The tombstone is the only byte in the log that is ever rewritten in
// place; everything else is append-only.
const (
	// RecordHeaderSize is Length (4) + Checksum (8).
	RecordHeaderSize = 12

	// TombstoneSize is the single liveness byte trailing each record.
	TombstoneSize = 1

	// TombstoneLive marks a live record.
	TombstoneLive byte = 0

	// TombstoneDeleted marks a soft-deleted record.
	TombstoneDeleted byte = 1
)

// MaxPayloadSize bounds the payload length accepted when reading a
// record header. Lengths beyond this are treated as corruption rather
// than attempted as allocations.
const MaxPayloadSize = 256 << 20 // 256 MB

// Position locates a document's most recent record inside the log.
// It is a pure derived fact: the index maps each identifier to one
// Position, and a new append for the same identifier replaces it.
type Position struct {
	// Offset is the byte offset of the record's length header.
	Offset int64

	// Length is the encoded payload length in bytes.
	Length uint32
}

// TombstoneOffset returns the byte offset of this record's tombstone.
func (p Position) TombstoneOffset() int64 {
	return p.Offset + RecordHeaderSize + int64(p.Length)
}

// RecordSize returns the total on-disk size of this record in bytes.
func (p Position) RecordSize() int64 {
	return RecordHeaderSize + int64(p.Length) + TombstoneSize
}

// Checksum computes the 64-bit FNV-1a hash of the payload bytes.
// The checksum covers the payload only, never the length header or
// the tombstone, so flipping the tombstone does not invalidate it.
func Checksum(payload []byte) uint64 {
	h := fnv.New64a()
	h.Write(payload)
	return h.Sum64()
}

// encodeRecord assembles a complete record for a payload, marked live.
// The record is built in one buffer so the log can write it with a
// single pwrite, keeping concurrent readers from observing a record
// whose header is present but whose payload is not.
func encodeRecord(payload []byte) []byte {
	buf := make([]byte, RecordHeaderSize+len(payload)+TombstoneSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint64(buf[4:12], Checksum(payload))
	copy(buf[RecordHeaderSize:], payload)
	buf[len(buf)-1] = TombstoneLive
	return buf
}
