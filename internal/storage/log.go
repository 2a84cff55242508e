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
Append Log
==========

The append log is the single data file backing a NeuralVault database.
It is an exclusively-owned, growable file of records (see record.go for
the record layout). All writes go to the current end of the file; reads
address arbitrary offsets.

Write Path:
===========

 1. Acquire the write lock
 2. Assemble the complete record in one buffer
 3. pwrite it at the current end offset
 4. fsync
 5. Release the lock

The record is written with a single pwrite so no reader can observe a
record whose header is on disk but whose payload or tombstone is not.
Durability is synchronous and unconditional: every append and every
tombstone flip is fsynced before the call returns.

Read Path:
==========

Reads use pread (os.File.ReadAt) under the read lock, so point-reads
and scans proceed concurrently with each other and never disturb the
appender's end-of-file position.

The tombstone flip in SetTombstone is the only in-place mutation the
log ever performs - a single byte overwrite. Everything else is
append-only; superseded records remain in the file as garbage and are
never reclaimed here.
*/
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"nvault/internal/logging"
)

// ErrCorruptedRecord is returned when a record's stored checksum does
// not match the checksum recomputed over its payload. Callers can test
// for it with errors.Is().
var ErrCorruptedRecord = errors.New("record checksum mismatch")

// AppendLog is the on-disk record log. All methods are safe for
// concurrent use; the file handle is never exposed to callers.
type AppendLog struct {
	path string
	file *os.File

	// mu guards the file handle. The full append sequence runs under
	// the write lock; reads take the read lock and use pread.
	mu sync.RWMutex

	// size is the current end-of-log offset, maintained so appends do
	// not re-stat the file. Guarded by mu.
	size int64

	logger *logging.Logger
}

// OpenLog opens or creates the log file at path, creating parent
// directories as needed.
func OpenLog(path string) (*AppendLog, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &AppendLog{
		path:   path,
		file:   f,
		size:   stat.Size(),
		logger: logging.NewLogger("storage.log"),
	}, nil
}

// Append writes one live record holding payload at the end of the log
// and returns its position. The write is fsynced before returning.
func (l *AppendLog) Append(payload []byte) (Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record := encodeRecord(payload)
	offset := l.size

	if _, err := l.file.WriteAt(record, offset); err != nil {
		return Position{}, fmt.Errorf("failed to append record: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return Position{}, fmt.Errorf("failed to sync log: %w", err)
	}

	l.size = offset + int64(len(record))
	return Position{Offset: offset, Length: uint32(len(payload))}, nil
}

// ReadRecord reads the record at pos, verifies its checksum, and
// returns the payload bytes and tombstone byte.
//
// Returns ErrCorruptedRecord (wrapped) if the stored checksum does not
// match the payload, or if the stored length disagrees with pos.
func (l *AppendLog) ReadRecord(pos Position) ([]byte, byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	header := make([]byte, RecordHeaderSize)
	if _, err := l.file.ReadAt(header, pos.Offset); err != nil {
		return nil, 0, fmt.Errorf("failed to read record header at offset %d: %w", pos.Offset, err)
	}

	length := binary.LittleEndian.Uint32(header[0:4])
	expected := binary.LittleEndian.Uint64(header[4:12])

	if length != pos.Length {
		return nil, 0, fmt.Errorf("%w: stored length %d does not match indexed length %d at offset %d",
			ErrCorruptedRecord, length, pos.Length, pos.Offset)
	}

	body := make([]byte, int(length)+TombstoneSize)
	if _, err := l.file.ReadAt(body, pos.Offset+RecordHeaderSize); err != nil {
		return nil, 0, fmt.Errorf("failed to read record body at offset %d: %w", pos.Offset, err)
	}

	payload := body[:length]
	tombstone := body[length]

	if actual := Checksum(payload); actual != expected {
		return nil, 0, fmt.Errorf("%w: offset %d (stored %016x, computed %016x)",
			ErrCorruptedRecord, pos.Offset, expected, actual)
	}

	return payload, tombstone, nil
}

// SetTombstone overwrites the tombstone byte of the record at pos with
// the given marker and fsyncs. This is the log's only in-place write.
func (l *AppendLog) SetTombstone(pos Position, marker byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.WriteAt([]byte{marker}, pos.TombstoneOffset()); err != nil {
		return fmt.Errorf("failed to write tombstone at offset %d: %w", pos.TombstoneOffset(), err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log: %w", err)
	}
	return nil
}

// Scan walks every record in the log in physical order from offset 0
// and invokes fn with each record's position, payload and tombstone.
//
// Scan is the foundation for full scans and index rebuilds: positions
// are derived purely from the physical walk, so tombstoned records are
// skipped-over (their bytes still advance the offset) rather than
// ignored, keeping every subsequent position aligned.
//
// Records whose checksum does not match are skipped without invoking
// fn; the walk still advances past their bytes using the stored length.
// A partial record at the tail of the file (for example after a crash
// mid-append) terminates the scan cleanly rather than failing it.
//
// If fn returns an error, the scan stops and returns it.
func (l *AppendLog) Scan(fn func(pos Position, payload []byte, tombstone byte) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	end := l.size
	offset := int64(0)
	header := make([]byte, RecordHeaderSize)

	for offset < end {
		n, err := l.file.ReadAt(header, offset)
		if n < RecordHeaderSize {
			if err == nil || errors.Is(err, io.EOF) {
				// Partial trailing header: end of data, not an error.
				break
			}
			return fmt.Errorf("failed to read record header at offset %d: %w", offset, err)
		}

		length := binary.LittleEndian.Uint32(header[0:4])
		expected := binary.LittleEndian.Uint64(header[4:12])

		if length > MaxPayloadSize {
			// A length this large means the walk is misaligned or the
			// file is damaged; there is no way to find the next record.
			l.logger.Warn("Aborting log scan on implausible record length",
				"offset", offset, "length", length)
			break
		}

		pos := Position{Offset: offset, Length: length}
		body := make([]byte, int(length)+TombstoneSize)
		n, err = l.file.ReadAt(body, offset+RecordHeaderSize)
		if n < len(body) {
			if err == nil || errors.Is(err, io.EOF) {
				// Partial trailing record: end of data.
				break
			}
			return fmt.Errorf("failed to read record body at offset %d: %w", offset, err)
		}

		payload := body[:length]
		tombstone := body[length]

		if Checksum(payload) != expected {
			// Corrupted record: skip it, but keep walking. Its bytes
			// still occupy space, so the offset advances past them.
			l.logger.Warn("Skipping corrupted record during scan", "offset", offset, "length", length)
			offset += pos.RecordSize()
			continue
		}

		if err := fn(pos, payload, tombstone); err != nil {
			return err
		}
		offset += pos.RecordSize()
	}

	return nil
}

// Size returns the current length of the log file in bytes, including
// all historical and garbage bytes.
func (l *AppendLog) Size() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Path returns the log file path.
func (l *AppendLog) Path() string {
	return l.path
}

// Close closes the underlying file. No other methods may be called
// after Close.
func (l *AppendLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
