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
Binary Document Codec
=====================

This file implements the binary serialization of a Document into the
payload bytes stored inside a log record. The storage layer frames the
payload with a length, checksum and tombstone; this codec only concerns
itself with the payload itself.

Payload Format (all integers little-endian):

	┌───────────────┬──────────────────┬───────────────┬───────────────┬─────────┬──────────────┐
	│ ID (str)      │ Collection (str) │ CreatedAt i64 │ UpdatedAt i64 │ Del u8  │ Fields       │
	└───────────────┴──────────────────┴───────────────┴───────────────┴─────────┴──────────────┘

	str    = u32 byte length + UTF-8 bytes
	i64    = UnixNano timestamp
	Fields = u32 count, then per field: key (str) + value

Value Format:

	┌──────────┬──────────────────────────────────────────┐
	│ Tag (1B) │ Variant payload                          │
	└──────────┴──────────────────────────────────────────┘

	Tag 0 null    - no payload
	Tag 1 bool    - 1 byte (0 or 1)
	Tag 2 number  - 8 bytes, IEEE-754 bits
	Tag 3 string  - str
	Tag 4 array   - u32 count + elements
	Tag 5 object  - u32 count + (key str + value) pairs

Object keys (including the top-level field map) are written in sorted
order so that encoding the same document twice yields identical bytes,
which keeps the record checksum deterministic.
*/
package document

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrPayloadTruncated is returned when a payload ends before the
// structure it declares is complete.
var ErrPayloadTruncated = errors.New("document payload truncated")

// maxStringLen caps decoded string/collection lengths as a sanity bound
// against garbage length prefixes.
const maxStringLen = 64 << 20 // 64 MB

// maxNesting caps recursive value depth during decoding so a corrupted
// payload cannot drive unbounded recursion.
const maxNesting = 128

// Encode serializes a document into payload bytes.
func Encode(doc *Document) []byte {
	buf := make([]byte, 0, 128)
	buf = appendString(buf, doc.ID)
	buf = appendString(buf, doc.Collection)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(doc.CreatedAt.UnixNano()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(doc.UpdatedAt.UnixNano()))
	if doc.Deleted {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	keys := sortedKeys(doc.Data)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		buf = appendString(buf, k)
		buf = appendValue(buf, doc.Data[k])
	}
	return buf
}

// Decode deserializes payload bytes back into a document. The returned
// document is fully owned by the caller.
func Decode(payload []byte) (*Document, error) {
	r := &payloadReader{buf: payload}

	id, err := r.readString()
	if err != nil {
		return nil, fmt.Errorf("decode id: %w", err)
	}
	collection, err := r.readString()
	if err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	createdAt, err := r.readInt64()
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	updatedAt, err := r.readInt64()
	if err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}
	deleted, err := r.readByte()
	if err != nil {
		return nil, fmt.Errorf("decode deleted flag: %w", err)
	}

	count, err := r.readUint32()
	if err != nil {
		return nil, fmt.Errorf("decode field count: %w", err)
	}
	data := make(map[string]Value, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.readString()
		if err != nil {
			return nil, fmt.Errorf("decode field key: %w", err)
		}
		val, err := r.readValue(0)
		if err != nil {
			return nil, fmt.Errorf("decode field %q: %w", key, err)
		}
		data[key] = val
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("document payload has %d trailing bytes", r.remaining())
	}

	return &Document{
		ID:         id,
		Collection: collection,
		Data:       data,
		CreatedAt:  time.Unix(0, createdAt).UTC(),
		UpdatedAt:  time.Unix(0, updatedAt).UTC(),
		Deleted:    deleted != 0,
	}, nil
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendValue(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case KindBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindNumber:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.Number))
	case KindString:
		buf = appendString(buf, v.Str)
	case KindArray:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Array)))
		for _, e := range v.Array {
			buf = appendValue(buf, e)
		}
	case KindObject:
		keys := sortedKeys(v.Object)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(keys)))
		for _, k := range keys {
			buf = appendString(buf, k)
			buf = appendValue(buf, v.Object[k])
		}
	}
	return buf
}

// payloadReader walks a payload buffer with bounds checking.
type payloadReader struct {
	buf []byte
	pos int
}

func (r *payloadReader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *payloadReader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, ErrPayloadTruncated
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *payloadReader) readUint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrPayloadTruncated
	}
	n := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return n, nil
}

func (r *payloadReader) readInt64() (int64, error) {
	if r.remaining() < 8 {
		return 0, ErrPayloadTruncated
	}
	n := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return int64(n), nil
}

func (r *payloadReader) readString() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	if r.remaining() < int(n) {
		return "", ErrPayloadTruncated
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *payloadReader) readValue(depth int) (Value, error) {
	if depth > maxNesting {
		return Value{}, fmt.Errorf("value nesting exceeds %d levels", maxNesting)
	}

	tag, err := r.readByte()
	if err != nil {
		return Value{}, err
	}

	switch Kind(tag) {
	case KindNull:
		return Null(), nil
	case KindBool:
		b, err := r.readByte()
		if err != nil {
			return Value{}, err
		}
		return Bool(b != 0), nil
	case KindNumber:
		if r.remaining() < 8 {
			return Value{}, ErrPayloadTruncated
		}
		bits := binary.LittleEndian.Uint64(r.buf[r.pos:])
		r.pos += 8
		return Number(math.Float64frombits(bits)), nil
	case KindString:
		s, err := r.readString()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case KindArray:
		count, err := r.readUint32()
		if err != nil {
			return Value{}, err
		}
		arr := make([]Value, 0, minCap(count))
		for i := uint32(0); i < count; i++ {
			e, err := r.readValue(depth + 1)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, e)
		}
		return Value{Kind: KindArray, Array: arr}, nil
	case KindObject:
		count, err := r.readUint32()
		if err != nil {
			return Value{}, err
		}
		obj := make(map[string]Value, minCap(count))
		for i := uint32(0); i < count; i++ {
			k, err := r.readString()
			if err != nil {
				return Value{}, err
			}
			e, err := r.readValue(depth + 1)
			if err != nil {
				return Value{}, err
			}
			obj[k] = e
		}
		return Value{Kind: KindObject, Object: obj}, nil
	default:
		return Value{}, fmt.Errorf("unknown value tag 0x%02x", tag)
	}
}

// minCap bounds pre-allocation so a corrupted count cannot cause a huge
// allocation before the truncation check catches it.
func minCap(n uint32) int {
	if n > 1024 {
		return 1024
	}
	return int(n)
}
