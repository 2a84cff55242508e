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
Package document defines the data model for NeuralVault: schema-less
documents and the dynamically-typed values they hold.

Document Model:
===============

A Document is a bag of named values grouped under a collection name and
addressed by an engine-generated identifier:

	┌──────────────────────────────────────────────┐
	│                   Document                   │
	├──────────────────────────────────────────────┤
	│  ID          "7f9c24e8-..."   (immutable)    │
	│  Collection  "users"                         │
	│  Data        map[string]Value                │
	│  CreatedAt   2026-08-30T10:15:00Z            │
	│  UpdatedAt   2026-08-30T11:42:10Z            │
	│  Deleted     false                           │
	└──────────────────────────────────────────────┘

The identifier is assigned exactly once, at creation, and never reused.
Collections are free-form labels - they are not validated or separately
indexed; they exist so that queries and scans can group documents.

Value Model:
============

Value is a closed, recursive sum type over six kinds:

	Null, Bool, Number (float64), String, Array ([]Value), Object (map)

There is no integer/float distinction and no dedicated date type beyond
the document-level timestamps. Values are compared structurally; numeric
equality is tolerant of floating-point noise (see Equal).
*/
package document

import (
	"math"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind byte

const (
	// KindNull is the null value.
	KindNull Kind = iota
	// KindBool is a boolean value.
	KindBool
	// KindNumber is a double-precision floating point value.
	KindNumber
	// KindString is a UTF-8 string value.
	KindString
	// KindArray is an ordered sequence of values.
	KindArray
	// KindObject is a map of field name to value.
	KindObject
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// numericEpsilon is the tolerance used for Number equality. Two numbers
// closer than this are considered equal, which avoids surprising misses
// when values have passed through JSON or arithmetic.
const numericEpsilon = 1e-9

// Value is a dynamically-typed document field value. The zero Value is
// null. Exactly one of the variant fields is meaningful, selected by Kind.
//
// Value is a plain data holder; it is copied freely and is not safe for
// concurrent mutation of its Array/Object contents.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Str    string
	Array  []Value
	Object map[string]Value
}

// Null returns the null value.
func Null() Value {
	return Value{Kind: KindNull}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// Number returns a number value.
func Number(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// String returns a string value.
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// ArrayOf returns an array value holding the given elements.
func ArrayOf(elems ...Value) Value {
	return Value{Kind: KindArray, Array: elems}
}

// ObjectOf returns an object value holding the given fields.
func ObjectOf(fields map[string]Value) Value {
	return Value{Kind: KindObject, Object: fields}
}

// Equal reports whether two values are structurally equal.
//
// Numbers are compared within numericEpsilon rather than bit-exact.
// Cross-kind comparisons are always unequal (1 != "1"). Arrays compare
// element-wise in order; objects compare key sets and per-key values.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindNumber:
		return math.Abs(v.Number-other.Number) < numericEpsilon
	case KindString:
		return v.Str == other.Str
	case KindArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Object) != len(other.Object) {
			return false
		}
		for k, val := range v.Object {
			ov, ok := other.Object[k]
			if !ok || !val.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Interface converts the value to its natural Go representation
// (nil, bool, float64, string, []interface{}, map[string]interface{}).
// This is the bridge to encoding/json for the adapter layer.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Number
	case KindString:
		return v.Str
	case KindArray:
		out := make([]interface{}, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.Object))
		for k, e := range v.Object {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface converts a decoded JSON value (as produced by
// encoding/json into interface{}) to a Value. Unrecognized Go types
// map to null. json.Number is not handled; callers use the default
// float64 decoding.
func FromInterface(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case string:
		return String(t)
	case []interface{}:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = FromInterface(e)
		}
		return Value{Kind: KindArray, Array: arr}
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = FromInterface(e)
		}
		return Value{Kind: KindObject, Object: obj}
	default:
		return Null()
	}
}

// Document is a single record in the store. All fields except Data and
// UpdatedAt are immutable after creation; the engine flips Deleted via
// the on-disk tombstone rather than mutating the struct in place.
type Document struct {
	// ID is the globally unique, engine-generated identifier.
	ID string

	// Collection is the free-form group this document belongs to.
	Collection string

	// Data holds the document's fields. Insertion order is not significant.
	Data map[string]Value

	// CreatedAt is the creation timestamp (UTC).
	CreatedAt time.Time

	// UpdatedAt is the last-modification timestamp (UTC).
	UpdatedAt time.Time

	// Deleted mirrors the on-disk tombstone for decoded records.
	Deleted bool
}

// New creates a live document with both timestamps set to now.
func New(id, collection string, data map[string]Value) *Document {
	now := time.Now().UTC()
	if data == nil {
		data = make(map[string]Value)
	}
	return &Document{
		ID:         id,
		Collection: collection,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Get returns the value of a field and whether it exists.
func (d *Document) Get(field string) (Value, bool) {
	v, ok := d.Data[field]
	return v, ok
}

// Set replaces or inserts a field and bumps the modification timestamp.
func (d *Document) Set(field string, value Value) {
	if d.Data == nil {
		d.Data = make(map[string]Value)
	}
	d.Data[field] = value
	d.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy of the document. Documents handed out by
// the storage engine are clones, so callers can mutate them freely
// without affecting stored state until they are re-appended.
func (d *Document) Clone() *Document {
	data := make(map[string]Value, len(d.Data))
	for k, v := range d.Data {
		data[k] = cloneValue(v)
	}
	return &Document{
		ID:         d.ID,
		Collection: d.Collection,
		Data:       data,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		Deleted:    d.Deleted,
	}
}

func cloneValue(v Value) Value {
	switch v.Kind {
	case KindArray:
		arr := make([]Value, len(v.Array))
		for i, e := range v.Array {
			arr[i] = cloneValue(e)
		}
		return Value{Kind: KindArray, Array: arr}
	case KindObject:
		obj := make(map[string]Value, len(v.Object))
		for k, e := range v.Object {
			obj[k] = cloneValue(e)
		}
		return Value{Kind: KindObject, Object: obj}
	default:
		return v
	}
}
