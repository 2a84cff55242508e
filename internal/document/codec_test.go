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

package document

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func sampleDocument() *Document {
	return &Document{
		ID:         "7f9c24e8-0001",
		Collection: "users",
		Data: map[string]Value{
			"name":    String("Alice"),
			"age":     Number(30),
			"active":  Bool(true),
			"note":    Null(),
			"tags":    ArrayOf(String("admin"), String("staff")),
			"profile": ObjectOf(map[string]Value{"city": String("Oslo"), "zip": Number(150)}),
		},
		CreatedAt: time.Date(2026, 8, 30, 10, 15, 0, 123456789, time.UTC),
		UpdatedAt: time.Date(2026, 8, 30, 11, 42, 10, 987654321, time.UTC),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sampleDocument()

	decoded, err := Decode(Encode(original))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID mismatch: %q != %q", decoded.ID, original.ID)
	}
	if decoded.Collection != original.Collection {
		t.Errorf("Collection mismatch: %q != %q", decoded.Collection, original.Collection)
	}
	if !decoded.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("CreatedAt mismatch: %v != %v", decoded.CreatedAt, original.CreatedAt)
	}
	if !decoded.UpdatedAt.Equal(original.UpdatedAt) {
		t.Errorf("UpdatedAt mismatch: %v != %v", decoded.UpdatedAt, original.UpdatedAt)
	}
	if decoded.Deleted {
		t.Error("Deleted flag should round trip as false")
	}
	if len(decoded.Data) != len(original.Data) {
		t.Fatalf("field count mismatch: %d != %d", len(decoded.Data), len(original.Data))
	}
	for k, v := range original.Data {
		dv, ok := decoded.Data[k]
		if !ok {
			t.Errorf("field %q missing after round trip", k)
			continue
		}
		if !v.Equal(dv) {
			t.Errorf("field %q mismatch: %v != %v", k, dv, v)
		}
	}
}

func TestEncodeDeletedFlag(t *testing.T) {
	doc := sampleDocument()
	doc.Deleted = true

	decoded, err := Decode(Encode(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !decoded.Deleted {
		t.Error("Deleted flag lost in round trip")
	}
}

func TestEncodeDeterministic(t *testing.T) {
	doc := sampleDocument()

	// Map iteration order varies between encodings; sorted keys must
	// keep the bytes identical so the record checksum is stable.
	first := Encode(doc)
	for i := 0; i < 10; i++ {
		if !bytes.Equal(first, Encode(doc)) {
			t.Fatal("Encode is not deterministic")
		}
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	payload := Encode(sampleDocument())

	// Every proper prefix must fail cleanly, never panic.
	for cut := 0; cut < len(payload); cut++ {
		if _, err := Decode(payload[:cut]); err == nil {
			t.Fatalf("Decode of %d-byte prefix should fail", cut)
		}
	}
}

func TestDecodeTruncationError(t *testing.T) {
	payload := Encode(sampleDocument())
	_, err := Decode(payload[:3])
	if !errors.Is(err, ErrPayloadTruncated) {
		t.Errorf("expected ErrPayloadTruncated, got %v", err)
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	payload := append(Encode(sampleDocument()), 0xde, 0xad)
	if _, err := Decode(payload); err == nil {
		t.Error("Decode should reject trailing bytes")
	}
}

func TestDecodeUnknownValueTag(t *testing.T) {
	doc := &Document{ID: "x", Collection: "c", Data: map[string]Value{"f": Null()}}
	payload := Encode(doc)

	// The null tag is the last byte of the payload; corrupt it.
	payload[len(payload)-1] = 0x7f
	if _, err := Decode(payload); err == nil {
		t.Error("Decode should reject unknown value tags")
	}
}

func TestEncodeEmptyDocument(t *testing.T) {
	doc := New("id-1", "empty", nil)
	decoded, err := Decode(Encode(doc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(decoded.Data) != 0 {
		t.Errorf("expected no fields, got %d", len(decoded.Data))
	}
}

func TestDecodeDeepNesting(t *testing.T) {
	// Build a value nested beyond the decoder's depth bound.
	v := Number(1)
	for i := 0; i < maxNesting+2; i++ {
		v = ArrayOf(v)
	}
	doc := &Document{ID: "x", Collection: "c", Data: map[string]Value{"deep": v}}

	if _, err := Decode(Encode(doc)); err == nil {
		t.Error("Decode should reject excessive nesting")
	}
}
