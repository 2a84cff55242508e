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
	"testing"
)

func TestValueEqualSameKind(t *testing.T) {
	if !Null().Equal(Null()) {
		t.Error("null should equal null")
	}
	if !Bool(true).Equal(Bool(true)) {
		t.Error("true should equal true")
	}
	if Bool(true).Equal(Bool(false)) {
		t.Error("true should not equal false")
	}
	if !String("hello").Equal(String("hello")) {
		t.Error("equal strings should compare equal")
	}
	if String("hello").Equal(String("world")) {
		t.Error("different strings should not compare equal")
	}
}

func TestValueEqualNumericTolerance(t *testing.T) {
	// Values within the tolerance compare equal
	if !Number(1.0).Equal(Number(1.0 + 1e-12)) {
		t.Error("numbers within tolerance should be equal")
	}
	// Values outside the tolerance do not
	if Number(1.0).Equal(Number(1.0001)) {
		t.Error("numbers outside tolerance should not be equal")
	}
}

func TestValueEqualCrossKind(t *testing.T) {
	// 1 != "1": no implicit coercion across kinds
	if Number(1).Equal(String("1")) {
		t.Error("number should not equal string")
	}
	if Bool(false).Equal(Null()) {
		t.Error("false should not equal null")
	}
}

func TestValueEqualComposite(t *testing.T) {
	a := ArrayOf(Number(1), String("x"))
	b := ArrayOf(Number(1), String("x"))
	if !a.Equal(b) {
		t.Error("equal arrays should compare equal")
	}
	if a.Equal(ArrayOf(String("x"), Number(1))) {
		t.Error("array comparison must be order-sensitive")
	}
	if a.Equal(ArrayOf(Number(1))) {
		t.Error("arrays of different lengths should not be equal")
	}

	o1 := ObjectOf(map[string]Value{"a": Number(1), "b": String("x")})
	o2 := ObjectOf(map[string]Value{"b": String("x"), "a": Number(1)})
	if !o1.Equal(o2) {
		t.Error("object comparison must be key-order independent")
	}
	if o1.Equal(ObjectOf(map[string]Value{"a": Number(1)})) {
		t.Error("objects with different key sets should not be equal")
	}
}

func TestInterfaceRoundTrip(t *testing.T) {
	original := ObjectOf(map[string]Value{
		"name":   String("Alice"),
		"age":    Number(30),
		"active": Bool(true),
		"note":   Null(),
		"tags":   ArrayOf(String("a"), String("b")),
	})

	converted := FromInterface(original.Interface())
	if !original.Equal(converted) {
		t.Errorf("round trip changed value: %v != %v", original, converted)
	}
}

func TestFromInterfaceUnknownType(t *testing.T) {
	v := FromInterface(struct{}{})
	if v.Kind != KindNull {
		t.Errorf("unknown Go type should map to null, got %v", v.Kind)
	}
}

func TestDocumentGetSet(t *testing.T) {
	doc := New("id-1", "users", map[string]Value{"name": String("Alice")})

	v, ok := doc.Get("name")
	if !ok || v.Str != "Alice" {
		t.Errorf("Get returned %v, %v", v, ok)
	}
	if _, ok := doc.Get("missing"); ok {
		t.Error("Get should report missing fields")
	}

	before := doc.UpdatedAt
	doc.Set("age", Number(30))
	if v, ok := doc.Get("age"); !ok || v.Number != 30 {
		t.Errorf("Set did not store the field: %v, %v", v, ok)
	}
	if doc.UpdatedAt.Before(before) {
		t.Error("Set should not move UpdatedAt backwards")
	}
}

func TestDocumentNewNilData(t *testing.T) {
	doc := New("id-1", "users", nil)
	if doc.Data == nil {
		t.Fatal("New should allocate an empty data map")
	}
	doc.Set("k", Number(1))
	if _, ok := doc.Get("k"); !ok {
		t.Error("Set on empty document failed")
	}
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := New("id-1", "users", map[string]Value{
		"tags":    ArrayOf(String("a")),
		"profile": ObjectOf(map[string]Value{"city": String("Oslo")}),
	})

	clone := doc.Clone()
	clone.Data["tags"].Array[0] = String("changed")
	clone.Data["profile"].Object["city"] = String("Bergen")
	clone.Set("new", Number(1))

	if doc.Data["tags"].Array[0].Str != "a" {
		t.Error("mutating clone array leaked into original")
	}
	if doc.Data["profile"].Object["city"].Str != "Oslo" {
		t.Error("mutating clone object leaked into original")
	}
	if _, ok := doc.Get("new"); ok {
		t.Error("adding field to clone leaked into original")
	}
}
