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

package query

import (
	"testing"

	"nvault/internal/document"
)

func person(id, name string, age float64, city string) *document.Document {
	return document.New(id, "people", map[string]document.Value{
		"name": document.String(name),
		"age":  document.Number(age),
		"city": document.String(city),
	})
}

func testPeople() []*document.Document {
	return []*document.Document{
		person("1", "Alice", 30, "Oslo"),
		person("2", "Bob", 25, "Bergen"),
		person("3", "Carol", 35, "Oslo"),
		person("4", "Dave", 28, "Trondheim"),
	}
}

func ids(docs []*document.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestFilterNoConditionsMatchesAll(t *testing.T) {
	ev := NewEvaluator()
	docs, err := ev.Filter(testPeople(), New("people"))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(docs) != 4 {
		t.Errorf("matched %d documents, want 4", len(docs))
	}
}

func TestFilterOperators(t *testing.T) {
	ev := NewEvaluator()
	people := testPeople()

	tests := []struct {
		name  string
		query *Query
		want  []string
	}{
		{
			name:  "equals",
			query: New("people").Where("city", OpEquals, document.String("Oslo")),
			want:  []string{"1", "3"},
		},
		{
			name:  "not equals",
			query: New("people").Where("city", OpNotEquals, document.String("Oslo")),
			want:  []string{"2", "4"},
		},
		{
			name:  "greater than",
			query: New("people").Where("age", OpGreaterThan, document.Number(28)),
			want:  []string{"1", "3"},
		},
		{
			name:  "greater or equal",
			query: New("people").Where("age", OpGreaterOrEqual, document.Number(28)),
			want:  []string{"1", "3", "4"},
		},
		{
			name:  "less than",
			query: New("people").Where("age", OpLessThan, document.Number(28)),
			want:  []string{"2"},
		},
		{
			name:  "less or equal",
			query: New("people").Where("age", OpLessOrEqual, document.Number(28)),
			want:  []string{"2", "4"},
		},
		{
			name:  "contains",
			query: New("people").Where("name", OpContains, document.String("ar")),
			want:  []string{"3"},
		},
		{
			name:  "starts with",
			query: New("people").Where("name", OpStartsWith, document.String("Da")),
			want:  []string{"4"},
		},
		{
			name:  "ends with",
			query: New("people").Where("name", OpEndsWith, document.String("e")),
			want:  []string{"1", "4"},
		},
		{
			name: "in",
			query: New("people").Where("city", OpIn,
				document.ArrayOf(document.String("Oslo"), document.String("Bergen"))),
			want: []string{"1", "2", "3"},
		},
		{
			name: "not in",
			query: New("people").Where("city", OpNotIn,
				document.ArrayOf(document.String("Oslo"), document.String("Bergen"))),
			want: []string{"4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := ev.Filter(people, tt.query)
			if err != nil {
				t.Fatalf("Filter failed: %v", err)
			}
			got := ids(docs)
			if len(got) != len(tt.want) {
				t.Fatalf("matched %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("matched %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestFilterMissingFieldIsFalse(t *testing.T) {
	ev := NewEvaluator()

	docs, err := ev.Filter(testPeople(),
		New("people").Where("salary", OpGreaterThan, document.Number(0)))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("missing field matched %d documents, want 0", len(docs))
	}

	// Even equality against null does not match a missing field.
	docs, err = ev.Filter(testPeople(),
		New("people").Where("salary", OpEquals, document.Null()))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("missing field equals null matched %d documents, want 0", len(docs))
	}
}

func TestFilterTypeMismatchIsFalse(t *testing.T) {
	ev := NewEvaluator()

	// Ordering a string field numerically matches nothing.
	docs, err := ev.Filter(testPeople(),
		New("people").Where("name", OpGreaterThan, document.Number(0)))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("cross-type comparison matched %d documents, want 0", len(docs))
	}
}

func TestFilterLeftToRightFold(t *testing.T) {
	ev := NewEvaluator()
	people := testPeople()

	// a AND b OR c evaluated left-to-right is (a AND b) OR c, never
	// a AND (b OR c). With a=false for everyone, b irrelevant, c=true
	// for Oslo, the flat fold matches exactly the Oslo documents.
	q := New("people").
		Where("age", OpGreaterThan, document.Number(100)).
		And().
		Where("age", OpGreaterThan, document.Number(0)).
		Or().
		Where("city", OpEquals, document.String("Oslo"))

	docs, err := ev.Filter(people, q)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	got := ids(docs)
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("fold matched %v, want [1 3]", got)
	}

	// Same conditions with the connectors swapped: a OR b AND c is
	// (a OR b) AND c. a matches nobody, b everybody, c Oslo.
	q = New("people").
		Where("age", OpGreaterThan, document.Number(100)).
		Or().
		Where("age", OpGreaterThan, document.Number(0)).
		And().
		Where("city", OpEquals, document.String("Oslo"))

	docs, err = ev.Filter(people, q)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	got = ids(docs)
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("fold matched %v, want [1 3]", got)
	}
}

func TestFilterNumericEpsilonEquality(t *testing.T) {
	ev := NewEvaluator()
	docs := []*document.Document{
		document.New("a", "c", map[string]document.Value{
			"score": document.Number(0.1 + 0.2), // 0.30000000000000004
		}),
	}

	matched, err := ev.Filter(docs, New("c").Where("score", OpEquals, document.Number(0.3)))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(matched) != 1 {
		t.Error("floating point noise within tolerance should match")
	}
}

func TestFilterSortAscending(t *testing.T) {
	ev := NewEvaluator()

	docs, err := ev.Filter(testPeople(), New("people").SortBy("age", false))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	got := ids(docs)
	want := []string{"2", "4", "1", "3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ascending sort order %v, want %v", got, want)
		}
	}
}

func TestFilterSortDescending(t *testing.T) {
	ev := NewEvaluator()

	docs, err := ev.Filter(testPeople(), New("people").SortBy("age", true))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	got := ids(docs)
	want := []string{"3", "1", "4", "2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("descending sort order %v, want %v", got, want)
		}
	}
}

func TestFilterSortMissingFieldLast(t *testing.T) {
	ev := NewEvaluator()
	docs := []*document.Document{
		document.New("no-field", "c", nil),
		document.New("with-field", "c", map[string]document.Value{
			"rank": document.Number(1),
		}),
	}

	// Ascending: documents missing the field sort last.
	sorted, err := ev.Filter(docs, New("c").SortBy("rank", false))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if sorted[0].ID != "with-field" || sorted[1].ID != "no-field" {
		t.Errorf("ascending order %v", ids(sorted))
	}

	// Descending reverses the whole ordering, placement included.
	sorted, err = ev.Filter(docs, New("c").SortBy("rank", true))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if sorted[0].ID != "no-field" || sorted[1].ID != "with-field" {
		t.Errorf("descending order %v", ids(sorted))
	}
}

func TestFilterSortIsStable(t *testing.T) {
	ev := NewEvaluator()
	docs := []*document.Document{
		person("x", "X", 30, "Oslo"),
		person("y", "Y", 30, "Oslo"),
		person("z", "Z", 30, "Oslo"),
	}

	sorted, err := ev.Filter(docs, New("people").SortBy("age", false))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	got := ids(sorted)
	if got[0] != "x" || got[1] != "y" || got[2] != "z" {
		t.Errorf("equal keys changed relative order: %v", got)
	}
}

func TestFilterPagination(t *testing.T) {
	ev := NewEvaluator()

	// Skip applies before limit: page two of size two.
	q := New("people").SortBy("age", false).Page(2, 2)
	docs, err := ev.Filter(testPeople(), q)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	got := ids(docs)
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("page = %v, want [1 3]", got)
	}
}

func TestFilterSkipBeyondResults(t *testing.T) {
	ev := NewEvaluator()

	docs, err := ev.Filter(testPeople(), New("people").Page(10, -1))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("skip beyond results returned %d documents", len(docs))
	}
}

func TestFilterLimitZero(t *testing.T) {
	ev := NewEvaluator()

	docs, err := ev.Filter(testPeople(), New("people").Page(0, 0))
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("limit 0 returned %d documents", len(docs))
	}
}

func TestFilterInvalidQuery(t *testing.T) {
	ev := NewEvaluator()

	// Missing connector between two conditions.
	q := New("people").
		Where("age", OpGreaterThan, document.Number(0)).
		Where("age", OpLessThan, document.Number(100))
	if _, err := ev.Filter(testPeople(), q); err == nil {
		t.Error("Filter should reject a query with missing connectors")
	}

	// Unknown operator.
	q = New("people").Where("age", Operator("~="), document.Number(0))
	if _, err := ev.Filter(testPeople(), q); err == nil {
		t.Error("Filter should reject an unknown operator")
	}

	// Negative skip.
	q = New("people")
	q.Skip = -1
	if _, err := ev.Filter(testPeople(), q); err == nil {
		t.Error("Filter should reject negative skip")
	}
}
