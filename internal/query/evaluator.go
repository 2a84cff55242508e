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
	"sort"
	"strings"

	"nvault/internal/document"
)

// Evaluator filters, orders and paginates decoded documents against a
// query. It is stateless and safe for concurrent use.
type Evaluator struct{}

// NewEvaluator creates an evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Filter returns the documents matching q, ordered and paginated.
//
// Matching follows the flat left-to-right fold described in the
// package documentation. A query with no conditions matches every
// document. Sorting applies only when an order field is named; skip
// applies before limit. The input slice is never mutated.
func (e *Evaluator) Filter(docs []*document.Document, q *Query) ([]*document.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	results := make([]*document.Document, 0, len(docs))
	for _, doc := range docs {
		if e.matches(doc, q) {
			results = append(results, doc)
		}
	}

	if q.OrderBy != "" {
		sortDocuments(results, q.OrderBy, q.Descending)
	}

	if q.Skip > 0 {
		if q.Skip >= len(results) {
			results = results[:0]
		} else {
			results = results[q.Skip:]
		}
	}
	if q.Limit >= 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	return results, nil
}

// matches evaluates the condition fold for one document.
func (e *Evaluator) matches(doc *document.Document, q *Query) bool {
	if len(q.Conditions) == 0 {
		return true
	}

	result := evalCondition(doc, q.Conditions[0])
	for i := 1; i < len(q.Conditions); i++ {
		next := evalCondition(doc, q.Conditions[i])
		if q.Connectors[i-1] == LogicalAnd {
			result = result && next
		} else {
			result = result || next
		}
	}
	return result
}

// evalCondition evaluates a single predicate. A condition on a field
// the document does not have is false, never an error.
func evalCondition(doc *document.Document, cond Condition) bool {
	fieldValue, ok := doc.Get(cond.Field)
	if !ok {
		return false
	}
	return compare(fieldValue, cond.Value, cond.Operator)
}

// compare applies an operator to a document field value (left) and the
// query's comparison value (right).
func compare(left, right document.Value, op Operator) bool {
	switch op {
	case OpEquals:
		return left.Equal(right)
	case OpNotEquals:
		return !left.Equal(right)
	case OpGreaterThan:
		return compareNumeric(left, right, func(a, b float64) bool { return a > b })
	case OpGreaterOrEqual:
		return compareNumeric(left, right, func(a, b float64) bool { return a >= b })
	case OpLessThan:
		return compareNumeric(left, right, func(a, b float64) bool { return a < b })
	case OpLessOrEqual:
		return compareNumeric(left, right, func(a, b float64) bool { return a <= b })
	case OpContains:
		return compareString(left, right, strings.Contains)
	case OpStartsWith:
		return compareString(left, right, strings.HasPrefix)
	case OpEndsWith:
		return compareString(left, right, strings.HasSuffix)
	case OpIn:
		return valueIn(left, right)
	case OpNotIn:
		return !valueIn(left, right)
	default:
		return false
	}
}

// compareNumeric applies cmp when both operands are numbers; any
// non-numeric operand yields false.
func compareNumeric(left, right document.Value, cmp func(a, b float64) bool) bool {
	if left.Kind != document.KindNumber || right.Kind != document.KindNumber {
		return false
	}
	return cmp(left.Number, right.Number)
}

// compareString applies cmp when both operands are strings; any
// non-string operand yields false.
func compareString(left, right document.Value, cmp func(s, substr string) bool) bool {
	if left.Kind != document.KindString || right.Kind != document.KindString {
		return false
	}
	return cmp(left.Str, right.Str)
}

// valueIn reports membership of value in the array operand, using the
// same structural equality as OpEquals. A non-array operand yields
// false.
func valueIn(value, array document.Value) bool {
	if array.Kind != document.KindArray {
		return false
	}
	for _, item := range array.Array {
		if value.Equal(item) {
			return true
		}
	}
	return false
}

// sortDocuments orders documents by a field, stably.
//
// The comparator is type-aware: numbers compare numerically, strings
// lexicographically, booleans false<true. A document missing the field
// sorts after one that has it in ascending order (missing values last).
// Two documents both missing the field, or holding incomparable kinds,
// are equal and keep their relative order. The descending flag reverses
// the whole ordering, missing-field placement included.
func sortDocuments(docs []*document.Document, field string, descending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		cmp := compareForOrder(docs[i], docs[j], field)
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

// compareForOrder returns -1, 0 or 1 ordering a before/equal/after b.
func compareForOrder(a, b *document.Document, field string) int {
	av, aok := a.Get(field)
	bv, bok := b.Get(field)

	switch {
	case aok && !bok:
		return -1
	case !aok && bok:
		return 1
	case !aok && !bok:
		return 0
	}

	if av.Kind != bv.Kind {
		return 0
	}

	switch av.Kind {
	case document.KindNumber:
		switch {
		case av.Number < bv.Number:
			return -1
		case av.Number > bv.Number:
			return 1
		}
		return 0
	case document.KindString:
		return strings.Compare(av.Str, bv.Str)
	case document.KindBool:
		switch {
		case !av.Bool && bv.Bool:
			return -1
		case av.Bool && !bv.Bool:
			return 1
		}
		return 0
	default:
		return 0
	}
}
