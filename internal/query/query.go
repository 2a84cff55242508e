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
Package query implements NeuralVault's query model and evaluator.

A query names a target collection and a flat sequence of field-level
conditions joined by logical connectors:

	age > 21  AND  city == "Oslo"  OR  admin == true

Connectors are applied strictly left-to-right with no precedence
grouping: the example reads ((age > 21 AND city == "Oslo") OR admin).
There is always exactly one fewer connector than conditions. Because
mixed AND/OR without grouping is order-sensitive, the evaluator never
re-associates the fold.

Evaluation is pure: the evaluator receives decoded documents from the
storage engine and touches no I/O itself.
*/
package query

import (
	"fmt"

	"nvault/internal/document"
	verrors "nvault/internal/errors"
)

// Operator is a field-level comparison operator.
type Operator string

const (
	// OpEquals matches structurally equal values (numeric equality
	// within a small epsilon; cross-type comparisons never match).
	OpEquals Operator = "eq"
	// OpNotEquals is the negation of OpEquals.
	OpNotEquals Operator = "ne"
	// OpGreaterThan matches numeric field > numeric operand.
	OpGreaterThan Operator = "gt"
	// OpGreaterOrEqual matches numeric field >= numeric operand.
	OpGreaterOrEqual Operator = "gte"
	// OpLessThan matches numeric field < numeric operand.
	OpLessThan Operator = "lt"
	// OpLessOrEqual matches numeric field <= numeric operand.
	OpLessOrEqual Operator = "lte"
	// OpContains matches string fields containing the operand substring.
	OpContains Operator = "contains"
	// OpStartsWith matches string fields with the operand prefix.
	OpStartsWith Operator = "starts_with"
	// OpEndsWith matches string fields with the operand suffix.
	OpEndsWith Operator = "ends_with"
	// OpIn matches fields equal to any element of the operand array.
	OpIn Operator = "in"
	// OpNotIn is the negation of OpIn.
	OpNotIn Operator = "not_in"
)

// Valid reports whether the operator is one of the supported set.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpGreaterThan, OpGreaterOrEqual,
		OpLessThan, OpLessOrEqual, OpContains, OpStartsWith,
		OpEndsWith, OpIn, OpNotIn:
		return true
	}
	return false
}

// Logical joins two adjacent conditions.
type Logical string

const (
	// LogicalAnd requires both sides to match.
	LogicalAnd Logical = "and"
	// LogicalOr requires either side to match.
	LogicalOr Logical = "or"
)

// Condition is a single field-level predicate.
type Condition struct {
	Field    string
	Operator Operator
	Value    document.Value
}

// Query describes a filter over one collection, with optional ordering
// and pagination. The zero value is not usable; construct with New.
type Query struct {
	// Collection is the target collection name.
	Collection string

	// Conditions are evaluated in order; Connectors[i] joins the
	// running result with Conditions[i+1].
	Conditions []Condition
	Connectors []Logical

	// OrderBy names the sort field. Empty means insertion order.
	OrderBy string

	// Descending reverses the final ordering, including the placement
	// of documents missing the sort field.
	Descending bool

	// Skip drops that many matches before the limit applies.
	Skip int

	// Limit caps the result count. Negative means unlimited.
	Limit int
}

// New creates an unfiltered, unlimited query against a collection.
func New(collection string) *Query {
	return &Query{Collection: collection, Limit: -1}
}

// Where appends a condition. For every condition after the first, the
// preceding connector must be supplied with And/Or first.
func (q *Query) Where(field string, op Operator, value document.Value) *Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Operator: op, Value: value})
	return q
}

// And appends an AND connector ahead of the next condition.
func (q *Query) And() *Query {
	q.Connectors = append(q.Connectors, LogicalAnd)
	return q
}

// Or appends an OR connector ahead of the next condition.
func (q *Query) Or() *Query {
	q.Connectors = append(q.Connectors, LogicalOr)
	return q
}

// SortBy sets the order field and direction.
func (q *Query) SortBy(field string, descending bool) *Query {
	q.OrderBy = field
	q.Descending = descending
	return q
}

// Page sets skip and limit.
func (q *Query) Page(skip, limit int) *Query {
	q.Skip = skip
	q.Limit = limit
	return q
}

// Validate checks the query's structural invariants: known operators,
// known connectors, and exactly one fewer connector than conditions.
func (q *Query) Validate() error {
	if len(q.Conditions) > 0 && len(q.Connectors) != len(q.Conditions)-1 {
		return verrors.InvalidQuery(fmt.Sprintf(
			"%d conditions require %d logical connectors, got %d",
			len(q.Conditions), len(q.Conditions)-1, len(q.Connectors)))
	}
	if len(q.Conditions) == 0 && len(q.Connectors) != 0 {
		return verrors.InvalidQuery("logical connectors without conditions")
	}
	for _, c := range q.Conditions {
		if !c.Operator.Valid() {
			return verrors.InvalidOperator(string(c.Operator))
		}
	}
	for _, l := range q.Connectors {
		if l != LogicalAnd && l != LogicalOr {
			return verrors.InvalidQuery(fmt.Sprintf("unknown logical connector %q", l))
		}
	}
	if q.Skip < 0 {
		return verrors.InvalidQuery("skip must not be negative")
	}
	return nil
}

// UpdateOp is a flat set-or-insert instruction applied by update
// operations: the named field is replaced (or inserted) with the
// value. There is no deep merge, field deletion or increment.
type UpdateOp struct {
	Field string
	Value document.Value
}
