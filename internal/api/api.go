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
Package api is the JSON translation layer over the vault.

It parses textual queries, documents and update operations into the
internal representations, delegates to the Vault facade, and serializes
results back to JSON text. It contains no algorithmic content of its
own - embedders and the shell talk to the vault through this layer.

Query JSON Format:
==================

	{
	  "conditions": [
	    {"field": "age", "operator": ">", "value": 21},
	    {"field": "city", "operator": "==", "value": "Oslo", "logical": "and"}
	  ],
	  "order_by": "age",
	  "order_desc": false,
	  "skip": 0,
	  "limit": 10
	}

Every condition after the first carries a "logical" connector ("and"
or "or", default "and") joining it to the running result, evaluated
left-to-right. Operators accept both symbolic and named spellings:
==, !=, >, >=, <, <= and equals, not_equals, greater_than,
greater_than_or_equal, less_than, less_than_or_equal, plus contains,
starts_with, ends_with, in, not_in.

Update JSON is a flat object: {"field": value, ...} - each pair is a
set-or-insert of that field.
*/
package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"nvault/internal/document"
	verrors "nvault/internal/errors"
	"nvault/internal/query"
	"nvault/internal/vault"
)

// Handle is the JSON-facing wrapper around a vault instance.
type Handle struct {
	vault *vault.Vault
}

// NewHandle wraps a vault.
func NewHandle(v *vault.Vault) *Handle {
	return &Handle{vault: v}
}

// documentJSON is the wire representation of a document.
type documentJSON struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// CreateDocument parses a JSON object and stores it as a new document,
// returning the generated identifier.
func (h *Handle) CreateDocument(collection, jsonData string) (string, error) {
	data, err := parseFieldMap(jsonData)
	if err != nil {
		return "", err
	}
	return h.vault.Create(collection, data)
}

// FindDocuments runs a JSON query against a collection and returns the
// matching documents as a JSON array.
func (h *Handle) FindDocuments(collection, queryJSON string) (string, error) {
	q, err := ParseQuery(collection, queryJSON)
	if err != nil {
		return "", err
	}

	docs, err := h.vault.Find(q)
	if err != nil {
		return "", err
	}
	return marshalDocuments(docs)
}

// FindDocumentByID returns a single document as JSON.
func (h *Handle) FindDocumentByID(id string) (string, error) {
	doc, err := h.vault.FindByID(id)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(toJSON(doc))
	if err != nil {
		return "", verrors.SerializationError(err.Error())
	}
	return string(out), nil
}

// UpdateDocuments applies a flat JSON update object to every document
// matching the query and returns how many were updated.
func (h *Handle) UpdateDocuments(collection, queryJSON, updatesJSON string) (int, error) {
	q, err := ParseQuery(collection, queryJSON)
	if err != nil {
		return 0, err
	}
	ops, err := ParseUpdates(updatesJSON)
	if err != nil {
		return 0, err
	}
	return h.vault.Update(q, ops)
}

// UpdateDocumentByID applies a flat JSON update object to one document.
func (h *Handle) UpdateDocumentByID(id, updatesJSON string) error {
	ops, err := ParseUpdates(updatesJSON)
	if err != nil {
		return err
	}
	return h.vault.UpdateByID(id, ops)
}

// DeleteDocuments soft-deletes every document matching the query and
// returns how many were deleted.
func (h *Handle) DeleteDocuments(collection, queryJSON string) (int, error) {
	q, err := ParseQuery(collection, queryJSON)
	if err != nil {
		return 0, err
	}
	return h.vault.Kill(q)
}

// DeleteDocumentByID soft-deletes one document.
func (h *Handle) DeleteDocumentByID(id string) error {
	return h.vault.KillByID(id)
}

// CountDocuments returns the live document count of a collection.
func (h *Handle) CountDocuments(collection string) (int, error) {
	return h.vault.Count(collection)
}

// GetCollections returns the sorted distinct collection names.
func (h *Handle) GetCollections() ([]string, error) {
	return h.vault.Collections()
}

// GetStats returns database statistics as JSON.
func (h *Handle) GetStats() (string, error) {
	stats, err := h.vault.Stats()
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(stats)
	if err != nil {
		return "", verrors.SerializationError(err.Error())
	}
	return string(out), nil
}

// ParseQuery parses the JSON query format into a Query. An empty
// string or "{}" yields an unfiltered query over the collection.
func ParseQuery(collection, queryJSON string) (*query.Query, error) {
	q := query.New(collection)

	queryJSON = strings.TrimSpace(queryJSON)
	if queryJSON == "" || queryJSON == "{}" {
		return q, nil
	}

	var raw struct {
		Conditions []struct {
			Field    string          `json:"field"`
			Operator string          `json:"operator"`
			Value    json.RawMessage `json:"value"`
			Logical  string          `json:"logical"`
		} `json:"conditions"`
		OrderBy   string `json:"order_by"`
		OrderDesc bool   `json:"order_desc"`
		Skip      *int   `json:"skip"`
		Limit     *int   `json:"limit"`
	}
	if err := json.Unmarshal([]byte(queryJSON), &raw); err != nil {
		return nil, verrors.MalformedQuery(err.Error())
	}

	for i, cond := range raw.Conditions {
		if cond.Field == "" {
			return nil, verrors.MalformedQuery(fmt.Sprintf("condition %d: missing field", i))
		}
		op, err := parseOperator(cond.Operator)
		if err != nil {
			return nil, err
		}
		if len(cond.Value) == 0 {
			return nil, verrors.MalformedQuery(fmt.Sprintf("condition %d: missing value", i))
		}

		var value interface{}
		if err := json.Unmarshal(cond.Value, &value); err != nil {
			return nil, verrors.MalformedQuery(fmt.Sprintf("condition %d: %v", i, err))
		}

		if i > 0 {
			logical, err := parseLogical(cond.Logical)
			if err != nil {
				return nil, err
			}
			q.Connectors = append(q.Connectors, logical)
		}
		q.Where(cond.Field, op, document.FromInterface(value))
	}

	if raw.OrderBy != "" {
		q.SortBy(raw.OrderBy, raw.OrderDesc)
	}
	if raw.Skip != nil {
		q.Skip = *raw.Skip
	}
	if raw.Limit != nil {
		q.Limit = *raw.Limit
	}

	return q, q.Validate()
}

// ParseUpdates parses a flat JSON object into update operations,
// ordered by field name for determinism.
func ParseUpdates(updatesJSON string) ([]query.UpdateOp, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(updatesJSON), &raw); err != nil {
		return nil, verrors.InvalidUpdate(err.Error())
	}

	fields := make([]string, 0, len(raw))
	for field := range raw {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	ops := make([]query.UpdateOp, 0, len(raw))
	for _, field := range fields {
		ops = append(ops, query.UpdateOp{Field: field, Value: document.FromInterface(raw[field])})
	}
	return ops, nil
}

// parseFieldMap parses a JSON object into a document field map.
func parseFieldMap(jsonData string) (map[string]document.Value, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(jsonData), &raw); err != nil {
		return nil, verrors.SerializationError(fmt.Sprintf("invalid JSON: %v", err))
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, verrors.SerializationError("expected a JSON object")
	}

	data := make(map[string]document.Value, len(obj))
	for k, v := range obj {
		data[k] = document.FromInterface(v)
	}
	return data, nil
}

func parseOperator(op string) (query.Operator, error) {
	switch op {
	case "==", "equals", "eq":
		return query.OpEquals, nil
	case "!=", "not_equals", "ne":
		return query.OpNotEquals, nil
	case ">", "greater_than", "gt":
		return query.OpGreaterThan, nil
	case ">=", "greater_than_or_equal", "gte":
		return query.OpGreaterOrEqual, nil
	case "<", "less_than", "lt":
		return query.OpLessThan, nil
	case "<=", "less_than_or_equal", "lte":
		return query.OpLessOrEqual, nil
	case "contains":
		return query.OpContains, nil
	case "starts_with":
		return query.OpStartsWith, nil
	case "ends_with":
		return query.OpEndsWith, nil
	case "in":
		return query.OpIn, nil
	case "not_in":
		return query.OpNotIn, nil
	default:
		return "", verrors.InvalidOperator(op)
	}
}

func parseLogical(op string) (query.Logical, error) {
	switch strings.ToLower(op) {
	case "", "and", "&&":
		return query.LogicalAnd, nil
	case "or", "||":
		return query.LogicalOr, nil
	default:
		return "", verrors.InvalidQuery(fmt.Sprintf("unknown logical operator %q", op))
	}
}

// toJSON converts a document to its wire representation.
func toJSON(doc *document.Document) documentJSON {
	data := make(map[string]interface{}, len(doc.Data))
	for k, v := range doc.Data {
		data[k] = v.Interface()
	}
	return documentJSON{
		ID:         doc.ID,
		Collection: doc.Collection,
		Data:       data,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

// marshalDocuments converts documents to a JSON array.
func marshalDocuments(docs []*document.Document) (string, error) {
	out := make([]documentJSON, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toJSON(doc))
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", verrors.SerializationError(err.Error())
	}
	return string(data), nil
}
