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
Package errors provides structured error handling for NeuralVault.

The errors package implements a structured error system with:
  - Error categories (Query, Document, Storage, Lifecycle)
  - Error codes for programmatic handling
  - User-friendly error messages with optional hints
  - Error wrapping for root cause analysis

Error Categories:
  - QueryError: malformed queries, unknown operators, bad update ops
  - DocumentError: missing documents or collections
  - StorageError: I/O failures and record corruption
  - LifecycleError: use before initialization, startup path conflicts
*/
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique error identifier.
type ErrorCode int

const (
	// Query errors (1000-1999)
	ErrCodeInvalidQuery    ErrorCode = 1000
	ErrCodeInvalidOperator ErrorCode = 1001
	ErrCodeMalformedQuery  ErrorCode = 1002
	ErrCodeInvalidUpdate   ErrorCode = 1003

	// Document errors (2000-2999)
	ErrCodeDocumentNotFound   ErrorCode = 2000
	ErrCodeCollectionNotFound ErrorCode = 2001

	// Storage errors (5000-5999)
	ErrCodeStorage         ErrorCode = 5000
	ErrCodeCorruptedRecord ErrorCode = 5001
	ErrCodeIOError         ErrorCode = 5002
	ErrCodeSerialization   ErrorCode = 5003

	// Lifecycle errors (6000-6999)
	ErrCodeNotInitialized       ErrorCode = 6000
	ErrCodeAlreadyExists        ErrorCode = 6001
	ErrCodeInvalidConfiguration ErrorCode = 6002
)

// Category represents the error category.
type Category string

const (
	CategoryQuery     Category = "QUERY"
	CategoryDocument  Category = "DOCUMENT"
	CategoryStorage   Category = "STORAGE"
	CategoryLifecycle Category = "LIFECYCLE"
)

// VaultError represents a structured error in NeuralVault.
type VaultError struct {
	Code     ErrorCode
	Category Category
	Message  string
	Detail   string
	Hint     string
	Cause    error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ERROR %d (%s): %s - %s", e.Code, e.Category, e.Message, e.Detail)
	}
	return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.Category, e.Message)
}

// Unwrap returns the underlying cause.
func (e *VaultError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly error message.
func (e *VaultError) UserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Hint != "" {
		msg += fmt.Sprintf("\nHINT: %s", e.Hint)
	}
	return msg
}

// WithDetail adds detail to the error.
func (e *VaultError) WithDetail(detail string) *VaultError {
	e.Detail = detail
	return e
}

// WithHint adds a hint to the error.
func (e *VaultError) WithHint(hint string) *VaultError {
	e.Hint = hint
	return e
}

// WithCause adds a cause to the error.
func (e *VaultError) WithCause(cause error) *VaultError {
	e.Cause = cause
	return e
}

// ============================================================================
// Query Error Constructors
// ============================================================================

// InvalidQuery creates an error for a structurally invalid query.
func InvalidQuery(reason string) *VaultError {
	return &VaultError{
		Code:     ErrCodeInvalidQuery,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("invalid query: %s", reason),
	}
}

// InvalidOperator creates an error for an unknown comparison operator.
func InvalidOperator(op string) *VaultError {
	return &VaultError{
		Code:     ErrCodeInvalidOperator,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("invalid operator: %s", op),
		Hint:     "Supported operators: eq, ne, gt, gte, lt, lte, contains, starts_with, ends_with, in, not_in",
	}
}

// MalformedQuery creates an error for query text that failed to parse.
func MalformedQuery(detail string) *VaultError {
	return &VaultError{
		Code:     ErrCodeMalformedQuery,
		Category: CategoryQuery,
		Message:  "malformed query",
		Detail:   detail,
	}
}

// InvalidUpdate creates an error for a bad update operation.
func InvalidUpdate(reason string) *VaultError {
	return &VaultError{
		Code:     ErrCodeInvalidUpdate,
		Category: CategoryQuery,
		Message:  fmt.Sprintf("invalid update: %s", reason),
	}
}

// ============================================================================
// Document Error Constructors
// ============================================================================

// DocumentNotFound creates an error for a missing or deleted document.
func DocumentNotFound(id string) *VaultError {
	return &VaultError{
		Code:     ErrCodeDocumentNotFound,
		Category: CategoryDocument,
		Message:  fmt.Sprintf("document not found: %s", id),
	}
}

// CollectionNotFound creates an error for a missing collection.
func CollectionNotFound(name string) *VaultError {
	return &VaultError{
		Code:     ErrCodeCollectionNotFound,
		Category: CategoryDocument,
		Message:  fmt.Sprintf("collection not found: %s", name),
	}
}

// ============================================================================
// Storage Error Constructors
// ============================================================================

// NewStorageError creates a generic storage fault.
func NewStorageError(message string) *VaultError {
	return &VaultError{
		Code:     ErrCodeStorage,
		Category: CategoryStorage,
		Message:  message,
	}
}

// CorruptedRecord creates an error for a checksum mismatch.
func CorruptedRecord(detail string) *VaultError {
	return &VaultError{
		Code:     ErrCodeCorruptedRecord,
		Category: CategoryStorage,
		Message:  "record corruption detected",
		Detail:   detail,
		Hint:     "The data file may be damaged; restore from a backup",
	}
}

// IOFault creates an error for an underlying I/O failure.
func IOFault(op string, cause error) *VaultError {
	return &VaultError{
		Code:     ErrCodeIOError,
		Category: CategoryStorage,
		Message:  fmt.Sprintf("I/O failure during %s", op),
		Cause:    cause,
	}
}

// SerializationError creates an error for encode/decode failures.
func SerializationError(detail string) *VaultError {
	return &VaultError{
		Code:     ErrCodeSerialization,
		Category: CategoryStorage,
		Message:  "serialization failed",
		Detail:   detail,
	}
}

// ============================================================================
// Lifecycle Error Constructors
// ============================================================================

// NotInitialized creates an error for use before initialization.
func NotInitialized() *VaultError {
	return &VaultError{
		Code:     ErrCodeNotInitialized,
		Category: CategoryLifecycle,
		Message:  "database not initialized",
		Hint:     "Open the vault before issuing operations",
	}
}

// AlreadyExists creates an error for a startup path conflict.
func AlreadyExists(path string) *VaultError {
	return &VaultError{
		Code:     ErrCodeAlreadyExists,
		Category: CategoryLifecycle,
		Message:  fmt.Sprintf("database already exists at path: %s", path),
	}
}

// InvalidConfiguration creates an error for a bad configuration value.
func InvalidConfiguration(reason string) *VaultError {
	return &VaultError{
		Code:     ErrCodeInvalidConfiguration,
		Category: CategoryLifecycle,
		Message:  fmt.Sprintf("invalid configuration: %s", reason),
	}
}

// ============================================================================
// Classification Helpers
// ============================================================================

// CodeOf returns the error code carried by err, or 0 if err is not a
// VaultError.
func CodeOf(err error) ErrorCode {
	var ve *VaultError
	if stderrors.As(err, &ve) {
		return ve.Code
	}
	return 0
}

// IsNotFound reports whether err is a document or collection miss.
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeDocumentNotFound || code == ErrCodeCollectionNotFound
}

// IsInvalidQuery reports whether err is any query-category error.
func IsInvalidQuery(err error) bool {
	var ve *VaultError
	return stderrors.As(err, &ve) && ve.Category == CategoryQuery
}

// IsStorageFault reports whether err is any storage-category error.
func IsStorageFault(err error) bool {
	var ve *VaultError
	return stderrors.As(err, &ve) && ve.Category == CategoryStorage
}

// IsNotInitialized reports whether err is the not-initialized error.
func IsNotInitialized(err error) bool {
	return CodeOf(err) == ErrCodeNotInitialized
}

// IsAlreadyExists reports whether err is the already-exists error.
func IsAlreadyExists(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyExists
}
