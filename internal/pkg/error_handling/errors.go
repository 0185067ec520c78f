package error_handling

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError is returned when an update or delete targets a record id that
// does not exist in the collection.
type NotFoundError struct {
	Collection string
	ID         string
}

func NewNotFoundError(collection, id string) *NotFoundError {
	return &NotFoundError{Collection: collection, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: collection=%s, id=%s", e.Collection, e.ID)
}

// AuthenticationRequiredError is returned by remote operations invoked
// without a signed-in identity.
type AuthenticationRequiredError struct {
	Op string
}

func NewAuthenticationRequiredError(op string) *AuthenticationRequiredError {
	return &AuthenticationRequiredError{Op: op}
}

func (e *AuthenticationRequiredError) Error() string {
	if e.Op == "" {
		return "authentication required"
	}
	return fmt.Sprintf("authentication required: op=%s", e.Op)
}

// UnauthorizedError is returned when an identity is signed in but lacks the
// privilege for the operation.
type UnauthorizedError struct {
	Identity string
	Op       string
}

func NewUnauthorizedError(identity, op string) *UnauthorizedError {
	return &UnauthorizedError{Identity: identity, Op: op}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: identity=%s, op=%s", e.Identity, e.Op)
}

// RemoteUnavailableError wraps transport failures of the remote document
// store or the artifact store.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func NewRemoteUnavailableError(op string, err error) *RemoteUnavailableError {
	return &RemoteUnavailableError{Op: op, Err: err}
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable: op=%s, err:%v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// ValidationError is returned for malformed input such as a non-positive
// amount or an unknown loan kind.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field=%s, reason=%s", e.Field, e.Reason)
}

// StorageCorruptError is returned when a persisted snapshot or downloaded
// artifact cannot be decoded.
type StorageCorruptError struct {
	Source string
	Err    error
}

func NewStorageCorruptError(source string, err error) *StorageCorruptError {
	return &StorageCorruptError{Source: source, Err: err}
}

func (e *StorageCorruptError) Error() string {
	return fmt.Sprintf("storage corrupt: source=%s, err:%v", e.Source, e.Err)
}

func (e *StorageCorruptError) Unwrap() error { return e.Err }

// StaleSnapshotError is returned when a save is attempted against a snapshot
// whose version no longer matches the stored one.
type StaleSnapshotError struct {
	Expected int64
	Actual   int64
}

func NewStaleSnapshotError(expected, actual int64) *StaleSnapshotError {
	return &StaleSnapshotError{Expected: expected, Actual: actual}
}

func (e *StaleSnapshotError) Error() string {
	return fmt.Sprintf("stale snapshot: expected version=%d, stored version=%d", e.Expected, e.Actual)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsAuthenticationRequired(err error) bool {
	var target *AuthenticationRequiredError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

func IsRemoteUnavailable(err error) bool {
	var target *RemoteUnavailableError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsStorageCorrupt(err error) bool {
	var target *StorageCorruptError
	return errors.As(err, &target)
}

func IsStaleSnapshot(err error) bool {
	var target *StaleSnapshotError
	return errors.As(err, &target)
}

// HTTPStatus maps a domain error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAuthenticationRequired(err):
		return http.StatusUnauthorized
	case IsUnauthorized(err):
		return http.StatusForbidden
	case IsRemoteUnavailable(err):
		return http.StatusServiceUnavailable
	case IsValidation(err):
		return http.StatusBadRequest
	case IsStaleSnapshot(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
