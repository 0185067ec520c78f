package error_handling

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", NewNotFoundError("members", "123"), "not found: collection=members, id=123"},
		{"auth required", NewAuthenticationRequiredError("push"), "authentication required: op=push"},
		{"auth required no op", NewAuthenticationRequiredError(""), "authentication required"},
		{"unauthorized", NewUnauthorizedError("a@b.c", "pushSnapshot"), "unauthorized: identity=a@b.c, op=pushSnapshot"},
		{"remote", NewRemoteUnavailableError("query", errors.New("timeout")), "remote unavailable: op=query, err:timeout"},
		{"validation", NewValidationError("amount", "must be greater than zero"), "validation failed: field=amount, reason=must be greater than zero"},
		{"corrupt", NewStorageCorruptError("WofuoDB", errors.New("bad json")), "storage corrupt: source=WofuoDB, err:bad json"},
		{"stale", NewStaleSnapshotError(3, 4), "stale snapshot: expected version=3, stored version=4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("saving: %w", NewNotFoundError("loans", "1"))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))

	inner := errors.New("dial tcp: refused")
	remote := NewRemoteUnavailableError("insert", inner)
	assert.True(t, IsRemoteUnavailable(fmt.Errorf("sync: %w", remote)))
	assert.ErrorIs(t, remote, inner)

	corrupt := NewStorageCorruptError("artifact", inner)
	assert.True(t, IsStorageCorrupt(corrupt))
	assert.ErrorIs(t, corrupt, inner)

	assert.True(t, IsAuthenticationRequired(NewAuthenticationRequiredError("pull")))
	assert.True(t, IsUnauthorized(NewUnauthorizedError("x", "y")))
	assert.True(t, IsStaleSnapshot(NewStaleSnapshotError(1, 2)))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NewNotFoundError("a", "b")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(NewAuthenticationRequiredError("")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(NewUnauthorizedError("a", "b")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(NewRemoteUnavailableError("a", nil)))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewValidationError("a", "b")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(NewStaleSnapshotError(1, 2)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(NewStorageCorruptError("a", nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
