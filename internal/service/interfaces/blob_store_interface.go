package interfaces

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned by Load when no snapshot has been persisted yet.
var ErrBlobNotFound = errors.New("ledger blob not found")

// SnapshotBlobStore persists the serialized ledger snapshot under one key.
// Update runs fn against the current bytes (nil when absent) and stores the
// result atomically; when fn returns an error nothing is written.
type SnapshotBlobStore interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, data []byte) error
	Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error
	Clear(ctx context.Context) error
}
