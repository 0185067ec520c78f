package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/log_messages"
	"github.com/Nevi32/wofuo1/internal/pkg/logger"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/service/interfaces"

	"go.uber.org/zap"
)

// Store is the local ledger: one serialized snapshot persisted through a
// blob store. It is constructed once per process and handed to every ledger
// service and the sync engine.
type Store struct {
	blobs          interfaces.SnapshotBlobStore
	source         string
	recoverCorrupt bool

	// mu serializes writers inside this process; the blob store's Update
	// guards against other processes sharing the same key.
	mu sync.Mutex
}

type Option func(*Store)

// WithRecoverCorrupt controls whether an undecodable blob is replaced by an
// empty snapshot (true) or surfaced as StorageCorruptError (false).
func WithRecoverCorrupt(enabled bool) Option {
	return func(s *Store) { s.recoverCorrupt = enabled }
}

// WithSource names the blob in logs and errors.
func WithSource(source string) Option {
	return func(s *Store) { s.source = source }
}

func NewStore(blobs interfaces.SnapshotBlobStore, opts ...Option) *Store {
	s := &Store{
		blobs:          blobs,
		source:         consts.DefaultSnapshotKey,
		recoverCorrupt: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// decode turns stored bytes into a snapshot. Absent bytes decode to an empty
// snapshot; corrupt bytes follow the recovery policy.
func (s *Store) decode(ctx context.Context, data []byte) (*models.Snapshot, error) {
	if data == nil {
		return models.NewSnapshot(), nil
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		if !s.recoverCorrupt {
			return nil, error_handling.NewStorageCorruptError(s.source, err)
		}
		logger.CtxWarn(ctx, log_messages.LocalStoreCorruptRecovered,
			zap.String("source", s.source),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return models.NewSnapshot(), nil
	}
	snap.Normalize()
	return &snap, nil
}

func encode(snap *models.Snapshot) ([]byte, error) {
	snap.Normalize()
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return data, nil
}

// hasAllCollections reports whether the stored JSON already carries every
// collection key, in which case Init leaves the bytes untouched.
func hasAllCollections(data []byte) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return false
	}
	for _, name := range consts.AllCollections {
		v, ok := raw[name]
		if !ok || string(v) == "null" {
			return false
		}
	}
	return true
}

// Init makes sure the snapshot exists with all collections present. It is
// safe to call before every operation: existing data is never reset.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.blobs.Update(ctx, func(current []byte) ([]byte, error) {
		if current != nil && hasAllCollections(current) {
			return current, nil
		}
		snap, err := s.decode(ctx, current)
		if err != nil {
			return nil, err
		}
		if current == nil {
			logger.CtxInfo(ctx, log_messages.LocalStoreInitialized, zap.String("source", s.source))
		}
		return encode(snap)
	})
}

// Load returns the current snapshot. A missing blob yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (*models.Snapshot, error) {
	data, err := s.blobs.Load(ctx)
	if errors.Is(err, interfaces.ErrBlobNotFound) {
		return models.NewSnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	return s.decode(ctx, data)
}

// Save persists a snapshot previously obtained from Load. It fails with
// StaleSnapshotError when another writer saved in between; on success the
// snapshot's version is advanced to the stored one.
func (s *Store) Save(ctx context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int64
	err := s.blobs.Update(ctx, func(current []byte) ([]byte, error) {
		stored, err := s.decode(ctx, current)
		if err != nil {
			return nil, err
		}
		if stored.Version != snap.Version {
			return nil, error_handling.NewStaleSnapshotError(snap.Version, stored.Version)
		}
		out := snap.Clone()
		out.Version = stored.Version + 1
		next = out.Version
		return encode(out)
	})
	if err != nil {
		return err
	}
	snap.Version = next
	return nil
}

// Mutate loads the snapshot, applies fn and saves the result as one atomic
// step. When fn fails nothing is persisted and its error is returned as is.
func (s *Store) Mutate(ctx context.Context, fn func(snap *models.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.blobs.Update(ctx, func(current []byte) ([]byte, error) {
		snap, err := s.decode(ctx, current)
		if err != nil {
			return nil, err
		}
		version := snap.Version
		if err := fn(snap); err != nil {
			return nil, err
		}
		snap.Version = version + 1
		return encode(snap)
	})
}

// Reset overwrites the whole snapshot, keeping the version stamp moving forward.
func (s *Store) Reset(ctx context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.blobs.Update(ctx, func(current []byte) ([]byte, error) {
		var version int64
		if stored, err := s.decode(ctx, current); err == nil {
			version = stored.Version
		}
		out := snap.Clone()
		out.Version = version + 1
		return encode(out)
	})
}

// Clear deletes the stored blob and re-seeds the empty collections. The
// version stamp keeps moving forward so snapshots loaded before the clear
// are rejected by Save.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var version int64
	current, err := s.blobs.Load(ctx)
	switch {
	case errors.Is(err, interfaces.ErrBlobNotFound):
	case err != nil:
		return err
	default:
		if stored, err := s.decode(ctx, current); err == nil {
			version = stored.Version
		}
	}

	if err := s.blobs.Clear(ctx); err != nil {
		return err
	}
	seed := models.NewSnapshot()
	seed.Version = version + 1
	data, err := encode(seed)
	if err != nil {
		return err
	}
	if err := s.blobs.Store(ctx, data); err != nil {
		return err
	}
	logger.CtxWarn(ctx, log_messages.LocalStoreCleared, zap.String("source", s.source))
	return nil
}

// Size returns the number of bytes of the persisted snapshot.
func (s *Store) Size(ctx context.Context) (int, error) {
	data, err := s.blobs.Load(ctx)
	if errors.Is(err, interfaces.ErrBlobNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// AddItem appends item to the collection and persists the snapshot.
func AddItem[T models.Record](ctx context.Context, s *Store, c Collection[T], item T) error {
	return s.Mutate(ctx, func(snap *models.Snapshot) error {
		c.Append(snap, item)
		return nil
	})
}

// UpdateItem replaces the record sharing item's identity, or fails with NotFoundError.
func UpdateItem[T models.Record](ctx context.Context, s *Store, c Collection[T], item T) error {
	return s.Mutate(ctx, func(snap *models.Snapshot) error {
		return c.Replace(snap, item)
	})
}

// DeleteItem removes the record with the given identity, or fails with NotFoundError.
func DeleteItem[T models.Record](ctx context.Context, s *Store, c Collection[T], id string) error {
	return s.Mutate(ctx, func(snap *models.Snapshot) error {
		return c.Remove(snap, id)
	})
}

// ListItems returns the collection's records in insertion order.
func ListItems[T models.Record](ctx context.Context, s *Store, c Collection[T]) ([]T, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.List(snap), nil
}
