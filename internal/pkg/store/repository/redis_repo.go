package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nevi32/wofuo1/internal/service/interfaces"

	"github.com/redis/go-redis/v9"
)

// maxWatchRetries bounds optimistic retries when another writer touches the
// snapshot key between WATCH and EXEC.
const maxWatchRetries = 10

// RedisBlobRepository keeps the serialized ledger snapshot in a single Redis key.
type RedisBlobRepository struct {
	client *redis.Client
	key    string
}

func NewRedisBlobRepository(client *redis.Client, key string) *RedisBlobRepository {
	return &RedisBlobRepository{client: client, key: key}
}

func (r *RedisBlobRepository) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, interfaces.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot key %s: %w", r.key, err)
	}
	return data, nil
}

func (r *RedisBlobRepository) Store(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot key %s: %w", r.key, err)
	}
	return nil
}

// Update performs a WATCH/MULTI/EXEC read-modify-write on the snapshot key.
func (r *RedisBlobRepository) Update(ctx context.Context, fn func(current []byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, r.key).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return fmt.Errorf("failed to read snapshot key %s: %w", r.key, err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := r.client.Watch(ctx, txf, r.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("snapshot key %s: %w", r.key, redis.TxFailedErr)
}

func (r *RedisBlobRepository) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot key %s: %w", r.key, err)
	}
	return nil
}
