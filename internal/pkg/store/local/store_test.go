package local

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Nevi32/wofuo1/internal/pkg/consts"
	"github.com/Nevi32/wofuo1/internal/pkg/error_handling"
	"github.com/Nevi32/wofuo1/internal/pkg/store/models"
	"github.com/Nevi32/wofuo1/internal/pkg/store/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(repository.NewRedisBlobRepository(client, consts.DefaultSnapshotKey), opts...), mr
}

func TestInit_CreatesAllCollections(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Init(context.Background()))

	raw, err := mr.Get(consts.DefaultSnapshotKey)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	for _, name := range consts.AllCollections {
		assert.Equal(t, "[]", string(doc[name]), "collection %s", name)
	}
}

func TestInit_IsIdempotent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, AddItem(ctx, store, Members, models.Member{FullName: "JANE", NationalID: "1", GroupName: "A"}))

	before, err := mr.Get(consts.DefaultSnapshotKey)
	require.NoError(t, err)
	require.NoError(t, store.Init(ctx))
	after, err := mr.Get(consts.DefaultSnapshotKey)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestInit_FillsMissingCollections(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set(consts.DefaultSnapshotKey, `{"members":[{"fullName":"JANE","nationalId":"1","groupName":"A"}]}`))

	require.NoError(t, store.Init(context.Background()))
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Members, 1)
	assert.NotNil(t, snap.Visits)
	assert.Empty(t, snap.Visits)
}

func TestLoad_MissingBlobIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Members)
	assert.Equal(t, int64(0), snap.Version)
}

func TestLoad_CorruptBlob(t *testing.T) {
	t.Run("recovers to empty by default", func(t *testing.T) {
		store, mr := newTestStore(t)
		require.NoError(t, mr.Set(consts.DefaultSnapshotKey, "{not json"))

		snap, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, snap.Members)

		require.NoError(t, store.Init(context.Background()))
		raw, _ := mr.Get(consts.DefaultSnapshotKey)
		assert.True(t, json.Valid([]byte(raw)))
	})

	t.Run("surfaces StorageCorruptError when recovery is off", func(t *testing.T) {
		store, mr := newTestStore(t, WithRecoverCorrupt(false))
		require.NoError(t, mr.Set(consts.DefaultSnapshotKey, "{not json"))

		_, err := store.Load(context.Background())
		assert.True(t, error_handling.IsStorageCorrupt(err))
		assert.True(t, error_handling.IsStorageCorrupt(store.Init(context.Background())))
	})
}

func TestSave_OptimisticVersion(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	first, err := store.Load(ctx)
	require.NoError(t, err)
	second, err := store.Load(ctx)
	require.NoError(t, err)

	first.Members = append(first.Members, models.Member{FullName: "A", NationalID: "1"})
	require.NoError(t, store.Save(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	second.Members = append(second.Members, models.Member{FullName: "B", NationalID: "2"})
	err = store.Save(ctx, second)
	var stale *error_handling.StaleSnapshotError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, int64(0), stale.Expected)
	assert.Equal(t, int64(1), stale.Actual)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 1)
	assert.Equal(t, "A", loaded.Members[0].FullName)
}

func TestMutate_NothingPersistedOnError(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	before, _ := mr.Get(consts.DefaultSnapshotKey)

	boom := errors.New("validation failed midway")
	err := store.Mutate(ctx, func(snap *models.Snapshot) error {
		snap.Members = append(snap.Members, models.Member{NationalID: "1"})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	after, _ := mr.Get(consts.DefaultSnapshotKey)
	assert.Equal(t, before, after)
}

func TestMutate_BumpsVersion(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Mutate(ctx, func(*models.Snapshot) error { return nil }))
	require.NoError(t, store.Mutate(ctx, func(*models.Snapshot) error { return nil }))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
}

func TestResetAndClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	replacement := models.NewSnapshot()
	replacement.Users = []models.User{{Email: "hq@wofuo.org"}}
	require.NoError(t, store.Reset(ctx, replacement))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Users, 1)
	v := snap.Version

	stale := snap.Clone()
	require.NoError(t, store.Clear(ctx))
	snap, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Users)
	assert.NotNil(t, snap.Members)
	assert.Greater(t, snap.Version, v)

	err = store.Save(ctx, stale)
	assert.True(t, error_handling.IsStaleSnapshot(err), "snapshots loaded before the clear are rejected")
}

func TestClear_MissingBlob(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Clear(ctx))
	assert.True(t, mr.Exists(consts.DefaultSnapshotKey))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
}

func TestSize(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	require.NoError(t, store.Init(ctx))
	raw, _ := mr.Get(consts.DefaultSnapshotKey)
	size, err = store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(raw), size)
}

func TestGenericItemHelpers(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	loan := models.Loan{ID: 10, Type: consts.LoanKindGroup, GroupName: "A", Amount: 100}
	require.NoError(t, AddItem(ctx, store, GroupLoans, loan))

	loan.Amount = 250
	require.NoError(t, UpdateItem(ctx, store, GroupLoans, loan))

	loans, err := ListItems(ctx, store, GroupLoans)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, 250.0, loans[0].Amount)

	err = UpdateItem(ctx, store, GroupLoans, models.Loan{ID: 99})
	assert.True(t, error_handling.IsNotFound(err))
	err = DeleteItem(ctx, store, LongTermLoans, "10")
	assert.True(t, error_handling.IsNotFound(err))

	require.NoError(t, DeleteItem(ctx, store, GroupLoans, "10"))
	loans, err = ListItems(ctx, store, GroupLoans)
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestStore_WithSQLiteBackend(t *testing.T) {
	db, err := repository.OpenSQLite(t.TempDir() + "/ledger.db")
	require.NoError(t, err)
	blobs, err := repository.NewSQLiteBlobRepository(db, consts.DefaultSnapshotKey)
	require.NoError(t, err)
	t.Cleanup(func() { _ = blobs.Close() })

	store := NewStore(blobs)
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, AddItem(ctx, store, Users, models.User{Email: "a@b.c"}))

	users, err := ListItems(ctx, store, Users)
	require.NoError(t, err)
	assert.Equal(t, []models.User{{Email: "a@b.c"}}, users)
}
