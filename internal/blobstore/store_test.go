package blobstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/blobstore"
	"github.com/y0lz/backend-json/internal/blobstore/s3"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/storage"
	testlog "github.com/y0lz/backend-json/internal/testutil"
)

func newStore(t *testing.T, prefix string) (*blobstore.Store, *s3.Client, *s3.Mock) {
	t.Helper()
	c, m := s3.NewMock()
	return blobstore.New(c, blobstore.Config{Prefix: prefix}, logx.Nop()), c, m
}

func TestStore_MissingCollectionIsEmpty(t *testing.T) {
	t.Parallel()

	s, _, _ := newStore(t, "")
	recs, err := s.List(context.Background(), storage.Shifts, nil)
	require.NoError(t, err)
	require.Empty(t, recs)

	settings, err := s.LoadSettings(context.Background())
	require.NoError(t, err)
	require.Equal(t, storage.Record{}, settings)
}

func TestStore_CRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, m := newStore(t, "dispatch/")

	saved, err := s.Insert(ctx, storage.Shifts, storage.Record{"person_id": "p1", "date": "2024-01-01"}, "person_id", "date")
	require.NoError(t, err)
	id := storage.IDOf(saved)
	require.NotEmpty(t, id)

	_, err = s.Insert(ctx, storage.Shifts, storage.Record{"person_id": "p1", "date": "2024-01-01"}, "person_id", "date")
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)

	upd, err := s.Update(ctx, storage.Shifts, id, storage.Record{"is_working": false})
	require.NoError(t, err)
	require.Equal(t, false, upd["is_working"])

	got, err := s.Get(ctx, storage.Shifts, id)
	require.NoError(t, err)
	require.Equal(t, "p1", got["person_id"])

	_, ok := m.Body("dispatch/shifts.json")
	require.True(t, ok, "collection stored under prefixed key")

	require.NoError(t, s.Delete(ctx, storage.Shifts, id))
	require.ErrorIs(t, s.Delete(ctx, storage.Shifts, id), apperr.ErrNotFound)
	_, err = s.Get(ctx, storage.Shifts, id)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_DeleteWhere(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, _ := newStore(t, "")
	for _, p := range []string{"a", "b", "a"} {
		_, err := s.Insert(ctx, storage.Assignments, storage.Record{"courier_id": p})
		require.NoError(t, err)
	}

	n, err := s.DeleteWhere(ctx, storage.Assignments, storage.Where("courier_id", "a"))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	rest, err := s.List(ctx, storage.Assignments, nil)
	require.NoError(t, err)
	require.Len(t, rest, 1)
}

func TestStore_ReadsAreCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, m := newStore(t, "")
	_, err := s.Insert(ctx, storage.Branches, storage.Record{"name": "North"})
	require.NoError(t, err)

	// another process rewrites the object; the cached copy keeps serving reads
	m.Put("branches.json", []byte(`[]`))
	recs, err := s.List(ctx, storage.Branches, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	s.Invalidate()
	recs, err = s.List(ctx, storage.Branches, nil)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestStore_ConcurrentWriterInAnotherProcess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := testlog.New()
	c, _ := s3.NewMock()
	a := blobstore.New(c, blobstore.Config{}, logx.Nop())
	b := blobstore.New(c, blobstore.Config{}, rec.Logger())

	_, err := a.Insert(ctx, storage.Assignments, storage.Record{"courier_id": "c1"})
	require.NoError(t, err)

	// b caches the current version, then a moves it on
	_, err = b.List(ctx, storage.Assignments, nil)
	require.NoError(t, err)
	_, err = a.Insert(ctx, storage.Assignments, storage.Record{"courier_id": "c2"})
	require.NoError(t, err)

	_, err = b.Insert(ctx, storage.Assignments, storage.Record{"courier_id": "c3"})
	require.ErrorIs(t, err, apperr.ErrConcurrentModification)
	require.Len(t, rec.Events("blob_conflict"), 1)

	// the failed write dropped the cache, so a retry sees a's change
	_, err = b.Insert(ctx, storage.Assignments, storage.Record{"courier_id": "c3"})
	require.NoError(t, err)

	all, err := a.List(ctx, storage.Assignments, nil)
	require.NoError(t, err)
	require.Len(t, all, 2, "a still serves its own cached copy")

	a.Invalidate()
	all, err = a.List(ctx, storage.Assignments, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestStore_WritersInProcessAreSerialised(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, _ := newStore(t, "")

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Insert(ctx, storage.Shifts, storage.Record{"person_id": storage.NewID()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	recs, err := s.List(ctx, storage.Shifts, nil)
	require.NoError(t, err)
	require.Len(t, recs, writers)
}

func TestStore_Settings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, _ := newStore(t, "")
	require.NoError(t, s.SaveSettings(ctx, storage.Record{"notify": true}))
	require.NoError(t, s.SaveSettings(ctx, storage.Record{"notify": false}))

	got, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, false, got["notify"])
}

func TestStore_Unreachable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _, m := newStore(t, "")
	require.NoError(t, s.Ready(ctx))

	m.Down = true
	require.ErrorIs(t, s.Ready(ctx), apperr.ErrConnectionUnavailable)
	_, err := s.List(ctx, storage.People, nil)
	require.ErrorIs(t, err, apperr.ErrConnectionUnavailable)
}

func TestStore_CacheTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, m := s3.NewMock()
	s := blobstore.New(c, blobstore.Config{CacheTTL: 20 * time.Millisecond}, nil)

	_, err := s.List(ctx, storage.Branches, nil)
	require.NoError(t, err)
	m.Put("branches.json", []byte(`[{"id":"b1","name":"North"}]`))

	require.Eventually(t, func() bool {
		recs, err := s.List(ctx, storage.Branches, nil)
		return err == nil && len(recs) == 1
	}, time.Second, 10*time.Millisecond)
}
