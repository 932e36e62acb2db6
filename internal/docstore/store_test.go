package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/storage"
	testlog "github.com/y0lz/backend-json/internal/testutil"
)

type counterStub struct {
	mu sync.Mutex
	n  int
}

func (c *counterStub) Inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

type failingLock struct{}

func (failingLock) TryLockContext(context.Context, time.Duration) (bool, error) {
	return false, errors.New("lock busy")
}
func (failingLock) Unlock() error { return nil }

func newStore(t *testing.T) (*Store, *testlog.Recorder, *counterStub) {
	t.Helper()
	rec := testlog.New()
	ctr := &counterStub{}
	s, err := New(Config{Dir: t.TempDir(), LockTimeout: 200 * time.Millisecond, LockRetry: 5 * time.Millisecond}, rec.Logger(), ctr)
	require.NoError(t, err)
	return s, rec, ctr
}

func TestStore_MissingCollectionIsEmpty(t *testing.T) {
	t.Parallel()

	s, _, _ := newStore(t)
	recs, err := s.List(context.Background(), storage.Shifts, nil)
	require.NoError(t, err)
	require.NotNil(t, recs)
	require.Empty(t, recs)

	settings, err := s.LoadSettings(context.Background())
	require.NoError(t, err)
	require.Empty(t, settings)
}

func TestStore_CRUD(t *testing.T) {
	t.Parallel()

	s, rec, ctr := newStore(t)
	ctx := context.Background()

	saved, err := s.Insert(ctx, storage.People, storage.Record{"external_contact_id": "tg-1", "role": "courier"}, "external_contact_id")
	require.NoError(t, err)
	id := storage.IDOf(saved)
	require.NotEmpty(t, id)

	_, err = s.Insert(ctx, storage.People, storage.Record{"external_contact_id": "tg-1"}, "external_contact_id")
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)

	got, err := s.Get(ctx, storage.People, id)
	require.NoError(t, err)
	require.Equal(t, "courier", got["role"])

	_, err = s.Update(ctx, storage.People, id, storage.Record{"role": "admin"})
	require.NoError(t, err)

	list, err := s.List(ctx, storage.People, storage.Where("role", "admin"))
	require.NoError(t, err)
	require.Len(t, list, 1)

	raw, err := os.ReadFile(filepath.Join(s.Dir(), "people.json"))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"external_contact_id": "tg-1"`)

	require.NoError(t, s.Delete(ctx, storage.People, id))
	_, err = s.Get(ctx, storage.People, id)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, storage.People, id), apperr.ErrNotFound)

	require.Zero(t, ctr.n)
	require.Empty(t, rec.Entries())
}

func TestStore_DeleteWhere(t *testing.T) {
	t.Parallel()

	s, _, _ := newStore(t)
	ctx := context.Background()
	for _, d := range []string{"2024-01-01", "2024-01-01", "2024-01-02"} {
		_, err := s.Insert(ctx, storage.Shifts, storage.Record{"date": d})
		require.NoError(t, err)
	}

	n, err := s.DeleteWhere(ctx, storage.Shifts, storage.Where("date", "2024-01-01"))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = s.DeleteWhere(ctx, storage.Shifts, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestStore_LockFailureStillWrites(t *testing.T) {
	t.Parallel()

	s, rec, ctr := newStore(t)
	s.newLock = func(string) locker { return failingLock{} }

	_, err := s.Insert(context.Background(), storage.Shifts, storage.Record{"person_id": "p1"})
	require.NoError(t, err)

	recs, err := s.List(context.Background(), storage.Shifts, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	require.Equal(t, 1, ctr.n)
	entries := rec.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "warn", entries[0].Level)
	require.Contains(t, entries[0].Fields, logx.Event("degraded_durability"))
}

func TestStore_HeldLockTimesOutAndDegrades(t *testing.T) {
	t.Parallel()

	s, _, ctr := newStore(t)
	held := flock.New(s.path(storage.People) + ".lock")
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(func() { _ = held.Unlock() })

	_, err = s.Insert(context.Background(), storage.People, storage.Record{"external_contact_id": "tg"})
	require.NoError(t, err)
	require.Equal(t, 1, ctr.n)
}

func TestStore_CancelledContextFailsInsteadOfDegrading(t *testing.T) {
	t.Parallel()

	s, _, ctr := newStore(t)
	s.newLock = func(string) locker { return failingLock{} }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Insert(ctx, storage.Shifts, storage.Record{})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, ctr.n)
}

func TestStore_ConcurrentWritersSerialised(t *testing.T) {
	t.Parallel()

	s, _, ctr := newStore(t)
	s.lockTimeout = 10 * time.Second
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Insert(ctx, storage.Assignments, storage.Record{"status": "assigned"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	recs, err := s.List(ctx, storage.Assignments, nil)
	require.NoError(t, err)
	require.Len(t, recs, writers)
	require.Zero(t, ctr.n)
}

func TestStore_EncodeError(t *testing.T) {
	s, _, _ := newStore(t)
	old := jsonMarshal
	jsonMarshal = func(any) ([]byte, error) { return nil, errors.New("boom") }
	t.Cleanup(func() { jsonMarshal = old })

	_, err := s.Insert(context.Background(), storage.Branches, storage.Record{"name": "x"})
	require.Error(t, err)
}

func TestStore_SettingsAndBackup(t *testing.T) {
	t.Parallel()

	s, _, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSettings(ctx, storage.Record{"reset_hour": float64(3)}))
	got, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, float64(3), got["reset_hour"])

	_, err = s.Insert(ctx, storage.People, storage.Record{"external_contact_id": "tg"})
	require.NoError(t, err)

	dir, err := s.Backup(ctx, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(s.Dir(), "backups", "20240102-030405"), dir)
	require.FileExists(t, filepath.Join(dir, "people.json"))
	require.FileExists(t, filepath.Join(dir, "settings.json"))
	require.NoFileExists(t, filepath.Join(dir, "shifts.json"))
}

func TestStore_Ready(t *testing.T) {
	t.Parallel()

	s, _, _ := newStore(t)
	require.NoError(t, s.Ready(context.Background()))
	require.Equal(t, storage.KindLocal, s.Kind())
}

func TestNew_RequiresDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil, nil)
	require.ErrorIs(t, err, apperr.ErrInvalid)
}
