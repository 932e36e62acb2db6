package migration_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/metrics"
	"github.com/y0lz/backend-json/internal/service/migration"
	"github.com/y0lz/backend-json/internal/storage"
	"github.com/y0lz/backend-json/internal/storage/memstore"
	testlog "github.com/y0lz/backend-json/internal/testutil"
)

func newFacade(t *testing.T, local, relational storage.Backend) *storage.Facade {
	t.Helper()
	f, err := storage.New(storage.Backends{Local: local, Relational: relational}, storage.Options{})
	require.NoError(t, err)
	return f
}

func seedPeople(t *testing.T, s *memstore.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.Insert(context.Background(), storage.People, storage.Record{
			"id":                  fmt.Sprintf("user_%d", i),
			"external_contact_id": fmt.Sprintf("tg-%d", i),
			"role":                "passenger",
			"display_name":        fmt.Sprintf("Person %d", i),
		})
		require.NoError(t, err)
	}
}

func TestSyncAllPeople_ToleratesRejectedRecord(t *testing.T) {
	t.Parallel()

	local, remote := memstore.New(), memstore.New()
	seedPeople(t, local, 9)
	_, err := local.Insert(context.Background(), storage.People, storage.Record{
		"id": "user_bad", "external_contact_id": "tg-bad", "role": "pilot",
	})
	require.NoError(t, err)
	remote.Validate = func(_ storage.Collection, rec storage.Record) error {
		if rec["role"] == "pilot" {
			return errors.New(`role "pilot" violates check constraint`)
		}
		return nil
	}

	rec := testlog.New()
	records := metrics.NewSyncRecordsTotal()
	e := migration.NewEngine(newFacade(t, local, remote), rec.Logger(), records)

	sum, err := e.SyncAllPeople(context.Background(), domain.LocalToRemote)
	require.NoError(t, err)
	require.Equal(t, domain.SyncSummary{Attempted: 10, Succeeded: 9, Failed: 1}, sum)
	require.Equal(t, 9, remote.Len(storage.People))

	require.Equal(t, 9.0, testutil.ToFloat64(records.WithLabelValues(string(domain.LocalToRemote), "succeeded")))
	require.Equal(t, 1.0, testutil.ToFloat64(records.WithLabelValues(string(domain.LocalToRemote), "failed")))
	require.Len(t, rec.Events("people_synced"), 1)
	warn := rec.Level("warn")
	require.Len(t, warn, 1)
	id, _ := warn[0].Field("person_id")
	require.Equal(t, "user_bad", id)
}

func TestSyncAllPeople_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	local, remote := memstore.New(), memstore.New()
	seedPeople(t, remote, 3)
	e := migration.NewEngine(newFacade(t, local, remote), nil, nil)

	for i := 0; i < 2; i++ {
		sum, err := e.SyncAllPeople(ctx, domain.RemoteToLocal)
		require.NoError(t, err)
		require.Equal(t, domain.SyncSummary{Attempted: 3, Succeeded: 3}, sum)
	}
	require.Equal(t, 3, local.Len(storage.People))

	// a change on the source side overwrites the copy
	_, err := remote.Update(ctx, storage.People, "user_1", storage.Record{"display_name": "Renamed"})
	require.NoError(t, err)
	_, err = e.SyncAllPeople(ctx, domain.RemoteToLocal)
	require.NoError(t, err)
	got, err := local.Get(ctx, storage.People, "user_1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", got["display_name"])
}

func TestSyncAllPeople_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	local := memstore.New()
	f := newFacade(t, local, nil)
	e := migration.NewEngine(f, nil, nil)

	_, err := e.SyncAllPeople(ctx, "sideways")
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = e.SyncAllPeople(ctx, domain.LocalToRemote)
	require.ErrorIs(t, err, apperr.ErrBackendUnavailable)
}

func TestSyncAllPeople_StopsOnCancel(t *testing.T) {
	t.Parallel()

	local, remote := memstore.New(), memstore.New()
	seedPeople(t, local, 3)
	e := migration.NewEngine(newFacade(t, local, remote), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := e.SyncAllPeople(ctx, domain.LocalToRemote)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, sum.Attempted)
}
