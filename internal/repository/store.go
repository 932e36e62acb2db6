package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/storage"
)

// Store is the relational storage driver. Every call is a single statement;
// nothing spans entity types in a transaction.
type Store struct{ db *pgxpool.Pool }

// NewStore creates a new Store.
func NewStore(db *pgxpool.Pool) *Store { return &Store{db: db} }

// Kind implements storage.Backend.
func (s *Store) Kind() storage.Kind { return storage.KindRelational }

// Ready pings the database.
func (s *Store) Ready(ctx context.Context) error {
	if s.db == nil {
		return apperr.ErrBackendUnavailable
	}
	return MapError(s.db.Ping(ctx))
}

// List implements storage.Backend.
func (s *Store) List(ctx context.Context, coll storage.Collection, f storage.Filter) ([]storage.Record, error) {
	t, err := tableFor(coll)
	if err != nil {
		return nil, err
	}
	where, args, err := t.where(f, 1)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at, id", t.selectList(), t.name, where)
	return s.query(ctx, q, args...)
}

// Get implements storage.Backend.
func (s *Store) Get(ctx context.Context, coll storage.Collection, id string) (storage.Record, error) {
	t, err := tableFor(coll)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", t.selectList(), t.name)
	return s.queryOne(ctx, q, id)
}

// Insert implements storage.Backend. Uniqueness is enforced by table constraints,
// so uniqueBy is only informational here.
func (s *Store) Insert(ctx context.Context, coll storage.Collection, rec storage.Record, _ ...string) (storage.Record, error) {
	t, err := tableFor(coll)
	if err != nil {
		return nil, err
	}
	cs, args, err := t.assignments(rec)
	if err != nil {
		return nil, err
	}
	return s.queryOne(ctx, t.insertSQL(cs), args...)
}

// Update implements storage.Backend.
func (s *Store) Update(ctx context.Context, coll storage.Collection, id string, patch storage.Record) (storage.Record, error) {
	t, err := tableFor(coll)
	if err != nil {
		return nil, err
	}
	body := storage.CloneRecord(patch)
	delete(body, storage.AttrID)
	cs, args, err := t.assignments(body)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return s.Get(ctx, coll, id)
	}
	return s.queryOne(ctx, t.updateSQL(cs), append([]any{id}, args...)...)
}

// Delete implements storage.Backend.
func (s *Store) Delete(ctx context.Context, coll storage.Collection, id string) error {
	t, err := tableFor(coll)
	if err != nil {
		return err
	}
	ct, err := s.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.name), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.name, id, MapError(err))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", t.name, id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteWhere implements storage.Backend.
func (s *Store) DeleteWhere(ctx context.Context, coll storage.Collection, f storage.Filter) (int, error) {
	t, err := tableFor(coll)
	if err != nil {
		return 0, err
	}
	where, args, err := t.where(f, 1)
	if err != nil {
		return 0, err
	}
	ct, err := s.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s%s", t.name, where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", t.name, MapError(err))
	}
	return int(ct.RowsAffected()), nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]storage.Record, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, MapError(err)
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, MapError(err)
	}
	out := make([]storage.Record, len(recs))
	for i, r := range recs {
		out[i] = storage.Record(r)
	}
	return out, nil
}

func (s *Store) queryOne(ctx context.Context, q string, args ...any) (storage.Record, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, MapError(err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, MapError(err)
	}
	return storage.Record(rec), nil
}

var _ storage.Backend = (*Store)(nil)
