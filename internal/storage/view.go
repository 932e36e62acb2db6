package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/logx"
)

// View is a set of domain operations bound to one routing snapshot.
type View struct {
	r *routing
	f *Facade
}

// Policy returns the policy this view was pinned to.
func (v *View) Policy() domain.Policy { return v.r.policy }

// BackendFor returns the driver serving coll in this view.
func (v *View) BackendFor(coll Collection) Backend { return v.r.backendFor(coll) }

// Today returns the current calendar day on the facade's clock.
func (v *View) Today() string { return v.today() }

func (v *View) today() string { return domain.Day(v.f.now()) }

func list[T any](ctx context.Context, v *View, coll Collection, filter Filter) ([]T, error) {
	recs, err := v.r.backendFor(coll).List(ctx, coll, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", coll, err)
	}
	return decodeAll[T](recs)
}

func get[T any](ctx context.Context, v *View, coll Collection, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("get %s: empty id: %w", coll, apperr.ErrInvalid)
	}
	rec, err := v.r.backendFor(coll).Get(ctx, coll, id)
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", coll, id, err)
	}
	return decodeOne[T](rec)
}

// first returns the first match or ErrNotFound.
func first[T any](ctx context.Context, v *View, coll Collection, filter Filter) (T, error) {
	var zero T
	items, err := list[T](ctx, v, coll, filter)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, fmt.Errorf("%s %v: %w", coll, map[string]any(filter), apperr.ErrNotFound)
	}
	return items[0], nil
}

func insert[T any](ctx context.Context, v *View, coll Collection, item any, uniqueBy ...string) (T, error) {
	var zero T
	rec, err := toRecord(item)
	if err != nil {
		return zero, err
	}
	saved, err := v.r.backendFor(coll).Insert(ctx, coll, forInsert(rec), uniqueBy...)
	if err != nil {
		return zero, fmt.Errorf("insert %s: %w", coll, err)
	}
	return decodeOne[T](saved)
}

// update replaces every attribute of the record with item's values.
func update[T any](ctx context.Context, v *View, coll Collection, id string, item any) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("update %s: empty id: %w", coll, apperr.ErrInvalid)
	}
	rec, err := toRecord(item)
	if err != nil {
		return zero, err
	}
	saved, err := v.r.backendFor(coll).Update(ctx, coll, id, forUpdate(rec))
	if err != nil {
		return zero, fmt.Errorf("update %s %s: %w", coll, id, err)
	}
	return decodeOne[T](saved)
}

// patch changes only the given attributes (internal naming).
func patch[T any](ctx context.Context, v *View, coll Collection, id string, fields map[string]any) (T, error) {
	var zero T
	rec, err := toRecord(fields)
	if err != nil {
		return zero, err
	}
	saved, err := v.r.backendFor(coll).Update(ctx, coll, id, forUpdate(rec))
	if err != nil {
		return zero, fmt.Errorf("patch %s %s: %w", coll, id, err)
	}
	return decodeOne[T](saved)
}

func remove(ctx context.Context, v *View, coll Collection, id string) error {
	if err := v.r.backendFor(coll).Delete(ctx, coll, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", coll, id, err)
	}
	return nil
}

func removeWhere(ctx context.Context, v *View, coll Collection, filter Filter) (int, error) {
	n, err := v.r.backendFor(coll).DeleteWhere(ctx, coll, filter)
	if err != nil {
		return n, fmt.Errorf("delete %s where %v: %w", coll, map[string]any(filter), err)
	}
	return n, nil
}

// Upsert writes rec into b keyed by its id: update when present, insert otherwise.
// It reports whether the record was created.
func Upsert(ctx context.Context, b Backend, coll Collection, rec Record) (bool, error) {
	id := IDOf(rec)
	if id == "" {
		return false, fmt.Errorf("upsert %s: empty id: %w", coll, apperr.ErrInvalid)
	}
	_, err := b.Get(ctx, coll, id)
	switch {
	case err == nil:
		body := CloneRecord(rec)
		delete(body, AttrID)
		delete(body, AttrCreatedAt)
		_, err = b.Update(ctx, coll, id, body)
		return false, err
	case errors.Is(err, apperr.ErrNotFound):
		_, err = b.Insert(ctx, coll, CloneRecord(rec))
		return err == nil, err
	default:
		return false, err
	}
}

// mirror copies a person write to the secondary backend, best-effort.
func (v *View) mirror(ctx context.Context, id string, deleted bool) {
	m := v.r.mirror
	if m == nil || id == "" {
		return
	}
	var err error
	if deleted {
		if err = m.Delete(ctx, People, id); errors.Is(err, apperr.ErrNotFound) {
			err = nil
		}
	} else {
		var rec Record
		if rec, err = v.r.people.Get(ctx, People, id); err == nil {
			_, err = Upsert(ctx, m, People, rec)
		}
	}
	if err != nil {
		v.f.logger.Warn("people mirror write failed",
			logx.String("mirror", string(m.Kind())),
			logx.String("person_id", id),
			logx.Err(err),
		)
	}
}
