// Package migration copies people between the local and the relational
// backend on operator request. Records are upserted by id, so repeated runs
// converge; nothing is reconciled when both sides changed.
package migration

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/storage"
)

type backends interface {
	Backend(kind storage.Kind) (storage.Backend, error)
}

// Engine runs people migrations.
type Engine struct {
	backends backends
	logger   logx.Logger
	records  *prometheus.CounterVec
}

// NewEngine creates an Engine. records may be nil.
func NewEngine(b backends, logger logx.Logger, records *prometheus.CounterVec) *Engine {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Engine{backends: b, logger: logger, records: records}
}

func endpoints(direction domain.SyncDirection) (from, to storage.Kind, err error) {
	switch direction {
	case domain.LocalToRemote:
		return storage.KindLocal, storage.KindRelational, nil
	case domain.RemoteToLocal:
		return storage.KindRelational, storage.KindLocal, nil
	default:
		return "", "", fmt.Errorf("sync direction %q: %w", direction, apperr.ErrInvalid)
	}
}

// SyncAllPeople upserts every person of the source backend into the
// destination. A record that fails is logged and counted, and the run goes
// on. Only a failure to read the source, or cancellation, ends it early.
func (e *Engine) SyncAllPeople(ctx context.Context, direction domain.SyncDirection) (domain.SyncSummary, error) {
	var sum domain.SyncSummary
	fromKind, toKind, err := endpoints(direction)
	if err != nil {
		return sum, err
	}
	src, err := e.backends.Backend(fromKind)
	if err != nil {
		return sum, err
	}
	dst, err := e.backends.Backend(toKind)
	if err != nil {
		return sum, err
	}

	people, err := src.List(ctx, storage.People, nil)
	if err != nil {
		return sum, fmt.Errorf("read %s people: %w", fromKind, err)
	}
	for _, rec := range people {
		if err := ctx.Err(); err != nil {
			e.finish(direction, sum)
			return sum, err
		}
		sum.Attempted++
		if _, err := storage.Upsert(ctx, dst, storage.People, rec); err != nil {
			sum.Failed++
			e.count(direction, "failed")
			e.logger.Warn("person not synced",
				logx.String("direction", string(direction)),
				logx.String("person_id", storage.IDOf(rec)),
				logx.Err(err),
			)
			continue
		}
		sum.Succeeded++
		e.count(direction, "succeeded")
	}
	e.finish(direction, sum)
	return sum, nil
}

func (e *Engine) finish(direction domain.SyncDirection, sum domain.SyncSummary) {
	e.logger.Info("people synced",
		logx.Event("people_synced"),
		logx.String("direction", string(direction)),
		logx.Int("attempted", sum.Attempted),
		logx.Int("succeeded", sum.Succeeded),
		logx.Int("failed", sum.Failed),
	)
}

func (e *Engine) count(direction domain.SyncDirection, result string) {
	if e.records != nil {
		e.records.WithLabelValues(string(direction), result).Inc()
	}
}
