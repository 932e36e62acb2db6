// Package docstore keeps each collection as a JSON array in its own file on
// local disk. Writers take an advisory lock on "<file>.lock"; when the lock
// cannot be taken in time the write still goes through and a degraded
// durability warning is logged.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	json "github.com/goccy/go-json"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/storage"
)

const settingsFile = "settings.json"

// Config controls where and how the store writes.
type Config struct {
	Dir         string
	LockTimeout time.Duration
	LockRetry   time.Duration
}

type counter interface {
	Inc()
}

type locker interface {
	TryLockContext(ctx context.Context, retryDelay time.Duration) (bool, error)
	Unlock() error
}

// Store is the local document store driver.
type Store struct {
	dir         string
	lockTimeout time.Duration
	lockRetry   time.Duration
	logger      logx.Logger
	degraded    counter
	now         func() time.Time
	newLock     func(path string) locker
}

// swapped in tests
var jsonMarshal = func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }

// New returns a store rooted at cfg.Dir. degraded may be nil.
func New(cfg Config, logger logx.Logger, degraded counter) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("docstore dir required: %w", apperr.ErrInvalid)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("docstore mkdir %s: %w", cfg.Dir, err)
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 2 * time.Second
	}
	if cfg.LockRetry <= 0 {
		cfg.LockRetry = 25 * time.Millisecond
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Store{
		dir:         cfg.Dir,
		lockTimeout: cfg.LockTimeout,
		lockRetry:   cfg.LockRetry,
		logger:      logger,
		degraded:    degraded,
		now:         time.Now,
		newLock:     func(path string) locker { return flock.New(path) },
	}, nil
}

// Kind implements storage.Backend.
func (s *Store) Kind() storage.Kind { return storage.KindLocal }

// Dir returns the directory holding the collection files.
func (s *Store) Dir() string { return s.dir }

// Ready checks that the directory accepts new files.
func (s *Store) Ready(context.Context) error {
	f, err := os.CreateTemp(s.dir, ".ready-*")
	if err != nil {
		return fmt.Errorf("docstore %s not writable: %w", s.dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func (s *Store) path(coll storage.Collection) string {
	return filepath.Join(s.dir, string(coll)+".json")
}

// List implements storage.Backend.
func (s *Store) List(_ context.Context, coll storage.Collection, f storage.Filter) ([]storage.Record, error) {
	recs, err := s.readCollection(coll)
	if err != nil {
		return nil, err
	}
	return storage.Select(recs, f), nil
}

// Get implements storage.Backend.
func (s *Store) Get(_ context.Context, coll storage.Collection, id string) (storage.Record, error) {
	recs, err := s.readCollection(coll)
	if err != nil {
		return nil, err
	}
	i := storage.FindIndex(recs, id)
	if i < 0 {
		return nil, fmt.Errorf("%s %s: %w", coll, id, apperr.ErrNotFound)
	}
	return recs[i], nil
}

// Insert implements storage.Backend. The uniqueness check runs under the file lock.
func (s *Store) Insert(ctx context.Context, coll storage.Collection, rec storage.Record, uniqueBy ...string) (storage.Record, error) {
	var saved storage.Record
	err := s.mutate(ctx, coll, func(recs []storage.Record) ([]storage.Record, error) {
		next, doc, err := storage.InsertDocument(recs, rec, s.now(), uniqueBy)
		saved = doc
		return next, err
	})
	return saved, err
}

// Update implements storage.Backend.
func (s *Store) Update(ctx context.Context, coll storage.Collection, id string, patch storage.Record) (storage.Record, error) {
	var saved storage.Record
	err := s.mutate(ctx, coll, func(recs []storage.Record) ([]storage.Record, error) {
		next, doc, err := storage.UpdateDocument(recs, id, patch, s.now())
		saved = doc
		return next, err
	})
	return saved, err
}

// Delete implements storage.Backend.
func (s *Store) Delete(ctx context.Context, coll storage.Collection, id string) error {
	return s.mutate(ctx, coll, func(recs []storage.Record) ([]storage.Record, error) {
		return storage.DeleteDocument(recs, id)
	})
}

// DeleteWhere implements storage.Backend.
func (s *Store) DeleteWhere(ctx context.Context, coll storage.Collection, f storage.Filter) (int, error) {
	var removed int
	err := s.mutate(ctx, coll, func(recs []storage.Record) ([]storage.Record, error) {
		next, n := storage.DeleteDocuments(recs, f)
		removed = n
		return next, nil
	})
	return removed, err
}

// LoadSettings implements storage.SettingsStore.
func (s *Store) LoadSettings(context.Context) (storage.Record, error) {
	out := storage.Record{}
	if err := readJSON(filepath.Join(s.dir, settingsFile), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSettings implements storage.SettingsStore.
func (s *Store) SaveSettings(ctx context.Context, rec storage.Record) error {
	path := filepath.Join(s.dir, settingsFile)
	unlock, err := s.lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()
	return writeJSON(path, rec)
}

// mutate runs a read-modify-write cycle on one collection file.
func (s *Store) mutate(ctx context.Context, coll storage.Collection, fn func([]storage.Record) ([]storage.Record, error)) error {
	path := s.path(coll)
	unlock, err := s.lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	recs, err := s.readCollection(coll)
	if err != nil {
		return err
	}
	next, err := fn(recs)
	if err != nil {
		return fmt.Errorf("%s: %w", coll, err)
	}
	if next == nil {
		next = []storage.Record{}
	}
	return writeJSON(path, next)
}

// lock takes the advisory lock for path. Failing to get it in time is not an
// error: the returned unlock is a no-op and the caller writes unlocked.
func (s *Store) lock(ctx context.Context, path string) (func(), error) {
	l := s.newLock(path + ".lock")
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	locked, err := l.TryLockContext(lctx, s.lockRetry)
	cancel()
	if err == nil && locked {
		return func() {
			if uerr := l.Unlock(); uerr != nil {
				s.logger.Warn("docstore unlock failed", logx.String("file", path), logx.Err(uerr))
			}
		}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil {
		err = errors.New("lock not acquired")
	}
	if s.degraded != nil {
		s.degraded.Inc()
	}
	s.logger.Warn("docstore write without file lock",
		logx.Event("degraded_durability"),
		logx.String("file", path),
		logx.Duration("lock_timeout", s.lockTimeout),
		logx.Err(fmt.Errorf("%w: %w", apperr.ErrDegradedDurability, err)),
	)
	return func() {}, nil
}

func (s *Store) readCollection(coll storage.Collection) ([]storage.Record, error) {
	var recs []storage.Record
	if err := readJSON(s.path(coll), &recs); err != nil {
		return nil, fmt.Errorf("read %s: %w", coll, err)
	}
	if recs == nil {
		recs = []storage.Record{}
	}
	return recs, nil
}

// readJSON leaves dst untouched when the file is missing or empty.
func readJSON(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path atomically through a temp file in the same directory.
func writeJSON(path string, v any) error {
	raw, err := jsonMarshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

var (
	_ storage.Backend       = (*Store)(nil)
	_ storage.SettingsStore = (*Store)(nil)
)
