// Package blobstore keeps each collection as one JSON array object in an
// object storage bucket. Reads are served from an in-process cache; writes
// rewrite the whole object under an ETag precondition so a concurrent writer
// in another process fails the write instead of being silently overwritten.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/patrickmn/go-cache"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/storage"
)

const settingsKey = "settings.json"

// Object is one stored blob and its version tag.
type Object struct {
	Body []byte
	ETag string
}

// ObjectStore is the bucket client the store writes through.
type ObjectStore interface {
	// Get returns apperr.ErrNotFound when key does not exist.
	Get(ctx context.Context, key string) (Object, error)
	// Put writes body only if the stored ETag still equals ifMatch. An empty
	// ifMatch means the key must not exist yet. A failed precondition is
	// reported as apperr.ErrConcurrentModification.
	Put(ctx context.Context, key string, body []byte, ifMatch string) (string, error)
	Ping(ctx context.Context) error
}

// Config tunes key layout and caching.
type Config struct {
	Prefix string
	// CacheTTL of 0 keeps entries until they are replaced or dropped.
	CacheTTL time.Duration
}

// Store is the blob storage driver.
type Store struct {
	objects ObjectStore
	prefix  string
	cache   *cache.Cache
	locks   sync.Map
	logger  logx.Logger
	now     func() time.Time
}

// New wraps objects with the collection layout and read cache.
func New(objects ObjectStore, cfg Config, logger logx.Logger) *Store {
	if logger == nil {
		logger = logx.Nop()
	}
	ttl, cleanup := cache.NoExpiration, time.Duration(0)
	if cfg.CacheTTL > 0 {
		ttl, cleanup = cfg.CacheTTL, 2*cfg.CacheTTL
	}
	return &Store{
		objects: objects,
		prefix:  cfg.Prefix,
		cache:   cache.New(ttl, cleanup),
		logger:  logger,
		now:     time.Now,
	}
}

// Kind implements storage.Backend.
func (s *Store) Kind() storage.Kind { return storage.KindBlob }

// Ready implements storage.Backend.
func (s *Store) Ready(ctx context.Context) error {
	if err := s.objects.Ping(ctx); err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	return nil
}

func (s *Store) key(coll storage.Collection) string {
	return s.prefix + string(coll) + ".json"
}

// List implements storage.Backend.
func (s *Store) List(ctx context.Context, coll storage.Collection, f storage.Filter) ([]storage.Record, error) {
	recs, _, err := s.readCollection(ctx, coll)
	if err != nil {
		return nil, err
	}
	return storage.Select(recs, f), nil
}

// Get implements storage.Backend.
func (s *Store) Get(ctx context.Context, coll storage.Collection, id string) (storage.Record, error) {
	recs, _, err := s.readCollection(ctx, coll)
	if err != nil {
		return nil, err
	}
	i := storage.FindIndex(recs, id)
	if i < 0 {
		return nil, fmt.Errorf("%s %s: %w", coll, id, apperr.ErrNotFound)
	}
	return recs[i], nil
}

// Insert implements storage.Backend.
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

// LoadSettings implements storage.SettingsStore. A missing object reads as {}.
func (s *Store) LoadSettings(ctx context.Context) (storage.Record, error) {
	obj, err := s.load(ctx, s.prefix+settingsKey)
	if err != nil {
		return nil, err
	}
	out := storage.Record{}
	if len(obj.Body) > 0 {
		if err := json.Unmarshal(obj.Body, &out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", settingsKey, err)
		}
	}
	return out, nil
}

// SaveSettings implements storage.SettingsStore.
func (s *Store) SaveSettings(ctx context.Context, rec storage.Record) error {
	key := s.prefix + settingsKey
	unlock := s.lock(key)
	defer unlock()

	obj, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	return s.put(ctx, key, obj.ETag, rec)
}

// Invalidate drops every cached object.
func (s *Store) Invalidate() { s.cache.Flush() }

// mutate runs read-modify-write on one collection object. Writers in this
// process are serialised per key; writers elsewhere are caught by the ETag check.
func (s *Store) mutate(ctx context.Context, coll storage.Collection, fn func([]storage.Record) ([]storage.Record, error)) error {
	key := s.key(coll)
	unlock := s.lock(key)
	defer unlock()

	recs, etag, err := s.readCollection(ctx, coll)
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
	return s.put(ctx, key, etag, next)
}

func (s *Store) put(ctx context.Context, key, etag string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	newTag, err := s.objects.Put(ctx, key, raw, etag)
	if err != nil {
		s.cache.Delete(key)
		if errors.Is(err, apperr.ErrConcurrentModification) {
			s.logger.Warn("blob changed by another writer",
				logx.Event("blob_conflict"),
				logx.String("key", key),
			)
		}
		return err
	}
	s.cache.SetDefault(key, Object{Body: raw, ETag: newTag})
	return nil
}

func (s *Store) lock(key string) func() {
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// load returns the cached object or fetches it. A missing key is an empty
// object with no ETag and is cached like any other.
func (s *Store) load(ctx context.Context, key string) (Object, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.(Object), nil
	}
	obj, err := s.objects.Get(ctx, key)
	if errors.Is(err, apperr.ErrNotFound) {
		obj, err = Object{}, nil
	}
	if err != nil {
		return Object{}, err
	}
	s.cache.SetDefault(key, obj)
	return obj, nil
}

func (s *Store) readCollection(ctx context.Context, coll storage.Collection) ([]storage.Record, string, error) {
	obj, err := s.load(ctx, s.key(coll))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", coll, err)
	}
	recs := []storage.Record{}
	if len(obj.Body) > 0 {
		if err := json.Unmarshal(obj.Body, &recs); err != nil {
			return nil, "", fmt.Errorf("decode %s: %w", coll, err)
		}
	}
	return recs, obj.ETag, nil
}

var (
	_ storage.Backend       = (*Store)(nil)
	_ storage.SettingsStore = (*Store)(nil)
)
