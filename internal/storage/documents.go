package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/y0lz/backend-json/internal/apperr"
)

// Attribute names managed by the stores themselves.
const (
	AttrID        = "id"
	AttrCreatedAt = "created_at"
	AttrUpdatedAt = "updated_at"
)

// The helpers below implement Backend semantics over a whole collection held
// in memory. Document, blob and memory stores load a collection, apply one of
// them and persist the result.

// NewID returns a fresh record identifier.
func NewID() string { return uuid.NewString() }

// IDOf returns the record identifier as a string.
func IDOf(rec Record) string {
	if v, ok := rec[AttrID]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// CloneRecord returns a shallow copy of rec.
func CloneRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// FindIndex returns the position of the record with id, or -1.
func FindIndex(records []Record, id string) int {
	for i, r := range records {
		if IDOf(r) == id {
			return i
		}
	}
	return -1
}

// Select returns copies of the records matching f.
func Select(records []Record, f Filter) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, CloneRecord(r))
		}
	}
	return out
}

// InsertDocument appends rec to records, assigning id and created_at when absent.
func InsertDocument(records []Record, rec Record, now time.Time, uniqueBy []string) ([]Record, Record, error) {
	doc := CloneRecord(rec)
	if doc == nil {
		doc = Record{}
	}
	id := IDOf(doc)
	if id == "" {
		id = NewID()
	} else if FindIndex(records, id) >= 0 {
		return records, nil, fmt.Errorf("id %s already exists: %w", id, apperr.ErrConstraintViolation)
	}
	doc[AttrID] = id
	if len(uniqueBy) > 0 {
		key := Filter{}
		for _, attr := range uniqueBy {
			key[attr] = doc[attr]
		}
		for _, r := range records {
			if key.Match(r) {
				return records, nil, fmt.Errorf("unique (%s): %w", strings.Join(uniqueBy, ", "), apperr.ErrConstraintViolation)
			}
		}
	}
	if _, ok := doc[AttrCreatedAt]; !ok {
		doc[AttrCreatedAt] = now.UTC().Format(time.RFC3339Nano)
	}
	return append(records, doc), CloneRecord(doc), nil
}

// UpdateDocument merges patch into the record with id.
func UpdateDocument(records []Record, id string, patch Record, now time.Time) ([]Record, Record, error) {
	i := FindIndex(records, id)
	if i < 0 {
		return records, nil, fmt.Errorf("id %s: %w", id, apperr.ErrNotFound)
	}
	doc := CloneRecord(records[i])
	for k, v := range patch {
		if k == AttrID || k == AttrCreatedAt {
			continue
		}
		doc[k] = v
	}
	doc[AttrUpdatedAt] = now.UTC().Format(time.RFC3339Nano)
	records[i] = doc
	return records, CloneRecord(doc), nil
}

// DeleteDocument removes the record with id.
func DeleteDocument(records []Record, id string) ([]Record, error) {
	i := FindIndex(records, id)
	if i < 0 {
		return records, fmt.Errorf("id %s: %w", id, apperr.ErrNotFound)
	}
	return append(records[:i], records[i+1:]...), nil
}

// DeleteDocuments removes every record matching f and reports how many went.
func DeleteDocuments(records []Record, f Filter) ([]Record, int) {
	kept := records[:0]
	removed := 0
	for _, r := range records {
		if f.Match(r) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	return kept, removed
}
