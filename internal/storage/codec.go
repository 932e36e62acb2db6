package storage

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/y0lz/backend-json/internal/naming"
)

// toRecord converts a domain value into a stored record.
func toRecord(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	var internal map[string]any
	if err := json.Unmarshal(raw, &internal); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return naming.ToExternal(internal), nil
}

// fromRecord decodes a stored record into dst.
func fromRecord(rec Record, dst any) error {
	raw, err := json.Marshal(naming.ToInternal(rec))
	if err != nil {
		return fmt.Errorf("decode %T: %w", dst, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %T: %w", dst, err)
	}
	return nil
}

func decodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := fromRecord(rec, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOne[T any](rec Record) (T, error) {
	var v T
	err := fromRecord(rec, &v)
	return v, err
}

// forInsert drops attributes the backend assigns and an empty id.
func forInsert(rec Record) Record {
	delete(rec, AttrCreatedAt)
	delete(rec, AttrUpdatedAt)
	if IDOf(rec) == "" {
		delete(rec, AttrID)
	}
	return rec
}

// forUpdate drops attributes a patch must not touch.
func forUpdate(rec Record) Record {
	delete(rec, AttrID)
	delete(rec, AttrCreatedAt)
	delete(rec, AttrUpdatedAt)
	return rec
}
