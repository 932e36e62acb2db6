// Package storage is the single entry point to persisted people, branches,
// shifts and assignments. It routes every call to the backend selected by the
// active policy and converts records between stored and in-process naming.
package storage

import "context"

// Record is a stored document in external (snake_case) naming.
type Record = map[string]any

// Collection names one logical collection.
type Collection string

// List of collections
const (
	People      Collection = "people"
	Branches    Collection = "branches"
	Shifts      Collection = "shifts"
	Assignments Collection = "assignments"
)

// Collections lists every entity collection in cascade-safe order.
var Collections = []Collection{People, Branches, Shifts, Assignments}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	switch c {
	case People, Branches, Shifts, Assignments:
		return true
	default:
		return false
	}
}

// Kind identifies a backend implementation.
type Kind string

// List of backend kinds
const (
	KindLocal      Kind = "local"
	KindRelational Kind = "relational"
	KindBlob       Kind = "blob"
	KindMemory     Kind = "memory"
)

// Backend is the capability set every storage driver implements.
// Records cross this boundary in external naming.
type Backend interface {
	Kind() Kind
	// Ready returns nil when the backend can serve requests.
	Ready(ctx context.Context) error
	List(ctx context.Context, coll Collection, filter Filter) ([]Record, error)
	Get(ctx context.Context, coll Collection, id string) (Record, error)
	// Insert stores rec and returns it as persisted. uniqueBy names attributes
	// whose combined values must not already exist in the collection.
	Insert(ctx context.Context, coll Collection, rec Record, uniqueBy ...string) (Record, error)
	Update(ctx context.Context, coll Collection, id string, patch Record) (Record, error)
	Delete(ctx context.Context, coll Collection, id string) error
	DeleteWhere(ctx context.Context, coll Collection, filter Filter) (int, error)
}

// SettingsStore keeps the singleton settings document.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (Record, error)
	SaveSettings(ctx context.Context, rec Record) error
}
