package repository

import (
	"fmt"
	"strings"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/domain"
	"github.com/y0lz/backend-json/internal/storage"
)

type columnType int

const (
	typeText columnType = iota
	typeBool
	typeDate
	typeTimestamp
)

type column struct {
	name string
	typ  columnType
}

// selectExpr renders the column so a scanned row matches the stored document shape.
func (c column) selectExpr() string {
	if c.typ == typeDate {
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD') AS %s", c.name, c.name)
	}
	return c.name
}

// placeholder renders parameter n for this column; dates travel as text.
func (c column) placeholder(n int) string {
	if c.typ == typeDate {
		return fmt.Sprintf("$%d::text::date", n)
	}
	return fmt.Sprintf("$%d", n)
}

// check rejects values the column type cannot hold before a round trip.
func (c column) check(v any) error {
	if v == nil {
		return nil
	}
	switch c.typ {
	case typeBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("column %s wants bool, got %T: %w", c.name, v, apperr.ErrConstraintViolation)
		}
	case typeText:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("column %s wants text, got %T: %w", c.name, v, apperr.ErrConstraintViolation)
		}
	case typeDate:
		s, ok := v.(string)
		if !ok || !domain.ValidDate(s) {
			return fmt.Errorf("column %s wants a %s date, got %v: %w", c.name, domain.DateLayout, v, apperr.ErrConstraintViolation)
		}
	}
	return nil
}

type table struct {
	name       string
	columns    []column
	hasUpdated bool
}

func (t table) column(name string) (column, bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

func (t table) selectList() string {
	parts := make([]string, len(t.columns))
	for i, c := range t.columns {
		parts[i] = c.selectExpr()
	}
	return strings.Join(parts, ", ")
}

// writable reports whether callers may set the column.
func writable(c column) bool {
	return c.name != storage.AttrCreatedAt && c.name != storage.AttrUpdatedAt
}

func text(names ...string) []column {
	out := make([]column, len(names))
	for i, n := range names {
		out[i] = column{name: n, typ: typeText}
	}
	return out
}

func cols(groups ...[]column) []column {
	var out []column
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var tables = map[storage.Collection]table{
	storage.People: {
		name: "people",
		columns: cols(
			text("id", "external_contact_id", "role", "display_name", "phone", "home_address",
				"address_override", "branch_id"),
			[]column{{name: "is_active", typ: typeBool}},
			text("position", "vehicle_model", "vehicle_plate", "work_until"),
			[]column{{name: "created_at", typ: typeTimestamp}, {name: "updated_at", typ: typeTimestamp}},
		),
		hasUpdated: true,
	},
	storage.Branches: {
		name: "branches",
		columns: cols(
			text("id", "name", "address", "phone"),
			[]column{{name: "is_active", typ: typeBool}, {name: "created_at", typ: typeTimestamp}},
		),
	},
	storage.Shifts: {
		name: "shifts",
		columns: cols(
			text("id", "person_id", "branch_id"),
			[]column{{name: "date", typ: typeDate}},
			text("start_time", "end_time"),
			[]column{{name: "is_working", typ: typeBool}},
			text("destination_address"),
			[]column{{name: "created_at", typ: typeTimestamp}},
		),
	},
	storage.Assignments: {
		name: "assignments",
		columns: cols(
			text("id", "courier_id", "passenger_id", "branch_id", "pickup_address", "dropoff_address",
				"assigned_time"),
			[]column{{name: "date", typ: typeDate}},
			text("status", "notes"),
			[]column{{name: "courier_confirmed", typ: typeBool}, {name: "passenger_confirmed", typ: typeBool}},
			[]column{{name: "created_at", typ: typeTimestamp}, {name: "updated_at", typ: typeTimestamp}},
		),
		hasUpdated: true,
	},
}

func tableFor(coll storage.Collection) (table, error) {
	t, ok := tables[coll]
	if !ok {
		return table{}, fmt.Errorf("collection %q: %w", coll, apperr.ErrInvalid)
	}
	return t, nil
}

// assignments collects writable columns present in rec, in table order.
// Attributes without a column are ignored.
func (t table) assignments(rec storage.Record) ([]column, []any, error) {
	var (
		out  []column
		args []any
	)
	for _, c := range t.columns {
		v, ok := rec[c.name]
		if !ok || !writable(c) {
			continue
		}
		if c.name == storage.AttrID && storage.IDOf(rec) == "" {
			continue
		}
		if err := c.check(v); err != nil {
			return nil, nil, err
		}
		out = append(out, c)
		args = append(args, v)
	}
	return out, args, nil
}

// where renders a filter as a conjunction starting at parameter n.
func (t table) where(f storage.Filter, n int) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	keys := f.Keys()
	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		c, ok := t.column(k)
		if !ok {
			return "", nil, fmt.Errorf("%s has no column %q: %w", t.name, k, apperr.ErrInvalid)
		}
		parts = append(parts, fmt.Sprintf("%s = %s", c.name, c.placeholder(n)))
		args = append(args, f[k])
		n++
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func (t table) insertSQL(cs []column) string {
	if len(cs) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", t.name, t.selectList())
	}
	names := make([]string, len(cs))
	ph := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.name
		ph[i] = c.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.name, strings.Join(names, ", "), strings.Join(ph, ", "), t.selectList())
}

func (t table) updateSQL(cs []column) string {
	sets := make([]string, 0, len(cs)+1)
	for i, c := range cs {
		sets = append(sets, fmt.Sprintf("%s = %s", c.name, c.placeholder(i+2)))
	}
	if t.hasUpdated {
		sets = append(sets, "updated_at = now()")
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 RETURNING %s", t.name, strings.Join(sets, ", "), t.selectList())
}
