package storage

import (
	"fmt"
	"sort"
)

// Filter is a conjunction of attribute equality terms in external naming.
// An empty filter matches everything.
type Filter map[string]any

// Where builds a single-term filter.
func Where(attr string, value any) Filter {
	return Filter{attr: value}
}

// And returns a copy of f with one more term.
func (f Filter) And(attr string, value any) Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[attr] = value
	return out
}

// Keys returns the filter attributes in stable order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Match reports whether rec satisfies every term.
func (f Filter) Match(rec Record) bool {
	for k, want := range f {
		if !sameValue(rec[k], want) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	// decoded JSON numbers are float64, callers pass ints
	return fmt.Sprint(a) == fmt.Sprint(b)
}
