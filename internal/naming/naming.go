// Package naming translates attribute names between the stored (snake_case)
// schema and the in-process (camelCase) model.
package naming

import (
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
)

// maxCachedKeys caps each direction's cache. Record keys come from a fixed
// schema, so anything past the cap is converted without being remembered.
const maxCachedKeys = 1024

var (
	internalKeys = &keyCache{convert: snakeToCamel}
	externalKeys = &keyCache{convert: camelToSnake}
)

type keyCache struct {
	m       sync.Map
	size    atomic.Int64
	convert func(string) string
}

func (c *keyCache) get(key string) string {
	if v, ok := c.m.Load(key); ok {
		return v.(string)
	}
	out := c.convert(key)
	if c.size.Load() < maxCachedKeys {
		if _, loaded := c.m.LoadOrStore(key, out); !loaded {
			c.size.Add(1)
		}
	}
	return out
}

// ToInternal returns a copy of rec with every key, at any depth, in camelCase.
func ToInternal(rec map[string]any) map[string]any {
	if rec == nil {
		return nil
	}
	return convertMap(rec, InternalKey)
}

// ToExternal returns a copy of rec with every key, at any depth, in snake_case.
func ToExternal(rec map[string]any) map[string]any {
	if rec == nil {
		return nil
	}
	return convertMap(rec, ExternalKey)
}

// InternalKey converts a single snake_case key to camelCase.
// Keys without an inner underscore are returned unchanged.
func InternalKey(key string) string {
	return internalKeys.get(key)
}

// ExternalKey converts a single camelCase key to snake_case.
// Keys without upper-case letters are returned unchanged.
func ExternalKey(key string) string {
	return externalKeys.get(key)
}

func convertMap(in map[string]any, key func(string) string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[key(k)] = convertValue(v, key)
	}
	return out
}

func convertValue(v any, key func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		return convertMap(t, key)
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, m := range t {
			out[i] = convertMap(m, key)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = convertValue(e, key)
		}
		return out
	default:
		return v
	}
}

func snakeToCamel(s string) string {
	// leading underscore marks a private key
	if strings.HasPrefix(s, "_") || !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for i, r := range s {
		if r == '_' {
			upper = i > 0
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func camelToSnake(s string) string {
	if strings.IndexFunc(s, unicode.IsUpper) < 0 {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				// "userID" -> user_id, "HTTPServer" -> http_server
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
