// Package record holds helpers for working with schemaless form records:
// dotted path lookup, per-field serialization, and serialized diffing.
package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// GetPath resolves a dotted path ("author.name") against a record. The second
// return value is false when any segment is missing or a non-leaf segment is
// not an object; a missing path is a lookup miss, never an error.
func GetPath(rec map[string]any, path string) (any, bool) {
	if rec == nil || path == "" {
		return nil, false
	}

	current := any(rec)
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Serialize returns the per-field canonical JSON encoding of a record. The
// engine diffs these strings instead of comparing references, because the
// caller may hand back the same map with mutated contents.
func Serialize(rec map[string]any) map[string]string {
	out := make(map[string]string, len(rec))
	for k, v := range rec {
		b, err := json.Marshal(v)
		if err != nil {
			// Non-JSON values still need a stable representation for diffing.
			out[k] = fmt.Sprintf("%v", v)
			continue
		}
		out[k] = string(b)
	}
	return out
}

// ChangedKeys returns the sorted set of field names whose serialized value
// differs between two snapshots. Keys missing on either side count as
// changed.
func ChangedKeys(prev, next map[string]string) []string {
	var changed []string
	for k, v := range next {
		if pv, ok := prev[k]; !ok || pv != v {
			changed = append(changed, k)
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// SortedKeys returns the record's field names in deterministic order.
func SortedKeys(rec map[string]any) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of a record. Nested values are shared.
func Clone(rec map[string]any) map[string]any {
	if rec == nil {
		return nil
	}
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
