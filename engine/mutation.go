package engine

import "fmt"

// Mutation is the normalized {create, update, delete} representation of the
// pending, unsaved edits to one relational field. It is rebuilt from the raw
// field value on every recomputation.
type Mutation struct {
	Create []map[string]any
	Update []map[string]any
	Delete []any
}

// UpdateIDs returns the ids carried by the update list, in list order.
func (m *Mutation) UpdateIDs() []any {
	var ids []any
	for _, row := range m.Update {
		if id, ok := row["id"]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// UpdateFor returns the update entry matching the given id, or nil.
func (m *Mutation) UpdateFor(id any) map[string]any {
	key := idKey(id)
	for _, row := range m.Update {
		if rid, ok := row["id"]; ok && idKey(rid) == key {
			return row
		}
	}
	return nil
}

// Deleted reports whether the id appears in the delete list.
func (m *Mutation) Deleted(id any) bool {
	key := idKey(id)
	for _, del := range m.Delete {
		if idKey(del) == key {
			return true
		}
	}
	return false
}

// normalizeManyToOne maps a many-to-one field value onto a Mutation. A scalar
// is the foreign key of an existing record; an object with an id is a partial
// edit of an existing record; any other object is best-effort treated as a
// new record rather than rejected, to keep the form usable.
func normalizeManyToOne(raw any) Mutation {
	switch v := raw.(type) {
	case nil:
		return Mutation{}
	case map[string]any:
		if _, ok := v["id"]; ok {
			return Mutation{Update: []map[string]any{v}}
		}
		return Mutation{Create: []map[string]any{v}}
	case []any:
		// Not a legal many-to-one shape; ignore rather than fail.
		return Mutation{}
	default:
		return Mutation{Update: []map[string]any{{"id": v}}}
	}
}

// normalizeOneToMany maps a one-to-many field value onto a Mutation. The raw
// value is either already mutation-shaped or an array of ids / records.
func normalizeOneToMany(raw any) Mutation {
	switch v := raw.(type) {
	case map[string]any:
		return Mutation{
			Create: entryList(v["create"]),
			Update: entryList(v["update"]),
			Delete: idList(v["delete"]),
		}
	case []any:
		var m Mutation
		for _, el := range v {
			switch entry := el.(type) {
			case map[string]any:
				if _, ok := entry["id"]; ok {
					m.Update = append(m.Update, entry)
				} else {
					m.Create = append(m.Create, entry)
				}
			case nil:
				// skip holes
			default:
				m.Update = append(m.Update, map[string]any{"id": entry})
			}
		}
		return m
	default:
		return Mutation{}
	}
}

// arrayReset reports the non-array to array transition of a one-to-many raw
// value: the form reloaded after a save and the cached baselines are stale.
func arrayReset(prev, cur any) bool {
	if prev == nil {
		return false
	}
	if _, wasArray := prev.([]any); wasArray {
		return false
	}
	_, isArray := cur.([]any)
	return isArray
}

// scalarReset reports the object to scalar transition of a many-to-one raw
// value, the save/reset signal on the single-valued side.
func scalarReset(prev, cur any) bool {
	if _, wasObject := prev.(map[string]any); !wasObject {
		return false
	}
	if cur == nil {
		return false
	}
	switch cur.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

// entryList converts a raw list into update/create entries: objects pass
// through, scalars become {id: scalar}.
func entryList(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, el := range list {
		switch entry := el.(type) {
		case map[string]any:
			out = append(out, entry)
		case nil:
		default:
			out = append(out, map[string]any{"id": entry})
		}
	}
	return out
}

// idList converts a raw list into plain ids; object entries contribute their
// id field.
func idList(raw any) []any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []any
	for _, el := range list {
		if entry, ok := el.(map[string]any); ok {
			if id, exists := entry["id"]; exists {
				out = append(out, id)
			}
			continue
		}
		if el != nil {
			out = append(out, el)
		}
	}
	return out
}

// idKey is the comparison key for ids of mixed dynamic types; 5, int64(5)
// and json's float64(5) all collide, which is what record data needs.
func idKey(id any) string {
	return fmt.Sprintf("%v", id)
}
