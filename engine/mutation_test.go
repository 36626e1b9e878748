package engine

import (
	"reflect"
	"testing"
)

func TestNormalizeManyToOne(t *testing.T) {
	// Scalar foreign key becomes an update entry carrying just the id.
	m := normalizeManyToOne(5)
	if len(m.Update) != 1 || m.Update[0]["id"] != 5 {
		t.Fatalf("expected update [{id:5}], got %+v", m)
	}

	// Object with an id is a partial edit of an existing record.
	m = normalizeManyToOne(map[string]any{"id": 7, "note": "x"})
	if len(m.Update) != 1 || m.Update[0]["note"] != "x" {
		t.Fatalf("expected update with partial fields, got %+v", m)
	}

	// Object without an id falls back to create; unexpected shapes keep the
	// form usable instead of failing.
	m = normalizeManyToOne(map[string]any{"name": "new author"})
	if len(m.Create) != 1 || len(m.Update) != 0 {
		t.Fatalf("expected create fallback, got %+v", m)
	}

	if m := normalizeManyToOne(nil); len(m.Create)+len(m.Update)+len(m.Delete) != 0 {
		t.Fatalf("expected empty mutation for nil, got %+v", m)
	}
}

func TestNormalizeOneToMany_MutationShape(t *testing.T) {
	raw := map[string]any{
		"create": []any{map[string]any{"title": "draft"}},
		"update": []any{map[string]any{"id": 2, "title": "new"}, 9},
		"delete": []any{3, map[string]any{"id": 4}},
	}
	m := normalizeOneToMany(raw)

	if len(m.Create) != 1 || m.Create[0]["title"] != "draft" {
		t.Fatalf("unexpected create list: %+v", m.Create)
	}
	// Scalar update entries are promoted to {id: scalar}.
	if len(m.Update) != 2 || m.Update[1]["id"] != 9 {
		t.Fatalf("unexpected update list: %+v", m.Update)
	}
	// Object delete entries contribute their id.
	if !reflect.DeepEqual(m.Delete, []any{3, 4}) {
		t.Fatalf("unexpected delete list: %+v", m.Delete)
	}
}

func TestNormalizeOneToMany_ArrayShape(t *testing.T) {
	m := normalizeOneToMany([]any{
		1,
		map[string]any{"id": 2, "title": "edited"},
		map[string]any{"title": "brand new"},
		nil,
	})
	if len(m.Update) != 2 {
		t.Fatalf("expected 2 update entries, got %+v", m.Update)
	}
	if m.Update[0]["id"] != 1 || m.Update[1]["id"] != 2 {
		t.Fatalf("unexpected update ids: %+v", m.Update)
	}
	if len(m.Create) != 1 || m.Create[0]["title"] != "brand new" {
		t.Fatalf("unexpected create list: %+v", m.Create)
	}

	// Anything else is best-effort empty, never an error.
	if m := normalizeOneToMany("junk"); len(m.Create)+len(m.Update)+len(m.Delete) != 0 {
		t.Fatalf("expected empty mutation for junk input, got %+v", m)
	}
}

func TestMutationLookups(t *testing.T) {
	m := Mutation{
		Update: []map[string]any{{"id": 2, "title": "new"}},
		Delete: []any{3},
	}
	// Ids of mixed dynamic types compare by value: json numbers arrive as
	// float64 while fixtures use int.
	if m.UpdateFor(float64(2)) == nil {
		t.Fatal("expected update entry for float64(2)")
	}
	if !m.Deleted(float64(3)) {
		t.Fatal("expected id 3 to be marked deleted")
	}
	if m.UpdateFor(1) != nil || m.Deleted(1) {
		t.Fatal("id 1 has no pending mutation")
	}
}

func TestResetDetection(t *testing.T) {
	// One-to-many: mutation object replaced by an array means the form
	// reloaded after a save.
	if !arrayReset(map[string]any{"update": []any{}}, []any{1}) {
		t.Fatal("expected reset on non-array to array transition")
	}
	if arrayReset([]any{1}, []any{1, 2}) {
		t.Fatal("array to array is a plain edit, not a reset")
	}
	if arrayReset(nil, []any{1}) {
		t.Fatal("first appearance of a field is not a reset")
	}

	// Many-to-one: object replaced by a scalar id is the same signal.
	if !scalarReset(map[string]any{"id": 7}, 7) {
		t.Fatal("expected reset on object to scalar transition")
	}
	if scalarReset(5, 7) {
		t.Fatal("scalar to scalar is a plain edit, not a reset")
	}
	if scalarReset(map[string]any{"id": 7}, map[string]any{"id": 8}) {
		t.Fatal("object to object is not a reset")
	}
	if scalarReset(map[string]any{"id": 7}, nil) {
		t.Fatal("clearing the field is not a reset")
	}
}
