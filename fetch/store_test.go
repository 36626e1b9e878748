package fetch

import (
	"context"
	"errors"
	"testing"

	"deepview/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	cfg := config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            t.TempDir(),
		Name:            "test",
		UsersCollection: "users",
		UsersTable:      "app_users",
	}
	store, err := NewStore(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)

	stmts := []string{
		"CREATE TABLE comments (id INTEGER PRIMARY KEY, title TEXT, article TEXT)",
		"INSERT INTO comments (id, title, article) VALUES (1, 'first', 'r1'), (2, 'second', 'r1'), (3, 'third', 'r2')",
		"CREATE TABLE app_users (id TEXT PRIMARY KEY, name TEXT)",
		"INSERT INTO app_users (id, name) VALUES ('u1', 'Edith')",
	}
	for _, stmt := range stmts {
		if _, err := store.db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
	return store
}

func TestStoreFetchMany(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.FetchMany(context.Background(), "comments", []any{1, 3})
	if err != nil {
		t.Fatalf("fetch many: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %v", rows)
	}
	titles := make(map[any]any, len(rows))
	for _, row := range rows {
		titles[row["id"]] = row["title"]
	}
	if titles[int64(1)] != "first" || titles[int64(3)] != "third" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	if rows, err := store.FetchMany(context.Background(), "comments", nil); err != nil || rows != nil {
		t.Fatalf("expected no-op for empty id set, got %v / %v", rows, err)
	}
}

func TestStoreFetchField(t *testing.T) {
	store := newTestStore(t)

	value, err := store.FetchField(context.Background(), "comments", 2, "title")
	if err != nil {
		t.Fatalf("fetch field: %v", err)
	}
	if value != "second" {
		t.Fatalf("expected 'second', got %v", value)
	}

	if _, err := store.FetchField(context.Background(), "comments", 99, "title"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing row, got %v", err)
	}
}

// TestStoreUsersAlias verifies the users collection alias reads from its
// configured backing table.
func TestStoreUsersAlias(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.FetchMany(context.Background(), "users", []any{"u1"})
	if err != nil {
		t.Fatalf("fetch users: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Edith" {
		t.Fatalf("expected the app_users row, got %v", rows)
	}
}

func TestDialectInExpr(t *testing.T) {
	lite := NewDialect("sqlite")
	pb := lite.NewParamBuilder()
	if expr := lite.InExpr("id", pb, []any{1, 2}); expr != "id IN (?1, ?2)" {
		t.Fatalf("unexpected sqlite IN expression: %s", expr)
	}
	if len(pb.Params()) != 2 {
		t.Fatalf("expected expanded params, got %v", pb.Params())
	}

	pg := NewDialect("postgres")
	pb = pg.NewParamBuilder()
	if expr := pg.InExpr("id", pb, []any{1, 2}); expr != "id = ANY($1)" {
		t.Fatalf("unexpected postgres IN expression: %s", expr)
	}
	if len(pb.Params()) != 1 {
		t.Fatalf("expected single array param, got %v", pb.Params())
	}
}
