package fetch

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	_ "modernc.org/sqlite"             // Register sqlite as database/sql driver

	"go.uber.org/zap"

	"deepview/config"
)

// Store is a SQL-backed Fetcher. Collection names map directly onto table
// names, except the configured users collection which is served from its own
// table regardless of the collection alias used by callers.
type Store struct {
	db         *sql.DB
	dialect    Dialect
	usersAlias string
	usersTable string
	log        *zap.SugaredLogger
}

func NewStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.SugaredLogger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	dialect := NewDialect(driver)

	db, err := sql.Open(dialect.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "postgres" {
		if cfg.PoolSize > 0 {
			db.SetMaxOpenConns(cfg.PoolSize)
		}
	} else if driver == "sqlite" {
		// SQLite: single writer, WAL mode for concurrent reads
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{
		db:         db,
		dialect:    dialect,
		usersAlias: cfg.UsersCollection,
		usersTable: cfg.UsersTable,
		log:        logger,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) FetchMany(ctx context.Context, collection string, ids []any) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pb := s.dialect.NewParamBuilder()
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s",
		s.tableFor(collection), s.dialect.InExpr("id", pb, ids))

	rows, err := queryRows(ctx, s.db, query, pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}
	s.log.Debugw("fetched records", "collection", collection, "requested", len(ids), "returned", len(rows))
	return rows, nil
}

func (s *Store) FetchField(ctx context.Context, collection string, id any, field string) (any, error) {
	pb := s.dialect.NewParamBuilder()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = %s",
		field, s.tableFor(collection), pb.Add(id))

	rows, err := queryRows(ctx, s.db, query, pb.Params()...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s.%s: %w", collection, field, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fetch %s.%s: %w", collection, field, ErrNotFound)
	}
	return rows[0][field], nil
}

func (s *Store) tableFor(collection string) string {
	if s.usersAlias != "" && collection == s.usersAlias && s.usersTable != "" {
		return s.usersTable
	}
	return collection
}

// queryRows executes a query and returns results as []map[string]any.
func queryRows(ctx context.Context, db *sql.DB, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return results, nil
}

// normalizeValue converts database-specific types to JSON-serializable Go types.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		// database/sql often returns []byte for TEXT columns
		s := string(val)
		if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
		return s
	default:
		return v
	}
}
