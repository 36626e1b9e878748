// Package fetch defines the record-read contract the resolution engine
// depends on, plus an HTTP client and a SQL store implementation of it.
package fetch

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Fetcher reads related records on behalf of the engine. Implementations own
// retry policy; the engine performs no retries of its own.
type Fetcher interface {
	// FetchMany returns the full records with the given ids from a
	// collection. Unknown ids are simply absent from the result.
	FetchMany(ctx context.Context, collection string, ids []any) ([]map[string]any, error)

	// FetchField returns a single field's value from one record. Returns
	// ErrNotFound when the record does not exist.
	FetchField(ctx context.Context, collection string, id any, field string) (any, error)
}
