// Package backend implements C4: a small Db interface presenting the same
// contract over two storage engines (DuckDB-class columnar, and SQLite),
// returning columnar Frames from parameterized queries — binds are always
// used, never string interpolation.
package backend

import (
	"context"

	"github.com/mihiarc/gofia/internal/frame"
)

// ReadTableOptions restricts ReadTable's projection/predicate/row cap.
type ReadTableOptions struct {
	Columns   []string
	Where     string // a parameterized fragment, e.g. "STATECD = ?"
	WhereArgs []any
	Limit     int
}

// Db is the columnar backend contract implemented by both the DuckDB-class
// engine and SQLite (spec.md §4.4).
type Db interface {
	// Execute runs a parameterized query and returns a columnar Frame.
	Execute(ctx context.Context, query string, args ...any) (*frame.Frame, error)
	// ReadTable reads a table (optionally projected/filtered/limited).
	ReadTable(ctx context.Context, name string, opts ReadTableOptions) (*frame.Frame, error)
	// TableExists reports whether name exists in the database.
	TableExists(ctx context.Context, name string) (bool, error)
	// Schema returns the normalized column name -> type mapping for name.
	Schema(ctx context.Context, name string) (map[string]string, error)
	// LoadSpatialExtension loads the spatial extension, idempotently. Only
	// the DuckDB-class engine actually supports spatial predicates;
	// SQLite's implementation returns SpatialExtensionError.
	LoadSpatialExtension(ctx context.Context) error
	// Engine names the concrete backend ("duckdb" or "sqlite").
	Engine() string
	// Close releases the underlying connection.
	Close() error
}

// Open opens a Db of the requested engine ("duckdb" by default, or
// "sqlite"). An empty engine string selects "duckdb", matching the source's
// default columnar engine.
func Open(path string, engine string) (Db, error) {
	switch engine {
	case "", "duckdb":
		return openDuckDB(path)
	case "sqlite":
		return openSQLite(path)
	default:
		return nil, unsupportedEngine(engine)
	}
}
