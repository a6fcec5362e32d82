package backend

import (
	"context"
	"database/sql"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/mihiarc/gofia/errs"
)

func openDuckDB(path string) (Db, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "opening duckdb database %q", path)
	}
	if err := db.Ping(); err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "connecting to duckdb database %q", path)
	}
	return &duckDB{sqlCore: sqlCore{db: db, engineName: "duckdb"}}, nil
}

// duckDB is the DuckDB-class columnar backend. It is the only backend that
// can load the spatial extension for clip_by_polygon (spec.md §4.4, §6).
type duckDB struct {
	sqlCore
}

// LoadSpatialExtension installs and loads DuckDB's `spatial` extension,
// idempotently: a second call is a no-op.
func (d *duckDB) LoadSpatialExtension(ctx context.Context) error {
	if d.spatialLoaded {
		return nil
	}
	if _, err := d.db.ExecContext(ctx, "INSTALL spatial; LOAD spatial;"); err != nil {
		return errs.Wrap(err, errs.SpatialExtensionErr, "loading duckdb spatial extension")
	}
	d.spatialLoaded = true
	return nil
}
