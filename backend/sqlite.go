package backend

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mihiarc/gofia/errs"
)

func openSQLite(path string) (Db, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "opening sqlite database %q", path)
	}
	if err := db.Ping(); err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "connecting to sqlite database %q", path)
	}
	return &sqliteDB{sqlCore: sqlCore{db: db, engineName: "sqlite"}}, nil
}

// sqliteDB is the SQLite fallback backend, used for smaller extracts or
// environments without a DuckDB build available. It has no spatial
// extension, so LoadSpatialExtension always fails fast.
type sqliteDB struct {
	sqlCore
}

func (s *sqliteDB) LoadSpatialExtension(ctx context.Context) error {
	return errs.New(errs.SpatialExtensionErr, "sqlite backend has no spatial extension; use the duckdb engine for clip_by_polygon")
}
