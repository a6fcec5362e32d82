package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/internal/log"
)

var logger = log.For("backend")

func unsupportedEngine(engine string) error {
	return errs.New(errs.InvalidConfig, "unsupported backend engine %q", engine)
}

// sqlCore is the shared database/sql-based implementation behind both the
// DuckDB and SQLite backends; engine-specific quirks are isolated to the
// driver name and the schema mapper's type-name normalization.
type sqlCore struct {
	db         *sql.DB
	engineName string
	spatialLoaded bool
}

func (c *sqlCore) Engine() string { return c.engineName }

func (c *sqlCore) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return errs.Wrap(err, errs.ConnectionClosed, "closing %s connection", c.engineName)
	}
	return nil
}

func (c *sqlCore) Execute(ctx context.Context, query string, args ...any) (*frame.Frame, error) {
	if c.db == nil {
		return nil, errs.New(errs.ConnectionClosed, "connection is closed")
	}
	logger.WithField("engine", c.engineName).Debugf("execute: %s", query)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "executing query")
	}
	defer rows.Close()
	fr, err := rowsToFrame(rows)
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "reading query results")
	}
	return fr, nil
}

func (c *sqlCore) ReadTable(ctx context.Context, name string, opts ReadTableOptions) (*frame.Frame, error) {
	exists, err := c.TableExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.New(errs.MissingTable, "table %q does not exist", name)
	}
	cols := "*"
	if len(opts.Columns) > 0 {
		cols = strings.Join(opts.Columns, ", ")
	}
	q := fmt.Sprintf("SELECT %s FROM %s", cols, name)
	args := append([]any(nil), opts.WhereArgs...)
	if opts.Where != "" {
		q += " WHERE " + opts.Where
	}
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	return c.Execute(ctx, q, args...)
}

func (c *sqlCore) TableExists(ctx context.Context, name string) (bool, error) {
	var q string
	switch c.engineName {
	case "duckdb":
		q = "SELECT count(*) FROM information_schema.tables WHERE table_name = ?"
	default: // sqlite
		q = "SELECT count(*) FROM sqlite_master WHERE type='table' AND name = ?"
	}
	var n int
	if err := c.db.QueryRowContext(ctx, q, name).Scan(&n); err != nil {
		return false, errs.Wrap(err, errs.QueryError, "checking table existence for %q", name)
	}
	return n > 0, nil
}

func (c *sqlCore) Schema(ctx context.Context, name string) (map[string]string, error) {
	exists, err := c.TableExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.New(errs.MissingTable, "table %q does not exist", name)
	}
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", name))
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "reading schema for %q", name)
	}
	defer rows.Close()
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "reading column types for %q", name)
	}
	out := make(map[string]string, len(types))
	for _, t := range types {
		out[strings.ToUpper(t.Name())] = NormalizeTypeName(t.DatabaseTypeName())
	}
	return out, nil
}

// rowsToFrame materializes a *sql.Rows result into a columnar Frame,
// inferring each column's Kind from the driver-reported type and coercing
// every value of that column into the matching typed slice.
func rowsToFrame(rows *sql.Rows) (*frame.Frame, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	kinds := make([]frame.Kind, len(cols))
	for i, t := range types {
		kinds[i] = kindForSQLType(NormalizeTypeName(t.DatabaseTypeName()))
	}

	floatCols := make([][]float64, len(cols))
	intCols := make([][]int64, len(cols))
	strCols := make([][]string, len(cols))
	boolCols := make([][]bool, len(cols))

	scanDest := make([]any, len(cols))
	raw := make([]sql.NullString, len(cols))
	for i := range raw {
		scanDest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return nil, err
		}
		for i, kind := range kinds {
			v := raw[i]
			switch kind {
			case frame.Float64:
				floatCols[i] = append(floatCols[i], parseFloatOrZero(v))
			case frame.Int64:
				intCols[i] = append(intCols[i], parseIntOrZero(v))
			case frame.Bool:
				boolCols[i] = append(boolCols[i], v.String == "1" || strings.EqualFold(v.String, "true"))
			default:
				strCols[i] = append(strCols[i], v.String)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns := make(map[string]frame.Column, len(cols))
	order := make([]string, len(cols))
	for i, name := range cols {
		upper := strings.ToUpper(name)
		order[i] = upper
		switch kinds[i] {
		case frame.Float64:
			columns[upper] = frame.NewFloat64Column(floatCols[i])
		case frame.Int64:
			columns[upper] = frame.NewInt64Column(intCols[i])
		case frame.Bool:
			columns[upper] = frame.NewBoolColumn(boolCols[i])
		default:
			columns[upper] = frame.NewStringColumn(strCols[i])
		}
	}
	return frame.New(order, columns), nil
}

func kindForSQLType(norm string) frame.Kind {
	switch norm {
	case "DOUBLE", "FLOAT", "DECIMAL", "NUMERIC", "REAL":
		return frame.Float64
	case "BIGINT", "INTEGER", "SMALLINT", "TINYINT":
		return frame.Int64
	case "BOOLEAN":
		return frame.Bool
	default:
		return frame.String
	}
}

func parseFloatOrZero(v sql.NullString) float64 {
	if !v.Valid || v.String == "" {
		return 0
	}
	var f float64
	_, _ = fmt.Sscanf(v.String, "%g", &f)
	return f
}

func parseIntOrZero(v sql.NullString) int64 {
	if !v.Valid || v.String == "" {
		return 0
	}
	var n int64
	_, _ = fmt.Sscanf(v.String, "%d", &n)
	return n
}
