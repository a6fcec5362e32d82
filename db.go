// Package gofia is the module's small top-level convenience API: open a
// backend, narrow it to an evaluation with the clip_by_* family, then call
// an estimator. It wires together evalid, query, estimate, and grm rather
// than adding any new estimation logic of its own (spec.md §6).
package gofia

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/evalid"
	"github.com/mihiarc/gofia/internal/log"
)

var logger = log.For("gofia")

// Db wraps a backend.Db with the clip_by_* narrowing state every estimator
// call reads: a resolved EVALID list and the state/county scope it came
// from. It is not safe for concurrent clip_by_* mutation from multiple
// goroutines, matching the source's single-owner connection policy
// (spec.md §5's "Shared resource policy").
type Db struct {
	backend backend.Db
	stateCD int
	evalids []int
}

// Open opens a Db of the requested engine ("duckdb" by default, or
// "sqlite"). An empty path falls back to PYFIA_DATABASE_PATH or
// PYFIA_DUCKDB_PATH (spec.md §6's "Environment" section).
func Open(path string, engine string) (*Db, error) {
	if path == "" {
		path = defaultPath()
	}
	b, err := backend.Open(path, engine)
	if err != nil {
		return nil, err
	}
	return &Db{backend: b}, nil
}

func defaultPath() string {
	if p := os.Getenv("PYFIA_DATABASE_PATH"); p != "" {
		return p
	}
	return os.Getenv("PYFIA_DUCKDB_PATH")
}

// Close releases the underlying connection.
func (d *Db) Close() error { return d.backend.Close() }

// Engine names the concrete backend ("duckdb" or "sqlite").
func (d *Db) Engine() string { return d.backend.Engine() }

// ClipByState narrows subsequent estimator calls to a state. Only the first
// state code given is used; any further codes are ignored. It clears any
// prior clip_by_evalid override, matching the source's "the most specific
// clip wins" rule.
func (d *Db) ClipByState(stateCDs ...int) error {
	if len(stateCDs) == 0 {
		return errs.New(errs.InvalidConfig, "clip_by_state requires at least one state code")
	}
	d.stateCD = stateCDs[0]
	d.evalids = nil
	return nil
}

// ClipByEvalid narrows subsequent estimator calls to an explicit EVALID
// set, bypassing evalid.Resolve's recommendation steps (spec.md §4.5).
// Calling it twice with the same ids is a no-op (spec.md §8's round-trip
// invariant).
func (d *Db) ClipByEvalid(ctx context.Context, evalids ...int) error {
	if len(evalids) == 0 {
		return errs.New(errs.InvalidConfig, "clip_by_evalid requires at least one EVALID")
	}
	if err := evalid.Validate(ctx, d.backend, evalids); err != nil {
		return err
	}
	d.evalids = evalids
	return nil
}

// ClipMostRecent resolves and clips to the single recommended EVALID for
// evalType ("area", "volume", "growth", ...) within the state already narrowed
// by ClipByState (spec.md §4.15).
func (d *Db) ClipMostRecent(ctx context.Context, evalType string) error {
	if d.stateCD == 0 {
		return errs.New(errs.InvalidConfig, "clip_most_recent requires clip_by_state first")
	}
	res, err := evalid.Resolve(ctx, d.backend, d.stateCD, evalType)
	if err != nil {
		return err
	}
	logger.Debug(res.Explanation)
	d.evalids = []int{res.Evalid}
	return nil
}

// ClipByPolygon loads the backend's spatial extension and narrows the
// current EVALID list to the evaluations that have at least one plot whose
// LAT/LON satisfies predicate ("intersects" or "within") against the
// geometries in path (spec.md §4.5, §6). The plots of a retained evaluation
// are not themselves filtered: later estimator calls still use all of its
// plots. It requires a prior clip_by_evalid or clip_most_recent to know
// which EVALID's plots to test; clip_by_state alone sets no EVALID.
func (d *Db) ClipByPolygon(ctx context.Context, path string, predicate string) error {
	if len(d.evalids) == 0 {
		return errs.New(errs.InvalidConfig, "clip_by_polygon requires a prior clip_by_evalid or clip_most_recent")
	}
	op, err := spatialOp(predicate)
	if err != nil {
		return err
	}
	if err := d.backend.LoadSpatialExtension(ctx); err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return errs.Wrap(err, errs.InvalidPath, "spatial file %q not readable", path)
	}

	query := fmt.Sprintf(`
SELECT DISTINCT a.EVALID AS EVALID
FROM PLOT p
JOIN POP_PLOT_STRATUM_ASSGN a ON a.PLT_CN = p.CN
WHERE a.EVALID IN (%s)
  AND %s(ST_Point(p.LON, p.LAT), (SELECT ST_Union_Agg(geom) FROM ST_Read(?)))`,
		placeholders(len(d.evalids)), op)

	args := make([]any, 0, len(d.evalids)+1)
	for _, e := range d.evalids {
		args = append(args, e)
	}
	args = append(args, path)

	fr, err := d.backend.Execute(ctx, query, args...)
	if err != nil {
		return errs.WithStage(err, "gofia.ClipByPolygon")
	}
	if fr.NRows() == 0 {
		return errs.New(errs.NoSpatialFilter, "clip_by_polygon(%s) matched no plots in %s", path, strings.Join(intsToStrings(d.evalids), ","))
	}
	col, _ := fr.Col("EVALID")
	matched := make([]int, fr.NRows())
	for i := range matched {
		matched[i] = int(col.AtFloat64(i))
	}
	d.evalids = matched
	return nil
}

func spatialOp(predicate string) (string, error) {
	switch predicate {
	case "intersects":
		return "ST_Intersects", nil
	case "within":
		return "ST_Within", nil
	default:
		return "", errs.New(errs.InvalidConfig, "clip_by_polygon predicate: invalid value %q", predicate)
	}
}

func placeholders(n int) string {
	return strings.TrimRight(strings.Repeat("?,", n), ",")
}

func intsToStrings(xs []int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = fmt.Sprintf("%d", x)
	}
	return out
}

// evalidsFor resolves the EVALID list an estimator call should use: the
// explicit clip state if set, otherwise evalid.Resolve against metric's
// required eval type family (spec.md §4.5 steps 1-2).
func (d *Db) evalidsFor(ctx context.Context, metric string) ([]int, error) {
	if len(d.evalids) > 0 {
		return d.evalids, nil
	}
	if d.stateCD == 0 {
		return nil, errs.New(errs.InvalidConfig, "no evaluation selected: call clip_by_state, clip_by_evalid, or clip_most_recent first")
	}
	res, err := evalid.Resolve(ctx, d.backend, d.stateCD, metric)
	if err != nil {
		return nil, err
	}
	return []int{res.Evalid}, nil
}
