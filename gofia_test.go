package gofia

import (
	"context"
	"testing"

	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/errs"
)

// seedGeorgiaFixture builds a minimal single-plot, single-tree evaluation
// (EVALID 132301, statewide "current" forest evaluation for STATECD 13)
// large enough to exercise the full plot->stratum->condition->tree join
// without claiming to reproduce the published parity numbers.
func seedGeorgiaFixture(t *testing.T, d *Db) {
	t.Helper()
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE POP_EVAL (CN TEXT, EVALID INTEGER, EVAL_DESCR TEXT, LOCATION_NM TEXT, END_INVYR INTEGER, STATECD INTEGER)`,
		`CREATE TABLE POP_EVAL_TYP (EVAL_CN TEXT, EVAL_TYP TEXT)`,
		`CREATE TABLE POP_PLOT_STRATUM_ASSGN (CN TEXT, PLT_CN TEXT, EVALID INTEGER, STRATUM_CN TEXT)`,
		`CREATE TABLE POP_STRATUM (CN TEXT, EVALID INTEGER, ESTN_UNIT INTEGER, STRATUMCD INTEGER, EXPNS REAL, P1POINTCNT INTEGER, P2POINTCNT INTEGER, ADJ_FACTOR_SUBP REAL, ADJ_FACTOR_MICR REAL, ADJ_FACTOR_MACR REAL, STATECD INTEGER)`,
		`CREATE TABLE PLOT (CN TEXT, STATECD INTEGER, COUNTYCD INTEGER, PLOT INTEGER, INVYR INTEGER, LAT REAL, LON REAL, REMPER REAL, MACRO_BREAKPOINT_DIA REAL)`,
		`CREATE TABLE COND (CN TEXT, PLT_CN TEXT, CONDID INTEGER, COND_STATUS_CD INTEGER, CONDPROP_UNADJ REAL, PROP_BASIS TEXT, FORTYPCD INTEGER, OWNGRPCD INTEGER, SITECLCD INTEGER, RESERVCD INTEGER, STDSZCD INTEGER)`,
		`CREATE TABLE TREE (CN TEXT, PLT_CN TEXT, CONDID INTEGER, SUBP INTEGER, TREE INTEGER, SPCD INTEGER, DIA REAL, STATUSCD INTEGER, TPA_UNADJ REAL, DRYBIO_AG REAL, CARBON_AG REAL, VOLCFNET REAL, HT REAL)`,
	}
	for _, s := range stmts {
		if _, err := d.backend.Execute(ctx, s); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	inserts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO POP_EVAL VALUES (?, ?, ?, ?, ?, ?)`, []any{"E1", 132301, "GEORGIA CURRENT", "ENTIRE STATE", 2023, 13}},
		{`INSERT INTO POP_EVAL_TYP VALUES (?, ?)`, []any{"E1", "EXPCURR"}},
		{`INSERT INTO POP_PLOT_STRATUM_ASSGN VALUES (?, ?, ?, ?)`, []any{"A1", "P1", 132301, "S1"}},
		{`INSERT INTO POP_STRATUM VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, []any{"S1", 132301, 1, 1, 6000.0, 1, 1, 1.0, 1.0, 1.0, 13}},
		{`INSERT INTO PLOT VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, []any{"P1", 13, 1, 1, 2023, 33.0, -83.0, 5.0, 24.0}},
		{`INSERT INTO COND VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, []any{"C1", "P1", 1, 1, 1.0, "SUBP", 161, 10, 3, 0, 1}},
		{`INSERT INTO TREE VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, []any{"T1", "P1", 1, 1, 1, 131, 10.0, 1, 6.0, 2000.0, 940.0, 20.0, 60.0}},
	}
	for _, ins := range inserts {
		if _, err := d.backend.Execute(ctx, ins.q, ins.args...); err != nil {
			t.Fatalf("seed %q: %v", ins.q, err)
		}
	}
}

func openFixture(t *testing.T) *Db {
	t.Helper()
	d, err := Open(":memory:", "sqlite")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	seedGeorgiaFixture(t, d)
	return d
}

func TestClipByStateThenAreaResolvesEvalidAutomatically(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipByState(13); err != nil {
		t.Fatalf("ClipByState: %v", err)
	}

	fr, err := Area(context.Background(), d, config.DefaultAreaConfig())
	if err != nil {
		t.Fatalf("Area: %v", err)
	}
	if fr.NRows() != 1 {
		t.Fatalf("expected 1 row, got %d", fr.NRows())
	}
	total, ok := fr.Col("AREA_TOTAL")
	if !ok {
		t.Fatalf("missing AREA_TOTAL column")
	}
	if total.AtFloat64(0) <= 0 {
		t.Errorf("AREA_TOTAL = %v, want > 0", total.AtFloat64(0))
	}
	nPlots, _ := fr.Col("N_PLOTS")
	if int(nPlots.AtFloat64(0)) != 1 {
		t.Errorf("N_PLOTS = %v, want 1", nPlots.AtFloat64(0))
	}
}

func TestClipByEvalidThenTPA(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipByEvalid(context.Background(), 132301); err != nil {
		t.Fatalf("ClipByEvalid: %v", err)
	}

	fr, err := TPA(context.Background(), d, config.DefaultBase())
	if err != nil {
		t.Fatalf("TPA: %v", err)
	}
	if fr.NRows() != 1 {
		t.Fatalf("expected 1 row, got %d", fr.NRows())
	}
}

func TestClipByEvalidTwiceIsNoOp(t *testing.T) {
	d := openFixture(t)
	ctx := context.Background()
	if err := d.ClipByEvalid(ctx, 132301); err != nil {
		t.Fatalf("first ClipByEvalid: %v", err)
	}
	first := append([]int{}, d.evalids...)
	if err := d.ClipByEvalid(ctx, 132301); err != nil {
		t.Fatalf("second ClipByEvalid: %v", err)
	}
	if len(d.evalids) != len(first) || d.evalids[0] != first[0] {
		t.Errorf("clip_by_evalid([x]) twice changed state: %v -> %v", first, d.evalids)
	}
}

func TestClipMostRecentRequiresStateFirst(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipMostRecent(context.Background(), "area"); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig, got %v", err)
	}
}

func TestClipByPolygonRequiresPriorClip(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipByPolygon(context.Background(), "region.geojson", "intersects"); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig, got %v", err)
	}
}

func TestClipByPolygonInvalidPredicate(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipByEvalid(context.Background(), 132301); err != nil {
		t.Fatalf("ClipByEvalid: %v", err)
	}
	if err := d.ClipByPolygon(context.Background(), "region.geojson", "overlaps"); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig for bad predicate, got %v", err)
	}
}

func TestEvalidsForWithNoClipAndNoStateFails(t *testing.T) {
	d := openFixture(t)
	if _, err := Area(context.Background(), d, config.DefaultAreaConfig()); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig, got %v", err)
	}
}

func TestGrowthRejectsUnimplementedGrowthType(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipByEvalid(context.Background(), 132301); err != nil {
		t.Fatalf("ClipByEvalid: %v", err)
	}
	cfg := config.DefaultGrowthConfig()
	cfg.GrowthType = "gross"
	if _, err := Growth(context.Background(), d, cfg); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig for growth_type=gross, got %v", err)
	}
}

func TestCarbonDefaultAndAgPlusBgMethods(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipByEvalid(context.Background(), 132301); err != nil {
		t.Fatalf("ClipByEvalid: %v", err)
	}

	agFraction, err := Carbon(context.Background(), d, config.DefaultCarbonConfig())
	if err != nil {
		t.Fatalf("Carbon(ag_fraction): %v", err)
	}
	col, ok := agFraction.Col("CARBON_AG_TOTAL")
	if !ok || col.AtFloat64(0) <= 0 {
		t.Errorf("CARBON_AG_TOTAL missing or non-positive: %v %v", ok, col)
	}

	cfg := config.DefaultCarbonConfig()
	cfg.Method = "ag_plus_bg"
	agPlusBg, err := Carbon(context.Background(), d, cfg)
	if err != nil {
		t.Fatalf("Carbon(ag_plus_bg): %v", err)
	}
	if _, ok := agPlusBg.Col("CARBON_TOTAL_TOTAL"); !ok {
		t.Errorf("expected CARBON_TOTAL_TOTAL column for ag_plus_bg method")
	}
}

func TestAreaBasisForestOverridesLandType(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipByEvalid(context.Background(), 132301); err != nil {
		t.Fatalf("ClipByEvalid: %v", err)
	}

	cfg := config.DefaultAreaConfig()
	cfg.AreaBasis = "forest"
	fr, err := Area(context.Background(), d, cfg)
	if err != nil {
		t.Fatalf("Area(area_basis=forest): %v", err)
	}
	total, _ := fr.Col("AREA_TOTAL")
	if total.AtFloat64(0) <= 0 {
		t.Errorf("expected forested fixture plot to contribute area, got %v", total.AtFloat64(0))
	}

	bad := config.DefaultAreaConfig()
	bad.AreaBasis = "bogus"
	if _, err := Area(context.Background(), d, bad); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig for bad area_basis, got %v", err)
	}
}

func TestMortalityRejectsLiveTreeType(t *testing.T) {
	d := openFixture(t)
	if err := d.ClipByEvalid(context.Background(), 132301); err != nil {
		t.Fatalf("ClipByEvalid: %v", err)
	}
	cfg := config.DefaultMortalityConfig()
	cfg.Base.TreeType = "live"
	if _, err := Mortality(context.Background(), d, cfg); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig for tree_type=live mortality, got %v", err)
	}
}
