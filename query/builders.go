package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/validate"
	"golang.org/x/sync/errgroup"
)

// toSQL renders a Plan's projection and push-down-eligible filters as a
// single-table SELECT against table, returning the bind arguments in filter
// order. Non-push-down filters (e.g. a compound OR) are never rendered here;
// callers apply those against the materialized Frame instead.
func (p *Plan) toSQL(table string) (string, []any) {
	cols := "*"
	if len(p.Columns) > 0 {
		names := make([]string, len(p.Columns))
		for i, c := range p.Columns {
			names[i] = c.Name
		}
		cols = strings.Join(names, ", ")
	}
	q := fmt.Sprintf("SELECT %s FROM %s", cols, table)
	var args []any
	var clauses []string
	for _, f := range p.Filters {
		if !f.CanPushDown {
			continue
		}
		clause, fargs := filterSQL(f)
		clauses = append(clauses, clause)
		args = append(args, fargs...)
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	if len(p.GroupBy) > 0 {
		q += " GROUP BY " + strings.Join(p.GroupBy, ", ")
	}
	return q, args
}

func filterSQL(f Filter) (string, []any) {
	op := f.Op
	if op == "==" {
		op = "="
	}
	switch op {
	case "BETWEEN":
		vals, _ := f.Value.([]any)
		if len(vals) != 2 {
			return "1=1", nil
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", f.Column), vals
	case "IN":
		vals, _ := f.Value.([]any)
		placeholders := strings.TrimRight(strings.Repeat("?,", len(vals)), ",")
		return fmt.Sprintf("%s IN (%s)", f.Column, placeholders), vals
	case "IS NULL", "IS NOT NULL":
		return fmt.Sprintf("%s %s", f.Column, op), nil
	default:
		return fmt.Sprintf("%s %s ?", f.Column, op), []any{f.Value}
	}
}

// Execute runs the plan's generated SQL against db and returns the resulting
// Frame. Any non-push-down filter is then applied row-by-row against the
// result (spec.md §4.6's "push down what is safe, evaluate the rest").
func (p *Plan) Execute(ctx context.Context, db backend.Db, table string) (*frame.Frame, error) {
	q, args := p.toSQL(table)
	fr, err := db.Execute(ctx, q, args...)
	if err != nil {
		return nil, errs.WithStage(err, "query.Plan.Execute")
	}
	for _, f := range p.Filters {
		text, isText := f.Value.(string)
		if f.CanPushDown || !isText {
			continue
		}
		expr, err := validate.ParseDomain(text)
		if err != nil {
			return nil, errs.WithStage(err, "query.Plan.Execute")
		}
		pred, mask := validate.CompileColumnar(expr), make([]bool, fr.NRows())
		for i := range mask {
			mask[i] = pred(fr, i)
		}
		fr = fr.Filter(mask)
	}
	return fr, nil
}

func inValues[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// StratificationParams selects POP_STRATUM rows for a set of evaluations.
type StratificationParams struct {
	Evalid                   []int
	StateCD                  int // 0 means unfiltered
	IncludeAdjustmentFactors bool
}

var stratificationBaseColumns = []string{
	"CN", "EVALID", "ESTN_UNIT", "STRATUMCD", "EXPNS", "P1POINTCNT", "P2POINTCNT",
}

var stratificationAdjColumns = []string{"ADJ_FACTOR_SUBP", "ADJ_FACTOR_MICR", "ADJ_FACTOR_MACR"}

// BuildStratification builds the plan for the POP_STRATUM scan (spec.md
// §4.9's adjustment-factor source, and §4.11's per-stratum expansion input).
func BuildStratification(p StratificationParams) *Plan {
	plan := NewPlan()
	plan.AddTable("POP_STRATUM")
	cols := stratificationBaseColumns
	if p.IncludeAdjustmentFactors {
		cols = append(append([]string{}, cols...), stratificationAdjColumns...)
	}
	for _, c := range cols {
		plan.AddColumn(Column{Name: c, Table: "POP_STRATUM", Required: true})
	}
	if len(p.Evalid) > 0 {
		vals := inValues(p.Evalid)
		plan.AddFilter(Filter{Column: "EVALID", Op: "IN", Value: vals, CanPushDown: true})
	}
	if p.StateCD != 0 {
		plan.AddFilter(Filter{Column: "STATECD", Op: "==", Value: p.StateCD, CanPushDown: true})
	}
	plan.FilterSelectivity = combinedSelectivity(plan.Filters)
	return plan
}

// TreeParams selects and filters TREE rows for a tree-level scan.
type TreeParams struct {
	TreeDomain       string
	SPCD             []int
	DiaMin, DiaMax   *float64
	ExcludeSeedlings bool
	ExtraColumns     []string
}

var treeBaseColumns = []string{
	"CN", "PLT_CN", "CONDID", "SUBP", "TREE", "SPCD", "DIA", "STATUSCD",
	"TPA_UNADJ", "DRYBIO_AG", "CARBON_AG", "VOLCFNET", "HT",
}

// BuildTree builds the plan for the TREE scan (spec.md §4.6's tree builder:
// parses tree_domain, applies species/diameter filters, always projects the
// tree-basis-adjustment inputs).
func BuildTree(p TreeParams) (*Plan, error) {
	plan := NewPlan()
	plan.AddTable("TREE")
	cols := append([]string{}, treeBaseColumns...)
	cols = append(cols, p.ExtraColumns...)
	seen := map[string]bool{}
	for _, c := range cols {
		if seen[c] {
			continue
		}
		seen[c] = true
		plan.AddColumn(Column{Name: c, Table: "TREE", Required: true})
	}
	if p.TreeDomain != "" {
		domainFilters, err := ParseFilterText(p.TreeDomain)
		if err != nil {
			return nil, err
		}
		for _, f := range domainFilters {
			f.Table = "TREE"
			plan.AddFilter(f)
		}
	}
	if len(p.SPCD) > 0 {
		plan.AddFilter(Filter{Column: "SPCD", Op: "IN", Value: inValues(p.SPCD), CanPushDown: true})
	}
	if p.DiaMin != nil && p.DiaMax != nil {
		plan.AddFilter(Filter{Column: "DIA", Op: "BETWEEN", Value: []any{*p.DiaMin, *p.DiaMax}, CanPushDown: true})
	} else if p.DiaMin != nil {
		plan.AddFilter(Filter{Column: "DIA", Op: ">=", Value: *p.DiaMin, CanPushDown: true})
	} else if p.DiaMax != nil {
		plan.AddFilter(Filter{Column: "DIA", Op: "<=", Value: *p.DiaMax, CanPushDown: true})
	}
	if p.ExcludeSeedlings {
		plan.AddFilter(Filter{Column: "DIA", Op: "IS NOT NULL", CanPushDown: true})
	}
	plan.FilterSelectivity = combinedSelectivity(plan.Filters)
	return plan, nil
}

// ConditionParams selects and filters COND rows for a condition-level scan.
type ConditionParams struct {
	AreaDomain       string
	ForestTypeGroups []int
	OwnGroups        []int
	ReservedOnly     *bool
	ExtraColumns     []string
}

var conditionBaseColumns = []string{
	"CN", "PLT_CN", "CONDID", "COND_STATUS_CD", "CONDPROP_UNADJ", "PROP_BASIS",
	"FORTYPCD", "OWNGRPCD", "SITECLCD", "RESERVCD", "STDSZCD",
}

// BuildCondition builds the plan for the COND scan (spec.md §4.6's condition
// builder: parses area_domain, applies forest-type-group/ownership/reserved
// filters as domain indicators, never row-dropping filters at this stage).
func BuildCondition(p ConditionParams) (*Plan, error) {
	plan := NewPlan()
	plan.AddTable("COND")
	cols := append([]string{}, conditionBaseColumns...)
	cols = append(cols, p.ExtraColumns...)
	seen := map[string]bool{}
	for _, c := range cols {
		if seen[c] {
			continue
		}
		seen[c] = true
		plan.AddColumn(Column{Name: c, Table: "COND", Required: true})
	}
	if p.AreaDomain != "" {
		domainFilters, err := ParseFilterText(p.AreaDomain)
		if err != nil {
			return nil, err
		}
		for _, f := range domainFilters {
			f.Table = "COND"
			plan.AddFilter(f)
		}
	}
	if len(p.ForestTypeGroups) > 0 {
		plan.AddFilter(Filter{Column: "FORTYPCD", Op: "IN", Value: inValues(p.ForestTypeGroups), CanPushDown: true})
	}
	if len(p.OwnGroups) > 0 {
		plan.AddFilter(Filter{Column: "OWNGRPCD", Op: "IN", Value: inValues(p.OwnGroups), CanPushDown: true})
	}
	if p.ReservedOnly != nil {
		want := 0
		if *p.ReservedOnly {
			want = 1
		}
		plan.AddFilter(Filter{Column: "RESERVCD", Op: "==", Value: want, CanPushDown: true})
	}
	plan.FilterSelectivity = combinedSelectivity(plan.Filters)
	return plan, nil
}

// PlotParams selects PLOT rows, optionally inner-joined to their stratum
// assignment.
type PlotParams struct {
	Evalid        []int
	StateCD       []int
	CountyCD      []int
	IncludeStrata bool
}

var plotBaseColumns = []string{"CN", "STATECD", "COUNTYCD", "PLOT", "INVYR", "LAT", "LON", "REMPER", "MACRO_BREAKPOINT_DIA"}

// BuildPlot builds the plan for the PLOT scan, adding the
// POP_PLOT_STRATUM_ASSGN inner join when IncludeStrata is set (spec.md
// §4.6's plot builder, and §4.7's hash-join rule over PLT_CN).
func BuildPlot(p PlotParams) *Plan {
	plan := NewPlan()
	plan.AddTable("PLOT")
	for _, c := range plotBaseColumns {
		plan.AddColumn(Column{Name: c, Table: "PLOT", Required: true})
	}
	if len(p.StateCD) > 0 {
		plan.AddFilter(Filter{Column: "STATECD", Op: "IN", Value: inValues(p.StateCD), CanPushDown: true})
	}
	if len(p.CountyCD) > 0 {
		plan.AddFilter(Filter{Column: "COUNTYCD", Op: "IN", Value: inValues(p.CountyCD), CanPushDown: true})
	}
	if p.IncludeStrata {
		plan.AddTable("POP_PLOT_STRATUM_ASSGN")
		plan.AddColumn(Column{Name: "EVALID", Table: "POP_PLOT_STRATUM_ASSGN"})
		plan.AddColumn(Column{Name: "STRATUM_CN", Table: "POP_PLOT_STRATUM_ASSGN"})
		plan.AddJoin(Join{
			Left: "PLOT", Right: "POP_PLOT_STRATUM_ASSGN",
			LeftOn: "CN", RightOn: "PLT_CN", How: Inner,
		})
		if len(p.Evalid) > 0 {
			plan.AddFilter(Filter{Column: "EVALID", Op: "IN", Value: inValues(p.Evalid), Table: "POP_PLOT_STRATUM_ASSGN", CanPushDown: true})
		}
	}
	plan.FilterSelectivity = combinedSelectivity(plan.Filters)
	return plan
}

// Composite bundles the four scans a two-stage estimator needs (spec.md
// §2's data flow: plots -> strata -> conditions -> trees).
type Composite struct {
	Plots      *Plan
	Strata     *Plan
	Conditions *Plan
	Trees      *Plan
}

// CompositeParams is the union of the per-scan parameters a full estimate()
// call supplies (spec.md §4.6's CompositeBuilder).
type CompositeParams struct {
	Evalid  []int
	StateCD int
	Plot    PlotParams
	Cond    ConditionParams
	Tree    TreeParams
}

// BuildComposite orchestrates the four builders into one Composite, sharing
// the evaluation's EVALID list across the plot/stratum scans.
func BuildComposite(p CompositeParams) (*Composite, error) {
	p.Plot.Evalid = p.Evalid
	p.Plot.IncludeStrata = true
	cond, err := BuildCondition(p.Cond)
	if err != nil {
		return nil, err
	}
	tree, err := BuildTree(p.Tree)
	if err != nil {
		return nil, err
	}
	return &Composite{
		Plots:      BuildPlot(p.Plot),
		Strata:     BuildStratification(StratificationParams{Evalid: p.Evalid, StateCD: p.StateCD, IncludeAdjustmentFactors: true}),
		Conditions: cond,
		Trees:      tree,
	}, nil
}

// CollectAll runs the four scans concurrently, bounded to 4 in flight, and
// returns their Frames in plot/strata/cond/tree order, or the first error
// encountered (errgroup cancels the remaining scans on first failure).
func (c *Composite) CollectAll(ctx context.Context, db backend.Db) (plots, strata, conds, trees *frame.Frame, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (e error) { plots, e = c.Plots.Execute(gctx, db, "PLOT"); return })
	g.Go(func() (e error) { strata, e = c.Strata.Execute(gctx, db, "POP_STRATUM"); return })
	g.Go(func() (e error) { conds, e = c.Conditions.Execute(gctx, db, "COND"); return })
	g.Go(func() (e error) { trees, e = c.Trees.Execute(gctx, db, "TREE"); return })
	if err = g.Wait(); err != nil {
		return nil, nil, nil, nil, err
	}
	return
}

func combinedSelectivity(filters []Filter) float64 {
	if len(filters) == 0 {
		return 1.0
	}
	s := 1.0
	for _, f := range filters {
		s *= EstimateSelectivity(f)
	}
	return s
}
