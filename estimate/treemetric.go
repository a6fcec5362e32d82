package estimate

import (
	"context"

	"github.com/mihiarc/gofia/adjust"
	"github.com/mihiarc/gofia/aggregate"
	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/expand"
	"github.com/mihiarc/gofia/group"
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/query"
	"github.com/mihiarc/gofia/variance"
)

// MetricFunc reads the pre-adjustment per-tree metric value from row i of
// the joined tree frame (spec.md §4.10 step 1's "metric(t)"): VOLCFNET for
// volume, DRYBIO_AG/2000 for biomass, 1 for tpa/tree_count.
type MetricFunc func(trees *frame.Frame, i int) float64

// TreeTypeFilter reports whether row i of the joined tree frame passes the
// requested tree_type (spec.md §4.13's gs/live/dead/all rule).
type TreeTypeFilter func(trees *frame.Frame, i int) bool

// TreeMetric is the shared Pipeline implementation behind tpa, tree_count,
// volume, biomass, and carbon (spec.md §4.13): they differ only in their
// MetricFunc, TreeTypeFilter, and output column naming.
type TreeMetric struct {
	Db      backend.Db
	Evalid  []int
	StateCD int
	Base    config.Base
	Metric  MetricFunc
	Filter  TreeTypeFilter
	ValueCol string // e.g. "TPA", "VOLCFNET", "DRYBIO_AG"
	LabelSet group.LabelSet
}

// TreeTypeFilterFor builds the STATUSCD/TREECLCD predicate for a tree_type
// string (spec.md §4.13: gs = STATUSCD=1 ∧ TREECLCD=2; live = STATUSCD=1;
// dead = STATUSCD=2; all = unrestricted).
func TreeTypeFilterFor(treeType string) TreeTypeFilter {
	switch treeType {
	case "gs":
		return func(trees *frame.Frame, i int) bool {
			status, _ := trees.Col("STATUSCD")
			treeCl, hasCl := trees.Col("TREECLCD")
			return int(status.AtFloat64(i)) == 1 && (!hasCl || int(treeCl.AtFloat64(i)) == 2)
		}
	case "dead":
		return func(trees *frame.Frame, i int) bool {
			status, _ := trees.Col("STATUSCD")
			return int(status.AtFloat64(i)) == 2
		}
	case "all":
		return func(trees *frame.Frame, i int) bool { return true }
	default: // "live"
		return func(trees *frame.Frame, i int) bool {
			status, _ := trees.Col("STATUSCD")
			return int(status.AtFloat64(i)) == 1
		}
	}
}

// TreeClassFilterFor builds the TREECLCD/STDSZCD predicate for a tree_class
// string (spec.md line 91's all/growing_stock/rotten/timber/nonstockable
// option): growing_stock restricts to TREECLCD=2, rotten to the rough/rotten
// cull codes (TREECLCD 3 or 4), nonstockable to rows on a nonstocked
// condition (STDSZCD=5). timber is enforced at the Base.Validate cross-field
// check (tree_class=timber requires land_type=timber) rather than here, so
// it adds no further per-row restriction.
func TreeClassFilterFor(treeClass string) TreeTypeFilter {
	switch treeClass {
	case "growing_stock", "gs":
		return func(trees *frame.Frame, i int) bool {
			treeCl, hasCl := trees.Col("TREECLCD")
			return hasCl && int(treeCl.AtFloat64(i)) == 2
		}
	case "rotten":
		return func(trees *frame.Frame, i int) bool {
			treeCl, hasCl := trees.Col("TREECLCD")
			if !hasCl {
				return false
			}
			cl := int(treeCl.AtFloat64(i))
			return cl == 3 || cl == 4
		}
	case "nonstockable":
		return func(trees *frame.Frame, i int) bool {
			stdsz, hasStdsz := trees.Col("STDSZCD")
			return hasStdsz && int(stdsz.AtFloat64(i)) == 5
		}
	default: // "all", "timber", ""
		return func(trees *frame.Frame, i int) bool { return true }
	}
}

// CombineFilters ANDs a set of TreeTypeFilters, skipping nils, so callers
// can layer tree_type and tree_class restrictions without either masking
// the other's "no filter" case.
func CombineFilters(filters ...TreeTypeFilter) TreeTypeFilter {
	active := make([]TreeTypeFilter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	return func(trees *frame.Frame, i int) bool {
		for _, f := range active {
			if !f(trees, i) {
				return false
			}
		}
		return true
	}
}

func (t *TreeMetric) Run(ctx context.Context) (*frame.Frame, error) {
	loaded, err := Load(ctx, t.Db, query.CompositeParams{
		Evalid:  t.Evalid,
		StateCD: t.StateCD,
		Tree:    query.TreeParams{TreeDomain: t.Base.TreeDomain},
		Cond:    query.ConditionParams{AreaDomain: t.Base.AreaDomain},
	})
	if err != nil {
		return nil, err
	}

	joined := JoinTreeCond(loaded.Trees, loaded.Conds)
	joined = group.Enrich(joined, t.Base.BySizeClass, t.Base.ByLandType, true, true, t.LabelSet)

	grpCols := t.Base.GroupingColumns()
	groupedTreeRows := map[string][]aggregate.TreeRow{}
	groupedAreaRows := map[string][]aggregate.CondRow{}

	pltCol, _ := joined.Col("PLT_CN")
	condIDCol, _ := joined.Col("CONDID")
	diaCol, hasDia := joined.Col("DIA")
	tpaCol, hasTPA := joined.Col("TPA_UNADJ")
	statusCol, hasStatus := joined.Col("COND_STATUS_CD")
	propBasisCol, hasBasis := joined.Col("PROP_BASIS")
	condpropCol, hasCondprop := joined.Col("CONDPROP_UNADJ")
	siteCol, hasSite := joined.Col("SITECLCD")
	reservCol, hasReserv := joined.Col("RESERVCD")

	for i := 0; i < joined.NRows(); i++ {
		plotCN := pltCol.AtString(i)
		sa, ok := loaded.PlotStrata[plotCN]
		if !ok {
			continue
		}
		domainInd := 1.0
		if t.Filter != nil && !t.Filter(joined, i) {
			domainInd = 0
		}
		if hasStatus {
			landInd := group.LandTypeDomainIndicator(t.Base.LandType, int(statusCol.AtFloat64(i)),
				intOr(hasSite, siteCol, i), intOr(hasReserv, reservCol, i))
			domainInd *= landInd
		}
		dia := 0.0
		if hasDia {
			dia = diaCol.AtFloat64(i)
		}
		adj := adjust.Tree(sa.Factors, dia, sa.MacroBreakpointDia)
		tpaUnadj := 1.0
		if hasTPA {
			tpaUnadj = tpaCol.AtFloat64(i)
		}
		value := t.Metric(joined, i) * tpaUnadj * adj * domainInd

		key := joined.RowKey(i, grpCols)
		groupedTreeRows[key] = append(groupedTreeRows[key], aggregate.TreeRow{
			PlotCN: plotCN, CondID: condIDCol.AtString(i), Value: value,
		})

		if hasBasis && hasCondprop {
			areaAdj := adjust.Condition(sa.Factors, propBasisCol.AtString(i))
			areaVal := condpropCol.AtFloat64(i) * areaAdj * domainInd
			groupedAreaRows[key] = append(groupedAreaRows[key], aggregate.CondRow{PlotCN: plotCN, Value: areaVal})
		}
	}

	groupKeys := collectGroupKeys(joined, grpCols)
	if len(groupKeys) == 0 {
		groupKeys = []string{""}
	}

	groupVals := map[string][]float64{}
	for _, key := range groupKeys {
		treeRows := groupedTreeRows[key]
		areaRows := groupedAreaRows[key]
		plotTotals := aggregate.RollupTrees(treeRows, loaded.SamplePlots)
		areaTotals := aggregate.RollupArea(areaRows, loaded.SamplePlots)

		strata := stratifyPlotValues(plotTotals, loaded.PlotStrata)
		total, _, se, _ := variance.Total(strata)

		var perAcre, perAcreSE float64
		var zeroDenom float64
		if len(areaRows) > 0 {
			ratioStrata := stratifyRatioValues(plotTotals, areaTotals, loaded.PlotStrata)
			ratio := variance.RatioOfMeans(ratioStrata)
			perAcre, perAcreSE = ratio.R, ratio.SE
			if ratio.ZeroDenominator {
				zeroDenom = 1
			}
		}

		groupVals["n_plots"] = append(groupVals["n_plots"], float64(loaded.NPlots()))
		groupVals["total"] = append(groupVals["total"], total)
		groupVals["total_se"] = append(groupVals["total_se"], se)
		groupVals["per_acre"] = append(groupVals["per_acre"], perAcre)
		groupVals["per_acre_se"] = append(groupVals["per_acre_se"], perAcreSE)
		groupVals["zero_denom"] = append(groupVals["zero_denom"], zeroDenom)
	}

	return assembleGroupedFrame(groupKeys, grpCols, joined, t.ValueCol, groupVals), nil
}

func intOr(has bool, col frame.Column, i int) int {
	if !has {
		return 0
	}
	return int(col.AtFloat64(i))
}

// collectGroupKeys returns the distinct RowKey values over grpCols, in
// first-seen order, so output rows are deterministic (spec.md §5's ordering
// guarantee).
func collectGroupKeys(fr *frame.Frame, grpCols []string) []string {
	if len(grpCols) == 0 {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for i := 0; i < fr.NRows(); i++ {
		k := fr.RowKey(i, grpCols)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func stratifyPlotValues(plotValues map[string]float64, plotStrata map[string]StratumAssign) []expand.Stratum {
	byStratum := map[string][]float64{}
	weights := map[string]float64{}
	for plotCN, v := range plotValues {
		sa, ok := plotStrata[plotCN]
		if !ok {
			continue
		}
		byStratum[sa.StratumCN] = append(byStratum[sa.StratumCN], v)
		weights[sa.StratumCN] = sa.Expns
	}
	out := make([]expand.Stratum, 0, len(byStratum))
	for cn, vals := range byStratum {
		out = append(out, expand.Stratum{Weight: weights[cn], Values: vals})
	}
	return out
}

func stratifyRatioValues(y, x map[string]float64, plotStrata map[string]StratumAssign) []variance.RatioStratum {
	byStratumY := map[string][]float64{}
	byStratumX := map[string][]float64{}
	weights := map[string]float64{}
	for plotCN, sa := range plotStrata {
		byStratumY[sa.StratumCN] = append(byStratumY[sa.StratumCN], y[plotCN])
		byStratumX[sa.StratumCN] = append(byStratumX[sa.StratumCN], x[plotCN])
		weights[sa.StratumCN] = sa.Expns
	}
	out := make([]variance.RatioStratum, 0, len(byStratumY))
	for cn, ys := range byStratumY {
		out = append(out, variance.RatioStratum{Weight: weights[cn], Y: ys, X: byStratumX[cn]})
	}
	return out
}

// assembleGroupedFrame formats the final output Frame: one row per group key
// (or one row when ungrouped), the group columns, and the point estimate /
// total / SE / N_PLOTS columns (spec.md §6's documented output shape).
func assembleGroupedFrame(groupKeys []string, grpCols []string, source *frame.Frame, valueCol string, vals map[string][]float64) *frame.Frame {
	n := len(groupKeys)
	order := append([]string{}, grpCols...)
	order = append(order, valueCol, valueCol+"_TOTAL", valueCol+"_SE", valueCol+"_TOTAL_SE", "N_PLOTS")

	columns := map[string]frame.Column{}
	for _, col := range grpCols {
		colVals := make([]string, n)
		for i, key := range groupKeys {
			colVals[i] = firstValueForGroupColumn(source, grpCols, key, col)
		}
		columns[col] = frame.NewStringColumn(colVals)
	}
	columns[valueCol] = frame.NewFloat64Column(vals["per_acre"])
	columns[valueCol+"_TOTAL"] = frame.NewFloat64Column(vals["total"])
	columns[valueCol+"_SE"] = frame.NewFloat64Column(vals["per_acre_se"])
	columns[valueCol+"_TOTAL_SE"] = frame.NewFloat64Column(vals["total_se"])
	columns["N_PLOTS"] = frame.NewFloat64Column(vals["n_plots"])
	if zd, ok := vals["zero_denom"]; ok {
		order = append(order, valueCol+"_ZERO_DENOM")
		zb := make([]bool, len(zd))
		for i, v := range zd {
			zb[i] = v != 0
		}
		columns[valueCol+"_ZERO_DENOM"] = frame.NewBoolColumn(zb)
	}
	return frame.New(order, columns)
}

// firstValueForGroupColumn recovers the rendered group-column value for a
// RowKey by scanning for the first source row whose key matches; a small
// cost acceptable at the (few hundred groups at most) scale these
// estimators run at.
func firstValueForGroupColumn(source *frame.Frame, grpCols []string, key, col string) string {
	for i := 0; i < source.NRows(); i++ {
		if source.RowKey(i, grpCols) == key {
			if c, ok := source.Col(col); ok {
				return c.AtString(i)
			}
			return ""
		}
	}
	return ""
}
