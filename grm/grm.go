// Package grm implements C14: the Growth-Removal-Mortality estimators.
// Unlike the standard tree/condition estimators in package estimate, these
// consume TREE_GRM_COMPONENT joined with TREE_GRM_BEGIN/TREE_GRM_MIDPT, and
// every contribution is already annualized (no REMPER division at the
// per-tree stage) except net growth's BEGINEND cross-join, which divides by
// REMPER explicitly (spec.md §4.14).
package grm

import (
	"context"

	"github.com/mihiarc/gofia/adjust"
	"github.com/mihiarc/gofia/aggregate"
	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/estimate"
	"github.com/mihiarc/gofia/expand"
	"github.com/mihiarc/gofia/group"
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/query"
	"github.com/mihiarc/gofia/variance"
)

// componentColumns resolves the per-(tree_class, land_type) TREE_GRM_COMPONENT
// column triad: the component code column, the annualized TPA column for the
// requested rate (grow/mort/remv), and the SUBPTYP_GRM adjustment selector
// column (spec.md §4.14's "choose the per-land-use component column" rule).
func componentColumns(treeClass, landType, tpaKind string) (component, tpa, subtyp string) {
	class := "AL"
	if treeClass == "growing_stock" || treeClass == "gs" {
		class = "GS"
	}
	land := "FOREST"
	if landType == "timber" {
		land = "TIMBER"
	}
	suffix := class + "_" + land
	return "SUBP_COMPONENT_" + suffix, "SUBP_TPA" + tpaKind + "_UNADJ_" + suffix, "SUBP_SUBPTYP_GRM_" + suffix
}

// condInfo is the subset of a condition row a GRM estimator needs for its
// land-type domain indicator, keyed by PLT_CN+"\x1f"+CONDID.
type condInfo struct {
	StatusCD int
	SiteCLCD int
	ReservCD int
}

func condIndex(conds *frame.Frame) map[string]condInfo {
	pltCol, hasPlt := conds.Col("PLT_CN")
	condIDCol, hasCond := conds.Col("CONDID")
	if !hasPlt || !hasCond {
		return nil
	}
	statusCol, hasStatus := conds.Col("COND_STATUS_CD")
	siteCol, hasSite := conds.Col("SITECLCD")
	reservCol, hasReserv := conds.Col("RESERVCD")
	out := make(map[string]condInfo, conds.NRows())
	for i := 0; i < conds.NRows(); i++ {
		key := pltCol.AtString(i) + "\x1f" + condIDCol.AtString(i)
		var info condInfo
		if hasStatus {
			info.StatusCD = int(statusCol.AtFloat64(i))
		}
		if hasSite {
			info.SiteCLCD = int(siteCol.AtFloat64(i))
		}
		if hasReserv {
			info.ReservCD = int(reservCol.AtFloat64(i))
		}
		out[key] = info
	}
	return out
}

// midptIndex maps TRE_CN to its row number in the TREE_GRM_MIDPT frame.
func midptIndex(mid *frame.Frame) map[string]int {
	col, ok := mid.Col("TRE_CN")
	if !ok {
		return nil
	}
	out := make(map[string]int, mid.NRows())
	for i := 0; i < mid.NRows(); i++ {
		out[col.AtString(i)] = i
	}
	return out
}

func midValue(mid *frame.Frame, idx map[string]int, treCN, col string) float64 {
	j, ok := idx[treCN]
	if !ok {
		return 0
	}
	c, ok := mid.Col(col)
	if !ok {
		return 0
	}
	return c.AtFloat64(j)
}

// measureValue computes the per-tree rate metric for mortality/removals
// (spec.md §4.14: tpa=1, volume/biomass/carbon/sawlog read from MIDPT).
func measureValue(measure string, carbonFraction float64, mid *frame.Frame, midIdx map[string]int, treCN string) float64 {
	switch measure {
	case "volume":
		return midValue(mid, midIdx, treCN, "VOLCFNET")
	case "biomass":
		return midValue(mid, midIdx, treCN, "DRYBIO_AG") / 2000
	case "carbon":
		return (midValue(mid, midIdx, treCN, "DRYBIO_AG") / 2000) * carbonFraction
	case "sawlog":
		return midValue(mid, midIdx, treCN, "VOLCSNET")
	default: // "tpa"
		return 1
	}
}

// loadGRMContext resolves the plot/stratum/condition scaffolding shared by
// every GRM estimator, reusing estimate.Load's composite scan and stratum
// resolution rather than duplicating it.
func loadGRMContext(ctx context.Context, db backend.Db, evalid []int, stateCD int, base config.Base) (*estimate.LoadedEvaluation, error) {
	return estimate.Load(ctx, db, query.CompositeParams{
		Evalid:  evalid,
		StateCD: stateCD,
		Cond:    query.ConditionParams{AreaDomain: base.AreaDomain},
	})
}

func readGRMTable(ctx context.Context, db backend.Db, name string) (*frame.Frame, error) {
	fr, err := db.ReadTable(ctx, name, backend.ReadTableOptions{})
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "reading %s", name)
	}
	return fr, nil
}

// rateResult is the intermediate per-group (total, SE, per-acre, per-acre SE)
// tuple shared by mortality and removals before final frame assembly.
type rateResult struct {
	groupKeys []string
	grpCols   []string
	source    *frame.Frame
	vals      map[string][]float64
	zeroDenom []bool
}

// computeRate is the common mortality/removals engine: filter TREE_GRM_COMPONENT
// to the retained component set, weight by the matching annualized TPA
// column, adjust by SUBPTYP_GRM, restrict by land-type domain indicator, and
// roll up to a ratio-of-means per-acre estimate against domain-restricted
// forest area (spec.md §4.14).
func computeRate(ctx context.Context, db backend.Db, evalid []int, stateCD int, base config.Base,
	grpCols []string, retain map[string]bool, tpaKind, measure string, carbonFraction float64) (*rateResult, error) {

	loaded, err := loadGRMContext(ctx, db, evalid, stateCD, base)
	if err != nil {
		return nil, err
	}
	grmComp, err := readGRMTable(ctx, db, "TREE_GRM_COMPONENT")
	if err != nil {
		return nil, err
	}
	grmMid, err := readGRMTable(ctx, db, "TREE_GRM_MIDPT")
	if err != nil {
		return nil, err
	}

	conds := group.Enrich(loaded.Conds, base.BySizeClass, base.ByLandType, true, true, group.StandardLabels)
	condIdx := condIndex(conds)
	midIdx := midptIndex(grmMid)

	grmComp, err = withGroupColumns(ctx, db, grmComp, conds, grpCols)
	if err != nil {
		return nil, err
	}

	componentCol, tpaCol, subtypCol := componentColumns(base.TreeClass, base.LandType, tpaKind)

	compCol, hasComp := grmComp.Col(componentCol)
	tpaColv, hasTPA := grmComp.Col(tpaCol)
	subtypColv, hasSubtyp := grmComp.Col(subtypCol)
	treCNCol, _ := grmComp.Col("TRE_CN")
	pltCol, _ := grmComp.Col("PLT_CN")
	condIDCol, _ := grmComp.Col("CONDID")
	if !hasComp || !hasTPA || !hasSubtyp {
		return nil, errs.New(errs.MissingColumn, "TREE_GRM_COMPONENT missing %s/%s/%s", componentCol, tpaCol, subtypCol)
	}

	groupedMetric := map[string][]aggregate.TreeRow{}

	for i := 0; i < grmComp.NRows(); i++ {
		component := compCol.AtString(i)
		if !retain[component] {
			continue
		}
		plotCN := pltCol.AtString(i)
		sa, ok := loaded.PlotStrata[plotCN]
		if !ok {
			continue
		}
		condID := condIDCol.AtString(i)
		info := condIdx[plotCN+"\x1f"+condID]
		domainInd := group.LandTypeDomainIndicator(base.LandType, info.StatusCD, info.SiteCLCD, info.ReservCD)
		if domainInd == 0 {
			continue
		}

		subtyp := adjust.SubtypGRM(int(subtypColv.AtFloat64(i)))
		adj := adjust.GRM(sa.Factors, subtyp)
		tpaRate := tpaColv.AtFloat64(i)
		value := measureValue(measure, carbonFraction, grmMid, midIdx, treCNCol.AtString(i))

		key := grmComp.RowKey(i, grpCols)
		groupedMetric[key] = append(groupedMetric[key], aggregate.TreeRow{
			PlotCN: plotCN, CondID: condID, Value: tpaRate * adj * value,
		})
	}

	// Domain-restricted forest area denominator, independent of component
	// retention, computed once per plot/condition for the ratio-of-means.
	areaByPlot := forestAreaByPlot(conds, base, loaded.PlotStrata, loaded.SamplePlots)

	groupKeys := distinctKeys(grmComp, grpCols)
	if len(groupKeys) == 0 {
		groupKeys = []string{""}
	}

	vals := map[string][]float64{}
	zeroDenom := make([]bool, 0, len(groupKeys))
	for _, key := range groupKeys {
		plotTotals := aggregate.RollupTrees(groupedMetric[key], loaded.SamplePlots)
		strata := stratifyPlotValues(plotTotals, loaded.PlotStrata)
		total, _, se, _ := variance.Total(strata)

		ratioStrata := stratifyRatioValues(plotTotals, areaByPlot, loaded.PlotStrata)
		ratio := variance.RatioOfMeans(ratioStrata)

		vals["n_plots"] = append(vals["n_plots"], float64(loaded.NPlots()))
		vals["total"] = append(vals["total"], total)
		vals["total_se"] = append(vals["total_se"], se)
		vals["per_acre"] = append(vals["per_acre"], ratio.R)
		vals["per_acre_se"] = append(vals["per_acre_se"], ratio.SE)
		zeroDenom = append(zeroDenom, ratio.ZeroDenominator)
	}

	return &rateResult{groupKeys: groupKeys, grpCols: grpCols, source: grmComp, vals: vals, zeroDenom: zeroDenom}, nil
}

func distinctKeys(fr *frame.Frame, grpCols []string) []string {
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

// condGroupColumns and treeGroupColumns are the grouping columns
// MortalityConfig/RemovalsConfig can request that TREE_GRM_COMPONENT itself
// doesn't carry; TREE_GRM_COMPONENT only has the component/TPA/SUBPTYP_GRM
// triad plus join keys, so OWNGRPCD/DSTRBCD1 come from COND and
// AGENTCD/SPGRPCD come from TREE, same join edges package estimate uses.
var condGroupColumns = map[string]bool{"OWNGRPCD": true, "DSTRBCD1": true}
var treeGroupColumns = map[string]bool{"AGENTCD": true, "SPGRPCD": true}

// withGroupColumns merges any requested grouping columns TREE_GRM_COMPONENT
// lacks onto grmComp, pulling condition-level columns from the already-loaded
// conds frame and tree-level columns from a targeted TREE projection
// (spec.md line 97's group_by_agent/disturbance/ownership/species_group).
func withGroupColumns(ctx context.Context, db backend.Db, grmComp, conds *frame.Frame, grpCols []string) (*frame.Frame, error) {
	var needTreeCols []string
	for _, col := range grpCols {
		if grmComp.Has(col) {
			continue
		}
		if condGroupColumns[col] {
			grmComp = mergeCondColumn(grmComp, conds, col)
		} else if treeGroupColumns[col] {
			needTreeCols = append(needTreeCols, col)
		}
	}
	if len(needTreeCols) == 0 {
		return grmComp, nil
	}
	trees, err := db.ReadTable(ctx, "TREE", backend.ReadTableOptions{Columns: append([]string{"CN"}, needTreeCols...)})
	if err != nil {
		return nil, errs.Wrap(err, errs.QueryError, "reading TREE for grouping columns %v", needTreeCols)
	}
	for _, col := range needTreeCols {
		grmComp = mergeTreeColumn(grmComp, trees, col)
	}
	return grmComp, nil
}

// mergeCondColumn copies a COND column onto grmComp rows keyed by
// PLT_CN+CONDID, the TREE_GRM_COMPONENT<->COND edge.
func mergeCondColumn(grmComp, conds *frame.Frame, colName string) *frame.Frame {
	src, ok := conds.Col(colName)
	if !ok {
		return grmComp
	}
	condPlt, _ := conds.Col("PLT_CN")
	condID, _ := conds.Col("CONDID")
	index := make(map[string]int, conds.NRows())
	for i := 0; i < conds.NRows(); i++ {
		index[condPlt.AtString(i)+"\x1f"+condID.AtString(i)] = i
	}
	pltCol, _ := grmComp.Col("PLT_CN")
	condIDCol, _ := grmComp.Col("CONDID")
	n := grmComp.NRows()
	vals := make([]string, n)
	for i := 0; i < n; i++ {
		if j, ok := index[pltCol.AtString(i)+"\x1f"+condIDCol.AtString(i)]; ok {
			vals[i] = src.AtString(j)
		}
	}
	return grmComp.WithColumn(colName, frame.NewStringColumn(vals))
}

// mergeTreeColumn copies a TREE column onto grmComp rows keyed by TRE_CN,
// the TREE_GRM_COMPONENT<->TREE edge.
func mergeTreeColumn(grmComp, trees *frame.Frame, colName string) *frame.Frame {
	src, ok := trees.Col(colName)
	if !ok {
		return grmComp
	}
	treeCN, _ := trees.Col("CN")
	index := make(map[string]int, trees.NRows())
	for i := 0; i < trees.NRows(); i++ {
		index[treeCN.AtString(i)] = i
	}
	treCNCol, _ := grmComp.Col("TRE_CN")
	n := grmComp.NRows()
	vals := make([]string, n)
	for i := 0; i < n; i++ {
		if j, ok := index[treCNCol.AtString(i)]; ok {
			vals[i] = src.AtString(j)
		}
	}
	return grmComp.WithColumn(colName, frame.NewStringColumn(vals))
}

// forestAreaByPlot computes each sample plot's domain-restricted land area
// (CONDPROP_UNADJ * ADJ(c) * I_D(land_type)), the ratio-of-means denominator
// shared by every GRM rate estimator (spec.md §4.14's per-acre division).
func forestAreaByPlot(conds *frame.Frame, base config.Base, plotStrata map[string]estimate.StratumAssign, samplePlots []string) map[string]float64 {
	pltCol, _ := conds.Col("PLT_CN")
	condpropCol, hasCondprop := conds.Col("CONDPROP_UNADJ")
	propBasisCol, hasBasis := conds.Col("PROP_BASIS")
	statusCol, hasStatus := conds.Col("COND_STATUS_CD")
	siteCol, hasSite := conds.Col("SITECLCD")
	reservCol, hasReserv := conds.Col("RESERVCD")

	rows := make([]aggregate.CondRow, 0, conds.NRows())
	for i := 0; i < conds.NRows(); i++ {
		if !hasCondprop || !hasBasis {
			continue
		}
		plotCN := pltCol.AtString(i)
		sa, ok := plotStrata[plotCN]
		if !ok {
			continue
		}
		domainInd := 1.0
		if hasStatus {
			domainInd = group.LandTypeDomainIndicator(base.LandType, int(statusCol.AtFloat64(i)),
				intOr(hasSite, siteCol, i), intOr(hasReserv, reservCol, i))
		}
		areaAdj := adjust.Condition(sa.Factors, propBasisCol.AtString(i))
		rows = append(rows, aggregate.CondRow{PlotCN: plotCN, Value: condpropCol.AtFloat64(i) * areaAdj * domainInd})
	}
	return aggregate.RollupArea(rows, samplePlots)
}

func intOr(has bool, col frame.Column, i int) int {
	if !has {
		return 0
	}
	return int(col.AtFloat64(i))
}

func assembleGRM(res *rateResult, valueCol string) *frame.Frame {
	n := len(res.groupKeys)
	order := append([]string{}, res.grpCols...)
	order = append(order, valueCol, valueCol+"_TOTAL", valueCol+"_SE", valueCol+"_TOTAL_SE", "N_PLOTS", valueCol+"_ZERO_DENOM")

	columns := map[string]frame.Column{}
	for _, col := range res.grpCols {
		colVals := make([]string, n)
		for i, key := range res.groupKeys {
			colVals[i] = firstValueForKey(res.source, res.grpCols, key, col)
		}
		columns[col] = frame.NewStringColumn(colVals)
	}
	columns[valueCol] = frame.NewFloat64Column(res.vals["per_acre"])
	columns[valueCol+"_TOTAL"] = frame.NewFloat64Column(res.vals["total"])
	columns[valueCol+"_SE"] = frame.NewFloat64Column(res.vals["per_acre_se"])
	columns[valueCol+"_TOTAL_SE"] = frame.NewFloat64Column(res.vals["total_se"])
	columns["N_PLOTS"] = frame.NewFloat64Column(res.vals["n_plots"])
	columns[valueCol+"_ZERO_DENOM"] = frame.NewBoolColumn(res.zeroDenom)
	return frame.New(order, columns)
}

func firstValueForKey(source *frame.Frame, grpCols []string, key, col string) string {
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

// stratifyPlotValues groups per-plot totals by stratum for the Total
// variance estimator, mirroring estimate.stratifyPlotValues.
func stratifyPlotValues(plotValues map[string]float64, plotStrata map[string]estimate.StratumAssign) []expand.Stratum {
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

// stratifyRatioValues pairs numerator/denominator per-plot totals by
// stratum for the ratio-of-means variance estimator.
func stratifyRatioValues(y, x map[string]float64, plotStrata map[string]estimate.StratumAssign) []variance.RatioStratum {
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
