package grm

import (
	"context"

	"github.com/mihiarc/gofia/adjust"
	"github.com/mihiarc/gofia/aggregate"
	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/group"
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/variance"
)

// Growth is the C14 net-growth estimator: the BEGINEND cross-join over
// TREE_GRM_COMPONENT / TREE_GRM_BEGIN / TREE_GRM_MIDPT (spec.md §4.14).
type Growth struct {
	Db      backend.Db
	Evalid  []int
	StateCD int
	Cfg     config.GrowthConfig
}

func plotRemper(plots *frame.Frame) map[string]float64 {
	cn, hasCN := plots.Col("CN")
	remper, hasRemper := plots.Col("REMPER")
	out := map[string]float64{}
	if !hasCN || !hasRemper {
		return out
	}
	for i := 0; i < plots.NRows(); i++ {
		out[cn.AtString(i)] = remper.AtFloat64(i)
	}
	return out
}

func growthMeasureColumnName(measure string) string {
	switch measure {
	case "volume":
		return "GROWTH_VOLCFNET"
	case "biomass":
		return "GROWTH_DRYBIO_AG"
	default:
		return "GROWTH_TPA"
	}
}

func (g *Growth) Run(ctx context.Context) (*frame.Frame, error) {
	loaded, err := loadGRMContext(ctx, g.Db, g.Evalid, g.StateCD, g.Cfg.Base)
	if err != nil {
		return nil, err
	}
	grmComp, err := readGRMTable(ctx, g.Db, "TREE_GRM_COMPONENT")
	if err != nil {
		return nil, err
	}
	grmBegin, err := readGRMTable(ctx, g.Db, "TREE_GRM_BEGIN")
	if err != nil {
		return nil, err
	}
	grmMid, err := readGRMTable(ctx, g.Db, "TREE_GRM_MIDPT")
	if err != nil {
		return nil, err
	}

	remperByPlot := plotRemper(loaded.Plots)
	conds := group.Enrich(loaded.Conds, g.Cfg.BySizeClass, g.Cfg.ByLandType, true, true, group.StandardLabels)
	condIdx := condIndex(conds)
	beginIdx := midptIndex(grmBegin)
	midIdx := midptIndex(grmMid)

	componentCol, tpaGrowCol, subtypCol := componentColumns(g.Cfg.TreeClass, g.Cfg.LandType, "GROW")
	compCol, hasComp := grmComp.Col(componentCol)
	tpaColv, hasTPA := grmComp.Col(tpaGrowCol)
	subtypColv, hasSubtyp := grmComp.Col(subtypCol)
	treCNCol, _ := grmComp.Col("TRE_CN")
	pltCol, _ := grmComp.Col("PLT_CN")
	condIDCol, _ := grmComp.Col("CONDID")
	if !hasComp || !hasTPA || !hasSubtyp {
		return nil, errs.New(errs.MissingColumn, "TREE_GRM_COMPONENT missing %s/%s/%s", componentCol, tpaGrowCol, subtypCol)
	}

	grpCols := g.Cfg.GroupingColumns()
	groupedMetric := map[string][]aggregate.TreeRow{}

	for i := 0; i < grmComp.NRows(); i++ {
		component := compCol.AtString(i)
		plotCN := pltCol.AtString(i)
		sa, ok := loaded.PlotStrata[plotCN]
		if !ok {
			continue
		}
		remper := remperByPlot[plotCN]
		if remper <= 0 {
			continue
		}

		var contribution float64
		treCN := treCNCol.AtString(i)
		switch component {
		case "SURVIVOR":
			endVal := measureValue(g.Cfg.Measure, g.Cfg.CarbonFraction, grmMid, midIdx, treCN)
			beginVal := measureValue(g.Cfg.Measure, g.Cfg.CarbonFraction, grmBegin, beginIdx, treCN)
			contribution = (endVal - beginVal) / remper
		case "INGROWTH":
			if !g.Cfg.IncludeIngrowth {
				continue
			}
			endVal := measureValue(g.Cfg.Measure, g.Cfg.CarbonFraction, grmMid, midIdx, treCN)
			contribution = endVal / remper
		default:
			// CUT*, DIVERSION*, MORTALITY*: zero contribution to net growth.
			continue
		}

		condID := condIDCol.AtString(i)
		info := condIdx[plotCN+"\x1f"+condID]
		domainInd := group.LandTypeDomainIndicator(g.Cfg.LandType, info.StatusCD, info.SiteCLCD, info.ReservCD)
		if domainInd == 0 {
			continue
		}

		subtyp := adjust.SubtypGRM(int(subtypColv.AtFloat64(i)))
		adj := adjust.GRM(sa.Factors, subtyp)
		tpaGrow := tpaColv.AtFloat64(i)
		value := tpaGrow * adj * domainInd * contribution

		key := grmComp.RowKey(i, grpCols)
		groupedMetric[key] = append(groupedMetric[key], aggregate.TreeRow{PlotCN: plotCN, CondID: condID, Value: value})
	}

	areaByPlot := forestAreaByPlot(conds, g.Cfg.Base, loaded.PlotStrata, loaded.SamplePlots)
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

	res := &rateResult{groupKeys: groupKeys, grpCols: grpCols, source: grmComp, vals: vals, zeroDenom: zeroDenom}
	return assembleGRM(res, growthMeasureColumnName(g.Cfg.Measure)), nil
}
