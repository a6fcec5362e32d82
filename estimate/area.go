package estimate

import (
	"context"

	"github.com/mihiarc/gofia/adjust"
	"github.com/mihiarc/gofia/aggregate"
	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/group"
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/query"
	"github.com/mihiarc/gofia/variance"
)

// Area is the C13 area estimator: a condition-level Pipeline (no tree scan
// needed) computing the domain's acreage as a ratio-of-means proportion of
// the evaluation's total sampled land area (spec.md §4.13's "area" section).
type Area struct {
	Db        backend.Db
	Evalid    []int
	StateCD   int
	Base      config.Base
	AreaBasis string // condition | land | forest; "" behaves like "condition"
}

// effectiveLandType lets area_basis override land_type for this estimator
// only (spec.md §4.13's area_basis option): "land" reports all land
// regardless of forest status, "forest" restricts to forest land even if
// the caller's land_type domain says otherwise, and "condition" (the
// default) just defers to Base.LandType as every other estimator does.
func effectiveLandType(areaBasis, landType string) string {
	switch areaBasis {
	case "land":
		return "all"
	case "forest":
		return "forest"
	default:
		return landType
	}
}

func (a *Area) Run(ctx context.Context) (*frame.Frame, error) {
	loaded, err := Load(ctx, a.Db, query.CompositeParams{
		Evalid: a.Evalid, StateCD: a.StateCD,
		Cond: query.ConditionParams{AreaDomain: a.Base.AreaDomain},
		Tree: query.TreeParams{},
	})
	if err != nil {
		return nil, err
	}
	landType := effectiveLandType(a.AreaBasis, a.Base.LandType)

	conds := group.Enrich(loaded.Conds, a.Base.BySizeClass, a.Base.ByLandType, true, true, group.StandardLabels)
	grpCols := a.Base.GroupingColumns()

	pltCol, _ := conds.Col("PLT_CN")
	condpropCol, hasCondprop := conds.Col("CONDPROP_UNADJ")
	propBasisCol, hasBasis := conds.Col("PROP_BASIS")
	statusCol, hasStatus := conds.Col("COND_STATUS_CD")
	siteCol, hasSite := conds.Col("SITECLCD")
	reservCol, hasReserv := conds.Col("RESERVCD")

	groupedDomainRows := map[string][]aggregate.CondRow{}
	groupedTotalRows := map[string][]aggregate.CondRow{}

	for i := 0; i < conds.NRows(); i++ {
		plotCN := pltCol.AtString(i)
		sa, ok := loaded.PlotStrata[plotCN]
		if !ok || !hasCondprop || !hasBasis {
			continue
		}
		areaAdj := adjust.Condition(sa.Factors, propBasisCol.AtString(i))
		baseArea := condpropCol.AtFloat64(i) * areaAdj

		domainInd := 1.0
		if hasStatus {
			domainInd = group.LandTypeDomainIndicator(landType, int(statusCol.AtFloat64(i)),
				intOr(hasSite, siteCol, i), intOr(hasReserv, reservCol, i))
		}

		key := conds.RowKey(i, grpCols)
		groupedDomainRows[key] = append(groupedDomainRows[key], aggregate.CondRow{PlotCN: plotCN, Value: baseArea * domainInd})
		groupedTotalRows[key] = append(groupedTotalRows[key], aggregate.CondRow{PlotCN: plotCN, Value: baseArea})
	}

	groupKeys := collectGroupKeys(conds, grpCols)
	if len(groupKeys) == 0 {
		groupKeys = []string{""}
	}

	groupVals := map[string][]float64{}
	for _, key := range groupKeys {
		domainTotals := aggregate.RollupArea(groupedDomainRows[key], loaded.SamplePlots)
		landTotals := aggregate.RollupArea(groupedTotalRows[key], loaded.SamplePlots)

		strata := stratifyPlotValues(domainTotals, loaded.PlotStrata)
		total, _, se, _ := variance.Total(strata)

		ratioStrata := stratifyRatioValues(domainTotals, landTotals, loaded.PlotStrata)
		ratio := variance.RatioOfMeans(ratioStrata)

		groupVals["n_plots"] = append(groupVals["n_plots"], float64(loaded.NPlots()))
		groupVals["total"] = append(groupVals["total"], total)
		groupVals["total_se"] = append(groupVals["total_se"], se)
		groupVals["per_acre"] = append(groupVals["per_acre"], ratio.R)
		groupVals["per_acre_se"] = append(groupVals["per_acre_se"], ratio.SE)
		zeroDenom := 0.0
		if ratio.ZeroDenominator {
			zeroDenom = 1
		}
		groupVals["zero_denom"] = append(groupVals["zero_denom"], zeroDenom)
	}

	return assembleGroupedFrame(groupKeys, grpCols, conds, "AREA", groupVals), nil
}
