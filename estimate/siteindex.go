package estimate

import (
	"context"

	"github.com/mihiarc/gofia/aggregate"
	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/group"
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/query"
	"github.com/mihiarc/gofia/variance"
)

// SiteIndex is the C13 site_index estimator: a condition-level weighted
// mean of SICOND by CONDPROP_UNADJ, using the ratio-of-means variance
// estimator, with SIBASE as a mandatory grouping column (spec.md §4.13).
type SiteIndex struct {
	Db      backend.Db
	Evalid  []int
	StateCD int
	Base    config.Base
}

func (s *SiteIndex) Run(ctx context.Context) (*frame.Frame, error) {
	loaded, err := Load(ctx, s.Db, query.CompositeParams{
		Evalid: s.Evalid, StateCD: s.StateCD,
		Cond: query.ConditionParams{AreaDomain: s.Base.AreaDomain, ExtraColumns: []string{"SICOND", "SIBASE"}},
	})
	if err != nil {
		return nil, err
	}
	if !loaded.Conds.Has("SICOND") || !loaded.Conds.Has("SIBASE") {
		return nil, errs.New(errs.MissingColumn, "site_index requires SICOND and SIBASE columns")
	}

	conds := group.Enrich(loaded.Conds, s.Base.BySizeClass, s.Base.ByLandType, true, true, group.StandardLabels)
	grpCols := append([]string{"SIBASE"}, s.Base.GroupingColumns()...)

	pltCol, _ := conds.Col("PLT_CN")
	condpropCol, _ := conds.Col("CONDPROP_UNADJ")
	siCol, _ := conds.Col("SICOND")

	groupedNumerator := map[string][]aggregate.CondRow{}
	groupedDenominator := map[string][]aggregate.CondRow{}

	for i := 0; i < conds.NRows(); i++ {
		plotCN := pltCol.AtString(i)
		if _, ok := loaded.PlotStrata[plotCN]; !ok {
			continue
		}
		weight := condpropCol.AtFloat64(i)
		key := conds.RowKey(i, grpCols)
		groupedNumerator[key] = append(groupedNumerator[key], aggregate.CondRow{PlotCN: plotCN, Value: weight * siCol.AtFloat64(i)})
		groupedDenominator[key] = append(groupedDenominator[key], aggregate.CondRow{PlotCN: plotCN, Value: weight})
	}

	groupKeys := collectGroupKeys(conds, grpCols)
	if len(groupKeys) == 0 {
		groupKeys = []string{""}
	}

	groupVals := map[string][]float64{}
	for _, key := range groupKeys {
		num := aggregate.RollupArea(groupedNumerator[key], loaded.SamplePlots)
		den := aggregate.RollupArea(groupedDenominator[key], loaded.SamplePlots)

		ratioStrata := stratifyRatioValues(num, den, loaded.PlotStrata)
		ratio := variance.RatioOfMeans(ratioStrata)

		groupVals["n_plots"] = append(groupVals["n_plots"], float64(loaded.NPlots()))
		groupVals["total"] = append(groupVals["total"], ratio.R)
		groupVals["total_se"] = append(groupVals["total_se"], ratio.SE)
		groupVals["per_acre"] = append(groupVals["per_acre"], ratio.R)
		groupVals["per_acre_se"] = append(groupVals["per_acre_se"], ratio.SE)
		zeroDenom := 0.0
		if ratio.ZeroDenominator {
			zeroDenom = 1
		}
		groupVals["zero_denom"] = append(groupVals["zero_denom"], zeroDenom)
	}

	return assembleGroupedFrame(groupKeys, grpCols, conds, "SITE_INDEX", groupVals), nil
}
