package estimate

import (
	"context"

	"github.com/mihiarc/gofia/adjust"
	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/query"
)

// StratumAssign is one plot's resolved stratum membership, joining PLOT to
// its POP_PLOT_STRATUM_ASSGN/POP_STRATUM row (the "plot ⟗ ppsa ⟗
// pop_stratum" join spec.md §4.9 refers to).
type StratumAssign struct {
	StratumCN          string
	Expns              float64
	P2PointCnt         int
	Factors            adjust.Factors
	MacroBreakpointDia float64 // PLOT.MACRO_BREAKPOINT_DIA; 0 means no macroplot (adjust.Tree's "infinite breakpoint")
}

// LoadedEvaluation bundles the four scans a composite builder produces, plus
// the resolved per-plot stratum assignment — the "plot_condition_data"
// handle spec.md §5 says an estimator holds until FORMATTED.
type LoadedEvaluation struct {
	Plots, Strata, Conds, Trees *frame.Frame
	PlotStrata                 map[string]StratumAssign
	SamplePlots                []string
}

// Load runs the composite scans against db and resolves plot->stratum
// assignment, implementing the INIT->LOADED transition.
func Load(ctx context.Context, db backend.Db, params query.CompositeParams) (*LoadedEvaluation, error) {
	comp, err := query.BuildComposite(params)
	if err != nil {
		return nil, err
	}
	plots, strata, conds, trees, err := comp.CollectAll(ctx, db)
	if err != nil {
		return nil, errs.WithStage(err, "estimate.Load")
	}
	plotStrata, err := resolvePlotStrata(plots, strata)
	if err != nil {
		return nil, err
	}
	samplePlots := distinctPlotCNs(plots)
	return &LoadedEvaluation{
		Plots: plots, Strata: strata, Conds: conds, Trees: trees,
		PlotStrata: plotStrata, SamplePlots: samplePlots,
	}, nil
}

func resolvePlotStrata(plots, strata *frame.Frame) (map[string]StratumAssign, error) {
	stratumCN, ok := strata.Col("CN")
	if !ok {
		return nil, errs.New(errs.MissingColumn, "POP_STRATUM.CN missing from stratification scan")
	}
	expns, _ := strata.Col("EXPNS")
	p2, _ := strata.Col("P2POINTCNT")
	adjSubp, hasSubp := strata.Col("ADJ_FACTOR_SUBP")
	adjMicr, hasMicr := strata.Col("ADJ_FACTOR_MICR")
	adjMacr, hasMacr := strata.Col("ADJ_FACTOR_MACR")

	byCN := make(map[string]StratumAssign, strata.NRows())
	for i := 0; i < strata.NRows(); i++ {
		cn := stratumCN.AtString(i)
		var f adjust.Factors
		if hasSubp {
			f.Subp = adjSubp.AtFloat64(i)
		}
		if hasMicr {
			f.Micr = adjMicr.AtFloat64(i)
		}
		if hasMacr {
			f.Macr = adjMacr.AtFloat64(i)
		}
		byCN[cn] = StratumAssign{StratumCN: cn, Expns: expns.AtFloat64(i), P2PointCnt: int(p2.AtFloat64(i)), Factors: f}
	}

	plotCN, ok := plots.Col("CN")
	if !ok {
		return nil, errs.New(errs.MissingColumn, "PLOT.CN missing from plot scan")
	}
	stratCol, ok := plots.Col("STRATUM_CN")
	if !ok {
		return nil, errs.New(errs.MissingColumn, "PLOT.STRATUM_CN missing; plot scan must include_strata")
	}
	macroCol, hasMacro := plots.Col("MACRO_BREAKPOINT_DIA")
	out := make(map[string]StratumAssign, plots.NRows())
	for i := 0; i < plots.NRows(); i++ {
		sa, ok := byCN[stratCol.AtString(i)]
		if !ok {
			continue
		}
		if hasMacro {
			sa.MacroBreakpointDia = macroCol.AtFloat64(i)
		}
		out[plotCN.AtString(i)] = sa
	}
	return out, nil
}

func distinctPlotCNs(plots *frame.Frame) []string {
	cn, ok := plots.Col("CN")
	if !ok {
		return nil
	}
	seen := make(map[string]bool, plots.NRows())
	out := make([]string, 0, plots.NRows())
	for i := 0; i < plots.NRows(); i++ {
		v := cn.AtString(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// NPlots is the universal-invariant plot count: the number of phase-2 plots
// assigned to the selected EVALID after state/county/polygon filtering,
// independent of domain indicator (spec.md §8).
func (l *LoadedEvaluation) NPlots() int { return len(l.SamplePlots) }
