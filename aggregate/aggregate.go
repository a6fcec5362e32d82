// Package aggregate implements C10: the two-stage tree -> condition -> plot
// rollup for tree-level metrics, and the condition-level area/site-index
// rollups, preserving every plot with at least one sampled condition (even
// at y_i = 0) since variance needs the true phase-2 plot population.
package aggregate

import "gonum.org/v1/gonum/floats"

// TreeRow is one tree-level row's already-computed per-tree value, keyed to
// the plot and condition it belongs to (m_t in spec.md §4.10 step 1).
type TreeRow struct {
	PlotCN string
	CondID string
	Value  float64
}

// RollupTrees performs the condition roll-up h_{i,c} = Σ m_t followed by the
// plot roll-up y_i = Σ_c h_{i,c} (spec.md §4.10 steps 2-3), returning the
// per-plot totals keyed by PlotCN.
func RollupTrees(rows []TreeRow, samplePlots []string) map[string]float64 {
	condTotals := map[string]map[string]float64{} // plotCN -> condID -> h_ic
	for _, r := range rows {
		conds, ok := condTotals[r.PlotCN]
		if !ok {
			conds = map[string]float64{}
			condTotals[r.PlotCN] = conds
		}
		conds[r.CondID] += r.Value
	}
	plotTotals := make(map[string]float64, len(samplePlots))
	for _, cn := range samplePlots {
		plotTotals[cn] = 0
	}
	for plotCN, conds := range condTotals {
		values := make([]float64, 0, len(conds))
		for _, h := range conds {
			values = append(values, h)
		}
		plotTotals[plotCN] += floats.Sum(values)
	}
	return plotTotals
}

// CondRow is one condition's already-adjusted area contribution
// (h_{i,c} = CONDPROP_UNADJ · ADJ(c) · I_D(c), spec.md §4.10's area rule).
type CondRow struct {
	PlotCN string
	Value  float64
}

// RollupArea sums condition-level h_{i,c} values to the plot total y_i,
// preserving every plot named in samplePlots even when it sums to zero.
func RollupArea(rows []CondRow, samplePlots []string) map[string]float64 {
	plotTotals := make(map[string]float64, len(samplePlots))
	for _, cn := range samplePlots {
		plotTotals[cn] = 0
	}
	for _, r := range rows {
		plotTotals[r.PlotCN] += r.Value
	}
	return plotTotals
}

// SiteIndexRow is one condition's site-index numerator/denominator
// contribution (spec.md §4.10's weighted-mean rule).
type SiteIndexRow struct {
	PlotCN           string
	CondpropUnadjInd float64 // CONDPROP_UNADJ * I_D
	SICOND           float64
}

// SiteIndexAccum holds the per-plot running (numerator, denominator) pair
// for the site-index weighted mean.
type SiteIndexAccum struct {
	Numerator   float64 // Σ CONDPROP_UNADJ · SICOND · I_D
	Denominator float64 // Σ CONDPROP_UNADJ · I_D
}

// RollupSiteIndex accumulates the per-plot numerator/denominator pairs a
// later ratio-of-means step divides (SIBASE always remains a grouping key
// upstream, per spec.md §4.10).
func RollupSiteIndex(rows []SiteIndexRow, samplePlots []string) map[string]SiteIndexAccum {
	plotTotals := make(map[string]SiteIndexAccum, len(samplePlots))
	for _, cn := range samplePlots {
		plotTotals[cn] = SiteIndexAccum{}
	}
	for _, r := range rows {
		acc := plotTotals[r.PlotCN]
		acc.Numerator += r.CondpropUnadjInd * r.SICOND
		acc.Denominator += r.CondpropUnadjInd
		plotTotals[r.PlotCN] = acc
	}
	return plotTotals
}
