// Package variance implements C12: stratified-SRS total variance and
// ratio-of-means variance, matching the EVALIDator conventions spec.md
// §4.12 calls out explicitly (no finite-population correction; floor at
// zero before taking the square root).
package variance

import (
	"math"

	"github.com/mihiarc/gofia/expand"
	"gonum.org/v1/gonum/stat"
)

// Total computes Var(Ŷ) = Σ_h w_h² · n_h · s²_{y,h} for a simple (non-ratio)
// stratified total, plus its standard error and coefficient of variation.
func Total(strata []expand.Stratum) (total, varEst, se, cv float64) {
	total = expand.PopulationTotal(strata)
	for _, s := range strata {
		n := float64(s.N())
		varEst += s.Weight * s.Weight * n * s.Variance()
	}
	se = math.Sqrt(math.Max(varEst, 0))
	if total > 0 {
		cv = 100 * se / total
	}
	return
}

// RatioStratum pairs a numerator stratum y_i with its denominator x_i,
// sharing the same sample (spec.md §4.12's ratio-of-means section).
type RatioStratum struct {
	Weight float64
	Y, X   []float64 // y_i, x_i for i in h; must be equal length
}

func (r RatioStratum) n() int { return len(r.Y) }

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func variance(xs []float64, m float64) float64 {
	if len(xs) <= 1 {
		return 0
	}
	return stat.Variance(xs, nil)
}

func covariance(ys, xs []float64, ybar, xbar float64) float64 {
	if len(ys) <= 1 {
		return 0
	}
	return stat.Covariance(ys, xs, nil)
}

// Ratio is the outcome of a ratio-of-means computation: the ratio itself,
// its variance/SE, and a diagnostic flag for the X̂=0 edge case (spec.md
// §4.12's "Edge cases" paragraph).
type Ratio struct {
	Y, X            float64 // population totals Ŷ, X̂
	R               float64
	Var, SE         float64
	ZeroDenominator bool
}

// RatioOfMeans computes R = Ŷ/X̂ and its variance per spec.md §4.12's
// formula, flooring Var at 0 before the square root (sampling noise can
// otherwise make the raw Taylor-series estimate slightly negative).
func RatioOfMeans(strata []RatioStratum) Ratio {
	var yTotal, xTotal, varSum float64
	type stratumStats struct {
		weight        float64
		n             float64
		ybar, xbar    float64
		sy2, sx2, syx float64
	}
	stats := make([]stratumStats, 0, len(strata))
	for _, s := range strata {
		ybar := mean(s.Y)
		xbar := mean(s.X)
		n := float64(s.n())
		yTotal += s.Weight * n * ybar
		xTotal += s.Weight * n * xbar
		stats = append(stats, stratumStats{
			weight: s.Weight, n: n, ybar: ybar, xbar: xbar,
			sy2: variance(s.Y, ybar), sx2: variance(s.X, xbar),
			syx: covariance(s.Y, s.X, ybar, xbar),
		})
	}
	if xTotal == 0 {
		return Ratio{Y: yTotal, X: 0, R: 0, Var: 0, SE: 0, ZeroDenominator: true}
	}
	r := yTotal / xTotal
	for _, st := range stats {
		varSum += st.weight * st.weight * st.n * (st.sy2 + r*r*st.sx2 - 2*r*st.syx)
	}
	varSum = varSum / (xTotal * xTotal)
	varSum = math.Max(varSum, 0)
	return Ratio{Y: yTotal, X: xTotal, R: r, Var: varSum, SE: math.Sqrt(varSum)}
}
