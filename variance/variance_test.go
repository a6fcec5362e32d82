package variance

import (
	"math"
	"testing"

	"github.com/mihiarc/gofia/expand"
)

func TestTotalVarianceNonNegative(t *testing.T) {
	strata := []expand.Stratum{
		{Weight: 1000, Values: []float64{1, 2, 3, 4}},
		{Weight: 500, Values: []float64{0, 0, 5}},
	}
	total, varEst, se, cv := Total(strata)
	if varEst < 0 {
		t.Errorf("variance must be non-negative, got %v", varEst)
	}
	if se != math.Sqrt(varEst) {
		t.Errorf("SE should be sqrt(Var), got se=%v var=%v", se, varEst)
	}
	if total > 0 && cv <= 0 {
		t.Errorf("expected positive CV for positive total, got %v", cv)
	}
}

func TestTotalSinglePlotStratumContributesZeroVariance(t *testing.T) {
	strata := []expand.Stratum{
		{Weight: 100, Values: []float64{42}},
	}
	_, varEst, _, _ := Total(strata)
	if varEst != 0 {
		t.Errorf("single-plot stratum should contribute 0 variance, got %v", varEst)
	}
}

func TestRatioOfMeansZeroDenominatorFlag(t *testing.T) {
	strata := []RatioStratum{
		{Weight: 10, Y: []float64{1, 2}, X: []float64{0, 0}},
	}
	got := RatioOfMeans(strata)
	if !got.ZeroDenominator {
		t.Error("expected ZeroDenominator flag set when X total is 0")
	}
	if got.R != 0 || got.Var != 0 {
		t.Errorf("expected R=0, Var=0 on zero denominator, got R=%v Var=%v", got.R, got.Var)
	}
}

func TestRatioOfMeansFloorsVarianceAtZero(t *testing.T) {
	// A degenerate single-plot-per-stratum case drives each s²/covariance
	// term to 0, so Var must floor at (and equal) 0, never go negative.
	strata := []RatioStratum{
		{Weight: 10, Y: []float64{5}, X: []float64{2}},
		{Weight: 10, Y: []float64{7}, X: []float64{3}},
	}
	got := RatioOfMeans(strata)
	if got.Var < 0 {
		t.Errorf("Var must never be negative, got %v", got.Var)
	}
	if got.Var != 0 {
		t.Errorf("expected Var = 0 for single-plot strata, got %v", got.Var)
	}
	if got.SE != math.Sqrt(got.Var) {
		t.Errorf("SE should be sqrt(Var)")
	}
}

func TestRatioOfMeansComputesExpectedRatio(t *testing.T) {
	strata := []RatioStratum{
		{Weight: 1, Y: []float64{10, 20}, X: []float64{1, 1}},
	}
	got := RatioOfMeans(strata)
	wantR := (1 * 15.0) / (1 * 1.0)
	if math.Abs(got.R-wantR) > 1e-9 {
		t.Errorf("R = %v, want %v", got.R, wantR)
	}
}
