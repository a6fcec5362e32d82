package aggregate

import "testing"

func TestRollupTreesSumsTreesThenConditions(t *testing.T) {
	rows := []TreeRow{
		{PlotCN: "P1", CondID: "1", Value: 2.0},
		{PlotCN: "P1", CondID: "1", Value: 3.0},
		{PlotCN: "P1", CondID: "2", Value: 1.0},
		{PlotCN: "P2", CondID: "1", Value: 4.0},
	}
	got := RollupTrees(rows, []string{"P1", "P2", "P3"})
	if got["P1"] != 6.0 {
		t.Errorf("P1 total = %v, want 6.0", got["P1"])
	}
	if got["P2"] != 4.0 {
		t.Errorf("P2 total = %v, want 4.0", got["P2"])
	}
	if got["P3"] != 0.0 {
		t.Errorf("P3 (no trees sampled) total = %v, want 0.0, must still be present", got["P3"])
	}
	if len(got) != 3 {
		t.Errorf("expected all 3 sample plots to remain, got %d", len(got))
	}
}

func TestRollupAreaKeepsZeroValuedPlots(t *testing.T) {
	rows := []CondRow{{PlotCN: "P1", Value: 0.25}}
	got := RollupArea(rows, []string{"P1", "P2"})
	if got["P1"] != 0.25 {
		t.Errorf("P1 = %v, want 0.25", got["P1"])
	}
	if _, ok := got["P2"]; !ok {
		t.Error("expected P2 (zero-area plot) to remain in the result")
	}
}

func TestRollupSiteIndexAccumulatesNumeratorAndDenominator(t *testing.T) {
	rows := []SiteIndexRow{
		{PlotCN: "P1", CondpropUnadjInd: 0.5, SICOND: 80},
		{PlotCN: "P1", CondpropUnadjInd: 0.5, SICOND: 90},
	}
	got := RollupSiteIndex(rows, []string{"P1"})
	acc := got["P1"]
	if acc.Denominator != 1.0 {
		t.Errorf("denominator = %v, want 1.0", acc.Denominator)
	}
	want := 0.5*80 + 0.5*90
	if acc.Numerator != want {
		t.Errorf("numerator = %v, want %v", acc.Numerator, want)
	}
}
