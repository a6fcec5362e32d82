package estimate

import (
	"testing"

	"github.com/mihiarc/gofia/internal/frame"
)

func TestCollectGroupKeysDeduplicatesPreservingOrder(t *testing.T) {
	fr := frame.New([]string{"SPCD"}, map[string]frame.Column{
		"SPCD": frame.NewInt64Column([]int64{131, 110, 131, 833}),
	})
	got := collectGroupKeys(fr, []string{"SPCD"})
	if len(got) != 3 {
		t.Fatalf("expected 3 distinct groups, got %d: %v", len(got), got)
	}
	cols := []string{"SPCD"}
	if got[0] != fr.RowKey(0, cols) || got[1] != fr.RowKey(1, cols) || got[2] != fr.RowKey(3, cols) {
		t.Errorf("expected first-seen order 131, 110, 833, got %v", got)
	}
}

func TestCollectGroupKeysEmptyWhenNoGroupColumns(t *testing.T) {
	fr := frame.New([]string{"SPCD"}, map[string]frame.Column{"SPCD": frame.NewInt64Column([]int64{1})})
	if got := collectGroupKeys(fr, nil); got != nil {
		t.Errorf("expected nil for no group columns, got %v", got)
	}
}

func TestStratifyPlotValuesGroupsByStratum(t *testing.T) {
	plotValues := map[string]float64{"P1": 10, "P2": 20, "P3": 5}
	plotStrata := map[string]StratumAssign{
		"P1": {StratumCN: "S1", Expns: 1000},
		"P2": {StratumCN: "S1", Expns: 1000},
		"P3": {StratumCN: "S2", Expns: 2000},
	}
	strata := stratifyPlotValues(plotValues, plotStrata)
	if len(strata) != 2 {
		t.Fatalf("expected 2 strata, got %d", len(strata))
	}
	for _, s := range strata {
		if s.Weight == 1000 && len(s.Values) != 2 {
			t.Errorf("stratum S1 should have 2 values, got %d", len(s.Values))
		}
	}
}

func TestTreeTypeFilterForGrowingStockRequiresStatusAndClass(t *testing.T) {
	fr := frame.New([]string{"STATUSCD", "TREECLCD"}, map[string]frame.Column{
		"STATUSCD": frame.NewInt64Column([]int64{1, 1, 2}),
		"TREECLCD": frame.NewInt64Column([]int64{2, 3, 2}),
	})
	f := TreeTypeFilterFor("gs")
	if !f(fr, 0) {
		t.Error("expected row 0 (status=1,treeclcd=2) to pass gs filter")
	}
	if f(fr, 1) {
		t.Error("expected row 1 (status=1,treeclcd=3) to fail gs filter")
	}
	if f(fr, 2) {
		t.Error("expected row 2 (status=2) to fail gs filter")
	}
}

func TestTreeTypeFilterForAllAlwaysPasses(t *testing.T) {
	fr := frame.New([]string{"STATUSCD"}, map[string]frame.Column{"STATUSCD": frame.NewInt64Column([]int64{1, 2, 3})})
	f := TreeTypeFilterFor("all")
	for i := 0; i < 3; i++ {
		if !f(fr, i) {
			t.Errorf("row %d should pass tree_type=all", i)
		}
	}
}

func TestVolTypeColumnMapping(t *testing.T) {
	cases := map[string]string{"net": "VOLCFNET", "gross": "VOLCFGRS", "sound": "VOLCFSND", "sawlog": "VOLCSNET", "": "VOLCFNET"}
	for in, want := range cases {
		if got := volTypeColumn(in); got != want {
			t.Errorf("volTypeColumn(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBiomassMetricTotalSumsAGAndBG(t *testing.T) {
	fr := frame.New([]string{"DRYBIO_AG", "DRYBIO_BG"}, map[string]frame.Column{
		"DRYBIO_AG": frame.NewFloat64Column([]float64{2000}),
		"DRYBIO_BG": frame.NewFloat64Column([]float64{1000}),
	})
	m := biomassMetric("total")
	if got := m(fr, 0); got != 1.5 {
		t.Errorf("biomassMetric(total) = %v, want 1.5 tons", got)
	}
}
