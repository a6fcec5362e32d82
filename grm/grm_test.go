package grm

import (
	"math"
	"testing"

	"github.com/mihiarc/gofia/internal/frame"
)

func TestComponentColumnsSelectsGSForestTriad(t *testing.T) {
	component, tpa, subtyp := componentColumns("growing_stock", "forest", "MORT")
	if component != "SUBP_COMPONENT_GS_FOREST" {
		t.Errorf("component = %q", component)
	}
	if tpa != "SUBP_TPAMORT_UNADJ_GS_FOREST" {
		t.Errorf("tpa = %q", tpa)
	}
	if subtyp != "SUBP_SUBPTYP_GRM_GS_FOREST" {
		t.Errorf("subtyp = %q", subtyp)
	}
}

func TestComponentColumnsDefaultsToAllTimber(t *testing.T) {
	component, tpa, subtyp := componentColumns("all", "timber", "REMV")
	if component != "SUBP_COMPONENT_AL_TIMBER" {
		t.Errorf("component = %q", component)
	}
	if tpa != "SUBP_TPAREMV_UNADJ_AL_TIMBER" {
		t.Errorf("tpa = %q", tpa)
	}
	if subtyp != "SUBP_SUBPTYP_GRM_AL_TIMBER" {
		t.Errorf("subtyp = %q", subtyp)
	}
}

func TestMeasureValueTPAIsAlwaysOne(t *testing.T) {
	mid := frame.New([]string{"TRE_CN", "VOLCFNET"}, map[string]frame.Column{
		"TRE_CN":   frame.NewStringColumn([]string{"T1"}),
		"VOLCFNET": frame.NewFloat64Column([]float64{42}),
	})
	idx := midptIndex(mid)
	if v := measureValue("tpa", 0.47, mid, idx, "T1"); v != 1 {
		t.Errorf("measureValue(tpa) = %v, want 1", v)
	}
	if v := measureValue("volume", 0.47, mid, idx, "T1"); v != 42 {
		t.Errorf("measureValue(volume) = %v, want 42", v)
	}
	if v := measureValue("volume", 0.47, mid, idx, "missing"); v != 0 {
		t.Errorf("measureValue for unmatched TRE_CN = %v, want 0", v)
	}
}

func TestMeasureValueCarbonAppliesFraction(t *testing.T) {
	mid := frame.New([]string{"TRE_CN", "DRYBIO_AG"}, map[string]frame.Column{
		"TRE_CN":    frame.NewStringColumn([]string{"T1"}),
		"DRYBIO_AG": frame.NewFloat64Column([]float64{2000}),
	})
	idx := midptIndex(mid)
	if v := measureValue("carbon", 0.5, mid, idx, "T1"); v != 0.5 {
		t.Errorf("measureValue(carbon) = %v, want 0.5", v)
	}
}

func TestMortalityAndRemovalsComponentSets(t *testing.T) {
	for _, c := range []string{"MORTALITY1", "MORTALITY2"} {
		if !mortalityComponents[c] {
			t.Errorf("expected %s to be a mortality component", c)
		}
	}
	for _, c := range []string{"CUT1", "CUT2", "DIVERSION1", "DIVERSION2"} {
		if !removalsComponents[c] {
			t.Errorf("expected %s to be a removals component", c)
		}
	}
	if mortalityComponents["SURVIVOR"] || removalsComponents["SURVIVOR"] {
		t.Error("SURVIVOR must not be in either mortality or removals component set")
	}
}

func TestDistinctKeysDeduplicates(t *testing.T) {
	fr := frame.New([]string{"SPCD"}, map[string]frame.Column{
		"SPCD": frame.NewInt64Column([]int64{131, 131, 110}),
	})
	keys := distinctKeys(fr, []string{"SPCD"})
	if len(keys) != 2 {
		t.Fatalf("expected 2 distinct keys, got %d", len(keys))
	}
}

func TestMortColumnNameMapping(t *testing.T) {
	cases := map[string]string{"tpa": "MORT_TPA", "volume": "MORT_VOLCFNET", "biomass": "MORT_DRYBIO_AG", "carbon": "MORT_CARBON_AG", "sawlog": "MORT_VOLCSNET"}
	for in, want := range cases {
		if got := mortColumnName(in); got != want {
			t.Errorf("mortColumnName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScaleColumnMissingColumnYieldsZeros(t *testing.T) {
	fr := frame.New(nil, map[string]frame.Column{})
	out := scaleColumn(fr, "GROWTH_DRYBIO_AG", 0.47, 3)
	if len(out) != 3 || out[0] != 0 || out[1] != 0 || out[2] != 0 {
		t.Errorf("expected 3 zeros, got %v", out)
	}
}

func TestScaleColumnAppliesFraction(t *testing.T) {
	fr := frame.New([]string{"X"}, map[string]frame.Column{"X": frame.NewFloat64Column([]float64{10, 20})})
	out := scaleColumn(fr, "X", 0.47, 2)
	if math.Abs(out[0]-4.7) > 1e-12 || math.Abs(out[1]-9.4) > 1e-12 {
		t.Errorf("scaleColumn = %v", out)
	}
}
