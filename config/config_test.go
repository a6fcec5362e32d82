package config

import (
	"testing"

	"github.com/mihiarc/gofia/errs"
)

func TestBaseValidateCrossFieldRules(t *testing.T) {
	b := DefaultBase()
	b.TreeClass = "timber"
	b.LandType = "forest"
	if _, err := b.Validate(); err == nil || !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig for tree_class=timber without land_type=timber, got %v", err)
	}

	b2 := DefaultBase()
	b2.Method = MethodEMA
	b2.Lambda = 0
	if _, err := b2.Validate(); err == nil {
		t.Errorf("expected error for EMA with lambda=0")
	}
	b2.Lambda = 0.5
	if _, err := b2.Validate(); err != nil {
		t.Errorf("unexpected error for valid EMA config: %v", err)
	}
}

func TestMortalityValidateLiveTreeType(t *testing.T) {
	m := DefaultMortalityConfig()
	m.Base.TreeType = "live"
	if _, err := m.Validate(); err == nil {
		t.Errorf("expected error for mortality with tree_type=live")
	}
}

func TestCarbonConfigValidateRejectsUnknownMethod(t *testing.T) {
	c := DefaultCarbonConfig()
	c.Method = "bogus"
	if _, err := c.Validate(); !errs.Is(err, errs.InvalidConfig) {
		t.Errorf("expected InvalidConfig, got %v", err)
	}
}

func TestGroupingColumnsOrderAndDedup(t *testing.T) {
	b := DefaultBase()
	b.GrpBy = []string{"OWNGRPCD", "SPCD"}
	b.BySpecies = true
	b.BySizeClass = true
	got := b.GroupingColumns()
	want := []string{"OWNGRPCD", "SPCD", "SIZE_CLASS"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRoundTripMap(t *testing.T) {
	b := DefaultBase()
	b.GrpBy = []string{"SPCD"}
	b.BySpecies = true
	b.TreeDomain = "STATUSCD==1"
	b.ExtraParams = map[string]any{"custom_flag": true}

	m := b.ToMap()
	back, err := BaseFromMap(m)
	if err != nil {
		t.Fatalf("BaseFromMap: %v", err)
	}
	if back.TreeDomain != b.TreeDomain || back.BySpecies != b.BySpecies {
		t.Errorf("round trip mismatch: got %+v", back)
	}
	if len(back.GrpBy) != 1 || back.GrpBy[0] != "SPCD" {
		t.Errorf("round trip grp_by mismatch: %v", back.GrpBy)
	}
}

func TestRoundTripYAML(t *testing.T) {
	b := DefaultBase()
	b.LandType = "timber"
	b.Totals = true
	data, err := b.ToLegacyYAML()
	if err != nil {
		t.Fatalf("ToLegacyYAML: %v", err)
	}
	back, err := FromLegacyYAML(data)
	if err != nil {
		t.Fatalf("FromLegacyYAML: %v", err)
	}
	if back.LandType != "timber" || !back.Totals {
		t.Errorf("yaml round trip mismatch: %+v", back)
	}
}

func TestConfigFactory(t *testing.T) {
	v, err := ConfigFactory(ModuleVolume, map[string]any{"vol_type": "gross", "land_type": "timber"})
	if err != nil {
		t.Fatalf("ConfigFactory: %v", err)
	}
	vc, ok := v.(VolumeConfig)
	if !ok {
		t.Fatalf("expected VolumeConfig, got %T", v)
	}
	if vc.VolType != "gross" || vc.LandType != "timber" {
		t.Errorf("got %+v", vc)
	}

	if _, err := ConfigFactory("nonsense", nil); err == nil {
		t.Errorf("expected error for unknown estimator")
	}
}
