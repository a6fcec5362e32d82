package adjust

import "testing"

func factors() Factors { return Factors{Subp: 1.1, Micr: 10.4, Macr: 0.25} }

func TestTreeSelectsMicroBelowFiveInches(t *testing.T) {
	if got := Tree(factors(), 4.9, 0); got != factors().Micr {
		t.Errorf("Tree(dia=4.9) = %v, want Micr", got)
	}
}

func TestTreeSelectsMacroAtOrAboveBreakpoint(t *testing.T) {
	if got := Tree(factors(), 24.0, 24.0); got != factors().Macr {
		t.Errorf("Tree(dia=24, breakpoint=24) = %v, want Macr", got)
	}
	if got := Tree(factors(), 23.9, 24.0); got != factors().Subp {
		t.Errorf("Tree(dia=23.9, breakpoint=24) = %v, want Subp", got)
	}
}

func TestTreeNoMacroBreakpointNeverSelectsMacro(t *testing.T) {
	if got := Tree(factors(), 9999.0, 0); got != factors().Subp {
		t.Errorf("Tree with unset breakpoint on huge DIA = %v, want Subp", got)
	}
}

func TestTreeDefaultsToSubplot(t *testing.T) {
	if got := Tree(factors(), 12.0, 24.0); got != factors().Subp {
		t.Errorf("Tree(dia=12) = %v, want Subp", got)
	}
}

func TestConditionSelector(t *testing.T) {
	if got := Condition(factors(), "MACR"); got != factors().Macr {
		t.Errorf("Condition(MACR) = %v, want Macr", got)
	}
	if got := Condition(factors(), ""); got != factors().Subp {
		t.Errorf("Condition('') = %v, want Subp", got)
	}
	if got := Condition(factors(), "SUBP"); got != factors().Subp {
		t.Errorf("Condition(SUBP) = %v, want Subp", got)
	}
}

func TestGRMSelector(t *testing.T) {
	cases := []struct {
		code SubtypGRM
		want float64
	}{
		{GRMSubp, factors().Subp},
		{GRMMicr, factors().Micr},
		{GRMMacr, factors().Macr},
		{GRMNone, 0},
	}
	for _, c := range cases {
		if got := GRM(factors(), c.code); got != c.want {
			t.Errorf("GRM(%v) = %v, want %v", c.code, got, c.want)
		}
	}
}
