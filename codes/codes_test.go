package codes

import "testing"

func TestEvalidYear(t *testing.T) {
	cases := []struct {
		yy   int
		want int
	}{
		{0, 2000},
		{23, 2023},
		{30, 2030},
		{31, 2031}, // between 30 and 90: documented default to 20yy
		{90, 1990},
		{99, 1999},
	}
	for _, c := range cases {
		if got := EvalidYear(c.yy); got != c.want {
			t.Errorf("EvalidYear(%d) = %d, want %d", c.yy, got, c.want)
		}
	}
}

func TestDecodeEvalid(t *testing.T) {
	state, year, typeCode := DecodeEvalid(132301)
	if state != 13 || year != 2023 || typeCode != 1 {
		t.Errorf("DecodeEvalid(132301) = (%d,%d,%d), want (13,2023,1)", state, year, typeCode)
	}
}

func TestRequiredEvalType(t *testing.T) {
	got := RequiredEvalType("area")
	if len(got) != 2 || got[0] != EvalCurr || got[1] != EvalAll {
		t.Errorf("RequiredEvalType(area) = %v", got)
	}
	if got := RequiredEvalType("mortality"); len(got) != 1 || got[0] != EvalMort {
		t.Errorf("RequiredEvalType(mortality) = %v", got)
	}
}

func TestSiteClassIsProductive(t *testing.T) {
	for i := 1; i <= 6; i++ {
		if !SiteClass(i).IsProductive() {
			t.Errorf("SiteClass(%d).IsProductive() = false, want true", i)
		}
	}
	if SiteClassUnproductive.IsProductive() {
		t.Errorf("SiteClassUnproductive.IsProductive() = true, want false")
	}
}
