package expand

import "testing"

func TestStratumVarianceZeroForSinglePlot(t *testing.T) {
	s := Stratum{Weight: 100, Values: []float64{5.0}}
	if got := s.Variance(); got != 0 {
		t.Errorf("single-plot stratum variance = %v, want 0", got)
	}
}

func TestStratumTotalIsWeightTimesSumOfValues(t *testing.T) {
	s := Stratum{Weight: 10, Values: []float64{1, 2, 3}}
	if got := s.Total(); got != 60 {
		t.Errorf("Total() = %v, want 60", got)
	}
}

func TestPopulationTotalSumsStrata(t *testing.T) {
	strata := []Stratum{
		{Weight: 10, Values: []float64{1, 2}},
		{Weight: 5, Values: []float64{3, 4, 5}},
	}
	got := PopulationTotal(strata)
	want := 10.0*(1+2) + 5*(3+4+5)
	if got != want {
		t.Errorf("PopulationTotal() = %v, want %v", got, want)
	}
}

func TestMeanAndNMatchSampleSize(t *testing.T) {
	s := Stratum{Weight: 1, Values: []float64{2, 4, 6}}
	if s.N() != 3 {
		t.Errorf("N() = %d, want 3", s.N())
	}
	if got := s.Mean(); got != 4 {
		t.Errorf("Mean() = %v, want 4", got)
	}
}
