package query

import "testing"

func TestEstimateSelectivity(t *testing.T) {
	cases := []struct {
		name string
		f    Filter
		want float64
	}{
		{"equality", Filter{Op: "=="}, SelectivityEquality},
		{"range", Filter{Op: "BETWEEN"}, SelectivityRange},
		{"is_null", Filter{Op: "IS NULL"}, SelectivityIsNull},
		{"is_not_null", Filter{Op: "IS NOT NULL"}, SelectivityIsNotNull},
		{"in_small", Filter{Op: "IN", Value: []any{1, 2}}, 0.2},
		{"in_large_capped", Filter{Op: "IN", Value: []any{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}}, 1.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := EstimateSelectivity(c.f); got != c.want {
				t.Errorf("EstimateSelectivity(%+v) = %v, want %v", c.f, got, c.want)
			}
		})
	}
}

func TestCacheKeyIsOrderIndependentOverTables(t *testing.T) {
	p1 := NewPlan()
	p1.AddTable("TREE")
	p1.AddTable("COND")
	p1.AddColumn(Column{Name: "DIA"})

	p2 := NewPlan()
	p2.AddTable("COND")
	p2.AddTable("TREE")
	p2.AddColumn(Column{Name: "DIA"})

	k1, err := p1.CacheKey()
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	k2, err := p2.CacheKey()
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	if k1 != k2 {
		t.Errorf("expected table-insertion-order-independent cache keys, got %d != %d", k1, k2)
	}
}

func TestCacheKeyDiffersOnFilterChange(t *testing.T) {
	p1 := NewPlan()
	p1.AddTable("TREE")
	p1.AddFilter(Filter{Column: "SPCD", Op: "==", Value: 131})

	p2 := NewPlan()
	p2.AddTable("TREE")
	p2.AddFilter(Filter{Column: "SPCD", Op: "==", Value: 132})

	k1, _ := p1.CacheKey()
	k2, _ := p2.CacheKey()
	if k1 == k2 {
		t.Error("expected different cache keys for different filter values")
	}
}
