package optimize

import (
	"testing"

	"github.com/mihiarc/gofia/query"
)

func TestJoinAppliesTreePlotHashBuildRightRule(t *testing.T) {
	left := leaf("TREE", 2_000_000, nil)
	right := leaf("PLOT", 4_000, nil)
	n := Join(left, right, "PLT_CN", "CN", query.Inner)
	if n.Strategy != query.Hash {
		t.Errorf("expected hash strategy for tree-plot join, got %v", n.Strategy)
	}
}

func TestJoinAppliesStratificationBroadcastRule(t *testing.T) {
	left := leaf("POP_PLOT_STRATUM_ASSGN", 4_000, nil)
	right := leaf("POP_STRATUM", 40, nil)
	n := Join(left, right, "STRATUM_CN", "CN", query.Inner)
	if n.Strategy != query.Broadcast {
		t.Errorf("expected broadcast strategy for stratification join, got %v", n.Strategy)
	}
}

func TestJoinAppliesTreeRefSpeciesBroadcastLeftRule(t *testing.T) {
	left := leaf("TREE", 2_000_000, nil)
	right := leaf("REF_SPECIES", 400, nil)
	n := Join(left, right, "SPCD", "SPCD", query.Inner)
	if n.Strategy != query.Broadcast || n.How != query.Left {
		t.Errorf("expected broadcast left join, got strategy=%v how=%v", n.Strategy, n.How)
	}
}

func TestOutputCardinalityRules(t *testing.T) {
	cases := []struct {
		how      query.JoinHow
		l, r     int64
		wantFunc func(got int64) bool
	}{
		{query.Inner, 10, 20, func(got int64) bool { return got <= 10 }},
		{query.Left, 10, 20, func(got int64) bool { return got >= 10 }},
		{query.Right, 10, 20, func(got int64) bool { return got >= 20 }},
		{query.Cross, 10, 20, func(got int64) bool { return got == 200 }},
	}
	for _, c := range cases {
		got := outputCardinality(c.l, c.r, c.how)
		if !c.wantFunc(got) {
			t.Errorf("outputCardinality(%d,%d,%v) = %d, violates rule", c.l, c.r, c.how, got)
		}
	}
}

func TestLeafSplitsPushedAndRemainingFilters(t *testing.T) {
	filters := []query.Filter{
		{Column: "SPCD", Op: "==", Value: 131, CanPushDown: true, Table: "TREE"},
		{Column: "", Op: "OR", Value: "compound", CanPushDown: false},
	}
	n := leaf("TREE", 100, filters)
	if len(n.PushedFilters) != 1 || len(n.RemainingFilters) != 1 {
		t.Errorf("expected 1 pushed and 1 remaining filter, got pushed=%d remaining=%d",
			len(n.PushedFilters), len(n.RemainingFilters))
	}
}

func TestPlanBuildsTwoStageJoinTree(t *testing.T) {
	root := Plan(2_000_000, 4_000, 40, nil, nil, nil)
	if root.Left == nil || root.Right == nil {
		t.Fatal("expected root join to have both children")
	}
	if root.Strategy != query.Broadcast {
		t.Errorf("expected root (stratification) join to broadcast, got %v", root.Strategy)
	}
	if root.Left.Strategy != query.Hash {
		t.Errorf("expected inner tree-plot join to hash, got %v", root.Left.Strategy)
	}
}
