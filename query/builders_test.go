package query

import "testing"

func TestBuildTreeAppliesDomainAndFilters(t *testing.T) {
	plan, err := BuildTree(TreeParams{
		TreeDomain: "STATUSCD == 1",
		SPCD:       []int{131, 110},
	})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if !plan.Tables["TREE"] {
		t.Error("expected TREE table registered")
	}
	var sawStatus, sawSpcd bool
	for _, f := range plan.Filters {
		if f.Column == "STATUSCD" && f.Op == "==" {
			sawStatus = true
		}
		if f.Column == "SPCD" && f.Op == "IN" {
			sawSpcd = true
		}
	}
	if !sawStatus || !sawSpcd {
		t.Errorf("expected both STATUSCD and SPCD filters, got %+v", plan.Filters)
	}
}

func TestBuildTreeRejectsForbiddenDomain(t *testing.T) {
	if _, err := BuildTree(TreeParams{TreeDomain: "1=1; DROP TABLE TREE"}); err == nil {
		t.Error("expected error for forbidden domain text")
	}
}

func TestToSQLRendersPushDownFiltersOnly(t *testing.T) {
	plan := NewPlan()
	plan.AddTable("TREE")
	plan.AddColumn(Column{Name: "DIA"})
	plan.AddFilter(Filter{Column: "SPCD", Op: "==", Value: 131, CanPushDown: true})
	plan.AddFilter(Filter{Column: "", Op: "OR", Value: "some text", CanPushDown: false})

	sql, args := plan.toSQL("TREE")
	want := "SELECT DIA FROM TREE WHERE SPCD = ?"
	if sql != want {
		t.Errorf("toSQL() = %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != 131 {
		t.Errorf("toSQL args = %+v, want [131]", args)
	}
}

func TestBuildPlotIncludesStrataJoin(t *testing.T) {
	plan := BuildPlot(PlotParams{Evalid: []int{132301}, IncludeStrata: true})
	if !plan.Tables["POP_PLOT_STRATUM_ASSGN"] {
		t.Error("expected stratum assignment table joined in")
	}
	if len(plan.Joins) != 1 || plan.Joins[0].How != Inner {
		t.Errorf("expected one inner join, got %+v", plan.Joins)
	}
}

func TestBuildCompositeSharesEvalid(t *testing.T) {
	comp, err := BuildComposite(CompositeParams{Evalid: []int{132301}})
	if err != nil {
		t.Fatalf("BuildComposite: %v", err)
	}
	var found bool
	for _, f := range comp.Plots.Filters {
		if f.Column == "EVALID" {
			found = true
		}
	}
	if !found {
		t.Error("expected plot plan to carry the EVALID filter")
	}
	if !comp.Strata.Tables["POP_STRATUM"] {
		t.Error("expected stratification plan to scan POP_STRATUM")
	}
}
