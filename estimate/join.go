package estimate

import (
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/internal/log"
	"github.com/mihiarc/gofia/optimize"
	"github.com/mihiarc/gofia/query"
)

var logger = log.For("estimate")

// condJoinColumns are the COND columns a tree-level estimator needs merged
// in for domain evaluation and grouping (forest-type/ownership enrichment,
// PROP_BASIS for the condition-basis adjustment, etc).
var condJoinColumns = []string{
	"COND_STATUS_CD", "CONDPROP_UNADJ", "PROP_BASIS", "FORTYPCD",
	"OWNGRPCD", "SITECLCD", "RESERVCD", "STDSZCD",
}

// planTreeCondJoin records the optimizer's strategy choice for the
// tree<->cond join (spec.md §4.7's tree<->plot rule covers this same shape:
// large left side, small unique right side, hash build on right) purely for
// diagnostics — the actual merge below is an in-memory hash join keyed the
// same way the plan recommends.
func planTreeCondJoin(trees, conds *frame.Frame) {
	node := optimize.Join(
		&optimize.Node{Table: "TREE", Cardinality: int64(trees.NRows())},
		&optimize.Node{Table: "COND", Cardinality: int64(conds.NRows())},
		"PLT_CN,CONDID", "PLT_CN,CONDID", query.Inner,
	)
	logger.WithField("strategy", node.Strategy).Debug("planned tree<->cond join")
}

// JoinTreeCond merges condJoinColumns from conds onto trees, keyed by
// (PLT_CN, CONDID) — the tree -> condition edge of the two-stage model
// (spec.md §4.10). Unmatched trees (should not occur with referentially
// intact data) get zero-valued/empty condition columns rather than being
// dropped, consistent with the "never drop a row" domain-indicator policy.
func JoinTreeCond(trees, conds *frame.Frame) *frame.Frame {
	planTreeCondJoin(trees, conds)

	condPlt, _ := conds.Col("PLT_CN")
	condID, _ := conds.Col("CONDID")
	index := make(map[string]int, conds.NRows())
	for i := 0; i < conds.NRows(); i++ {
		index[condPlt.AtString(i)+"\x1f"+condID.AtString(i)] = i
	}

	treePlt, _ := trees.Col("PLT_CN")
	treeCond, _ := trees.Col("CONDID")
	n := trees.NRows()

	out := trees
	for _, colName := range condJoinColumns {
		src, ok := conds.Col(colName)
		if !ok {
			continue
		}
		out = out.WithColumn(colName, mergedColumn(src, index, treePlt, treeCond, n))
	}
	return out
}

func mergedColumn(src frame.Column, index map[string]int, pltCol, condCol frame.Column, n int) frame.Column {
	switch src.Kind {
	case frame.String:
		vals := make([]string, n)
		for i := 0; i < n; i++ {
			if j, ok := index[pltCol.AtString(i)+"\x1f"+condCol.AtString(i)]; ok {
				vals[i] = src.S[j]
			}
		}
		return frame.NewStringColumn(vals)
	case frame.Int64:
		vals := make([]int64, n)
		for i := 0; i < n; i++ {
			if j, ok := index[pltCol.AtString(i)+"\x1f"+condCol.AtString(i)]; ok {
				vals[i] = src.I[j]
			}
		}
		return frame.NewInt64Column(vals)
	default:
		vals := make([]float64, n)
		for i := 0; i < n; i++ {
			if j, ok := index[pltCol.AtString(i)+"\x1f"+condCol.AtString(i)]; ok {
				vals[i] = src.AtFloat64(j)
			}
		}
		return frame.NewFloat64Column(vals)
	}
}
