// Package optimize implements C7: a small cost-based join planner
// specialized to the handful of join shapes a FIA estimation ever needs,
// rather than a general relational optimizer.
package optimize

import "github.com/mihiarc/gofia/query"

// Node is one join (or leaf scan) in the rewritten join tree.
type Node struct {
	Left, Right *Node // nil for a leaf scan
	Table       string
	Keys        [2]string // left key, right key; unused on a leaf
	How         query.JoinHow
	Strategy    query.Strategy
	Cost        float64
	Cardinality int64

	// PushedFilters are the filters the optimizer attached to this node's
	// own scan (single-table, pure-expression); RemainingFilters stay at the
	// post-join step and are evaluated against the combined row.
	PushedFilters    []query.Filter
	RemainingFilters []query.Filter
}

// leaf returns a scan node sized by rows, with single-table filters already
// attached as PushedFilters per §4.7's push-down rule.
func leaf(table string, rows int64, filters []query.Filter) *Node {
	var pushed, remaining []query.Filter
	for _, f := range filters {
		if f.CanPushDown && (f.Table == "" || f.Table == table) {
			pushed = append(pushed, f)
		} else {
			remaining = append(remaining, f)
		}
	}
	return &Node{Table: table, Cardinality: rows, PushedFilters: pushed, RemainingFilters: remaining}
}

// fiaRule names a hard-coded join shape the optimizer recognizes before
// falling back to the generic cost model (spec.md §4.7 "FIA-specific rules,
// applied before generic rules").
type fiaRule struct {
	leftTable, rightTable string
	strategy              query.Strategy
	how                   query.JoinHow
	buildRight            bool
}

var fiaRules = []fiaRule{
	{leftTable: "TREE", rightTable: "PLOT", strategy: query.Hash, how: query.Inner, buildRight: true},
	{leftTable: "POP_PLOT_STRATUM_ASSGN", rightTable: "POP_STRATUM", strategy: query.Broadcast, how: query.Inner, buildRight: true},
	{leftTable: "TREE", rightTable: "REF_SPECIES", strategy: query.Broadcast, how: query.Left, buildRight: true},
}

func matchRule(left, right string) (fiaRule, bool) {
	for _, r := range fiaRules {
		if r.leftTable == left && r.rightTable == right {
			return r, true
		}
		if r.leftTable == right && r.rightTable == left {
			// Symmetric match; the rule's "left"/"right" names the small
			// side to build/broadcast, not scan order.
			return r, true
		}
	}
	return fiaRule{}, false
}

// Join builds a join node over left and right, choosing a strategy: a
// recognized FIA-specific shape first, the generic cost model otherwise
// (spec.md §4.7).
func Join(left, right *Node, leftKey, rightKey string, how query.JoinHow) *Node {
	n := &Node{Left: left, Right: right, Keys: [2]string{leftKey, rightKey}, How: how}
	if rule, ok := matchRule(left.Table, right.Table); ok {
		n.Strategy = rule.strategy
		n.How = rule.how
	} else {
		n.Strategy = chooseStrategy(left.Cardinality, right.Cardinality)
	}
	n.Cardinality = outputCardinality(left.Cardinality, right.Cardinality, n.How)
	n.Cost = cost(left.Cardinality, right.Cardinality, n.Strategy)
	return n
}

// chooseStrategy applies the generic cost model when no FIA-specific rule
// matches: broadcast when one side is small, hash otherwise, per spec.md
// §4.7's cost formulas.
func chooseStrategy(leftRows, rightRows int64) query.Strategy {
	small, large := leftRows, rightRows
	if small > large {
		small, large = large, small
	}
	switch {
	case small == 0:
		return query.NestedLoop
	case float64(small) < float64(large)*0.05 && small < 10_000:
		return query.Broadcast
	case large > 0:
		return query.Hash
	default:
		return query.NestedLoop
	}
}

// cost implements spec.md §4.7's four cost formulas. Build/probe/sort/ship
// costs are all modeled as linear in row count, which is the right fidelity
// for choosing between strategies without a real cardinality estimator.
func cost(leftRows, rightRows int64, strategy query.Strategy) float64 {
	l, r := float64(leftRows), float64(rightRows)
	switch strategy {
	case query.Hash:
		small, large := l, r
		if small > large {
			small, large = large, small
		}
		return small + large // build(smaller) + probe(larger)
	case query.SortMerge:
		return l*logN(l) + r*logN(r) + (l + r) // sort(left) + sort(right) + merge
	case query.Broadcast:
		small, large := l, r
		if small > large {
			small, large = large, small
		}
		return small + small + large // ship(smaller) + hash build + probe
	case query.NestedLoop:
		return l * r // product
	default:
		return l + r
	}
}

func logN(n float64) float64 {
	if n <= 1 {
		return 1
	}
	// A cheap log2 approximation avoiding a math import for one call site;
	// only the relative ordering across candidate strategies matters here.
	count := 0.0
	for n > 1 {
		n /= 2
		count++
	}
	return count
}

// outputCardinality implements spec.md §4.7's output-cardinality rules.
// INNER is approximated at min(l,r) (perfect-uniqueness assumption, since
// every FIA-specific join key is a primary or foreign key).
func outputCardinality(l, r int64, how query.JoinHow) int64 {
	switch how {
	case query.Inner:
		if l < r {
			return l
		}
		return r
	case query.Left:
		return l
	case query.Right:
		return r
	case query.Full:
		if l > r {
			return l
		}
		return r
	case query.Cross:
		return l * r
	default:
		return l + r
	}
}

// Plan builds the FIA two-stage join tree (tree -> plot, plot+ppsa ->
// stratum) from scan row-count estimates, returning the root Node with every
// PushedFilters/RemainingFilters bookkeeping already resolved.
func Plan(treeRows, plotRows, strataRows int64, treeFilters, plotFilters, strataFilters []query.Filter) *Node {
	treeLeaf := leaf("TREE", treeRows, treeFilters)
	plotLeaf := leaf("PLOT", plotRows, plotFilters)
	strataLeaf := leaf("POP_STRATUM", strataRows, strataFilters)

	treePlot := Join(treeLeaf, plotLeaf, "PLT_CN", "CN", query.Inner)
	return Join(treePlot, strataLeaf, "STRATUM_CN", "CN", query.Inner)
}
