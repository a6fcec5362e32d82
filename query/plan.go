// Package query implements C6: typed query-plan builders for the
// plot/condition/tree/stratum scans, with projection and predicate
// push-down, selectivity estimation, and a stable plan cache key.
package query

import (
	"sort"

	"github.com/mihiarc/gofia/errs"
	"github.com/mitchellh/hashstructure"
)

// Column is a single projected column in a query plan.
type Column struct {
	Name     string
	Table    string
	Required bool
}

// Filter is a single predicate attached to a query plan.
type Filter struct {
	Column      string
	Op          string // ==, !=, <, <=, >, >=, IN, BETWEEN, IS NULL, IS NOT NULL, OR
	Value       any
	Table       string
	CanPushDown bool
}

// JoinHow is a join type.
type JoinHow string

const (
	Inner JoinHow = "INNER"
	Left  JoinHow = "LEFT"
	Right JoinHow = "RIGHT"
	Full  JoinHow = "FULL"
	Cross JoinHow = "CROSS"
)

// Strategy is a chosen (or candidate) join execution strategy.
type Strategy string

const (
	Hash       Strategy = "hash"
	SortMerge  Strategy = "sort_merge"
	Broadcast  Strategy = "broadcast"
	NestedLoop Strategy = "nested_loop"
	Unplanned  Strategy = ""
)

// Join describes one join edge in a query plan.
type Join struct {
	Left, Right     string
	LeftOn, RightOn string
	How             JoinHow
	Strategy        Strategy
}

// Plan is the typed output of a query builder: the tables touched, the
// projected columns, the filters (with push-down eligibility), the joins
// needed to combine the tables, and the group-by columns for aggregation
// queries.
type Plan struct {
	Tables            map[string]bool
	Columns           []Column
	Filters           []Filter
	Joins             []Join
	GroupBy           []string
	EstimatedRows     int64
	FilterSelectivity float64
}

// NewPlan returns an empty Plan with its Tables set initialized.
func NewPlan() *Plan {
	return &Plan{Tables: map[string]bool{}}
}

// AddTable registers a table as scanned by this plan.
func (p *Plan) AddTable(name string) { p.Tables[name] = true }

// AddColumn appends a projected column.
func (p *Plan) AddColumn(c Column) { p.Columns = append(p.Columns, c) }

// AddFilter appends a predicate.
func (p *Plan) AddFilter(f Filter) { p.Filters = append(p.Filters, f) }

// AddJoin appends a join edge.
func (p *Plan) AddJoin(j Join) { p.Joins = append(p.Joins, j) }

// canonical is the deterministic, order-independent projection of a Plan
// used as the hashstructure input for CacheKey: map keys sorted, slices
// already meaningfully ordered by the builder that produced them.
type canonical struct {
	Tables  []string
	Columns []Column
	Filters []Filter
	Joins   []Join
	GroupBy []string
}

func (p *Plan) canonicalize() canonical {
	tables := make([]string, 0, len(p.Tables))
	for t := range p.Tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return canonical{
		Tables:  tables,
		Columns: p.Columns,
		Filters: p.Filters,
		Joins:   p.Joins,
		GroupBy: p.GroupBy,
	}
}

// CacheKey computes a stable 64-bit hash (hashstructure's uint64) of the
// canonicalized plan (spec.md §4.6), suitable for memoizing identical plans
// across calls. It is not a 128-bit hash.
func (p *Plan) CacheKey() (uint64, error) {
	h, err := hashstructure.Hash(p.canonicalize(), nil)
	if err != nil {
		return 0, errs.Wrap(err, errs.QueryError, "hashing query plan")
	}
	return h, nil
}

// Selectivity heuristics per spec.md §4.6.
const (
	SelectivityEquality    = 0.1
	SelectivityRange       = 0.3
	SelectivityIsNull      = 0.05
	SelectivityIsNotNull   = 0.9
)

// EstimateSelectivity returns the heuristic selectivity for a filter's
// operator; for IN, it scales with the cardinality of the value list.
func EstimateSelectivity(f Filter) float64 {
	switch f.Op {
	case "==", "!=":
		return SelectivityEquality
	case "<", "<=", ">", ">=", "BETWEEN":
		return SelectivityRange
	case "IS NULL":
		return SelectivityIsNull
	case "IS NOT NULL":
		return SelectivityIsNotNull
	case "IN":
		if vals, ok := f.Value.([]any); ok {
			n := float64(len(vals))
			s := n * SelectivityEquality
			if s > 1 {
				s = 1
			}
			return s
		}
		return SelectivityEquality
	default:
		return 1.0
	}
}
