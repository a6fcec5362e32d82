package query

import "github.com/mihiarc/gofia/validate"

// FiltersFromDomain flattens a parsed domain expression into Filters: a
// top-level chain of AND-joined predicates splits into one Filter each
// (spec.md §4.6); an OR anywhere in the tree is preserved as a single
// compound, non-push-down-able Filter carrying its rendered text.
func FiltersFromDomain(e validate.Expr) []Filter {
	var out []Filter
	flattenAnd(e, &out)
	return out
}

func flattenAnd(e validate.Expr, out *[]Filter) {
	switch n := e.(type) {
	case validate.And:
		flattenAnd(n.Left, out)
		flattenAnd(n.Right, out)
	default:
		*out = append(*out, filterFromLeaf(e))
	}
}

func filterFromLeaf(e validate.Expr) Filter {
	switch n := e.(type) {
	case validate.Comparison:
		return Filter{Column: n.Column, Op: n.Op, Value: literalValue(n.Value), CanPushDown: true}
	case validate.BetweenExpr:
		return Filter{Column: n.Column, Op: "BETWEEN", Value: []any{literalValue(n.Low), literalValue(n.High)}, CanPushDown: true}
	case validate.InExpr:
		vals := make([]any, len(n.Values))
		for i, v := range n.Values {
			vals[i] = literalValue(v)
		}
		return Filter{Column: n.Column, Op: "IN", Value: vals, CanPushDown: true}
	case validate.NullCheck:
		op := "IS NULL"
		if n.Not {
			op = "IS NOT NULL"
		}
		return Filter{Column: n.Column, Op: op, CanPushDown: true}
	case validate.Or:
		// An OR cannot be represented as a single-column pushdown filter;
		// it is applied after the join as an opaque compound predicate.
		return Filter{Column: "", Op: "OR", Value: n.String(), CanPushDown: false}
	default:
		return Filter{Op: "UNKNOWN", CanPushDown: false}
	}
}

func literalValue(l validate.Literal) any {
	if l.IsString {
		return l.Str
	}
	return l.Num
}

// ParseFilterText parses a domain-expression text predicate (spec.md §4.2's
// grammar) into the Filter list a builder attaches to its plan.
func ParseFilterText(text string) ([]Filter, error) {
	if text == "" {
		return nil, nil
	}
	expr, err := validate.ParseDomain(text)
	if err != nil {
		return nil, err
	}
	return FiltersFromDomain(expr), nil
}
