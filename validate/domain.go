package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/internal/frame"
)

// forbiddenTokens are rejected case-insensitively, word-boundary matched,
// anywhere in a domain expression string, per spec.md §4.2.
var forbiddenTokens = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "DROP", "CREATE", "ALTER",
	"EXEC", "UNION", "INTO", "GRANT", "REVOKE",
}

var forbiddenRe = func() *regexp.Regexp {
	parts := make([]string, len(forbiddenTokens))
	for i, t := range forbiddenTokens {
		parts[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(parts, "|") + `)\b`)
}()

// Literal is a parsed scalar value: either a float64 or a string.
type Literal struct {
	IsString bool
	Num      float64
	Str      string
}

func (l Literal) String() string {
	if l.IsString {
		return l.Str
	}
	return strconv.FormatFloat(l.Num, 'g', -1, 64)
}

// Expr is a node in a parsed domain expression AST.
type Expr interface {
	isExpr()
	// String renders the expression back to its canonical text form, used
	// both for debugging and as part of a query plan's cache key input.
	String() string
}

type Comparison struct {
	Column string
	Op     string // ==, !=, <, <=, >, >=
	Value  Literal
}

func (Comparison) isExpr() {}
func (c Comparison) String() string {
	return fmt.Sprintf("%s%s%s", c.Column, c.Op, c.Value.String())
}

type InExpr struct {
	Column string
	Values []Literal
}

func (InExpr) isExpr() {}
func (e InExpr) String() string {
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s IN (%s)", e.Column, strings.Join(parts, ","))
}

type BetweenExpr struct {
	Column   string
	Low, High Literal
}

func (BetweenExpr) isExpr() {}
func (e BetweenExpr) String() string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", e.Column, e.Low.String(), e.High.String())
}

type NullCheck struct {
	Column string
	Not    bool
}

func (NullCheck) isExpr() {}
func (e NullCheck) String() string {
	if e.Not {
		return e.Column + " IS NOT NULL"
	}
	return e.Column + " IS NULL"
}

type And struct{ Left, Right Expr }

func (And) isExpr()       {}
func (e And) String() string { return fmt.Sprintf("(%s AND %s)", e.Left.String(), e.Right.String()) }

type Or struct{ Left, Right Expr }

func (Or) isExpr()       {}
func (e Or) String() string { return fmt.Sprintf("(%s OR %s)", e.Left.String(), e.Right.String()) }

// ParseDomain parses a domain expression string into an AST, rejecting any
// forbidden SQL keyword or comment/statement-terminator sequence before
// attempting to tokenize. Returns *errs.Error{Kind: InvalidDomain} on any
// violation.
func ParseDomain(src string) (Expr, error) {
	if strings.Contains(src, ";") {
		return nil, errs.New(errs.InvalidDomain, "semicolons are not allowed in domain expressions: %q", src)
	}
	if strings.Contains(src, "--") || strings.Contains(src, "/*") || strings.Contains(src, "*/") {
		return nil, errs.New(errs.InvalidDomain, "comment sequences are not allowed in domain expressions: %q", src)
	}
	if forbiddenRe.MatchString(src) {
		return nil, errs.New(errs.InvalidDomain, "forbidden keyword in domain expression: %q", src)
	}
	toks, err := lex(src)
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidDomain, "lexing domain expression %q", src)
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidDomain, "parsing domain expression %q", src)
	}
	if !p.atEnd() {
		return nil, errs.New(errs.InvalidDomain, "unexpected trailing input in domain expression %q", src)
	}
	return expr, nil
}

// CompileColumnar compiles a parsed domain expression into a function that
// evaluates the predicate against row i of a Frame, for use as the
// DOMAIN_IND contribution described in spec.md §4.8. Missing columns
// evaluate the comparison as false rather than panicking, since a domain
// predicate must never drop rows or crash the pipeline outright.
func CompileColumnar(e Expr) func(f *frame.Frame, i int) bool {
	switch n := e.(type) {
	case Comparison:
		return func(f *frame.Frame, i int) bool {
			col, ok := f.Col(n.Column)
			if !ok {
				return false
			}
			return compareRow(col, i, n.Op, n.Value)
		}
	case InExpr:
		return func(f *frame.Frame, i int) bool {
			col, ok := f.Col(n.Column)
			if !ok {
				return false
			}
			for _, v := range n.Values {
				if compareRow(col, i, "==", v) {
					return true
				}
			}
			return false
		}
	case BetweenExpr:
		return func(f *frame.Frame, i int) bool {
			col, ok := f.Col(n.Column)
			if !ok {
				return false
			}
			return compareRow(col, i, ">=", n.Low) && compareRow(col, i, "<=", n.High)
		}
	case NullCheck:
		// Frame columns are dense (no null representation beyond zero
		// values), so presence of the column is treated as "not null".
		return func(f *frame.Frame, i int) bool {
			_, ok := f.Col(n.Column)
			return ok && n.Not
		}
	case And:
		l, r := CompileColumnar(n.Left), CompileColumnar(n.Right)
		return func(f *frame.Frame, i int) bool { return l(f, i) && r(f, i) }
	case Or:
		l, r := CompileColumnar(n.Left), CompileColumnar(n.Right)
		return func(f *frame.Frame, i int) bool { return l(f, i) || r(f, i) }
	default:
		return func(f *frame.Frame, i int) bool { return false }
	}
}

func compareRow(col frame.Column, i int, op string, v Literal) bool {
	if v.IsString || col.Kind == frame.String {
		a := col.AtString(i)
		b := v.String()
		switch op {
		case "==":
			return a == b
		case "!=":
			return a != b
		case "<":
			return a < b
		case "<=":
			return a <= b
		case ">":
			return a > b
		case ">=":
			return a >= b
		}
		return false
	}
	a := col.AtFloat64(i)
	b := v.Num
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

// SQLFragment compiles a parsed domain expression into a parameterized SQL
// WHERE fragment (placeholders as "?") plus the ordered bind parameters.
// Values are always bound, never interpolated.
func SQLFragment(e Expr) (string, []any) {
	switch n := e.(type) {
	case Comparison:
		op := n.Op
		if op == "==" {
			op = "="
		}
		return fmt.Sprintf("%s %s ?", n.Column, op), []any{literalValue(n.Value)}
	case InExpr:
		placeholders := strings.TrimRight(strings.Repeat("?,", len(n.Values)), ",")
		args := make([]any, len(n.Values))
		for i, v := range n.Values {
			args[i] = literalValue(v)
		}
		return fmt.Sprintf("%s IN (%s)", n.Column, placeholders), args
	case BetweenExpr:
		return fmt.Sprintf("%s BETWEEN ? AND ?", n.Column), []any{literalValue(n.Low), literalValue(n.High)}
	case NullCheck:
		if n.Not {
			return n.Column + " IS NOT NULL", nil
		}
		return n.Column + " IS NULL", nil
	case And:
		ls, la := SQLFragment(n.Left)
		rs, ra := SQLFragment(n.Right)
		return fmt.Sprintf("(%s AND %s)", ls, rs), append(la, ra...)
	case Or:
		ls, la := SQLFragment(n.Left)
		rs, ra := SQLFragment(n.Right)
		return fmt.Sprintf("(%s OR %s)", ls, rs), append(la, ra...)
	}
	return "1=1", nil
}

func literalValue(l Literal) any {
	if l.IsString {
		return l.Str
	}
	return l.Num
}
