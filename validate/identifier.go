// Package validate implements C2: type/value validation for estimator
// config enums plus a small, safe boolean-expression language (domain
// predicates) that is always parsed into an AST and compiled, never
// string-interpolated into SQL.
package validate

import (
	"regexp"
	"strings"

	"github.com/mihiarc/gofia/errs"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Identifier validates a bare SQL identifier (column or table name) against
// spec.md §4.2's rule: ^[A-Za-z_][A-Za-z0-9_]*$.
func Identifier(name string) error {
	if !identRe.MatchString(name) {
		return errs.New(errs.InvalidIdentifier, "identifier %q does not match ^[A-Za-z_][A-Za-z0-9_]*$", name)
	}
	return nil
}

// SQLPath rejects quotes, semicolons, backslashes, and SQL
// comment sequences in a file path destined for a backend query.
func SQLPath(path string) error {
	if strings.ContainsAny(path, `'";\`) {
		return errs.New(errs.InvalidPath, "path %q contains a forbidden character", path)
	}
	if strings.Contains(path, "--") || strings.Contains(path, "/*") || strings.Contains(path, "*/") {
		return errs.New(errs.InvalidPath, "path %q contains a comment sequence", path)
	}
	return nil
}

// Boolean validates a string is one of the accepted boolean literal forms.
func Boolean(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, errs.New(errs.InvalidConfig, "invalid boolean value %q", s)
	}
}

// oneOf validates that value is a member of allowed, used by the enum
// validators below.
func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errs.New(errs.InvalidConfig, "%s: invalid value %q, expected one of %v", field, value, allowed)
}

// LandType validates a land_type config value.
func LandType(v string) error { return oneOf("land_type", v, "forest", "timber", "all") }

// TreeType validates a tree_type config value.
func TreeType(v string) error { return oneOf("tree_type", v, "live", "dead", "gs", "all") }

// TreeClass validates a tree_class config value.
func TreeClass(v string) error {
	return oneOf("tree_class", v, "all", "growing_stock", "rotten", "timber", "nonstockable")
}

// VolType validates a vol_type config value.
func VolType(v string) error { return oneOf("vol_type", v, "net", "gross", "sound", "sawlog") }

// BiomassComponent validates a biomass component config value.
func BiomassComponent(v string) error {
	return oneOf("component", v, "total", "ag", "bg", "bole", "stump", "branch", "foliage")
}

// TemporalMethod validates a method config value.
func TemporalMethod(v string) error {
	return oneOf("method", v, "TI", "SMA", "LMA", "EMA", "ANNUAL")
}

// GrpBy validates each entry of a grp_by list is a legal identifier. Unknown
// (but well-formed) column names are not an error here; that is a warning
// raised later by config validation, not a hard failure (spec.md §4.3).
func GrpBy(cols []string) error {
	for _, c := range cols {
		if err := Identifier(c); err != nil {
			return err
		}
	}
	return nil
}
