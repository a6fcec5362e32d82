package backend

import "strings"

// NormalizeTypeName maps an engine-reported column type name to a small
// canonical vocabulary, so the rest of the codebase never branches on
// engine-specific type strings. Grounded on
// original_source/src/pyfia/database/schema_mapper.py, which performs the
// same normalization (CN as text in SQLite vs. as a VARCHAR/BIGINT in
// DuckDB, depending on load path) before handing columns to the estimators.
func NormalizeTypeName(raw string) string {
	u := strings.ToUpper(raw)
	switch {
	case strings.Contains(u, "DOUBLE"), strings.Contains(u, "FLOAT"), strings.Contains(u, "REAL"):
		return "DOUBLE"
	case strings.Contains(u, "DECIMAL"), strings.Contains(u, "NUMERIC"):
		return "NUMERIC"
	case strings.Contains(u, "BIGINT"), strings.Contains(u, "HUGEINT"):
		return "BIGINT"
	case strings.Contains(u, "INT"):
		return "INTEGER"
	case strings.Contains(u, "BOOL"):
		return "BOOLEAN"
	default:
		return "VARCHAR"
	}
}

// NormalizeCN coerces a CN value to its canonical string form regardless of
// whether the backend stored it as TEXT (SQLite) or as a 64-bit integer
// (DuckDB-loaded FIA extracts commonly store CN as BIGINT for join speed).
// Every join key in the engine compares CN values as strings after this
// normalization, so backend storage choice never changes a join result.
func NormalizeCN(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return itoa(t)
	case int:
		return itoa(int64(t))
	case float64:
		return itoa(int64(t))
	default:
		return ""
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
