// Package frame implements the columnar in-memory table shared by every
// gofia stage: the backend returns a Frame, the aggregator and variance
// calculator consume and produce Frames, and estimators format a Frame as
// their final output.
package frame

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind is the storage type of a Column.
type Kind int

const (
	Float64 Kind = iota
	Int64
	String
	Bool
)

// Column is a single typed, homogeneous vector. Exactly one of the typed
// slices is populated, selected by Kind, avoiding per-cell boxing.
type Column struct {
	Kind Kind
	F    []float64
	I    []int64
	S    []string
	B    []bool
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	switch c.Kind {
	case Float64:
		return len(c.F)
	case Int64:
		return len(c.I)
	case String:
		return len(c.S)
	case Bool:
		return len(c.B)
	}
	return 0
}

// NewFloat64Column wraps a []float64 as a Column.
func NewFloat64Column(v []float64) Column { return Column{Kind: Float64, F: v} }

// NewInt64Column wraps a []int64 as a Column.
func NewInt64Column(v []int64) Column { return Column{Kind: Int64, I: v} }

// NewStringColumn wraps a []string as a Column.
func NewStringColumn(v []string) Column { return Column{Kind: String, S: v} }

// NewBoolColumn wraps a []bool as a Column.
func NewBoolColumn(v []bool) Column { return Column{Kind: Bool, B: v} }

// AtFloat64 returns the i-th value coerced to float64, supporting the mixed
// int/float arithmetic the estimators need when a metric column happens to
// be stored as Int64 (e.g. a count column).
func (c Column) AtFloat64(i int) float64 {
	switch c.Kind {
	case Float64:
		return c.F[i]
	case Int64:
		return float64(c.I[i])
	case Bool:
		if c.B[i] {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// AtString returns the i-th value rendered as a string, used by grouping
// keys that must compare across columns of different storage kinds.
func (c Column) AtString(i int) string {
	switch c.Kind {
	case String:
		return c.S[i]
	case Int64:
		return fmt.Sprintf("%d", c.I[i])
	case Float64:
		return fmt.Sprintf("%g", c.F[i])
	case Bool:
		return fmt.Sprintf("%t", c.B[i])
	default:
		return ""
	}
}

// Frame is a columnar table: named columns of equal length plus an explicit
// column order (map iteration order is not stable, and output column order
// is part of the external interface per spec.md §6).
type Frame struct {
	order   []string
	columns map[string]Column
	nrows   int
	runID   string
}

// New builds a Frame from columns in the given order. All columns must have
// the same length; New panics otherwise since a length mismatch is always a
// caller bug, not a runtime/data condition. Each Frame is tagged with a fresh
// run id so a caller can correlate a logged error or a parity mismatch back
// to the specific Frame that produced it.
func New(order []string, columns map[string]Column) *Frame {
	n := 0
	if len(order) > 0 {
		n = columns[order[0]].Len()
	}
	for _, name := range order {
		if columns[name].Len() != n {
			panic(fmt.Sprintf("frame: column %q has length %d, want %d", name, columns[name].Len(), n))
		}
	}
	cp := make(map[string]Column, len(columns))
	for k, v := range columns {
		cp[k] = v
	}
	return &Frame{order: append([]string(nil), order...), columns: cp, nrows: n, runID: uuid.NewString()}
}

// RunID returns this Frame's correlation id, assigned once at construction.
func (f *Frame) RunID() string { return f.runID }

// Empty returns a zero-row, zero-column Frame.
func Empty() *Frame { return &Frame{columns: map[string]Column{}, runID: uuid.NewString()} }

// NRows returns the number of rows in the Frame.
func (f *Frame) NRows() int { return f.nrows }

// Columns returns the column names in display order.
func (f *Frame) Columns() []string { return append([]string(nil), f.order...) }

// Has reports whether the Frame has a column with the given name.
func (f *Frame) Has(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// Col returns a named column and whether it was present.
func (f *Frame) Col(name string) (Column, bool) {
	c, ok := f.columns[name]
	return c, ok
}

// MustCol returns a named column, panicking if absent; used internally once
// a caller has already validated required columns against a schema.
func (f *Frame) MustCol(name string) Column {
	c, ok := f.columns[name]
	if !ok {
		panic(fmt.Sprintf("frame: missing column %q", name))
	}
	return c
}

// WithColumn returns a new Frame with the named column added or replaced,
// appended to the column order if new. The receiver is left unmodified.
func (f *Frame) WithColumn(name string, col Column) *Frame {
	order := f.order
	if _, exists := f.columns[name]; !exists {
		order = append(append([]string(nil), f.order...), name)
	}
	cols := make(map[string]Column, len(f.columns)+1)
	for k, v := range f.columns {
		cols[k] = v
	}
	cols[name] = col
	nrows := f.nrows
	if len(f.order) == 0 {
		nrows = col.Len()
	}
	return &Frame{order: order, columns: cols, nrows: nrows}
}

// Select returns a new Frame containing only the named columns, in the
// order requested.
func (f *Frame) Select(names ...string) *Frame {
	cols := make(map[string]Column, len(names))
	for _, n := range names {
		if c, ok := f.columns[n]; ok {
			cols[n] = c
		}
	}
	return &Frame{order: append([]string(nil), names...), columns: cols, nrows: f.nrows}
}

// Filter returns a new Frame containing only the rows where mask[i] is true.
// len(mask) must equal f.NRows().
func (f *Frame) Filter(mask []bool) *Frame {
	kept := 0
	for _, m := range mask {
		if m {
			kept++
		}
	}
	cols := make(map[string]Column, len(f.columns))
	for name, c := range f.columns {
		cols[name] = filterColumn(c, mask, kept)
	}
	return &Frame{order: append([]string(nil), f.order...), columns: cols, nrows: kept}
}

func filterColumn(c Column, mask []bool, kept int) Column {
	switch c.Kind {
	case Float64:
		out := make([]float64, 0, kept)
		for i, m := range mask {
			if m {
				out = append(out, c.F[i])
			}
		}
		return NewFloat64Column(out)
	case Int64:
		out := make([]int64, 0, kept)
		for i, m := range mask {
			if m {
				out = append(out, c.I[i])
			}
		}
		return NewInt64Column(out)
	case String:
		out := make([]string, 0, kept)
		for i, m := range mask {
			if m {
				out = append(out, c.S[i])
			}
		}
		return NewStringColumn(out)
	case Bool:
		out := make([]bool, 0, kept)
		for i, m := range mask {
			if m {
				out = append(out, c.B[i])
			}
		}
		return NewBoolColumn(out)
	}
	return Column{}
}

// RowKey builds a composite group key for row i from the named columns,
// used by grouping and aggregation to bucket rows without allocating a
// struct per distinct combination.
func (f *Frame) RowKey(i int, groupCols []string) string {
	key := ""
	for _, g := range groupCols {
		if c, ok := f.columns[g]; ok {
			key += c.AtString(i) + "\x1f"
		} else {
			key += "\x1f"
		}
	}
	return key
}

// Concat appends rows from other to f's columns (both must share the exact
// same column set); used when merging per-partition collection results.
func Concat(frames ...*Frame) *Frame {
	if len(frames) == 0 {
		return Empty()
	}
	order := frames[0].order
	out := map[string]Column{}
	for _, name := range order {
		out[name] = concatColumn(frames, name)
	}
	total := 0
	for _, fr := range frames {
		total += fr.nrows
	}
	return &Frame{order: append([]string(nil), order...), columns: out, nrows: total, runID: uuid.NewString()}
}

func concatColumn(frames []*Frame, name string) Column {
	kind := frames[0].columns[name].Kind
	switch kind {
	case Float64:
		var out []float64
		for _, fr := range frames {
			out = append(out, fr.columns[name].F...)
		}
		return NewFloat64Column(out)
	case Int64:
		var out []int64
		for _, fr := range frames {
			out = append(out, fr.columns[name].I...)
		}
		return NewInt64Column(out)
	case String:
		var out []string
		for _, fr := range frames {
			out = append(out, fr.columns[name].S...)
		}
		return NewStringColumn(out)
	case Bool:
		var out []bool
		for _, fr := range frames {
			out = append(out, fr.columns[name].B...)
		}
		return NewBoolColumn(out)
	}
	return Column{}
}
