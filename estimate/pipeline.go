// Package estimate implements C13: the standard (non-GRM) FIA estimators,
// each a Pipeline composed from the shared query/optimize/group/adjust/
// aggregate/expand/variance services rather than inherited from a common
// base class (spec.md §9's composition-over-inheritance redesign note).
package estimate

import (
	"context"

	"github.com/mihiarc/gofia/internal/frame"
)

// Stage is one step of an estimator's linear state machine (spec.md §4.14's
// closing paragraph): INIT -> LOADED -> FILTERED -> VALUED -> AGGREGATED ->
// EXPANDED -> VARIANCED -> FORMATTED. There are no retries inside a stage;
// a failing stage terminates the pipeline with the error kind it raised.
type Stage int

const (
	Init Stage = iota
	Loaded
	Filtered
	Valued
	Aggregated
	Expanded
	Varianced
	Formatted
)

func (s Stage) String() string {
	switch s {
	case Init:
		return "INIT"
	case Loaded:
		return "LOADED"
	case Filtered:
		return "FILTERED"
	case Valued:
		return "VALUED"
	case Aggregated:
		return "AGGREGATED"
	case Expanded:
		return "EXPANDED"
	case Varianced:
		return "VARIANCED"
	case Formatted:
		return "FORMATTED"
	default:
		return "UNKNOWN"
	}
}

// Pipeline is implemented by every estimator in this package and in grm/.
// Run drives the estimator through every stage and returns the formatted
// output Frame (spec.md §6's "every estimator returns a columnar frame").
type Pipeline interface {
	Run(ctx context.Context) (*frame.Frame, error)
}
