package estimate

import (
	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/group"
	"github.com/mihiarc/gofia/internal/frame"
)

func countMetric(trees *frame.Frame, i int) float64 { return 1 }

// NewTPA builds the tpa estimator: per-tree metric is 1, weighted by
// TPA_UNADJ inside TreeMetric.Run (spec.md §4.13).
func NewTPA(db backend.Db, evalid []int, stateCD int, base config.Base) *TreeMetric {
	return &TreeMetric{
		Db: db, Evalid: evalid, StateCD: stateCD, Base: base,
		Metric: countMetric, Filter: CombineFilters(TreeTypeFilterFor(base.TreeType), TreeClassFilterFor(base.TreeClass)),
		ValueCol: "TPA", LabelSet: group.StandardLabels,
	}
}

// NewTreeCount builds the tree_count estimator: identical mechanics to TPA
// under the TREE_COUNT column name. TREE_COUNT_TOTAL holds the expanded
// total tree count; TREE_COUNT itself holds the per-acre value, the same
// figure TPA reports, and is not collapsed to the total.
func NewTreeCount(db backend.Db, evalid []int, stateCD int, base config.Base) *TreeMetric {
	t := NewTPA(db, evalid, stateCD, base)
	t.ValueCol = "TREE_COUNT"
	return t
}

func volumeColumn(col string) MetricFunc {
	return func(trees *frame.Frame, i int) float64 {
		c, ok := trees.Col(col)
		if !ok {
			return 0
		}
		return c.AtFloat64(i)
	}
}

// volTypeColumn maps vol_type to its TREE source column (spec.md §4.13).
func volTypeColumn(volType string) string {
	switch volType {
	case "gross":
		return "VOLCFGRS"
	case "sound":
		return "VOLCFSND"
	case "sawlog":
		return "VOLCSNET"
	default: // "net"
		return "VOLCFNET"
	}
}

// cullFilter excludes rough/rotten cull trees (TREECLCD 3 or 4) from
// merchantable volume unless include_rotten asks to keep them in (spec.md
// line 96's Volume option).
func cullFilter(includeRotten bool) TreeTypeFilter {
	if includeRotten {
		return func(trees *frame.Frame, i int) bool { return true }
	}
	return func(trees *frame.Frame, i int) bool {
		treeCl, hasCl := trees.Col("TREECLCD")
		if !hasCl {
			return true
		}
		cl := int(treeCl.AtFloat64(i))
		return cl != 3 && cl != 4
	}
}

// NewVolume builds the volume estimator for the requested vol_type.
func NewVolume(db backend.Db, evalid []int, stateCD int, base config.Base, volType string, includeRotten bool) *TreeMetric {
	col := volTypeColumn(volType)
	return &TreeMetric{
		Db: db, Evalid: evalid, StateCD: stateCD, Base: base,
		Metric: volumeColumn(col),
		Filter: CombineFilters(TreeTypeFilterFor(base.TreeType), TreeClassFilterFor(base.TreeClass), cullFilter(includeRotten)),
		ValueCol: col, LabelSet: group.StandardLabels,
	}
}

// biomassMetric maps a biomass component name to its per-tree metric in
// tons: "ag" reads DRYBIO_AG/2000, "bg" reads DRYBIO_BG/2000, and "total"
// sums above- and below-ground components. Any other component name
// (bole, stump, branch, foliage) is computed as "total"; no per-component
// column is read for them.
func biomassMetric(component string) MetricFunc {
	switch component {
	case "ag":
		return func(trees *frame.Frame, i int) float64 { return colOr0(trees, "DRYBIO_AG", i) / 2000 }
	case "bg":
		return func(trees *frame.Frame, i int) float64 { return colOr0(trees, "DRYBIO_BG", i) / 2000 }
	default: // "total"
		return func(trees *frame.Frame, i int) float64 {
			return (colOr0(trees, "DRYBIO_AG", i) + colOr0(trees, "DRYBIO_BG", i)) / 2000
		}
	}
}

func colOr0(fr *frame.Frame, name string, i int) float64 {
	c, ok := fr.Col(name)
	if !ok {
		return 0
	}
	return c.AtFloat64(i)
}

// NewBiomass builds the biomass estimator for the requested component.
func NewBiomass(db backend.Db, evalid []int, stateCD int, base config.Base, component string) *TreeMetric {
	return &TreeMetric{
		Db: db, Evalid: evalid, StateCD: stateCD, Base: base,
		Metric: biomassMetric(component), Filter: CombineFilters(TreeTypeFilterFor(base.TreeType), TreeClassFilterFor(base.TreeClass)),
		ValueCol: "DRYBIO_" + upperOr(component, "TOTAL"), LabelSet: group.StandardLabels,
	}
}

func upperOr(s, fallback string) string {
	if s == "" || s == "total" {
		return fallback
	}
	switch s {
	case "ag":
		return "AG"
	case "bg":
		return "BG"
	default:
		return fallback
	}
}

// NewCarbon builds the carbon estimator, in tons. Method "ag_fraction" (the
// default) multiplies aboveground biomass by carbon_fraction; "ag_plus_bg"
// sums the TREE table's own CARBON_AG and CARBON_BG columns (pounds, like
// DRYBIO_*) and converts them to tons, which is EVALIDator's method. The
// ag_fraction approximation is documented as within 2% of the ag_plus_bg
// sum (spec.md §9; see DESIGN.md for the default decision).
func NewCarbon(db backend.Db, evalid []int, stateCD int, base config.Base, method string, carbonFraction float64) *TreeMetric {
	if carbonFraction <= 0 {
		carbonFraction = 0.47
	}
	var metric MetricFunc
	valueCol := "CARBON_AG"
	switch method {
	case "ag_plus_bg":
		metric = func(trees *frame.Frame, i int) float64 {
			return (colOr0(trees, "CARBON_AG", i) + colOr0(trees, "CARBON_BG", i)) / 2000
		}
		valueCol = "CARBON_TOTAL"
	default: // "ag_fraction"
		metric = func(trees *frame.Frame, i int) float64 {
			return (colOr0(trees, "DRYBIO_AG", i) / 2000) * carbonFraction
		}
	}
	return &TreeMetric{
		Db: db, Evalid: evalid, StateCD: stateCD, Base: base,
		Metric: metric, Filter: CombineFilters(TreeTypeFilterFor(base.TreeType), TreeClassFilterFor(base.TreeClass)),
		ValueCol: valueCol, LabelSet: group.StandardLabels,
	}
}
