// Package config implements C3: typed estimator configuration with
// per-module variants, a lazy-evaluation sub-config, and legacy-format
// adapters, grounded on the teacher's own Config struct (engine.go) and
// system-variable adapters.
package config

import (
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/validate"
)

// Method is a temporal-estimation method (spec.md §4.3).
type Method string

const (
	MethodTI     Method = "TI"
	MethodSMA    Method = "SMA"
	MethodLMA    Method = "LMA"
	MethodEMA    Method = "EMA"
	MethodAnnual Method = "ANNUAL"
)

// Base holds the options common to every estimator.
type Base struct {
	GrpBy          []string
	BySpecies      bool
	BySizeClass    bool
	ByLandType     bool
	LandType       string // forest | timber | all
	TreeType       string // live | dead | gs | all
	TreeClass      string // all | growing_stock | rotten | timber | nonstockable
	TreeDomain     string
	AreaDomain     string
	Method         Method
	Lambda         float64
	Totals         bool
	Variance       bool
	ByPlot         bool
	MostRecent     bool
	ExtraParams    map[string]any
	Lazy           LazyEvalConfig
}

// DefaultBase returns a Base populated with spec.md's documented defaults.
func DefaultBase() Base {
	return Base{
		LandType:  "forest",
		TreeType:  "live",
		TreeClass: "all",
		Method:    MethodTI,
		Lambda:    0.5,
		Lazy:      DefaultLazyEvalConfig(),
	}
}

// Warning is a non-fatal diagnostic raised during validation (spec.md §7):
// unknown grouping columns, potential methodology differences, performance
// hints. Warnings never abort the computation.
type Warning struct {
	Message string
}

// Validate checks the Base config for internal consistency, returning a hard
// error for anything in spec.md's cross-field rules and warnings for
// anything merely suspicious.
func (b Base) Validate() ([]Warning, error) {
	var warnings []Warning

	if b.LandType != "" {
		if err := validate.LandType(b.LandType); err != nil {
			return nil, err
		}
	}
	if b.TreeType != "" {
		if err := validate.TreeType(b.TreeType); err != nil {
			return nil, err
		}
	}
	if b.TreeClass != "" {
		if err := validate.TreeClass(b.TreeClass); err != nil {
			return nil, err
		}
	}
	if b.Method != "" {
		if err := validate.TemporalMethod(string(b.Method)); err != nil {
			return nil, err
		}
	}
	if b.TreeClass == "timber" && b.LandType != "timber" {
		return nil, errs.New(errs.InvalidConfig, "tree_class=timber requires land_type=timber")
	}
	if b.Method == MethodEMA && !(b.Lambda > 0 && b.Lambda < 1) {
		return nil, errs.New(errs.InvalidConfig, "method=EMA requires 0 < lambda < 1, got %v", b.Lambda)
	}
	if b.TreeDomain != "" {
		if _, err := validate.ParseDomain(b.TreeDomain); err != nil {
			return nil, err
		}
	}
	if b.AreaDomain != "" {
		if _, err := validate.ParseDomain(b.AreaDomain); err != nil {
			return nil, err
		}
	}
	if len(b.GrpBy) > 0 {
		if err := validate.GrpBy(b.GrpBy); err != nil {
			return nil, err
		}
		for _, c := range b.GrpBy {
			if !knownColumns[c] {
				warnings = append(warnings, Warning{Message: "unknown grp_by column: " + c})
			}
		}
	}
	if b.ByPlot && b.Lazy.Mode == LazyDisabled {
		warnings = append(warnings, Warning{Message: "by_plot=true with lazy evaluation disabled may be slow"})
	}
	return warnings, nil
}

// knownColumns is the set of FIA-standard columns grp_by is expected to
// reference; anything else is merely flagged, not rejected (spec.md §4.3).
var knownColumns = map[string]bool{
	"SPCD": true, "SIZE_CLASS": true, "LAND_TYPE": true, "FORTYPCD": true,
	"FORTYPGRP": true, "FOREST_TYPE_GROUP": true, "OWNGRPCD": true,
	"OWNERSHIP_GROUP": true, "STDSZCD": true, "SITECLCD": true,
	"RESERVCD": true, "STATECD": true, "COUNTYCD": true, "INVYR": true,
	"AGENTCD": true, "DSTRBCD1": true, "SIBASE": true, "SPGRPCD": true,
}

// GroupingColumns computes the full ordered, deduplicated grouping-column
// list per spec.md §4.8: user grp_by, then species, then size class, then
// land type, preserving first-seen order.
func (b Base) GroupingColumns() []string {
	seen := map[string]bool{}
	var out []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range b.GrpBy {
		add(c)
	}
	if b.BySpecies {
		add("SPCD")
	}
	if b.BySizeClass {
		add("SIZE_CLASS")
	}
	if b.ByLandType {
		add("LAND_TYPE")
	}
	return out
}
