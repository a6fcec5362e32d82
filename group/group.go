// Package group implements C8: grouping-column assembly, size-class
// bucketing, land-type derivation, reference-table enrichment, and the
// domain-indicator computation that is the central invariant of spec.md
// §4.8 — a domain always contributes a 0/1 indicator, never drops a row.
package group

import (
	"github.com/mihiarc/gofia/internal/frame"
	"github.com/mihiarc/gofia/refdata"
)

// LabelSet selects which SIZE_CLASS label vocabulary by_size_class uses.
type LabelSet int

const (
	StandardLabels LabelSet = iota
	DescriptiveLabels
)

// Columns assembles the final grp_by column list per spec.md §4.8 steps 1-6:
// take the user columns as given, optionally append SPCD/SIZE_CLASS/LAND_TYPE, then
// dedupe preserving first-occurrence order.
func Columns(userCols []string, bySpecies, bySizeClass, byLandType bool) []string {
	cols := append([]string{}, userCols...)
	if bySpecies {
		cols = append(cols, "SPCD")
	}
	if bySizeClass {
		cols = append(cols, "SIZE_CLASS")
	}
	if byLandType {
		cols = append(cols, "LAND_TYPE")
	}
	seen := make(map[string]bool, len(cols))
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// sizeClassBucket is one [low, high) bucket shared by both label sets; the
// standard and descriptive vocabularies name the identical numeric buckets
// (spec.md §4.8 step 3).
type sizeClassBucket struct {
	low, high           float64 // high is exclusive; high == 0 with low>0 means "and above"
	standard, descriptive string
}

var sizeClassBuckets = []sizeClassBucket{
	{1.0, 5.0, "1.0-4.9", "Saplings"},
	{5.0, 10.0, "5.0-9.9", "Small"},
	{10.0, 20.0, "10.0-19.9", "Medium"},
	{20.0, 30.0, "20.0-29.9", "Large"},
	{30.0, 0, "30.0+", "Large"},
}

// SizeClass buckets a single DIA value into its SIZE_CLASS label.
func SizeClass(dia float64, labels LabelSet) string {
	for _, b := range sizeClassBuckets {
		if dia < b.low {
			continue
		}
		if b.high == 0 || dia < b.high {
			if labels == DescriptiveLabels {
				return b.descriptive
			}
			return b.standard
		}
	}
	if labels == DescriptiveLabels {
		return "Saplings"
	}
	return "1.0-4.9"
}

// LandType derives LAND_TYPE from a condition row's status/site-class/
// reserved fields, per spec.md §4.8 step 4.
func LandType(condStatusCD, siteclcd, reservcd int) string {
	switch {
	case condStatusCD == 1 && siteclcd >= 1 && siteclcd <= 6 && reservcd == 0:
		return "Timber"
	case condStatusCD == 1:
		return "Non-Timber Forest"
	case condStatusCD == 2:
		return "Non-Forest"
	case condStatusCD == 3 || condStatusCD == 4:
		return "Water"
	default:
		return "Other"
	}
}

// Enrich adds SIZE_CLASS, LAND_TYPE, FOREST_TYPE_GROUP/FORTYPGRP, and
// OWNERSHIP_GROUP columns to fr as requested, reading DIA/COND_STATUS_CD/
// SITECLCD/RESERVCD/FORTYPCD/OWNGRPCD from the existing columns. Missing
// source columns leave the corresponding enrichment column absent rather
// than panicking, matching the domain-indicator policy of never crashing on
// an optional input.
func Enrich(fr *frame.Frame, bySizeClass, byLandType, forestTypeGroup, ownershipGroup bool, labels LabelSet) *frame.Frame {
	out := fr
	n := fr.NRows()
	if bySizeClass {
		if dia, ok := fr.Col("DIA"); ok {
			labelsOut := make([]string, n)
			for i := 0; i < n; i++ {
				labelsOut[i] = SizeClass(dia.AtFloat64(i), labels)
			}
			out = out.WithColumn("SIZE_CLASS", frame.NewStringColumn(labelsOut))
		}
	}
	if byLandType {
		statusCol, hasStatus := fr.Col("COND_STATUS_CD")
		siteCol, hasSite := fr.Col("SITECLCD")
		reservCol, hasReserv := fr.Col("RESERVCD")
		if hasStatus && hasSite && hasReserv {
			landOut := make([]string, n)
			for i := 0; i < n; i++ {
				landOut[i] = LandType(int(statusCol.AtFloat64(i)), int(siteCol.AtFloat64(i)), int(reservCol.AtFloat64(i)))
			}
			out = out.WithColumn("LAND_TYPE", frame.NewStringColumn(landOut))
		}
	}
	if forestTypeGroup {
		if fortyp, ok := fr.Col("FORTYPCD"); ok {
			names := make([]string, n)
			codes := make([]int64, n)
			for i := 0; i < n; i++ {
				g := refdata.ForestTypeGroupFor(int(fortyp.AtFloat64(i)))
				names[i] = g.Name
				codes[i] = int64(g.Code)
			}
			out = out.WithColumn("FOREST_TYPE_GROUP", frame.NewStringColumn(names))
			out = out.WithColumn("FORTYPGRP", frame.NewInt64Column(codes))
		}
	}
	if ownershipGroup {
		if owngrp, ok := fr.Col("OWNGRPCD"); ok {
			names := make([]string, n)
			for i := 0; i < n; i++ {
				names[i] = refdata.OwnershipGroupFor(int(owngrp.AtFloat64(i)))
			}
			out = out.WithColumn("OWNERSHIP_GROUP", frame.NewStringColumn(names))
		}
	}
	return out
}

// LandTypeDomainIndicator returns the land-type domain indicator for a
// single condition row (spec.md §4.8's land-type domain rule): forest
// requires COND_STATUS_CD=1; timber additionally requires a qualifying
// SITECLCD and RESERVCD=0; all is unconditionally 1.
func LandTypeDomainIndicator(landTypeDomain string, condStatusCD, siteclcd, reservcd int) float64 {
	switch landTypeDomain {
	case "forest":
		if condStatusCD == 1 {
			return 1
		}
		return 0
	case "timber":
		if condStatusCD == 1 && siteclcd >= 1 && siteclcd <= 6 && reservcd == 0 {
			return 1
		}
		return 0
	default: // "all"
		return 1
	}
}

// DomainIndicator computes the product of the applicable per-row indicators
// (spec.md §4.8's central invariant): a row with DOMAIN_IND=0 still remains
// in the frame, so stratum sample sizes stay the true phase-2 plot counts.
func DomainIndicator(indicators ...float64) float64 {
	product := 1.0
	for _, ind := range indicators {
		product *= ind
	}
	return product
}

// DomainIndicatorColumn computes DOMAIN_IND for every row of fr as the
// product of landType, treeDomain, and areaDomain predicate evaluations
// (each a per-row 0/1 function; a nil function contributes 1 to every row).
func DomainIndicatorColumn(fr *frame.Frame, landType, treeDomain, areaDomain func(i int) float64) []float64 {
	n := fr.NRows()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := 1.0
		if landType != nil {
			v *= landType(i)
		}
		if treeDomain != nil {
			v *= treeDomain(i)
		}
		if areaDomain != nil {
			v *= areaDomain(i)
		}
		out[i] = v
	}
	return out
}
