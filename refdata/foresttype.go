package refdata

// ForestTypeGroup describes the FORTYPGRP enrichment of a FORTYPCD.
type ForestTypeGroup struct {
	Code int
	Name string
}

// forestTypeGroups maps FORTYPCD to its forest-type-group code and name.
// The ranges follow the FIA FORTYPCD numbering convention (100s=pines,
// 400s=oak-hickory, 500s=oak-gum-cypress, 700s-800s=maple-beech-birch, etc).
var forestTypeGroups = map[int]ForestTypeGroup{
	161: {160, "Loblolly / shortleaf pine group"},
	162: {160, "Loblolly / shortleaf pine group"},
	165: {160, "Loblolly / shortleaf pine group"},
	141: {140, "Longleaf / slash pine group"},
	142: {140, "Longleaf / slash pine group"},
	406: {400, "Oak / hickory group"},
	409: {400, "Oak / hickory group"},
	503: {500, "Oak / gum / cypress group"},
	505: {500, "Oak / gum / cypress group"},
	801: {800, "Maple / beech / birch group"},
	805: {800, "Maple / beech / birch group"},
}

// ForestTypeGroupFor returns the enrichment for a FORTYPCD, with a
// deterministic fallback for codes outside the table.
func ForestTypeGroupFor(fortypcd int) ForestTypeGroup {
	if g, ok := forestTypeGroups[fortypcd]; ok {
		return g
	}
	return ForestTypeGroup{Code: 999, Name: "Other / unclassified"}
}

// ownershipGroups maps OWNGRPCD to its display name, per the FIA standard
// four-way ownership split.
var ownershipGroups = map[int]string{
	10: "National Forest",
	20: "Other Federal",
	30: "State and Local Government",
	40: "Private",
}

// OwnershipGroupFor returns the display name for an OWNGRPCD, with a
// deterministic fallback for unrecognized codes.
func OwnershipGroupFor(owngrpcd int) string {
	if n, ok := ownershipGroups[owngrpcd]; ok {
		return n
	}
	return "Unknown ownership"
}
