// Package refdata provides pure-function lookups over small in-memory
// reference tables (species names, forest-type groups, ownership groups)
// per spec.md §1: "Reference-data lookups... are treated as pure functions
// over small in-memory tables." Weak relationships (an absent SPCD) resolve
// to a deterministic fallback descriptor rather than an error.
package refdata

// Species describes a REF_SPECIES row.
type Species struct {
	SPCD       int
	CommonName string
	Scientific string
}

// species is a representative slice of REF_SPECIES; a production deployment
// loads the full table from the backend, but the estimators only need
// name lookups for display, so a static table covering common eastern US
// commercial species suffices here the way the source's bundled CSV does
// for its test fixtures.
var species = map[int]Species{
	131: {131, "loblolly pine", "Pinus taeda"},
	110: {110, "shortleaf pine", "Pinus echinata"},
	121: {121, "longleaf pine", "Pinus palustris"},
	111: {111, "slash pine", "Pinus elliottii"},
	68:  {68, "eastern redcedar", "Juniperus virginiana"},
	802: {802, "white oak", "Quercus alba"},
	806: {806, "scarlet oak", "Quercus coccinea"},
	811: {811, "southern red oak", "Quercus falcata"},
	833: {833, "chestnut oak", "Quercus montana"},
	316: {316, "red maple", "Acer rubrum"},
	611: {611, "sweetgum", "Liquidambar styraciflua"},
	621: {621, "yellow-poplar", "Liriodendron tulipifera"},
}

// Lookup returns the Species record for spcd, or a deterministic fallback
// ("unknown species, SPCD <n>") when absent from the table.
func Lookup(spcd int) Species {
	if s, ok := species[spcd]; ok {
		return s
	}
	return Species{SPCD: spcd, CommonName: "unknown species", Scientific: "unknown"}
}
