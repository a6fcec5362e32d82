// Package codes holds the named FIA code tables so that no bare numeric
// literal for a status code, ownership group, or agent code leaks into the
// estimators.
package codes

// LandStatus is COND.COND_STATUS_CD.
type LandStatus int

const (
	LandForest    LandStatus = 1
	LandNonforest LandStatus = 2
	LandWater1    LandStatus = 3
	LandWater2    LandStatus = 4
)

// IsWater reports whether a COND_STATUS_CD denotes water (census or noncensus).
func (l LandStatus) IsWater() bool {
	return l == LandWater1 || l == LandWater2
}

// SiteClass is COND.SITECLCD. Classes 1-6 are productive; 7 is unproductive.
type SiteClass int

// IsProductive reports whether a site class is one of the productive classes
// (1 through 6) used by the timber land-type definition.
func (s SiteClass) IsProductive() bool {
	return s >= 1 && s <= 6
}

const SiteClassUnproductive SiteClass = 7

// ReserveStatus is COND.RESERVCD.
type ReserveStatus int

const ReserveNotReserved ReserveStatus = 0

// TreeStatus is TREE.STATUSCD.
type TreeStatus int

const (
	TreeLive    TreeStatus = 1
	TreeDead    TreeStatus = 2
	TreeRemoved TreeStatus = 3
)

// PropBasis is COND.PROP_BASIS.
type PropBasis string

const (
	PropBasisSubplot  PropBasis = "SUBP"
	PropBasisMacroplot PropBasis = "MACR"
)

// AgentCd is TREE.AGENTCD, the cause-of-death/damage agent code.
type AgentCd int

const (
	AgentInsect        AgentCd = 10
	AgentDisease       AgentCd = 20
	AgentFire          AgentCd = 30
	AgentAnimal        AgentCd = 40
	AgentWeather       AgentCd = 50
	AgentVegetation    AgentCd = 60
	AgentUnknown       AgentCd = 70
	AgentSilvicultural AgentCd = 80
)

// SubptypGrm is the SUBP_SUBPTYP_GRM_* code, selecting which adjustment
// factor applies to a GRM tree observation. Zero means the tree is outside
// the definition and must contribute zero.
type SubptypGrm int

const (
	SubptypGrmExclude SubptypGrm = 0
	SubptypGrmSubplot SubptypGrm = 1
	SubptypGrmMicroplot SubptypGrm = 2
	SubptypGrmMacroplot SubptypGrm = 3
)

// EvalType is a POP_EVAL_TYP code.
type EvalType string

const (
	EvalAll   EvalType = "EXPALL"
	EvalVol   EvalType = "EXPVOL"
	EvalCurr  EvalType = "EXPCURR"
	EvalGrow  EvalType = "EXPGROW"
	EvalMort  EvalType = "EXPMORT"
	EvalRemv  EvalType = "EXPREMV"
	EvalDwm   EvalType = "EXPDWM"
)

// Math constants used throughout the estimators.
const (
	// BasalAreaFactor converts a diameter in inches to square feet of basal
	// area: (pi/4) / 144.
	BasalAreaFactor = 0.005454154
	// LbsToTons converts pounds to short tons.
	LbsToTons = 2000.0
	// DefaultCarbonFraction is the IPCC default carbon fraction of dry biomass.
	DefaultCarbonFraction = 0.47
)

// EvalidYear infers a 4-digit year from the 2-digit year embedded in an
// EVALID using the Y2K window defined by spec.md: yy<=30 -> 20yy, yy>=90 ->
// 19yy; values in between also map to 20yy. It never consults the wall
// clock.
func EvalidYear(yy int) int {
	switch {
	case yy <= 30:
		return 2000 + yy
	case yy >= 90:
		return 1900 + yy
	default:
		return 2000 + yy
	}
}

// DecodeEvalid splits an EVALID (SSYYTT: 2-digit state, 2-digit year,
// 2-digit eval type) into its components. The type code is returned as the
// raw 2-digit integer; callers map it to an EvalType via EvalTypeFromCode.
func DecodeEvalid(evalid int) (stateCD, year, typeCode int) {
	stateCD = evalid / 10000
	rest := evalid % 10000
	yy := rest / 100
	typeCode = rest % 100
	year = EvalidYear(yy)
	return
}

// evalTypeCodes maps the 2-digit EVALID type suffix to its POP_EVAL_TYP code.
var evalTypeCodes = map[int]EvalType{
	0:  EvalAll,
	1:  EvalVol,
	2:  EvalDwm,
	3:  EvalGrow,
	4:  EvalMort,
	5:  EvalRemv,
	6:  EvalCurr,
}

// EvalTypeFromCode maps the 2-digit EVALID type suffix to its EvalType, and
// reports whether the suffix is recognized.
func EvalTypeFromCode(code int) (EvalType, bool) {
	t, ok := evalTypeCodes[code]
	return t, ok
}

// RequiredEvalType returns the evaluation type(s) required for a given
// metric family, most preferred first, per spec.md C5.
func RequiredEvalType(metric string) []EvalType {
	switch metric {
	case "area":
		return []EvalType{EvalCurr, EvalAll}
	case "volume", "biomass", "carbon", "tpa", "tree_count", "site_index":
		return []EvalType{EvalVol}
	case "growth":
		return []EvalType{EvalGrow}
	case "mortality":
		return []EvalType{EvalMort}
	case "removals":
		return []EvalType{EvalRemv}
	case "carbon_flux":
		// Composed from growth+mortality+removals; growth's EXPGROW
		// evaluation is the recommended one to resolve against when the
		// caller hasn't clipped an explicit GRM evaluation.
		return []EvalType{EvalGrow}
	case "down_woody":
		return []EvalType{EvalDwm}
	default:
		return nil
	}
}
