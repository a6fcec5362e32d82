package config

import "github.com/mihiarc/gofia/errs"

// VolumeConfig extends Base for the volume estimator.
type VolumeConfig struct {
	Base
	VolumeEquation        string // default | regional
	MerchantableTopDiameter float64
	StumpHeight           float64
	IncludeRotten         bool
	VolType               string // net | gross | sound | sawlog
}

// DefaultVolumeConfig returns spec.md's documented volume defaults.
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{
		Base:                    DefaultBase(),
		VolumeEquation:          "default",
		MerchantableTopDiameter: 4.0,
		StumpHeight:             1.0,
		VolType:                 "net",
	}
}

func (c VolumeConfig) Validate() ([]Warning, error) {
	w, err := c.Base.Validate()
	if err != nil {
		return w, err
	}
	if c.VolType != "" {
		if err := validateVolType(c.VolType); err != nil {
			return w, err
		}
	}
	return w, nil
}

func validateVolType(v string) error {
	switch v {
	case "net", "gross", "sound", "sawlog":
		return nil
	}
	return errs.New(errs.InvalidConfig, "vol_type: invalid value %q", v)
}

// BiomassConfig extends Base for the biomass estimator.
type BiomassConfig struct {
	Base
	Component       string // total | ag | bg | bole | stump | branch | foliage
	IncludeFoliage  bool
	CarbonFraction  float64
	Units           string // tons | kg
}

func DefaultBiomassConfig() BiomassConfig {
	return BiomassConfig{
		Base:           DefaultBase(),
		Component:      "total",
		CarbonFraction: 0.47,
		Units:          "tons",
	}
}

// CarbonConfig extends Base for the carbon estimator. Method selects
// between the source's default aboveground-fraction approximation and
// EVALIDator's CARBON_AG+CARBON_BG sum (spec.md §9's documented 2%
// tolerance between the two; see DESIGN.md for the default decision).
type CarbonConfig struct {
	Base
	Method         string // ag_fraction | ag_plus_bg
	CarbonFraction float64
}

func DefaultCarbonConfig() CarbonConfig {
	return CarbonConfig{Base: DefaultBase(), Method: "ag_fraction", CarbonFraction: 0.47}
}

func (c CarbonConfig) Validate() ([]Warning, error) {
	w, err := c.Base.Validate()
	if err != nil {
		return w, err
	}
	switch c.Method {
	case "ag_fraction", "ag_plus_bg", "":
	default:
		return w, errs.New(errs.InvalidConfig, "carbon method: invalid value %q", c.Method)
	}
	return w, nil
}

// GrowthConfig extends Base for the growth (GRM) estimator.
type GrowthConfig struct {
	Base
	GrowthType                    string // net | gross | component
	IncludeIngrowth               bool
	IncludeMortality              bool
	AnnualOnly                    bool
	Measure                       string // tpa | volume | biomass | carbon | sawlog
	CarbonFraction                float64
	EvalidatorCompatiblePlotCount bool // open question decision, see DESIGN.md
}

func DefaultGrowthConfig() GrowthConfig {
	return GrowthConfig{
		Base:            DefaultBase(),
		GrowthType:      "net",
		IncludeIngrowth: true,
		Measure:         "volume",
		CarbonFraction:  0.47,
	}
}

// AreaConfig extends Base for the area estimator. IncludeNonforest and
// OwnershipGroups are reserved for a future plot-level filter pass; neither
// is read by estimate.Area yet (grouping by OWNGRPCD via Base.GrpBy already
// covers the common case).
type AreaConfig struct {
	Base
	AreaBasis        string // condition | land | forest
	IncludeNonforest bool
	OwnershipGroups  []int
}

func DefaultAreaConfig() AreaConfig {
	return AreaConfig{Base: DefaultBase(), AreaBasis: "condition"}
}

func (c AreaConfig) Validate() ([]Warning, error) {
	w, err := c.Base.Validate()
	if err != nil {
		return w, err
	}
	switch c.AreaBasis {
	case "condition", "land", "forest", "":
	default:
		return w, errs.New(errs.InvalidConfig, "area_basis: invalid value %q", c.AreaBasis)
	}
	return w, nil
}

// MortalityConfig extends Base for the mortality (GRM) estimator.
type MortalityConfig struct {
	Base
	MortalityType         string // tpa | volume | biomass | carbon | sawlog | both
	GroupByAgent          bool
	GroupByDisturbance    bool
	GroupByOwnership      bool
	GroupBySpeciesGroup   bool
	IncludeNatural        bool
	IncludeHarvest        bool
	IncludeComponents     bool
	VarianceMethod        string // ratio | stratified
	CarbonFraction        float64
}

func DefaultMortalityConfig() MortalityConfig {
	return MortalityConfig{
		Base:           DefaultBase(),
		MortalityType:  "tpa",
		IncludeNatural: true,
		VarianceMethod: "ratio",
		CarbonFraction: 0.47,
	}
}

// ValidateGRMTreeClass rejects tree_class values TREE_GRM_COMPONENT has no
// column breakdown for. The table only carries AL_*/GS_* (all/growing_stock)
// suffixes (componentColumns in package grm); rotten and nonstockable have
// no GRM-table equivalent, so a GRM estimator must fail loud rather than
// silently run as tree_class=all.
func ValidateGRMTreeClass(treeClass string) error {
	switch treeClass {
	case "rotten", "nonstockable":
		return errs.New(errs.InvalidConfig, "tree_class=%q is not supported for GRM estimators (TREE_GRM_COMPONENT has no per-class breakdown beyond all/growing_stock)", treeClass)
	}
	return nil
}

// GroupingColumns extends Base.GroupingColumns with mortality's own
// group_by_* flags (spec.md line 97), appended after the base columns so
// a caller's explicit grp_by order is preserved.
func (c MortalityConfig) GroupingColumns() []string {
	out := c.Base.GroupingColumns()
	seen := map[string]bool{}
	for _, col := range out {
		seen[col] = true
	}
	add := func(col string) {
		if !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}
	if c.GroupByAgent {
		add("AGENTCD")
	}
	if c.GroupByDisturbance {
		add("DSTRBCD1")
	}
	if c.GroupByOwnership {
		add("OWNGRPCD")
	}
	if c.GroupBySpeciesGroup {
		add("SPGRPCD")
	}
	return out
}

// Validate enforces spec.md's mortality cross-field rules: tree_type=live is
// disallowed (mortality only makes sense over dead/removed trees).
func (c MortalityConfig) Validate() ([]Warning, error) {
	w, err := c.Base.Validate()
	if err != nil {
		return w, err
	}
	if err := ValidateGRMTreeClass(c.Base.TreeClass); err != nil {
		return w, err
	}
	if c.Base.TreeType == "live" {
		return w, errs.New(errs.InvalidConfig, "mortality with tree_type=live is invalid")
	}
	switch c.MortalityType {
	case "tpa", "volume", "biomass", "carbon", "sawlog", "both":
	default:
		return w, errs.New(errs.InvalidConfig, "mortality_type: invalid value %q", c.MortalityType)
	}
	switch c.VarianceMethod {
	case "ratio", "stratified", "":
	default:
		return w, errs.New(errs.InvalidConfig, "variance_method: invalid value %q", c.VarianceMethod)
	}
	return w, nil
}

// RemovalsConfig extends Base for the removals (GRM) estimator; it mirrors
// MortalityConfig's shape since removals shares the same component-filter
// and per-acre mechanics, differing only in the retained COMPONENT set and
// source TPA column (spec.md §4.14).
type RemovalsConfig struct {
	Base
	RemovalsType       string // tpa | volume | biomass | carbon | sawlog
	GroupByOwnership   bool
	GroupBySpeciesGroup bool
	CarbonFraction     float64
}

func DefaultRemovalsConfig() RemovalsConfig {
	return RemovalsConfig{Base: DefaultBase(), RemovalsType: "tpa", CarbonFraction: 0.47}
}

// GroupingColumns extends Base.GroupingColumns with removals' own
// group_by_* flags, mirroring MortalityConfig.GroupingColumns.
func (c RemovalsConfig) GroupingColumns() []string {
	out := c.Base.GroupingColumns()
	seen := map[string]bool{}
	for _, col := range out {
		seen[col] = true
	}
	add := func(col string) {
		if !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}
	if c.GroupByOwnership {
		add("OWNGRPCD")
	}
	if c.GroupBySpeciesGroup {
		add("SPGRPCD")
	}
	return out
}

func (c RemovalsConfig) Validate() ([]Warning, error) {
	w, err := c.Base.Validate()
	if err != nil {
		return w, err
	}
	if err := ValidateGRMTreeClass(c.Base.TreeClass); err != nil {
		return w, err
	}
	switch c.RemovalsType {
	case "tpa", "volume", "biomass", "carbon", "sawlog":
	default:
		return w, errs.New(errs.InvalidConfig, "removals_type: invalid value %q", c.RemovalsType)
	}
	return w, nil
}

// CarbonFluxConfig composes growth, mortality, and removals into the derived
// carbon-flux estimator (spec.md §4.14's "carbon flux (derived, not
// loaded)" section).
type CarbonFluxConfig struct {
	Base
	CarbonFraction    float64
	IncludeComponents bool // report GROWTH_C/MORT_C/REMV_C alongside NET_FLUX
}

func DefaultCarbonFluxConfig() CarbonFluxConfig {
	return CarbonFluxConfig{Base: DefaultBase(), CarbonFraction: 0.47}
}
