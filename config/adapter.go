package config

import (
	"github.com/mihiarc/gofia/errs"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// ToMap flattens a Base into a legacy-style map[string]any, the shape the
// source's dynamic-dictionary configs used. ExtraParams are merged in at
// the top level, matching the source's "extra kwargs" convention.
func (b Base) ToMap() map[string]any {
	m := map[string]any{
		"grp_by":        b.GrpBy,
		"by_species":    b.BySpecies,
		"by_size_class": b.BySizeClass,
		"by_land_type":  b.ByLandType,
		"land_type":     b.LandType,
		"tree_type":     b.TreeType,
		"tree_class":    b.TreeClass,
		"tree_domain":   b.TreeDomain,
		"area_domain":   b.AreaDomain,
		"method":        string(b.Method),
		"lambda_":       b.Lambda,
		"totals":        b.Totals,
		"variance":      b.Variance,
		"by_plot":       b.ByPlot,
		"most_recent":   b.MostRecent,
	}
	for k, v := range b.ExtraParams {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return m
}

// BaseFromMap builds a Base from a legacy-style map[string]any using loose
// type coercion (github.com/spf13/cast), the same permissive conversion the
// source's dynamic dict-based config relied on. Unrecognized keys are
// preserved in ExtraParams so round-tripping never silently drops data.
func BaseFromMap(m map[string]any) (Base, error) {
	b := DefaultBase()
	known := map[string]bool{}
	assign := func(key string, fn func(v any) error) {
		known[key] = true
		if v, ok := m[key]; ok {
			_ = fn(v) // best-effort coercion; cast.To* zero-values on failure
		}
	}
	var err error
	assign("grp_by", func(v any) error { b.GrpBy = cast.ToStringSlice(v); return nil })
	assign("by_species", func(v any) error { b.BySpecies = cast.ToBool(v); return nil })
	assign("by_size_class", func(v any) error { b.BySizeClass = cast.ToBool(v); return nil })
	assign("by_land_type", func(v any) error { b.ByLandType = cast.ToBool(v); return nil })
	assign("land_type", func(v any) error { b.LandType = cast.ToString(v); return nil })
	assign("tree_type", func(v any) error { b.TreeType = cast.ToString(v); return nil })
	assign("tree_class", func(v any) error { b.TreeClass = cast.ToString(v); return nil })
	assign("tree_domain", func(v any) error { b.TreeDomain = cast.ToString(v); return nil })
	assign("area_domain", func(v any) error { b.AreaDomain = cast.ToString(v); return nil })
	assign("method", func(v any) error { b.Method = Method(cast.ToString(v)); return nil })
	assign("lambda_", func(v any) error { b.Lambda = cast.ToFloat64(v); return nil })
	assign("totals", func(v any) error { b.Totals = cast.ToBool(v); return nil })
	assign("variance", func(v any) error { b.Variance = cast.ToBool(v); return nil })
	assign("by_plot", func(v any) error { b.ByPlot = cast.ToBool(v); return nil })
	assign("most_recent", func(v any) error { b.MostRecent = cast.ToBool(v); return nil })
	if err != nil {
		return b, errs.Wrap(err, errs.InvalidConfig, "converting legacy map to config")
	}
	extras := map[string]any{}
	for k, v := range m {
		if !known[k] {
			extras[k] = v
		}
	}
	if len(extras) > 0 {
		b.ExtraParams = extras
	}
	return b, nil
}

// ToLegacyYAML serializes a Base to the legacy YAML config format.
func (b Base) ToLegacyYAML() ([]byte, error) {
	out, err := yaml.Marshal(b.ToMap())
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidConfig, "marshaling config to yaml")
	}
	return out, nil
}

// FromLegacyYAML deserializes a Base from legacy YAML config bytes.
func FromLegacyYAML(data []byte) (Base, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Base{}, errs.Wrap(err, errs.InvalidConfig, "unmarshaling config yaml")
	}
	return BaseFromMap(m)
}

// Module names accepted by ConfigFactory.
const (
	ModuleVolume    = "volume"
	ModuleBiomass   = "biomass"
	ModuleGrowth    = "growth"
	ModuleArea      = "area"
	ModuleMortality = "mortality"
)

// ConfigFactory creates the correctly-typed module config variant given an
// estimator name and a legacy map/dict, analogous to the source's runtime
// dispatch but expressed as a tagged-variant return (an `any` holding one of
// the *Config structs) rather than a dynamic object, per spec.md §9.
func ConfigFactory(estimator string, m map[string]any) (any, error) {
	base, err := BaseFromMap(m)
	if err != nil {
		return nil, err
	}
	switch estimator {
	case ModuleVolume:
		c := DefaultVolumeConfig()
		c.Base = base
		if v, ok := m["vol_type"]; ok {
			c.VolType = cast.ToString(v)
		}
		if v, ok := m["volume_equation"]; ok {
			c.VolumeEquation = cast.ToString(v)
		}
		if v, ok := m["merchantable_top_diameter"]; ok {
			c.MerchantableTopDiameter = cast.ToFloat64(v)
		}
		if v, ok := m["stump_height"]; ok {
			c.StumpHeight = cast.ToFloat64(v)
		}
		if v, ok := m["include_rotten"]; ok {
			c.IncludeRotten = cast.ToBool(v)
		}
		return c, nil
	case ModuleBiomass:
		c := DefaultBiomassConfig()
		c.Base = base
		if v, ok := m["component"]; ok {
			c.Component = cast.ToString(v)
		}
		if v, ok := m["include_foliage"]; ok {
			c.IncludeFoliage = cast.ToBool(v)
		}
		if v, ok := m["carbon_fraction"]; ok {
			c.CarbonFraction = cast.ToFloat64(v)
		}
		if v, ok := m["units"]; ok {
			c.Units = cast.ToString(v)
		}
		return c, nil
	case ModuleGrowth:
		c := DefaultGrowthConfig()
		c.Base = base
		if v, ok := m["growth_type"]; ok {
			c.GrowthType = cast.ToString(v)
		}
		if v, ok := m["measure"]; ok {
			c.Measure = cast.ToString(v)
		}
		if v, ok := m["include_ingrowth"]; ok {
			c.IncludeIngrowth = cast.ToBool(v)
		}
		if v, ok := m["include_mortality"]; ok {
			c.IncludeMortality = cast.ToBool(v)
		}
		if v, ok := m["annual_only"]; ok {
			c.AnnualOnly = cast.ToBool(v)
		}
		return c, nil
	case ModuleArea:
		c := DefaultAreaConfig()
		c.Base = base
		if v, ok := m["area_basis"]; ok {
			c.AreaBasis = cast.ToString(v)
		}
		if v, ok := m["include_nonforest"]; ok {
			c.IncludeNonforest = cast.ToBool(v)
		}
		if v, ok := m["ownership_groups"]; ok {
			c.OwnershipGroups = cast.ToIntSlice(v)
		}
		return c, nil
	case ModuleMortality:
		c := DefaultMortalityConfig()
		c.Base = base
		if v, ok := m["mortality_type"]; ok {
			c.MortalityType = cast.ToString(v)
		}
		if v, ok := m["group_by_agent"]; ok {
			c.GroupByAgent = cast.ToBool(v)
		}
		if v, ok := m["group_by_disturbance"]; ok {
			c.GroupByDisturbance = cast.ToBool(v)
		}
		if v, ok := m["group_by_ownership"]; ok {
			c.GroupByOwnership = cast.ToBool(v)
		}
		if v, ok := m["group_by_species_group"]; ok {
			c.GroupBySpeciesGroup = cast.ToBool(v)
		}
		if v, ok := m["include_natural"]; ok {
			c.IncludeNatural = cast.ToBool(v)
		}
		if v, ok := m["include_harvest"]; ok {
			c.IncludeHarvest = cast.ToBool(v)
		}
		if v, ok := m["include_components"]; ok {
			c.IncludeComponents = cast.ToBool(v)
		}
		if v, ok := m["variance_method"]; ok {
			c.VarianceMethod = cast.ToString(v)
		}
		return c, nil
	default:
		return nil, errs.New(errs.InvalidConfig, "unknown estimator %q", estimator)
	}
}
