package gofia

import (
	"context"

	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/errs"
	"github.com/mihiarc/gofia/estimate"
	"github.com/mihiarc/gofia/grm"
	"github.com/mihiarc/gofia/internal/frame"
)

// Area runs the C13 area estimator against d's currently clipped
// evaluation (spec.md §6, §4.13's area_basis option).
func Area(ctx context.Context, d *Db, cfg config.AreaConfig) (*frame.Frame, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "area")
	if err != nil {
		return nil, err
	}
	p := &estimate.Area{Db: d.backend, Evalid: ids, StateCD: d.stateCD, Base: cfg.Base, AreaBasis: cfg.AreaBasis}
	return p.Run(ctx)
}

// TPA runs the C13 trees-per-acre estimator.
func TPA(ctx context.Context, d *Db, cfg config.Base) (*frame.Frame, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "tpa")
	if err != nil {
		return nil, err
	}
	return estimate.NewTPA(d.backend, ids, d.stateCD, cfg).Run(ctx)
}

// TreeCount runs the C13 expanded tree-count estimator over the trees
// cfg.TreeType selects.
func TreeCount(ctx context.Context, d *Db, cfg config.Base) (*frame.Frame, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "tree_count")
	if err != nil {
		return nil, err
	}
	return estimate.NewTreeCount(d.backend, ids, d.stateCD, cfg).Run(ctx)
}

// Volume runs the C13 volume estimator for the requested vol_type.
func Volume(ctx context.Context, d *Db, cfg config.VolumeConfig) (*frame.Frame, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "volume")
	if err != nil {
		return nil, err
	}
	return estimate.NewVolume(d.backend, ids, d.stateCD, cfg.Base, cfg.VolType, cfg.IncludeRotten).Run(ctx)
}

// Biomass runs the C13 biomass estimator for the requested component.
func Biomass(ctx context.Context, d *Db, cfg config.BiomassConfig) (*frame.Frame, error) {
	if _, err := cfg.Base.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "biomass")
	if err != nil {
		return nil, err
	}
	return estimate.NewBiomass(d.backend, ids, d.stateCD, cfg.Base, cfg.Component).Run(ctx)
}

// Carbon runs the C13 carbon estimator (spec.md §4.13, §9).
func Carbon(ctx context.Context, d *Db, cfg config.CarbonConfig) (*frame.Frame, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "carbon")
	if err != nil {
		return nil, err
	}
	return estimate.NewCarbon(d.backend, ids, d.stateCD, cfg.Base, cfg.Method, cfg.CarbonFraction).Run(ctx)
}

// SiteIndex runs the C13 site_index estimator.
func SiteIndex(ctx context.Context, d *Db, cfg config.Base) (*frame.Frame, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "site_index")
	if err != nil {
		return nil, err
	}
	p := &estimate.SiteIndex{Db: d.backend, Evalid: ids, StateCD: d.stateCD, Base: cfg}
	return p.Run(ctx)
}

// Mortality runs the C14 GRM mortality estimator.
func Mortality(ctx context.Context, d *Db, cfg config.MortalityConfig) (*frame.Frame, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "mortality")
	if err != nil {
		return nil, err
	}
	p := &grm.Mortality{Db: d.backend, Evalid: ids, StateCD: d.stateCD, Cfg: cfg}
	return p.Run(ctx)
}

// Growth runs the C14 GRM net-growth estimator.
func Growth(ctx context.Context, d *Db, cfg config.GrowthConfig) (*frame.Frame, error) {
	if _, err := cfg.Base.Validate(); err != nil {
		return nil, err
	}
	if err := config.ValidateGRMTreeClass(cfg.Base.TreeClass); err != nil {
		return nil, err
	}
	if cfg.GrowthType != "" && cfg.GrowthType != "net" {
		return nil, errs.New(errs.InvalidConfig, "growth_type %q not yet supported; only \"net\" is implemented", cfg.GrowthType)
	}
	ids, err := d.evalidsFor(ctx, "growth")
	if err != nil {
		return nil, err
	}
	p := &grm.Growth{Db: d.backend, Evalid: ids, StateCD: d.stateCD, Cfg: cfg}
	return p.Run(ctx)
}

// Removals runs the C14 GRM removals estimator.
func Removals(ctx context.Context, d *Db, cfg config.RemovalsConfig) (*frame.Frame, error) {
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "removals")
	if err != nil {
		return nil, err
	}
	p := &grm.Removals{Db: d.backend, Evalid: ids, StateCD: d.stateCD, Cfg: cfg}
	return p.Run(ctx)
}

// CarbonFlux runs the C14 derived carbon-flux estimator, composing Growth,
// Mortality, and Removals biomass internally (spec.md §4.14).
func CarbonFlux(ctx context.Context, d *Db, cfg config.CarbonFluxConfig) (*frame.Frame, error) {
	if _, err := cfg.Base.Validate(); err != nil {
		return nil, err
	}
	if err := config.ValidateGRMTreeClass(cfg.Base.TreeClass); err != nil {
		return nil, err
	}
	ids, err := d.evalidsFor(ctx, "carbon_flux")
	if err != nil {
		return nil, err
	}
	p := &grm.CarbonFlux{Db: d.backend, Evalid: ids, StateCD: d.stateCD, Cfg: cfg}
	return p.Run(ctx)
}
