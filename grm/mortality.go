package grm

import (
	"context"

	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/internal/frame"
)

// mortalityComponents are the TREE_GRM_COMPONENT codes retained for
// mortality (spec.md §4.14): trees that died between remeasurements.
var mortalityComponents = map[string]bool{"MORTALITY1": true, "MORTALITY2": true}

// removalsComponents are the codes retained for removals: harvested
// (CUT*) or administratively reclassified (DIVERSION*) trees.
var removalsComponents = map[string]bool{"CUT1": true, "CUT2": true, "DIVERSION1": true, "DIVERSION2": true}

// Mortality is the C14 mortality estimator: annual TPA/volume/biomass/
// carbon/sawlog loss rate over MORTALITY1/MORTALITY2 components.
type Mortality struct {
	Db      backend.Db
	Evalid  []int
	StateCD int
	Cfg     config.MortalityConfig
}

func (m *Mortality) Run(ctx context.Context) (*frame.Frame, error) {
	if m.Cfg.MortalityType == "both" {
		return m.runBoth(ctx)
	}
	res, err := computeRate(ctx, m.Db, m.Evalid, m.StateCD, m.Cfg.Base, m.Cfg.GroupingColumns(),
		mortalityComponents, "MORT", m.Cfg.MortalityType, m.Cfg.CarbonFraction)
	if err != nil {
		return nil, err
	}
	return assembleGRM(res, mortColumnName(m.Cfg.MortalityType)), nil
}

// runBoth computes tpa and volume separately and merges their output
// columns onto a single frame, per mortality_type="both" (spec.md §4.3).
func (m *Mortality) runBoth(ctx context.Context) (*frame.Frame, error) {
	grpCols := m.Cfg.GroupingColumns()
	tpaRes, err := computeRate(ctx, m.Db, m.Evalid, m.StateCD, m.Cfg.Base, grpCols, mortalityComponents, "MORT", "tpa", m.Cfg.CarbonFraction)
	if err != nil {
		return nil, err
	}
	volRes, err := computeRate(ctx, m.Db, m.Evalid, m.StateCD, m.Cfg.Base, grpCols, mortalityComponents, "MORT", "volume", m.Cfg.CarbonFraction)
	if err != nil {
		return nil, err
	}
	out := assembleGRM(tpaRes, "MORT_TPA")
	vol := assembleGRM(volRes, "MORT_VOLCFNET")
	for _, col := range []string{"MORT_VOLCFNET", "MORT_VOLCFNET_TOTAL", "MORT_VOLCFNET_SE", "MORT_VOLCFNET_TOTAL_SE", "MORT_VOLCFNET_ZERO_DENOM"} {
		if c, ok := vol.Col(col); ok {
			out = out.WithColumn(col, c)
		}
	}
	return out, nil
}

func mortColumnName(mortalityType string) string {
	switch mortalityType {
	case "volume":
		return "MORT_VOLCFNET"
	case "biomass":
		return "MORT_DRYBIO_AG"
	case "carbon":
		return "MORT_CARBON_AG"
	case "sawlog":
		return "MORT_VOLCSNET"
	default:
		return "MORT_TPA"
	}
}

// Removals is the C14 removals estimator: annual TPA/volume/biomass/
// carbon/sawlog harvest-and-diversion rate over the CUT*/DIVERSION*
// components (spec.md §4.14's "same as mortality with component set...").
type Removals struct {
	Db      backend.Db
	Evalid  []int
	StateCD int
	Cfg     config.RemovalsConfig
}

func (r *Removals) Run(ctx context.Context) (*frame.Frame, error) {
	res, err := computeRate(ctx, r.Db, r.Evalid, r.StateCD, r.Cfg.Base, r.Cfg.GroupingColumns(),
		removalsComponents, "REMV", r.Cfg.RemovalsType, r.Cfg.CarbonFraction)
	if err != nil {
		return nil, err
	}
	return assembleGRM(res, removColumnName(r.Cfg.RemovalsType)), nil
}

func removColumnName(removalsType string) string {
	switch removalsType {
	case "volume":
		return "REMV_VOLCFNET"
	case "biomass":
		return "REMV_DRYBIO_AG"
	case "carbon":
		return "REMV_CARBON_AG"
	case "sawlog":
		return "REMV_VOLCSNET"
	default:
		return "REMV_TPA"
	}
}
