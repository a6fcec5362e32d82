package grm

import (
	"context"
	"math"

	"github.com/mihiarc/gofia/backend"
	"github.com/mihiarc/gofia/config"
	"github.com/mihiarc/gofia/internal/frame"
)

// CarbonFlux is the C14 derived carbon-flux estimator: it is not loaded
// from a table but composed from growth, mortality, and removals biomass
// (spec.md §4.14's "carbon flux (derived, not loaded)" section).
type CarbonFlux struct {
	Db      backend.Db
	Evalid  []int
	StateCD int
	Cfg     config.CarbonFluxConfig
}

func (c *CarbonFlux) Run(ctx context.Context) (*frame.Frame, error) {
	growthBase := c.Cfg.Base
	growth := &Growth{Db: c.Db, Evalid: c.Evalid, StateCD: c.StateCD, Cfg: config.GrowthConfig{
		Base: growthBase, GrowthType: "net", IncludeIngrowth: true, Measure: "biomass", CarbonFraction: c.Cfg.CarbonFraction,
	}}
	mortality := &Mortality{Db: c.Db, Evalid: c.Evalid, StateCD: c.StateCD, Cfg: config.MortalityConfig{
		Base: growthBase, MortalityType: "biomass", CarbonFraction: c.Cfg.CarbonFraction,
	}}
	removals := &Removals{Db: c.Db, Evalid: c.Evalid, StateCD: c.StateCD, Cfg: config.RemovalsConfig{
		Base: growthBase, RemovalsType: "biomass", CarbonFraction: c.Cfg.CarbonFraction,
	}}

	growthFr, err := growth.Run(ctx)
	if err != nil {
		return nil, err
	}
	mortFr, err := mortality.Run(ctx)
	if err != nil {
		return nil, err
	}
	remvFr, err := removals.Run(ctx)
	if err != nil {
		return nil, err
	}

	grpCols := c.Cfg.GroupingColumns()
	n := growthFr.NRows()

	growthC := scaleColumn(growthFr, "GROWTH_DRYBIO_AG", c.Cfg.CarbonFraction, n)
	growthCTotal := scaleColumn(growthFr, "GROWTH_DRYBIO_AG_TOTAL", c.Cfg.CarbonFraction, n)
	growthCSE := scaleColumn(growthFr, "GROWTH_DRYBIO_AG_SE", c.Cfg.CarbonFraction, n)

	mortC := scaleColumn(mortFr, "MORT_DRYBIO_AG", c.Cfg.CarbonFraction, n)
	mortCTotal := scaleColumn(mortFr, "MORT_DRYBIO_AG_TOTAL", c.Cfg.CarbonFraction, n)
	mortCSE := scaleColumn(mortFr, "MORT_DRYBIO_AG_SE", c.Cfg.CarbonFraction, n)

	remvC := scaleColumn(remvFr, "REMV_DRYBIO_AG", c.Cfg.CarbonFraction, n)
	remvCTotal := scaleColumn(remvFr, "REMV_DRYBIO_AG_TOTAL", c.Cfg.CarbonFraction, n)
	remvCSE := scaleColumn(remvFr, "REMV_DRYBIO_AG_SE", c.Cfg.CarbonFraction, n)

	netFlux := make([]float64, n)
	netFluxTotal := make([]float64, n)
	netFluxSE := make([]float64, n)
	for i := 0; i < n; i++ {
		netFlux[i] = growthC[i] - mortC[i] - remvC[i]
		netFluxTotal[i] = growthCTotal[i] - mortCTotal[i] - remvCTotal[i]
		// Conservative independent-components SE combination (spec.md §4.14).
		netFluxSE[i] = math.Sqrt(growthCSE[i]*growthCSE[i] + mortCSE[i]*mortCSE[i] + remvCSE[i]*remvCSE[i])
	}

	order := append([]string{}, grpCols...)
	columns := map[string]frame.Column{}
	for _, col := range grpCols {
		if c, ok := growthFr.Col(col); ok {
			columns[col] = c
		}
	}
	columns["NET_FLUX"] = frame.NewFloat64Column(netFlux)
	columns["NET_FLUX_TOTAL"] = frame.NewFloat64Column(netFluxTotal)
	columns["NET_FLUX_SE"] = frame.NewFloat64Column(netFluxSE)
	order = append(order, "NET_FLUX", "NET_FLUX_TOTAL", "NET_FLUX_SE")

	if c.Cfg.IncludeComponents {
		columns["GROWTH_C"] = frame.NewFloat64Column(growthC)
		columns["GROWTH_C_TOTAL"] = frame.NewFloat64Column(growthCTotal)
		columns["MORT_C"] = frame.NewFloat64Column(mortC)
		columns["MORT_C_TOTAL"] = frame.NewFloat64Column(mortCTotal)
		columns["REMV_C"] = frame.NewFloat64Column(remvC)
		columns["REMV_C_TOTAL"] = frame.NewFloat64Column(remvCTotal)
		order = append(order, "GROWTH_C", "GROWTH_C_TOTAL", "MORT_C", "MORT_C_TOTAL", "REMV_C", "REMV_C_TOTAL")
	}

	return frame.New(order, columns), nil
}

// scaleColumn reads a float64 column (biomass, tons/acre/year) and scales it
// by carbonFraction to get the carbon equivalent (spec.md §4.14:
// GROWTH_C = GROWTH_BIO · 0.47, and likewise for MORT_C/REMV_C); missing
// columns or row-count mismatches yield zeros rather than a panic, since a
// biomass component could legitimately be zero-length for an empty evaluation.
func scaleColumn(fr *frame.Frame, name string, fraction float64, n int) []float64 {
	out := make([]float64, n)
	col, ok := fr.Col(name)
	if !ok {
		return out
	}
	for i := 0; i < n && i < col.Len(); i++ {
		out[i] = col.AtFloat64(i) * fraction
	}
	return out
}
