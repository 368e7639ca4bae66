package performance

import (
	"math"

	"github.com/kilianp07/hydrodispatch/core/dispatch"
	"github.com/kilianp07/hydrodispatch/core/model"
)

// constantRange returns the interval of constant generation levels that keep
// the reservoir within bounds for n hours. ok is false when it is empty.
func constantRange(p model.Plant, n int, opts dispatch.Options) (lo, hi float64, ok bool) {
	lo, hi = p.PMin, p.PMax
	for t := 1; t <= n; t++ {
		natural := p.S0 + float64(t)*p.Inflow
		ft := float64(t) * p.Kappa
		lo = math.Max(lo, (natural-p.SMax)/ft)
		hi = math.Min(hi, (natural-p.SMin)/ft)
	}
	if opts.EqualStorage {
		wb := p.WaterBalance()
		lo = math.Max(lo, wb)
		hi = math.Min(hi, wb)
	}
	eps := p.PowerTolerance()
	if lo > hi+eps {
		return 0, 0, false
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi, true
}

// stableSchedule is the non-reactive baseline: the constant generation
// closest to the water balance that the reservoir can sustain. When no
// constant level is feasible the fallback strategy is solved on a flat price,
// which still ignores the price shape.
func stableSchedule(p model.Plant, prices model.PriceSeries, opts dispatch.Options, fallback dispatch.Strategy) (model.Schedule, error) {
	n := len(prices)
	if lo, hi, ok := constantRange(p, n, opts); ok {
		level := math.Min(hi, math.Max(lo, p.WaterBalance()))
		power := make([]float64, n)
		for i := range power {
			power[i] = level
		}
		sched := model.Simulate(p, power)
		sched.Method = model.MethodStable
		if err := sched.Check(p); err == nil {
			return sched, nil
		}
	}
	flat := make(model.PriceSeries, n)
	mean := prices.Mean()
	for i := range flat {
		flat[i] = mean
	}
	return fallback.Solve(p, flat)
}
