package dispatch

import (
	"math"
	"sort"

	"github.com/kilianp07/hydrodispatch/core/model"
)

// GreedySolver assigns generation to the most expensive hours first. It is
// not optimal but always returns a feasible schedule when one exists and
// does not depend on a numerical solver.
type GreedySolver struct {
	Options Options
}

// NewGreedySolver returns a greedy heuristic using opts.
func NewGreedySolver(opts Options) GreedySolver {
	return GreedySolver{Options: opts}
}

// Name implements Strategy.
func (GreedySolver) Name() string { return model.MethodGreedy }

// Solve implements Strategy.
//
// Every hour starts at PMin, raised only where the reservoir would otherwise
// overflow. Hours are then visited by descending price and each is raised to
// the largest power that keeps the whole remaining trajectory above SMin.
func (s GreedySolver) Solve(plant model.Plant, prices model.PriceSeries) (model.Schedule, error) {
	const op = "greedy"
	if err := validateInputs(plant, prices); err != nil {
		return model.Schedule{}, err
	}
	n := len(prices)
	if _, err := newEnvelope(plant, n, s.Options.EqualStorage); err != nil {
		return model.Schedule{}, err
	}
	// The starting path ignores the terminal equality so that it sits at or
	// below the target; the fill below raises it up to the target.
	base, err := newEnvelope(plant, n, false)
	if err != nil {
		return model.Schedule{}, err
	}

	cum := make([]float64, n+1)
	copy(cum, base.lo)
	ceil := make([]float64, n+1)
	copy(ceil, base.ceil)
	var target float64
	if s.Options.EqualStorage {
		target = float64(n) * plant.Inflow / plant.Kappa
		ceil[n] = math.Min(ceil[n], target)
	}

	for _, h := range rankHours(prices) {
		t := h + 1
		room := plant.PMax - (cum[t] - cum[t-1])
		for k := t; k <= n && room > 0; k++ {
			room = math.Min(room, ceil[k]-cum[k])
		}
		if room <= 0 {
			continue
		}
		for k := t; k <= n; k++ {
			cum[k] += room
		}
	}

	if s.Options.EqualStorage && math.Abs(cum[n]-target) > base.eps {
		return model.Schedule{}, model.Errorf(model.KindInfeasible, op, "cannot release enough water to return to s0")
	}

	power := make([]float64, n)
	for t := 1; t <= n; t++ {
		power[t-1] = math.Min(plant.PMax, math.Max(plant.PMin, cum[t]-cum[t-1]))
	}
	sched := model.Simulate(plant, power)
	sched.Method = model.MethodGreedy
	if err := sched.Check(plant); err != nil {
		return model.Schedule{}, model.Wrap(model.KindSolverFailure, op, err)
	}
	return sched, nil
}

// rankHours returns hour indexes by descending price, earlier hours first on
// ties.
func rankHours(prices model.PriceSeries) []int {
	idx := make([]int, len(prices))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return prices[idx[a]] > prices[idx[b]] })
	return idx
}
