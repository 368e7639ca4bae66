package dispatch

import (
	"math"

	"github.com/kilianp07/hydrodispatch/core/model"
)

// envelope bounds the cumulative generation C[t] = P[1]+...+P[t] of every
// feasible schedule. Index 0 is the start of the horizon (C[0] = 0).
//
// The storage limits translate into floor[t] <= C[t] <= ceil[t] and the power
// limits into PMin <= C[t]-C[t-1] <= PMax. lo and hi are the tightest bounds
// reachable by a feasible path after forward and backward propagation.
type envelope struct {
	floor, ceil []float64
	lo, hi      []float64
	eps         float64
}

// storageBounds returns the raw cumulative bounds implied by the storage
// limits. With equalStorage the last hour is pinned so that S[N] = S0.
func storageBounds(p model.Plant, n int, equalStorage bool) (floor, ceil []float64) {
	floor = make([]float64, n+1)
	ceil = make([]float64, n+1)
	for t := 1; t <= n; t++ {
		natural := p.S0 + float64(t)*p.Inflow
		floor[t] = (natural - p.SMax) / p.Kappa
		ceil[t] = (natural - p.SMin) / p.Kappa
	}
	if equalStorage && n > 0 {
		target := float64(n) * p.Inflow / p.Kappa
		floor[n], ceil[n] = target, target
	}
	return floor, ceil
}

// newEnvelope propagates the bounds and reports ErrInfeasible when no
// schedule can satisfy them.
func newEnvelope(p model.Plant, n int, equalStorage bool) (*envelope, error) {
	floor, ceil := storageBounds(p, n, equalStorage)
	e := &envelope{
		floor: floor,
		ceil:  ceil,
		lo:    make([]float64, n+1),
		hi:    make([]float64, n+1),
		eps:   p.StorageTolerance() / p.Kappa,
	}
	for t := 1; t <= n; t++ {
		e.lo[t] = math.Max(e.lo[t-1]+p.PMin, floor[t])
		e.hi[t] = math.Min(e.hi[t-1]+p.PMax, ceil[t])
		if e.lo[t] > e.hi[t]+e.eps {
			return nil, infeasibleAt(p, t, e.lo[t] > e.hi[t-1]+p.PMax)
		}
		if e.lo[t] > e.hi[t] {
			e.lo[t] = e.hi[t]
		}
	}
	for t := n - 1; t >= 1; t-- {
		e.hi[t] = math.Min(e.hi[t], e.hi[t+1]-p.PMin)
		e.lo[t] = math.Max(e.lo[t], e.lo[t+1]-p.PMax)
		if e.lo[t] > e.hi[t]+e.eps {
			return nil, model.Errorf(model.KindInfeasible, "envelope", "no feasible storage level at hour %d", t)
		}
		if e.lo[t] > e.hi[t] {
			e.lo[t] = e.hi[t]
		}
	}
	return e, nil
}

func infeasibleAt(p model.Plant, t int, overflow bool) error {
	if overflow {
		return model.Errorf(model.KindInfeasible, "envelope",
			"storage exceeds s_max %g at hour %d even at p_max", p.SMax, t)
	}
	return model.Errorf(model.KindInfeasible, "envelope",
		"storage falls below s_min %g at hour %d even at p_min", p.SMin, t)
}

// Feasible reports whether any schedule of n hours satisfies the plant
// constraints.
func Feasible(p model.Plant, n int, opts Options) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := newEnvelope(p, n, opts.EqualStorage)
	return err
}
