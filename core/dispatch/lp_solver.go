package dispatch

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/hydrodispatch/core/model"
)

// LPSolver computes the revenue-maximising schedule exactly with the simplex
// method. Storage is eliminated by telescoping the reservoir recursion into
// bounds on cumulative generation.
type LPSolver struct {
	Options Options
	// Tol is the simplex optimality tolerance.
	Tol float64
}

// NewLPSolver returns an exact solver with default tolerance.
func NewLPSolver(opts Options) LPSolver {
	return LPSolver{Options: opts, Tol: 1e-9}
}

// Name implements Strategy.
func (LPSolver) Name() string { return model.MethodLP }

// lpProblem is a standard form LP: min cᵀx s.t. Ax = b, x >= 0. The first
// nVar columns are the generation offsets above PMin.
type lpProblem struct {
	c     []float64
	a     *mat.Dense
	b     []float64
	basic []int // feasible starting basis, nil when unknown
	nVar  int
}

// solveLP runs the simplex and returns the first nVar components.
func solveLP(prob lpProblem, tol float64) ([]float64, error) {
	_, sol, err := lp.Simplex(prob.c, prob.a, prob.b, tol, prob.basic)
	if err != nil {
		return nil, err
	}
	return sol[:prob.nVar], nil
}

// lpSolve points to the function used to solve the LP. It can be overridden in
// tests to simulate solver failures.
var lpSolve = solveLP

// Solve implements Strategy.
func (s LPSolver) Solve(plant model.Plant, prices model.PriceSeries) (model.Schedule, error) {
	const op = "lp"
	if err := validateInputs(plant, prices); err != nil {
		return model.Schedule{}, err
	}
	n := len(prices)
	// The envelope decides feasibility exactly; past this point any solver
	// error is numerical.
	if _, err := newEnvelope(plant, n, s.Options.EqualStorage); err != nil {
		return model.Schedule{}, err
	}

	tol := s.Tol
	if tol <= 0 {
		tol = 1e-9
	}
	y, err := lpSolve(s.build(plant, prices), tol)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return model.Schedule{}, model.Errorf(model.KindSolverFailure, op, "simplex reported a feasible region as infeasible")
		}
		return model.Schedule{}, model.Wrap(model.KindSolverFailure, op, err)
	}
	if len(y) != n {
		return model.Schedule{}, model.Errorf(model.KindSolverFailure, op, "solver returned %d values for %d hours", len(y), n)
	}

	ptol := plant.PowerTolerance()
	power := make([]float64, n)
	for t, v := range y {
		p := plant.PMin + v
		if math.IsNaN(p) || p < plant.PMin-ptol || p > plant.PMax+ptol {
			return model.Schedule{}, model.Errorf(model.KindSolverFailure, op, "power %g at hour %d outside bounds", p, t+1)
		}
		power[t] = math.Min(plant.PMax, math.Max(plant.PMin, p))
	}
	sched := model.Simulate(plant, power)
	sched.Method = model.MethodLP
	if err := sched.Check(plant); err != nil {
		return model.Schedule{}, model.Wrap(model.KindSolverFailure, op, err)
	}
	if s.Options.EqualStorage && math.Abs(sched.FinalStorage()-plant.S0) > plant.StorageTolerance() {
		return model.Schedule{}, model.Errorf(model.KindSolverFailure, op, "final storage %g differs from initial %g", sched.FinalStorage(), plant.S0)
	}
	return sched, nil
}

// build assembles the standard form in y[t] = P[t] - PMin >= 0:
//
//	y[t] + u[t]            = PMax - PMin
//	 Σ_{i<=t} y[i] + v[k]  = ceil[t]  - t·PMin   (storage >= SMin)
//	-Σ_{i<=t} y[i] + v[k]  = t·PMin - floor[t]   (storage <= SMax)
//	 Σ y                   = N·Inflow/κ - N·PMin (EqualStorage only)
//
// Storage rows that cannot bind under the power bounds are left out.
func (s LPSolver) build(plant model.Plant, prices model.PriceSeries) lpProblem {
	n := len(prices)
	floor, ceil := storageBounds(plant, n, false)

	type row struct {
		t    int
		sign float64
		rhs  float64
	}
	var rows []row
	last := n
	if s.Options.EqualStorage {
		last = n - 1
	}
	for t := 1; t <= last; t++ {
		base := float64(t) * plant.PMin
		if float64(t)*plant.PMax > ceil[t] {
			rows = append(rows, row{t: t, sign: 1, rhs: ceil[t] - base})
		}
		if base < floor[t] {
			rows = append(rows, row{t: t, sign: -1, rhs: base - floor[t]})
		}
	}

	nEq := 0
	if s.Options.EqualStorage {
		nEq = 1
	}
	m := n + len(rows) + nEq
	cols := 2*n + len(rows)
	a := mat.NewDense(m, cols, nil)
	b := make([]float64, m)

	for i := 0; i < n; i++ {
		a.Set(i, i, 1)
		a.Set(i, n+i, 1)
		b[i] = plant.PMax - plant.PMin
	}
	for k, r := range rows {
		ri := n + k
		for i := 0; i < r.t; i++ {
			a.Set(ri, i, r.sign)
		}
		a.Set(ri, 2*n+k, 1)
		b[ri] = r.rhs
	}
	if nEq == 1 {
		ri := m - 1
		for i := 0; i < n; i++ {
			a.Set(ri, i, 1)
		}
		b[ri] = float64(n)*(plant.Inflow/plant.Kappa) - float64(n)*plant.PMin
	}

	c := make([]float64, cols)
	for i, p := range prices {
		c[i] = -p
	}

	prob := lpProblem{c: c, a: a, b: b, nVar: n}
	// With every right-hand side non-negative and no equality the slack
	// columns form a feasible basis (all generation at PMin).
	if nEq == 0 {
		feasible := true
		for _, v := range b {
			if v < 0 {
				feasible = false
				break
			}
		}
		if feasible {
			prob.basic = make([]int, m)
			for i := range prob.basic {
				prob.basic[i] = n + i
			}
		}
	}
	return prob
}
