// Package dispatch schedules a single hydro unit against an hourly price
// series.
//
// Two strategies implement the Strategy interface: LPSolver solves the exact
// linear program with gonum's simplex, GreedySolver fills the most expensive
// hours first. Chain composes them so that a numerical or feasibility failure
// of the exact solve falls back to the heuristic. SolveDispatch is the
// default LP-then-greedy chain.
//
// The package is pure: it holds no state, performs no I/O and never logs.
package dispatch
