package dispatch

import (
	"fmt"

	"github.com/kilianp07/hydrodispatch/core/model"
)

// Options tune the dispatch formulation.
type Options struct {
	// EqualStorage forces the reservoir to end the horizon at its initial
	// level.
	EqualStorage bool `json:"equal_storage" yaml:"equal_storage"`
}

// Strategy produces a feasible schedule for a plant and price series.
type Strategy interface {
	Name() string
	Solve(plant model.Plant, prices model.PriceSeries) (model.Schedule, error)
}

// Strategy names accepted by NewStrategy.
const (
	StrategyLP     = "lp"
	StrategyGreedy = "greedy"
	StrategyChain  = "chain"
)

// NewStrategy returns the named strategy.
func NewStrategy(name string, opts Options) (Strategy, error) {
	switch name {
	case StrategyLP:
		return NewLPSolver(opts), nil
	case StrategyGreedy:
		return NewGreedySolver(opts), nil
	case StrategyChain, "":
		return NewChain(NewLPSolver(opts), NewGreedySolver(opts)), nil
	default:
		return nil, fmt.Errorf("unknown dispatch strategy %q", name)
	}
}

// SolveDispatch returns the revenue-maximising schedule, falling back to the
// greedy heuristic when the exact solve fails.
func SolveDispatch(plant model.Plant, prices model.PriceSeries, opts Options) (model.Schedule, error) {
	return NewChain(NewLPSolver(opts), NewGreedySolver(opts)).Solve(plant, prices)
}

func validateInputs(plant model.Plant, prices model.PriceSeries) error {
	if err := plant.Validate(); err != nil {
		return err
	}
	return prices.Validate()
}
