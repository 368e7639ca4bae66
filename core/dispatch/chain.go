package dispatch

import (
	"errors"
	"strings"

	"github.com/kilianp07/hydrodispatch/core/model"
)

// Chain tries each strategy in order and returns the first schedule found.
// Only recoverable failures (infeasible, solver failure) move on to the next
// strategy; malformed inputs are returned immediately.
type Chain struct {
	Strategies []Strategy
}

// NewChain returns a chain over the given strategies.
func NewChain(strategies ...Strategy) Chain {
	return Chain{Strategies: strategies}
}

// Name implements Strategy.
func (c Chain) Name() string {
	names := make([]string, len(c.Strategies))
	for i, s := range c.Strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

// Solve implements Strategy. When every strategy fails the last error is
// returned, joined with the earlier ones.
func (c Chain) Solve(plant model.Plant, prices model.PriceSeries) (model.Schedule, error) {
	if len(c.Strategies) == 0 {
		return model.Schedule{}, model.Errorf(model.KindSolverFailure, "chain", "no strategy configured")
	}
	var errs []error
	for _, s := range c.Strategies {
		sched, err := s.Solve(plant, prices)
		if err == nil {
			return sched, nil
		}
		if !model.Recoverable(err) {
			return model.Schedule{}, err
		}
		errs = append(errs, err)
	}
	last := errs[len(errs)-1]
	if len(errs) == 1 {
		return model.Schedule{}, last
	}
	return model.Schedule{}, &model.Error{Kind: model.KindOf(last), Op: "chain", Err: errors.Join(errs...)}
}
