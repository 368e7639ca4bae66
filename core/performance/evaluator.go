package performance

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/hydrodispatch/core/dispatch"
	"github.com/kilianp07/hydrodispatch/core/model"
)

// DefaultDayHours is the block length of the daily breakdown.
const DefaultDayHours = 24

// Evaluator compares a forecast-driven schedule with the stable baseline and
// the hindsight optimum, day by day.
type Evaluator struct {
	// Primary is tried first for every solve, Fallback when Primary fails
	// with a recoverable error.
	Primary  dispatch.Strategy
	Fallback dispatch.Strategy
	Options  dispatch.Options
	// DayHours is the block length; zero means DefaultDayHours.
	DayHours int
	// Parallel runs the three solves of a block concurrently. Blocks are
	// always processed in order.
	Parallel bool
}

// NewEvaluator returns an evaluator using the exact LP with greedy fallback.
func NewEvaluator(opts dispatch.Options) *Evaluator {
	return &Evaluator{
		Primary:  dispatch.NewLPSolver(opts),
		Fallback: dispatch.NewGreedySolver(opts),
		Options:  opts,
		DayHours: DefaultDayHours,
	}
}

func (e *Evaluator) strategy() dispatch.Strategy {
	if e.Fallback == nil {
		return dispatch.NewChain(e.Primary)
	}
	return dispatch.NewChain(e.Primary, e.Fallback)
}

// Evaluate runs the three strategies over the horizon. Revenues are always
// valued at the actual prices. Storage is carried from one day to the next
// along the programmed schedule.
func (e *Evaluator) Evaluate(plant model.Plant, actual, forecast model.PriceSeries) (Result, error) {
	const op = "evaluate"
	if err := plant.Validate(); err != nil {
		return Result{}, err
	}
	if err := actual.Validate(); err != nil {
		return Result{}, err
	}
	if err := forecast.Validate(); err != nil {
		return Result{}, err
	}
	if len(actual) != len(forecast) {
		return Result{}, model.Errorf(model.KindInvalidInput, op,
			"actual prices have %d hours, forecast %d", len(actual), len(forecast))
	}
	if e.Primary == nil {
		return Result{}, model.Errorf(model.KindSolverFailure, op, "no dispatch strategy configured")
	}

	dayHours := e.DayHours
	if dayHours <= 0 {
		dayHours = DefaultDayHours
	}
	n := len(actual)
	strat := e.strategy()

	s0 := plant.S0
	days := make([]DayPerformance, 0, (n+dayHours-1)/dayHours)
	for start, day := 0, 1; start < n; start, day = start+dayHours, day+1 {
		end := start + dayHours
		if end > n {
			end = n
		}
		p := plant.WithInitialStorage(math.Min(plant.SMax, math.Max(plant.SMin, s0)))
		d, err := e.evaluateDay(strat, p, actual[start:end], forecast[start:end])
		if err != nil {
			return Result{}, err
		}
		d.Day = day
		days = append(days, d)
		s0 = d.EndStorage
	}
	return e.assemble(plant, actual, forecast, days), nil
}

// evaluateDay solves one block. Recoverable failures exclude the day; any
// other error aborts the evaluation.
func (e *Evaluator) evaluateDay(strat dispatch.Strategy, p model.Plant, actual, forecast model.PriceSeries) (DayPerformance, error) {
	d := DayPerformance{Hours: len(actual), StartStorage: p.S0, EndStorage: p.S0}

	names := [3]string{Programmed, Hindsight, Stable}
	solvers := [3]func() (model.Schedule, error){
		func() (model.Schedule, error) { return strat.Solve(p, forecast) },
		func() (model.Schedule, error) { return strat.Solve(p, actual) },
		func() (model.Schedule, error) { return stableSchedule(p, forecast, e.Options, strat) },
	}
	// Recoverable errors are kept per strategy to exclude the day; only a
	// fatal one aborts the group.
	var (
		scheds [3]model.Schedule
		errs   [3]error
	)
	solve := func(i int) error {
		scheds[i], errs[i] = solvers[i]()
		if errs[i] != nil && !model.Recoverable(errs[i]) {
			return errs[i]
		}
		return nil
	}
	if e.Parallel {
		var g errgroup.Group
		for i := range solvers {
			i := i
			g.Go(func() error { return solve(i) })
		}
		if err := g.Wait(); err != nil {
			return DayPerformance{}, err
		}
	} else {
		for i := range solvers {
			if err := solve(i); err != nil {
				return DayPerformance{}, err
			}
		}
	}

	for i, err := range errs {
		if err != nil {
			d.Excluded = true
			d.Reason = names[i] + ": " + err.Error()
			return d, nil
		}
	}
	prog, hind, stab := scheds[0], scheds[1], scheds[2]

	d.stable, d.programmed, d.hindsight = stab, prog, hind
	d.Methods = map[string]string{Stable: stab.Method, Programmed: prog.Method, Hindsight: hind.Method}
	d.RevenueStable = stab.Revenue(actual)
	d.RevenueProgrammed = prog.Revenue(actual)
	d.RevenueHindsight = hind.Revenue(actual)
	d.Efficiency = Efficiency(d.RevenueProgrammed, d.RevenueHindsight)
	d.EndStorage = prog.FinalStorage()
	return d, nil
}

func (e *Evaluator) assemble(plant model.Plant, actual, forecast model.PriceSeries, days []DayPerformance) Result {
	n := len(actual)
	res := Result{
		Summary: Summary{Horizon: n, WaterBalance: plant.WaterBalance()},
		Hourly: Hourly{
			Actual:     actual.Clone(),
			Forecast:   forecast.Clone(),
			Stable:     make([]float64, n),
			Programmed: make([]float64, n),
			Hindsight:  make([]float64, n),
			Storage:    make([]float64, 0, n+1),
			Included:   make([]bool, n),
		},
		Daily: days,
	}
	res.Hourly.Storage = append(res.Hourly.Storage, plant.S0)

	var stab, prog, hind model.Schedule
	var incActual model.PriceSeries
	offset := 0
	for _, d := range days {
		if d.Excluded {
			res.Summary.ExcludedDays++
			for i := 0; i < d.Hours; i++ {
				res.Hourly.Storage = append(res.Hourly.Storage, d.StartStorage)
			}
			offset += d.Hours
			continue
		}
		res.Summary.RevenueStable += d.RevenueStable
		res.Summary.RevenueProgrammed += d.RevenueProgrammed
		res.Summary.RevenueHindsight += d.RevenueHindsight
		copy(res.Hourly.Stable[offset:], d.stable.Power)
		copy(res.Hourly.Programmed[offset:], d.programmed.Power)
		copy(res.Hourly.Hindsight[offset:], d.hindsight.Power)
		res.Hourly.Storage = append(res.Hourly.Storage, d.programmed.Storage[1:]...)
		for i := 0; i < d.Hours; i++ {
			res.Hourly.Included[offset+i] = true
		}
		// Included programmed days chain in storage; the stable and hindsight
		// paths restart from each day's s0 and only their power is used.
		stab = stab.Concat(d.stable)
		prog = prog.Concat(d.programmed)
		hind = hind.Concat(d.hindsight)
		incActual = append(incActual, actual[offset:offset+d.Hours]...)
		offset += d.Hours
	}

	s := &res.Summary
	s.Efficiency = Efficiency(s.RevenueProgrammed, s.RevenueHindsight)
	if s.RevenueStable > 0 {
		s.ImprovementVsStable = (s.RevenueProgrammed - s.RevenueStable) / s.RevenueStable * 100
	}
	s.PStable = stab.AverageGeneration()

	res.Strategies = map[string]StrategyStats{
		Stable:     stats(stab, incActual, plant.PMax),
		Programmed: stats(prog, incActual, plant.PMax),
		Hindsight:  stats(hind, incActual, plant.PMax),
	}
	return res
}

func stats(s model.Schedule, prices model.PriceSeries, pMax float64) StrategyStats {
	return StrategyStats{
		Revenue:           s.Revenue(prices),
		AverageGeneration: s.AverageGeneration(),
		PeakGeneration:    s.PeakGeneration(),
		CapacityFactor:    s.CapacityFactor(pMax),
	}
}

// Schedule returns the schedule a day used for the named strategy. It is
// empty for excluded days.
func (d DayPerformance) Schedule(strategy string) model.Schedule {
	switch strategy {
	case Stable:
		return d.stable
	case Programmed:
		return d.programmed
	case Hindsight:
		return d.hindsight
	}
	return model.Schedule{}
}
