package scenarios

import (
	"fmt"
	"math"

	"github.com/kilianp07/hydrodispatch/core/dispatch"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/core/performance"
)

const tol = 1e-6

// Report is the outcome of a scenario run.
type Report struct {
	Name     string              `json:"name"`
	Schedule *model.Schedule     `json:"schedule,omitempty"`
	Revenue  float64             `json:"revenue,omitempty"`
	Result   *performance.Result `json:"result,omitempty"`
	Err      error               `json:"-"`
	// Failures lists unmet expectations; empty means the scenario passed.
	Failures []string `json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r Report) Passed() bool { return len(r.Failures) == 0 }

// Run executes sc and verifies its expectations.
func Run(sc *Scenario) Report {
	rep := Report{Name: sc.Name}
	opts := dispatch.Options{EqualStorage: sc.EqualStorage}
	strat, err := dispatch.NewStrategy(sc.Strategy, opts)
	if err != nil {
		rep.Err = err
		rep.Failures = append(rep.Failures, err.Error())
		return rep
	}
	switch sc.Mode {
	case ModeEvaluate:
		ev := performance.NewEvaluator(opts)
		ev.Primary, ev.Fallback = strat, nil
		if sc.DayHours > 0 {
			ev.DayHours = sc.DayHours
		}
		res, err := ev.Evaluate(sc.Plant, sc.Actual, sc.Forecast)
		rep.Err = err
		if err == nil {
			rep.Result = &res
		}
	default:
		s, err := strat.Solve(sc.Plant, sc.Prices)
		rep.Err = err
		if err == nil {
			rep.Schedule = &s
			rep.Revenue = s.Revenue(sc.Prices)
		}
	}
	rep.Failures = append(rep.Failures, sc.verify(rep)...)
	return rep
}

func (sc *Scenario) verify(rep Report) []string {
	var fails []string
	failf := func(format string, args ...any) { fails = append(fails, fmt.Sprintf(format, args...)) }
	exp := sc.Expected

	if exp.Error != "" {
		if got := model.KindOf(rep.Err).String(); rep.Err == nil || got != exp.Error {
			failf("expected %s error, got %v", exp.Error, rep.Err)
		}
		return fails
	}
	if rep.Err != nil {
		failf("unexpected error: %v", rep.Err)
		return fails
	}

	if s := rep.Schedule; s != nil {
		if err := s.Check(sc.Plant); err != nil {
			failf("schedule violates plant bounds: %v", err)
		}
		if exp.Method != "" && s.Method != exp.Method {
			failf("method %s, want %s", s.Method, exp.Method)
		}
		if exp.MinRevenue != nil && rep.Revenue < *exp.MinRevenue-tol {
			failf("revenue %.2f below %.2f", rep.Revenue, *exp.MinRevenue)
		}
		if exp.FinalStorage != nil && math.Abs(s.FinalStorage()-*exp.FinalStorage) > 1e-3 {
			failf("final storage %.4f, want %.4f", s.FinalStorage(), *exp.FinalStorage)
		}
		for _, h := range exp.PeakHours {
			if h >= len(s.Power) || math.Abs(s.Power[h]-sc.Plant.PMax) > 1e-6 {
				failf("hour %d not at p_max", h)
			}
		}
		for _, h := range exp.OffHours {
			if h >= len(s.Power) || math.Abs(s.Power[h]-sc.Plant.PMin) > 1e-6 {
				failf("hour %d not at p_min", h)
			}
		}
	}

	if res := rep.Result; res != nil {
		sum := res.Summary
		if exp.Days != nil && len(res.Daily) != *exp.Days {
			failf("%d days, want %d", len(res.Daily), *exp.Days)
		}
		if exp.ExcludedDays != nil && sum.ExcludedDays != *exp.ExcludedDays {
			failf("%d excluded days, want %d", sum.ExcludedDays, *exp.ExcludedDays)
		}
		if exp.MinEfficiency != nil && sum.Efficiency < *exp.MinEfficiency {
			failf("efficiency %.2f below %.2f", sum.Efficiency, *exp.MinEfficiency)
		}
		if exp.MaxEfficiency != nil && sum.Efficiency > *exp.MaxEfficiency {
			failf("efficiency %.2f above %.2f", sum.Efficiency, *exp.MaxEfficiency)
		}
		if exp.PStable != nil && math.Abs(sum.PStable-*exp.PStable) > 1e-3 {
			failf("p_stable %.4f, want %.4f", sum.PStable, *exp.PStable)
		}
		for _, d := range res.Daily {
			if d.Excluded {
				continue
			}
			if d.RevenueProgrammed > d.RevenueHindsight+tol*math.Max(1, d.RevenueHindsight) {
				failf("day %d: programmed revenue above hindsight", d.Day)
			}
			if d.RevenueStable > d.RevenueHindsight+tol*math.Max(1, d.RevenueHindsight) {
				failf("day %d: stable revenue above hindsight", d.Day)
			}
		}
	}
	return fails
}
