package model

import (
	"gonum.org/v1/gonum/floats"
)

// Method names recorded on schedules.
const (
	MethodLP     = "lp"
	MethodGreedy = "greedy"
	MethodStable = "stable"
)

// Schedule is an hourly generation plan and the storage trajectory it
// implies. Storage has one more entry than Power; Storage[0] is the initial
// storage.
type Schedule struct {
	Power   []float64 `json:"power"`
	Storage []float64 `json:"storage"`
	Method  string    `json:"method"`
}

// Simulate builds the schedule produced by running power on the plant.
func Simulate(p Plant, power []float64) Schedule {
	pw := make([]float64, len(power))
	copy(pw, power)
	st := make([]float64, len(power)+1)
	st[0] = p.S0
	for t, v := range pw {
		st[t+1] = st[t] + p.Inflow - p.Kappa*v
	}
	return Schedule{Power: pw, Storage: st}
}

// Hours returns the schedule length.
func (s Schedule) Hours() int { return len(s.Power) }

// Revenue values the schedule at prices. Prices beyond the schedule are
// ignored.
func (s Schedule) Revenue(prices PriceSeries) float64 {
	n := len(s.Power)
	if len(prices) < n {
		n = len(prices)
	}
	if n == 0 {
		return 0
	}
	return floats.Dot(s.Power[:n], prices[:n])
}

// AverageGeneration returns the mean of Power.
func (s Schedule) AverageGeneration() float64 {
	if len(s.Power) == 0 {
		return 0
	}
	return floats.Sum(s.Power) / float64(len(s.Power))
}

// PeakGeneration returns the maximum of Power.
func (s Schedule) PeakGeneration() float64 {
	if len(s.Power) == 0 {
		return 0
	}
	return floats.Max(s.Power)
}

// CapacityFactor is AverageGeneration divided by pMax, as a fraction.
func (s Schedule) CapacityFactor(pMax float64) float64 {
	if pMax <= 0 {
		return 0
	}
	return s.AverageGeneration() / pMax
}

// FinalStorage returns the storage at the end of the horizon.
func (s Schedule) FinalStorage() float64 {
	if len(s.Storage) == 0 {
		return 0
	}
	return s.Storage[len(s.Storage)-1]
}

// Discharge returns the turbined volume per hour (kappa * P).
func (s Schedule) Discharge(kappa float64) []float64 {
	q := make([]float64, len(s.Power))
	floats.ScaleTo(q, kappa, s.Power)
	return q
}

// Check verifies the power and storage bounds of the plant.
func (s Schedule) Check(p Plant) error {
	const op = "schedule"
	if len(s.Storage) != len(s.Power)+1 {
		return Errorf(KindInfeasible, op, "storage trajectory has %d points for %d hours", len(s.Storage), len(s.Power))
	}
	ptol, stol := p.PowerTolerance(), p.StorageTolerance()
	for t, v := range s.Power {
		if v < p.PMin-ptol || v > p.PMax+ptol {
			return Errorf(KindInfeasible, op, "power %g at hour %d outside [%g, %g]", v, t+1, p.PMin, p.PMax)
		}
	}
	for t, v := range s.Storage[1:] {
		if v < p.SMin-stol || v > p.SMax+stol {
			return Errorf(KindInfeasible, op, "storage %g at hour %d outside [%g, %g]", v, t+1, p.SMin, p.SMax)
		}
	}
	return nil
}

// Concat appends the hours of next to s. Storage continues from the second
// level of next, so it is a valid path only when next starts where s ends.
func (s Schedule) Concat(next Schedule) Schedule {
	if len(s.Storage) == 0 {
		return next
	}
	out := Schedule{Method: s.Method}
	out.Power = append(append(make([]float64, 0, len(s.Power)+len(next.Power)), s.Power...), next.Power...)
	out.Storage = append(make([]float64, 0, len(s.Storage)+len(next.Power)), s.Storage...)
	if len(next.Storage) > 1 {
		out.Storage = append(out.Storage, next.Storage[1:]...)
	}
	return out
}
