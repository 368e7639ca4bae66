package model

import "math"

// Plant describes a hydro unit with a single reservoir. Storage is expressed
// in whatever volume unit Kappa and Inflow use; one time step is one hour.
type Plant struct {
	PMin   float64 `json:"p_min" yaml:"p_min"`   // MW
	PMax   float64 `json:"p_max" yaml:"p_max"`   // MW
	SMin   float64 `json:"s_min" yaml:"s_min"`   // storage lower bound
	SMax   float64 `json:"s_max" yaml:"s_max"`   // storage upper bound
	S0     float64 `json:"s0" yaml:"s0"`         // initial storage
	Kappa  float64 `json:"kappa" yaml:"kappa"`   // volume drawn per MW over one hour
	Inflow float64 `json:"inflow" yaml:"inflow"` // natural inflow per hour
}

// NewPlant validates the parameters and returns the plant.
func NewPlant(pMin, pMax, s0, sMin, sMax, kappa, inflow float64) (Plant, error) {
	p := Plant{PMin: pMin, PMax: pMax, SMin: sMin, SMax: sMax, S0: s0, Kappa: kappa, Inflow: inflow}
	if err := p.Validate(); err != nil {
		return Plant{}, err
	}
	return p, nil
}

// Validate checks the physical invariants of the plant.
func (p Plant) Validate() error {
	const op = "plant"
	fields := []struct {
		name string
		v    float64
	}{
		{"p_min", p.PMin}, {"p_max", p.PMax}, {"s_min", p.SMin}, {"s_max", p.SMax},
		{"s0", p.S0}, {"kappa", p.Kappa}, {"inflow", p.Inflow},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return Errorf(KindInvalidParameter, op, "%s is not finite", f.name)
		}
	}
	switch {
	case p.PMax <= 0:
		return Errorf(KindInvalidParameter, op, "p_max must be positive, got %g", p.PMax)
	case p.PMin < 0:
		return Errorf(KindInvalidParameter, op, "p_min must be non-negative, got %g", p.PMin)
	case p.PMin > p.PMax:
		return Errorf(KindInvalidParameter, op, "p_min %g exceeds p_max %g", p.PMin, p.PMax)
	case p.SMin < 0:
		return Errorf(KindInvalidParameter, op, "s_min must be non-negative, got %g", p.SMin)
	case p.SMin > p.SMax:
		return Errorf(KindInvalidParameter, op, "s_min %g exceeds s_max %g", p.SMin, p.SMax)
	case p.S0 < p.SMin || p.S0 > p.SMax:
		return Errorf(KindInvalidParameter, op, "s0 %g outside [%g, %g]", p.S0, p.SMin, p.SMax)
	case p.Kappa <= 0:
		return Errorf(KindInvalidParameter, op, "kappa must be positive, got %g", p.Kappa)
	case p.Inflow < 0:
		return Errorf(KindInvalidParameter, op, "inflow must be non-negative, got %g", p.Inflow)
	}
	return nil
}

// WithInitialStorage returns a copy of the plant starting at s0. The result
// is not validated.
func (p Plant) WithInitialStorage(s0 float64) Plant {
	p.S0 = s0
	return p
}

// WaterBalance is the constant generation that keeps storage level.
func (p Plant) WaterBalance() float64 {
	return p.Inflow / p.Kappa
}

// StorageTolerance is the absolute slack accepted on storage bounds.
func (p Plant) StorageTolerance() float64 {
	return 1e-6 * math.Max(1, math.Max(math.Abs(p.SMax), math.Abs(p.S0)))
}

// PowerTolerance is the absolute slack accepted on power bounds.
func (p Plant) PowerTolerance() float64 {
	return 1e-6 * math.Max(1, p.PMax)
}
