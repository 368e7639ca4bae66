package model

import "math"

// PriceSeries is an hourly price vector in USD/MWh, positionally aligned with
// the optimisation horizon. Zero is a valid price.
type PriceSeries []float64

// Validate rejects empty, non-finite or negative series.
func (ps PriceSeries) Validate() error {
	const op = "prices"
	if len(ps) == 0 {
		return Errorf(KindInvalidInput, op, "empty price series")
	}
	for i, v := range ps {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Errorf(KindInvalidInput, op, "price at hour %d is not finite", i+1)
		}
		if v < 0 {
			return Errorf(KindInvalidInput, op, "price at hour %d is negative (%g)", i+1, v)
		}
	}
	return nil
}

// Mean returns the average price.
func (ps PriceSeries) Mean() float64 {
	if len(ps) == 0 {
		return 0
	}
	var sum float64
	for _, v := range ps {
		sum += v
	}
	return sum / float64(len(ps))
}

// Clone returns an independent copy.
func (ps PriceSeries) Clone() PriceSeries {
	out := make(PriceSeries, len(ps))
	copy(out, ps)
	return out
}
