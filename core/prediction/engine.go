package prediction

import (
	"github.com/kilianp07/hydrodispatch/core/model"
)

// Engine forecasts an hourly price series aligned with observed prices. The
// forecast for hour t may only use observations before t.
type Engine interface {
	Forecast(observed model.PriceSeries) (model.PriceSeries, error)
}

// DefaultPeriod is the persistence lag in hours.
const DefaultPeriod = 24

// Persistence repeats the prices seen Period hours earlier. Hours of the first
// period have no history and are forecast at the mean of the hours already
// seen, starting from the first observation.
type Persistence struct {
	Period int
}

// Forecast implements Engine.
func (p Persistence) Forecast(observed model.PriceSeries) (model.PriceSeries, error) {
	if err := observed.Validate(); err != nil {
		return nil, err
	}
	period := p.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	out := make(model.PriceSeries, len(observed))
	sum := 0.0
	for t := range observed {
		switch {
		case t >= period:
			out[t] = observed[t-period]
		case t == 0:
			out[t] = observed[0]
		default:
			out[t] = sum / float64(t)
		}
		sum += observed[t]
	}
	return out, nil
}

// MockEngine returns a fixed forecast, repeated or cut to the observed length.
type MockEngine struct {
	Prices model.PriceSeries
}

// Forecast implements Engine.
func (m MockEngine) Forecast(observed model.PriceSeries) (model.PriceSeries, error) {
	if len(m.Prices) == 0 {
		return nil, model.Errorf(model.KindInvalidInput, "forecast", "mock engine has no prices")
	}
	out := make(model.PriceSeries, len(observed))
	for t := range out {
		out[t] = m.Prices[t%len(m.Prices)]
	}
	return out, nil
}
