package performance

import "github.com/kilianp07/hydrodispatch/core/model"

// MaxEfficiency caps the reported efficiency. Independent solves can make the
// forecast schedule score marginally above hindsight through rounding.
const MaxEfficiency = 99.9

// Strategy labels used in results.
const (
	Stable     = "stable"
	Programmed = "programmed"
	Hindsight  = "hindsight"
)

// Summary aggregates revenues over all included days.
type Summary struct {
	RevenueStable       float64 `json:"revenue_stable"`
	RevenueProgrammed   float64 `json:"revenue_programmed"`
	RevenueHindsight    float64 `json:"revenue_hindsight"`
	Efficiency          float64 `json:"efficiency"`
	ImprovementVsStable float64 `json:"improvement_vs_stable"`
	Horizon             int     `json:"horizon"`
	PStable             float64 `json:"p_stable"`
	WaterBalance        float64 `json:"water_balance"`
	ExcludedDays        int     `json:"excluded_days"`
}

// StrategyStats describes one strategy over the included hours.
type StrategyStats struct {
	Revenue           float64 `json:"revenue"`
	AverageGeneration float64 `json:"avg_generation"`
	PeakGeneration    float64 `json:"peak_generation"`
	CapacityFactor    float64 `json:"capacity_factor"`
}

// DayPerformance is the evaluation of one block of consecutive hours.
type DayPerformance struct {
	Day               int     `json:"day"`
	Hours             int     `json:"hours"`
	RevenueStable     float64 `json:"revenue_stable"`
	RevenueProgrammed float64 `json:"revenue_programmed"`
	RevenueHindsight  float64 `json:"revenue_hindsight"`
	Efficiency        float64 `json:"efficiency"`
	Excluded          bool    `json:"excluded,omitempty"`
	Reason            string  `json:"reason,omitempty"`
	StartStorage      float64 `json:"start_storage"`
	EndStorage        float64 `json:"end_storage"`
	// Methods records which algorithm produced each strategy's schedule.
	Methods map[string]string `json:"methods,omitempty"`

	stable, programmed, hindsight model.Schedule
}

// Hourly carries the hour-by-hour data behind the summary. Power values of
// excluded hours are zero and Included is false for them; Storage is the
// programmed trajectory and holds level across excluded days.
type Hourly struct {
	Actual     []float64 `json:"historical_prices"`
	Forecast   []float64 `json:"programmed_prices"`
	Stable     []float64 `json:"power_stable"`
	Programmed []float64 `json:"power_programmed"`
	Hindsight  []float64 `json:"power_hindsight"`
	Storage    []float64 `json:"storage_programmed"`
	Included   []bool    `json:"included"`
}

// Result is the outcome of an evaluation run.
type Result struct {
	Summary    Summary                  `json:"summary"`
	Strategies map[string]StrategyStats `json:"strategies"`
	Hourly     Hourly                   `json:"hourly_data"`
	Daily      []DayPerformance         `json:"daily_performance"`
}

// Efficiency returns programmed/hindsight in percent, clamped to
// [0, MaxEfficiency]. It is zero when hindsight earns nothing.
func Efficiency(programmed, hindsight float64) float64 {
	if hindsight <= 0 {
		return 0
	}
	e := programmed / hindsight * 100
	if e < 0 {
		return 0
	}
	if e > MaxEfficiency {
		return MaxEfficiency
	}
	return e
}
