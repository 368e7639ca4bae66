// Package scenarios runs yaml-described dispatch and evaluation cases and
// checks their outcome against expectations.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/hydrodispatch/core/model"
)

// Scenario modes.
const (
	ModeOptimize = "optimize"
	ModeEvaluate = "evaluate"
)

// Expected lists the checks applied to a run. Unset fields are not checked.
type Expected struct {
	// Error is the expected error kind, e.g. "infeasible".
	Error        string   `yaml:"error,omitempty"`
	Method       string   `yaml:"method,omitempty"`
	MinRevenue   *float64 `yaml:"min_revenue,omitempty"`
	FinalStorage *float64 `yaml:"final_storage,omitempty"`
	// PeakHours must run at p_max, OffHours at p_min.
	PeakHours []int `yaml:"peak_hours,omitempty"`
	OffHours  []int `yaml:"off_hours,omitempty"`

	Days          *int     `yaml:"days,omitempty"`
	ExcludedDays  *int     `yaml:"excluded_days,omitempty"`
	MinEfficiency *float64 `yaml:"min_efficiency,omitempty"`
	MaxEfficiency *float64 `yaml:"max_efficiency,omitempty"`
	PStable       *float64 `yaml:"p_stable,omitempty"`
}

// Scenario is one case. Optimize scenarios use Prices, evaluate scenarios
// Actual and Forecast. Repeat concatenates every series with itself.
type Scenario struct {
	Name         string      `yaml:"name"`
	Description  string      `yaml:"description,omitempty"`
	Mode         string      `yaml:"mode"`
	Plant        model.Plant `yaml:"plant"`
	Strategy     string      `yaml:"strategy,omitempty"`
	EqualStorage bool        `yaml:"equal_storage,omitempty"`
	DayHours     int         `yaml:"day_hours,omitempty"`
	Repeat       int         `yaml:"repeat,omitempty"`

	Prices   model.PriceSeries `yaml:"prices,omitempty"`
	Actual   model.PriceSeries `yaml:"actual,omitempty"`
	Forecast model.PriceSeries `yaml:"forecast,omitempty"`

	Expected Expected `yaml:"expected"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if sc.Mode == "" {
		sc.Mode = ModeOptimize
	}
	if sc.Mode != ModeOptimize && sc.Mode != ModeEvaluate {
		return nil, fmt.Errorf("%s: unknown mode %q", path, sc.Mode)
	}
	if sc.Repeat > 1 {
		sc.Prices = repeat(sc.Prices, sc.Repeat)
		sc.Actual = repeat(sc.Actual, sc.Repeat)
		sc.Forecast = repeat(sc.Forecast, sc.Repeat)
	}
	return &sc, nil
}

func repeat(ps model.PriceSeries, n int) model.PriceSeries {
	if len(ps) == 0 {
		return ps
	}
	out := make(model.PriceSeries, 0, len(ps)*n)
	for i := 0; i < n; i++ {
		out = append(out, ps...)
	}
	return out
}
