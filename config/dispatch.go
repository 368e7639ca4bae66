package config

import (
	"fmt"

	"github.com/kilianp07/hydrodispatch/core/dispatch"
)

// DispatchConfig selects the solver and the evaluation layout.
type DispatchConfig struct {
	// Strategy is "chain" (LP with greedy fallback), "lp" or "greedy".
	Strategy string `json:"strategy"`
	// EqualStorage requires the reservoir to end each solve at its initial
	// level. Load and Default turn it on.
	EqualStorage bool `json:"equal_storage"`
	// DayHours is the block length of the performance evaluation.
	DayHours int `json:"day_hours"`
	// Parallel solves the three strategies of a day concurrently.
	Parallel bool `json:"parallel"`
	// MaxHorizon caps the number of hours accepted per request.
	MaxHorizon int `json:"max_horizon"`
}

// SetDefaults applies sane defaults.
func (c *DispatchConfig) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = dispatch.StrategyChain
	}
	if c.DayHours == 0 {
		c.DayHours = 24
	}
	if c.MaxHorizon == 0 {
		c.MaxHorizon = 168
	}
}

// Validate checks the strategy name and sizes.
func (c DispatchConfig) Validate() error {
	if _, err := dispatch.NewStrategy(c.Strategy, c.Options()); err != nil {
		return err
	}
	if c.DayHours <= 0 {
		return fmt.Errorf("day_hours must be positive, got %d", c.DayHours)
	}
	if c.MaxHorizon < 0 {
		return fmt.Errorf("max_horizon must not be negative, got %d", c.MaxHorizon)
	}
	return nil
}

// Options returns the solver options.
func (c DispatchConfig) Options() dispatch.Options {
	return dispatch.Options{EqualStorage: c.EqualStorage}
}
