package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/hydrodispatch/core/metrics"
)

// PromSink records solves and evaluations in Prometheus metrics.
type PromSink struct {
	solves     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	revenue    *prometheus.GaugeVec
	efficiency prometheus.Gauge
	evalRev    *prometheus.GaugeVec
	excluded   prometheus.Counter
	dayEff     prometheus.Histogram
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.solves, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hydro_dispatch_solves_total",
		Help: "Total number of dispatch solves",
	}, []string{"strategy", "method", "result"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hydro_dispatch_solve_duration_seconds",
		Help:    "Time spent computing a schedule",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"method"})); err != nil {
		return nil, err
	}
	if s.revenue, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hydro_dispatch_schedule_revenue",
		Help: "Revenue of the last computed schedule",
	}, []string{"method"})); err != nil {
		return nil, err
	}
	if s.efficiency, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hydro_evaluation_efficiency_percent",
		Help: "Programmed over hindsight revenue of the last evaluation",
	})); err != nil {
		return nil, err
	}
	if s.evalRev, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hydro_evaluation_revenue",
		Help: "Revenue per strategy of the last evaluation",
	}, []string{"strategy"})); err != nil {
		return nil, err
	}
	if s.excluded, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hydro_evaluation_excluded_days_total",
		Help: "Days excluded from evaluations because no schedule was found",
	})); err != nil {
		return nil, err
	}
	if s.dayEff, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hydro_evaluation_day_efficiency_percent",
		Help:    "Distribution of per-day efficiency",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve counts the solve and, on success, records its duration and
// revenue.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	result := "ok"
	if ev.ErrorKind != "" {
		result = ev.ErrorKind
	}
	s.solves.WithLabelValues(ev.Strategy, ev.Method, result).Inc()
	if ev.ErrorKind == "" {
		s.duration.WithLabelValues(ev.Method).Observe(ev.Duration.Seconds())
		s.revenue.WithLabelValues(ev.Method).Set(ev.Revenue)
	}
	return nil
}

// RecordEvaluation sets the evaluation gauges.
func (s *PromSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	s.efficiency.Set(ev.Efficiency)
	s.evalRev.WithLabelValues("stable").Set(ev.RevenueStable)
	s.evalRev.WithLabelValues("programmed").Set(ev.RevenueProgrammed)
	s.evalRev.WithLabelValues("hindsight").Set(ev.RevenueHindsight)
	return nil
}

// RecordDays observes per-day efficiency and counts excluded days.
func (s *PromSink) RecordDays(evs []coremetrics.DayEvent) error {
	for _, d := range evs {
		if d.Excluded {
			s.excluded.Inc()
			continue
		}
		s.dayEff.Observe(d.Efficiency)
	}
	return nil
}
