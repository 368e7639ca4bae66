package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/hydrodispatch/config"
	"github.com/kilianp07/hydrodispatch/core/dispatch"
	"github.com/kilianp07/hydrodispatch/core/events"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/core/performance"
	"github.com/kilianp07/hydrodispatch/core/prediction"
	"github.com/kilianp07/hydrodispatch/infra/logger"
	"github.com/kilianp07/hydrodispatch/infra/runlog"
	"github.com/kilianp07/hydrodispatch/internal/eventbus"
)

// Service runs optimize and evaluate requests against the dispatch core,
// records them in the run log and announces them on the event bus.
type Service struct {
	plant      model.Plant
	dispatch   config.DispatchConfig
	maxHorizon int

	forecaster prediction.Engine
	bus        eventbus.EventBus[any]
	runs       runlog.Store
	log        logger.Logger

	now   func() time.Time
	newID func() string
}

// Option customises a Service.
type Option func(*Service)

// WithBus sets the bus receiving solve and evaluation events.
func WithBus(bus eventbus.EventBus[any]) Option { return func(s *Service) { s.bus = bus } }

// WithRunLog sets the run history store.
func WithRunLog(store runlog.Store) Option { return func(s *Service) { s.runs = store } }

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithForecaster sets the engine used when an evaluation has no forecast.
func WithForecaster(e prediction.Engine) Option { return func(s *Service) { s.forecaster = e } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New creates a Service from the configuration. cfg must be validated.
func New(cfg config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch config: %w", err)
	}
	if err := cfg.Plant.Validate(); err != nil {
		return nil, fmt.Errorf("default plant: %w", err)
	}
	s := &Service{
		plant:      cfg.Plant,
		dispatch:   cfg.Dispatch,
		maxHorizon: cfg.Dispatch.MaxHorizon,
		forecaster: prediction.Persistence{Period: cfg.Dispatch.DayHours},
		runs:       runlog.NopStore{},
		log:        logger.NopLogger{},
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// OptimizeRequest asks for the best schedule over a price series. A nil
// Plant uses the configured plant.
type OptimizeRequest struct {
	Plant  *model.Plant      `json:"plant,omitempty"`
	Prices model.PriceSeries `json:"prices"`
	// Horizon truncates Prices; zero uses every price.
	Horizon      int   `json:"horizon,omitempty"`
	EqualStorage *bool `json:"equal_storage,omitempty"`
	// Strategy overrides the configured strategy name.
	Strategy string `json:"strategy,omitempty"`
}

// ScheduleMetrics are derived figures shown next to a schedule.
type ScheduleMetrics struct {
	Revenue           float64   `json:"total_revenue"`
	AverageGeneration float64   `json:"avg_generation"`
	PeakGeneration    float64   `json:"peak_generation"`
	CapacityFactor    float64   `json:"capacity_factor"`
	FinalStorage      float64   `json:"final_storage"`
	Discharge         []float64 `json:"discharge"`
}

// OptimizeResponse is the outcome of Optimize.
type OptimizeResponse struct {
	RunID    string            `json:"run_id"`
	Plant    model.Plant       `json:"plant"`
	Prices   model.PriceSeries `json:"prices"`
	Schedule model.Schedule    `json:"schedule"`
	Metrics  ScheduleMetrics   `json:"metrics"`
}

// EvaluateRequest asks for the performance of forecast-driven dispatch
// against the actual prices. An empty Forecast is built by the service
// forecaster from Actual.
type EvaluateRequest struct {
	Plant    *model.Plant      `json:"plant,omitempty"`
	Actual   model.PriceSeries `json:"actual_prices"`
	Forecast model.PriceSeries `json:"forecast_prices"`
	// Horizon truncates both series; zero uses every hour.
	Horizon      int   `json:"horizon,omitempty"`
	EqualStorage *bool `json:"equal_storage,omitempty"`
}

// EvaluateResponse is the outcome of Evaluate.
type EvaluateResponse struct {
	RunID string      `json:"run_id"`
	Plant model.Plant `json:"plant"`
	performance.Result
}

func (s *Service) options(equal *bool) dispatch.Options {
	opts := s.dispatch.Options()
	if equal != nil {
		opts.EqualStorage = *equal
	}
	return opts
}

func (s *Service) plantFor(p *model.Plant) model.Plant {
	if p == nil {
		return s.plant
	}
	return *p
}

// horizon truncates prices to h hours and enforces the configured maximum.
func (s *Service) horizon(op string, prices model.PriceSeries, h int) (model.PriceSeries, error) {
	if h < 0 {
		return nil, model.Errorf(model.KindInvalidInput, op, "horizon must not be negative, got %d", h)
	}
	if h > 0 {
		if len(prices) < h {
			return nil, model.Errorf(model.KindInvalidInput, op, "%d prices for a %d hour horizon", len(prices), h)
		}
		prices = prices[:h]
	}
	if s.maxHorizon > 0 && len(prices) > s.maxHorizon {
		return nil, model.Errorf(model.KindInvalidInput, op, "%d hours exceed the maximum horizon of %d", len(prices), s.maxHorizon)
	}
	return prices, nil
}

// Optimize solves one dispatch problem.
func (s *Service) Optimize(ctx context.Context, req OptimizeRequest) (OptimizeResponse, error) {
	const op = "optimize"
	if err := ctx.Err(); err != nil {
		return OptimizeResponse{}, err
	}
	plant := s.plantFor(req.Plant)
	prices, err := s.horizon(op, req.Prices, req.Horizon)
	if err != nil {
		return OptimizeResponse{}, err
	}
	name := req.Strategy
	if name == "" {
		name = s.dispatch.Strategy
	}
	strat, err := dispatch.NewStrategy(name, s.options(req.EqualStorage))
	if err != nil {
		return OptimizeResponse{}, model.Wrap(model.KindInvalidParameter, op, err)
	}

	id := s.newID()
	start := s.now()
	sched, err := strat.Solve(plant, prices)
	elapsed := s.now().Sub(start)

	s.publish(events.SolveEvent{
		RunID: id, Strategy: name, Plant: plant, Prices: prices,
		Schedule: sched, Err: err, Duration: elapsed, Time: start,
	})
	rec := runlog.Record{ID: id, Kind: runlog.KindOptimize, Timestamp: start, Strategy: name, Plant: plant, Hours: len(prices)}
	if err != nil {
		s.log.Warnf("optimize %s failed after %s: %v", id, elapsed, err)
		s.record(ctx, withError(rec, err))
		return OptimizeResponse{}, err
	}

	resp := OptimizeResponse{
		RunID:    id,
		Plant:    plant,
		Prices:   prices,
		Schedule: sched,
		Metrics: ScheduleMetrics{
			Revenue:           sched.Revenue(prices),
			AverageGeneration: sched.AverageGeneration(),
			PeakGeneration:    sched.PeakGeneration(),
			CapacityFactor:    sched.CapacityFactor(plant.PMax) * 100,
			FinalStorage:      sched.FinalStorage(),
			Discharge:         sched.Discharge(plant.Kappa),
		},
	}
	s.log.Infof("optimize %s: %d hours, method %s, revenue %.2f in %s", id, len(prices), sched.Method, resp.Metrics.Revenue, elapsed)
	rec.Schedule = &sched
	rec.Revenue = resp.Metrics.Revenue
	s.record(ctx, rec)
	return resp, nil
}

// Evaluate compares programmed dispatch with the stable and hindsight
// strategies.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (EvaluateResponse, error) {
	const op = "evaluate"
	if err := ctx.Err(); err != nil {
		return EvaluateResponse{}, err
	}
	plant := s.plantFor(req.Plant)
	actual, err := s.horizon(op, req.Actual, req.Horizon)
	if err != nil {
		return EvaluateResponse{}, err
	}
	var forecast model.PriceSeries
	if len(req.Forecast) == 0 {
		if forecast, err = s.forecaster.Forecast(actual); err != nil {
			return EvaluateResponse{}, err
		}
	} else if forecast, err = s.horizon(op, req.Forecast, req.Horizon); err != nil {
		return EvaluateResponse{}, err
	}

	opts := s.options(req.EqualStorage)
	ev := performance.NewEvaluator(opts)
	if s.dispatch.Strategy != dispatch.StrategyChain {
		strat, err := dispatch.NewStrategy(s.dispatch.Strategy, opts)
		if err != nil {
			return EvaluateResponse{}, model.Wrap(model.KindInvalidParameter, op, err)
		}
		ev.Primary, ev.Fallback = strat, nil
	}
	ev.DayHours = s.dispatch.DayHours
	ev.Parallel = s.dispatch.Parallel

	id := s.newID()
	start := s.now()
	res, err := ev.Evaluate(plant, actual, forecast)
	elapsed := s.now().Sub(start)
	rec := runlog.Record{ID: id, Kind: runlog.KindEvaluate, Timestamp: start, Strategy: s.dispatch.Strategy, Plant: plant, Hours: len(actual)}
	if err != nil {
		s.log.Warnf("evaluate %s failed after %s: %v", id, elapsed, err)
		s.record(ctx, withError(rec, err))
		return EvaluateResponse{}, err
	}
	s.publish(events.EvaluationEvent{RunID: id, Plant: plant, Result: res, Duration: elapsed, Time: start})
	s.log.Infof("evaluate %s: %d days (%d excluded), efficiency %.1f%% in %s",
		id, len(res.Daily), res.Summary.ExcludedDays, res.Summary.Efficiency, elapsed)
	summary := res.Summary
	rec.Summary = &summary
	rec.Revenue = summary.RevenueProgrammed
	s.record(ctx, rec)
	return EvaluateResponse{RunID: id, Plant: plant, Result: res}, nil
}

// ListRuns returns recorded runs matching q.
func (s *Service) ListRuns(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	recs, err := s.runs.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query run log: %w", err)
	}
	return recs, nil
}

// Plant returns the configured default plant.
func (s *Service) Plant() model.Plant { return s.plant }

// Close releases the run log.
func (s *Service) Close() error { return s.runs.Close() }

func (s *Service) publish(ev any) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// record appends rec to the run log. Storage failures are logged and do not
// fail the request.
func (s *Service) record(ctx context.Context, rec runlog.Record) {
	if err := s.runs.Append(ctx, rec); err != nil {
		s.log.Errorf("run log append %s: %v", rec.ID, err)
	}
}

func withError(rec runlog.Record, err error) runlog.Record {
	rec.Error = err.Error()
	rec.ErrorKind = model.KindOf(err).String()
	return rec
}
