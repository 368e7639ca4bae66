package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hydrodispatch/config"
	"github.com/kilianp07/hydrodispatch/core/events"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/core/prediction"
	"github.com/kilianp07/hydrodispatch/infra/runlog"
	"github.com/kilianp07/hydrodispatch/internal/eventbus"
)

func dayPrices() model.PriceSeries {
	p := make(model.PriceSeries, 24)
	for h := range p {
		p[h] = 30
		if h >= 17 && h <= 20 {
			p[h] = 90
		}
	}
	return p
}

func newTestService(t *testing.T, mut func(*config.Config)) (*Service, *eventbus.Bus[any], runlog.Store) {
	t.Helper()
	cfg := config.Default()
	if mut != nil {
		mut(&cfg)
	}
	store, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	bus := eventbus.New[any]()
	t.Cleanup(bus.Close)

	n := 0
	svc, err := New(cfg, WithBus(bus), WithRunLog(store))
	require.NoError(t, err)
	svc.newID = func() string { n++; return "run-" + string(rune('0'+n)) }
	return svc, bus, store
}

func nextEvent(t *testing.T, sub <-chan any) any {
	t.Helper()
	select {
	case ev := <-sub:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return nil
	}
}

func TestOptimizeTruncatesHorizon(t *testing.T) {
	svc, bus, store := newTestService(t, nil)
	sub := bus.Subscribe()

	resp, err := svc.Optimize(context.Background(), OptimizeRequest{Prices: dayPrices(), Horizon: 20})
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Len(t, resp.Schedule.Power, 20)
	assert.Len(t, resp.Prices, 20)
	assert.Equal(t, config.ReferencePlant(), resp.Plant)
	assert.InDelta(t, resp.Schedule.Revenue(resp.Prices), resp.Metrics.Revenue, 1e-9)
	assert.InDelta(t, config.ReferencePlant().S0, resp.Metrics.FinalStorage, 1e-3)
	for h := 17; h < 20; h++ {
		assert.InDelta(t, 3.0, resp.Schedule.Power[h], 1e-6, "hour %d", h)
	}
	assert.Less(t, resp.Metrics.CapacityFactor, 100.0)
	assert.Len(t, resp.Metrics.Discharge, 20)

	ev, ok := nextEvent(t, sub).(events.SolveEvent)
	require.True(t, ok)
	assert.Equal(t, "run-1", ev.RunID)
	assert.NoError(t, ev.Err)

	recs, err := store.Query(context.Background(), runlog.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, runlog.KindOptimize, recs[0].Kind)
	assert.Equal(t, 20, recs[0].Hours)
	require.NotNil(t, recs[0].Schedule)
	assert.InDelta(t, resp.Metrics.Revenue, recs[0].Revenue, 1e-6)
}

func TestOptimizeHorizonErrors(t *testing.T) {
	svc, _, _ := newTestService(t, func(c *config.Config) { c.Dispatch.MaxHorizon = 24 })

	_, err := svc.Optimize(context.Background(), OptimizeRequest{Prices: dayPrices(), Horizon: 30})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Optimize(context.Background(), OptimizeRequest{Prices: append(dayPrices(), 1)})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Optimize(context.Background(), OptimizeRequest{Prices: dayPrices(), Horizon: -1})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Optimize(context.Background(), OptimizeRequest{Prices: dayPrices(), Strategy: "milp"})
	assert.ErrorIs(t, err, model.ErrInvalidParameter)
}

func TestOptimizeInfeasibleIsRecorded(t *testing.T) {
	svc, bus, store := newTestService(t, nil)
	sub := bus.Subscribe()
	plant := model.Plant{PMin: 0, PMax: 1, SMin: 0, SMax: 10, S0: 10, Kappa: 1, Inflow: 5}

	_, err := svc.Optimize(context.Background(), OptimizeRequest{Plant: &plant, Prices: model.PriceSeries{10, 20, 30}})
	require.ErrorIs(t, err, model.ErrInfeasible)

	ev := nextEvent(t, sub).(events.SolveEvent)
	assert.ErrorIs(t, ev.Err, model.ErrInfeasible)

	recs, err := store.Query(context.Background(), runlog.Query{Kind: runlog.KindOptimize})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "infeasible", recs[0].ErrorKind)
	assert.Nil(t, recs[0].Schedule)
}

func TestOptimizeEqualStorageOverride(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	off := false
	resp, err := svc.Optimize(context.Background(), OptimizeRequest{Prices: dayPrices(), EqualStorage: &off})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, resp.Metrics.CapacityFactor, 1e-4, "reference plant has water to run at full power")
	assert.Less(t, resp.Metrics.FinalStorage, config.ReferencePlant().S0)
}

func TestEvaluate(t *testing.T) {
	svc, bus, store := newTestService(t, nil)
	sub := bus.Subscribe()
	actual := append(dayPrices(), dayPrices()...)
	forecast := make(model.PriceSeries, len(actual))
	for i := range forecast {
		forecast[i] = 50
	}

	resp, err := svc.Evaluate(context.Background(), EvaluateRequest{Actual: actual, Forecast: forecast})
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Len(t, resp.Daily, 2)
	assert.Equal(t, 48, resp.Summary.Horizon)
	assert.LessOrEqual(t, resp.Summary.RevenueProgrammed, resp.Summary.RevenueHindsight+1e-6)

	ev, ok := nextEvent(t, sub).(events.EvaluationEvent)
	require.True(t, ok)
	assert.Equal(t, resp.Summary, ev.Result.Summary)

	recs, err := svc.ListRuns(context.Background(), runlog.Query{Kind: runlog.KindEvaluate})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].Summary)
	assert.Equal(t, resp.Summary.Efficiency, recs[0].Summary.Efficiency)
	_ = store
}

func TestEvaluateErrors(t *testing.T) {
	svc, _, _ := newTestService(t, func(c *config.Config) { c.Dispatch.Strategy = "greedy" })

	_, err := svc.Evaluate(context.Background(), EvaluateRequest{Actual: dayPrices(), Forecast: dayPrices()[:12]})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Evaluate(context.Background(), EvaluateRequest{Actual: dayPrices(), Forecast: dayPrices(), Horizon: 48})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	bad := config.ReferencePlant()
	bad.Kappa = 0
	_, err = svc.Evaluate(context.Background(), EvaluateRequest{Plant: &bad, Actual: dayPrices(), Forecast: dayPrices()})
	assert.ErrorIs(t, err, model.ErrInvalidParameter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Evaluate(ctx, EvaluateRequest{Actual: dayPrices(), Forecast: dayPrices()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateBuildsMissingForecast(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	svc.forecaster = prediction.MockEngine{Prices: model.PriceSeries{50}}
	actual := append(dayPrices(), dayPrices()...)

	resp, err := svc.Evaluate(context.Background(), EvaluateRequest{Actual: actual})
	require.NoError(t, err)
	require.Len(t, resp.Hourly.Forecast, 48)
	for _, v := range resp.Hourly.Forecast {
		assert.Equal(t, 50.0, v)
	}

	svc.forecaster = prediction.Persistence{}
	resp, err = svc.Evaluate(context.Background(), EvaluateRequest{Actual: actual})
	require.NoError(t, err)
	assert.Equal(t, []float64(actual[:24]), resp.Hourly.Forecast[24:])
}
