package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hydrodispatch/app"
	"github.com/kilianp07/hydrodispatch/config"
	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/infra/runlog"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeService struct {
	err     error
	lastQ   runlog.Query
	records []runlog.Record
}

func (f *fakeService) Optimize(_ context.Context, req app.OptimizeRequest) (app.OptimizeResponse, error) {
	if f.err != nil {
		return app.OptimizeResponse{}, f.err
	}
	return app.OptimizeResponse{RunID: "r1", Prices: req.Prices}, nil
}

func (f *fakeService) Evaluate(_ context.Context, _ app.EvaluateRequest) (app.EvaluateResponse, error) {
	if f.err != nil {
		return app.EvaluateResponse{}, f.err
	}
	return app.EvaluateResponse{RunID: "r2"}, nil
}

func (f *fakeService) ListRuns(_ context.Context, q runlog.Query) ([]runlog.Record, error) {
	f.lastQ = q
	var out []runlog.Record
	for _, r := range f.records {
		if q.ID == "" || q.ID == r.ID {
			out = append(out, r)
		}
	}
	return out, f.err
}

func do(t *testing.T, h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{model.Errorf(model.KindInvalidParameter, "plant", "kappa"), http.StatusBadRequest, "INVALID_PARAMETER"},
		{model.Errorf(model.KindInvalidInput, "prices", "empty"), http.StatusBadRequest, "INVALID_INPUT"},
		{model.Errorf(model.KindInfeasible, "lp", "overflow"), http.StatusUnprocessableEntity, "INFEASIBLE"},
		{model.Errorf(model.KindSolverFailure, "lp", "singular"), http.StatusInternalServerError, "SOLVER_FAILURE"},
		{context.Canceled, http.StatusServiceUnavailable, "INTERNAL_ERROR"},
	}
	for _, c := range cases {
		h := NewRouter(&fakeService{err: c.err}, Options{})
		rr := do(t, h, http.MethodPost, "/api/optimize", app.OptimizeRequest{Prices: model.PriceSeries{1}})
		assert.Equal(t, c.status, rr.Code, c.err.Error())
		assert.Equal(t, c.code, errorCode(t, rr))
	}
}

func TestOptimizeAndPerformanceEndpoints(t *testing.T) {
	h := NewRouter(&fakeService{}, Options{})

	rr := do(t, h, http.MethodPost, "/api/optimize", map[string]any{"prices": []float64{10, 20}})
	require.Equal(t, http.StatusOK, rr.Code)
	var opt app.OptimizeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &opt))
	assert.Equal(t, "r1", opt.RunID)
	assert.Equal(t, model.PriceSeries{10, 20}, opt.Prices)

	rr = do(t, h, http.MethodPost, "/api/performance", map[string]any{"actual_prices": []float64{1}, "forecast_prices": []float64{1}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"run_id":"r2"`)

	req := httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rec))

	rr = do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRunsEndpoint(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakeService{records: []runlog.Record{{ID: "a", Kind: runlog.KindOptimize, Timestamp: ts}}}
	h := NewRouter(svc, Options{Token: "secret"})

	rr := do(t, h, http.MethodGet, "/api/runs", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	auth := []string{"Authorization", "Bearer secret"}
	rr = do(t, h, http.MethodGet, "/api/runs?kind=optimize&limit=5&start=2024-01-01T00:00:00Z", nil, auth...)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, runlog.Query{Kind: "optimize", Limit: 5, Start: ts}, svc.lastQ)
	var recs []runlog.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	assert.Len(t, recs, 1)

	rr = do(t, h, http.MethodGet, "/api/runs?limit=-1", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodGet, "/api/runs?end=yesterday", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/runs/a", nil, auth...)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, h, http.MethodGet, "/api/runs/missing", nil, auth...)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(&fakeService{}, Options{AllowedOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/optimize", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestOptimizeThroughService(t *testing.T) {
	svc, err := app.New(config.Default())
	require.NoError(t, err)
	h := NewRouter(svc, Options{})

	rr := do(t, h, http.MethodPost, "/api/optimize", map[string]any{"prices": []float64{20, 80, 40}})
	require.Equal(t, http.StatusOK, rr.Code)
	var resp app.OptimizeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Schedule.Power, 3)
	assert.NotEmpty(t, resp.RunID)

	rr = do(t, h, http.MethodPost, "/api/optimize", map[string]any{"prices": []float64{20, -1}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_INPUT", errorCode(t, rr))
}
