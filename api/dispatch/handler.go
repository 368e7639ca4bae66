package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/hydrodispatch/app"
	"github.com/kilianp07/hydrodispatch/infra/logger"
	"github.com/kilianp07/hydrodispatch/infra/runlog"
)

// Service is the application surface exposed over HTTP.
type Service interface {
	Optimize(ctx context.Context, req app.OptimizeRequest) (app.OptimizeResponse, error)
	Evaluate(ctx context.Context, req app.EvaluateRequest) (app.EvaluateResponse, error)
	ListRuns(ctx context.Context, q runlog.Query) ([]runlog.Record, error)
}

type handler struct {
	svc   Service
	token string
	log   logger.Logger
}

// optimize handles POST /api/optimize.
func (h *handler) optimize(c *gin.Context) {
	var req app.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	resp, err := h.svc.Optimize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// performance handles POST /api/performance.
func (h *handler) performance(c *gin.Context) {
	var req app.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	resp, err := h.svc.Evaluate(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// runs handles GET /api/runs. Supported filters: kind, start, end (RFC3339)
// and limit.
func (h *handler) runs(c *gin.Context) {
	q := runlog.Query{Kind: c.Query("kind")}
	var err error
	if s := c.Query("start"); s != "" {
		if q.Start, err = time.Parse(time.RFC3339, s); err != nil {
			badRequest(c, "INVALID_QUERY", fmt.Errorf("start: %w", err))
			return
		}
	}
	if s := c.Query("end"); s != "" {
		if q.End, err = time.Parse(time.RFC3339, s); err != nil {
			badRequest(c, "INVALID_QUERY", fmt.Errorf("end: %w", err))
			return
		}
	}
	if s := c.Query("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil || q.Limit < 0 {
			badRequest(c, "INVALID_QUERY", fmt.Errorf("limit must be a non-negative integer"))
			return
		}
	}
	recs, err := h.svc.ListRuns(c.Request.Context(), q)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if recs == nil {
		recs = []runlog.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

// run handles GET /api/runs/:id.
func (h *handler) run(c *gin.Context) {
	recs, err := h.svc.ListRuns(c.Request.Context(), runlog.Query{ID: c.Param("id")})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(recs) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "NOT_FOUND", Message: "run not found"}})
		return
	}
	c.JSON(http.StatusOK, recs[len(recs)-1])
}

// authorize requires "Bearer <token>" when a token is configured.
func (h *handler) authorize(c *gin.Context) {
	if h.token == "" {
		return
	}
	if c.GetHeader("Authorization") != "Bearer "+h.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: ErrorDetail{Code: "UNAUTHORIZED", Message: "unauthorized"}})
	}
}

// requestLogger logs one line per request.
func (h *handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Debugw("http request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.FullPath(),
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}
