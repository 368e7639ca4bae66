// Package dispatch exposes the optimizer and the performance evaluator over
// HTTP.
package dispatch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/kilianp07/hydrodispatch/infra/logger"
)

// Options configure the HTTP surface.
type Options struct {
	// AllowedOrigins lists the CORS origins; empty allows any.
	AllowedOrigins []string
	// Token guards the run log endpoints when set.
	Token string
	Log   logger.Logger
}

// NewRouter returns the gin engine serving the API.
func NewRouter(svc Service, opts Options) *gin.Engine {
	if opts.Log == nil {
		opts.Log = logger.NopLogger{}
	}
	h := &handler{svc: svc, token: opts.Token, log: opts.Log}

	r := gin.New()
	r.Use(recovery(), h.requestLogger)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := r.Group("/api")
	api.POST("/optimize", h.optimize)
	api.POST("/performance", h.performance)
	runs := api.Group("/runs", h.authorize)
	runs.GET("", h.runs)
	runs.GET("/:id", h.run)
	return r
}

// NewHandler wraps the router with CORS handling.
func NewHandler(svc Service, opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(NewRouter(svc, opts))
}

// Serve runs the API on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	if log == nil {
		log = logger.NopLogger{}
	}
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
	}()
	log.Infof("serving api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
