package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apidispatch "github.com/kilianp07/hydrodispatch/api/dispatch"
	"github.com/kilianp07/hydrodispatch/app"
	coremetrics "github.com/kilianp07/hydrodispatch/core/metrics"
	"github.com/kilianp07/hydrodispatch/infra/logger"
	inframetrics "github.com/kilianp07/hydrodispatch/infra/metrics"
	"github.com/kilianp07/hydrodispatch/infra/mqtt"
	"github.com/kilianp07/hydrodispatch/infra/runlog"
	"github.com/kilianp07/hydrodispatch/internal/eventbus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New("serve")

	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("run log close: %v", err)
		}
	}()

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	if c, ok := sink.(interface{ Close() }); ok {
		defer c.Close()
	}

	bus := eventbus.New[any]()
	collected := inframetrics.StartEventCollector(ctx, bus, sink)
	var forwarded <-chan struct{}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		defer client.Disconnect()
		ackTimeout := time.Duration(cfg.MQTT.AckTimeoutMS) * time.Millisecond
		forwarded = mqtt.StartScheduleForwarder(ctx, bus, client, ackTimeout, logger.New("mqtt"))
	}

	if cfg.Metrics.PrometheusPort != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, cfg.Metrics.PrometheusPort, nil); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}

	svc, err := app.New(*cfg,
		app.WithBus(bus),
		app.WithRunLog(store),
		app.WithLogger(logger.New("service")),
	)
	if err != nil {
		return err
	}
	handler := apidispatch.NewHandler(svc, apidispatch.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Token:          cfg.Server.Token,
		Log:            logger.New("api"),
	})
	err = apidispatch.Serve(ctx, cfg.Server.Addr, handler, log)

	stop()
	bus.Close()
	<-collected
	if forwarded != nil {
		<-forwarded
	}
	if n := bus.Dropped(); n > 0 {
		log.Warnf("%d events dropped by slow subscribers", n)
	}
	return err
}
