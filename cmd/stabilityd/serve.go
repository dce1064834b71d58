package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vjranagit/detector-stability/pkg/api"
	"github.com/vjranagit/detector-stability/pkg/evaluator"
	"github.com/vjranagit/detector-stability/pkg/storage"
	"go.uber.org/zap"
)

func serveCmd(a *app) *cobra.Command {
	var ticks int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Evaluate the model over a live window of telemetry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), ticks)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&ticks, "ticks", 0, "stop after this many windows (0 runs until interrupted)")
	flags.Int("window", 0, "rows per window (default from config)")
	flags.Duration("interval", 0, "refresh interval (default from config)")
	flags.String("listen", "", "API listen address (default from config)")
	_ = a.v.BindPFlag("evaluator.window_size", flags.Lookup("window"))
	_ = a.v.BindPFlag("evaluator.refresh_interval", flags.Lookup("interval"))
	_ = a.v.BindPFlag("server.listen_addr", flags.Lookup("listen"))

	return cmd
}

func (a *app) serve(ctx context.Context, ticks int) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	bootstrap := cfg.Evaluator.Bootstrap

	ds, err := a.loadDataset(ctx, storage.NewCSVStore(cfg.Data.Dir), bootstrap)
	if err != nil {
		return err
	}

	models, err := storage.NewModelStore(cfg.ToStorageConfig())
	if err != nil {
		return err
	}
	defer models.Close()

	model, err := a.loadModel(ctx, ds, models, bootstrap)
	if err != nil {
		return err
	}

	a.logger.Info("artifacts loaded",
		zap.Int("rows", ds.Len()),
		zap.Stringer("model_id", model.ID),
		zap.Int("trees", model.Trees()),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	eval, err := evaluator.New(ds, model,
		evaluator.WithWindowSize(cfg.Evaluator.WindowSize),
		evaluator.WithCache(evaluator.NewScoreCache(cfg.Evaluator.CacheCapacity)),
		evaluator.WithMetrics(evaluator.NewMetrics(reg)),
		evaluator.WithLogger(a.logger.Named("evaluator")),
	)
	if err != nil {
		return err
	}

	sinks := []evaluator.Sink{evaluator.LogSink(a.logger.Named("window"))}

	var server *api.Server
	if cfg.Server.Enabled {
		server = api.NewServer(cfg.Server.ListenAddr, reg, a.logger.Named("api"))
		sinks = append(sinks, server)

		go func() {
			a.logger.Info("API server listening", zap.String("addr", cfg.Server.ListenAddr))
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("server error", zap.Error(err))
				stop()
			}
		}()
	}

	runner := evaluator.NewRunner(eval, cfg.Evaluator.RefreshInterval,
		evaluator.WithSinks(sinks...),
		evaluator.WithRunnerLogger(a.logger.Named("runner")),
	)
	if err := runner.Run(ctx, ticks); err != nil {
		return err
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown error", zap.Error(err))
		}
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		a.logger.Info("shutdown signal received")
	}
	return nil
}
