package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SurgeScreener/internal/api"
	"SurgeScreener/internal/board"
	"SurgeScreener/internal/metrics"
	"SurgeScreener/internal/recorder"
	"SurgeScreener/internal/scheduler"
)

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "Run the auto-refreshing board and its HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgPath)
		if err != nil {
			return err
		}
		defer a.logger.Sync()
		return serve(a)
	},
}

func serve(a *app) error {
	cfg, log := a.cfg, a.logger

	b, err := board.New(cfg.Board.SnapshotFile, log.Named("board"))
	if err != nil {
		return err
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.Named("recorder"))
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, a.screener, b, rec, cfg.Universe, cfg.Interval(), cfg.Screener.Threshold, log.Named("scheduler"))
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") != "false" {
		go func() {
			if _, err := sched.RunNow(ctx, cfg.Interval()); err != nil {
				log.Error("initial refresh failed", zap.Error(err))
			}
		}()
	}

	if cfg.Server.MetricsAddr != "" {
		msrv := metrics.Serve(cfg.Server.MetricsAddr)
		defer msrv.Close()
		log.Info("metrics listening", zap.String("addr", cfg.Server.MetricsAddr))
	}

	srv := &api.Server{
		Board:            b,
		Refresher:        sched,
		Recorder:         rec,
		DefaultInterval:  cfg.Interval(),
		DefaultThreshold: cfg.Screener.Threshold,
		Logger:           log.Named("api"),
	}
	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv.SetupRoutes()}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
