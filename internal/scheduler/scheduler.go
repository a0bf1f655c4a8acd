package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"SurgeScreener/internal/board"
	"SurgeScreener/internal/config"
	"SurgeScreener/internal/metrics"
	"SurgeScreener/internal/model"
	"SurgeScreener/internal/recorder"
	"SurgeScreener/internal/screener"
)

// Scheduler refreshes the board on a cron schedule and on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Screener  *screener.Screener
	Board     *board.Board
	Recorder  recorder.Recorder
	Universe  []config.Symbol
	Interval  model.Interval
	Threshold float64
	Ctx       context.Context

	logger *zap.Logger
	mu     sync.Mutex
}

// NewScheduler creates a new Scheduler. Overlapping cron runs are skipped.
func NewScheduler(ctx context.Context, sc *screener.Screener, b *board.Board, rec recorder.Recorder,
	universe []config.Symbol, iv model.Interval, threshold float64, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		Screener:  sc,
		Board:     b,
		Recorder:  rec,
		Universe:  universe,
		Interval:  iv,
		Threshold: threshold,
		Ctx:       ctx,
		logger:    logger,
	}
}

// Register adds the periodic refresh of the default interval.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) refreshTask() {
	if _, err := s.RunNow(s.Ctx, s.Interval); err != nil {
		s.logger.Error("scheduled refresh failed", zap.String("interval", string(s.Interval)), zap.Error(err))
	}
}

// RunNow runs one batch for iv, publishes it to the board and records it.
// Runs are serialized.
func (s *Scheduler) RunNow(ctx context.Context, iv model.Interval) (*model.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("running refresh", zap.String("interval", string(iv)))
	batch, err := s.Screener.Run(ctx, screener.Request{
		Universe:  s.Universe,
		Interval:  iv,
		Threshold: s.Threshold,
	})
	if err != nil {
		metrics.ObserveFailure(iv)
		return nil, fmt.Errorf("refresh %s: %w", iv, err)
	}

	shockers := screener.Shockers(batch, s.Threshold)
	s.Board.Publish(batch)
	metrics.ObserveBatch(batch, len(shockers))

	if err := s.Recorder.RecordBatch(batch, shockers); err != nil {
		s.logger.Error("record batch", zap.String("batch_id", batch.ID), zap.Error(err))
	}
	return batch, nil
}
