// Package board keeps the latest batch per interval for the presentation surface.
package board

import (
	"sync"

	"go.uber.org/zap"

	"SurgeScreener/internal/model"
	"SurgeScreener/internal/screener"
)

// Board holds the latest batches with concurrency safety.
type Board struct {
	mu       sync.RWMutex
	state    *State
	filePath string
	logger   *zap.Logger
}

// New creates a Board, loading any previous state from filePath.
// An empty filePath keeps the board in memory only.
func New(filePath string, logger *zap.Logger) (*Board, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	state := &State{Batches: make(map[model.Interval]*model.Batch)}
	if filePath != "" {
		loaded, err := LoadState(filePath)
		if err != nil {
			return nil, err
		}
		state = loaded
	}
	return &Board{state: state, filePath: filePath, logger: logger}, nil
}

// Publish replaces the batch for its interval.
func (b *Board) Publish(batch *model.Batch) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.Batches[batch.Interval] = batch
	if b.filePath == "" {
		return
	}
	if err := SaveState(b.filePath, b.state); err != nil {
		b.logger.Error("failed to save board state", zap.String("path", b.filePath), zap.Error(err))
	}
}

// Latest returns the latest batch for iv, or nil.
func (b *Board) Latest(iv model.Interval) *model.Batch {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.Batches[iv]
}

// View is the board filtered for display.
type View struct {
	Batch     *model.Batch
	Threshold float64
	Rows      []model.Row
}

// View applies threshold and sector filters to the latest batch for iv.
// It returns false when no batch has been published for iv yet.
func (b *Board) View(iv model.Interval, threshold float64, sectors []string) (View, bool) {
	batch := b.Latest(iv)
	if batch == nil {
		return View{}, false
	}
	rows := screener.FilterSectors(screener.Shockers(batch, threshold), sectors)
	return View{Batch: batch, Threshold: threshold, Rows: rows}, true
}
