package recorder

import (
	"time"

	"SurgeScreener/internal/model"
)

// RunSummary is one recorded batch.
type RunSummary struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	AsOf      time.Time     `json:"as_of"`
	Interval  string        `json:"interval"`
	Threshold float64       `json:"threshold"`
	Symbols   int           `json:"symbols"`
	Evaluated int           `json:"evaluated"`
	Skipped   int           `json:"skipped"`
	Shockers  int           `json:"shockers"`
	Duration  time.Duration `json:"duration"`
}

// Recorder persists an audit trail of screener runs.
type Recorder interface {
	RecordBatch(batch *model.Batch, shockers []model.Row) error
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
