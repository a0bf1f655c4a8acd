package recorder

import "SurgeScreener/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBatch(_ *model.Batch, _ []model.Row) error { return nil }
func (n *NoopRecorder) RecentRuns(_ int) ([]RunSummary, error)         { return nil, nil }
func (n *NoopRecorder) Close() error                                   { return nil }
