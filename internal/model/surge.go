package model

import "time"

// SurgeResult is the evaluation of one symbol's series for the current session.
type SurgeResult struct {
	Symbol      string  `json:"symbol"`
	LTP         float64 `json:"ltp"`
	TodayVolume int64   `json:"today_volume"`
	AvgVolume   float64 `json:"avg_volume"`
	SurgeRatio  float64 `json:"surge_ratio"`
	PctChange   float64 `json:"pct_change"`
	HistoryDays int     `json:"history_days"`
}

// Tier is the highlight level of a result relative to the threshold.
type Tier string

const (
	TierNone   Tier = ""
	TierShock  Tier = "shock"
	TierStrong Tier = "strong"
)

// Skip explains why a symbol produced no result.
type Skip struct {
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
	Err    error  `json:"-"`
}

// Outcome is the per-symbol result of a batch: either Result or Skip is set.
type Outcome struct {
	Symbol string       `json:"symbol"`
	Sector string       `json:"sector,omitempty"`
	Result *SurgeResult `json:"result,omitempty"`
	Skip   *Skip        `json:"skip,omitempty"`
}

// OK reports whether the outcome carries a result.
func (o Outcome) OK() bool { return o.Result != nil }

// Batch is one full pass over the universe.
type Batch struct {
	ID        string        `json:"id"`
	AsOf      time.Time     `json:"as_of"`
	Interval  Interval      `json:"interval"`
	Threshold float64       `json:"threshold"`
	Outcomes  []Outcome     `json:"outcomes"`
	Duration  time.Duration `json:"duration"`
}

// Skipped returns the outcomes that produced no result, in universe order.
func (b *Batch) Skipped() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Evaluated counts the outcomes that produced a result.
func (b *Batch) Evaluated() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Row is a shock candidate as shown on the board and in exports.
type Row struct {
	SurgeResult
	Sector string `json:"sector,omitempty"`
	Tier   Tier   `json:"tier"`
}
