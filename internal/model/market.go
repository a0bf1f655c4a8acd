package model

import (
	"fmt"
	"time"
)

// Bar represents a single OHLCV candlestick.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// SymbolSeries holds the bars of one symbol over the lookback window.
type SymbolSeries struct {
	Symbol   string
	Interval Interval
	Bars     []Bar
}

// Interval is a bar granularity, named the way Kite Connect names them.
type Interval string

const (
	IntervalMinute   Interval = "minute"
	Interval3Minute  Interval = "3minute"
	Interval5Minute  Interval = "5minute"
	Interval10Minute Interval = "10minute"
	Interval15Minute Interval = "15minute"
	Interval30Minute Interval = "30minute"
	Interval60Minute Interval = "60minute"
	IntervalDay      Interval = "day"
)

// Intervals lists every supported interval in ascending granularity.
var Intervals = []Interval{
	IntervalMinute, Interval3Minute, Interval5Minute, Interval10Minute,
	Interval15Minute, Interval30Minute, Interval60Minute, IntervalDay,
}

// ParseInterval validates s against the supported intervals.
func ParseInterval(s string) (Interval, error) {
	for _, iv := range Intervals {
		if string(iv) == s {
			return iv, nil
		}
	}
	return "", fmt.Errorf("unsupported interval %q", s)
}

// Duration returns the length of one bar.
func (iv Interval) Duration() time.Duration {
	switch iv {
	case IntervalMinute:
		return time.Minute
	case Interval3Minute:
		return 3 * time.Minute
	case Interval5Minute:
		return 5 * time.Minute
	case Interval10Minute:
		return 10 * time.Minute
	case Interval15Minute:
		return 15 * time.Minute
	case Interval30Minute:
		return 30 * time.Minute
	case Interval60Minute:
		return time.Hour
	case IntervalDay:
		return 24 * time.Hour
	default:
		return 0
	}
}
