package calculator

import (
	"sort"
	"time"

	"SurgeScreener/internal/model"
)

// dateKey identifies a calendar date in a fixed location.
type dateKey struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{y, m, d}
}

// clockOf returns the time elapsed since local midnight of t.
func clockOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// EvaluateSurge compares the current session's volume with the mean volume
// traded by the same time of day on every earlier day of the series.
// Bars are read in asOf's location. It returns false when the series has
// no bar dated asOf's day.
func EvaluateSurge(series model.SymbolSeries, asOf time.Time) (model.SurgeResult, bool) {
	loc := asOf.Location()
	today := dateOf(asOf)
	cutoff := clockOf(asOf)

	bars := make([]model.Bar, len(series.Bars))
	copy(bars, series.Bars)
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	var todayBars []model.Bar
	var days []dateKey
	dayVolume := make(map[dateKey]int64)

	for _, b := range bars {
		t := b.Time.In(loc)
		d := dateOf(t)
		if d == today {
			todayBars = append(todayBars, b)
			continue
		}
		if _, seen := dayVolume[d]; !seen {
			days = append(days, d)
			dayVolume[d] = 0
		}
		if clockOf(t) <= cutoff {
			dayVolume[d] += b.Volume
		}
	}

	if len(todayBars) == 0 {
		return model.SurgeResult{}, false
	}

	var avgVolume float64
	if len(days) > 0 {
		var total int64
		for _, d := range days {
			total += dayVolume[d]
		}
		avgVolume = float64(total) / float64(len(days))
	}

	var todayVolume int64
	for _, b := range todayBars {
		todayVolume += b.Volume
	}

	first, last := todayBars[0], todayBars[len(todayBars)-1]
	pctChange := 0.0
	if first.Open != 0 {
		pctChange = (last.Close - first.Open) / first.Open * 100
	}

	ratio := 0.0
	if avgVolume > 0 {
		ratio = float64(todayVolume) / avgVolume
	}

	return model.SurgeResult{
		Symbol:      series.Symbol,
		LTP:         last.Close,
		TodayVolume: todayVolume,
		AvgVolume:   avgVolume,
		SurgeRatio:  ratio,
		PctChange:   pctChange,
		HistoryDays: len(days),
	}, true
}
