package report

import (
	"fmt"
	"strings"
	"time"

	"SurgeScreener/internal/model"
)

func marker(t model.Tier) string {
	switch t {
	case model.TierStrong:
		return "**"
	case model.TierShock:
		return "*"
	default:
		return ""
	}
}

// FormatTable renders rows as a fixed-width text table.
func FormatTable(rows []model.Row, batch *model.Batch, threshold float64) string {
	var b strings.Builder

	if batch != nil {
		b.WriteString(fmt.Sprintf("Volume shockers | %s | %s | threshold %sx\n",
			batch.AsOf.Format("2006-01-02 15:04:05"), batch.Interval, Fixed2(threshold)))
	}
	if len(rows) == 0 {
		b.WriteString("No stocks found meeting the volume surge criteria.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%d stocks found above %sx surge.\n\n", len(rows), Fixed2(threshold)))

	b.WriteString(fmt.Sprintf("%-2s %-12s %-14s %10s %15s %17s %11s %9s\n",
		"", "Symbol", "Sector", "LTP", "Today's Volume", "7-Day Avg Volume", "Surge Ratio", "% Change"))
	for _, r := range rows {
		rec := Record(r)
		b.WriteString(fmt.Sprintf("%-2s %-12s %-14s %10s %15s %17s %11s %9s\n",
			marker(r.Tier), rec[0], r.Sector, rec[1], rec[2], rec[3], rec[4], rec[5]))
	}
	return b.String()
}

// FormatSkipped lists the symbols that produced no result.
func FormatSkipped(batch *model.Batch) string {
	skipped := batch.Skipped()
	if len(skipped) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("\nSkipped %d symbols:\n", len(skipped)))
	for _, o := range skipped {
		if o.Skip.Detail != "" {
			b.WriteString(fmt.Sprintf("  %s: %s (%s)\n", o.Symbol, o.Skip.Reason, o.Skip.Detail))
		} else {
			b.WriteString(fmt.Sprintf("  %s: %s\n", o.Symbol, o.Skip.Reason))
		}
	}
	return b.String()
}

// FormatSummary is a one-line batch summary.
func FormatSummary(batch *model.Batch, shockers int) string {
	return fmt.Sprintf("batch %s: %d evaluated, %d skipped, %d shockers in %s",
		batch.ID, batch.Evaluated(), len(batch.Outcomes)-batch.Evaluated(), shockers,
		batch.Duration.Round(time.Millisecond))
}
