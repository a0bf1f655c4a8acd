package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"SurgeScreener/internal/model"
	"SurgeScreener/internal/report"
	"SurgeScreener/internal/screener"
)

var (
	scanThreshold float64
	scanInterval  string
	scanSectors   []string
	scanCSV       string
)

var scanCMD = &cobra.Command{
	Use:   "scan",
	Short: "Run one batch and print the shockers",
	Long:  `Run a single batch over the configured universe, print the shockers table and the skipped symbols, and optionally export the table as CSV.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfgPath)
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		threshold := a.cfg.Screener.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold = scanThreshold
		}
		iv := a.cfg.Interval()
		if scanInterval != "" {
			if iv, err = model.ParseInterval(scanInterval); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		batch, err := a.screener.Run(ctx, screener.Request{
			Universe:  a.cfg.Universe,
			Interval:  iv,
			Threshold: threshold,
		})
		if err != nil {
			return err
		}

		rows := screener.FilterSectors(screener.Shockers(batch, threshold), scanSectors)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, report.FormatSummary(batch, len(rows)))
		fmt.Fprintln(out, report.FormatTable(rows, batch, threshold))
		if skipped := report.FormatSkipped(batch); skipped != "" {
			fmt.Fprintln(out, skipped)
		}

		if scanCSV != "" {
			f, err := os.Create(scanCSV)
			if err != nil {
				return fmt.Errorf("create csv: %w", err)
			}
			defer f.Close()
			if err := report.WriteCSV(f, rows); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			fmt.Fprintf(out, "CSV written to %s\n", scanCSV)
		}
		return nil
	},
}

func init() {
	scanCMD.Flags().Float64VarP(&scanThreshold, "threshold", "t", 2.0, "surge ratio threshold (overrides config)")
	scanCMD.Flags().StringVarP(&scanInterval, "interval", "i", "", "bar interval, e.g. 5minute or 15minute (default from config)")
	scanCMD.Flags().StringSliceVarP(&scanSectors, "sector", "s", nil, "only show these sectors (repeatable or comma-separated)")
	scanCMD.Flags().StringVar(&scanCSV, "csv", "", "also write the table to this CSV file")
}
