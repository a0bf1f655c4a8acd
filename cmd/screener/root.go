package main

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCMD = &cobra.Command{
	Use:   "screener",
	Short: "Intraday volume surge screener",
	Long: `Polls a market-data provider for a basket of equity symbols, compares
today's cumulative volume against the same time of day over the previous
sessions and reports the symbols trading at a multiple of their usual volume.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCMD.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "path to the YAML config file")

	rootCMD.AddCommand(serveCMD, scanCMD)
}
