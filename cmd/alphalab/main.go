package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "alphalab",
	Short: "AlphaLab - deterministic strategy backtesting lab",
	Long: `AlphaLab replays trading strategies over historical bars with an
exchange-calibrated cost model and reports returns, risk and robustness.
Runs are deterministic: the same bars, parameters and configuration
always produce the same report.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
