package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/app"
	"github.com/newthinker/alphalab/internal/config"
	"github.com/newthinker/alphalab/internal/dataset"
	"github.com/newthinker/alphalab/internal/scanner"
)

var (
	scanDataDir     string
	scanSymbolsFile string
	scanDetectors   []string
	scanSet         []string
	scanPolicy      string
	scanFrom        string
	scanTo          string
	scanWorkers     int
	scanLookback    int
	scanMetricsAddr string
	scanOut         string
)

var scanCmd = &cobra.Command{
	Use:   "scan [symbols...]",
	Short: "Scan many symbols for fresh signals",
	Long: `Scan runs the detector set over the recent bars of every symbol and
ranks the symbols by signal strength and recency. Symbols come from
arguments, --symbols-file, or both. Bars are read from <symbol>.csv
files under the data directory.`,
	RunE: runScanCmd,
}

func init() {
	scanCmd.Flags().StringVar(&scanDataDir, "data-dir", "", "directory of <symbol>.csv files (default from config)")
	scanCmd.Flags().StringVar(&scanSymbolsFile, "symbols-file", "", "file with one symbol per line, # comments allowed")
	scanCmd.Flags().StringSliceVar(&scanDetectors, "detectors", nil, "detectors to activate, in priority order (default all)")
	scanCmd.Flags().StringArrayVar(&scanSet, "set", nil, "parameter override name=value (repeatable)")
	scanCmd.Flags().StringVar(&scanPolicy, "policy", "", "signal resolution policy: last-wins, first-wins or weighted-merge")
	scanCmd.Flags().StringVar(&scanFrom, "from", "", "first bar date YYYY-MM-DD (default from config)")
	scanCmd.Flags().StringVar(&scanTo, "to", "", "last bar date YYYY-MM-DD (default from config)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "concurrent symbol fetches (default from config)")
	scanCmd.Flags().IntVar(&scanLookback, "lookback", 0, "trailing bars scanned for signals (default from config)")
	scanCmd.Flags().StringVar(&scanMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while scanning")
	scanCmd.Flags().StringVar(&scanOut, "out", "", "write the full JSON report to this file")

	rootCmd.AddCommand(scanCmd)
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	tweak := func(cfg *config.Config) {
		if scanDataDir != "" {
			cfg.Data.Dir = scanDataDir
		}
		if scanWorkers > 0 {
			cfg.Scanner.Workers = scanWorkers
		}
		if scanLookback > 0 {
			cfg.Scanner.Lookback = scanLookback
		}
		if scanMetricsAddr != "" {
			cfg.Metrics.Enabled = true
			cfg.Metrics.Addr = scanMetricsAddr
		}
	}

	return withApp(func(a *app.App, log *zap.Logger) error {
		symbols, err := collectSymbols(args, scanSymbolsFile)
		if err != nil {
			return err
		}

		start, end, err := parseWindow(scanFrom, scanTo)
		if err != nil {
			return err
		}
		if scanFrom == "" && scanTo == "" {
			start, end, err = a.Config().Data.Window()
			if err != nil {
				return err
			}
		}

		params, resolver, err := buildStrategy(log, scanDetectors, scanSet, scanPolicy)
		if err != nil {
			return err
		}

		stop := startMetrics(a, log)
		defer stop()

		ctx, cancel := signalContext()
		defer cancel()

		id, report, err := a.RunScan(ctx, app.ScanRequest{
			Symbols:  symbols,
			Provider: dataset.NewDirProvider(a.Config().Data.Dir),
			Params:   params,
			Resolver: resolver,
			Start:    start,
			End:      end,
		})
		if err != nil {
			return fmt.Errorf("running scan: %w", err)
		}

		printScan(id, report)
		if scanOut != "" {
			if err := writeJSON(scanOut, report); err != nil {
				return err
			}
			log.Info("report written", zap.String("path", scanOut))
		}
		return nil
	}, tweak)
}

func collectSymbols(args []string, path string) ([]string, error) {
	symbols := append([]string(nil), args...)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading symbols file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			symbols = append(symbols, line)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols given; pass them as arguments or via --symbols-file")
	}
	return symbols, nil
}

func printScan(id string, r *scanner.ScanReport) {
	fmt.Printf("Run:     %s\n", id)
	fmt.Printf("Scanned: %d symbols in %s\n", r.Symbols, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Println()

	if len(r.Reports) == 0 {
		fmt.Println("No symbols produced a report.")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tBARS\tBUY\tSELL\tWIN RATE\tSCORE\tLAST SIGNAL\t")
		fmt.Fprintln(w, "------\t----\t---\t----\t--------\t-----\t-----------\t")
		for _, sr := range r.Reports {
			winRate := "-"
			if sr.Evaluated > 0 {
				winRate = pct(sr.WinRate)
			}
			last := ""
			if sr.LastSignal != nil {
				sig := sr.LastSignal.Signal
				last = fmt.Sprintf("%s %s (%s)",
					strings.ToUpper(string(sig.Action)), sig.Time.Format("2006-01-02"), sig.Detector)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%.3f\t%s\t\n",
				sr.Symbol, sr.Bars, sr.BuySignals, sr.SellSignals, winRate, sr.Score, last)
		}
		w.Flush()
	}

	if len(r.Failures) > 0 {
		fmt.Println("\nFailures:")
		for _, f := range r.Failures {
			fmt.Printf("  %s: %s\n", f.Symbol, f.Error)
		}
	}
}
