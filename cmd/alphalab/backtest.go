package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/app"
	"github.com/newthinker/alphalab/internal/backtest"
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/dataset"
)

var (
	backtestData       string
	backtestDetectors  []string
	backtestSet        []string
	backtestPolicy     string
	backtestFrom       string
	backtestTo         string
	backtestTakeProfit float64
	backtestStopLoss   float64
	backtestMaxHolding int
	backtestOut        string
	backtestShowTrades bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay detectors over a CSV bar series",
	Long: `Backtest simulates the configured detector set over historical bars
and prints return, risk and trade statistics. The full report can be
written to a JSON file with --out.`,
	RunE: runBacktestCmd,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestData, "data", "", "CSV file of bars (required)")
	backtestCmd.Flags().StringSliceVar(&backtestDetectors, "detectors", nil, "detectors to activate, in priority order (default all)")
	backtestCmd.Flags().StringArrayVar(&backtestSet, "set", nil, "parameter override name=value (repeatable)")
	backtestCmd.Flags().StringVar(&backtestPolicy, "policy", "", "signal resolution policy: last-wins, first-wins or weighted-merge")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "first bar date YYYY-MM-DD")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "last bar date YYYY-MM-DD")
	backtestCmd.Flags().Float64Var(&backtestTakeProfit, "take-profit", 0, "take-profit exit threshold, percent")
	backtestCmd.Flags().Float64Var(&backtestStopLoss, "stop-loss", 0, "stop-loss exit threshold, percent")
	backtestCmd.Flags().IntVar(&backtestMaxHolding, "max-holding", 0, "maximum holding period, bars")
	backtestCmd.Flags().StringVar(&backtestOut, "out", "", "write the full JSON report to this file")
	backtestCmd.Flags().BoolVar(&backtestShowTrades, "trades", false, "print the trade ledger")

	backtestCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App, log *zap.Logger) error {
		bars, err := dataset.LoadCSV(backtestData)
		if err != nil {
			return fmt.Errorf("loading bars: %w", err)
		}
		bars, err = clipWindow(bars, backtestFrom, backtestTo)
		if err != nil {
			return err
		}

		params, resolver, err := buildStrategy(log, backtestDetectors, backtestSet, backtestPolicy)
		if err != nil {
			return err
		}

		stop := startMetrics(a, log)
		defer stop()

		ctx, cancel := signalContext()
		defer cancel()

		id, result, err := a.RunBacktest(ctx, app.BacktestRequest{
			Bars:      bars,
			Params:    params,
			Resolver:  resolver,
			ExitRules: exitRulesFromFlags(backtestTakeProfit, backtestStopLoss, backtestMaxHolding),
		})
		if err != nil {
			return fmt.Errorf("running backtest: %w", err)
		}

		printBacktest(id, result)
		if backtestShowTrades {
			printTrades(result.Trades)
		}
		if backtestOut != "" {
			if err := writeJSON(backtestOut, result); err != nil {
				return err
			}
			log.Info("report written", zap.String("path", backtestOut))
		}
		return nil
	})
}

func printBacktest(id string, r *backtest.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Run:\t%s\n", id)
	fmt.Fprintf(w, "Bars:\t%d (%s to %s)\n", r.Bars, r.FirstBar.Format("2006-01-02"), r.LastBar.Format("2006-01-02"))
	fmt.Fprintf(w, "Detectors:\t%s (%s)\n", strings.Join(r.Detectors, ", "), r.Policy)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "End balance:\t%s\n", r.Returns.EndBalance)
	fmt.Fprintf(w, "Total return:\t%s\n", pct(r.Returns.TotalReturn))
	fmt.Fprintf(w, "Annualized:\t%s\n", pct(r.Returns.AnnualizedReturn))
	fmt.Fprintf(w, "Max drawdown:\t%s (%d bars)\n", pct(r.Risk.MaxDrawdown), r.Risk.MaxDrawdownDuration)
	fmt.Fprintf(w, "Volatility:\t%s\n", pct(r.Risk.Volatility))
	fmt.Fprintf(w, "Sharpe:\t%.2f\n", r.Risk.SharpeRatio)
	fmt.Fprintf(w, "Sortino:\t%.2f\n", r.Risk.SortinoRatio)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Trades:\t%d (%d round trips)\n", r.Trading.TotalTrades, r.Trading.RoundTrips)
	fmt.Fprintf(w, "Win rate:\t%s (%d/%d)\n", pct(r.Trading.WinRate), r.Trading.WinningTrades, r.Trading.WinningTrades+r.Trading.LosingTrades)
	fmt.Fprintf(w, "Profit factor:\t%.2f\n", r.Trading.ProfitFactor)
	fmt.Fprintf(w, "Total costs:\t%s\n", r.Trading.TotalCosts)
	w.Flush()

	if len(r.Diagnostics) > 0 {
		fmt.Println()
		fmt.Println("Diagnostics:")
		for _, d := range r.Diagnostics {
			fmt.Printf("  [%s] %s\n", d.Code, d.Message)
		}
	}
}

func printTrades(trades []backtest.Trade) {
	if len(trades) == 0 {
		fmt.Println("\nNo trades executed.")
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDATE\tSIDE\tDETECTOR\tPRICE\tQTY\tPNL\tHELD\tREASON\t")
	fmt.Fprintln(w, "-\t----\t----\t--------\t-----\t---\t---\t----\t------\t")
	for _, t := range trades {
		pnl := ""
		held := ""
		if t.Side == core.ActionSell {
			pnl = t.PnL.String()
			held = fmt.Sprintf("%d", t.HoldingDays)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t\n",
			t.ID, t.Time.Format("2006-01-02"), strings.ToUpper(string(t.Side)), t.Detector,
			t.ExecPrice, t.Quantity, pnl, held, t.Reason)
	}
	w.Flush()
}
