package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/app"
	"github.com/newthinker/alphalab/internal/dataset"
	"github.com/newthinker/alphalab/internal/sensitivity"
)

var (
	sweepData       string
	sweepDetectors  []string
	sweepSet        []string
	sweepPolicy     string
	sweepFrom       string
	sweepTo         string
	sweepAxes       []string
	sweepWorkers    int
	sweepTakeProfit float64
	sweepStopLoss   float64
	sweepMaxHolding int
	sweepOut        string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep strategy parameters over value grids",
	Long: `Sweep re-runs the simulation for each value of one parameter, or each
combination of two, and reports how sensitive the outcome is to the
choice. One --param sweeps a line, two sweep a grid.`,
	RunE: runSweepCmd,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepData, "data", "", "CSV file of bars (required)")
	sweepCmd.Flags().StringSliceVar(&sweepDetectors, "detectors", nil, "detectors to activate, in priority order (default all)")
	sweepCmd.Flags().StringArrayVar(&sweepSet, "set", nil, "parameter override name=value (repeatable)")
	sweepCmd.Flags().StringVar(&sweepPolicy, "policy", "", "signal resolution policy: last-wins, first-wins or weighted-merge")
	sweepCmd.Flags().StringVar(&sweepFrom, "from", "", "first bar date YYYY-MM-DD")
	sweepCmd.Flags().StringVar(&sweepTo, "to", "", "last bar date YYYY-MM-DD")
	sweepCmd.Flags().StringArrayVar(&sweepAxes, "param", nil, "sweep axis name=v1,v2,... or name=lo:hi:step (max twice)")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 4, "parallel simulations")
	sweepCmd.Flags().Float64Var(&sweepTakeProfit, "take-profit", 0, "take-profit exit threshold, percent")
	sweepCmd.Flags().Float64Var(&sweepStopLoss, "stop-loss", 0, "stop-loss exit threshold, percent")
	sweepCmd.Flags().IntVar(&sweepMaxHolding, "max-holding", 0, "maximum holding period, bars")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "write the full JSON report to this file")

	sweepCmd.MarkFlagRequired("data")
	sweepCmd.MarkFlagRequired("param")

	rootCmd.AddCommand(sweepCmd)
}

func runSweepCmd(cmd *cobra.Command, args []string) error {
	if len(sweepAxes) > 2 {
		return fmt.Errorf("at most two --param axes are supported, got %d", len(sweepAxes))
	}

	return withApp(func(a *app.App, log *zap.Logger) error {
		bars, err := dataset.LoadCSV(sweepData)
		if err != nil {
			return fmt.Errorf("loading bars: %w", err)
		}
		bars, err = clipWindow(bars, sweepFrom, sweepTo)
		if err != nil {
			return err
		}

		params, resolver, err := buildStrategy(log, sweepDetectors, sweepSet, sweepPolicy)
		if err != nil {
			return err
		}
		req := app.SweepRequest{
			Bars:      bars,
			Params:    params,
			Resolver:  resolver,
			ExitRules: exitRulesFromFlags(sweepTakeProfit, sweepStopLoss, sweepMaxHolding),
			Workers:   sweepWorkers,
		}

		stop := startMetrics(a, log)
		defer stop()

		ctx, cancel := signalContext()
		defer cancel()

		name1, values1, err := parseSweepAxis(sweepAxes[0])
		if err != nil {
			return err
		}

		if len(sweepAxes) == 1 {
			id, report, err := a.RunSweep(ctx, req, name1, values1)
			if err != nil {
				return fmt.Errorf("running sweep: %w", err)
			}
			printSweep(id, report)
			return writeSweepOut(log, report)
		}

		name2, values2, err := parseSweepAxis(sweepAxes[1])
		if err != nil {
			return err
		}
		id, report, err := a.RunSweepGrid(ctx, req, name1, values1, name2, values2)
		if err != nil {
			return fmt.Errorf("running sweep: %w", err)
		}
		printSweepGrid(id, report)
		return writeSweepOut(log, report)
	})
}

func writeSweepOut(log *zap.Logger, report any) error {
	if sweepOut == "" {
		return nil
	}
	if err := writeJSON(sweepOut, report); err != nil {
		return err
	}
	log.Info("report written", zap.String("path", sweepOut))
	return nil
}

// parseSweepAxis parses one --param value: either an explicit list
// name=v1,v2,... or an inclusive range name=lo:hi:step.
func parseSweepAxis(spec string) (string, []float64, error) {
	name, raw, ok := strings.Cut(spec, "=")
	if !ok || name == "" || raw == "" {
		return "", nil, fmt.Errorf("sweep axis %q is not name=v1,v2,... or name=lo:hi:step", spec)
	}

	if strings.Contains(raw, ":") {
		values, err := parseAxisRange(raw)
		if err != nil {
			return "", nil, fmt.Errorf("sweep axis %q: %v", spec, err)
		}
		return name, values, nil
	}

	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("sweep axis %q: %v", spec, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func parseAxisRange(raw string) ([]float64, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("range %q is not lo:hi:step", raw)
	}
	bounds := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		bounds[i] = v
	}
	lo, hi, step := bounds[0], bounds[1], bounds[2]
	if step <= 0 || hi < lo {
		return nil, fmt.Errorf("range %q needs lo <= hi and step > 0", raw)
	}

	// The epsilon keeps float accumulation from dropping the hi value.
	var values []float64
	for v := lo; v <= hi+step*1e-9; v += step {
		values = append(values, v)
	}
	return values, nil
}

func printSweep(id string, r *sensitivity.Report) {
	fmt.Printf("Run:       %s\n", id)
	fmt.Printf("Parameter: %s\n", r.ParamName)
	fmt.Printf("Optimal:   %g\n", r.OptimalValue)
	fmt.Printf("Stability: %.2f\n", r.StabilityScore)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tRETURN\tSHARPE\tWIN RATE\tMAX DD\tTRADES\t")
	fmt.Fprintln(w, "-----\t------\t------\t--------\t------\t------\t")
	for _, p := range r.Results {
		value := fmt.Sprintf("%g", p.Value)
		if p.Optimal {
			value += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%d\t\n",
			value, pct(p.TotalReturn), p.SharpeRatio, pct(p.WinRate), pct(p.MaxDrawdown), p.Trades)
	}
	w.Flush()

	if len(r.Failures) > 0 {
		fmt.Println("\nFailed values:")
		for _, f := range r.Failures {
			fmt.Printf("  %s=%g: %s\n", r.ParamName, f.Value, f.Error)
		}
	}
}

func printSweepGrid(id string, r *sensitivity.GridReport) {
	fmt.Printf("Run:     %s\n", id)
	fmt.Printf("Grid:    %s x %s\n", r.Param1, r.Param2)
	fmt.Printf("Optimal: %s=%g %s=%g\n", r.Param1, r.Optimal.Value1, r.Param2, r.Optimal.Value2)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tRETURN\tSHARPE\tWIN RATE\tMAX DD\tTRADES\t\n", strings.ToUpper(r.Param1), strings.ToUpper(r.Param2))
	fmt.Fprintln(w, "------\t------\t------\t------\t--------\t------\t------\t")
	for _, c := range r.Cells {
		value := fmt.Sprintf("%g", c.Value2)
		if c.Optimal {
			value += " *"
		}
		fmt.Fprintf(w, "%g\t%s\t%s\t%.2f\t%s\t%s\t%d\t\n",
			c.Value1, value, pct(c.TotalReturn), c.SharpeRatio, pct(c.WinRate), pct(c.MaxDrawdown), c.Trades)
	}
	w.Flush()

	if len(r.Failures) > 0 {
		fmt.Println("\nFailed cells:")
		for _, f := range r.Failures {
			fmt.Printf("  %s=%g %s=%g: %s\n", r.Param1, f.Value1, r.Param2, f.Value2, f.Error)
		}
	}
}
