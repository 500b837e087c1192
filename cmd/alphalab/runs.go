package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/app"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect archived run results",
	Long:  `Commands for listing, showing and deleting archived run reports.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived run IDs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print an archived report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run-id>",
	Short: "Delete an archived report",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsRm,
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsRmCmd)
	rootCmd.AddCommand(runsCmd)
}

// withArchive hands the configured archive to fn, failing when
// archiving is disabled.
func withArchive(fn func(a *app.App, log *zap.Logger) error) error {
	return withApp(func(a *app.App, log *zap.Logger) error {
		if !a.Archiving() {
			return fmt.Errorf("archiving is disabled; set archive.type in the config")
		}
		return fn(a, log)
	})
}

func runRunsList(cmd *cobra.Command, args []string) error {
	return withArchive(func(a *app.App, log *zap.Logger) error {
		ctx, cancel := signalContext()
		defer cancel()

		ids, err := a.Archive().List(ctx)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No archived runs.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	})
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	return withArchive(func(a *app.App, log *zap.Logger) error {
		ctx, cancel := signalContext()
		defer cancel()

		var raw json.RawMessage
		if err := a.Archive().Load(ctx, args[0], &raw); err != nil {
			return fmt.Errorf("loading run: %w", err)
		}
		fmt.Println(string(raw))
		return nil
	})
}

func runRunsRm(cmd *cobra.Command, args []string) error {
	return withArchive(func(a *app.App, log *zap.Logger) error {
		ctx, cancel := signalContext()
		defer cancel()

		if err := a.Archive().Delete(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting run: %w", err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	})
}
