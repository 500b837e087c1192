package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/app"
	"github.com/newthinker/alphalab/internal/config"
	"github.com/newthinker/alphalab/internal/logger"
)

// withApp assembles the application from the global flags and hands it
// to fn together with a CLI logger. Tweaks run on the configuration
// before assembly so subcommand flags can override file settings.
func withApp(fn func(a *app.App, log *zap.Logger) error, tweaks ...func(*config.Config)) error {
	log := logger.NewCLI(debug)
	defer log.Sync()

	var cfg *config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	for _, tweak := range tweaks {
		tweak(cfg)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	return fn(a, log)
}

// signalContext cancels on SIGINT or SIGTERM so a long run stops at the
// next unit of work.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// startMetrics serves the Prometheus endpoint for the lifetime of a run
// when the configuration enables it. The returned func shuts it down.
func startMetrics(a *app.App, log *zap.Logger) func() {
	mc := a.Config().Metrics
	if !mc.Enabled {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics().Handler())
	srv := &http.Server{Addr: mc.Addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", mc.Addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// writeJSON writes a report to a file as indented JSON.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// pct renders a fractional rate for display.
func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
