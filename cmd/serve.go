package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/plantsim/api/steps"
	"github.com/kilianp07/plantsim/core/steplog"
	"github.com/kilianp07/plantsim/infra/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored steps on /api/steps and metrics on /metrics",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := steplog.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("step store: %w", err)
	}
	if store == nil {
		return fmt.Errorf("serve needs a step store backend")
	}
	defer func() { _ = store.Close() }()

	mux := http.NewServeMux()
	mux.Handle("/api/steps", steps.NewHandler(store, cfg.API.Token))
	return metrics.Serve(ctx, cfg.API.Addr, mux)
}
