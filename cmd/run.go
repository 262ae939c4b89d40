package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/plantsim/app"
	"github.com/kilianp07/plantsim/core/device"
	"github.com/kilianp07/plantsim/core/sim"
	"github.com/kilianp07/plantsim/infra/logger"
	"github.com/kilianp07/plantsim/pkg/export"
)

var (
	outPath   string
	hold      bool
	actionVec []float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate the configured scenario with constant actions",
	RunE:  run,
}

func init() {
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the rollout to a .csv or .json file")
	runCmd.Flags().Float64SliceVarP(&actionVec, "action", "a", nil, "flat action vector overriding the configured actions, split per device")
	runCmd.Flags().BoolVar(&hold, "hold", false, "keep serving metrics after the run until interrupted")
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	actions := cfg.ActionList()
	if len(actionVec) > 0 {
		if actions, err = device.SplitActions(svc.Devices, actionVec); err != nil {
			return err
		}
	}
	if len(actions) == 0 {
		for _, d := range device.ActionDims(svc.Devices) {
			actions = append(actions, make(device.Action, d))
		}
	}
	sum, runErr := svc.Run(ctx, sim.ConstantPolicy(actions))
	if outPath != "" {
		if err := writeRollout(outPath, svc); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return err
	}
	if hold {
		<-ctx.Done()
	}
	return nil
}

func writeRollout(path string, svc *app.Service) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = export.WriteCSV(f, svc.Steps())
	case ".json":
		err = export.WriteJSON(f, svc.Steps())
	default:
		return fmt.Errorf("unsupported rollout format: %s", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("write rollout: %w", err)
	}
	return f.Close()
}
