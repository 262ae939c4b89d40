package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/plantsim/core/plant"
)

var (
	steadyAmbient float64
	steadyHeat    float64
)

var steadyCmd = &cobra.Command{
	Use:   "steady",
	Short: "Print the steady-state indoor temperature of the configured zone",
	RunE:  runSteady,
}

func init() {
	steadyCmd.Flags().Float64Var(&steadyAmbient, "ambient", 0, "ambient temperature in °C")
	steadyCmd.Flags().Float64Var(&steadyHeat, "heat", 0, "constant thermal power in kW, negative for cooling")
	rootCmd.AddCommand(steadyCmd)
}

func runSteady(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	t := plant.SteadyStateTemp(cfg.Thermal.Params(), steadyAmbient, steadyHeat)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.3f\n", t)
	return err
}
