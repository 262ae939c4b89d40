package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kilianp07/plantsim/core/plant"
)

var (
	projSoC       float64
	projCharge    float64
	projDischarge float64
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project a charge/discharge request onto the configured battery",
	RunE:  runProject,
}

func init() {
	projectCmd.Flags().Float64Var(&projSoC, "soc", 0.5, "state of charge before the step")
	projectCmd.Flags().Float64Var(&projCharge, "charge", 0, "requested charge power in kW")
	projectCmd.Flags().Float64Var(&projDischarge, "discharge", 0, "requested discharge power in kW")
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	soc := projSoC
	proj := plant.ProjectBattery(projCharge, projDischarge, &soc, cfg.Battery.Params(), cfg.Thermal.Step())
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(proj)
}
