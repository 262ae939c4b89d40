package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/plantsim/core/device"
	coremetrics "github.com/kilianp07/plantsim/core/metrics"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List device kinds, metrics sinks and the configured devices",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "kinds:")
	for _, k := range device.Kinds() {
		fmt.Fprintf(out, "  %s\n", k)
	}
	fmt.Fprintln(out, "sinks:")
	for _, n := range coremetrics.SinkTypes() {
		fmt.Fprintf(out, "  %s\n", n)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	devs, err := device.NewAll(cfg.Devices)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tKIND\tDIM\tBOUNDS")
	for i, d := range devs {
		b := d.ActionBounds()
		fmt.Fprintf(w, "%d\t%s\t%d\t[%g, %g]\n", i, d.Kind(), d.ActionDim(), b.Lo, b.Hi)
	}
	return w.Flush()
}
