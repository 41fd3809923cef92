package cmd

import (
	"fmt"
	"io"

	"github.com/devsim/devsim/sim"
	"github.com/devsim/devsim/sim/compose"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <composition>",
	Short: "Load, build and initialise a composition without running it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateComposition(cmd.OutOrStdout(), args[0]); err != nil {
			logrus.Fatalf("Invalid composition: %v", err)
		}
	},
}

func validateComposition(w io.Writer, path string) error {
	comp, err := compose.Load(path)
	if err != nil {
		return err
	}
	root, err := compose.Build(comp, sim.NewPartitionedRNG(sim.NewSimulationKey(comp.Simulation.Seed)))
	if err != nil {
		return err
	}
	s, err := sim.NewSimulator(root, comp.Simulation)
	if err != nil {
		return err
	}
	stats := compose.Count(root)
	first := "none"
	if t, ok := s.TimeOfNextInternalEvent(); ok {
		first = t.String()
	}
	fmt.Fprintf(w, "%s: %d atomic, %d coupled, %d couplings, first event at %s\n",
		comp.Name, stats.Atomic, stats.Coupled, stats.Couplings, first)
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
