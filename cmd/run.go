package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/devsim/devsim/sim"
	"github.com/devsim/devsim/sim/compose"
	"github.com/devsim/devsim/sim/trace"
	"github.com/devsim/devsim/sim/tracestore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runOptions are the `run` flags. Each one overrides the composition's
// simulation block only when set explicitly.
type runOptions struct {
	horizon    float64 // Simulation horizon, 0 for unbounded
	seed       int64   // Master seed of the per-model random streams
	maxSteps   int     // Step limit, 0 for unlimited
	changeMode string  // strict or silent
	traceLevel string  // none, events, changes or all
	traceDB    string  // SQLite file receiving the trace
}

var runOpts runOptions

// runCmd executes a composition
var runCmd = &cobra.Command{
	Use:   "run <composition>",
	Short: "Run a YAML or HCL composition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := runComposition(cmd.Context(), cmd.OutOrStdout(), args[0], cmd.Flags().Changed, runOpts); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// applyOverrides copies every explicitly set flag into cfg.
func applyOverrides(cfg *sim.Config, changed func(string) bool, opts runOptions) {
	if changed("horizon") {
		cfg.Horizon = opts.horizon
	}
	if changed("seed") {
		cfg.Seed = opts.seed
	}
	if changed("max-steps") {
		cfg.MaxSteps = opts.maxSteps
	}
	if changed("change-mode") {
		cfg.ChangeMode = sim.ChangeMode(opts.changeMode)
	}
	if changed("trace") {
		cfg.TraceLevel = opts.traceLevel
	}
}

// runComposition loads, builds and runs the composition at path, writing the
// rendered trace (or a one-line summary when tracing is off) to w.
func runComposition(ctx context.Context, w io.Writer, path string, changed func(string) bool, opts runOptions) (*sim.Simulator, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	comp, err := compose.Load(path)
	if err != nil {
		return nil, err
	}
	applyOverrides(&comp.Simulation, changed, opts)
	if opts.traceDB != "" && !tracing(comp.Simulation.TraceLevel) {
		return nil, fmt.Errorf("--trace-db needs a trace level other than %q", trace.TraceLevelNone)
	}

	root, err := compose.Build(comp, sim.NewPartitionedRNG(sim.NewSimulationKey(comp.Simulation.Seed)))
	if err != nil {
		return nil, err
	}
	s, err := sim.NewSimulator(root, comp.Simulation)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Starting run %s of %s: horizon=%s seed=%d max_steps=%d",
		s.RunID(), comp.Name, comp.Simulation.HorizonTime(), comp.Simulation.Seed, comp.Simulation.MaxSteps)

	startTime := time.Now()
	runErr := s.Run()
	logrus.Infof("Run %s finished in %s", s.RunID(), time.Since(startTime))

	if st := s.Trace(); st != nil {
		if err := trace.Render(w, st); err != nil {
			return s, err
		}
		if opts.traceDB != "" {
			if err := saveTrace(ctx, opts.traceDB, s.RunID(), comp.Name, st); err != nil {
				return s, err
			}
		}
	} else {
		fmt.Fprintf(w, "steps=%d end=%s root_outputs=%d\n", s.Steps(), s.Clock(), len(s.RootOutputs()))
	}
	return s, runErr
}

func tracing(level string) bool {
	return level != "" && trace.TraceLevel(level) != trace.TraceLevelNone
}

func saveTrace(ctx context.Context, dbPath, runID, composition string, st *trace.SimulationTrace) error {
	store, err := tracestore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveRun(ctx, runID, composition, st); err != nil {
		return err
	}
	logrus.Infof("Saved trace of run %s to %s", runID, dbPath)
	return nil
}

func init() {
	runCmd.Flags().Float64Var(&runOpts.horizon, "horizon", 0, "Simulation horizon; events after it are not executed (0 = unbounded)")
	runCmd.Flags().Int64Var(&runOpts.seed, "seed", 0, "Seed for the per-model random streams")
	runCmd.Flags().IntVar(&runOpts.maxSteps, "max-steps", 0, "Stop after this many steps (0 = unlimited)")
	runCmd.Flags().StringVar(&runOpts.changeMode, "change-mode", string(sim.ChangeModeStrict), "Structural change handling: strict or silent")
	runCmd.Flags().StringVar(&runOpts.traceLevel, "trace", string(trace.TraceLevelNone), "Trace level: none, events, changes or all")
	runCmd.Flags().StringVar(&runOpts.traceDB, "trace-db", "", "SQLite file to store the run trace in")

	rootCmd.AddCommand(runCmd)
}
