package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/devsim/devsim/sim/trace"
	"github.com/devsim/devsim/sim/tracestore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runsDB string

// runsCmd lists stored runs, or renders one run's trace when given its ID.
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List runs stored with --trace-db, or print one run's trace",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runID := ""
		if len(args) == 1 {
			runID = args[0]
		}
		if err := showRuns(cmd.Context(), cmd.OutOrStdout(), runsDB, runID); err != nil {
			logrus.Fatalf("Reading runs failed: %v", err)
		}
	},
}

func showRuns(ctx context.Context, w io.Writer, dbPath, runID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := tracestore.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if runID != "" {
		st, err := store.LoadTrace(ctx, runID)
		if err != nil {
			return err
		}
		return trace.Render(w, st)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s %s steps=%d events=%d end=%s changes_applied=%d changes_rejected=%d\n",
			r.ID, r.Composition, r.Summary.Steps, r.Summary.TotalEvents, trace.FormatTime(r.Summary.EndClock),
			r.Summary.ChangesApplied, r.Summary.ChangesRejected)
	}
	return nil
}

func init() {
	runsCmd.Flags().StringVar(&runsDB, "trace-db", "devsim.db", "SQLite file written by run --trace-db")

	rootCmd.AddCommand(runsCmd)
}
