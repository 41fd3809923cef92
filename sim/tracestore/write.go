package tracestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/devsim/devsim/sim/trace"
)

// SaveRun stores a complete trace under runID in one transaction.
// Saving the same runID twice fails on the primary key.
func (s *Store) SaveRun(ctx context.Context, runID, composition string, st *trace.SimulationTrace) error {
	if st == nil {
		return fmt.Errorf("save run %s: nil trace", runID)
	}
	sum := trace.Summarize(st)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs
			(id, composition, trace_level, steps, end_clock, events, root_outputs, changes_applied, changes_rejected)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			composition,
			string(st.Config.Level),
			sum.Steps,
			sum.EndClock,
			sum.TotalEvents,
			sum.RootOutputs,
			sum.ChangesApplied,
			sum.ChangesRejected,
		); err != nil {
			return err
		}

		for i, e := range st.Events {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO events (run_id, seq, step, clock, model, transition, tole, tonie)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, runID, i, e.Step, e.Clock, e.Model, e.Transition, e.TimeOfLastEvent, finiteOrNull(e.TimeOfNextEvent)); err != nil {
				return err
			}
		}
		for i, o := range st.Outputs {
			vals, err := json.Marshal(o.Values)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO outputs (run_id, seq, step, clock, model, port, vals)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, runID, i, o.Step, o.Clock, o.Model, o.Port, string(vals)); err != nil {
				return err
			}
		}
		for i, c := range st.Changes {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO changes (run_id, seq, step, clock, kind, context, request, applied, reason)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, runID, i, c.Step, c.Clock, c.Kind, c.Context, c.Request, c.Applied, c.Reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", runID, err)
	}
	return nil
}

// finiteOrNull maps +Inf to SQL NULL.
func finiteOrNull(t float64) sql.NullFloat64 {
	if math.IsInf(t, 1) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: t, Valid: true}
}
