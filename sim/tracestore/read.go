package tracestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/devsim/devsim/sim/trace"
)

// RunInfo is the stored header of one run.
type RunInfo struct {
	ID          string
	Composition string
	TraceLevel  trace.TraceLevel
	Summary     trace.TraceSummary
}

// LoadRunSummary returns the header of runID, with per-model event counts.
func (s *Store) LoadRunSummary(ctx context.Context, runID string) (*RunInfo, error) {
	info := &RunInfo{ID: runID}
	var level string
	err := s.db.QueryRowContext(ctx, `
		SELECT composition, trace_level, steps, end_clock, events, root_outputs, changes_applied, changes_rejected
		FROM runs WHERE id = ?
	`, runID).Scan(
		&info.Composition,
		&level,
		&info.Summary.Steps,
		&info.Summary.EndClock,
		&info.Summary.TotalEvents,
		&info.Summary.RootOutputs,
		&info.Summary.ChangesApplied,
		&info.Summary.ChangesRejected,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	info.TraceLevel = trace.TraceLevel(level)

	info.Summary.EventsPerModel = make(map[string]int)
	info.Summary.Transitions = make(map[string]int)
	if err := s.countBy(ctx, runID, "model", info.Summary.EventsPerModel); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, runID, "transition", info.Summary.Transitions); err != nil {
		return nil, err
	}
	return info, nil
}

// countBy fills into with event counts grouped by column, which must be a
// trusted column name.
func (s *Store) countBy(ctx context.Context, runID, column string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM events WHERE run_id = ? GROUP BY "+column, runID)
	if err != nil {
		return fmt.Errorf("count events by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("count events by %s: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

// ListRuns returns every stored run header, oldest first. Run IDs are UUIDv7,
// so ordering by ID orders by creation time.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list runs: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]RunInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.LoadRunSummary(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *info)
	}
	return runs, nil
}

// LoadTrace rebuilds the full trace of runID.
func (s *Store) LoadTrace(ctx context.Context, runID string) (*trace.SimulationTrace, error) {
	info, err := s.LoadRunSummary(ctx, runID)
	if err != nil {
		return nil, err
	}
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: info.TraceLevel}, runID)

	if err := s.scanRows(ctx, `
		SELECT step, clock, model, transition, tole, tonie FROM events WHERE run_id = ? ORDER BY seq
	`, runID, func(rows *sql.Rows) error {
		var e trace.EventRecord
		var tonie sql.NullFloat64
		if err := rows.Scan(&e.Step, &e.Clock, &e.Model, &e.Transition, &e.TimeOfLastEvent, &tonie); err != nil {
			return err
		}
		e.TimeOfNextEvent = math.Inf(1)
		if tonie.Valid {
			e.TimeOfNextEvent = tonie.Float64
		}
		st.RecordEvent(e)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load events of %s: %w", runID, err)
	}

	if err := s.scanRows(ctx, `
		SELECT step, clock, model, port, vals FROM outputs WHERE run_id = ? ORDER BY seq
	`, runID, func(rows *sql.Rows) error {
		var o trace.OutputRecord
		var vals string
		if err := rows.Scan(&o.Step, &o.Clock, &o.Model, &o.Port, &vals); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(vals), &o.Values); err != nil {
			return err
		}
		st.RecordOutput(o)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load outputs of %s: %w", runID, err)
	}

	if err := s.scanRows(ctx, `
		SELECT step, clock, kind, context, request, applied, reason FROM changes WHERE run_id = ? ORDER BY seq
	`, runID, func(rows *sql.Rows) error {
		var c trace.ChangeRecord
		if err := rows.Scan(&c.Step, &c.Clock, &c.Kind, &c.Context, &c.Request, &c.Applied, &c.Reason); err != nil {
			return err
		}
		st.RecordChange(c)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load changes of %s: %w", runID, err)
	}
	return st, nil
}

func (s *Store) scanRows(ctx context.Context, query, runID string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
