package trace

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Steps           int
	TotalEvents     int
	EndClock        float64
	Transitions     map[string]int // transition kind → count
	EventsPerModel  map[string]int // model path → count
	RootOutputs     int
	ChangesApplied  int
	ChangesRejected int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Transitions:    make(map[string]int),
		EventsPerModel: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	for _, e := range st.Events {
		summary.Transitions[e.Transition]++
		summary.EventsPerModel[e.Model]++
		summary.Steps = max(summary.Steps, e.Step)
		summary.EndClock = math.Max(summary.EndClock, e.Clock)
	}
	for _, o := range st.Outputs {
		summary.RootOutputs += len(o.Values)
	}
	for _, c := range st.Changes {
		if c.Applied {
			summary.ChangesApplied++
		} else {
			summary.ChangesRejected++
		}
		summary.Steps = max(summary.Steps, c.Step)
		summary.EndClock = math.Max(summary.EndClock, c.Clock)
	}
	return summary
}

// FormatTime renders a simulation time compactly; +Inf prints as "inf".
func FormatTime(t float64) string {
	if math.IsInf(t, 1) {
		return "inf"
	}
	return strconv.FormatFloat(t, 'g', -1, 64)
}

// Render writes the trace as stable, line-oriented text: one line per record,
// events and changes interleaved in step order, followed by the summary.
func Render(w io.Writer, st *SimulationTrace) error {
	var b strings.Builder
	if st != nil {
		ei, oi, ci := 0, 0, 0
		for ei < len(st.Events) || oi < len(st.Outputs) || ci < len(st.Changes) {
			step := math.MaxInt
			if ei < len(st.Events) {
				step = min(step, st.Events[ei].Step)
			}
			if oi < len(st.Outputs) {
				step = min(step, st.Outputs[oi].Step)
			}
			if ci < len(st.Changes) {
				step = min(step, st.Changes[ci].Step)
			}
			for ; oi < len(st.Outputs) && st.Outputs[oi].Step == step; oi++ {
				o := st.Outputs[oi]
				fmt.Fprintf(&b, "step=%d t=%s output %s.%s [%s]\n", o.Step, FormatTime(o.Clock), o.Model, o.Port, strings.Join(o.Values, " "))
			}
			for ; ei < len(st.Events) && st.Events[ei].Step == step; ei++ {
				e := st.Events[ei]
				fmt.Fprintf(&b, "step=%d t=%s %s %s tole=%s tonie=%s\n", e.Step, FormatTime(e.Clock), e.Transition, e.Model,
					FormatTime(e.TimeOfLastEvent), FormatTime(e.TimeOfNextEvent))
			}
			for ; ci < len(st.Changes) && st.Changes[ci].Step == step; ci++ {
				c := st.Changes[ci]
				status := "applied"
				if !c.Applied {
					status = "rejected: " + c.Reason
				}
				fmt.Fprintf(&b, "step=%d t=%s change %s %s\n", c.Step, FormatTime(c.Clock), c.Request, status)
			}
		}
	}

	s := Summarize(st)
	fmt.Fprintf(&b, "steps=%d events=%d end=%s root_outputs=%d changes_applied=%d changes_rejected=%d\n",
		s.Steps, s.TotalEvents, FormatTime(s.EndClock), s.RootOutputs, s.ChangesApplied, s.ChangesRejected)
	models := make([]string, 0, len(s.EventsPerModel))
	for m := range s.EventsPerModel {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		fmt.Fprintf(&b, "  %s: %d\n", m, s.EventsPerModel[m])
	}
	_, err := io.WriteString(w, b.String())
	return err
}
