package trace

import "testing"

func TestIsValidTraceLevel(t *testing.T) {
	for _, level := range []string{"", "none", "events", "changes", "all"} {
		if !IsValidTraceLevel(level) {
			t.Errorf("expected %q to be valid", level)
		}
	}
	if IsValidTraceLevel("decisions") {
		t.Error("expected unknown level to be invalid")
	}
}

func TestTraceConfig_Selection(t *testing.T) {
	tests := []struct {
		level   TraceLevel
		events  bool
		changes bool
	}{
		{TraceLevelNone, false, false},
		{TraceLevelEvents, true, false},
		{TraceLevelChanges, false, true},
		{TraceLevelAll, true, true},
	}
	for _, tc := range tests {
		c := TraceConfig{Level: tc.level}
		if c.Events() != tc.events || c.Changes() != tc.changes {
			t.Errorf("%s: events=%v changes=%v", tc.level, c.Events(), c.Changes())
		}
	}
}

func TestNewSimulationTrace_Records(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAll}, "abc")
	if st.RunID != "abc" {
		t.Errorf("expected run id abc, got %q", st.RunID)
	}
	st.RecordEvent(EventRecord{Model: "root/a"})
	st.RecordOutput(OutputRecord{Port: "out"})
	st.RecordChange(ChangeRecord{Kind: "model-add"})
	if len(st.Events) != 1 || len(st.Outputs) != 1 || len(st.Changes) != 1 {
		t.Errorf("expected one record of each kind, got %d/%d/%d", len(st.Events), len(st.Outputs), len(st.Changes))
	}
}
