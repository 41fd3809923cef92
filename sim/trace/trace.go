package trace

// TraceLevel controls which records a simulation collects.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures transitions and root outputs.
	TraceLevelEvents TraceLevel = "events"
	// TraceLevelChanges captures structural change outcomes.
	TraceLevelChanges TraceLevel = "changes"
	// TraceLevelAll captures everything.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:    true,
	TraceLevelEvents:  true,
	TraceLevelChanges: true,
	TraceLevelAll:     true,
	"":                true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Events reports whether transition and output records are collected.
func (c TraceConfig) Events() bool {
	return c.Level == TraceLevelEvents || c.Level == TraceLevelAll
}

// Changes reports whether structural change records are collected.
func (c TraceConfig) Changes() bool {
	return c.Level == TraceLevelChanges || c.Level == TraceLevelAll
}

// SimulationTrace collects records during one simulation run.
type SimulationTrace struct {
	Config  TraceConfig
	RunID   string
	Events  []EventRecord
	Outputs []OutputRecord
	Changes []ChangeRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig, runID string) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		RunID:   runID,
		Events:  make([]EventRecord, 0),
		Outputs: make([]OutputRecord, 0),
		Changes: make([]ChangeRecord, 0),
	}
}

// RecordEvent appends a transition record.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	st.Events = append(st.Events, record)
}

// RecordOutput appends a root output record.
func (st *SimulationTrace) RecordOutput(record OutputRecord) {
	st.Outputs = append(st.Outputs, record)
}

// RecordChange appends a structural change record.
func (st *SimulationTrace) RecordChange(record ChangeRecord) {
	st.Changes = append(st.Changes, record)
}
