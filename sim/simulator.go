// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/devsim/devsim/sim/trace"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RootOutput is a batch of values the root model emitted on one of its output ports.
type RootOutput struct {
	Time   Time
	Port   string
	Values []any
}

// Simulator owns the processor tree of one composed model and exposes the
// step-level hooks a driving loop needs. It is not safe for concurrent use;
// independent simulators share nothing and may run in parallel.
type Simulator struct {
	config      Config
	runID       string
	root        Processor
	run         *runState
	reconciler  *Reconciler
	clock       Time
	steps       int
	pending     []ChangeRequest
	rootOutputs []RootOutput
	trace       *trace.SimulationTrace
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithPartition selects processor factories per submodel.
func WithPartition(p *Partition) Option {
	return func(s *Simulator) { s.run.partition = p }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *Simulator) { s.runID = id }
}

// NewSimulator builds the processor tree for root and initialises every processor at time 0.
// Panics if root is nil.
func NewSimulator(root Model, config Config, opts ...Option) (*Simulator, error) {
	if root == nil {
		panic("NewSimulator: root model is nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	s := &Simulator{
		config:     config,
		runID:      uuid.Must(uuid.NewV7()).String(),
		reconciler: NewReconciler(config.ChangeMode),
	}
	s.run = newRunState(nil, s)
	for _, opt := range opts {
		opt(s)
	}
	if lvl := trace.TraceLevel(config.TraceLevel); lvl != "" && lvl != trace.TraceLevelNone {
		s.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: lvl}, s.runID)
	}

	rootProc, err := newProcessor(root, s, s.run, 0)
	if err != nil {
		return nil, err
	}
	s.root = rootProc
	// Changes requested from Init hooks are handled like any other batch.
	s.pending = s.run.drainChanges()
	logrus.Infof("simulator %s ready: root=%s first event at %s", s.runID, root.Name(), s.root.TimeOfNextEvent())
	return s, nil
}

// RunID returns the identifier of this run.
func (s *Simulator) RunID() string { return s.runID }

// Root returns the root processor.
func (s *Simulator) Root() Processor { return s.root }

// Clock returns the time of the last executed step.
func (s *Simulator) Clock() Time { return s.clock }

// Steps returns the number of executed steps.
func (s *Simulator) Steps() int { return s.steps }

// Trace returns the collected trace, nil when tracing is off.
func (s *Simulator) Trace() *trace.SimulationTrace { return s.trace }

// RootOutputs returns everything the root model emitted so far.
func (s *Simulator) RootOutputs() []RootOutput { return s.rootOutputs }

// PendingChanges returns the number of change requests waiting for the next structural-change phase.
func (s *Simulator) PendingChanges() int { return len(s.pending) }

// Processor returns the processor currently simulating m.
func (s *Simulator) Processor(m Model) (Processor, bool) {
	p, ok := s.run.processors[m]
	return p, ok
}

// TimeOfNextInternalEvent returns the global next event time without changing any state.
// ok is false when every processor is passive.
func (s *Simulator) TimeOfNextInternalEvent() (t Time, ok bool) {
	t = s.root.TimeOfNextEvent()
	return t, !t.IsInfinite()
}

// Advance executes exactly one global event step and then applies the structural
// changes requested during it. Changes still pending from Init hooks are applied
// first. ok is false when no event is left.
// A model failure is returned as a *TransitionError; the tree must then be discarded.
func (s *Simulator) Advance() (now Time, ok bool, err error) {
	if err := s.ApplyPendingStructuralChanges(); err != nil {
		return s.clock, false, err
	}
	now, ok = s.TimeOfNextInternalEvent()
	if !ok {
		return s.clock, false, nil
	}
	s.run.step++
	s.steps++
	s.clock = now
	logrus.Debugf("[t=%s] step %d", now, s.steps)

	if err := s.root.output(now); err != nil {
		return now, true, err
	}
	if err := s.root.transition(now); err != nil {
		return now, true, err
	}
	s.pending = append(s.pending, s.run.drainChanges()...)
	if len(s.pending) > 0 {
		if err := s.ApplyPendingStructuralChanges(); err != nil {
			return now, true, err
		}
	}
	return now, true, nil
}

// ApplyPendingStructuralChanges reconciles the pending change requests and
// rebuilds the affected parts of the processor tree. It is a no-op when nothing is pending.
func (s *Simulator) ApplyPendingStructuralChanges() error {
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	s.pending = nil

	report, err := s.reconciler.Reconcile(batch, s.run)
	if s.trace != nil && s.trace.Config.Changes() {
		for _, o := range report.Outcomes {
			ctx := ""
			if o.Context != nil {
				ctx = Path(o.Context)
			}
			s.trace.RecordChange(trace.ChangeRecord{
				Step:    s.steps,
				Clock:   float64(s.clock),
				Kind:    o.Request.Kind.String(),
				Context: ctx,
				Request: o.Request.String(),
				Applied: o.Applied,
				Reason:  o.Reason,
			})
		}
	}
	// Processors follow whatever part of the batch was applied, even on failure.
	for _, ctx := range report.Contexts {
		p, ok := s.run.processors[ctx].(*CoupledProcessor)
		if !ok {
			continue
		}
		if syncErr := p.sync(s.clock); syncErr != nil {
			return syncErr
		}
	}
	if report.Applied() > 0 {
		logrus.Infof("[t=%s] applied %d of %d change requests", s.clock, report.Applied(), len(batch))
	}
	// Init hooks of new models may have requested further changes.
	s.pending = append(s.pending, s.run.drainChanges()...)
	return err
}

// Run advances until no event is left, the next event lies beyond the horizon,
// or the configured step limit is reached.
func (s *Simulator) Run() error {
	horizon := s.config.HorizonTime()
	for s.config.MaxSteps == 0 || s.steps < s.config.MaxSteps {
		if err := s.ApplyPendingStructuralChanges(); err != nil {
			return err
		}
		next, ok := s.TimeOfNextInternalEvent()
		if !ok || next > horizon {
			break
		}
		if _, _, err := s.Advance(); err != nil {
			return err
		}
	}
	logrus.Infof("[t=%s] simulation ended after %d steps", s.clock, s.steps)
	return nil
}

// HandleOutput receives the root model's output messages.
func (s *Simulator) HandleOutput(from Processor, msg *OutputMessage) error {
	for _, pv := range msg.Values {
		s.rootOutputs = append(s.rootOutputs, RootOutput{Time: msg.Time, Port: pv.Port, Values: pv.Values})
		if s.trace != nil && s.trace.Config.Events() {
			rendered := make([]string, len(pv.Values))
			for i, v := range pv.Values {
				rendered[i] = fmt.Sprint(v)
			}
			s.trace.RecordOutput(trace.OutputRecord{
				Step:   s.steps,
				Clock:  float64(msg.Time),
				Model:  Path(from.Model()),
				Port:   pv.Port,
				Values: rendered,
			})
		}
	}
	return nil
}

// HandleCompletion receives the root processor's completion message.
func (s *Simulator) HandleCompletion(from Processor, msg CompletionMessage) {
	logrus.Tracef("[t=%s] root %s completed, next event at %s", msg.Time, from.Model().Name(), msg.TimeOfNextEvent)
}

func (s *Simulator) transitioned(p Processor, kind TransitionKind, now Time) {
	if s.trace == nil || !s.trace.Config.Events() {
		return
	}
	s.trace.RecordEvent(trace.EventRecord{
		Step:            s.steps,
		Clock:           float64(now),
		Model:           Path(p.Model()),
		Transition:      string(kind),
		TimeOfLastEvent: float64(p.TimeOfLastEvent()),
		TimeOfNextEvent: float64(p.TimeOfNextEvent()),
	})
}
