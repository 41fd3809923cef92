package sim

import "fmt"

// ProcessorState is where a processor is within the current event step.
type ProcessorState int

const (
	StateIdle ProcessorState = iota
	StateEvaluating
	StateAwaitingChildren
	StateDoneForStep
)

func (s ProcessorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEvaluating:
		return "evaluating"
	case StateAwaitingChildren:
		return "awaiting-children"
	case StateDoneForStep:
		return "done-for-step"
	default:
		return fmt.Sprintf("ProcessorState(%d)", int(s))
	}
}

// TransitionKind names the transition function an atomic processor ran.
type TransitionKind string

const (
	TransitionInternal  TransitionKind = "internal"
	TransitionExternal  TransitionKind = "external"
	TransitionConfluent TransitionKind = "confluent"
)

// Processor simulates exactly one model. The set of implementations is closed:
// *AtomicProcessor and *CoupledProcessor.
type Processor interface {
	Model() Model
	Kind() Kind
	// TimeOfLastEvent is tole.
	TimeOfLastEvent() Time
	// TimeOfNextEvent is tonie; Infinity when passive.
	TimeOfNextEvent() Time
	State() ProcessorState

	output(now Time) error
	transition(now Time) error
	detach()
}

// ProcessorFactory creates the processor for a submodel of parent, initialised at now.
type ProcessorFactory func(m Model, parent *CoupledProcessor, now Time) (Processor, error)

// DefaultProcessorFactory dispatches on the model's kind tag.
func DefaultProcessorFactory(m Model, parent *CoupledProcessor, now Time) (Processor, error) {
	if parent == nil {
		return nil, fmt.Errorf("processor for %s: nil parent", m.Name())
	}
	return newProcessor(m, parent, parent.run, now)
}

// Partition tells the kernel which processor factory to use for which submodel.
// Keys of ByPath are model paths as returned by Path.
type Partition struct {
	Default ProcessorFactory
	ByPath  map[string]ProcessorFactory
}

func (pt *Partition) factoryFor(m Model) ProcessorFactory {
	if pt != nil {
		if f, ok := pt.ByPath[Path(m)]; ok {
			return f
		}
		if pt.Default != nil {
			return pt.Default
		}
	}
	return DefaultProcessorFactory
}

// stepObserver receives per-processor notifications; the simulator uses it for tracing.
type stepObserver interface {
	transitioned(p Processor, kind TransitionKind, now Time)
}

// runState is shared by every processor of one tree.
type runState struct {
	step       uint64
	partition  *Partition
	observer   stepObserver
	processors map[Model]Processor
	changes    []ChangeRequest
}

func newRunState(partition *Partition, observer stepObserver) *runState {
	return &runState{
		partition:  partition,
		observer:   observer,
		processors: make(map[Model]Processor),
	}
}

// IsLive implements Scope: a context is live while a coupled processor simulates it.
func (r *runState) IsLive(ctx CoupledModel) bool {
	p, ok := r.processors[ctx]
	return ok && p.Kind() == KindCoupled
}

func (r *runState) collectChanges(m Model) {
	if m.Changes().Len() > 0 {
		r.changes = append(r.changes, m.Changes().drain()...)
	}
}

func (r *runState) drainChanges() []ChangeRequest {
	out := r.changes
	r.changes = nil
	return out
}

func newProcessor(m Model, parent MessageHandler, run *runState, now Time) (Processor, error) {
	if err := checkComparable(m); err != nil {
		return nil, err
	}
	var (
		p   Processor
		err error
	)
	switch m.Kind() {
	case KindAtomic:
		am, ok := m.(AtomicModel)
		if !ok {
			return nil, fmt.Errorf("model %s is tagged atomic but does not implement AtomicModel", m.Name())
		}
		p, err = newAtomicProcessor(am, parent, run, now)
	case KindCoupled:
		cm, ok := m.(CoupledModel)
		if !ok {
			return nil, fmt.Errorf("model %s is tagged coupled but does not implement CoupledModel", m.Name())
		}
		p, err = newCoupledProcessor(cm, parent, run, now)
	default:
		return nil, fmt.Errorf("model %s has unknown kind %s", m.Name(), m.Kind())
	}
	if err != nil {
		return nil, err
	}
	run.processors[m] = p
	return p, nil
}

// stepState tracks a processor's state, reporting idle for steps it took no part in.
type stepState struct {
	run   *runState
	step  uint64
	state ProcessorState
}

func (s *stepState) set(state ProcessorState) {
	s.step = s.run.step
	s.state = state
}

func (s *stepState) State() ProcessorState {
	if s.step != s.run.step {
		return StateIdle
	}
	return s.state
}

func hasPendingInput(p Processor) bool {
	return p.Model().InPorts().HasValues()
}
