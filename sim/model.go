package sim

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind tags the capability set a model exposes to the kernel.
type Kind int

const (
	KindAtomic Kind = iota
	KindCoupled
)

func (k Kind) String() string {
	switch k {
	case KindAtomic:
		return "atomic"
	case KindCoupled:
		return "coupled"
	default:
		return "unknown"
	}
}

// Model is the part of a model the kernel needs regardless of kind.
// Implementations embed AtomicBase or *Coupled.
type Model interface {
	Name() string
	Kind() Kind
	InPorts() *PortSet
	OutPorts() *PortSet
	// Parent returns the enclosing coupled model, nil for the root.
	Parent() CoupledModel
	// Changes is the list of structural edits this model requested during its current step.
	Changes() *ChangeList
	setParent(CoupledModel)
}

// AtomicModel is a Parallel DEVS leaf.
type AtomicModel interface {
	Model
	// TimeAdvance returns the delay from the last event to the next internal event.
	TimeAdvance() Time
	// Output writes output-port values; called when the model is imminent, before its transition.
	Output(now Time) error
	InternalTransition(now Time) error
	// ExternalTransition consumes the pending input-port values.
	ExternalTransition(now Time, elapsed Time) error
}

// Confluent is implemented by atomic models that want to handle a simultaneous
// internal event and input themselves. Without it the kernel runs the internal
// transition followed by the external transition with zero elapsed time.
type Confluent interface {
	ConfluentTransition(now Time) error
}

// Initializer is implemented by models that need to set up state when their processor is created.
type Initializer interface {
	Init(now Time) error
}

// PreEventHook runs before an atomic model's output and transition functions.
type PreEventHook interface {
	PreEvent(now Time) error
}

// PostEventHook runs after an atomic model's transition function.
type PostEventHook interface {
	PostEvent(now Time) error
}

// CoupledModel is a container of submodels and the couplings between them.
type CoupledModel interface {
	Model
	// Submodels returns the direct children in insertion order.
	Submodels() []Model
	Submodel(name string) (Model, bool)
	// Couplings returns the couplings in insertion order.
	Couplings() []Coupling
	// ApplyChanges is the structural-mutation entry point. The reconciler hands it
	// requests already ordered by priority, all resolved to this context.
	ApplyChanges(reqs []ChangeRequest) error
}

// ChangeList collects change requests emitted by a model during its event step.
type ChangeList struct {
	reqs []ChangeRequest
}

// Request queues req for the next structural-change phase.
func (l *ChangeList) Request(req ChangeRequest) {
	l.reqs = append(l.reqs, req)
}

// Len returns the number of queued requests.
func (l *ChangeList) Len() int {
	return len(l.reqs)
}

func (l *ChangeList) drain() []ChangeRequest {
	out := l.reqs
	l.reqs = nil
	return out
}

// Base holds what every model carries: name, ports, parent and change list.
type Base struct {
	name    string
	in      *PortSet
	out     *PortSet
	parent  CoupledModel
	changes ChangeList
}

func newBase(name string) Base {
	return Base{name: name, in: NewPortSet(), out: NewPortSet()}
}

func (b *Base) Name() string             { return b.name }
func (b *Base) InPorts() *PortSet        { return b.in }
func (b *Base) OutPorts() *PortSet       { return b.out }
func (b *Base) Parent() CoupledModel     { return b.parent }
func (b *Base) Changes() *ChangeList     { return &b.changes }
func (b *Base) setParent(p CoupledModel) { b.parent = p }

// AddInPort is a construction helper. Panics on duplicate names.
func (b *Base) AddInPort(p *Port) *Port {
	if err := b.in.Add(p); err != nil {
		panic(b.name + ": " + err.Error())
	}
	return p
}

// AddOutPort is a construction helper. Panics on duplicate names.
func (b *Base) AddOutPort(p *Port) *Port {
	if err := b.out.Add(p); err != nil {
		panic(b.name + ": " + err.Error())
	}
	return p
}

// AtomicBase is embedded by atomic model implementations.
type AtomicBase struct {
	Base
}

// NewAtomicBase returns the embeddable base of an atomic model called name.
func NewAtomicBase(name string) AtomicBase {
	return AtomicBase{Base: newBase(name)}
}

func (AtomicBase) Kind() Kind { return KindAtomic }

// Path returns the slash-separated names from the root to m.
func Path(m Model) string {
	var names []string
	for cur := Model(m); cur != nil; {
		names = append(names, cur.Name())
		p := cur.Parent()
		if p == nil {
			break
		}
		cur = p
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// checkComparable rejects models that cannot key the kernel's processor tables.
func checkComparable(m Model) error {
	if t := reflect.TypeOf(m); t != nil && !t.Comparable() {
		return fmt.Errorf("%w: %s has type %s", ErrModelNotComparable, m.Name(), t)
	}
	return nil
}
