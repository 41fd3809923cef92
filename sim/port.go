package sim

import (
	"fmt"
	"reflect"
)

// PortObserver is notified after a port's pending values change.
type PortObserver func(p *Port)

// Port is a typed FIFO mailbox attached to a model.
//
// A port is owned by exactly one model and only that model's processor reads or
// writes it during an event step. Ports are not safe for concurrent use.
type Port struct {
	name      string
	typ       reflect.Type
	values    []any
	observers []PortObserver
}

// NewPort creates an empty port accepting values whose dynamic type is exactly typ.
// Panics if typ is nil.
func NewPort(name string, typ reflect.Type) *Port {
	if typ == nil {
		panic(fmt.Sprintf("Port %q: declared type must not be nil", name))
	}
	return &Port{name: name, typ: typ}
}

// NewPortOf creates an empty port declared for values of type T.
func NewPortOf[T any](name string) *Port {
	return NewPort(name, reflect.TypeFor[T]())
}

// Name returns the port name, unique within its owning model.
func (p *Port) Name() string {
	return p.name
}

// Type returns the declared value type.
func (p *Port) Type() reflect.Type {
	return p.typ
}

// Observe registers fn to be called whenever the port is marked changed.
func (p *Port) Observe(fn PortObserver) {
	p.observers = append(p.observers, fn)
}

func (p *Port) changed() {
	for _, fn := range p.observers {
		fn(p)
	}
}

// check accepts values of exactly the declared type, or implementations of it
// when the declared type is an interface.
func (p *Port) check(v any) error {
	got := reflect.TypeOf(v)
	if got == p.typ || (got != nil && p.typ.Kind() == reflect.Interface && got.Implements(p.typ)) {
		return nil
	}
	return fmt.Errorf("%w: port %q expects %s, got %s", ErrTypeMismatch, p.name, p.typ, typeName(got))
}

// Write appends v to the queue. On a type mismatch the queue is left untouched.
func (p *Port) Write(v any) error {
	if err := p.check(v); err != nil {
		return err
	}
	p.values = append(p.values, v)
	p.changed()
	return nil
}

// WriteAll appends vs in order. Every element is validated before any is
// appended, so a mismatch anywhere leaves the queue unchanged.
func (p *Port) WriteAll(vs ...any) error {
	for i, v := range vs {
		if err := p.check(v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	if len(vs) == 0 {
		return nil
	}
	p.values = append(p.values, vs...)
	p.changed()
	return nil
}

// Read removes and returns the oldest pending value. ok is false when the port is empty.
func (p *Port) Read() (v any, ok bool) {
	if len(p.values) == 0 {
		return nil, false
	}
	v = p.values[0]
	p.values[0] = nil
	p.values = p.values[1:]
	return v, true
}

// ReadAt returns the pending value at index without removing it.
func (p *Port) ReadAt(index int) (any, error) {
	if index < 0 || index >= len(p.values) {
		return nil, fmt.Errorf("%w: port %q has %d values, index %d", ErrOutOfRange, p.name, len(p.values), index)
	}
	return p.values[index], nil
}

// ReadAll returns a copy of the pending values, oldest first, without removing them.
func (p *Port) ReadAll() []any {
	out := make([]any, len(p.values))
	copy(out, p.values)
	return out
}

// Clear drops all pending values. Clearing an empty port does not notify observers.
func (p *Port) Clear() {
	if len(p.values) == 0 {
		return
	}
	p.values = nil
	p.changed()
}

// HasValue reports whether at least one value is pending.
func (p *Port) HasValue() bool {
	return len(p.values) > 0
}

// ValuesCount returns the number of pending values.
func (p *Port) ValuesCount() int {
	return len(p.values)
}

// ReadAs reads the oldest pending value of p as a T.
// ok is false when the port is empty or the port is not declared for T.
func ReadAs[T any](p *Port) (v T, ok bool) {
	if p.typ != reflect.TypeFor[T]() {
		return v, false
	}
	raw, ok := p.Read()
	if !ok {
		return v, false
	}
	return raw.(T), true
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}

// PortSet is an ordered collection of ports keyed by name.
type PortSet struct {
	ports []*Port
	index map[string]int
}

// NewPortSet creates a set holding ports in the given order.
// Panics on duplicate names.
func NewPortSet(ports ...*Port) *PortSet {
	ps := &PortSet{index: make(map[string]int)}
	for _, p := range ports {
		if err := ps.Add(p); err != nil {
			panic(err.Error())
		}
	}
	return ps
}

// Add appends p. Port names must be unique within the set.
func (ps *PortSet) Add(p *Port) error {
	if _, dup := ps.index[p.name]; dup {
		return fmt.Errorf("port %q already exists", p.name)
	}
	ps.index[p.name] = len(ps.ports)
	ps.ports = append(ps.ports, p)
	return nil
}

// Remove deletes the named port, keeping the order of the rest.
func (ps *PortSet) Remove(name string) bool {
	i, ok := ps.index[name]
	if !ok {
		return false
	}
	ps.ports = append(ps.ports[:i], ps.ports[i+1:]...)
	delete(ps.index, name)
	for j := i; j < len(ps.ports); j++ {
		ps.index[ps.ports[j].name] = j
	}
	return true
}

// Get looks a port up by name.
func (ps *PortSet) Get(name string) (*Port, bool) {
	i, ok := ps.index[name]
	if !ok {
		return nil, false
	}
	return ps.ports[i], true
}

// All returns the ports in insertion order.
func (ps *PortSet) All() []*Port {
	return ps.ports
}

// Len returns the number of ports.
func (ps *PortSet) Len() int {
	return len(ps.ports)
}

// HasValues reports whether any port in the set has a pending value.
func (ps *PortSet) HasValues() bool {
	for _, p := range ps.ports {
		if p.HasValue() {
			return true
		}
	}
	return false
}

// ClearAll clears every port in the set.
func (ps *PortSet) ClearAll() {
	for _, p := range ps.ports {
		p.Clear()
	}
}
