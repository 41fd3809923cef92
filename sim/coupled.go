package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Coupled is the concrete coupled model: an ordered set of submodels wired by couplings.
// Submodel order is the order in which simultaneous events are processed.
type Coupled struct {
	Base
	submodels []Model
	index     map[string]int
	couplings []Coupling
	version   uint64
}

// NewCoupled creates an empty coupled model.
func NewCoupled(name string) *Coupled {
	return &Coupled{Base: newBase(name), index: make(map[string]int)}
}

func (c *Coupled) Kind() Kind { return KindCoupled }

func (c *Coupled) Submodels() []Model { return c.submodels }

func (c *Coupled) Submodel(name string) (Model, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.submodels[i], true
}

func (c *Coupled) Couplings() []Coupling { return c.couplings }

// Version increments on every structural mutation of this model.
func (c *Coupled) Version() uint64 { return c.version }

// Add inserts m as the last submodel.
func (c *Coupled) Add(m Model) error {
	if m == nil {
		return errors.New("nil submodel")
	}
	if err := checkComparable(m); err != nil {
		return err
	}
	if m.Name() == Self {
		return errors.New("submodel name must not be empty")
	}
	if _, dup := c.index[m.Name()]; dup {
		return fmt.Errorf("submodel %q already exists in %s", m.Name(), c.Name())
	}
	if m.Parent() != nil {
		return fmt.Errorf("submodel %q already belongs to %s", m.Name(), Path(m.Parent()))
	}
	c.index[m.Name()] = len(c.submodels)
	c.submodels = append(c.submodels, m)
	m.setParent(c)
	c.version++
	return nil
}

// MustAdd adds every model or panics. Meant for building static compositions.
func (c *Coupled) MustAdd(models ...Model) *Coupled {
	for _, m := range models {
		if err := c.Add(m); err != nil {
			panic(err.Error())
		}
	}
	return c
}

// Remove deletes the named submodel together with every coupling touching it.
func (c *Coupled) Remove(name string) error {
	i, ok := c.index[name]
	if !ok {
		return fmt.Errorf("no submodel %q in %s", name, c.Name())
	}
	m := c.submodels[i]
	c.submodels = append(c.submodels[:i], c.submodels[i+1:]...)
	delete(c.index, name)
	for j := i; j < len(c.submodels); j++ {
		c.index[c.submodels[j].Name()] = j
	}
	c.dropCouplings(func(cp Coupling) bool {
		return cp.From.Model == name || cp.To.Model == name
	})
	m.setParent(nil)
	c.version++
	return nil
}

func (c *Coupled) dropCouplings(match func(Coupling) bool) {
	kept := c.couplings[:0]
	for _, cp := range c.couplings {
		if match(cp) {
			logrus.Debugf("%s: dropping dangling coupling %s", c.Name(), cp)
			continue
		}
		kept = append(kept, cp)
	}
	c.couplings = kept
}

// endpointPort resolves an endpoint. Sources are submodel outputs or own inputs,
// destinations are submodel inputs or own outputs.
func (c *Coupled) endpointPort(e Endpoint, source bool) (*Port, error) {
	var ps *PortSet
	switch {
	case e.Model == Self && source:
		ps = c.InPorts()
	case e.Model == Self:
		ps = c.OutPorts()
	default:
		m, ok := c.Submodel(e.Model)
		if !ok {
			return nil, fmt.Errorf("no submodel %q in %s", e.Model, c.Name())
		}
		if source {
			ps = m.OutPorts()
		} else {
			ps = m.InPorts()
		}
	}
	p, ok := ps.Get(e.Port)
	if !ok {
		return nil, fmt.Errorf("no port %s in %s", e, c.Name())
	}
	return p, nil
}

// Connect adds a coupling after checking that both ends exist and carry the same type.
func (c *Coupled) Connect(cp Coupling) error {
	if cp.From.Model == Self && cp.To.Model == Self {
		return fmt.Errorf("coupling %s connects %s to itself", cp, c.Name())
	}
	if cp.From.Model != Self && cp.From.Model == cp.To.Model {
		return fmt.Errorf("coupling %s is a self loop", cp)
	}
	src, err := c.endpointPort(cp.From, true)
	if err != nil {
		return err
	}
	dst, err := c.endpointPort(cp.To, false)
	if err != nil {
		return err
	}
	if src.Type() != dst.Type() {
		return fmt.Errorf("%w: coupling %s: %s carries %s but %s expects %s", ErrTypeMismatch, cp, cp.From, src.Type(), cp.To, dst.Type())
	}
	for _, existing := range c.couplings {
		if existing == cp {
			return fmt.Errorf("coupling %s already exists", cp)
		}
	}
	c.couplings = append(c.couplings, cp)
	c.version++
	return nil
}

// MustConnect connects every coupling or panics.
func (c *Coupled) MustConnect(cps ...Coupling) *Coupled {
	for _, cp := range cps {
		if err := c.Connect(cp); err != nil {
			panic(err.Error())
		}
	}
	return c
}

// Disconnect removes an existing coupling.
func (c *Coupled) Disconnect(cp Coupling) error {
	for i, existing := range c.couplings {
		if existing == cp {
			c.couplings = append(c.couplings[:i], c.couplings[i+1:]...)
			c.version++
			return nil
		}
	}
	return fmt.Errorf("no coupling %s in %s", cp, c.Name())
}

func (c *Coupled) owner(name string) (Model, error) {
	if name == Self {
		return c, nil
	}
	m, ok := c.Submodel(name)
	if !ok {
		return nil, fmt.Errorf("no submodel %q in %s", name, c.Name())
	}
	return m, nil
}

// ApplyChanges applies every request it can and reports the ones it could not.
// Failed requests leave the model as it was before that request.
func (c *Coupled) ApplyChanges(reqs []ChangeRequest) error {
	var errs []error
	for i, req := range reqs {
		if err := c.applyChange(req); err != nil {
			errs = append(errs, rejectChangeAt(i, req, "%v", err))
			continue
		}
		logrus.Infof("%s: applied %s", Path(c), req.Kind)
	}
	return errors.Join(errs...)
}

func (c *Coupled) applyChange(req ChangeRequest) error {
	switch req.Kind {
	case ChangeModelAdd:
		return c.Add(req.Model)
	case ChangeModelRemove:
		return c.Remove(req.Name)
	case ChangePortAdd:
		if req.Port == nil {
			return errors.New("nil port")
		}
		m, err := c.owner(req.Owner)
		if err != nil {
			return err
		}
		if err := portsOf(m, req.Direction).Add(req.Port); err != nil {
			return err
		}
		c.version++
		return nil
	case ChangePortRemove:
		m, err := c.owner(req.Owner)
		if err != nil {
			return err
		}
		if !portsOf(m, req.Direction).Remove(req.PortName) {
			return fmt.Errorf("no %s port %q on %s", req.Direction, req.PortName, m.Name())
		}
		// The removed port may have been a coupling source or destination.
		c.dropCouplings(func(cp Coupling) bool {
			return portReferenced(cp, req.Owner, req.PortName, req.Direction)
		})
		c.version++
		return nil
	case ChangeCouplingAdd:
		return c.Connect(req.Coupling)
	case ChangeCouplingRemove:
		return c.Disconnect(req.Coupling)
	case ChangeCouplingModify:
		return c.modifyCouplings(req.Added, req.Removed)
	default:
		return fmt.Errorf("unknown change kind %s", req.Kind)
	}
}

// portReferenced reports whether cp uses owner's port. For a submodel, out ports
// are sources and in ports destinations; for Self it is the other way round.
func portReferenced(cp Coupling, owner, port string, dir Direction) bool {
	asSource := (dir == Out) != (owner == Self)
	if asSource {
		return cp.From.Model == owner && cp.From.Port == port
	}
	return cp.To.Model == owner && cp.To.Port == port
}

func (c *Coupled) modifyCouplings(added, removed []Coupling) error {
	snapshot := append([]Coupling(nil), c.couplings...)
	restore := func(err error) error {
		c.couplings = snapshot
		return err
	}
	for _, cp := range removed {
		if err := c.Disconnect(cp); err != nil {
			return restore(err)
		}
	}
	for _, cp := range added {
		if err := c.Connect(cp); err != nil {
			return restore(err)
		}
	}
	return nil
}
