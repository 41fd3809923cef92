package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// CoupledProcessor drives a CoupledModel: it selects imminent children, routes
// their outputs along the couplings and keeps tonie at the minimum over its children.
type CoupledProcessor struct {
	stepState
	model    CoupledModel
	parent   MessageHandler
	children []Processor
	routes   map[Endpoint][]Endpoint
	tole     Time
	tonie    Time
}

func newCoupledProcessor(m CoupledModel, parent MessageHandler, run *runState, now Time) (*CoupledProcessor, error) {
	p := &CoupledProcessor{
		stepState: stepState{run: run},
		model:     m,
		parent:    parent,
		tole:      now,
		tonie:     Infinity,
	}
	for _, sub := range m.Submodels() {
		child, err := run.partition.factoryFor(sub)(sub, p, now)
		if err != nil {
			return nil, err
		}
		p.children = append(p.children, child)
	}
	p.buildRoutes()
	p.tonie = p.minChildTime()
	return p, nil
}

func (p *CoupledProcessor) Model() Model          { return p.model }
func (p *CoupledProcessor) Kind() Kind            { return KindCoupled }
func (p *CoupledProcessor) TimeOfLastEvent() Time { return p.tole }
func (p *CoupledProcessor) TimeOfNextEvent() Time { return p.tonie }

// Children returns the child processors in submodel order.
func (p *CoupledProcessor) Children() []Processor {
	return p.children
}

func (p *CoupledProcessor) buildRoutes() {
	p.routes = make(map[Endpoint][]Endpoint)
	for _, c := range p.model.Couplings() {
		p.routes[c.From] = append(p.routes[c.From], c.To)
	}
}

func (p *CoupledProcessor) minChildTime() Time {
	t := Infinity
	for _, c := range p.children {
		t = minTime(t, c.TimeOfNextEvent())
	}
	return t
}

// output collects the outputs of every imminent child, then forwards whatever
// reached this model's own output ports.
func (p *CoupledProcessor) output(now Time) error {
	p.set(StateAwaitingChildren)
	for _, c := range p.children {
		if c.TimeOfNextEvent() != now {
			continue
		}
		if err := c.output(now); err != nil {
			return err
		}
	}
	p.set(StateEvaluating)
	if msg := drainOutputs(p.model.OutPorts(), now); msg != nil {
		return p.parent.HandleOutput(p, msg)
	}
	return nil
}

// HandleOutput routes a child's output message along the couplings.
func (p *CoupledProcessor) HandleOutput(from Processor, msg *OutputMessage) error {
	for _, pv := range msg.Values {
		if err := p.route(Endpoint{Model: from.Model().Name(), Port: pv.Port}, pv.Values); err != nil {
			return err
		}
	}
	return nil
}

// HandleCompletion folds a child's new tonie into this processor's own.
func (p *CoupledProcessor) HandleCompletion(from Processor, msg CompletionMessage) {
	logrus.Tracef("[t=%s] %s completed, next event at %s", msg.Time, Path(from.Model()), msg.TimeOfNextEvent)
	p.tonie = p.minChildTime()
}

func (p *CoupledProcessor) route(src Endpoint, values []any) error {
	for _, dst := range p.routes[src] {
		var port *Port
		if dst.Model == Self {
			port, _ = p.model.OutPorts().Get(dst.Port)
		} else if sub, ok := p.model.Submodel(dst.Model); ok {
			port, _ = sub.InPorts().Get(dst.Port)
		}
		if port == nil {
			return fmt.Errorf("%s: coupling %s->%s has no destination port", Path(p.model), src, dst)
		}
		if err := port.WriteAll(values...); err != nil {
			return fmt.Errorf("%s: routing %s->%s: %w", Path(p.model), src, dst, err)
		}
	}
	return nil
}

// transition distributes inputs received from the parent, runs the transition of
// every child that is imminent or has input, and reports the new tonie upward.
func (p *CoupledProcessor) transition(now Time) error {
	p.set(StateAwaitingChildren)
	for _, in := range p.model.InPorts().All() {
		if !in.HasValue() {
			continue
		}
		if err := p.route(Endpoint{Model: Self, Port: in.Name()}, in.ReadAll()); err != nil {
			return err
		}
		in.Clear()
	}

	for _, c := range p.children {
		if c.TimeOfNextEvent() != now && !hasPendingInput(c) {
			continue
		}
		if err := c.transition(now); err != nil {
			return err
		}
	}

	p.set(StateEvaluating)
	p.tole = now
	p.tonie = p.minChildTime()
	p.run.collectChanges(p.model)
	p.set(StateDoneForStep)
	p.parent.HandleCompletion(p, CompletionMessage{Time: now, TimeOfNextEvent: p.tonie})
	return nil
}

// sync brings the child processors in line with the model's current submodels
// after a structural change. New submodels get processors initialised at now.
func (p *CoupledProcessor) sync(now Time) error {
	existing := make(map[Model]Processor, len(p.children))
	for _, c := range p.children {
		existing[c.Model()] = c
	}
	children := make([]Processor, 0, len(p.model.Submodels()))
	for _, sub := range p.model.Submodels() {
		if c, ok := existing[sub]; ok {
			children = append(children, c)
			delete(existing, sub)
			continue
		}
		c, err := p.run.partition.factoryFor(sub)(sub, p, now)
		if err != nil {
			return err
		}
		logrus.Debugf("[t=%s] %s: created processor for %s", now, Path(p.model), sub.Name())
		children = append(children, c)
	}
	for m, c := range existing {
		logrus.Debugf("[t=%s] %s: discarding processor of %s", now, Path(p.model), m.Name())
		c.detach()
	}
	p.children = children
	p.buildRoutes()
	p.refresh()
	return nil
}

// refresh recomputes tonie from the children and propagates it to the ancestors.
func (p *CoupledProcessor) refresh() {
	p.tonie = p.minChildTime()
	if parent, ok := p.parent.(*CoupledProcessor); ok {
		parent.refresh()
	}
}

func (p *CoupledProcessor) detach() {
	for _, c := range p.children {
		c.detach()
	}
	delete(p.run.processors, p.model)
}
