package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// AtomicProcessor drives an AtomicModel through the Parallel DEVS step protocol.
type AtomicProcessor struct {
	stepState
	model  AtomicModel
	parent MessageHandler
	tole   Time
	tonie  Time
	// preEventDone is set when the pre-event hook already ran in this step's output phase.
	preEventDone bool
}

func newAtomicProcessor(m AtomicModel, parent MessageHandler, run *runState, now Time) (*AtomicProcessor, error) {
	p := &AtomicProcessor{
		stepState: stepState{run: run},
		model:     m,
		parent:    parent,
		tole:      now,
	}
	if init, ok := m.(Initializer); ok {
		if err := init.Init(now); err != nil {
			return nil, p.fail(PhaseInit, now, err)
		}
		run.collectChanges(m)
	}
	tonie, err := p.nextEvent(now)
	if err != nil {
		return nil, err
	}
	p.tonie = tonie
	return p, nil
}

func (p *AtomicProcessor) Model() Model          { return p.model }
func (p *AtomicProcessor) Kind() Kind            { return KindAtomic }
func (p *AtomicProcessor) TimeOfLastEvent() Time { return p.tole }
func (p *AtomicProcessor) TimeOfNextEvent() Time { return p.tonie }

func (p *AtomicProcessor) fail(phase Phase, now Time, err error) error {
	return &TransitionError{Model: Path(p.model), Phase: phase, Time: now, Err: err}
}

func (p *AtomicProcessor) nextEvent(now Time) (Time, error) {
	ta := p.model.TimeAdvance()
	if ta < 0 || math.IsNaN(float64(ta)) {
		return 0, p.fail(PhaseTimeAdvance, now, fmt.Errorf("%w: %s", ErrInvalidTimeAdvance, ta))
	}
	return now + ta, nil
}

func (p *AtomicProcessor) preEvent(now Time) error {
	if p.preEventDone {
		return nil
	}
	p.preEventDone = true
	if hook, ok := p.model.(PreEventHook); ok {
		if err := hook.PreEvent(now); err != nil {
			return p.fail(PhasePreEvent, now, err)
		}
	}
	return nil
}

// output runs the output function of an imminent model and hands the produced
// values to the parent.
func (p *AtomicProcessor) output(now Time) error {
	p.set(StateEvaluating)
	p.preEventDone = false
	if err := p.preEvent(now); err != nil {
		return err
	}
	if err := p.model.Output(now); err != nil {
		return p.fail(PhaseOutput, now, err)
	}
	if msg := drainOutputs(p.model.OutPorts(), now); msg != nil {
		return p.parent.HandleOutput(p, msg)
	}
	return nil
}

// transition runs the transition function selected by imminence and pending input,
// then reports the new time of next event to the parent.
func (p *AtomicProcessor) transition(now Time) error {
	imminent := p.tonie == now
	if p.State() == StateIdle {
		p.set(StateEvaluating)
		p.preEventDone = false
	}
	if err := p.preEvent(now); err != nil {
		return err
	}

	var (
		kind  TransitionKind
		phase Phase
		err   error
	)
	switch {
	case imminent && hasPendingInput(p):
		kind, phase = TransitionConfluent, PhaseConfluent
		if c, ok := p.model.(Confluent); ok {
			err = c.ConfluentTransition(now)
		} else if err = p.model.InternalTransition(now); err == nil {
			err = p.model.ExternalTransition(now, 0)
		}
	case imminent:
		kind, phase = TransitionInternal, PhaseInternal
		err = p.model.InternalTransition(now)
	default:
		kind, phase = TransitionExternal, PhaseExternal
		err = p.model.ExternalTransition(now, now-p.tole)
	}
	if err != nil {
		return p.fail(phase, now, err)
	}
	p.model.InPorts().ClearAll()

	tonie, err := p.nextEvent(now)
	if err != nil {
		return err
	}
	p.tole, p.tonie = now, tonie

	if hook, ok := p.model.(PostEventHook); ok {
		if err := hook.PostEvent(now); err != nil {
			return p.fail(PhasePostEvent, now, err)
		}
	}
	p.run.collectChanges(p.model)
	p.set(StateDoneForStep)
	logrus.Debugf("[t=%s] %s %s transition, next event at %s", now, Path(p.model), kind, p.tonie)
	if p.run.observer != nil {
		p.run.observer.transitioned(p, kind, now)
	}
	p.parent.HandleCompletion(p, CompletionMessage{Time: now, TimeOfNextEvent: p.tonie})
	return nil
}

func (p *AtomicProcessor) detach() {
	delete(p.run.processors, p.model)
}
