package sim

import (
	"fmt"
	"testing"
)

// probe is a scriptable atomic model for kernel tests. It fires once at sigma,
// then waits after (Infinity unless set). Every call is appended to log.
type probe struct {
	AtomicBase
	in, out *Port
	sigma   Time
	after   Time
	emit    []any
	log     *[]string

	received []any
	failIn   Phase
	failErr  error
	// onInternal runs inside InternalTransition, typically to request changes.
	onInternal func(now Time)
}

func newProbe(name string, sigma Time, log *[]string) *probe {
	p := &probe{AtomicBase: NewAtomicBase(name), sigma: sigma, after: Infinity, log: log}
	p.in = p.AddInPort(NewPortOf[int]("in"))
	p.out = p.AddOutPort(NewPortOf[int]("out"))
	return p
}

func (p *probe) record(format string, args ...any) {
	if p.log != nil {
		*p.log = append(*p.log, p.Name()+":"+fmt.Sprintf(format, args...))
	}
}

func (p *probe) fail(phase Phase) error {
	if p.failIn == phase {
		if p.failErr != nil {
			return p.failErr
		}
		return fmt.Errorf("%s failed on purpose", phase)
	}
	return nil
}

func (p *probe) TimeAdvance() Time { return p.sigma }

func (p *probe) Output(now Time) error {
	p.record("output@%s", now)
	if err := p.fail(PhaseOutput); err != nil {
		return err
	}
	for _, v := range p.emit {
		if err := p.out.Write(v); err != nil {
			return err
		}
	}
	return nil
}

func (p *probe) InternalTransition(now Time) error {
	p.record("internal@%s", now)
	if err := p.fail(PhaseInternal); err != nil {
		return err
	}
	p.sigma = p.after
	if p.onInternal != nil {
		p.onInternal(now)
	}
	return nil
}

func (p *probe) ExternalTransition(now, elapsed Time) error {
	p.record("external@%s e=%s", now, elapsed)
	if err := p.fail(PhaseExternal); err != nil {
		return err
	}
	p.received = append(p.received, p.in.ReadAll()...)
	if !p.sigma.IsInfinite() {
		p.sigma -= elapsed
	}
	return nil
}

// confluentProbe overrides the default internal-then-external ordering.
type confluentProbe struct {
	*probe
}

func (c confluentProbe) ConfluentTransition(now Time) error {
	c.record("confluent@%s", now)
	c.received = append(c.received, c.in.ReadAll()...)
	c.sigma = c.after
	return nil
}

// hookedProbe records pre- and post-event hooks.
type hookedProbe struct {
	*probe
}

func (h hookedProbe) PreEvent(now Time) error {
	h.record("pre@%s", now)
	return nil
}

func (h hookedProbe) PostEvent(now Time) error {
	h.record("post@%s", now)
	return nil
}

// initProbe requests a change from its Init hook. Use it through a pointer:
// the func field makes the struct value unusable as a model.
type initProbe struct {
	*probe
	init func(now Time)
}

func (i *initProbe) Init(now Time) error {
	i.record("init@%s", now)
	if i.init != nil {
		i.init(now)
	}
	return nil
}

// sliceModel holds a slice by value, which makes it unusable as a map key.
type sliceModel struct {
	*probe
	tags []string
}

// newRoot wraps models in a coupled model called "root".
func newRoot(models ...Model) *Coupled {
	return NewCoupled("root").MustAdd(models...)
}

func mustSimulator(t *testing.T, root Model, cfg Config, opts ...Option) *Simulator {
	t.Helper()
	s, err := NewSimulator(root, cfg, opts...)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}
