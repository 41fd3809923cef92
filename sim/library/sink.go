package library

import "github.com/devsim/devsim/sim"

// Sink records every value it receives on "in". It never schedules an internal event.
type Sink struct {
	sim.AtomicBase
	in       *sim.Port
	Received []int
	// Arrivals holds the time each value was received.
	Arrivals []sim.Time
}

// NewSink creates an empty sink.
func NewSink(name string) *Sink {
	s := &Sink{AtomicBase: sim.NewAtomicBase(name)}
	s.in = s.AddInPort(sim.NewPortOf[int]("in"))
	return s
}

func (s *Sink) TimeAdvance() sim.Time                 { return sim.Infinity }
func (s *Sink) Output(now sim.Time) error             { return nil }
func (s *Sink) InternalTransition(now sim.Time) error { return nil }

func (s *Sink) ExternalTransition(now, elapsed sim.Time) error {
	for _, v := range s.in.ReadAll() {
		s.Received = append(s.Received, v.(int))
		s.Arrivals = append(s.Arrivals, now)
	}
	return nil
}
