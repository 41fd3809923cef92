package library

import (
	"fmt"

	"github.com/devsim/devsim/sim"
)

// Spawner restructures its parent while the simulation runs. Every period it
// emits its spawn count and then requests:
//   - a new sink "<name>-sink-<k>" in the parent
//   - a new output port "tap-<k>" on itself, coupled to that sink
//   - the retargeting of its "out" port from the previous sink to the new one
//
// Once more than max sinks are alive the oldest one is removed together with
// its tap port and coupling.
type Spawner struct {
	sim.AtomicBase
	period  sim.Time
	maxLive int
	limit   int
	out     *sim.Port
	spawned int
	live    []int
	sigma   sim.Time
}

// NewSpawner creates a spawner. limit 0 spawns forever.
func NewSpawner(name string, period sim.Time, maxLive, limit int) *Spawner {
	s := &Spawner{AtomicBase: sim.NewAtomicBase(name), period: period, maxLive: maxLive, limit: limit, sigma: period}
	s.out = s.AddOutPort(sim.NewPortOf[int]("out"))
	return s
}

// Spawned returns how many sinks were requested so far.
func (s *Spawner) Spawned() int { return s.spawned }

// Live returns the names of the sinks the spawner believes alive, oldest first.
func (s *Spawner) Live() []string {
	names := make([]string, len(s.live))
	for i, k := range s.live {
		names[i] = s.sinkName(k)
	}
	return names
}

func (s *Spawner) sinkName(k int) string { return fmt.Sprintf("%s-sink-%d", s.Name(), k) }

func tapName(k int) string { return fmt.Sprintf("tap-%d", k) }

func (s *Spawner) TimeAdvance() sim.Time {
	if s.limit > 0 && s.spawned >= s.limit {
		return sim.Infinity
	}
	return s.sigma
}

// Output writes the spawn count on "out" and on every tap.
func (s *Spawner) Output(now sim.Time) error {
	if err := s.out.Write(s.spawned); err != nil {
		return err
	}
	for _, k := range s.live {
		tap, ok := s.OutPorts().Get(tapName(k))
		if !ok {
			continue
		}
		if err := tap.Write(s.spawned); err != nil {
			return err
		}
	}
	return nil
}

func (s *Spawner) InternalTransition(now sim.Time) error {
	parent := s.Parent()
	if parent == nil {
		return fmt.Errorf("spawner %s has no parent to grow", s.Name())
	}
	s.spawned++
	s.sigma = s.period
	k := s.spawned
	sink := s.sinkName(k)
	changes := s.Changes()

	changes.Request(sim.AddModel(parent, NewSink(sink)))
	changes.Request(sim.AddPort(parent, s.Name(), sim.Out, sim.NewPortOf[int](tapName(k))))
	// The context of the tap coupling is taken from the pending sink addition.
	changes.Request(sim.AddCoupling(nil, sim.Couple(s.Name(), tapName(k), sink, "in")))
	retarget := sim.Couple(s.Name(), "out", sink, "in")
	if n := len(s.live); n == 0 {
		changes.Request(sim.AddCoupling(parent, retarget))
	} else {
		prev := sim.Couple(s.Name(), "out", s.sinkName(s.live[n-1]), "in")
		changes.Request(sim.ModifyCouplings(parent, []sim.Coupling{retarget}, []sim.Coupling{prev}))
	}
	s.live = append(s.live, k)

	if len(s.live) > s.maxLive {
		oldest := s.live[0]
		s.live = s.live[1:]
		changes.Request(sim.RemoveCoupling(parent, sim.Couple(s.Name(), tapName(oldest), s.sinkName(oldest), "in")))
		changes.Request(sim.RemovePort(parent, s.Name(), sim.Out, tapName(oldest)))
		changes.Request(sim.RemoveModel(parent, s.sinkName(oldest)))
	}
	return nil
}

func (s *Spawner) ExternalTransition(now, elapsed sim.Time) error {
	s.sigma -= elapsed
	return nil
}
