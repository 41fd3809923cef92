package library

import (
	"fmt"
	"math/rand"

	"github.com/devsim/devsim/sim"
)

// GeneratorConfig parameterises a Generator.
type GeneratorConfig struct {
	Period float64 // mean time between emissions
	Start  float64 // time of the first emission
	Limit  int     // number of emissions, 0 for unlimited
	Jitter float64 // relative spread of the period in [0, 1)
}

// Validate checks parameter ranges.
func (c GeneratorConfig) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("period must be > 0, got %v", c.Period)
	}
	if c.Start < 0 {
		return fmt.Errorf("start must be >= 0, got %v", c.Start)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", c.Limit)
	}
	if c.Jitter < 0 || c.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1), got %v", c.Jitter)
	}
	return nil
}

// Generator emits its sequence number on "out" once per period.
type Generator struct {
	sim.AtomicBase
	cfg     GeneratorConfig
	rng     *rand.Rand
	out     *sim.Port
	emitted int
	sigma   sim.Time
}

// NewGenerator creates a generator. rng may be nil when Jitter is 0.
func NewGenerator(name string, cfg GeneratorConfig, rng *rand.Rand) *Generator {
	g := &Generator{AtomicBase: sim.NewAtomicBase(name), cfg: cfg, rng: rng}
	g.out = g.AddOutPort(sim.NewPortOf[int]("out"))
	g.sigma = sim.Time(cfg.Start)
	return g
}

// Emitted returns how many values the generator produced.
func (g *Generator) Emitted() int { return g.emitted }

func (g *Generator) TimeAdvance() sim.Time {
	if g.cfg.Limit > 0 && g.emitted >= g.cfg.Limit {
		return sim.Infinity
	}
	return g.sigma
}

func (g *Generator) Output(now sim.Time) error {
	return g.out.Write(g.emitted)
}

func (g *Generator) InternalTransition(now sim.Time) error {
	g.emitted++
	g.sigma = sim.Time(g.cfg.Period)
	if g.cfg.Jitter > 0 && g.rng != nil {
		g.sigma *= sim.Time(1 + g.cfg.Jitter*(2*g.rng.Float64()-1))
	}
	return nil
}

func (g *Generator) ExternalTransition(now, elapsed sim.Time) error {
	g.sigma -= elapsed
	return nil
}
