package library

import (
	"fmt"
	"math/rand"

	"github.com/devsim/devsim/sim"
)

// Params are the per-model settings of a composition, keyed by parameter name.
type Params map[string]any

// Float returns the named parameter as a float64, or def when absent.
func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("parameter %q must be a number, got %T", name, v)
	}
}

// Int returns the named parameter as an int, or def when absent.
func (p Params) Int(name string, def int) (int, error) {
	f, err := p.Float(name, float64(def))
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("parameter %q must be an integer, got %v", name, f)
	}
	return int(f), nil
}

// Kinds lists the atomic model kinds New understands.
var Kinds = []string{"generator", "queue", "sink", "spawner"}

// New creates the library model kind called name. rng is the model's private stream.
func New(kind, name string, params Params, rng *rand.Rand) (sim.AtomicModel, error) {
	switch kind {
	case "generator":
		cfg, err := generatorConfig(params)
		if err != nil {
			return nil, fmt.Errorf("generator %s: %w", name, err)
		}
		return NewGenerator(name, cfg, rng), nil
	case "queue":
		service, err := params.Float("service_time", 1)
		if err != nil {
			return nil, fmt.Errorf("queue %s: %w", name, err)
		}
		if service <= 0 {
			return nil, fmt.Errorf("queue %s: service_time must be > 0, got %v", name, service)
		}
		return NewQueue(name, sim.Time(service)), nil
	case "sink":
		return NewSink(name), nil
	case "spawner":
		period, err := params.Float("period", 1)
		if err != nil {
			return nil, fmt.Errorf("spawner %s: %w", name, err)
		}
		maxLive, err := params.Int("max", 2)
		if err != nil {
			return nil, fmt.Errorf("spawner %s: %w", name, err)
		}
		limit, err := params.Int("limit", 0)
		if err != nil {
			return nil, fmt.Errorf("spawner %s: %w", name, err)
		}
		if period <= 0 || maxLive < 1 || limit < 0 {
			return nil, fmt.Errorf("spawner %s: need period > 0, max >= 1, limit >= 0", name)
		}
		return NewSpawner(name, sim.Time(period), maxLive, limit), nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", kind)
	}
}

func generatorConfig(params Params) (GeneratorConfig, error) {
	var cfg GeneratorConfig
	var err error
	if cfg.Period, err = params.Float("period", 1); err != nil {
		return cfg, err
	}
	if cfg.Start, err = params.Float("start", 0); err != nil {
		return cfg, err
	}
	if cfg.Jitter, err = params.Float("jitter", 0); err != nil {
		return cfg, err
	}
	if cfg.Limit, err = params.Int("limit", 0); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
