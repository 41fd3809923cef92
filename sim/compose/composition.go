// Package compose turns composition files into model trees ready for sim.NewSimulator.
//
// A composition names a root coupled model, its submodels (library kinds or
// nested coupled models) and their couplings, plus the run configuration.
// Compositions are written in YAML or HCL; both decode into the same Composition.
package compose

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devsim/devsim/sim"
	"github.com/devsim/devsim/sim/library"
)

// KindCoupled marks a ModelSpec that is itself a coupled model.
const KindCoupled = "coupled"

// Composition is a complete simulation description.
type Composition struct {
	Name       string     `yaml:"name"`
	Simulation sim.Config `yaml:"simulation"`
	Root       ModelSpec  `yaml:"root"`
}

// ModelSpec describes one model. InPorts and OutPorts only apply to coupled
// models; atomic models declare their own ports.
type ModelSpec struct {
	Name      string         `yaml:"name"`
	Kind      string         `yaml:"kind"`
	Params    library.Params `yaml:"params,omitempty"`
	InPorts   []string       `yaml:"in_ports,omitempty"`
	OutPorts  []string       `yaml:"out_ports,omitempty"`
	Models    []ModelSpec    `yaml:"models,omitempty"`
	Couplings []CouplingSpec `yaml:"couplings,omitempty"`
}

// CouplingSpec connects two "model.port" endpoints. "@.port" is a port of the
// enclosing coupled model.
type CouplingSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ParseEndpoint parses "model.port" or "@.port".
func ParseEndpoint(s string) (sim.Endpoint, error) {
	model, port, ok := strings.Cut(s, ".")
	if !ok || model == "" || port == "" {
		return sim.Endpoint{}, fmt.Errorf("endpoint %q must look like model.port or @.port", s)
	}
	if model == "@" {
		model = sim.Self
	}
	return sim.Endpoint{Model: model, Port: port}, nil
}

// Coupling converts the spec into a sim.Coupling.
func (c CouplingSpec) Coupling() (sim.Coupling, error) {
	from, err := ParseEndpoint(c.From)
	if err != nil {
		return sim.Coupling{}, err
	}
	to, err := ParseEndpoint(c.To)
	if err != nil {
		return sim.Coupling{}, err
	}
	return sim.Coupling{From: from, To: to}, nil
}

// Load reads a composition file, choosing the decoder by extension.
func Load(path string) (*Composition, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".hcl":
		return LoadHCL(path)
	default:
		return nil, fmt.Errorf("composition %s: unsupported file extension %q (want .yaml, .yml or .hcl)", path, ext)
	}
}

// setDefaults names an unnamed root after the composition and marks it coupled.
func (c *Composition) setDefaults() {
	if c.Root.Kind == "" {
		c.Root.Kind = KindCoupled
	}
	if c.Root.Name == "" {
		c.Root.Name = c.Name
	}
}
