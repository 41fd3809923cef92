package compose

import (
	"fmt"

	"github.com/devsim/devsim/sim"
	"github.com/devsim/devsim/sim/library"
	"github.com/sirupsen/logrus"
)

// Build instantiates the composition's model tree. Every atomic model gets its
// own random stream from rng, keyed by its model path.
func Build(comp *Composition, rng *sim.PartitionedRNG) (*sim.Coupled, error) {
	if comp.Root.Kind != KindCoupled {
		return nil, fmt.Errorf("root model %q must be coupled, got kind %q", comp.Root.Name, comp.Root.Kind)
	}
	m, err := buildModel(comp.Root, "", rng)
	if err != nil {
		return nil, err
	}
	root := m.(*sim.Coupled)
	logrus.Debugf("built composition %s: %d top-level submodels", comp.Name, len(root.Submodels()))
	return root, nil
}

func buildModel(spec ModelSpec, parentPath string, rng *sim.PartitionedRNG) (sim.Model, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("model under %q has no name", parentPath)
	}
	path := spec.Name
	if parentPath != "" {
		path = parentPath + "/" + spec.Name
	}

	if spec.Kind != KindCoupled {
		if len(spec.Models) > 0 || len(spec.Couplings) > 0 || len(spec.InPorts) > 0 || len(spec.OutPorts) > 0 {
			return nil, fmt.Errorf("model %s: only coupled models declare ports, submodels and couplings", path)
		}
		m, err := library.New(spec.Kind, spec.Name, spec.Params, rng.ForStream(path))
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", path, err)
		}
		return m, nil
	}

	if len(spec.Params) > 0 {
		return nil, fmt.Errorf("model %s: coupled models take no params", path)
	}
	c := sim.NewCoupled(spec.Name)
	for _, name := range spec.InPorts {
		if err := c.InPorts().Add(sim.NewPortOf[int](name)); err != nil {
			return nil, fmt.Errorf("model %s: %w", path, err)
		}
	}
	for _, name := range spec.OutPorts {
		if err := c.OutPorts().Add(sim.NewPortOf[int](name)); err != nil {
			return nil, fmt.Errorf("model %s: %w", path, err)
		}
	}
	for _, sub := range spec.Models {
		m, err := buildModel(sub, path, rng)
		if err != nil {
			return nil, err
		}
		if err := c.Add(m); err != nil {
			return nil, fmt.Errorf("model %s: %w", path, err)
		}
	}
	for _, cs := range spec.Couplings {
		cp, err := cs.Coupling()
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", path, err)
		}
		if err := c.Connect(cp); err != nil {
			return nil, fmt.Errorf("model %s: %w", path, err)
		}
	}
	return c, nil
}

// Stats counts the models and couplings of a built tree.
type Stats struct {
	Atomic    int
	Coupled   int
	Couplings int
}

// Count walks the tree rooted at m.
func Count(m sim.Model) Stats {
	var s Stats
	var walk func(sim.Model)
	walk = func(m sim.Model) {
		cm, ok := m.(sim.CoupledModel)
		if !ok {
			s.Atomic++
			return
		}
		s.Coupled++
		s.Couplings += len(cm.Couplings())
		for _, sub := range cm.Submodels() {
			walk(sub)
		}
	}
	walk(m)
	return s
}
