package sim

import (
	"fmt"
	"strings"
)

// ChangeKind tags the variant of a ChangeRequest.
type ChangeKind int

const (
	ChangeModelAdd ChangeKind = iota + 1
	ChangePortAdd
	ChangeCouplingAdd
	ChangeCouplingModify
	ChangeCouplingRemove
	ChangePortRemove
	ChangeModelRemove
)

// Priority orders change kinds for application: additions from the outside in,
// then removals from the inside out. Lower runs first.
func (k ChangeKind) Priority() int {
	switch k {
	case ChangeModelAdd:
		return 1
	case ChangePortAdd:
		return 2
	case ChangeCouplingAdd:
		return 3
	case ChangeCouplingModify:
		return 4
	case ChangeCouplingRemove:
		return 5
	case ChangePortRemove:
		return 6
	case ChangeModelRemove:
		return 7
	default:
		return 0
	}
}

func (k ChangeKind) String() string {
	switch k {
	case ChangeModelAdd:
		return "model-add"
	case ChangePortAdd:
		return "port-add"
	case ChangeCouplingAdd:
		return "coupling-add"
	case ChangeCouplingModify:
		return "coupling-modify"
	case ChangeCouplingRemove:
		return "coupling-remove"
	case ChangePortRemove:
		return "port-remove"
	case ChangeModelRemove:
		return "model-remove"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// ChangeRequest is a structural edit requested by a model during its event step.
// Which payload fields are meaningful depends on Kind; build requests with the
// constructors below.
type ChangeRequest struct {
	Kind ChangeKind
	// Context is the coupled model the change applies within. It may be nil for
	// requests whose target is added by another request of the same batch.
	Context CoupledModel

	// model-add / model-remove
	Model Model
	Name  string

	// port-add / port-remove; Owner is a submodel name or Self
	Owner     string
	Direction Direction
	Port      *Port
	PortName  string

	// coupling-add / coupling-remove / coupling-modify
	Coupling Coupling
	Added    []Coupling
	Removed  []Coupling
}

// AddModel requests that m become a submodel of ctx.
func AddModel(ctx CoupledModel, m Model) ChangeRequest {
	return ChangeRequest{Kind: ChangeModelAdd, Context: ctx, Model: m, Name: m.Name()}
}

// RemoveModel requests removal of ctx's submodel called name.
func RemoveModel(ctx CoupledModel, name string) ChangeRequest {
	return ChangeRequest{Kind: ChangeModelRemove, Context: ctx, Name: name}
}

// AddPort requests that p be added to owner's ports in direction dir.
func AddPort(ctx CoupledModel, owner string, dir Direction, p *Port) ChangeRequest {
	return ChangeRequest{Kind: ChangePortAdd, Context: ctx, Owner: owner, Direction: dir, Port: p, PortName: p.Name()}
}

// RemovePort requests removal of owner's port called name.
func RemovePort(ctx CoupledModel, owner string, dir Direction, name string) ChangeRequest {
	return ChangeRequest{Kind: ChangePortRemove, Context: ctx, Owner: owner, Direction: dir, PortName: name}
}

// AddCoupling requests a new coupling inside ctx.
func AddCoupling(ctx CoupledModel, c Coupling) ChangeRequest {
	return ChangeRequest{Kind: ChangeCouplingAdd, Context: ctx, Coupling: c}
}

// RemoveCoupling requests removal of a coupling inside ctx.
func RemoveCoupling(ctx CoupledModel, c Coupling) ChangeRequest {
	return ChangeRequest{Kind: ChangeCouplingRemove, Context: ctx, Coupling: c}
}

// ModifyCouplings requests that removed and added couplings be swapped in as one edit.
func ModifyCouplings(ctx CoupledModel, added, removed []Coupling) ChangeRequest {
	return ChangeRequest{Kind: ChangeCouplingModify, Context: ctx, Added: added, Removed: removed}
}

// Targets returns the submodel names the request refers to, used to resolve a missing context.
func (r ChangeRequest) Targets() []string {
	var names []string
	add := func(n string) {
		if n != Self {
			names = append(names, n)
		}
	}
	switch r.Kind {
	case ChangeModelAdd, ChangeModelRemove:
		add(r.Name)
	case ChangePortAdd, ChangePortRemove:
		add(r.Owner)
	case ChangeCouplingAdd, ChangeCouplingRemove:
		add(r.Coupling.From.Model)
		add(r.Coupling.To.Model)
	case ChangeCouplingModify:
		for _, c := range r.Added {
			add(c.From.Model)
			add(c.To.Model)
		}
		for _, c := range r.Removed {
			add(c.From.Model)
			add(c.To.Model)
		}
	}
	return names
}

func (r ChangeRequest) String() string {
	ctx := "<nil>"
	if r.Context != nil {
		ctx = Path(r.Context)
	}
	switch r.Kind {
	case ChangeModelAdd, ChangeModelRemove:
		return fmt.Sprintf("%s %s in %s", r.Kind, r.Name, ctx)
	case ChangePortAdd, ChangePortRemove:
		owner := r.Owner
		if owner == Self {
			owner = "@"
		}
		return fmt.Sprintf("%s %s.%s(%s) in %s", r.Kind, owner, r.PortName, r.Direction, ctx)
	case ChangeCouplingAdd, ChangeCouplingRemove:
		return fmt.Sprintf("%s %s in %s", r.Kind, r.Coupling, ctx)
	case ChangeCouplingModify:
		return fmt.Sprintf("%s +[%s] -[%s] in %s", r.Kind, joinCouplings(r.Added), joinCouplings(r.Removed), ctx)
	default:
		return r.Kind.String()
	}
}

func joinCouplings(cs []Coupling) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
