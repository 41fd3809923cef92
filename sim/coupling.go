package sim

import "fmt"

// Self names the enclosing coupled model in an Endpoint.
const Self = ""

// Endpoint addresses a port of a submodel, or of the enclosing coupled model when Model is Self.
type Endpoint struct {
	Model string
	Port  string
}

func (e Endpoint) String() string {
	if e.Model == Self {
		return "@." + e.Port
	}
	return e.Model + "." + e.Port
}

// Coupling connects an output port to an input port inside one coupled model.
// Self as source is an external input coupling, Self as destination an external output coupling.
type Coupling struct {
	From Endpoint
	To   Endpoint
}

// Couple is shorthand for a Coupling between two endpoints.
func Couple(fromModel, fromPort, toModel, toPort string) Coupling {
	return Coupling{
		From: Endpoint{Model: fromModel, Port: fromPort},
		To:   Endpoint{Model: toModel, Port: toPort},
	}
}

func (c Coupling) String() string {
	return fmt.Sprintf("%s->%s", c.From, c.To)
}

// Direction selects a model's input or output port set.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

func portsOf(m Model, dir Direction) *PortSet {
	if dir == Out {
		return m.OutPorts()
	}
	return m.InPorts()
}
