package compose

import (
	"fmt"

	"github.com/devsim/devsim/sim"
	"github.com/devsim/devsim/sim/library"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclFile is the top-level structure of an HCL composition:
//
//	name = "pipeline"
//	simulation {
//	  horizon = 10
//	}
//	model "generator" "gen" {
//	  params = { period = 1 }
//	}
//	coupling {
//	  from = "gen.out"
//	  to   = "@.out"
//	}
//
// The file body is the root coupled model.
type hclFile struct {
	Name       string         `hcl:"name"`
	Simulation *hclSimulation `hcl:"simulation,block"`
	InPorts    []string       `hcl:"in_ports,optional"`
	OutPorts   []string       `hcl:"out_ports,optional"`
	Models     []*hclModel    `hcl:"model,block"`
	Couplings  []*hclCoupling `hcl:"coupling,block"`
}

type hclSimulation struct {
	Horizon    float64 `hcl:"horizon,optional"`
	MaxSteps   int     `hcl:"max_steps,optional"`
	Seed       int64   `hcl:"seed,optional"`
	ChangeMode string  `hcl:"change_mode,optional"`
	TraceLevel string  `hcl:"trace_level,optional"`
}

type hclModel struct {
	Kind      string         `hcl:"kind,label"`
	Name      string         `hcl:"name,label"`
	Params    hcl.Expression `hcl:"params,optional"`
	InPorts   []string       `hcl:"in_ports,optional"`
	OutPorts  []string       `hcl:"out_ports,optional"`
	Models    []*hclModel    `hcl:"model,block"`
	Couplings []*hclCoupling `hcl:"coupling,block"`
}

type hclCoupling struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// LoadHCL reads an HCL composition.
func LoadHCL(path string) (*Composition, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decodeHCL(file.Body, path)
}

// ParseHCL decodes an in-memory HCL composition; filename is used in diagnostics.
func ParseHCL(src []byte, filename string) (*Composition, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decodeHCL(file.Body, filename)
}

func decodeHCL(body hcl.Body, filename string) (*Composition, error) {
	var parsed hclFile
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	comp := &Composition{
		Name: parsed.Name,
		Root: ModelSpec{
			Name:     parsed.Name,
			Kind:     KindCoupled,
			InPorts:  parsed.InPorts,
			OutPorts: parsed.OutPorts,
		},
	}
	if s := parsed.Simulation; s != nil {
		comp.Simulation = sim.Config{
			Horizon:    s.Horizon,
			MaxSteps:   s.MaxSteps,
			Seed:       s.Seed,
			ChangeMode: sim.ChangeMode(s.ChangeMode),
			TraceLevel: s.TraceLevel,
		}
	}
	var err error
	if comp.Root.Models, err = convertModels(parsed.Models); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	comp.Root.Couplings = convertCouplings(parsed.Couplings)
	return comp, nil
}

func convertModels(in []*hclModel) ([]ModelSpec, error) {
	out := make([]ModelSpec, 0, len(in))
	for _, m := range in {
		spec := ModelSpec{
			Name:      m.Name,
			Kind:      m.Kind,
			InPorts:   m.InPorts,
			OutPorts:  m.OutPorts,
			Couplings: convertCouplings(m.Couplings),
		}
		params, err := decodeParams(m.Params)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Name, err)
		}
		spec.Params = params
		if spec.Models, err = convertModels(m.Models); err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

func convertCouplings(in []*hclCoupling) []CouplingSpec {
	out := make([]CouplingSpec, 0, len(in))
	for _, c := range in {
		out = append(out, CouplingSpec{From: c.From, To: c.To})
	}
	return out
}

// decodeParams evaluates a params object expression into Go values.
func decodeParams(expr hcl.Expression) (library.Params, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("params must be an object, got %s", val.Type().FriendlyName())
	}
	converted, err := ctyValueToInterface(val)
	if err != nil {
		return nil, err
	}
	return library.Params(converted.(map[string]any)), nil
}

// ctyValueToInterface converts a cty.Value to plain Go values.
func ctyValueToInterface(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			conv, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = conv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			conv, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
