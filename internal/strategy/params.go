package strategy

import (
	"encoding/json"
	"math"

	"github.com/newthinker/alphalab/internal/core"
)

// ParamType identifies the value domain of a strategy parameter.
type ParamType string

const (
	ParamInt   ParamType = "int"
	ParamFloat ParamType = "float"
)

// Param is one strategy parameter: a typed value with an optional
// permitted range.
type Param struct {
	Type     ParamType `json:"type"`
	Value    float64   `json:"value"`
	Min      float64   `json:"min,omitempty"`
	Max      float64   `json:"max,omitempty"`
	HasRange bool      `json:"has_range,omitempty"`
}

// Parameters is an ordered, named set of strategy parameters. Iteration
// and serialization follow insertion order. A set is immutable within a
// run; sensitivity sweeps operate on copies produced by WithValue.
type Parameters struct {
	order []string
	items map[string]Param
}

// NewParameters returns an empty parameter set.
func NewParameters() *Parameters {
	return &Parameters{items: make(map[string]Param)}
}

// Set adds or replaces a parameter. A replaced name keeps its original
// position in the order.
func (p *Parameters) Set(name string, prm Param) *Parameters {
	if p.items == nil {
		p.items = make(map[string]Param)
	}
	if _, exists := p.items[name]; !exists {
		p.order = append(p.order, name)
	}
	p.items[name] = prm
	return p
}

// Merge copies every parameter from the given sets into this one,
// overwriting values for names that already exist.
func (p *Parameters) Merge(others ...*Parameters) *Parameters {
	for _, other := range others {
		if other == nil {
			continue
		}
		for _, name := range other.order {
			p.Set(name, other.items[name])
		}
	}
	return p
}

// Get retrieves a parameter by name.
func (p *Parameters) Get(name string) (Param, bool) {
	if p == nil {
		return Param{}, false
	}
	prm, ok := p.items[name]
	return prm, ok
}

// FloatOr returns the parameter value, or the fallback when the name is
// not present.
func (p *Parameters) FloatOr(name string, fallback float64) float64 {
	if prm, ok := p.Get(name); ok {
		return prm.Value
	}
	return fallback
}

// IntOr returns the parameter value rounded to an int, or the fallback
// when the name is not present.
func (p *Parameters) IntOr(name string, fallback int) int {
	if prm, ok := p.Get(name); ok {
		return int(math.Round(prm.Value))
	}
	return fallback
}

// Names returns the parameter names in insertion order.
func (p *Parameters) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len returns the number of parameters.
func (p *Parameters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// Clone returns an independent deep copy.
func (p *Parameters) Clone() *Parameters {
	out := NewParameters()
	if p == nil {
		return out
	}
	out.order = make([]string, len(p.order))
	copy(out.order, p.order)
	for name, prm := range p.items {
		out.items[name] = prm
	}
	return out
}

// SetValue updates the value of an existing parameter, enforcing its
// range when one is declared.
func (p *Parameters) SetValue(name string, value float64) error {
	prm, ok := p.Get(name)
	if !ok {
		return core.WrapErrorf(core.ErrInvalidInput, "unknown parameter %q", name)
	}
	if prm.HasRange && (value < prm.Min || value > prm.Max) {
		return core.WrapErrorf(core.ErrInvalidInput,
			"parameter %q value %g outside range [%g, %g]", name, value, prm.Min, prm.Max)
	}
	prm.Value = value
	p.items[name] = prm
	return nil
}

// WithValue returns a deep copy with one value changed. The receiver is
// never modified.
func (p *Parameters) WithValue(name string, value float64) (*Parameters, error) {
	out := p.Clone()
	if err := out.SetValue(name, value); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks every parameter: declared ranges must be well formed
// and contain the value, and int parameters must hold integral values.
func (p *Parameters) Validate() error {
	if p == nil {
		return nil
	}
	for _, name := range p.order {
		prm := p.items[name]
		if prm.HasRange && prm.Min > prm.Max {
			return core.WrapErrorf(core.ErrInvalidInput,
				"parameter %q has inverted range [%g, %g]", name, prm.Min, prm.Max)
		}
		if prm.HasRange && (prm.Value < prm.Min || prm.Value > prm.Max) {
			return core.WrapErrorf(core.ErrInvalidInput,
				"parameter %q value %g outside range [%g, %g]", name, prm.Value, prm.Min, prm.Max)
		}
		if prm.Type == ParamInt && prm.Value != math.Trunc(prm.Value) {
			return core.WrapErrorf(core.ErrInvalidInput,
				"parameter %q is typed int but holds %g", name, prm.Value)
		}
	}
	return nil
}

type paramJSON struct {
	Name string `json:"name"`
	Param
}

// MarshalJSON serializes as an array so insertion order survives.
func (p *Parameters) MarshalJSON() ([]byte, error) {
	out := make([]paramJSON, 0, p.Len())
	if p != nil {
		for _, name := range p.order {
			out = append(out, paramJSON{Name: name, Param: p.items[name]})
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a set from its array form.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	var in []paramJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.order = nil
	p.items = make(map[string]Param, len(in))
	for _, item := range in {
		p.Set(item.Name, item.Param)
	}
	return nil
}
