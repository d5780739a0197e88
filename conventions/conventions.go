package conventions

import (
	"fmt"
	"math"
	"sort"
)

// Convention fixes the scale of the reciprocal basis relative to the
// direct basis: a_i·b_j = Factor()·spacing·δ_ij.
type Convention interface {
	Name() string
	Factor() float64
	ToMap() map[string]interface{}
}

type ConventionFactory func() Convention

var conventions = map[string]ConventionFactory{}

// Default is the convention used by the visualization contract.
const Default = "crystallographic"

func RegisterConvention(name string, factory ConventionFactory) {
	conventions[name] = factory
}

func NewConvention(name string) (Convention, error) {
	if name == "" {
		name = Default
	}
	if factory, ok := conventions[name]; ok {
		return factory(), nil
	}
	return nil, fmt.Errorf("unknown reciprocal convention `%s` (known: %v)", name, Names())
}

func Names() []string {
	names := make([]string, 0, len(conventions))
	for name := range conventions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Crystallographic is the a_i·b_j = δ_ij convention, no 2π factor.
type Crystallographic struct{}

func (Crystallographic) Name() string    { return "crystallographic" }
func (Crystallographic) Factor() float64 { return 1.0 }
func (c Crystallographic) ToMap() map[string]interface{} {
	return map[string]interface{}{"type": c.Name(), "factor": c.Factor()}
}

// Physics is the solid-state convention a_i·b_j = 2π δ_ij.
type Physics struct{}

func (Physics) Name() string    { return "physics" }
func (Physics) Factor() float64 { return 2 * math.Pi }
func (p Physics) ToMap() map[string]interface{} {
	return map[string]interface{}{"type": p.Name(), "factor": p.Factor()}
}

func init() {
	RegisterConvention("crystallographic", func() Convention {
		return Crystallographic{}
	})
	RegisterConvention("physics", func() Convention {
		return Physics{}
	})
}
