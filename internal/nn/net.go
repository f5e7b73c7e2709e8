package nn

import (
	"fmt"
	"strings"

	"github.com/samcharles93/expkit/internal/state"
)

// Net is an ordered set of named child modules. State dict keys are the
// child name and the child's own key joined by ".", e.g. "fc.weight".
type Net struct {
	names    []string
	children map[string]Module
}

func NewNet() *Net {
	return &Net{children: make(map[string]Module)}
}

// Add appends a child, or replaces it in place when the name already exists.
func (n *Net) Add(name string, m Module) *Net {
	if _, ok := n.children[name]; !ok {
		n.names = append(n.names, name)
	}
	n.children[name] = m
	return n
}

// Layer returns the named child; a child stored as nil reports false.
func (n *Net) Layer(name string) (Module, bool) {
	m, ok := n.children[name]
	return m, ok && m != nil
}

// SetLayer replaces an existing child.
func (n *Net) SetLayer(name string, m Module) error {
	if _, ok := n.children[name]; !ok {
		return fmt.Errorf("net has no layer %q", name)
	}
	n.children[name] = m
	return nil
}

func (n *Net) Names() []string {
	return append([]string(nil), n.names...)
}

func (n *Net) Parameters() []*state.Parameter {
	var params []*state.Parameter
	for _, name := range n.names {
		if m := n.children[name]; m != nil {
			params = append(params, m.Parameters()...)
		}
	}
	return params
}

func (n *Net) StateDict() state.StateDict {
	sd := make(state.StateDict)
	for _, name := range n.names {
		m := n.children[name]
		if m == nil {
			continue
		}
		for k, v := range m.StateDict() {
			sd[name+"."+k] = v
		}
	}
	return sd
}

// LoadStateDict is strict: every key must belong to a child and every child
// must accept its share.
func (n *Net) LoadStateDict(sd state.StateDict) error {
	for _, k := range sd.Keys() {
		child, _, _ := strings.Cut(k, ".")
		if m, ok := n.children[child]; !ok || m == nil {
			return state.Mismatch("unexpected key %q", k)
		}
	}
	for _, name := range n.names {
		m := n.children[name]
		if m == nil {
			continue
		}
		if err := m.LoadStateDict(sd.Sub(name)); err != nil {
			return fmt.Errorf("layer %s: %w", name, err)
		}
	}
	return nil
}

func (n *Net) To(device state.Device) error {
	for _, name := range n.names {
		r, ok := n.children[name].(state.Relocatable)
		if !ok {
			continue
		}
		if err := r.To(device); err != nil {
			return fmt.Errorf("layer %s: %w", name, err)
		}
	}
	return nil
}
