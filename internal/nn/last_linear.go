package nn

import "errors"

var ErrNoLastLinear = errors.New("nn: model has no fc or last_linear layer")

// LastLinearNames lists the attribute names probed for a model's final
// linear layer, in priority order.
var LastLinearNames = []string{"fc", "last_linear"}

// LayerLookup is satisfied by containers with named children, such as Net.
type LayerLookup interface {
	Layer(name string) (Module, bool)
}

// LayerSetter replaces a named child.
type LayerSetter interface {
	LayerLookup
	SetLayer(name string, m Module) error
}

// GetLastLinear returns the first present candidate from LastLinearNames and
// the name it was found under.
func GetLastLinear(m LayerLookup) (Module, string, bool) {
	for _, name := range LastLinearNames {
		if layer, ok := m.Layer(name); ok {
			return layer, name, true
		}
	}
	return nil, "", false
}

// SetLastLinear replaces whichever final layer GetLastLinear finds.
func SetLastLinear(m LayerSetter, layer Module) error {
	_, name, ok := GetLastLinear(m)
	if !ok {
		return ErrNoLastLinear
	}
	return m.SetLayer(name, layer)
}
