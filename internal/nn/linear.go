package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/samcharles93/expkit/internal/state"
)

// Linear is a fully connected layer with weight [out, in] and optional bias [out].
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *state.Parameter
	bias        *state.Parameter
}

// NewLinear creates a Linear layer with uniform(-1/sqrt(in), 1/sqrt(in))
// initialised weights and a zero bias.
func NewLinear(in, out int, bias bool, rng *rand.Rand) *Linear {
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, uint64(in)*31+uint64(out)))
	}
	bound := float32(1 / math.Sqrt(float64(in)))
	w := state.Zeros(out, in)
	for i := range w.Data {
		w.Data[i] = (rng.Float32()*2 - 1) * bound
	}
	l := &Linear{
		inFeatures:  in,
		outFeatures: out,
		weight:      state.NewParameter("weight", w),
	}
	if bias {
		l.bias = state.NewParameter("bias", state.Zeros(out))
	}
	return l
}

func (l *Linear) InFeatures() int  { return l.inFeatures }
func (l *Linear) OutFeatures() int { return l.outFeatures }

func (l *Linear) Weight() *state.Parameter { return l.weight }

// Bias returns nil when the layer was built without one.
func (l *Linear) Bias() *state.Parameter { return l.bias }

func (l *Linear) Parameters() []*state.Parameter {
	if l.bias == nil {
		return []*state.Parameter{l.weight}
	}
	return []*state.Parameter{l.weight, l.bias}
}

func (l *Linear) StateDict() state.StateDict {
	sd := state.StateDict{"weight": l.weight.Tensor()}
	if l.bias != nil {
		sd["bias"] = l.bias.Tensor()
	}
	return sd
}

// LoadStateDict copies weights in place. Key or shape disagreements wrap
// state.ErrStateMismatch.
func (l *Linear) LoadStateDict(sd state.StateDict) error {
	keys := []string{"weight"}
	if l.bias != nil {
		keys = append(keys, "bias")
	}
	if err := state.CheckKeys(sd, keys...); err != nil {
		return err
	}
	for _, p := range l.Parameters() {
		if err := p.Tensor().CopyFrom(sd[p.Name()]); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}

func (l *Linear) To(device state.Device) error {
	for _, p := range l.Parameters() {
		p.To(device)
	}
	return nil
}
