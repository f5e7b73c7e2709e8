package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/expkit/internal/nn"
	"github.com/samcharles93/expkit/internal/state"
)

func withGrad(params []*state.Parameter, v float32) {
	for _, p := range params {
		g := state.Zeros(p.Tensor().Shape...)
		for i := range g.Data {
			g.Data[i] = v
		}
		p.SetGrad(g)
	}
}

func TestSGDStepWithMomentum(t *testing.T) {
	l := nn.NewLinear(2, 1, false, nil)
	before := append([]float32(nil), l.Weight().Tensor().Data...)
	opt := NewSGD(l.Parameters(), SGDConfig{LR: 0.1, Momentum: 0.9})

	withGrad(l.Parameters(), 1)
	opt.Step()
	opt.Step()

	// v1 = 1, v2 = 0.9 + 1 = 1.9; total move 0.1 * 2.9
	for i, w := range l.Weight().Tensor().Data {
		assert.InDelta(t, before[i]-0.29, w, 1e-6)
	}
	assert.Equal(t, 2, opt.Steps())
	require.NotNil(t, opt.Velocity(0))
	assert.InDelta(t, 1.9, opt.Velocity(0).Data[0], 1e-6)
}

func TestSGDStateRoundTrip(t *testing.T) {
	l := nn.NewLinear(3, 2, true, nil)
	opt := NewSGD(l.Parameters(), SGDConfig{LR: 0.01, Momentum: 0.5})
	withGrad(l.Parameters(), 2)
	opt.Step()

	fresh := NewSGD(nn.NewLinear(3, 2, true, nil).Parameters(), SGDConfig{LR: 0.01, Momentum: 0.5})
	require.NoError(t, fresh.LoadStateDict(opt.StateDict()))

	assert.Equal(t, 1, fresh.Steps())
	assert.Equal(t, opt.Velocity(0).Data, fresh.Velocity(0).Data)
	assert.Equal(t, opt.Velocity(1).Data, fresh.Velocity(1).Data)
}

func TestSGDLoadMismatch(t *testing.T) {
	opt := NewSGD(nn.NewLinear(3, 2, false, nil).Parameters(), SGDConfig{LR: 0.1, Momentum: 0.9})

	err := opt.LoadStateDict(state.StateDict{"velocity.3": state.Zeros(2, 3)})
	assert.ErrorIs(t, err, state.ErrStateMismatch)

	err = opt.LoadStateDict(state.StateDict{"velocity.0": state.Zeros(3, 2)})
	assert.ErrorIs(t, err, state.ErrStateMismatch)

	err = opt.LoadStateDict(state.StateDict{"module.velocity.0": state.Zeros(2, 3)})
	assert.ErrorIs(t, err, state.ErrStateMismatch)
}

func TestSGDMoveState(t *testing.T) {
	l := nn.NewLinear(2, 2, false, nil)
	opt := NewSGD(l.Parameters(), SGDConfig{LR: 0.1, Momentum: 0.9})
	withGrad(l.Parameters(), 1)
	opt.Step()

	opt.MoveState(state.Device("cuda:1"))
	assert.Equal(t, state.Device("cuda:1"), opt.Velocity(0).Device)
}

func TestSGDIsNotRelocatable(t *testing.T) {
	var obj state.Stateful = NewSGD(nil, SGDConfig{})
	_, ok := obj.(state.Relocatable)
	assert.False(t, ok)
}
