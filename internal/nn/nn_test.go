package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/expkit/internal/state"
)

func newTrunk() *Net {
	return NewNet().
		Add("conv", NewLinear(8, 4, true, nil)).
		Add("fc", NewLinear(4, 2, true, nil))
}

func TestLinearStateRoundTrip(t *testing.T) {
	src := NewLinear(3, 2, true, nil)
	src.Bias().Tensor().Data[1] = 0.5

	dst := NewLinear(3, 2, true, nil)
	dst.Weight().Tensor().Data[0] = 42

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.Equal(t, src.Weight().Tensor().Data, dst.Weight().Tensor().Data)
	assert.Equal(t, src.Bias().Tensor().Data, dst.Bias().Tensor().Data)
}

func TestLinearLoadMismatch(t *testing.T) {
	l := NewLinear(3, 2, false, nil)

	err := l.LoadStateDict(NewLinear(3, 2, true, nil).StateDict())
	assert.ErrorIs(t, err, state.ErrStateMismatch)

	err = l.LoadStateDict(NewLinear(4, 2, false, nil).StateDict())
	assert.ErrorIs(t, err, state.ErrStateMismatch)
}

func TestNetStateDictKeys(t *testing.T) {
	net := newTrunk().Add("head", Identity{})
	assert.Equal(t, []string{"conv.bias", "conv.weight", "fc.bias", "fc.weight"}, net.StateDict().Keys())
	assert.Len(t, net.Parameters(), 4)
}

func TestNetLoadRejectsUnexpectedKeys(t *testing.T) {
	net := newTrunk()
	wrapped := NewDataParallel(newTrunk())

	err := net.LoadStateDict(wrapped.StateDict())
	require.ErrorIs(t, err, state.ErrStateMismatch)

	require.NoError(t, net.LoadStateDict(wrapped.StateDict().StripKeyPrefix(len(DataParallelPrefix))))
}

func TestDataParallelRoundTrip(t *testing.T) {
	src := NewDataParallel(newTrunk(), state.CUDA)
	for _, p := range src.Parameters() {
		p.Tensor().Data[0] = 3
	}
	for _, k := range src.StateDict().Keys() {
		assert.Contains(t, k, DataParallelPrefix)
	}

	dst := NewDataParallel(newTrunk())
	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	for _, p := range dst.Parameters() {
		assert.Equal(t, float32(3), p.Tensor().Data[0])
	}

	err := dst.LoadStateDict(newTrunk().StateDict())
	assert.ErrorIs(t, err, state.ErrStateMismatch)
}

func TestNetTo(t *testing.T) {
	net := newTrunk().Add("head", Identity{})
	require.NoError(t, net.To(state.CUDA))
	for _, p := range net.Parameters() {
		assert.Equal(t, state.CUDA, p.Tensor().Device)
	}
}

func TestLossesQualifyByParameters(t *testing.T) {
	assert.Empty(t, (&ContrastiveLoss{}).Parameters())

	pa := NewProxyAnchorLoss(10, 4)
	require.Len(t, pa.Parameters(), 1)
	pa.Parameters()[0].Tensor().Data[5] = 1

	other := NewProxyAnchorLoss(10, 4)
	require.NoError(t, other.LoadStateDict(pa.StateDict()))
	assert.Equal(t, float32(1), other.Parameters()[0].Tensor().Data[5])
}

func TestGetLastLinear(t *testing.T) {
	fc := NewLinear(4, 2, true, nil)
	layer, name, ok := GetLastLinear(NewNet().Add("fc", fc).Add("last_linear", Identity{}))
	require.True(t, ok)
	assert.Equal(t, "fc", name)
	assert.Same(t, fc, layer)

	last := NewLinear(4, 2, true, nil)
	layer, name, ok = GetLastLinear(NewNet().Add("features", Identity{}).Add("last_linear", last))
	require.True(t, ok)
	assert.Equal(t, "last_linear", name)
	assert.Same(t, last, layer)

	_, _, ok = GetLastLinear(NewNet().Add("features", Identity{}))
	assert.False(t, ok)
}

func TestGetLastLinearSkipsNilLayer(t *testing.T) {
	last := NewLinear(4, 2, true, nil)
	net := NewNet().Add("fc", nil).Add("last_linear", last)

	_, name, ok := GetLastLinear(net)
	require.True(t, ok)
	assert.Equal(t, "last_linear", name)
}

func TestSetLastLinear(t *testing.T) {
	net := NewNet().Add("features", NewLinear(8, 4, true, nil)).Add("last_linear", NewLinear(4, 2, true, nil))
	require.NoError(t, SetLastLinear(net, Identity{}))

	layer, name, ok := GetLastLinear(net)
	require.True(t, ok)
	assert.Equal(t, "last_linear", name)
	assert.Equal(t, Identity{}, layer)
	assert.Len(t, net.Parameters(), 2)

	err := SetLastLinear(NewNet().Add("features", Identity{}), Identity{})
	assert.ErrorIs(t, err, ErrNoLastLinear)
}
