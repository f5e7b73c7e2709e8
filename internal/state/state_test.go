package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevice(t *testing.T) {
	for in, want := range map[string]Device{
		"":       CPU,
		"cpu":    CPU,
		"CUDA":   CUDA,
		"cuda:1": Device("cuda:1"),
		"mps":    MPS,
	} {
		got, err := ParseDevice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"tpu", "cuda:", "cuda:x"} {
		_, err := ParseDevice(in)
		assert.Error(t, err, in)
	}
}

func TestStripKeyPrefix(t *testing.T) {
	w := Zeros(2)
	b := Zeros(1)
	sd := StateDict{"module.weight": w, "module.bias": b, "short": Zeros(1)}

	got := sd.StripKeyPrefix(7)

	assert.Same(t, w, got["weight"])
	assert.Same(t, b, got["bias"])
	assert.Contains(t, got, "")
	assert.Len(t, got, 3)
}

func TestSubAndPrefix(t *testing.T) {
	sd := StateDict{"weight": Zeros(1)}.WithKeyPrefix("fc.")
	assert.Equal(t, []string{"fc.weight"}, sd.Keys())
	assert.Equal(t, []string{"weight"}, sd.Sub("fc").Keys())
	assert.Empty(t, sd.Sub("f"))
}

func TestCheckKeys(t *testing.T) {
	sd := StateDict{"weight": Zeros(1), "extra": Zeros(1)}

	require.NoError(t, CheckKeys(StateDict{"weight": Zeros(1)}, "weight"))

	err := CheckKeys(sd, "weight", "bias")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStateMismatch))
	assert.Contains(t, err.Error(), "bias")
	assert.Contains(t, err.Error(), "extra")
}

func TestTensorCopyFrom(t *testing.T) {
	dst := Zeros(2, 2)
	src, err := NewTensor([]int{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	require.NoError(t, dst.CopyFrom(src))
	assert.Equal(t, []float32{1, 2, 3, 4}, dst.Data)

	err = dst.CopyFrom(Zeros(4))
	assert.ErrorIs(t, err, ErrStateMismatch)

	_, err = NewTensor([]int{3}, []float32{1})
	assert.Error(t, err)
}

func TestTensorTo(t *testing.T) {
	src := Zeros(3)
	moved := src.To(CUDA)
	assert.Equal(t, CUDA, moved.Device)
	assert.Equal(t, CPU, src.Device)
	moved.Data[0] = 1
	assert.Zero(t, src.Data[0])
}
