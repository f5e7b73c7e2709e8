package state

import (
	"fmt"
	"slices"
)

// Tensor is a dense float32 array tagged with the device holding it.
type Tensor struct {
	Shape  []int
	Data   []float32
	Device Device
}

// NewTensor validates that data fills shape exactly.
func NewTensor(shape []int, data []float32) (*Tensor, error) {
	n, err := NumElements(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("tensor data has %d elements, shape %v needs %d", len(data), shape, n)
	}
	return &Tensor{Shape: slices.Clone(shape), Data: data, Device: CPU}, nil
}

// Zeros allocates a zero-filled tensor on the CPU.
func Zeros(shape ...int) *Tensor {
	n, err := NumElements(shape)
	if err != nil {
		panic(err)
	}
	return &Tensor{Shape: slices.Clone(shape), Data: make([]float32, n), Device: CPU}
}

// NumElements returns the element count of shape. A scalar (empty shape)
// holds one element.
func NumElements(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("invalid dim %d", d)
		}
		if d != 0 && n > (int(^uint(0)>>1))/d {
			return 0, fmt.Errorf("tensor too large")
		}
		n *= d
	}
	return n, nil
}

// Clone deep-copies t.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{Shape: slices.Clone(t.Shape), Data: slices.Clone(t.Data), Device: t.Device}
}

// To returns a copy of t on device.
func (t *Tensor) To(device Device) *Tensor {
	c := t.Clone()
	c.Device = device
	return c
}

// SameShape reports whether t and o have identical shapes.
func (t *Tensor) SameShape(o *Tensor) bool {
	return slices.Equal(t.Shape, o.Shape)
}

// CopyFrom copies src's values into t, keeping t's device.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.SameShape(src) {
		return Mismatch("shape %v does not match %v", src.Shape, t.Shape)
	}
	copy(t.Data, src.Data)
	return nil
}
