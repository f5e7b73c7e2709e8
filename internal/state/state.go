// Package state defines the parameter state exchanged between models,
// optimizers and the checkpoint store.
package state

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrStateMismatch is returned by LoadStateDict when the keys or shapes of a
	// state dict do not line up with the receiving object.
	ErrStateMismatch = errors.New("state: state dict mismatch")

	// ErrRelocate is returned when an object cannot be moved to a device.
	ErrRelocate = errors.New("state: cannot relocate")
)

// Device identifies where tensor data lives.
type Device string

const (
	CPU  Device = "cpu"
	CUDA Device = "cuda"
	MPS  Device = "mps"
)

// ParseDevice accepts "cpu", "mps", "cuda" and "cuda:N".
func ParseDevice(s string) (Device, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "cpu":
		return CPU, nil
	case "cuda", "mps":
		return Device(s), nil
	}
	if idx, ok := strings.CutPrefix(s, "cuda:"); ok && idx != "" {
		for _, r := range idx {
			if r < '0' || r > '9' {
				return "", fmt.Errorf("invalid device %q", s)
			}
		}
		return Device(s), nil
	}
	return "", fmt.Errorf("invalid device %q", s)
}

// Stateful is implemented by anything whose internal state can be captured
// and restored: models, optimizers, losses.
type Stateful interface {
	StateDict() StateDict
	LoadStateDict(sd StateDict) error
}

// ParameterHolder exposes trainable parameters.
type ParameterHolder interface {
	Parameters() []*Parameter
}

// Relocatable objects can move their state to another device in place.
// Implementations return an error wrapping ErrRelocate when the move is not
// possible.
type Relocatable interface {
	To(device Device) error
}

// StateDict maps parameter or buffer names to tensors.
type StateDict map[string]*Tensor

// Keys returns the state dict keys in sorted order.
func (sd StateDict) Keys() []string {
	keys := make([]string, 0, len(sd))
	for k := range sd {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StripKeyPrefix returns a copy of sd with the first n bytes removed from
// every key. Keys shorter than n collapse to the empty string.
func (sd StateDict) StripKeyPrefix(n int) StateDict {
	out := make(StateDict, len(sd))
	for k, v := range sd {
		if len(k) <= n {
			out[""] = v
			continue
		}
		out[k[n:]] = v
	}
	return out
}

// WithKeyPrefix returns a copy of sd with prefix prepended to every key.
func (sd StateDict) WithKeyPrefix(prefix string) StateDict {
	out := make(StateDict, len(sd))
	for k, v := range sd {
		out[prefix+k] = v
	}
	return out
}

// Sub extracts the entries under "prefix." with the prefix removed.
func (sd StateDict) Sub(prefix string) StateDict {
	prefix += "."
	out := make(StateDict)
	for k, v := range sd {
		if rest, ok := strings.CutPrefix(k, prefix); ok && rest != "" {
			out[rest] = v
		}
	}
	return out
}

// Mismatch builds an error wrapping ErrStateMismatch.
func Mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStateMismatch, fmt.Sprintf(format, args...))
}

// CheckKeys verifies that sd holds exactly the expected keys.
func CheckKeys(sd StateDict, expected ...string) error {
	var missing, unexpected []string
	for _, k := range expected {
		if _, ok := sd[k]; !ok {
			missing = append(missing, k)
		}
	}
	for _, k := range sd.Keys() {
		if !slices.Contains(expected, k) {
			unexpected = append(unexpected, k)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}
	return Mismatch("missing keys %v, unexpected keys %v", missing, unexpected)
}
