// Package nn provides the stateful building blocks that experiments hand to
// the checkpoint store: layers, named containers, the data-parallel wrapper
// and parameter-free losses.
//
// Layers carry parameters and state dicts only; numerical forward and
// backward passes belong to the training runtime.
package nn

import "github.com/samcharles93/expkit/internal/state"

// Module is the common interface of everything in this package.
type Module interface {
	state.Stateful
	state.ParameterHolder
}

// Identity has no parameters and an empty state. It is the usual replacement
// for a trunk's final linear layer when training embeddings.
type Identity struct{}

func (Identity) Parameters() []*state.Parameter { return nil }

func (Identity) StateDict() state.StateDict { return state.StateDict{} }

func (Identity) LoadStateDict(sd state.StateDict) error {
	return state.CheckKeys(sd)
}

func (Identity) To(state.Device) error { return nil }
