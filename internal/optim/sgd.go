// Package optim implements optimizers whose state survives a checkpoint.
package optim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/expkit/internal/state"
)

// SGDConfig configures stochastic gradient descent.
type SGDConfig struct {
	LR          float32
	Momentum    float32
	WeightDecay float32
}

// SGD is stochastic gradient descent with optional momentum.
//
// SGD deliberately does not implement state.Relocatable: its buffers are
// moved with MoveState, and the checkpoint store saves it as-is.
type SGD struct {
	params     []*state.Parameter
	cfg        SGDConfig
	velocities map[int]*state.Tensor
	steps      int
}

func NewSGD(params []*state.Parameter, cfg SGDConfig) *SGD {
	return &SGD{
		params:     params,
		cfg:        cfg,
		velocities: make(map[int]*state.Tensor),
	}
}

func (s *SGD) LR() float32 { return s.cfg.LR }

func (s *SGD) SetLR(lr float32) { s.cfg.LR = lr }

func (s *SGD) Steps() int { return s.steps }

// Step applies one update to every parameter that has a gradient.
func (s *SGD) Step() {
	for i, p := range s.params {
		g := p.Grad()
		if g == nil {
			continue
		}
		w := p.Tensor().Data
		update := make([]float32, len(w))
		for j := range w {
			update[j] = g.Data[j] + s.cfg.WeightDecay*w[j]
		}
		if s.cfg.Momentum != 0 {
			v, ok := s.velocities[i]
			if !ok {
				v = state.Zeros(p.Tensor().Shape...)
				v.Device = p.Tensor().Device
				s.velocities[i] = v
			}
			for j := range v.Data {
				v.Data[j] = s.cfg.Momentum*v.Data[j] + update[j]
			}
			update = v.Data
		}
		for j := range w {
			w[j] -= s.cfg.LR * update[j]
		}
	}
	s.steps++
}

func (s *SGD) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// StateDict exports "velocity.<param index>" buffers plus the step counter.
func (s *SGD) StateDict() state.StateDict {
	sd := state.StateDict{
		"step": {Shape: []int{}, Data: []float32{float32(s.steps)}, Device: state.CPU},
	}
	for i, v := range s.velocities {
		sd["velocity."+strconv.Itoa(i)] = v
	}
	return sd
}

// LoadStateDict replaces the velocity buffers. Buffers for unknown parameter
// indices or with the wrong shape wrap state.ErrStateMismatch.
func (s *SGD) LoadStateDict(sd state.StateDict) error {
	velocities := make(map[int]*state.Tensor)
	steps := 0
	for _, k := range sd.Keys() {
		t := sd[k]
		if k == "step" {
			if len(t.Data) != 1 {
				return state.Mismatch("step holds %d values", len(t.Data))
			}
			steps = int(t.Data[0])
			continue
		}
		idxStr, ok := strings.CutPrefix(k, "velocity.")
		if !ok {
			return state.Mismatch("unexpected key %q", k)
		}
		i, err := strconv.Atoi(idxStr)
		if err != nil || i < 0 || i >= len(s.params) {
			return state.Mismatch("velocity key %q does not name a parameter", k)
		}
		if !t.SameShape(s.params[i].Tensor()) {
			return state.Mismatch("velocity %d: shape %v, parameter %v", i, t.Shape, s.params[i].Tensor().Shape)
		}
		velocities[i] = t.Clone()
	}
	s.velocities = velocities
	s.steps = steps
	return nil
}

// MoveState moves every optimizer buffer to device, for resuming on a
// different device than the one the checkpoint was read onto.
func (s *SGD) MoveState(device state.Device) {
	for i, v := range s.velocities {
		s.velocities[i] = v.To(device)
	}
}

// Velocity returns the momentum buffer for parameter i, or nil.
func (s *SGD) Velocity(i int) *state.Tensor {
	return s.velocities[i]
}

func (s *SGD) String() string {
	return fmt.Sprintf("SGD(lr=%g, momentum=%g, weight_decay=%g)", s.cfg.LR, s.cfg.Momentum, s.cfg.WeightDecay)
}
