package nn

import (
	"fmt"

	"github.com/samcharles93/expkit/internal/state"
)

// DataParallelPrefix is prepended to every state key by DataParallel.
const DataParallelPrefix = "module."

// DataParallel wraps a module the way multi-device training does, so its
// state dict keys gain a "module." prefix. Checkpoints written from a wrapped
// model therefore need the prefix stripped before loading into a bare one.
type DataParallel struct {
	Module  Module
	Devices []state.Device
}

func NewDataParallel(m Module, devices ...state.Device) *DataParallel {
	return &DataParallel{Module: m, Devices: devices}
}

func (d *DataParallel) Parameters() []*state.Parameter {
	return d.Module.Parameters()
}

func (d *DataParallel) StateDict() state.StateDict {
	return d.Module.StateDict().WithKeyPrefix(DataParallelPrefix)
}

func (d *DataParallel) LoadStateDict(sd state.StateDict) error {
	for k := range sd {
		if len(k) < len(DataParallelPrefix) || k[:len(DataParallelPrefix)] != DataParallelPrefix {
			return state.Mismatch("key %q lacks %q prefix", k, DataParallelPrefix)
		}
	}
	return d.Module.LoadStateDict(sd.StripKeyPrefix(len(DataParallelPrefix)))
}

func (d *DataParallel) To(device state.Device) error {
	r, ok := d.Module.(state.Relocatable)
	if !ok {
		return fmt.Errorf("%w: wrapped module %T", state.ErrRelocate, d.Module)
	}
	return r.To(device)
}
