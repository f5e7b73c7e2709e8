// Package checkpoint persists the state of named models and optimizers at
// epoch boundaries and restores it when a run resumes.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/samcharles93/expkit/internal/safetensors"
	"github.com/samcharles93/expkit/internal/state"
)

// DefaultExt is the checkpoint file extension.
const DefaultExt = ".pth"

// BestSuffix marks the checkpoint of the best epoch so far.
const BestSuffix = "best"

// distributedPrefixLen is the length of the key prefix ("module.") added by
// data-parallel wrappers.
const distributedPrefixLen = 7

// Named pairs an object with the name its checkpoint files are stored under.
type Named struct {
	Name   string
	Object state.Stateful
}

// Objects is an ordered set of named stateful objects.
type Objects []Named

// FromMap orders m by name.
func FromMap(m map[string]state.Stateful) Objects {
	objs := make(Objects, 0, len(m))
	for name, obj := range m {
		objs = append(objs, Named{Name: name, Object: obj})
	}
	slices.SortFunc(objs, func(a, b Named) int { return strings.Compare(a.Name, b.Name) })
	return objs
}

// Operable reports whether the store acts on an entry: optimizers always,
// other objects only when they have parameters.
func Operable(name string, obj state.Stateful) bool {
	if strings.Contains(name, "optimizer") {
		return true
	}
	ph, ok := obj.(state.ParameterHolder)
	return ok && len(ph.Parameters()) > 0
}

// Filename joins dir, base and identifier as "<base>_<identifier><ext>".
// An empty identifier yields "<base><ext>"; an empty ext means DefaultExt.
func Filename(dir, base, identifier, ext string) string {
	if ext == "" {
		ext = DefaultExt
	}
	if identifier == "" {
		return filepath.Join(dir, base+ext)
	}
	return filepath.Join(dir, base+"_"+identifier+ext)
}

// Store reads and writes checkpoint files in Dir.
type Store struct {
	Dir string
	// Ext defaults to DefaultExt.
	Ext string
	// Events receives one Event per file touched. Optional.
	Events EventSink
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) path(name, suffix string) string {
	return Filename(s.Dir, name, suffix, s.Ext)
}

func (s *Store) emit(e Event) {
	if s.Events != nil {
		s.Events.Event(e)
	}
}

// Save writes the state of every operable object to "<name>_<suffix>".
// Objects are moved to the host first when they support it; an object that
// cannot be relocated is saved from its current device.
func (s *Store) Save(objs Objects, suffix string) error {
	for _, o := range objs {
		if !Operable(o.Name, o.Object) {
			continue
		}
		path := s.path(o.Name, suffix)
		sd, fallback, err := hostStateDict(o.Object)
		if err != nil {
			return fmt.Errorf("save %s: %w", o.Name, err)
		}
		meta := map[string]string{
			"name":    o.Name,
			"suffix":  suffix,
			"format":  "expkit",
			"save_id": uuid.NewString(),
		}
		if err := safetensors.WriteFile(path, sd, meta); err != nil {
			return fmt.Errorf("save %s: %w", o.Name, err)
		}
		s.emit(Event{Op: OpSave, Name: o.Name, Path: path, Fallback: fallback})
	}
	return nil
}

// hostStateDict captures obj's state after moving it to the CPU. Relocation
// failures (state.ErrRelocate, or no To method at all) fall back to the state
// as it is; any other relocation error is returned.
func hostStateDict(obj state.Stateful) (state.StateDict, bool, error) {
	r, ok := obj.(state.Relocatable)
	if !ok {
		return obj.StateDict(), true, nil
	}
	if err := r.To(state.CPU); err != nil {
		if errors.Is(err, state.ErrRelocate) {
			return obj.StateDict(), true, nil
		}
		return nil, false, err
	}
	return obj.StateDict(), false, nil
}

// Load reads "<name>_<suffix>" onto device and installs it into each
// operable object in place. A state dict that does not fit is retried once
// with the data-parallel key prefix stripped.
func (s *Store) Load(objs Objects, suffix string, device state.Device) error {
	for _, o := range objs {
		if !Operable(o.Name, o.Object) {
			continue
		}
		path := s.path(o.Name, suffix)
		s.emit(Event{Op: OpLoad, Name: o.Name, Path: path})
		fallback, err := loadInto(o.Object, path, device)
		if err != nil {
			return fmt.Errorf("load %s: %w", o.Name, err)
		}
		if fallback {
			s.emit(Event{Op: OpLoad, Name: o.Name, Path: path, Fallback: true})
		}
	}
	return nil
}

func loadInto(obj state.Stateful, path string, device state.Device) (bool, error) {
	sd, _, err := safetensors.Load(path, device)
	if err != nil {
		return false, err
	}
	err = obj.LoadStateDict(sd)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, state.ErrStateMismatch) {
		return false, err
	}
	return true, obj.LoadStateDict(sd.StripKeyPrefix(distributedPrefixLen))
}

// Delete removes the checkpoint files of every operable object. Removal is
// best effort and never fails.
func (s *Store) Delete(objs Objects, suffix string) {
	for _, o := range objs {
		if !Operable(o.Name, o.Object) {
			continue
		}
		path := s.path(o.Name, suffix)
		_ = os.Remove(path)
		s.emit(Event{Op: OpDelete, Name: o.Name, Path: path})
	}
}
