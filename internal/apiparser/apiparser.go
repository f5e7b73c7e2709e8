// Package apiparser turns a merged run configuration into the keyword
// arguments a trainer is constructed with.
package apiparser

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/samcharles93/expkit/internal/runconfig"
)

// Kwargs are the named trainer constructor arguments. A nil value means the
// argument is explicitly unset.
type Kwargs map[string]any

// Keys returns the argument names in sorted order.
func (k Kwargs) Keys() []string {
	return slices.Sorted(maps.Keys(k))
}

// KwargsBuilder produces trainer arguments from configuration.
type KwargsBuilder interface {
	TrainerKwargs() (Kwargs, error)
	// Transforms returns the named transform pipelines in document order.
	Transforms() (*runconfig.Map, error)
}

// ErrUnknownParser is returned by New for unregistered parser names.
var ErrUnknownParser = errors.New("unknown api parser")

const (
	BaseName          = "base"
	AugmentationsName = "unsupervised_embeddings_using_augmentations"
)

// Names lists the parsers New accepts.
func Names() []string {
	return []string{BaseName, AugmentationsName}
}

// New returns the parser registered under name over the merged config args.
func New(name string, args *runconfig.Map) (KwargsBuilder, error) {
	base := &BaseParser{Args: args}
	switch name {
	case "", BaseName:
		return base, nil
	case AugmentationsName:
		return UnsupervisedEmbeddingsUsingAugmentations{KwargsBuilder: base}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownParser, name)
	}
}

const transformsKey = "transforms"

// BaseParser reads trainer defaults from top-level config keys.
type BaseParser struct {
	Args *runconfig.Map
}

var baseDefaults = []struct {
	key string
	def any
}{
	{"batch_size", 32},
	{"dataloader_num_workers", 2},
	{"iterations_per_epoch", nil},
	{"freeze_trunk_batchnorm", false},
	{"label_hierarchy_level", 0},
	{"sampler", nil},
	{"set_min_label_to_zero", true},
}

func (p *BaseParser) args() *runconfig.Map {
	if p.Args == nil {
		return runconfig.NewMap()
	}
	return p.Args
}

func (p *BaseParser) TrainerKwargs() (Kwargs, error) {
	args := p.args()
	kw := make(Kwargs, len(baseDefaults)+1)
	for _, d := range baseDefaults {
		v, ok := args.Get(d.key)
		if !ok {
			kw[d.key] = d.def
			continue
		}
		norm, err := coerce(d.key, v, d.def)
		if err != nil {
			return nil, err
		}
		kw[d.key] = norm
	}

	ts, err := p.Transforms()
	if err != nil {
		return nil, err
	}
	pipelines := make([]any, 0, ts.Len())
	for _, v := range ts.All() {
		pipelines = append(pipelines, v)
	}
	kw[transformsKey] = pipelines
	return kw, nil
}

func (p *BaseParser) Transforms() (*runconfig.Map, error) {
	v, ok := p.args().Get(transformsKey)
	if !ok || v == nil {
		return runconfig.NewMap(), nil
	}
	m, ok := v.(*runconfig.Map)
	if !ok {
		return nil, fmt.Errorf("%s: %w", transformsKey, runconfig.ErrNotMapping)
	}
	return m, nil
}

// coerce checks v against the type of def. YAML integers may arrive as whole
// floats; they are converted back to int.
func coerce(key string, v, def any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch def.(type) {
	case int:
		switch n := v.(type) {
		case int:
			return n, nil
		case float64:
			if n == math.Trunc(n) {
				return int(n), nil
			}
		}
		return nil, fmt.Errorf("%s: want integer, got %v", key, v)
	case bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("%s: want bool, got %v", key, v)
	default:
		return v, nil
	}
}

// AugmentationPrefix selects the transform pipelines used as augmentations.
const AugmentationPrefix = "augmentation"

// UnsupervisedEmbeddingsUsingAugmentations trains embeddings without labels:
// the only transforms are the augmentation pipelines, no sampler is used and
// labels are left as they are.
type UnsupervisedEmbeddingsUsingAugmentations struct {
	KwargsBuilder
}

func (u UnsupervisedEmbeddingsUsingAugmentations) TrainerKwargs() (Kwargs, error) {
	kw, err := u.KwargsBuilder.TrainerKwargs()
	if err != nil {
		return nil, err
	}
	ts, err := u.Transforms()
	if err != nil {
		return nil, err
	}
	var augmentations []any
	for name, v := range ts.All() {
		if strings.HasPrefix(name, AugmentationPrefix) {
			augmentations = append(augmentations, v)
		}
	}
	kw[transformsKey] = augmentations
	kw["sampler"] = nil
	kw["set_min_label_to_zero"] = false
	return kw, nil
}
