package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/expkit/internal/checkpoint"
)

const envExperimentDir = "EXPKIT_EXPERIMENT_DIR"

const (
	configSubdir = "configs"
	modelSubdir  = "saved_models"
)

// defaultSubExperiment names the model folder of a run without splits.
const defaultSubExperiment = "default"

type layout struct {
	root      string
	configDir string
	modelDir  string
}

// resolveLayout picks the experiment folder from the flag, then the
// environment.
func resolveLayout(flagDir string) (layout, error) {
	root := strings.TrimSpace(flagDir)
	if root == "" {
		root = strings.TrimSpace(os.Getenv(envExperimentDir))
	}
	if root == "" {
		return layout{}, fmt.Errorf("--experiment-dir is required unless %s is set", envExperimentDir)
	}
	root = filepath.Clean(root)
	return layout{
		root:      root,
		configDir: filepath.Join(root, configSubdir),
		modelDir:  filepath.Join(root, modelSubdir),
	}, nil
}

// parseSubExperiments reads "name=dir" specs, keeping their order. Relative
// dirs are taken from the experiment root. No specs means one sub-experiment
// over the experiment's model folder.
func parseSubExperiments(specs []string, l layout) ([]checkpoint.SubExperiment, error) {
	if len(specs) == 0 {
		return []checkpoint.SubExperiment{{Name: defaultSubExperiment, ModelDir: l.modelDir}}, nil
	}
	seen := make(map[string]bool, len(specs))
	subs := make([]checkpoint.SubExperiment, 0, len(specs))
	for _, entry := range specs {
		name, dir, ok := strings.Cut(entry, "=")
		name, dir = strings.TrimSpace(name), strings.TrimSpace(dir)
		if !ok || name == "" || dir == "" {
			return nil, fmt.Errorf("invalid sub-experiment %q: want name=dir", entry)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate sub-experiment %q", name)
		}
		seen[name] = true
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(l.root, dir)
		}
		subs = append(subs, checkpoint.SubExperiment{Name: name, ModelDir: filepath.Clean(dir)})
	}
	return subs, nil
}
