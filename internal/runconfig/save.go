package runconfig

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const categoryDirPrefix = "config_"

// CategoryName derives the config category of a document from its source
// path: the parent directory when it is named "config_*", else the file's
// base name without extension.
func CategoryName(p string) string {
	segs := strings.Split(filepath.ToSlash(p), "/")
	if len(segs) >= 2 && strings.HasPrefix(segs[len(segs)-2], categoryDirPrefix) {
		return segs[len(segs)-2]
	}
	base := segs[len(segs)-1]
	return strings.TrimSuffix(base, path.Ext(base))
}

// MakeDir creates dir and its parents. An existing directory is not an error.
func MakeDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// Options select between the fresh-run and resume branches of SaveConfigFiles.
type Options struct {
	// ResumeTraining records only changed keys in a resume diff folder
	// instead of rewriting the category files.
	ResumeTraining bool
	// ReproduceResults merges top-level keys only.
	ReproduceResults bool
	// LatestEpochs names the resume diff folder, one value per
	// sub-experiment in the caller's order.
	LatestEpochs []int
}

// SaveConfigFiles persists docs under folder, one "<category>.yaml" each.
//
// On a fresh run each document is merged into the existing category file,
// if any, and the result overwrites it. On a resumed run the category file
// must already exist; keys whose values changed are appended to
// "<category>.yaml" inside the resume diff folder for opts.LatestEpochs.
//
// It returns the resume diff folder written to, or "" when nothing changed.
func SaveConfigFiles(folder string, docs []Document, opts Options) (string, error) {
	if err := MakeDir(folder); err != nil {
		return "", err
	}
	var diffDir string
	for _, d := range docs {
		category := CategoryName(d.Path)
		fname := filepath.Join(folder, category+".yaml")

		if !opts.ResumeTraining {
			if err := saveMerged(fname, d.Doc, opts.ReproduceResults); err != nil {
				return diffDir, fmt.Errorf("config %s: %w", category, err)
			}
			continue
		}

		current, err := LoadFile(fname)
		if err != nil {
			return diffDir, fmt.Errorf("config %s: %w", category, err)
		}
		diff := Diff(current, d.Doc)
		if diff.Len() == 0 {
			continue
		}
		diffDir = filepath.Join(folder, ResumeDiffDirName(opts.LatestEpochs))
		if err := MakeDir(diffDir); err != nil {
			return "", err
		}
		if err := WriteFile(filepath.Join(diffDir, category+".yaml"), diff, true); err != nil {
			return diffDir, fmt.Errorf("config %s: %w", category, err)
		}
	}
	return diffDir, nil
}

func saveMerged(fname string, doc *Map, reproduce bool) error {
	st, err := os.Stat(fname)
	switch {
	case err == nil && st.Mode().IsRegular():
		existing, err := LoadFile(fname)
		if err != nil {
			return err
		}
		depth := Unbounded
		if reproduce {
			depth = 0
		}
		doc = Merge(existing, doc, depth)
	case err != nil && !os.IsNotExist(err):
		return err
	}
	return WriteFile(fname, doc, false)
}
