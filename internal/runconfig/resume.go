package runconfig

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ResumeDiffPrefix starts the name of every resume diff folder.
const ResumeDiffPrefix = "resume_training_config_diffs_"

// ResumeDiffDirName joins the latest epoch of each sub-experiment, e.g.
// "resume_training_config_diffs_5_5".
func ResumeDiffDirName(epochs []int) string {
	parts := make([]string, len(epochs))
	for i, e := range epochs {
		parts[i] = strconv.Itoa(e)
	}
	return ResumeDiffPrefix + strings.Join(parts, "_")
}

// SubExperimentNames expands split scheme prefixes into sub-experiment
// names. With more than one training set every prefix is paired with each
// training set index, prefix-major: [a b] x 2 -> a0 a1 b0 b1.
func SubExperimentNames(prefixes []string, numTrainingSets int) []string {
	if numTrainingSets <= 1 {
		return append([]string(nil), prefixes...)
	}
	names := make([]string, 0, len(prefixes)*numTrainingSets)
	for _, p := range prefixes {
		for i := range numTrainingSets {
			names = append(names, p+strconv.Itoa(i))
		}
	}
	return names
}

// ResumeDiff is one resume diff folder and the epoch at which each
// sub-experiment stood when it was written.
type ResumeDiff struct {
	Dir    string         `json:"dir"`
	Epochs map[string]int `json:"epochs"`
}

// AllResumeTrainingConfigDiffs lists the resume diff folders under folder in
// name order. The epochs in a folder name are matched to sub-experiments by
// position only: the i-th number belongs to the i-th name of
// SubExperimentNames(prefixes, numTrainingSets). Surplus numbers or names
// are ignored.
func AllResumeTrainingConfigDiffs(folder string, prefixes []string, numTrainingSets int) ([]ResumeDiff, error) {
	base := filepath.Join(folder, ResumeDiffPrefix)
	matches, err := filepath.Glob(base + "*")
	if err != nil {
		return nil, err
	}
	names := SubExperimentNames(prefixes, numTrainingSets)

	out := make([]ResumeDiff, 0, len(matches))
	for _, dir := range matches {
		fields := strings.Split(strings.TrimPrefix(dir, base), "_")
		epochs := make(map[string]int, len(fields))
		for i, f := range fields {
			e, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("resume diff folder %s: %w", dir, err)
			}
			if i < len(names) {
				epochs[names[i]] = e
			}
		}
		out = append(out, ResumeDiff{Dir: dir, Epochs: epochs})
	}
	return out, nil
}

// LoadResumeDiff reads the category documents stored in a resume diff folder.
func LoadResumeDiff(dir string) (map[string]*Map, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Map, len(files))
	for _, f := range files {
		m, err := LoadFile(f)
		if err != nil {
			return nil, fmt.Errorf("resume diff %s: %w", f, err)
		}
		out[CategoryName(f)] = m
	}
	return out, nil
}
