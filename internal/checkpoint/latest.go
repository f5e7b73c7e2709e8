package checkpoint

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// TrunkPattern matches the per-epoch trunk checkpoints used to date a
// sub-experiment.
const TrunkPattern = "trunk_*" + DefaultExt

// LatestVersion returns the highest epoch among files in folder matching
// pattern. Files whose name ends in "best" before the extension are ignored.
// ok is false when nothing qualifies.
func LatestVersion(folder, pattern string) (version int, ok bool, err error) {
	items, err := filepath.Glob(filepath.Join(folder, pattern))
	if err != nil {
		return 0, false, err
	}
	for _, item := range items {
		base := filepath.Base(item)
		stem, _, _ := strings.Cut(base, ".")
		if strings.HasSuffix(stem, BestSuffix) {
			continue
		}
		idx := strings.LastIndexByte(stem, '_')
		v, err := strconv.Atoi(stem[idx+1:])
		if err != nil {
			return 0, false, fmt.Errorf("checkpoint %s: no trailing epoch: %w", item, err)
		}
		if !ok || v > version {
			version, ok = v, true
		}
	}
	return version, ok, nil
}

// SubExperiment is one independently checkpointed part of a run, such as a
// cross-validation fold.
type SubExperiment struct {
	Name     string
	ModelDir string
}

type SubExperimentEpoch struct {
	Name  string
	Epoch int
}

// Epochs keeps the caller's sub-experiment order; that order names resume
// diff folders.
type Epochs []SubExperimentEpoch

func (e Epochs) Values() []int {
	out := make([]int, len(e))
	for i, se := range e {
		out[i] = se.Epoch
	}
	return out
}

func (e Epochs) Map() map[string]int {
	out := make(map[string]int, len(e))
	for _, se := range e {
		out[se.Name] = se.Epoch
	}
	return out
}

// LatestSubExperimentEpochs finds the latest completed trunk epoch of each
// sub-experiment, 0 when it has none yet.
func LatestSubExperimentEpochs(subs []SubExperiment) (Epochs, error) {
	out := make(Epochs, 0, len(subs))
	for _, sub := range subs {
		v, _, err := LatestVersion(sub.ModelDir, TrunkPattern)
		if err != nil {
			return nil, fmt.Errorf("sub-experiment %s: %w", sub.Name, err)
		}
		out = append(out, SubExperimentEpoch{Name: sub.Name, Epoch: v})
	}
	return out, nil
}
