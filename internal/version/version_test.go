package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBuildInfoFillsGaps(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	var info Info
	fromBuildInfo(&info, bi)
	assert.Equal(t, Info{
		Version:   "v0.3.1",
		Commit:    "0123456789abcdef",
		BuildTime: "2026-01-02T03:04:05Z",
		Modified:  true,
		GoVersion: "go1.26.0",
	}, info)
}

func TestFromBuildInfoKeepsLinkerValues(t *testing.T) {
	bi := &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}},
	}
	info := Info{Version: "1.0.0", Commit: "abcd"}
	fromBuildInfo(&info, bi)
	assert.Equal(t, "1.0.0", info.Version)
	assert.Equal(t, "abcd", info.Commit)
}

func TestResolveNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, Resolve().Version)
	assert.NotEmpty(t, String())
}
