package runconfig

import (
	"math"
	"strings"
)

// Unbounded merges nested mappings at every depth.
const Unbounded = math.MaxInt

// OverrideMarker on a key forces its value to replace the existing one
// instead of being merged into it. The marker is dropped from the result.
const OverrideMarker = "~OVERRIDE~"

// Merge returns a copy of base with update merged in. Nested mappings present
// on both sides are merged recursively while their depth is below maxDepth;
// otherwise the update value replaces the base value. maxDepth 0 replaces
// top-level keys wholesale.
func Merge(base, update *Map, maxDepth int) *Map {
	return merge(base, update, maxDepth, 0)
}

func merge(base, update *Map, maxDepth, depth int) *Map {
	out := base.Clone()
	for k, v := range update.All() {
		if key, ok := strings.CutSuffix(k, OverrideMarker); ok {
			out.Set(key, stripMarkers(v))
			continue
		}
		um, uok := v.(*Map)
		bm, bok := out.GetMap(k)
		if uok && bok && depth < maxDepth {
			out.Set(k, merge(bm, um, maxDepth, depth+1))
			continue
		}
		out.Set(k, stripMarkers(v))
	}
	return out
}

// stripMarkers deep-copies v and removes override markers from nested keys.
func stripMarkers(v any) any {
	switch t := v.(type) {
	case *Map:
		out := NewMap()
		for k, e := range t.All() {
			out.Set(strings.TrimSuffix(k, OverrideMarker), stripMarkers(e))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = stripMarkers(e)
		}
		return out
	default:
		return v
	}
}
