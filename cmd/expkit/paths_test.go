package main

import (
	"path/filepath"
	"testing"
)

func TestResolveLayoutPrefersFlag(t *testing.T) {
	t.Setenv(envExperimentDir, "/from/env")

	l, err := resolveLayout(" /runs/exp1/ ")
	if err != nil {
		t.Fatalf("resolveLayout: %v", err)
	}
	if l.root != "/runs/exp1" {
		t.Fatalf("root: got %q", l.root)
	}
	if l.configDir != filepath.Join("/runs/exp1", configSubdir) || l.modelDir != filepath.Join("/runs/exp1", modelSubdir) {
		t.Fatalf("unexpected layout: %+v", l)
	}
}

func TestResolveLayoutUsesEnv(t *testing.T) {
	t.Setenv(envExperimentDir, "/from/env")

	l, err := resolveLayout("")
	if err != nil {
		t.Fatalf("resolveLayout: %v", err)
	}
	if l.root != "/from/env" {
		t.Fatalf("root: got %q", l.root)
	}
}

func TestResolveLayoutRequiresDir(t *testing.T) {
	t.Setenv(envExperimentDir, "")

	if _, err := resolveLayout(""); err == nil {
		t.Fatal("expected error without flag or env")
	}
}

func TestParseSubExperiments(t *testing.T) {
	t.Parallel()
	l := layout{root: "/runs/exp1", modelDir: "/runs/exp1/saved_models"}

	subs, err := parseSubExperiments(nil, l)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].Name != defaultSubExperiment || subs[0].ModelDir != l.modelDir {
		t.Fatalf("default: got %+v", subs)
	}

	subs, err = parseSubExperiments([]string{"train1=split1/saved_models", "train0=/abs/models"}, l)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d sub-experiments", len(subs))
	}
	if subs[0].Name != "train1" || subs[0].ModelDir != "/runs/exp1/split1/saved_models" {
		t.Fatalf("first: got %+v", subs[0])
	}
	if subs[1].Name != "train0" || subs[1].ModelDir != "/abs/models" {
		t.Fatalf("second: got %+v", subs[1])
	}
}

func TestParseSubExperimentsRejectsBadSpecs(t *testing.T) {
	t.Parallel()
	l := layout{root: "/r"}
	for _, specs := range [][]string{{"train0"}, {"=dir"}, {"train0="}, {"a=x", "a=y"}} {
		if _, err := parseSubExperiments(specs, l); err == nil {
			t.Errorf("parseSubExperiments(%q): expected error", specs)
		}
	}
}
