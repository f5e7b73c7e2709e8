package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/expkit/internal/runconfig"
	"github.com/samcharles93/expkit/internal/safetensors"
	"github.com/samcharles93/expkit/internal/state"
)

type fixture struct {
	configDir string
	modelDir  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	fx := fixture{
		configDir: filepath.Join(root, "configs"),
		modelDir:  filepath.Join(root, "saved_models"),
	}
	for _, d := range []string{fx.configDir, fx.modelDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	writeConfig := func(path string, m *runconfig.Map) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := runconfig.WriteFile(path, m, false); err != nil {
			t.Fatal(err)
		}
	}
	writeConfig(filepath.Join(fx.configDir, "config_optimizers.yaml"), runconfig.FromPairs("lr", 0.1, "epochs", 10))
	writeConfig(filepath.Join(fx.configDir, "config_general.yaml"), runconfig.FromPairs("batch_size", 32))
	writeConfig(filepath.Join(fx.configDir, "resume_training_config_diffs_5_7", "config_optimizers.yaml"), runconfig.FromPairs("lr", 0.01))

	w, err := state.NewTensor([]int{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := state.NewTensor([]int{2}, []float32{0, 1})
	sd := state.StateDict{"weight": w, "bias": b}
	for _, suffix := range []string{"1", "4", "best"} {
		path := filepath.Join(fx.modelDir, "trunk_"+suffix+".pth")
		if err := safetensors.WriteFile(path, sd, map[string]string{"name": "trunk", "suffix": suffix}); err != nil {
			t.Fatal(err)
		}
	}
	return fx
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	fx := newFixture(t)
	s := NewServer(Config{ConfigDir: fx.configDir, ModelDir: fx.modelDir})
	s.newID = func() string { return "req-1" }
	e := echo.New()
	s.Register(e)
	return e
}

func doGet(t *testing.T, e *echo.Echo, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestListConfigs(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t)

	rec := doGet(t, e, "/v1/configs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[ConfigList](t, rec)
	if len(got.Categories) != 2 || got.Categories[0] != "config_general" || got.Categories[1] != "config_optimizers" {
		t.Fatalf("categories: got %v", got.Categories)
	}
	if id := rec.Header().Get(RequestIDHeader); id != "req-1" {
		t.Fatalf("request id: got %q", id)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/configs", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if id := rec.Header().Get(RequestIDHeader); id != "client-id" {
		t.Fatalf("request id: got %q", id)
	}
}

func TestGetConfig(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t)

	rec := doGet(t, e, "/v1/configs/config_optimizers")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Category string         `json:"category"`
		Document map[string]any `json:"document"`
	}](t, rec)
	if got.Category != "config_optimizers" || got.Document["lr"] != 0.1 || got.Document["epochs"] != float64(10) {
		t.Fatalf("unexpected document: %+v", got)
	}

	if rec := doGet(t, e, "/v1/configs/config_missing"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing category: got %d", rec.Code)
	}
	if rec := doGet(t, e, "/v1/configs/.."); rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound {
		t.Fatalf("traversal: got %d", rec.Code)
	}
}

func TestResumeDiffs(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t)

	rec := doGet(t, e, "/v1/resume-diffs?prefix=train&num_training_sets=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Diffs []struct {
			Dir        string                    `json:"dir"`
			Epochs     map[string]int            `json:"epochs"`
			Categories map[string]map[string]any `json:"categories"`
		} `json:"diffs"`
	}](t, rec)
	if len(got.Diffs) != 1 {
		t.Fatalf("diffs: got %d", len(got.Diffs))
	}
	d := got.Diffs[0]
	if d.Dir != "resume_training_config_diffs_5_7" {
		t.Fatalf("dir: got %q", d.Dir)
	}
	if d.Epochs["train0"] != 5 || d.Epochs["train1"] != 7 {
		t.Fatalf("epochs: got %v", d.Epochs)
	}
	if d.Categories["config_optimizers"]["lr"] != 0.01 {
		t.Fatalf("categories: got %v", d.Categories)
	}
}

func TestResumeDiffsBadCount(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t)
	for _, q := range []string{"x", "0", "-3"} {
		if rec := doGet(t, e, "/v1/resume-diffs?prefix=a&num_training_sets="+q); rec.Code != http.StatusBadRequest {
			t.Fatalf("num_training_sets=%s: got %d", q, rec.Code)
		}
	}
}

func TestLatestCheckpoint(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t)

	rec := doGet(t, e, "/v1/checkpoints/trunk/latest")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[LatestCheckpoint](t, rec)
	if got.Epoch != 4 || got.Path != "trunk_4.pth" {
		t.Fatalf("latest: got %+v", got)
	}

	if rec := doGet(t, e, "/v1/checkpoints/embedder/latest"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown model: got %d", rec.Code)
	}
}

func TestInspectCheckpoint(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t)

	rec := doGet(t, e, "/v1/checkpoints/trunk/best")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[CheckpointInfo](t, rec)
	if got.Path != "trunk_best.pth" || got.Metadata["suffix"] != "best" {
		t.Fatalf("info: got %+v", got)
	}
	if len(got.Tensors) != 2 || got.Tensors[0].Name != "bias" || got.Tensors[1].Name != "weight" {
		t.Fatalf("tensors: got %+v", got.Tensors)
	}
	if got.Tensors[1].DType != "F32" || len(got.Tensors[1].Shape) != 2 || got.Tensors[1].Shape[1] != 3 {
		t.Fatalf("weight summary: got %+v", got.Tensors[1])
	}

	if rec := doGet(t, e, "/v1/checkpoints/trunk/9"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing checkpoint: got %d", rec.Code)
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"", ".", "..", "a/b", `a\b`} {
		if validName(s) {
			t.Errorf("validName(%q) = true", s)
		}
	}
	if !validName("trunk") {
		t.Error("validName(trunk) = false")
	}
}
