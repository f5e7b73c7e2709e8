package api

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/expkit/internal/runconfig"
)

type ConfigList struct {
	Categories []string `json:"categories"`
}

type ConfigDocument struct {
	Category string         `json:"category"`
	Document *runconfig.Map `json:"document"`
}

type ResumeDiff struct {
	Dir        string                    `json:"dir"`
	Epochs     map[string]int            `json:"epochs"`
	Categories map[string]*runconfig.Map `json:"categories"`
}

type ResumeDiffList struct {
	Diffs []ResumeDiff `json:"diffs"`
}

func (s *Server) handleListConfigs(c *echo.Context) error {
	files, err := filepath.Glob(filepath.Join(s.cfg.ConfigDir, "*.yaml"))
	if err != nil {
		return writeServerError(c, err)
	}
	cats := make([]string, 0, len(files))
	for _, f := range files {
		cats = append(cats, runconfig.CategoryName(f))
	}
	slices.Sort(cats)
	return c.JSON(http.StatusOK, ConfigList{Categories: cats})
}

func (s *Server) handleGetConfig(c *echo.Context) error {
	category := c.Param("category")
	if !validName(category) {
		return writeBadRequest(c, "invalid category")
	}
	doc, err := runconfig.LoadFile(filepath.Join(s.cfg.ConfigDir, category+".yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return writeNotFound(c, "config category not found: "+category)
	}
	if err != nil {
		return writeServerError(c, err)
	}
	return c.JSON(http.StatusOK, ConfigDocument{Category: category, Document: doc})
}

// handleResumeDiffs takes the split scheme prefixes as repeated or
// comma-separated "prefix" parameters.
func (s *Server) handleResumeDiffs(c *echo.Context) error {
	q := c.Request().URL.Query()
	var prefixes []string
	for _, p := range q["prefix"] {
		for part := range strings.SplitSeq(p, ",") {
			if part = strings.TrimSpace(part); part != "" {
				prefixes = append(prefixes, part)
			}
		}
	}
	n := 1
	if raw := q.Get("num_training_sets"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return writeBadRequest(c, "num_training_sets must be a positive integer")
		}
		n = v
	}

	found, err := runconfig.AllResumeTrainingConfigDiffs(s.cfg.ConfigDir, prefixes, n)
	if err != nil {
		return writeServerError(c, err)
	}
	out := ResumeDiffList{Diffs: make([]ResumeDiff, 0, len(found))}
	for _, d := range found {
		cats, err := runconfig.LoadResumeDiff(d.Dir)
		if err != nil {
			return writeServerError(c, err)
		}
		out.Diffs = append(out.Diffs, ResumeDiff{
			Dir:        filepath.Base(d.Dir),
			Epochs:     d.Epochs,
			Categories: cats,
		})
	}
	return c.JSON(http.StatusOK, out)
}
