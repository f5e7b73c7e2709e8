package api

import (
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/expkit/internal/checkpoint"
	"github.com/samcharles93/expkit/internal/safetensors"
)

type LatestCheckpoint struct {
	Name  string `json:"name"`
	Epoch int    `json:"epoch"`
	Path  string `json:"path"`
}

type TensorSummary struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
	Shape []int  `json:"shape"`
}

type CheckpointInfo struct {
	Name     string            `json:"name"`
	Suffix   string            `json:"suffix"`
	Path     string            `json:"path"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Tensors  []TensorSummary   `json:"tensors"`
}

func (s *Server) ext() string {
	if s.cfg.Ext == "" {
		return checkpoint.DefaultExt
	}
	return s.cfg.Ext
}

func (s *Server) handleLatestCheckpoint(c *echo.Context) error {
	name := c.Param("name")
	if !validName(name) {
		return writeBadRequest(c, "invalid checkpoint name")
	}
	epoch, ok, err := checkpoint.LatestVersion(s.cfg.ModelDir, name+"_*"+s.ext())
	if err != nil {
		return writeServerError(c, err)
	}
	if !ok {
		return writeNotFound(c, "no epoch checkpoints for "+name)
	}
	path := checkpoint.Filename(s.cfg.ModelDir, name, strconv.Itoa(epoch), s.ext())
	return c.JSON(http.StatusOK, LatestCheckpoint{Name: name, Epoch: epoch, Path: filepath.Base(path)})
}

func (s *Server) handleInspectCheckpoint(c *echo.Context) error {
	name, suffix := c.Param("name"), c.Param("suffix")
	if !validName(name) || !validName(suffix) {
		return writeBadRequest(c, "invalid checkpoint name or suffix")
	}
	path := checkpoint.Filename(s.cfg.ModelDir, name, suffix, s.ext())
	f, err := safetensors.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return writeNotFound(c, "checkpoint not found: "+filepath.Base(path))
	}
	if err != nil {
		return writeServerError(c, err)
	}
	defer f.Close()

	return c.JSON(http.StatusOK, CheckpointInfo{
		Name:     name,
		Suffix:   suffix,
		Path:     filepath.Base(path),
		Metadata: f.Metadata,
		Tensors:  Summarize(f),
	})
}

// Summarize lists the tensors of f in name order.
func Summarize(f *safetensors.File) []TensorSummary {
	names := f.Names()
	out := make([]TensorSummary, 0, len(names))
	for _, n := range names {
		info := f.Tensors[n]
		out = append(out, TensorSummary{Name: n, DType: info.DType, Shape: info.Shape})
	}
	return out
}
