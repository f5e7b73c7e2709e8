// Package api serves a read-only HTTP view of one experiment: its saved
// config categories, resume diffs and checkpoints.
package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-Id"

// Config locates the experiment being served.
type Config struct {
	// ConfigDir holds the "<category>.yaml" files and resume diff folders.
	ConfigDir string
	// ModelDir holds the checkpoint files.
	ModelDir string
	// Ext is the checkpoint extension; empty means checkpoint.DefaultExt.
	Ext string
}

type Server struct {
	cfg   Config
	newID func() string
}

func NewServer(cfg Config) *Server {
	return &Server{
		cfg:   cfg,
		newID: uuid.NewString,
	}
}

// Register installs the request id middleware and every route on e.
func (s *Server) Register(e *echo.Echo) {
	e.Use(s.requestID)

	e.GET("/v1/configs", s.handleListConfigs)
	e.GET("/v1/configs/:category", s.handleGetConfig)
	e.GET("/v1/resume-diffs", s.handleResumeDiffs)
	e.GET("/v1/checkpoints/:name/latest", s.handleLatestCheckpoint)
	e.GET("/v1/checkpoints/:name/:suffix", s.handleInspectCheckpoint)
}

// requestID keeps an id supplied by the client and assigns one otherwise.
func (s *Server) requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(RequestIDHeader)
		if id == "" {
			id = s.newID()
		}
		c.Response().Header().Set(RequestIDHeader, id)
		return next(c)
	}
}
