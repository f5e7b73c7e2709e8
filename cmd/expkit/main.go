package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/expkit/internal/logger"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the values of the global flags, after the config file overlay.
type app struct {
	out    io.Writer
	errOut io.Writer

	configFile    string
	experimentDir string
	logLevel      string
	logFormat     string
	debug         bool

	cfg Config
}

func newApp(out, errOut io.Writer) *cli.Command {
	a := &app{out: out, errOut: errOut}
	return &cli.Command{
		Name:      "expkit",
		Usage:     "Checkpoint and run configuration bookkeeping for training experiments",
		Writer:    out,
		ErrWriter: errOut,
		Flags:     append(globalFlags(a), loggingFlags(a)...),
		Before:    a.before,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			configCmd(a),
			checkpointCmd(a),
			trainerKwargsCmd(a),
			serveCmd(a),
			versionCmd(a),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(a.configFile)
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg
	applyGlobalConfig(cmd, cfg, a)

	level, err := logger.ParseLevel(a.logLevel)
	if err != nil {
		return ctx, err
	}
	if a.debug {
		level = slog.LevelDebug
	}
	format, err := logger.ParseFormat(a.logFormat)
	if err != nil {
		return ctx, err
	}
	log, err := logger.Setup(logger.Options{Level: level, Format: format, Writer: a.errOut})
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

// layout resolves the experiment folders for the current invocation.
func (a *app) layout() (layout, error) {
	return resolveLayout(a.experimentDir)
}
