package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/expkit/internal/api"
	"github.com/samcharles93/expkit/internal/checkpoint"
	"github.com/samcharles93/expkit/internal/logger"
	"github.com/samcharles93/expkit/internal/nn"
	"github.com/samcharles93/expkit/internal/optim"
	"github.com/samcharles93/expkit/internal/runconfig"
	"github.com/samcharles93/expkit/internal/safetensors"
	"github.com/samcharles93/expkit/internal/state"
)

func checkpointCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "checkpoint",
		Usage: "Inspect and exercise model checkpoints",
		Commands: []*cli.Command{
			checkpointLatestCmd(a),
			checkpointEpochsCmd(a),
			checkpointInspectCmd(a),
			checkpointInitCmd(a),
			checkpointVerifyCmd(a),
		},
	}
}

func checkpointLatestCmd(a *app) *cli.Command {
	var pattern string
	return &cli.Command{
		Name:      "latest",
		Usage:     "Print the latest epoch saved for a model name",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "pattern",
				Usage:       "glob inside the model folder (default NAME_*.pth)",
				Destination: &pattern,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" && pattern == "" {
				return errors.New("checkpoint latest: NAME or --pattern is required")
			}
			if pattern == "" {
				pattern = name + "_*" + checkpoint.DefaultExt
			}
			l, err := a.layout()
			if err != nil {
				return err
			}
			v, ok, err := checkpoint.LatestVersion(l.modelDir, pattern)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no checkpoints match %s in %s", pattern, l.modelDir)
			}
			_, err = fmt.Fprintln(a.out, v)
			return err
		},
	}
}

func checkpointEpochsCmd(a *app) *cli.Command {
	var subs []string
	return &cli.Command{
		Name:  "epochs",
		Usage: "Print the latest trunk epoch of each sub-experiment and the resume diff folder name",
		Flags: []cli.Flag{subExperimentFlag(&subs)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := a.layout()
			if err != nil {
				return err
			}
			parsed, err := parseSubExperiments(subs, l)
			if err != nil {
				return err
			}
			epochs, err := checkpoint.LatestSubExperimentEpochs(parsed)
			if err != nil {
				return err
			}
			for _, e := range epochs {
				_, _ = fmt.Fprintf(a.out, "%s\t%d\n", e.Name, e.Epoch)
			}
			_, err = fmt.Fprintln(a.out, runconfig.ResumeDiffDirName(epochs.Values()))
			return err
		},
	}
}

func checkpointInspectCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the metadata and tensor listing of a checkpoint file as JSON",
		ArgsUsage: "FILE | NAME SUFFIX",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var path string
			switch cmd.NArg() {
			case 1:
				path = cmd.Args().First()
			case 2:
				l, err := a.layout()
				if err != nil {
					return err
				}
				path = checkpoint.Filename(l.modelDir, cmd.Args().Get(0), cmd.Args().Get(1), "")
			default:
				return errors.New("checkpoint inspect: want FILE or NAME SUFFIX")
			}
			f, err := safetensors.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			return printJSON(a, api.CheckpointInfo{
				Name:     f.Metadata["name"],
				Suffix:   f.Metadata["suffix"],
				Path:     filepath.Base(path),
				Metadata: f.Metadata,
				Tensors:  api.Summarize(f),
			})
		},
	}
}

// modelFlags describe the linear probe used by init and verify.
type modelFlags struct {
	name         string
	suffix       string
	in           int64
	out          int64
	dataParallel bool
	seed         int64
}

func (m *modelFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "checkpoint name", Value: "trunk", Destination: &m.name},
		&cli.StringFlag{Name: "suffix", Usage: "checkpoint suffix (epoch or best)", Value: "0", Destination: &m.suffix},
		&cli.Int64Flag{Name: "in", Usage: "input features", Value: 8, Destination: &m.in},
		&cli.Int64Flag{Name: "out", Usage: "output features", Value: 4, Destination: &m.out},
		&cli.BoolFlag{Name: "data-parallel", Usage: "wrap the model in a data-parallel container", Destination: &m.dataParallel},
		&cli.Int64Flag{Name: "seed", Usage: "initialization seed", Value: 1, Destination: &m.seed},
	}
}

func (m *modelFlags) build() (nn.Module, *optim.SGD, error) {
	if m.in <= 0 || m.out <= 0 {
		return nil, nil, fmt.Errorf("--in and --out must be positive, got %d and %d", m.in, m.out)
	}
	rng := rand.New(rand.NewPCG(uint64(m.seed), uint64(m.seed)))
	var model nn.Module = nn.NewNet().Add("fc", nn.NewLinear(int(m.in), int(m.out), true, rng))
	if m.dataParallel {
		model = nn.NewDataParallel(model)
	}
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01, Momentum: 0.9})
	return model, opt, nil
}

func (m *modelFlags) objects(model nn.Module, opt *optim.SGD) checkpoint.Objects {
	return checkpoint.Objects{
		{Name: m.name, Object: model},
		{Name: m.name + "_optimizer", Object: opt},
	}
}

func checkpointInitCmd(a *app) *cli.Command {
	var m modelFlags
	return &cli.Command{
		Name:  "init",
		Usage: "Save a freshly initialized linear model and its optimizer",
		Flags: m.flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := a.layout()
			if err != nil {
				return err
			}
			if err := runconfig.MakeDir(l.modelDir); err != nil {
				return err
			}
			model, opt, err := m.build()
			if err != nil {
				return err
			}
			store := checkpoint.NewStore(l.modelDir)
			store.Events = checkpoint.LogEvents(logger.FromContext(ctx))
			if err := store.Save(m.objects(model, opt), m.suffix); err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, checkpoint.Filename(l.modelDir, m.name, m.suffix, ""))
			return err
		},
	}
}

func checkpointVerifyCmd(a *app) *cli.Command {
	var (
		m      modelFlags
		device string
	)
	flags := append(m.flags(), &cli.StringFlag{
		Name:        "device",
		Usage:       "device to load onto (cpu, cuda, cuda:N, mps)",
		Value:       "cpu",
		Destination: &device,
	})
	return &cli.Command{
		Name:  "verify",
		Usage: "Load a checkpoint into a fresh model of the given shape",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := a.layout()
			if err != nil {
				return err
			}
			dev, err := state.ParseDevice(device)
			if err != nil {
				return err
			}
			model, opt, err := m.build()
			if err != nil {
				return err
			}

			log := logger.FromContext(ctx)
			logEvents := checkpoint.LogEvents(log)
			fallbacks := 0
			store := checkpoint.NewStore(l.modelDir)
			store.Events = checkpoint.EventFunc(func(e checkpoint.Event) {
				if e.Fallback {
					fallbacks++
				}
				logEvents.Event(e)
			})
			if err := store.Load(m.objects(model, opt), m.suffix, dev); err != nil {
				return err
			}
			opt.MoveState(dev)

			layer := "none"
			if net, ok := unwrap(model).(nn.LayerLookup); ok {
				if _, name, ok := nn.GetLastLinear(net); ok {
					layer = name
				}
			}
			_, err = fmt.Fprintf(a.out, "ok params=%d last_linear=%s fallbacks=%d\n", len(model.Parameters()), layer, fallbacks)
			return err
		},
	}
}

func unwrap(m nn.Module) nn.Module {
	if dp, ok := m.(*nn.DataParallel); ok {
		return dp.Module
	}
	return m
}
