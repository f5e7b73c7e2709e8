package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/expkit/internal/checkpoint"
	"github.com/samcharles93/expkit/internal/logger"
	"github.com/samcharles93/expkit/internal/runconfig"
)

func configCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Save and inspect the run configuration of an experiment",
		Commands: []*cli.Command{
			configSaveCmd(a),
			configShowCmd(a),
			configDiffsCmd(a),
		},
	}
}

func configSaveCmd(a *app) *cli.Command {
	var (
		resume    bool
		reproduce bool
		subs      []string
	)
	return &cli.Command{
		Name:      "save",
		Usage:     "Merge config files into the experiment, or record what changed on resume",
		ArgsUsage: "FILE.yaml...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "resume",
				Usage:       "record changed keys in a resume diff folder instead of rewriting",
				Destination: &resume,
			},
			&cli.BoolFlag{
				Name:        "reproduce",
				Usage:       "merge top-level keys only",
				Destination: &reproduce,
			},
			subExperimentFlag(&subs),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return errors.New("config save: at least one config file is required")
			}
			l, err := a.layout()
			if err != nil {
				return err
			}
			docs, err := runconfig.ReadDocuments(files...)
			if err != nil {
				return err
			}

			opts := runconfig.Options{ResumeTraining: resume, ReproduceResults: reproduce}
			if resume {
				parsed, err := parseSubExperiments(subs, l)
				if err != nil {
					return err
				}
				epochs, err := checkpoint.LatestSubExperimentEpochs(parsed)
				if err != nil {
					return err
				}
				opts.LatestEpochs = epochs.Values()
				log.Info("resuming from latest epochs", "epochs", epochs.Map())
			}

			diffDir, err := runconfig.SaveConfigFiles(l.configDir, docs, opts)
			if err != nil {
				return err
			}
			if diffDir != "" {
				log.Info("wrote resume config diff", "dir", diffDir)
				_, _ = fmt.Fprintln(a.out, diffDir)
				return nil
			}
			log.Info("saved config files", "count", len(docs), "dir", l.configDir, "resume", resume)
			return nil
		},
	}
}

func configShowCmd(a *app) *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a saved config category",
		ArgsUsage: "CATEGORY",
		Flags:     []cli.Flag{jsonFlag(&asJSON)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			category := cmd.Args().First()
			if category == "" {
				return errors.New("config show: category is required")
			}
			l, err := a.layout()
			if err != nil {
				return err
			}
			doc, err := runconfig.LoadFile(filepath.Join(l.configDir, category+".yaml"))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(a, doc)
			}
			data, err := runconfig.Marshal(doc)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
}

func configDiffsCmd(a *app) *cli.Command {
	var (
		prefixes        []string
		numTrainingSets int64
		asJSON          bool
	)
	return &cli.Command{
		Name:  "diffs",
		Usage: "List resume diff folders and the sub-experiment epochs they were written at",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "prefix",
				Usage:       "split scheme prefix (repeatable)",
				Destination: &prefixes,
			},
			&cli.Int64Flag{
				Name:        "num-training-sets",
				Usage:       "training sets per split scheme",
				Value:       1,
				Destination: &numTrainingSets,
			},
			jsonFlag(&asJSON),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyDiffsConfig(cmd, a.cfg, &prefixes, &numTrainingSets)
			l, err := a.layout()
			if err != nil {
				return err
			}
			diffs, err := runconfig.AllResumeTrainingConfigDiffs(l.configDir, prefixes, int(numTrainingSets))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(a, diffs)
			}
			for _, d := range diffs {
				names := make([]string, 0, len(d.Epochs))
				for name := range d.Epochs {
					names = append(names, name)
				}
				slices.Sort(names)
				pairs := make([]string, len(names))
				for i, name := range names {
					pairs[i] = fmt.Sprintf("%s=%d", name, d.Epochs[name])
				}
				_, _ = fmt.Fprintf(a.out, "%s\t%s\n", filepath.Base(d.Dir), strings.Join(pairs, " "))
			}
			return nil
		},
	}
}

func printJSON(a *app, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(data))
	return err
}
