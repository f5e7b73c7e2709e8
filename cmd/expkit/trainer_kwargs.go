package main

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/expkit/internal/apiparser"
	"github.com/samcharles93/expkit/internal/runconfig"
)

func trainerKwargsCmd(a *app) *cli.Command {
	var parser string
	return &cli.Command{
		Name:      "trainer-kwargs",
		Usage:     "Merge config files and print the trainer arguments they produce as JSON",
		ArgsUsage: "FILE.yaml...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "parser",
				Usage:       "api parser (" + strings.Join(apiparser.Names(), ", ") + ")",
				Value:       apiparser.BaseName,
				Destination: &parser,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyParserConfig(cmd, a.cfg, &parser)
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return errors.New("trainer-kwargs: at least one config file is required")
			}
			docs, err := runconfig.ReadDocuments(files...)
			if err != nil {
				return err
			}
			merged := runconfig.NewMap()
			for _, d := range docs {
				merged = runconfig.Merge(merged, d.Doc, runconfig.Unbounded)
			}

			b, err := apiparser.New(parser, merged)
			if err != nil {
				return err
			}
			kw, err := b.TrainerKwargs()
			if err != nil {
				return err
			}
			return printJSON(a, kw)
		},
	}
}
