package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/expkit/internal/version"
)

func versionCmd(a *app) *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{jsonFlag(&asJSON)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			if asJSON {
				return printJSON(a, info)
			}
			_, _ = fmt.Fprintf(a.out, "version:    %s\n", info.Version)
			if info.Commit != "" {
				_, _ = fmt.Fprintf(a.out, "commit:     %s\n", version.String())
			}
			if info.BuildTime != "" {
				_, _ = fmt.Fprintf(a.out, "build time: %s\n", info.BuildTime)
			}
			if info.GoVersion != "" {
				_, _ = fmt.Fprintf(a.out, "go:         %s\n", info.GoVersion)
			}
			return nil
		},
	}
}
