package main

import "github.com/urfave/cli/v3"

func globalFlags(a *app) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to the expkit config file (default ~/.config/expkit/config.yaml)",
			Destination: &a.configFile,
		},
		&cli.StringFlag{
			Name:        "experiment-dir",
			Aliases:     []string{"e"},
			Usage:       "experiment folder holding configs/ and saved_models/ (or $" + envExperimentDir + ")",
			Destination: &a.experimentDir,
		},
	}
}

func loggingFlags(a *app) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &a.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, pretty, json, text)",
			Value:       "auto",
			Destination: &a.logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &a.debug,
		},
	}
}

func subExperimentFlag(dest *[]string) cli.Flag {
	return &cli.StringSliceFlag{
		Name:        "sub-experiment",
		Aliases:     []string{"s"},
		Usage:       "sub-experiment as name=model_dir, in resume folder order (repeatable)",
		Destination: dest,
	}
}

func jsonFlag(dest *bool) cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "print JSON",
		Destination: dest,
	}
}
