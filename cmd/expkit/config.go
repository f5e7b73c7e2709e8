package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config is the expkit config file. Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	ExperimentDir string `yaml:"experiment_dir"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`

	// Resume diff discovery
	SplitPrefixes   []string `yaml:"split_prefixes"`
	NumTrainingSets *int64   `yaml:"num_training_sets"`

	Parser        string `yaml:"api_parser"`
	ServerAddress string `yaml:"server_address"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "expkit", "config.yaml")
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing file yields a zero Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyGlobalConfig fills global flag values from cfg when the flag was not
// given on the command line.
func applyGlobalConfig(c *cli.Command, cfg Config, a *app) {
	if cfg.ExperimentDir != "" && !c.IsSet("experiment-dir") {
		a.experimentDir = cfg.ExperimentDir
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		a.logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		a.logFormat = cfg.LogFormat
	}
}

func applyDiffsConfig(c *cli.Command, cfg Config, prefixes *[]string, numTrainingSets *int64) {
	if len(cfg.SplitPrefixes) > 0 && !c.IsSet("prefix") {
		*prefixes = cfg.SplitPrefixes
	}
	if cfg.NumTrainingSets != nil && !c.IsSet("num-training-sets") {
		*numTrainingSets = *cfg.NumTrainingSets
	}
}

func applyParserConfig(c *cli.Command, cfg Config, parser *string) {
	if cfg.Parser != "" && !c.IsSet("parser") {
		*parser = cfg.Parser
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
