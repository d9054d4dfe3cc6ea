// Package config holds the engine settings read from a YAML file.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"qexec/pkg/dberror"
	"qexec/pkg/logging"
	"qexec/pkg/optimizer"
)

const (
	MinPageSize = 64
	MinBuffers  = 3
)

type Config struct {
	PageSize   int             `yaml:"page_size"`
	NumBuffers int             `yaml:"num_buffers"`
	TempDir    string          `yaml:"temp_dir"`
	DataDir    string          `yaml:"data_dir"`
	Optimizer  OptimizerConfig `yaml:"optimizer"`
	Logging    LoggingConfig   `yaml:"logging"`
}

type OptimizerConfig struct {
	Strategy string `yaml:"strategy"`
	// Seed for the plan search; 0 picks one from the clock.
	Seed int64 `yaml:"seed"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		PageSize:   4096,
		NumBuffers: 50,
		TempDir:    os.TempDir(),
		DataDir:    "./qexec-data",
		Optimizer:  OptimizerConfig{Strategy: string(optimizer.Strategy2PO)},
		Logging:    LoggingConfig{Level: "warn", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CategoryIO, dberror.CodeInvalidConfig, "Load", "Config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, dberror.Newf(dberror.CategoryFormat, dberror.CodeInvalidConfig, "%s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the engine cannot run without.
func (c *Config) Validate() error {
	if c.PageSize < MinPageSize {
		return dberror.Newf(dberror.CategoryPlan, dberror.CodeInvalidConfig,
			"page_size %d is below the minimum of %d", c.PageSize, MinPageSize)
	}
	if c.NumBuffers < MinBuffers {
		return dberror.Newf(dberror.CategoryPlan, dberror.CodeInvalidConfig,
			"num_buffers %d is below the minimum of %d", c.NumBuffers, MinBuffers)
	}
	if _, err := optimizer.ParseStrategy(c.Optimizer.Strategy); err != nil {
		return dberror.Newf(dberror.CategoryPlan, dberror.CodeInvalidConfig,
			"optimizer.strategy: %v", err).WithHint("use ii, sa or 2po")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return dberror.Newf(dberror.CategoryPlan, dberror.CodeInvalidConfig,
			"logging.format %q must be text or json", c.Logging.Format)
	}
	return nil
}

// RunTempDir creates a private spill directory under TempDir for one
// process. Operator ids restart in every process, so concurrent runs must
// not share a directory. cleanup removes the directory and its contents.
func (c *Config) RunTempDir() (dir string, cleanup func() error, err error) {
	if err := os.MkdirAll(c.TempDir, 0o750); err != nil {
		return "", nil, dberror.Wrap(err, dberror.CategoryIO, dberror.CodeTempFileCreate, "RunTempDir", "Config")
	}
	dir, err = os.MkdirTemp(c.TempDir, "qexec-")
	if err != nil {
		return "", nil, dberror.Wrap(err, dberror.CategoryIO, dberror.CodeTempFileCreate, "RunTempDir", "Config")
	}
	return dir, func() error { return os.RemoveAll(dir) }, nil
}

func (c *Config) Strategy() optimizer.Strategy {
	s, _ := optimizer.ParseStrategy(c.Optimizer.Strategy)
	return s
}

// Seed returns the configured search seed, or the current time when unset.
func (c *Config) Seed() int64 {
	if c.Optimizer.Seed != 0 {
		return c.Optimizer.Seed
	}
	return time.Now().UnixNano()
}

func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		Level:      logging.LogLevel(c.Logging.Level),
		Format:     c.Logging.Format,
		OutputPath: c.Logging.Output,
	}
}
