package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	classifier "github.com/FrenchMajesty/dns-sequence-classifier"
	"github.com/FrenchMajesty/dns-sequence-classifier/cost"
	"github.com/FrenchMajesty/dns-sequence-classifier/evaluate"
	"github.com/FrenchMajesty/dns-sequence-classifier/knn"
)

// Config is the YAML run configuration
type Config struct {
	Cost     cost.Model `yaml:"cost"`
	K        int        `yaml:"k"`
	TieBreak string     `yaml:"tie_break"`
	Workers  int        `yaml:"workers"`

	// MaxNormalizedDistance drops neighbors past this normalized distance. 0 keeps all.
	MaxNormalizedDistance float64 `yaml:"max_normalized_distance"`

	Folds    int    `yaml:"folds"`
	MaxK     int    `yaml:"max_k"`
	KStep    int    `yaml:"k_step"`
	LogLevel string `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Cost:     cost.Default(),
		K:        classifier.DefaultK,
		TieBreak: knn.IncludeTies{}.Name(),
		MaxK:     evaluate.DefaultMaxK,
		KStep:    evaluate.DefaultKStep,
		LogLevel: "info",
	}
}

// loadConfig reads path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config from file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// validate rejects values a config file stated explicitly. Unset keys keep the
// defaults, so a k or max_k below 1 here was written by the user.
func (c Config) validate() error {
	if err := c.Cost.Validate(); err != nil {
		return err
	}
	if c.K < 1 {
		return fmt.Errorf("k: %w: got %d", classifier.ErrInvalidK, c.K)
	}
	if c.MaxK < 1 {
		return fmt.Errorf("max_k: %w: got %d", classifier.ErrInvalidK, c.MaxK)
	}
	if c.KStep < 1 {
		return fmt.Errorf("k_step must be positive, got %d", c.KStep)
	}
	return nil
}

// classifierConfig translates the run configuration
func (c Config) classifierConfig() (classifier.Config, error) {
	tb, err := knn.TieBreakerByName(c.TieBreak)
	if err != nil {
		return classifier.Config{}, err
	}
	return classifier.Config{
		CostModel:             c.Cost,
		K:                     c.K,
		TieBreaker:            tb,
		Workers:               c.Workers,
		MaxNormalizedDistance: c.MaxNormalizedDistance,
	}, nil
}

// newLogger builds a console logger for development or a JSON logger otherwise
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
