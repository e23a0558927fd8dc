package patrol

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigKind is the expected value of the config envelope's kind field.
const ConfigKind = "patrol"

// Candidate selection modes.
const (
	// CANDIDATES_ALL tries every free cell except the start.
	CANDIDATES_ALL = "all"
	// CANDIDATES_PATH tries only the free cells the unperturbed walk passes through, or
	// every candidate when that walk loops. The loop count is the same as CANDIDATES_ALL.
	CANDIDATES_PATH = "path"
)

// ErrInvalidConfig is wrapped by every config validation error.
var ErrInvalidConfig = errors.New("invalid config")

// OuterConfig is the config file envelope: a kind and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// SearchConfig holds the obstruction search parameters.
// The yaml keys are lowercase because viper lowercases every key it reads; config files
// may spell them in any case.
type SearchConfig struct {
	// Workers is the number of goroutines running trials.
	Workers int `yaml:"workers"`
	// Candidates selects which cells are tried: "all" or "path".
	Candidates string `yaml:"candidates"`
	// DeadlockPolicy is "loop" or "error", see DeadlockPolicy.
	DeadlockPolicy string `yaml:"deadlockpolicy"`
	// ProgressInterval is the number of trials between progress callbacks.
	ProgressInterval int `yaml:"progressinterval"`
	// SearchDeadline is a fixed duration after which the search is abandoned, e.g. {duration: 30s}.
	SearchDeadline map[string]string `yaml:"searchdeadline"`
}

// DefaultConfig tries every candidate on one worker per cpu.
func DefaultConfig() *SearchConfig {
	return &SearchConfig{
		Workers:          runtime.NumCPU(),
		Candidates:       CANDIDATES_ALL,
		DeadlockPolicy:   DeadlockLoop.String(),
		ProgressInterval: 64,
	}
}

// Validate fills zero values with defaults and checks the rest.
func (cfg *SearchConfig) Validate() error {
	defaults := DefaultConfig()
	if cfg.Workers == 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.Candidates == "" {
		cfg.Candidates = defaults.Candidates
	}
	if cfg.ProgressInterval == 0 {
		cfg.ProgressInterval = defaults.ProgressInterval
	}

	if cfg.Workers < 0 {
		return fmt.Errorf("workers %d: %w", cfg.Workers, ErrInvalidConfig)
	}
	if cfg.ProgressInterval < 0 {
		return fmt.Errorf("progressInterval %d: %w", cfg.ProgressInterval, ErrInvalidConfig)
	}
	cfg.Candidates = strings.ToLower(cfg.Candidates)
	if cfg.Candidates != CANDIDATES_ALL && cfg.Candidates != CANDIDATES_PATH {
		return fmt.Errorf("candidates %q: %w", cfg.Candidates, ErrInvalidConfig)
	}
	if _, err := ParseDeadlockPolicy(cfg.DeadlockPolicy); err != nil {
		return err
	}
	if val, ok := cfg.SearchDeadline["duration"]; ok {
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("searchDeadline: %v: %w", err, ErrInvalidConfig)
		}
	}
	return nil
}

// Policy returns the parsed deadlock policy, defaulting to DeadlockLoop.
func (cfg *SearchConfig) Policy() DeadlockPolicy {
	policy, _ := ParseDeadlockPolicy(cfg.DeadlockPolicy)
	return policy
}

// WithSearchDeadline returns a context extended by the search deadline, if one is specified.
func (cfg *SearchConfig) WithSearchDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.SearchDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, err
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}

// FromYaml reads the config envelope with viper, then decodes its definition into
// a SearchConfig by round-tripping it through yaml.
func FromYaml(path string) (*SearchConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if outerConfig.Kind != ConfigKind {
		return nil, fmt.Errorf("config kind %q, expected %q: %w", outerConfig.Kind, ConfigKind, ErrInvalidConfig)
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := &SearchConfig{}
	if err = yaml.Unmarshal(def, innerConfig); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err = innerConfig.Validate(); err != nil {
		return nil, err
	}

	return innerConfig, nil
}
