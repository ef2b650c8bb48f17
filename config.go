package qsim

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

/*
Config holds the tunables of circuits and sampling pools. Seed selects the
random-source policy: nil means every source is seeded from ambient entropy,
a value makes circuit runs and pool campaigns reproducible.
*/
type Config struct {
	Workers           int           `yaml:"workers"`
	BatchSize         int           `yaml:"batch_size"`
	SchedulingTimeout time.Duration `yaml:"scheduling_timeout"`
	Seed              *uint64       `yaml:"seed"`
	HistoryLimit      int           `yaml:"history_limit"`
}

func NewConfig() *Config {
	return &Config{
		Workers:           4,
		BatchSize:         256,
		SchedulingTimeout: 10 * time.Second,
	}
}

// LoadConfig reads YAML from r on top of the defaults of NewConfig.
func LoadConfig(r io.Reader) (*Config, error) {
	config := NewConfig()

	if err := yaml.NewDecoder(r).Decode(config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigFile reads a YAML config from path.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	return LoadConfig(f)
}

// Validate rejects values no pool or circuit can run with.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	case c.BatchSize < 1:
		return fmt.Errorf("config: batch_size must be at least 1, got %d", c.BatchSize)
	case c.SchedulingTimeout <= 0:
		return fmt.Errorf("config: scheduling_timeout must be positive, got %v", c.SchedulingTimeout)
	case c.HistoryLimit < 0:
		return fmt.Errorf("config: history_limit cannot be negative, got %d", c.HistoryLimit)
	}

	return nil
}

// WithSeed returns a copy of the config with a fixed seed.
func (c *Config) WithSeed(seed uint64) *Config {
	clone := *c
	clone.Seed = &seed
	return &clone
}
