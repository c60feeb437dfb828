package io

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slok/stockwatch/internal/model"
)

// ConfigYAMLRepository loads the client configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads the client configuration from a YAML file and returns a validated domain model.
// A missing file returns model.ErrNotFound.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (model.ClientConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.ClientConfig{}, fmt.Errorf("config file %s: %w", path, model.ErrNotFound)
		}
		return model.ClientConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.ClientConfig{}, ctx.Err()
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.ClientConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return model.ClientConfig{}, fmt.Errorf("invalid configuration: %w: %w", err, model.ErrNotValid)
	}

	return cfg.toModel(), nil
}

// ClientConfig represents the YAML structure of the client configuration.
type ClientConfig struct {
	Server   ServerConfig              `yaml:"server"`
	Tracker  TrackerConfig             `yaml:"tracker"`
	Analyses map[string]AnalysisConfig `yaml:"analyses"`
}

// ServerConfig represents the YAML structure of the analysis server configuration.
type ServerConfig struct {
	URL       string          `yaml:"url"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig represents the YAML structure of the client side rate limits.
type RateLimitConfig struct {
	StartPerMinute  int `yaml:"start_per_minute"`
	StatusPerMinute int `yaml:"status_per_minute"`
	Burst           int `yaml:"burst"`
}

// TrackerConfig represents the YAML structure of the task tracking configuration.
type TrackerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
	PollRetries  *int          `yaml:"poll_retries"`
}

// AnalysisConfig represents the YAML structure of an analysis kind configuration.
type AnalysisConfig struct {
	Params map[string]any `yaml:"params"`
}

func (c ClientConfig) validate() error {
	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server url must be an http(s) URL, got: %q", c.Server.URL)
		}
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server timeout can't be negative")
	}

	if c.Tracker.PollInterval < 0 {
		return fmt.Errorf("tracker poll_interval can't be negative")
	}
	if c.Tracker.Timeout < 0 {
		return fmt.Errorf("tracker timeout can't be negative")
	}
	if c.Tracker.PollRetries != nil && *c.Tracker.PollRetries < 0 {
		return fmt.Errorf("tracker poll_retries can't be negative")
	}
	if c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit burst can't be negative")
	}

	for kind := range c.Analyses {
		if err := model.AnalysisKind(kind).Validate(); err != nil {
			return fmt.Errorf("analyses: %w", err)
		}
	}

	return nil
}

func (c ClientConfig) toModel() model.ClientConfig {
	cfg := model.ClientConfig{
		ServerURL:       c.Server.URL,
		ServerTimeout:   c.Server.Timeout,
		StartPerMinute:  c.Server.RateLimit.StartPerMinute,
		StatusPerMinute: c.Server.RateLimit.StatusPerMinute,
		RateLimitBurst:  c.Server.RateLimit.Burst,
		PollInterval:    c.Tracker.PollInterval,
		Timeout:         c.Tracker.Timeout,
		PollRetries:     c.Tracker.PollRetries,
	}

	if len(c.Analyses) > 0 {
		cfg.AnalysisParams = make(map[model.AnalysisKind]model.AnalysisParams, len(c.Analyses))
		for kind, a := range c.Analyses {
			cfg.AnalysisParams[model.AnalysisKind(kind)] = model.AnalysisParams(a.Params)
		}
	}

	return cfg
}
