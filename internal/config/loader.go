package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables understood by Load.
const (
	EnvPrefix = "APEX_"
	EnvFile   = "APEX_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if APEX_CONFIG is set
//  3. env (prefix APEX_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvFile))
}

// LoadFile is Load with an explicit YAML file; an empty path skips the file layer.
func LoadFile(_ context.Context, path string) (*Config, error) {
	cfg := *New()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// APEX_DATA_FILE -> data_file. Underscores are kept to match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// A configured point table replaces the default one instead of merging into it.
	if k.Exists("actions") {
		cfg.Actions = nil
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that the rest of the program relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataFile) == "":
		return fmt.Errorf("%w: data_file must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.BackupDir) == "":
		return fmt.Errorf("%w: backup_dir must not be empty", ErrInvalidConfig)
	case len(c.Actions) == 0:
		return fmt.Errorf("%w: actions must not be empty", ErrInvalidConfig)
	case c.NotifyWorkers > 1:
		return fmt.Errorf("%w: notify_workers must be 1, changes are applied in order", ErrInvalidConfig)
	}
	for kind, points := range c.Actions {
		if strings.TrimSpace(kind) == "" {
			return fmt.Errorf("%w: action names must not be empty", ErrInvalidConfig)
		}
		if points <= 0 {
			return fmt.Errorf("%w: action %q must be worth a positive number of points", ErrInvalidConfig, kind)
		}
	}
	if _, ok := c.Actions[c.CheckInAction]; !ok {
		return fmt.Errorf("%w: checkin_action %q is not in actions", ErrInvalidConfig, c.CheckInAction)
	}
	return nil
}
