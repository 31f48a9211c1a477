package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "LADDER_"
	envConfigFile = "LADDER_CONFIG"
	envDotEnvFile = "LADDER_ENV_FILE"
	defaultDotEnv = ".env"
)

var validStores = map[string]bool{"memory": true, "sqlite": true, "postgres": true, "redis": true, "bolt": true}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LADDER_CONFIG is set
//  3. env (prefix LADDER_), after loading a .env file if one exists
func Load(_ context.Context) (*Config, error) {
	base := New()

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// LADDER_K_SINGLES -> k_singles (flat keys, underscores preserved).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv reads LADDER_ENV_FILE (default .env) into the process
// environment without overriding variables that are already set.
func loadDotEnv() error {
	path := os.Getenv(envDotEnvFile)
	if path == "" {
		path = defaultDotEnv
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !validStores[strings.ToLower(c.Store)]:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case strings.EqualFold(c.Store, "sqlite") && c.SQLitePath == "":
		return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	case strings.EqualFold(c.Store, "bolt") && c.BoltPath == "":
		return fmt.Errorf("%w: bolt_path must not be empty", ErrInvalidConfig)
	case strings.EqualFold(c.Store, "postgres") && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn must not be empty", ErrInvalidConfig)
	case strings.EqualFold(c.Store, "redis") && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr must not be empty", ErrInvalidConfig)
	case c.ActivityWindowDays <= 0:
		return fmt.Errorf("%w: activity_window_days must be positive", ErrInvalidConfig)
	case c.KSingles <= 0 || c.KDoubles <= 0:
		return fmt.Errorf("%w: k factors must be positive", ErrInvalidConfig)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale must be positive", ErrInvalidConfig)
	case c.DefaultRating <= 0:
		return fmt.Errorf("%w: default_rating must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.NewPlayerMarker) == "":
		return fmt.Errorf("%w: new_player_marker must not be empty", ErrInvalidConfig)
	}
	return nil
}
