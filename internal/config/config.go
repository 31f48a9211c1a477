// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers sources on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the event log backend: memory, sqlite, postgres, redis, bolt.
	Store string `koanf:"store"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// BoltPath is the database file for the bolt backend.
	BoltPath string `koanf:"bolt_path"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `koanf:"postgres_dsn"`

	// Redis backend connection.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisKey      string `koanf:"redis_key"`

	// ActivityWindowDays is how many days a rated match keeps a player active.
	ActivityWindowDays int `koanf:"activity_window_days"`

	// KSingles and KDoubles are the K-factors per match kind.
	KSingles float64 `koanf:"k_singles"`
	KDoubles float64 `koanf:"k_doubles"`

	// Scale is the logistic scale of the expected score.
	Scale float64 `koanf:"scale"`

	// DefaultRating is the starting rating of players not in SeedRatings.
	DefaultRating float64 `koanf:"default_rating"`

	// SeedRatings replaces the built-in seed table when set.
	SeedRatings map[string]float64 `koanf:"seed_ratings"`

	// NewPlayerMarker prefixes the reason of new-player adjustments.
	NewPlayerMarker string `koanf:"new_player_marker"`

	// DedupeSize bounds the request-id cache used for idempotent writes.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Store:              "memory",
		SQLitePath:         "ladder.db",
		BoltPath:           "ladder.bolt",
		RedisKey:           "ladder:events",
		ActivityWindowDays: 30,
		KSingles:           24,
		KDoubles:           36,
		Scale:              400,
		DefaultRating:      1000,
		NewPlayerMarker:    "Přidání hráče",
		DedupeSize:         10_000,
	}
}
