// Package config loads nhlmetrics settings from defaults, an optional YAML
// file and NHLMETRICS_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/pable/go-nhl-metrics/internal/source"
)

// Sentinel errors.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// EnvPrefix prefixes every environment override, e.g. NHLMETRICS_MIN_GAMES.
const EnvPrefix = "NHLMETRICS_"

// Config holds every tunable of the tool.
type Config struct {
	LogLevel string `koanf:"log_level"`
	DB       string `koanf:"db"`

	SourceBaseURL   string        `koanf:"source_base_url"`
	SourceShiftsURL string        `koanf:"source_shifts_url"`
	SourceTimeout   time.Duration `koanf:"source_timeout"`
	SourceRate      float64       `koanf:"source_rate"` // requests per second, 0 = unlimited

	Concurrency int `koanf:"concurrency"`

	// Policy values.
	MinGames           int     `koanf:"min_games"`
	Window             int     `koanf:"window"`
	HighDangerDistance float64 `koanf:"high_danger_distance"`

	// Cache lifetimes.
	GameTTL      time.Duration `koanf:"game_ttl"`
	AggregateTTL time.Duration `koanf:"aggregate_ttl"`
	TrendTTL     time.Duration `koanf:"trend_ttl"`
	SessionTTL   time.Duration `koanf:"session_ttl"`

	Season      string `koanf:"season"`
	SeasonGames int    `koanf:"season_games"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		DB:                 filepath.Join(userHome(), ".nhlmetrics", "metrics.db"),
		SourceBaseURL:      source.DefaultBaseURL,
		SourceShiftsURL:    source.DefaultShiftsURL,
		SourceTimeout:      30 * time.Second,
		SourceRate:         5,
		Concurrency:        4,
		MinGames:           3,
		Window:             10,
		HighDangerDistance: 25,
		GameTTL:            30 * 24 * time.Hour,
		AggregateTTL:       6 * time.Hour,
		TrendTTL:           24 * time.Hour,
		SessionTTL:         time.Hour,
		Season:             "20232024",
		SeasonGames:        1312,
	}
}

// Load layers defaults, the YAML file at path (or NHLMETRICS_CONFIG when
// path is empty) and environment variables. A .env file in the working
// directory is read first; it never overrides variables already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %v", ErrLoadConfig, err)
	}

	k := koanf.New(".")
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// NHLMETRICS_MIN_GAMES -> min_games; keys are flat.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	var problems []string
	if c.DB == "" {
		problems = append(problems, "db must not be empty")
	}
	if c.SourceBaseURL == "" {
		problems = append(problems, "source_base_url must not be empty")
	}
	if c.SourceTimeout <= 0 {
		problems = append(problems, "source_timeout must be positive")
	}
	if c.SourceRate < 0 {
		problems = append(problems, "source_rate must not be negative")
	}
	if c.Concurrency < 1 {
		problems = append(problems, "concurrency must be at least 1")
	}
	if c.MinGames < 1 {
		problems = append(problems, "min_games must be at least 1")
	}
	if c.Window < 1 {
		problems = append(problems, "window must be at least 1")
	}
	if c.HighDangerDistance <= 0 {
		problems = append(problems, "high_danger_distance must be positive")
	}
	for _, ttl := range []struct {
		name string
		d    time.Duration
	}{
		{"game_ttl", c.GameTTL}, {"aggregate_ttl", c.AggregateTTL},
		{"trend_ttl", c.TrendTTL}, {"session_ttl", c.SessionTTL},
	} {
		if ttl.d <= 0 {
			problems = append(problems, ttl.name+" must be positive")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
