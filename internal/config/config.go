// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that unmarshals from TOML strings ("90m").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Ptr returns the wrapped duration as a *time.Duration, nil when unset.
func (d *Duration) Ptr() *time.Duration {
	if d == nil {
		return nil
	}
	v := time.Duration(*d)
	return &v
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig             `toml:"server"`
	Database  DatabaseConfig           `toml:"database"`
	Downloads DownloadsConfig          `toml:"downloads"`
	Scout     ScoutConfig              `toml:"scout"`
	Cleanup   CleanupConfig            `toml:"cleanup"`
	Indexers  map[string]IndexerConfig `toml:"indexers"`
}

type ServerConfig struct {
	LogLevel     string   `toml:"log_level"`
	TickInterval Duration `toml:"tick_interval"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type DownloadsConfig struct {
	Root              string    `toml:"root"`
	Port              int       `toml:"port"`
	MaxConcurrent     int       `toml:"max_concurrent"`
	DownSpeedLimit    int64     `toml:"down_speed_limit"`
	UpSpeedLimit      int64     `toml:"up_speed_limit"`
	IntegrityEnabled  bool      `toml:"integrity_enabled"`
	IntegrityPatience *Duration `toml:"integrity_patience"`
}

type ScoutConfig struct {
	Frequency    Duration                     `toml:"frequency"`
	Requirements map[string]RequirementConfig `toml:"requirements"`
	Redirects    map[string][]RedirectRule    `toml:"redirects"`
}

// RequirementConfig is the scouting policy for one media type
// ("movie" or "episode").
type RequirementConfig struct {
	Parameters         []ParameterConfig `toml:"parameters"`
	Delay              *Duration         `toml:"delay"`
	Timeout            *Duration         `toml:"timeout"`
	NoResultThrottle   *Duration         `toml:"no_result_throttle"`
	ReleaseDayDeadline *Duration         `toml:"release_day_deadline"`
}

type ParameterConfig struct {
	Category    string    `toml:"category"`
	Comparison  string    `toml:"comparison"`
	Definitions []string  `toml:"definitions"`
	Patience    *Duration `toml:"patience"`
	Weight      int       `toml:"weight"`
}

// RedirectRule remaps a show's episode numbering when indexers use a
// different scheme than the catalog.
type RedirectRule struct {
	SeasonFrom  *int   `toml:"season_from"`
	SeasonTo    *int   `toml:"season_to"`
	EpisodeFrom *int   `toml:"episode_from"`
	EpisodeTo   *int   `toml:"episode_to"`
	SeasonExpr  string `toml:"season_expr"`
	EpisodeExpr string `toml:"episode_expr"`
}

type CleanupConfig struct {
	Enabled  bool      `toml:"enabled"`
	Movies   *Duration `toml:"movies"`
	Episodes *Duration `toml:"episodes"`
}

type IndexerConfig struct {
	Enabled  bool     `toml:"enabled"`
	URL      string   `toml:"url"`
	APIKey   string   `toml:"api_key"`
	Priority int      `toml:"priority"`
	Genres   []string `toml:"genres"`
}

// Load reads, parses and validates the configuration file. Unresolved
// environment variables and validation failures are aggregated into one
// ConfigError.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// LoadWithoutValidation parses the file and applies defaults, skipping
// validation. Used by `config check` style tooling.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.TickInterval == 0 {
		cfg.Server.TickInterval = Duration(time.Minute)
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/fetcharr.db"
	}
	if cfg.Scout.Frequency == 0 {
		cfg.Scout.Frequency = Duration(12 * time.Hour)
	}

	return &cfg, missing, nil
}

// substituteEnvVars replaces ${VAR}, ${VAR:-default} and ${VAR:?message}
// with environment variable values, reporting variables that resolved to
// nothing. For the :- and :? forms an empty value counts as unset.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*)|:\?([^}]*))?\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, op := groups[1], groups[2]
		value, ok := os.LookupEnv(name)

		switch {
		case strings.HasPrefix(op, ":-"):
			if value != "" {
				return value
			}
			return groups[3]
		case strings.HasPrefix(op, ":?"):
			if value != "" {
				return value
			}
			missing = append(missing, name+": "+groups[4])
			return match
		default:
			if ok {
				return value
			}
			missing = append(missing, name)
			return match
		}
	})
	return out, missing
}
