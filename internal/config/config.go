// Package config loads the settings shared by the symbind commands.
//
// Priority is environment > file > defaults. Files are YAML (JSON is
// accepted as the YAML subset it is), and the merged result is checked
// with go-playground/validator before use.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/symbind"
	"github.com/njchilds90/symbind/internal/logging"
)

// Config is the full command configuration.
type Config struct {
	Scope  ScopeConfig  `yaml:"scope"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// ScopeConfig adjusts the standard scope.
type ScopeConfig struct {
	// NamePreference picks the alias NameOf reports: shortest or longest.
	NamePreference string `yaml:"name_preference" validate:"oneof=shortest longest"`

	// Aliases adds names for already bound functions and constants,
	// new name -> existing name.
	Aliases map[string]string `yaml:"aliases" validate:"dive,keys,required,endkeys,required"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr" validate:"required"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" validate:"gt=0"`
	BatchLimit   int    `yaml:"batch_limit" validate:"gte=1,lte=256"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Scope: ScopeConfig{NamePreference: "shortest"},
		Log:   LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
			BatchLimit:   8,
		},
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path or a missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("SYMBIND_NAME_PREFERENCE"); v != "" {
		cfg.Scope.NamePreference = v
	}
	if v := os.Getenv("SYMBIND_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SYMBIND_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SYMBIND_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SYMBIND_MAX_BODY_BYTES"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}
	if v := os.Getenv("SYMBIND_BATCH_LIMIT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.BatchLimit = i
		}
	}
}

// Logger builds the logger described by c.Log.
func (c Config) Logger(service string) (*slog.Logger, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:   level,
		Service: service,
		JSON:    strings.EqualFold(c.Log.Format, "json"),
	}), nil
}

// BuildScope builds and freezes the standard scope with the configured name
// preference and aliases.
func (c Config) BuildScope(logger *slog.Logger) (*symbind.Scope, error) {
	pref, err := symbind.ParseNamePreference(c.Scope.NamePreference)
	if err != nil {
		return nil, err
	}
	b := symbind.NewStandardBuilder(symbind.WithLogger(logger), symbind.WithNamePreference(pref))

	aliases := make([]string, 0, len(c.Scope.Aliases))
	for a := range c.Scope.Aliases {
		aliases = append(aliases, a)
	}
	slices.Sort(aliases)
	for _, a := range aliases {
		b.Alias(a, c.Scope.Aliases[a])
	}
	return b.Freeze()
}
