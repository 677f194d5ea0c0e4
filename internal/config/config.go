// Package config loads stgov settings from an optional stgov.yaml, STGOV_*
// environment variables, and command-line flags bound by the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Keys shared by the config file, the environment, and CLI flags.
const (
	KeyDB       = "db"
	KeyAdmins   = "admins"
	KeyLogLevel = "log_level"
	KeyListen   = "listen"
	KeyUser     = "as"
)

// EnvPrefix is prepended to every environment variable, e.g. STGOV_DB.
const EnvPrefix = "STGOV"

// Config holds the configuration for the application.
type Config struct {
	DB       string   `mapstructure:"db"`
	Admins   []string `mapstructure:"admins"`
	LogLevel string   `mapstructure:"log_level"`
	Listen   string   `mapstructure:"listen"`

	// User is the caller identity for mutating commands.
	User string `mapstructure:"as"`
}

// New returns a viper instance with stgov defaults, search paths, and
// environment binding. An explicit file path overrides the search.
func New(file string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDB, "stgov.db")
	v.SetDefault(KeyAdmins, []string{})
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyListen, "127.0.0.1:8080")
	v.SetDefault(KeyUser, "")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("stgov")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".stgov"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes the merged settings.
// A missing stgov.yaml is not an error; a missing explicit file is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Admins = normalizeAdmins(cfg.Admins)

	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level parses LogLevel as a slog level name (debug, info, warn, error).
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// normalizeAdmins splits comma-joined entries from the environment and
// drops blanks.
func normalizeAdmins(in []string) []string {
	out := []string{}
	for _, entry := range in {
		for _, id := range strings.Split(entry, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
