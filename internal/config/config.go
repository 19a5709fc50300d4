// Package config loads application configuration from a YAML file,
// ARTLOOP_-prefixed environment variables and command-line flags, in
// ascending order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "ARTLOOP_"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the runtime settings. The database path is always explicit;
// it is never derived from the working directory.
type Config struct {
	DB         string `koanf:"db" validate:"required"`
	Listen     string `koanf:"listen" validate:"required"`
	QueueLimit int    `koanf:"queue-limit" validate:"gt=0"`
}

// Flags returns the flag set understood by the application. Flag defaults
// double as configuration defaults.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("artloop", pflag.ContinueOnError)
	f.String("config", "", "Path to a YAML config file")
	f.String("db", "artloop.db", "Path to the SQLite database file")
	f.String("listen", ":8080", "Address for the HTTP server to listen on")
	f.Int("queue-limit", 20, "Default maximum number of items in the review queue")
	return f
}

// Load merges the config file (if any), environment and flags into a
// validated Config.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		// ARTLOOP_QUEUE_LIMIT -> queue-limit
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "_", "-"), value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load flag config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
