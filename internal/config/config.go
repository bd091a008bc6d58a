// Package config provides Viper-based configuration management for postctl
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/klass-lk/postboot"
)

// Config represents the complete postctl configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
}

// DatabaseConfig holds the connection string of the posts database
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Color string `mapstructure:"color"`
}

// RequireURL returns the database URL, or ErrMissingConfig when none is set.
func (d DatabaseConfig) RequireURL() (string, error) {
	if d.URL == "" {
		return "", postboot.ErrMissingConfig.New("DATABASE_URL")
	}
	return d.URL, nil
}

// Load reads .env, the optional config file and environment variables.
// DATABASE_URL wins over database.url from any other source.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".postctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/postctl")
	}

	v.SetEnvPrefix("POSTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("output.color", "POSTCTL_OUTPUT_COLOR", "POSTCTL_COLOR")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("output.color", "auto")
}

func validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return postboot.ErrInvalidArgument.New(fmt.Sprintf("log.level %q must be debug, info, warn or error", cfg.Log.Level))
	}

	switch cfg.Output.Color {
	case "auto", "always", "never":
	default:
		return postboot.ErrInvalidArgument.New(fmt.Sprintf("output.color %q must be auto, always or never", cfg.Output.Color))
	}

	return nil
}
