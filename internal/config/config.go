package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type GeneratorConfig struct {
	// Toolchain passed to cargo (e.g. "nightly"). Rustdoc JSON output
	// requires nightly today.
	Toolchain string `mapstructure:"toolchain"`
	// Features enabled when generating docs. Part of the cache fingerprint.
	Features []string `mapstructure:"features"`
	// TimeoutSeconds bounds a single external doc build.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DocsRSConfig struct {
	// Enabled controls the docs.rs fallback for external dependencies
	// that have no locally generated artifact.
	Enabled bool `mapstructure:"enabled"`
}

type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

type Config struct {
	Generator GeneratorConfig `mapstructure:"generator"`
	DocsRS    DocsRSConfig    `mapstructure:"docs_rs"`
	Search    SearchConfig    `mapstructure:"search"`
}

// cacheBase returns the base cache directory for rsdoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/rsdoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "rsdoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "rsdoc")
	}
	return filepath.Join(os.TempDir(), "rsdoc")
}

// RemoteCacheDir returns the directory holding fetched docs.rs artifacts.
func RemoteCacheDir() string {
	return filepath.Join(cacheBase(), "remote")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "rsdoc"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "rsdoc"))
	}

	viper.SetDefault("generator.toolchain", "nightly")
	viper.SetDefault("generator.timeout_seconds", 300)
	viper.SetDefault("docs_rs.enabled", true)
	viper.SetDefault("search.default_limit", 20)

	viper.SetEnvPrefix("RSDOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// stringToFeaturesHookFunc lets generator.features be written as a
// comma-separated string in env vars while staying a TOML array in files.
func stringToFeaturesHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf([]string{}) || f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)
		if s == "" {
			return []string{}, nil
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToFeaturesHookFunc(),
		Result:     &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
