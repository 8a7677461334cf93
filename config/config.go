package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/s0up4200/uptick/filter"
)

// EnvPrefix prefixes every environment override, e.g. UPTICK_TMDB_API_KEY
const EnvPrefix = "UPTICK"

// LegacyAPIKeyEnv is also accepted for tmdb.api_key
const LegacyAPIKeyEnv = "MOVIE_API_KEY"

// Load loads the configuration from file, environment and .env. Without an
// explicit path a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("tmdb.api_key", EnvPrefix+"_TMDB_API_KEY", LegacyAPIKeyEnv); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".uptick"))
		}

		// Check /etc
		v.AddConfigPath("/etc/uptick/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// TMDB defaults
	v.SetDefault("tmdb.url", "https://api.themoviedb.org")
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.timeout", "30s")
	v.SetDefault("tmdb.rate_limit", 0)
	v.SetDefault("tmdb.rate_burst", 1)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.size", 16)
	v.SetDefault("cache.ttl", "10m")

	// Server defaults
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

var structValidator = newValidator()

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return describe(fieldErrs[0])
		}
		return err
	}

	// Validate named filters
	names := make([]string, 0, len(cfg.Filters))
	for name := range cfg.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	compiler := filter.NewCompiler()
	for _, name := range names {
		if strings.TrimSpace(cfg.Filters[name]) == "" {
			return fmt.Errorf("filter %q has an empty expression", name)
		}
		if _, err := compiler.Compile(cfg.Filters[name]); err != nil {
			return fmt.Errorf("invalid filter %q: %w", name, err)
		}
	}

	return nil
}

// describe turns a field error into a message naming the config key
func describe(fe validator.FieldError) error {
	_, key, _ := strings.Cut(fe.Namespace(), ".")

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "url":
		return fmt.Errorf("%s must be a valid URL: %v", key, fe.Value())
	case "oneof":
		return fmt.Errorf("invalid %s: %v (must be one of: %s)", strings.ReplaceAll(key, ".", " "), fe.Value(),
			strings.Join(strings.Fields(fe.Param()), ", "))
	case "gte":
		return fmt.Errorf("%s must be at least %s, got %v", key, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("invalid %s: %v", key, fe.Value())
	}
}

// Filter returns the named filter expression. Names are case-insensitive
// because viper lowercases map keys.
func (c *Config) Filter(name string) (string, bool) {
	expression, ok := c.Filters[strings.ToLower(name)]
	return expression, ok
}
