// Package config loads docql settings.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults
//  2. a YAML file (--config, $DOCQL_CONFIG, or ./docql.yaml)
//  3. DOCQL_* environment variables, e.g. DOCQL_SEARCH_DEFAULT_SIZE
//
// A .env file in the working directory is read first and only fills
// variables that are not already set.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/roach88/docql/internal/logging"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "DOCQL_"

	// ConfigPathEnvVar names a config file when --config is not given.
	ConfigPathEnvVar = "DOCQL_CONFIG"

	// DefaultConfigFile is used when it exists in the working directory.
	DefaultConfigFile = "docql.yaml"

	// DefaultEnvFile is the dotenv file read before the environment layer.
	DefaultEnvFile = ".env"
)

// Config is the complete docql configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Search   SearchConfig   `koanf:"search"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig locates and tunes the SQLite database.
type DatabaseConfig struct {
	Path        string `koanf:"path" validate:"required"`
	BusyTimeout int    `koanf:"busy_timeout" validate:"gte=0"` // milliseconds
}

// SearchConfig controls the read path.
type SearchConfig struct {
	DefaultSize  int  `koanf:"default_size" validate:"min=1,max=10000"`
	LenientReads bool `koanf:"lenient_reads"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Logging converts the section to a logging.Config writing to w.
func (c LogConfig) Logging(w io.Writer) logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format, Output: w}
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "docql.db",
			BusyTimeout: 5000,
		},
		Search: SearchConfig{
			DefaultSize:  10,
			LenientReads: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Options tells Load where to look.
type Options struct {
	// ConfigPath is an explicit YAML file; it must exist.
	ConfigPath string

	// EnvFile overrides DefaultEnvFile. A missing file is not an error.
	EnvFile string
}

// Load builds the configuration from defaults, file and environment, then
// validates it.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath, err := findConfigFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath turns "Config.Search.DefaultSize" into "Search.DefaultSize".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile resolves the config file: an explicit path must exist;
// otherwise $DOCQL_CONFIG, then DefaultConfigFile, are used if present.
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	}
	return "", nil
}

// envTransformFunc maps DOCQL_SECTION_KEY to section.key:
//
//	DOCQL_SEARCH_DEFAULT_SIZE -> search.default_size
//	DOCQL_DATABASE_PATH       -> database.path
//
// Variables without a section (DOCQL_CONFIG) are skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" {
		return ""
	}
	return section + "." + rest
}
