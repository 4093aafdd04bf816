package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.toml
var defaultTOML []byte

// Environment variables that override file values.
const (
	EnvConfigPath = "REBALANCE_CONFIG"
	EnvRoot       = "REBALANCE_ROOT"
	EnvRunsDir    = "REBALANCE_RUNS_DIR"
	EnvLogLevel   = "REBALANCE_LOG_LEVEL"
	EnvLogDir     = "REBALANCE_LOG_DIR"
	EnvWorkers    = "REBALANCE_WORKERS"
)

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	if _, err := toml.NewDecoder(bytes.NewReader(defaultTOML)).Decode(&cfg); err != nil {
		panic(fmt.Sprintf("config: embedded default.toml is invalid: %v", err))
	}
	return cfg
}

// DefaultTOML returns the built-in configuration document, for operators
// who want a starting point for their own file.
func DefaultTOML() string {
	return string(defaultTOML)
}

// Load returns the built-in configuration overlaid with the file at path.
// An empty path returns the defaults. Keys unknown to the schema are an
// error. Each [profiles.<key>] table in the file replaces the default table
// of the same key as a whole.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	default:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
		if err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, fmt.Errorf("parse config %q: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}
	return cfg, nil
}

// LoadDotenv loads each dotenv file that exists. Missing files are skipped.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat dotenv file %q: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load dotenv file %q: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with the REBALANCE_* variables returned by getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvRoot)); v != "" {
		cfg.RootDirectory = v
	}
	if v := strings.TrimSpace(getenv(EnvRunsDir)); v != "" {
		cfg.RunsDir = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvLogDir)); v != "" {
		cfg.Logging.Dir = v
	}
	if v := strings.TrimSpace(getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer, got %q", EnvWorkers, v)
		}
		cfg.Workers = n
	}
	return nil
}
