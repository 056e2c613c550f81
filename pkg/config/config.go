// Package config loads the optimizer's JSON configuration file, adapted
// from the teacher's top-level application config (sections trimmed down
// to what a join-order optimizer actually needs: which cost adapter to
// run, how to persist the memo cache, and how verbosely to log).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the optimizer's full runtime configuration.
type Config struct {
	Optimizer OptimizerConfig `json:"optimizer"`
	Cache     CacheConfig     `json:"cache"`
	Log       LogConfig       `json:"log"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// OptimizerConfig selects which cost adapter DPsize runs with and where
// the compiled forest model lives, if the learned adapter is selected.
type OptimizerConfig struct {
	// Adapter is either "cout" or "learned".
	Adapter string `json:"adapter"`
	// ForestLibraryPath is the path to the compiled cost model, a Go
	// plugin (.so) exporting a ForestRoot symbol with model.ForestFunc's
	// signature; ignored when Adapter is "cout".
	ForestLibraryPath string `json:"forest_library_path"`
	// MaxRelations bounds the query graphs this instance will accept,
	// independent of bitset.MaxRelations — a deployment may want to cap
	// enumeration cost well below the hard 63-relation ceiling.
	MaxRelations int `json:"max_relations"`
}

// CacheConfig controls the Badger-backed memo cache.
type CacheConfig struct {
	Enabled    bool          `json:"enabled"`
	DataDir    string        `json:"data_dir"`
	InMemory   bool          `json:"in_memory"`
	SyncWrites bool          `json:"sync_writes"`
	TTL        time.Duration `json:"ttl"`
}

// LogConfig holds the log level and format settings. cmd/joinopt does not
// read them: it logs through the standard log package with its defaults.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json or text
}

// TelemetryConfig controls the SQLite run-history store.
type TelemetryConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"db_path"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Optimizer: OptimizerConfig{
			Adapter:      "cout",
			MaxRelations: 63,
		},
		Cache: CacheConfig{
			Enabled:  true,
			InMemory: true,
			TTL:      10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			DBPath:  "joinopt_runs.db",
		},
	}
}

// LoadConfig reads and validates a configuration file. An empty path
// returns DefaultConfig().
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config: file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: reading file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing file: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault tries JOINOPT_CONFIG, then a couple of common
// locations, falling back to DefaultConfig() if none load.
func LoadConfigOrDefault() *Config {
	if envPath := os.Getenv("JOINOPT_CONFIG"); envPath != "" {
		if cfg, err := LoadConfig(envPath); err == nil {
			return cfg
		}
	}

	possiblePaths := []string{
		"config.json",
		"./config/config.json",
		"/etc/joinopt/config.json",
	}
	for _, path := range possiblePaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if cfg, err := LoadConfig(absPath); err == nil {
			return cfg
		}
	}

	return DefaultConfig()
}

func validateConfig(cfg *Config) error {
	switch cfg.Optimizer.Adapter {
	case "cout", "learned":
	default:
		return fmt.Errorf("config: unknown optimizer adapter %q", cfg.Optimizer.Adapter)
	}

	if cfg.Optimizer.Adapter == "learned" && cfg.Optimizer.ForestLibraryPath == "" {
		return fmt.Errorf("config: optimizer.forest_library_path is required when adapter is \"learned\"")
	}

	if cfg.Optimizer.MaxRelations < 1 || cfg.Optimizer.MaxRelations > 63 {
		return fmt.Errorf("config: optimizer.max_relations must be between 1 and 63, got %d", cfg.Optimizer.MaxRelations)
	}

	if !cfg.Cache.InMemory && cfg.Cache.DataDir == "" {
		return fmt.Errorf("config: cache.data_dir is required when cache.in_memory is false")
	}

	return nil
}
