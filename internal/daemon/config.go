// Package daemon manages the MMSS daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Node      NodeConfig      `toml:"node"`
	API       APIConfig       `toml:"api"`
	Engine    EngineConfig    `toml:"engine"`
	LLM       LLMConfig       `toml:"llm"`
	Storage   StorageConfig   `toml:"storage"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	ID string `toml:"id"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// EngineConfig controls task execution.
type EngineConfig struct {
	// ExecutionDelay is the simulated per-task execution cost, e.g. "100ms".
	ExecutionDelay string `toml:"execution_delay"`
}

// LLMConfig controls the Mistral query gateway. An empty key falls back to
// the MISTRAL_API_KEY environment variable; if neither is set the gateway
// is disabled and /api/query answers 503.
type LLMConfig struct {
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
	Endpoint string `toml:"endpoint"`
}

// StorageConfig controls SQLite persistence.
type StorageConfig struct {
	Persist bool   `toml:"persist"`
	Dir     string `toml:"dir"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := mmssHome()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        3000,
			CORSOrigins: []string{"*"},
		},
		Engine: EngineConfig{
			ExecutionDelay: "100ms",
		},
		LLM: LLMConfig{
			Model: "mistral-small-latest",
		},
		Storage: StorageConfig{
			Persist: true,
			Dir:     filepath.Join(homeDir, "data"),
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "mmss.log"),
		},
	}
}

// LoadConfig reads config from ~/.mmss/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(mmssHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.mmss/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(mmssHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// mmssHome returns the MMSS data directory.
func mmssHome() string {
	if env := os.Getenv("MMSS_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mmss")
}

// MMSSHome is exported for use by other packages.
func MMSSHome() string {
	return mmssHome()
}
