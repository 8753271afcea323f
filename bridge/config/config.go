// Package config loads the adapter's runtime configuration: environment
// variables read once at startup, plus an optional YAML file naming enabled
// providers and extra external tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSocketPath is the well-known local socket the orchestrator connects
// to.
const DefaultSocketPath = "/tmp/bridged.sock"

// ToolDef defines one external diagnostic tool from the config file.
type ToolDef struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
	Dir            string   `yaml:"dir"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Config controls the bridged worker.
type Config struct {
	SocketPath         string
	ToolTimeoutSeconds int
	Debug              bool

	// Providers filters the factory catalog when non-empty.
	Providers []string
	// ExtraTools extends the built-in tool catalog.
	ExtraTools []ToolDef
}

type fileConfig struct {
	Providers []string  `yaml:"providers"`
	Tools     []ToolDef `yaml:"tools"`
}

// Load reads configuration from environment variables and, when present, the
// YAML file named by BRIDGED_CONFIG (default bridged.yaml). Configuration is
// read once; it does not change for the process lifetime.
func Load() (Config, error) {
	toolTimeout, err := intEnvStrict("BRIDGED_TOOL_TIMEOUT_SECONDS", 60)
	if err != nil {
		return Config{}, err
	}
	debug, err := boolEnvStrict("BRIDGED_DEBUG", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		SocketPath:         trimmedEnv("BRIDGED_SOCKET"),
		ToolTimeoutSeconds: toolTimeout,
		Debug:              debug,
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}
	if cfg.ToolTimeoutSeconds <= 0 {
		return Config{}, errors.New("config: BRIDGED_TOOL_TIMEOUT_SECONDS must be greater than 0")
	}

	path := trimmedEnv("BRIDGED_CONFIG")
	explicit := path != ""
	if path == "" {
		path = "bridged.yaml"
	}
	file, err := loadFile(path, explicit)
	if err != nil {
		return Config{}, err
	}
	cfg.Providers = file.Providers
	cfg.ExtraTools = file.Tools

	for _, tool := range cfg.ExtraTools {
		if strings.TrimSpace(tool.ID) == "" || strings.TrimSpace(tool.Command) == "" {
			return Config{}, fmt.Errorf("config: tool entries require id and command (got id=%q)", tool.ID)
		}
	}
	return cfg, nil
}

func loadFile(path string, explicit bool) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fileConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return file, nil
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intEnvStrict(key string, fallback int) (int, error) {
	value := trimmedEnv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return parsed, nil
}

func boolEnvStrict(key string, fallback bool) (bool, error) {
	value := strings.ToLower(trimmedEnv(key))
	if value == "" {
		return fallback, nil
	}
	switch value {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("config: invalid %s: expected true/false", key)
	}
}
