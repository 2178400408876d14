// Package config loads and persists the toolhost configuration file
// (JSON, ~/.toolhost/config.json by default, with ${VAR} expansion).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for toolhost.
type Config struct {
	General GeneralConfig `json:"general"`
	Cache   CacheConfig   `json:"cache"`
	Memory  MemoryConfig  `json:"memory"`
	Tools   ToolsConfig   `json:"tools"`
	API     APIConfig     `json:"api"`
}

type GeneralConfig struct {
	Workspace string `json:"workspace"`
	LogLevel  string `json:"logLevel"`
	LogFile   string `json:"logFile,omitempty"`
}

type CacheConfig struct {
	Enabled           bool    `json:"enabled"`
	DefaultTTLSeconds float64 `json:"defaultTtlSeconds"`
}

type MemoryConfig struct {
	DBPath string `json:"dbPath"`
}

type ToolsConfig struct {
	Shell       ShellToolConfig  `json:"shell"`
	Screen      ScreenToolConfig `json:"screen"`
	ManifestDir string           `json:"manifestDir,omitempty"`
}

type ShellToolConfig struct {
	Timeout        int `json:"timeout"` // seconds
	MaxOutputBytes int `json:"maxOutputBytes"`
}

type ScreenToolConfig struct {
	Enabled   bool   `json:"enabled"`
	OutputDir string `json:"outputDir,omitempty"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	APIKey  string `json:"apiKey,omitempty"`
}

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			Workspace: "~/.toolhost/workspace",
			LogLevel:  "info",
		},
		Cache: CacheConfig{
			Enabled:           true,
			DefaultTTLSeconds: 5.0,
		},
		Memory: MemoryConfig{
			DBPath: "~/.toolhost/memory.db",
		},
		Tools: ToolsConfig{
			Shell: ShellToolConfig{
				Timeout:        30,
				MaxOutputBytes: 65536,
			},
			Screen: ScreenToolConfig{
				Enabled:   false,
				OutputDir: "~/.toolhost/captures",
			},
			ManifestDir: "~/.toolhost/manifests",
		},
		API: APIConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8420,
		},
	}
}

// DefaultConfigDir returns the default config directory (~/.toolhost).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".toolhost"
	}
	return filepath.Join(home, ".toolhost")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.Workspace = expandPath(cfg.General.Workspace)
	cfg.General.LogFile = expandPath(cfg.General.LogFile)
	cfg.Memory.DBPath = expandPath(cfg.Memory.DBPath)
	cfg.Tools.ManifestDir = expandPath(cfg.Tools.ManifestDir)
	cfg.Tools.Screen.OutputDir = expandPath(cfg.Tools.Screen.OutputDir)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has usable values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Cache.DefaultTTLSeconds < 0 {
		errs = append(errs, "cache.defaultTtlSeconds must not be negative")
	}
	if cfg.Tools.Shell.Timeout < 1 || cfg.Tools.Shell.Timeout > 3600 {
		errs = append(errs, "tools.shell.timeout must be between 1 and 3600")
	}
	if cfg.API.Enabled && (cfg.API.Port < 1 || cfg.API.Port > 65535) {
		errs = append(errs, "api.port must be a valid TCP port")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "general.logLevel must be debug, info, warn, or error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

// expandPath resolves a leading ~/ against the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
