// Package config provides configuration loading and structs for the shortlist CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Scorer    ScorerConfig    `yaml:"scorer"`
	Screen    ScreenConfig    `yaml:"screen"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the screening-run history database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig holds embedding backend settings.
type EmbeddingConfig struct {
	Backend    string `yaml:"backend"` // onnx (default), gemini, mock
	ModelPath  string `yaml:"model_path"`
	Model      string `yaml:"model"` // Gemini embedding model name
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// ScorerConfig holds explanation generation settings.
type ScorerConfig struct {
	Model               string `yaml:"model"`
	MaxExplanationChars int    `yaml:"max_explanation_chars"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	Workers             int    `yaml:"workers"`
}

// ScreenConfig holds screening defaults.
type ScreenConfig struct {
	TopK       int      `yaml:"top_k"`
	Extensions []string `yaml:"extensions"`
}

// WatchConfig holds resume directory watch settings.
type WatchConfig struct {
	Directory string `yaml:"directory"`
	JobFile   string `yaml:"job_file"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if cfg.Watch.Directory != "" {
		cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)
	}
	if cfg.Watch.JobFile != "" {
		cfg.Watch.JobFile = expandPath(cfg.Watch.JobFile, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
