// Package config provides configuration loading and structs for the kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kotae/internal/matcher"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool           `yaml:"debug"`
	Server  ServerConfig   `yaml:"server"`
	Storage StorageConfig  `yaml:"storage"`
	Matcher matcher.Config `yaml:"matcher"`
	Chat    ChatConfig     `yaml:"chat"`
	Corpus  CorpusConfig   `yaml:"corpus"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ChatConfig holds the reply texts and limits of the chat service.
type ChatConfig struct {
	MaxChoices            int           `yaml:"max_choices"`
	FallbackMessage       string        `yaml:"fallback_message"`
	LowConfidenceMessage  string        `yaml:"low_confidence_message"`
	DisambiguationMessage string        `yaml:"disambiguation_message"`
	ContactURL            string        `yaml:"contact_url"`
	MatchTimeout          time.Duration `yaml:"match_timeout"`
}

// CorpusConfig lists corpus files imported at startup.
type CorpusConfig struct {
	Files []string `yaml:"files"`
	Watch *bool    `yaml:"watch"`
}

// WatchOrDefault returns whether to re-import corpus files on change; defaults to true when unset.
func (c *CorpusConfig) WatchOrDefault() bool {
	if c.Watch != nil {
		return *c.Watch
	}
	return true
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
	for i := range cfg.Corpus.Files {
		cfg.Corpus.Files[i] = expandPath(cfg.Corpus.Files[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
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
