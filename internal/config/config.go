// Package config loads and saves the lochat configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all lochat configuration.
type Config struct {
	Ollama OllamaConfig `toml:"ollama"`
	Store  StoreConfig  `toml:"store"`
	Chat   ChatConfig   `toml:"chat"`
}

// OllamaConfig holds inference endpoint settings.
type OllamaConfig struct {
	URL         string `toml:"url"`
	Model       string `toml:"model"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// StoreConfig holds database settings.
type StoreConfig struct {
	Path string `toml:"path,omitempty"`
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	MaxContextMessages  int    `toml:"max_context_messages"`
	DefaultSystemPrompt string `toml:"default_system_prompt,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Ollama: OllamaConfig{
			URL:         "http://localhost:11434",
			Model:       "llama3:8b",
			TimeoutSecs: 120,
		},
		Chat: ChatConfig{
			MaxContextMessages: 50,
		},
	}
}

// Timeout returns the configured inference timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSecs) * time.Second
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lochat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lochat")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the database.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "lochat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "lochat")
}

// StorePath returns the configured database path, falling back to the
// default location in the data dir.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(DataDir(), "lochat.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment variables LOCHAT_OLLAMA_URL, LOCHAT_MODEL and LOCHAT_DB
// override the file.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if url := os.Getenv("LOCHAT_OLLAMA_URL"); url != "" {
		cfg.Ollama.URL = url
	}
	if model := os.Getenv("LOCHAT_MODEL"); model != "" {
		cfg.Ollama.Model = model
	}
	if db := os.Getenv("LOCHAT_DB"); db != "" {
		cfg.Store.Path = db
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
