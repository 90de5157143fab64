package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Classifier modes.
const (
	ModeAuto     = "auto"     // live when a credential is present, fallback otherwise
	ModeLive     = "live"     // live, credential required
	ModeFallback = "fallback" // deterministic keyword classifier only
)

// Config holds all resq configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// External classifier
	Classifier ClassifierConfig `yaml:"classifier"`

	// Grid reference data
	Catalog CatalogConfig `yaml:"catalog"`

	// Interactive session and batch evaluation
	Session SessionConfig `yaml:"session"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ClassifierConfig configures the classifier gateway.
type ClassifierConfig struct {
	Mode        string  `yaml:"mode"`     // auto, live, fallback
	Provider    string  `yaml:"provider"` // gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Timeout     string  `yaml:"timeout"`
	Temperature float32 `yaml:"temperature"`
}

// CatalogConfig points at an operator-supplied catalog. Empty means the
// built-in one.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig configures sessions and `resq eval`.
type SessionConfig struct {
	// Parallel bounds concurrent classifications during batch evaluation.
	Parallel int `yaml:"parallel"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`   // empty: stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "resq",
		Version: "0.4.0",

		Classifier: ClassifierConfig{
			Mode:        ModeAuto,
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			Timeout:     "30s",
			Temperature: 0.2,
		},

		Session: SessionConfig{
			Parallel: 4,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultConfigPath returns .resq/config.yaml under the working directory.
func DefaultConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".resq", "config.yaml")
	}
	return filepath.Join(cwd, ".resq", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API_KEY is the generic name, GEMINI_API_KEY wins when both are set.
	if key := os.Getenv("API_KEY"); key != "" {
		c.Classifier.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Classifier.APIKey = key
	}

	if model := os.Getenv("RESQ_MODEL"); model != "" {
		c.Classifier.Model = model
	}
	if mode := os.Getenv("RESQ_CLASSIFIER_MODE"); mode != "" {
		c.Classifier.Mode = strings.ToLower(mode)
	}
	if path := os.Getenv("RESQ_CATALOG"); path != "" {
		c.Catalog.Path = path
	}
}

// HasCredential reports whether a classifier credential is configured.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.Classifier.APIKey) != ""
}

// UseLiveClassifier reports whether the live classifier should be wired.
func (c *Config) UseLiveClassifier() bool {
	switch c.Classifier.Mode {
	case ModeFallback:
		return false
	default:
		return c.HasCredential()
	}
}

// GetClassifierTimeout returns the live classification timeout.
func (c *Config) GetClassifierTimeout() time.Duration {
	d, err := time.ParseDuration(c.Classifier.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetParallel returns the batch evaluation concurrency.
func (c *Config) GetParallel() int {
	if c.Session.Parallel <= 0 {
		return 1
	}
	return c.Session.Parallel
}

// ValidModes lists all supported classifier modes.
var ValidModes = []string{ModeAuto, ModeLive, ModeFallback}

// ValidProviders lists all supported classifier providers.
var ValidProviders = []string{"gemini"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidModes, c.Classifier.Mode) {
		return fmt.Errorf("invalid classifier mode: %s (valid: %v)", c.Classifier.Mode, ValidModes)
	}
	if !contains(ValidProviders, c.Classifier.Provider) {
		return fmt.Errorf("invalid classifier provider: %s (valid: %v)", c.Classifier.Provider, ValidProviders)
	}
	if c.Classifier.Mode == ModeLive && !c.HasCredential() {
		return fmt.Errorf("classifier mode %q needs an API key (set GEMINI_API_KEY or API_KEY)", ModeLive)
	}
	if c.Classifier.Timeout != "" {
		if _, err := time.ParseDuration(c.Classifier.Timeout); err != nil {
			return fmt.Errorf("invalid classifier timeout %q: %w", c.Classifier.Timeout, err)
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
