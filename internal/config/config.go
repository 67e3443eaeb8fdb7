package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up inside the data directory.
const DefaultFileName = "dangerclose.yaml"

// Config holds all dangerclose configuration.
type Config struct {
	// Root of all persisted state (customs, favorites, ring ledger, logs).
	DataDir string `yaml:"data_dir"`

	Catalog CatalogConfig `yaml:"catalog"`
	Session SessionConfig `yaml:"session"`
	Rings   RingsConfig   `yaml:"rings"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// CatalogConfig locates the catalog documents.
type CatalogConfig struct {
	StaticPath    string `yaml:"static_path"` // empty = embedded ordnance table
	CustomsFile   string `yaml:"customs_file"`
	FavoritesFile string `yaml:"favorites_file"`
}

// SessionConfig carries the navigator context.
type SessionConfig struct {
	Target   string `yaml:"target"`
	FromLine string `yaml:"from_line"` // "", fiveline, nineline
}

// RingsConfig configures the range-ring ledger.
type RingsConfig struct {
	Database string `yaml:"database"`
	Timeout  string `yaml:"timeout"`
}

// WatchConfig configures the data directory watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures category logging. Categories missing from the
// map are enabled whenever debug mode is on.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // text, json
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
}

// ValidFromLines lists the accepted from-line contexts.
var ValidFromLines = []string{"", "fiveline", "nineline"}

// DefaultDataDir returns ~/.dangerclose, or a relative directory when the
// home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dangerclose"
	}
	return filepath.Join(home, ".dangerclose")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),

		Catalog: CatalogConfig{
			CustomsFile:   "customs.xml",
			FavoritesFile: "fav_muni.txt",
		},

		Rings: RingsConfig{
			Database: "rings.db",
			Timeout:  "5s",
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("DANGERCLOSE_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if target := os.Getenv("DANGERCLOSE_TARGET"); target != "" {
		c.Session.Target = target
	}
	if line := os.Getenv("DANGERCLOSE_FROM_LINE"); line != "" {
		c.Session.FromLine = line
	}
	if level := os.Getenv("DANGERCLOSE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
		c.Logging.DebugMode = true
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is empty")
	}

	validLine := false
	for _, l := range ValidFromLines {
		if c.Session.FromLine == l {
			validLine = true
			break
		}
	}
	if !validLine {
		return fmt.Errorf("invalid from_line: %q (valid: fiveline, nineline or empty)", c.Session.FromLine)
	}

	if _, err := time.ParseDuration(c.Rings.Timeout); c.Rings.Timeout != "" && err != nil {
		return fmt.Errorf("invalid rings.timeout %q: %w", c.Rings.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); c.Watch.Debounce != "" && err != nil {
		return fmt.Errorf("invalid watch.debounce %q: %w", c.Watch.Debounce, err)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging.format %q (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// CustomsPath returns the absolute path of the custom catalog document.
func (c *Config) CustomsPath() string {
	return c.resolve(c.Catalog.CustomsFile)
}

// FavoritesPath returns the absolute path of the favorites list.
func (c *Config) FavoritesPath() string {
	return c.resolve(c.Catalog.FavoritesFile)
}

// RingsPath returns the path of the ring ledger database.
func (c *Config) RingsPath() string {
	return c.resolve(c.Rings.Database)
}

// LogsDir returns the directory category logs are written to.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// GetRingsTimeout returns the ledger operation timeout as a duration.
func (c *Config) GetRingsTimeout() time.Duration {
	d, err := time.ParseDuration(c.Rings.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetWatchDebounce returns the watcher debounce window as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}
