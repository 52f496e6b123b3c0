package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

// Project config file names, in lookup order.
const (
	ProjectConfigName    = ".indexpanel.yaml"
	ProjectConfigAltName = ".indexpanel.yml"
)

// Config represents the complete indexpanel configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Defaults DefaultsConfig `yaml:"defaults" json:"defaults"`
	UI       UIConfig       `yaml:"ui" json:"ui"`
	History  HistoryConfig  `yaml:"history" json:"history"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig configures the indexing backend.
type ServerConfig struct {
	// URL is the backend root. Endpoints live under /ws/indexes.
	URL string `yaml:"url" json:"url"`

	// Timeout bounds each submission, e.g. "30s". Empty means no timeout.
	Timeout string `yaml:"timeout" json:"timeout"`

	// CatalogCacheTTL is how long schema and index listings are reused.
	CatalogCacheTTL string `yaml:"catalog_cache_ttl" json:"catalog_cache_ttl"`

	// CatalogCacheSize is the number of cached listings.
	CatalogCacheSize int `yaml:"catalog_cache_size" json:"catalog_cache_size"`
}

// DefaultsConfig holds the initial schema and index selections.
type DefaultsConfig struct {
	Schema string `yaml:"schema" json:"schema"`
	Index  string `yaml:"index" json:"index"`
}

// UIConfig configures the terminal panel.
type UIConfig struct {
	NoColor bool   `yaml:"no_color" json:"no_color"`
	Plain   bool   `yaml:"plain" json:"plain"`
	Spinner string `yaml:"spinner" json:"spinner"`
}

// HistoryConfig configures the submission history store.
type HistoryConfig struct {
	// Enabled is a pointer so an explicit false survives merging.
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Path    string `yaml:"path" json:"path"`
}

// IsEnabled reports whether submissions are recorded. Unset means true.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// LoggingConfig configures the log file.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	enabled := true
	return &Config{
		Version: 1,
		Server: ServerConfig{
			URL:              "http://localhost:9090",
			Timeout:          "",
			CatalogCacheTTL:  "30s",
			CatalogCacheSize: 64,
		},
		UI: UIConfig{
			Spinner: "dot",
		},
		History: HistoryConfig{
			Enabled: &enabled,
			Path:    defaultHistoryPath(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultHistoryPath returns ~/.indexpanel/history.db.
func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".indexpanel", "history.db")
	}
	return filepath.Join(home, ".indexpanel", "history.db")
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/indexpanel/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/indexpanel/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "indexpanel", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "indexpanel", "config.yaml")
	}
	return filepath.Join(home, ".config", "indexpanel", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// LoadUserConfig loads the user configuration file on top of defaults.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads configuration for the project rooted at dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/indexpanel/config.yaml)
//  3. Project config (.indexpanel.yaml in dir)
//  4. Environment variables (INDEXPANEL_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	userCfg, err := LoadUserConfig()
	if err != nil {
		return nil, err
	}
	if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigName, ProjectConfigAltName} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadFromFile merges .indexpanel.yaml or .indexpanel.yml from dir.
func (c *Config) loadFromFile(dir string) error {
	path := ProjectConfigPath(dir)
	if path == "" {
		return nil
	}
	return c.loadYAML(path)
}

// loadYAML parses path and merges its non-zero values into c.
func (c *Config) loadYAML(path string) error {
	parsed, err := ParseFile(path)
	if err != nil {
		return err
	}
	c.mergeWith(parsed)
	return nil
}

// ParseFile reads a config file without applying defaults.
func ParseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.New(perrors.ErrCodeConfigNotFound, fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, perrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return &parsed, nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Server.URL != "" {
		c.Server.URL = other.Server.URL
	}
	if other.Server.Timeout != "" {
		c.Server.Timeout = other.Server.Timeout
	}
	if other.Server.CatalogCacheTTL != "" {
		c.Server.CatalogCacheTTL = other.Server.CatalogCacheTTL
	}
	if other.Server.CatalogCacheSize != 0 {
		c.Server.CatalogCacheSize = other.Server.CatalogCacheSize
	}

	if other.Defaults.Schema != "" {
		c.Defaults.Schema = other.Defaults.Schema
	}
	if other.Defaults.Index != "" {
		c.Defaults.Index = other.Defaults.Index
	}

	// Booleans can only be switched on by a later layer.
	if other.UI.NoColor {
		c.UI.NoColor = true
	}
	if other.UI.Plain {
		c.UI.Plain = true
	}
	if other.UI.Spinner != "" {
		c.UI.Spinner = other.UI.Spinner
	}

	if other.History.Enabled != nil {
		enabled := *other.History.Enabled
		c.History.Enabled = &enabled
	}
	if other.History.Path != "" {
		c.History.Path = expandHome(other.History.Path)
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies INDEXPANEL_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("INDEXPANEL_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("INDEXPANEL_TIMEOUT"); v != "" {
		c.Server.Timeout = v
	}
	if v := os.Getenv("INDEXPANEL_SCHEMA"); v != "" {
		c.Defaults.Schema = v
	}
	if v := os.Getenv("INDEXPANEL_INDEX"); v != "" {
		c.Defaults.Index = v
	}
	if v := os.Getenv("INDEXPANEL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("INDEXPANEL_NO_COLOR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UI.NoColor = b
		}
	}
	if v := os.Getenv("INDEXPANEL_HISTORY_PATH"); v != "" {
		c.History.Path = expandHome(v)
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("server.url must be an http or https URL, got %q", c.Server.URL)
	}

	if c.Server.Timeout != "" {
		d, err := time.ParseDuration(c.Server.Timeout)
		if err != nil {
			return invalid("server.timeout must be a duration like 30s, got %q", c.Server.Timeout)
		}
		if d < 0 {
			return invalid("server.timeout must be non-negative, got %s", c.Server.Timeout)
		}
	}

	if c.Server.CatalogCacheTTL != "" {
		if _, err := time.ParseDuration(c.Server.CatalogCacheTTL); err != nil {
			return invalid("server.catalog_cache_ttl must be a duration like 30s, got %q", c.Server.CatalogCacheTTL)
		}
	}
	if c.Server.CatalogCacheSize < 0 {
		return invalid("server.catalog_cache_size must be non-negative, got %d", c.Server.CatalogCacheSize)
	}

	switch strings.ToLower(c.UI.Spinner) {
	case "", "dot", "line":
	default:
		return invalid("ui.spinner must be 'dot' or 'line', got %s", c.UI.Spinner)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return perrors.ConfigError("invalid configuration: "+fmt.Sprintf(format, args...), nil).
		WithSuggestion("Run 'indexpanel config show' to inspect the merged configuration")
}

// SubmitTimeout returns the parsed submission timeout, zero if unset.
// Call after Validate.
func (c *Config) SubmitTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.Timeout)
	return d
}

// CatalogTTL returns the parsed catalog cache TTL, zero if unset.
func (c *Config) CatalogTTL() time.Duration {
	d, _ := time.ParseDuration(c.Server.CatalogCacheTTL)
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return perrors.InternalError("failed to marshal config", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return perrors.IOError(fmt.Sprintf("failed to create config directory %s", filepath.Dir(path)), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return perrors.IOError("failed to write config file", err)
	}
	return nil
}

// MergeNewDefaults fills fields that an older config file left empty.
// Returns the names of the fields that were added.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Version == 0 {
		c.Version = defaults.Version
		added = append(added, "version")
	}
	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
		added = append(added, "server.url")
	}
	if c.Server.CatalogCacheTTL == "" {
		c.Server.CatalogCacheTTL = defaults.Server.CatalogCacheTTL
		added = append(added, "server.catalog_cache_ttl")
	}
	if c.Server.CatalogCacheSize == 0 {
		c.Server.CatalogCacheSize = defaults.Server.CatalogCacheSize
		added = append(added, "server.catalog_cache_size")
	}
	if c.UI.Spinner == "" {
		c.UI.Spinner = defaults.UI.Spinner
		added = append(added, "ui.spinner")
	}
	if c.History.Enabled == nil {
		c.History.Enabled = defaults.History.Enabled
		added = append(added, "history.enabled")
	}
	if c.History.Path == "" {
		c.History.Path = defaults.History.Path
		added = append(added, "history.path")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
		added = append(added, "logging.level")
	}

	return added
}

// FindProjectRoot walks up from startDir to the first directory holding
// .git or a project config file. It returns startDir if none is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) || ProjectConfigPath(currentDir) != "" {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
