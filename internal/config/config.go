// Package config handles configuration for weatherchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	appDirName     = ".weatherchat"
	configFileName = "config.json"
	logFileName    = "weatherchat.log"
)

// Environment variables that override the config file
const (
	EnvEndpoint  = "WEATHERCHAT_ENDPOINT"
	EnvTransport = "WEATHERCHAT_TRANSPORT"
)

// Config represents the user configuration
type Config struct {
	// Endpoint is the backend base URL; routes are appended to it.
	Endpoint string `json:"endpoint"`
	// Transport selects the gateway: "http" or "ws".
	Transport string `json:"transport"`
	// TimeoutSeconds bounds each query. Zero waits as long as the transport allows.
	TimeoutSeconds  int    `json:"timeout_seconds"`
	TUITheme        string `json:"tui_theme,omitempty"`
	Markdown        bool   `json:"markdown"`
	// MarkdownStyle is a glamour style name or file. Empty follows the TUI theme.
	MarkdownStyle   string `json:"markdown_style,omitempty"`
	CopyToClipboard bool   `json:"copy_to_clipboard"`
	LogLevel        string `json:"log_level"`
	LogFile         string `json:"log_file,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		Endpoint:        "http://localhost:8001",
		Transport:       "http",
		TimeoutSeconds:  0,
		TUITheme:        "tokyonight",
		Markdown:        false,
		MarkdownStyle:   "",
		CopyToClipboard: false,
		LogLevel:        "info",
		LogFile:         filepath.Join(homeDir, appDirName, logFileName),
	}
}

// Timeout returns TimeoutSeconds as a duration
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ApplyEnv overlays the WEATHERCHAT_* environment variables on c
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvEndpoint); ok && strings.TrimSpace(v) != "" {
		c.Endpoint = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvTransport); ok && strings.TrimSpace(v) != "" {
		c.Transport = NormalizeTransport(v)
	}
}

// Validate checks values that would otherwise fail later at connect time
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if !slices.Contains(AvailableTransports(), c.Transport) {
		return fmt.Errorf("unknown transport %q (valid: %s)", c.Transport, strings.Join(AvailableTransports(), ", "))
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	return nil
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

var fields = map[string]field{
	"endpoint": {
		get: func(c *Config) string { return c.Endpoint },
		set: func(c *Config, v string) error { c.Endpoint = v; return nil },
	},
	"transport": {
		get: func(c *Config) string { return c.Transport },
		set: func(c *Config, v string) error { c.Transport = NormalizeTransport(v); return nil },
	},
	"timeout_seconds": {
		get: func(c *Config) string { return strconv.Itoa(c.TimeoutSeconds) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("timeout_seconds must be an integer: %w", err)
			}
			c.TimeoutSeconds = n
			return nil
		},
	},
	"tui_theme": {
		get: func(c *Config) string { return c.TUITheme },
		set: func(c *Config, v string) error { c.TUITheme = v; return nil },
	},
	"markdown": {
		get: func(c *Config) string { return strconv.FormatBool(c.Markdown) },
		set: func(c *Config, v string) error { return setBool(&c.Markdown, "markdown", v) },
	},
	"markdown_style": {
		get: func(c *Config) string { return c.MarkdownStyle },
		set: func(c *Config, v string) error { c.MarkdownStyle = v; return nil },
	},
	"copy_to_clipboard": {
		get: func(c *Config) string { return strconv.FormatBool(c.CopyToClipboard) },
		set: func(c *Config, v string) error { return setBool(&c.CopyToClipboard, "copy_to_clipboard", v) },
	},
	"log_level": {
		get: func(c *Config) string { return c.LogLevel },
		set: func(c *Config, v string) error { c.LogLevel = strings.ToLower(v); return nil },
	},
	"log_file": {
		get: func(c *Config) string { return c.LogFile },
		set: func(c *Config, v string) error { c.LogFile = v; return nil },
	},
}

func setBool(dst *bool, key, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

// Keys returns the settable configuration keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of key
func (c Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return f.get(&c), nil
}

// Set parses value into key and validates the result
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	next := *c
	if err := f.set(&next, strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, appDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileName)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AvailableTransports returns the accepted transport names
func AvailableTransports() []string {
	return []string{"http", "ws"}
}

// NormalizeTransport lowercases name and maps "websocket" to "ws"
func NormalizeTransport(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "websocket" {
		return "ws"
	}
	return name
}
