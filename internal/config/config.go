// Package config provides configuration management for ruffle-manager
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFileName is the name of the config file (without extension)
	DefaultConfigFileName = ".ruffle-manager"
	// DefaultConfigFileType is the config file extension
	DefaultConfigFileType = "yaml"
	// DefaultFeed is the upstream repository publishing player builds
	DefaultFeed = "ruffle-rs/ruffle"
	// DefaultPreferences is the launcher preferences file, relative to the
	// install root
	DefaultPreferences = "preferences.json"
)

// Config holds all application configuration
type Config struct {
	// Global flags
	Verbose bool   `yaml:"verbose"`
	Token   string `yaml:"token"`

	// Feed and installation
	Feed        string `yaml:"feed"`
	InstallRoot string `yaml:"install-root"`
	Preferences string `yaml:"preferences"`
	UserAgent   string `yaml:"user-agent"`
	HTTPTimeout string `yaml:"http-timeout"`

	// State
	StateDriver string `yaml:"state-driver"`
	StateFile   string `yaml:"state-file"`

	// Watch command
	Schedule string `yaml:"schedule"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Verbose:     false,
		Token:       "",
		Feed:        DefaultFeed,
		InstallRoot: ".",
		Preferences: DefaultPreferences,
		UserAgent:   "",
		HTTPTimeout: "",
		StateDriver: "yaml",
		StateFile:   "",
		Schedule:    "@every 6h",
	}
}

// Timeout parses HTTPTimeout. An empty value means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.HTTPTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid http-timeout %q: %w", c.HTTPTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid http-timeout %q: must not be negative", c.HTTPTimeout)
	}
	return d, nil
}

// PreferencesPath resolves the preferences file against the install root
func (c *Config) PreferencesPath() string {
	if c.Preferences == "" || filepath.IsAbs(c.Preferences) {
		return c.Preferences
	}
	return filepath.Join(c.InstallRoot, c.Preferences)
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigFileName+"."+DefaultConfigFileType), nil
}

// EnsureConfigFile creates the config file with defaults if it doesn't exist
func EnsureConfigFile() error {
	path, err := GetConfigFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	return DefaultConfig().SaveTo(path)
}

// LoadFrom loads configuration from a file
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveTo saves configuration to a file with secure permissions
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// 0600, the file may hold a token
	return os.WriteFile(path, data, 0600)
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	path, err := GetConfigFilePath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// Clone returns a copy of the config
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Keys lists the settable configuration keys
var Keys = []string{"verbose", "token", "feed", "install-root", "preferences", "user-agent", "http-timeout", "state-driver", "state-file", "schedule"}

// Set assigns value to the field named by key
func (c *Config) Set(key, value string) error {
	switch key {
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for verbose: %q", value)
		}
		c.Verbose = b
	case "token":
		c.Token = value
	case "feed":
		c.Feed = value
	case "install-root":
		c.InstallRoot = value
	case "preferences":
		c.Preferences = value
	case "user-agent":
		c.UserAgent = value
	case "http-timeout":
		next := c.Clone()
		next.HTTPTimeout = value
		if _, err := next.Timeout(); err != nil {
			return err
		}
		c.HTTPTimeout = value
	case "state-driver":
		if value != "yaml" && value != "sqlite" {
			return fmt.Errorf("invalid state-driver %q: expected yaml or sqlite", value)
		}
		c.StateDriver = value
	case "state-file":
		c.StateFile = value
	case "schedule":
		c.Schedule = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
