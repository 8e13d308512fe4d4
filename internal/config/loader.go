package config

import (
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RUFFLE_MANAGER_INSTALL_ROOT
const EnvPrefix = "RUFFLE_MANAGER"

// Loader manages configuration loading from multiple sources
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a new configuration loader with the built-in defaults
func NewLoader() *Loader {
	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("feed", defaults.Feed)
	v.SetDefault("install-root", defaults.InstallRoot)
	v.SetDefault("preferences", defaults.Preferences)
	v.SetDefault("state-driver", defaults.StateDriver)
	v.SetDefault("schedule", defaults.Schedule)
	return &Loader{viper: v}
}

// Initialize sets up the configuration loader
func (l *Loader) Initialize() error {
	if err := EnsureConfigFile(); err != nil {
		return err
	}

	home, err := homedir.Dir()
	if err != nil {
		return err
	}
	l.viper.AddConfigPath(home)
	l.viper.AddConfigPath(".")

	l.viper.SetConfigName(DefaultConfigFileName)
	l.viper.SetConfigType(DefaultConfigFileType)

	if err := l.viper.ReadInConfig(); err != nil {
		return err
	}

	l.viper.SetEnvPrefix(EnvPrefix)
	l.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	l.viper.AutomaticEnv()

	return nil
}

// BindFlag binds a flag to a viper key
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	return l.viper.BindPFlag(key, flag)
}

// SetDefault sets a default value for a key
func (l *Loader) SetDefault(key string, value interface{}) {
	l.viper.SetDefault(key, value)
}

// GetString returns a string value
func (l *Loader) GetString(key string) string {
	return l.viper.GetString(key)
}

// GetBool returns a bool value
func (l *Loader) GetBool(key string) bool {
	return l.viper.GetBool(key)
}

// GetDuration returns a duration value
func (l *Loader) GetDuration(key string) time.Duration {
	return l.viper.GetDuration(key)
}

// IsSet checks if a key has been set
func (l *Loader) IsSet(key string) bool {
	return l.viper.IsSet(key)
}

// ConfigFileUsed returns the config file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.viper.ConfigFileUsed()
}

// InjectToCommand copies config values into flags of cmd and its parents
// that weren't set on the command line
func (l *Loader) InjectToCommand(cmd *cobra.Command) {
	inject := func(f *pflag.Flag) {
		if !f.Changed && l.viper.IsSet(f.Name) {
			_ = f.Value.Set(l.viper.GetString(f.Name))
		}
	}
	cmd.Flags().VisitAll(inject)
	cmd.InheritedFlags().VisitAll(inject)
}

// Config returns the effective configuration
func (l *Loader) Config() *Config {
	return &Config{
		Verbose:     l.viper.GetBool("verbose"),
		Token:       l.viper.GetString("token"),
		Feed:        l.viper.GetString("feed"),
		InstallRoot: l.viper.GetString("install-root"),
		Preferences: l.viper.GetString("preferences"),
		UserAgent:   l.viper.GetString("user-agent"),
		HTTPTimeout: l.viper.GetString("http-timeout"),
		StateDriver: l.viper.GetString("state-driver"),
		StateFile:   l.viper.GetString("state-file"),
		Schedule:    l.viper.GetString("schedule"),
	}
}
