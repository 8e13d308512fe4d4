// Package cli provides the command-line interface for ruffle-manager
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Didstopia/ruffle-manager/internal/config"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Global flags
var (
	verbose     bool
	token       string
	feed        string
	installRoot string
	preferences string
	userAgent   string
	httpTimeout string
	stateDriver string
	stateFile   string
)

// Global logger
var log = logrus.New()

// Config loader
var configLoader *config.Loader

// Root command
var rootCmd = &cobra.Command{
	Use:   "ruffle-manager",
	Short: "Keep the Ruffle Flash player up to date",
	Long: `ruffle-manager keeps the Ruffle standalone player and the self-hosted web
build up to date inside a launcher installation, and redirects the launcher's
legacy Flash executables to Ruffle.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Inject config file values
		configLoader.InjectToCommand(cmd)

		// Set log level
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		} else {
			log.SetLevel(logrus.InfoLevel)
		}

		return nil
	},
}

func init() {
	// Initialize config loader
	configLoader = config.NewLoader()
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultConfig()

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "GitHub API token")
	rootCmd.PersistentFlags().StringVar(&feed, "feed", defaults.Feed, "Release feed as owner/repo or a full GitHub URL")
	rootCmd.PersistentFlags().StringVarP(&installRoot, "install-root", "r", defaults.InstallRoot, "Launcher installation root")
	rootCmd.PersistentFlags().StringVar(&preferences, "preferences", defaults.Preferences, "Launcher preferences file, relative to the install root")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "User-Agent sent to GitHub")
	rootCmd.PersistentFlags().StringVar(&httpTimeout, "http-timeout", "", "Timeout for HTTP requests, e.g. 30s (default none)")
	rootCmd.PersistentFlags().StringVar(&stateDriver, "state-driver", defaults.StateDriver, "State backend: yaml or sqlite")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state-file", "", "State file path (default ~/.ruffle-manager/state.yaml or state.db)")
}

func initConfig() {
	if err := configLoader.Initialize(); err != nil {
		// Config initialization failure is not fatal for all commands
		log.Debugf("Config initialization: %v", err)
	}

	// Bind flags to viper
	for _, name := range []string{"verbose", "token", "feed", "install-root", "preferences", "user-agent", "http-timeout", "state-driver", "state-file"} {
		_ = configLoader.BindFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// Execute runs the root command
func Execute() {
	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.As(err, &reportedError{}) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// reportedError marks an error that a sink has already shown to the user
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// GetLogger returns the global logger
func GetLogger() *logrus.Logger {
	return log
}

// currentConfig returns the configuration after flags, environment and
// config file have been merged into the global flags
func currentConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Verbose = verbose
	cfg.Token = token
	cfg.Feed = feed
	cfg.InstallRoot = installRoot
	cfg.Preferences = preferences
	cfg.UserAgent = userAgent
	cfg.HTTPTimeout = httpTimeout
	cfg.StateDriver = stateDriver
	cfg.StateFile = stateFile
	return cfg
}
