package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Didstopia/ruffle-manager/internal/auth"
	"github.com/Didstopia/ruffle-manager/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
	Long: `Show or change settings in ~/.ruffle-manager.yaml.

Settings can also be given as flags or as RUFFLE_MANAGER_* environment
variables, e.g. RUFFLE_MANAGER_INSTALL_ROOT. Flags win over the environment,
which wins over the file.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigFilePath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		cfg.Schedule = configLoader.GetString("schedule")
		return writeConfig(cmd.OutOrStdout(), cfg)
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Change a setting in the config file",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigFilePath()
		if err != nil {
			return err
		}
		if err := config.EnsureConfigFile(); err != nil {
			return err
		}

		cfg, err := config.LoadFrom(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.SaveTo(path); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s updated in %s\n", args[0], path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// writeConfig prints cfg as YAML with the token masked
func writeConfig(w io.Writer, cfg *config.Config) error {
	shown := cfg.Clone()
	if shown.Token != "" {
		shown.Token = auth.MaskToken(shown.Token)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(shown); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if used := configLoader.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "# loaded from %s\n", used)
	} else {
		fmt.Fprintln(w, "# no config file loaded")
	}
	return nil
}
