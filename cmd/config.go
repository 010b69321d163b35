package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/nativepage/internal/config"
	"github.com/zjrosen/nativepage/internal/paths"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configErr != nil {
			return configErr
		}
		if used := viper.ConfigFileUsed(); used != "" {
			printMuted(cmd.ErrOrStderr(), "# from %s", used)
		}
		return config.Encode(cmd.OutOrStdout(), cfg)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented default config file",
	Long: `Write a commented default config file to [path]
(default .nativepage/config.yaml). An existing file is kept unless --force
is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := paths.LocalConfig()
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "wrote %s", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration value",
	Long: `Set one configuration value in the config file in use (default
.nativepage/config.yaml). The value is parsed as YAML, so lists and
numbers keep their type. Comments elsewhere in the file are kept.

Examples:
  nativepage config set site.name "Nick Nadeau"
  nativepage config set render.extra_keywords "[BUFSIZ, EOF]"
  nativepage config set watch.debounce 250ms`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, raw := args[0], args[1]
		if !slices.Contains(viper.AllKeys(), key) {
			return fmt.Errorf("unknown config key %q", key)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return fmt.Errorf("parsing value: %w", err)
		}

		// Decode the edited settings so a bad value never reaches the file.
		viper.Set(key, value)
		var candidate config.Config
		if err := viper.Unmarshal(&candidate); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
		if err := config.Validate(candidate); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}

		path := viper.ConfigFileUsed()
		if path == "" {
			path = paths.LocalConfig()
		}
		if err := config.SaveValue(path, key, value); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "%s = %s (%s)", key, raw, path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
