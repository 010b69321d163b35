package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/nativepage/internal/config"
	"github.com/zjrosen/nativepage/internal/log"
	"github.com/zjrosen/nativepage/internal/paths"
	"github.com/zjrosen/nativepage/internal/tracing"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	configErr error

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "nativepage",
	Short: "Publish C source files as syntax-highlighted HTML pages",
	Long: `nativepage turns C source files into static HTML pages with highlighted
keywords, preprocessor directives, string literals and escape sequences.
LINK(path) tokens become links to other pages of the site and bare URLs
become anchors.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .nativepage/config.yaml, then ~/.config/nativepage/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (path from NATIVEPAGE_LOG, default debug.log)")
}

func setDefaults() {
	defaults := config.Defaults()
	viper.SetDefault("site.name", defaults.Site.Name)
	viper.SetDefault("site.stylesheets", defaults.Site.Stylesheets)
	viper.SetDefault("site.redirect", defaults.Site.Redirect)
	viper.SetDefault("render.tab_width_px", defaults.Render.TabWidthPx)
	viper.SetDefault("render.line_class", defaults.Render.LineClass)
	viper.SetDefault("render.extra_keywords", []string{})
	viper.SetDefault("build.out_dir", defaults.Build.OutDir)
	viper.SetDefault("build.extensions", defaults.Build.Extensions)
	viper.SetDefault("build.skip_dirs", defaults.Build.SkipDirs)
	viper.SetDefault("build.workers", defaults.Build.Workers)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
}

func initConfig() {
	setDefaults()
	viper.SetEnvPrefix("NATIVEPAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configErr = nil
	cfg = config.Config{}

	// Config lookup order:
	// 1. --config
	// 2. .nativepage/config.yaml (current directory)
	// 3. ~/.config/nativepage/config.yaml (user config)
	if path := paths.ResolveConfig(cfgFile); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			configErr = fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil && configErr == nil {
		configErr = fmt.Errorf("decoding config: %w", err)
	}
}

func initLogging(*cobra.Command, []string) error {
	// Initialize logging if debug mode enabled (via flag or env var)
	if !debugFlag && os.Getenv("NATIVEPAGE_DEBUG") == "" {
		return nil
	}

	logPath := os.Getenv("NATIVEPAGE_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup

	log.Info(log.CatConfig, "nativepage starting", "version", version, "config", viper.ConfigFileUsed())
	return nil
}

// loadConfig returns the validated configuration and a tracing provider the
// caller must shut down.
func loadConfig() (*tracing.Provider, error) {
	if configErr != nil {
		return nil, configErr
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	return provider, nil
}

func shutdownTracing(ctx context.Context, provider *tracing.Provider) {
	if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
		log.ErrorErr(log.CatTrace, "tracing shutdown failed", err)
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
