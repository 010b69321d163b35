// Package config provides configuration types and defaults for nativepage.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zjrosen/nativepage/internal/cformat"
	"github.com/zjrosen/nativepage/internal/log"
)

// Config holds all configuration options for nativepage.
type Config struct {
	Site    SiteConfig    `mapstructure:"site" yaml:"site"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Build   BuildConfig   `mapstructure:"build" yaml:"build"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// SiteConfig holds the page shell settings.
type SiteConfig struct {
	// Name prefixes page titles ("Name - page") and descriptions.
	// Empty means pages are titled by their source name only.
	Name string `mapstructure:"name" yaml:"name"`

	// Stylesheets are linked from every page head, in order.
	Stylesheets []string `mapstructure:"stylesheets" yaml:"stylesheets"`

	// Redirect is where the generated index.html sends visitors.
	Redirect string `mapstructure:"redirect" yaml:"redirect"`
}

// RenderConfig holds source formatting options.
type RenderConfig struct {
	TabWidthPx    int      `mapstructure:"tab_width_px" yaml:"tab_width_px"`     // margin per leading tab
	LineClass     string   `mapstructure:"line_class" yaml:"line_class"`         // class on every line span
	ExtraKeywords []string `mapstructure:"extra_keywords" yaml:"extra_keywords"` // highlighted in addition to C keywords
}

// BuildConfig holds site tree options.
type BuildConfig struct {
	OutDir     string   `mapstructure:"out_dir" yaml:"out_dir"`       // default output for `render`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"` // source extensions, with dot
	SkipDirs   []string `mapstructure:"skip_dirs" yaml:"skip_dirs"`   // directory names never descended into
	Workers    int      `mapstructure:"workers" yaml:"workers"`       // 0 = runtime.NumCPU()
}

// WatchConfig holds watch mode options.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// MarshalYAML renders the debounce as a duration string ("500ms").
func (w WatchConfig) MarshalYAML() (any, error) {
	return map[string]string{"debounce": w.Debounce.String()}, nil
}

// TracingConfig holds distributed tracing configuration for builds.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "stdout", "otlp"
	Exporter string `mapstructure:"exporter" yaml:"exporter"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Site: SiteConfig{
			Name:        "",
			Stylesheets: []string{"/style.css"},
			Redirect:    "/about.html",
		},
		Render: RenderConfig{
			TabWidthPx: cformat.DefaultTabWidth,
			LineClass:  cformat.DefaultLineClass,
		},
		Build: BuildConfig{
			OutDir:     "html",
			Extensions: []string{".c"},
			SkipDirs:   []string{"include"},
			Workers:    0,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// RenderOptions converts the render settings for the formatter.
func (c Config) RenderOptions() cformat.Options {
	return cformat.Options{
		TabWidth:  c.Render.TabWidthPx,
		LineClass: c.Render.LineClass,
		Keywords:  cformat.NewKeywordSet(c.Render.ExtraKeywords...),
	}
}

// WorkerCount returns the effective build parallelism.
func (c Config) WorkerCount() int {
	if c.Build.Workers > 0 {
		return c.Build.Workers
	}
	return runtime.NumCPU()
}

// Validate checks the whole configuration.
func Validate(c Config) error {
	if err := ValidateRender(c.Render); err != nil {
		return err
	}
	if err := ValidateBuild(c.Build); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateRender checks render configuration for errors.
func ValidateRender(r RenderConfig) error {
	if r.TabWidthPx < 0 {
		return fmt.Errorf("render.tab_width_px must not be negative, got %d", r.TabWidthPx)
	}
	if strings.ContainsAny(r.LineClass, `"<>&`) {
		return fmt.Errorf("render.line_class contains characters not allowed in a class attribute: %q", r.LineClass)
	}
	for i, kw := range r.ExtraKeywords {
		if kw == "" || strings.ContainsAny(kw, " \t") {
			return fmt.Errorf("render.extra_keywords[%d] must be a single non-empty token, got %q", i, kw)
		}
	}
	return nil
}

// ValidateBuild checks build configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateBuild(b BuildConfig) error {
	if b.Workers < 0 {
		return fmt.Errorf("build.workers must not be negative, got %d", b.Workers)
	}
	for i, ext := range b.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("build.extensions[%d] must start with a dot, got %q", i, ext)
		}
	}
	for i, dir := range b.SkipDirs {
		if dir == "" || strings.ContainsRune(dir, filepath.Separator) {
			return fmt.Errorf("build.skip_dirs[%d] must be a plain directory name, got %q", i, dir)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	// Validate SampleRate is in range [0.0, 1.0]
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# nativepage configuration

# Page shell
site:
  # name: Nick Nadeau      # Prefix for page titles: "<name> - <page>"
  stylesheets:
    - /style.css
  redirect: /about.html    # Target of the generated index.html

# Source formatting
render:
  tab_width_px: 25         # Left margin per leading tab
  line_class: c-code       # Class on every rendered line
  # extra_keywords:        # Highlighted in addition to the C keywords
  #   - BUFSIZ

# Site builds
build:
  out_dir: html            # Default output directory for 'nativepage render'
  extensions: [".c"]
  skip_dirs: ["include"]
  workers: 0               # 0 = one per CPU

# Watch mode
watch:
  debounce: 500ms

# Distributed tracing
# tracing:
#   enabled: false
#   exporter: stdout              # none, stdout, otlp
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	// Create parent directory if needed
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
