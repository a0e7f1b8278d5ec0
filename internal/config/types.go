// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pax-hub/paxy/internal/discovery"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// LogLevelDebug logs everything, including discovery diagnostics.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs progress messages.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"

	// LogFormatText is human-readable output.
	LogFormatText LogFormat = "text"
	// LogFormatJSON is one JSON object per line.
	LogFormatJSON LogFormat = "json"
	// LogFormatLogfmt is key=value output.
	LogFormatLogfmt LogFormat = "logfmt"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// LogLevel is the minimum level that gets logged.
	LogLevel string

	// LogFormat selects how log records are rendered.
	LogFormat string

	// InvalidValueError is returned when an enumerated value is not recognized.
	InvalidValueError struct {
		Field string
		Value string
		Valid []string
		Kind  error
	}

	// InvalidConfigError collects every field error of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the paxy configuration.
	Config struct {
		Paths     PathsConfig     `json:"paths" mapstructure:"paths"`
		Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
		Log       LogConfig       `json:"log" mapstructure:"log"`
	}

	// PathsConfig locates paxy's data. Empty fields take their place below DataRoot.
	PathsConfig struct {
		DataRoot         string `json:"data_root,omitempty" mapstructure:"data_root"`
		RepositoriesFile string `json:"repositories_file,omitempty" mapstructure:"repositories_file"`
		PluginsFile      string `json:"plugins_file,omitempty" mapstructure:"plugins_file"`
		ReposDir         string `json:"repos_dir,omitempty" mapstructure:"repos_dir"`
		ScratchDir       string `json:"scratch_dir,omitempty" mapstructure:"scratch_dir"`
		StagingDir       string `json:"staging_dir,omitempty" mapstructure:"staging_dir"`
		CacheDir         string `json:"cache_dir,omitempty" mapstructure:"cache_dir"`
	}

	// DiscoveryConfig bounds the manifest search.
	DiscoveryConfig struct {
		MinDepth int      `json:"min_depth" mapstructure:"min_depth"`
		MaxDepth int      `json:"max_depth" mapstructure:"max_depth"`
		Ignore   []string `json:"ignore" mapstructure:"ignore"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}

	// LogConfig configures the logger.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level"`
		Format LogFormat `json:"format" mapstructure:"format"`
	}
)

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q (valid: %s)", e.Field, e.Value, strings.Join(e.Valid, ", "))
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidValueError) Unwrap() error { return e.Kind }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	return oneOf("color scheme", cs, ErrInvalidColorScheme, ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight)
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is recognized.
func (l LogLevel) IsValid() (bool, []error) {
	return oneOf("log level", l, ErrInvalidLogLevel, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
}

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string { return string(f) }

// IsValid returns whether the LogFormat is recognized.
func (f LogFormat) IsValid() (bool, []error) {
	return oneOf("log format", f, ErrInvalidLogFormat, LogFormatText, LogFormatJSON, LogFormatLogfmt)
}

func oneOf[T ~string](field string, v T, kind error, valid ...T) (bool, []error) {
	if slices.Contains(valid, v) {
		return true, nil
	}
	names := make([]string, len(valid))
	for i, s := range valid {
		names[i] = string(s)
	}
	return false, []error{&InvalidValueError{Field: field, Value: string(v), Valid: names, Kind: kind}}
}

// Validate checks what the schema cannot: values that arrive through the
// environment and the relation between the discovery depths.
func (c *Config) Validate() error {
	var errs []error
	for _, check := range []func() (bool, []error){c.UI.ColorScheme.IsValid, c.Log.Level.IsValid, c.Log.Format.IsValid} {
		if ok, fieldErrs := check(); !ok {
			errs = append(errs, fieldErrs...)
		}
	}
	d := c.Discovery
	if d.MinDepth < 1 || d.MaxDepth > discovery.DefaultMaxDepth || d.MinDepth > d.MaxDepth {
		errs = append(errs, fmt.Errorf("discovery depth %d..%d must satisfy 1 <= min_depth <= max_depth <= %d",
			d.MinDepth, d.MaxDepth, discovery.DefaultMaxDepth))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// DiscoveryOptions converts the discovery settings into locator options.
func (c *Config) DiscoveryOptions() []discovery.Option {
	return []discovery.Option{
		discovery.WithDepth(c.Discovery.MinDepth, c.Discovery.MaxDepth),
		discovery.WithIgnore(c.Discovery.Ignore...),
	}
}

// DefaultConfig returns the default configuration. The data root is left
// empty and resolved to ~/.paxy by Layout.
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			MinDepth: discovery.DefaultMinDepth,
			MaxDepth: discovery.DefaultMaxDepth,
			Ignore:   slices.Clone(discovery.DefaultIgnore),
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}
