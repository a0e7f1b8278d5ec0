// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestEnumIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		isValid func() (bool, []error)
		want    bool
		kind    error
	}{
		{"auto scheme", ColorSchemeAuto.IsValid, true, nil},
		{"light scheme", ColorSchemeLight.IsValid, true, nil},
		{"empty scheme", ColorScheme("").IsValid, false, ErrInvalidColorScheme},
		{"debug level", LogLevelDebug.IsValid, true, nil},
		{"trace level", LogLevel("trace").IsValid, false, ErrInvalidLogLevel},
		{"logfmt", LogFormatLogfmt.IsValid, true, nil},
		{"yaml format", LogFormat("yaml").IsValid, false, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, errs := tt.isValid()
			if ok != tt.want {
				t.Fatalf("IsValid() = %v, want %v", ok, tt.want)
			}
			if tt.want {
				if len(errs) != 0 {
					t.Errorf("valid value returned errors: %v", errs)
				}
				return
			}
			if len(errs) != 1 || !errors.Is(errs[0], tt.kind) {
				t.Errorf("errors = %v, want one %v", errs, tt.kind)
			}
			var ive *InvalidValueError
			if !errors.As(errs[0], &ive) || len(ive.Valid) == 0 {
				t.Errorf("error %v should list the valid values", errs[0])
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []error
	}{
		{"defaults", func(*Config) {}, nil},
		{"single depth", func(c *Config) { c.Discovery.MinDepth, c.Discovery.MaxDepth = 3, 3 }, nil},
		{"inverted depths", func(c *Config) { c.Discovery.MinDepth, c.Discovery.MaxDepth = 4, 2 }, []error{ErrInvalidConfig}},
		{"depth zero", func(c *Config) { c.Discovery.MinDepth = 0 }, []error{ErrInvalidConfig}},
		{"depth too deep", func(c *Config) { c.Discovery.MaxDepth = 9 }, []error{ErrInvalidConfig}},
		{
			"several fields",
			func(c *Config) {
				c.UI.ColorScheme = "neon"
				c.Log.Level = "loud"
			},
			[]error{ErrInvalidConfig, ErrInvalidColorScheme, ErrInvalidLogLevel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("Validate() = %v, want %v in chain", err, want)
				}
			}
		})
	}
}

func TestDefaultConfig_IgnoreIsCopied(t *testing.T) {
	t.Parallel()

	a := DefaultConfig()
	a.Discovery.Ignore[0] = "changed"
	if DefaultConfig().Discovery.Ignore[0] == "changed" {
		t.Error("DefaultConfig() shares the ignore slice")
	}
}

func TestDiscoveryOptions(t *testing.T) {
	t.Parallel()

	if got := len(DefaultConfig().DiscoveryOptions()); got != 2 {
		t.Errorf("DiscoveryOptions() returned %d options, want 2", got)
	}
}
