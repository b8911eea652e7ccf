// Package config loads refc settings from an optional TOML file and REFC_*
// environment variables. Command line flags take precedence over both; that
// merge happens in the command package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/erraggy/refc/refcerrors"
)

// FileName is the configuration file searched for in the working directory
// and in $XDG_CONFIG_HOME/refc.
const FileName = ".refc.toml"

// EnvPrefix prefixes every environment variable, e.g. REFC_VERBOSE.
const EnvPrefix = "REFC"

// Defaults.
const (
	DefaultLogFormat   = "text"
	DefaultIndent      = 4
	DefaultMaxRefDepth = 100
	DefaultDebounce    = 250 * time.Millisecond
)

// Settings holds every configurable value.
//
// RefDirs listed in a config file are resolved against that file's
// directory. Entries from REFC_REF_DIRS stay relative to the working
// directory.
type Settings struct {
	RefDirs     []string      `mapstructure:"ref_dirs"`
	Verbose     bool          `mapstructure:"verbose"`
	LogFormat   string        `mapstructure:"log_format"`
	Indent      int           `mapstructure:"indent"`
	KeepMerged  bool          `mapstructure:"keep_merged"`
	MaxRefDepth int           `mapstructure:"max_ref_depth"`
	Watch       WatchSettings `mapstructure:"watch"`
}

// WatchSettings configures watch mode.
type WatchSettings struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Load reads settings. When path is empty the default locations are
// searched and a missing file is not an error; an explicit path must exist.
// It returns the settings and the file that was used, if any.
func Load(path string) (*Settings, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if dir := configHome(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, "", &refcerrors.ConfigError{Option: "config", Value: path, Message: "failed to read config file", Cause: err}
		}
	}

	s, err := decode(v)
	if err != nil {
		return nil, "", err
	}
	if used := v.ConfigFileUsed(); used != "" && v.InConfig("ref_dirs") && os.Getenv(EnvPrefix+"_REF_DIRS") == "" {
		s.RefDirs = rebase(filepath.Dir(used), s.RefDirs)
	}
	if err := s.Validate(); err != nil {
		return nil, "", err
	}
	return s, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ref_dirs", []string{})
	v.SetDefault("verbose", false)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("indent", DefaultIndent)
	v.SetDefault("keep_merged", false)
	v.SetDefault("max_ref_depth", DefaultMaxRefDepth)
	v.SetDefault("watch.debounce", DefaultDebounce)
}

// configHome returns $XDG_CONFIG_HOME/refc, falling back to ~/.config/refc.
// rebase resolves relative dirs against base, the directory of the config
// file that listed them.
func rebase(base string, dirs []string) []string {
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d != "" && !filepath.IsAbs(d) {
			d = filepath.Join(base, d)
		}
		out = append(out, d)
	}
	return out
}

func configHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "refc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "refc")
	}
	return ""
}

func decode(v *viper.Viper) (*Settings, error) {
	var s Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(":"),
		),
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return nil, fmt.Errorf("config: failed to create decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, &refcerrors.ConfigError{Option: "config", Message: "failed to decode settings", Cause: err}
	}
	return &s, nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return &refcerrors.ConfigError{Option: "log_format", Value: s.LogFormat, Message: "must be text or json"}
	}
	if s.Indent < 1 || s.Indent > 8 {
		return &refcerrors.ConfigError{Option: "indent", Value: s.Indent, Message: "must be between 1 and 8"}
	}
	if s.MaxRefDepth < 0 {
		return &refcerrors.ConfigError{Option: "max_ref_depth", Value: s.MaxRefDepth, Message: "must not be negative"}
	}
	if s.Watch.Debounce < 0 {
		return &refcerrors.ConfigError{Option: "watch.debounce", Value: s.Watch.Debounce, Message: "must not be negative"}
	}
	return nil
}
