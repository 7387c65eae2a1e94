// Package config loads the othones configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// validate is shared; building a validator is expensive.
var validate = validator.New()

// Config is the resolved configuration.
type Config struct {
	// Display is the compositor socket name or path.
	Display string `mapstructure:"display"`

	// RuntimeDir resolves relative display names and hosts shm fallback
	// files.
	RuntimeDir string `mapstructure:"runtime_dir"`

	// ConnectTimeout bounds dialing and the initial roundtrips.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`

	// Trace, if set, is the path events are recorded to.
	Trace string `mapstructure:"trace"`

	Log    Log    `mapstructure:"log"`
	Window Window `mapstructure:"window"`
}

// Log configures logging.
type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Window configures the demo window.
type Window struct {
	Title string `mapstructure:"title" validate:"required"`
	AppID string `mapstructure:"app_id"`

	// Width and Height of zero derive the size from the output mode.
	Width  int32 `mapstructure:"width" validate:"gte=0,lte=16384"`
	Height int32 `mapstructure:"height" validate:"gte=0,lte=16384"`
}

// Option is one configuration key with its default and meaning.
type Option struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the configuration keys and their meanings.
func GetConfigOptions() []Option {
	return []Option{
		{Key: "display", Default: "", Comment: "Compositor socket name or absolute path; falls back to $WAYLAND_DISPLAY"},
		{Key: "runtime_dir", Default: "", Comment: "Directory holding the socket; falls back to $XDG_RUNTIME_DIR"},
		{Key: "connect_timeout", Default: 5 * time.Second, Comment: "Deadline for connecting and discovering globals"},
		{Key: "trace", Default: "", Comment: "Record delivered events to this CBOR file"},
		{Key: "log.level", Default: "info", Comment: "debug, info, warn or error"},
		{Key: "log.format", Default: "text", Comment: "text or json"},
		{Key: "window.title", Default: "othones", Comment: "Toplevel title"},
		{Key: "window.app_id", Default: "othones", Comment: "Toplevel application id"},
		{Key: "window.width", Default: 0, Comment: "Initial width; 0 uses a quarter of the output mode"},
		{Key: "window.height", Default: 0, Comment: "Initial height; 0 uses a quarter of the output mode"},
	}
}

func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// Flags bound by the caller take precedence over all of these.
func Load(_ context.Context, v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "othones"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "othones"))
		}
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	// Environment variables: OTHONES_*
	v.SetEnvPrefix("othones")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("display", "OTHONES_DISPLAY", "WAYLAND_DISPLAY")
	_ = v.BindEnv("runtime_dir", "OTHONES_RUNTIME_DIR", "XDG_RUNTIME_DIR")
	return nil
}

// Decode extracts and validates the Config from a loaded Viper instance.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}
