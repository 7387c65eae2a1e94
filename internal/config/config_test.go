package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the caller's environment and config files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{
		"WAYLAND_DISPLAY", "XDG_RUNTIME_DIR",
		"OTHONES_DISPLAY", "OTHONES_RUNTIME_DIR", "OTHONES_TRACE",
		"OTHONES_LOG_LEVEL", "OTHONES_LOG_FORMAT",
		"OTHONES_WINDOW_TITLE", "OTHONES_WINDOW_WIDTH",
	} {
		t.Setenv(k, "")
	}
}

func load(t *testing.T, v *viper.Viper) *Config {
	t.Helper()
	require.NoError(t, Load(context.Background(), v))
	cfg, err := Decode(v)
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg := load(t, viper.New())

	assert.Empty(t, cfg.Display)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "othones", cfg.Window.Title)
	assert.Zero(t, cfg.Window.Width)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "othones.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
display: wayland-3
connect_timeout: 2s
log:
  level: debug
  format: json
window:
  title: demo
  width: 320
  height: 200
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	cfg := load(t, v)

	assert.Equal(t, "wayland-3", cfg.Display)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, int32(320), cfg.Window.Width)
	assert.Equal(t, int32(200), cfg.Window.Height)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "othones.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	t.Setenv("OTHONES_LOG_LEVEL", "warn")
	t.Setenv("OTHONES_WINDOW_TITLE", "from-env")

	v := viper.New()
	v.SetConfigFile(path)
	cfg := load(t, v)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.Window.Title)
}

func TestLoad_WaylandEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("WAYLAND_DISPLAY", "wayland-9")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	cfg := load(t, viper.New())

	assert.Equal(t, "wayland-9", cfg.Display)
	assert.Equal(t, "/run/user/1000", cfg.RuntimeDir)

	t.Setenv("OTHONES_DISPLAY", "wayland-1")
	cfg = load(t, viper.New())
	assert.Equal(t, "wayland-1", cfg.Display)
}

func TestLoad_ExplicitValueWins(t *testing.T) {
	isolate(t)
	t.Setenv("OTHONES_LOG_LEVEL", "warn")

	v := viper.New()
	require.NoError(t, Load(context.Background(), v))
	v.Set("log.level", "error")

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))

	err := Load(context.Background(), v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config:")
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"bad level", "log.level", "loud", "Level"},
		{"bad format", "log.format", "xml", "Format"},
		{"empty title", "window.title", "", "Title"},
		{"negative width", "window.width", -1, "Width"},
		{"zero timeout", "connect_timeout", 0, "ConnectTimeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			v := viper.New()
			require.NoError(t, Load(context.Background(), v))
			v.Set(tt.key, tt.val)

			_, err := Decode(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetConfigOptions_Documented(t *testing.T) {
	seen := map[string]bool{}
	for _, o := range GetConfigOptions() {
		assert.NotEmpty(t, o.Comment, o.Key)
		assert.False(t, seen[o.Key], "duplicate key %s", o.Key)
		seen[o.Key] = true
	}
}
