package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/errors"
	"github.com/mavrogato/othones/infrastructure/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_RUNTIME_DIR", dir)
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("WAYLAND_SOCKET", "")
	t.Setenv("OTHONES_LOG_LEVEL", "")
	t.Setenv("OTHONES_LOG_FORMAT", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDescribe_List(t *testing.T) {
	isolate(t)
	out, err := execute(t, "describe")
	require.NoError(t, err)

	assert.Contains(t, out, "INTERFACE")
	for _, name := range []string{"wl_display", "wl_surface", "wl_seat", "xdg_toplevel"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "capabilities,name")
}

func TestDescribe_Kind(t *testing.T) {
	isolate(t)
	out, err := execute(t, "describe", "wl_keyboard")
	require.NoError(t, err)

	assert.Contains(t, out, "wl_keyboard version 7")
	assert.Contains(t, out, "keymap")
	assert.Contains(t, out, `"uhu"`)
}

func TestDescribe_KindWithoutEvents(t *testing.T) {
	isolate(t)
	out, err := execute(t, "describe", "wl_compositor")
	require.NoError(t, err)
	assert.Contains(t, out, "no events")
}

func TestDescribe_Schema(t *testing.T) {
	isolate(t)
	out, err := execute(t, "describe", "--schema", "wl_seat")
	require.NoError(t, err)

	assert.Contains(t, out, "wl_seat")
	assert.Contains(t, out, "capabilities")
	assert.Contains(t, out, "Capabilities")
}

func TestDescribe_Unknown(t *testing.T) {
	isolate(t)
	_, err := execute(t, "describe", "wl_nothing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wl_nothing")
}

func TestTraceDump(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "events.cbor")
	rec, err := trace.Create(path)
	require.NoError(t, err)
	require.NoError(t, rec.Record(trace.Entry{
		Time:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Interface: "wl_seat",
		Event:     "capabilities",
		Object:    3,
		Args:      []trace.Arg{{Type: "u", Value: uint32(3)}},
	}))
	require.NoError(t, rec.Close())

	out, err := execute(t, "trace", "dump", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wl_seat@3.capabilities")

	diag, err := execute(t, "trace", "dump", "--diag", path)
	require.NoError(t, err)
	assert.Contains(t, diag, `"wl_seat"`)
}

func TestTraceDump_Missing(t *testing.T) {
	isolate(t)
	_, err := execute(t, "trace", "dump", filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestConfigShow_Precedence(t *testing.T) {
	isolate(t)
	t.Setenv("OTHONES_LOG_LEVEL", "debug")

	out, err := execute(t, "config", "show", "--log-format", "json", "--display", "wayland-5")
	require.NoError(t, err)
	assert.Contains(t, out, "log.level = debug")
	assert.Contains(t, out, "log.format = json")
	assert.Contains(t, out, "display = wayland-5")
}

func TestConfigShow_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "othones.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window:\n  title: from-file\n"), 0o600))

	out, err := execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# file: "+path)
	assert.Contains(t, out, "window.title = from-file")
}

func TestInvalidLogLevel(t *testing.T) {
	isolate(t)
	_, err := execute(t, "--log-level", "chatty", "describe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Level")
}

func TestGlobals_NoCompositor(t *testing.T) {
	isolate(t)
	_, err := execute(t, "globals", "--display", filepath.Join(t.TempDir(), "missing-0"))
	require.Error(t, err)

	var buf bytes.Buffer
	assert.Equal(t, 1, Report(&buf, err))
	assert.Contains(t, buf.String(), "operation: dial")
}

func TestPrintGlobals(t *testing.T) {
	globals := []entities.Global{
		{Name: 1, Interface: "wl_compositor", Version: 6},
		{Name: 9, Interface: "xdg_wm_base", Version: 5},
	}

	var table bytes.Buffer
	require.NoError(t, printGlobals(&table, globals, false))
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "xdg_wm_base")

	var js bytes.Buffer
	require.NoError(t, printGlobals(&js, globals, true))
	assert.Contains(t, js.String(), `"interface": "wl_compositor"`)
}

func TestReport(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   []string
	}{
		{name: "nil", err: nil, status: 0},
		{name: "canceled", err: fmt.Errorf("run: %w", context.Canceled), status: 130},
		{
			name:   "protocol",
			err:    &errors.ProtocolError{Interface: "xdg_surface", Object: 9, Code: 3, Message: "unconfigured buffer"},
			status: 1,
			want:   []string{"unconfigured buffer", "interface: xdg_surface", "object:    9", "code:      3"},
		},
		{
			name:   "registration",
			err:    fmt.Errorf("window: create surface: %w", &errors.RegistrationError{Interface: "wl_surface", Object: 4, Err: errors.ErrAlreadyRegistered}),
			status: 1,
			want:   []string{"create surface", "interface: wl_surface"},
		},
		{
			name:   "transport",
			err:    &errors.TransportError{Operation: "pump", Err: errors.ErrConnectionClosed},
			status: 1,
			want:   []string{"operation: pump"},
		},
		{
			name:   "plain",
			err:    fmt.Errorf("boom"),
			status: 1,
			want:   []string{"othones: boom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.status, Report(&buf, tt.err))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
