package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoth/thoth/internal/models"
)

// isolate points every path thoth touches into a temp dir and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  file: false\n"), 0o644))

	t.Setenv("THOTH_CONFIG", cfgPath)
	t.Setenv("THOTH_DB_PATH", filepath.Join(dir, "thoth.db"))
	t.Setenv("THOTH_PID_FILE", filepath.Join(dir, "thoth.pid"))
	t.Setenv("THOTH_WEB_HOST", "127.0.0.1")
	// nothing listens here, so commands fall back to running locally
	t.Setenv("THOTH_WEB_PORT", "1")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "thoth")
	assert.Contains(t, out, "launcher")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	want := []string{"start", "serve", "stop", "status", "search", "run", "list",
		"show", "hide", "toggle", "refresh", "history", "clear", "config", "version"}

	got := make(map[string]bool)
	for _, c := range cmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing subcommand %q", name)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "thoth version "+Version)
}

func TestConfigCommand(t *testing.T) {
	isolate(t)
	t.Setenv("THOTH_MATCHER", "jaro")

	out, err := execute(t, "config", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "matcher: jaro")
	assert.Contains(t, out, "host: 127.0.0.1")
}

func TestConfigCommandRejectsInvalid(t *testing.T) {
	dir := isolate(t)
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("search:\n  matcher: nope\n"), 0o644))

	_, err := execute(t, "--config", bad, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestStatusNotRunning(t *testing.T) {
	isolate(t)

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not running")

	out, err = execute(t, "status", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"running": false}`, out)
}

func TestStopNotRunning(t *testing.T) {
	isolate(t)

	out, err := execute(t, "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "Daemon is not running")
}

func TestHistoryEmpty(t *testing.T) {
	isolate(t)

	out, err := execute(t, "history", "week")
	require.NoError(t, err)
	assert.Contains(t, out, "Launch Report - week")
	assert.Contains(t, out, "No launches recorded")

	out, err = execute(t, "history", "--json")
	require.NoError(t, err)
	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "day", report.Period.Type)

	_, err = execute(t, "history", "year")
	assert.Error(t, err)
}

func TestClearRequiresConfirmation(t *testing.T) {
	isolate(t)

	out, err := execute(t, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Operation cancelled")

	out, err = execute(t, "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Launch history cleared")
}

func TestSearchLocal(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("desktop entry discovery is linux only")
	}
	dir := isolate(t)
	t.Setenv("THOTH_HISTORY", "false")

	apps := filepath.Join(dir, "share", "applications")
	require.NoError(t, os.MkdirAll(apps, 0o755))
	entry := "[Desktop Entry]\nType=Application\nName=Firefox\nExec=firefox %u\n"
	require.NoError(t, os.WriteFile(filepath.Join(apps, "firefox.desktop"), []byte(entry), 0o644))

	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "home"))
	t.Setenv("XDG_DATA_DIRS", filepath.Join(dir, "share"))
	t.Setenv("XDG_CURRENT_DESKTOP", "")

	out, err := execute(t, "search", "--local", "--json", "fire")
	require.NoError(t, err)

	var got []models.Runnable
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Firefox", got[0].Name)
	assert.Equal(t, filepath.Join(apps, "firefox.desktop"), got[0].Exec)

	// without --local the unreachable daemon falls back to the same scan
	out, err = execute(t, "search", "fire")
	require.NoError(t, err)
	assert.Contains(t, out, "Firefox")

	out, err = execute(t, "search", "--local", "zz")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches")
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		assert.Equal(t, tt.want, confirmAction(strings.NewReader(tt.input), &out), "input %q", tt.input)
		assert.Contains(t, out.String(), "Continue?")
	}
}

func TestLauncherWindowStartsVisible(t *testing.T) {
	state := newLauncherWindow().State()
	assert.True(t, state.Visible)
	assert.True(t, state.Focused)
	assert.Empty(t, state.Query)
}
