package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/caffeine/internal/config"
	"github.com/stigoleg/caffeine/internal/platform"
)

type fakeClient struct {
	calls  []string
	timers []int
	status platform.RemoteStatus
	err    error
	closed bool
}

func (f *fakeClient) Toggle() error {
	f.calls = append(f.calls, "toggle")
	return f.err
}

func (f *fakeClient) StartTimer(minutes int) error {
	f.calls = append(f.calls, "timer")
	f.timers = append(f.timers, minutes)
	return f.err
}

func (f *fakeClient) CancelTimer() error {
	f.calls = append(f.calls, "cancel")
	return f.err
}

func (f *fakeClient) Status() (platform.RemoteStatus, error) {
	f.calls = append(f.calls, "status")
	return f.status, f.err
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func useClient(t *testing.T, c *fakeClient) {
	t.Helper()
	orig := dial
	dial = func() (platform.Client, error) { return c, nil }
	t.Cleanup(func() { dial = orig })
}

func useInstalled(t *testing.T, apps ...platform.InstalledApp) {
	t.Helper()
	orig := installedApps
	installedApps = func() ([]platform.InstalledApp, error) { return apps, nil }
	t.Cleanup(func() { installedApps = orig })
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func tempConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "settings.yaml")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "caffeine test\n", out)
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd("test")
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "toggle", "status", "timer", "apps", "config", "shortcut", "version"} {
		assert.Contains(t, names, want)
	}

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	for _, flag := range []string{"duration", "until", "tui", "no-tray", "log-file"} {
		assert.NotNil(t, run.Flags().Lookup(flag), flag)
	}
}

func TestToggle(t *testing.T) {
	c := &fakeClient{}
	useClient(t, c)

	_, _, err := execute(t, "toggle")
	require.NoError(t, err)
	assert.Equal(t, []string{"toggle"}, c.calls)
	assert.True(t, c.closed)
}

func TestToggleWithoutDaemon(t *testing.T) {
	useClient(t, &fakeClient{err: platform.ErrNotRunning})

	_, _, err := execute(t, "toggle")
	require.ErrorIs(t, err, platform.ErrNotRunning)
	assert.Contains(t, FormatError(err), "caffeine run")
}

func TestTimer(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int
		wantErr bool
	}{
		{"minutes", []string{"timer", "30"}, []int{30}, false},
		{"duration", []string{"timer", "1h30m"}, []int{90}, false},
		{"flag", []string{"timer", "-d", "45"}, []int{45}, false},
		{"no limit", []string{"timer", "0"}, []int{0}, false},
		{"missing", []string{"timer"}, nil, true},
		{"both", []string{"timer", "30", "-d", "20"}, nil, true},
		{"invalid", []string{"timer", "soon"}, nil, true},
		{"too long", []string{"timer", "25h"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeClient{}
			useClient(t, c)

			_, _, err := execute(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, c.calls, "no call on invalid input")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.timers)
		})
	}
}

func TestTimerCancel(t *testing.T) {
	c := &fakeClient{}
	useClient(t, c)

	_, _, err := execute(t, "timer", "cancel")
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel"}, c.calls)
}

func TestStatus(t *testing.T) {
	c := &fakeClient{status: platform.RemoteStatus{Inhibited: true, Holders: []string{"user", "org.gnome.Totem.desktop"}, Label: "4:59"}}
	useClient(t, c)

	out, _, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "4:59 remaining")
	assert.Contains(t, out, "user, org.gnome.Totem.desktop")
}

func TestStatusAll(t *testing.T) {
	useClient(t, &fakeClient{})
	orig := listInhibitors
	listInhibitors = func() ([]platform.Inhibitor, error) {
		return []platform.Inhibitor{{Path: "/org/gnome/SessionManager/Inhibitor7", AppID: "firefox", Reason: "Playing video", Idle: true}}, nil
	}
	t.Cleanup(func() { listInhibitors = orig })

	out, _, err := execute(t, "status", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "enabled")
	assert.Contains(t, out, "firefox")
	assert.Contains(t, out, "Playing video")
}

func TestApps(t *testing.T) {
	path := tempConfig(t)
	useInstalled(t, platform.InstalledApp{ID: "org.gnome.Totem.desktop", Name: "Videos"})

	_, stderr, err := execute(t, "--config", path, "apps", "add", "org.gnome.Totem.desktop", "missing.desktop", "org.gnome.Totem.desktop")
	require.NoError(t, err)
	assert.Contains(t, stderr, "missing.desktop")
	assert.NotContains(t, stderr, "Totem")

	out, _, err := execute(t, "--config", path, "apps", "list")
	require.NoError(t, err)
	assert.Equal(t, "org.gnome.Totem.desktop\nmissing.desktop\n", out)

	_, _, err = execute(t, "--config", path, "apps", "remove", "missing.desktop")
	require.NoError(t, err)

	store, err := config.Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"org.gnome.Totem.desktop"}, store.Get().InhibitApps)

	out, _, err = execute(t, "--config", path, "apps", "list", "--installed")
	require.NoError(t, err)
	assert.Contains(t, out, "Videos")
}

func TestConfigCommands(t *testing.T) {
	path := tempConfig(t)

	out, _, err := execute(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	out, _, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "show-indicator: only-active")
	assert.Contains(t, out, "<Super>c")

	out, _, err = execute(t, "config", "schema")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")
}

func TestShortcutInstall(t *testing.T) {
	path := tempConfig(t)
	var gotAccel, gotCommand string
	origInstall := installShortcut
	installShortcut = func(accel, command string) error {
		gotAccel, gotCommand = accel, command
		return nil
	}
	t.Cleanup(func() { installShortcut = origInstall })

	_, _, err := execute(t, "--config", path, "shortcut", "install")
	require.NoError(t, err)
	assert.Equal(t, "<Super>c", gotAccel)
	assert.Regexp(t, ` toggle$`, gotCommand)

	_, _, err = execute(t, "--config", path, "shortcut", "install", "<Control><Alt>c")
	require.NoError(t, err)
	assert.Equal(t, "<Control><Alt>c", gotAccel)

	store, err := config.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "<Control><Alt>c", store.Get().ToggleShortcut)
}

func TestShortcutRemoveError(t *testing.T) {
	orig := removeShortcut
	removeShortcut = func() error { return errors.New("no gsettings") }
	t.Cleanup(func() { removeShortcut = orig })

	_, _, err := execute(t, "shortcut", "remove")
	assert.EqualError(t, err, "no gsettings")
}

func TestRunRejectsBadTimerBeforeConnecting(t *testing.T) {
	_, _, err := execute(t, "--config", tempConfig(t), "run", "--no-tray", "-d", "30", "-u", "22:00")
	assert.EqualError(t, err, "cannot use both --duration and --until")
}

func TestFormatError(t *testing.T) {
	boxed := FormatError(errors.New("Invalid duration format:\n\ninvalid duration format: soon"))
	assert.Contains(t, boxed, "Invalid duration format:")
	assert.Contains(t, boxed, "soon")

	plain := FormatError(errors.New("boom"))
	assert.Contains(t, plain, "boom")
}
