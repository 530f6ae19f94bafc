package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/dtui/internal/errors"
	"github.com/rileyhilliard/dtui/internal/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.NotNil(t, cfg.Hosts)
	assert.Empty(t, cfg.Hosts)
	assert.Equal(t, 500*time.Millisecond, cfg.RefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
hosts:
  - host: local
  - host: ssh://deploy@web1
    dozzle: http://web1:8080
  - host: tcp://10.0.0.5:2375
refresh_interval: 1s
connect_timeout: 3s
smoothing: 0.3
metrics_addr: ":9184"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	require.Len(t, cfg.Hosts, 3)
	assert.Equal(t, "local", cfg.Hosts[0].Host)
	assert.Empty(t, cfg.Hosts[0].Dozzle)
	assert.Equal(t, "ssh://deploy@web1", cfg.Hosts[1].Host)
	assert.Equal(t, "http://web1:8080", cfg.Hosts[1].Dozzle)
	assert.Equal(t, "tcp://10.0.0.5:2375", cfg.Hosts[2].Host)
	assert.Equal(t, time.Second, cfg.RefreshInterval)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, ":9184", cfg.MetricsAddr)
	assert.InDelta(t, 0.3, cfg.Smoothing, 1e-9)
	assert.Equal(t, CurrentConfigVersion, cfg.Version)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("hosts:\n  - host: local\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, DefaultRefreshInterval, cfg.RefreshInterval)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("hosts: [\n  - host: local"), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFind(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		dir := t.TempDir()
		p := filepath.Join(dir, "custom.yaml")
		require.NoError(t, os.WriteFile(p, []byte("hosts: []\n"), 0644))

		got, err := Find(p)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Find(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("working directory beats home", func(t *testing.T) {
		home := t.TempDir()
		cwd := t.TempDir()
		t.Setenv("HOME", home)
		t.Chdir(cwd)

		require.NoError(t, os.MkdirAll(filepath.Join(home, GlobalConfigDir), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(home, GlobalConfigDir, "config.yaml"), []byte("hosts: []\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(cwd, "config.yml"), []byte("hosts: []\n"), 0644))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, "config.yml", filepath.Base(got))
	})

	t.Run("xdg dir beats dotfile", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Chdir(t.TempDir())

		require.NoError(t, os.WriteFile(filepath.Join(home, ".dtui.yaml"), []byte("hosts: []\n"), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(home, GlobalConfigDir), 0755))
		xdg := filepath.Join(home, GlobalConfigDir, "config.yml")
		require.NoError(t, os.WriteFile(xdg, []byte("hosts: []\n"), 0644))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, xdg, got)
	})

	t.Run("dotfile", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Chdir(t.TempDir())

		dot := filepath.Join(home, ".dtui.yml")
		require.NoError(t, os.WriteFile(dot, []byte("hosts: []\n"), 0644))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, dot, got)
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Chdir(t.TempDir())

		got, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, path, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, home, ExpandTilde("~"))
	assert.Equal(t, filepath.Join(home, "dtui.log"), ExpandTilde("~/dtui.log"))
	assert.Equal(t, "/tmp/x", ExpandTilde("/tmp/x"))
	assert.Equal(t, "~bob/x", ExpandTilde("~bob/x"))
	assert.Equal(t, "", ExpandTilde(""))
}

func TestResolveHosts(t *testing.T) {
	cfg := &Config{Hosts: []HostConfig{
		{Host: "ssh://deploy@web1", Dozzle: "http://web1:8080"},
		{Host: "tcp://db:2375"},
	}}

	tests := []struct {
		name    string
		cfg     *Config
		cli     []string
		wantIDs []string
	}{
		{name: "defaults to local", cfg: DefaultConfig(), wantIDs: []string{"local"}},
		{name: "nil config defaults to local", cfg: nil, wantIDs: []string{"local"}},
		{name: "config hosts", cfg: cfg, wantIDs: []string{"deploy@web1", "db"}},
		{name: "cli replaces config", cfg: cfg, cli: []string{"local", "ssh://ops@cache:2222"}, wantIDs: []string{"local", "ops@cache"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := ResolveHosts(tt.cfg, tt.cli)
			require.NoError(t, err)

			ids := make([]string, len(specs))
			for i, s := range specs {
				ids[i] = s.ID()
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestResolveHosts_Dashboard(t *testing.T) {
	cfg := &Config{Hosts: []HostConfig{
		{Host: "ssh://deploy@web1", Dozzle: "http://web1:8080"},
	}}

	specs, err := ResolveHosts(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://web1:8080", specs[0].Dashboard)

	specs, err = ResolveHosts(cfg, []string{"ssh://deploy@web1", "local"})
	require.NoError(t, err)
	assert.Equal(t, "http://web1:8080", specs[0].Dashboard)
	assert.Empty(t, specs[1].Dashboard)
	assert.Equal(t, host.ProtocolLocal, specs[1].Protocol)
}

func TestResolveHosts_Errors(t *testing.T) {
	_, err := ResolveHosts(DefaultConfig(), []string{"ftp://nope"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	_, err = ResolveHosts(DefaultConfig(), []string{"tcp://db:2375", "tcp://db:2376"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both resolve to 'db'")
}
