package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendSQLite, cfg.Settings.Backend)
	assert.Equal(t, AudioBeep, cfg.Audio.Engine)
	assert.Equal(t, -1, cfg.Audio.Device)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.False(t, cfg.Location.GermanDecimals)
	assert.Empty(t, cfg.Library.Paths)
}

func TestLoad_ExplicitFile(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path := writeConfig(t, t.TempDir(), "custom.toml", `
app_id = "org.example.dash"

[library]
paths = ["~/Music", "/srv/music"]
playlist_blacklist = ["Chill", "Workout"]

[settings]
backend = "Fyne"
db_path = "~/carplayer/settings.db"

[log]
level = "debug"
format = "json"

[audio]
device = 2
sample_rate = 48000

[location]
german_decimals = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "org.example.dash", cfg.AppID)
	assert.Equal(t, []string{filepath.Join(home, "Music"), "/srv/music"}, cfg.Library.Paths)
	assert.Equal(t, []string{"Chill", "Workout"}, cfg.Library.PlaylistBlacklist)
	assert.Equal(t, BackendFyne, cfg.Settings.Backend)
	assert.Equal(t, filepath.Join(home, "carplayer", "settings.db"), cfg.Settings.DBPath)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Audio.Device)
	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.True(t, cfg.Location.GermanDecimals)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "partial.toml", `
[library]
paths = ["/music"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/music"}, cfg.Library.Paths)
	assert.Equal(t, BackendSQLite, cfg.Settings.Backend)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, Default().AppID, cfg.AppID)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "broken.toml", "[library\npaths = ")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "env.toml", `
[settings]
backend = "sqlite"

[audio]
sample_rate = 48000
`)

	t.Setenv("CARPLAYER_SETTINGS_BACKEND", "fyne")
	t.Setenv("CARPLAYER_LIBRARY_PATHS", "/a,/b")
	t.Setenv("CARPLAYER_LOCATION_GERMAN_DECIMALS", "true")
	t.Setenv("CARPLAYER_AUDIO_SAMPLE_RATE", "22050")
	t.Setenv("CARPLAYER_AUDIO_ENGINE", " Mock")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFyne, cfg.Settings.Backend)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Library.Paths)
	assert.True(t, cfg.Location.GermanDecimals)
	assert.Equal(t, 22050, cfg.Audio.SampleRate)
	assert.Equal(t, AudioMock, cfg.Audio.Engine)
}

func TestLoad_MalformedEnvironment(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "ok.toml", "")
	t.Setenv("CARPLAYER_AUDIO_DEVICE", "speaker")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_LocalFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, LocalFile, `
[library]
playlist_blacklist = ["Local"]
`)
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Local"}, cfg.Library.PlaylistBlacklist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		invalid bool
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Settings.Backend = "redis" },
			wantErr: domain.ErrUnknownSettingsBackend,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			invalid: true,
		},
		{
			name:    "unknown audio engine",
			mutate:  func(c *Config) { c.Audio.Engine = "alsa" },
			invalid: true,
		},
		{
			name:    "zero sample rate",
			mutate:  func(c *Config) { c.Audio.SampleRate = 0 },
			invalid: true,
		},
		{
			name:    "empty app id",
			mutate:  func(c *Config) { c.AppID = "" },
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.invalid {
				var validationErr *domain.ValidationError
				assert.ErrorAs(t, err, &validationErr)
			}
		})
	}
}

func TestLoad_UnknownBackendInFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "backend.toml", `
[settings]
backend = "etcd"
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, domain.ErrUnknownSettingsBackend)
}

func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warning"
	cfg.Log.Format = "json"

	lc := cfg.LoggerConfig()
	assert.Equal(t, slog.LevelWarn, lc.Level)
	assert.Equal(t, "json", lc.Format)

	cfg.Log.Level = "chatty"
	assert.Equal(t, slog.LevelInfo, cfg.LoggerConfig().Level)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde expands to home", "~/music", filepath.Join(home, "music")},
		{"tilde only", "~", home},
		{"absolute path unchanged", "/usr/local/music", "/usr/local/music"},
		{"relative path unchanged", "music/albums", "music/albums"},
		{"empty string unchanged", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandPath(tt.input))
		})
	}
}

func TestConfigPaths(t *testing.T) {
	paths := configPaths()

	require.Len(t, paths, 2)
	assert.Equal(t, "config.toml", filepath.Base(paths[0]))
	assert.Equal(t, LocalFile, paths[len(paths)-1])
}
