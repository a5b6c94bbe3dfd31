// Package config loads the CarPlayer configuration from TOML files and
// the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/logger"
)

const (
	appName = "carplayer"

	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "CARPLAYER_"

	// LocalFile is the configuration file looked up in the working directory.
	LocalFile = "carplayer.toml"
)

// Settings backends.
const (
	BackendSQLite = "sqlite"
	BackendFyne   = "fyne"
)

// Audio engines.
const (
	AudioBeep = "beep" // system sound output
	AudioMock = "mock" // silent, driven by the wall clock
)

// Config is the complete application configuration.
type Config struct {
	AppID string `koanf:"app_id" env:"APP_ID"`

	Library  LibraryConfig  `koanf:"library" envPrefix:"LIBRARY_"`
	Settings SettingsConfig `koanf:"settings" envPrefix:"SETTINGS_"`
	Log      LogConfig      `koanf:"log" envPrefix:"LOG_"`
	Audio    AudioConfig    `koanf:"audio" envPrefix:"AUDIO_"`
	Location LocationConfig `koanf:"location" envPrefix:"LOCATION_"`
}

// LibraryConfig selects what gets indexed.
type LibraryConfig struct {
	Paths             []string `koanf:"paths" env:"PATHS"`                           // folders scanned for audio files and playlists
	PlaylistBlacklist []string `koanf:"playlist_blacklist" env:"PLAYLIST_BLACKLIST"` // playlist names never indexed
}

// SettingsConfig selects where display settings are persisted.
type SettingsConfig struct {
	Backend string `koanf:"backend" env:"BACKEND"` // "sqlite" or "fyne"
	DBPath  string `koanf:"db_path" env:"DB_PATH"` // empty means the XDG data file
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" env:"LEVEL"`
	Format string `koanf:"format" env:"FORMAT"` // "text" or "json"
}

// AudioConfig is passed to the audio engine.
type AudioConfig struct {
	Engine     string `koanf:"engine" env:"ENGINE"` // "beep" or "mock"
	Device     int    `koanf:"device" env:"DEVICE"` // -1 for the default device
	SampleRate int    `koanf:"sample_rate" env:"SAMPLE_RATE"`
}

// LocationConfig controls the location readout.
type LocationConfig struct {
	GermanDecimals bool `koanf:"german_decimals" env:"GERMAN_DECIMALS"` // decimal comma in coordinates
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		AppID: "com.github.tejashwikalptaru.carplayer",
		Settings: SettingsConfig{
			Backend: BackendSQLite,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Audio: AudioConfig{
			Engine:     AudioBeep,
			Device:     -1,
			SampleRate: 44100,
		},
	}
}

// Load reads the configuration. With an explicit path only that file is
// read and it must exist; otherwise the XDG config file and ./carplayer.toml
// are read when present, the latter winning. CARPLAYER_* environment
// variables override both.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else {
		for _, candidate := range configPaths() {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if err := k.Load(file.Provider(candidate), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load config %s: %w", candidate, err)
			}
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	for i, p := range cfg.Library.Paths {
		cfg.Library.Paths[i] = expandPath(p)
	}
	cfg.Settings.DBPath = expandPath(cfg.Settings.DBPath)
	cfg.Settings.Backend = strings.ToLower(strings.TrimSpace(cfg.Settings.Backend))
	cfg.Audio.Engine = strings.ToLower(strings.TrimSpace(cfg.Audio.Engine))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be corrected silently.
func (c *Config) Validate() error {
	switch c.Settings.Backend {
	case BackendSQLite, BackendFyne:
	default:
		return fmt.Errorf("settings backend %q: %w", c.Settings.Backend, domain.ErrUnknownSettingsBackend)
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return domain.NewValidationError("log.format", c.Log.Format, "must be text or json")
	}

	if c.Audio.Engine != AudioBeep && c.Audio.Engine != AudioMock {
		return domain.NewValidationError("audio.engine", c.Audio.Engine, "must be beep or mock")
	}

	if c.Audio.SampleRate <= 0 {
		return domain.NewValidationError("audio.sample_rate", c.Audio.SampleRate, "must be positive")
	}

	if c.AppID == "" {
		return domain.NewValidationError("app_id", c.AppID, "must not be empty")
	}

	return nil
}

// LoggerConfig converts the log section into a logger configuration.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  logger.ParseLevel(c.Log.Level, slog.LevelInfo),
		Format: c.Log.Format,
	}
}

func configPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		LocalFile,
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
