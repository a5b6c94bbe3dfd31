// Package sqlite provides a settings repository stored in an SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

const (
	appName    = "carplayer"
	dbFileName = "settings.db"
	repoType   = "sqlite"

	keyDisplayMode = "SpeedDisplayMode"
	keyMapType     = "MapType"
)

// SettingsRepository implements ports.SettingsRepository on a key/value table.
type SettingsRepository struct {
	db *sql.DB
}

// DefaultPath returns the database location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens (creating if needed) the settings database at path.
// An empty path selects DefaultPath; ":memory:" opens a private
// in-memory database.
func Open(path string) (*SettingsRepository, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, domain.NewRepositoryError("Open", repoType, "failed to resolve database path", err)
		}
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, domain.NewRepositoryError("Open", repoType, "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, domain.NewRepositoryError("Open", repoType, "failed to open database", err)
	}
	// One connection keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, domain.NewRepositoryError("Open", repoType, "failed to initialize schema", err)
	}

	return &SettingsRepository{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
	`)
	return err
}

// Close closes the database.
func (r *SettingsRepository) Close() error {
	return r.db.Close()
}

// SaveDisplayMode persists the display mode.
func (r *SettingsRepository) SaveDisplayMode(mode domain.DisplayMode) error {
	return r.saveInt("SaveDisplayMode", keyDisplayMode, int(mode))
}

// LoadDisplayMode retrieves the display mode, domain.DisplayOff if unset.
func (r *SettingsRepository) LoadDisplayMode() (domain.DisplayMode, error) {
	value, err := r.loadInt("LoadDisplayMode", keyDisplayMode, int(domain.DisplayOff))
	if err != nil {
		return domain.DisplayOff, err
	}
	mode := domain.DisplayMode(value)
	if !mode.IsValid() {
		return domain.DisplayOff, domain.NewRepositoryError("LoadDisplayMode", repoType,
			fmt.Sprintf("stored display mode %d out of range", value), nil)
	}
	return mode, nil
}

// SaveMapType persists the map type.
func (r *SettingsRepository) SaveMapType(mapType domain.MapType) error {
	return r.saveInt("SaveMapType", keyMapType, int(mapType))
}

// LoadMapType retrieves the map type, domain.MapStandard if unset.
func (r *SettingsRepository) LoadMapType() (domain.MapType, error) {
	value, err := r.loadInt("LoadMapType", keyMapType, int(domain.MapStandard))
	if err != nil {
		return domain.MapStandard, err
	}
	mapType := domain.MapType(value)
	if !mapType.IsValid() {
		return domain.MapStandard, domain.NewRepositoryError("LoadMapType", repoType,
			fmt.Sprintf("stored map type %d out of range", value), nil)
	}
	return mapType, nil
}

// Clear removes all saved settings.
func (r *SettingsRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM settings`); err != nil {
		return domain.NewRepositoryError("Clear", repoType, "failed to delete settings", err)
	}
	return nil
}

func (r *SettingsRepository) saveInt(op, key string, value int) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return domain.NewRepositoryError(op, repoType, "failed to save "+key, err)
	}
	return nil
}

func (r *SettingsRepository) loadInt(op, key string, fallback int) (int, error) {
	var value int
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return fallback, domain.NewRepositoryError(op, repoType, "failed to load "+key, err)
	}
	return value, nil
}

// Verify interface implementation
var _ ports.SettingsRepository = (*SettingsRepository)(nil)
