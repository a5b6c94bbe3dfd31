// Package memory provides a settings repository backed by Fyne preferences.
package memory

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// Preference keys. They match the entity names of earlier releases so
// stored values carry over.
const (
	keyDisplayMode = "SpeedDisplayMode"
	keyMapType     = "MapType"
)

// SettingsRepository implements ports.SettingsRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewSettingsRepository creates a settings repository.
// The preferences parameter is usually app.NewWithID(id).Preferences().
func NewSettingsRepository(prefs fyne.Preferences) *SettingsRepository {
	return &SettingsRepository{
		prefs: prefs,
	}
}

// SaveDisplayMode persists the display mode.
func (r *SettingsRepository) SaveDisplayMode(mode domain.DisplayMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetInt(keyDisplayMode, int(mode))
	return nil
}

// LoadDisplayMode retrieves the display mode. A stored value outside the
// known range yields domain.DisplayOff and a repository error.
func (r *SettingsRepository) LoadDisplayMode() (domain.DisplayMode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mode := domain.DisplayMode(r.prefs.IntWithFallback(keyDisplayMode, int(domain.DisplayOff)))
	if !mode.IsValid() {
		return domain.DisplayOff, domain.NewRepositoryError("LoadDisplayMode", "preferences",
			fmt.Sprintf("stored display mode %d out of range", mode), nil)
	}
	return mode, nil
}

// SaveMapType persists the map type.
func (r *SettingsRepository) SaveMapType(mapType domain.MapType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetInt(keyMapType, int(mapType))
	return nil
}

// LoadMapType retrieves the map type. A stored value outside the known
// range yields domain.MapStandard and a repository error.
func (r *SettingsRepository) LoadMapType() (domain.MapType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mapType := domain.MapType(r.prefs.IntWithFallback(keyMapType, int(domain.MapStandard)))
	if !mapType.IsValid() {
		return domain.MapStandard, domain.NewRepositoryError("LoadMapType", "preferences",
			fmt.Sprintf("stored map type %d out of range", mapType), nil)
	}
	return mapType, nil
}

// Clear removes all saved settings.
func (r *SettingsRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyDisplayMode)
	r.prefs.RemoveValue(keyMapType)

	return nil
}

// Verify interface implementation
var _ ports.SettingsRepository = (*SettingsRepository)(nil)
