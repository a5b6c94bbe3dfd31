// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// SettingsRepository persists the two dashboard settings as durable
// integer cells.
//
// Load methods return the fallback value (and no error) when nothing
// has been stored yet.
type SettingsRepository interface {
	// SaveDisplayMode stores the display mode.
	SaveDisplayMode(mode domain.DisplayMode) error

	// LoadDisplayMode returns the stored display mode.
	LoadDisplayMode() (domain.DisplayMode, error)

	// SaveMapType stores the map type.
	SaveMapType(mapType domain.MapType) error

	// LoadMapType returns the stored map type.
	LoadMapType() (domain.MapType, error)

	// Clear removes every stored setting.
	Clear() error
}
