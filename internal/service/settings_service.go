package service

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// SettingsService manages the dashboard display mode and the map type.
// Values are loaded once at construction and cached; every change is
// persisted and published.
//
// Thread-safe: All operations protected by sync.RWMutex.
type SettingsService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.SettingsRepository
	bus        ports.EventBus

	// Cached settings
	displayMode domain.DisplayMode
	mapType     domain.MapType

	// Concurrency control
	mu sync.RWMutex
}

// NewSettingsService creates a settings service and loads the stored values.
// Unreadable values fall back to the defaults with a warning.
func NewSettingsService(
	logger *slog.Logger,
	repository ports.SettingsRepository,
	bus ports.EventBus,
) *SettingsService {
	s := &SettingsService{
		logger:      logger.With(slog.String("service", "settings")),
		repository:  repository,
		bus:         bus,
		displayMode: domain.DisplayOff,
		mapType:     domain.MapStandard,
	}

	s.loadSettings()

	s.logger.Debug("settings service initialized",
		slog.String("display_mode", s.displayMode.String()),
		slog.String("map_type", s.mapType.String()))

	return s
}

func (s *SettingsService) loadSettings() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode, err := s.repository.LoadDisplayMode(); err == nil {
		s.displayMode = mode
	} else {
		s.logger.Warn("failed to load display mode", slog.Any("error", err))
	}

	if mapType, err := s.repository.LoadMapType(); err == nil {
		s.mapType = mapType
	} else {
		s.logger.Warn("failed to load map type", slog.Any("error", err))
	}
}

// DisplayMode returns the current display mode.
func (s *SettingsService) DisplayMode() domain.DisplayMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayMode
}

// SetDisplayMode stores a display mode.
func (s *SettingsService) SetDisplayMode(mode domain.DisplayMode) error {
	if !mode.IsValid() {
		return domain.NewValidationError("display_mode", int(mode), "unknown display mode")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setDisplayModeLocked(mode)
}

// AdvanceDisplayMode switches to the next display mode (round robin) and
// returns it.
func (s *SettingsService) AdvanceDisplayMode() (domain.DisplayMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.displayMode.Next()
	if err := s.setDisplayModeLocked(next); err != nil {
		return s.displayMode, err
	}
	return next, nil
}

// setDisplayModeLocked persists first so the cache never holds a value
// the repository rejected. Events are published with mu held; handlers
// must not call back into the service.
func (s *SettingsService) setDisplayModeLocked(mode domain.DisplayMode) error {
	if err := s.repository.SaveDisplayMode(mode); err != nil {
		return domain.NewServiceError("SettingsService", "SetDisplayMode", "failed to save display mode", err)
	}
	s.displayMode = mode
	s.bus.Publish(domain.NewDisplayModeChangedEvent(mode))
	return nil
}

// MapType returns the current map type.
func (s *SettingsService) MapType() domain.MapType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapType
}

// SetMapType stores a map type.
func (s *SettingsService) SetMapType(mapType domain.MapType) error {
	if !mapType.IsValid() {
		return domain.NewValidationError("map_type", int(mapType), "unknown map type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMapTypeLocked(mapType)
}

// AdvanceMapType switches to the next map type (round robin) and returns it.
func (s *SettingsService) AdvanceMapType() (domain.MapType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.mapType.Next()
	if err := s.setMapTypeLocked(next); err != nil {
		return s.mapType, err
	}
	return next, nil
}

// RetreatMapType switches to the previous map type (round robin) and
// returns it.
func (s *SettingsService) RetreatMapType() (domain.MapType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.mapType.Previous()
	if err := s.setMapTypeLocked(previous); err != nil {
		return s.mapType, err
	}
	return previous, nil
}

func (s *SettingsService) setMapTypeLocked(mapType domain.MapType) error {
	if err := s.repository.SaveMapType(mapType); err != nil {
		return domain.NewServiceError("SettingsService", "SetMapType", "failed to save map type", err)
	}
	s.mapType = mapType
	s.bus.Publish(domain.NewMapTypeChangedEvent(mapType))
	return nil
}

// ResetToDefaults clears the stored settings and publishes the defaults.
func (s *SettingsService) ResetToDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repository.Clear(); err != nil {
		return domain.NewServiceError("SettingsService", "ResetToDefaults", "failed to clear settings", err)
	}

	s.displayMode = domain.DisplayOff
	s.mapType = domain.MapStandard
	s.bus.Publish(domain.NewDisplayModeChangedEvent(s.displayMode))
	s.bus.Publish(domain.NewMapTypeChangedEvent(s.mapType))

	s.logger.Info("settings reset to defaults")
	return nil
}
