// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/carplayer/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/playback/queue"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/source/filesystem"
	"github.com/tejashwikalptaru/carplayer/internal/config"
	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/library"
	"github.com/tejashwikalptaru/carplayer/internal/location"
	"github.com/tejashwikalptaru/carplayer/internal/logger"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
	"github.com/tejashwikalptaru/carplayer/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
type Application struct {
	// Core dependencies
	logger  *slog.Logger
	config  *config.Config
	fyneApp fyne.App

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	audioEngine ports.AudioEngine
	clock       *mock.Engine // set when the silent engine plays in real time
	player      *queue.Player
	source      ports.TrackSource
	scanStats   filesystem.Stats

	// Repositories
	settingsRepo  ports.SettingsRepository
	closeSettings func() error

	// Services
	libraryService  *service.LibraryService
	settingsService *service.SettingsService
	tracker         *location.Tracker

	// Lifecycle
	cancelRun      context.CancelFunc
	wg             sync.WaitGroup
	shutdownOnce   sync.Once
}

// clockInterval is how often the mock engine catches up with the wall clock.
const clockInterval = 50 * time.Millisecond

// Option customizes NewApplication.
type Option func(*options)

type options struct {
	engine    ports.AudioEngine
	source    ports.TrackSource
	provider  ports.LocationProvider
	fyneApp   fyne.App
	logOutput io.Writer
}

// WithAudioEngine replaces the configured audio engine. A *mock.Engine
// is clocked in real time like the configured mock.
func WithAudioEngine(engine ports.AudioEngine) Option {
	return func(o *options) { o.engine = engine }
}

// WithSource replaces the filesystem scan with a ready track source.
func WithSource(source ports.TrackSource) Option {
	return func(o *options) { o.source = source }
}

// WithLocationProvider enables the location tracker.
func WithLocationProvider(provider ports.LocationProvider) Option {
	return func(o *options) { o.provider = provider }
}

// WithFyneApp injects the Fyne application used by the fyne settings
// backend, typically test.NewApp() in tests.
func WithFyneApp(a fyne.App) Option {
	return func(o *options) { o.fyneApp = a }
}

// WithLogOutput redirects the application log (default os.Stderr).
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// NewApplication creates a new application with all dependencies wired.
// Unless WithSource is given, the configured library paths are scanned
// before it returns; ctx bounds that scan.
func NewApplication(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{config: cfg}

	// Step 1: Create logger
	loggerCfg := cfg.LoggerConfig()
	loggerCfg.Output = o.logOutput
	app.logger = logger.NewLogger(loggerCfg)
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 3: Create the audio engine and the player on top of it
	app.audioEngine = o.engine
	if app.audioEngine == nil {
		app.audioEngine = app.newAudioEngine(cfg.Audio.Engine)
	}
	if err := app.audioEngine.Initialize(cfg.Audio.Device, cfg.Audio.SampleRate); err != nil {
		return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
	}
	app.clock, _ = app.audioEngine.(*mock.Engine)
	app.player = queue.NewPlayer(app.logger, app.audioEngine, app.eventBus)

	// Step 4: Create the settings repository
	if err := app.openSettings(cfg, o.fyneApp); err != nil {
		app.Shutdown()
		return nil, err
	}

	// Step 5: Resolve the track source
	app.source = o.source
	if app.source == nil {
		src, stats, err := filesystem.NewScanner(app.logger).Scan(ctx, cfg.Library.Paths...)
		if err != nil {
			app.Shutdown()
			return nil, fmt.Errorf("failed to scan library: %w", err)
		}
		app.source = src
		app.scanStats = stats
	}

	// Step 6: Create services (with dependency injection)
	var libraryOpts []library.Option
	if len(cfg.Library.PlaylistBlacklist) > 0 {
		libraryOpts = append(libraryOpts, library.WithPlaylistBlacklist(cfg.Library.PlaylistBlacklist))
	}
	app.libraryService = service.NewLibraryService(app.logger, app.source, app.player, app.eventBus, libraryOpts...)
	app.settingsService = service.NewSettingsService(app.logger, app.settingsRepo, app.eventBus)

	if o.provider != nil {
		formatter := location.Formatter{GermanDecimals: cfg.Location.GermanDecimals}
		app.tracker = location.NewTracker(app.logger, o.provider, formatter, app.eventBus)
	}

	return app, nil
}

// newAudioEngine creates the engine selected by the audio engine setting.
func (a *Application) newAudioEngine(name string) ports.AudioEngine {
	engineLogger := a.logger.With(slog.String("engine", name))
	if name == config.AudioMock {
		return mock.NewEngine(engineLogger)
	}
	return beep.NewEngine(engineLogger)
}

// openSettings creates the repository selected by the settings backend.
func (a *Application) openSettings(cfg *config.Config, injected fyne.App) error {
	switch cfg.Settings.Backend {
	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.Settings.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open settings database: %w", err)
		}
		a.settingsRepo = repo
		a.closeSettings = repo.Close
	case config.BackendFyne:
		a.fyneApp = injected
		if a.fyneApp == nil {
			a.fyneApp = fyneapp.NewWithID(cfg.AppID)
		}
		a.settingsRepo = memory.NewSettingsRepository(a.fyneApp.Preferences())
	default:
		return fmt.Errorf("settings backend %q: %w", cfg.Settings.Backend, domain.ErrUnknownSettingsBackend)
	}

	a.logger.Debug("settings repository ready", slog.String("backend", cfg.Settings.Backend))
	return nil
}

// Start begins indexing the library and, if a location provider was
// given, tracking the location until Shutdown. The mock engine starts
// playing in real time.
func (a *Application) Start() error {
	if err := a.libraryService.StartIndexing(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancelRun = cancel

	if a.clock != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.clock.RunClock(ctx, clockInterval)
		}()
	}

	if a.tracker != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.tracker.Run(ctx); err != nil {
				a.logger.Warn("location tracking ended", slog.Any("error", err))
			}
		}()
	}

	a.logger.Info("CarPlayer started")
	return nil
}

// WaitUntilIndexed blocks until the library index is ready or ctx is done.
func (a *Application) WaitUntilIndexed(ctx context.Context) error {
	return a.libraryService.WaitUntilIndexed(ctx)
}

// PlayGroup selects every album of the group registered under shortName,
// builds the queue when the selection changed and starts playback.
// Groups with several albums are shuffled. It returns the selection
// state and the queued tracks in album order.
func (a *Application) PlayGroup(shortName string) (domain.SelectionState, []domain.Track, error) {
	idx := a.libraryService.Index()
	if !idx.IsBuilt() {
		return domain.SelectionUnknown, nil, domain.ErrNotInitialized
	}

	key, ok := idx.LookupGroup(shortName)
	if !ok {
		return domain.SelectionUnknown, nil, fmt.Errorf("%q: %w", shortName, domain.ErrGroupNotFound)
	}

	idx.SetCurrentGroup(key)
	albumIDs := idx.AlbumIDsForCurrentGroup()
	if len(albumIDs) == 0 {
		return domain.SelectionUnknown, nil, fmt.Errorf("%q has no albums: %w", shortName, domain.ErrQueueEmpty)
	}

	state := idx.SetSelection(key, albumIDs, idx.MultiAlbumPlaybackMakesSense(key))

	// An unchanged selection keeps the queue and the position in it.
	var tracks []domain.Track
	if state == domain.SelectionChanged || !idx.CurrentTrackCountKnown() {
		tracks = idx.BuildQueueForCurrentSelection()
	} else {
		tracks = idx.CurrentPlaylist()
	}
	if len(tracks) == 0 {
		return state, nil, fmt.Errorf("%q has no playable tracks: %w", shortName, domain.ErrQueueEmpty)
	}

	idx.PlayMusic()
	return state, tracks, nil
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Library returns the library service.
func (a *Application) Library() *service.LibraryService {
	return a.libraryService
}

// Settings returns the settings service.
func (a *Application) Settings() *service.SettingsService {
	return a.settingsService
}

// Player returns the playback engine.
func (a *Application) Player() *queue.Player {
	return a.player
}

// Tracker returns the location tracker, nil without a location provider.
func (a *Application) Tracker() *location.Tracker {
	return a.tracker
}

// ScanStats returns the statistics of the library scan. They are zero
// when the source was injected.
func (a *Application) ScanStats() filesystem.Stats {
	return a.scanStats
}

// Shutdown gracefully shuts down the application. It is safe to call
// more than once.
func (a *Application) Shutdown() {
	a.shutdownOnce.Do(a.shutdown)
}

func (a *Application) shutdown() {
	a.logger.Info("shutting down application")

	if a.cancelRun != nil {
		a.cancelRun()
	}
	a.wg.Wait()

	// Shutdown services (in reverse order of creation)
	if a.libraryService != nil {
		if err := a.libraryService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown library service", slog.Any("error", err))
		}
	}

	if a.player != nil {
		if err := a.player.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown player", slog.Any("error", err))
		}
	}

	if a.closeSettings != nil {
		if err := a.closeSettings(); err != nil {
			a.logger.Warn("failed to close settings repository", slog.Any("error", err))
		}
	}

	// Shutdown audio engine
	if a.audioEngine != nil {
		if err := a.audioEngine.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown audio engine", slog.Any("error", err))
		}
	}

	if a.eventBus != nil {
		_ = a.eventBus.Close()
	}

	a.logger.Info("application shutdown complete")
}
