// Package mock provides an in-memory AudioEngine.
// The queue player runs on it in tests and, driven by RunClock, in
// headless mode where there is no sound output.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// DefaultDuration is the simulated length of a loaded file whose length
// was not configured with SetDuration.
const DefaultDuration = 3 * time.Minute

// Engine simulates audio playback in memory without producing sound.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger

	initialized bool
	device      int
	frequency   int

	tracks     map[domain.TrackHandle]*mockTrack
	durations  map[string]time.Duration
	nextHandle domain.TrackHandle
	mu         sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failLoad       bool
	failPlay       bool
}

// mockTrack represents a loaded file in the mock engine.
type mockTrack struct {
	location string
	duration time.Duration
	position time.Duration
	status   domain.PlaybackStatus
}

// NewEngine creates a new mock audio engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		logger:     logger.With(slog.String("component", "mock-audio")),
		tracks:     make(map[domain.TrackHandle]*mockTrack),
		durations:  make(map[string]time.Duration),
		nextHandle: 1,
	}
}

// SetDuration configures the simulated length of files loaded from location.
func (m *Engine) SetDuration(location string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[location] = d
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailLoad configures the mock to fail loading files (for testing).
func (m *Engine) SetFailLoad(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLoad = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// Initialize initializes the mock audio engine.
func (m *Engine) Initialize(device int, frequency int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", -1, "mock initialization failed", nil)
	}

	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	m.device = device
	m.frequency = frequency

	m.logger.Debug("mock audio engine initialized",
		slog.Int("device", device),
		slog.Int("frequency", frequency))

	return nil
}

// Shutdown shuts down the mock audio engine and drops every loaded file.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.tracks = make(map[domain.TrackHandle]*mockTrack)

	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Load loads an audio file and returns a handle.
func (m *Engine) Load(location string) (domain.TrackHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}

	if m.failLoad {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", location, -1, "mock load failed", nil)
	}

	if location == "" {
		return domain.InvalidTrackHandle, domain.ErrInvalidFilePath
	}

	duration, ok := m.durations[location]
	if !ok {
		duration = DefaultDuration
	}

	handle := m.nextHandle
	m.nextHandle++
	m.tracks[handle] = &mockTrack{
		location: location,
		duration: duration,
		status:   domain.StatusStopped,
	}

	return handle, nil
}

// Unload unloads a previously loaded file.
func (m *Engine) Unload(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.track(handle); err != nil {
		return err
	}

	delete(m.tracks, handle)
	return nil
}

// Play starts or resumes playback.
func (m *Engine) Play(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized && m.failPlay {
		return domain.ErrPlaybackFailed
	}

	track, err := m.track(handle)
	if err != nil {
		return err
	}

	// A stopped file starts over
	if track.status == domain.StatusStopped {
		track.position = 0
	}

	track.status = domain.StatusPlaying
	return nil
}

// Pause pauses playback.
func (m *Engine) Pause(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return err
	}

	if track.status == domain.StatusPlaying {
		track.status = domain.StatusPaused
	}

	return nil
}

// Stop stops playback and unloads the file.
func (m *Engine) Stop(handle domain.TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.track(handle); err != nil {
		return err
	}

	delete(m.tracks, handle)
	return nil
}

// Status returns the playback status.
func (m *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.track(handle)
	if err != nil {
		return domain.StatusStopped, err
	}
	return track.status, nil
}

// Position returns the current playback position.
func (m *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	return track.position, nil
}

// Duration returns the total length of the file.
func (m *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	track, err := m.track(handle)
	if err != nil {
		return 0, err
	}
	return track.duration, nil
}

// Seek sets the playback position.
func (m *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return err
	}

	if position < 0 || position > track.duration {
		return domain.ErrInvalidPosition
	}

	track.position = position
	return nil
}

// track looks up a loaded file. Callers hold mu.
func (m *Engine) track(handle domain.TrackHandle) (*mockTrack, error) {
	if !m.initialized {
		return nil, domain.ErrNotInitialized
	}
	track, exists := m.tracks[handle]
	if !exists {
		return nil, domain.ErrInvalidTrackHandle
	}
	return track, nil
}

// LoadedTracks returns the number of currently loaded files (for testing).
func (m *Engine) LoadedTracks() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tracks)
}

// Location returns the location a handle was loaded from (for testing).
func (m *Engine) Location(handle domain.TrackHandle) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	track, ok := m.tracks[handle]
	if !ok {
		return "", false
	}
	return track.location, true
}

// SimulateProgress advances a playing file by delta. A file that reaches
// its end stops, like a real stream does.
func (m *Engine) SimulateProgress(handle domain.TrackHandle, delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	track, err := m.track(handle)
	if err != nil {
		return err
	}

	if track.status != domain.StatusPlaying {
		return fmt.Errorf("track %d is not playing", handle)
	}

	track.position += delta
	if track.position >= track.duration {
		track.position = track.duration
		track.status = domain.StatusStopped
	}

	return nil
}

// Advance advances every playing file by delta, as wall-clock playback would.
func (m *Engine) Advance(delta time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, track := range m.tracks {
		if track.status != domain.StatusPlaying {
			continue
		}
		track.position += delta
		if track.position >= track.duration {
			track.position = track.duration
			track.status = domain.StatusStopped
		}
	}
}

// RunClock advances playing files by the wall-clock time that passes,
// checking every interval, until ctx is done. It turns the engine into a
// silent real-time player for headless use.
func (m *Engine) RunClock(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Advance(now.Sub(last))
			last = now
		}
	}
}

// Verify that Engine implements the AudioEngine interface
var _ ports.AudioEngine = (*Engine)(nil)
