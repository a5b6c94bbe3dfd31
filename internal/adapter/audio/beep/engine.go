// Package beep implements the audio engine on top of gopxl/beep and its
// speaker, the system sound output.
package beep

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/carplayer/internal/adapter/audio/decoder"
	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// bufferDuration is the speaker latency.
const bufferDuration = time.Second / 10

// Output is the sound output the engine mixes into. The beep speaker is
// the default; it is a package-level singleton.
type Output interface {
	Init(rate gobeep.SampleRate, bufferSize int) error
	Play(s ...gobeep.Streamer)
	Lock()
	Unlock()
	Clear()
	Close()
}

type speakerOutput struct{}

func (speakerOutput) Init(rate gobeep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerOutput) Play(s ...gobeep.Streamer) { speaker.Play(s...) }
func (speakerOutput) Lock()                     { speaker.Lock() }
func (speakerOutput) Unlock()                   { speaker.Unlock() }
func (speakerOutput) Clear()                    { speaker.Clear() }
func (speakerOutput) Close()                    { speaker.Close() }

// Option configures an Engine.
type Option func(*Engine)

// WithOutput replaces the speaker.
func WithOutput(out Output) Option {
	return func(e *Engine) { e.out = out }
}

// Engine plays decoded files through the output. Each loaded file is
// handed to the output on its first Play and stays there, paused or
// playing, until it ends or is stopped.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger
	out    Output

	mu          sync.Mutex
	initialized bool
	rate        gobeep.SampleRate
	streams     map[domain.TrackHandle]*stream
	nextHandle  domain.TrackHandle
}

// stream is one loaded file.
type stream struct {
	location string
	source   gobeep.StreamSeekCloser
	format   gobeep.Format
	ctrl     *gobeep.Ctrl
	queued   bool        // handed to the output
	finished atomic.Bool // set from the output goroutine
}

// NewEngine creates an engine. Initialize must be called before use.
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		logger:     logger.With(slog.String("component", "beep-audio")),
		out:        speakerOutput{},
		streams:    make(map[domain.TrackHandle]*stream),
		nextHandle: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize opens the output at frequency. beep always plays on the
// default device, so device is only logged.
func (e *Engine) Initialize(device int, frequency int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}
	if frequency <= 0 {
		return domain.NewAudioEngineError("initialize", "", -1, "sample rate must be positive", nil)
	}

	rate := gobeep.SampleRate(frequency)
	if err := e.out.Init(rate, rate.N(bufferDuration)); err != nil {
		return domain.NewAudioEngineError("initialize", "", -1, "failed to open sound output", err)
	}

	e.initialized = true
	e.rate = rate
	e.logger.Debug("audio output initialized",
		slog.Int("device", device),
		slog.Int("frequency", frequency))
	return nil
}

// Shutdown stops and closes every loaded file and closes the output.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}

	for handle, st := range e.streams {
		e.releaseLocked(handle, st)
	}
	e.out.Clear()
	e.out.Close()
	e.initialized = false
	return nil
}

// IsInitialized returns true if the output is open.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Load decodes the file at location. Files at another sample rate are
// resampled to the output rate.
func (e *Engine) Load(location string) (domain.TrackHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.InvalidTrackHandle, domain.ErrNotInitialized
	}
	if location == "" {
		return domain.InvalidTrackHandle, domain.ErrInvalidFilePath
	}

	source, format, err := decoder.Open(location)
	if err != nil {
		return domain.InvalidTrackHandle, domain.NewAudioEngineError("load", location, -1, "failed to decode file", err)
	}

	var playing gobeep.Streamer = source
	if format.SampleRate != e.rate {
		playing = gobeep.Resample(4, format.SampleRate, e.rate, source)
	}

	handle := e.nextHandle
	e.nextHandle++
	e.streams[handle] = &stream{
		location: location,
		source:   source,
		format:   format,
		ctrl:     &gobeep.Ctrl{Streamer: playing, Paused: true},
	}
	return handle, nil
}

// Unload stops and closes a loaded file.
func (e *Engine) Unload(handle domain.TrackHandle) error {
	return e.Stop(handle)
}

// Play starts or resumes playback. A file that played to its end starts over.
func (e *Engine) Play(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.streamLocked(handle)
	if err != nil {
		return err
	}

	e.out.Lock()
	if st.finished.Load() {
		if err := st.source.Seek(0); err != nil {
			e.out.Unlock()
			return domain.NewAudioEngineError("play", st.location, int(handle), "failed to rewind", err)
		}
		st.finished.Store(false)
		st.queued = false
	}
	st.ctrl.Paused = false
	e.out.Unlock()

	if !st.queued {
		st.queued = true
		e.out.Play(gobeep.Seq(st.ctrl, gobeep.Callback(func() {
			st.finished.Store(true)
		})))
	}
	return nil
}

// Pause pauses playback; the position is preserved.
func (e *Engine) Pause(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.streamLocked(handle)
	if err != nil {
		return err
	}

	e.out.Lock()
	st.ctrl.Paused = true
	e.out.Unlock()
	return nil
}

// Stop stops playback and unloads the file.
func (e *Engine) Stop(handle domain.TrackHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.streamLocked(handle)
	if err != nil {
		return err
	}
	e.releaseLocked(handle, st)
	return nil
}

// Status reports Stopped for a file that was never played or has ended.
func (e *Engine) Status(handle domain.TrackHandle) (domain.PlaybackStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.streamLocked(handle)
	if err != nil {
		return domain.StatusStopped, err
	}

	if !st.queued || st.finished.Load() {
		return domain.StatusStopped, nil
	}

	e.out.Lock()
	paused := st.ctrl.Paused
	e.out.Unlock()
	if paused {
		return domain.StatusPaused, nil
	}
	return domain.StatusPlaying, nil
}

// Position returns the playback position within the file.
func (e *Engine) Position(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.streamLocked(handle)
	if err != nil {
		return 0, err
	}

	e.out.Lock()
	pos := st.source.Position()
	e.out.Unlock()
	return st.format.SampleRate.D(pos), nil
}

// Duration returns the length of the file.
func (e *Engine) Duration(handle domain.TrackHandle) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.streamLocked(handle)
	if err != nil {
		return 0, err
	}
	return st.format.SampleRate.D(st.source.Len()), nil
}

// Seek moves the playback position; it must be within [0, Duration].
// Seeking a file that has ended leaves it stopped until the next Play.
func (e *Engine) Seek(handle domain.TrackHandle, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.streamLocked(handle)
	if err != nil {
		return err
	}

	length := st.source.Len()
	target := st.format.SampleRate.N(position)
	if position < 0 || target > length {
		return domain.ErrInvalidPosition
	}

	e.out.Lock()
	defer e.out.Unlock()
	if err := st.source.Seek(target); err != nil {
		return domain.NewAudioEngineError("seek", st.location, int(handle), "seek failed", err)
	}
	if st.finished.Load() {
		// The output dropped the ended stream; the next Play hands it over again.
		st.finished.Store(false)
		st.queued = false
		st.ctrl.Paused = true
	}
	return nil
}

// LoadedTracks returns the number of loaded files.
func (e *Engine) LoadedTracks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.streams)
}

// releaseLocked detaches a file from the output and closes it. Callers hold mu.
func (e *Engine) releaseLocked(handle domain.TrackHandle, st *stream) {
	e.out.Lock()
	// A Ctrl without a streamer is drained by the mixer.
	st.ctrl.Streamer = nil
	e.out.Unlock()

	if err := st.source.Close(); err != nil {
		e.logger.Debug("failed to close file", slog.String("location", st.location), slog.Any("error", err))
	}
	delete(e.streams, handle)
}

// streamLocked looks up a loaded file. Callers hold mu.
func (e *Engine) streamLocked(handle domain.TrackHandle) (*stream, error) {
	if !e.initialized {
		return nil, domain.ErrNotInitialized
	}
	st, ok := e.streams[handle]
	if !ok {
		return nil, domain.ErrInvalidTrackHandle
	}
	return st, nil
}

var _ ports.AudioEngine = (*Engine)(nil)
