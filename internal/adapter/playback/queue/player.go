// Package queue implements the system playback engine as a play queue
// on top of a per-file audio engine.
package queue

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// DefaultTickInterval is how often the player checks for the natural end
// of the now playing item.
const DefaultTickInterval = 250 * time.Millisecond

// Option configures a Player.
type Option func(*Player)

// WithTickInterval sets the end-of-track polling interval.
func WithTickInterval(d time.Duration) Option {
	return func(p *Player) {
		p.interval = d
	}
}

// WithSeed makes the shuffle order reproducible.
func WithSeed(seed uint64) Option {
	return func(p *Player) {
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// Player is a play queue with shuffle and repeat. At most one file is
// loaded in the audio engine at a time: the now playing item.
//
// Events are published after the lock is released, so subscribers may
// call back into the player.
type Player struct {
	logger *slog.Logger
	audio  ports.AudioEngine
	bus    ports.EventBus

	mu       sync.Mutex
	queue    []domain.Track // natural order
	order    []int          // play order, indices into queue
	pos      int            // index into order, -1 if nothing is queued
	handle   domain.TrackHandle
	playing  bool
	shuffle  domain.ShuffleMode
	repeat   domain.RepeatMode
	rng      *rand.Rand
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewPlayer creates a player and starts its end-of-track watcher.
// Call Shutdown to stop it.
func NewPlayer(logger *slog.Logger, audio ports.AudioEngine, bus ports.EventBus, opts ...Option) *Player {
	p := &Player{
		logger:   logger.With(slog.String("component", "queue-player")),
		audio:    audio,
		bus:      bus,
		pos:      -1,
		handle:   domain.InvalidTrackHandle,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		interval: DefaultTickInterval,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(1)
	go p.watch()

	return p
}

// SetQueue replaces the queue. The first item in play order becomes the
// now playing item; playback continues if it was playing.
func (p *Player) SetQueue(tracks []domain.Track) error {
	p.mu.Lock()
	p.unloadLocked()
	p.queue = slices.Clone(tracks)
	p.order = p.playOrderLocked(-1)
	p.pos = -1
	if len(p.queue) > 0 {
		p.pos = 0
	}

	events := []domain.Event{domain.NewQueueChangedEvent(slices.Clone(p.queue))}
	err := p.enterLocked(&events)
	events = append(events, p.nowPlayingEventLocked())
	p.mu.Unlock()

	p.publish(events)
	return err
}

// Play starts or resumes playback of the now playing item.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.pos < 0 {
		p.mu.Unlock()
		return domain.ErrQueueEmpty
	}

	var events []domain.Event
	if p.handle == domain.InvalidTrackHandle {
		if err := p.loadLocked(&events); err != nil {
			p.mu.Unlock()
			p.publish(events)
			return err
		}
	}
	if err := p.audio.Play(p.handle); err != nil {
		p.mu.Unlock()
		return err
	}
	p.playing = true
	events = append(events, domain.NewPlaybackStateChangedEvent(true, p.positionLocked()))
	p.mu.Unlock()

	p.publish(events)
	return nil
}

// Pause pauses playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	if p.handle != domain.InvalidTrackHandle {
		if err := p.audio.Pause(p.handle); err != nil {
			p.mu.Unlock()
			return err
		}
	}
	p.playing = false
	event := domain.NewPlaybackStateChangedEvent(false, p.positionLocked())
	p.mu.Unlock()

	p.bus.Publish(event)
	return nil
}

// IsPlaying reports whether the player is playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// ShuffleMode returns the shuffle mode.
func (p *Player) ShuffleMode() domain.ShuffleMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shuffle
}

// SetShuffleMode changes the shuffle mode. Turning shuffle on keeps the
// now playing item and plays it first; turning it off restores the
// natural order at the now playing item.
func (p *Player) SetShuffleMode(mode domain.ShuffleMode) {
	p.mu.Lock()
	if p.shuffle == mode {
		p.mu.Unlock()
		return
	}
	p.shuffle = mode

	current := -1
	if p.pos >= 0 {
		current = p.order[p.pos]
	}
	p.order = p.playOrderLocked(current)
	if current >= 0 {
		p.pos = slices.Index(p.order, current)
	}

	events := []domain.Event{domain.NewShuffleModeChangedEvent(mode)}
	if current >= 0 {
		events = append(events, p.nowPlayingEventLocked())
	}
	p.mu.Unlock()

	p.publish(events)
}

// RepeatMode returns the repeat mode.
func (p *Player) RepeatMode() domain.RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

// SetRepeatMode changes the repeat mode.
func (p *Player) SetRepeatMode(mode domain.RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = mode
}

// NowPlaying returns the now playing item.
func (p *Player) NowPlaying() (domain.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nowPlayingLocked()
}

// IndexOfNowPlaying returns the play order position of the now playing
// item, or -1.
func (p *Player) IndexOfNowPlaying() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Queue returns the queue in play order.
func (p *Player) Queue() []domain.Track {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracks := make([]domain.Track, 0, len(p.order))
	for _, i := range p.order {
		tracks = append(tracks, p.queue[i])
	}
	return tracks
}

// SetNowPlaying jumps to a queued track.
func (p *Player) SetNowPlaying(id domain.TrackID) error {
	p.mu.Lock()
	target := slices.IndexFunc(p.order, func(i int) bool { return p.queue[i].ID == id })
	if target < 0 {
		p.mu.Unlock()
		return domain.ErrTrackNotFound
	}
	events, err := p.moveToLocked(target)
	p.mu.Unlock()

	p.publish(events)
	return err
}

// CurrentPlaybackTime returns the position within the now playing item.
func (p *Player) CurrentPlaybackTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

// SetCurrentPlaybackTime seeks within the now playing item.
func (p *Player) SetCurrentPlaybackTime(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == domain.InvalidTrackHandle {
		return domain.ErrNoTrackLoaded
	}
	return p.audio.Seek(p.handle, position)
}

// SkipToNext moves to the following item. With repeat all the queue
// wraps around; otherwise skipping past the end fails with
// domain.ErrEndOfQueue.
func (p *Player) SkipToNext() error {
	p.mu.Lock()
	next, err := p.neighbourLocked(+1)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	events, err := p.moveToLocked(next)
	p.mu.Unlock()

	p.publish(events)
	return err
}

// SkipToPrevious moves to the preceding item. With repeat all the queue
// wraps around; otherwise skipping before the start fails with
// domain.ErrStartOfQueue.
func (p *Player) SkipToPrevious() error {
	p.mu.Lock()
	prev, err := p.neighbourLocked(-1)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	events, err := p.moveToLocked(prev)
	p.mu.Unlock()

	p.publish(events)
	return err
}

// Shutdown stops the watcher and unloads the now playing item.
func (p *Player) Shutdown() error {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()
	p.playing = false
	return nil
}

// watch polls the audio engine for the natural end of the now playing item.
func (p *Player) watch() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick advances the queue when the now playing item has finished.
func (p *Player) tick() {
	p.mu.Lock()
	if !p.playing || p.handle == domain.InvalidTrackHandle {
		p.mu.Unlock()
		return
	}
	status, err := p.audio.Status(p.handle)
	if err != nil || status != domain.StatusStopped {
		p.mu.Unlock()
		return
	}

	var events []domain.Event
	switch next, nextErr := p.neighbourLocked(+1); {
	case p.repeat == domain.RepeatOne:
		events, err = p.moveToLocked(p.pos)
	case nextErr == nil:
		events, err = p.moveToLocked(next)
	default:
		p.playing = false
		events = append(events, domain.NewPlaybackStateChangedEvent(false, p.positionLocked()))
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("failed to advance queue", slog.Any("error", err))
	}
	p.publish(events)
}

// neighbourLocked returns the play order position delta steps away.
func (p *Player) neighbourLocked(delta int) (int, error) {
	if p.pos < 0 {
		return 0, domain.ErrQueueEmpty
	}
	target := p.pos + delta
	switch {
	case target >= len(p.order) && p.repeat == domain.RepeatAll:
		return 0, nil
	case target >= len(p.order):
		return 0, domain.ErrEndOfQueue
	case target < 0 && p.repeat == domain.RepeatAll:
		return len(p.order) - 1, nil
	case target < 0:
		return 0, domain.ErrStartOfQueue
	}
	return target, nil
}

// moveToLocked makes the item at play order position target the now
// playing item, keeping the playing state.
func (p *Player) moveToLocked(target int) ([]domain.Event, error) {
	p.unloadLocked()
	p.pos = target

	var events []domain.Event
	err := p.enterLocked(&events)
	events = append(events, p.nowPlayingEventLocked())
	return events, err
}

// enterLocked loads the now playing item and starts it if the player is playing.
func (p *Player) enterLocked(events *[]domain.Event) error {
	if p.pos < 0 {
		return nil
	}
	if err := p.loadLocked(events); err != nil {
		return err
	}
	if p.playing {
		if err := p.audio.Play(p.handle); err != nil {
			track, _ := p.nowPlayingLocked()
			*events = append(*events, domain.NewTrackErrorEvent(track, err))
			return err
		}
	}
	return nil
}

// loadLocked loads the now playing item into the audio engine.
func (p *Player) loadLocked(events *[]domain.Event) error {
	track, _ := p.nowPlayingLocked()
	handle, err := p.audio.Load(track.Location)
	if err != nil {
		p.logger.Debug("failed to load track",
			slog.String("track_id", string(track.ID)),
			slog.String("location", track.Location),
			slog.Any("error", err))
		*events = append(*events, domain.NewTrackErrorEvent(track, err))
		return err
	}
	p.handle = handle
	return nil
}

// unloadLocked releases the loaded file, if any.
func (p *Player) unloadLocked() {
	if p.handle == domain.InvalidTrackHandle {
		return
	}
	if err := p.audio.Stop(p.handle); err != nil {
		p.logger.Debug("failed to stop track", slog.Any("error", err))
	}
	p.handle = domain.InvalidTrackHandle
}

// playOrderLocked returns the play order for the current shuffle mode.
// A shuffled order starts with first when first >= 0.
func (p *Player) playOrderLocked(first int) []int {
	order := make([]int, len(p.queue))
	for i := range order {
		order[i] = i
	}
	if p.shuffle != domain.ShuffleSongs {
		return order
	}

	p.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	if first >= 0 {
		i := slices.Index(order, first)
		order[0], order[i] = order[i], order[0]
	}
	return order
}

func (p *Player) nowPlayingLocked() (domain.Track, bool) {
	if p.pos < 0 || p.pos >= len(p.order) {
		return domain.Track{}, false
	}
	return p.queue[p.order[p.pos]], true
}

func (p *Player) nowPlayingEventLocked() domain.Event {
	track, ok := p.nowPlayingLocked()
	return domain.NewNowPlayingChangedEvent(track, p.pos, ok)
}

func (p *Player) positionLocked() time.Duration {
	if p.handle == domain.InvalidTrackHandle {
		return 0
	}
	position, err := p.audio.Position(p.handle)
	if err != nil {
		return 0
	}
	return position
}

func (p *Player) publish(events []domain.Event) {
	for _, event := range events {
		p.bus.Publish(event)
	}
}

// Verify that Player implements the PlaybackEngine interface
var _ ports.PlaybackEngine = (*Player)(nil)
