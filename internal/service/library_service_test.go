package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/carplayer/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/playback/queue"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/source/memory"
	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/library"
	"github.com/tejashwikalptaru/carplayer/internal/logger"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
	"github.com/tejashwikalptaru/carplayer/internal/testutil"
)

// eventLog records every event published on the bus.
type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func (l *eventLog) handle(event domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *eventLog) ofType(eventType domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range l.all() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// gatedSource holds the index build inside Tracks until the gate is
// closed and counts how often the source is enumerated.
type gatedSource struct {
	*memory.Source
	gate  chan struct{}
	calls atomic.Int32
}

func (s *gatedSource) Tracks() []domain.Track {
	s.calls.Add(1)
	<-s.gate
	return s.Source.Tracks()
}

func song(id, artist, albumID, album, genre string, number int) domain.Track {
	return domain.Track{
		ID:          domain.TrackID(id),
		Title:       "Song " + id,
		AlbumID:     domain.AlbumID(albumID),
		AlbumTitle:  album,
		Artist:      artist,
		AlbumArtist: artist,
		Genre:       genre,
		MediaType:   domain.MediaTypeMusic,
		Duration:    3 * time.Minute,
		TrackNumber: number,
		Location:    "/music/" + id + ".mp3",
	}
}

func testLibrary() *memory.Source {
	src := memory.NewSource()
	src.AddTracks(
		song("t1", "Coldplay", "A1", "Parachutes", "Rock", 1),
		song("t2", "Coldplay", "A1", "Parachutes", "Rock", 2),
		song("t3", "Coldplay", "A2", "X&Y", "Rock", 1),
		song("b1", "The Beatles", "B1", "Abbey Road", "", 1),
		song("b2", "The Beatles", "B1", "Abbey Road", "", 2),
		song("n1", "Nena", "N1", "99 Luftballons", "", 1),
	)
	src.AddPlaylist(domain.Playlist{ID: "P1", Name: "Road Trip"}, "t1", "b1")
	return src
}

type libraryFixture struct {
	service *LibraryService
	player  *queue.Player
	events  *eventLog
}

func newLibraryFixture(t *testing.T, source ports.TrackSource) *libraryFixture {
	t.Helper()
	// Cleanups run last-in first-out: the leak check runs after shutdown.
	t.Cleanup(func() { testutil.VerifyNoLeaks(t) })

	audio := mock.NewEngine(nil)
	require.NoError(t, audio.Initialize(-1, 44100))

	bus := eventbus.NewSyncEventBus(nil)
	events := &eventLog{}
	bus.SubscribeAll(events.handle)

	player := queue.NewPlayer(logger.NewTestLogger(), audio, bus, queue.WithTickInterval(time.Hour))
	service := NewLibraryService(logger.NewTestLogger(), source, player, bus, library.WithPlaylistBlacklist(nil))

	t.Cleanup(func() {
		require.NoError(t, service.Shutdown())
		require.NoError(t, player.Shutdown())
		_ = bus.Close()
	})

	return &libraryFixture{service: service, player: player, events: events}
}

func waitIndexed(t *testing.T, s *LibraryService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.WaitUntilIndexed(ctx))
}

func TestLibraryService_Indexing(t *testing.T) {
	f := newLibraryFixture(t, testLibrary())

	assert.False(t, f.service.IsIndexed())
	require.NoError(t, f.service.StartIndexing())
	waitIndexed(t, f.service)
	require.NoError(t, f.service.Shutdown())

	assert.False(t, f.service.IsIndexing())
	assert.True(t, f.service.IsIndexed())
	assert.Equal(t, 1.0, f.service.Progress())

	summary, err := f.service.Summary()
	require.NoError(t, err)
	// Beatles, Coldplay, Genre:Rock, 1ers, Playlists
	assert.Equal(t, 5, summary.Groups)
	assert.Equal(t, 5, summary.Albums)
	assert.Equal(t, 6, summary.Tracks)

	events := f.events.all()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventIndexStarted, events[0].Type())

	completed := f.events.ofType(domain.EventIndexCompleted)
	require.Len(t, completed, 1)
	done := completed[0].(domain.IndexCompletedEvent)
	assert.NoError(t, done.Err)
	assert.Equal(t, summary, done.Summary)
}

func TestLibraryService_ProgressIsThrottled(t *testing.T) {
	f := newLibraryFixture(t, testLibrary())

	require.NoError(t, f.service.StartIndexing())
	waitIndexed(t, f.service)
	require.NoError(t, f.service.Shutdown())

	progress := f.events.ofType(domain.EventIndexProgress)
	require.NotEmpty(t, progress)

	last := -1
	for _, e := range progress {
		p := e.(domain.IndexProgressEvent).Progress
		assert.Greater(t, p.Percentage(), last, "one event per whole percent")
		assert.Equal(t, 6, p.TracksTotal)
		last = p.Percentage()
	}
	assert.Equal(t, 100, last)
}

func TestLibraryService_StartIndexingOnce(t *testing.T) {
	src := &gatedSource{Source: testLibrary(), gate: make(chan struct{})}
	f := newLibraryFixture(t, src)

	require.NoError(t, f.service.StartIndexing())
	assert.True(t, f.service.IsIndexing())
	assert.ErrorIs(t, f.service.StartIndexing(), domain.ErrIndexingInProgress)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.service.WaitUntilIndexed(ctx), context.Canceled)

	close(src.gate)
	waitIndexed(t, f.service)

	assert.ErrorIs(t, f.service.StartIndexing(), domain.ErrIndexAlreadyBuilt)
}

func TestLibraryService_EnumeratesSourceOnce(t *testing.T) {
	src := &gatedSource{Source: testLibrary(), gate: make(chan struct{})}
	close(src.gate)
	f := newLibraryFixture(t, src)

	require.NoError(t, f.service.StartIndexing())
	waitIndexed(t, f.service)
	require.NoError(t, f.service.Shutdown())

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 6, f.service.Index().TracksTotal())
}

func TestLibraryService_WaitWithoutStart(t *testing.T) {
	f := newLibraryFixture(t, testLibrary())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.service.WaitUntilIndexed(ctx), context.DeadlineExceeded)
	assert.False(t, f.service.IsIndexing())
}

func TestLibraryService_SubscribeNowPlaying(t *testing.T) {
	f := newLibraryFixture(t, testLibrary())

	require.NoError(t, f.service.StartIndexing())
	waitIndexed(t, f.service)

	var mu sync.Mutex
	var seen []domain.TrackID
	id := f.service.SubscribeNowPlaying(func(e domain.NowPlayingChangedEvent) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Track.ID)
	})

	idx := f.service.Index()
	coldplay := idx.Group("Coldplay")
	state := idx.SetSelection(coldplay, idx.AlbumIDs(coldplay), false)
	assert.Equal(t, domain.SelectionChanged, state)

	queued := idx.BuildQueueForCurrentSelection()
	require.Len(t, queued, 3)
	require.NoError(t, f.player.SkipToNext())

	f.service.Unsubscribe(id)
	require.NoError(t, f.player.SkipToNext())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.TrackID{"t1", "t2"}, seen)
}
