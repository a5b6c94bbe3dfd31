package library

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/carplayer/internal/adapter/source/memory"
	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/logger"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// fakeEngine is a scripted playback engine recording what the index asks of it.
type fakeEngine struct {
	mu sync.Mutex

	queue    []domain.Track
	current  int
	playing  bool
	shuffle  domain.ShuffleMode
	repeat   domain.RepeatMode
	position time.Duration

	setQueueCalls int
	playCalls     int
	pauseCalls    int
	skips         []domain.SkipDirection
	failSetQueue  error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{current: -1}
}

func (e *fakeEngine) SetQueue(tracks []domain.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setQueueCalls++
	if e.failSetQueue != nil {
		return e.failSetQueue
	}
	e.queue = tracks
	e.current = -1
	if len(tracks) > 0 {
		e.current = 0
	}
	return nil
}

func (e *fakeEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playCalls++
	e.playing = true
	return nil
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseCalls++
	e.playing = false
	return nil
}

func (e *fakeEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *fakeEngine) ShuffleMode() domain.ShuffleMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuffle
}

func (e *fakeEngine) SetShuffleMode(mode domain.ShuffleMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shuffle = mode
}

func (e *fakeEngine) RepeatMode() domain.RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repeat
}

func (e *fakeEngine) SetRepeatMode(mode domain.RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = mode
}

func (e *fakeEngine) NowPlaying() (domain.Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current < 0 || e.current >= len(e.queue) {
		return domain.Track{}, false
	}
	return e.queue[e.current], true
}

func (e *fakeEngine) IndexOfNowPlaying() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *fakeEngine) SetNowPlaying(id domain.TrackID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, track := range e.queue {
		if track.ID == id {
			e.current = i
			e.position = 0
			return nil
		}
	}
	return domain.ErrTrackNotFound
}

func (e *fakeEngine) CurrentPlaybackTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *fakeEngine) SetCurrentPlaybackTime(position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
	return nil
}

func (e *fakeEngine) SkipToNext() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skips = append(e.skips, domain.SkipNext)
	if e.current+1 >= len(e.queue) {
		return domain.ErrEndOfQueue
	}
	e.current++
	return nil
}

func (e *fakeEngine) SkipToPrevious() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skips = append(e.skips, domain.SkipPrevious)
	if e.current <= 0 {
		return domain.ErrStartOfQueue
	}
	e.current--
	return nil
}

var _ ports.PlaybackEngine = (*fakeEngine)(nil)

var (
	artParachutes = &domain.Artwork{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0x01}}
	artXY         = &domain.Artwork{MIMEType: "image/png", Data: []byte{0x89, 0x50, 0x02}}
)

func music(id, albumArtist string, albumID, albumTitle string, number int) domain.Track {
	return domain.Track{
		ID:          domain.TrackID(id),
		Title:       "Song " + id,
		AlbumID:     domain.AlbumID(albumID),
		AlbumTitle:  albumTitle,
		Artist:      albumArtist,
		AlbumArtist: albumArtist,
		MediaType:   domain.MediaTypeMusic,
		Duration:    3 * time.Minute,
		DiscNumber:  1,
		TrackNumber: number,
	}
}

func withGenre(t domain.Track, genre string) domain.Track {
	t.Genre = genre
	return t
}

func withArtwork(t domain.Track, art *domain.Artwork) domain.Track {
	t.Artwork = art
	return t
}

func compilation(t domain.Track) domain.Track {
	t.IsCompilation = true
	return t
}

// fixtureSource is a small library exercising every classification path.
//
//	Coldplay      A1 "Parachutes" (3, Rock), A2 "X&Y" (2 playable + 1 cloud-only, Rock)
//	The Beatles   B1 "Abbey Road" (2, Pop)
//	Compilations  C1 "Bravo Hits" (2, one Pop)
//	Die Ärzte     D1 "Jazz ist anders" (1)       -> 1ers
//	Nena          N1 "99 Luftballons" (1, Pop)   -> 1ers
//	unplayable    podcast, cloud-only album, missing album title
//	playlists     Road Trip (t1, t4, podcast), Einkäufe (blacklisted), Chill (b1)
func fixtureSource() *memory.Source {
	src := memory.NewSource()

	cloud := withGenre(music("t6", "Coldplay", "A2", "X&Y", 3), "Rock")
	cloud.IsCloudOnly = true

	podcast := music("p1", "Podcaster", "PC", "Talk", 1)
	podcast.MediaType = domain.MediaTypePodcast

	ghost := music("g1", "Coldplay", "A3", "Ghost Stories", 1)
	ghost.IsCloudOnly = true

	src.AddTracks(
		withArtwork(withGenre(music("t1", "Coldplay", "A1", "Parachutes", 1), "Rock"), artParachutes),
		withGenre(music("t3", "Coldplay", "A1", "Parachutes", 3), "Rock"),
		withGenre(music("t2", "Coldplay", "A1", "Parachutes", 2), "Rock"),
		withArtwork(withGenre(music("t4", "Coldplay", "A2", "X&Y", 1), "Rock"), artXY),
		withGenre(music("t5", "Coldplay", "A2", "X&Y", 2), "Rock"),
		cloud,
		withGenre(music("b1", "The Beatles", "B1", "Abbey Road", 1), "Pop"),
		withGenre(music("b2", "The Beatles", "B1", "Abbey Road", 2), "Pop"),
		compilation(withGenre(music("c1", "Various", "C1", "Bravo Hits", 1), "Pop")),
		compilation(music("c2", "Other Various", "C1", "Bravo Hits", 2)),
		music("d1", "Die Ärzte", "D1", "Jazz ist anders", 1),
		withGenre(music("n1", "Nena", "N1", "99 Luftballons", 1), "Pop"),
		podcast,
		ghost,
		music("e1", "Nobody", "E1", "", 1),
	)

	src.AddPlaylist(domain.Playlist{ID: "P1", Name: "Road Trip"}, "t1", "t4", "p1")
	src.AddPlaylist(domain.Playlist{ID: "PX", Name: "Einkäufe"}, "t1")
	src.AddPlaylist(domain.Playlist{ID: "P2", Name: "Chill"}, "b1")

	return src
}

var (
	coldplay = domain.ArtistGroup("Coldplay")
	beatles  = domain.ArtistGroup("The Beatles")
	rock     = domain.GenreGroup("Rock")
	pop      = domain.GenreGroup("Pop")
)

func newTestIndex(src ports.TrackSource, opts ...Option) (*Index, *fakeEngine) {
	engine := newFakeEngine()
	return New(logger.NewTestLogger(), src, engine, opts...), engine
}

func newBuiltIndex(t *testing.T, src ports.TrackSource, opts ...Option) (*Index, *fakeEngine) {
	t.Helper()
	idx, engine := newTestIndex(src, opts...)
	require.NoError(t, idx.Build())
	return idx, engine
}

// assertContractViolation asserts that fn panics with a *domain.ContractViolation.
func assertContractViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a contract violation panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		var violation *domain.ContractViolation
		assert.True(t, errors.As(err, &violation), "panic value %v is not a contract violation", err)
	}()
	fn()
}

func trackIDs(tracks []domain.Track) []domain.TrackID {
	ids := make([]domain.TrackID, 0, len(tracks))
	for _, track := range tracks {
		ids = append(ids, track.ID)
	}
	return ids
}
