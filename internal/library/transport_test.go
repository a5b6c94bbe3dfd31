package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/carplayer/internal/adapter/source/memory"
	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/logger"
)

func TestNew_ConfiguresEngine(t *testing.T) {
	engine := newFakeEngine()
	engine.playing = true

	idx := New(logger.NewTestLogger(), fixtureSource(), engine)

	assert.Equal(t, domain.RepeatAll, engine.RepeatMode())
	assert.True(t, idx.IsPlaying())
}

func TestTogglePlaying(t *testing.T) {
	idx, engine := newBuiltIndex(t, fixtureSource())

	assert.False(t, idx.IsPlaying())

	assert.True(t, idx.TogglePlaying())
	assert.True(t, idx.IsPlaying())
	assert.True(t, engine.IsPlaying())
	assert.Equal(t, 1, engine.playCalls)

	assert.False(t, idx.TogglePlaying())
	assert.False(t, idx.IsPlaying())
	assert.Equal(t, 1, engine.pauseCalls)
}

func TestSetNowPlaying(t *testing.T) {
	t.Run("resumes when playing", func(t *testing.T) {
		idx, engine := newBuiltIndex(t, fixtureSource())
		queue := idx.BuildPlaybackQueue(coldplay, []domain.AlbumID{"A1", "A2"})
		idx.PlayMusic()

		idx.SetNowPlaying(queue[2])

		assert.Equal(t, 1, engine.pauseCalls)
		assert.Equal(t, 2, engine.playCalls)
		assert.True(t, idx.IsPlaying())
		assert.Equal(t, 3, idx.IndexOfNowPlayingItem())
		assert.Equal(t, domain.TrackID("t3"), idx.NowPlayingItem().ID)
	})

	t.Run("stays paused when paused", func(t *testing.T) {
		idx, engine := newBuiltIndex(t, fixtureSource())
		queue := idx.BuildPlaybackQueue(coldplay, []domain.AlbumID{"A1", "A2"})

		idx.SetNowPlaying(queue[4])

		assert.Equal(t, 0, engine.pauseCalls)
		assert.Equal(t, 0, engine.playCalls)
		assert.False(t, idx.IsPlaying())
		assert.Equal(t, 5, idx.IndexOfNowPlayingItem())
	})

	t.Run("unknown track keeps the current item", func(t *testing.T) {
		idx, _ := newBuiltIndex(t, fixtureSource())
		idx.BuildPlaybackQueue(beatles, []domain.AlbumID{"B1"})

		idx.SetNowPlaying(domain.Track{ID: "nope"})

		assert.Equal(t, domain.TrackID("b1"), idx.NowPlayingItem().ID)
	})
}

func TestNowPlayingWithoutQueue(t *testing.T) {
	idx, _ := newBuiltIndex(t, fixtureSource())

	assert.False(t, idx.NowPlayingItemExists())
	assert.Equal(t, 0, idx.IndexOfNowPlayingItem())
	assert.False(t, idx.CurrentTrackHasLyrics())
	assert.Equal(t, NoLyrics, idx.CurrentLyrics())
	assertContractViolation(t, func() { idx.NowPlayingItem() })
	assertContractViolation(t, func() { idx.DurationOfCurrentTrack() })
}

func TestTrackPosition(t *testing.T) {
	idx, engine := newBuiltIndex(t, fixtureSource())
	idx.BuildPlaybackQueue(beatles, []domain.AlbumID{"B1"})

	require.True(t, idx.NowPlayingItemExists())
	assert.Equal(t, 3*time.Minute, idx.DurationOfCurrentTrack())

	tests := []struct {
		fraction float64
		want     time.Duration
	}{
		{0.5, 90 * time.Second},
		{0.25, 45 * time.Second},
		{-1, 0},
		{2, 3 * time.Minute},
	}
	for _, tt := range tests {
		idx.SetCurrentTrackPosition(tt.fraction)
		assert.Equal(t, tt.want, engine.CurrentPlaybackTime(), "fraction %v", tt.fraction)
		assert.Equal(t, tt.want, idx.CurrentPlaybackTime())
	}

	idx.SetCurrentTrackPosition(0.25)
	assert.InDelta(t, 0.25, idx.ProgressOfCurrentTrack(), 1e-9)

	require.NoError(t, engine.SetCurrentPlaybackTime(5*time.Minute))
	assert.Equal(t, 1.0, idx.ProgressOfCurrentTrack())
}

func TestProgressOfTrackWithUnknownDuration(t *testing.T) {
	src := memory.NewSource()
	track := music("1", "A", "a1", "One", 1)
	track.Duration = 0
	src.AddTracks(track, music("2", "A", "a1", "One", 2))

	idx, engine := newBuiltIndex(t, src)
	idx.BuildPlaybackQueue(domain.ArtistGroup("A"), []domain.AlbumID{"a1"})
	require.NoError(t, engine.SetCurrentPlaybackTime(10*time.Second))

	assert.Equal(t, 0.0, idx.ProgressOfCurrentTrack())
}

func TestSkipping(t *testing.T) {
	idx, engine := newBuiltIndex(t, fixtureSource())
	idx.BuildPlaybackQueue(coldplay, []domain.AlbumID{"A1"})

	assert.Equal(t, domain.SkipNext, idx.PreviousSkippingDirection())

	idx.SkipToNext()
	assert.Equal(t, 2, idx.IndexOfNowPlayingItem())
	assert.Equal(t, domain.SkipNext, idx.PreviousSkippingDirection())

	idx.SkipToPrevious()
	assert.Equal(t, 1, idx.IndexOfNowPlayingItem())
	assert.Equal(t, domain.SkipPrevious, idx.PreviousSkippingDirection())

	// At the start of the queue the engine refuses; the direction is still kept.
	idx.SkipTo(domain.SkipPrevious)
	assert.Equal(t, 1, idx.IndexOfNowPlayingItem())
	assert.Equal(t, domain.SkipPrevious, idx.PreviousSkippingDirection())

	idx.SkipTo(domain.SkipNext)
	assert.Equal(t, domain.SkipNext, idx.PreviousSkippingDirection())

	assert.Equal(t, []domain.SkipDirection{
		domain.SkipNext, domain.SkipPrevious, domain.SkipPrevious, domain.SkipNext,
	}, engine.skips)
}

func TestLyrics(t *testing.T) {
	src := memory.NewSource()
	withLyrics := music("1", "A", "a1", "One", 1)
	withLyrics.Lyrics = "la la la"
	src.AddTracks(withLyrics, music("2", "A", "a1", "One", 2))

	idx, _ := newBuiltIndex(t, src)
	idx.BuildPlaybackQueue(domain.ArtistGroup("A"), []domain.AlbumID{"a1"})

	assert.True(t, idx.CurrentTrackHasLyrics())
	assert.Equal(t, "la la la", idx.CurrentLyrics())

	idx.SkipToNext()
	assert.False(t, idx.CurrentTrackHasLyrics())
	assert.Equal(t, NoLyrics, idx.CurrentLyrics())
}

func TestDirectJump(t *testing.T) {
	idx, _ := newBuiltIndex(t, fixtureSource())

	assert.False(t, idx.WasDirectJump())
	idx.SetDirectJump()
	assert.True(t, idx.WasDirectJump())
	idx.ResetDirectJump()
	assert.False(t, idx.WasDirectJump())
}
