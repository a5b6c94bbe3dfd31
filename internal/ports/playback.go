package ports

import (
	"time"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// PlaybackEngine is the system media player the library index drives.
// Calls are fire-and-forget from the index's point of view: errors are
// reported but nothing waits for playback to actually change.
// Now-playing changes are announced on the event bus with
// domain.NowPlayingChangedEvent.
type PlaybackEngine interface {
	// SetQueue replaces the queue. Playback state is kept, the first
	// track (in play order) becomes the now playing item.
	SetQueue(tracks []domain.Track) error

	// Play starts or resumes playback of the now playing item.
	Play() error

	// Pause pauses playback.
	Pause() error

	// IsPlaying reports whether audio is currently playing.
	IsPlaying() bool

	// ShuffleMode returns the live shuffle mode.
	ShuffleMode() domain.ShuffleMode

	// SetShuffleMode changes the shuffle mode.
	SetShuffleMode(mode domain.ShuffleMode)

	// RepeatMode returns the live repeat mode.
	RepeatMode() domain.RepeatMode

	// SetRepeatMode changes the repeat mode.
	SetRepeatMode(mode domain.RepeatMode)

	// NowPlaying returns the now playing item, if any.
	NowPlaying() (domain.Track, bool)

	// IndexOfNowPlaying returns the 0-based play position of the now
	// playing item, or -1 when there is none.
	IndexOfNowPlaying() int

	// SetNowPlaying makes a queued track the now playing item.
	SetNowPlaying(id domain.TrackID) error

	// CurrentPlaybackTime returns the position within the now playing item.
	CurrentPlaybackTime() time.Duration

	// SetCurrentPlaybackTime seeks within the now playing item.
	SetCurrentPlaybackTime(position time.Duration) error

	// SkipToNext moves to the following item.
	SkipToNext() error

	// SkipToPrevious moves to the preceding item.
	SkipToPrevious() error
}
