package library

import (
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// IsPlaying reports whether the index believes the engine is playing.
// The flag follows the transport calls made through the index, because
// engines do not always report their playback state reliably.
func (idx *Index) IsPlaying() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.playing
}

// PlayMusic starts playback.
func (idx *Index) PlayMusic() {
	if err := idx.engine.Play(); err != nil {
		idx.logger.Warn("failed to start playback", slog.Any("error", err))
	}
	idx.setPlaying(true)
}

// PauseMusic pauses playback.
func (idx *Index) PauseMusic() {
	if err := idx.engine.Pause(); err != nil {
		idx.logger.Warn("failed to pause playback", slog.Any("error", err))
	}
	idx.setPlaying(false)
}

// TogglePlaying pauses when playing and plays when paused. It returns
// the new playing state.
func (idx *Index) TogglePlaying() bool {
	if idx.IsPlaying() {
		idx.PauseMusic()
		return false
	}
	idx.PlayMusic()
	return true
}

func (idx *Index) setPlaying(playing bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.playing = playing
}

// SetNowPlaying switches to a queued track, resuming playback if it was
// playing before.
func (idx *Index) SetNowPlaying(track domain.Track) {
	resume := idx.IsPlaying()
	if resume {
		idx.PauseMusic()
	}

	if err := idx.engine.SetNowPlaying(track.ID); err != nil {
		idx.logger.Warn("failed to switch track",
			slog.String("track_id", string(track.ID)),
			slog.Any("error", err))
	}

	if resume {
		idx.PlayMusic()
	}
}

// NowPlayingItemExists reports whether the engine has a now playing item.
func (idx *Index) NowPlayingItemExists() bool {
	_, ok := idx.engine.NowPlaying()
	return ok
}

// NowPlayingItem returns the now playing item. Guard calls with
// NowPlayingItemExists; it panics when there is none.
func (idx *Index) NowPlayingItem() domain.Track {
	track, ok := idx.engine.NowPlaying()
	if !ok {
		panic(domain.NewContractViolation("NowPlayingItem", "no now playing item"))
	}
	return track
}

// IndexOfNowPlayingItem returns the 1-based queue position of the now
// playing item (0 when there is none).
func (idx *Index) IndexOfNowPlayingItem() int {
	return idx.engine.IndexOfNowPlaying() + 1
}

// DurationOfCurrentTrack returns the duration of the now playing item.
func (idx *Index) DurationOfCurrentTrack() time.Duration {
	return idx.NowPlayingItem().Duration
}

// CurrentPlaybackTime returns the position within the now playing item.
func (idx *Index) CurrentPlaybackTime() time.Duration {
	return idx.engine.CurrentPlaybackTime()
}

// SetCurrentTrackPosition seeks to a fraction of the now playing item;
// the fraction is clamped to [0, 1].
func (idx *Index) SetCurrentTrackPosition(fraction float64) {
	fraction = min(max(fraction, 0), 1)
	position := time.Duration(fraction * float64(idx.DurationOfCurrentTrack()))

	if err := idx.engine.SetCurrentPlaybackTime(position); err != nil {
		idx.logger.Warn("failed to seek",
			slog.Duration("position", position),
			slog.Any("error", err))
	}
}

// ProgressOfCurrentTrack returns the playback position as a fraction of
// the now playing item's duration (0 for tracks of unknown length).
func (idx *Index) ProgressOfCurrentTrack() float64 {
	duration := idx.DurationOfCurrentTrack()
	if duration <= 0 {
		return 0
	}
	return min(float64(idx.CurrentPlaybackTime())/float64(duration), 1)
}

// SkipTo skips in the given direction and remembers the direction.
func (idx *Index) SkipTo(direction domain.SkipDirection) {
	if direction == domain.SkipPrevious {
		idx.SkipToPrevious()
		return
	}
	idx.SkipToNext()
}

// SkipToNext skips to the following item.
func (idx *Index) SkipToNext() {
	idx.setSkipDirection(domain.SkipNext)
	if err := idx.engine.SkipToNext(); err != nil {
		idx.logger.Warn("failed to skip to next item", slog.Any("error", err))
	}
}

// SkipToPrevious skips to the preceding item.
func (idx *Index) SkipToPrevious() {
	idx.setSkipDirection(domain.SkipPrevious)
	if err := idx.engine.SkipToPrevious(); err != nil {
		idx.logger.Warn("failed to skip to previous item", slog.Any("error", err))
	}
}

func (idx *Index) setSkipDirection(direction domain.SkipDirection) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.skipDirection = direction
}

// PreviousSkippingDirection returns the direction of the last skip
// (next if there was none).
func (idx *Index) PreviousSkippingDirection() domain.SkipDirection {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.skipDirection
}

// CurrentTrackHasLyrics reports whether the now playing item has lyrics.
func (idx *Index) CurrentTrackHasLyrics() bool {
	track, ok := idx.engine.NowPlaying()
	return ok && track.HasLyrics()
}

// CurrentLyrics returns the lyrics of the now playing item, or NoLyrics.
func (idx *Index) CurrentLyrics() string {
	track, ok := idx.engine.NowPlaying()
	if !ok || !track.HasLyrics() {
		return NoLyrics
	}
	return track.Lyrics
}

// SetDirectJump marks that the presentation layer jumped straight to the
// player screen.
func (idx *Index) SetDirectJump() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.directJump = true
}

// ResetDirectJump clears the direct jump mark.
func (idx *Index) ResetDirectJump() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.directJump = false
}

// WasDirectJump reports whether the direct jump mark is set.
func (idx *Index) WasDirectJump() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.directJump
}
