package library

import (
	"log/slog"
	"slices"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// SetCurrentGroup makes a group the current one without touching the
// album selection.
func (idx *Index) SetCurrentGroup(key domain.GroupKey) {
	idx.mustGroup("SetCurrentGroup", key)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.currentGroup = &key
}

// CurrentGroup returns the current group. It panics if none was set.
func (idx *Index) CurrentGroup() domain.GroupKey {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.currentGroup == nil {
		panic(domain.NewContractViolation("CurrentGroup", "no group selected"))
	}
	return *idx.currentGroup
}

// CurrentGroupIsCompilation reports whether the current group is the
// compilation group.
func (idx *Index) CurrentGroupIsCompilation() bool {
	return idx.CurrentGroup().Kind == domain.GroupCompilation
}

// AlbumIDsForCurrentGroup returns the albums of the current group.
func (idx *Index) AlbumIDsForCurrentGroup() []domain.AlbumID {
	return idx.AlbumIDs(idx.CurrentGroup())
}

// SetSelection records the user's choice of group, albums and shuffle
// and returns whether it differs from what is currently playing. The
// first matching rule decides:
//
//   - no selection was made before: changed
//   - the shuffle request differs from the engine's live shuffle mode: changed
//   - there is no current group, or no current albums: changed
//   - the number of albums differs: changed
//   - an album is not among the current albums: changed
//   - otherwise: unchanged
//
// Album order is ignored and so is the group: the same albums chosen
// under another group count as unchanged. Afterwards the engine's
// shuffle mode is set to match the request.
func (idx *Index) SetSelection(key domain.GroupKey, albumIDs []domain.AlbumID, shuffle bool) domain.SelectionState {
	idx.mustBeBuilt("SetSelection")

	liveShuffle := idx.engine.ShuffleMode()

	idx.mu.Lock()
	state := idx.compareSelection(albumIDs, domain.ShuffleModeFor(shuffle), liveShuffle)
	idx.selection = state
	idx.currentGroup = &key
	idx.currentAlbumIDs = slices.Clone(albumIDs)
	idx.shuffleRequested = shuffle
	idx.mu.Unlock()

	idx.engine.SetShuffleMode(domain.ShuffleModeFor(shuffle))

	idx.logger.Debug("selection set",
		slog.String("group", key.String()),
		slog.Int("albums", len(albumIDs)),
		slog.Bool("shuffle", shuffle),
		slog.String("state", state.String()))

	return state
}

// compareSelection applies the selection rules. Callers hold mu.
func (idx *Index) compareSelection(albumIDs []domain.AlbumID, requested, live domain.ShuffleMode) domain.SelectionState {
	switch {
	case idx.selection == domain.SelectionUnknown:
		return domain.SelectionChanged
	case requested != live:
		return domain.SelectionChanged
	case idx.currentGroup == nil || len(idx.currentAlbumIDs) == 0:
		return domain.SelectionChanged
	case len(albumIDs) != len(idx.currentAlbumIDs):
		return domain.SelectionChanged
	}

	for _, id := range albumIDs {
		if !slices.Contains(idx.currentAlbumIDs, id) {
			return domain.SelectionChanged
		}
	}
	return domain.SelectionUnchanged
}

// SelectionState returns the result of the last SetSelection call.
func (idx *Index) SelectionState() domain.SelectionState {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.selection
}

// SelectionChanged reports whether the last selection differs from what
// was playing. It panics if no selection was made yet.
func (idx *Index) SelectionChanged() bool {
	state := idx.SelectionState()
	if state == domain.SelectionUnknown {
		panic(domain.NewContractViolation("SelectionChanged", "no selection made yet"))
	}
	return state == domain.SelectionChanged
}

// ShuffleRequested returns the shuffle flag of the last selection.
func (idx *Index) ShuffleRequested() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.shuffleRequested
}

// CurrentAlbumIDs returns the albums of the last selection.
func (idx *Index) CurrentAlbumIDs() []domain.AlbumID {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.currentAlbumIDs == nil {
		panic(domain.NewContractViolation("CurrentAlbumIDs", "no albums selected"))
	}
	return slices.Clone(idx.currentAlbumIDs)
}

// BuildPlaybackQueue concatenates the playable tracks of the given albums
// in order and hands the result to the playback engine as its new queue.
// Albums of the Playlists group are queried as playlists, all others as
// albums; each keeps the source's natural order for its query kind.
//
// An album for which the source returns no tracks at all means the
// source and the index disagree, and panics.
func (idx *Index) BuildPlaybackQueue(key domain.GroupKey, albumIDs []domain.AlbumID) []domain.Track {
	idx.mustGroup("BuildPlaybackQueue", key)

	queue := make([]domain.Track, 0)
	for _, id := range albumIDs {
		var members []domain.Track
		if key.Kind == domain.GroupPlaylists {
			members = idx.source.PlaylistTracks(id)
		} else {
			members = idx.source.AlbumTracks(id)
		}
		if len(members) == 0 {
			panic(domain.NewContractViolation("BuildPlaybackQueue", "album %q of group %q yields no tracks", id, key.String()))
		}

		for _, track := range members {
			if track.IsPlayable() {
				queue = append(queue, track)
			}
		}
	}

	idx.mu.Lock()
	idx.currentPlaylist = queue
	idx.hasPlaylist = true
	idx.currentTrackCount = len(queue)
	idx.mu.Unlock()

	if err := idx.engine.SetQueue(slices.Clone(queue)); err != nil {
		idx.logger.Warn("failed to set playback queue",
			slog.String("group", key.String()),
			slog.Int("tracks", len(queue)),
			slog.Any("error", err))
	}

	idx.logger.Debug("playback queue built",
		slog.String("group", key.String()),
		slog.Int("albums", len(albumIDs)),
		slog.Int("tracks", len(queue)))

	return slices.Clone(queue)
}

// BuildQueueForCurrentSelection builds the queue from the current group
// and the current album selection.
func (idx *Index) BuildQueueForCurrentSelection() []domain.Track {
	return idx.BuildPlaybackQueue(idx.CurrentGroup(), idx.CurrentAlbumIDs())
}

// BuildQueueForCurrentGroup builds the queue from the given albums of
// the current group.
func (idx *Index) BuildQueueForCurrentGroup(albumIDs []domain.AlbumID) []domain.Track {
	return idx.BuildPlaybackQueue(idx.CurrentGroup(), albumIDs)
}

// CurrentPlaylist returns the last built queue. It panics if no queue
// was built yet.
func (idx *Index) CurrentPlaylist() []domain.Track {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.hasPlaylist {
		panic(domain.NewContractViolation("CurrentPlaylist", "no playback queue built yet"))
	}
	return slices.Clone(idx.currentPlaylist)
}

// CurrentTrackCount returns the length of the last built queue. It
// panics while the count is unknown.
func (idx *Index) CurrentTrackCount() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.currentTrackCount < 0 {
		panic(domain.NewContractViolation("CurrentTrackCount", "track count unknown"))
	}
	return idx.currentTrackCount
}

// CurrentTrackCountKnown reports whether CurrentTrackCount may be called.
func (idx *Index) CurrentTrackCountKnown() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.currentTrackCount >= 0
}

// ResetCurrentTrackCount forgets the track count until the next queue is built.
func (idx *Index) ResetCurrentTrackCount() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.currentTrackCount = -1
}
