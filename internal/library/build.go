package library

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// Checkpoints of the build progress. Each phase advances linearly
// through its share; an empty phase jumps straight to its checkpoint.
const (
	progressTracksDone     = 0.905
	progressSingletonsDone = 0.9355
	progressPlaylistsDone  = 1.0
)

// Build enumerates the track source once and derives the group model:
//
//  1. every playable track files its album under its artist (or the
//     compilation group) and, if it has a genre, under "Genre:<genre>";
//  2. artist and compilation groups owning a single track are folded
//     into the "1ers" group;
//  3. the non-blacklisted playlists become the albums of the
//     Playlists group;
//  4. the group short names are sorted for display.
//
// Build may be called only once; later calls return
// domain.ErrIndexAlreadyBuilt. Done is closed when it returns nil.
func (idx *Index) Build() error {
	if !idx.started.CompareAndSwap(false, true) {
		return domain.ErrIndexAlreadyBuilt
	}

	start := time.Now()
	tracks := idx.source.Tracks()
	idx.enumerated.Store(int64(len(tracks)))
	idx.logger.Info("building library index", slog.Int("tracks", len(tracks)))

	skipped := 0
	for i, track := range tracks {
		if track.IsPlayable() {
			idx.addTrack(track)
		} else {
			skipped++
		}
		idx.setProgress(phaseProgress(0, progressTracksDone, i+1, len(tracks)))
	}
	idx.setProgress(progressTracksDone)

	singletons := idx.extractSingletons()
	idx.setProgress(progressSingletonsDone)

	playlists := idx.addPlaylists()

	idx.registerShortNames()
	idx.built.Store(true)
	idx.setProgress(progressPlaylistsDone)
	close(idx.done)

	idx.logger.Info("library index built",
		slog.Int("groups", len(idx.groups)),
		slog.Int("albums", len(idx.albumTitles)),
		slog.Int("playable_tracks", idx.playableTracks),
		slog.Int("skipped_tracks", skipped),
		slog.Int("singletons", singletons),
		slog.Int("playlists", playlists),
		slog.Duration("elapsed", time.Since(start)))

	return nil
}

// phaseProgress scales completed/total into the span [from, to].
func phaseProgress(from, to float64, completed, total int) float64 {
	if total <= 0 {
		return to
	}
	return from + (to-from)*float64(completed)/float64(total)
}

// addTrack files one playable track. The artist side and the genre side
// share the album title table and the album track counter, so both are
// updated here together.
func (idx *Index) addTrack(track domain.Track) {
	idx.fileAlbum(track.GroupKey(), track)
	if track.Genre != "" {
		idx.fileAlbum(domain.GenreGroup(track.Genre), track)
	}
	idx.albumTrackCounts[track.AlbumID]++
	idx.playableTracks++
}

// fileAlbum adds a track to a group, creating the group on first sight
// and inserting the track's album if the group does not have it yet.
func (idx *Index) fileAlbum(key domain.GroupKey, track domain.Track) {
	g, ok := idx.groups[key]
	if !ok {
		g = &group{key: key, artwork: track.Artwork}
		idx.groups[key] = g
	}

	if !slices.Contains(g.albumIDs, track.AlbumID) {
		idx.recordTitle(track.AlbumID, track.AlbumTitle)
		idx.insertAlbum(g, track.AlbumID)
	}
	g.trackCount++
}

// recordTitle remembers an album title; the first title seen wins.
func (idx *Index) recordTitle(id domain.AlbumID, title string) {
	if _, ok := idx.albumTitles[id]; !ok {
		idx.albumTitles[id] = title
	}
}

// insertAlbum inserts an album before the first album with a greater
// title, or appends it. Albums with equal titles keep insertion order.
func (idx *Index) insertAlbum(g *group, id domain.AlbumID) {
	title := idx.albumTitles[id]
	pos := slices.IndexFunc(g.albumIDs, func(other domain.AlbumID) bool {
		return idx.albumTitles[other] > title
	})
	if pos < 0 {
		g.albumIDs = append(g.albumIDs, id)
		return
	}
	g.albumIDs = slices.Insert(g.albumIDs, pos, id)
}

// extractSingletons moves the albums of every artist or compilation
// group with exactly one track into the 1ers group and deletes the
// emptied groups. It returns the number of groups folded.
func (idx *Index) extractSingletons() int {
	var candidates []domain.GroupKey
	for key := range idx.groups {
		if key.Kind == domain.GroupArtist || key.Kind == domain.GroupCompilation {
			candidates = append(candidates, key)
		}
	}
	slices.SortFunc(candidates, compareKeys)

	folded := 0
	for i, key := range candidates {
		g := idx.groups[key]
		if g.trackCount == 1 {
			ones, ok := idx.groups[domain.SingletonsGroup]
			if !ok {
				ones = &group{key: domain.SingletonsGroup}
				idx.groups[domain.SingletonsGroup] = ones
			}
			for _, id := range g.albumIDs {
				if !slices.Contains(ones.albumIDs, id) {
					idx.insertAlbum(ones, id)
				}
			}
			ones.trackCount += g.trackCount
			delete(idx.groups, key)
			folded++
		}
		idx.setProgress(phaseProgress(progressTracksDone, progressSingletonsDone, i+1, len(candidates)))
	}

	return folded
}

// addPlaylists creates the Playlists group from the source playlists
// and counts the playable members of each. It returns the number of
// playlists added.
func (idx *Index) addPlaylists() int {
	pl := &group{key: domain.PlaylistsGroup}
	idx.groups[domain.PlaylistsGroup] = pl

	playlists := idx.source.Playlists()
	added := 0
	for i, playlist := range playlists {
		if _, blocked := idx.blacklist[playlist.Name]; !blocked {
			idx.recordTitle(playlist.ID, playlist.Name)
			idx.playlistIDs[playlist.ID] = struct{}{}
			if !slices.Contains(pl.albumIDs, playlist.ID) {
				idx.insertAlbum(pl, playlist.ID)
			}

			playable := 0
			for _, track := range idx.source.PlaylistTracks(playlist.ID) {
				if track.IsPlayable() {
					playable++
				}
			}
			idx.albumTrackCounts[playlist.ID] = playable
			pl.trackCount += playable
			added++
		} else {
			idx.logger.Debug("skipping blacklisted playlist", slog.String("playlist", playlist.Name))
		}
		// The last step is reserved for Build, which reaches 1.0 only
		// once the index is queryable.
		idx.setProgress(phaseProgress(progressSingletonsDone, progressPlaylistsDone, i+1, len(playlists)+1))
	}

	return added
}

// registerShortNames maps short names to the surviving groups and sorts
// them. When two groups share a short name, the one ordered first by
// compareKeys keeps it.
func (idx *Index) registerShortNames() {
	keys := make([]domain.GroupKey, 0, len(idx.groups))
	for key := range idx.groups {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareKeys)

	for _, key := range keys {
		short := key.ShortName()
		if existing, taken := idx.shortNames[short]; taken {
			idx.logger.Warn("group short name collision",
				slog.String("short_name", short),
				slog.String("kept", existing.String()),
				slog.String("shadowed", key.String()))
			continue
		}
		idx.shortNames[short] = key
		idx.sortedShortNames = append(idx.sortedShortNames, short)
	}
	slices.Sort(idx.sortedShortNames)
}

// kindRank orders group kinds for deterministic iteration: synthetic
// groups first, then artists, then genres.
func kindRank(kind domain.GroupKind) int {
	switch kind {
	case domain.GroupCompilation:
		return 0
	case domain.GroupPlaylists:
		return 1
	case domain.GroupSingletons:
		return 2
	case domain.GroupArtist:
		return 3
	default:
		return 4
	}
}

func compareKeys(a, b domain.GroupKey) int {
	return cmp.Or(
		cmp.Compare(kindRank(a.Kind), kindRank(b.Kind)),
		cmp.Compare(a.Name, b.Name),
	)
}
