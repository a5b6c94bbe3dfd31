package library

import (
	"cmp"
	"slices"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// AlbumDisplay is what an album list row shows.
type AlbumDisplay struct {
	Title      string
	Artwork    *domain.Artwork // nil for playlists and albums without art
	TrackCount int
}

// SortedGroupShortNames returns the short names of all groups in ordinal order.
func (idx *Index) SortedGroupShortNames() []string {
	idx.mustBeBuilt("SortedGroupShortNames")
	return slices.Clone(idx.sortedShortNames)
}

// Group returns the group registered under a short name.
func (idx *Index) Group(shortName string) domain.GroupKey {
	idx.mustBeBuilt("Group")
	key, ok := idx.shortNames[shortName]
	if !ok {
		panic(domain.NewContractViolation("Group", "unknown short name %q", shortName))
	}
	return key
}

// LookupGroup is Group for untrusted input such as command line arguments.
func (idx *Index) LookupGroup(shortName string) (domain.GroupKey, bool) {
	idx.mustBeBuilt("LookupGroup")
	key, ok := idx.shortNames[shortName]
	return key, ok
}

// LongName returns the display name of the group registered under a short name.
func (idx *Index) LongName(shortName string) string {
	return idx.Group(shortName).String()
}

// Groups returns every group, ordered by short name.
func (idx *Index) Groups() []domain.GroupKey {
	idx.mustBeBuilt("Groups")
	keys := make([]domain.GroupKey, 0, len(idx.groups))
	for key := range idx.groups {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b domain.GroupKey) int {
		return cmp.Or(cmp.Compare(a.ShortName(), b.ShortName()), compareKeys(a, b))
	})
	return keys
}

// HasGroup reports whether the index contains a group.
func (idx *Index) HasGroup(key domain.GroupKey) bool {
	idx.mustBeBuilt("HasGroup")
	_, ok := idx.groups[key]
	return ok
}

// AlbumIDs returns the album ids of a group, ordered by album title.
func (idx *Index) AlbumIDs(key domain.GroupKey) []domain.AlbumID {
	return slices.Clone(idx.mustGroup("AlbumIDs", key).albumIDs)
}

// AlbumTitle returns the title of an album or playlist.
func (idx *Index) AlbumTitle(id domain.AlbumID) string {
	idx.mustBeBuilt("AlbumTitle")
	title, ok := idx.albumTitles[id]
	if !ok {
		panic(domain.NewContractViolation("AlbumTitle", "unknown album id %q", id))
	}
	return title
}

// AlbumTrackCount returns the number of playable tracks of an album or playlist.
func (idx *Index) AlbumTrackCount(id domain.AlbumID) int {
	idx.mustBeBuilt("AlbumTrackCount")
	count, ok := idx.albumTrackCounts[id]
	if !ok {
		panic(domain.NewContractViolation("AlbumTrackCount", "unknown album id %q", id))
	}
	return count
}

// GroupTrackCount returns the number of playable tracks filed under a group.
func (idx *Index) GroupTrackCount(key domain.GroupKey) int {
	return idx.mustGroup("GroupTrackCount", key).trackCount
}

// AlbumCount returns the number of albums of a group.
func (idx *Index) AlbumCount(key domain.GroupKey) int {
	return len(idx.mustGroup("AlbumCount", key).albumIDs)
}

// DistinctAlbumCount returns the number of distinct albums and playlists
// in the index. An album filed under several groups counts once.
func (idx *Index) DistinctAlbumCount() int {
	idx.mustBeBuilt("DistinctAlbumCount")
	return len(idx.albumTitles)
}

// PlayableTrackCount returns the number of playable tracks in the library.
func (idx *Index) PlayableTrackCount() int {
	idx.mustBeBuilt("PlayableTrackCount")
	return idx.playableTracks
}

// Artwork returns the representative artwork of a group: the artwork of
// the first track filed under it. A known group without artwork yields
// (nil, nil); an unknown group yields domain.ErrGroupNotFound.
func (idx *Index) Artwork(key domain.GroupKey) (*domain.Artwork, error) {
	idx.mustBeBuilt("Artwork")
	g, ok := idx.groups[key]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return g.artwork, nil
}

// MultiAlbumPlaybackMakesSense reports whether "play all" should be
// offered for a group: it must own more than one album and must not be
// the Playlists group.
func (idx *Index) MultiAlbumPlaybackMakesSense(key domain.GroupKey) bool {
	return key.Kind != domain.GroupPlaylists && idx.AlbumCount(key) > 1
}

// IsPlaylist reports whether an id belongs to a playlist of the Playlists group.
func (idx *Index) IsPlaylist(id domain.AlbumID) bool {
	idx.mustBeBuilt("IsPlaylist")
	_, ok := idx.playlistIDs[id]
	return ok
}

// AlbumDisplayData returns the title, artwork and track count of an
// album or playlist. Album artwork is taken from the first track the
// source returns for the album; playlists have none.
func (idx *Index) AlbumDisplayData(id domain.AlbumID) AlbumDisplay {
	display := AlbumDisplay{
		Title:      idx.AlbumTitle(id),
		TrackCount: idx.AlbumTrackCount(id),
	}
	if idx.IsPlaylist(id) {
		return display
	}

	tracks := idx.source.AlbumTracks(id)
	if len(tracks) == 0 {
		panic(domain.NewContractViolation("AlbumDisplayData", "no tracks found for album %q", id))
	}
	display.Artwork = tracks[0].Artwork
	return display
}
