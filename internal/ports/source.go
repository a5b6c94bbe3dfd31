package ports

import (
	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// TrackSource is the media library the index is built from.
//
// Tracks returns the full enumeration with its length known up front.
// AlbumTracks and PlaylistTracks re-query members in the source's
// natural order for that query kind; the two orders may differ.
// A track source is assumed never to fail once it is constructed.
type TrackSource interface {
	// Tracks returns every item of the library, playable or not.
	Tracks() []domain.Track

	// Playlists returns every playlist of the library.
	Playlists() []domain.Playlist

	// AlbumTracks returns the tracks of one album (empty if unknown).
	AlbumTracks(id domain.AlbumID) []domain.Track

	// PlaylistTracks returns the members of one playlist (empty if unknown).
	PlaylistTracks(id domain.AlbumID) []domain.Track
}
