// Package memory provides an in-memory track source.
package memory

import (
	"cmp"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// Source implements ports.TrackSource over tracks and playlists held in memory.
//
// Tracks keeps insertion order. AlbumTracks orders an album by disc and
// track number (insertion order for ties); PlaylistTracks keeps the
// playlist's own order.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Source struct {
	mu        sync.RWMutex
	tracks    []domain.Track
	byID      map[domain.TrackID]int
	albums    map[domain.AlbumID][]int
	playlists []domain.Playlist
	members   map[domain.AlbumID][]domain.TrackID
}

// NewSource creates an empty source.
func NewSource() *Source {
	return &Source{
		byID:    make(map[domain.TrackID]int),
		albums:  make(map[domain.AlbumID][]int),
		members: make(map[domain.AlbumID][]domain.TrackID),
	}
}

// AddTracks appends tracks. A track whose ID is already known replaces
// the earlier one in place.
func (s *Source) AddTracks(tracks ...domain.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, track := range tracks {
		if i, ok := s.byID[track.ID]; ok {
			old := s.tracks[i]
			if old.AlbumID != track.AlbumID {
				s.albums[old.AlbumID] = slices.DeleteFunc(s.albums[old.AlbumID], func(j int) bool { return j == i })
				s.albums[track.AlbumID] = append(s.albums[track.AlbumID], i)
			}
			s.tracks[i] = track
			continue
		}
		i := len(s.tracks)
		s.tracks = append(s.tracks, track)
		s.byID[track.ID] = i
		s.albums[track.AlbumID] = append(s.albums[track.AlbumID], i)
	}
}

// AddPlaylist appends a playlist with its members in play order.
// Members may reference tracks that are added later; unknown ids are
// skipped when the playlist is queried.
func (s *Source) AddPlaylist(playlist domain.Playlist, members ...domain.TrackID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[playlist.ID]; !ok {
		s.playlists = append(s.playlists, playlist)
	}
	s.members[playlist.ID] = slices.Clone(members)
}

// Track returns a track by id.
func (s *Source) Track(id domain.TrackID) (domain.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return domain.Track{}, false
	}
	return s.tracks[i], true
}

// Len returns the number of tracks.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Tracks returns every track in insertion order.
func (s *Source) Tracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tracks)
}

// Playlists returns every playlist in insertion order.
func (s *Source) Playlists() []domain.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.playlists)
}

// AlbumTracks returns the tracks of an album by disc and track number.
func (s *Source) AlbumTracks(id domain.AlbumID) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	indices := s.albums[id]
	tracks := make([]domain.Track, 0, len(indices))
	for _, i := range indices {
		tracks = append(tracks, s.tracks[i])
	}
	slices.SortStableFunc(tracks, func(a, b domain.Track) int {
		return cmp.Or(
			cmp.Compare(a.DiscNumber, b.DiscNumber),
			cmp.Compare(a.TrackNumber, b.TrackNumber),
		)
	})
	return tracks
}

// PlaylistTracks returns the members of a playlist in play order.
func (s *Source) PlaylistTracks(id domain.AlbumID) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.members[id]
	tracks := make([]domain.Track, 0, len(members))
	for _, trackID := range members {
		if i, ok := s.byID[trackID]; ok {
			tracks = append(tracks, s.tracks[i])
		}
	}
	return tracks
}

// Verify that Source implements the TrackSource interface
var _ ports.TrackSource = (*Source)(nil)
