// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the CarPlayer library index.
package domain

import (
	"strings"
	"time"
)

// TrackID is the persistent identifier of a single track.
type TrackID string

// AlbumID is the persistent identifier of an album.
// Playlists share the same identifier space: inside the Playlists group
// every "album" is a playlist.
type AlbumID string

// MediaType classifies an item of the media library.
type MediaType int

const (
	// MediaTypeMusic is a regular music item.
	MediaTypeMusic MediaType = iota

	// MediaTypePodcast is a podcast episode.
	MediaTypePodcast

	// MediaTypeAudiobook is an audiobook chapter.
	MediaTypeAudiobook

	// MediaTypeOther is anything else (videos, voice memos, ...).
	MediaTypeOther
)

// String returns a human-readable representation of the media type.
func (m MediaType) String() string {
	switch m {
	case MediaTypeMusic:
		return "music"
	case MediaTypePodcast:
		return "podcast"
	case MediaTypeAudiobook:
		return "audiobook"
	default:
		return "other"
	}
}

// Artwork is an embedded cover image.
type Artwork struct {
	// MIMEType of the image data (may be empty if unknown)
	MIMEType string

	// Data is the raw image data
	Data []byte
}

// Track represents a single item of the media library.
// Tracks are immutable facts delivered by a track source.
type Track struct {
	// ID is the persistent track identifier
	ID TrackID

	// Title is the song title
	Title string

	// AlbumTitle is the title of the album the track belongs to
	AlbumTitle string

	// AlbumID identifies the album; unique per album across the library
	AlbumID AlbumID

	// Artist is the performing artist
	Artist string

	// AlbumArtist is the artist credited for the whole album
	AlbumArtist string

	// Genre is the genre name (empty if none)
	Genre string

	// IsCompilation marks tracks of various-artists albums
	IsCompilation bool

	// IsCloudOnly marks tracks that are not available on the device
	IsCloudOnly bool

	// MediaType classifies the item
	MediaType MediaType

	// Duration is the total length of the track
	Duration time.Duration

	// DiscNumber and TrackNumber give the position on the album (0 if unknown)
	DiscNumber  int
	TrackNumber int

	// Artwork is the embedded cover (nil if none)
	Artwork *Artwork

	// Lyrics are the unsynchronised lyrics (empty if none)
	Lyrics string

	// Location is the file path or URI of the audio data
	Location string
}

// GroupName resolves the name of the group a track is filed under:
// the compilation group for compilation tracks, the album artist otherwise.
func (t Track) GroupName() string {
	if t.IsCompilation {
		return CompilationsName
	}
	return t.AlbumArtist
}

// GroupKey returns the artist or compilation group of the track.
func (t Track) GroupKey() GroupKey {
	if t.IsCompilation {
		return CompilationsGroup
	}
	return ArtistGroup(t.AlbumArtist)
}

// IsPlayable reports whether the track takes part in the library index:
// a local music item with a resolvable group and an album title.
func (t Track) IsPlayable() bool {
	return t.MediaType == MediaTypeMusic &&
		!t.IsCloudOnly &&
		t.GroupName() != "" &&
		t.AlbumTitle != ""
}

// HasLyrics reports whether lyrics are attached to the track.
func (t Track) HasLyrics() bool {
	return t.Lyrics != ""
}

// Playlist is a named, ordered collection of tracks owned by the track source.
type Playlist struct {
	// ID is the persistent playlist identifier
	ID AlbumID

	// Name is the playlist name
	Name string
}

// Display names of the synthetic groups.
const (
	CompilationsName = "Compilations"
	PlaylistsName    = "Playlists"
	SingletonsName   = "1ers"
	GenrePrefix      = "Genre:"
)

// GroupKind tells which classification produced a group.
type GroupKind int

const (
	// GroupArtist is a group of albums by one album artist.
	GroupArtist GroupKind = iota

	// GroupCompilation is the single group of all compilation albums.
	GroupCompilation

	// GroupGenre is a group of all albums with tracks of one genre.
	GroupGenre

	// GroupPlaylists is the synthetic group whose albums are playlists.
	GroupPlaylists

	// GroupSingletons collects the albums of groups that own a single track.
	GroupSingletons
)

// String returns a human-readable representation of the group kind.
func (k GroupKind) String() string {
	switch k {
	case GroupArtist:
		return "artist"
	case GroupCompilation:
		return "compilation"
	case GroupGenre:
		return "genre"
	case GroupPlaylists:
		return "playlists"
	case GroupSingletons:
		return "singletons"
	default:
		return "unknown"
	}
}

// GroupKey identifies a group. Name is only meaningful for artist and
// genre groups. Keys of different kinds never compare equal, even if
// their display names collide.
type GroupKey struct {
	Kind GroupKind
	Name string
}

// Well-known keys of the synthetic groups.
var (
	CompilationsGroup = GroupKey{Kind: GroupCompilation}
	PlaylistsGroup    = GroupKey{Kind: GroupPlaylists}
	SingletonsGroup   = GroupKey{Kind: GroupSingletons}
)

// ArtistGroup returns the key of the group of an album artist.
func ArtistGroup(name string) GroupKey {
	return GroupKey{Kind: GroupArtist, Name: name}
}

// GenreGroup returns the key of the group of a genre.
func GenreGroup(genre string) GroupKey {
	return GroupKey{Kind: GroupGenre, Name: genre}
}

// String returns the long (display) name of the group.
func (k GroupKey) String() string {
	switch k.Kind {
	case GroupCompilation:
		return CompilationsName
	case GroupGenre:
		return GenrePrefix + k.Name
	case GroupPlaylists:
		return PlaylistsName
	case GroupSingletons:
		return SingletonsName
	default:
		return k.Name
	}
}

// ShortName returns the name used for alphabetical grouping: the long
// name with a leading "The " or "Die " removed.
func (k GroupKey) ShortName() string {
	return ShortName(k.String())
}

// ShortName strips a leading "The " or "Die " (case-sensitive) from a name.
func ShortName(longName string) string {
	for _, prefix := range []string{"The ", "Die "} {
		if rest, ok := strings.CutPrefix(longName, prefix); ok {
			return rest
		}
	}
	return longName
}

// SelectionState is the tri-state "did the selection change" flag.
type SelectionState int

const (
	// SelectionUnknown means no selection has been made yet.
	SelectionUnknown SelectionState = iota

	// SelectionChanged means the last selection differs from what is playing.
	SelectionChanged

	// SelectionUnchanged means the last selection matches what is playing.
	SelectionUnchanged
)

// String returns a human-readable representation of the selection state.
func (s SelectionState) String() string {
	switch s {
	case SelectionChanged:
		return "changed"
	case SelectionUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// ShuffleMode is the shuffle setting of the playback engine.
type ShuffleMode int

const (
	// ShuffleOff plays the queue in order.
	ShuffleOff ShuffleMode = iota

	// ShuffleSongs plays the queue in a random order.
	ShuffleSongs
)

// ShuffleModeFor maps a shuffle request to a shuffle mode.
func ShuffleModeFor(shuffle bool) ShuffleMode {
	if shuffle {
		return ShuffleSongs
	}
	return ShuffleOff
}

// String returns a human-readable representation of the shuffle mode.
func (m ShuffleMode) String() string {
	if m == ShuffleSongs {
		return "songs"
	}
	return "off"
}

// RepeatMode is the repeat setting of the playback engine.
type RepeatMode int

const (
	// RepeatNone stops at the end of the queue.
	RepeatNone RepeatMode = iota

	// RepeatOne repeats the current track.
	RepeatOne

	// RepeatAll wraps around at the end of the queue.
	RepeatAll
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// SkipDirection is the direction of a skip through the queue.
type SkipDirection int

const (
	// SkipNext moves to the following track.
	SkipNext SkipDirection = iota

	// SkipPrevious moves to the preceding track.
	SkipPrevious
)

// String returns a human-readable representation of the skip direction.
func (d SkipDirection) String() string {
	if d == SkipPrevious {
		return "previous"
	}
	return "next"
}

// DisplayMode selects what the dashboard shows next to the player.
type DisplayMode int

const (
	// DisplayOff hides the speed and location readout.
	DisplayOff DisplayMode = iota

	// DisplaySpeedOnly shows the speed only.
	DisplaySpeedOnly

	// DisplayAll shows speed, location, altitude and course.
	DisplayAll

	displayModeCount
)

// Next returns the following display mode, wrapping around.
func (m DisplayMode) Next() DisplayMode {
	return (m + 1) % displayModeCount
}

// IsValid reports whether the value is a known display mode.
func (m DisplayMode) IsValid() bool {
	return m >= 0 && m < displayModeCount
}

// String returns a human-readable representation of the display mode.
func (m DisplayMode) String() string {
	switch m {
	case DisplayOff:
		return "off"
	case DisplaySpeedOnly:
		return "speed"
	case DisplayAll:
		return "all"
	default:
		return "unknown"
	}
}

// MapType selects the map style.
type MapType int

const (
	// MapStandard is the plain street map.
	MapStandard MapType = iota

	// MapHybrid overlays streets on satellite imagery.
	MapHybrid

	// MapSatellite is satellite imagery only.
	MapSatellite

	// MapTerrain shows elevation.
	MapTerrain

	mapTypeCount
)

// Next returns the following map type, wrapping around.
func (m MapType) Next() MapType {
	return (m + 1) % mapTypeCount
}

// Previous returns the preceding map type, wrapping around.
func (m MapType) Previous() MapType {
	return (m + mapTypeCount - 1) % mapTypeCount
}

// IsValid reports whether the value is a known map type.
func (m MapType) IsValid() bool {
	return m >= 0 && m < mapTypeCount
}

// String returns a human-readable representation of the map type.
func (m MapType) String() string {
	switch m {
	case MapStandard:
		return "standard"
	case MapHybrid:
		return "hybrid"
	case MapSatellite:
		return "satellite"
	case MapTerrain:
		return "terrain"
	default:
		return "unknown"
	}
}

// PlaybackStatus represents the current playback state of an audio engine.
type PlaybackStatus int

const (
	// StatusStopped indicates playback is stopped
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates playback is active
	StatusPlaying

	// StatusPaused indicates playback is paused
	StatusPaused
)

// String returns a human-readable representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// TrackHandle represents a handle to an audio track in the audio engine.
// This is an opaque identifier used by the audio engine to reference loaded tracks.
type TrackHandle int64

const (
	// InvalidTrackHandle represents an invalid or uninitialized track handle
	InvalidTrackHandle TrackHandle = 0
)

// IndexProgress describes how far the library index build has come.
type IndexProgress struct {
	// Fraction is the overall progress in [0, 1]
	Fraction float64

	// TracksTotal is the number of tracks enumerated by the source
	TracksTotal int
}

// Percentage returns the completion percentage (0-100).
func (p IndexProgress) Percentage() int {
	return int(p.Fraction * 100)
}
