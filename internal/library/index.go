// Package library builds and owns the derived grouping model of a media
// library: groups of albums by artist, compilation, genre, playlist and
// single-track artists, with per-group and per-album track counts.
// It also tracks the user's selection and drives the playback engine.
//
// The index is built exactly once, usually on a background goroutine.
// Every query, selection and transport method requires a completed
// build; calling them earlier, or with identifiers the index never
// produced, panics with a *domain.ContractViolation.
package library

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// DefaultPlaylistBlacklist lists the system playlists that never show up
// in the Playlists group.
var DefaultPlaylistBlacklist = []string{"Einkäufe", "alle iPhone-Titel", "alle Musiktitel"}

// NoLyrics is returned by CurrentLyrics when the now playing item has none.
const NoLyrics = "No lyrics available."

// group is a classification bucket of albums.
type group struct {
	key        domain.GroupKey
	albumIDs   []domain.AlbumID // ordered by album title
	artwork    *domain.Artwork
	trackCount int
}

// Option configures an Index.
type Option func(*Index)

// WithPlaylistBlacklist replaces the default playlist blacklist.
func WithPlaylistBlacklist(names []string) Option {
	return func(idx *Index) {
		idx.blacklist = make(map[string]struct{}, len(names))
		for _, name := range names {
			idx.blacklist[name] = struct{}{}
		}
	}
}

// WithProgressObserver registers a function called on the building
// goroutine whenever the build progress advances.
func WithProgressObserver(observer func(progress float64)) Option {
	return func(idx *Index) {
		idx.observer = observer
	}
}

// Index is the library index.
//
// The derived structures are written only by Build and are read-only
// once Done is closed. Session state (selection, queue, transport) is
// guarded by mu; the playback engine is never called with mu held.
type Index struct {
	logger *slog.Logger
	source ports.TrackSource
	engine ports.PlaybackEngine

	blacklist map[string]struct{}
	observer  func(float64)

	// derived structures, owned by Build until done is closed
	groups           map[domain.GroupKey]*group
	shortNames       map[string]domain.GroupKey
	sortedShortNames []string
	albumTitles      map[domain.AlbumID]string
	albumTrackCounts map[domain.AlbumID]int
	playlistIDs      map[domain.AlbumID]struct{}
	playableTracks   int

	progress   atomic.Uint64 // math.Float64bits of the build progress
	started    atomic.Bool
	built      atomic.Bool
	enumerated atomic.Int64 // tracks returned by the source, set before any progress
	done       chan struct{}

	mu sync.Mutex

	// selection
	selection        domain.SelectionState
	currentGroup     *domain.GroupKey
	currentAlbumIDs  []domain.AlbumID
	shuffleRequested bool

	// last built queue
	currentPlaylist   []domain.Track
	hasPlaylist       bool
	currentTrackCount int // -1 if unknown

	// transport
	playing       bool
	skipDirection domain.SkipDirection
	directJump    bool
}

// New creates an empty library index over a track source and a playback
// engine. The engine is switched to repeat all, and the index adopts the
// engine's current playing state.
func New(logger *slog.Logger, source ports.TrackSource, engine ports.PlaybackEngine, opts ...Option) *Index {
	idx := &Index{
		logger:            logger.With(slog.String("component", "library")),
		source:            source,
		engine:            engine,
		groups:            make(map[domain.GroupKey]*group),
		shortNames:        make(map[string]domain.GroupKey),
		albumTitles:       make(map[domain.AlbumID]string),
		albumTrackCounts:  make(map[domain.AlbumID]int),
		playlistIDs:       make(map[domain.AlbumID]struct{}),
		done:              make(chan struct{}),
		currentTrackCount: -1,
	}
	WithPlaylistBlacklist(DefaultPlaylistBlacklist)(idx)

	for _, opt := range opts {
		opt(idx)
	}

	engine.SetRepeatMode(domain.RepeatAll)
	idx.playing = engine.IsPlaying()

	return idx
}

// Progress returns the build progress in [0, 1]. Successive reads never
// decrease; 1 means the index is complete.
func (idx *Index) Progress() float64 {
	return math.Float64frombits(idx.progress.Load())
}

// TracksTotal returns the number of tracks the source enumerated for the
// build, or 0 before enumeration. Progress observers may rely on it.
func (idx *Index) TracksTotal() int {
	return int(idx.enumerated.Load())
}

// Done returns a channel that is closed once the build has completed.
func (idx *Index) Done() <-chan struct{} {
	return idx.done
}

// IsBuilt reports whether the build has completed.
func (idx *Index) IsBuilt() bool {
	return idx.built.Load()
}

// setProgress publishes a new progress value, ignoring values below the
// current one. Only the building goroutine writes progress.
func (idx *Index) setProgress(p float64) {
	p = min(max(p, 0), 1)
	if p <= idx.Progress() {
		return
	}
	idx.progress.Store(math.Float64bits(p))
	if idx.observer != nil {
		idx.observer(p)
	}
}

// mustBeBuilt panics if the index is not complete yet.
func (idx *Index) mustBeBuilt(op string) {
	if !idx.built.Load() {
		panic(domain.NewContractViolation(op, "library index is not built yet"))
	}
}

// mustGroup returns a group or panics if the index does not know it.
func (idx *Index) mustGroup(op string, key domain.GroupKey) *group {
	idx.mustBeBuilt(op)
	g, ok := idx.groups[key]
	if !ok {
		panic(domain.NewContractViolation(op, "unknown group %q (%s)", key.String(), key.Kind))
	}
	return g
}
