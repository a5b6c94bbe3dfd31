package library

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// Snapshot is a plain, comparable view of a built index.
type Snapshot struct {
	PlayableTracks int             `yaml:"playable_tracks"`
	Groups         []GroupSnapshot `yaml:"groups"`
}

// GroupSnapshot describes one group and its albums in display order.
type GroupSnapshot struct {
	ShortName  string          `yaml:"short_name"`
	LongName   string          `yaml:"long_name"`
	Kind       string          `yaml:"kind"`
	TrackCount int             `yaml:"track_count"`
	HasArtwork bool            `yaml:"has_artwork,omitempty"`
	Albums     []AlbumSnapshot `yaml:"albums"`
}

// AlbumSnapshot describes one album of a group.
type AlbumSnapshot struct {
	ID         domain.AlbumID `yaml:"id"`
	Title      string         `yaml:"title"`
	TrackCount int            `yaml:"track_count"`
}

// Snapshot captures the groups of the built index, ordered by short name.
func (idx *Index) Snapshot() Snapshot {
	idx.mustBeBuilt("Snapshot")

	keys := idx.Groups()
	snap := Snapshot{
		PlayableTracks: idx.playableTracks,
		Groups:         make([]GroupSnapshot, 0, len(keys)),
	}
	for _, key := range keys {
		g := idx.groups[key]
		gs := GroupSnapshot{
			ShortName:  key.ShortName(),
			LongName:   key.String(),
			Kind:       key.Kind.String(),
			TrackCount: g.trackCount,
			HasArtwork: g.artwork != nil,
			Albums:     make([]AlbumSnapshot, 0, len(g.albumIDs)),
		}
		for _, id := range g.albumIDs {
			gs.Albums = append(gs.Albums, AlbumSnapshot{
				ID:         id,
				Title:      idx.albumTitles[id],
				TrackCount: idx.albumTrackCounts[id],
			})
		}
		snap.Groups = append(snap.Groups, gs)
	}
	return snap
}

// WriteYAML writes the snapshot of the built index as YAML.
func (idx *Index) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(idx.Snapshot()); err != nil {
		return fmt.Errorf("encode library snapshot: %w", err)
	}
	return enc.Close()
}
