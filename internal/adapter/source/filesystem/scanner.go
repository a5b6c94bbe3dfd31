// Package filesystem builds a track source by scanning directories of
// audio files and M3U playlists.
package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/carplayer/internal/adapter/audio/decoder"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/source/memory"
	"github.com/tejashwikalptaru/carplayer/internal/domain"
)

// Audio file extensions indexed. Tags are read from all but WAV; lengths
// from the formats the decoder plays.
var audioFormats = []string{".mp3", ".m4a", ".m4b", ".mp4", ".flac", ".ogg", ".wav"}

var playlistFormats = []string{".m3u", ".m3u8"}

// Raw tag keys across ID3v2.2, ID3v2.3/4, MP4 atoms and Vorbis comments.
var (
	compilationKeys = []string{"TCMP", "TCP", "cpil", "compilation", "COMPILATION"}
	lyricsKeys      = []string{"USLT", "ULT", "\xa9lyr", "lyrics", "LYRICS", "unsyncedlyrics", "UNSYNCEDLYRICS"}
	podcastKeys     = []string{"PCST", "pcst"}
)

// Namespaces for the name-based ids, so equal input yields equal ids on every scan.
var (
	trackNamespace    = uuid.NewSHA1(uuid.NameSpaceURL, []byte("carplayer:track"))
	albumNamespace    = uuid.NewSHA1(uuid.NameSpaceURL, []byte("carplayer:album"))
	playlistNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("carplayer:playlist"))
)

// Stats summarizes a scan.
type Stats struct {
	Files     int
	Tracks    int
	Playlists int
	TagErrors int
}

// Scanner walks library directories.
type Scanner struct {
	logger *slog.Logger
}

// NewScanner creates a scanner.
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logger.With(slog.String("component", "filesystem-source"))}
}

// Scan walks the roots in order and returns an in-memory source holding
// every audio file found and every M3U playlist. Files whose tags cannot
// be read are still added, titled after the file name; they lack album
// data and therefore never become playable. Playlist entries that do
// not resolve to a scanned file are dropped.
func (s *Scanner) Scan(ctx context.Context, roots ...string) (*memory.Source, Stats, error) {
	src := memory.NewSource()
	var stats Stats

	byPath := make(map[string]domain.TrackID)
	var playlistPaths []string

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				s.logger.Warn("skipping unreadable path", slog.String("path", path), slog.Any("error", err))
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(path))
			switch {
			case slices.Contains(audioFormats, ext):
				stats.Files++
				track, tagErr := s.readTrack(path)
				if tagErr != nil {
					stats.TagErrors++
					s.logger.Debug("failed to read tags", slog.String("path", path), slog.Any("error", tagErr))
				}
				track.Duration = s.readDuration(path)
				src.AddTracks(track)
				byPath[filepath.Clean(path)] = track.ID
				stats.Tracks++
			case slices.Contains(playlistFormats, ext):
				playlistPaths = append(playlistPaths, path)
			}
			return nil
		})
		if err != nil {
			return nil, stats, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	for _, path := range playlistPaths {
		members, err := readPlaylist(path, byPath)
		if err != nil {
			s.logger.Warn("failed to read playlist", slog.String("path", path), slog.Any("error", err))
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		src.AddPlaylist(domain.Playlist{ID: PlaylistID(path), Name: name}, members...)
		stats.Playlists++
	}

	s.logger.Info("library scan complete",
		slog.Int("files", stats.Files),
		slog.Int("tracks", stats.Tracks),
		slog.Int("playlists", stats.Playlists),
		slog.Int("tag_errors", stats.TagErrors))

	return src, stats, nil
}

// readTrack builds a track from a file. The returned track is usable
// even when the error is non-nil.
func (s *Scanner) readTrack(path string) (domain.Track, error) {
	track := domain.Track{
		ID:        TrackID(path),
		Title:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		MediaType: mediaTypeFor(path),
		Location:  path,
	}

	file, err := os.Open(path)
	if err != nil {
		return track, err
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err != nil {
		return track, err
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		track.Title = title
	}
	track.Artist = strings.TrimSpace(m.Artist())
	track.AlbumArtist = strings.TrimSpace(m.AlbumArtist())
	if track.AlbumArtist == "" {
		track.AlbumArtist = track.Artist
	}
	track.AlbumTitle = strings.TrimSpace(m.Album())
	track.Genre = strings.TrimSpace(m.Genre())
	track.TrackNumber, _ = m.Track()
	track.DiscNumber, _ = m.Disc()

	if picture := m.Picture(); picture != nil && len(picture.Data) > 0 {
		track.Artwork = &domain.Artwork{MIMEType: picture.MIMEType, Data: picture.Data}
	}

	raw := m.Raw()
	track.IsCompilation = rawFlag(raw, compilationKeys)
	track.Lyrics = rawText(raw, lyricsKeys)
	if rawFlag(raw, podcastKeys) {
		track.MediaType = domain.MediaTypePodcast
	}

	if track.AlbumTitle != "" {
		track.AlbumID = AlbumID(track.GroupName(), track.AlbumTitle)
	}

	return track, nil
}

// readDuration decodes the file to find its length. It returns 0 for
// formats the decoder does not play and for undecodable files.
func (s *Scanner) readDuration(path string) time.Duration {
	if !decoder.Supported(path) {
		return 0
	}
	d, err := decoder.Length(path)
	if err != nil {
		s.logger.Debug("failed to read length", slog.String("path", path), slog.Any("error", err))
		return 0
	}
	return d
}

// readPlaylist resolves the entries of an M3U file against scanned tracks.
// Relative entries are relative to the playlist's directory.
func readPlaylist(path string, byPath map[string]domain.TrackID) ([]domain.TrackID, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	baseDir := filepath.Dir(path)
	var members []domain.TrackID

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(baseDir, line)
		}
		if id, ok := byPath[filepath.Clean(line)]; ok {
			members = append(members, id)
		}
	}
	return members, scanner.Err()
}

// TrackID derives the id of the track stored at path.
func TrackID(path string) domain.TrackID {
	return domain.TrackID(uuid.NewSHA1(trackNamespace, []byte(filepath.Clean(path))).String())
}

// AlbumID derives the id of an album from the group it is filed under
// and its title.
func AlbumID(groupName, title string) domain.AlbumID {
	return domain.AlbumID(uuid.NewSHA1(albumNamespace, []byte(groupName+"\x00"+title)).String())
}

// PlaylistID derives the id of the playlist stored at path.
func PlaylistID(path string) domain.AlbumID {
	return domain.AlbumID(uuid.NewSHA1(playlistNamespace, []byte(filepath.Clean(path))).String())
}

func mediaTypeFor(path string) domain.MediaType {
	if strings.EqualFold(filepath.Ext(path), ".m4b") {
		return domain.MediaTypeAudiobook
	}
	return domain.MediaTypeMusic
}

// rawFlag reports whether any of the keys holds a true value.
func rawFlag(raw map[string]interface{}, keys []string) bool {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case bool:
			if v {
				return true
			}
		case int:
			if v != 0 {
				return true
			}
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil && b {
				return true
			}
		case []byte:
			for _, c := range v {
				if c != 0 {
					return true
				}
			}
		}
	}
	return false
}

// rawText returns the first non-blank text stored under one of the keys.
func rawText(raw map[string]interface{}, keys []string) string {
	for _, key := range keys {
		var text string
		switch v := raw[key].(type) {
		case string:
			text = v
		case *tag.Comm:
			text = v.Text
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}
