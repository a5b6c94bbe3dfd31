package decoder

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/carplayer/internal/testutil"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"SONG.MP3", true},
		{"song.flac", true},
		{"song.wav", true},
		{"song.m4a", false},
		{"song.ogg", false},
		{"song", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Supported(tt.path))
		})
	}
}

func TestOpen_WAV(t *testing.T) {
	path := testutil.WriteSilentWAV(t, filepath.Join(t.TempDir(), "tone.wav"), testutil.CDRate, 500*time.Millisecond)

	streamer, format, err := Open(path)
	require.NoError(t, err)
	defer streamer.Close()

	assert.Equal(t, testutil.CDRate, int(format.SampleRate))
	assert.Equal(t, 22050, streamer.Len())

	require.NoError(t, streamer.Seek(11025))
	assert.Equal(t, 11025, streamer.Position())
}

func TestLength(t *testing.T) {
	path := testutil.WriteSilentWAV(t, filepath.Join(t.TempDir(), "tone.wav"), testutil.CDRate, 1500*time.Millisecond)

	d, err := Length(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Open(filepath.Join(dir, "cover.m4a"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, _, err = Open(filepath.Join(dir, "absent.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a wave file"), 0o644))
	_, err = Length(garbage)
	assert.Error(t, err)
}

func TestSkipID3v2(t *testing.T) {
	t.Run("tag", func(t *testing.T) {
		data := append([]byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 4}, []byte("xxxxfLaC")...)
		r := bytes.NewReader(data)
		require.NoError(t, skipID3v2(r))

		rest := make([]byte, 4)
		_, err := r.Read(rest)
		require.NoError(t, err)
		assert.Equal(t, "fLaC", string(rest))
	})

	t.Run("no tag", func(t *testing.T) {
		r := bytes.NewReader([]byte("fLaC\x00\x00\x00\x22"))
		require.NoError(t, skipID3v2(r))
		assert.Equal(t, 8, r.Len())
	})

	t.Run("short file", func(t *testing.T) {
		r := bytes.NewReader([]byte("ID3"))
		require.NoError(t, skipID3v2(r))
		assert.Equal(t, 3, r.Len())
	})
}
