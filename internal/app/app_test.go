package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/carplayer/internal/adapter/audio/beep"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/carplayer/internal/adapter/source/memory"
	"github.com/tejashwikalptaru/carplayer/internal/config"
	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/location"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
	"github.com/tejashwikalptaru/carplayer/internal/testutil"
)

func track(id, artist, albumID, album string, number int) domain.Track {
	return domain.Track{
		ID:          domain.TrackID(id),
		Title:       "Song " + id,
		AlbumID:     domain.AlbumID(albumID),
		AlbumTitle:  album,
		Artist:      artist,
		AlbumArtist: artist,
		MediaType:   domain.MediaTypeMusic,
		Duration:    3 * time.Minute,
		TrackNumber: number,
		Location:    "/music/" + id + ".mp3",
	}
}

func testSource() *memory.Source {
	src := memory.NewSource()
	src.AddTracks(
		track("t1", "Coldplay", "A1", "Parachutes", 1),
		track("t2", "Coldplay", "A1", "Parachutes", 2),
		track("t3", "Coldplay", "A2", "X&Y", 1),
		track("b1", "The Beatles", "B1", "Abbey Road", 1),
		track("b2", "The Beatles", "B1", "Abbey Road", 2),
	)
	src.AddPlaylist(domain.Playlist{ID: "P1", Name: "Road Trip"}, "t3", "b1")
	src.AddPlaylist(domain.Playlist{ID: "P2", Name: "Hidden"}, "t1")
	return src
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Settings.DBPath = ":memory:"
	cfg.Audio.Engine = config.AudioMock
	cfg.Library.PlaylistBlacklist = []string{"Hidden"}
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config, opts ...Option) *Application {
	t.Helper()
	opts = append([]Option{WithLogOutput(io.Discard)}, opts...)
	app, err := NewApplication(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)
	return app
}

func startAndIndex(t *testing.T, app *Application) {
	t.Helper()
	require.NoError(t, app.Start())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.WaitUntilIndexed(ctx))
}

func TestNewApplication(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	app, err := NewApplication(context.Background(), testConfig(), WithSource(testSource()), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.NotNil(t, app)

	// Verify all services were created
	assert.NotNil(t, app.Library())
	assert.NotNil(t, app.Settings())
	assert.NotNil(t, app.Player())
	assert.NotNil(t, app.EventBus())
	assert.NotNil(t, app.Logger())
	assert.Nil(t, app.Tracker())

	startAndIndex(t, app)

	// Shutdown twice should not panic
	app.Shutdown()
	app.Shutdown()
}

func TestApplication_IndexesWithBlacklist(t *testing.T) {
	app := newTestApplication(t, testConfig(), WithSource(testSource()))
	startAndIndex(t, app)

	idx := app.Library().Index()
	assert.Equal(t, []string{"Beatles", "Coldplay", "Playlists"}, idx.SortedGroupShortNames())
	assert.Equal(t, []domain.AlbumID{"P1"}, idx.AlbumIDs(domain.PlaylistsGroup))

	summary, err := app.Library().Summary()
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Tracks)
}

func TestApplication_PlayGroup(t *testing.T) {
	app := newTestApplication(t, testConfig(), WithSource(testSource()))

	_, _, err := app.PlayGroup("Coldplay")
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	startAndIndex(t, app)

	state, tracks, err := app.PlayGroup("Coldplay")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionChanged, state)
	assert.Len(t, tracks, 3)
	assert.True(t, app.Player().IsPlaying())
	assert.Equal(t, domain.ShuffleSongs, app.Player().ShuffleMode(), "two albums are shuffled")

	state, _, err = app.PlayGroup("Coldplay")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionUnchanged, state)

	state, tracks, err = app.PlayGroup("Beatles")
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionChanged, state)
	assert.Len(t, tracks, 2)

	_, _, err = app.PlayGroup("Nobody")
	assert.ErrorIs(t, err, domain.ErrGroupNotFound)
}

func TestApplication_AudioEngineSelection(t *testing.T) {
	app := newTestApplication(t, testConfig(), WithSource(memory.NewSource()))

	assert.IsType(t, &mock.Engine{}, app.audioEngine)
	assert.Same(t, app.audioEngine, ports.AudioEngine(app.clock))
	assert.IsType(t, &beep.Engine{}, app.newAudioEngine(config.AudioBeep))
}

func TestApplication_MockEnginePlaysInRealTime(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	engine := mock.NewEngine(nil)
	engine.SetDuration("/music/b1.mp3", 20*time.Millisecond)

	app, err := NewApplication(context.Background(), testConfig(),
		WithSource(testSource()), WithAudioEngine(engine), WithLogOutput(io.Discard))
	require.NoError(t, err)
	startAndIndex(t, app)

	_, tracks, err := app.PlayGroup("Beatles")
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Eventually(t, func() bool {
		current, ok := app.Player().NowPlaying()
		return ok && current.ID == "b2"
	}, 3*time.Second, 5*time.Millisecond, "the queue moves on once the first song has played")

	app.Shutdown()
}

func TestApplication_SQLiteSettings(t *testing.T) {
	cfg := testConfig()
	cfg.Settings.DBPath = filepath.Join(t.TempDir(), "settings.db")

	first, err := NewApplication(context.Background(), cfg, WithSource(memory.NewSource()), WithLogOutput(io.Discard))
	require.NoError(t, err)
	_, err = first.Settings().AdvanceMapType()
	require.NoError(t, err)
	first.Shutdown()

	second := newTestApplication(t, cfg, WithSource(memory.NewSource()))
	assert.Equal(t, domain.MapHybrid, second.Settings().MapType())
}

func TestApplication_FyneSettings(t *testing.T) {
	cfg := testConfig()
	cfg.Settings.Backend = config.BackendFyne

	fyneApp := test.NewApp()
	app := newTestApplication(t, cfg, WithSource(memory.NewSource()), WithFyneApp(fyneApp))

	mode, err := app.Settings().AdvanceDisplayMode()
	require.NoError(t, err)
	assert.Equal(t, domain.DisplaySpeedOnly, mode)
	assert.Equal(t, int(domain.DisplaySpeedOnly), fyneApp.Preferences().Int("SpeedDisplayMode"))
}

func TestApplication_ScansLibraryPaths(t *testing.T) {
	cfg := testConfig()
	cfg.Library.Paths = []string{t.TempDir()}

	app := newTestApplication(t, cfg)
	assert.Zero(t, app.ScanStats().Tracks)

	startAndIndex(t, app)
	assert.Equal(t, []string{"Playlists"}, app.Library().Index().SortedGroupShortNames())
}

func TestNewApplication_Errors(t *testing.T) {
	t.Run("missing library path", func(t *testing.T) {
		cfg := testConfig()
		cfg.Library.Paths = []string{filepath.Join(t.TempDir(), "absent")}

		_, err := NewApplication(context.Background(), cfg, WithLogOutput(io.Discard))
		assert.Error(t, err)
	})

	t.Run("unknown settings backend", func(t *testing.T) {
		cfg := testConfig()
		cfg.Settings.Backend = "redis"

		_, err := NewApplication(context.Background(), cfg, WithLogOutput(io.Discard))
		assert.ErrorIs(t, err, domain.ErrUnknownSettingsBackend)
	})
}

func TestApplication_LocationTracking(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	cfg := testConfig()
	cfg.Location.GermanDecimals = true

	replay := location.NewReplay([]ports.LocationFix{
		{Speed: 25, Latitude: 53.853453, Longitude: 10.6912, Altitude: 12, Course: 180},
	}, time.Millisecond)

	app, err := NewApplication(context.Background(), cfg,
		WithSource(testSource()), WithLocationProvider(replay), WithLogOutput(io.Discard))
	require.NoError(t, err)
	require.NotNil(t, app.Tracker())

	startAndIndex(t, app)
	assert.Eventually(t, func() bool { return app.Tracker().Fixes() == 1 }, time.Second, time.Millisecond)

	readout := app.Tracker().Last()
	assert.Equal(t, 90, readout.SpeedKmh)
	assert.Equal(t, "053° 51,2' N", readout.Latitude)

	app.Shutdown()
}
