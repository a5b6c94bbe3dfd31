// Package main is the command-line entry point of CarPlayer.
//
// It scans the configured music folders, builds the library index and
// prints the groups. With -group it selects a group and starts playback
// until interrupted; with -dump it writes the index as YAML.
//
// Build:
//
//	go build -o build/carplayer ./cmd/carplayer
//
// Run:
//
//	./build/carplayer -library ~/Music -group Beatles
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tejashwikalptaru/carplayer/internal/app"
	"github.com/tejashwikalptaru/carplayer/internal/config"
	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/location"
)

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "carplayer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		libraries   stringList
		dump        bool
		group       string
		engine      string
		replayPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.Var(&libraries, "library", "Music folder to scan (repeatable, overrides the config)")
	flag.BoolVar(&dump, "dump", false, "Write the library index as YAML to stdout")
	flag.StringVar(&group, "group", "", "Short name of a group to play")
	flag.StringVar(&engine, "engine", "", "Audio engine: beep or mock (overrides the config)")
	flag.StringVar(&replayPath, "replay", "", "YAML file of recorded location fixes")
	flag.BoolVar(&showVersion, "version", false, "Print the version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(app.GetVersionInfo().FullString())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(libraries) > 0 {
		cfg.Library.Paths = libraries
	}
	if engine != "" {
		cfg.Audio.Engine = strings.ToLower(engine)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	if replayPath != "" {
		replay, err := loadReplay(replayPath)
		if err != nil {
			return err
		}
		opts = append(opts, app.WithLocationProvider(replay))
	}

	application, err := app.NewApplication(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	stats := application.ScanStats()
	fmt.Fprintf(os.Stderr, "scanned %s files: %s tracks, %s playlists, %s unreadable tags\n",
		humanize.Comma(int64(stats.Files)), humanize.Comma(int64(stats.Tracks)),
		humanize.Comma(int64(stats.Playlists)), humanize.Comma(int64(stats.TagErrors)))

	bus := application.EventBus()
	bus.Subscribe(domain.EventIndexProgress, func(event domain.Event) {
		if e, ok := event.(domain.IndexProgressEvent); ok {
			fmt.Fprintf(os.Stderr, "\rindexing %3d%%", e.Progress.Percentage())
		}
	})

	// The tracker starts with the application; readouts go out from its first fix.
	if group != "" {
		printPlayback(os.Stdout, application)
	}

	if err := application.Start(); err != nil {
		return err
	}
	if err := application.WaitUntilIndexed(ctx); err != nil {
		return err
	}

	summary, _ := application.Library().Summary()
	fmt.Fprintf(os.Stderr, "\rindexed %s tracks in %s albums and %s groups (%s)\n",
		humanize.Comma(int64(summary.Tracks)), humanize.Comma(int64(summary.Albums)),
		humanize.Comma(int64(summary.Groups)), summary.Duration.Round(time.Millisecond))

	idx := application.Library().Index()
	if dump {
		return idx.WriteYAML(os.Stdout)
	}

	if group == "" {
		printGroups(os.Stdout, application)
		return nil
	}

	return play(ctx, os.Stdout, application, group)
}

func printGroups(w io.Writer, application *app.Application) {
	idx := application.Library().Index()
	for _, short := range idx.SortedGroupShortNames() {
		key := idx.Group(short)
		fmt.Fprintf(w, "%-30s %4s albums %6s tracks\n", key.String(),
			humanize.Comma(int64(idx.AlbumCount(key))),
			humanize.Comma(int64(idx.GroupTrackCount(key))))
	}
}

// printPlayback writes song changes and, unless the display is off,
// location readouts to w.
func printPlayback(w io.Writer, application *app.Application) {
	application.Library().SubscribeNowPlaying(func(e domain.NowPlayingChangedEvent) {
		if e.Exists {
			fmt.Fprintf(w, "now playing %d: %s - %s\n", e.Index+1, e.Track.Artist, e.Track.Title)
		}
	})

	settings := application.Settings()
	if settings.DisplayMode() != domain.DisplayOff {
		application.EventBus().Subscribe(domain.EventLocationUpdated, func(event domain.Event) {
			if e, ok := event.(domain.LocationUpdatedEvent); ok {
				printReadout(w, settings.DisplayMode(), e.Readout)
			}
		})
	}
}

func play(ctx context.Context, w io.Writer, application *app.Application, group string) error {
	state, tracks, err := application.PlayGroup(group)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d tracks queued (selection %s)\n", group, len(tracks), state)

	<-ctx.Done()
	return ignoreCanceled(ctx.Err())
}

func printReadout(w io.Writer, mode domain.DisplayMode, r domain.LocationReadout) {
	if mode == domain.DisplayAll {
		fmt.Fprintf(w, "%s km/h  %s  %s  %s  %s\n", r.SpeedText, r.Latitude, r.Longitude, r.Altitude, r.Course)
		return
	}
	fmt.Fprintf(w, "%s km/h\n", r.SpeedText)
}

func loadReplay(path string) (*location.Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return location.LoadReplay(f, location.DefaultReplayInterval)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
