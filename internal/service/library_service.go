// Package service provides the application services of CarPlayer.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/library"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// LibraryService owns the library index and runs its one-time build on a
// background goroutine, reporting progress through the event bus.
//
// Thread-safe: All operations protected by sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	bus    ports.EventBus

	index *library.Index

	// State
	started     bool
	indexing    bool
	lastPercent int
	summary     domain.IndexSummary
	buildErr    error
	finished    chan struct{}

	// Concurrency control
	mu sync.RWMutex
	wg sync.WaitGroup
}

// NewLibraryService creates the library index over a track source and a
// playback engine. The options are passed on to library.New.
func NewLibraryService(
	logger *slog.Logger,
	source ports.TrackSource,
	engine ports.PlaybackEngine,
	bus ports.EventBus,
	opts ...library.Option,
) *LibraryService {
	s := &LibraryService{
		logger:      logger.With(slog.String("service", "library")),
		bus:         bus,
		lastPercent: -1,
		finished:    make(chan struct{}),
	}

	opts = append(opts, library.WithProgressObserver(s.onProgress))
	s.index = library.New(logger, source, engine, opts...)

	s.logger.Debug("library service initialized")
	return s
}

// Index returns the library index. Its queries may only be used once
// WaitUntilIndexed has returned nil.
func (s *LibraryService) Index() *library.Index {
	return s.index
}

// StartIndexing starts the index build in the background. It returns
// domain.ErrIndexingInProgress while a build runs and
// domain.ErrIndexAlreadyBuilt afterwards.
func (s *LibraryService) StartIndexing() error {
	s.mu.Lock()
	if s.started {
		indexing := s.indexing
		s.mu.Unlock()
		if indexing {
			return domain.ErrIndexingInProgress
		}
		return domain.ErrIndexAlreadyBuilt
	}
	s.started = true
	s.indexing = true
	s.mu.Unlock()

	s.logger.Info("indexing started")
	s.bus.Publish(domain.NewIndexStartedEvent())

	s.wg.Add(1)
	go s.run()

	return nil
}

func (s *LibraryService) run() {
	defer s.wg.Done()

	start := time.Now()
	err := s.index.Build()

	var summary domain.IndexSummary
	if err == nil {
		summary = domain.IndexSummary{
			Groups:   len(s.index.Groups()),
			Albums:   s.index.DistinctAlbumCount(),
			Tracks:   s.index.PlayableTrackCount(),
			Duration: time.Since(start),
		}
		s.logger.Info("indexing completed",
			slog.Int("groups", summary.Groups),
			slog.Int("albums", summary.Albums),
			slog.Int("tracks", summary.Tracks),
			slog.Duration("elapsed", summary.Duration))
	} else {
		err = domain.NewServiceError("LibraryService", "StartIndexing", "index build failed", err)
		s.logger.Error("indexing failed", slog.Any("error", err))
	}

	s.mu.Lock()
	s.indexing = false
	s.summary = summary
	s.buildErr = err
	s.mu.Unlock()
	close(s.finished)

	s.bus.Publish(domain.NewIndexCompletedEvent(summary, err))
}

// onProgress runs on the building goroutine and publishes one progress
// event per whole percent.
func (s *LibraryService) onProgress(fraction float64) {
	percent := int(fraction * 100)

	s.mu.Lock()
	if percent <= s.lastPercent {
		s.mu.Unlock()
		return
	}
	s.lastPercent = percent
	s.mu.Unlock()

	s.bus.Publish(domain.NewIndexProgressEvent(domain.IndexProgress{
		Fraction:    fraction,
		TracksTotal: s.index.TracksTotal(),
	}))
}

// WaitUntilIndexed blocks until the build started by StartIndexing has
// finished or ctx is done. It returns the build error, if any.
func (s *LibraryService) WaitUntilIndexed(ctx context.Context) error {
	select {
	case <-s.finished:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.buildErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsIndexing reports whether a build is running.
func (s *LibraryService) IsIndexing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexing
}

// IsIndexed reports whether the index is complete.
func (s *LibraryService) IsIndexed() bool {
	return s.index.IsBuilt()
}

// Progress returns the build progress in [0, 1].
func (s *LibraryService) Progress() float64 {
	return s.index.Progress()
}

// Summary returns the totals of the completed build and its error, if any.
func (s *LibraryService) Summary() (domain.IndexSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary, s.buildErr
}

// SubscribeNowPlaying registers a handler for now playing changes so a
// presentation layer can refresh itself.
func (s *LibraryService) SubscribeNowPlaying(handler func(domain.NowPlayingChangedEvent)) domain.SubscriptionID {
	return s.bus.Subscribe(domain.EventNowPlayingChanged, func(event domain.Event) {
		if e, ok := event.(domain.NowPlayingChangedEvent); ok {
			handler(e)
		}
	})
}

// Unsubscribe removes a subscription made with SubscribeNowPlaying.
func (s *LibraryService) Unsubscribe(id domain.SubscriptionID) {
	s.bus.Unsubscribe(id)
}

// Shutdown waits for a running build to finish. The build has no
// cancellation point, so this blocks for at most one build.
func (s *LibraryService) Shutdown() error {
	s.wg.Wait()
	s.logger.Debug("library service shut down")
	return nil
}
