package location

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// Tracker feeds the fixes of a location provider through a formatter and
// publishes every readout as a domain.LocationUpdatedEvent.
//
// Thread-safe: All operations protected by sync.RWMutex.
type Tracker struct {
	logger    *slog.Logger
	provider  ports.LocationProvider
	formatter Formatter
	bus       ports.EventBus

	mu    sync.RWMutex
	last  domain.LocationReadout
	fixes int
}

// NewTracker creates a tracker. Until the first fix arrives Last returns
// the formatter's default readout.
func NewTracker(logger *slog.Logger, provider ports.LocationProvider, formatter Formatter, bus ports.EventBus) *Tracker {
	return &Tracker{
		logger:    logger.With(slog.String("component", "location")),
		provider:  provider,
		formatter: formatter,
		bus:       bus,
		last:      formatter.DefaultReadout(),
	}
}

// Run publishes the default readout, then blocks while the provider
// delivers fixes. It returns nil once ctx is canceled.
func (t *Tracker) Run(ctx context.Context) error {
	t.bus.Publish(domain.NewLocationUpdatedEvent(t.Last()))

	err := t.provider.Start(ctx, t.handleFix)
	if err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Error("location provider failed", slog.Any("error", err))
		return err
	}

	t.logger.Debug("location tracking stopped", slog.Int("fixes", t.Fixes()))
	return nil
}

func (t *Tracker) handleFix(fix ports.LocationFix) {
	readout := t.formatter.Format(fix)

	t.mu.Lock()
	t.last = readout
	t.fixes++
	t.mu.Unlock()

	t.bus.Publish(domain.NewLocationUpdatedEvent(readout))
}

// Last returns the most recent readout.
func (t *Tracker) Last() domain.LocationReadout {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Fixes returns the number of fixes received.
func (t *Tracker) Fixes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fixes
}
