package location

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// DefaultReplayInterval is the pause between two replayed fixes.
const DefaultReplayInterval = time.Second

// Replay is a location provider that plays back recorded fixes.
type Replay struct {
	fixes    []ports.LocationFix
	interval time.Duration
}

// recordedFix is the YAML form of a fix. Missing speed and course are
// unknown rather than zero.
type recordedFix struct {
	Speed     *float64 `yaml:"speed"`
	Latitude  float64  `yaml:"lat"`
	Longitude float64  `yaml:"lon"`
	Altitude  float64  `yaml:"alt"`
	Course    *float64 `yaml:"course"`
}

// NewReplay creates a replay of fixes, one per interval. A non-positive
// interval selects DefaultReplayInterval.
func NewReplay(fixes []ports.LocationFix, interval time.Duration) *Replay {
	if interval <= 0 {
		interval = DefaultReplayInterval
	}
	return &Replay{fixes: fixes, interval: interval}
}

// LoadReplay reads a YAML list of fixes:
//
//	- {lat: 53.8417, lon: 10.6912, alt: 12, speed: 13.9, course: 271}
func LoadReplay(r io.Reader, interval time.Duration) (*Replay, error) {
	var recorded []recordedFix
	if err := yaml.NewDecoder(r).Decode(&recorded); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode recorded fixes: %w", err)
	}

	fixes := make([]ports.LocationFix, 0, len(recorded))
	for _, rec := range recorded {
		fix := ports.LocationFix{
			Speed:     -1,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Altitude:  rec.Altitude,
			Course:    -1,
		}
		if rec.Speed != nil {
			fix.Speed = *rec.Speed
		}
		if rec.Course != nil {
			fix.Course = *rec.Course
		}
		fixes = append(fixes, fix)
	}

	return NewReplay(fixes, interval), nil
}

// Len returns the number of recorded fixes.
func (r *Replay) Len() int {
	return len(r.fixes)
}

// Start delivers the first fix immediately and the others one interval
// apart. After the last fix it waits for ctx to be done.
func (r *Replay) Start(ctx context.Context, onFix func(ports.LocationFix)) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for i, fix := range r.fixes {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		onFix(fix)
	}

	<-ctx.Done()
	return ctx.Err()
}

var _ ports.LocationProvider = (*Replay)(nil)
