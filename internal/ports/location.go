package ports

import (
	"context"
)

// LocationFix is a single reading of a location provider.
// Negative Speed or Course values mean the reading is not valid.
type LocationFix struct {
	Speed     float64 // meters per second
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
	Altitude  float64 // meters
	Course    float64 // degrees clockwise from north
}

// LocationProvider delivers location fixes until the context is done.
type LocationProvider interface {
	// Start blocks, calling onFix for every fix, and returns when ctx is
	// canceled or the provider fails.
	Start(ctx context.Context, onFix func(LocationFix)) error
}
