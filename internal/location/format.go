// Package location turns raw location fixes into the dashboard readout
// and publishes it on the event bus.
package location

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tejashwikalptaru/carplayer/internal/domain"
	"github.com/tejashwikalptaru/carplayer/internal/ports"
)

// Placeholders shown while no valid reading is available.
const (
	UnknownSpeedKmh = -1
	UnknownSpeed    = "--"
	UnknownAltitude = "-- m"
	UnknownCourse   = "---°"
)

// Formatter renders location fixes. With GermanDecimals the decimal
// separator is a comma.
type Formatter struct {
	GermanDecimals bool
}

// Format renders a fix. A speed of zero or below is shown as unknown, as
// is a negative course.
func (f Formatter) Format(fix ports.LocationFix) domain.LocationReadout {
	readout := domain.LocationReadout{
		SpeedKmh:  UnknownSpeedKmh,
		SpeedText: UnknownSpeed,
		Latitude:  f.Coordinate(fix.Latitude, 'N', 'S'),
		Longitude: f.Coordinate(fix.Longitude, 'E', 'W'),
		Altitude:  f.decimal(fmt.Sprintf("%.0f", fix.Altitude)) + " m",
		Course:    UnknownCourse,
	}

	if fix.Speed > 0 {
		readout.SpeedKmh = int(fix.Speed * 3.6)
		readout.SpeedText = strconv.Itoa(readout.SpeedKmh)
	}
	if fix.Course >= 0 {
		readout.Course = f.decimal(fmt.Sprintf("%.0f", fix.Course)) + "°"
	}

	return readout
}

// DefaultReadout returns the readout shown before the first fix.
func (f Formatter) DefaultReadout() domain.LocationReadout {
	sep := f.separator()
	return domain.LocationReadout{
		SpeedKmh:  UnknownSpeedKmh,
		SpeedText: UnknownSpeed,
		Latitude:  "---° --" + sep + "-' N",
		Longitude: "---° --" + sep + "-' E",
		Altitude:  UnknownAltitude,
		Course:    UnknownCourse,
	}
}

// Coordinate renders degrees as "DDD° MM.T' H": three-digit degrees,
// two-digit minutes and tenths of a minute, all truncated, followed by
// the hemisphere letter.
func (f Formatter) Coordinate(value float64, positive, negative byte) string {
	hemisphere := positive
	if value < 0 {
		hemisphere = negative
		value = -value
	}

	degrees := math.Floor(value)
	minutes := (value - degrees) * 60
	wholeMinutes := math.Floor(minutes)
	tenths := math.Floor((minutes - wholeMinutes) * 10)

	return fmt.Sprintf("%03d° %02d%s%d' %c",
		int(degrees), int(wholeMinutes), f.separator(), int(tenths), hemisphere)
}

func (f Formatter) separator() string {
	if f.GermanDecimals {
		return ","
	}
	return "."
}

func (f Formatter) decimal(s string) string {
	if f.GermanDecimals {
		return strings.ReplaceAll(s, ".", ",")
	}
	return s
}
