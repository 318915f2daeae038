// pkg/core/run.go
package core

import "time"

// MatchedImage is one output row: an image and its corrected camera position.
type MatchedImage struct {
	Filename  string
	ImageID   int
	East      float64
	North     float64
	Elevation float64

	// CaptureHour is the unwrapped capture time used for the interpolation.
	CaptureHour float64

	// Optional EXIF enrichment, never part of the CSV rows.
	CameraModel string
	ExifTime    time.Time
}

// Position returns the corrected camera position.
func (m MatchedImage) Position() Position3D {
	return Position3D{X: m.East, Y: m.North, Z: m.Elevation}
}

// Diagnostic reasons for images that could not be positioned.
const (
	ReasonInvalidID  = "invalid image identifier"
	ReasonNoCapture  = "no capture entry"
	ReasonOutOfRange = "time outside trajectory range"
)

// Diagnostic describes a non-fatal per-image failure.
type Diagnostic struct {
	Filename string
	ImageID  int // -1 when no id could be extracted
	Reason   string
	Err      error
}

// Result is the outcome of correlating a batch of images.
// Both slices follow the order of the input images.
type Result struct {
	Matched   []MatchedImage
	Unmatched []Diagnostic
}

// Success reports whether at least one image was positioned.
func (r Result) Success() bool {
	return len(r.Matched) > 0
}

// Run describes one geotagging run as seen by storage backends.
type Run struct {
	ID             uint
	RunID          string
	StartTime      time.Time
	Directory      string
	TrajectoryFile string
	CaptureLogFile string
	ImageCount     int
	Settings       map[string]any

	// Track is the trajectory path in sample order, for map exports.
	Track []Position3D
}
