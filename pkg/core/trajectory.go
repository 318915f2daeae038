// pkg/core/trajectory.go
package core

// TrajectorySample is one epoch of the post-processed GPS solution.
// TimeHours is unwrapped across midnight and never decreases along a Trajectory.
type TrajectorySample struct {
	TimeSeconds float64
	TimeHours   float64
	East        float64
	North       float64
	Elevation   float64
}

// Position returns the sample's coordinates.
func (s TrajectorySample) Position() Position3D {
	return Position3D{X: s.East, Y: s.North, Z: s.Elevation}
}

// Trajectory is the ordered, rollover-unwrapped sample sequence of one positioning file.
// It is built once per run and only read afterwards.
type Trajectory struct {
	Source  string
	Units   string
	Samples []TrajectorySample
}

// Len returns the number of samples.
func (t Trajectory) Len() int {
	return len(t.Samples)
}

// Hours returns the unwrapped sample times in trajectory order.
func (t Trajectory) Hours() []float64 {
	hours := make([]float64, len(t.Samples))
	for i, s := range t.Samples {
		hours[i] = s.TimeHours
	}
	return hours
}

// CaptureLog holds the shutter events of one .MRK file as three parallel slices
// indexed consistently. Hours are unwrapped like trajectory times.
type CaptureLog struct {
	Source  string
	IDs     []int
	Hours   []float64
	Offsets []Offset
}

// Len returns the number of capture entries.
func (c CaptureLog) Len() int {
	return len(c.IDs)
}

// Lookup returns the index of the first entry with the given image id.
func (c CaptureLog) Lookup(id int) (int, bool) {
	for i, v := range c.IDs {
		if v == id {
			return i, true
		}
	}
	return -1, false
}
