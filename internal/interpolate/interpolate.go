// Package interpolate positions a capture instant on a trajectory.
package interpolate

import (
	"fmt"
	"sort"

	"github.com/dronedata/camerapos/pkg/core"
)

// mmPerMetre converts capture-log offsets into trajectory units.
// Trajectory coordinates are asserted to be metres when the trajectory is parsed.
const mmPerMetre = 1000.0

// Search selects how the bracketing sample pair is located.
type Search string

const (
	// Linear scans sample pairs in order.
	Linear Search = "linear"
	// Binary bisects the unwrapped times. Results are identical to Linear.
	Binary Search = "binary"
)

// ParseSearch validates a configured search strategy name.
func ParseSearch(s string) (Search, error) {
	switch Search(s) {
	case Linear, "":
		return Linear, nil
	case Binary:
		return Binary, nil
	default:
		return "", fmt.Errorf("unknown interpolation search %q (want %q or %q)", s, Linear, Binary)
	}
}

// RangeError is returned when a query time is not covered by the trajectory.
type RangeError struct {
	Hour  float64
	First float64
	Last  float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("time %.6fh not within trajectory range [%.6fh, %.6fh)", e.Hour, e.First, e.Last)
}

// Interpolate returns the offset-corrected position at queryHour using a linear scan.
func Interpolate(queryHour float64, trajectory core.Trajectory, offset core.Offset) (core.Position3D, error) {
	return Linear.Interpolate(queryHour, trajectory, offset)
}

// Interpolate returns the offset-corrected position at queryHour.
//
// For the first pair (i-1, i) with t[i-1] < q < t[i] the position is blended linearly;
// when t[i-1] == q the sample i-1 is used as is. A query equal to the last sample's
// time is never matched and yields a RangeError, as does any query outside the samples.
func (s Search) Interpolate(queryHour float64, trajectory core.Trajectory, offset core.Offset) (core.Position3D, error) {
	var (
		pos core.Position3D
		ok  bool
	)
	if s == Binary {
		pos, ok = bisect(queryHour, trajectory.Samples)
	} else {
		pos, ok = scan(queryHour, trajectory.Samples)
	}
	if !ok {
		return core.Position3D{}, rangeError(queryHour, trajectory.Samples)
	}
	return applyOffset(pos, offset), nil
}

func scan(q float64, samples []core.TrajectorySample) (core.Position3D, bool) {
	for i := 1; i < len(samples); i++ {
		before, after := samples[i-1], samples[i]
		if before.TimeHours < q && q < after.TimeHours {
			return blend(before, after, q), true
		}
		if before.TimeHours == q {
			return before.Position(), true
		}
	}
	return core.Position3D{}, false
}

func bisect(q float64, samples []core.TrajectorySample) (core.Position3D, bool) {
	n := len(samples)
	if n < 2 {
		return core.Position3D{}, false
	}
	// first sample at or after q
	j := sort.Search(n, func(i int) bool { return samples[i].TimeHours >= q })
	switch {
	case j <= n-2 && samples[j].TimeHours == q:
		return samples[j].Position(), true
	case j >= 1 && j <= n-1 && q < samples[j].TimeHours:
		return blend(samples[j-1], samples[j], q), true
	default:
		return core.Position3D{}, false
	}
}

func blend(before, after core.TrajectorySample, q float64) core.Position3D {
	weight := (q - before.TimeHours) / (after.TimeHours - before.TimeHours)
	return core.Position3D{
		X: before.East + (after.East-before.East)*weight,
		Y: before.North + (after.North-before.North)*weight,
		Z: before.Elevation + (after.Elevation-before.Elevation)*weight,
	}
}

// applyOffset adds the horizontal offsets and subtracts the vertical one.
func applyOffset(p core.Position3D, o core.Offset) core.Position3D {
	return core.Position3D{
		X: p.X + o.EastMM/mmPerMetre,
		Y: p.Y + o.NorthMM/mmPerMetre,
		Z: p.Z - o.ElevMM/mmPerMetre,
	}
}

func rangeError(q float64, samples []core.TrajectorySample) *RangeError {
	e := &RangeError{Hour: q}
	if len(samples) > 0 {
		e.First = samples[0].TimeHours
		e.Last = samples[len(samples)-1].TimeHours
	}
	return e
}
