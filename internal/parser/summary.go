package parser

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/dronedata/camerapos/pkg/core"
)

// TrajectorySummary describes the coverage and sampling of a trajectory.
type TrajectorySummary struct {
	Samples         int
	StartHour       float64
	EndHour         float64
	MeanIntervalSec float64
	MaxIntervalSec  float64
}

// Summarize reports the time span and sampling intervals of a trajectory.
func Summarize(t core.Trajectory) TrajectorySummary {
	s := TrajectorySummary{Samples: t.Len()}
	if t.Len() == 0 {
		return s
	}
	hours := t.Hours()
	s.StartHour = hours[0]
	s.EndHour = hours[len(hours)-1]
	if len(hours) < 2 {
		return s
	}

	intervals := make([]float64, len(hours)-1)
	for i := 1; i < len(hours); i++ {
		intervals[i-1] = (hours[i] - hours[i-1]) * 3600.0
	}
	s.MeanIntervalSec = stat.Mean(intervals, nil)
	s.MaxIntervalSec = floats.Max(intervals)
	return s
}
