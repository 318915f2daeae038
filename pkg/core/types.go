// pkg/core/types.go
package core

// Position3D is a point in the projected frame of the trajectory.
type Position3D struct {
	X float64 `json:"x"` // easting
	Y float64 `json:"y"` // northing
	Z float64 `json:"z"` // elevation
}

// Offset is the antenna-to-camera offset of one exposure, in millimetres.
// The three components are always applied together.
type Offset struct {
	EastMM  float64 `json:"eastMm"`
	NorthMM float64 `json:"northMm"`
	ElevMM  float64 `json:"elevMm"`
}
