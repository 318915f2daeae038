package convert

import (
	"github.com/dronedata/camerapos/internal/model"
	"github.com/dronedata/camerapos/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// pointToPosition2D converts a stored 2D point to a position without elevation
func pointToPosition2D(p geom.Point) core.Position3D {
	coord, ok := p.Coordinates()
	if !ok {
		return core.Position3D{}
	}
	return core.Position3D{X: coord.XY.X, Y: coord.XY.Y}
}

// CameraPositionToCore converts a stored row back to a matched image.
func CameraPositionToCore(c model.CameraPosition) core.MatchedImage {
	pos := pointToPosition2D(c.Position)
	m := core.MatchedImage{
		Filename:    c.Filename,
		ImageID:     c.ImageID,
		East:        pos.X,
		North:       pos.Y,
		Elevation:   c.Elevation,
		CaptureHour: c.CaptureHour,
		CameraModel: c.CameraModel,
	}
	if c.ExifTime.Valid {
		m.ExifTime = c.ExifTime.Time
	}
	return m
}
