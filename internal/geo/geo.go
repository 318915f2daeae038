package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/dronedata/camerapos/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// WGS84 is the EPSG code of geographic longitude/latitude output.
const WGS84 = 4326

// ErrInvalidCoordinates is returned when a transform produces no usable coordinates
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PointFromPosition converts a position to an XYZ point.
func PointFromPosition(p core.Position3D) (geom.Point, error) {
	pt, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Z:    p.Z,
		Type: geom.DimXYZ,
	})
	if err != nil {
		return geom.Point{}, fmt.Errorf("point (%g, %g, %g): %w", p.X, p.Y, p.Z, err)
	}
	return pt, nil
}

// TrackLine builds an XYZ line string through the positions, in order.
// Fewer than two positions give an empty line.
func TrackLine(track []core.Position3D) (geom.LineString, error) {
	if len(track) < 2 {
		return geom.LineString{}, nil
	}
	flat := make([]float64, 0, len(track)*3)
	for _, p := range track {
		flat = append(flat, p.X, p.Y, p.Z)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("flight line of %d positions: %w", len(track), err)
	}
	return ls, nil
}

// Reprojector converts projected east/north coordinates to WGS84 longitude/latitude.
// Elevations pass through unchanged.
type Reprojector struct {
	source int
	fn     func(a, b, c float64) (float64, float64, float64)
}

// NewReprojector prepares a transform from the given EPSG code to EPSG:4326.
func NewReprojector(sourceEPSG int) (*Reprojector, error) {
	if sourceEPSG <= 0 {
		return nil, fmt.Errorf("invalid source EPSG code %d", sourceEPSG)
	}
	epsg := wgs84.EPSG()
	return &Reprojector{
		source: sourceEPSG,
		fn:     epsg.Transform(sourceEPSG, WGS84),
	}, nil
}

// ToWGS84 reprojects one position.
func (r *Reprojector) ToWGS84(p core.Position3D) (core.Position3D, error) {
	lon, lat, _ := r.fn(p.X, p.Y, p.Z)
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return core.Position3D{}, fmt.Errorf("EPSG:%d (%g, %g): %w", r.source, p.X, p.Y, ErrInvalidCoordinates)
	}
	return core.Position3D{X: lon, Y: lat, Z: p.Z}, nil
}
