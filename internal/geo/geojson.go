package geo

import (
	"fmt"

	"github.com/dronedata/camerapos/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// FeatureCollection builds a GeoJSON feature per matched image, in order, plus
// a trailing flight line feature when track has at least two positions.
// With a non-nil reprojector every coordinate is converted to WGS84 first.
func FeatureCollection(rows []core.MatchedImage, track []core.Position3D, rp *Reprojector) (geom.GeoJSONFeatureCollection, error) {
	project := func(p core.Position3D) (core.Position3D, error) {
		if rp == nil {
			return p, nil
		}
		return rp.ToWGS84(p)
	}

	fc := make(geom.GeoJSONFeatureCollection, 0, len(rows)+1)
	for _, row := range rows {
		pos, err := project(row.Position())
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", row.Filename, err)
		}
		props := map[string]interface{}{
			"filename":    row.Filename,
			"imageId":     row.ImageID,
			"captureHour": row.CaptureHour,
		}
		if row.CameraModel != "" {
			props["cameraModel"] = row.CameraModel
		}
		if !row.ExifTime.IsZero() {
			props["exifTime"] = row.ExifTime.Format("2006-01-02T15:04:05")
		}
		pt, err := PointFromPosition(pos)
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", row.Filename, err)
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:         row.ImageID,
			Geometry:   pt.AsGeometry(),
			Properties: props,
		})
	}

	if len(track) >= 2 {
		projected := make([]core.Position3D, len(track))
		for i, p := range track {
			pp, err := project(p)
			if err != nil {
				return nil, fmt.Errorf("flight line: %w", err)
			}
			projected[i] = pp
		}
		line, err := TrackLine(projected)
		if err != nil {
			return nil, err
		}
		fc = append(fc, geom.GeoJSONFeature{
			Geometry:   line.AsGeometry(),
			Properties: map[string]interface{}{"kind": "flight line"},
		})
	}
	return fc, nil
}
