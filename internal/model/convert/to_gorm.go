// Package convert turns run results into GORM models and back
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dronedata/camerapos/internal/geo"
	"github.com/dronedata/camerapos/internal/model"
	"github.com/dronedata/camerapos/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// position2DToPoint stores east/north as a 2D point; elevation has its own column
func position2DToPoint(p core.Position3D) (geom.Point, error) {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.X, Y: p.Y}})
}

// settingsToJSON converts run settings to datatypes.JSON for DB storage.
func settingsToJSON(settings map[string]any) datatypes.JSON {
	if len(settings) == 0 {
		return datatypes.JSON("{}")
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// CoreToRun converts a core.Run to a GORM model.Run.
func CoreToRun(r core.Run) (model.Run, error) {
	track, err := geo.TrackLine(r.Track)
	if err != nil {
		return model.Run{}, err
	}
	return model.Run{
		ID:             r.ID,
		UUID:           r.RunID,
		StartTime:      r.StartTime,
		Directory:      r.Directory,
		TrajectoryFile: r.TrajectoryFile,
		CaptureLogFile: r.CaptureLogFile,
		ImageCount:     r.ImageCount,
		Settings:       settingsToJSON(r.Settings),
		Track:          track,
	}, nil
}

// CoreToCameraPosition converts a matched image to a GORM model.CameraPosition.
func CoreToCameraPosition(runID uint, seq int, m core.MatchedImage) (model.CameraPosition, error) {
	pos, err := position2DToPoint(m.Position())
	if err != nil {
		return model.CameraPosition{}, fmt.Errorf("image %s: %w", m.Filename, err)
	}
	var exifTime sql.NullTime
	if !m.ExifTime.IsZero() {
		exifTime = sql.NullTime{Time: m.ExifTime, Valid: true}
	}
	return model.CameraPosition{
		RunID:       runID,
		Seq:         seq,
		Filename:    m.Filename,
		ImageID:     m.ImageID,
		Position:    pos,
		Elevation:   m.Elevation,
		CaptureHour: m.CaptureHour,
		CameraModel: m.CameraModel,
		ExifTime:    exifTime,
	}, nil
}

// CoreToUnmatchedImage converts a diagnostic to a GORM model.UnmatchedImage.
func CoreToUnmatchedImage(runID uint, seq int, d core.Diagnostic) model.UnmatchedImage {
	details := map[string]string{}
	if d.Err != nil {
		details["error"] = d.Err.Error()
	}
	data, _ := json.Marshal(details)
	return model.UnmatchedImage{
		RunID:    runID,
		Seq:      seq,
		Filename: d.Filename,
		ImageID:  d.ImageID,
		Reason:   d.Reason,
		Details:  datatypes.JSON(data),
	}
}
