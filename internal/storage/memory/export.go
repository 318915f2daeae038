// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dronedata/camerapos/internal/geo"
	"github.com/dronedata/camerapos/internal/storage"
	"github.com/dronedata/camerapos/pkg/core"
)

// GeoJSONPath derives the export path from the coordinates file path.
func GeoJSONPath(coordinatesPath string, compress bool) string {
	base := strings.TrimSuffix(coordinatesPath, filepath.Ext(coordinatesPath))
	if compress {
		return base + ".geojson.gz"
	}
	return base + ".geojson"
}

// exportGeoJSON writes the matched positions and the flight line as a FeatureCollection
func (b *Backend) exportGeoJSON() (string, error) {
	path := GeoJSONPath(b.CoordinatesPath(), b.cfg.Compress)

	var rp *geo.Reprojector
	if b.cfg.SourceEPSG > 0 {
		var err error
		rp, err = geo.NewReprojector(b.cfg.SourceEPSG)
		if err != nil {
			return "", &storage.WriteError{Backend: "memory", Target: path, Err: err}
		}
	}

	var track []core.Position3D
	if b.run != nil {
		track = b.run.Track
	}
	fc, err := geo.FeatureCollection(b.matched, track, rp)
	if err != nil {
		return "", &storage.WriteError{Backend: "memory", Target: path, Err: err}
	}

	if b.cfg.Compress {
		err = writeGzipJSON(path, fc)
	} else {
		err = writeJSON(path, fc)
	}
	if err != nil {
		return "", &storage.WriteError{Backend: "memory", Target: path, Err: err}
	}
	return path, nil
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := encode(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	gzWriter := gzip.NewWriter(f)
	if err := encode(gzWriter, data); err != nil {
		gzWriter.Close()
		f.Close()
		return err
	}
	if err := gzWriter.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	return encoder.Encode(data)
}
