// Package imagemeta reads camera metadata embedded in the images.
package imagemeta

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/dronedata/camerapos/pkg/core"
)

// Metadata is the subset of EXIF used to annotate matched images.
type Metadata struct {
	CameraModel string
	Taken       time.Time
}

// Read decodes the EXIF block of an image. A missing capture time or camera
// model is not an error; only an unreadable file or EXIF block is.
func Read(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open+r exif '%s': %w", path, err)
	}
	defer f.Close()

	ex, err := exif.Decode(f)
	if err != nil {
		return Metadata{}, fmt.Errorf("exif parsing '%s': %w", path, err)
	}

	var md Metadata
	if tag, err := ex.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			md.CameraModel = strings.TrimRight(s, "\x00 ")
		}
	}
	if t, err := ex.DateTime(); err == nil {
		md.Taken = t
	}
	return md, nil
}

// Enrich annotates matched images in place with their EXIF metadata.
// pathOf maps an output filename to the file on disk. Unreadable images keep
// empty metadata and are counted in the returned total.
func Enrich(logger *slog.Logger, matched []core.MatchedImage, pathOf func(string) string) int {
	if logger == nil {
		logger = slog.Default()
	}
	failed := 0
	for i := range matched {
		md, err := Read(pathOf(matched[i].Filename))
		if err != nil {
			failed++
			logger.Debug("No EXIF metadata", "image", matched[i].Filename, "error", err)
			continue
		}
		matched[i].CameraModel = md.CameraModel
		matched[i].ExifTime = md.Taken
	}
	if failed > 0 {
		logger.Warn("EXIF metadata unavailable for some images", "count", failed)
	}
	return failed
}
