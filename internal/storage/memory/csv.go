package memory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dronedata/camerapos/internal/storage"
	"github.com/dronedata/camerapos/pkg/core"
)

// FormatCoord renders a coordinate without exponent. precision -1 gives the
// shortest text that parses back to the same float64.
func FormatCoord(v float64, precision int) string {
	if precision < 0 {
		precision = -1
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// WriteRows writes one "filename,east,north,elevation" record per row, without a header.
func WriteRows(w io.Writer, rows []core.MatchedImage, precision int) error {
	cw := csv.NewWriter(w)
	for _, r := range rows {
		rec := []string{
			r.Filename,
			FormatCoord(r.East, precision),
			FormatCoord(r.North, precision),
			FormatCoord(r.Elevation, precision),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeCoordinatesFile(path string, rows []core.MatchedImage, precision int) error {
	f, err := os.Create(path)
	if err != nil {
		return &storage.WriteError{Backend: "memory", Target: path, Err: err}
	}

	if err := WriteRows(f, rows, precision); err != nil {
		f.Close()
		return &storage.WriteError{Backend: "memory", Target: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &storage.WriteError{Backend: "memory", Target: path, Err: fmt.Errorf("failed to close file: %w", err)}
	}
	return nil
}
