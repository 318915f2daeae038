// internal/storage/memory/memory.go
package memory

import (
	"path/filepath"
	"sync"

	"github.com/dronedata/camerapos/pkg/core"
)

// Config holds memory backend settings
type Config struct {
	OutputDir  string // empty means the working directory
	File       string // coordinates file name
	Precision  int    // digits after the decimal point, -1 for shortest exact
	GeoJSON    bool
	Compress   bool // gzip the GeoJSON export
	SourceEPSG int  // reproject the GeoJSON export to WGS84 when set
}

// Backend buffers run results in memory and writes the output files when the run ends
type Backend struct {
	cfg     Config
	run     *core.Run
	matched []core.MatchedImage
	written []string

	mu sync.Mutex
}

// New creates a new memory backend
func New(cfg Config) *Backend {
	if cfg.File == "" {
		cfg.File = "Camera_coords.txt"
	}
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins buffering a new run
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.run = run
	b.matched = nil
	b.written = nil
	return nil
}

// RecordMatch buffers one output row
func (b *Backend) RecordMatch(m *core.MatchedImage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.matched = append(b.matched, *m)
	return nil
}

// RecordUnmatched is a no-op; the coordinates file lists matched images only
func (b *Backend) RecordUnmatched(*core.Diagnostic) error {
	return nil
}

// EndRun writes the coordinates file and, if enabled, the GeoJSON export
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.CoordinatesPath()
	if err := writeCoordinatesFile(path, b.matched, b.cfg.Precision); err != nil {
		return err
	}
	b.written = append(b.written, path)

	if b.cfg.GeoJSON {
		gjPath, err := b.exportGeoJSON()
		if err != nil {
			return err
		}
		b.written = append(b.written, gjPath)
	}
	return nil
}

// CoordinatesPath returns where the coordinates file is written.
func (b *Backend) CoordinatesPath() string {
	if filepath.IsAbs(b.cfg.File) || b.cfg.OutputDir == "" {
		return b.cfg.File
	}
	return filepath.Join(b.cfg.OutputDir, b.cfg.File)
}

// OutputFiles returns the files written by the last EndRun
func (b *Backend) OutputFiles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.written...)
}
