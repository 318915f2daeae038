// Package discovery locates the images, positioning solution and capture log
// of a flight directory.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Kind names a class of input file.
type Kind string

const (
	KindImages     Kind = "images"
	KindTrajectory Kind = "trajectory"
	KindCaptureLog Kind = "capture log"
)

// FileDiscoveryError reports that a required input could not be found.
type FileDiscoveryError struct {
	Dir        string
	Kind       Kind
	Extensions []string
	Err        error
}

func (e *FileDiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot list %s: %v", e.Dir, e.Err)
	}
	return fmt.Sprintf("no %s found in %s (looked for %s)", e.Kind, e.Dir, strings.Join(e.Extensions, ", "))
}

func (e *FileDiscoveryError) Unwrap() error {
	return e.Err
}

// Options selects input files by extension. Matching is case-sensitive.
type Options struct {
	ImageExtensions     []string
	TrajectoryExtension string
	CaptureLogExtension string
}

// DefaultOptions matches DJI image names, RTKLIB .pos solutions and DJI .MRK logs.
func DefaultOptions() Options {
	return Options{
		ImageExtensions:     []string{".JPG", ".jpg"},
		TrajectoryExtension: ".pos",
		CaptureLogExtension: ".MRK",
	}
}

// Inputs is the set of files a run works on.
type Inputs struct {
	Dir string
	// Images are file names relative to Dir, as written to the output rows.
	Images     []string
	Trajectory string
	CaptureLog string

	// Other candidates that were ignored because the first one (by name) won.
	IgnoredTrajectories []string
	IgnoredCaptureLogs  []string
}

// Discover lists dir (non-recursively) and picks the run inputs.
// Images are sorted by name; for the positioning file and the capture log the
// first match by name is used.
func Discover(dir string, opts Options) (Inputs, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Inputs{}, &FileDiscoveryError{Dir: dir, Err: err}
	}

	in := Inputs{Dir: dir}
	var trajectories, captureLogs []string

	// ReadDir returns entries sorted by filename
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		path := filepath.Join(dir, name)

		switch {
		case slices.Contains(opts.ImageExtensions, ext):
			in.Images = append(in.Images, name)
		case ext == opts.TrajectoryExtension:
			trajectories = append(trajectories, path)
		case ext == opts.CaptureLogExtension:
			captureLogs = append(captureLogs, path)
		}
	}

	if len(in.Images) == 0 {
		return Inputs{}, &FileDiscoveryError{Dir: dir, Kind: KindImages, Extensions: opts.ImageExtensions}
	}
	if len(trajectories) == 0 {
		return Inputs{}, &FileDiscoveryError{Dir: dir, Kind: KindTrajectory, Extensions: []string{opts.TrajectoryExtension}}
	}
	if len(captureLogs) == 0 {
		return Inputs{}, &FileDiscoveryError{Dir: dir, Kind: KindCaptureLog, Extensions: []string{opts.CaptureLogExtension}}
	}

	in.Trajectory, in.IgnoredTrajectories = trajectories[0], trajectories[1:]
	in.CaptureLog, in.IgnoredCaptureLogs = captureLogs[0], captureLogs[1:]
	return in, nil
}

// ImagePath returns the path of one of the discovered images.
func (in Inputs) ImagePath(name string) string {
	return filepath.Join(in.Dir, name)
}
