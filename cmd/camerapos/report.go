package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dronedata/camerapos/internal/discovery"
	"github.com/dronedata/camerapos/internal/parser"
	"github.com/dronedata/camerapos/internal/storage/memory"
	"github.com/dronedata/camerapos/pkg/core"
)

const (
	listedImages   = 5
	listedWarnings = 3
	sampleRows     = 3
)

var rule = strings.Repeat("=", 60)

// reporter writes the human readable run report to the console.
type reporter struct {
	w io.Writer
}

func (r reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r reporter) banner(dir string) {
	r.printf("%s\nCAMERAPOS - Camera Position Calculator\n%s\n", rule, rule)
	r.printf("Version: %s | Build: %s\n\n", CurrentVersion, BuildDate)
	r.printf("Working directory: %s\n\n", dir)
}

// imageIDs splits the discovered images into extractable ids and invalid names.
func imageIDs(images []string) (ids []int, invalid []string) {
	for _, name := range images {
		id, err := parser.ExtractImageID(name)
		if err != nil {
			invalid = append(invalid, name)
			continue
		}
		ids = append(ids, id)
	}
	return ids, invalid
}

func (r reporter) inputs(in discovery.Inputs) {
	r.printf("SUCCESS: Found %d image files\n", len(in.Images))
	for i, name := range in.Images[:min(listedImages, len(in.Images))] {
		r.printf("         %d. %s\n", i+1, name)
	}
	if len(in.Images) > listedImages {
		r.printf("         ... and %d more files\n", len(in.Images)-listedImages)
	}
	r.printf("\n")

	ids, invalid := imageIDs(in.Images)
	if len(ids) > 0 {
		r.printf("SUCCESS: Extracted IDs from %d files\n", len(ids))
		r.printf("         ID range: %d - %d\n", slices.Min(ids), slices.Max(ids))
	}
	if len(invalid) > 0 {
		r.printf("WARNING: Could not extract ID from %d files:\n", len(invalid))
		for _, name := range invalid[:min(listedWarnings, len(invalid))] {
			r.printf("         - %s\n", name)
		}
		if len(invalid) > listedWarnings {
			r.printf("         ... and %d more files\n", len(invalid)-listedWarnings)
		}
	}
	r.printf("\n")

	r.printf("Found positioning file: %s\n", in.Trajectory)
	if len(in.IgnoredTrajectories) > 0 {
		r.printf("NOTE: Multiple positioning files found, using: %s\n", in.Trajectory)
	}
	r.printf("Found capture log: %s\n", in.CaptureLog)
	if len(in.IgnoredCaptureLogs) > 0 {
		r.printf("NOTE: Multiple capture logs found, using: %s\n", in.CaptureLog)
	}
	r.printf("\n")
}

func (r reporter) sources(trajectory core.Trajectory, capture core.CaptureLog) {
	s := parser.Summarize(trajectory)
	r.printf("SUCCESS: Processed %d positioning samples (%.4fh - %.4fh, mean interval %.2fs, max %.2fs)\n",
		s.Samples, s.StartHour, s.EndHour, s.MeanIntervalSec, s.MaxIntervalSec)
	r.printf("SUCCESS: Processed %d capture log entries\n\n", capture.Len())
}

// unmatched reports images that were not positioned. Invalid names were
// already listed with the inputs.
func (r reporter) unmatched(diags []core.Diagnostic) {
	var listed []core.Diagnostic
	for _, d := range diags {
		if d.Reason != core.ReasonInvalidID {
			listed = append(listed, d)
		}
	}
	if len(listed) == 0 {
		return
	}
	r.printf("WARNING: %d images could not be matched:\n", len(listed))
	for _, d := range listed[:min(listedWarnings, len(listed))] {
		r.printf("         - %s (ID: %d): %s\n", d.Filename, d.ImageID, d.Reason)
	}
	if len(listed) > listedWarnings {
		r.printf("         ... and %d more images\n", len(listed)-listedWarnings)
	}
	r.printf("\n")
}

func (r reporter) results(rows []core.MatchedImage, files []string) {
	r.printf("SUCCESS: Calculated positions for %d images\n", len(rows))
	for _, f := range files {
		r.printf("SUCCESS: Results written to: %s\n", f)
	}
	if len(rows) == 0 {
		return
	}

	r.printf("\nSample results:\n")
	r.printf("%-20s | %-10s | %-10s | %s\n", "Image Name", "East", "North", "Elevation")
	r.printf("%s\n", strings.Repeat("-", 65))
	for _, row := range rows[:min(sampleRows, len(rows))] {
		name := row.Filename
		if len(name) > 20 {
			name = name[:20]
		}
		r.printf("%-20s | %10s | %10s | %9s\n", name,
			memory.FormatCoord(row.East, 3),
			memory.FormatCoord(row.North, 3),
			memory.FormatCoord(row.Elevation, 3))
	}
	if len(rows) > sampleRows {
		r.printf("... and %d more entries\n", len(rows)-sampleRows)
	}
}

func (r reporter) success(matched int) {
	r.printf("\n%s\nPROCESSING COMPLETED SUCCESSFULLY\n%s\n", rule, rule)
	r.printf("SUCCESS: %d camera positions calculated\n", matched)
}

func (r reporter) failure(err error) {
	if err != nil {
		r.printf("ERROR: %v\n", err)
	}
	r.printf("\n%s\nPROCESSING FAILED\n%s\n", rule, rule)
	r.printf("Please review the error messages above and:\n")
	r.printf("- Check that all required files are present\n")
	r.printf("- Verify file formats are correct\n")
	r.printf("- Ensure image filenames follow the prefix_prefix_ID.ext pattern\n")
}
