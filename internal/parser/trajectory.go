package parser

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dronedata/camerapos/pkg/core"
)

// lengthUnits lists the column-name unit suffixes that are recognised as lengths.
var lengthUnits = map[string]bool{
	"m": true, "mm": true, "cm": true, "km": true, "ft": true, "usft": true, "us-ft": true,
}

// ParseTrajectory reads a positioning file into an ordered, rollover-unwrapped trajectory.
// Any malformed row fails the whole parse.
func (p *Parser) ParseTrajectory(path string) (core.Trajectory, error) {
	if err := p.cfg.Validate(); err != nil {
		return core.Trajectory{}, &ParseError{File: path, Column: -1, Reason: "invalid layout", Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return core.Trajectory{}, &ParseError{File: path, Column: -1, Reason: "cannot read file", Err: err}
	}
	defer f.Close()

	var (
		samples    []core.TrajectorySample
		lineNo     int
		headerSeen = !p.cfg.ColumnHeader
		width      int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		if lineNo <= p.cfg.HeaderLines {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if !headerSeen {
			headerSeen = true
			if err := p.checkColumnUnits(path, lineNo, fields); err != nil {
				return core.Trajectory{}, err
			}
			continue
		}

		if width == 0 {
			width = len(fields)
		}
		if len(fields) < p.cfg.minFields() || len(fields) != width {
			return core.Trajectory{}, rowError(path, lineNo, -1,
				fmt.Sprintf("expected %d fields, got %d", max(width, p.cfg.minFields()), len(fields)), nil)
		}

		sample, err := p.parseSample(path, lineNo, fields)
		if err != nil {
			return core.Trajectory{}, err
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return core.Trajectory{}, &ParseError{File: path, Line: lineNo, Column: -1, Reason: "read failed", Err: err}
	}

	if len(samples) < 2 {
		return core.Trajectory{}, &ParseError{
			File:   path,
			Column: -1,
			Reason: fmt.Sprintf("found %d samples", len(samples)),
			Err:    ErrTooFewSamples,
		}
	}

	hours := make([]float64, len(samples))
	for i := range samples {
		hours[i] = samples[i].TimeHours
	}
	if at := unwrapRollover(hours, true); at >= 0 {
		p.logger.Debug("Trajectory crosses midnight, unwrapped rollover",
			"file", path, "sampleIndex", at)
	}
	for i := range samples {
		samples[i].TimeHours = hours[i]
	}

	p.logger.Debug("Parsed trajectory", "file", path, "samples", len(samples))

	return core.Trajectory{
		Source:  path,
		Units:   "m",
		Samples: samples,
	}, nil
}

func (p *Parser) parseSample(path string, lineNo int, fields []string) (core.TrajectorySample, error) {
	seconds, err := parseClock(fields[p.cfg.TimeColumn])
	if err != nil {
		return core.TrajectorySample{}, rowError(path, lineNo, p.cfg.TimeColumn, "invalid time of day", err)
	}

	coords := [3]float64{}
	for i, col := range []int{p.cfg.EastColumn, p.cfg.NorthColumn, p.cfg.ElevationColumn} {
		v, err := parseFinite(fields[col])
		if err != nil {
			return core.TrajectorySample{}, rowError(path, lineNo, col, "invalid coordinate", err)
		}
		coords[i] = v
	}

	return core.TrajectorySample{
		TimeSeconds: seconds,
		TimeHours:   seconds / 3600.0,
		East:        coords[0],
		North:       coords[1],
		Elevation:   coords[2],
	}, nil
}

// checkColumnUnits rejects coordinate columns whose name declares a length unit other than metres.
func (p *Parser) checkColumnUnits(path string, lineNo int, names []string) error {
	for _, col := range []int{p.cfg.EastColumn, p.cfg.NorthColumn, p.cfg.ElevationColumn} {
		if col >= len(names) {
			continue
		}
		unit := columnUnit(names[col])
		if unit == "" || !lengthUnits[unit] || unit == "m" {
			continue
		}
		return &ParseError{
			File:   path,
			Line:   lineNo,
			Column: col,
			Reason: fmt.Sprintf("column %q is in %s", names[col], unit),
			Err:    ErrUnsupportedUnit,
		}
	}
	return nil
}

// columnUnit returns the lower-cased "(unit)" suffix of a column name, if any.
func columnUnit(name string) string {
	open := strings.LastIndex(name, "(")
	if open < 0 || !strings.HasSuffix(name, ")") {
		return ""
	}
	return strings.ToLower(name[open+1 : len(name)-1])
}

// parseClock converts "HH:MM:SS[.sss]" into seconds of day.
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%q is not HH:MM:SS", s)
	}
	var hms [3]float64
	for i, part := range parts {
		v, err := parseFinite(part)
		if err != nil {
			return 0, err
		}
		hms[i] = v
	}
	return hms[0]*3600.0 + hms[1]*60.0 + hms[2], nil
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}
