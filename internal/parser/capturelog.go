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

// Capture log (.MRK) columns. The file is tab-delimited and has no header.
const (
	mrkIDColumn        = 0
	mrkSecondsColumn   = 1
	mrkNorthColumn     = 3
	mrkEastColumn      = 4
	mrkElevationColumn = 5
	mrkMinFields       = mrkElevationColumn + 1
)

// ParseCaptureLog reads a shutter event log into parallel id, hour and offset slices.
// Hours are normalised into [0,24) and then unwrapped across a single midnight rollover.
func (p *Parser) ParseCaptureLog(path string) (core.CaptureLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.CaptureLog{}, &ParseError{File: path, Column: -1, Reason: "cannot read file", Err: err}
	}
	defer f.Close()

	capture := core.CaptureLog{Source: path}
	lineNo := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < mrkMinFields {
			return core.CaptureLog{}, rowError(path, lineNo, -1,
				fmt.Sprintf("expected at least %d tab-separated fields, got %d", mrkMinFields, len(fields)), nil)
		}

		id, err := strconv.Atoi(strings.TrimSpace(fields[mrkIDColumn]))
		if err != nil {
			return core.CaptureLog{}, rowError(path, lineNo, mrkIDColumn, "invalid image id", err)
		}

		seconds, err := parseFinite(strings.TrimSpace(fields[mrkSecondsColumn]))
		if err != nil {
			return core.CaptureLog{}, rowError(path, lineNo, mrkSecondsColumn, "invalid capture time", err)
		}

		var offset core.Offset
		for _, c := range []struct {
			col  int
			dest *float64
		}{
			{mrkNorthColumn, &offset.NorthMM},
			{mrkEastColumn, &offset.EastMM},
			{mrkElevationColumn, &offset.ElevMM},
		} {
			v, err := parseMillimetres(fields[c.col])
			if err != nil {
				return core.CaptureLog{}, rowError(path, lineNo, c.col, "invalid offset", err)
			}
			*c.dest = v
		}

		capture.IDs = append(capture.IDs, id)
		capture.Hours = append(capture.Hours, hourOfDay(seconds))
		capture.Offsets = append(capture.Offsets, offset)
	}
	if err := scanner.Err(); err != nil {
		return core.CaptureLog{}, &ParseError{File: path, Line: lineNo, Column: -1, Reason: "read failed", Err: err}
	}

	if capture.Len() == 0 {
		return core.CaptureLog{}, &ParseError{File: path, Column: -1, Reason: "no rows", Err: ErrEmptyLog}
	}

	if at := unwrapRollover(capture.Hours, false); at >= 0 {
		p.logger.Debug("Capture log crosses midnight, unwrapped rollover",
			"file", path, "entryIndex", at)
	}

	p.logger.Debug("Parsed capture log", "file", path, "entries", capture.Len())
	return capture, nil
}

// hourOfDay folds a seconds value (of day or of week) into decimal hours in [0,24).
func hourOfDay(seconds float64) float64 {
	hours := seconds / 3600.0
	return hours - math.Floor(hours/hoursPerDay)*hoursPerDay
}
