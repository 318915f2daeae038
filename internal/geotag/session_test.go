package geotag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dronedata/camerapos/internal/interpolate"
	"github.com/dronedata/camerapos/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSources writes a positioning file and a capture log in the default layouts.
func writeSources(t *testing.T, posRows [][4]string, mrkRows []string) (string, string) {
	t.Helper()
	dir := t.TempDir()

	var pos strings.Builder
	for i := 0; i < 5; i++ {
		pos.WriteString("% preamble\n")
	}
	header := make([]string, 34)
	for i := range header {
		header[i] = fmt.Sprintf("col%d", i)
	}
	pos.WriteString(strings.Join(header, " ") + "\n")
	for _, r := range posRows {
		fields := make([]string, 34)
		for i := range fields {
			fields[i] = "0.0"
		}
		fields[5], fields[24], fields[25], fields[33] = r[0], r[1], r[2], r[3]
		pos.WriteString(strings.Join(fields, " ") + "\n")
	}

	posPath := filepath.Join(dir, "base.pos")
	mrkPath := filepath.Join(dir, "flight.MRK")
	require.NoError(t, os.WriteFile(posPath, []byte(pos.String()), 0644))
	require.NoError(t, os.WriteFile(mrkPath, []byte(strings.Join(mrkRows, "\n")+"\n"), 0644))
	return posPath, mrkPath
}

func newTestSession(t *testing.T, posPath, mrkPath string, search interpolate.Search) *Session {
	t.Helper()
	s, err := NewSession(slog.New(slog.NewTextHandler(io.Discard, nil)), SessionConfig{
		Layout:  parser.DefaultConfig(),
		Units:   "m",
		Search:  search,
		Workers: 4,
	}, posPath, mrkPath)
	require.NoError(t, err)
	return s
}

func TestSession_RolloverEndToEnd(t *testing.T) {
	posPath, mrkPath := writeSources(t,
		[][4]string{
			{"23:48:00", "0", "0", "0"},
			{"23:57:00", "10", "10", "10"},
			{"00:03:00", "20", "40", "60"},
			{"00:12:00", "50", "70", "90"},
		},
		[]string{
			"1\t86040.0\t[2270]\t0,N\t0,E\t0,V",
			"2\t360.0\t[2270]\t1000,N\t2000,E\t3000,V",
		},
	)

	for _, search := range []interpolate.Search{interpolate.Linear, interpolate.Binary} {
		t.Run(string(search), func(t *testing.T) {
			s := newTestSession(t, posPath, mrkPath, search)
			assert.NotEmpty(t, s.ID)
			assert.InDelta(t, 24.05, s.Trajectory.Samples[2].TimeHours, 1e-9)
			assert.InDelta(t, 24.1, s.CaptureLog.Hours[1], 1e-9)

			result, err := s.Run(context.Background(), []string{"DJI_0001_0001.JPG", "DJI_0001_0002.JPG"})
			require.NoError(t, err)
			require.Len(t, result.Matched, 2)

			// 23.9h is two thirds of the way from 23.8h to 23.95h
			first := result.Matched[0]
			assert.InDelta(t, 20.0/3.0, first.East, 1e-6)

			// 24.1h is one third of the way from 24.05h to 24.2h, then offset
			second := result.Matched[1]
			assert.InDelta(t, 30.0+2.0, second.East, 1e-6)
			assert.InDelta(t, 50.0+1.0, second.North, 1e-6)
			assert.InDelta(t, 70.0-3.0, second.Elevation, 1e-6)
		})
	}
}

func TestSession_ParseErrorsAreFatal(t *testing.T) {
	posPath, mrkPath := writeSources(t,
		[][4]string{{"10:00:00", "0", "0", "0"}, {"10:00:01", "1", "1", "1"}},
		[]string{"1\t36000.5\t[2270]\tbroken"},
	)

	_, err := NewSession(nil, SessionConfig{Layout: parser.DefaultConfig()}, posPath, mrkPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrMalformedRow)
	assert.Contains(t, err.Error(), "capture log")
}

func TestSession_RejectsNonMetreUnits(t *testing.T) {
	posPath, mrkPath := writeSources(t,
		[][4]string{{"10:00:00", "0", "0", "0"}, {"10:00:01", "1", "1", "1"}},
		[]string{"1\t36000.5\t[2270]\t0,N\t0,E\t0,V"},
	)

	_, err := NewSession(nil, SessionConfig{Layout: parser.DefaultConfig(), Units: "ft"}, posPath, mrkPath)
	assert.ErrorIs(t, err, parser.ErrUnsupportedUnit)
}
