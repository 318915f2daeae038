package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dronedata/camerapos/internal/database"
	"github.com/dronedata/camerapos/internal/logging"
	"github.com/dronedata/camerapos/internal/model"
	intOtel "github.com/dronedata/camerapos/internal/otel"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFlight creates a flight directory with three images, a positioning file
// and a capture log. Image 3 has no capture entry and badname.jpg has no id.
func writeFlight(t *testing.T) string {
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
	for i, clock := range []string{"10:00:00", "10:00:10", "10:00:20"} {
		fields := make([]string, 34)
		for j := range fields {
			fields[j] = "0.0"
		}
		v := fmt.Sprintf("%d", i*10)
		fields[5], fields[24], fields[25], fields[33] = clock, v, v, v
		pos.WriteString(strings.Join(fields, " ") + "\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.pos"), []byte(pos.String()), 0644))

	mrk := "1\t36005.0\t[2270]\t0,N\t0,E\t0,V\n" +
		"2\t36015.0\t[2270]\t0,N\t0,E\t0,V\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flight_Timestamp.MRK"), []byte(mrk), 0644))

	for _, name := range []string{"DJI_0001_0001.JPG", "DJI_0001_0002.JPG", "DJI_0001_0003.JPG", "badname.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	t.Cleanup(viper.Reset)
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String()
}

func TestRun_WritesCoordinates(t *testing.T) {
	flight := writeFlight(t)
	out := filepath.Join(t.TempDir(), "coords.txt")

	code, report := runCLI(t, "--config", t.TempDir(), "--output", out, "--precision", "3", flight)
	require.Equal(t, 0, code, report)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "DJI_0001_0001.JPG,5.000,5.000,5.000\nDJI_0001_0002.JPG,15.000,15.000,15.000\n", string(data))

	assert.Contains(t, report, "SUCCESS: Found 4 image files")
	assert.Contains(t, report, "ID range: 1 - 3")
	assert.Contains(t, report, "WARNING: Could not extract ID from 1 files:")
	assert.Contains(t, report, "- badname.jpg")
	assert.Contains(t, report, "WARNING: 1 images could not be matched:")
	assert.Contains(t, report, "- DJI_0001_0003.JPG (ID: 3)")
	assert.Contains(t, report, "PROCESSING COMPLETED SUCCESSFULLY")
}

func TestRun_DefaultOutputLandsInFlightDir(t *testing.T) {
	flight := writeFlight(t)
	cwd := t.TempDir()
	t.Chdir(cwd)

	code, report := runCLI(t, "--config", t.TempDir(), flight)
	require.Equal(t, 0, code, report)

	data, err := os.ReadFile(filepath.Join(flight, "Camera_coords.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "DJI_0001_0001.JPG,5,5,5\n"), string(data))
	assert.NoFileExists(t, filepath.Join(cwd, "Camera_coords.txt"))
	assert.Contains(t, report, filepath.Join(flight, "Camera_coords.txt"))
}

func TestRun_Idempotent(t *testing.T) {
	flight := writeFlight(t)
	out1 := filepath.Join(t.TempDir(), "a.txt")
	out2 := filepath.Join(t.TempDir(), "b.txt")

	code, _ := runCLI(t, "--config", t.TempDir(), "--output", out1, flight)
	require.Equal(t, 0, code)
	code, _ = runCLI(t, "--config", t.TempDir(), "--output", out2, "--search", "binary", "--workers", "4", flight)
	require.Equal(t, 0, code)

	first, err := os.ReadFile(out1)
	require.NoError(t, err)
	second, err := os.ReadFile(out2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_MissingInputsFails(t *testing.T) {
	code, report := runCLI(t, "--config", t.TempDir(), "--output", filepath.Join(t.TempDir(), "c.txt"), t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, report, "PROCESSING FAILED")
	assert.Contains(t, report, "no images found")
}

func TestRun_NothingMatchedFails(t *testing.T) {
	flight := writeFlight(t)
	require.NoError(t, os.WriteFile(filepath.Join(flight, "flight_Timestamp.MRK"), []byte("9\t36005.0\t[2270]\t0,N\t0,E\t0,V\n"), 0644))
	out := filepath.Join(t.TempDir(), "c.txt")

	code, report := runCLI(t, "--config", t.TempDir(), "--output", out, flight)
	assert.Equal(t, 1, code)
	assert.Contains(t, report, "PROCESSING FAILED")
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_BadConfigFails(t *testing.T) {
	cfgDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "camerapos.cfg.json"), []byte("{not json"), 0644))

	code, _ := runCLI(t, "--config", cfgDir, writeFlight(t))
	assert.Equal(t, 1, code)
}

func TestRun_SQLiteStorage(t *testing.T) {
	flight := writeFlight(t)
	cfgDir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	cfg := fmt.Sprintf(`{"storage": {"type": "sqlite", "sqlite": {"path": %q}}, "output": {"file": %q, "geojson": true}}`,
		dbPath, filepath.Join(t.TempDir(), "coords.txt"))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "camerapos.cfg.json"), []byte(cfg), 0644))

	code, report := runCLI(t, "--config", cfgDir, flight)
	require.Equal(t, 0, code, report)
	assert.Contains(t, report, dbPath)
	assert.Contains(t, report, "coords.geojson")

	db, err := database.GetSqliteDBStandalone(dbPath)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var runs, positions, unmatched int64
	require.NoError(t, db.Model(&model.Run{}).Count(&runs).Error)
	require.NoError(t, db.Model(&model.CameraPosition{}).Count(&positions).Error)
	require.NoError(t, db.Model(&model.UnmatchedImage{}).Count(&unmatched).Error)
	assert.Equal(t, int64(1), runs)
	assert.Equal(t, int64(2), positions)
	assert.Equal(t, int64(2), unmatched)
}

func TestRun_ShowConfig(t *testing.T) {
	code, out := runCLI(t, "--config", t.TempDir(), "--show-config", "--workers", "3")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "workers: 3")
	assert.Contains(t, out, "********")
}

func TestRun_Version(t *testing.T) {
	code, out := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, CurrentVersion)
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _ := runCLI(t, "--nope")
	assert.Equal(t, 1, code)
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("sink gone") }

func TestApp_CloseLogsCloserErrors(t *testing.T) {
	p, err := intOtel.New(intOtel.Config{})
	require.NoError(t, err)
	var buf bytes.Buffer
	a := &app{
		slogManager: logging.NewSlogManager(),
		logger:      slog.New(slog.NewTextHandler(&buf, nil)),
		otel:        p,
		closers:     []io.Closer{failingCloser{}},
	}

	a.close()

	assert.Contains(t, buf.String(), "Failed to close log sink")
	assert.Contains(t, buf.String(), "sink gone")
}
