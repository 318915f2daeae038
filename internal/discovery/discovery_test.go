package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
}

func TestDiscover_PicksInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"DJI_0001_0003.JPG",
		"DJI_0001_0001.JPG",
		"DJI_0001_0002.jpg",
		"notes.txt",
		"flight_b.pos",
		"flight_a.pos",
		"flight_Timestamp.MRK",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.JPG"), 0755))

	in, err := Discover(dir, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"DJI_0001_0001.JPG",
		"DJI_0001_0002.jpg",
		"DJI_0001_0003.JPG",
	}, in.Images)
	assert.Equal(t, filepath.Join(dir, "DJI_0001_0002.jpg"), in.ImagePath(in.Images[1]))
	assert.Equal(t, filepath.Join(dir, "flight_a.pos"), in.Trajectory)
	assert.Equal(t, []string{filepath.Join(dir, "flight_b.pos")}, in.IgnoredTrajectories)
	assert.Equal(t, filepath.Join(dir, "flight_Timestamp.MRK"), in.CaptureLog)
	assert.Empty(t, in.IgnoredCaptureLogs)
}

func TestDiscover_ExtensionsAreCaseSensitive(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "DJI_0001_0001.JPG", "flight.POS", "flight.MRK")

	_, err := Discover(dir, DefaultOptions())
	var de *FileDiscoveryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KindTrajectory, de.Kind)
}

func TestDiscover_MissingKinds(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  Kind
	}{
		{"no images", []string{"a.pos", "a.MRK"}, KindImages},
		{"no trajectory", []string{"DJI_0001_0001.JPG", "a.MRK"}, KindTrajectory},
		{"no capture log", []string{"DJI_0001_0001.JPG", "a.pos"}, KindCaptureLog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tt.files...)

			_, err := Discover(dir, DefaultOptions())
			var de *FileDiscoveryError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.want, de.Kind)
			assert.Equal(t, dir, de.Dir)
			assert.Contains(t, de.Error(), string(tt.want))
		})
	}
}

func TestDiscover_MissingDirectory(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"), DefaultOptions())

	var de *FileDiscoveryError
	require.True(t, errors.As(err, &de))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDiscover_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "IMG_0001_0007.tif", "track.txt", "events.log")

	in, err := Discover(dir, Options{
		ImageExtensions:     []string{".tif"},
		TrajectoryExtension: ".txt",
		CaptureLogExtension: ".log",
	})
	require.NoError(t, err)
	assert.Len(t, in.Images, 1)
	assert.Equal(t, filepath.Join(dir, "track.txt"), in.Trajectory)
	assert.Equal(t, filepath.Join(dir, "events.log"), in.CaptureLog)
}
