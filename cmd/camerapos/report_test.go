package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dronedata/camerapos/internal/discovery"
	"github.com/dronedata/camerapos/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestImageIDs(t *testing.T) {
	ids, invalid := imageIDs([]string{"DJI_0001_0042.JPG", "badname.jpg", "DJI_0001_0007.jpg"})
	assert.Equal(t, []int{42, 7}, ids)
	assert.Equal(t, []string{"badname.jpg"}, invalid)
}

func TestReporter_Inputs(t *testing.T) {
	var buf bytes.Buffer
	reporter{w: &buf}.inputs(discovery.Inputs{
		Images: []string{
			"A_B_5.JPG", "A_B_2.JPG", "A_B_9.JPG", "A_B_3.JPG", "A_B_4.JPG", "A_B_6.JPG",
			"x.jpg", "y.jpg", "z.jpg", "w.jpg",
		},
		Trajectory:          "/f/a.pos",
		CaptureLog:          "/f/a.MRK",
		IgnoredTrajectories: []string{"/f/b.pos"},
	})
	out := buf.String()

	assert.Contains(t, out, "Found 10 image files")
	assert.Contains(t, out, "5. A_B_4.JPG")
	assert.NotContains(t, out, "6. A_B_6.JPG")
	assert.Contains(t, out, "... and 5 more files")
	assert.Contains(t, out, "ID range: 2 - 9")
	assert.Contains(t, out, "Could not extract ID from 4 files")
	assert.NotContains(t, out, "- w.jpg")
	assert.Contains(t, out, "... and 1 more files")
	assert.Contains(t, out, "NOTE: Multiple positioning files found, using: /f/a.pos")
	assert.NotContains(t, out, "Multiple capture logs")
}

func TestReporter_Unmatched(t *testing.T) {
	var buf bytes.Buffer
	reporter{w: &buf}.unmatched([]core.Diagnostic{
		{Filename: "bad.jpg", ImageID: -1, Reason: core.ReasonInvalidID},
		{Filename: "a_b_1.JPG", ImageID: 1, Reason: core.ReasonNoCapture},
		{Filename: "a_b_2.JPG", ImageID: 2, Reason: core.ReasonOutOfRange},
		{Filename: "a_b_3.JPG", ImageID: 3, Reason: core.ReasonNoCapture},
		{Filename: "a_b_4.JPG", ImageID: 4, Reason: core.ReasonNoCapture},
	})
	out := buf.String()

	assert.Contains(t, out, "WARNING: 4 images could not be matched:")
	assert.Contains(t, out, "- a_b_2.JPG (ID: 2): "+core.ReasonOutOfRange)
	assert.NotContains(t, out, "bad.jpg")
	assert.NotContains(t, out, "a_b_4.JPG")
	assert.Contains(t, out, "... and 1 more images")
}

func TestReporter_UnmatchedOnlyInvalid(t *testing.T) {
	var buf bytes.Buffer
	reporter{w: &buf}.unmatched([]core.Diagnostic{{Filename: "bad.jpg", Reason: core.ReasonInvalidID}})
	assert.Empty(t, buf.String())
}

func TestReporter_Results(t *testing.T) {
	var buf bytes.Buffer
	rows := []core.MatchedImage{
		{Filename: "a_very_long_image_name_0001.JPG", East: 412345.1254, North: 5123456.5, Elevation: 231.75},
		{Filename: "b_b_2.JPG"}, {Filename: "c_c_3.JPG"}, {Filename: "d_d_4.JPG"},
	}
	reporter{w: &buf}.results(rows, []string{"Camera_coords.txt"})
	out := buf.String()

	assert.Contains(t, out, "Calculated positions for 4 images")
	assert.Contains(t, out, "Results written to: Camera_coords.txt")
	assert.Contains(t, out, "a_very_long_image_na | 412345.125 | 5123456.500 |   231.750")
	assert.NotContains(t, out, "d_d_4.JPG")
	assert.Contains(t, out, "... and 1 more entries")
}

func TestReporter_Failure(t *testing.T) {
	var buf bytes.Buffer
	reporter{w: &buf}.failure(errors.New("boom"))
	assert.Contains(t, buf.String(), "ERROR: boom")
	assert.Contains(t, buf.String(), "PROCESSING FAILED")
}
