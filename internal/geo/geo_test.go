package geo

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/dronedata/camerapos/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

func TestPointFromPosition(t *testing.T) {
	p := core.Position3D{X: 412345.125, Y: 5123456.5, Z: 231.75}
	pt, err := PointFromPosition(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pt.CoordinatesType() != geom.DimXYZ {
		t.Fatalf("expected XYZ point, got %v", pt.CoordinatesType())
	}
	c, ok := pt.Coordinates()
	if !ok {
		t.Fatal("expected non-empty point")
	}
	if c.XY.X != p.X || c.XY.Y != p.Y || c.Z != p.Z {
		t.Errorf("expected %+v, got %+v", p, c)
	}
}

func TestPointFromPosition_NaNFails(t *testing.T) {
	if _, err := PointFromPosition(core.Position3D{X: math.NaN(), Y: 1}); err == nil {
		t.Error("expected error for NaN easting")
	}
}

func TestTrackLine(t *testing.T) {
	ls, err := TrackLine([]core.Position3D{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}, {X: 7, Y: 8, Z: 9}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq := ls.Coordinates()
	if seq.Length() != 3 {
		t.Fatalf("expected 3 vertices, got %d", seq.Length())
	}
	if c := seq.Get(2); c.X != 7 || c.Y != 8 || c.Z != 9 {
		t.Errorf("unexpected last vertex %+v", c)
	}
}

func TestTrackLine_TooShort(t *testing.T) {
	ls, err := TrackLine([]core.Position3D{{X: 1, Y: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ls.IsEmpty() {
		t.Error("expected empty line for a single position")
	}
}

func TestTrackLine_InfFails(t *testing.T) {
	if _, err := TrackLine([]core.Position3D{{X: 1, Y: 2}, {X: math.Inf(1), Y: 3}}); err == nil {
		t.Error("expected error for an infinite vertex")
	}
}

func TestNewReprojector_InvalidCode(t *testing.T) {
	if _, err := NewReprojector(0); err == nil {
		t.Fatal("expected error for EPSG 0")
	}
}

func TestReprojector_WebMercatorToWGS84(t *testing.T) {
	rp, err := NewReprojector(3857)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.source != 3857 {
		t.Errorf("expected source 3857, got %d", rp.source)
	}

	got, err := rp.ToWGS84(core.Position3D{X: 0, Y: 0, Z: 120})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y) > 1e-9 {
		t.Errorf("expected origin, got %+v", got)
	}
	if got.Z != 120 {
		t.Errorf("elevation should pass through, got %f", got.Z)
	}

	got, err = rp.ToWGS84(core.Position3D{X: 20037508.342789244 / 2, Y: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got.X-90) > 1e-6 {
		t.Errorf("expected longitude 90, got %f", got.X)
	}
}

func TestReprojector_NaNIsInvalid(t *testing.T) {
	rp := &Reprojector{source: 9999, fn: func(a, b, c float64) (float64, float64, float64) {
		return math.NaN(), math.NaN(), c
	}}
	_, err := rp.ToWGS84(core.Position3D{X: 1, Y: 2})
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}

func TestFeatureCollection(t *testing.T) {
	rows := []core.MatchedImage{
		{Filename: "DJI_0001_0001.JPG", ImageID: 1, East: 10, North: 20, Elevation: 30, CaptureHour: 10.5},
		{Filename: "DJI_0001_0002.JPG", ImageID: 2, East: 11, North: 21, Elevation: 31, CameraModel: "FC6310R"},
	}
	track := []core.Position3D{{X: 9, Y: 19, Z: 29}, {X: 12, Y: 22, Z: 32}}

	fc, err := FeatureCollection(rows, track, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc))
	}

	out, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	for _, want := range []string{`"FeatureCollection"`, `"DJI_0001_0002.JPG"`, `"FC6310R"`, `"LineString"`, `[10,20,30]`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestFeatureCollection_ReprojectError(t *testing.T) {
	rp := &Reprojector{source: 9999, fn: func(a, b, c float64) (float64, float64, float64) {
		return math.NaN(), 0, c
	}}
	_, err := FeatureCollection([]core.MatchedImage{{Filename: "x_y_1.JPG"}}, nil, rp)
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}
}
