package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 640, 360)

	// Should be centered on world
	if cam.X != 320 || cam.Y != 180 {
		t.Errorf("expected camera at (320, 180), got (%f, %f)", cam.X, cam.Y)
	}
	// Map smaller than the viewport is drawn 1:1
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestNewFitsLargeMap(t *testing.T) {
	tests := []struct {
		vw, vh, ww, wh float32
		want           float32
	}{
		{1280, 720, 2560, 1440, 0.5},
		{800, 600, 1600, 800, 0.5},  // width bound
		{800, 600, 800, 2400, 0.25}, // height bound
	}
	for _, tt := range tests {
		cam := New(tt.vw, tt.vh, tt.ww, tt.wh)
		if math.Abs(float64(cam.Zoom-tt.want)) > 0.001 {
			t.Errorf("New(%v,%v,%v,%v).Zoom = %f, want %f", tt.vw, tt.vh, tt.ww, tt.wh, cam.Zoom, tt.want)
		}

		// Map corners land inside the viewport.
		sx, sy := cam.WorldToScreen(tt.ww, tt.wh)
		if sx > tt.vw+0.01 || sy > tt.vh+0.01 {
			t.Errorf("far corner off screen at (%f, %f)", sx, sy)
		}
		sx, sy = cam.WorldToScreen(0, 0)
		if sx < -0.01 || sy < -0.01 {
			t.Errorf("origin off screen at (%f, %f)", sx, sy)
		}
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(1280, 720)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Test roundtrip at various positions
	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestScreenToWorldOutsideMap(t *testing.T) {
	cam := New(1280, 720, 640, 360)

	// The whole map fits; screen corners fall outside it.
	wx, wy := cam.ScreenToWorld(0, 0)
	if wx >= 0 || wy >= 0 {
		t.Errorf("top-left screen corner mapped inside the map: (%f, %f)", wx, wy)
	}
}
