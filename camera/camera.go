// Package camera maps between screen and world coordinates for a viewport
// framing a bounded map.
package camera

// Camera is a fixed viewport into the simulation world. It is centred on
// the map and zoomed out just enough for the whole map to fit.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = 1:1, 0.5 = half size)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World extent, from (0,0) to (WorldW, WorldH)
	WorldW, WorldH float32
}

// New creates a camera centered on the world. Zoom is 1:1 unless the map
// is larger than the viewport.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
	}
	c.Zoom = c.fitZoom()
	return c
}

// fitZoom is the largest zoom, capped at 1, at which the whole map fits
// the viewport.
func (c *Camera) fitZoom() float32 {
	z := min(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
	return min(z, 1.0)
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
// The result may lie outside the map; callers validate it.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}
