// Package camera maps between screen pixels and grid coordinates.
package camera

// Camera controls the viewport onto the grid. Grid coordinates span
// [0, N] on both axes; at zoom 1 the whole domain fits the viewport.
type Camera struct {
	// Position is the view center in grid coordinates
	X, Y float32

	// Zoom level (1.0 = whole grid visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Grid resolution
	N float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on a grid of resolution n at zoom 1.
func New(viewportW, viewportH float32, n int) *Camera {
	return &Camera{
		X:         float32(n) / 2,
		Y:         float32(n) / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		N:         float32(n),
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
}

// scale returns screen pixels per grid unit.
func (c *Camera) scale() float32 {
	return min(c.ViewportW, c.ViewportH) / c.N * c.Zoom
}

// GridToScreen converts grid coordinates to screen coordinates.
func (c *Camera) GridToScreen(gx, gy float32) (sx, sy float32) {
	s := c.scale()
	sx = c.ViewportW/2 + (gx-c.X)*s
	sy = c.ViewportH/2 + (gy-c.Y)*s
	return sx, sy
}

// ScreenToGrid converts screen coordinates to grid coordinates, clamped
// to [0, N].
func (c *Camera) ScreenToGrid(sx, sy float32) (gx, gy float32) {
	s := c.scale()
	gx = clamp(c.X+(sx-c.ViewportW/2)/s, 0, c.N)
	gy = clamp(c.Y+(sy-c.ViewportH/2)/s, 0, c.N)
	return gx, gy
}

// Pan moves the view by a screen-space delta.
func (c *Camera) Pan(dx, dy float32) {
	s := c.scale()
	c.X -= dx / s
	c.Y -= dy / s
	c.clampCenter()
}

// ZoomAt changes zoom by factor while keeping the grid point under
// (sx, sy) fixed on screen.
func (c *Camera) ZoomAt(factor, sx, sy float32) {
	gx, gy := c.ScreenToGrid(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)

	// Re-anchor so (gx, gy) stays under the cursor
	s := c.scale()
	c.X = gx - (sx-c.ViewportW/2)/s
	c.Y = gy - (sy-c.ViewportH/2)/s
	c.clampCenter()
}

// Reset restores zoom 1 centered on the grid.
func (c *Camera) Reset() {
	c.X = c.N / 2
	c.Y = c.N / 2
	c.Zoom = 1.0
}

// Resize updates the viewport dimensions.
func (c *Camera) Resize(w, h float32) {
	c.ViewportW = w
	c.ViewportH = h
	c.clampCenter()
}

// clampCenter keeps the visible half-extent inside the grid where possible.
func (c *Camera) clampCenter() {
	half := c.N / (2 * c.Zoom)
	c.X = clamp(c.X, half, c.N-half)
	c.Y = clamp(c.Y, half, c.N-half)
}

func clamp(v, lo, hi float32) float32 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
