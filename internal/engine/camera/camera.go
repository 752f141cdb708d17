// Package camera maps window pixels onto the fractal plane.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"
)

// PlaneCamera looks at the complex plane from straight above.
//
// Offset is the plane point at the center of the window, Scale the number of
// pixels per plane unit. Window coordinates have y pointing down, the plane
// has y pointing up.
type PlaneCamera struct {
	Offset     mgl64.Vec2
	Scale      float64
	Iterations uint32

	// Constraints
	MinScale      float64
	MaxScale      float64
	MinIterations uint32
	MaxIterations uint32

	home homeView
}

// homeView is the view Reset returns to.
type homeView struct {
	Offset     mgl64.Vec2
	Scale      float64
	Iterations uint32
}

// NewPlaneCamera creates a camera; Reset returns to these values.
func NewPlaneCamera(offset mgl64.Vec2, scale float64, iterations uint32) *PlaneCamera {
	c := &PlaneCamera{
		Offset:        offset,
		Scale:         scale,
		Iterations:    iterations,
		MinScale:      1,
		MaxScale:      1e15, // float64 precision runs out shortly after
		MinIterations: 1,
		MaxIterations: 1 << 16,
	}
	c.Clamp()
	c.SetHome()
	return c
}

// SetHome records the current view as the one Reset returns to.
func (c *PlaneCamera) SetHome() {
	c.home = homeView{
		Offset:     c.Offset,
		Scale:      c.Scale,
		Iterations: c.Iterations,
	}
}

// Reset restores the home view.
func (c *PlaneCamera) Reset() {
	c.Offset = c.home.Offset
	c.Scale = c.home.Scale
	c.Iterations = c.home.Iterations
	c.Clamp()
}

// PlaneAt returns the plane point under window pixel (x, y) of a
// width x height window.
func (c *PlaneCamera) PlaneAt(x, y, width, height float64) mgl64.Vec2 {
	return mgl64.Vec2{
		c.Offset.X() + (x-width/2)/c.Scale,
		c.Offset.Y() + (height/2-y)/c.Scale,
	}
}

// Pan moves the view so the content follows a drag of (dx, dy) pixels.
func (c *PlaneCamera) Pan(dx, dy float64) {
	c.Offset = c.Offset.Add(mgl64.Vec2{-dx / c.Scale, dy / c.Scale})
}

// ZoomAt multiplies the scale by factor while keeping the plane point under
// window pixel (x, y) in place. Non-positive factors are ignored.
func (c *PlaneCamera) ZoomAt(factor, x, y, width, height float64) {
	if factor <= 0 {
		return
	}
	before := c.PlaneAt(x, y, width, height)
	c.Scale = clampFloat(c.Scale*factor, c.MinScale, c.MaxScale)
	after := c.PlaneAt(x, y, width, height)
	c.Offset = c.Offset.Add(before.Sub(after))
}

// ZoomCenter zooms around the window center.
func (c *PlaneCamera) ZoomCenter(factor, width, height float64) {
	c.ZoomAt(factor, width/2, height/2, width, height)
}

// AddIterations changes the iteration count by delta within the limits.
func (c *PlaneCamera) AddIterations(delta int) {
	n := int64(c.Iterations) + int64(delta)
	if n < int64(c.MinIterations) {
		n = int64(c.MinIterations)
	}
	if n > int64(c.MaxIterations) {
		n = int64(c.MaxIterations)
	}
	c.Iterations = uint32(n)
}

// Clamp forces scale and iterations into their limits.
func (c *PlaneCamera) Clamp() {
	c.Scale = clampFloat(c.Scale, c.MinScale, c.MaxScale)
	if c.Iterations < c.MinIterations {
		c.Iterations = c.MinIterations
	}
	if c.Iterations > c.MaxIterations {
		c.Iterations = c.MaxIterations
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
