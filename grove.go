package grove

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// RGBA implements color.Color, returning premultiplied 16-bit components.
func (c Color) RGBA() (r, g, b, a uint32) {
	clamp := func(v float64) float64 { return math.Max(0, math.Min(1, v)) }
	al := clamp(c.A)
	return uint32(clamp(c.R) * al * 0xffff), uint32(clamp(c.G) * al * 0xffff),
		uint32(clamp(c.B) * al * 0xffff), uint32(al * 0xffff)
}

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rectangle containing both r and other.
// An empty rectangle is ignored so that unions can start from Rect{}.
func (r Rect) Union(other Rect) Rect {
	if other.Empty() {
		return r
	}
	if r.Empty() {
		return other
	}
	minX := math.Min(r.X, other.X)
	minY := math.Min(r.Y, other.Y)
	maxX := math.Max(r.X+r.Width, other.X+other.Width)
	maxY := math.Max(r.Y+r.Height, other.Y+other.Height)
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Near reports whether every edge of r is within eps of other.
func (r Rect) Near(other Rect, eps float64) bool {
	return math.Abs(r.X-other.X) <= eps && math.Abs(r.Y-other.Y) <= eps &&
		math.Abs(r.Width-other.Width) <= eps && math.Abs(r.Height-other.Height) <= eps
}

// BlendMode selects a compositing operation. Drivers map each mode to their
// own blend state.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendScreen                    // screen (1 - (1-src)*(1-dst); only brightens)
	BlendErase                     // destination-out (punch transparent holes)
	BlendNone                      // opaque copy (skip blending)
)

// ContentKind tags the renderable content carried by a Node. Drivers select
// a renderer per kind.
type ContentKind uint8

const (
	ContentNone  ContentKind = iota // container, nothing to draw
	ContentRect                     // solid colored rectangle
	ContentImage                    // driver-specific image handle
)

// String returns the lowercase kind name.
func (k ContentKind) String() string {
	switch k {
	case ContentNone:
		return "none"
	case ContentRect:
		return "rect"
	case ContentImage:
		return "image"
	default:
		return "unknown"
	}
}
