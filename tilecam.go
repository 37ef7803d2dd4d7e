package tilecam

import (
	"fmt"
	"math"
)

// Color represents an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default vertex tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// ColorTransparent is transparent black.
var ColorTransparent = Color{}

// Vec2 is a 2D point or size. Which space it lives in (window, local or
// tile) depends on where it came from.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Mul returns the component-wise product of v and o.
func (v Vec2) Mul(o Vec2) Vec2 { return Vec2{v.X * o.X, v.Y * o.Y} }

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// RectFromCorners builds the rectangle spanned by two opposite corners in
// any order.
func RectFromCorners(a, b Vec2) Rect {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Origin returns the top-left corner.
func (r Rect) Origin() Vec2 { return Vec2{r.X, r.Y} }

// Max returns the bottom-right corner.
func (r Rect) Max() Vec2 { return Vec2{r.X + r.Width, r.Y + r.Height} }

// Size returns the width and height as a Vec2.
func (r Rect) Size() Vec2 { return Vec2{r.Width, r.Height} }

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

// MSAASamples selects the multisample count of a camera's scene pass.
type MSAASamples uint8

const (
	MSAADisabled MSAASamples = iota // single-sample rendering, no resolve pass
	MSAAx2                          // 2 samples per pixel
	MSAAx4                          // 4 samples per pixel
	MSAAx8                          // 8 samples per pixel
	MSAAx16                         // 16 samples per pixel
)

// Count returns the number of samples per pixel (1 when disabled).
func (m MSAASamples) Count() int {
	switch m {
	case MSAAx2:
		return 2
	case MSAAx4:
		return 4
	case MSAAx8:
		return 8
	case MSAAx16:
		return 16
	default:
		return 1
	}
}

// Enabled reports whether m requests a multisample pass.
func (m MSAASamples) Enabled() bool {
	return m.Count() > 1
}

func (m MSAASamples) String() string {
	if !m.Enabled() {
		return "disabled"
	}
	return fmt.Sprintf("x%d", m.Count())
}

// ParseMSAASamples converts "disabled", "x4", "4" and the like.
func ParseMSAASamples(s string) (MSAASamples, error) {
	switch s {
	case "", "disabled", "off", "none", "0", "1":
		return MSAADisabled, nil
	case "x2", "2":
		return MSAAx2, nil
	case "x4", "4":
		return MSAAx4, nil
	case "x8", "8":
		return MSAAx8, nil
	case "x16", "16":
		return MSAAx16, nil
	}
	return MSAADisabled, fmt.Errorf("tilecam: unknown MSAA sample count %q", s)
}

// Vertex is one corner of a textured, tinted quad.
type Vertex struct {
	X, Y   float32
	Colour Color
	U, V   float32
}

// Vertex attribute layout: position (2), colour (4), texcoord (2).
const (
	vertexFloats         = 8
	vertexStride         = vertexFloats * 4
	vertexPositionOffset = 0
	vertexColourOffset   = 2 * 4
	vertexTexOffset      = 6 * 4
)

// appendVertexFloats flattens vertices into dst using the attribute layout.
func appendVertexFloats(dst []float32, verts []Vertex) []float32 {
	for _, v := range verts {
		dst = append(dst,
			v.X, v.Y,
			float32(v.Colour.R), float32(v.Colour.G), float32(v.Colour.B), float32(v.Colour.A),
			v.U, v.V,
		)
	}
	return dst
}
