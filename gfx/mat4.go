package gfx

import (
	"math"

	"golang.org/x/image/math/f32"
)

// Mat4 is a 4x4 float32 matrix in row-major order: m[4*r+c] is row r,
// column c. Points are column vectors, so A.Mul(B) applies B first.
type Mat4 f32.Mat4

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Ortho returns an orthographic projection mapping [left,right]x[bottom,top]
// to clip space.
//
// Ortho(0, w, h, 0, -1, 1) maps pixel (0,0) to the top-left corner.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	rl := right - left
	tb := top - bottom
	fn := far - near
	return Mat4{
		2 / rl, 0, 0, -(right + left) / rl,
		0, 2 / tb, 0, -(top + bottom) / tb,
		0, 0, -2 / fn, -(far + near) / fn,
		0, 0, 0, 1,
	}
}

// Translation returns a matrix translating by (x, y).
func Translation(x, y float32) Mat4 {
	return Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Scaling returns a matrix scaling by (x, y).
func Scaling(x, y float32) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RotationZ returns a matrix rotating by angle radians around the Z axis.
// With a y-down projection positive angles turn clockwise on screen.
func RotationZ(angle float64) Mat4 {
	sin, cos := math.Sincos(angle)
	s, c := float32(sin), float32(cos)
	return Mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[4*row+k] * o[4*k+col]
			}
			r[4*row+col] = sum
		}
	}
	return r
}

// Transform applies m to the point (x, y, 0, 1) and returns the resulting
// x, y and w components.
func (m Mat4) Transform(x, y float32) (tx, ty, tw float32) {
	tx = m[0]*x + m[1]*y + m[3]
	ty = m[4]*x + m[5]*y + m[7]
	tw = m[12]*x + m[13]*y + m[15]
	return
}

// Transposed returns the column-major layout of m, as GL uploads expect.
func (m Mat4) Transposed() Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			r[4*col+row] = m[4*row+col]
		}
	}
	return r
}
