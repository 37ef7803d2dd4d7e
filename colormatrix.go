package tilecam

import (
	"github.com/phanxgames/tilecam/gfx"
)

// ColorMatrix is a 4x5 colour transform in row-major order:
// [R_r, R_g, R_b, R_a, R_offset, G_r, ...]. It is applied to straight-alpha
// colour while a camera composites its target.
type ColorMatrix [20]float64

// IdentityColorMatrix leaves colours unchanged.
func IdentityColorMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// BrightnessMatrix adds b, in [-1, 1], to each colour channel.
func BrightnessMatrix(b float64) ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales contrast around mid-grey. 1 is unchanged, 0 is flat
// grey.
func ContrastMatrix(c float64) ColorMatrix {
	t := (1 - c) / 2
	return ColorMatrix{
		c, 0, 0, 0, t,
		0, c, 0, 0, t,
		0, 0, c, 0, t,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix scales saturation. 1 is unchanged, 0 is greyscale.
func SaturationMatrix(s float64) ColorMatrix {
	sr := (1 - s) * 0.299
	sg := (1 - s) * 0.587
	sb := (1 - s) * 0.114
	return ColorMatrix{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Uniforms of the colour matrix program.
const (
	UniformMatrixR  = "MatrixR"
	UniformMatrixG  = "MatrixG"
	UniformMatrixB  = "MatrixB"
	UniformMatrixA  = "MatrixA"
	UniformOffset   = "Offset"
	UniformStrength = "Strength"
)

const colorMatrixFragmentGLSL = `#version 330 core

uniform sampler2D Texture;
uniform vec4 MatrixR;
uniform vec4 MatrixG;
uniform vec4 MatrixB;
uniform vec4 MatrixA;
uniform vec4 Offset;
uniform float Strength;

in vec4 vColour;
in vec2 vTexcoord;

out vec4 fragColour;

void main() {
	vec4 c = texture(Texture, vTexcoord);
	if (c.a > 0.0) {
		c.rgb /= c.a;
	}
	vec4 m = vec4(dot(MatrixR, c), dot(MatrixG, c), dot(MatrixB, c), dot(MatrixA, c)) + Offset;
	m = clamp(m, 0.0, 1.0);
	vec4 o = c + (m - c) * Strength;
	fragColour = vec4(o.rgb * o.a, o.a) * vColour;
}
`

const colorMatrixKage = `//kage:unit pixels

package main

var MatrixR vec4
var MatrixG vec4
var MatrixB vec4
var MatrixA vec4
var Offset vec4
var Strength float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	c := imageSrc0At(srcPos)
	if c.a > 0 {
		c.rgb /= c.a
	}
	m := vec4(dot(MatrixR, c), dot(MatrixG, c), dot(MatrixB, c), dot(MatrixA, c)) + Offset
	m = clamp(m, vec4(0), vec4(1))
	o := c + (m-c)*Strength
	return vec4(o.rgb*o.a, o.a) * color
}
`

// ColorMatrixShaderSource composites a camera through a ColorMatrix.
var ColorMatrixShaderSource = gfx.ProgramSource{
	Name:     "color-matrix",
	Vertex:   quadVertexGLSL,
	Fragment: colorMatrixFragmentGLSL,
	Kage:     colorMatrixKage,
}

// NewColorMatrixShader compiles a composite shader that applies m at full
// strength. Assign it to Camera.Shader and release it with Release when no
// camera uses it.
func NewColorMatrixShader(dev gfx.Device, m ColorMatrix) (*Shader, error) {
	s, err := NewShader(dev, ColorMatrixShaderSource)
	if err != nil {
		return nil, err
	}
	s.SetColorMatrix(m)
	s.SetFloat(UniformStrength, 1)
	return s, nil
}

// SetColorMatrix writes m into the matrix uniforms of a colour matrix shader.
func (s *Shader) SetColorMatrix(m ColorMatrix) {
	names := [4]string{UniformMatrixR, UniformMatrixG, UniformMatrixB, UniformMatrixA}
	var offset [4]float32
	for row, name := range names {
		r := m[row*5 : row*5+5]
		s.SetVec4(name, [4]float32{float32(r[0]), float32(r[1]), float32(r[2]), float32(r[3])})
		offset[row] = float32(r[4])
	}
	s.SetVec4(UniformOffset, offset)
}
