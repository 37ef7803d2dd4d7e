package tilecam

import (
	"fmt"

	"github.com/phanxgames/tilecam/gfx"
)

// Uniform and attribute names every tilecam program declares. A program may
// omit any of them; the device then reports location -1 and the value is
// skipped.
const (
	UniformProjection  = "Projection"
	UniformModelView   = "ModelView"
	UniformTexture     = "Texture"
	UniformSampleCount = "SampleCount"

	AttribPosition = "position"
	AttribColour   = "colour"
	AttribTexcoord = "texcoord"
)

// Shader is a compiled program plus the uniform and attribute locations the
// renderer writes. Extra float and vec4 uniforms set with SetFloat and SetVec4
// are uploaded on every draw with the shader.
type Shader struct {
	dev     gfx.Device
	program gfx.Program

	projection  int32
	modelView   int32
	texture     int32
	sampleCount int32

	position int32
	colour   int32
	texcoord int32

	params []shaderParam
}

type shaderParam struct {
	name  string
	loc   int32
	vec4  bool
	value [4]float32
}

// NewShader compiles src on dev and looks up the standard locations.
func NewShader(dev gfx.Device, src gfx.ProgramSource) (*Shader, error) {
	p, err := dev.CompileProgram(src)
	if err != nil {
		return nil, fmt.Errorf("tilecam: compile %s shader: %w", src.Name, err)
	}
	return &Shader{
		dev:         dev,
		program:     p,
		projection:  dev.UniformLocation(p, UniformProjection),
		modelView:   dev.UniformLocation(p, UniformModelView),
		texture:     dev.UniformLocation(p, UniformTexture),
		sampleCount: dev.UniformLocation(p, UniformSampleCount),
		position:    dev.AttribLocation(p, AttribPosition),
		colour:      dev.AttribLocation(p, AttribColour),
		texcoord:    dev.AttribLocation(p, AttribTexcoord),
	}, nil
}

// Program returns the program handle.
func (s *Shader) Program() gfx.Program {
	return s.program
}

// Release deletes the program. Safe to call repeatedly.
func (s *Shader) Release(dev gfx.Device) {
	if s.program != 0 {
		dev.DeleteProgram(s.program)
		s.program = 0
	}
	s.params = nil
}

// SetFloat sets a float uniform uploaded with every draw. Names the program
// does not declare are kept but never uploaded.
func (s *Shader) SetFloat(name string, v float32) {
	p := s.param(name)
	p.vec4 = false
	p.value = [4]float32{v}
}

// SetVec4 sets a vec4 uniform uploaded with every draw.
func (s *Shader) SetVec4(name string, v [4]float32) {
	p := s.param(name)
	p.vec4 = true
	p.value = v
}

// Float returns a value set with SetFloat.
func (s *Shader) Float(name string) (float32, bool) {
	for _, p := range s.params {
		if p.name == name && !p.vec4 {
			return p.value[0], true
		}
	}
	return 0, false
}

// Vec4 returns a value set with SetVec4.
func (s *Shader) Vec4(name string) ([4]float32, bool) {
	for _, p := range s.params {
		if p.name == name && p.vec4 {
			return p.value, true
		}
	}
	return [4]float32{}, false
}

func (s *Shader) param(name string) *shaderParam {
	for i := range s.params {
		if s.params[i].name == name {
			return &s.params[i]
		}
	}
	loc := int32(-1)
	if s.program != 0 {
		loc = s.dev.UniformLocation(s.program, name)
	}
	s.params = append(s.params, shaderParam{name: name, loc: loc})
	return &s.params[len(s.params)-1]
}

// applyParams uploads the extra uniforms. The program must be current.
func (s *Shader) applyParams(dev gfx.Device) {
	for _, p := range s.params {
		if p.loc < 0 {
			continue
		}
		if p.vec4 {
			dev.Uniform4f(p.loc, p.value[0], p.value[1], p.value[2], p.value[3])
		} else {
			dev.Uniform1f(p.loc, p.value[0])
		}
	}
}

// bindAttributes points the attributes at the bound vertex buffer.
func (s *Shader) bindAttributes(dev gfx.Device) {
	bind := func(loc int32, size, offset int) {
		if loc < 0 {
			return
		}
		dev.VertexAttribPointer(loc, size, vertexStride, offset)
		dev.EnableVertexAttribArray(loc)
	}
	bind(s.position, 2, vertexPositionOffset)
	bind(s.colour, 4, vertexColourOffset)
	bind(s.texcoord, 2, vertexTexOffset)
}

const quadVertexGLSL = `#version 330 core

uniform mat4 Projection;
uniform mat4 ModelView;

in vec2 position;
in vec4 colour;
in vec2 texcoord;

out vec4 vColour;
out vec2 vTexcoord;

void main() {
	vColour = colour;
	vTexcoord = texcoord;
	gl_Position = Projection * ModelView * vec4(position, 0.0, 1.0);
}
`

const quadFragmentGLSL = `#version 330 core

uniform sampler2D Texture;

in vec4 vColour;
in vec2 vTexcoord;

out vec4 fragColour;

void main() {
	fragColour = texture(Texture, vTexcoord) * vColour;
}
`

// The Kage stage only covers the fragment; positions are transformed by the
// device before the draw.
const quadKage = `//kage:unit pixels

package main

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	return imageSrc0At(srcPos) * color
}
`

// QuadShaderSource is the default program: a textured, tinted quad. Cameras
// composite with it unless given their own Shader.
var QuadShaderSource = gfx.ProgramSource{
	Name:     "quad",
	Vertex:   quadVertexGLSL,
	Fragment: quadFragmentGLSL,
	Kage:     quadKage,
}
