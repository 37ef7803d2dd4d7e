package tilecam

import (
	"github.com/phanxgames/tilecam/gfx"
)

const resolveFragmentGLSL = `#version 330 core

uniform sampler2DMS Texture;
uniform int SampleCount;

out vec4 fragColour;

void main() {
	ivec2 texel = ivec2(gl_FragCoord.xy);
	vec4 sum = vec4(0.0);
	for (int i = 0; i < SampleCount; i++) {
		sum += texelFetch(Texture, texel, i);
	}
	fragColour = sum / float(SampleCount);
}
`

// The Ebitengine device stores a multisample texture as a supersampled image
// with a ceil(sqrt(SampleCount)) square grid of texels per pixel; srcPos is
// the centre of that grid.
const resolveKage = `//kage:unit pixels

package main

var SampleCount int

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	grid := ceil(sqrt(float(SampleCount)))
	origin := srcPos - vec2(grid)/2
	sum := vec4(0)
	n := 0.0
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			if float(i) < grid && float(j) < grid {
				sum += imageSrc0At(origin + vec2(float(i), float(j)) + 0.5)
				n += 1
			}
		}
	}
	return sum / n
}
`

// ResolveShaderSource averages the samples of a multisample texture into a
// single-sample target. It shares the quad vertex stage.
var ResolveShaderSource = gfx.ProgramSource{
	Name:     "msaa-resolve",
	Vertex:   quadVertexGLSL,
	Fragment: resolveFragmentGLSL,
	Kage:     resolveKage,
}

// MSAAResolver draws a multisample texture into a single-sample framebuffer.
type MSAAResolver struct {
	shader *Shader
}

func newMSAAResolver(dev gfx.Device) (*MSAAResolver, error) {
	s, err := NewShader(dev, ResolveShaderSource)
	if err != nil {
		return nil, err
	}
	return &MSAAResolver{shader: s}, nil
}

// Shader returns the resolve program.
func (r *MSAAResolver) Shader() *Shader {
	return r.shader
}

// Resolve replaces the current render target with target, clears it to
// transparent and draws quad (vertexCount vertices, a triangle strip) sampling
// msTexture. The previous target and bindings are restored afterwards.
func (r *MSAAResolver) Resolve(rc *RenderContext, msTexture gfx.Texture, target gfx.Framebuffer, samples int, projection, modelView *gfx.Mat4, quad gfx.Buffer, vertexCount int) {
	prev := rc.ReplaceTarget(target)
	rc.clearTarget(ColorTransparent)
	rc.Draw(DrawCall{
		Shader:        r.shader,
		Texture:       msTexture,
		TextureTarget: gfx.Texture2DMultisample,
		Buffer:        quad,
		Mode:          gfx.TriangleStrip,
		Count:         vertexCount,
		Projection:    projection,
		ModelView:     modelView,
		SampleCount:   samples,
	})
	rc.stats.Resolves++
	rc.ReplaceTarget(prev)
}
