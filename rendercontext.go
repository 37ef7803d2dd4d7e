package tilecam

import (
	"errors"

	"github.com/phanxgames/tilecam/gfx"
)

// ViewportStack records which framebuffer is the current render target so
// nested cameras can restore the target they composite back into. The base
// entry is always the screen (framebuffer 0) and is never popped.
type ViewportStack struct {
	targets []gfx.Framebuffer
}

// Current returns the framebuffer on top of the stack.
func (s *ViewportStack) Current() gfx.Framebuffer {
	if len(s.targets) == 0 {
		return 0
	}
	return s.targets[len(s.targets)-1]
}

// Push makes fb current and returns the previous current framebuffer.
func (s *ViewportStack) Push(fb gfx.Framebuffer) gfx.Framebuffer {
	prev := s.Current()
	s.targets = append(s.targets, fb)
	return prev
}

// Pop removes the top entry and returns the framebuffer that is current
// afterwards. Popping an empty stack leaves the screen current.
func (s *ViewportStack) Pop() gfx.Framebuffer {
	if len(s.targets) > 0 {
		s.targets = s.targets[:len(s.targets)-1]
	}
	return s.Current()
}

// Replace swaps the top entry for fb and returns the replaced framebuffer.
// On an empty stack it behaves like Push.
func (s *ViewportStack) Replace(fb gfx.Framebuffer) gfx.Framebuffer {
	if len(s.targets) == 0 {
		return s.Push(fb)
	}
	prev := s.targets[len(s.targets)-1]
	s.targets[len(s.targets)-1] = fb
	return prev
}

// Depth returns the number of entries above the screen.
func (s *ViewportStack) Depth() int {
	return len(s.targets)
}

// RenderStats holds per-frame counters. Reset by Screen.Render.
type RenderStats struct {
	CameraPasses   int
	Resolves       int
	DrawCalls      int
	TargetsCreated int
	DeviceErrors   int
}

// maxErrorDrain bounds how many queued device errors one check reads.
const maxErrorDrain = 16

// RenderContext carries the device binding state through a render call
// chain: the ViewportStack plus the texture, buffer and program last bound
// through it. Every bind helper returns the previous binding so the caller
// can restore it before returning.
type RenderContext struct {
	dev   gfx.Device
	res   *GraphicsResources
	stack ViewportStack

	textures [2]gfx.Texture
	buffer   gfx.Buffer
	program  gfx.Program

	scratch []float32
	stats   RenderStats
}

// NewRenderContext creates a render context on the device the resources
// were initialised for.
func NewRenderContext(res *GraphicsResources) (*RenderContext, error) {
	if res == nil || !res.Initialised() {
		return nil, errors.New("tilecam: graphics resources are not initialised")
	}
	return &RenderContext{dev: res.dev, res: res}, nil
}

// Device returns the graphics device.
func (rc *RenderContext) Device() gfx.Device {
	return rc.dev
}

// Resources returns the shared graphics resources.
func (rc *RenderContext) Resources() *GraphicsResources {
	return rc.res
}

// Stack returns the viewport stack. Callers outside a Render chain should
// only read it.
func (rc *RenderContext) Stack() *ViewportStack {
	return &rc.stack
}

// CurrentTarget returns the framebuffer currently rendered into.
func (rc *RenderContext) CurrentTarget() gfx.Framebuffer {
	return rc.stack.Current()
}

// PushTarget binds fb, records it on the stack and returns the previous
// target.
func (rc *RenderContext) PushTarget(fb gfx.Framebuffer) gfx.Framebuffer {
	prev := rc.stack.Push(fb)
	rc.dev.BindFramebuffer(fb)
	return prev
}

// PopTarget drops the top of the stack and rebinds the target below it,
// which it returns.
func (rc *RenderContext) PopTarget() gfx.Framebuffer {
	cur := rc.stack.Pop()
	rc.dev.BindFramebuffer(cur)
	return cur
}

// ReplaceTarget binds fb in place of the top of the stack and returns the
// replaced target.
func (rc *RenderContext) ReplaceTarget(fb gfx.Framebuffer) gfx.Framebuffer {
	prev := rc.stack.Replace(fb)
	rc.dev.BindFramebuffer(fb)
	return prev
}

// BindTexture binds t to target and returns the previously bound texture.
func (rc *RenderContext) BindTexture(target gfx.TextureTarget, t gfx.Texture) gfx.Texture {
	prev := rc.textures[target]
	rc.textures[target] = t
	rc.dev.BindTexture(target, t)
	return prev
}

// BindBuffer binds b as the array buffer and returns the previous one.
func (rc *RenderContext) BindBuffer(b gfx.Buffer) gfx.Buffer {
	prev := rc.buffer
	rc.buffer = b
	rc.dev.BindBuffer(gfx.ArrayBuffer, b)
	return prev
}

// UseProgram makes p current and returns the previous program.
func (rc *RenderContext) UseProgram(p gfx.Program) gfx.Program {
	prev := rc.program
	rc.program = p
	rc.dev.UseProgram(p)
	return prev
}

// forgetTexture drops t from the tracked bindings after deletion; the
// device unbinds deleted textures itself.
func (rc *RenderContext) forgetTexture(t gfx.Texture) {
	for i := range rc.textures {
		if rc.textures[i] == t {
			rc.textures[i] = 0
		}
	}
}

// GenBuffer creates a vertex buffer.
func (rc *RenderContext) GenBuffer() gfx.Buffer {
	return rc.dev.GenBuffer()
}

// DeleteBuffer deletes b and drops it from the tracked binding.
func (rc *RenderContext) DeleteBuffer(b gfx.Buffer) {
	if b == 0 {
		return
	}
	rc.dev.DeleteBuffer(b)
	if rc.buffer == b {
		rc.buffer = 0
	}
}

// Upload replaces the contents of buffer b with verts.
func (rc *RenderContext) Upload(b gfx.Buffer, verts []Vertex) {
	if b == 0 {
		return
	}
	rc.scratch = appendVertexFloats(rc.scratch[:0], verts)
	prev := rc.BindBuffer(b)
	rc.dev.BufferData(gfx.ArrayBuffer, rc.scratch, gfx.DynamicDraw)
	rc.BindBuffer(prev)
}

// DrawCall describes one textured draw of vertices already uploaded to
// Buffer.
type DrawCall struct {
	Shader        *Shader
	Texture       gfx.Texture
	TextureTarget gfx.TextureTarget
	Buffer        gfx.Buffer
	Mode          gfx.DrawMode
	First, Count  int
	Projection    *gfx.Mat4
	ModelView     *gfx.Mat4
	// SampleCount is written to the SampleCount uniform when positive.
	SampleCount int
}

// Draw issues dc into the current target and restores the program, texture
// and buffer bindings it changed.
func (rc *RenderContext) Draw(dc DrawCall) {
	if dc.Shader == nil || dc.Count <= 0 || dc.Buffer == 0 {
		return
	}
	s := dc.Shader
	prevProgram := rc.UseProgram(s.program)
	rc.dev.UniformMatrix4(s.projection, *dc.Projection)
	rc.dev.UniformMatrix4(s.modelView, *dc.ModelView)
	rc.dev.Uniform1i(s.texture, 0)
	if dc.SampleCount > 0 {
		rc.dev.Uniform1i(s.sampleCount, int32(dc.SampleCount))
	}
	s.applyParams(rc.dev)
	prevTexture := rc.BindTexture(dc.TextureTarget, dc.Texture)
	prevBuffer := rc.BindBuffer(dc.Buffer)
	s.bindAttributes(rc.dev)

	rc.dev.DrawArrays(dc.Mode, dc.First, dc.Count)
	rc.stats.DrawCalls++

	rc.BindBuffer(prevBuffer)
	rc.BindTexture(dc.TextureTarget, prevTexture)
	rc.UseProgram(prevProgram)
}

// clearTarget clears the bound framebuffer to c, premultiplied to match the
// One, OneMinusSrcAlpha blending used for compositing.
func (rc *RenderContext) clearTarget(c Color) {
	rc.dev.ClearColor(float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A))
	rc.dev.Clear(gfx.ColorBufferBit)
}

// checkError drains the device error queue, logging each error as a
// warning. It reports whether any error was found.
func (rc *RenderContext) checkError(stage string, attrs ...any) bool {
	found := false
	for i := 0; i < maxErrorDrain; i++ {
		code := rc.dev.GetError()
		if code == gfx.NoError {
			break
		}
		found = true
		rc.stats.DeviceErrors++
		args := append([]any{"stage", stage, "error", code.String()}, attrs...)
		Logger().Warn("tilecam: graphics device error", args...)
	}
	return found
}

// Stats returns the counters accumulated since the last ResetStats.
func (rc *RenderContext) Stats() RenderStats {
	return rc.stats
}

// ResetStats zeroes the per-frame counters.
func (rc *RenderContext) ResetStats() {
	rc.stats = RenderStats{}
}
