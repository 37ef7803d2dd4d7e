// Package gfxtest provides an in-memory gfx.Device that records binding
// state, live resources and draw calls for tests.
package gfxtest

import (
	"errors"

	"github.com/phanxgames/tilecam/gfx"
)

// Draw is one recorded DrawArrays call with the state it ran under.
type Draw struct {
	Program      gfx.Program
	Framebuffer  gfx.Framebuffer
	Texture      gfx.Texture
	MSTexture    gfx.Texture
	Buffer       gfx.Buffer
	Viewport     gfx.Rectangle
	Mode         gfx.DrawMode
	First, Count int
	Matrices     map[int32]gfx.Mat4
	Ints         map[int32]int32
	Floats       map[int32][4]float32
	BlendSrc     gfx.BlendFactor
	BlendDst     gfx.BlendFactor
	VertexFloats int
}

// Clear is one recorded Clear call.
type Clear struct {
	Framebuffer gfx.Framebuffer
	Colour      [4]float32
}

type texture struct {
	target  gfx.TextureTarget
	width   int
	height  int
	samples int
}

type framebuffer struct {
	attached gfx.Texture
}

type program struct {
	src      gfx.ProgramSource
	uniforms map[string]int32
	attribs  map[string]int32
}

// Device is a recording gfx.Device. The zero value is not usable; use New.
type Device struct {
	// Caps is returned by Capabilities.
	Caps gfx.Capabilities
	// FailCompile makes CompileProgram fail.
	FailCompile bool
	// IncompleteFramebuffers makes CheckFramebufferStatus report
	// FramebufferIncompleteAttach.
	IncompleteFramebuffers bool

	nextHandle uint32

	textures     map[gfx.Texture]*texture
	framebuffers map[gfx.Framebuffer]*framebuffer
	buffers      map[gfx.Buffer][]float32
	programs     map[gfx.Program]*program

	boundFramebuffer gfx.Framebuffer
	boundTexture     [2]gfx.Texture
	boundBuffer      gfx.Buffer
	currentProgram   gfx.Program
	viewport         gfx.Rectangle
	clearColour      [4]float32
	blendSrc         gfx.BlendFactor
	blendDst         gfx.BlendFactor

	matrices map[int32]gfx.Mat4
	ints     map[int32]int32
	floats   map[int32][4]float32

	errs []gfx.ErrorCode

	// Draws and Clears are appended in call order.
	Draws  []Draw
	Clears []Clear
	// Calls counts calls by method name.
	Calls map[string]int
}

var _ gfx.Device = (*Device)(nil)

// New returns a recording device with a screen-sized default viewport.
func New(screenW, screenH int) *Device {
	return &Device{
		Caps:         gfx.Capabilities{ReuseFramebuffers: true, MaxSamples: 16},
		textures:     make(map[gfx.Texture]*texture),
		framebuffers: make(map[gfx.Framebuffer]*framebuffer),
		buffers:      make(map[gfx.Buffer][]float32),
		programs:     make(map[gfx.Program]*program),
		viewport:     gfx.Rectangle{Width: screenW, Height: screenH},
		matrices:     make(map[int32]gfx.Mat4),
		ints:         make(map[int32]int32),
		floats:       make(map[int32][4]float32),
		Calls:        make(map[string]int),
	}
}

func (d *Device) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

func (d *Device) record(err gfx.ErrorCode) {
	d.errs = append(d.errs, err)
}

// QueueError makes the next GetError calls report err.
func (d *Device) QueueError(err gfx.ErrorCode) {
	d.record(err)
}

// --- Inspection ---

// LiveTextures returns the number of textures not yet deleted.
func (d *Device) LiveTextures() int { return len(d.textures) }

// LiveFramebuffers returns the number of framebuffers not yet deleted.
func (d *Device) LiveFramebuffers() int { return len(d.framebuffers) }

// LiveBuffers returns the number of buffers not yet deleted.
func (d *Device) LiveBuffers() int { return len(d.buffers) }

// LivePrograms returns the number of programs not yet deleted.
func (d *Device) LivePrograms() int { return len(d.programs) }

// BoundFramebuffer returns the current framebuffer binding.
func (d *Device) BoundFramebuffer() gfx.Framebuffer { return d.boundFramebuffer }

// BoundTexture returns the texture bound to target.
func (d *Device) BoundTexture(target gfx.TextureTarget) gfx.Texture { return d.boundTexture[target] }

// BoundBuffer returns the current array buffer binding.
func (d *Device) BoundBuffer() gfx.Buffer { return d.boundBuffer }

// CurrentProgram returns the program in use.
func (d *Device) CurrentProgram() gfx.Program { return d.currentProgram }

// TextureSize returns the allocated size and sample count of t.
func (d *Device) TextureSize(t gfx.Texture) (w, h, samples int, ok bool) {
	tex, ok := d.textures[t]
	if !ok {
		return 0, 0, 0, false
	}
	return tex.width, tex.height, tex.samples, true
}

// Attachment returns the texture attached to fb.
func (d *Device) Attachment(fb gfx.Framebuffer) gfx.Texture {
	if f, ok := d.framebuffers[fb]; ok {
		return f.attached
	}
	return 0
}

// BufferFloats returns the data last uploaded to b.
func (d *Device) BufferFloats(b gfx.Buffer) []float32 {
	return d.buffers[b]
}

// ProgramName returns the source name p was compiled from.
func (d *Device) ProgramName(p gfx.Program) string {
	if prog, ok := d.programs[p]; ok {
		return prog.src.Name
	}
	return ""
}

// ResetLog drops recorded draws, clears and call counts.
func (d *Device) ResetLog() {
	d.Draws = nil
	d.Clears = nil
	d.Calls = make(map[string]int)
}

// --- Textures ---

func (d *Device) GenTexture() gfx.Texture {
	d.Calls["GenTexture"]++
	t := gfx.Texture(d.handle())
	d.textures[t] = &texture{}
	return t
}

func (d *Device) DeleteTexture(t gfx.Texture) {
	d.Calls["DeleteTexture"]++
	if t == 0 {
		return
	}
	delete(d.textures, t)
	for i := range d.boundTexture {
		if d.boundTexture[i] == t {
			d.boundTexture[i] = 0
		}
	}
}

func (d *Device) BindTexture(target gfx.TextureTarget, t gfx.Texture) {
	d.Calls["BindTexture"]++
	if t != 0 {
		if _, ok := d.textures[t]; !ok {
			d.record(gfx.InvalidOperation)
			return
		}
	}
	d.boundTexture[target] = t
}

func (d *Device) bound(target gfx.TextureTarget) *texture {
	tex, ok := d.textures[d.boundTexture[target]]
	if !ok {
		d.record(gfx.InvalidOperation)
		return nil
	}
	return tex
}

func (d *Device) TexImage2D(target gfx.TextureTarget, width, height int, _ gfx.PixelFormat) {
	d.Calls["TexImage2D"]++
	if width <= 0 || height <= 0 {
		d.record(gfx.InvalidValue)
		return
	}
	if tex := d.bound(target); tex != nil {
		tex.target, tex.width, tex.height, tex.samples = target, width, height, 1
	}
}

func (d *Device) TexImage2DMultisample(samples, width, height int, _ gfx.PixelFormat) {
	d.Calls["TexImage2DMultisample"]++
	if width <= 0 || height <= 0 || samples < 1 {
		d.record(gfx.InvalidValue)
		return
	}
	if tex := d.bound(gfx.Texture2DMultisample); tex != nil {
		tex.target, tex.width, tex.height, tex.samples = gfx.Texture2DMultisample, width, height, samples
	}
}

func (d *Device) TexStorage2D(target gfx.TextureTarget, levels, width, height int, _ gfx.PixelFormat) {
	d.Calls["TexStorage2D"]++
	if !d.Caps.ImmutableTextureStorage {
		d.record(gfx.InvalidOperation)
		return
	}
	if width <= 0 || height <= 0 || levels < 1 {
		d.record(gfx.InvalidValue)
		return
	}
	if tex := d.bound(target); tex != nil {
		tex.target, tex.width, tex.height, tex.samples = target, width, height, 1
	}
}

func (d *Device) TexParameteri(target gfx.TextureTarget, _ gfx.TexParam, _ int32) {
	d.Calls["TexParameteri"]++
	d.bound(target)
}

// --- Framebuffers ---

func (d *Device) GenFramebuffer() gfx.Framebuffer {
	d.Calls["GenFramebuffer"]++
	fb := gfx.Framebuffer(d.handle())
	d.framebuffers[fb] = &framebuffer{}
	return fb
}

func (d *Device) DeleteFramebuffer(fb gfx.Framebuffer) {
	d.Calls["DeleteFramebuffer"]++
	if fb == 0 {
		return
	}
	delete(d.framebuffers, fb)
	if d.boundFramebuffer == fb {
		d.boundFramebuffer = 0
	}
}

func (d *Device) BindFramebuffer(fb gfx.Framebuffer) {
	d.Calls["BindFramebuffer"]++
	if fb != 0 {
		if _, ok := d.framebuffers[fb]; !ok {
			d.record(gfx.InvalidOperation)
			return
		}
	}
	d.boundFramebuffer = fb
}

func (d *Device) FramebufferTexture2D(_ gfx.Attachment, target gfx.TextureTarget, t gfx.Texture) {
	d.Calls["FramebufferTexture2D"]++
	f, ok := d.framebuffers[d.boundFramebuffer]
	if !ok {
		d.record(gfx.InvalidOperation)
		return
	}
	if t != 0 {
		tex, ok := d.textures[t]
		if !ok || tex.target != target {
			d.record(gfx.InvalidOperation)
			return
		}
	}
	f.attached = t
}

func (d *Device) CheckFramebufferStatus() gfx.FramebufferStatus {
	d.Calls["CheckFramebufferStatus"]++
	if d.IncompleteFramebuffers {
		return gfx.FramebufferIncompleteAttach
	}
	if d.boundFramebuffer == 0 {
		return gfx.FramebufferComplete
	}
	if d.framebuffers[d.boundFramebuffer].attached == 0 {
		return gfx.FramebufferIncompleteMissing
	}
	return gfx.FramebufferComplete
}

// --- Fixed-function state ---

func (d *Device) Viewport(x, y, width, height int) {
	d.Calls["Viewport"]++
	if width < 0 || height < 0 {
		d.record(gfx.InvalidValue)
		return
	}
	d.viewport = gfx.Rectangle{X: x, Y: y, Width: width, Height: height}
}

func (d *Device) GetFramebufferBinding() gfx.Framebuffer {
	return d.boundFramebuffer
}

func (d *Device) GetViewport() gfx.Rectangle {
	return d.viewport
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.clearColour = [4]float32{r, g, b, a}
}

func (d *Device) Clear(gfx.ClearMask) {
	d.Calls["Clear"]++
	d.Clears = append(d.Clears, Clear{Framebuffer: d.boundFramebuffer, Colour: d.clearColour})
}

func (d *Device) BlendFunc(src, dst gfx.BlendFactor) {
	d.blendSrc, d.blendDst = src, dst
}

// --- Buffers ---

func (d *Device) GenBuffer() gfx.Buffer {
	d.Calls["GenBuffer"]++
	b := gfx.Buffer(d.handle())
	d.buffers[b] = nil
	return b
}

func (d *Device) DeleteBuffer(b gfx.Buffer) {
	d.Calls["DeleteBuffer"]++
	if b == 0 {
		return
	}
	delete(d.buffers, b)
	if d.boundBuffer == b {
		d.boundBuffer = 0
	}
}

func (d *Device) BindBuffer(_ gfx.BufferTarget, b gfx.Buffer) {
	d.Calls["BindBuffer"]++
	if b != 0 {
		if _, ok := d.buffers[b]; !ok {
			d.record(gfx.InvalidOperation)
			return
		}
	}
	d.boundBuffer = b
}

func (d *Device) BufferData(_ gfx.BufferTarget, data []float32, _ gfx.BufferUsage) {
	d.Calls["BufferData"]++
	if d.boundBuffer == 0 {
		d.record(gfx.InvalidOperation)
		return
	}
	d.buffers[d.boundBuffer] = append([]float32(nil), data...)
}

// --- Programs ---

// ErrCompile is returned by CompileProgram when FailCompile is set.
var ErrCompile = errors.New("gfxtest: compile failed")

func (d *Device) CompileProgram(src gfx.ProgramSource) (gfx.Program, error) {
	d.Calls["CompileProgram"]++
	if d.FailCompile {
		return 0, ErrCompile
	}
	p := gfx.Program(d.handle())
	d.programs[p] = &program{
		src:      src,
		uniforms: make(map[string]int32),
		attribs:  make(map[string]int32),
	}
	return p, nil
}

func (d *Device) DeleteProgram(p gfx.Program) {
	d.Calls["DeleteProgram"]++
	delete(d.programs, p)
	if d.currentProgram == p {
		d.currentProgram = 0
	}
}

func (d *Device) UseProgram(p gfx.Program) {
	d.Calls["UseProgram"]++
	if p != 0 {
		if _, ok := d.programs[p]; !ok {
			d.record(gfx.InvalidOperation)
			return
		}
	}
	d.currentProgram = p
}

// Locations are unique per program and name; program handles keep them
// distinct across programs.
func location(p gfx.Program, table map[string]int32, name string) int32 {
	if loc, ok := table[name]; ok {
		return loc
	}
	loc := int32(p)*100 + int32(len(table))
	table[name] = loc
	return loc
}

func (d *Device) UniformLocation(p gfx.Program, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		d.record(gfx.InvalidOperation)
		return -1
	}
	return location(p, prog.uniforms, name)
}

func (d *Device) AttribLocation(p gfx.Program, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		d.record(gfx.InvalidOperation)
		return -1
	}
	return location(p, prog.attribs, name)
}

func (d *Device) UniformMatrix4(location int32, m gfx.Mat4) {
	if location < 0 {
		return
	}
	d.matrices[location] = m
}

func (d *Device) Uniform1i(location int32, v int32) {
	if location < 0 {
		return
	}
	d.ints[location] = v
}

func (d *Device) Uniform1f(location int32, v float32) {
	if location < 0 {
		return
	}
	d.floats[location] = [4]float32{v}
}

func (d *Device) Uniform4f(location int32, x, y, z, w float32) {
	if location < 0 {
		return
	}
	d.floats[location] = [4]float32{x, y, z, w}
}

func (d *Device) VertexAttribPointer(location int32, _, _, _ int) {
	if location < 0 {
		return
	}
	if d.boundBuffer == 0 {
		d.record(gfx.InvalidOperation)
	}
}

func (d *Device) EnableVertexAttribArray(int32) {}

// --- Drawing ---

func (d *Device) DrawArrays(mode gfx.DrawMode, first, count int) {
	d.Calls["DrawArrays"]++
	if d.currentProgram == 0 {
		d.record(gfx.InvalidOperation)
		return
	}
	matrices := make(map[int32]gfx.Mat4, len(d.matrices))
	for k, v := range d.matrices {
		matrices[k] = v
	}
	ints := make(map[int32]int32, len(d.ints))
	for k, v := range d.ints {
		ints[k] = v
	}
	floats := make(map[int32][4]float32, len(d.floats))
	for k, v := range d.floats {
		floats[k] = v
	}
	d.Draws = append(d.Draws, Draw{
		Program:      d.currentProgram,
		Framebuffer:  d.boundFramebuffer,
		Texture:      d.boundTexture[gfx.Texture2D],
		MSTexture:    d.boundTexture[gfx.Texture2DMultisample],
		Buffer:       d.boundBuffer,
		Viewport:     d.viewport,
		Mode:         mode,
		First:        first,
		Count:        count,
		Matrices:     matrices,
		Ints:         ints,
		Floats:       floats,
		BlendSrc:     d.blendSrc,
		BlendDst:     d.blendDst,
		VertexFloats: len(d.buffers[d.boundBuffer]),
	})
}

// --- Errors ---

func (d *Device) GetError() gfx.ErrorCode {
	if len(d.errs) == 0 {
		return gfx.NoError
	}
	err := d.errs[0]
	d.errs = d.errs[1:]
	return err
}

// PendingErrors returns the number of errors not yet read by GetError.
func (d *Device) PendingErrors() int {
	return len(d.errs)
}

func (d *Device) Capabilities() gfx.Capabilities {
	return d.Caps
}
