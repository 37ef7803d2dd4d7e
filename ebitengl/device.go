// Package ebitengl implements gfx.Device on top of Ebitengine.
//
// Textures are ebiten.Images, framebuffer 0 is the image passed to SetScreen
// and programs are Kage shaders. The vertex stage runs on the CPU: positions
// are transformed by the Projection and ModelView uniforms and handed to
// DrawTrianglesShader in destination pixels.
//
// Ebitengine has no multisample images, so a multisample texture of N samples
// is stored as an image supersampled by ceil(sqrt(N)) in each direction. Draws
// into it are scaled up and the resolve program averages each texel block.
package ebitengl

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/phanxgames/tilecam/gfx"
)

// maxSamples is the largest sample count the supersampled emulation accepts.
const maxSamples = 16

type texture struct {
	target  gfx.TextureTarget
	width   int
	height  int
	samples int
	// backing is the pooled image; img is its (0,0,width*grid,height*grid)
	// sub-image. External textures have no backing.
	backing *ebiten.Image
	img     *ebiten.Image
}

// grid returns the supersampling factor of the texture.
func (t *texture) grid() int {
	return sampleGrid(t.samples)
}

type framebuffer struct {
	attached gfx.Texture
}

// Device is a gfx.Device drawing with Ebitengine. It must only be used from
// the game's Update and Draw callbacks, or before ebiten.RunGame.
type Device struct {
	screen *ebiten.Image

	nextHandle uint32

	textures     map[gfx.Texture]*texture
	framebuffers map[gfx.Framebuffer]*framebuffer
	buffers      map[gfx.Buffer][]float32
	programs     map[gfx.Program]*program

	boundFramebuffer gfx.Framebuffer
	boundTexture     [2]gfx.Texture
	lastTarget       gfx.TextureTarget
	boundBuffer      gfx.Buffer
	currentProgram   gfx.Program
	viewport         gfx.Rectangle
	clearColour      [4]float32
	blend            ebiten.Blend
	attribs          [attribCount]attribPointer

	pool    imagePool
	shaders *lru.Cache[string, *cachedShader]

	errs []gfx.ErrorCode

	// scratch buffers reused across draws.
	vertices []ebiten.Vertex
	indices  []uint16
}

var _ gfx.Device = (*Device)(nil)

// Options configures NewDevice.
type Options struct {
	// ShaderCacheSize is the number of compiled Kage shaders kept. Zero
	// selects 64.
	ShaderCacheSize int
	// PoolLimit caps the pooled images per size bucket. Zero selects 4.
	PoolLimit int
}

// NewDevice creates a device. SetScreen must be called before drawing to
// framebuffer 0.
func NewDevice(opts Options) *Device {
	if opts.ShaderCacheSize <= 0 {
		opts.ShaderCacheSize = 64
	}
	if opts.PoolLimit <= 0 {
		opts.PoolLimit = 4
	}
	shaders, _ := lru.NewWithEvict[string, *cachedShader](opts.ShaderCacheSize, releaseShaderOnEviction)
	return &Device{
		textures:     make(map[gfx.Texture]*texture),
		framebuffers: make(map[gfx.Framebuffer]*framebuffer),
		buffers:      make(map[gfx.Buffer][]float32),
		programs:     make(map[gfx.Program]*program),
		blend:        ebiten.BlendSourceOver,
		pool:         imagePool{limit: opts.PoolLimit},
		shaders:      shaders,
		attribs:      defaultAttribs(),
	}
}

// SetScreen sets the image framebuffer 0 draws into, usually the image passed
// to ebiten.Game.Draw. The viewport is reset to cover it.
func (d *Device) SetScreen(screen *ebiten.Image) {
	d.screen = screen
	if screen != nil {
		b := screen.Bounds()
		d.viewport = gfx.Rectangle{Width: b.Dx(), Height: b.Dy()}
	}
}

// Screen returns the image set by SetScreen.
func (d *Device) Screen() *ebiten.Image {
	return d.screen
}

// NewTextureFromImage registers img as a single-sample texture, for tile
// atlases and other static art. The device does not deallocate img.
func (d *Device) NewTextureFromImage(img *ebiten.Image) gfx.Texture {
	t := gfx.Texture(d.handle())
	b := img.Bounds()
	d.textures[t] = &texture{
		target:  gfx.Texture2D,
		width:   b.Dx(),
		height:  b.Dy(),
		samples: 1,
		img:     img,
	}
	return t
}

// Image returns the image backing t, or nil.
func (d *Device) Image(t gfx.Texture) *ebiten.Image {
	if tex, ok := d.textures[t]; ok {
		return tex.img
	}
	return nil
}

// Release deallocates pooled images and cached shaders. Live textures and
// programs stay valid.
func (d *Device) Release() {
	d.pool.purge()
	d.shaders.Purge()
}

func (d *Device) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

func (d *Device) record(err gfx.ErrorCode) {
	d.errs = append(d.errs, err)
}

// --- Textures ---

func (d *Device) GenTexture() gfx.Texture {
	t := gfx.Texture(d.handle())
	d.textures[t] = &texture{}
	return t
}

func (d *Device) DeleteTexture(t gfx.Texture) {
	tex, ok := d.textures[t]
	if !ok {
		return
	}
	d.pool.release(tex.backing)
	delete(d.textures, t)
	for i := range d.boundTexture {
		if d.boundTexture[i] == t {
			d.boundTexture[i] = 0
		}
	}
	for _, fb := range d.framebuffers {
		if fb.attached == t {
			fb.attached = 0
		}
	}
}

func (d *Device) BindTexture(target gfx.TextureTarget, t gfx.Texture) {
	if int(target) >= len(d.boundTexture) {
		d.record(gfx.InvalidEnum)
		return
	}
	if t != 0 {
		if _, ok := d.textures[t]; !ok {
			d.record(gfx.InvalidOperation)
			return
		}
		d.lastTarget = target
	}
	d.boundTexture[target] = t
}

func (d *Device) bound(target gfx.TextureTarget) *texture {
	if int(target) >= len(d.boundTexture) {
		d.record(gfx.InvalidEnum)
		return nil
	}
	tex, ok := d.textures[d.boundTexture[target]]
	if !ok {
		d.record(gfx.InvalidOperation)
		return nil
	}
	return tex
}

// allocate gives tex a fresh image of the given size and sample count.
func (d *Device) allocate(tex *texture, target gfx.TextureTarget, width, height, samples int) {
	d.pool.release(tex.backing)
	grid := sampleGrid(samples)
	w, h := width*grid, height*grid
	tex.backing = d.pool.acquire(w, h)
	tex.img = tex.backing.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image)
	tex.target, tex.width, tex.height, tex.samples = target, width, height, samples
}

func (d *Device) TexImage2D(target gfx.TextureTarget, width, height int, _ gfx.PixelFormat) {
	if width <= 0 || height <= 0 {
		d.record(gfx.InvalidValue)
		return
	}
	if tex := d.bound(target); tex != nil {
		d.allocate(tex, target, width, height, 1)
	}
}

func (d *Device) TexImage2DMultisample(samples, width, height int, _ gfx.PixelFormat) {
	if width <= 0 || height <= 0 || samples < 1 || samples > maxSamples {
		d.record(gfx.InvalidValue)
		return
	}
	if tex := d.bound(gfx.Texture2DMultisample); tex != nil {
		d.allocate(tex, gfx.Texture2DMultisample, width, height, samples)
	}
}

func (d *Device) TexStorage2D(target gfx.TextureTarget, levels, width, height int, _ gfx.PixelFormat) {
	if width <= 0 || height <= 0 || levels < 1 {
		d.record(gfx.InvalidValue)
		return
	}
	tex := d.bound(target)
	if tex == nil {
		return
	}
	if tex.img != nil {
		// Immutable storage cannot be respecified.
		d.record(gfx.InvalidOperation)
		return
	}
	d.allocate(tex, target, width, height, 1)
}

// TexParameteri is accepted for the bound texture; Ebitengine always samples
// with nearest filtering in pixel-unit Kage shaders.
func (d *Device) TexParameteri(target gfx.TextureTarget, _ gfx.TexParam, _ int32) {
	d.bound(target)
}

// --- Framebuffers ---

func (d *Device) GenFramebuffer() gfx.Framebuffer {
	fb := gfx.Framebuffer(d.handle())
	d.framebuffers[fb] = &framebuffer{}
	return fb
}

func (d *Device) DeleteFramebuffer(fb gfx.Framebuffer) {
	if fb == 0 {
		return
	}
	delete(d.framebuffers, fb)
	if d.boundFramebuffer == fb {
		d.boundFramebuffer = 0
	}
}

func (d *Device) BindFramebuffer(fb gfx.Framebuffer) {
	if fb != 0 {
		if _, ok := d.framebuffers[fb]; !ok {
			d.record(gfx.InvalidOperation)
			return
		}
	}
	d.boundFramebuffer = fb
}

func (d *Device) FramebufferTexture2D(_ gfx.Attachment, target gfx.TextureTarget, t gfx.Texture) {
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
	if d.boundFramebuffer == 0 {
		if d.screen == nil {
			return gfx.FramebufferUnsupported
		}
		return gfx.FramebufferComplete
	}
	f := d.framebuffers[d.boundFramebuffer]
	if f.attached == 0 {
		return gfx.FramebufferIncompleteMissing
	}
	if tex := d.textures[f.attached]; tex == nil || tex.img == nil {
		return gfx.FramebufferIncompleteAttach
	}
	return gfx.FramebufferComplete
}

// target returns the image the bound framebuffer draws into and its
// supersampling factor.
func (d *Device) target() (*ebiten.Image, int) {
	if d.boundFramebuffer == 0 {
		return d.screen, 1
	}
	f, ok := d.framebuffers[d.boundFramebuffer]
	if !ok {
		return nil, 1
	}
	tex, ok := d.textures[f.attached]
	if !ok || tex.img == nil {
		return nil, 1
	}
	return tex.img, tex.grid()
}

// --- Fixed-function state ---

func (d *Device) Viewport(x, y, width, height int) {
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

// Clear fills the whole bound target, ignoring the viewport.
func (d *Device) Clear(gfx.ClearMask) {
	dst, _ := d.target()
	if dst == nil {
		d.record(gfx.InvalidFramebufferOperation)
		return
	}
	dst.Fill(color.RGBA64{
		R: unitToUint16(d.clearColour[0]),
		G: unitToUint16(d.clearColour[1]),
		B: unitToUint16(d.clearColour[2]),
		A: unitToUint16(d.clearColour[3]),
	})
}

func unitToUint16(v float32) uint16 {
	return uint16(math.Round(float64(min(max(v, 0), 1)) * 0xffff))
}

func (d *Device) BlendFunc(src, dst gfx.BlendFactor) {
	s, ok1 := blendFactor(src)
	t, ok2 := blendFactor(dst)
	if !ok1 || !ok2 {
		d.record(gfx.InvalidEnum)
		return
	}
	d.blend = ebiten.Blend{
		BlendFactorSourceRGB:        s,
		BlendFactorSourceAlpha:      s,
		BlendFactorDestinationRGB:   t,
		BlendFactorDestinationAlpha: t,
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	}
}

func blendFactor(f gfx.BlendFactor) (ebiten.BlendFactor, bool) {
	switch f {
	case gfx.Zero:
		return ebiten.BlendFactorZero, true
	case gfx.One:
		return ebiten.BlendFactorOne, true
	case gfx.SrcAlpha:
		return ebiten.BlendFactorSourceAlpha, true
	case gfx.OneMinusSrcAlpha:
		return ebiten.BlendFactorOneMinusSourceAlpha, true
	case gfx.DstAlpha:
		return ebiten.BlendFactorDestinationAlpha, true
	case gfx.OneMinusDstAlpha:
		return ebiten.BlendFactorOneMinusDestinationAlpha, true
	}
	return ebiten.BlendFactorDefault, false
}

// --- Buffers ---

func (d *Device) GenBuffer() gfx.Buffer {
	b := gfx.Buffer(d.handle())
	d.buffers[b] = nil
	return b
}

func (d *Device) DeleteBuffer(b gfx.Buffer) {
	if b == 0 {
		return
	}
	delete(d.buffers, b)
	if d.boundBuffer == b {
		d.boundBuffer = 0
	}
}

func (d *Device) BindBuffer(_ gfx.BufferTarget, b gfx.Buffer) {
	if b != 0 {
		if _, ok := d.buffers[b]; !ok {
			d.record(gfx.InvalidOperation)
			return
		}
	}
	d.boundBuffer = b
}

func (d *Device) BufferData(_ gfx.BufferTarget, data []float32, _ gfx.BufferUsage) {
	if d.boundBuffer == 0 {
		d.record(gfx.InvalidOperation)
		return
	}
	d.buffers[d.boundBuffer] = append(d.buffers[d.boundBuffer][:0], data...)
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

func (d *Device) Capabilities() gfx.Capabilities {
	return gfx.Capabilities{
		ImmutableTextureStorage: true,
		ReuseFramebuffers:       true,
		MaxSamples:              maxSamples,
	}
}
