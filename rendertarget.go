package tilecam

import (
	"fmt"

	"github.com/phanxgames/tilecam/gfx"
)

// RenderTarget owns one framebuffer and its colour texture. A multisampled
// target additionally owns a multisample texture, which is the one attached
// while the scene is drawn.
//
// All methods restore the framebuffer and texture bindings they touch.
type RenderTarget struct {
	framebuffer gfx.Framebuffer
	texture     gfx.Texture
	msTexture   gfx.Texture

	width   int
	height  int
	samples int
}

// NewRenderTarget creates a render target and allocates it when the size is
// positive.
func NewRenderTarget(rc *RenderContext, width, height, samples int) *RenderTarget {
	rt := &RenderTarget{}
	rt.Create(rc, width, height, samples)
	return rt
}

// Create allocates the texture(s) and framebuffer. Non-positive dimensions
// are skipped without allocating. Device errors are logged and leave the
// target partially initialised.
func (rt *RenderTarget) Create(rc *RenderContext, width, height, samples int) {
	rt.samples = clampSamples(rc.dev.Capabilities(), samples)
	if width <= 0 || height <= 0 {
		return
	}
	if rt.Allocated() {
		rt.Destroy(rc)
	}
	rt.width, rt.height = width, height

	rt.allocTextures(rc)
	rt.framebuffer = rc.dev.GenFramebuffer()
	rt.attach(rc)
	rc.stats.TargetsCreated++
}

// Resize recreates the backing texture(s) at the new size. The framebuffer
// handle is kept when the device can re-attach it, otherwise it is recreated;
// callers must not cache handles across a resize.
func (rt *RenderTarget) Resize(rc *RenderContext, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if !rt.Allocated() {
		rt.Create(rc, width, height, rt.samples)
		return
	}
	if width == rt.width && height == rt.height {
		return
	}

	rt.deleteTextures(rc)
	rt.width, rt.height = width, height
	rt.allocTextures(rc)

	if !rc.dev.Capabilities().ReuseFramebuffers {
		rc.dev.DeleteFramebuffer(rt.framebuffer)
		rt.framebuffer = rc.dev.GenFramebuffer()
	}
	rt.attach(rc)
	rc.stats.TargetsCreated++
}

// Destroy releases the framebuffer and texture(s). Safe to call repeatedly.
func (rt *RenderTarget) Destroy(rc *RenderContext) {
	if rt.framebuffer != 0 {
		rc.dev.DeleteFramebuffer(rt.framebuffer)
		rt.framebuffer = 0
	}
	rt.deleteTextures(rc)
	rt.width, rt.height = 0, 0
}

func (rt *RenderTarget) allocTextures(rc *RenderContext) {
	dev := rc.dev
	caps := dev.Capabilities()

	rt.texture = dev.GenTexture()
	prev := rc.BindTexture(gfx.Texture2D, rt.texture)
	dev.TexParameteri(gfx.Texture2D, gfx.TextureMinFilter, gfx.Linear)
	dev.TexParameteri(gfx.Texture2D, gfx.TextureMagFilter, gfx.Linear)
	dev.TexParameteri(gfx.Texture2D, gfx.TextureWrapS, gfx.ClampToEdge)
	dev.TexParameteri(gfx.Texture2D, gfx.TextureWrapT, gfx.ClampToEdge)
	if caps.ImmutableTextureStorage {
		dev.TexStorage2D(gfx.Texture2D, 1, rt.width, rt.height, gfx.RGBA8)
	} else {
		dev.TexImage2D(gfx.Texture2D, rt.width, rt.height, gfx.RGBA8)
	}
	rc.BindTexture(gfx.Texture2D, prev)

	samples := rt.samples
	if samples <= 1 {
		return
	}
	rt.msTexture = dev.GenTexture()
	prev = rc.BindTexture(gfx.Texture2DMultisample, rt.msTexture)
	dev.TexImage2DMultisample(samples, rt.width, rt.height, gfx.RGBA8)
	rc.BindTexture(gfx.Texture2DMultisample, prev)
}

// clampSamples limits a requested sample count to what the device supports.
// The result is at least 1; 1 means single-sampled.
func clampSamples(caps gfx.Capabilities, samples int) int {
	if caps.MaxSamples > 0 && samples > caps.MaxSamples {
		samples = caps.MaxSamples
	}
	return max(samples, 1)
}

func (rt *RenderTarget) deleteTextures(rc *RenderContext) {
	if rt.texture != 0 {
		rc.dev.DeleteTexture(rt.texture)
		rc.forgetTexture(rt.texture)
		rt.texture = 0
	}
	if rt.msTexture != 0 {
		rc.dev.DeleteTexture(rt.msTexture)
		rc.forgetTexture(rt.msTexture)
		rt.msTexture = 0
	}
}

// attach binds the framebuffer just long enough to attach the draw texture
// and validate it, then rebinds the current target.
func (rt *RenderTarget) attach(rc *RenderContext) {
	dev := rc.dev
	rc.PushTarget(rt.framebuffer)
	dev.FramebufferTexture2D(gfx.ColorAttachment0, rt.DrawTarget(), rt.DrawTexture())
	if status := dev.CheckFramebufferStatus(); status != gfx.FramebufferComplete {
		Logger().Warn("tilecam: render target framebuffer incomplete",
			"status", fmt.Sprintf("0x%04X", uint16(status)),
			"width", rt.width, "height", rt.height, "samples", rt.samples)
	}
	rc.checkError("render target setup", "width", rt.width, "height", rt.height, "samples", rt.samples)
	rc.PopTarget()
}

// Allocated reports whether the framebuffer exists.
func (rt *RenderTarget) Allocated() bool {
	return rt.framebuffer != 0
}

// Framebuffer returns the framebuffer handle. It may change on Resize.
func (rt *RenderTarget) Framebuffer() gfx.Framebuffer {
	return rt.framebuffer
}

// Texture returns the single-sample colour texture.
func (rt *RenderTarget) Texture() gfx.Texture {
	return rt.texture
}

// MultisampleTexture returns the multisample texture, or 0.
func (rt *RenderTarget) MultisampleTexture() gfx.Texture {
	return rt.msTexture
}

// DrawTexture returns the texture the scene pass renders into: the
// multisample texture when present, else the colour texture.
func (rt *RenderTarget) DrawTexture() gfx.Texture {
	if rt.msTexture != 0 {
		return rt.msTexture
	}
	return rt.texture
}

// DrawTarget returns the binding point of DrawTexture.
func (rt *RenderTarget) DrawTarget() gfx.TextureTarget {
	if rt.msTexture != 0 {
		return gfx.Texture2DMultisample
	}
	return gfx.Texture2D
}

// Size returns the allocated dimensions.
func (rt *RenderTarget) Size() (width, height int) {
	return rt.width, rt.height
}

// SampleCount returns the samples per pixel (1 when single-sampled).
func (rt *RenderTarget) SampleCount() int {
	return rt.samples
}

// Multisampled reports whether a multisample texture is allocated.
func (rt *RenderTarget) Multisampled() bool {
	return rt.msTexture != 0
}
