package tilecam

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/phanxgames/tilecam/gfx"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

func TestRenderTargetCreate(t *testing.T) {
	dev, rc := newTestContext(t)
	rt := NewRenderTarget(rc, 64, 32, 1)

	if !rt.Allocated() || rt.Multisampled() {
		t.Fatalf("Allocated = %v, Multisampled = %v", rt.Allocated(), rt.Multisampled())
	}
	if w, h := rt.Size(); w != 64 || h != 32 {
		t.Errorf("Size = %dx%d, want 64x32", w, h)
	}
	if w, h, s, ok := dev.TextureSize(rt.Texture()); !ok || w != 64 || h != 32 || s != 1 {
		t.Errorf("texture = %dx%d s%d ok=%v", w, h, s, ok)
	}
	if dev.Attachment(rt.Framebuffer()) != rt.Texture() {
		t.Error("colour texture not attached")
	}
	if dev.BoundFramebuffer() != 0 || dev.BoundTexture(gfx.Texture2D) != 0 {
		t.Error("Create left bindings changed")
	}
	if dev.Calls["TexImage2D"] != 1 || dev.Calls["TexStorage2D"] != 0 {
		t.Errorf("TexImage2D = %d, TexStorage2D = %d", dev.Calls["TexImage2D"], dev.Calls["TexStorage2D"])
	}
}

func TestRenderTargetMultisample(t *testing.T) {
	dev, rc := newTestContext(t)
	rt := NewRenderTarget(rc, 64, 32, 4)

	if !rt.Multisampled() || rt.SampleCount() != 4 {
		t.Fatalf("Multisampled = %v, SampleCount = %d", rt.Multisampled(), rt.SampleCount())
	}
	if rt.DrawTexture() != rt.MultisampleTexture() || rt.DrawTarget() != gfx.Texture2DMultisample {
		t.Error("draw texture should be the multisample texture")
	}
	if dev.Attachment(rt.Framebuffer()) != rt.MultisampleTexture() {
		t.Error("multisample texture not attached")
	}
	if dev.LiveTextures() != 2 || dev.LiveFramebuffers() != 1 {
		t.Errorf("live = %d tex, %d fb", dev.LiveTextures(), dev.LiveFramebuffers())
	}
}

func TestRenderTargetClampsSamples(t *testing.T) {
	tests := []struct {
		max, requested int
		want           int
		multisampled   bool
	}{
		{8, 16, 8, true},
		{4, 4, 4, true},
		{1, 4, 1, false},
		{0, 4, 4, true},
		{16, 0, 1, false},
	}
	dev, rc := newTestContext(t)
	for _, tt := range tests {
		dev.Caps.MaxSamples = tt.max
		rt := NewRenderTarget(rc, 16, 16, tt.requested)
		if rt.SampleCount() != tt.want {
			t.Errorf("max %d, requested %d: SampleCount = %d, want %d", tt.max, tt.requested, rt.SampleCount(), tt.want)
		}
		if rt.Multisampled() != tt.multisampled {
			t.Errorf("max %d, requested %d: Multisampled = %v, want %v", tt.max, tt.requested, rt.Multisampled(), tt.multisampled)
		}
		if rt.SampleCount() > 1 != rt.Multisampled() {
			t.Errorf("max %d, requested %d: SampleCount %d disagrees with Multisampled", tt.max, tt.requested, rt.SampleCount())
		}
		if tt.multisampled {
			if _, _, samples, _ := dev.TextureSize(rt.MultisampleTexture()); samples != tt.want {
				t.Errorf("max %d, requested %d: device samples = %d", tt.max, tt.requested, samples)
			}
		}
		rt.Destroy(rc)
	}
}

func TestRenderTargetImmutableStorage(t *testing.T) {
	dev, rc := newTestContext(t)
	dev.Caps.ImmutableTextureStorage = true
	NewRenderTarget(rc, 8, 8, 1)
	if dev.Calls["TexStorage2D"] != 1 || dev.Calls["TexImage2D"] != 0 {
		t.Errorf("TexStorage2D = %d, TexImage2D = %d", dev.Calls["TexStorage2D"], dev.Calls["TexImage2D"])
	}
	if dev.PendingErrors() != 0 {
		t.Errorf("pending errors = %d", dev.PendingErrors())
	}
}

func TestRenderTargetNonPositiveSize(t *testing.T) {
	dev, rc := newTestContext(t)
	tests := []struct{ w, h int }{{0, 10}, {10, 0}, {-5, 5}, {0, 0}}
	for _, tt := range tests {
		rt := NewRenderTarget(rc, tt.w, tt.h, 4)
		if rt.Allocated() {
			t.Errorf("%dx%d: allocated", tt.w, tt.h)
		}
	}
	if dev.LiveTextures() != 0 || dev.LiveFramebuffers() != 0 {
		t.Errorf("live = %d tex, %d fb", dev.LiveTextures(), dev.LiveFramebuffers())
	}
}

func TestRenderTargetResize(t *testing.T) {
	tests := []struct {
		name  string
		reuse bool
	}{
		{"reuse framebuffer", true},
		{"recreate framebuffer", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, rc := newTestContext(t)
			dev.Caps.ReuseFramebuffers = tt.reuse
			rt := NewRenderTarget(rc, 64, 64, 2)
			fb := rt.Framebuffer()

			rt.Resize(rc, 128, 96)
			if w, h := rt.Size(); w != 128 || h != 96 {
				t.Errorf("Size = %dx%d", w, h)
			}
			if (rt.Framebuffer() == fb) != tt.reuse {
				t.Errorf("framebuffer reused = %v, want %v", rt.Framebuffer() == fb, tt.reuse)
			}
			if w, h, s, _ := dev.TextureSize(rt.MultisampleTexture()); w != 128 || h != 96 || s != 2 {
				t.Errorf("multisample texture = %dx%d s%d", w, h, s)
			}
			if dev.Attachment(rt.Framebuffer()) != rt.MultisampleTexture() {
				t.Error("resized texture not attached")
			}
			if dev.LiveTextures() != 2 || dev.LiveFramebuffers() != 1 {
				t.Errorf("live = %d tex, %d fb", dev.LiveTextures(), dev.LiveFramebuffers())
			}

			rt.Resize(rc, 0, 96)
			if w, _ := rt.Size(); w != 128 {
				t.Errorf("Resize(0, _) changed width to %d", w)
			}
		})
	}
}

func TestRenderTargetResizeRestoresBindings(t *testing.T) {
	dev, rc := newTestContext(t)
	outer := NewRenderTarget(rc, 32, 32, 1)
	rt := NewRenderTarget(rc, 32, 32, 1)

	rc.PushTarget(outer.Framebuffer())
	rc.BindTexture(gfx.Texture2D, outer.Texture())
	rt.Resize(rc, 48, 48)
	if dev.BoundFramebuffer() != outer.Framebuffer() {
		t.Errorf("BoundFramebuffer = %d, want %d", dev.BoundFramebuffer(), outer.Framebuffer())
	}
	if dev.BoundTexture(gfx.Texture2D) != outer.Texture() {
		t.Errorf("BoundTexture = %d, want %d", dev.BoundTexture(gfx.Texture2D), outer.Texture())
	}
	rc.PopTarget()
}

func TestRenderTargetDestroyIdempotent(t *testing.T) {
	dev, rc := newTestContext(t)
	rt := NewRenderTarget(rc, 16, 16, 4)
	rt.Destroy(rc)
	rt.Destroy(rc)
	if rt.Allocated() || rt.Texture() != 0 || rt.MultisampleTexture() != 0 {
		t.Error("handles not cleared")
	}
	if dev.LiveTextures() != 0 || dev.LiveFramebuffers() != 0 {
		t.Errorf("live = %d tex, %d fb", dev.LiveTextures(), dev.LiveFramebuffers())
	}
	if dev.PendingErrors() != 0 {
		t.Errorf("pending errors = %d", dev.PendingErrors())
	}
}

func TestRenderTargetDeviceErrorIsLogged(t *testing.T) {
	logs := captureLogs(t)
	dev, rc := newTestContext(t)
	dev.QueueError(gfx.OutOfMemory)

	rt := NewRenderTarget(rc, 16, 16, 1)
	if !rt.Allocated() {
		t.Fatal("target should stay allocated after a device error")
	}
	if rc.Stats().DeviceErrors != 1 {
		t.Errorf("DeviceErrors = %d, want 1", rc.Stats().DeviceErrors)
	}
	if out := logs.String(); !strings.Contains(out, "GL_OUT_OF_MEMORY") || !strings.Contains(out, "level=WARN") {
		t.Errorf("log = %q", out)
	}
}

func TestRenderTargetIncompleteIsLogged(t *testing.T) {
	logs := captureLogs(t)
	dev, rc := newTestContext(t)
	dev.IncompleteFramebuffers = true

	NewRenderTarget(rc, 16, 16, 1)
	if !strings.Contains(logs.String(), "framebuffer incomplete") {
		t.Errorf("log = %q", logs.String())
	}
}
