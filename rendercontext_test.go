package tilecam

import (
	"errors"
	"testing"

	"github.com/phanxgames/tilecam/gfx"
	"github.com/phanxgames/tilecam/gfx/gfxtest"
)

func TestViewportStack(t *testing.T) {
	var s ViewportStack
	if s.Current() != 0 || s.Depth() != 0 {
		t.Fatalf("empty stack: Current = %d, Depth = %d", s.Current(), s.Depth())
	}
	if prev := s.Push(3); prev != 0 {
		t.Errorf("Push prev = %d, want 0", prev)
	}
	if prev := s.Push(5); prev != 3 {
		t.Errorf("Push prev = %d, want 3", prev)
	}
	if prev := s.Replace(7); prev != 5 || s.Current() != 7 || s.Depth() != 2 {
		t.Errorf("Replace: prev %d, current %d, depth %d", prev, s.Current(), s.Depth())
	}
	if cur := s.Pop(); cur != 3 {
		t.Errorf("Pop = %d, want 3", cur)
	}
	if cur := s.Pop(); cur != 0 {
		t.Errorf("Pop = %d, want 0", cur)
	}
	if cur := s.Pop(); cur != 0 || s.Depth() != 0 {
		t.Errorf("Pop past base = %d, depth %d", cur, s.Depth())
	}
	if prev := s.Replace(9); prev != 0 || s.Depth() != 1 {
		t.Errorf("Replace on empty: prev %d, depth %d", prev, s.Depth())
	}
}

func TestNewRenderContextRequiresResources(t *testing.T) {
	if _, err := NewRenderContext(nil); err == nil {
		t.Error("NewRenderContext(nil) should fail")
	}
	if _, err := NewRenderContext(&GraphicsResources{}); err == nil {
		t.Error("NewRenderContext(uninitialised) should fail")
	}
}

func TestRenderContextTargets(t *testing.T) {
	dev, rc := newTestContext(t)
	a := NewRenderTarget(rc, 4, 4, 1)
	b := NewRenderTarget(rc, 4, 4, 1)

	rc.PushTarget(a.Framebuffer())
	rc.PushTarget(b.Framebuffer())
	if dev.BoundFramebuffer() != b.Framebuffer() || rc.CurrentTarget() != b.Framebuffer() {
		t.Fatalf("bound = %d, current = %d", dev.BoundFramebuffer(), rc.CurrentTarget())
	}
	if prev := rc.ReplaceTarget(a.Framebuffer()); prev != b.Framebuffer() {
		t.Errorf("ReplaceTarget prev = %d", prev)
	}
	rc.PopTarget()
	if dev.BoundFramebuffer() != a.Framebuffer() {
		t.Errorf("after pop bound = %d, want %d", dev.BoundFramebuffer(), a.Framebuffer())
	}
	rc.PopTarget()
	if dev.BoundFramebuffer() != 0 {
		t.Errorf("after last pop bound = %d, want screen", dev.BoundFramebuffer())
	}
}

func TestRenderContextUpload(t *testing.T) {
	dev, rc := newTestContext(t)
	buf := dev.GenBuffer()
	rc.Upload(buf, []Vertex{
		{X: 1, Y: 2, Colour: Color{0.1, 0.2, 0.3, 0.4}, U: 0.5, V: 0.6},
		{X: 3, Y: 4, Colour: ColorWhite, U: 1, V: 0},
	})
	got := dev.BufferFloats(buf)
	want := []float32{1, 2, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 3, 4, 1, 1, 1, 1, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("float %d = %v, want %v", i, got[i], want[i])
		}
	}
	if dev.BoundBuffer() != 0 {
		t.Error("Upload left the buffer bound")
	}
}

func TestRenderContextDrawRestoresBindings(t *testing.T) {
	dev, rc := newTestContext(t)
	prior := NewRenderTarget(rc, 4, 4, 1)
	drawn := NewRenderTarget(rc, 4, 4, 1)
	buf := dev.GenBuffer()
	rc.Upload(buf, make([]Vertex, 4))

	rc.BindTexture(gfx.Texture2D, prior.Texture())
	id := gfx.Identity()
	shader := rc.Resources().QuadShader()
	rc.Draw(DrawCall{
		Shader: shader, Texture: drawn.Texture(), Buffer: buf,
		Mode: gfx.TriangleStrip, Count: 4, Projection: &id, ModelView: &id,
	})

	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(dev.Draws))
	}
	d := dev.Draws[0]
	if d.Texture != drawn.Texture() || d.Program != shader.Program() || d.Buffer != buf || d.VertexFloats != 32 {
		t.Errorf("draw = %+v", d)
	}
	if dev.BoundTexture(gfx.Texture2D) != prior.Texture() {
		t.Error("texture binding not restored")
	}
	if dev.CurrentProgram() != 0 || dev.BoundBuffer() != 0 {
		t.Error("program or buffer binding not restored")
	}
	if rc.Stats().DrawCalls != 1 {
		t.Errorf("DrawCalls = %d", rc.Stats().DrawCalls)
	}
	rc.ResetStats()
	if rc.Stats() != (RenderStats{}) {
		t.Error("ResetStats did not clear")
	}
}

func TestRenderContextDrawSkipsEmpty(t *testing.T) {
	dev, rc := newTestContext(t)
	id := gfx.Identity()
	rc.Draw(DrawCall{Shader: rc.Resources().QuadShader(), Count: 4, Projection: &id, ModelView: &id})
	if len(dev.Draws) != 0 {
		t.Error("draw without a buffer reached the device")
	}
}

func TestGraphicsResourcesLifecycle(t *testing.T) {
	dev, rc := newTestContext(t)
	again, err := InitGraphicsResources(dev)
	if err != nil || again != rc.Resources() {
		t.Fatalf("second init = %p, %v; want same resources", again, err)
	}
	if dev.LivePrograms() != 2 {
		t.Errorf("LivePrograms = %d, want 2", dev.LivePrograms())
	}
	if name := dev.ProgramName(again.Resolver().Shader().Program()); name != ResolveShaderSource.Name {
		t.Errorf("resolver program = %q", name)
	}

	if _, err := InitGraphicsResources(gfxtest.New(10, 10)); !errors.Is(err, ErrResourcesInitialised) {
		t.Errorf("init on another device: err = %v, want ErrResourcesInitialised", err)
	}

	again.Shutdown()
	if dev.LivePrograms() != 0 || again.Initialised() {
		t.Errorf("after Shutdown: %d programs, initialised = %v", dev.LivePrograms(), again.Initialised())
	}
	again.Shutdown()

	other := gfxtest.New(10, 10)
	res, err := InitGraphicsResources(other)
	if err != nil {
		t.Fatalf("init after shutdown: %v", err)
	}
	res.Shutdown()
}

func TestGraphicsResourcesCompileFailure(t *testing.T) {
	dev := gfxtest.New(10, 10)
	dev.FailCompile = true
	_, err := InitGraphicsResources(dev)
	if !errors.Is(err, gfxtest.ErrCompile) {
		t.Fatalf("err = %v, want wrapped ErrCompile", err)
	}
	if shared.Initialised() {
		t.Error("resources marked initialised after failure")
	}
}

func TestShaderLocations(t *testing.T) {
	dev, _ := newTestContext(t)
	s, err := NewShader(dev, gfx.ProgramSource{Name: "custom"})
	if err != nil {
		t.Fatal(err)
	}
	if s.projection < 0 || s.modelView < 0 || s.texture < 0 || s.position < 0 {
		t.Errorf("missing locations: %+v", s)
	}
	s.Release(dev)
	s.Release(dev)
	if s.Program() != 0 {
		t.Error("Release did not clear the handle")
	}
}
