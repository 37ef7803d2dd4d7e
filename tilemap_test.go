package tilecam

import (
	"strings"
	"testing"

	"github.com/phanxgames/tilecam/gfx"
	"github.com/phanxgames/tilecam/gfx/gfxtest"
)

func newAtlas(t *testing.T, dev *gfxtest.Device, w, h int) gfx.Texture {
	t.Helper()
	tex := dev.GenTexture()
	dev.BindTexture(gfx.Texture2D, tex)
	dev.TexImage2D(gfx.Texture2D, w, h, gfx.RGBA8)
	dev.BindTexture(gfx.Texture2D, 0)
	return tex
}

func TestTileMapAtSet(t *testing.T) {
	m := NewTileMap(3, 2, nil, nil, 0, 0, 0)
	if w, h := m.Size(); w != 3 || h != 2 {
		t.Fatalf("Size = %dx%d", w, h)
	}
	if !m.Set(2, 1, 7|TileFlipH) {
		t.Fatal("Set in range failed")
	}
	if gid, ok := m.At(2, 1); !ok || gid != 7|TileFlipH {
		t.Errorf("At = %#x,%v", gid, ok)
	}
	for _, p := range [][2]int{{-1, 0}, {3, 0}, {0, 2}} {
		if m.Set(p[0], p[1], 1) {
			t.Errorf("Set(%v) out of range succeeded", p)
		}
		if _, ok := m.At(p[0], p[1]); ok {
			t.Errorf("At(%v) out of range succeeded", p)
		}
	}
}

func TestTileMapRendersVisibleTiles(t *testing.T) {
	dev, rc := newTestContext(t)
	atlas := newAtlas(t, dev, 64, 64)
	regions := []TileRegion{{}, {0, 0, 16, 16}, {16, 0, 16, 16}}
	data := []uint32{
		1, 0, 2, 1,
		0, 0, 0, 0,
		2, 2, 0, 1,
	}
	m := NewTileMap(4, 3, data, regions, atlas, 64, 64)

	screen := NewScreen(rc, 800, 600)
	cam := NewCamera(CameraConfig{Width: 64, Height: 48, TileWidth: 16, TileHeight: 16, FixedTileSize: true})
	cam.SetDecorator(m)
	screen.Add(cam, 0)

	screen.Render()
	var tiles *gfxtest.Draw
	for i := range dev.Draws {
		if dev.Draws[i].Texture == atlas {
			tiles = &dev.Draws[i]
		}
	}
	if tiles == nil {
		t.Fatal("no draw sampled the atlas")
	}
	if tiles.Mode != gfx.Triangles || tiles.Count != 6*6 || tiles.VertexFloats != 6*6*vertexFloats {
		t.Errorf("tile draw mode %v count %d floats %d", tiles.Mode, tiles.Count, tiles.VertexFloats)
	}
	if tiles.Framebuffer != cam.Target().Framebuffer() {
		t.Errorf("tiles drawn into fb %d, want camera target", tiles.Framebuffer)
	}

	// Scrolling right by two tiles leaves columns 2 and 3 visible.
	cam.SetViewOrigin(2, 0)
	dev.ResetLog()
	screen.Render()
	for _, d := range dev.Draws {
		if d.Texture == atlas && d.Count != 3*6 {
			t.Errorf("after scroll count = %d, want %d", d.Count, 3*6)
		}
	}
}

func TestTileMapReleasesBufferOnRemove(t *testing.T) {
	dev, rc := newTestContext(t)
	screen := NewScreen(rc, 100, 100)
	cam := NewCamera(CameraConfig{Width: 32, Height: 32})
	screen.Add(cam, 0)

	m := NewTileMap(2, 2, []uint32{1, 1, 1, 1}, []TileRegion{{}, {0, 0, 1, 1}}, 0, 1, 1)
	before := dev.LiveBuffers()
	cam.SetDecorator(m)
	if dev.LiveBuffers() != before+1 {
		t.Fatalf("LiveBuffers = %d, want %d", dev.LiveBuffers(), before+1)
	}
	cam.SetDecorator(nil)
	if dev.LiveBuffers() != before {
		t.Errorf("LiveBuffers = %d, want %d", dev.LiveBuffers(), before)
	}
}

func TestTileMapMovesBetweenCameras(t *testing.T) {
	dev, rc := newTestContext(t)
	atlas := newAtlas(t, dev, 32, 32)
	m := NewTileMap(2, 2, []uint32{1, 1, 1, 1}, []TileRegion{{}, {0, 0, 16, 16}}, atlas, 32, 32)

	screen := NewScreen(rc, 800, 600)
	a := NewCamera(CameraConfig{Name: "a", Width: 32, Height: 32, TileWidth: 16, TileHeight: 16, FixedTileSize: true})
	b := NewCamera(CameraConfig{Name: "b", X: 100, Width: 32, Height: 32, TileWidth: 16, TileHeight: 16, FixedTileSize: true})
	screen.Add(a, 0)
	screen.Add(b, 1)

	a.SetDecorator(m)
	b.SetDecorator(m)
	if a.Decorator() != nil {
		t.Error("first camera still decorated")
	}
	if n := a.Children().(*Container).Len(); n != 0 {
		t.Errorf("first camera children = %d, want 0", n)
	}
	if n := b.Children().(*Container).Len(); n != 1 {
		t.Errorf("second camera children = %d, want 1", n)
	}

	dev.ResetLog()
	screen.Render()
	var tileDraws int
	for _, d := range dev.Draws {
		if d.Texture != atlas {
			continue
		}
		tileDraws++
		if d.Framebuffer != b.Target().Framebuffer() {
			t.Errorf("tiles drawn into fb %d, want camera b's %d", d.Framebuffer, b.Target().Framebuffer())
		}
	}
	if tileDraws != 1 {
		t.Errorf("tile draws = %d, want 1", tileDraws)
	}

	// Changes on the old camera no longer reach the map.
	m.dirty = false
	a.SetViewOrigin(5, 5)
	if m.dirty {
		t.Error("old camera still notifies the map")
	}
}

type plainScene struct{}

func (plainScene) Render(_, _ *gfx.Mat4) {}
func (plainScene) IsVisible() bool { return true }

func TestTileMapNeedsContainerChildren(t *testing.T) {
	logs := captureLogs(t)
	m := NewTileMap(1, 1, []uint32{1}, []TileRegion{{}, {0, 0, 8, 8}}, 0, 8, 8)
	cam := NewCamera(CameraConfig{Name: "custom", Width: 16, Height: 16})
	cam.SetChildren(plainScene{})

	cam.SetDecorator(m)
	if !strings.Contains(logs.String(), "tile map needs a camera with Container children") ||
		!strings.Contains(logs.String(), "camera=custom") {
		t.Errorf("log = %q", logs.String())
	}
	if m.camera != nil {
		t.Error("map bound to a camera it cannot render in")
	}
	cam.SetDecorator(nil)
}

func TestTileUVsFlipFlags(t *testing.T) {
	m := NewTileMap(1, 1, nil, nil, 0, 32, 32)
	region := TileRegion{X: 0, Y: 0, Width: 16, Height: 16}
	plain := m.tileUVs(region, 0)
	tl, tr, bl := plain[0], plain[1], plain[2]
	if tl != [2]float32{0, 1} || tr != [2]float32{0.5, 1} || bl != [2]float32{0, 0.5} {
		t.Fatalf("plain uvs = %v", plain)
	}

	tests := []struct {
		name  string
		flags uint32
		want  [4]int
	}{
		{"H", TileFlipH, [4]int{1, 0, 3, 2}},
		{"V", TileFlipV, [4]int{2, 3, 0, 1}},
		{"H+V", TileFlipH | TileFlipV, [4]int{3, 2, 1, 0}},
		{"D", TileFlipD, [4]int{2, 0, 3, 1}},
	}
	for _, tt := range tests {
		got := m.tileUVs(region, tt.flags)
		for i, src := range tt.want {
			if got[i] != plain[src] {
				t.Errorf("%s: corner %d = %v, want %v", tt.name, i, got[i], plain[src])
			}
		}
	}
}

func TestTileMapAnimation(t *testing.T) {
	m := NewTileMap(1, 1, []uint32{1}, nil, 0, 0, 0)
	m.SetAnimations(map[uint32][]AnimFrame{1: {{GID: 4, Duration: 100}, {GID: 5, Duration: 50}}})

	steps := []struct {
		dt   float32
		want uint32
	}{
		{0, 4},
		{0.12, 5},
		{0.04, 4},
	}
	for _, s := range steps {
		m.Update(s.dt)
		if got := m.animatedGID(1); got != s.want {
			t.Errorf("elapsed %dms: gid = %d, want %d", m.animElapsed, got, s.want)
		}
	}
	if got := m.animatedGID(2); got != 2 {
		t.Errorf("unanimated gid = %d, want 2", got)
	}
}
