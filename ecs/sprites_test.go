package ecs

import (
	"testing"

	"github.com/phanxgames/tilecam"
	"github.com/phanxgames/tilecam/gfx"
	"github.com/phanxgames/tilecam/gfx/gfxtest"

	"github.com/yohamta/donburi"
)

func newTestScreen(t *testing.T) (*gfxtest.Device, *tilecam.Screen) {
	t.Helper()
	dev := gfxtest.New(320, 240)
	res, err := tilecam.InitGraphicsResources(dev)
	if err != nil {
		t.Fatalf("InitGraphicsResources: %v", err)
	}
	t.Cleanup(res.Shutdown)
	rc, err := tilecam.NewRenderContext(res)
	if err != nil {
		t.Fatalf("NewRenderContext: %v", err)
	}
	return dev, tilecam.NewScreen(rc, 320, 240)
}

func newTexture(dev *gfxtest.Device) gfx.Texture {
	tex := dev.GenTexture()
	dev.BindTexture(gfx.Texture2D, tex)
	dev.TexImage2D(gfx.Texture2D, 16, 16, gfx.RGBA8)
	dev.BindTexture(gfx.Texture2D, 0)
	return tex
}

func TestSpriteLayerBatchesByTexture(t *testing.T) {
	dev, screen := newTestScreen(t)
	a, b := newTexture(dev), newTexture(dev)

	world := donburi.NewWorld()
	NewSprite(world, Sprite{Texture: a, Bounds: tilecam.Rect{X: 0, Y: 0, Width: 1, Height: 1}})
	NewSprite(world, Sprite{Texture: b, Bounds: tilecam.Rect{X: 1, Y: 0, Width: 1, Height: 1}})
	NewSprite(world, Sprite{Texture: a, Bounds: tilecam.Rect{X: 2, Y: 0, Width: 1, Height: 1}})
	NewSprite(world, Sprite{Texture: b, Hidden: true})

	cam := tilecam.NewCamera(tilecam.CameraConfig{Width: 64, Height: 64, TileWidth: 16, TileHeight: 16, FixedTileSize: true})
	layer := NewSpriteLayer(world)
	cam.Add(layer, 0)
	screen.Add(cam, 0)

	if layer.Len() != 3 {
		t.Errorf("Len = %d, want 3", layer.Len())
	}
	screen.Render()

	counts := map[gfx.Texture]int{}
	firsts := map[gfx.Texture]int{}
	for _, d := range dev.Draws {
		if d.Texture == a || d.Texture == b {
			counts[d.Texture] = d.Count
			firsts[d.Texture] = d.First
			if d.VertexFloats != 3*6*8 {
				t.Errorf("VertexFloats = %d, want %d", d.VertexFloats, 3*6*8)
			}
			if d.Framebuffer != cam.Target().Framebuffer() {
				t.Errorf("sprites drawn into fb %d", d.Framebuffer)
			}
		}
	}
	if counts[a] != 12 || counts[b] != 6 {
		t.Errorf("counts = %v, want a:12 b:6", counts)
	}
	if firsts[a] != 0 || firsts[b] != 12 {
		t.Errorf("firsts = %v, want a:0 b:12", firsts)
	}
}

func TestSpriteLayerReleasesBuffer(t *testing.T) {
	dev, screen := newTestScreen(t)
	layer := NewSpriteLayer(donburi.NewWorld())
	before := dev.LiveBuffers()
	screen.Add(layer, 0)
	if dev.LiveBuffers() != before+1 {
		t.Fatalf("LiveBuffers = %d, want %d", dev.LiveBuffers(), before+1)
	}
	screen.Remove(layer)
	if dev.LiveBuffers() != before {
		t.Errorf("LiveBuffers = %d, want %d", dev.LiveBuffers(), before)
	}
}

func TestAppendSprite(t *testing.T) {
	verts := appendSprite(nil, Sprite{
		Bounds: tilecam.Rect{X: 1, Y: 2, Width: 3, Height: 4},
		Source: tilecam.Rect{X: 0.5, Y: 0, Width: 0.5, Height: 0.25},
		Tint:   tilecam.Color{R: 1, G: 1, B: 1, A: 0.5},
	})
	if len(verts) != 6 {
		t.Fatalf("len = %d, want 6", len(verts))
	}
	tl, br := verts[0], verts[4]
	if tl.X != 1 || tl.Y != 2 || tl.U != 0.5 || tl.V != 1 {
		t.Errorf("top-left = %+v", tl)
	}
	if br.X != 4 || br.Y != 6 || br.U != 1 || br.V != 0.75 {
		t.Errorf("bottom-right = %+v", br)
	}
	if tl.Colour != (tilecam.Color{R: 0.5, G: 0.5, B: 0.5, A: 0.5}) {
		t.Errorf("tint = %+v, want premultiplied", tl.Colour)
	}

	plain := appendSprite(nil, Sprite{Bounds: tilecam.Rect{Width: 1, Height: 1}})
	if plain[0].Colour != tilecam.ColorWhite || plain[4].U != 1 || plain[4].V != 0 {
		t.Errorf("defaults = %+v", plain)
	}
}
