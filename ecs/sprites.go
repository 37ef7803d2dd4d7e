package ecs

import (
	"sort"

	"github.com/phanxgames/tilecam"
	"github.com/phanxgames/tilecam/gfx"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// Sprite is a textured rectangle in a camera's tile space.
type Sprite struct {
	Texture gfx.Texture
	// Bounds is the rectangle in tile space.
	Bounds tilecam.Rect
	// Source is the normalised texture rectangle, y down. A zero Source
	// covers the whole texture.
	Source tilecam.Rect
	// Tint multiplies the texture; the zero value is treated as white.
	Tint tilecam.Color
	// Layer orders sprites within the layer entity; lower draws first.
	Layer  int
	Hidden bool
}

// SpriteComponent is the Donburi component holding a Sprite.
var SpriteComponent = donburi.NewComponentType[Sprite]()

// NewSprite creates an entity with a Sprite component.
func NewSprite(world donburi.World, s Sprite) donburi.Entity {
	e := world.Create(SpriteComponent)
	SpriteComponent.SetValue(world.Entry(e), s)
	return e
}

// SpriteLayer is a tilecam entity that draws every Sprite in a world. Sprites
// sharing a texture are batched into one draw call.
type SpriteLayer struct {
	world donburi.World
	query *donburi.Query

	rc     *tilecam.RenderContext
	buffer gfx.Buffer

	sprites []Sprite
	verts   []tilecam.Vertex
}

var (
	_ tilecam.Entity     = (*SpriteLayer)(nil)
	_ tilecam.Attachable = (*SpriteLayer)(nil)
)

// NewSpriteLayer creates a layer over world.
func NewSpriteLayer(world donburi.World) *SpriteLayer {
	return &SpriteLayer{
		world: world,
		query: donburi.NewQuery(filter.Contains(SpriteComponent)),
	}
}

// OnAdded allocates the vertex buffer.
func (l *SpriteLayer) OnAdded(_ tilecam.Space, rc *tilecam.RenderContext) {
	l.rc = rc
	if l.buffer == 0 {
		l.buffer = rc.GenBuffer()
	}
}

// OnRemoved releases the vertex buffer.
func (l *SpriteLayer) OnRemoved() {
	if l.rc != nil {
		l.rc.DeleteBuffer(l.buffer)
	}
	l.buffer = 0
	l.rc = nil
}

// Len returns the number of visible sprites in the world.
func (l *SpriteLayer) Len() int {
	n := 0
	l.query.Each(l.world, func(entry *donburi.Entry) {
		if !SpriteComponent.Get(entry).Hidden {
			n++
		}
	})
	return n
}

// Render uploads the visible sprites, ordered by layer, and draws one batch
// per texture run.
func (l *SpriteLayer) Render(projection, modelView *gfx.Mat4) {
	if l.rc == nil || l.buffer == 0 {
		return
	}
	l.sprites = l.sprites[:0]
	l.query.Each(l.world, func(entry *donburi.Entry) {
		if s := SpriteComponent.Get(entry); !s.Hidden {
			l.sprites = append(l.sprites, *s)
		}
	})
	if len(l.sprites) == 0 {
		return
	}
	sort.SliceStable(l.sprites, func(i, j int) bool {
		if l.sprites[i].Layer != l.sprites[j].Layer {
			return l.sprites[i].Layer < l.sprites[j].Layer
		}
		return l.sprites[i].Texture < l.sprites[j].Texture
	})

	l.verts = l.verts[:0]
	for _, s := range l.sprites {
		l.verts = appendSprite(l.verts, s)
	}
	l.rc.Upload(l.buffer, l.verts)

	shader := l.rc.Resources().QuadShader()
	start := 0
	for i := 1; i <= len(l.sprites); i++ {
		if i < len(l.sprites) && l.sprites[i].Texture == l.sprites[start].Texture {
			continue
		}
		l.rc.Draw(tilecam.DrawCall{
			Shader:        shader,
			Texture:       l.sprites[start].Texture,
			TextureTarget: gfx.Texture2D,
			Buffer:        l.buffer,
			Mode:          gfx.Triangles,
			First:         start * 6,
			Count:         (i - start) * 6,
			Projection:    projection,
			ModelView:     modelView,
		})
		start = i
	}
}

// appendSprite appends two triangles, TL TR BL and TR BR BL, with v running
// bottom-up.
func appendSprite(dst []tilecam.Vertex, s Sprite) []tilecam.Vertex {
	src := s.Source
	if src == (tilecam.Rect{}) {
		src = tilecam.Rect{Width: 1, Height: 1}
	}
	tint := s.Tint
	if tint == (tilecam.Color{}) {
		tint = tilecam.ColorWhite
	}
	tint = tilecam.Color{R: tint.R * tint.A, G: tint.G * tint.A, B: tint.B * tint.A, A: tint.A}

	b := s.Bounds
	x0, y0 := float32(b.X), float32(b.Y)
	x1, y1 := float32(b.X+b.Width), float32(b.Y+b.Height)
	u0, u1 := float32(src.X), float32(src.X+src.Width)
	vTop, vBottom := float32(1-src.Y), float32(1-(src.Y+src.Height))

	corners := [4]tilecam.Vertex{
		{X: x0, Y: y0, Colour: tint, U: u0, V: vTop},
		{X: x1, Y: y0, Colour: tint, U: u1, V: vTop},
		{X: x0, Y: y1, Colour: tint, U: u0, V: vBottom},
		{X: x1, Y: y1, Colour: tint, U: u1, V: vBottom},
	}
	for _, i := range [6]int{0, 1, 2, 1, 3, 2} {
		dst = append(dst, corners[i])
	}
	return dst
}
