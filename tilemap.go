package tilecam

import (
	"math"

	"github.com/phanxgames/tilecam/gfx"
)

// GID flag bits (same convention as Tiled TMX format).
const (
	TileFlipH    uint32 = 1 << 31 // horizontal flip
	TileFlipV    uint32 = 1 << 30 // vertical flip
	TileFlipD    uint32 = 1 << 29 // diagonal flip (90° rotation)
	tileFlagMask uint32 = TileFlipH | TileFlipV | TileFlipD
)

// uvOrder defines vertex UV assignment for each combination of flip flags.
// Indexed by 3-bit flag value: (flipH << 2) | (flipV << 1) | flipD.
// Each entry contains 4 corner indices: TL=0, TR=1, BL=2, BR=3.
//
//	result[i] is which source corner goes to vertex position i.
var uvOrder = [8][4]int{
	{0, 1, 2, 3}, // no flags
	{2, 0, 3, 1}, // D only (90° CW + H flip)
	{2, 3, 0, 1}, // V flip
	{3, 2, 1, 0}, // V+D (90° CCW)
	{1, 0, 3, 2}, // H flip
	{0, 2, 1, 3}, // H+D (90° CW)
	{3, 2, 1, 0}, // H+V
	{1, 3, 0, 2}, // H+V+D (90° CW + V flip)
}

// TileRegion is the pixel rectangle of one tile image inside the atlas.
type TileRegion struct {
	X, Y, Width, Height int
}

// AnimFrame describes a single frame in a tile animation sequence.
type AnimFrame struct {
	GID      uint32 // tile GID for this frame (no flag bits)
	Duration int    // milliseconds
}

// TileMap is a Decorator that gives a camera a tile grid. Grid cell (col, row)
// covers the tile-space square [col, col+1) x [row, row+1), so the camera's
// view selects the visible cells directly.
type TileMap struct {
	// Tint multiplies every tile colour.
	Tint Color
	// Layer orders the map among the camera's other children.
	Layer int

	width   int
	height  int
	data    []uint32
	regions []TileRegion // indexed by GID (after masking flags)
	atlas   gfx.Texture
	atlasW  int
	atlasH  int

	anims       map[uint32][]AnimFrame
	animElapsed int

	camera  *Camera
	watch   CallbackHandle
	rc      *RenderContext
	buffer  gfx.Buffer
	verts   []Vertex
	visible [4]int // startCol, startRow, endCol, endRow of the built buffer
	dirty   bool
}

var (
	_ Decorator   = (*TileMap)(nil)
	_ TileIndexer = (*TileMap)(nil)
	_ Entity      = (*TileMap)(nil)
	_ Attachable  = (*TileMap)(nil)
	_ Updater     = (*TileMap)(nil)
)

// NewTileMap creates a width x height map over data (row-major GIDs, 0 is
// empty). regions are indexed by GID and located in an atlasW x atlasH
// texture.
func NewTileMap(width, height int, data []uint32, regions []TileRegion, atlas gfx.Texture, atlasW, atlasH int) *TileMap {
	if len(data) < width*height {
		grown := make([]uint32, width*height)
		copy(grown, data)
		data = grown
	}
	return &TileMap{
		Tint:    ColorWhite,
		width:   width,
		height:  height,
		data:    data,
		regions: regions,
		atlas:   atlas,
		atlasW:  atlasW,
		atlasH:  atlasH,
		dirty:   true,
	}
}

// Size returns the map size in tiles.
func (m *TileMap) Size() (width, height int) {
	return m.width, m.height
}

// At returns the GID at (x, y), flags included.
func (m *TileMap) At(x, y int) (uint32, bool) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0, false
	}
	return m.data[y*m.width+x], true
}

// Set updates a single tile. It reports whether (x, y) is on the map.
func (m *TileMap) Set(x, y int, gid uint32) bool {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return false
	}
	m.data[y*m.width+x] = gid
	m.dirty = true
	return true
}

// SetAnimations sets the animation definitions, keyed by base GID.
func (m *TileMap) SetAnimations(anims map[uint32][]AnimFrame) {
	m.anims = anims
	m.dirty = true
}

// IsInBounds reports whether a tile-space point lies on the map.
func (m *TileMap) IsInBounds(p Vec2) bool {
	return p.X >= 0 && p.X < float64(m.width) && p.Y >= 0 && p.Y < float64(m.height)
}

// Attach adds the map to the camera's children and rebuilds on view changes.
// A map belongs to one camera at a time: attaching it elsewhere first clears
// it from the previous camera. Cameras whose children are not a *Container
// cannot hold the map; it is then left detached and a warning is logged.
func (m *TileMap) Attach(c *Camera) {
	if m.camera == c {
		return
	}
	if prev := m.camera; prev != nil {
		if prev.Decorator() == Decorator(m) {
			prev.SetDecorator(nil)
		} else {
			m.Detach(prev)
		}
	}
	if _, ok := c.Children().(*Container); !ok {
		Logger().Warn("tilecam: tile map needs a camera with Container children", "camera", c.Name)
		return
	}
	m.camera = c
	m.dirty = true
	m.watch = c.OnChange(func(ch Change) {
		if ch&(ChangeView|ChangeSize) != 0 {
			m.dirty = true
		}
	})
	c.Add(m, m.Layer)
}

// Detach removes the map from the camera.
func (m *TileMap) Detach(c *Camera) {
	if m.camera != c {
		return
	}
	m.watch.Remove()
	m.watch = CallbackHandle{}
	c.Remove(m)
	m.camera = nil
}

// OnAdded allocates the vertex buffer.
func (m *TileMap) OnAdded(_ Space, rc *RenderContext) {
	m.rc = rc
	if m.buffer == 0 {
		m.buffer = rc.GenBuffer()
	}
	m.dirty = true
}

// OnRemoved releases the vertex buffer.
func (m *TileMap) OnRemoved() {
	if m.rc != nil {
		m.rc.DeleteBuffer(m.buffer)
	}
	m.buffer = 0
	m.rc = nil
}

// Update advances tile animations by dt seconds.
func (m *TileMap) Update(dt float32) {
	if len(m.anims) == 0 {
		return
	}
	if dtMs := int(dt * 1000); dtMs > 0 {
		m.animElapsed += dtMs
		m.dirty = true
	}
}

// Render draws the tiles covered by the camera's view, in tile space.
func (m *TileMap) Render(projection, modelView *gfx.Mat4) {
	if m.rc == nil || m.camera == nil || m.buffer == 0 {
		return
	}
	startCol, startRow, endCol, endRow := m.visibleRange(m.camera.View())
	if m.dirty || m.visible != [4]int{startCol, startRow, endCol, endRow} {
		m.rebuild(startCol, startRow, endCol, endRow)
	}
	if len(m.verts) == 0 {
		return
	}
	m.rc.Draw(DrawCall{
		Shader:        m.rc.res.QuadShader(),
		Texture:       m.atlas,
		TextureTarget: gfx.Texture2D,
		Buffer:        m.buffer,
		Mode:          gfx.Triangles,
		Count:         len(m.verts),
		Projection:    projection,
		ModelView:     modelView,
	})
}

// visibleRange returns the half-open cell range covering view, clamped to
// the map.
func (m *TileMap) visibleRange(view Rect) (startCol, startRow, endCol, endRow int) {
	startCol = clampInt(int(math.Floor(view.X)), 0, m.width)
	startRow = clampInt(int(math.Floor(view.Y)), 0, m.height)
	endCol = clampInt(int(math.Ceil(view.X+view.Width)), 0, m.width)
	endRow = clampInt(int(math.Ceil(view.Y+view.Height)), 0, m.height)
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rebuild fills the vertex list with two triangles per non-empty tile and
// uploads it.
func (m *TileMap) rebuild(startCol, startRow, endCol, endRow int) {
	m.visible = [4]int{startCol, startRow, endCol, endRow}
	m.dirty = false
	m.verts = m.verts[:0]

	tint := Color{m.Tint.R * m.Tint.A, m.Tint.G * m.Tint.A, m.Tint.B * m.Tint.A, m.Tint.A}
	for row := startRow; row < endRow; row++ {
		for col := startCol; col < endCol; col++ {
			gid := m.data[row*m.width+col]
			if gid == 0 {
				continue
			}
			flags := gid & tileFlagMask
			tileID := m.animatedGID(gid &^ tileFlagMask)
			if int(tileID) >= len(m.regions) {
				continue
			}
			m.verts = appendTile(m.verts, float32(col), float32(row), m.tileUVs(m.regions[tileID], flags), tint)
		}
	}
	m.rc.Upload(m.buffer, m.verts)
}

// animatedGID returns the current frame of an animated base GID.
func (m *TileMap) animatedGID(base uint32) uint32 {
	frames, ok := m.anims[base]
	if !ok || len(frames) == 0 {
		return base
	}
	total := 0
	for _, f := range frames {
		total += f.Duration
	}
	if total <= 0 {
		return frames[0].GID
	}
	t := m.animElapsed % total
	for _, f := range frames {
		if t < f.Duration {
			return f.GID
		}
		t -= f.Duration
	}
	return frames[len(frames)-1].GID
}

// tileUVs returns the texture coordinates of the four corners TL, TR, BL,
// BR after applying the flip flags. v runs bottom-up in the atlas.
func (m *TileMap) tileUVs(region TileRegion, flags uint32) [4][2]float32 {
	var u0, u1, vTop, vBottom float32
	if m.atlasW > 0 && m.atlasH > 0 {
		aw, ah := float32(m.atlasW), float32(m.atlasH)
		u0 = float32(region.X) / aw
		u1 = float32(region.X+region.Width) / aw
		vTop = 1 - float32(region.Y)/ah
		vBottom = 1 - float32(region.Y+region.Height)/ah
	}
	src := [4][2]float32{{u0, vTop}, {u1, vTop}, {u0, vBottom}, {u1, vBottom}}

	flagIdx := 0
	if flags&TileFlipH != 0 {
		flagIdx |= 4
	}
	if flags&TileFlipV != 0 {
		flagIdx |= 2
	}
	if flags&TileFlipD != 0 {
		flagIdx |= 1
	}
	order := uvOrder[flagIdx]
	return [4][2]float32{src[order[0]], src[order[1]], src[order[2]], src[order[3]]}
}

// appendTile appends the unit square at (col, row) as triangles TL, TR, BL
// and TR, BR, BL.
func appendTile(dst []Vertex, col, row float32, uv [4][2]float32, tint Color) []Vertex {
	corners := [4][2]float32{{col, row}, {col + 1, row}, {col, row + 1}, {col + 1, row + 1}}
	for _, i := range [6]int{0, 1, 2, 1, 3, 2} {
		dst = append(dst, Vertex{
			X: corners[i][0], Y: corners[i][1],
			Colour: tint,
			U:      uv[i][0], V: uv[i][1],
		})
	}
	return dst
}
