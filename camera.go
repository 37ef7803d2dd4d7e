package tilecam

import (
	"image"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/tilecam/gfx"
)

// Change is a bit set describing which camera properties a setter changed.
type Change uint8

const (
	ChangeView     Change = 1 << iota // view rect changed (origin or derived size)
	ChangeSize                        // pixel size changed
	ChangeTileSize                    // tile size changed
	ChangeMSAA                        // MSAA sample count changed
	ChangePosition                    // position origin in the parent changed
)

// Has reports whether every bit of o is set in c.
func (c Change) Has(o Change) bool { return c&o == o }

// CallbackHandle identifies a registered change observer.
type CallbackHandle struct {
	cam *Camera
	id  uint32
}

// Remove unregisters the observer. Safe to call more than once.
func (h CallbackHandle) Remove() {
	if h.cam == nil {
		return
	}
	obs := h.cam.observers
	for i, o := range obs {
		if o.id == h.id {
			h.cam.observers = append(obs[:i:i], obs[i+1:]...)
			return
		}
	}
}

type changeObserver struct {
	id uint32
	fn func(Change)
}

// Decorator adds domain behavior to a camera without subclassing it.
type Decorator interface {
	Attach(c *Camera)
	Detach(c *Camera)
	// IsInBounds reports whether the tile-space point lies inside the
	// decorated content.
	IsInBounds(p Vec2) bool
}

// TileIndexer is implemented by decorators that hold a tile grid.
type TileIndexer interface {
	At(x, y int) (uint32, bool)
}

// scrollAnim holds active scroll-to tweens for the view origin.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// CameraConfig holds the construction parameters of a Camera. It doubles as
// the YAML schema of one camera in a scene file.
type CameraConfig struct {
	Name string `yaml:"name"`
	// X and Y place the camera in its parent's local space.
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	// Width and Height are the pixel size of the render target.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// TileWidth and TileHeight default to 1.
	TileWidth     float64 `yaml:"tileWidth"`
	TileHeight    float64 `yaml:"tileHeight"`
	FixedTileSize bool    `yaml:"fixedTileSize"`
	// View is the visible tile rect. In fixed mode only its origin is used.
	// A zero-sized view in variable mode is derived from the tile size.
	View       Rect        `yaml:"view"`
	Background Color       `yaml:"background"`
	MSAA       MSAASamples `yaml:"msaa"`
	Angle      float64     `yaml:"angle"`
	// Layer orders the camera among its siblings.
	Layer    int            `yaml:"layer"`
	Children []CameraConfig `yaml:"children"`
}

// Camera renders its children into an offscreen target and composites the
// result into whatever target is current when it is rendered: the screen or
// a parent camera's target.
//
// A camera shows a rectangle of tile space (the view) at a pixel size
// (position). Either the tile size is fixed and the view size follows the
// pixel size, or the view is fixed and the tile size follows.
type Camera struct {
	// Name identifies the camera in logs and scene files.
	Name string
	// BackgroundColour clears the target before the children draw.
	BackgroundColour Color
	// Shader composites the target into the parent. Nil selects the shared
	// quad shader.
	Shader *Shader
	// Angle rotates the composited quad around its centre, in radians.
	// Coordinate conversion ignores it.
	Angle float64

	position      Rect
	view          Rect
	tileWidth     float64
	tileHeight    float64
	fixedTileSize bool
	msaa          MSAASamples

	target     *RenderTarget
	msaaTarget *RenderTarget
	quad       [4]Vertex
	quadBuffer gfx.Buffer
	projection gfx.Mat4

	parent   Space
	rc       *RenderContext
	children SceneContainer

	decorator Decorator

	observers      []changeObserver
	nextObserverID uint32

	scroll *scrollAnim
}

var (
	_ Entity     = (*Camera)(nil)
	_ Attachable = (*Camera)(nil)
	_ Space      = (*Camera)(nil)
	_ Updater    = (*Camera)(nil)
)

// NewCamera creates a detached camera. GPU resources are allocated when it
// is added to an attached Container or Screen.
func NewCamera(cfg CameraConfig) *Camera {
	c := &Camera{
		Name:             cfg.Name,
		BackgroundColour: cfg.Background,
		Angle:            cfg.Angle,
		position:         Rect{X: cfg.X, Y: cfg.Y, Width: float64(max(cfg.Width, 0)), Height: float64(max(cfg.Height, 0))},
		tileWidth:        cfg.TileWidth,
		tileHeight:       cfg.TileHeight,
		fixedTileSize:    cfg.FixedTileSize,
		msaa:             cfg.MSAA,
		view:             cfg.View,
		children:         NewContainer(),
	}
	if c.tileWidth <= 0 {
		c.tileWidth = 1
	}
	if c.tileHeight <= 0 {
		c.tileHeight = 1
	}
	if !c.fixedTileSize && (c.view.Width <= 0 || c.view.Height <= 0) {
		c.view.Width = c.position.Width / c.tileWidth
		c.view.Height = c.position.Height / c.tileHeight
	}
	c.deriveTiles()
	c.buildQuad()
	return c
}

// --- Attachment ---

// OnAdded allocates the render targets and attaches the children.
func (c *Camera) OnAdded(parent Space, rc *RenderContext) {
	c.parent = parent
	c.rc = rc
	c.allocate()
	if a, ok := c.children.(Attachable); ok {
		a.OnAdded(c, rc)
	}
}

// OnRemoved detaches the children and releases GPU resources.
func (c *Camera) OnRemoved() {
	if a, ok := c.children.(Attachable); ok && c.rc != nil {
		a.OnRemoved()
	}
	c.Destroy()
	c.parent = nil
	c.rc = nil
}

// Destroy releases the render targets and the quad buffer. The camera stays
// attached; a later Resize or SetMSAASamples reallocates.
func (c *Camera) Destroy() {
	if c.rc == nil {
		return
	}
	if c.target != nil {
		c.target.Destroy(c.rc)
		c.target = nil
	}
	if c.msaaTarget != nil {
		c.msaaTarget.Destroy(c.rc)
		c.msaaTarget = nil
	}
	if c.quadBuffer != 0 {
		c.rc.DeleteBuffer(c.quadBuffer)
		c.quadBuffer = 0
	}
}

// Attached reports whether the camera is part of a rendered tree.
func (c *Camera) Attached() bool {
	return c.rc != nil
}

// allocate creates or resizes the quad buffer and targets to the current
// pixel size.
func (c *Camera) allocate() {
	if c.rc == nil {
		return
	}
	if c.quadBuffer == 0 {
		c.quadBuffer = c.rc.GenBuffer()
	}
	c.rc.Upload(c.quadBuffer, c.quad[:])

	w, h := c.pixelSize()
	c.target = ensureTarget(c.rc, c.target, w, h, 1)
	c.syncMSAATarget()
}

// syncMSAATarget creates the multisample target when MSAA is enabled and
// the device supports more than one sample, and releases it otherwise.
func (c *Camera) syncMSAATarget() {
	if c.rc == nil {
		return
	}
	samples := clampSamples(c.rc.dev.Capabilities(), c.msaa.Count())
	if samples <= 1 {
		if c.msaaTarget != nil {
			c.msaaTarget.Destroy(c.rc)
			c.msaaTarget = nil
		}
		return
	}
	w, h := c.pixelSize()
	c.msaaTarget = ensureTarget(c.rc, c.msaaTarget, w, h, samples)
}

// ensureTarget creates rt or brings it to the given size and sample count.
// samples must already be clamped to the device limit.
func ensureTarget(rc *RenderContext, rt *RenderTarget, w, h, samples int) *RenderTarget {
	if rt == nil {
		return NewRenderTarget(rc, w, h, samples)
	}
	if rt.SampleCount() != samples {
		rt.Destroy(rc)
		rt.Create(rc, w, h, samples)
		return rt
	}
	rt.Resize(rc, w, h)
	return rt
}

// --- Rendering ---

// Render draws the children into the camera's target and composites it into
// the current target with the given matrices. Framebuffer, viewport, texture,
// buffer and program bindings are restored before it returns.
func (c *Camera) Render(projection, modelView *gfx.Mat4) {
	if c.rc == nil || c.target == nil || !c.target.Allocated() {
		return
	}
	rc := c.rc
	dev := rc.dev
	rc.stats.CameraPasses++

	scene := c.target
	if c.msaaTarget != nil && c.msaaTarget.Multisampled() {
		scene = c.msaaTarget
	}

	rc.PushTarget(scene.Framebuffer())
	dev.FramebufferTexture2D(gfx.ColorAttachment0, scene.DrawTarget(), scene.DrawTexture())
	rc.clearTarget(c.BackgroundColour)
	dev.BlendFunc(gfx.One, gfx.OneMinusSrcAlpha)
	prevViewport := dev.GetViewport()
	w, h := c.pixelSize()
	dev.Viewport(0, 0, w, h)
	rc.checkError("camera target bind", "camera", c.Name)

	if c.children != nil && c.children.IsVisible() {
		childMV := c.childModelView()
		c.children.Render(&c.projection, &childMV)
	}

	if scene != c.target {
		resolver := rc.res.Resolver()
		if resolver == nil {
			panic("tilecam: MSAA resolve without initialised graphics resources")
		}
		identity := gfx.Identity()
		resolver.Resolve(rc, scene.DrawTexture(), c.target.Framebuffer(), scene.SampleCount(),
			&c.projection, &identity, c.quadBuffer, len(c.quad))
	}

	rc.PopTarget()
	dev.Viewport(prevViewport.X, prevViewport.Y, prevViewport.Width, prevViewport.Height)

	compositeMV := c.compositeModelView(*modelView)
	rc.Draw(DrawCall{
		Shader:        c.shader(),
		Texture:       c.target.Texture(),
		TextureTarget: gfx.Texture2D,
		Buffer:        c.quadBuffer,
		Mode:          gfx.TriangleStrip,
		Count:         len(c.quad),
		Projection:    projection,
		ModelView:     &compositeMV,
	})
}

func (c *Camera) shader() *Shader {
	if c.Shader != nil {
		return c.Shader
	}
	return c.rc.res.QuadShader()
}

// childModelView maps tile space to the camera's pixel space:
// scale(tile) · translate(-view.origin).
func (c *Camera) childModelView() gfx.Mat4 {
	return gfx.Scaling(float32(c.tileWidth), float32(c.tileHeight)).
		Mul(gfx.Translation(float32(-c.view.X), float32(-c.view.Y)))
}

// compositeModelView places the quad at the camera position, rotated by
// Angle around its centre.
func (c *Camera) compositeModelView(parent gfx.Mat4) gfx.Mat4 {
	hw, hh := c.position.Width/2, c.position.Height/2
	return parent.
		Mul(gfx.Translation(float32(c.position.X+hw), float32(c.position.Y+hh))).
		Mul(gfx.RotationZ(c.Angle)).
		Mul(gfx.Translation(float32(-hw), float32(-hh)))
}

// buildQuad regenerates the composite quad and ortho projection for the
// current pixel size. Corners are in strip order TL, TR, BL, BR; texture v
// runs bottom-up so the target's first row lands at the top.
func (c *Camera) buildQuad() {
	w, h := float32(c.position.Width), float32(c.position.Height)
	c.quad = [4]Vertex{
		{X: 0, Y: 0, Colour: ColorWhite, U: 0, V: 1},
		{X: w, Y: 0, Colour: ColorWhite, U: 1, V: 1},
		{X: 0, Y: h, Colour: ColorWhite, U: 0, V: 0},
		{X: w, Y: h, Colour: ColorWhite, U: 1, V: 0},
	}
	c.projection = gfx.Ortho(0, w, h, 0, -1, 1)
}

func (c *Camera) pixelSize() (int, int) {
	return int(c.position.Width), int(c.position.Height)
}

// --- Size and tiles ---

// deriveTiles re-establishes the tile invariant for the current mode and
// reports what it changed.
func (c *Camera) deriveTiles() Change {
	if c.fixedTileSize {
		if c.tileWidth > 0 {
			c.view.Width = c.position.Width / c.tileWidth
		}
		if c.tileHeight > 0 {
			c.view.Height = c.position.Height / c.tileHeight
		}
		return ChangeView
	}
	if c.view.Width > 0 {
		c.tileWidth = c.position.Width / c.view.Width
	}
	if c.view.Height > 0 {
		c.tileHeight = c.position.Height / c.view.Height
	}
	return ChangeTileSize
}

// Resize changes the pixel size. Non-positive sizes are ignored.
func (c *Camera) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.position.Width, c.position.Height = float64(width), float64(height)
	c.buildQuad()
	c.allocate()
	c.notify(ChangeSize | c.deriveTiles())
}

// ResizePoint is Resize taking an image.Point.
func (c *Camera) ResizePoint(size image.Point) {
	c.Resize(size.X, size.Y)
}

// Size returns the pixel size.
func (c *Camera) Size() (width, height int) {
	return c.pixelSize()
}

// View returns the visible tile rect.
func (c *Camera) View() Rect {
	return c.view
}

// SetView sets the visible tile rect. With a fixed tile size only the
// origin is applied; the size stays derived from the pixel size.
func (c *Camera) SetView(r Rect) {
	if c.fixedTileSize {
		c.view.X, c.view.Y = r.X, r.Y
		c.notify(ChangeView)
		return
	}
	c.view = r
	c.notify(ChangeView | c.deriveTiles())
}

// SetViewOrigin moves the view without changing its size.
func (c *Camera) SetViewOrigin(x, y float64) {
	if c.view.X == x && c.view.Y == y {
		return
	}
	c.view.X, c.view.Y = x, y
	c.notify(ChangeView)
}

// TileSize returns the pixel size of one tile.
func (c *Camera) TileSize() Vec2 {
	return Vec2{c.tileWidth, c.tileHeight}
}

// SetTileSize sets the pixel size of one tile. With a variable tile size the
// view is resized so the tile size holds. Non-positive sizes are ignored.
func (c *Camera) SetTileSize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.tileWidth, c.tileHeight = width, height
	if !c.fixedTileSize {
		c.view.Width = c.position.Width / width
		c.view.Height = c.position.Height / height
		c.notify(ChangeTileSize | ChangeView)
		return
	}
	c.notify(ChangeTileSize | c.deriveTiles())
}

// FixedTileSize reports whether the tile size is authoritative.
func (c *Camera) FixedTileSize() bool {
	return c.fixedTileSize
}

// SetFixedTileSize switches which of tile size and view size is derived.
func (c *Camera) SetFixedTileSize(fixed bool) {
	if c.fixedTileSize == fixed {
		return
	}
	c.fixedTileSize = fixed
	c.notify(c.deriveTiles())
}

// Position returns the camera rect in its parent's local space.
func (c *Camera) Position() Rect {
	return c.position
}

// SetPosition moves the camera within its parent.
func (c *Camera) SetPosition(x, y float64) {
	if c.position.X == x && c.position.Y == y {
		return
	}
	c.position.X, c.position.Y = x, y
	c.notify(ChangePosition)
}

// --- MSAA ---

// MSAASamples returns the sample count of the scene pass.
func (c *Camera) MSAASamples() MSAASamples {
	return c.msaa
}

// SetMSAASamples changes the sample count. The multisample target is created
// or released immediately when attached.
func (c *Camera) SetMSAASamples(m MSAASamples) {
	if c.msaa == m {
		return
	}
	c.msaa = m
	c.syncMSAATarget()
	c.notify(ChangeMSAA)
}

// Target returns the single-sample render target, or nil when detached.
func (c *Camera) Target() *RenderTarget {
	return c.target
}

// MultisampleTarget returns the multisample render target, or nil.
func (c *Camera) MultisampleTarget() *RenderTarget {
	return c.msaaTarget
}

// --- Children ---

// Children returns what the camera renders in its scene pass.
func (c *Camera) Children() SceneContainer {
	return c.children
}

// SetChildren replaces the rendered content, detaching the old one.
func (c *Camera) SetChildren(sc SceneContainer) {
	if c.rc != nil {
		if a, ok := c.children.(Attachable); ok {
			a.OnRemoved()
		}
	}
	c.children = sc
	if c.rc != nil {
		if a, ok := sc.(Attachable); ok {
			a.OnAdded(c, c.rc)
		}
	}
}

// Add adds e to the children when they are a *Container.
func (c *Camera) Add(e Entity, layer int) {
	if ct, ok := c.children.(*Container); ok {
		ct.Add(e, layer)
	}
}

// Remove removes e from the children when they are a *Container.
func (c *Camera) Remove(e Entity) bool {
	if ct, ok := c.children.(*Container); ok {
		return ct.Remove(e)
	}
	return false
}

// --- Coordinates ---

// ToWindow converts a tile-space point to window pixels.
func (c *Camera) ToWindow(p Vec2) Vec2 { return ToWindow(p, c) }

// ToLocal converts window pixels to tile space.
func (c *Camera) ToLocal(p Vec2) Vec2 { return ToLocal(p, c) }

// GetWindowPosition converts a tile-space point to window pixels.
func (c *Camera) GetWindowPosition(p Vec2) Vec2 { return ToWindow(p, c) }

// GetWindowRect converts a tile-space rect to window pixels.
func (c *Camera) GetWindowRect(r Rect) Rect { return RectToWindow(r, c) }

// GetLocalPosition converts window pixels to tile space.
func (c *Camera) GetLocalPosition(p Vec2) Vec2 { return ToLocal(p, c) }

// GetLocalRect converts a window rect to tile space.
func (c *Camera) GetLocalRect(r Rect) Rect { return RectToLocal(r, c) }

// LocalMousePosition returns the pointer position in tile space.
func (c *Camera) LocalMousePosition(in InputManager) Vec2 {
	return ToLocal(in.MousePosition(), c)
}

// --- Decorator ---

// SetDecorator replaces the decorator, detaching the previous one.
func (c *Camera) SetDecorator(d Decorator) {
	if c.decorator != nil {
		c.decorator.Detach(c)
	}
	c.decorator = d
	if d != nil {
		d.Attach(c)
	}
}

// Decorator returns the current decorator, or nil.
func (c *Camera) Decorator() Decorator {
	return c.decorator
}

// IsInBounds reports whether a tile-space point lies in the decorated
// content, or in the view when there is no decorator.
func (c *Camera) IsInBounds(p Vec2) bool {
	if c.decorator != nil {
		return c.decorator.IsInBounds(p)
	}
	return c.view.Contains(p.X, p.Y)
}

// TileAt returns the tile at a grid cell when the decorator is a
// TileIndexer.
func (c *Camera) TileAt(x, y int) (uint32, bool) {
	if ti, ok := c.decorator.(TileIndexer); ok {
		return ti.At(x, y)
	}
	return 0, false
}

// TileUnderMouse returns the grid cell under the pointer.
func (c *Camera) TileUnderMouse(in InputManager) (x, y int) {
	p := c.LocalMousePosition(in)
	return floorInt(p.X), floorInt(p.Y)
}

func floorInt(v float64) int {
	return int(math.Floor(v))
}

// --- Change notification ---

// OnChange registers fn to run after every setter that changes the camera.
// Observers run synchronously in registration order.
func (c *Camera) OnChange(fn func(Change)) CallbackHandle {
	c.nextObserverID++
	c.observers = append(c.observers, changeObserver{id: c.nextObserverID, fn: fn})
	return CallbackHandle{cam: c, id: c.nextObserverID}
}

func (c *Camera) notify(ch Change) {
	for _, o := range c.observers {
		o.fn(ch)
	}
}

// --- Scrolling ---

// ScrollTo animates the view origin to (x, y) over duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scroll = &scrollAnim{
		tweenX: gween.New(float32(c.view.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.view.Y), float32(y), duration, easeFn),
	}
}

// ScrollToTile scrolls so the given tile is centred in the view.
func (c *Camera) ScrollToTile(tileX, tileY int, duration float32, easeFn ease.TweenFunc) {
	x := float64(tileX) + 0.5 - c.view.Width/2
	y := float64(tileY) + 0.5 - c.view.Height/2
	c.ScrollTo(x, y, duration, easeFn)
}

// Scrolling reports whether a scroll animation is running.
func (c *Camera) Scrolling() bool {
	return c.scroll != nil
}

// Update advances the scroll animation and then the children.
func (c *Camera) Update(dt float32) {
	if c.scroll != nil {
		x, y := c.view.X, c.view.Y
		if !c.scroll.doneX {
			val, done := c.scroll.tweenX.Update(dt)
			x = float64(val)
			c.scroll.doneX = done
		}
		if !c.scroll.doneY {
			val, done := c.scroll.tweenY.Update(dt)
			y = float64(val)
			c.scroll.doneY = done
		}
		if c.scroll.doneX && c.scroll.doneY {
			c.scroll = nil
		}
		c.SetViewOrigin(x, y)
	}
	if u, ok := c.children.(Updater); ok {
		u.Update(dt)
	}
}
