package tilecam

import (
	"time"

	"github.com/phanxgames/tilecam/gfx"
)

// Screen is the root of a camera tree. It maps window coordinates to
// themselves and renders its root container into the default framebuffer.
type Screen struct {
	// ClearColour, when non-transparent, clears the screen before rendering.
	ClearColour Color

	rc     *RenderContext
	width  int
	height int
	root   *Container
	debug  bool
}

var _ Space = (*Screen)(nil)

// NewScreen creates a screen of the given window size. Entities added to it
// are attached immediately.
func NewScreen(rc *RenderContext, width, height int) *Screen {
	s := &Screen{
		rc:     rc,
		width:  max(width, 0),
		height: max(height, 0),
		root:   NewContainer(),
	}
	s.root.OnAdded(s, rc)
	return s
}

// RenderContext returns the context the screen renders with.
func (s *Screen) RenderContext() *RenderContext {
	return s.rc
}

// Root returns the root container.
func (s *Screen) Root() *Container {
	return s.root
}

// Add adds e to the root container on the given layer.
func (s *Screen) Add(e Entity, layer int) {
	s.root.Add(e, layer)
}

// Remove removes e from the root container.
func (s *Screen) Remove(e Entity) bool {
	return s.root.Remove(e)
}

// Size returns the window size.
func (s *Screen) Size() (width, height int) {
	return s.width, s.height
}

// Resize changes the window size. Non-positive sizes are ignored.
func (s *Screen) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.width, s.height = width, height
}

// SetDebugMode enables per-frame stats logging at debug level.
func (s *Screen) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// ToWindow returns p unchanged.
func (s *Screen) ToWindow(p Vec2) Vec2 { return p }

// ToLocal returns p unchanged.
func (s *Screen) ToLocal(p Vec2) Vec2 { return p }

// Update advances every Updater in the tree.
func (s *Screen) Update(dt float32) {
	s.root.Update(dt)
}

// Render draws the tree into the default framebuffer with a pixel ortho
// projection. The framebuffer binding and viewport that were current before
// the call are restored afterwards.
func (s *Screen) Render() {
	if s.width <= 0 || s.height <= 0 {
		return
	}
	var start time.Time
	if s.debug {
		start = time.Now()
	}
	rc := s.rc
	dev := rc.dev
	rc.ResetStats()

	prevFB := dev.GetFramebufferBinding()
	prevViewport := dev.GetViewport()
	dev.BindFramebuffer(rc.CurrentTarget())
	dev.Viewport(0, 0, s.width, s.height)
	dev.BlendFunc(gfx.One, gfx.OneMinusSrcAlpha)
	if s.ClearColour.A > 0 {
		rc.clearTarget(s.ClearColour)
	}

	projection := gfx.Ortho(0, float32(s.width), float32(s.height), 0, -1, 1)
	modelView := gfx.Identity()
	s.root.Render(&projection, &modelView)

	dev.BindFramebuffer(prevFB)
	dev.Viewport(prevViewport.X, prevViewport.Y, prevViewport.Width, prevViewport.Height)
	if s.debug {
		s.debugLog(time.Since(start))
	}
}

// Destroy detaches every entity, releasing camera resources.
func (s *Screen) Destroy() {
	s.root.OnRemoved()
}
