package tilecam

// InputManager reports the pointer position in window pixels.
type InputManager interface {
	MousePosition() Vec2
}

// PointerHit is the result of hit-testing a window point against the
// camera tree.
type PointerHit struct {
	Camera *Camera
	// Local is the point in the camera's tile space.
	Local Vec2
	// Tile is the grid cell containing Local.
	TileX, TileY int
}

// WindowRect returns the camera's on-screen rectangle in window pixels,
// ignoring Angle.
func (c *Camera) WindowRect() Rect {
	parent := parentSpace(c)
	return RectFromCorners(parent.ToWindow(c.position.Origin()), parent.ToWindow(c.position.Max()))
}

// CameraAt returns the innermost, topmost camera whose window rect contains
// p. Cameras drawn later win over earlier siblings.
func (s *Screen) CameraAt(p Vec2) (PointerHit, bool) {
	return cameraAt(s.root, p)
}

// PointerAt hit-tests the pointer position reported by in.
func (s *Screen) PointerAt(in InputManager) (PointerHit, bool) {
	return s.CameraAt(in.MousePosition())
}

func cameraAt(c *Container, p Vec2) (PointerHit, bool) {
	if !c.Visible {
		return PointerHit{}, false
	}
	entities := c.Entities()
	for i := len(entities) - 1; i >= 0; i-- {
		cam, ok := entities[i].(*Camera)
		if !ok || !cam.WindowRect().Contains(p.X, p.Y) {
			continue
		}
		if ct, ok := cam.children.(*Container); ok {
			if hit, ok := cameraAt(ct, p); ok {
				return hit, true
			}
		}
		local := ToLocal(p, cam)
		tx, ty := floorInt(local.X), floorInt(local.Y)
		return PointerHit{Camera: cam, Local: local, TileX: tx, TileY: ty}, true
	}
	return PointerHit{}, false
}
