package tilecam

// Space is a coordinate space nested in the window. The Screen is the root
// space; each Camera is a space inside the one it is attached to.
type Space interface {
	// ToWindow converts a point in this space's local coordinates to window
	// pixels.
	ToWindow(p Vec2) Vec2
	// ToLocal converts window pixels to this space's local coordinates.
	ToLocal(p Vec2) Vec2
}

// identitySpace maps window coordinates to themselves. It stands in for a
// missing parent.
type identitySpace struct{}

func (identitySpace) ToWindow(p Vec2) Vec2 { return p }
func (identitySpace) ToLocal(p Vec2) Vec2  { return p }

func parentSpace(c *Camera) Space {
	if c.parent == nil {
		return identitySpace{}
	}
	return c.parent
}

// ToWindow converts tile coordinates inside c to window pixels:
//
//	windowPos = parent.ToWindow(position.origin + tileSize * (p - view.origin))
//
// The camera's Angle is not applied.
func ToWindow(p Vec2, c *Camera) Vec2 {
	local := c.position.Origin().Add(c.TileSize().Mul(p.Sub(c.view.Origin())))
	return parentSpace(c).ToWindow(local)
}

// ToLocal is the inverse of ToWindow. A zero tile dimension maps that axis
// to the view origin.
func ToLocal(w Vec2, c *Camera) Vec2 {
	d := parentSpace(c).ToLocal(w).Sub(c.position.Origin())
	return Vec2{
		X: divTile(d.X, c.tileWidth),
		Y: divTile(d.Y, c.tileHeight),
	}.Add(c.view.Origin())
}

func divTile(d, tile float64) float64 {
	if tile == 0 {
		return 0
	}
	return d / tile
}

// RectToWindow converts a tile-space rectangle by transforming its corners.
func RectToWindow(r Rect, c *Camera) Rect {
	return RectFromCorners(ToWindow(r.Origin(), c), ToWindow(r.Max(), c))
}

// RectToLocal converts a window rectangle by transforming its corners.
func RectToLocal(r Rect, c *Camera) Rect {
	return RectFromCorners(ToLocal(r.Origin(), c), ToLocal(r.Max(), c))
}
