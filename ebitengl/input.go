package ebitengl

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/tilecam"
)

// Input reads the Ebitengine mouse state. It satisfies tilecam.InputManager.
type Input struct {
	pressed     bool
	justPressed bool
}

var _ tilecam.InputManager = (*Input)(nil)

// MousePosition returns the cursor position in window pixels.
func (in *Input) MousePosition() tilecam.Vec2 {
	mx, my := ebiten.CursorPosition()
	return tilecam.Vec2{X: float64(mx), Y: float64(my)}
}

// Pressed reports whether the left button is down.
func (in *Input) Pressed() bool {
	return in.pressed
}

// JustPressed reports whether the left button went down this tick.
func (in *Input) JustPressed() bool {
	return in.justPressed
}

// update samples the button state once per tick.
func (in *Input) update() {
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	in.justPressed = down && !in.pressed
	in.pressed = down
}
