package ebitengl

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/tilecam"
	"github.com/phanxgames/tilecam/gfx"
)

// RunConfig configures Run and NewGame.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// Resizable lets the window resize; the screen follows the window.
	Resizable bool
	// ShowFPS prints the frame rate in the top-left corner.
	ShowFPS bool
	// Scene, when set, builds the camera tree. Its size overrides Width and
	// Height.
	Scene *tilecam.SceneConfig
	// ScreenshotDir receives Game.Screenshot and Game.CaptureCamera output.
	// Defaults to "screenshots".
	ScreenshotDir string
	// Setup runs once the graphics resources and screen exist.
	Setup func(g *Game) error
	// Update runs every tick before the camera tree updates.
	Update func(g *Game, dt float32) error
	// Device configures the Ebitengine device.
	Device Options
}

// Game is an ebiten.Game that renders a tilecam screen.
type Game struct {
	Device    *Device
	Resources *tilecam.GraphicsResources
	Context   *tilecam.RenderContext
	Screen    *tilecam.Screen
	// Cameras holds the named cameras built from RunConfig.Scene.
	Cameras map[string]*tilecam.Camera
	Input   *Input

	cfg      RunConfig
	captures []capture
}

var _ ebiten.Game = (*Game)(nil)

// NewGame initialises the graphics resources and builds the screen. Call
// Close when done.
func NewGame(cfg RunConfig) (*Game, error) {
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "screenshots"
	}
	if cfg.Scene != nil {
		cfg.Width, cfg.Height = cfg.Scene.Width, cfg.Scene.Height
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("ebitengl: window size %dx%d must be positive", cfg.Width, cfg.Height)
	}

	dev := NewDevice(cfg.Device)
	res, err := tilecam.InitGraphicsResources(dev)
	if err != nil {
		return nil, fmt.Errorf("ebitengl: init graphics resources: %w", err)
	}
	rc, err := tilecam.NewRenderContext(res)
	if err != nil {
		res.Shutdown()
		return nil, err
	}

	g := &Game{
		Device:    dev,
		Resources: res,
		Context:   rc,
		Cameras:   make(map[string]*tilecam.Camera),
		Input:     &Input{},
		cfg:       cfg,
	}
	if cfg.Scene != nil {
		g.Screen, g.Cameras = cfg.Scene.Build(rc)
	} else {
		g.Screen = tilecam.NewScreen(rc, cfg.Width, cfg.Height)
	}
	if cfg.Setup != nil {
		if err := cfg.Setup(g); err != nil {
			g.Close()
			return nil, err
		}
	}
	return g, nil
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	dt := float32(1.0 / float64(ebiten.TPS()))
	g.Input.update()
	if g.cfg.Update != nil {
		if err := g.cfg.Update(g, dt); err != nil {
			return err
		}
	}
	g.Screen.Update(dt)
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.Device.SetScreen(screen)
	g.Screen.Render()
	if err := g.Device.GetError(); err != gfx.NoError {
		tilecam.Logger().Warn("ebitengl: unhandled device error", "error", err.String())
	}
	g.flushCaptures(screen)
	if g.cfg.ShowFPS {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.0f  TPS: %.0f",
			ebiten.ActualFPS(), ebiten.ActualTPS()), 4, 4)
	}
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if !g.cfg.Resizable {
		return g.cfg.Width, g.cfg.Height
	}
	g.Screen.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Close detaches every camera and releases the graphics resources.
func (g *Game) Close() {
	if g.Screen != nil {
		g.Screen.Destroy()
	}
	g.Resources.Shutdown()
	g.Device.Release()
}

// Run opens a window and runs the game loop until the window closes.
func Run(cfg RunConfig) error {
	g, err := NewGame(cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
