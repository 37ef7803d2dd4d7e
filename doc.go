// Package tilecam composites nested tile cameras through offscreen render
// targets.
//
// A [Camera] renders its children into its own framebuffer, optionally
// multisampled and resolved by the shared [MSAAResolver], then draws the
// result as a textured quad into whatever target is current: the window or
// the target of a parent camera. Cameras nest to any depth and the window,
// local and tile coordinate mappings stay exact through the chain.
//
// All GPU work goes through a [gfx.Device]. The ebitengl sub-package
// implements it on [Ebitengine]; gfx/gfxtest records calls for tests.
//
// # Quick start
//
//	dev := ebitengl.NewDevice(ebitengl.Options{})
//	res, err := tilecam.InitGraphicsResources(dev)
//	if err != nil { ... }
//	defer res.Shutdown()
//	rc, _ := tilecam.NewRenderContext(res)
//
//	screen := tilecam.NewScreen(rc, 800, 600)
//	world := tilecam.NewCamera(tilecam.CameraConfig{
//		Width: 800, Height: 600,
//		TileWidth: 32, TileHeight: 32, FixedTileSize: true,
//	})
//	screen.Add(world, 0)
//
//	// every frame
//	screen.Update(dt)
//	screen.Render()
//
// Scenes can also be described in YAML and built with [LoadSceneConfig] and
// [SceneConfig.Build].
//
// # Tile sizes
//
// A camera shows the tile-space rectangle [Camera.View] at a pixel size.
// With [Camera.FixedTileSize] the tile size is authoritative and the view
// size follows the pixel size; otherwise the view is authoritative and the
// tile size follows. Setters notify observers registered with
// [Camera.OnChange].
//
// # Binding discipline
//
// Rendering happens on one thread. Every call that binds a framebuffer,
// texture, buffer or program through the [RenderContext] restores the
// previous binding before returning, so cameras compose without sharing
// global state.
//
// # Logging
//
// tilecam is silent by default. Route its warnings and debug stats to a
// [log/slog] logger with [SetLogger].
//
// [Ebitengine]: https://ebitengine.org
package tilecam
