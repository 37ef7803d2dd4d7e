// Package ecs connects tilecam cameras to a [Donburi] world.
//
// [SpriteLayer] renders every entity carrying a [Sprite] component as part of
// a camera's scene pass, so game state can live in ECS components while the
// camera tree handles the render targets:
//
//	world := donburi.NewWorld()
//	ecs.NewSprite(world, ecs.Sprite{Texture: tex, Bounds: tilecam.Rect{X: 3, Y: 4, Width: 1, Height: 1}})
//	cam.Add(ecs.NewSpriteLayer(world), 1)
//
// [WatchCamera] and [PublishPointer] forward camera changes and pointer hits
// as typed Donburi events; subscribe to [CameraChangeEventType] and
// [PointerEventType] in your systems.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
