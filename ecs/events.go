package ecs

import (
	"github.com/phanxgames/tilecam"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// CameraChangeEvent reports a camera's view, size, tile size, MSAA or
// position change.
type CameraChangeEvent struct {
	Camera *tilecam.Camera
	Change tilecam.Change
}

// CameraChangeEventType is the Donburi event type for camera changes.
var CameraChangeEventType = events.NewEventType[CameraChangeEvent]()

// PointerEventType is the Donburi event type for pointer hits.
var PointerEventType = events.NewEventType[tilecam.PointerHit]()

// WatchCamera publishes every change of cam to CameraChangeEventType. Remove
// the returned handle to stop.
func WatchCamera(world donburi.World, cam *tilecam.Camera) tilecam.CallbackHandle {
	return cam.OnChange(func(ch tilecam.Change) {
		CameraChangeEventType.Publish(world, CameraChangeEvent{Camera: cam, Change: ch})
	})
}

// PublishPointer hit-tests the pointer against the screen's camera tree and
// publishes the hit. It reports whether a camera was hit.
func PublishPointer(world donburi.World, screen *tilecam.Screen, in tilecam.InputManager) bool {
	hit, ok := screen.PointerAt(in)
	if ok {
		PointerEventType.Publish(world, hit)
	}
	return ok
}
