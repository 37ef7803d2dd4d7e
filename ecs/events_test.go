package ecs

import (
	"testing"

	"github.com/phanxgames/tilecam"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

type fixedInput struct{ p tilecam.Vec2 }

func (f fixedInput) MousePosition() tilecam.Vec2 { return f.p }

func TestWatchCamera(t *testing.T) {
	world := donburi.NewWorld()
	cam := tilecam.NewCamera(tilecam.CameraConfig{Width: 64, Height: 64, TileWidth: 16, TileHeight: 16, FixedTileSize: true})

	var received []CameraChangeEvent
	CameraChangeEventType.Subscribe(world, func(_ donburi.World, e CameraChangeEvent) {
		received = append(received, e)
	})

	h := WatchCamera(world, cam)
	cam.Resize(128, 64)
	cam.SetViewOrigin(3, 4)

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("received %d events before processing", len(received))
	}
	CameraChangeEventType.ProcessEvents(world)
	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Camera != cam || !received[0].Change.Has(tilecam.ChangeSize) {
		t.Errorf("event 0 = %+v", received[0])
	}
	if !received[1].Change.Has(tilecam.ChangeView) {
		t.Errorf("event 1 = %+v", received[1])
	}

	h.Remove()
	cam.Resize(32, 32)
	events.ProcessAllEvents(world)
	if len(received) != 2 {
		t.Errorf("event published after Remove: %d", len(received))
	}
}

func TestPublishPointer(t *testing.T) {
	_, screen := newTestScreen(t)
	cam := tilecam.NewCamera(tilecam.CameraConfig{Name: "map", X: 100, Y: 100, Width: 64, Height: 64, TileWidth: 16, TileHeight: 16, FixedTileSize: true})
	screen.Add(cam, 0)

	world := donburi.NewWorld()
	var hits []tilecam.PointerHit
	PointerEventType.Subscribe(world, func(_ donburi.World, h tilecam.PointerHit) {
		hits = append(hits, h)
	})

	if !PublishPointer(world, screen, fixedInput{tilecam.Vec2{X: 140, Y: 120}}) {
		t.Fatal("pointer over the camera missed")
	}
	if PublishPointer(world, screen, fixedInput{tilecam.Vec2{X: 10, Y: 10}}) {
		t.Error("pointer outside the camera hit")
	}
	PointerEventType.ProcessEvents(world)
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	if hits[0].Camera != cam || hits[0].TileX != 2 || hits[0].TileY != 1 {
		t.Errorf("hit = %+v", hits[0])
	}
}
