package tilecam

import (
	"time"
)

// debugLog reports the frame's render stats at debug level.
func (s *Screen) debugLog(elapsed time.Duration) {
	stats := s.rc.Stats()
	Logger().Debug("tilecam: frame",
		"render", elapsed,
		"cameras", stats.CameraPasses,
		"resolves", stats.Resolves,
		"drawCalls", stats.DrawCalls,
		"targetsCreated", stats.TargetsCreated,
		"deviceErrors", stats.DeviceErrors)
	if depth := s.rc.stack.Depth(); depth != 0 {
		Logger().Warn("tilecam: viewport stack not empty after frame", "depth", depth)
	}
	debugCheckNesting(s.root, 0)
}

// debugMaxCameraDepth is the camera nesting depth above which a warning is
// logged.
const debugMaxCameraDepth = 8

func debugCheckNesting(c *Container, depth int) {
	for _, e := range c.Entities() {
		cam, ok := e.(*Camera)
		if !ok {
			continue
		}
		if depth+1 > debugMaxCameraDepth {
			Logger().Warn("tilecam: camera nesting too deep",
				"camera", cam.Name, "depth", depth+1, "threshold", debugMaxCameraDepth)
			return
		}
		if ct, ok := cam.children.(*Container); ok {
			debugCheckNesting(ct, depth+1)
		}
	}
}
