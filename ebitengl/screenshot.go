package ebitengl

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/tilecam"
)

// capture is a queued PNG capture. A nil camera captures the window.
type capture struct {
	label  string
	camera *tilecam.Camera
}

// Screenshot queues a capture of the window, taken after the current frame is
// drawn. Files go to RunConfig.ScreenshotDir.
func (g *Game) Screenshot(label string) {
	g.captures = append(g.captures, capture{label: label})
}

// CaptureCamera queues a capture of cam's resolved target: the camera's own
// view before it is rotated and composited into its parent.
func (g *Game) CaptureCamera(cam *tilecam.Camera, label string) {
	if cam == nil {
		return
	}
	g.captures = append(g.captures, capture{label: label, camera: cam})
}

// flushCaptures writes every queued capture and empties the queue.
func (g *Game) flushCaptures(screen *ebiten.Image) {
	if len(g.captures) == 0 {
		return
	}
	defer func() { g.captures = g.captures[:0] }()

	log := tilecam.Logger()
	dir := g.cfg.ScreenshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("ebitengl: capture directory", "dir", dir, "error", err)
		return
	}

	stamp := time.Now().Format("20060102-150405")
	for _, c := range g.captures {
		src := screen
		if c.camera != nil {
			if src = g.cameraImage(c.camera); src == nil {
				log.Warn("ebitengl: camera has no target to capture", "camera", c.camera.Name)
				continue
			}
		}
		path := filepath.Join(dir, captureName(stamp, c))
		if err := savePNG(path, readImage(src)); err != nil {
			log.Error("ebitengl: capture", "path", path, "error", err)
			continue
		}
		log.Info("ebitengl: capture saved", "path", path)
	}
}

// cameraImage returns the image backing cam's single-sample target, or nil
// while the camera is detached.
func (g *Game) cameraImage(cam *tilecam.Camera) *ebiten.Image {
	rt := cam.Target()
	if rt == nil || !rt.Allocated() {
		return nil
	}
	return g.Device.Image(rt.Texture())
}

// readImage copies src into an image.RGBA. Both hold premultiplied alpha, so
// the PNG encoder converts to straight alpha on write.
func readImage(src *ebiten.Image) *image.RGBA {
	b := src.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	src.ReadPixels(img.Pix)
	return img
}

// captureName builds "<stamp>_[<camera>-]<label>.png".
func captureName(stamp string, c capture) string {
	var parts []string
	if c.camera != nil && c.camera.Name != "" {
		parts = append(parts, fileSafe(c.camera.Name))
	}
	if label := fileSafe(c.label); label != "" {
		parts = append(parts, label)
	}
	if len(parts) == 0 {
		parts = append(parts, "frame")
	}
	return stamp + "_" + strings.Join(parts, "-") + ".png"
}

// fileSafe keeps ASCII letters, digits, '-' and '.', mapping anything else
// to '_'.
func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.') {
			return r
		}
		return '_'
	}, strings.TrimSpace(s))
}

func savePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(f, img)
}
