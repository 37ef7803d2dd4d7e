package ebitengl

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// imagePool manages reusable offscreen ebiten.Images keyed by power-of-two
// dimensions. Textures are handed out as sub-images of the pooled image so a
// resize within the same bucket reuses the GPU allocation.
type imagePool struct {
	buckets map[uint64][]*ebiten.Image
	// limit caps the images kept per bucket; extras are deallocated.
	limit int
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// acquire returns a cleared offscreen image with at least (w, h) pixels.
// Dimensions are rounded up to the next power of two.
func (p *imagePool) acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}

	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// release returns an image to the pool. It is cleared on the next acquire.
func (p *imagePool) release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())

	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	if p.limit > 0 && len(p.buckets[key]) >= p.limit {
		img.Deallocate()
		return
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// purge deallocates every pooled image.
func (p *imagePool) purge() {
	for key, stack := range p.buckets {
		for _, img := range stack {
			img.Deallocate()
		}
		delete(p.buckets, key)
	}
}

// size returns the number of pooled images.
func (p *imagePool) size() int {
	n := 0
	for _, stack := range p.buckets {
		n += len(stack)
	}
	return n
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

// sampleGrid is the side of the square texel grid that stores the samples of
// one multisample pixel.
func sampleGrid(samples int) int {
	if samples <= 1 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(samples))))
}
