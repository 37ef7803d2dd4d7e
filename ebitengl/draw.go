package ebitengl

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/tilecam/gfx"
)

// clipToTarget maps a clip-space position into destination pixels of an
// image of height fbHeight, for a GL viewport whose origin is bottom-left.
// grid scales everything for supersampled targets.
func clipToTarget(cx, cy, cw float32, vp gfx.Rectangle, fbHeight, grid int) (x, y float32) {
	if cw == 0 {
		cw = 1
	}
	nx, ny := cx/cw, cy/cw
	g := float32(grid)
	vx := float32(vp.X) * g
	vw := float32(vp.Width) * g
	vh := float32(vp.Height) * g
	// Top edge of the viewport in image (top-left origin) coordinates.
	vt := float32(fbHeight) - float32(vp.Y+vp.Height)*g
	x = vx + (nx+1)/2*vw
	y = vt + (1-ny)/2*vh
	return x, y
}

// viewportRect returns the viewport in image coordinates, clipped to bounds.
func viewportRect(vp gfx.Rectangle, bounds image.Rectangle, grid int) image.Rectangle {
	h := bounds.Dy()
	r := image.Rect(
		vp.X*grid,
		h-(vp.Y+vp.Height)*grid,
		(vp.X+vp.Width)*grid,
		h-vp.Y*grid,
	).Add(bounds.Min)
	return r.Intersect(bounds)
}

// triangleIndices appends the indices of count vertices assembled in mode.
func triangleIndices(dst []uint16, mode gfx.DrawMode, count int) []uint16 {
	switch mode {
	case gfx.Triangles:
		for i := 0; i+2 < count; i += 3 {
			dst = append(dst, uint16(i), uint16(i+1), uint16(i+2))
		}
	case gfx.TriangleStrip:
		for i := 0; i+2 < count; i++ {
			if i%2 == 0 {
				dst = append(dst, uint16(i), uint16(i+1), uint16(i+2))
			} else {
				dst = append(dst, uint16(i+1), uint16(i), uint16(i+2))
			}
		}
	}
	return dst
}

// readAttrib reads size floats of attribute a for vertex i.
func readAttrib(data []float32, a attribPointer, i int, out []float32) bool {
	stride := a.stride / 4
	if stride == 0 {
		stride = a.size
	}
	base := i*stride + a.offset/4
	if base < 0 || base+a.size > len(data) || a.size > len(out) {
		return false
	}
	copy(out, data[base:base+a.size])
	return true
}

// DrawArrays runs the vertex stage on the CPU and draws the triangles with
// the current program's Kage shader into the bound framebuffer, clipped to
// the viewport.
func (d *Device) DrawArrays(mode gfx.DrawMode, first, count int) {
	prog, ok := d.programs[d.currentProgram]
	if !ok {
		d.record(gfx.InvalidOperation)
		return
	}
	data, ok := d.buffers[d.boundBuffer]
	if !ok || d.boundBuffer == 0 {
		d.record(gfx.InvalidOperation)
		return
	}
	if first < 0 || count < 0 || count > 0xffff {
		d.record(gfx.InvalidValue)
		return
	}
	dst, grid := d.target()
	if dst == nil {
		d.record(gfx.InvalidFramebufferOperation)
		return
	}

	var src *ebiten.Image
	var srcW, srcH float32
	if tex, ok := d.textures[d.boundTexture[d.lastTarget]]; ok && tex.img != nil {
		src = tex.img
		b := src.Bounds()
		srcW, srcH = float32(b.Dx()), float32(b.Dy())
	}

	mvp := prog.matrices[uniformProjection].Mul(prog.matrices[uniformModelView])
	bounds := dst.Bounds()
	var pos, col, uv [4]float32
	d.vertices = d.vertices[:0]
	for i := first; i < first+count; i++ {
		pos, col, uv = [4]float32{}, [4]float32{1, 1, 1, 1}, [4]float32{}
		if !readAttrib(data, d.attribs[attribPosition], i, pos[:]) {
			d.record(gfx.InvalidOperation)
			return
		}
		if a := d.attribs[attribColour]; a.enabled {
			readAttrib(data, a, i, col[:])
		}
		if a := d.attribs[attribTexcoord]; a.enabled {
			readAttrib(data, a, i, uv[:])
		}
		cx, cy, cw := mvp.Transform(pos[0], pos[1])
		x, y := clipToTarget(cx, cy, cw, d.viewport, bounds.Dy(), grid)
		d.vertices = append(d.vertices, ebiten.Vertex{
			DstX:   x + float32(bounds.Min.X),
			DstY:   y + float32(bounds.Min.Y),
			SrcX:   uv[0] * srcW,
			SrcY:   (1 - uv[1]) * srcH,
			ColorR: col[0],
			ColorG: col[1],
			ColorB: col[2],
			ColorA: col[3],
		})
	}
	d.indices = triangleIndices(d.indices[:0], mode, count)
	if len(d.indices) == 0 {
		return
	}

	clip := viewportRect(d.viewport, bounds, grid)
	if clip.Empty() {
		return
	}
	target := dst.SubImage(clip).(*ebiten.Image)
	op := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: prog.values,
		Blend:    d.blend,
	}
	op.Images[0] = src
	target.DrawTrianglesShader(d.vertices, d.indices, prog.cached.shader, op)
}
