package ebitengl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/tilecam/gfx"
)

// Uniforms consumed by the CPU vertex stage and the sampler binding. Every
// program reports locations for them whether or not the Kage source declares
// them.
const (
	uniformProjection = "Projection"
	uniformModelView  = "ModelView"
	uniformTexture    = "Texture"
)

// Fixed attribute locations.
const (
	attribPosition int32 = iota
	attribColour
	attribTexcoord
	attribCount
)

var attribNames = map[string]int32{
	"position": attribPosition,
	"colour":   attribColour,
	"texcoord": attribTexcoord,
}

type attribPointer struct {
	size    int
	stride  int
	offset  int
	enabled bool
}

// defaultAttribs matches the tilecam vertex layout, so draws work before any
// VertexAttribPointer call.
func defaultAttribs() [attribCount]attribPointer {
	return [attribCount]attribPointer{
		attribPosition: {size: 2, stride: 32, offset: 0},
		attribColour:   {size: 4, stride: 32, offset: 8},
		attribTexcoord: {size: 2, stride: 32, offset: 24},
	}
}

// ErrNoKageSource is returned by CompileProgram for sources without a Kage
// fragment.
var ErrNoKageSource = errors.New("ebitengl: program has no Kage source")

// kageUniform is a uniform declared by a Kage source.
type kageUniform struct {
	name string
	typ  string
}

type program struct {
	name   string
	source string
	cached *cachedShader
	// uniforms maps location index to name; index 0..2 are the built-ins.
	uniforms []string
	types    map[string]string
	matrices map[string]gfx.Mat4
	values   map[string]any
}

// cachedShader is a compiled Kage shader shared by every program with the
// same source.
type cachedShader struct {
	shader  *ebiten.Shader
	refs    int
	evicted bool
}

// releaseShaderOnEviction deallocates an evicted shader once no program uses
// it.
func releaseShaderOnEviction(_ string, cs *cachedShader) {
	cs.evicted = true
	if cs.refs == 0 {
		cs.shader.Deallocate()
	}
}

var (
	varLine  = regexp.MustCompile(`^var\s+(.+?)\s+(\[\d+\])?\s*([A-Za-z_]\w*)\s*$`)
	declLine = regexp.MustCompile(`^(.+?)\s+(\[\d+\])?\s*([A-Za-z_]\w*)\s*$`)
)

// parseKageUniforms lists the top-level var declarations of a Kage source,
// including grouped var ( ... ) blocks. Function bodies are skipped.
func parseKageUniforms(src string) []kageUniform {
	var out []kageUniform
	add := func(names, arr, typ string) {
		if arr != "" {
			typ = arr + typ
		}
		for _, n := range strings.Split(names, ",") {
			if n = strings.TrimSpace(n); n != "" {
				out = append(out, kageUniform{name: n, typ: typ})
			}
		}
	}
	inGroup := false
	depth := 0
	for _, line := range strings.Split(src, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		top := depth == 0
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if !top {
			continue
		}
		switch {
		case line == "":
		case inGroup && line == ")":
			inGroup = false
		case inGroup:
			if m := declLine.FindStringSubmatch(line); m != nil {
				add(m[1], m[2], m[3])
			}
		case line == "var (":
			inGroup = true
		default:
			if m := varLine.FindStringSubmatch(line); m != nil {
				add(m[1], m[2], m[3])
			}
		}
	}
	return out
}

func (d *Device) CompileProgram(src gfx.ProgramSource) (gfx.Program, error) {
	if strings.TrimSpace(src.Kage) == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoKageSource, src.Name)
	}
	cs, ok := d.shaders.Get(src.Kage)
	if !ok {
		s, err := ebiten.NewShader([]byte(src.Kage))
		if err != nil {
			return 0, fmt.Errorf("ebitengl: compile %q: %w", src.Name, err)
		}
		cs = &cachedShader{shader: s}
		d.shaders.Add(src.Kage, cs)
	}
	cs.refs++

	prog := &program{
		name:     src.Name,
		source:   src.Kage,
		cached:   cs,
		uniforms: []string{uniformProjection, uniformModelView, uniformTexture},
		types:    make(map[string]string),
		matrices: map[string]gfx.Mat4{uniformProjection: gfx.Identity(), uniformModelView: gfx.Identity()},
		values:   make(map[string]any),
	}
	for _, u := range parseKageUniforms(src.Kage) {
		if _, builtin := prog.matrices[u.name]; builtin || u.name == uniformTexture {
			continue
		}
		prog.uniforms = append(prog.uniforms, u.name)
		prog.types[u.name] = u.typ
	}
	p := gfx.Program(d.handle())
	d.programs[p] = prog
	return p, nil
}

func (d *Device) DeleteProgram(p gfx.Program) {
	prog, ok := d.programs[p]
	if !ok {
		return
	}
	delete(d.programs, p)
	if d.currentProgram == p {
		d.currentProgram = 0
	}
	cs := prog.cached
	cs.refs--
	if cs.refs == 0 && cs.evicted {
		cs.shader.Deallocate()
	}
}

func (d *Device) UseProgram(p gfx.Program) {
	if p != 0 {
		if _, ok := d.programs[p]; !ok {
			d.record(gfx.InvalidOperation)
			return
		}
	}
	d.currentProgram = p
}

// Uniform locations encode the program handle above the low byte, so a
// location can only be written while its program is current.
func encodeLocation(p gfx.Program, index int) int32 {
	return int32(p)<<8 | int32(index)
}

func decodeLocation(loc int32) (gfx.Program, int) {
	return gfx.Program(loc >> 8), int(loc & 0xff)
}

func (d *Device) UniformLocation(p gfx.Program, name string) int32 {
	prog, ok := d.programs[p]
	if !ok {
		d.record(gfx.InvalidOperation)
		return -1
	}
	for i, n := range prog.uniforms {
		if n == name {
			return encodeLocation(p, i)
		}
	}
	return -1
}

func (d *Device) AttribLocation(p gfx.Program, name string) int32 {
	if _, ok := d.programs[p]; !ok {
		d.record(gfx.InvalidOperation)
		return -1
	}
	if loc, ok := attribNames[name]; ok {
		return loc
	}
	return -1
}

// uniformTarget resolves a location against the current program.
func (d *Device) uniformTarget(loc int32) (*program, string, bool) {
	if loc < 0 {
		return nil, "", false
	}
	p, index := decodeLocation(loc)
	prog, ok := d.programs[p]
	if !ok || p != d.currentProgram || index >= len(prog.uniforms) {
		d.record(gfx.InvalidOperation)
		return nil, "", false
	}
	return prog, prog.uniforms[index], true
}

func (d *Device) UniformMatrix4(loc int32, m gfx.Mat4) {
	prog, name, ok := d.uniformTarget(loc)
	if !ok {
		return
	}
	if _, builtin := prog.matrices[name]; builtin {
		prog.matrices[name] = m
		return
	}
	// Kage matrices are column-major.
	t := m.Transposed()
	prog.values[name] = t[:]
}

func (d *Device) Uniform1i(loc int32, v int32) {
	prog, name, ok := d.uniformTarget(loc)
	if !ok || name == uniformTexture {
		return
	}
	if prog.types[name] == "float" {
		prog.values[name] = float32(v)
		return
	}
	prog.values[name] = int(v)
}

func (d *Device) Uniform1f(loc int32, v float32) {
	prog, name, ok := d.uniformTarget(loc)
	if !ok {
		return
	}
	prog.values[name] = v
}

func (d *Device) Uniform4f(loc int32, x, y, z, w float32) {
	prog, name, ok := d.uniformTarget(loc)
	if !ok {
		return
	}
	prog.values[name] = []float32{x, y, z, w}
}

func (d *Device) VertexAttribPointer(loc int32, size, stride, offset int) {
	if loc < 0 || loc >= attribCount {
		d.record(gfx.InvalidValue)
		return
	}
	if d.boundBuffer == 0 {
		d.record(gfx.InvalidOperation)
		return
	}
	a := &d.attribs[loc]
	a.size, a.stride, a.offset = size, stride, offset
}

func (d *Device) EnableVertexAttribArray(loc int32) {
	if loc < 0 || loc >= attribCount {
		d.record(gfx.InvalidValue)
		return
	}
	d.attribs[loc].enabled = true
}
