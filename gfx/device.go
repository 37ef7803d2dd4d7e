// Package gfx defines the graphics device contract tilecam drives.
//
// The interface mirrors the small slice of OpenGL a render-target compositor
// needs: textures, framebuffers, one vertex buffer, programs, blending and
// viewport state. Handles are plain integers; zero means "none" (and, for
// framebuffers, the default framebuffer, i.e. the screen).
package gfx

import "fmt"

// Texture is a device texture handle. Zero is no texture.
type Texture uint32

// Framebuffer is a device framebuffer handle. Zero is the screen.
type Framebuffer uint32

// Buffer is a device vertex buffer handle. Zero is no buffer.
type Buffer uint32

// Program is a linked shader program handle. Zero is no program.
type Program uint32

// TextureTarget selects the texture binding point.
type TextureTarget uint8

const (
	Texture2D            TextureTarget = iota // single-sample 2D texture
	Texture2DMultisample                      // multisample 2D texture
)

func (t TextureTarget) String() string {
	switch t {
	case Texture2D:
		return "GL_TEXTURE_2D"
	case Texture2DMultisample:
		return "GL_TEXTURE_2D_MULTISAMPLE"
	default:
		return fmt.Sprintf("TextureTarget(%d)", uint8(t))
	}
}

// PixelFormat is the internal format of a texture.
type PixelFormat uint8

const (
	RGBA8 PixelFormat = iota
)

// TexParam is a texture parameter name.
type TexParam uint8

const (
	TextureMinFilter TexParam = iota
	TextureMagFilter
	TextureWrapS
	TextureWrapT
)

// Texture parameter values.
const (
	Nearest     int32 = 0x2600
	Linear      int32 = 0x2601
	ClampToEdge int32 = 0x812F
)

// Attachment is a framebuffer attachment point.
type Attachment uint8

const (
	ColorAttachment0 Attachment = iota
)

// FramebufferStatus is the result of CheckFramebufferStatus.
type FramebufferStatus uint16

const (
	FramebufferComplete          FramebufferStatus = 0x8CD5
	FramebufferIncompleteAttach  FramebufferStatus = 0x8CD6
	FramebufferIncompleteMissing FramebufferStatus = 0x8CD7
	FramebufferUnsupported       FramebufferStatus = 0x8CDD
)

// ClearMask selects the buffers Clear touches.
type ClearMask uint8

const (
	ColorBufferBit ClearMask = 1 << iota
)

// BlendFactor is a blend equation factor.
type BlendFactor uint8

const (
	Zero BlendFactor = iota
	One
	SrcAlpha
	OneMinusSrcAlpha
	DstAlpha
	OneMinusDstAlpha
)

// BufferTarget selects the buffer binding point.
type BufferTarget uint8

const (
	ArrayBuffer BufferTarget = iota
)

// BufferUsage hints how often buffer data changes.
type BufferUsage uint8

const (
	StaticDraw BufferUsage = iota
	DynamicDraw
)

// DrawMode is the primitive assembly mode of DrawArrays.
type DrawMode uint8

const (
	Triangles DrawMode = iota
	TriangleStrip
)

// ErrorCode is a device error as reported by GetError.
type ErrorCode uint16

const (
	NoError                     ErrorCode = 0
	InvalidEnum                 ErrorCode = 0x0500
	InvalidValue                ErrorCode = 0x0501
	InvalidOperation            ErrorCode = 0x0502
	OutOfMemory                 ErrorCode = 0x0505
	InvalidFramebufferOperation ErrorCode = 0x0506
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "GL_NO_ERROR"
	case InvalidEnum:
		return "GL_INVALID_ENUM"
	case InvalidValue:
		return "GL_INVALID_VALUE"
	case InvalidOperation:
		return "GL_INVALID_OPERATION"
	case OutOfMemory:
		return "GL_OUT_OF_MEMORY"
	case InvalidFramebufferOperation:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	default:
		return fmt.Sprintf("GL_ERROR(0x%04X)", uint16(e))
	}
}

// Rectangle is an integer viewport rectangle.
type Rectangle struct {
	X, Y, Width, Height int
}

// Capabilities reports optional device behavior.
type Capabilities struct {
	// ImmutableTextureStorage reports TexStorage2D support.
	ImmutableTextureStorage bool
	// ReuseFramebuffers reports that a framebuffer can be re-attached to new
	// textures after a resize instead of being recreated.
	ReuseFramebuffers bool
	// MaxSamples is the largest supported multisample count.
	MaxSamples int
}

// ProgramSource holds the shader sources of one program. GL devices read
// Vertex and Fragment, the Ebitengine device reads Kage.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
	Kage     string
}

// Device is the graphics device tilecam renders through. All calls happen on
// the thread that owns the graphics context.
type Device interface {
	GenTexture() Texture
	DeleteTexture(t Texture)
	BindTexture(target TextureTarget, t Texture)
	TexImage2D(target TextureTarget, width, height int, format PixelFormat)
	TexImage2DMultisample(samples, width, height int, format PixelFormat)
	TexStorage2D(target TextureTarget, levels, width, height int, format PixelFormat)
	TexParameteri(target TextureTarget, param TexParam, value int32)

	GenFramebuffer() Framebuffer
	DeleteFramebuffer(fb Framebuffer)
	BindFramebuffer(fb Framebuffer)
	GetFramebufferBinding() Framebuffer
	FramebufferTexture2D(attachment Attachment, target TextureTarget, t Texture)
	CheckFramebufferStatus() FramebufferStatus

	Viewport(x, y, width, height int)
	GetViewport() Rectangle
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	BlendFunc(src, dst BlendFactor)

	GenBuffer() Buffer
	DeleteBuffer(b Buffer)
	BindBuffer(target BufferTarget, b Buffer)
	BufferData(target BufferTarget, data []float32, usage BufferUsage)

	CompileProgram(src ProgramSource) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)
	UniformLocation(p Program, name string) int32
	AttribLocation(p Program, name string) int32
	UniformMatrix4(location int32, m Mat4)
	Uniform1i(location int32, v int32)
	Uniform1f(location int32, v float32)
	Uniform4f(location int32, x, y, z, w float32)
	VertexAttribPointer(location int32, size, stride, offset int)
	EnableVertexAttribArray(location int32)

	DrawArrays(mode DrawMode, first, count int)

	// GetError returns and clears the oldest recorded error.
	GetError() ErrorCode
	Capabilities() Capabilities
}
