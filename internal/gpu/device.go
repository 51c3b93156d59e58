// Package gpu wraps the graphics device behind a small interface so the
// renderer can run against OpenGL or against a recording fake in tests.
package gpu

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrFramebufferIncomplete = errors.New("gpu: framebuffer incomplete")
	ErrShaderCompile         = errors.New("gpu: shader compilation failed")
	ErrShaderLink            = errors.New("gpu: program link failed")
)

// DefaultFramebuffer is the host window's framebuffer.
const DefaultFramebuffer uint32 = 0

type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatRGBA16F
	FormatR16F
	FormatDepth16
	FormatDepth24
	// FormatRGBA32F takes texel data as native-endian float32, see FloatBytes.
	FormatRGBA32F
)

func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth16 || f == FormatDepth24
}

type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClampEdge
	WrapClampBorder
)

// TextureDesc describes texture storage. Cube textures take six faces in
// +X, -X, +Y, -Y, +Z, -Z order.
type TextureDesc struct {
	Width, Height int
	Format        TextureFormat
	Cube          bool
	Filter        Filter
	Wrap          Wrap
	Border        mgl32.Vec4
}

// Attachment selects a framebuffer attachment point.
type Attachment int

const (
	AttachDepth  Attachment = -1
	AttachColor0 Attachment = 0
	AttachColor1 Attachment = 1
)

type BlendMode int

const (
	BlendDisabled BlendMode = iota
	BlendAlpha
	BlendAdditive
	BlendMultiply
	// BlendAddColors adds source and destination colors, ignoring alpha.
	BlendAddColors
	// BlendSubtractColors subtracts the destination color from the source.
	BlendSubtractColors
	// BlendPremultipliedAlpha expects colors already scaled by alpha.
	BlendPremultipliedAlpha
)

type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// BlitMask selects the buffers copied by BlitFramebuffer.
type BlitMask int

const (
	BlitColor BlitMask = 1 << iota
	BlitDepth
)

// Rect is a pixel rectangle with its origin at the lower left.
type Rect struct {
	X, Y, W, H int
}

// Device is the set of graphics calls the renderer issues. Handles are
// opaque non-zero values; zero means "none".
type Device interface {
	CreateTexture(desc TextureDesc, faces [][]byte) (uint32, error)
	ResizeTexture(id uint32, desc TextureDesc)
	DeleteTexture(id uint32)

	CreateFramebuffer() uint32
	// AttachTexture attaches tex to fb. face selects a cube face, -1 for 2D.
	AttachTexture(fb uint32, at Attachment, tex uint32, face int)
	SetDrawBuffers(fb uint32, count int)
	FramebufferStatus(fb uint32) error
	BindFramebuffer(fb uint32)
	BlitFramebuffer(src, dst uint32, srcRect, dstRect Rect, mask BlitMask, linear bool)
	DeleteFramebuffer(fb uint32)

	CompileProgram(vertex, fragment string) (uint32, error)
	UseProgram(id uint32)
	UniformLocation(program uint32, name string) int32
	SetUniformInt(loc int32, v int32)
	SetUniformFloat(loc int32, v float32)
	SetUniformVec2(loc int32, v mgl32.Vec2)
	SetUniformVec3(loc int32, v mgl32.Vec3)
	SetUniformVec4(loc int32, v mgl32.Vec4)
	SetUniformMat4(loc int32, m mgl32.Mat4)
	BindTexture(unit int, tex uint32, cube bool)
	DeleteProgram(id uint32)

	CreateMesh(vertices []float32, indices []uint32) uint32
	DrawMesh(id uint32)
	DeleteMesh(id uint32)
	// DrawFullscreen draws one triangle covering the viewport.
	DrawFullscreen()

	Viewport(r Rect)
	Clear(color mgl32.Vec4, colorBuffer, depthBuffer bool)
	// ClearColorAttachment clears one draw buffer of the bound framebuffer.
	ClearColorAttachment(index int, color mgl32.Vec4)
	SetBlend(mode BlendMode)
	SetCull(mode CullMode)
	SetDepth(test, write bool)
}
