package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// FramebufferSpec lists the attachments of an offscreen target. With
// CubeColor the color attachments are cubemaps rendered one face at a
// time through BindFace; the depth attachment stays 2D.
type FramebufferSpec struct {
	Colors    []TextureFormat
	HasDepth  bool
	Depth     TextureFormat
	CubeColor bool
	Filter    Filter
	Wrap      Wrap
	Border    mgl32.Vec4
}

// Framebuffer owns a device framebuffer and its attachment textures.
type Framebuffer struct {
	dev    Device
	id     uint32
	width  int
	height int
	spec   FramebufferSpec
	colors []*Texture
	depth  *Texture
}

func NewFramebuffer(dev Device, width, height int, spec FramebufferSpec) (*Framebuffer, error) {
	fb := &Framebuffer{
		dev:    dev,
		id:     dev.CreateFramebuffer(),
		width:  width,
		height: height,
		spec:   spec,
	}

	for i, format := range spec.Colors {
		tex, err := NewTexture(dev, TextureDesc{
			Width:  width,
			Height: height,
			Format: format,
			Cube:   spec.CubeColor,
			Filter: spec.Filter,
			Wrap:   spec.Wrap,
			Border: spec.Border,
		}, nil)
		if err != nil {
			fb.Release()
			return nil, fmt.Errorf("color attachment %d: %w", i, err)
		}
		fb.colors = append(fb.colors, tex)
	}
	if spec.HasDepth {
		tex, err := NewTexture(dev, TextureDesc{
			Width:  width,
			Height: height,
			Format: spec.Depth,
			Filter: FilterNearest,
			Wrap:   spec.Wrap,
			Border: spec.Border,
		}, nil)
		if err != nil {
			fb.Release()
			return nil, fmt.Errorf("depth attachment: %w", err)
		}
		fb.depth = tex
	}

	fb.attach(0)
	if err := dev.FramebufferStatus(fb.id); err != nil {
		fb.Release()
		return nil, err
	}
	return fb, nil
}

func (fb *Framebuffer) attach(face int) {
	if !fb.spec.CubeColor {
		face = -1
	}
	for i, tex := range fb.colors {
		fb.dev.AttachTexture(fb.id, AttachColor0+Attachment(i), tex.ID(), face)
	}
	if fb.depth != nil {
		fb.dev.AttachTexture(fb.id, AttachDepth, fb.depth.ID(), -1)
	}
	fb.dev.SetDrawBuffers(fb.id, len(fb.colors))
}

func (fb *Framebuffer) ID() uint32 {
	if fb == nil {
		return DefaultFramebuffer
	}
	return fb.id
}

func (fb *Framebuffer) Width() int  { return fb.width }
func (fb *Framebuffer) Height() int { return fb.height }

func (fb *Framebuffer) Rect() Rect {
	return Rect{W: fb.width, H: fb.height}
}

func (fb *Framebuffer) Color(i int) *Texture {
	if i < 0 || i >= len(fb.colors) {
		return nil
	}
	return fb.colors[i]
}

func (fb *Framebuffer) Depth() *Texture { return fb.depth }

// TakeColor hands color attachment i over to the caller; Release no longer
// frees it. The framebuffer must not be drawn to afterwards.
func (fb *Framebuffer) TakeColor(i int) *Texture {
	tex := fb.Color(i)
	if tex != nil {
		fb.colors = append(fb.colors[:i:i], fb.colors[i+1:]...)
	}
	return tex
}

// Bind makes fb the render target and sets the viewport to cover it.
func (fb *Framebuffer) Bind() {
	fb.dev.BindFramebuffer(fb.id)
	fb.dev.Viewport(fb.Rect())
}

// BindFace attaches cube face (0..5) of every color attachment and binds.
func (fb *Framebuffer) BindFace(face int) {
	fb.dev.BindFramebuffer(fb.id)
	fb.attach(face)
	fb.dev.Viewport(fb.Rect())
}

// Resize reallocates every attachment.
func (fb *Framebuffer) Resize(width, height int) error {
	if width == fb.width && height == fb.height {
		return nil
	}
	fb.width, fb.height = width, height
	for _, tex := range fb.colors {
		tex.Resize(width, height)
	}
	if fb.depth != nil {
		fb.depth.Resize(width, height)
	}
	fb.attach(0)
	return fb.dev.FramebufferStatus(fb.id)
}

func (fb *Framebuffer) Release() {
	if fb == nil || fb.id == 0 {
		return
	}
	for _, tex := range fb.colors {
		tex.Release()
	}
	fb.colors = nil
	fb.depth.Release()
	fb.depth = nil
	fb.dev.DeleteFramebuffer(fb.id)
	fb.id = 0
}
