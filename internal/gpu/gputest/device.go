// Package gputest provides a recording gpu.Device for tests. It tracks live
// resources and every draw so render passes can be checked without a GL
// context.
package gputest

import (
	"fmt"

	"Prism3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

type Framebuffer struct {
	Attachments map[gpu.Attachment]uint32
	Faces       map[gpu.Attachment]int
	DrawBuffers int
}

type Program struct {
	Vertex   string
	Fragment string
	Uniforms map[string]interface{}
	locs     map[string]int32
}

// Draw records one mesh draw.
type Draw struct {
	Target  uint32
	Face    int
	Program uint32
	Mesh    uint32
	Blend   gpu.BlendMode
}

type Blit struct {
	Src, Dst         uint32
	SrcRect, DstRect gpu.Rect
	Mask             gpu.BlitMask
	Linear           bool
}

type Device struct {
	Textures     map[uint32]gpu.TextureDesc
	Framebuffers map[uint32]*Framebuffer
	Programs     map[uint32]*Program
	Meshes       map[uint32]int

	Bound           uint32
	CurrentProgram  uint32
	Draws           []Draw
	FullscreenDraws int
	Blits           []Blit
	Binds           []uint32
	Viewports       []gpu.Rect
	Clears          int
	Blend           gpu.BlendMode
	Cull            gpu.CullMode
	DepthTest       bool
	DepthWrite      bool
	BoundTextures   map[int]uint32

	// FailCompile, when set, is consulted for every program.
	FailCompile func(vertex, fragment string) error
	// Incomplete makes every framebuffer status check fail.
	Incomplete bool

	next    uint32
	nextLoc int32
	locs    map[int32]locRef
}

type locRef struct {
	program uint32
	name    string
}

func New() *Device {
	return &Device{
		Textures:      make(map[uint32]gpu.TextureDesc),
		Framebuffers:  make(map[uint32]*Framebuffer),
		Programs:      make(map[uint32]*Program),
		Meshes:        make(map[uint32]int),
		BoundTextures: make(map[int]uint32),
		locs:          make(map[int32]locRef),
	}
}

func (d *Device) id() uint32 {
	d.next++
	return d.next
}

func (d *Device) LiveTextures() int     { return len(d.Textures) }
func (d *Device) LiveFramebuffers() int { return len(d.Framebuffers) }
func (d *Device) LivePrograms() int     { return len(d.Programs) }
func (d *Device) LiveMeshes() int       { return len(d.Meshes) }

// Reset clears the draw, bind and blit logs.
func (d *Device) Reset() {
	d.Draws = nil
	d.FullscreenDraws = 0
	d.Blits = nil
	d.Binds = nil
	d.Viewports = nil
	d.Clears = 0
}

// DrawsTo counts mesh draws issued while target was bound.
func (d *Device) DrawsTo(target uint32) int {
	n := 0
	for _, dr := range d.Draws {
		if dr.Target == target {
			n++
		}
	}
	return n
}

// Uniform returns the last value set for name on program.
func (d *Device) Uniform(program uint32, name string) (interface{}, bool) {
	p, ok := d.Programs[program]
	if !ok {
		return nil, false
	}
	v, ok := p.Uniforms[name]
	return v, ok
}

func (d *Device) CreateTexture(desc gpu.TextureDesc, faces [][]byte) (uint32, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("texture size %dx%d", desc.Width, desc.Height)
	}
	id := d.id()
	d.Textures[id] = desc
	return id, nil
}

func (d *Device) ResizeTexture(id uint32, desc gpu.TextureDesc) {
	if _, ok := d.Textures[id]; ok {
		d.Textures[id] = desc
	}
}

func (d *Device) DeleteTexture(id uint32) {
	delete(d.Textures, id)
}

func (d *Device) CreateFramebuffer() uint32 {
	id := d.id()
	d.Framebuffers[id] = &Framebuffer{
		Attachments: make(map[gpu.Attachment]uint32),
		Faces:       make(map[gpu.Attachment]int),
	}
	return id
}

func (d *Device) AttachTexture(fb uint32, at gpu.Attachment, tex uint32, face int) {
	if f, ok := d.Framebuffers[fb]; ok {
		f.Attachments[at] = tex
		f.Faces[at] = face
	}
}

func (d *Device) SetDrawBuffers(fb uint32, count int) {
	if f, ok := d.Framebuffers[fb]; ok {
		f.DrawBuffers = count
	}
}

func (d *Device) FramebufferStatus(fb uint32) error {
	f, ok := d.Framebuffers[fb]
	if !ok || d.Incomplete || len(f.Attachments) == 0 {
		return fmt.Errorf("%w: framebuffer %d", gpu.ErrFramebufferIncomplete, fb)
	}
	for _, tex := range f.Attachments {
		if _, ok := d.Textures[tex]; !ok {
			return fmt.Errorf("%w: missing texture %d", gpu.ErrFramebufferIncomplete, tex)
		}
	}
	return nil
}

func (d *Device) BindFramebuffer(fb uint32) {
	d.Bound = fb
	d.Binds = append(d.Binds, fb)
}

func (d *Device) BlitFramebuffer(src, dst uint32, s, t gpu.Rect, mask gpu.BlitMask, linear bool) {
	d.Blits = append(d.Blits, Blit{Src: src, Dst: dst, SrcRect: s, DstRect: t, Mask: mask, Linear: linear})
	d.Bound = dst
}

func (d *Device) DeleteFramebuffer(fb uint32) {
	delete(d.Framebuffers, fb)
}

func (d *Device) CompileProgram(vertex, fragment string) (uint32, error) {
	if d.FailCompile != nil {
		if err := d.FailCompile(vertex, fragment); err != nil {
			return 0, err
		}
	}
	id := d.id()
	d.Programs[id] = &Program{
		Vertex:   vertex,
		Fragment: fragment,
		Uniforms: make(map[string]interface{}),
		locs:     make(map[string]int32),
	}
	return id, nil
}

func (d *Device) UseProgram(id uint32) {
	d.CurrentProgram = id
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	p, ok := d.Programs[program]
	if !ok {
		return -1
	}
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	d.nextLoc++
	p.locs[name] = d.nextLoc
	d.locs[d.nextLoc] = locRef{program: program, name: name}
	return d.nextLoc
}

func (d *Device) set(loc int32, v interface{}) {
	ref, ok := d.locs[loc]
	if !ok {
		return
	}
	if p, ok := d.Programs[ref.program]; ok {
		p.Uniforms[ref.name] = v
	}
}

func (d *Device) SetUniformInt(loc int32, v int32)       { d.set(loc, v) }
func (d *Device) SetUniformFloat(loc int32, v float32)   { d.set(loc, v) }
func (d *Device) SetUniformVec2(loc int32, v mgl32.Vec2) { d.set(loc, v) }
func (d *Device) SetUniformVec3(loc int32, v mgl32.Vec3) { d.set(loc, v) }
func (d *Device) SetUniformVec4(loc int32, v mgl32.Vec4) { d.set(loc, v) }
func (d *Device) SetUniformMat4(loc int32, m mgl32.Mat4) { d.set(loc, m) }

func (d *Device) BindTexture(unit int, tex uint32, cube bool) {
	d.BoundTextures[unit] = tex
}

func (d *Device) DeleteProgram(id uint32) {
	delete(d.Programs, id)
}

func (d *Device) CreateMesh(vertices []float32, indices []uint32) uint32 {
	id := d.id()
	d.Meshes[id] = len(vertices) / gpu.VertexStride
	return id
}

func (d *Device) DrawMesh(id uint32) {
	face := -1
	if f, ok := d.Framebuffers[d.Bound]; ok {
		if fc, ok := f.Faces[gpu.AttachColor0]; ok {
			face = fc
		}
	}
	d.Draws = append(d.Draws, Draw{
		Target:  d.Bound,
		Face:    face,
		Program: d.CurrentProgram,
		Mesh:    id,
		Blend:   d.Blend,
	})
}

func (d *Device) DeleteMesh(id uint32) {
	delete(d.Meshes, id)
}

func (d *Device) DrawFullscreen() {
	d.FullscreenDraws++
}

func (d *Device) Viewport(r gpu.Rect) {
	d.Viewports = append(d.Viewports, r)
}

func (d *Device) Clear(color mgl32.Vec4, colorBuffer, depthBuffer bool) {
	d.Clears++
}

func (d *Device) ClearColorAttachment(index int, color mgl32.Vec4) {
	d.Clears++
}

func (d *Device) SetBlend(mode gpu.BlendMode) { d.Blend = mode }
func (d *Device) SetCull(mode gpu.CullMode)   { d.Cull = mode }

func (d *Device) SetDepth(test, write bool) {
	d.DepthTest, d.DepthWrite = test, write
}

var _ gpu.Device = (*Device)(nil)
