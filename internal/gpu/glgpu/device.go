// Package glgpu implements gpu.Device on OpenGL 4.1 core through go-gl.
// A current GL context must exist before New is called.
package glgpu

import (
	"fmt"
	"strings"
	"unsafe"

	"Prism3D/internal/gpu"
	"Prism3D/internal/logger"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type mesh struct {
	vao, vbo, ebo uint32
	count         int32
	indexed       bool
}

// Device issues GL calls on the current context.
type Device struct {
	emptyVAO uint32
	meshes   map[uint32]*mesh
	nextMesh uint32
	cubes    map[uint32]bool
}

func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl init: %w", err)
	}
	logger.Log.Info("OpenGL device initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	d := &Device{
		meshes: make(map[uint32]*mesh),
		cubes:  make(map[uint32]bool),
	}
	gl.GenVertexArrays(1, &d.emptyVAO)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.DepthFunc(gl.LEQUAL)
	return d, nil
}

func formatOf(f gpu.TextureFormat) (internal int32, format, xtype uint32) {
	switch f {
	case gpu.FormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.FLOAT
	case gpu.FormatRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT
	case gpu.FormatR16F:
		return gl.R16F, gl.RED, gl.FLOAT
	case gpu.FormatDepth16:
		return gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.FLOAT
	case gpu.FormatDepth24:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func target(cube bool) uint32 {
	if cube {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func (d *Device) CreateTexture(desc gpu.TextureDesc, faces [][]byte) (uint32, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("texture size %dx%d", desc.Width, desc.Height)
	}
	var id uint32
	gl.GenTextures(1, &id)
	t := target(desc.Cube)
	gl.BindTexture(t, id)
	d.upload(desc, faces)

	filter := int32(gl.LINEAR)
	if desc.Filter == gpu.FilterNearest {
		filter = gl.NEAREST
	}
	gl.TexParameteri(t, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(t, gl.TEXTURE_MAG_FILTER, filter)

	wrap := int32(gl.REPEAT)
	switch desc.Wrap {
	case gpu.WrapClampEdge:
		wrap = gl.CLAMP_TO_EDGE
	case gpu.WrapClampBorder:
		wrap = gl.CLAMP_TO_BORDER
		border := desc.Border
		gl.TexParameterfv(t, gl.TEXTURE_BORDER_COLOR, &border[0])
	}
	gl.TexParameteri(t, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(t, gl.TEXTURE_WRAP_T, wrap)
	if desc.Cube {
		gl.TexParameteri(t, gl.TEXTURE_WRAP_R, wrap)
	}
	gl.BindTexture(t, 0)

	d.cubes[id] = desc.Cube
	checkError("CreateTexture")
	return id, nil
}

// upload expects the texture bound to its target.
func (d *Device) upload(desc gpu.TextureDesc, faces [][]byte) {
	internal, format, xtype := formatOf(desc.Format)
	w, h := int32(desc.Width), int32(desc.Height)
	if !desc.Cube {
		var ptr unsafe.Pointer
		if len(faces) > 0 && len(faces[0]) > 0 {
			ptr = gl.Ptr(faces[0])
		}
		gl.TexImage2D(gl.TEXTURE_2D, 0, internal, w, h, 0, format, xtype, ptr)
		return
	}
	for i := 0; i < 6; i++ {
		var ptr unsafe.Pointer
		if i < len(faces) && len(faces[i]) > 0 {
			ptr = gl.Ptr(faces[i])
		}
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, internal, w, h, 0, format, xtype, ptr)
	}
}

func (d *Device) ResizeTexture(id uint32, desc gpu.TextureDesc) {
	t := target(desc.Cube)
	gl.BindTexture(t, id)
	d.upload(desc, nil)
	gl.BindTexture(t, 0)
	checkError("ResizeTexture")
}

func (d *Device) DeleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
	delete(d.cubes, id)
}

func (d *Device) CreateFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}

func (d *Device) AttachTexture(fb uint32, at gpu.Attachment, tex uint32, face int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	point := uint32(gl.DEPTH_ATTACHMENT)
	if at != gpu.AttachDepth {
		point = gl.COLOR_ATTACHMENT0 + uint32(at)
	}
	if face >= 0 {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, point, gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), tex, 0)
	} else {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, point, gl.TEXTURE_2D, tex, 0)
	}
}

func (d *Device) SetDrawBuffers(fb uint32, count int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	if count == 0 {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
		return
	}
	buffers := make([]uint32, count)
	for i := range buffers {
		buffers[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	gl.DrawBuffers(int32(count), &buffers[0])
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
}

func (d *Device) FramebufferStatus(fb uint32) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: status 0x%x", gpu.ErrFramebufferIncomplete, status)
	}
	return nil
}

func (d *Device) BindFramebuffer(fb uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
}

func (d *Device) BlitFramebuffer(src, dst uint32, s, t gpu.Rect, mask gpu.BlitMask, linear bool) {
	var bits uint32
	if mask&gpu.BlitColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.BlitDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	filter := uint32(gl.NEAREST)
	if linear && mask&gpu.BlitDepth == 0 {
		filter = gl.LINEAR
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, src)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dst)
	gl.BlitFramebuffer(
		int32(s.X), int32(s.Y), int32(s.X+s.W), int32(s.Y+s.H),
		int32(t.X), int32(t.Y), int32(t.X+t.W), int32(t.Y+t.H),
		bits, filter)
	gl.BindFramebuffer(gl.FRAMEBUFFER, dst)
	checkError("BlitFramebuffer")
}

func (d *Device) DeleteFramebuffer(fb uint32) {
	gl.DeleteFramebuffers(1, &fb)
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		logger.Log.Error("Failed to compile", zap.Uint32("shaderType", shaderType), zap.String("log", log))
		return 0, fmt.Errorf("%w: %s", gpu.ErrShaderCompile, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (d *Device) CompileProgram(vertex, fragment string) (uint32, error) {
	vs, err := compileShader(vertex, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	gl.DetachShader(program, vs)
	gl.DeleteShader(vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		logger.Log.Error("Failed to link program", zap.String("log", log))
		return 0, fmt.Errorf("%w: %s", gpu.ErrShaderLink, strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func (d *Device) UseProgram(id uint32) {
	gl.UseProgram(id)
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) SetUniformInt(loc int32, v int32)     { gl.Uniform1i(loc, v) }
func (d *Device) SetUniformFloat(loc int32, v float32) { gl.Uniform1f(loc, v) }

func (d *Device) SetUniformVec2(loc int32, v mgl32.Vec2) { gl.Uniform2f(loc, v[0], v[1]) }
func (d *Device) SetUniformVec3(loc int32, v mgl32.Vec3) { gl.Uniform3f(loc, v[0], v[1], v[2]) }

func (d *Device) SetUniformVec4(loc int32, v mgl32.Vec4) {
	gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
}

func (d *Device) SetUniformMat4(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (d *Device) BindTexture(unit int, tex uint32, cube bool) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(target(cube), tex)
}

func (d *Device) DeleteProgram(id uint32) {
	gl.DeleteProgram(id)
}

func (d *Device) CreateMesh(vertices []float32, indices []uint32) uint32 {
	m := &mesh{indexed: len(indices) > 0}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	if m.indexed {
		gl.GenBuffers(1, &m.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
		m.count = int32(len(indices))
	} else {
		m.count = int32(len(vertices) / gpu.VertexStride)
	}

	stride := int32(gpu.VertexStride * 4)
	offset := 0
	for location, size := range []int{3, 2, 3, 4, 4} {
		gl.VertexAttribPointer(uint32(location), int32(size), gl.FLOAT, false, stride, gl.PtrOffset(offset*4))
		gl.EnableVertexAttribArray(uint32(location))
		offset += size
	}
	gl.BindVertexArray(0)

	d.nextMesh++
	d.meshes[d.nextMesh] = m
	checkError("CreateMesh")
	return d.nextMesh
}

func (d *Device) DrawMesh(id uint32) {
	m, ok := d.meshes[id]
	if !ok {
		return
	}
	gl.BindVertexArray(m.vao)
	if m.indexed {
		gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, m.count)
	}
	gl.BindVertexArray(0)
}

func (d *Device) DeleteMesh(id uint32) {
	m, ok := d.meshes[id]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	if m.indexed {
		gl.DeleteBuffers(1, &m.ebo)
	}
	delete(d.meshes, id)
}

func (d *Device) DrawFullscreen() {
	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

func (d *Device) Viewport(r gpu.Rect) {
	gl.Viewport(int32(r.X), int32(r.Y), int32(r.W), int32(r.H))
}

func (d *Device) Clear(color mgl32.Vec4, colorBuffer, depthBuffer bool) {
	var bits uint32
	if colorBuffer {
		gl.ClearColor(color[0], color[1], color[2], color[3])
		bits |= gl.COLOR_BUFFER_BIT
	}
	if depthBuffer {
		gl.DepthMask(true)
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if bits != 0 {
		gl.Clear(bits)
	}
}

func (d *Device) ClearColorAttachment(index int, color mgl32.Vec4) {
	gl.ClearBufferfv(gl.COLOR, int32(index), &color[0])
}

func (d *Device) SetBlend(mode gpu.BlendMode) {
	switch mode {
	case gpu.BlendDisabled:
		gl.Disable(gl.BLEND)
		return
	}
	equation, src, dst := blendFactors(mode)
	gl.BlendEquation(equation)
	gl.BlendFunc(src, dst)
	gl.Enable(gl.BLEND)
}

func blendFactors(mode gpu.BlendMode) (equation, src, dst uint32) {
	switch mode {
	case gpu.BlendAdditive:
		return gl.FUNC_ADD, gl.SRC_ALPHA, gl.ONE
	case gpu.BlendMultiply:
		return gl.FUNC_ADD, gl.DST_COLOR, gl.ZERO
	case gpu.BlendAddColors:
		return gl.FUNC_ADD, gl.ONE, gl.ONE
	case gpu.BlendSubtractColors:
		return gl.FUNC_SUBTRACT, gl.ONE, gl.ONE
	case gpu.BlendPremultipliedAlpha:
		return gl.FUNC_ADD, gl.ONE, gl.ONE_MINUS_SRC_ALPHA
	default:
		return gl.FUNC_ADD, gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA
	}
}

func (d *Device) SetCull(mode gpu.CullMode) {
	switch mode {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
		return
	case gpu.CullBack:
		gl.CullFace(gl.BACK)
	case gpu.CullFront:
		gl.CullFace(gl.FRONT)
	}
	gl.Enable(gl.CULL_FACE)
}

func (d *Device) SetDepth(test, write bool) {
	if test {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(write)
}

// Close releases device-owned objects (the empty VAO and leftover meshes).
func (d *Device) Close() {
	for id := range d.meshes {
		d.DeleteMesh(id)
	}
	gl.DeleteVertexArrays(1, &d.emptyVAO)
}

var _ gpu.Device = (*Device)(nil)
