package lighting

import (
	"Prism3D/internal/geom"
	"Prism3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	ShadowNear = 0.05
	// ShadowFar bounds directional and unbounded lights.
	ShadowFar = 4000

	DefaultShadowExtent = 10
)

var cubeDirs = [6]mgl32.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

var cubeUps = [6]mgl32.Vec3{
	{0, -1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
	{0, -1, 0}, {0, -1, 0},
}

// Shadow is the shadow map of one light. Omni lights render a six face
// distance cubemap; the others a single depth map.
type Shadow struct {
	resolution int
	target     *gpu.Framebuffer
	faces      int
	viewProj   [6]mgl32.Mat4
	frusta     [6]geom.Frustum
	far        float32
	dirty      bool
}

func newShadow(dev gpu.Device, t Type, resolution int) (*Shadow, error) {
	spec := gpu.FramebufferSpec{
		HasDepth: true,
		Depth:    gpu.FormatDepth16,
		Filter:   gpu.FilterNearest,
		Wrap:     gpu.WrapClampBorder,
		Border:   mgl32.Vec4{1, 1, 1, 1},
	}
	faces := 1
	if t == Omni {
		spec.Colors = []gpu.TextureFormat{gpu.FormatR16F}
		spec.CubeColor = true
		spec.Wrap = gpu.WrapClampEdge
		faces = 6
	}
	target, err := gpu.NewFramebuffer(dev, resolution, resolution, spec)
	if err != nil {
		return nil, err
	}
	return &Shadow{
		resolution: resolution,
		target:     target,
		faces:      faces,
		dirty:      true,
	}, nil
}

func (s *Shadow) Resolution() int                    { return s.resolution }
func (s *Shadow) Target() *gpu.Framebuffer           { return s.target }
func (s *Shadow) Faces() int                         { return s.faces }
func (s *Shadow) Far() float32                       { return s.far }
func (s *Shadow) Dirty() bool                        { return s.dirty }
func (s *Shadow) MarkRendered()                      { s.dirty = false }
func (s *Shadow) ViewProjection(face int) mgl32.Mat4 { return s.viewProj[face] }
func (s *Shadow) Frustum(face int) *geom.Frustum     { return &s.frusta[face] }

// Texture is the sampled map: the distance cubemap for omni lights, the
// depth map otherwise.
func (s *Shadow) Texture() *gpu.Texture {
	if s.faces == 6 {
		return s.target.Color(0)
	}
	return s.target.Depth()
}

func (s *Shadow) release() {
	s.target.Release()
}

// UpdateFrustum recomputes the light-space matrices. It runs on its own
// whenever a shadowed light moves or changes shape.
func (l *Light) UpdateFrustum() {
	s := l.shadow
	if s == nil {
		return
	}
	far := l.lightRange
	if far <= ShadowNear {
		far = ShadowFar
	}

	switch l.typ {
	case Directional:
		s.far = ShadowFar
		proj := mgl32.Ortho(-l.extent, l.extent, -l.extent, l.extent, ShadowNear, ShadowFar)
		s.setFace(0, proj.Mul4(lookAlong(l.position, l.direction)))
	case Spot:
		s.far = far
		fov := mgl32.Clamp(2*l.outerDeg, 1, 179)
		proj := mgl32.Perspective(mgl32.DegToRad(fov), 1, ShadowNear, far)
		s.setFace(0, proj.Mul4(lookAlong(l.position, l.direction)))
	case Omni:
		s.far = far
		proj := mgl32.Perspective(mgl32.DegToRad(90), 1, ShadowNear, far)
		for face := 0; face < 6; face++ {
			view := mgl32.LookAtV(l.position, l.position.Add(cubeDirs[face]), cubeUps[face])
			s.setFace(face, proj.Mul4(view))
		}
	}
	s.dirty = true
}

func (s *Shadow) setFace(face int, vp mgl32.Mat4) {
	s.viewProj[face] = vp
	s.frusta[face] = geom.NewFrustum(vp)
}

func lookAlong(position, direction mgl32.Vec3) mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	if abs32(direction.Normalize().Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return mgl32.LookAtV(position, position.Add(direction), up)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
