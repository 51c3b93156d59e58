package renderer

import (
	"Prism3D/internal/geom"
	"Prism3D/internal/gpu"
	"Prism3D/internal/lighting"
	"Prism3D/internal/logger"
	"Prism3D/internal/material"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// drawCall is one surface of one submitted model.
type drawCall struct {
	mesh     *gpu.Mesh
	material material.Material
	layers   lighting.Layer
	world    mgl32.Mat4
	bounds   geom.AABB
	config   material.Config
	program  *gpu.Program
	distance float32
}

type frame struct {
	camera   Camera
	view     mgl32.Mat4
	proj     mgl32.Mat4
	viewProj mgl32.Mat4
	frustum  geom.Frustum

	casters []drawCall
	opaque  []drawCall
	blended []drawCall
}

func (f *frame) reset() {
	f.casters = f.casters[:0]
	f.opaque = f.opaque[:0]
	f.blended = f.blended[:0]
}

func (r *Renderer) Recording() bool { return r.recording }

// Begin starts recording a frame seen from camera.
func (r *Renderer) Begin(camera Camera) error {
	if r.recording {
		logger.Log.Error("Begin called twice without End")
		return ErrAlreadyRecording
	}
	aspect := r.aspect()
	f := &r.frame
	f.reset()
	f.camera = camera
	f.view = camera.GetViewMatrix()
	f.proj = camera.GetProjectionMatrix(aspect)
	f.viewProj = f.proj.Mul4(f.view)
	f.frustum = geom.NewFrustum(f.viewProj)

	r.sceneDraws = 0
	r.shadowDraws = 0
	r.recording = true
	return nil
}

// Draw submits model with its own transform.
func (r *Renderer) Draw(model *Model) error {
	return r.submit(model, mgl32.Ident4())
}

// DrawEx places model at position with a uniform scale on top of its own
// transform.
func (r *Renderer) DrawEx(model *Model, position mgl32.Vec3, scale float32) error {
	return r.submit(model, geom.TRS(position, mgl32.Ident4(), mgl32.Vec3{scale, scale, scale}))
}

// DrawPro places model with a full translation, axis-angle rotation in
// degrees and scale on top of its own transform.
func (r *Renderer) DrawPro(model *Model, position, axis mgl32.Vec3, angleDeg float32, scale mgl32.Vec3) error {
	return r.submit(model, geom.TRS(position, geom.AxisAngle(axis, angleDeg), scale))
}

func (r *Renderer) submit(model *Model, placement mgl32.Mat4) error {
	if !r.recording {
		logger.Log.Error("Draw called outside Begin/End")
		return ErrNotRecording
	}
	if model == nil || model.Layers&r.activeLayers == 0 {
		return nil
	}

	f := &r.frame
	world := placement.Mul4(model.Transform.Matrix())
	cull := r.flags&FlagNoFrustumCulling == 0
	camPos := f.camera.Position

	for i := range model.Surfaces {
		s := &model.Surfaces[i]
		if s.Mesh == nil {
			logger.Log.Warn("Surface without mesh skipped", zap.String("model", model.Name), zap.Int("surface", i))
			continue
		}
		config, program := r.materials.Resolve(s.Material.Config)
		call := drawCall{
			mesh:     s.Mesh,
			material: s.Material,
			layers:   model.Layers,
			world:    world,
			bounds:   s.Mesh.Bounds().Transform(world),
			config:   config,
			program:  program,
		}

		if model.Shadow != ShadowCastOff {
			f.casters = append(f.casters, call)
		}
		if model.Shadow == ShadowCastOnly {
			continue
		}
		if cull && !f.frustum.IntersectsAABB(call.bounds) {
			continue
		}
		d := call.bounds.Center().Sub(camPos)
		call.distance = d.Dot(d)
		if config.Opaque() {
			f.opaque = append(f.opaque, call)
		} else {
			f.blended = append(f.blended, call)
		}
	}
	return nil
}

// End renders the recorded frame: shadow maps, the scene, bloom, the
// composite and the final blit.
func (r *Renderer) End() error {
	if !r.recording {
		logger.Log.Error("End called without Begin")
		return ErrNotRecording
	}
	f := &r.frame

	sortByConfig(f.opaque)
	sortByDistance(f.blended, r.depthSort)

	r.shadowPass()
	r.scenePass()
	r.postPass()
	r.blit()

	f.reset()
	r.recording = false
	return nil
}
