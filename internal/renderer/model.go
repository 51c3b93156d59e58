package renderer

import (
	"Prism3D/internal/geom"
	"Prism3D/internal/gpu"
	"Prism3D/internal/lighting"
	"Prism3D/internal/material"

	"github.com/go-gl/mathgl/mgl32"
)

// ShadowCast controls how a model takes part in the shadow and main passes.
type ShadowCast int

const (
	ShadowCastOn   ShadowCast = iota // drawn and casts shadows
	ShadowCastOff                    // drawn, casts nothing
	ShadowCastOnly                   // casts shadows, never drawn to the camera
)

func (s ShadowCast) String() string {
	switch s {
	case ShadowCastOn:
		return "on"
	case ShadowCastOff:
		return "off"
	case ShadowCastOnly:
		return "shadow_only"
	}
	return "unknown"
}

// Surface pairs a borrowed mesh with the material used to draw it.
type Surface struct {
	Mesh     *gpu.Mesh
	Material material.Material
}

type Model struct {
	// HOT DATA - read for every Draw call
	Surfaces  []Surface
	Transform geom.Transform
	Layers    lighting.Layer
	Shadow    ShadowCast
	bounds    geom.AABB

	// COLD DATA
	Name string
}

// NewModel builds a model from surfaces. Every layer is enabled and the
// transform is identity.
func NewModel(surfaces ...Surface) *Model {
	m := &Model{
		Surfaces:  surfaces,
		Transform: geom.IdentityTransform(),
		Layers:    lighting.LayerAll,
	}
	m.UpdateBounds()
	return m
}

// UpdateBounds recomputes the local bounds from the surface meshes. Call it
// after changing Surfaces.
func (m *Model) UpdateBounds() {
	box := geom.EmptyAABB()
	for _, s := range m.Surfaces {
		if s.Mesh == nil {
			continue
		}
		b := s.Mesh.Bounds()
		box = box.Extend(b.Min).Extend(b.Max)
	}
	if box.IsEmpty() {
		box = geom.AABB{}
	}
	m.bounds = box
}

// Bounds is the local-space box enclosing every surface.
func (m *Model) Bounds() geom.AABB {
	return m.bounds
}

func (m *Model) SetPosition(x, y, z float32) {
	m.Transform.Position = mgl32.Vec3{x, y, z}
}

func (m *Model) SetScale(x, y, z float32) {
	m.Transform.Scale = mgl32.Vec3{x, y, z}
}

// Rotate applies Euler angles in degrees on top of the current rotation.
func (m *Model) Rotate(angleX, angleY, angleZ float32) {
	q := mgl32.AnglesToQuat(mgl32.DegToRad(angleX), mgl32.DegToRad(angleY), mgl32.DegToRad(angleZ), mgl32.XYZ)
	rotation := m.Transform.Rotation
	if rotation == (mgl32.Quat{}) {
		rotation = mgl32.QuatIdent()
	}
	m.Transform.Rotation = q.Mul(rotation).Normalize()
}

// SetMaterial replaces the material of every surface.
func (m *Model) SetMaterial(mat material.Material) {
	for i := range m.Surfaces {
		m.Surfaces[i].Material = mat
	}
}

// SetAlbedoColor tints every surface.
func (m *Model) SetAlbedoColor(r, g, b, a float32) {
	for i := range m.Surfaces {
		m.Surfaces[i].Material.Albedo.Color = mgl32.Vec4{r, g, b, a}
	}
}

// SetMaterialPBR sets metalness and roughness factors on every surface.
func (m *Model) SetMaterialPBR(metalness, roughness float32) {
	for i := range m.Surfaces {
		m.Surfaces[i].Material.Metalness.Factor = mgl32.Clamp(metalness, 0, 1)
		m.Surfaces[i].Material.Roughness.Factor = mgl32.Clamp(roughness, 0, 1)
	}
}

// SetConfig switches every surface to config. The config must be loaded in
// the renderer's registry or surfaces fall back to the default.
func (m *Model) SetConfig(config material.Config) {
	for i := range m.Surfaces {
		m.Surfaces[i].Material.Config = config
	}
}
