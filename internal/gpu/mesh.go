package gpu

import (
	"errors"

	"Prism3D/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is the number of floats per interleaved vertex:
// position(3) texcoord(2) normal(3) tangent(4) color(4).
const VertexStride = 16

var ErrEmptyMesh = errors.New("gpu: mesh has no vertices")

type Vertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec4
	Color    mgl32.Vec4
}

// MeshData is CPU-side interleaved geometry.
type MeshData struct {
	Vertices []float32
	Indices  []uint32
}

func NewMeshData(vertices []Vertex, indices []uint32) MeshData {
	data := make([]float32, 0, len(vertices)*VertexStride)
	for _, v := range vertices {
		data = append(data,
			v.Position[0], v.Position[1], v.Position[2],
			v.TexCoord[0], v.TexCoord[1],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.Tangent[0], v.Tangent[1], v.Tangent[2], v.Tangent[3],
			v.Color[0], v.Color[1], v.Color[2], v.Color[3])
	}
	return MeshData{Vertices: data, Indices: indices}
}

func (d MeshData) VertexCount() int {
	return len(d.Vertices) / VertexStride
}

func (d MeshData) Bounds() geom.AABB {
	return geom.AABBFromPositions(d.Vertices, VertexStride)
}

// Mesh is an uploaded vertex/index buffer pair.
type Mesh struct {
	dev    Device
	id     uint32
	bounds geom.AABB
	count  int
}

func NewMesh(dev Device, data MeshData) (*Mesh, error) {
	if data.VertexCount() == 0 {
		return nil, ErrEmptyMesh
	}
	count := len(data.Indices)
	if count == 0 {
		count = data.VertexCount()
	}
	return &Mesh{
		dev:    dev,
		id:     dev.CreateMesh(data.Vertices, data.Indices),
		bounds: data.Bounds(),
		count:  count,
	}, nil
}

func (m *Mesh) ID() uint32        { return m.id }
func (m *Mesh) Bounds() geom.AABB { return m.bounds }
func (m *Mesh) ElementCount() int { return m.count }

func (m *Mesh) Draw() {
	m.dev.DrawMesh(m.id)
}

func (m *Mesh) Release() {
	if m == nil || m.id == 0 {
		return
	}
	m.dev.DeleteMesh(m.id)
	m.id = 0
}
