package loader

import (
	"math"

	"Prism3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

var white = mgl32.Vec4{1, 1, 1, 1}

// Cube is an axis-aligned box centered on the origin with one quad per face
// so normals stay flat.
func Cube(width, height, length float32) gpu.MeshData {
	half := mgl32.Vec3{width / 2, height / 2, length / 2}
	faces := []struct{ n, u mgl32.Vec3 }{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}},
	}
	corners := [4]mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]gpu.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		// u x v = n keeps every face counter-clockwise from outside.
		v := f.n.Cross(f.u)
		base := uint32(len(vertices))
		for _, c := range corners {
			p := f.n.Add(f.u.Mul(c[0])).Add(v.Mul(c[1]))
			vertices = append(vertices, gpu.Vertex{
				Position: mgl32.Vec3{p[0] * half[0], p[1] * half[1], p[2] * half[2]},
				TexCoord: mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2},
				Normal:   f.n,
				Tangent:  f.u.Vec4(1),
				Color:    white,
			})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return gpu.NewMeshData(vertices, indices)
}

// Plane is a grid on XZ facing +Y, centered on the origin, with resX by
// resZ quads.
func Plane(width, length float32, resX, resZ int) gpu.MeshData {
	if resX < 1 {
		resX = 1
	}
	if resZ < 1 {
		resZ = 1
	}
	vertices := make([]gpu.Vertex, 0, (resX+1)*(resZ+1))
	for x := 0; x <= resX; x++ {
		for z := 0; z <= resZ; z++ {
			u := float32(x) / float32(resX)
			v := float32(z) / float32(resZ)
			vertices = append(vertices, gpu.Vertex{
				Position: mgl32.Vec3{(u - 0.5) * width, 0, (v - 0.5) * length},
				TexCoord: mgl32.Vec2{u, v},
				Normal:   mgl32.Vec3{0, 1, 0},
				Tangent:  mgl32.Vec4{1, 0, 0, 1},
				Color:    white,
			})
		}
	}

	indices := make([]uint32, 0, resX*resZ*6)
	row := uint32(resZ + 1)
	for x := 0; x < resX; x++ {
		for z := 0; z < resZ; z++ {
			a := uint32(x)*row + uint32(z)
			b := a + row
			c := b + 1
			d := a + 1
			indices = append(indices, a, d, c, a, c, b)
		}
	}
	return gpu.NewMeshData(vertices, indices)
}

// Sphere is a UV sphere centered on the origin.
func Sphere(radius float32, rings, slices int) gpu.MeshData {
	if rings < 2 {
		rings = 2
	}
	if slices < 3 {
		slices = 3
	}
	vertices := make([]gpu.Vertex, 0, (rings+1)*(slices+1))
	for i := 0; i <= rings; i++ {
		lat := math.Pi * float64(i) / float64(rings)
		for j := 0; j <= slices; j++ {
			lon := 2 * math.Pi * float64(j) / float64(slices)
			n := mgl32.Vec3{
				float32(math.Sin(lat) * math.Cos(lon)),
				float32(math.Cos(lat)),
				float32(math.Sin(lat) * math.Sin(lon)),
			}
			vertices = append(vertices, gpu.Vertex{
				Position: n.Mul(radius),
				TexCoord: mgl32.Vec2{float32(j) / float32(slices), float32(i) / float32(rings)},
				Normal:   n,
				Tangent:  mgl32.Vec4{float32(-math.Sin(lon)), 0, float32(math.Cos(lon)), 1},
				Color:    white,
			})
		}
	}

	indices := make([]uint32, 0, rings*slices*6)
	row := uint32(slices + 1)
	for i := 0; i < rings; i++ {
		for j := 0; j < slices; j++ {
			first := uint32(i)*row + uint32(j)
			second := first + row
			indices = append(indices,
				first, first+1, second,
				second, first+1, second+1,
			)
		}
	}
	return gpu.NewMeshData(vertices, indices)
}
