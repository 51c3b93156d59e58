// Package skybox builds cubemap skies. A Skybox is owned by the caller;
// the environment only points at it.
package skybox

import (
	"fmt"
	"image"
	"math"

	"Prism3D/internal/gpu"
	"Prism3D/internal/logger"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Skybox is a cubemap, its diffuse irradiance, and the cube drawn around
// the camera.
type Skybox struct {
	cube       *gpu.Texture
	irradiance *gpu.Texture
	mesh       *gpu.Mesh
	// Rotation is applied to lookups, in degrees around X, Y and Z.
	Rotation mgl32.Vec3
}

// FromImages builds a skybox from six faces in +X, -X, +Y, -Y, +Z, -Z order.
// Faces of differing sizes are scaled up to the largest.
func FromImages(dev gpu.Device, faces [6]image.Image) (*Skybox, error) {
	for i, f := range faces {
		if f == nil {
			return nil, fmt.Errorf("skybox face %d missing", i)
		}
	}
	cube, err := gpu.CubeFromImages(dev, normalizeFaces(faces))
	if err != nil {
		return nil, fmt.Errorf("skybox cubemap: %w", err)
	}
	return newSkybox(dev, cube)
}

// Gradient builds a sky that blends from bottom through horizon to top by
// the elevation of the view direction.
func Gradient(dev gpu.Device, size int, top, horizon, bottom mgl32.Vec3) (*Skybox, error) {
	if size <= 0 {
		size = 64
	}
	faces := make([][]byte, 6)
	for face := 0; face < 6; face++ {
		pix := make([]byte, size*size*4)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				u := (float32(x)+0.5)/float32(size)*2 - 1
				v := (float32(y)+0.5)/float32(size)*2 - 1
				c := gradientColor(FaceDirection(face, u, v), top, horizon, bottom)
				i := (y*size + x) * 4
				pix[i+0] = toByte(c[0])
				pix[i+1] = toByte(c[1])
				pix[i+2] = toByte(c[2])
				pix[i+3] = 255
			}
		}
		faces[face] = pix
	}
	cube, err := gpu.NewTexture(dev, gpu.TextureDesc{
		Width:  size,
		Height: size,
		Format: gpu.FormatRGBA8,
		Cube:   true,
		Wrap:   gpu.WrapClampEdge,
	}, faces)
	if err != nil {
		return nil, fmt.Errorf("skybox gradient: %w", err)
	}
	return newSkybox(dev, cube)
}

// newSkybox takes ownership of cube, releasing it on failure.
func newSkybox(dev gpu.Device, cube *gpu.Texture) (*Skybox, error) {
	irradiance, err := generateIrradiance(dev, cube)
	if err != nil {
		cube.Release()
		return nil, fmt.Errorf("skybox irradiance: %w", err)
	}
	mesh, err := gpu.NewMesh(dev, cubeMesh())
	if err != nil {
		cube.Release()
		irradiance.Release()
		return nil, err
	}
	logger.Log.Info("Skybox created",
		zap.Int("size", cube.Width()),
		zap.Int("irradianceSize", irradiance.Width()))
	return &Skybox{cube: cube, irradiance: irradiance, mesh: mesh}, nil
}

// FaceDirection maps face coordinates u, v in [-1, 1] to the cubemap
// direction they sample, following the GL face orientation.
func FaceDirection(face int, u, v float32) mgl32.Vec3 {
	var d mgl32.Vec3
	switch face {
	case 0:
		d = mgl32.Vec3{1, -v, -u}
	case 1:
		d = mgl32.Vec3{-1, -v, u}
	case 2:
		d = mgl32.Vec3{u, 1, v}
	case 3:
		d = mgl32.Vec3{u, -1, -v}
	case 4:
		d = mgl32.Vec3{u, -v, 1}
	default:
		d = mgl32.Vec3{-u, -v, -1}
	}
	return d.Normalize()
}

func gradientColor(dir, top, horizon, bottom mgl32.Vec3) mgl32.Vec3 {
	h := dir.Y()
	if h >= 0 {
		return lerp(horizon, top, float32(math.Pow(float64(h), 0.5)))
	}
	return lerp(horizon, bottom, float32(math.Pow(float64(-h), 0.5)))
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func toByte(c float32) byte {
	return byte(mgl32.Clamp(c, 0, 1)*255 + 0.5)
}

func cubeMesh() gpu.MeshData {
	corners := [8]mgl32.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	// Wound to face inward.
	indices := []uint32{
		0, 2, 1, 0, 3, 2,
		4, 5, 6, 4, 6, 7,
		0, 4, 7, 0, 7, 3,
		1, 2, 6, 1, 6, 5,
		3, 7, 6, 3, 6, 2,
		0, 1, 5, 0, 5, 4,
	}
	vertices := make([]gpu.Vertex, len(corners))
	for i, c := range corners {
		vertices[i] = gpu.Vertex{Position: c, Color: mgl32.Vec4{1, 1, 1, 1}}
	}
	return gpu.NewMeshData(vertices, indices)
}

// Valid reports whether the skybox still holds its GPU resources.
func (s *Skybox) Valid() bool {
	return s != nil && s.cube != nil && s.cube.ID() != 0
}

func (s *Skybox) Cubemap() *gpu.Texture { return s.cube }
func (s *Skybox) Mesh() *gpu.Mesh       { return s.mesh }

// Irradiance is the cosine-weighted convolution of Cubemap, sampled by
// surface normal for diffuse sky lighting.
func (s *Skybox) Irradiance() *gpu.Texture { return s.irradiance }

// Quat returns Rotation as a quaternion.
func (s *Skybox) Quat() mgl32.Quat {
	r := s.Rotation
	return mgl32.AnglesToQuat(mgl32.DegToRad(r[0]), mgl32.DegToRad(r[1]), mgl32.DegToRad(r[2]), mgl32.XYZ)
}

func (s *Skybox) Release() {
	if s == nil {
		return
	}
	s.cube.Release()
	s.irradiance.Release()
	s.mesh.Release()
	s.cube, s.irradiance, s.mesh = nil, nil, nil
}
