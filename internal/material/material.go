package material

import (
	"Prism3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// A nil texture in any map is replaced at draw time by the renderer's
// default texture for that slot.
type AlbedoMap struct {
	Texture *gpu.Texture
	Color   mgl32.Vec4
}

type ScalarMap struct {
	Texture *gpu.Texture
	Factor  float32
}

type EmissionMap struct {
	Texture *gpu.Texture
	Color   mgl32.Vec3
	Energy  float32
}

type NormalMap struct {
	Texture *gpu.Texture
}

type AOMap struct {
	Texture     *gpu.Texture
	LightAffect float32
}

// Material binds textures and scalars to a config. Textures are borrowed.
type Material struct {
	Albedo    AlbedoMap
	Metalness ScalarMap
	Roughness ScalarMap
	Emission  EmissionMap
	Normal    NormalMap
	AO        AOMap
	Config    Config
}

func New(config Config) Material {
	return Material{
		Albedo:    AlbedoMap{Color: mgl32.Vec4{1, 1, 1, 1}},
		Metalness: ScalarMap{Factor: 0},
		Roughness: ScalarMap{Factor: 1},
		Emission:  EmissionMap{Energy: 1},
		AO:        AOMap{LightAffect: 0},
		Config:    config,
	}
}
