// Package environment holds the per-scene settings consumed by the main
// pass and the post-processing chain. They persist across frames.
package environment

import (
	"Prism3D/internal/skybox"

	"github.com/go-gl/mathgl/mgl32"
)

type World struct {
	Background mgl32.Vec3 `json:"background"`
	Ambient    mgl32.Vec3 `json:"ambient"`
	// Skybox is borrowed. When it is nil or released the ambient color
	// lights the scene and the background color fills the sky.
	Skybox *skybox.Skybox `json:"-"`
}

type Bloom struct {
	Mode         BloomMode `json:"mode"`
	Intensity    float32   `json:"intensity"`
	HDRThreshold float32   `json:"hdr_threshold"`
	Iterations   int       `json:"iterations"`
}

type Fog struct {
	Mode    FogMode    `json:"mode"`
	Color   mgl32.Vec3 `json:"color"`
	Start   float32    `json:"start"`
	End     float32    `json:"end"`
	Density float32    `json:"density"`
}

type Tonemap struct {
	Mode     TonemapMode `json:"mode"`
	Exposure float32     `json:"exposure"`
	White    float32     `json:"white"`
}

type Adjustments struct {
	Brightness float32 `json:"brightness"`
	Contrast   float32 `json:"contrast"`
	Saturation float32 `json:"saturation"`
}

type Environment struct {
	World       World       `json:"world"`
	Bloom       Bloom       `json:"bloom"`
	Fog         Fog         `json:"fog"`
	Tonemap     Tonemap     `json:"tonemap"`
	Adjustments Adjustments `json:"adjustments"`
}

func Default() Environment {
	gray := mgl32.Vec3{0.2, 0.2, 0.2}
	return Environment{
		World: World{
			Background: gray,
			Ambient:    gray,
		},
		Bloom: Bloom{
			Mode:         BloomDisabled,
			Intensity:    1,
			HDRThreshold: 1,
			Iterations:   10,
		},
		Fog: Fog{
			Mode:    FogDisabled,
			Color:   mgl32.Vec3{0.5, 0.5, 0.5},
			Start:   10,
			End:     30,
			Density: 0.1,
		},
		Tonemap: Tonemap{
			Mode:     TonemapLinear,
			Exposure: 1,
			White:    1,
		},
		Adjustments: Adjustments{
			Brightness: 1,
			Contrast:   1,
			Saturation: 1,
		},
	}
}

// HasSkybox reports whether a live skybox is attached.
func (e *Environment) HasSkybox() bool {
	return e.World.Skybox.Valid()
}

func (e *Environment) SetSkybox(s *skybox.Skybox)     { e.World.Skybox = s }
func (e *Environment) SetBackground(c mgl32.Vec3)     { e.World.Background = c }
func (e *Environment) SetAmbient(c mgl32.Vec3)        { e.World.Ambient = c }
func (e *Environment) SetBloomMode(m BloomMode)       { e.Bloom.Mode = m }
func (e *Environment) SetBloomIntensity(v float32)    { e.Bloom.Intensity = nonNegative(v) }
func (e *Environment) SetBloomHDRThreshold(v float32) { e.Bloom.HDRThreshold = nonNegative(v) }
func (e *Environment) SetFogMode(m FogMode)           { e.Fog.Mode = m }
func (e *Environment) SetFogColor(c mgl32.Vec3)       { e.Fog.Color = c }
func (e *Environment) SetFogDensity(v float32)        { e.Fog.Density = nonNegative(v) }
func (e *Environment) SetTonemapMode(m TonemapMode)   { e.Tonemap.Mode = m }
func (e *Environment) SetTonemapExposure(v float32)   { e.Tonemap.Exposure = nonNegative(v) }
func (e *Environment) SetBrightness(v float32)        { e.Adjustments.Brightness = nonNegative(v) }
func (e *Environment) SetContrast(v float32)          { e.Adjustments.Contrast = nonNegative(v) }
func (e *Environment) SetSaturation(v float32)        { e.Adjustments.Saturation = nonNegative(v) }

// SetBloomIterations sets the requested pyramid depth. The renderer caps it
// at the number of levels its internal resolution allows.
func (e *Environment) SetBloomIterations(n int) {
	if n < 1 {
		n = 1
	}
	e.Bloom.Iterations = n
}

// SetFogRange sets the linear fog distances. end is kept past start.
func (e *Environment) SetFogRange(start, end float32) {
	if end < start {
		start, end = end, start
	}
	e.Fog.Start, e.Fog.End = start, end
}

// SetTonemapWhite sets the white point; it must stay positive.
func (e *Environment) SetTonemapWhite(v float32) {
	if v <= 0 {
		v = 1e-3
	}
	e.Tonemap.White = v
}

func nonNegative(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
}
