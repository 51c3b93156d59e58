package postfx

import (
	"math"

	"Prism3D/internal/environment"

	"github.com/go-gl/mathgl/mgl32"
)

// The functions below evaluate the composite shader on the CPU. They follow
// the GLSL in shaders.CompositeFragment step for step.

var lumaWeights = mgl32.Vec3{0.2126, 0.7152, 0.0722}

func Luminance(c mgl32.Vec3) float32 {
	return c.Dot(lumaWeights)
}

// BrightPass returns c when its luminance exceeds threshold, else black.
func BrightPass(c mgl32.Vec3, threshold float32) mgl32.Vec3 {
	if Luminance(c) > threshold {
		return c
	}
	return mgl32.Vec3{}
}

func ApplyBloom(c, bloom mgl32.Vec3, mode environment.BloomMode, intensity float32) mgl32.Vec3 {
	b := bloom.Mul(intensity)
	switch mode {
	case environment.BloomAdditive:
		return c.Add(b)
	case environment.BloomSoftLight:
		out := mgl32.Vec3{}
		for i := 0; i < 3; i++ {
			bi := mgl32.Clamp(b[i], 0, 1)
			ci := mgl32.Clamp(c[i], 0, 1)
			out[i] = max32(c[i]+bi-ci*bi, 0)
		}
		return out
	}
	return c
}

// FogFactor is the fog blend weight in [0, 1] at linear view distance d.
func FogFactor(mode environment.FogMode, d, start, end, density float32) float32 {
	var f float64
	switch mode {
	case environment.FogLinear:
		f = float64((d - start) / max32(end-start, 1e-4))
	case environment.FogExp:
		f = 1 - math.Exp(-float64(density*d))
	case environment.FogExp2:
		f = 1 - math.Exp(-math.Pow(float64(density*d), 2))
	default:
		return 0
	}
	return mgl32.Clamp(float32(f), 0, 1)
}

func ApplyFog(c mgl32.Vec3, fog environment.Fog, d float32) mgl32.Vec3 {
	f := FogFactor(fog.Mode, d, fog.Start, fog.End, fog.Density)
	return c.Add(fog.Color.Sub(c).Mul(f))
}

func hable(x float32) float32 {
	const a, b, c, d, e, f = 0.15, 0.50, 0.10, 0.20, 0.02, 0.30
	return ((x*(a*x+c*b) + d*e) / (x*(a*x+b) + d*f)) - e/f
}

// Tonemap maps HDR color to display range. Filmic applies an exposure
// bias of 2 before the Hable curve.
func Tonemap(c mgl32.Vec3, mode environment.TonemapMode, exposure, white float32) mgl32.Vec3 {
	c = c.Mul(exposure)
	out := c
	for i := 0; i < 3; i++ {
		x := c[i]
		switch mode {
		case environment.TonemapReinhard:
			w2 := white * white
			out[i] = (x * (1 + x/w2)) / (1 + x)
		case environment.TonemapFilmic:
			out[i] = hable(x*2) / hable(white)
		case environment.TonemapACES:
			const a, b, cc, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
			out[i] = mgl32.Clamp((x*(a*x+b))/(x*(cc*x+d)+e), 0, 1)
		}
	}
	return out
}

func Gamma(c mgl32.Vec3) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		c[i] = float32(math.Pow(float64(max32(c[i], 0)), 1/2.2))
	}
	return c
}

func Adjust(c mgl32.Vec3, adj environment.Adjustments) mgl32.Vec3 {
	c = c.Mul(adj.Brightness)
	for i := 0; i < 3; i++ {
		c[i] = (c[i]-0.5)*adj.Contrast + 0.5
	}
	gray := Luminance(c)
	g := mgl32.Vec3{gray, gray, gray}
	return g.Add(c.Sub(g).Mul(adj.Saturation))
}

// Composite runs the full post chain for one pixel: bloom, fog at linear
// distance d, tonemap, gamma, adjustments, clamp.
func Composite(c, bloom mgl32.Vec3, d float32, env *environment.Environment) mgl32.Vec3 {
	c = ApplyBloom(c, bloom, env.Bloom.Mode, env.Bloom.Intensity)
	c = ApplyFog(c, env.Fog, d)
	c = Tonemap(c, env.Tonemap.Mode, env.Tonemap.Exposure, env.Tonemap.White)
	c = Gamma(c)
	c = Adjust(c, env.Adjustments)
	for i := 0; i < 3; i++ {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c
}

// LinearizeDepth converts a [0, 1] depth buffer value to view distance.
func LinearizeDepth(depth, near, far float32) float32 {
	z := depth*2 - 1
	return (2 * near * far) / (far + near - z*(far-near))
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
