// Package postfx runs the screen-space passes after the main pass: the
// bloom pyramid and the composite that tonemaps into the display target.
package postfx

import (
	"fmt"
	"math/bits"

	"Prism3D/internal/environment"
	"Prism3D/internal/gpu"
	"Prism3D/internal/logger"
	"Prism3D/internal/shaders"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MaxBloomLevels bounds the pyramid regardless of resolution.
const MaxBloomLevels = 16

type level struct {
	ping *gpu.Framebuffer
	pong *gpu.Framebuffer
}

// Chain owns the bloom pyramid, the post target and their programs.
type Chain struct {
	dev       gpu.Device
	width     int
	height    int
	levels    []level
	target    *gpu.Framebuffer
	blur      *gpu.Program
	upsample  *gpu.Program
	composite *gpu.Program
	lastLevel int
}

// MaxLevels is how many times width x height can be halved before a side
// reaches one pixel.
func MaxLevels(width, height int) int {
	side := width
	if height < side {
		side = height
	}
	if side < 2 {
		return 0
	}
	n := bits.Len(uint(side)) - 1
	if n > MaxBloomLevels {
		n = MaxBloomLevels
	}
	return n
}

func NewChain(dev gpu.Device, width, height int) (*Chain, error) {
	c := &Chain{dev: dev}

	var err error
	if c.blur, err = gpu.NewProgram(dev, shaders.Fullscreen, shaders.BlurFragment); err != nil {
		c.Release()
		return nil, fmt.Errorf("blur program: %w", err)
	}
	if c.upsample, err = gpu.NewProgram(dev, shaders.Fullscreen, shaders.UpsampleFragment); err != nil {
		c.Release()
		return nil, fmt.Errorf("upsample program: %w", err)
	}
	if c.composite, err = gpu.NewProgram(dev, shaders.Fullscreen, shaders.CompositeFragment); err != nil {
		c.Release()
		return nil, fmt.Errorf("composite program: %w", err)
	}
	if err := c.Resize(width, height); err != nil {
		c.Release()
		return nil, err
	}
	return c, nil
}

// Resize reallocates the post target and the pyramid for a new internal
// resolution.
func (c *Chain) Resize(width, height int) error {
	if width == c.width && height == c.height && c.target != nil {
		return nil
	}
	c.releaseTargets()
	c.width, c.height = width, height

	target, err := gpu.NewFramebuffer(c.dev, width, height, gpu.FramebufferSpec{
		Colors: []gpu.TextureFormat{gpu.FormatRGBA8},
		Wrap:   gpu.WrapClampEdge,
	})
	if err != nil {
		return fmt.Errorf("post target: %w", err)
	}
	c.target = target

	n := MaxLevels(width, height)
	for i := 0; i < n; i++ {
		w, h := width>>(i+1), height>>(i+1)
		spec := gpu.FramebufferSpec{
			Colors: []gpu.TextureFormat{gpu.FormatRGBA16F},
			Wrap:   gpu.WrapClampEdge,
		}
		ping, err := gpu.NewFramebuffer(c.dev, w, h, spec)
		if err != nil {
			return fmt.Errorf("bloom level %d: %w", i, err)
		}
		pong, err := gpu.NewFramebuffer(c.dev, w, h, spec)
		if err != nil {
			ping.Release()
			return fmt.Errorf("bloom level %d: %w", i, err)
		}
		c.levels = append(c.levels, level{ping: ping, pong: pong})
	}
	logger.Log.Debug("Post chain allocated",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bloomLevels", n))
	return nil
}

func (c *Chain) Target() *gpu.Framebuffer { return c.target }
func (c *Chain) Levels() int              { return len(c.levels) }

// LastBloomLevels reports how many levels the last Bloom call used.
func (c *Chain) LastBloomLevels() int { return c.lastLevel }

// Bloom blurs bright into the pyramid and returns the accumulated result
// at the first level, or nil when no level can be used.
func (c *Chain) Bloom(bright *gpu.Texture, iterations int) *gpu.Texture {
	n := iterations
	if n > len(c.levels) {
		n = len(c.levels)
	}
	c.lastLevel = n
	if n <= 0 || bright == nil {
		return nil
	}

	c.dev.SetDepth(false, false)
	c.dev.SetCull(gpu.CullNone)
	c.dev.SetBlend(gpu.BlendDisabled)
	c.blur.Use()

	src := bright
	for i := 0; i < n; i++ {
		lv := c.levels[i]

		lv.pong.Bind()
		c.blur.SetTexture("uTexture", 0, src)
		c.blur.SetVec2("uDirection", mgl32.Vec2{1 / float32(src.Width()), 0})
		c.dev.DrawFullscreen()

		lv.ping.Bind()
		c.blur.SetTexture("uTexture", 0, lv.pong.Color(0))
		c.blur.SetVec2("uDirection", mgl32.Vec2{0, 1 / float32(lv.pong.Height())})
		c.dev.DrawFullscreen()

		src = lv.ping.Color(0)
	}

	c.upsample.Use()
	c.dev.SetBlend(gpu.BlendAdditive)
	for i := n - 1; i > 0; i-- {
		c.levels[i-1].ping.Bind()
		c.upsample.SetTexture("uTexture", 0, c.levels[i].ping.Color(0))
		c.dev.DrawFullscreen()
	}
	c.dev.SetBlend(gpu.BlendDisabled)

	return c.levels[0].ping.Color(0)
}

// Composite renders color, bloom and fog through the tonemapper into the
// post target. near and far are the camera clip planes used to linearize
// depth for fog.
func (c *Chain) Composite(color, bloom, depth *gpu.Texture, env *environment.Environment, near, far float32) {
	c.target.Bind()
	c.dev.SetDepth(false, false)
	c.dev.SetCull(gpu.CullNone)
	c.dev.SetBlend(gpu.BlendDisabled)

	p := c.composite
	p.Use()
	p.SetTexture("uTexColor", 0, color)
	p.SetTexture("uTexBloom", 1, bloom)
	p.SetTexture("uTexDepth", 2, depth)

	bloomMode := env.Bloom.Mode
	if bloom == nil {
		bloomMode = environment.BloomDisabled
	}
	p.SetInt("uBloomMode", int32(bloomMode))
	p.SetFloat("uBloomIntensity", env.Bloom.Intensity)

	p.SetInt("uFogMode", int32(env.Fog.Mode))
	p.SetVec3("uFogColor", env.Fog.Color)
	p.SetFloat("uFogStart", env.Fog.Start)
	p.SetFloat("uFogEnd", env.Fog.End)
	p.SetFloat("uFogDensity", env.Fog.Density)
	p.SetFloat("uNear", near)
	p.SetFloat("uFar", far)

	p.SetInt("uTonemapMode", int32(env.Tonemap.Mode))
	p.SetFloat("uExposure", env.Tonemap.Exposure)
	p.SetFloat("uWhite", env.Tonemap.White)

	p.SetFloat("uBrightness", env.Adjustments.Brightness)
	p.SetFloat("uContrast", env.Adjustments.Contrast)
	p.SetFloat("uSaturation", env.Adjustments.Saturation)

	c.dev.DrawFullscreen()
}

func (c *Chain) releaseTargets() {
	c.target.Release()
	c.target = nil
	for _, lv := range c.levels {
		lv.ping.Release()
		lv.pong.Release()
	}
	c.levels = nil
}

func (c *Chain) Release() {
	c.releaseTargets()
	c.blur.Release()
	c.upsample.Release()
	c.composite.Release()
}
