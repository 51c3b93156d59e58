// Package renderer turns submitted models into a lit, shadowed and post
// processed image. A frame is recorded between Begin and End and rendered
// in one go at End.
package renderer

import (
	"errors"
	"fmt"
	"image"

	"Prism3D/internal/environment"
	"Prism3D/internal/gpu"
	"Prism3D/internal/lighting"
	"Prism3D/internal/logger"
	"Prism3D/internal/material"
	"Prism3D/internal/postfx"
	"Prism3D/internal/shaders"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var (
	ErrAlreadyRecording = errors.New("renderer: frame already begun")
	ErrNotRecording     = errors.New("renderer: no frame in progress")
	ErrInvalidSize      = errors.New("renderer: invalid resolution")
	ErrDebugDisabled    = errors.New("renderer: shadow map debugging not enabled")
	ErrNoShadow         = errors.New("renderer: light has no shadow map")
)

type Flags uint32

const (
	// FlagBlitLinear filters the final blit linearly instead of nearest.
	FlagBlitLinear Flags = 1 << iota
	// FlagAspectKeep letterboxes the internal image instead of stretching.
	FlagAspectKeep
	FlagNoFrustumCulling
	// FlagDebugShadowMap compiles the programs behind DrawShadowMap.
	FlagDebugShadowMap
)

// Host is the surface frames are presented to.
type Host interface {
	FramebufferSize() (width, height int)
}

type Options struct {
	// Internal resolution. Zero takes the host framebuffer size.
	Width, Height int
	Flags         Flags
	DepthSort     DepthSortOrder
	LightCapacity int
	// ShadowExtent is the half size of directional shadow frusta.
	ShadowExtent float32
}

// Renderer owns the scene target, the post chain, the material registry and
// the light pool. It is not safe for concurrent use.
type Renderer struct {
	dev          gpu.Device
	host         Host
	flags        Flags
	depthSort    DepthSortOrder
	activeLayers lighting.Layer

	scene  *gpu.Framebuffer
	chain  *postfx.Chain
	target *gpu.Framebuffer

	depthProgram      *gpu.Program
	depthCubeProgram  *gpu.Program
	skyboxProgram     *gpu.Program
	debugDepthProgram *gpu.Program
	debugCubeProgram  *gpu.Program

	white  *gpu.Texture
	black  *gpu.Texture
	normal *gpu.Texture

	materials *material.Registry
	lights    *lighting.Manager
	env       environment.Environment

	frame       frame
	recording   bool
	sceneDraws  int
	shadowDraws int
}

func New(dev gpu.Device, host Host, opts Options) (*Renderer, error) {
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = host.FramebufferSize()
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	r := &Renderer{
		dev:          dev,
		host:         host,
		flags:        opts.Flags,
		depthSort:    opts.DepthSort,
		activeLayers: lighting.LayerAll,
		env:          environment.Default(),
	}

	undo := &Unwind{}
	defer undo.Unwind()

	var err error
	r.scene, err = gpu.NewFramebuffer(dev, width, height, gpu.FramebufferSpec{
		Colors:   []gpu.TextureFormat{gpu.FormatRGBA16F, gpu.FormatRGBA16F},
		HasDepth: true,
		Depth:    gpu.FormatDepth24,
		Filter:   gpu.FilterLinear,
		Wrap:     gpu.WrapClampEdge,
	})
	if err != nil {
		return nil, fmt.Errorf("scene target: %w", err)
	}
	undo.Add(r.scene.Release)

	if r.chain, err = postfx.NewChain(dev, width, height); err != nil {
		return nil, fmt.Errorf("post chain: %w", err)
	}
	undo.Add(r.chain.Release)

	programs := []struct {
		dst      **gpu.Program
		name     string
		vertex   string
		fragment string
		debug    bool
	}{
		{&r.depthProgram, "depth", shaders.DepthVertex, shaders.DepthFragment, false},
		{&r.depthCubeProgram, "depth cube", shaders.DepthCubeVertex, shaders.DepthCubeFragment, false},
		{&r.skyboxProgram, "skybox", shaders.SkyboxVertex, shaders.SkyboxFragment, false},
		{&r.debugDepthProgram, "debug depth", shaders.Fullscreen, shaders.DebugDepthFragment, true},
		{&r.debugCubeProgram, "debug depth cube", shaders.Fullscreen, shaders.DebugDepthCubeFragment, true},
	}
	for _, p := range programs {
		if p.debug && opts.Flags&FlagDebugShadowMap == 0 {
			continue
		}
		program, err := gpu.NewProgram(dev, p.vertex, p.fragment)
		if err != nil {
			return nil, fmt.Errorf("%s program: %w", p.name, err)
		}
		*p.dst = program
		undo.Add(program.Release)
	}

	textures := []struct {
		dst   **gpu.Texture
		pixel []byte
	}{
		{&r.white, []byte{255, 255, 255, 255}},
		{&r.black, []byte{0, 0, 0, 255}},
		{&r.normal, []byte{128, 128, 255, 255}},
	}
	for _, t := range textures {
		tex, err := gpu.NewTexture(dev, gpu.TextureDesc{
			Width:  1,
			Height: 1,
			Format: gpu.FormatRGBA8,
			Filter: gpu.FilterNearest,
			Wrap:   gpu.WrapRepeat,
		}, [][]byte{t.pixel})
		if err != nil {
			return nil, fmt.Errorf("default texture: %w", err)
		}
		*t.dst = tex
		undo.Add(tex.Release)
	}

	if r.materials, err = material.NewRegistry(dev, material.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("material registry: %w", err)
	}
	undo.Add(r.materials.Close)

	capacity := opts.LightCapacity
	if capacity <= 0 {
		capacity = lighting.DefaultCapacity
	}
	r.lights = lighting.NewManager(dev, capacity)
	if opts.ShadowExtent > 0 {
		r.lights.SetShadowExtent(opts.ShadowExtent)
	}

	undo.Discard()
	logger.Log.Info("Renderer initialized",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bloomLevels", r.chain.Levels()),
		zap.Int("lightCapacity", capacity))
	return r, nil
}

// Close releases every GPU object the renderer owns. Meshes, textures and
// skyboxes handed in by the caller are left alone.
func (r *Renderer) Close() {
	if r.recording {
		logger.Log.Warn("Renderer closed during a frame")
		r.recording = false
	}
	r.lights.Close()
	r.materials.Close()
	r.white.Release()
	r.black.Release()
	r.normal.Release()
	r.depthProgram.Release()
	r.depthCubeProgram.Release()
	r.skyboxProgram.Release()
	r.debugDepthProgram.Release()
	r.debugCubeProgram.Release()
	r.chain.Release()
	r.scene.Release()
	logger.Log.Info("Renderer closed")
}

// Resolution is the internal render size.
func (r *Renderer) Resolution() (width, height int) {
	return r.scene.Width(), r.scene.Height()
}

// UpdateInternalResolution reallocates the scene target and the bloom
// pyramid. It cannot run during a frame.
func (r *Renderer) UpdateInternalResolution(width, height int) error {
	if r.recording {
		logger.Log.Error("Internal resolution changed during a frame")
		return ErrAlreadyRecording
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if err := r.scene.Resize(width, height); err != nil {
		return fmt.Errorf("scene target: %w", err)
	}
	if err := r.chain.Resize(width, height); err != nil {
		return fmt.Errorf("post chain: %w", err)
	}
	logger.Log.Info("Internal resolution updated", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (r *Renderer) Flags() Flags { return r.flags }

func (r *Renderer) setFlag(f Flags, on bool) {
	if on {
		r.flags |= f
	} else {
		r.flags &^= f
	}
}

// SetBlitMode selects letterboxing and linear filtering for the final blit.
func (r *Renderer) SetBlitMode(keepAspect, linear bool) {
	r.setFlag(FlagAspectKeep, keepAspect)
	r.setFlag(FlagBlitLinear, linear)
}

func (r *Renderer) SetFrustumCulling(enabled bool) {
	r.setFlag(FlagNoFrustumCulling, !enabled)
}

func (r *Renderer) SetDepthSortingOrder(order DepthSortOrder) {
	r.depthSort = order
}

func (r *Renderer) DepthSortingOrder() DepthSortOrder { return r.depthSort }

// SetRenderTarget makes End blit into fb instead of the host surface. nil
// restores the host.
func (r *Renderer) SetRenderTarget(fb *gpu.Framebuffer) {
	r.target = fb
}

// SetActiveLayers selects which model and light layers take part in
// rendering.
func (r *Renderer) SetActiveLayers(layers lighting.Layer) {
	r.activeLayers = layers
}

func (r *Renderer) ActiveLayers() lighting.Layer { return r.activeLayers }

func (r *Renderer) EnableLayers(layers lighting.Layer)  { r.activeLayers |= layers }
func (r *Renderer) DisableLayers(layers lighting.Layer) { r.activeLayers &^= layers }

func (r *Renderer) DefaultTextureWhite() *gpu.Texture { return r.white }
func (r *Renderer) DefaultTextureBlack() *gpu.Texture { return r.black }

// LoadTexture uploads img as a repeating RGBA8 texture. The caller owns it.
func (r *Renderer) LoadTexture(img image.Image) (*gpu.Texture, error) {
	return gpu.TextureFromImage(r.dev, img, gpu.WrapRepeat)
}

// UploadMesh uploads data. The caller owns the mesh.
func (r *Renderer) UploadMesh(data gpu.MeshData) (*gpu.Mesh, error) {
	return gpu.NewMesh(r.dev, data)
}

// NewModel wraps meshes in a model with one default material per mesh.
func (r *Renderer) NewModel(meshes ...*gpu.Mesh) *Model {
	surfaces := make([]Surface, 0, len(meshes))
	for _, m := range meshes {
		surfaces = append(surfaces, Surface{Mesh: m, Material: material.New(r.materials.Default())})
	}
	return NewModel(surfaces...)
}

func (r *Renderer) Materials() *material.Registry { return r.materials }
func (r *Renderer) Lights() *lighting.Manager     { return r.lights }

// CreateLight allocates a light; a positive shadowResolution gives it a
// shadow map.
func (r *Renderer) CreateLight(t lighting.Type, shadowResolution int) (lighting.ID, error) {
	return r.lights.Create(t, shadowResolution)
}

func (r *Renderer) Light(id lighting.ID) (*lighting.Light, error) {
	return r.lights.Light(id)
}

func (r *Renderer) DestroyLight(id lighting.ID) error {
	return r.lights.Destroy(id)
}

// Environment returns the live environment; changes apply to the next End.
func (r *Renderer) Environment() *environment.Environment { return &r.env }

func (r *Renderer) SetEnvironment(env environment.Environment) {
	r.env = env
}

// DrawCallCount reports the mesh draws of the last frame.
func (r *Renderer) DrawCallCount() (scene, shadow int) {
	return r.sceneDraws, r.shadowDraws
}

// Near and far of the current frame's camera, used for fog.
func (r *Renderer) clipPlanes() (float32, float32) {
	return r.frame.camera.Near, r.frame.camera.Far
}

func (r *Renderer) aspect() float32 {
	return float32(r.scene.Width()) / float32(r.scene.Height())
}

func (r *Renderer) backgroundColor() mgl32.Vec4 {
	return r.env.World.Background.Vec4(1)
}
