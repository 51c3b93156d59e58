package renderer

import (
	"fmt"

	"Prism3D/internal/environment"
	"Prism3D/internal/gpu"
	"Prism3D/internal/lighting"
	"Prism3D/internal/material"
	"Prism3D/internal/postfx"
	"Prism3D/internal/shaders"
	"Prism3D/internal/skybox"

	"github.com/go-gl/mathgl/mgl32"
)

// Texture units of the material program. Every sampler gets its own unit
// since 2D and cube samplers may not share one. Shadow maps are packed into
// per-kind arrays so the total stays within the 16 units of GL 4.1.
const (
	unitAlbedo = iota
	unitMetalness
	unitRoughness
	unitEmission
	unitNormal
	unitAO
	unitSky
	unitIrradiance
	unitShadowMaps
	unitShadowCubes = unitShadowMaps + shaders.MaxShadowMaps
	unitCount       = unitShadowCubes + shaders.MaxShadowCubes
)

type lightNames struct {
	color, position, direction                string
	energy, lightRange, attenuation           string
	innerCutOff, outerCutOff                  string
	shadowBias, shadowFar, typ, enabled, cast string
	shadowIndex, viewProj                     string
}

var (
	lightUniforms   [shaders.MaxLights]lightNames
	shadowMapNames  [shaders.MaxShadowMaps]string
	shadowCubeNames [shaders.MaxShadowCubes]string
)

func init() {
	for i := range shadowMapNames {
		shadowMapNames[i] = fmt.Sprintf("uShadowMaps[%d]", i)
	}
	for i := range shadowCubeNames {
		shadowCubeNames[i] = fmt.Sprintf("uShadowCubes[%d]", i)
	}
	for i := range lightUniforms {
		field := func(name string) string { return fmt.Sprintf("uLights[%d].%s", i, name) }
		lightUniforms[i] = lightNames{
			color:         field("color"),
			position:      field("position"),
			direction:     field("direction"),
			energy:        field("energy"),
			lightRange:    field("range"),
			attenuation:   field("attenuation"),
			innerCutOff:   field("innerCutOff"),
			outerCutOff:   field("outerCutOff"),
			shadowBias:    field("shadowBias"),
			shadowFar:     field("shadowFar"),
			typ:           field("type"),
			enabled:       field("enabled"),
			cast:          field("shadow"),
			shadowIndex:   field("shadowIndex"),
			viewProj:      fmt.Sprintf("uMatLightVP[%d]", i),
		}
	}
}

var shadowClear = mgl32.Vec4{1, 1, 1, 1}

func (r *Renderer) shadowPass() {
	f := &r.frame
	r.dev.SetBlend(gpu.BlendDisabled)
	r.dev.SetDepth(true, true)

	r.lights.Each(func(_ lighting.ID, l *lighting.Light) {
		if !l.IsActive() || !l.HasShadow() || l.Layers()&r.activeLayers == 0 {
			return
		}
		s := l.Shadow()
		omni := l.Type() == lighting.Omni

		program := r.depthProgram
		if omni {
			program = r.depthCubeProgram
		}
		program.Use()
		if omni {
			program.SetVec3("uViewPos", l.Position())
			program.SetFloat("uFar", s.Far())
		}

		for face := 0; face < s.Faces(); face++ {
			if omni {
				s.Target().BindFace(face)
			} else {
				s.Target().Bind()
			}
			r.dev.Clear(shadowClear, omni, true)

			vp := s.ViewProjection(face)
			frustum := s.Frustum(face)
			for i := range f.casters {
				c := &f.casters[i]
				if c.layers&l.Layers() == 0 || !l.InRange(c.bounds) || !frustum.IntersectsAABB(c.bounds) {
					continue
				}
				r.dev.SetCull(c.config.Cull)
				if omni {
					program.SetMat4("uMatModel", c.world)
				}
				program.SetMat4("uMatMVP", vp.Mul4(c.world))
				c.mesh.Draw()
				r.shadowDraws++
			}
		}
		s.MarkRendered()
	})
}

func (r *Renderer) scenePass() {
	f := &r.frame
	r.scene.Bind()
	r.dev.SetDepth(true, true)
	r.dev.Clear(r.backgroundColor(), true, true)
	r.dev.ClearColorAttachment(1, mgl32.Vec4{0, 0, 0, 1})

	if sky := r.env.World.Skybox; sky.Valid() {
		r.drawSkybox(sky)
	}

	r.drawCalls(f.opaque)
	r.drawCalls(f.blended)
}

func (r *Renderer) drawSkybox(sky *skybox.Skybox) {
	f := &r.frame
	r.dev.SetDepth(false, false)
	r.dev.SetCull(gpu.CullNone)
	r.dev.SetBlend(gpu.BlendDisabled)

	p := r.skyboxProgram
	p.Use()
	p.SetMat4("uMatView", f.view)
	p.SetMat4("uMatProj", f.proj)
	p.SetVec4("uQuatSkybox", quatVec4(sky.Quat()))
	p.SetCubeTexture("uCubeSky", unitSky, sky.Cubemap())
	sky.Mesh().Draw()

	r.dev.SetDepth(true, true)
}

func quatVec4(q mgl32.Quat) mgl32.Vec4 {
	return mgl32.Vec4{q.V[0], q.V[1], q.V[2], q.W}
}

func (r *Renderer) drawCalls(calls []drawCall) {
	var (
		program *gpu.Program
		config  material.Config
	)
	for i := range calls {
		c := &calls[i]
		if i == 0 || c.config != config {
			r.dev.SetBlend(c.config.Blend)
			r.dev.SetCull(c.config.Cull)
			config = c.config
		}
		if c.program != program {
			program = c.program
			program.Use()
			r.setEnvironment(program)
		}
		r.setMaterial(program, &c.material)
		r.setLights(program, c)

		program.SetMat4("uMatModel", c.world)
		program.SetMat4("uMatNormal", c.world.Inv().Transpose())
		program.SetMat4("uMatMVP", r.frame.viewProj.Mul4(c.world))
		c.mesh.Draw()
		r.sceneDraws++
	}
}

// setEnvironment uploads per-frame values and pins every sampler to its
// unit.
func (r *Renderer) setEnvironment(p *gpu.Program) {
	p.SetVec3("uColAmbient", r.env.World.Ambient)
	p.SetVec3("uViewPos", r.frame.camera.Position)
	p.SetFloat("uBloomHdrThreshold", r.env.Bloom.HDRThreshold)

	sky := r.env.World.Skybox
	p.SetBool("uHasSkybox", sky.Valid())
	if sky.Valid() {
		p.SetCubeTexture("uCubeSky", unitSky, sky.Cubemap())
		p.SetCubeTexture("uCubeIrradiance", unitIrradiance, sky.Irradiance())
		p.SetVec4("uQuatSkybox", quatVec4(sky.Quat()))
	} else {
		p.SetInt("uCubeSky", unitSky)
		p.SetInt("uCubeIrradiance", unitIrradiance)
	}
	for i, name := range shadowMapNames {
		p.SetInt(name, int32(unitShadowMaps+i))
	}
	for i, name := range shadowCubeNames {
		p.SetInt(name, int32(unitShadowCubes+i))
	}
}

func (r *Renderer) orDefault(tex, def *gpu.Texture) *gpu.Texture {
	if tex == nil || tex.ID() == 0 {
		return def
	}
	return tex
}

func (r *Renderer) setMaterial(p *gpu.Program, m *material.Material) {
	p.SetTexture("uTexAlbedo", unitAlbedo, r.orDefault(m.Albedo.Texture, r.white))
	p.SetVec4("uColAlbedo", m.Albedo.Color)
	p.SetTexture("uTexMetalness", unitMetalness, r.orDefault(m.Metalness.Texture, r.white))
	p.SetFloat("uValMetalness", m.Metalness.Factor)
	p.SetTexture("uTexRoughness", unitRoughness, r.orDefault(m.Roughness.Texture, r.white))
	p.SetFloat("uValRoughness", m.Roughness.Factor)
	p.SetTexture("uTexEmission", unitEmission, r.orDefault(m.Emission.Texture, r.white))
	p.SetVec3("uColEmission", m.Emission.Color)
	p.SetFloat("uValEmissionEnergy", m.Emission.Energy)
	p.SetTexture("uTexNormal", unitNormal, r.orDefault(m.Normal.Texture, r.normal))
	p.SetTexture("uTexAO", unitAO, r.orDefault(m.AO.Texture, r.white))
	p.SetFloat("uValAOLightAffect", m.AO.LightAffect)
}

// shadowSlots hands out the shadow sampler array elements of one draw.
type shadowSlots struct {
	maps, cubes int
}

// take reserves the next element of the kind omni selects, failing once
// that array is full.
func (s *shadowSlots) take(omni bool) (int, bool) {
	next, limit := &s.maps, shaders.MaxShadowMaps
	if omni {
		next, limit = &s.cubes, shaders.MaxShadowCubes
	}
	if *next >= limit {
		return 0, false
	}
	*next++
	return *next - 1, true
}

// setLights binds up to MaxLights lights reaching c, in id order, and
// disables the remaining slots. Shadowed lights past the sampler arrays
// are lit without shadows for this draw.
func (r *Renderer) setLights(p *gpu.Program, c *drawCall) {
	n := 0
	var slots shadowSlots
	r.lights.Each(func(_ lighting.ID, l *lighting.Light) {
		if n >= shaders.MaxLights || l.Layers()&r.activeLayers == 0 || !l.Affects(c.layers, c.bounds) {
			return
		}
		r.setLight(p, n, l, &slots)
		n++
	})
	for i := n; i < shaders.MaxLights; i++ {
		p.SetBool(lightUniforms[i].enabled, false)
	}
}

func (r *Renderer) setLight(p *gpu.Program, i int, l *lighting.Light, slots *shadowSlots) {
	names := &lightUniforms[i]
	p.SetBool(names.enabled, true)
	p.SetInt(names.typ, int32(l.Type()))
	p.SetVec3(names.color, l.Color())
	p.SetFloat(names.energy, l.Energy())
	p.SetVec3(names.position, l.Position())
	p.SetVec3(names.direction, l.Direction())
	p.SetFloat(names.lightRange, l.Range())
	p.SetFloat(names.attenuation, l.Attenuation())
	p.SetFloat(names.innerCutOff, l.InnerCutoffCos())
	p.SetFloat(names.outerCutOff, l.OuterCutoffCos())
	p.SetFloat(names.shadowBias, l.ShadowBias())

	omni := l.Type() == lighting.Omni
	slot, cast := 0, false
	if l.HasShadow() {
		slot, cast = slots.take(omni)
	}
	p.SetBool(names.cast, cast)
	if !cast {
		return
	}
	p.SetInt(names.shadowIndex, int32(slot))
	s := l.Shadow()
	if omni {
		p.SetCubeTexture(shadowCubeNames[slot], unitShadowCubes+slot, s.Texture())
		p.SetFloat(names.shadowFar, s.Far())
	} else {
		p.SetTexture(shadowMapNames[slot], unitShadowMaps+slot, s.Texture())
		p.SetMat4(names.viewProj, s.ViewProjection(0))
	}
}

func (r *Renderer) postPass() {
	scene := r.scene
	var bloom *gpu.Texture
	if r.env.Bloom.Mode != environment.BloomDisabled {
		bloom = r.chain.Bloom(scene.Color(1), r.env.Bloom.Iterations)
	}
	near, far := r.clipPlanes()
	r.chain.Composite(scene.Color(0), bloom, scene.Depth(), &r.env, near, far)
}

// outputSize is the size of whatever End blits into.
func (r *Renderer) outputSize() (int, int) {
	if r.target != nil {
		return r.target.Width(), r.target.Height()
	}
	return r.host.FramebufferSize()
}

// blit copies the post target into the output, then the scene depth so
// the host can keep drawing with depth testing.
func (r *Renderer) blit() {
	dstW, dstH := r.outputSize()
	if dstW <= 0 || dstH <= 0 {
		return
	}
	post := r.chain.Target()
	keep := r.flags&FlagAspectKeep != 0
	src, dst := postfx.BlitRects(post.Width(), post.Height(), dstW, dstH, keep)

	out := r.target.ID()
	r.dev.BindFramebuffer(out)
	r.dev.Viewport(gpu.Rect{W: dstW, H: dstH})
	if keep {
		r.dev.Clear(mgl32.Vec4{0, 0, 0, 1}, true, true)
	}
	r.dev.BlitFramebuffer(post.ID(), out, src, dst, gpu.BlitColor, r.flags&FlagBlitLinear != 0)
	r.dev.BlitFramebuffer(r.scene.ID(), out, src, dst, gpu.BlitDepth, false)
}
