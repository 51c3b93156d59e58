package renderer

import (
	"errors"
	"strings"
	"testing"

	"Prism3D/internal/environment"
	"Prism3D/internal/gpu"
	"Prism3D/internal/gpu/gputest"
	"Prism3D/internal/lighting"
	"Prism3D/internal/loader"
	"Prism3D/internal/material"
	"Prism3D/internal/postfx"
	"Prism3D/internal/skybox"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeHost struct{ w, h int }

func (h fakeHost) FramebufferSize() (int, int) { return h.w, h.h }

func newTestRenderer(t *testing.T, opts Options) (*Renderer, *gputest.Device) {
	t.Helper()
	dev := gputest.New()
	if opts.Width == 0 {
		opts.Width, opts.Height = 64, 64
	}
	r, err := New(dev, fakeHost{w: 128, h: 128}, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	dev.Reset()
	return r, dev
}

func cubeModel(t *testing.T, r *Renderer, size float32) *Model {
	t.Helper()
	mesh, err := r.UploadMesh(loader.Cube(size, size, size))
	if err != nil {
		t.Fatalf("UploadMesh failed: %v", err)
	}
	return r.NewModel(mesh)
}

func renderFrame(t *testing.T, r *Renderer, models ...*Model) {
	t.Helper()
	if err := r.Begin(*NewDefaultCamera()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for _, m := range models {
		if err := r.Draw(m); err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
	}
	if err := r.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

func sceneDrawMeshes(dev *gputest.Device, r *Renderer) []uint32 {
	var meshes []uint32
	for _, d := range dev.Draws {
		if d.Target == r.scene.ID() {
			meshes = append(meshes, d.Mesh)
		}
	}
	return meshes
}

func activeLight(t *testing.T, r *Renderer, typ lighting.Type, shadowResolution int) *lighting.Light {
	t.Helper()
	id, err := r.CreateLight(typ, shadowResolution)
	if err != nil {
		t.Fatalf("CreateLight failed: %v", err)
	}
	l, err := r.Light(id)
	if err != nil {
		t.Fatalf("Light failed: %v", err)
	}
	l.SetActive(true)
	return l
}

func TestNewUsesHostSize(t *testing.T) {
	dev := gputest.New()
	r, err := New(dev, fakeHost{w: 320, h: 200}, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()

	if w, h := r.Resolution(); w != 320 || h != 200 {
		t.Errorf("Expected host resolution 320x200, got %dx%d", w, h)
	}
	if r.Lights().Cap() != lighting.DefaultCapacity {
		t.Errorf("Expected default light capacity, got %d", r.Lights().Cap())
	}
	if !r.Materials().IsValid(material.DefaultConfig()) {
		t.Error("Default material config should be loaded")
	}
	if r.DefaultTextureWhite() == nil || r.DefaultTextureBlack() == nil {
		t.Error("Default textures should exist")
	}

	if _, err := New(dev, fakeHost{}, Options{}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Expected ErrInvalidSize for an empty host, got %v", err)
	}
}

func TestNewReleasesOnFailure(t *testing.T) {
	failures := map[string]func(dev *gputest.Device){
		"incomplete framebuffer": func(dev *gputest.Device) { dev.Incomplete = true },
		"post program": func(dev *gputest.Device) {
			dev.FailCompile = func(_, _ string) error { return gpu.ErrShaderCompile }
		},
		"material program": func(dev *gputest.Device) {
			dev.FailCompile = func(_, fragment string) error {
				if strings.Contains(fragment, "DIFFUSE_BURLEY") {
					return gpu.ErrShaderCompile
				}
				return nil
			}
		},
	}
	for name, setup := range failures {
		dev := gputest.New()
		setup(dev)
		r, err := New(dev, fakeHost{w: 64, h: 64}, Options{})
		if err == nil || r != nil {
			t.Errorf("%s: expected an error", name)
			continue
		}
		if dev.LiveTextures() != 0 || dev.LiveFramebuffers() != 0 || dev.LivePrograms() != 0 {
			t.Errorf("%s: leaked %d textures, %d framebuffers, %d programs", name,
				dev.LiveTextures(), dev.LiveFramebuffers(), dev.LivePrograms())
		}
	}
}

func TestCloseReleasesOwnedResources(t *testing.T) {
	r, dev := newTestRenderer(t, Options{Flags: FlagDebugShadowMap})
	model := cubeModel(t, r, 1)
	activeLight(t, r, lighting.Directional, 256)
	activeLight(t, r, lighting.Omni, 128)
	activeLight(t, r, lighting.Spot, 0)
	renderFrame(t, r, model)

	r.Close()

	if dev.LiveTextures() != 0 {
		t.Errorf("Expected no live textures, got %d", dev.LiveTextures())
	}
	if dev.LiveFramebuffers() != 0 {
		t.Errorf("Expected no live framebuffers, got %d", dev.LiveFramebuffers())
	}
	if dev.LivePrograms() != 0 {
		t.Errorf("Expected no live programs, got %d", dev.LivePrograms())
	}
	if dev.LiveMeshes() != 1 {
		t.Errorf("Caller owned mesh should survive Close, got %d meshes", dev.LiveMeshes())
	}
}

func TestDebugProgramsOnlyWithFlag(t *testing.T) {
	plain := gputest.New()
	r1, err := New(plain, fakeHost{w: 64, h: 64}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer r1.Close()

	debug := gputest.New()
	r2, err := New(debug, fakeHost{w: 64, h: 64}, Options{Flags: FlagDebugShadowMap})
	if err != nil {
		t.Fatal(err)
	}
	defer r2.Close()

	if got := debug.LivePrograms() - plain.LivePrograms(); got != 2 {
		t.Errorf("Expected 2 extra debug programs, got %d", got)
	}
}

func TestFrameStateErrors(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)

	if err := r.End(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("End without Begin: expected ErrNotRecording, got %v", err)
	}
	if err := r.Draw(model); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Draw without Begin: expected ErrNotRecording, got %v", err)
	}

	if err := r.Begin(*NewDefaultCamera()); err != nil {
		t.Fatal(err)
	}
	if !r.Recording() {
		t.Error("Renderer should be recording after Begin")
	}
	if err := r.Begin(*NewDefaultCamera()); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("Second Begin: expected ErrAlreadyRecording, got %v", err)
	}
	if err := r.UpdateInternalResolution(32, 32); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("Resize during frame: expected ErrAlreadyRecording, got %v", err)
	}
	if err := r.Draw(nil); err != nil {
		t.Errorf("Drawing nil should be ignored, got %v", err)
	}
	if err := r.End(); err != nil {
		t.Fatal(err)
	}
	if r.Recording() {
		t.Error("Renderer should be idle after End")
	}
}

func TestEmptyFrame(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()

	renderFrame(t, r)

	if scene, shadow := r.DrawCallCount(); scene != 0 || shadow != 0 {
		t.Errorf("Expected 0/0 draw calls, got %d/%d", scene, shadow)
	}
	if len(dev.Draws) != 0 {
		t.Errorf("Expected no mesh draws, got %d", len(dev.Draws))
	}
	if dev.FullscreenDraws != 1 {
		t.Errorf("Expected only the composite pass, got %d fullscreen draws", dev.FullscreenDraws)
	}
	if len(dev.Blits) != 2 {
		t.Fatalf("Expected color and depth blits, got %d", len(dev.Blits))
	}
	if dev.Blits[0].Mask != gpu.BlitColor || dev.Blits[0].Src != r.chain.Target().ID() {
		t.Errorf("First blit should copy the post target color, got %+v", dev.Blits[0])
	}
	if dev.Blits[1].Mask != gpu.BlitDepth || dev.Blits[1].Src != r.scene.ID() {
		t.Errorf("Second blit should copy the scene depth, got %+v", dev.Blits[1])
	}
	for _, b := range dev.Blits {
		if b.Dst != gpu.DefaultFramebuffer {
			t.Errorf("Blit should target the host framebuffer, got %d", b.Dst)
		}
	}
}

func TestDirectionalShadowScene(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)

	l := activeLight(t, r, lighting.Directional, 256)
	l.SetPositionTarget(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{})

	renderFrame(t, r, model)

	scene, shadow := r.DrawCallCount()
	if scene != 1 || shadow != 1 {
		t.Errorf("Expected 1/1 draw calls, got %d/%d", scene, shadow)
	}
	if n := dev.DrawsTo(l.Shadow().Target().ID()); n != 1 {
		t.Errorf("Expected one draw into the shadow map, got %d", n)
	}
	if l.Shadow().Dirty() {
		t.Error("Shadow map should be marked rendered")
	}

	program, err := r.Materials().Program(material.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := dev.Uniform(program.ID(), "uLights[0].enabled"); v != int32(1) {
		t.Errorf("Light slot 0 should be enabled, got %v", v)
	}
	if v, _ := dev.Uniform(program.ID(), "uLights[1].enabled"); v != int32(0) {
		t.Errorf("Light slot 1 should be disabled, got %v", v)
	}
	if v, _ := dev.Uniform(program.ID(), "uLights[0].shadow"); v != int32(1) {
		t.Errorf("Light slot 0 should cast shadows, got %v", v)
	}
}

func TestOmniShadowDrawsEveryTouchedFace(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 2)

	l := activeLight(t, r, lighting.Omni, 64)
	l.SetPosition(mgl32.Vec3{})

	renderFrame(t, r, model)

	if _, shadow := r.DrawCallCount(); shadow != 6 {
		t.Errorf("Expected 6 shadow draws, got %d", shadow)
	}
	faces := make(map[int]int)
	for _, d := range dev.Draws {
		if d.Target == l.Shadow().Target().ID() {
			faces[d.Face]++
		}
	}
	for face := 0; face < 6; face++ {
		if faces[face] != 1 {
			t.Errorf("Face %d: expected 1 draw, got %d", face, faces[face])
		}
	}

	// Out of range casters are skipped entirely.
	l.SetRange(1)
	model.SetPosition(0, 0, -20)
	renderFrame(t, r, model)
	if _, shadow := r.DrawCallCount(); shadow != 0 {
		t.Errorf("Expected no shadow draws out of range, got %d", shadow)
	}
}

func TestInactiveLightSkipsShadowPass(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)

	l := activeLight(t, r, lighting.Spot, 128)
	l.SetPositionTarget(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{})
	l.SetActive(false)

	renderFrame(t, r, model)
	if scene, shadow := r.DrawCallCount(); scene != 1 || shadow != 0 {
		t.Errorf("Expected 1/0 draw calls, got %d/%d", scene, shadow)
	}
}

func TestShadowCastModes(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)
	l := activeLight(t, r, lighting.Directional, 128)
	l.SetPositionTarget(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{})

	cases := []struct {
		mode          ShadowCast
		scene, shadow int
	}{
		{ShadowCastOn, 1, 1},
		{ShadowCastOff, 1, 0},
		{ShadowCastOnly, 0, 1},
	}
	for _, c := range cases {
		model.Shadow = c.mode
		renderFrame(t, r, model)
		if scene, shadow := r.DrawCallCount(); scene != c.scene || shadow != c.shadow {
			t.Errorf("%s: expected %d/%d draw calls, got %d/%d", c.mode, c.scene, c.shadow, scene, shadow)
		}
	}
}

func TestFrustumCulling(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)

	// The default camera sits at z=10 looking down -Z.
	behind := func() {
		if err := r.Begin(*NewDefaultCamera()); err != nil {
			t.Fatal(err)
		}
		if err := r.DrawEx(model, mgl32.Vec3{0, 0, 50}, 1); err != nil {
			t.Fatal(err)
		}
		if err := r.End(); err != nil {
			t.Fatal(err)
		}
	}

	behind()
	if scene, _ := r.DrawCallCount(); scene != 0 {
		t.Errorf("Model behind the camera should be culled, got %d draws", scene)
	}

	r.SetFrustumCulling(false)
	behind()
	if scene, _ := r.DrawCallCount(); scene != 1 {
		t.Errorf("Culling disabled: expected 1 draw, got %d", scene)
	}
	if r.Flags()&FlagNoFrustumCulling == 0 {
		t.Error("Flag should be set")
	}
}

func TestLayers(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)
	model.Layers = lighting.Layer2

	l := activeLight(t, r, lighting.Directional, 128)
	l.SetPositionTarget(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{})
	l.SetLayers(lighting.Layer1)

	renderFrame(t, r, model)
	if scene, shadow := r.DrawCallCount(); scene != 1 || shadow != 0 {
		t.Errorf("Light on another layer: expected 1/0 draw calls, got %d/%d", scene, shadow)
	}
	program, _ := r.Materials().Program(material.DefaultConfig())
	if v, _ := dev.Uniform(program.ID(), "uLights[0].enabled"); v != int32(0) {
		t.Errorf("Light on another layer should not be bound, got %v", v)
	}

	r.SetActiveLayers(lighting.Layer1)
	renderFrame(t, r, model)
	if scene, shadow := r.DrawCallCount(); scene != 0 || shadow != 0 {
		t.Errorf("Inactive model layer: expected 0/0 draw calls, got %d/%d", scene, shadow)
	}

	r.EnableLayers(lighting.Layer2)
	l.AddLayers(lighting.Layer2)
	renderFrame(t, r, model)
	if scene, shadow := r.DrawCallCount(); scene != 1 || shadow != 1 {
		t.Errorf("Shared layer: expected 1/1 draw calls, got %d/%d", scene, shadow)
	}

	r.DisableLayers(lighting.Layer2)
	if r.ActiveLayers() != lighting.Layer1 {
		t.Errorf("Expected only Layer1 active, got %b", r.ActiveLayers())
	}
}

func TestUnloadedConfigFallsBackToDefault(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)
	model.SetConfig(material.Config{
		Diffuse:  material.DiffuseLambert,
		Specular: material.SpecularSchlickGGX,
		Blend:    gpu.BlendDisabled,
		Cull:     gpu.CullBack,
	})

	renderFrame(t, r, model)

	def, _ := r.Materials().Program(material.DefaultConfig())
	if len(dev.Draws) != 1 || dev.Draws[0].Program != def.ID() {
		t.Errorf("Expected one draw with the default program, got %+v", dev.Draws)
	}
	if r.Materials().Stats().Fallbacks != 1 {
		t.Errorf("Expected 1 fallback, got %d", r.Materials().Stats().Fallbacks)
	}
}

func TestOpaqueDrawsGroupedByConfig(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()

	lambert, err := r.Materials().Create(material.DiffuseLambert, material.SpecularSchlickGGX, gpu.BlendDisabled, gpu.CullBack, 0)
	if err != nil {
		t.Fatal(err)
	}
	burley, err := r.Materials().Create(material.DiffuseBurley, material.SpecularSchlickGGX, gpu.BlendDisabled, gpu.CullBack, 0)
	if err != nil {
		t.Fatal(err)
	}
	a1, b, a2 := cubeModel(t, r, 1), cubeModel(t, r, 1), cubeModel(t, r, 1)
	a1.SetConfig(lambert)
	b.SetConfig(burley)
	a2.SetConfig(lambert)

	renderFrame(t, r, a1, b, a2)

	lp, _ := r.Materials().Program(lambert)
	bp, _ := r.Materials().Program(burley)
	want := []uint32{bp.ID(), lp.ID(), lp.ID()}
	if len(dev.Draws) != len(want) {
		t.Fatalf("Expected %d draws, got %d", len(want), len(dev.Draws))
	}
	for i, p := range want {
		if dev.Draws[i].Program != p {
			t.Errorf("Draw %d: expected program %d, got %d", i, p, dev.Draws[i].Program)
		}
	}
	if dev.Draws[1].Mesh != a1.Surfaces[0].Mesh.ID() || dev.Draws[2].Mesh != a2.Surfaces[0].Mesh.ID() {
		t.Error("Draws within a config should keep submission order")
	}
}

func TestBlendedDepthSorting(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()

	near, far := cubeModel(t, r, 1), cubeModel(t, r, 1)
	far.SetPosition(0, 0, -20)
	nearMesh, farMesh := near.Surfaces[0].Mesh.ID(), far.Surfaces[0].Mesh.ID()

	cases := []struct {
		order DepthSortOrder
		first uint32
	}{
		{DepthSortDisabled, nearMesh},
		{DepthSortNearToFar, nearMesh},
		{DepthSortFarToNear, farMesh},
	}
	for _, c := range cases {
		r.SetDepthSortingOrder(c.order)
		dev.Reset()
		renderFrame(t, r, near, far)
		meshes := sceneDrawMeshes(dev, r)
		if len(meshes) != 2 {
			t.Fatalf("%s: expected 2 scene draws, got %d", c.order, len(meshes))
		}
		if meshes[0] != c.first {
			t.Errorf("%s: expected mesh %d first, got %d", c.order, c.first, meshes[0])
		}
	}

	// Submission order reversed: disabled keeps it, near to far does not.
	r.SetDepthSortingOrder(DepthSortNearToFar)
	dev.Reset()
	renderFrame(t, r, far, near)
	if meshes := sceneDrawMeshes(dev, r); meshes[0] != nearMesh {
		t.Error("Near to far should draw the near model first regardless of submission")
	}
	if r.DepthSortingOrder() != DepthSortNearToFar {
		t.Error("DepthSortingOrder should report the last setting")
	}
}

func TestSurfaceWithoutMeshIsSkipped(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	defer r.Close()
	model := NewModel(Surface{Material: material.New(material.DefaultConfig())})

	renderFrame(t, r, model)
	if scene, shadow := r.DrawCallCount(); scene != 0 || shadow != 0 {
		t.Errorf("Expected 0/0 draw calls, got %d/%d", scene, shadow)
	}
}

func TestSkyboxDrawnFirst(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()
	sky, err := skybox.Gradient(dev, 4, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.2, 0.2, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	defer sky.Release()
	r.Environment().SetSkybox(sky)
	model := cubeModel(t, r, 1)

	renderFrame(t, r, model)

	meshes := sceneDrawMeshes(dev, r)
	if len(meshes) != 2 || meshes[0] != sky.Mesh().ID() {
		t.Errorf("Expected the skybox then the model, got %v", meshes)
	}
	if scene, _ := r.DrawCallCount(); scene != 1 {
		t.Errorf("Skybox should not count as a scene draw, got %d", scene)
	}
}

func TestBloomRunsOnlyWhenEnabled(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()

	r.Environment().SetBloomMode(environment.BloomAdditive)
	renderFrame(t, r)

	// 64x64 gives 6 levels: two blur passes each, five upsamples, one composite.
	if r.chain.LastBloomLevels() != 6 {
		t.Errorf("Expected 6 bloom levels, got %d", r.chain.LastBloomLevels())
	}
	if dev.FullscreenDraws != 18 {
		t.Errorf("Expected 18 fullscreen draws, got %d", dev.FullscreenDraws)
	}

	env := environment.Default()
	r.SetEnvironment(env)
	dev.Reset()
	renderFrame(t, r)
	if dev.FullscreenDraws != 1 {
		t.Errorf("Bloom disabled: expected 1 fullscreen draw, got %d", dev.FullscreenDraws)
	}
}

func TestRenderTargetAndBlitMode(t *testing.T) {
	r, dev := newTestRenderer(t, Options{Width: 100, Height: 50})
	defer r.Close()

	target, err := gpu.NewFramebuffer(dev, 100, 100, gpu.FramebufferSpec{
		Colors: []gpu.TextureFormat{gpu.FormatRGBA8},
		Wrap:   gpu.WrapClampEdge,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()

	r.SetRenderTarget(target)
	r.SetBlitMode(true, false)
	renderFrame(t, r)

	_, dst := postfx.BlitRects(100, 50, 100, 100, true)
	if len(dev.Blits) != 2 {
		t.Fatalf("Expected 2 blits, got %d", len(dev.Blits))
	}
	if dev.Blits[0].Dst != target.ID() || dev.Blits[0].DstRect != dst {
		t.Errorf("Expected letterboxed blit into the target, got %+v", dev.Blits[0])
	}
	if dev.Blits[0].Linear {
		t.Error("Blit should be nearest")
	}

	r.SetRenderTarget(nil)
	r.SetBlitMode(false, true)
	dev.Reset()
	renderFrame(t, r)

	_, dst = postfx.BlitRects(100, 50, 128, 128, false)
	if dev.Blits[0].Dst != gpu.DefaultFramebuffer || dev.Blits[0].DstRect != dst {
		t.Errorf("Expected stretched blit to the host, got %+v", dev.Blits[0])
	}
	if !dev.Blits[0].Linear || dev.Blits[1].Linear {
		t.Error("Color blit should be linear, depth blit nearest")
	}
}

func TestUpdateInternalResolution(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	defer r.Close()

	if err := r.UpdateInternalResolution(0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}
	if err := r.UpdateInternalResolution(32, 16); err != nil {
		t.Fatalf("UpdateInternalResolution failed: %v", err)
	}
	if w, h := r.Resolution(); w != 32 || h != 16 {
		t.Errorf("Expected 32x16, got %dx%d", w, h)
	}
	if r.chain.Target().Width() != 32 || r.chain.Target().Height() != 16 {
		t.Error("Post target should follow the internal resolution")
	}
}

func TestDrawShadowMap(t *testing.T) {
	plain, _ := newTestRenderer(t, Options{})
	defer plain.Close()
	if err := plain.DrawShadowMap(1, 0, 0, 10, 10, 0.1, 100); !errors.Is(err, ErrDebugDisabled) {
		t.Errorf("Expected ErrDebugDisabled, got %v", err)
	}

	r, dev := newTestRenderer(t, Options{Flags: FlagDebugShadowMap})
	defer r.Close()

	if err := r.DrawShadowMap(42, 0, 0, 10, 10, 0.1, 100); !errors.Is(err, lighting.ErrInvalidLight) {
		t.Errorf("Expected ErrInvalidLight, got %v", err)
	}

	noShadow, _ := r.CreateLight(lighting.Spot, 0)
	if err := r.DrawShadowMap(noShadow, 0, 0, 10, 10, 0.1, 100); !errors.Is(err, ErrNoShadow) {
		t.Errorf("Expected ErrNoShadow, got %v", err)
	}

	omni, _ := r.CreateLight(lighting.Omni, 64)
	if err := r.DrawShadowMap(omni, 0, 0, 10, 10, 0.1, 100); err != nil {
		t.Fatalf("DrawShadowMap failed: %v", err)
	}
	if dev.FullscreenDraws != 1 {
		t.Errorf("Expected one fullscreen draw, got %d", dev.FullscreenDraws)
	}
	if dev.CurrentProgram != r.debugCubeProgram.ID() {
		t.Error("Omni maps should use the cube debug program")
	}

	if err := r.Begin(*NewDefaultCamera()); err != nil {
		t.Fatal(err)
	}
	if err := r.DrawShadowMap(omni, 0, 0, 10, 10, 0.1, 100); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("Expected ErrAlreadyRecording, got %v", err)
	}
	r.End()
}

func TestDirectionalLightWithoutShadow(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)

	l := activeLight(t, r, lighting.Directional, 0)
	if l.HasShadow() {
		t.Fatal("light created without a resolution should not cast shadows")
	}
	l.SetDirection(mgl32.Vec3{0, -1, 0})

	renderFrame(t, r, model)
	if scene, shadow := r.DrawCallCount(); scene != 1 || shadow != 0 {
		t.Errorf("Expected 1/0 draw calls, got %d/%d", scene, shadow)
	}

	program, err := r.Materials().Program(material.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := dev.Uniform(program.ID(), "uLights[0].enabled"); v != int32(1) {
		t.Errorf("Light slot 0 should be enabled, got %v", v)
	}
	if v, _ := dev.Uniform(program.ID(), "uLights[0].shadow"); v != int32(0) {
		t.Errorf("Light slot 0 should not cast shadows, got %v", v)
	}
}

func TestMaterialSamplerUnitsFitGL41(t *testing.T) {
	if unitCount > 16 {
		t.Fatalf("Material program needs %d texture units, GL 4.1 guarantees 16", unitCount)
	}

	r, dev := newTestRenderer(t, Options{})
	defer r.Close()
	model := cubeModel(t, r, 1)

	var lights []*lighting.Light
	for i := 0; i < 5; i++ {
		l := activeLight(t, r, lighting.Directional, 64)
		l.SetPositionTarget(mgl32.Vec3{float32(i), 10, 0}, mgl32.Vec3{})
		lights = append(lights, l)
	}
	omni := activeLight(t, r, lighting.Omni, 64)
	omni.SetPosition(mgl32.Vec3{0, 3, 0})

	renderFrame(t, r, model)

	for unit := range dev.BoundTextures {
		if unit >= 16 {
			t.Errorf("Texture bound to unit %d", unit)
		}
	}

	program, err := r.Materials().Program(material.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	units := make(map[int32]string)
	for _, name := range append(shadowMapNames[:], shadowCubeNames[:]...) {
		v, _ := dev.Uniform(program.ID(), name)
		unit, ok := v.(int32)
		if !ok || unit >= 16 {
			t.Errorf("%s pinned to %v", name, v)
			continue
		}
		if other, dup := units[unit]; dup {
			t.Errorf("%s shares unit %d with %s", name, unit, other)
		}
		units[unit] = name
	}

	// Four directional lights fill the 2D array, the fifth renders unshadowed
	// and the omni light still gets a cube element.
	for i := range lights {
		want := int32(1)
		if i == 4 {
			want = 0
		}
		if v, _ := dev.Uniform(program.ID(), lightUniforms[i].cast); v != want {
			t.Errorf("Light %d shadow = %v, want %d", i, v, want)
		}
	}
	if v, _ := dev.Uniform(program.ID(), lightUniforms[3].shadowIndex); v != int32(3) {
		t.Errorf("Light 3 should use shadow map 3, got %v", v)
	}
	if v, _ := dev.Uniform(program.ID(), lightUniforms[5].cast); v != int32(1) {
		t.Errorf("Omni light should cast shadows, got %v", v)
	}
	if v, _ := dev.Uniform(program.ID(), lightUniforms[5].shadowIndex); v != int32(0) {
		t.Errorf("Omni light should use shadow cube 0, got %v", v)
	}
	if dev.BoundTextures[unitShadowCubes] != omni.Shadow().Texture().ID() {
		t.Error("Omni shadow cube not bound to the first cube unit")
	}
}

func TestSkyLightingUsesIrradiance(t *testing.T) {
	r, dev := newTestRenderer(t, Options{})
	defer r.Close()
	sky, err := skybox.Gradient(dev, 4, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0.2, 0.2, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	defer sky.Release()
	r.Environment().SetSkybox(sky)

	renderFrame(t, r, cubeModel(t, r, 1))

	program, err := r.Materials().Program(material.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := dev.Uniform(program.ID(), "uCubeIrradiance"); v != int32(unitIrradiance) {
		t.Errorf("uCubeIrradiance should use unit %d, got %v", unitIrradiance, v)
	}
	if dev.BoundTextures[unitIrradiance] != sky.Irradiance().ID() {
		t.Error("Irradiance cube not bound")
	}
	if dev.BoundTextures[unitSky] != sky.Cubemap().ID() {
		t.Error("Sky cube not bound")
	}
}
