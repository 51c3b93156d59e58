package material

import (
	"errors"
	"strings"
	"testing"

	"Prism3D/internal/gpu"
	"Prism3D/internal/gpu/gputest"

	"github.com/go-gl/mathgl/mgl32"
)

func lambert() Config {
	return Config{
		Diffuse:  DiffuseLambert,
		Specular: SpecularBlinnPhong,
		Blend:    gpu.BlendDisabled,
		Cull:     gpu.CullBack,
	}
}

func newRegistry(t *testing.T) (*Registry, *gputest.Device) {
	t.Helper()
	dev := gputest.New()
	r, err := NewRegistry(dev, DefaultConfig())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r, dev
}

func TestRegistryRefcount(t *testing.T) {
	r, dev := newRegistry(t)
	baseline := dev.LivePrograms()

	c := lambert()
	if err := r.Load(c); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := r.Load(c); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dev.LivePrograms() != baseline+1 {
		t.Errorf("expected one program for a repeated config, got %d", dev.LivePrograms()-baseline)
	}

	r.Unload(c)
	if !r.IsValid(c) {
		t.Error("config should survive while one reference remains")
	}

	r.Unload(c)
	if r.IsValid(c) {
		t.Error("config should be gone after the last unload")
	}
	if dev.LivePrograms() != baseline {
		t.Errorf("program not released: %d live, want %d", dev.LivePrograms(), baseline)
	}
}

func TestRegistrySharesVariants(t *testing.T) {
	r, dev := newRegistry(t)
	baseline := dev.LivePrograms()

	opaque := lambert()
	blended := opaque
	blended.Blend = gpu.BlendAdditive
	blended.Cull = gpu.CullNone

	if err := r.Load(opaque); err != nil {
		t.Fatal(err)
	}
	if err := r.Load(blended); err != nil {
		t.Fatal(err)
	}
	if dev.LivePrograms() != baseline+1 {
		t.Errorf("blend and cull should not change the program, got %d new", dev.LivePrograms()-baseline)
	}

	a, _ := r.Program(opaque)
	b, _ := r.Program(blended)
	if a != b {
		t.Error("configs with the same variant should share a program")
	}

	r.Unload(opaque)
	if dev.LivePrograms() != baseline+1 {
		t.Error("shared program released while still in use")
	}
	r.Unload(blended)
	if dev.LivePrograms() != baseline {
		t.Error("shared program not released")
	}
}

func TestRegistryDefaultPinned(t *testing.T) {
	r, _ := newRegistry(t)
	def := r.Default()

	r.Unload(def)
	r.Unload(def)
	if !r.IsValid(def) {
		t.Error("default config must stay loaded")
	}
}

func TestRegistrySetDefault(t *testing.T) {
	r, dev := newRegistry(t)
	old := r.Default()

	if err := r.SetDefault(lambert()); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if r.Default() != lambert() {
		t.Error("default not updated")
	}
	if r.IsValid(old) {
		t.Error("old default should be released when nothing else uses it")
	}
	if dev.LivePrograms() != 1 {
		t.Errorf("expected 1 live program, got %d", dev.LivePrograms())
	}
}

func TestRegistryResolveFallback(t *testing.T) {
	r, _ := newRegistry(t)
	defProgram, _ := r.Program(r.Default())

	unknown := lambert()
	used, program := r.Resolve(unknown)
	if used != r.Default() || program != defProgram {
		t.Error("unloaded config should resolve to the default")
	}
	r.Resolve(unknown)
	if r.Stats().Fallbacks != 2 {
		t.Errorf("expected 2 fallbacks, got %d", r.Stats().Fallbacks)
	}

	used, _ = r.Resolve(Config{})
	if used != r.Default() {
		t.Error("zero config should resolve to the default")
	}

	if err := r.Load(unknown); err != nil {
		t.Fatal(err)
	}
	used, program = r.Resolve(unknown)
	if used != unknown || program == defProgram {
		t.Error("loaded config should resolve to itself")
	}
}

func TestRegistryInvalidConfig(t *testing.T) {
	r, _ := newRegistry(t)
	bad := lambert()
	bad.Specular = 99
	if err := r.Load(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if err := r.Load(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero config should be rejected, got %v", err)
	}
}

func TestRegistryAcceptsSpecularDisabled(t *testing.T) {
	dev := gputest.New()
	var fragments []string
	dev.FailCompile = func(vertex, fragment string) error {
		fragments = append(fragments, fragment)
		return nil
	}
	r, err := NewRegistry(dev, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	fragments = nil

	c := lambert()
	c.Specular = SpecularDisabled
	if err := r.Load(c); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(fragments) != 1 {
		t.Fatalf("expected one compile, got %d", len(fragments))
	}
	if strings.Contains(fragments[0], "#define SPECULAR_") {
		t.Error("disabled specular must not select a specular model")
	}
	if !strings.Contains(fragments[0], "#define DIFFUSE_LAMBERT") {
		t.Error("diffuse model missing from the variant")
	}
}

func TestRegistryBlendModes(t *testing.T) {
	r, _ := newRegistry(t)
	for _, mode := range []gpu.BlendMode{
		gpu.BlendAddColors,
		gpu.BlendSubtractColors,
		gpu.BlendPremultipliedAlpha,
	} {
		c := lambert()
		c.Blend = mode
		if err := r.Load(c); err != nil {
			t.Errorf("blend %d: %v", mode, err)
		}
	}

	c := lambert()
	c.Blend = gpu.BlendPremultipliedAlpha + 1
	if err := r.Load(c); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRegistryCompileFailure(t *testing.T) {
	dev := gputest.New()
	dev.FailCompile = func(vertex, fragment string) error {
		if strings.Contains(fragment, "#define DIFFUSE_TOON") {
			return gpu.ErrShaderCompile
		}
		return nil
	}
	r, err := NewRegistry(dev, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	toon := Config{Diffuse: DiffuseToon, Specular: SpecularToon}
	if err := r.Load(toon); !errors.Is(err, gpu.ErrShaderCompile) {
		t.Errorf("expected compile error, got %v", err)
	}
	if r.IsValid(toon) {
		t.Error("failed config must not be registered")
	}
}

func TestRegistryStats(t *testing.T) {
	r, _ := newRegistry(t)
	r.Load(lambert())
	r.Load(lambert())

	s := r.Stats()
	if s.Configs != 2 || s.Programs != 2 || s.Hits != 1 || s.Misses != 2 {
		t.Errorf("unexpected stats %+v", s)
	}

	r.Close()
	if r.Stats().Programs != 0 {
		t.Error("Close should release every program")
	}
}

func TestVariantUnshaded(t *testing.T) {
	a := Config{Diffuse: DiffuseUnshaded, Specular: SpecularToon, Flags: FlagReceiveShadow | FlagVertexColor}
	b := Config{Diffuse: DiffuseUnshaded, Flags: FlagVertexColor | FlagSkyIBL}
	if Variant(a) != Variant(b) {
		t.Error("unshaded variants should ignore specular and lighting flags")
	}
	if Variant(a).Flags() != FlagVertexColor {
		t.Errorf("unexpected flags %b", Variant(a).Flags())
	}
}

func TestDefines(t *testing.T) {
	c := Config{
		Diffuse:  DiffuseBurley,
		Specular: SpecularSchlickGGX,
		Flags:    FlagReceiveShadow | FlagMapNormal | FlagSkyIBL,
	}
	vs, fs := Defines(Variant(c))

	want := map[string]bool{"RECEIVE_SHADOW": true, "MAP_NORMAL": true}
	for _, d := range vs {
		delete(want, d)
	}
	if len(want) != 0 {
		t.Errorf("vertex defines %v missing %v", vs, want)
	}

	joined := strings.Join(fs, " ")
	for _, d := range []string{"DIFFUSE_BURLEY", "SPECULAR_SCHLICK_GGX", "RECEIVE_SHADOW", "MAP_NORMAL", "SKY_IBL"} {
		if !strings.Contains(joined, d) {
			t.Errorf("fragment defines %v missing %s", fs, d)
		}
	}
	if strings.Contains(joined, "MAP_AO") {
		t.Error("unset flag produced a define")
	}

	_, fs = Defines(Variant(Config{Diffuse: DiffuseUnshaded, Flags: FlagSkyIBL}))
	if len(fs) != 1 || fs[0] != "DIFFUSE_UNSHADED" {
		t.Errorf("unexpected unshaded defines %v", fs)
	}
}

func TestConfigKeyOrder(t *testing.T) {
	a := lambert()
	b := a
	b.Cull = gpu.CullFront
	if a.Key() == b.Key() {
		t.Error("keys must differ for different configs")
	}
	if !a.Opaque() {
		t.Error("blend disabled should be opaque")
	}
}

func TestNewMaterialDefaults(t *testing.T) {
	m := New(DefaultConfig())
	if m.Albedo.Color != (mgl32.Vec4{1, 1, 1, 1}) {
		t.Error("albedo should default to white")
	}
	if m.Metalness.Factor != 0 || m.Roughness.Factor != 1 {
		t.Error("unexpected metalness/roughness defaults")
	}
	if m.Emission.Color != (mgl32.Vec3{}) || m.Emission.Energy != 1 {
		t.Error("emission should default to black with energy 1")
	}
	if m.AO.LightAffect != 0 {
		t.Error("AO light affect should default to 0")
	}
	if m.Config != DefaultConfig() {
		t.Error("config not kept")
	}
}
