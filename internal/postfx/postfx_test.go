package postfx

import (
	"math"
	"testing"

	"Prism3D/internal/environment"
	"Prism3D/internal/gpu"
	"Prism3D/internal/gpu/gputest"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestMaxLevels(t *testing.T) {
	cases := []struct {
		w, h, want int
	}{
		{1920, 1080, 10},
		{256, 256, 8},
		{1, 1, 0},
		{3, 100, 1},
		{1 << 20, 1 << 20, MaxBloomLevels},
	}
	for _, c := range cases {
		if got := MaxLevels(c.w, c.h); got != c.want {
			t.Errorf("MaxLevels(%d, %d) = %d, want %d", c.w, c.h, got, c.want)
		}
	}
}

func TestBloomPyramid(t *testing.T) {
	dev := gputest.New()
	chain, err := NewChain(dev, 64, 32)
	if err != nil {
		t.Fatalf("NewChain: %v", err)
	}
	if chain.Levels() != 5 {
		t.Fatalf("expected 5 levels for 64x32, got %d", chain.Levels())
	}

	bright, _ := gpu.NewTexture(dev, gpu.TextureDesc{Width: 64, Height: 32, Format: gpu.FormatRGBA16F}, nil)

	dev.Reset()
	out := chain.Bloom(bright, 3)
	if out == nil {
		t.Fatal("expected a bloom texture")
	}
	if out.Width() != 32 || out.Height() != 16 {
		t.Errorf("bloom result should be the first level, got %dx%d", out.Width(), out.Height())
	}
	if dev.FullscreenDraws != 3*2+2 {
		t.Errorf("expected 8 fullscreen draws, got %d", dev.FullscreenDraws)
	}

	chain.Bloom(bright, 100)
	if chain.LastBloomLevels() != 5 {
		t.Errorf("iterations should cap at the level count, got %d", chain.LastBloomLevels())
	}

	if chain.Bloom(bright, 0) != nil {
		t.Error("zero iterations should skip bloom")
	}
}

func TestChainRelease(t *testing.T) {
	dev := gputest.New()
	chain, err := NewChain(dev, 128, 128)
	if err != nil {
		t.Fatal(err)
	}
	if err := chain.Resize(64, 64); err != nil {
		t.Fatal(err)
	}
	if chain.Target().Width() != 64 {
		t.Error("post target not resized")
	}
	chain.Release()
	if dev.LiveTextures() != 0 || dev.LiveFramebuffers() != 0 || dev.LivePrograms() != 0 {
		t.Errorf("leaked %d textures, %d framebuffers, %d programs",
			dev.LiveTextures(), dev.LiveFramebuffers(), dev.LivePrograms())
	}
}

func TestCompositeUniforms(t *testing.T) {
	dev := gputest.New()
	chain, err := NewChain(dev, 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	env := environment.Default()
	env.Bloom.Mode = environment.BloomAdditive
	env.Tonemap.Mode = environment.TonemapACES

	chain.Composite(nil, nil, nil, &env, 0.1, 100)
	if dev.Bound != chain.Target().ID() {
		t.Error("composite should render into the post target")
	}
	if v, _ := dev.Uniform(chain.composite.ID(), "uTonemapMode"); v != int32(environment.TonemapACES) {
		t.Errorf("unexpected tonemap mode %v", v)
	}
	if v, _ := dev.Uniform(chain.composite.ID(), "uBloomMode"); v != int32(environment.BloomDisabled) {
		t.Error("missing bloom texture should disable bloom")
	}
}

func TestBloomBrightness(t *testing.T) {
	env := environment.Default()
	env.Bloom.Mode = environment.BloomAdditive
	env.Bloom.HDRThreshold = 1

	base := mgl32.Vec3{0.2, 0.2, 0.2}
	hot := mgl32.Vec3{4, 4, 4}

	if BrightPass(base, env.Bloom.HDRThreshold) != (mgl32.Vec3{}) {
		t.Error("pixels under the threshold contribute nothing")
	}
	glow := BrightPass(hot, env.Bloom.HDRThreshold)
	if glow != hot {
		t.Error("pixels over the threshold pass through")
	}

	without := Composite(base, mgl32.Vec3{}, 0, &env)
	with := Composite(base, glow.Mul(0.1), 0, &env)
	if Luminance(with) <= Luminance(without) {
		t.Errorf("bloom should brighten: %v vs %v", with, without)
	}

	env.Bloom.Mode = environment.BloomDisabled
	if Composite(base, glow, 0, &env) != without {
		t.Error("disabled bloom should not change the image")
	}
}

func TestApplyBloomSoftLight(t *testing.T) {
	c := ApplyBloom(mgl32.Vec3{0.5, 1, 0}, mgl32.Vec3{0.5, 0.5, 0.5}, environment.BloomSoftLight, 1)
	want := mgl32.Vec3{0.75, 1, 0.5}
	if !vecNear(c, want, 1e-5) {
		t.Errorf("got %v, want %v", c, want)
	}
}

func TestTonemap(t *testing.T) {
	white := mgl32.Vec3{1, 1, 1}
	if Tonemap(white, environment.TonemapLinear, 2, 1) != (mgl32.Vec3{2, 2, 2}) {
		t.Error("linear should only apply exposure")
	}

	r := Tonemap(mgl32.Vec3{4, 4, 4}, environment.TonemapReinhard, 1, 4)
	if !near(r[0], 1) {
		t.Errorf("reinhard should map white to 1, got %f", r[0])
	}

	f := Tonemap(mgl32.Vec3{0.5, 0.5, 0.5}, environment.TonemapFilmic, 1, 11.2)
	if f[0] <= 0 || f[0] >= 1 {
		t.Errorf("filmic out of range: %f", f[0])
	}

	a := Tonemap(mgl32.Vec3{100, 100, 100}, environment.TonemapACES, 1, 1)
	if a[0] > 1 {
		t.Errorf("aces should saturate at 1, got %f", a[0])
	}
	if z := Tonemap(mgl32.Vec3{}, environment.TonemapACES, 1, 1); z[0] != 0 {
		t.Error("black stays black")
	}
}

func TestFogFactor(t *testing.T) {
	if FogFactor(environment.FogDisabled, 100, 0, 1, 1) != 0 {
		t.Error("disabled fog is zero")
	}
	if !near(FogFactor(environment.FogLinear, 20, 10, 30, 0), 0.5) {
		t.Error("linear fog halfway")
	}
	if FogFactor(environment.FogLinear, 5, 10, 30, 0) != 0 || FogFactor(environment.FogLinear, 50, 10, 30, 0) != 1 {
		t.Error("linear fog should clamp")
	}
	if !near(FogFactor(environment.FogExp, 10, 0, 0, 0.1), float32(1-math.Exp(-1))) {
		t.Error("exp fog")
	}
	if !near(FogFactor(environment.FogExp2, 10, 0, 0, 0.1), float32(1-math.Exp(-1))) {
		t.Error("exp2 fog at density*d = 1")
	}
	if FogFactor(environment.FogExp2, 5, 0, 0, 0.1) >= FogFactor(environment.FogExp, 5, 0, 0, 0.1) {
		t.Error("exp2 should be thinner than exp close to the camera")
	}
}

func TestAdjustNeutral(t *testing.T) {
	c := mgl32.Vec3{0.3, 0.6, 0.9}
	if got := Adjust(c, environment.Adjustments{Brightness: 1, Contrast: 1, Saturation: 1}); !got.ApproxEqual(c) {
		t.Errorf("neutral adjustments changed %v to %v", c, got)
	}
	gray := Adjust(c, environment.Adjustments{Brightness: 1, Contrast: 1, Saturation: 0})
	if !near(gray[0], gray[1]) || !near(gray[1], gray[2]) {
		t.Errorf("zero saturation should be gray, got %v", gray)
	}
}

func TestLinearizeDepth(t *testing.T) {
	if !near(LinearizeDepth(0, 0.1, 100), 0.1) {
		t.Error("depth 0 is the near plane")
	}
	if d := LinearizeDepth(1, 0.1, 100); math.Abs(float64(d-100))/100 > 1e-4 {
		t.Error("depth 1 is the far plane")
	}
}

func TestBlitRects(t *testing.T) {
	src, dst := BlitRects(800, 600, 1600, 900, false)
	if src != (gpu.Rect{W: 800, H: 600}) || dst != (gpu.Rect{W: 1600, H: 900}) {
		t.Errorf("expand should fill: %v %v", src, dst)
	}

	_, dst = BlitRects(800, 600, 1600, 900, true)
	if dst != (gpu.Rect{X: 200, Y: 0, W: 1200, H: 900}) {
		t.Errorf("keep should pillarbox, got %v", dst)
	}

	_, dst = BlitRects(1600, 900, 800, 600, true)
	if dst != (gpu.Rect{X: 0, Y: 75, W: 800, H: 450}) {
		t.Errorf("keep should letterbox, got %v", dst)
	}
}

func vecNear(a, b mgl32.Vec3, eps float32) bool {
	for i := range a {
		if d := a[i] - b[i]; d > eps || d < -eps {
			return false
		}
	}
	return true
}
