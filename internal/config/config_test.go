package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"Prism3D/internal/environment"
	"Prism3D/internal/renderer"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := Default()
	if cfg.Window != def.Window || cfg.Renderer != def.Renderer {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.json")

	cfg := Default()
	cfg.Window.Title = "test"
	cfg.Renderer.AspectKeep = true
	cfg.Renderer.DepthSort = renderer.DepthSortNearToFar
	cfg.Environment.SetFogMode(environment.FogExp2)
	cfg.Environment.SetTonemapMode(environment.TonemapACES)
	cfg.MeshCacheDir = "cache"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"depth_sort": "near_to_far"`, `"mode": "exp2"`, `"aspect_keep": true`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Saved config should contain %s", want)
		}
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Window != cfg.Window || loaded.Renderer != cfg.Renderer || loaded.MeshCacheDir != "cache" {
		t.Errorf("Round trip mismatch: got %+v", loaded)
	}
	if loaded.Environment.Fog.Mode != environment.FogExp2 || loaded.Environment.Tonemap.Mode != environment.TonemapACES {
		t.Errorf("Environment modes lost: %+v", loaded.Environment)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"window": {"width": 640, "height": 480}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Window.Width != 640 || cfg.Window.Height != 480 {
		t.Errorf("Expected 640x480, got %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Title != "Prism3D" || !cfg.Renderer.FrustumCulling {
		t.Error("Fields missing from the file should keep their defaults")
	}
	if cfg.Environment.Tonemap.Exposure != 1 {
		t.Errorf("Expected default exposure, got %v", cfg.Environment.Tonemap.Exposure)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax.json":   `{"window":`,
		"mode.json":     `{"renderer": {"depth_sort": "sideways"}}`,
		"size.json":     `{"window": {"width": 0}}`,
		"lights.json":   `{"renderer": {"light_capacity": -1}}`,
		"extent.json":   `{"renderer": {"shadow_extent": -5}}`,
		"bloom.json":    `{"environment": {"bloom": {"mode": "glow"}}}`,
		"internal.json": `{"renderer": {"width": -1}}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	path := filepath.Join(dir, "size.json")
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Renderer.BlitLinear = true
	cfg.Renderer.FrustumCulling = false
	cfg.Renderer.DebugShadowMap = true
	cfg.Renderer.Width, cfg.Renderer.Height = 320, 180

	opts := cfg.Options()
	want := renderer.FlagBlitLinear | renderer.FlagNoFrustumCulling | renderer.FlagDebugShadowMap
	if opts.Flags != want {
		t.Errorf("Expected flags %b, got %b", want, opts.Flags)
	}
	if opts.Width != 320 || opts.Height != 180 {
		t.Errorf("Expected 320x180, got %dx%d", opts.Width, opts.Height)
	}
	if opts.DepthSort != renderer.DepthSortFarToNear || opts.ShadowExtent != 20 || opts.LightCapacity != 32 {
		t.Errorf("Unexpected options %+v", opts)
	}
}
