// Package config loads the JSON settings file of the demo host: window,
// renderer options and the starting environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"Prism3D/internal/environment"
	"Prism3D/internal/logger"
	"Prism3D/internal/renderer"

	"go.uber.org/zap"
)

var ErrInvalid = errors.New("config: invalid value")

type Window struct {
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	VSync  bool   `json:"vsync"`
}

type Renderer struct {
	// Internal resolution; zero follows the window.
	Width          int                     `json:"width"`
	Height         int                     `json:"height"`
	BlitLinear     bool                    `json:"blit_linear"`
	AspectKeep     bool                    `json:"aspect_keep"`
	FrustumCulling bool                    `json:"frustum_culling"`
	DebugShadowMap bool                    `json:"debug_shadow_map"`
	DepthSort      renderer.DepthSortOrder `json:"depth_sort"`
	ShadowExtent   float32                 `json:"shadow_extent"`
	LightCapacity  int                     `json:"light_capacity"`
}

type Config struct {
	Window      Window                  `json:"window"`
	Renderer    Renderer                `json:"renderer"`
	Environment environment.Environment `json:"environment"`
	// MeshCacheDir holds generated meshes between runs. Empty disables
	// the cache.
	MeshCacheDir string `json:"mesh_cache_dir,omitempty"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:  "Prism3D",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Renderer: Renderer{
			FrustumCulling: true,
			DepthSort:      renderer.DepthSortFarToNear,
			ShadowExtent:   20,
			LightCapacity:  32,
		},
		Environment: environment.Default(),
	}
}

// Load reads path over the defaults, so a partial file only overrides
// what it names. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Log.Info("No config file found, using defaults", zap.String("path", path))
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	logger.Log.Info("Config loaded", zap.String("path", path))
	return cfg, nil
}

func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Renderer.Width < 0 || c.Renderer.Height < 0:
		return fmt.Errorf("%w: internal size %dx%d", ErrInvalid, c.Renderer.Width, c.Renderer.Height)
	case c.Renderer.LightCapacity < 0:
		return fmt.Errorf("%w: light capacity %d", ErrInvalid, c.Renderer.LightCapacity)
	case c.Renderer.ShadowExtent < 0:
		return fmt.Errorf("%w: shadow extent %v", ErrInvalid, c.Renderer.ShadowExtent)
	}
	return nil
}

// Options converts the renderer section for renderer.New.
func (c Config) Options() renderer.Options {
	r := c.Renderer
	var flags renderer.Flags
	if r.BlitLinear {
		flags |= renderer.FlagBlitLinear
	}
	if r.AspectKeep {
		flags |= renderer.FlagAspectKeep
	}
	if !r.FrustumCulling {
		flags |= renderer.FlagNoFrustumCulling
	}
	if r.DebugShadowMap {
		flags |= renderer.FlagDebugShadowMap
	}
	return renderer.Options{
		Width:         r.Width,
		Height:        r.Height,
		Flags:         flags,
		DepthSort:     r.DepthSort,
		LightCapacity: r.LightCapacity,
		ShadowExtent:  r.ShadowExtent,
	}
}
