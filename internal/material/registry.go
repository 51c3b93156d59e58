package material

import (
	"errors"
	"fmt"

	"Prism3D/internal/gpu"
	"Prism3D/internal/logger"
	"Prism3D/internal/shaders"

	"go.uber.org/zap"
)

var (
	ErrInvalidConfig = errors.New("material: invalid config")
	ErrNotLoaded     = errors.New("material: config not loaded")
)

// Stats provides debugging information about the registry.
type Stats struct {
	Configs   int
	Programs  int
	Hits      int
	Misses    int
	Fallbacks int
}

type configEntry struct {
	variant VariantKey
	uses    int
}

type programEntry struct {
	program *gpu.Program
	uses    int
}

// Registry deduplicates configs into compiled programs. Configs are
// refcounted by value; programs are refcounted by the configs sharing
// their variant. The default config holds one pinned reference for the
// registry's lifetime.
type Registry struct {
	dev      gpu.Device
	configs  map[Config]*configEntry
	programs map[VariantKey]*programEntry
	def      Config
	warned   map[Config]bool
	stats    Stats
}

func NewRegistry(dev gpu.Device, def Config) (*Registry, error) {
	r := &Registry{
		dev:      dev,
		configs:  make(map[Config]*configEntry),
		programs: make(map[VariantKey]*programEntry),
		warned:   make(map[Config]bool),
	}
	if err := r.Load(def); err != nil {
		return nil, fmt.Errorf("default material config: %w", err)
	}
	r.def = def
	return r, nil
}

func validate(c Config) error {
	if c.Diffuse < DiffuseUnshaded || c.Diffuse > DiffuseToon {
		return fmt.Errorf("%w: diffuse %d", ErrInvalidConfig, c.Diffuse)
	}
	if c.Specular > SpecularToon {
		return fmt.Errorf("%w: specular %d", ErrInvalidConfig, c.Specular)
	}
	if c.Blend < gpu.BlendDisabled || c.Blend > gpu.BlendPremultipliedAlpha {
		return fmt.Errorf("%w: blend %d", ErrInvalidConfig, c.Blend)
	}
	if c.Cull < gpu.CullNone || c.Cull > gpu.CullFront {
		return fmt.Errorf("%w: cull %d", ErrInvalidConfig, c.Cull)
	}
	return nil
}

// Create builds a config and registers it.
func (r *Registry) Create(diffuse Diffuse, specular Specular, blend gpu.BlendMode, cull gpu.CullMode, flags Flags) (Config, error) {
	c := Config{Diffuse: diffuse, Specular: specular, Blend: blend, Cull: cull, Flags: flags}
	if err := r.Load(c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load registers c, compiling its variant on first use.
func (r *Registry) Load(c Config) error {
	if e, ok := r.configs[c]; ok {
		e.uses++
		r.stats.Hits++
		logger.Log.Debug("Material config cache hit",
			zap.Uint64("key", c.Key()),
			zap.Int("refCount", e.uses))
		return nil
	}
	if err := validate(c); err != nil {
		return err
	}

	r.stats.Misses++
	variant := Variant(c)
	p, ok := r.programs[variant]
	if !ok {
		vsDefines, fsDefines := Defines(variant)
		vs, fs := shaders.Material(vsDefines, fsDefines)
		program, err := gpu.NewProgram(r.dev, vs, fs)
		if err != nil {
			return fmt.Errorf("compile material variant %#x: %w", uint32(variant), err)
		}
		p = &programEntry{program: program}
		r.programs[variant] = p
		logger.Log.Info("Material program compiled",
			zap.Uint32("variant", uint32(variant)),
			zap.Strings("defines", fsDefines))
	}
	p.uses++
	r.configs[c] = &configEntry{variant: variant, uses: 1}
	return nil
}

// Unload drops one reference to c. The pinned default never drops below
// one reference.
func (r *Registry) Unload(c Config) {
	e, ok := r.configs[c]
	if !ok {
		logger.Log.Warn("Attempted to unload unknown material config", zap.Uint64("key", c.Key()))
		return
	}
	if c == r.def && e.uses == 1 {
		logger.Log.Warn("Default material config stays loaded", zap.Uint64("key", c.Key()))
		return
	}

	e.uses--
	if e.uses > 0 {
		return
	}
	delete(r.configs, c)
	delete(r.warned, c)

	p := r.programs[e.variant]
	p.uses--
	if p.uses <= 0 {
		p.program.Release()
		delete(r.programs, e.variant)
		logger.Log.Debug("Material program released", zap.Uint32("variant", uint32(e.variant)))
	}
}

func (r *Registry) IsValid(c Config) bool {
	_, ok := r.configs[c]
	return ok
}

// UseCount returns the number of references held on c.
func (r *Registry) UseCount(c Config) int {
	if e, ok := r.configs[c]; ok {
		return e.uses
	}
	return 0
}

func (r *Registry) Default() Config { return r.def }

// SetDefault loads c and moves the pin to it.
func (r *Registry) SetDefault(c Config) error {
	if c == r.def {
		return nil
	}
	if err := r.Load(c); err != nil {
		return err
	}
	old := r.def
	r.def = c
	r.Unload(old)
	return nil
}

// Program returns the program of a loaded config.
func (r *Registry) Program(c Config) (*gpu.Program, error) {
	e, ok := r.configs[c]
	if !ok {
		return nil, fmt.Errorf("%w: key %#x", ErrNotLoaded, c.Key())
	}
	return r.programs[e.variant].program, nil
}

// Resolve returns the config actually used for drawing c and its program.
// Zero and unloaded configs fall back to the default; unloaded ones are
// reported once.
func (r *Registry) Resolve(c Config) (Config, *gpu.Program) {
	if c.IsZero() {
		c = r.def
	}
	if e, ok := r.configs[c]; ok {
		return c, r.programs[e.variant].program
	}
	r.stats.Fallbacks++
	if !r.warned[c] {
		r.warned[c] = true
		logger.Log.Warn("Material config not loaded, using default",
			zap.Uint64("key", c.Key()),
			zap.Uint64("default", r.def.Key()))
	}
	def := r.def
	return def, r.programs[r.configs[def].variant].program
}

func (r *Registry) Stats() Stats {
	s := r.stats
	s.Configs = len(r.configs)
	s.Programs = len(r.programs)
	return s
}

// Close releases every program regardless of reference counts.
func (r *Registry) Close() {
	for variant, p := range r.programs {
		p.program.Release()
		delete(r.programs, variant)
	}
	r.configs = make(map[Config]*configEntry)
	logger.Log.Debug("Material registry closed")
}
