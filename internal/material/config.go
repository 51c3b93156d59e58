// Package material defines material configs, the shader variant each one
// compiles to, and the refcounted registry that owns those programs.
package material

import "Prism3D/internal/gpu"

type Diffuse uint8

// The zero Diffuse marks an unset config, which resolves to the default.
const (
	DiffuseUnshaded Diffuse = iota + 1
	DiffuseBurley
	DiffuseDisney
	DiffuseLambert
	DiffusePhong
	DiffuseToon
)

type Specular uint8

const (
	// SpecularDisabled lights a surface with the diffuse term only.
	SpecularDisabled Specular = iota
	SpecularSchlickGGX
	SpecularDisney
	SpecularBlinnPhong
	SpecularToon
)

type Flags uint8

const (
	FlagVertexColor Flags = 1 << iota
	FlagReceiveShadow
	FlagMapEmission
	FlagMapNormal
	FlagMapAO
	FlagSkyIBL
)

// Config selects a shading model and render state. Configs compare by
// value; two configs with the same fields share one registry entry.
type Config struct {
	Diffuse  Diffuse
	Specular Specular
	Blend    gpu.BlendMode
	Cull     gpu.CullMode
	Flags    Flags
}

func DefaultConfig() Config {
	return Config{
		Diffuse:  DiffuseBurley,
		Specular: SpecularSchlickGGX,
		Blend:    gpu.BlendAlpha,
		Cull:     gpu.CullBack,
		Flags:    FlagReceiveShadow | FlagSkyIBL,
	}
}

// Key packs the config bit pattern. Ordering by Key groups configs with
// the same shading model together.
func (c Config) Key() uint64 {
	return uint64(c.Diffuse)<<32 |
		uint64(c.Specular)<<24 |
		uint64(c.Flags)<<16 |
		uint64(c.Blend)<<8 |
		uint64(c.Cull)
}

func (c Config) IsZero() bool {
	return c == Config{}
}

func (c Config) Opaque() bool {
	return c.Blend == gpu.BlendDisabled
}

func (c Config) Unshaded() bool {
	return c.Diffuse == DiffuseUnshaded
}

// VariantKey identifies compiled shader text. Blend and cull modes are
// render state only and do not take part.
type VariantKey uint32

// Variant reduces a config to the inputs that change shader text.
// Unshaded variants ignore the specular model and every flag except
// vertex color.
func Variant(c Config) VariantKey {
	specular, flags := c.Specular, c.Flags
	if c.Diffuse == DiffuseUnshaded {
		specular = SpecularDisabled
		flags &= FlagVertexColor
	}
	return VariantKey(uint32(c.Diffuse)<<16 | uint32(specular)<<8 | uint32(flags))
}

func (v VariantKey) Diffuse() Diffuse   { return Diffuse(v >> 16) }
func (v VariantKey) Specular() Specular { return Specular(v >> 8) }
func (v VariantKey) Flags() Flags       { return Flags(v) }

var diffuseDefines = map[Diffuse]string{
	DiffuseUnshaded: "DIFFUSE_UNSHADED",
	DiffuseBurley:   "DIFFUSE_BURLEY",
	DiffuseDisney:   "DIFFUSE_DISNEY",
	DiffuseLambert:  "DIFFUSE_LAMBERT",
	DiffusePhong:    "DIFFUSE_PHONG",
	DiffuseToon:     "DIFFUSE_TOON",
}

var specularDefines = map[Specular]string{
	SpecularSchlickGGX: "SPECULAR_SCHLICK_GGX",
	SpecularDisney:     "SPECULAR_DISNEY",
	SpecularBlinnPhong: "SPECULAR_BLINN_PHONG",
	SpecularToon:       "SPECULAR_TOON",
}

// Defines returns the preprocessor names for each stage of the variant.
func Defines(v VariantKey) (vertex, fragment []string) {
	flags := v.Flags()
	unshaded := v.Diffuse() == DiffuseUnshaded

	if flags&FlagVertexColor != 0 {
		vertex = append(vertex, "VERTEX_COLOR")
	}
	if unshaded {
		vertex = append(vertex, "DIFFUSE_UNSHADED")
	} else {
		if flags&FlagReceiveShadow != 0 {
			vertex = append(vertex, "RECEIVE_SHADOW")
		}
		if flags&FlagMapNormal != 0 {
			vertex = append(vertex, "MAP_NORMAL")
		}
	}

	if name, ok := diffuseDefines[v.Diffuse()]; ok {
		fragment = append(fragment, name)
	}
	if flags&FlagVertexColor != 0 {
		fragment = append(fragment, "VERTEX_COLOR")
	}
	if unshaded {
		return vertex, fragment
	}
	if name, ok := specularDefines[v.Specular()]; ok {
		fragment = append(fragment, name)
	}
	for _, f := range []struct {
		flag Flags
		name string
	}{
		{FlagReceiveShadow, "RECEIVE_SHADOW"},
		{FlagMapEmission, "MAP_EMISSION"},
		{FlagMapNormal, "MAP_NORMAL"},
		{FlagMapAO, "MAP_AO"},
		{FlagSkyIBL, "SKY_IBL"},
	} {
		if flags&f.flag != 0 {
			fragment = append(fragment, f.name)
		}
	}
	return vertex, fragment
}
