package loader

import (
	"bufio"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"Prism3D/internal/logger"
	"Prism3D/internal/material"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MaterialDesc is one newmtl block. Texture paths are resolved against the
// library's directory.
type MaterialDesc struct {
	Name       string
	Diffuse    mgl32.Vec3
	Alpha      float32
	Emission   mgl32.Vec3
	Roughness  float32
	Metalness  float32
	DiffuseMap string
	NormalMap  string
}

func newMaterialDesc(name string) *MaterialDesc {
	return &MaterialDesc{
		Name:      name,
		Diffuse:   mgl32.Vec3{1, 1, 1},
		Alpha:     1.0,
		Roughness: 0.5,
	}
}

// ParseMTL reads Kd, Ke, d/Tr, Ns, Pr, Pm, map_Kd and map_Bump/norm.
// Malformed lines are logged and skipped.
func ParseMTL(r io.Reader, dir string) (map[string]MaterialDesc, error) {
	materials := make(map[string]MaterialDesc)
	var current *MaterialDesc
	flush := func() {
		if current != nil {
			materials[current.Name] = *current
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				logger.Log.Warn("Malformed material line", zap.String("line", line))
				continue
			}
			flush()
			current = newMaterialDesc(fields[1])
			continue
		}
		if current == nil {
			continue
		}

		switch fields[0] {
		case "Kd":
			if c, ok := parseColor(fields[1:]); ok {
				current.Diffuse = c
			}
		case "Ke":
			if c, ok := parseColor(fields[1:]); ok {
				current.Emission = c
			}
		case "d":
			if v, ok := parseScalar(fields[1:]); ok {
				current.Alpha = v
			}
		case "Tr":
			if v, ok := parseScalar(fields[1:]); ok {
				current.Alpha = 1 - v
			}
		case "Ns":
			if v, ok := parseScalar(fields[1:]); ok {
				current.Roughness = ShininessToRoughness(v)
			}
		case "Pr":
			if v, ok := parseScalar(fields[1:]); ok {
				current.Roughness = v
			}
		case "Pm":
			if v, ok := parseScalar(fields[1:]); ok {
				current.Metalness = v
			}
		case "map_Kd":
			current.DiffuseMap = texturePath(dir, fields)
		case "map_Bump", "bump", "norm":
			current.NormalMap = texturePath(dir, fields)
		}
	}
	flush()
	return materials, scanner.Err()
}

// texturePath takes the last field so map options are skipped.
func texturePath(dir string, fields []string) string {
	if len(fields) < 2 {
		return ""
	}
	p := fields[len(fields)-1]
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func parseColor(fields []string) (mgl32.Vec3, bool) {
	v, err := parseFloats(fields, 3)
	if err != nil {
		logger.Log.Warn("Error parsing color", zap.Error(err))
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, true
}

func parseScalar(fields []string) (float32, bool) {
	if len(fields) < 1 {
		return 0, false
	}
	f, err := strconv.ParseFloat(fields[0], 32)
	if err != nil {
		logger.Log.Warn("Error parsing scalar", zap.Error(err))
		return 0, false
	}
	return float32(f), true
}

// ShininessToRoughness maps a Phong exponent to perceptual roughness.
func ShininessToRoughness(ns float32) float32 {
	if ns < 0 {
		ns = 0
	}
	return mgl32.Clamp(float32(math.Sqrt(2/(float64(ns)+2))), 0, 1)
}

// Apply copies the scalar properties onto m. Textures are left to the
// caller, which owns their upload. Emission only shows with a config that
// has FlagMapEmission.
func (d MaterialDesc) Apply(m *material.Material) {
	m.Albedo.Color = d.Diffuse.Vec4(d.Alpha)
	m.Metalness.Factor = mgl32.Clamp(d.Metalness, 0, 1)
	m.Roughness.Factor = mgl32.Clamp(d.Roughness, 0, 1)
	m.Emission.Color = d.Emission
}
