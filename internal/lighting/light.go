// Package lighting holds the scene lights, their shadow maps and the light
// space matrices used to render them.
package lighting

import (
	"errors"
	"fmt"
	"math"

	"Prism3D/internal/geom"
	"Prism3D/internal/gpu"
	"Prism3D/internal/logger"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var ErrInvalidType = errors.New("lighting: invalid light type")

// Type is the light kind. Field usage per type:
//
//	field         Directional   Spot   Omni
//	position      shadow only   yes    yes
//	direction     yes           yes    no
//	range/atten.  no            yes    yes
//	cutoffs       no            yes    no
type Type int

const (
	Directional Type = iota
	Spot
	Omni
)

func (t Type) String() string {
	switch t {
	case Directional:
		return "directional"
	case Spot:
		return "spot"
	case Omni:
		return "omni"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Layer is a bitmask matched against model and renderer layers.
type Layer uint32

const (
	Layer1 Layer = 1 << iota
	Layer2
	Layer3
	Layer4
	Layer5
	Layer6
	Layer7
	Layer8
	LayerAll Layer = math.MaxUint32
)

const (
	DefaultRange       = 32
	DefaultAttenuation = 1
	DefaultInnerCutoff = 30
	DefaultOuterCutoff = 45
	DefaultShadowBias  = 0.005
)

// Light is a pool-owned scene light. Obtain it from Manager.Light; the
// pointer stays valid until the light is destroyed.
type Light struct {
	dev    gpu.Device
	extent float32

	typ         Type
	enabled     bool
	color       mgl32.Vec3
	energy      float32
	position    mgl32.Vec3
	direction   mgl32.Vec3
	innerCos    float32
	outerCos    float32
	innerDeg    float32
	outerDeg    float32
	lightRange  float32
	attenuation float32
	bias        float32
	layers      Layer
	shadow      *Shadow
}

func newLight(dev gpu.Device, t Type, extent float32) *Light {
	l := &Light{
		dev:         dev,
		extent:      extent,
		typ:         t,
		color:       mgl32.Vec3{1, 1, 1},
		energy:      1,
		direction:   mgl32.Vec3{0, 0, -1},
		attenuation: DefaultAttenuation,
		bias:        DefaultShadowBias,
		layers:      LayerAll,
	}
	if t != Directional {
		l.lightRange = DefaultRange
	}
	l.setCutoffs(DefaultInnerCutoff, DefaultOuterCutoff)
	return l
}

func (l *Light) Type() Type              { return l.typ }
func (l *Light) IsActive() bool          { return l.enabled }
func (l *Light) Color() mgl32.Vec3       { return l.color }
func (l *Light) Energy() float32         { return l.energy }
func (l *Light) Position() mgl32.Vec3    { return l.position }
func (l *Light) Direction() mgl32.Vec3   { return l.direction }
func (l *Light) Range() float32          { return l.lightRange }
func (l *Light) Attenuation() float32    { return l.attenuation }
func (l *Light) ShadowBias() float32     { return l.bias }
func (l *Light) Layers() Layer           { return l.layers }
func (l *Light) HasShadow() bool         { return l.shadow != nil }
func (l *Light) Shadow() *Shadow         { return l.shadow }
func (l *Light) InnerCutoff() float32    { return l.innerDeg }
func (l *Light) OuterCutoff() float32    { return l.outerDeg }
func (l *Light) InnerCutoffCos() float32 { return l.innerCos }
func (l *Light) OuterCutoffCos() float32 { return l.outerCos }

func (l *Light) SetActive(active bool) { l.enabled = active }
func (l *Light) Toggle()               { l.enabled = !l.enabled }

func (l *Light) SetColor(c mgl32.Vec3) { l.color = c }

func (l *Light) SetEnergy(e float32) {
	l.energy = max32(e, 0)
}

func (l *Light) SetPosition(p mgl32.Vec3) {
	l.position = p
	l.changed()
}

// SetDirection normalizes d. A zero vector is ignored.
func (l *Light) SetDirection(d mgl32.Vec3) {
	if d.Len() == 0 {
		logger.Log.Warn("Ignoring zero light direction", zap.Stringer("type", l.typ))
		return
	}
	l.direction = d.Normalize()
	l.changed()
}

// SetTarget points the light at target from its current position.
func (l *Light) SetTarget(target mgl32.Vec3) {
	l.SetDirection(target.Sub(l.position))
}

func (l *Light) SetPositionTarget(position, target mgl32.Vec3) {
	l.position = position
	l.SetDirection(target.Sub(position))
	l.changed()
}

// SetRange sets the maximum lit distance. Zero or less means unbounded.
func (l *Light) SetRange(r float32) {
	l.lightRange = max32(r, 0)
	l.changed()
}

func (l *Light) SetAttenuation(factor float32) {
	l.attenuation = max32(factor, 0)
}

func (l *Light) SetShadowBias(bias float32) {
	l.bias = bias
}

// SetInnerCutoff sets the inner half-angle in degrees. An inner angle wider
// than the outer one is clamped to it.
func (l *Light) SetInnerCutoff(deg float32) {
	l.setCutoffs(deg, l.outerDeg)
	l.changed()
}

// SetOuterCutoff sets the outer half-angle in degrees.
func (l *Light) SetOuterCutoff(deg float32) {
	l.setCutoffs(l.innerDeg, deg)
	l.changed()
}

func (l *Light) setCutoffs(inner, outer float32) {
	inner = mgl32.Clamp(inner, 0, 90)
	outer = mgl32.Clamp(outer, 0, 90)
	if inner > outer {
		inner = outer
	}
	l.innerDeg, l.outerDeg = inner, outer
	l.innerCos = float32(math.Cos(float64(mgl32.DegToRad(inner))))
	l.outerCos = float32(math.Cos(float64(mgl32.DegToRad(outer))))
}

func (l *Light) SetLayers(layers Layer)    { l.layers = layers }
func (l *Light) AddLayers(layers Layer)    { l.layers |= layers }
func (l *Light) RemoveLayers(layers Layer) { l.layers &^= layers }
func (l *Light) ToggleLayers(layers Layer) { l.layers ^= layers }

// SetType changes the light kind. Shadow resources are reallocated for the
// new map layout at the same resolution.
func (l *Light) SetType(t Type) error {
	if t < Directional || t > Omni {
		return fmt.Errorf("%w: %d", ErrInvalidType, int(t))
	}
	if t == l.typ {
		return nil
	}
	l.typ = t
	if l.shadow == nil {
		return nil
	}
	res := l.shadow.resolution
	l.DisableShadow()
	return l.EnableShadow(res)
}

// EnableShadow allocates a shadow map. Calling it with a different
// resolution reallocates.
func (l *Light) EnableShadow(resolution int) error {
	if resolution <= 0 {
		return fmt.Errorf("lighting: shadow resolution %d", resolution)
	}
	if l.shadow != nil {
		if l.shadow.resolution == resolution {
			return nil
		}
		l.DisableShadow()
	}
	s, err := newShadow(l.dev, l.typ, resolution)
	if err != nil {
		return fmt.Errorf("%s light shadow map: %w", l.typ, err)
	}
	l.shadow = s
	l.UpdateFrustum()
	logger.Log.Debug("Shadow map allocated",
		zap.Stringer("type", l.typ),
		zap.Int("resolution", resolution))
	return nil
}

func (l *Light) DisableShadow() {
	if l.shadow == nil {
		return
	}
	l.shadow.release()
	l.shadow = nil
}

func (l *Light) changed() {
	if l.shadow != nil {
		l.UpdateFrustum()
	}
}

// InRange reports whether box lies at least partly within the light's
// range. Directional and unbounded lights reach everything.
func (l *Light) InRange(box geom.AABB) bool {
	if l.typ == Directional || l.lightRange <= 0 {
		return true
	}
	return box.DistanceSqrTo(l.position) <= l.lightRange*l.lightRange
}

// Affects reports whether the light contributes to an object on layers
// whose bounds are box.
func (l *Light) Affects(layers Layer, box geom.AABB) bool {
	return l.enabled && l.layers&layers != 0 && l.InRange(box)
}

// Attenuation is the distance falloff used by the material shader.
func Attenuation(distance, lightRange, factor float32) float32 {
	if lightRange <= 0 {
		return 1
	}
	t := mgl32.Clamp(1-distance/lightRange, 0, 1)
	return float32(math.Pow(float64(t), float64(factor)))
}

// SpotFactor is the cone falloff for cosTheta between the light direction
// and the direction to the point. Inverted cutoffs degrade to a hard edge.
func SpotFactor(cosTheta, innerCos, outerCos float32) float32 {
	if innerCos < outerCos {
		innerCos = outerCos
	}
	eps := innerCos - outerCos
	if eps < 1e-4 {
		eps = 1e-4
	}
	return mgl32.Clamp((cosTheta-outerCos)/eps, 0, 1)
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
