package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns an inverted box that any Extend call will overwrite.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// AABBFromPositions computes the bounds of a flat xyz position array with
// the given float stride.
func AABBFromPositions(data []float32, stride int) AABB {
	box := EmptyAABB()
	if stride < 3 {
		return AABB{}
	}
	for i := 0; i+2 < len(data); i += stride {
		box = box.Extend(mgl32.Vec3{data[i], data[i+1], data[i+2]})
	}
	if box.IsEmpty() {
		return AABB{}
	}
	return box
}

func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Extents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Transform returns the world-space box enclosing b transformed by m
// (Arvo's method).
func (b AABB) Transform(m mgl32.Mat4) AABB {
	translation := m.Col(3).Vec3()
	out := AABB{Min: translation, Max: translation}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a := m.At(i, j) * b.Min[j]
			c := m.At(i, j) * b.Max[j]
			if a < c {
				out.Min[i] += a
				out.Max[i] += c
			} else {
				out.Min[i] += c
				out.Max[i] += a
			}
		}
	}
	return out
}

// DistanceSqrTo returns the squared distance from p to the closest point of b,
// zero when p lies inside.
func (b AABB) DistanceSqrTo(p mgl32.Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			v := b.Min[i] - p[i]
			d += v * v
		} else if p[i] > b.Max[i] {
			v := p[i] - b.Max[i]
			d += v * v
		}
	}
	return d
}
