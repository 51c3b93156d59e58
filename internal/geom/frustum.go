package geom

import "github.com/go-gl/mathgl/mgl32"

type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

func (p *Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Frustum holds the six planes extracted from a view-projection matrix, in
// left, right, bottom, top, near, far order, normals pointing inward.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum extracts and normalizes the planes of vp (Gribb/Hartmann).
func NewFrustum(vp mgl32.Mat4) Frustum {
	var f Frustum

	// Left
	f.Planes[0] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[0], vp[7] + vp[4], vp[11] + vp[8]},
		Distance: vp[15] + vp[12],
	}
	// Right
	f.Planes[1] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[0], vp[7] - vp[4], vp[11] - vp[8]},
		Distance: vp[15] - vp[12],
	}
	// Bottom
	f.Planes[2] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[1], vp[7] + vp[5], vp[11] + vp[9]},
		Distance: vp[15] + vp[13],
	}
	// Top
	f.Planes[3] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[1], vp[7] - vp[5], vp[11] - vp[9]},
		Distance: vp[15] - vp[13],
	}
	// Near
	f.Planes[4] = Plane{
		Normal:   mgl32.Vec3{vp[3] + vp[2], vp[7] + vp[6], vp[11] + vp[10]},
		Distance: vp[15] + vp[14],
	}
	// Far
	f.Planes[5] = Plane{
		Normal:   mgl32.Vec3{vp[3] - vp[2], vp[7] - vp[6], vp[11] - vp[10]},
		Distance: vp[15] - vp[14],
	}

	for i := range f.Planes {
		length := f.Planes[i].Normal.Len()
		if length == 0 {
			continue
		}
		f.Planes[i].Normal = f.Planes[i].Normal.Mul(1.0 / length)
		f.Planes[i].Distance /= length
	}
	return f
}

func (f *Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

// IntersectsAABB reports whether box is at least partially inside the
// frustum. It tests the box corner furthest along each plane normal, which
// may accept a few boxes near frustum edges that are actually outside.
func (f *Frustum) IntersectsAABB(box AABB) bool {
	for _, plane := range f.Planes {
		p := box.Min
		if plane.Normal[0] >= 0 {
			p[0] = box.Max[0]
		}
		if plane.Normal[1] >= 0 {
			p[1] = box.Max[1]
		}
		if plane.Normal[2] >= 0 {
			p[2] = box.Max[2]
		}
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

func (f *Frustum) ContainsPoint(point mgl32.Vec3) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(point) < 0 {
			return false
		}
	}
	return true
}
