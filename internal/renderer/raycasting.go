package renderer

import (
	"math"

	"Prism3D/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// RayIntersectSphere returns the nearest hit in front of the origin.
func RayIntersectSphere(ray Ray, center mgl32.Vec3, radius float32) (bool, float32) {
	oc := ray.Origin.Sub(center)
	a := ray.Direction.Dot(ray.Direction)
	b := 2.0 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 || a == 0 {
		return false, 0
	}
	sqrtDisc := float32(math.Sqrt(float64(discriminant)))
	t1 := (-b - sqrtDisc) / (2 * a)
	t2 := (-b + sqrtDisc) / (2 * a)
	switch {
	case t1 > 0:
		return true, t1
	case t2 > 0:
		return true, t2
	}
	return false, 0
}

// RayIntersectTriangle uses the Möller-Trumbore algorithm.
func RayIntersectTriangle(ray Ray, v0, v1, v2 mgl32.Vec3) (bool, float32) {
	const epsilon = 0.0000001

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return false, 0
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return false, 0
	}
	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return false, 0
	}

	t := f * edge2.Dot(q)
	if t > epsilon {
		return true, t
	}
	return false, 0
}

// RayIntersectAABB is the slab test. An origin inside the box hits at 0.
func RayIntersectAABB(ray Ray, box geom.AABB) (bool, float32) {
	tmin := float32(math.Inf(-1))
	tmax := float32(math.Inf(1))
	for i := 0; i < 3; i++ {
		if ray.Direction[i] == 0 {
			if ray.Origin[i] < box.Min[i] || ray.Origin[i] > box.Max[i] {
				return false, 0
			}
			continue
		}
		inv := 1 / ray.Direction[i]
		t1 := (box.Min[i] - ray.Origin[i]) * inv
		t2 := (box.Max[i] - ray.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return false, 0
		}
	}
	if tmax < 0 {
		return false, 0
	}
	if tmin < 0 {
		return true, 0
	}
	return true, tmin
}

// RayIntersectModel tests the world bounds of model placed by its own
// transform.
func RayIntersectModel(ray Ray, model *Model) (bool, float32) {
	return RayIntersectAABB(ray, model.Bounds().Transform(model.Transform.Matrix()))
}

// ScreenToRay converts a window position (origin top left) to a world
// space ray from the camera.
func ScreenToRay(camera Camera, screenX, screenY float32, windowWidth, windowHeight int) Ray {
	if windowWidth <= 0 || windowHeight <= 0 {
		return Ray{Origin: camera.Position, Direction: camera.Front}
	}
	ndcX := 2.0*screenX/float32(windowWidth) - 1.0
	ndcY := 1.0 - 2.0*screenY/float32(windowHeight)

	aspect := float32(windowWidth) / float32(windowHeight)
	invViewProj := camera.GetViewProjection(aspect).Inv()
	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, invViewProj)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, invViewProj)

	return Ray{
		Origin:    camera.Position,
		Direction: far.Sub(near).Normalize(),
	}
}

// Pick returns the index of the nearest model hit by ray, or -1.
func Pick(ray Ray, models []*Model) int {
	best, bestT := -1, float32(math.Inf(1))
	for i, m := range models {
		if m == nil {
			continue
		}
		if hit, t := RayIntersectModel(ray, m); hit && t < bestT {
			best, bestT = i, t
		}
	}
	return best
}
