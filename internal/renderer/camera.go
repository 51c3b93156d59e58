package renderer

import (
	"math"

	"Prism3D/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	// HOT DATA - read every frame by Begin
	Position mgl32.Vec3
	Front    mgl32.Vec3
	Up       mgl32.Vec3
	Right    mgl32.Vec3
	Pitch    float32
	Yaw      float32

	// COLD DATA - configuration and input handling
	WorldUp     mgl32.Vec3
	Speed       float32
	Sensitivity float32
	Fov         float32 // vertical, degrees
	Near        float32
	Far         float32
	InvertMouse bool
}

func NewDefaultCamera() *Camera {
	camera := Camera{
		Position:    mgl32.Vec3{0, 2, 10},
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Pitch:       0.0,
		Yaw:         -90.0,
		Speed:       10,
		Sensitivity: 0.1,
		Fov:         60.0,
		Near:        0.05,
		Far:         1000.0,
	}
	camera.updateCameraVectors()
	return &camera
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

// GetProjectionMatrix builds the perspective for the given aspect ratio. The
// renderer passes the aspect of its internal resolution.
func (c *Camera) GetProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far)
}

func (c *Camera) GetViewProjection(aspect float32) mgl32.Mat4 {
	return c.GetProjectionMatrix(aspect).Mul4(c.GetViewMatrix())
}

func (c *Camera) Frustum(aspect float32) geom.Frustum {
	return geom.NewFrustum(c.GetViewProjection(aspect))
}

// Move translates the camera along its local axes: forward along Front,
// right along Right, up along WorldUp. Amounts are scaled by Speed.
func (c *Camera) Move(forward, right, up, deltaTime float32) {
	velocity := c.Speed * deltaTime
	c.Position = c.Position.
		Add(c.Front.Mul(forward * velocity)).
		Add(c.Right.Mul(right * velocity)).
		Add(c.WorldUp.Mul(up * velocity))
}

func (c *Camera) ProcessMouseMovement(xoffset, yoffset float32, constrainPitch bool) {
	xoffset *= c.Sensitivity
	yoffset *= c.Sensitivity

	c.Yaw += xoffset

	if c.InvertMouse {
		c.Pitch -= yoffset
	} else {
		c.Pitch += yoffset
	}
	if constrainPitch {
		c.Pitch = mgl32.Clamp(c.Pitch, -89.0, 89.0)
	}
	c.updateCameraVectors()
}

// LookAt points the camera at target, keeping its position.
func (c *Camera) LookAt(target mgl32.Vec3) {
	direction := target.Sub(c.Position)
	if direction.Len() == 0 {
		return
	}
	direction = direction.Normalize()
	c.Yaw = mgl32.RadToDeg(float32(math.Atan2(float64(direction.Z()), float64(direction.X()))))
	c.Pitch = mgl32.RadToDeg(float32(math.Asin(float64(mgl32.Clamp(direction.Y(), -1, 1)))))
	c.Pitch = mgl32.Clamp(c.Pitch, -89.0, 89.0)
	c.updateCameraVectors()
}

func (c *Camera) updateCameraVectors() {
	yawRad := mgl32.DegToRad(c.Yaw)
	pitchRad := mgl32.DegToRad(c.Pitch)

	front := mgl32.Vec3{
		float32(math.Cos(float64(yawRad)) * math.Cos(float64(pitchRad))),
		float32(math.Sin(float64(pitchRad))),
		float32(math.Sin(float64(yawRad)) * math.Cos(float64(pitchRad))),
	}

	c.Front = front.Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}
