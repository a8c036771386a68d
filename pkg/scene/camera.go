package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/arview/pkg/geometry"
)

// PerspectiveCamera is a look-at camera with a vertical field of view
type PerspectiveCamera struct {
	Position geometry.Vector3
	Target   geometry.Vector3
	Up       geometry.Vector3
	FOV      float64 // vertical, radians
	Near     float64
	Far      float64
}

// NewPerspectiveCamera creates a camera with +Y up
func NewPerspectiveCamera(fovDegrees, near, far float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		Up:   geometry.NewVector3(0, 1, 0),
		FOV:  mgl64.DegToRad(fovDegrees),
		Near: near,
		Far:  far,
	}
}

// SetPosition moves the camera
func (c *PerspectiveCamera) SetPosition(p geometry.Vector3) {
	c.Position = p
}

// LookAt aims the camera
func (c *PerspectiveCamera) LookAt(target geometry.Vector3) {
	c.Target = target
}

// Forward returns the unit view direction
func (c *PerspectiveCamera) Forward() geometry.Vector3 {
	return c.Target.Sub(c.Position).Normalize()
}

// View returns the view matrix
func (c *PerspectiveCamera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position.Vec3(), c.Target.Vec3(), c.Up.Vec3())
}

// Ray converts a screen point to a world-space ray from the camera
func (c *PerspectiveCamera) Ray(screenX, screenY, width, height float64) (origin, direction geometry.Vector3) {
	ndcX := (2.0 * screenX / width) - 1.0
	ndcY := 1.0 - (2.0 * screenY / height)

	aspect := width / height
	fovScale := math.Tan(c.FOV / 2)

	forward := c.Forward()
	right := forward.Cross(c.Up).Normalize()
	up := right.Cross(forward).Normalize()

	dir := forward.Add(right.Mul(ndcX * fovScale * aspect)).Add(up.Mul(ndcY * fovScale))
	return c.Position, dir.Normalize()
}
